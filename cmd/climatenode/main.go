// Climate Node - networked humidity/temperature sensor
//
// This is the main entry point for the climate node. It samples a
// humidity/temperature sensor, publishes readings over MQTT, and accepts
// help/start/stop/status commands from the local console and from the bus.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/nerrad567/climate-node/internal/api"
	"github.com/nerrad567/climate-node/internal/console"
	"github.com/nerrad567/climate-node/internal/indicator"
	"github.com/nerrad567/climate-node/internal/infrastructure/config"
	"github.com/nerrad567/climate-node/internal/infrastructure/influxdb"
	"github.com/nerrad567/climate-node/internal/infrastructure/logging"
	"github.com/nerrad567/climate-node/internal/infrastructure/metrics"
	"github.com/nerrad567/climate-node/internal/infrastructure/mqtt"
	"github.com/nerrad567/climate-node/internal/network"
	"github.com/nerrad567/climate-node/internal/node"
	"github.com/nerrad567/climate-node/internal/sensor"
	"github.com/nerrad567/climate-node/internal/timesync"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// consoleBuffer is how many typed lines may wait between ticks.
const consoleBuffer = 16

// options holds the parsed command line.
type options struct {
	configPath  string
	showVersion bool
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}
	if opts.showVersion {
		fmt.Printf("climatenode %s (commit %s, built %s)\n", version, commit, date)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, getConfigPath(opts.configPath)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags parses the command line. Usage and parse errors go to errOut.
func parseFlags(args []string, errOut io.Writer) (options, error) {
	var opts options
	fs := pflag.NewFlagSet("climatenode", pflag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVarP(&opts.configPath, "config", "c", "",
		"path to config file (default $CLIMATENODE_CONFIG or "+defaultConfigPath+")")
	fs.BoolVar(&opts.showVersion, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		// pflag prints usage itself only for --help.
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintf(errOut, "Error: %v\nUsage of climatenode:\n%s", err, fs.FlagUsages())
		}
		return opts, err
	}
	return opts, nil
}

// logStartup records the build. The logger already carries version.
func logStartup(log *logging.Logger) {
	log.Info("starting climate node", "commit", commit, "build_date", date)
}

// getConfigPath returns the configuration file path: flag, then
// CLIMATENODE_CONFIG, then the default.
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if path := os.Getenv("CLIMATENODE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - configPath: YAML configuration file
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, configPath string) error {
	log := logging.Default(version)
	logStartup(log)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", configPath, "device_id", cfg.Device.ID)

	out := console.NewWriter(os.Stdout)
	out.WriteLine("")
	out.WriteLine("=== DHT22 Climate Node Starting ===")

	reader, err := sensor.New(cfg.Sensor)
	if err != nil {
		return fmt.Errorf("opening sensor: %w", err)
	}
	log.Info("sensor ready", "driver", cfg.Sensor.Driver)

	m := metrics.New(version)

	mqttClient := mqtt.New(cfg.MQTT, cfg.ClientID())
	mqttClient.SetLogger(log.Component("mqtt"))
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT connection lost", "error", err)
	})
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	bus := newBusAdapter(mqttClient, byte(cfg.MQTT.QoS))

	announcements, err := discoveryAnnouncements(cfg)
	if err != nil {
		return fmt.Errorf("building discovery messages: %w", err)
	}

	probe := network.NewProbe(cfg.Network.Interface)
	supervisor := node.NewSupervisor(probe, bus, node.SupervisorConfig{
		CommandTopic:  cfg.MQTT.Topics.Subscribe,
		LinkRetry:     cfg.Network.RetryInterval,
		BusRetry:      cfg.MQTT.Reconnect.Interval,
		Announcements: announcements,
	}, log.Component("supervisor"))
	supervisor.SetMetrics(m)

	// Link first: nothing useful happens without it.
	out.WriteLine("Attempting to connect to network interface: " + interfaceLabel(cfg.Network.Interface))
	if err := supervisor.EnsureLink(ctx); err != nil {
		if ctx.Err() != nil {
			log.Info("shutdown before network link came up")
			return nil
		}
		return fmt.Errorf("waiting for network link: %w", err)
	}
	out.WriteLine("WiFi connected")
	out.WriteLine("IP address: " + probe.Address())

	clock := timesync.NewClock(cfg.Location())
	syncClock(ctx, timesync.NewSyncer(cfg.TimeSync, clock), clock, out, log)

	influxClient := connectInfluxDB(ctx, cfg.InfluxDB, log)
	defer func() {
		if influxClient == nil {
			return
		}
		queued, failed := influxClient.Stats()
		log.Info("closing InfluxDB", "points_queued", queued, "batches_failed", failed)
		if closeErr := influxClient.Close(); closeErr != nil {
			log.Error("error closing InfluxDB", "error", closeErr)
		}
	}()

	led, err := indicator.New(cfg.Indicator)
	if err != nil {
		log.Warn("indicator unavailable, continuing without LED", "error", err)
		led = indicator.Noop{}
	}
	defer func() {
		if closeErr := led.Close(); closeErr != nil {
			log.Error("error closing indicator", "error", closeErr)
		}
	}()

	control := node.NewControlState()

	dispatcher := node.NewDispatcher(control, supervisor, bus, cfg.MQTT.Topics.Publish, out, log.Component("dispatcher"))
	dispatcher.SetMetrics(commandMetrics{Metrics: m, influx: influxClient, deviceID: cfg.Device.ID, clock: clock})

	publisher := node.NewPublisher(reader, bus, supervisor, node.PublisherConfig{
		DeviceID: cfg.Device.ID,
		Topic:    cfg.MQTT.Topics.Publish,
		Interval: cfg.Sensor.PublishInterval,
		Cooldown: cfg.Sensor.FailureCooldown,
		Pulse:    cfg.Indicator.Pulse,
	}, log.Component("publisher"))
	publisher.SetIndicator(led)
	publisher.SetClock(clock)
	publisher.SetOutput(out)
	publisher.SetMetrics(m)
	if influxClient != nil {
		publisher.SetMirror(influxClient)
	}

	var local <-chan string
	if cfg.Console.Enabled {
		local = console.Lines(os.Stdin, consoleBuffer, log.Component("console"))
	}

	scheduler := node.NewScheduler(control, supervisor, dispatcher, publisher, local, cfg.Sensor.IdleInterval, out, log.Component("scheduler"))

	if cfg.API.Enabled {
		server, apiErr := api.New(api.Deps{
			Config:   cfg.API,
			Logger:   log.Component("api"),
			Status:   scheduler,
			Bus:      mqttClient,
			Metrics:  m.Handler(),
			DeviceID: cfg.Device.ID,
			Version:  version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if apiErr = server.Start(); apiErr != nil {
			return fmt.Errorf("starting API server: %w", apiErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	out.WriteLine("")
	out.WriteLine("System ready! Type 'help' for available commands.")
	out.WriteLines(node.HelpLines())

	if err := scheduler.Run(ctx); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	log.Info("climate node stopped", "dropped_bus_commands", supervisor.Dropped())
	return nil
}

// syncClock runs the startup NTP sync. Failure is logged and tolerated.
func syncClock(ctx context.Context, syncer *timesync.Syncer, clock *timesync.Clock, out *console.Writer, log *logging.Logger) {
	offset, err := syncer.Sync(ctx)
	switch {
	case errors.Is(err, timesync.ErrDisabled):
		log.Info("time sync disabled")
	case err != nil:
		log.Warn("time sync failed, using local clock", "error", err)
		out.WriteLine("NTP server: fail.")
	default:
		log.Info("time synchronised", "offset", offset.String())
		out.WriteLine("Now is " + clock.Now().Format(time.RFC3339))
	}
}

// connectInfluxDB opens the telemetry mirror. A nil client means disabled
// or unreachable; the node runs without it.
func connectInfluxDB(ctx context.Context, cfg config.InfluxDBConfig, log *logging.Logger) *influxdb.Client {
	if !cfg.Enabled {
		return nil
	}
	client, err := influxdb.Connect(ctx, cfg)
	if err != nil {
		log.Warn("InfluxDB unavailable, telemetry mirror disabled", "error", err)
		return nil
	}
	client.SetOnError(func(err error) {
		log.Warn("InfluxDB write failed", "error", err)
	})
	log.Info("InfluxDB connected", "url", cfg.URL, "bucket", cfg.Bucket)
	return client
}

// discoveryAnnouncements builds the retained Home Assistant discovery
// configs republished on every bus connect.
func discoveryAnnouncements(cfg *config.Config) ([]node.Retained, error) {
	if !cfg.HomeAssistant.Discovery {
		return nil, nil
	}
	msgs, err := mqtt.DiscoveryMessages(mqtt.DiscoveryOptions{
		Prefix:            cfg.HomeAssistant.Prefix,
		DeviceID:          cfg.Device.ID,
		DeviceName:        cfg.Device.Name,
		Version:           version,
		StateTopic:        cfg.MQTT.Topics.Publish,
		AvailabilityTopic: cfg.MQTT.Topics.Availability,
	})
	if err != nil {
		return nil, err
	}
	out := make([]node.Retained, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, node.Retained{Topic: msg.Topic, Payload: msg.Payload})
	}
	return out, nil
}

func interfaceLabel(iface string) string {
	if iface == "" {
		return "any"
	}
	return iface
}
