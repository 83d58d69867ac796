package node

import (
	"encoding/json"
	"fmt"
)

// Fixed state labels used in status reports.
const (
	labelActive       = "ACTIVE"
	labelStopped      = "STOPPED"
	labelConnected    = "CONNECTED"
	labelDisconnected = "DISCONNECTED"
)

// Snapshot is the state a reply is built from.
type Snapshot struct {
	Active       bool
	LinkUp       bool
	BusConnected bool
}

// Ack is the bus reply to start and stop.
type Ack struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// StatusReport is the bus reply to status.
type StatusReport struct {
	Sensor  string `json:"sensor"`
	WiFi    string `json:"wifi"`
	MQTT    string `json:"mqtt"`
	Message string `json:"message"`
}

// ErrorReply is the bus reply to an unknown command.
type ErrorReply struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// helpLines is the command reference shown on the console.
var helpLines = []string{
	"=== DHT22 Sensor Control Commands ===",
	"help or h    - Show this help message",
	"stop         - Stop sensor readings and MQTT publishing",
	"start        - Start/resume sensor readings and MQTT publishing",
	"status       - Show current sensor status",
	"Commands work via Serial Console AND MQTT",
	"========================================",
}

// HelpLines returns a copy of the console help text.
func HelpLines() []string {
	out := make([]string, len(helpLines))
	copy(out, helpLines)
	return out
}

// BuildReply returns the structured bus reply for verb, or nil when the
// verb has none (help).
func BuildReply(verb Verb, s Snapshot) []byte {
	var v any
	switch verb {
	case VerbStop:
		v = Ack{Status: "stopped", Message: "Sensor readings stopped"}
	case VerbStart:
		v = Ack{Status: "started", Message: "Sensor readings started"}
	case VerbStatus:
		v = StatusReport{
			Sensor:  activeLabel(s.Active),
			WiFi:    connectedLabel(s.LinkUp),
			MQTT:    connectedLabel(s.BusConnected),
			Message: "Status report",
		}
	case VerbUnknown:
		v = ErrorReply{
			Error:   "unknown_command",
			Message: "Unknown command. Send 'help' for available commands",
		}
	default:
		return nil
	}

	// Marshalling fixed string structs cannot fail.
	payload, _ := json.Marshal(v)
	return payload
}

// LocalLines returns the console text for a dispatched command.
func LocalLines(cmd Command, source Source, s Snapshot) []string {
	switch cmd.Verb {
	case VerbHelp:
		return HelpLines()
	case VerbStop:
		return []string{fmt.Sprintf("Sensor readings STOPPED via %s. MQTT publishing disabled.", source.label())}
	case VerbStart:
		return []string{fmt.Sprintf("Sensor readings STARTED via %s. MQTT publishing enabled.", source.label())}
	case VerbStatus:
		return []string{
			"Status requested via " + source.label(),
			"Sensor status: " + activeLabel(s.Active),
			"WiFi status: " + connectedLabel(s.LinkUp),
			"MQTT status: " + connectedLabel(s.BusConnected),
		}
	default:
		return []string{fmt.Sprintf("Unknown command '%s' received via %s. Type 'help' for available commands.", cmd.Raw, source.label())}
	}
}

func activeLabel(active bool) string {
	if active {
		return labelActive
	}
	return labelStopped
}

func connectedLabel(up bool) string {
	if up {
		return labelConnected
	}
	return labelDisconnected
}
