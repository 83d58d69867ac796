// Package logging provides the node's structured diagnostics on log/slog.
//
// Entries always carry service=climatenode and the build version. The format
// is json (default) or text, filtered by level:
//
//	logging:
//	  level: info      # debug, info, warn, error
//	  format: text     # json, text
//	  output: stderr   # stderr, stdout
//
// Diagnostics default to stderr so that stdout stays free for the
// human-readable command console. Never log the MQTT password or the
// InfluxDB token.
package logging
