package node

import "strings"

// Verb is a recognised command keyword.
type Verb int

// Command verbs.
const (
	VerbUnknown Verb = iota
	VerbHelp
	VerbStart
	VerbStop
	VerbStatus
)

// String returns the verb's lowercase name, used as a metric label.
func (v Verb) String() string {
	switch v {
	case VerbHelp:
		return "help"
	case VerbStart:
		return "start"
	case VerbStop:
		return "stop"
	case VerbStatus:
		return "status"
	default:
		return "unknown"
	}
}

// Source tags where a command came from.
type Source int

const (
	// SourceLocal is the local text console.
	SourceLocal Source = iota
	// SourceBus is the MQTT command topic.
	SourceBus
)

// String returns the source's lowercase name, used as a metric label.
func (s Source) String() string {
	if s == SourceBus {
		return "mqtt"
	}
	return "console"
}

// label is the name shown to operators in console text.
func (s Source) label() string {
	if s == SourceBus {
		return "MQTT"
	}
	return "Console"
}

// Command is a normalised operator command.
type Command struct {
	Verb Verb
	// Raw is the trimmed, lowercased input text.
	Raw string
}

// ParseCommand normalises text and matches it against the command vocabulary.
//
// Matching is exact after trimming and case folding: "STOP " is stop,
// "stopp" is unknown. Empty input yields no command (ok == false).
func ParseCommand(text string) (cmd Command, ok bool) {
	raw := strings.ToLower(strings.TrimSpace(text))
	if raw == "" {
		return Command{}, false
	}

	cmd = Command{Verb: VerbUnknown, Raw: raw}
	switch raw {
	case "help", "h":
		cmd.Verb = VerbHelp
	case "start":
		cmd.Verb = VerbStart
	case "stop":
		cmd.Verb = VerbStop
	case "status":
		cmd.Verb = VerbStatus
	}
	return cmd, true
}
