package node

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input    string
		wantOK   bool
		wantVerb Verb
		wantRaw  string
	}{
		{input: "help", wantOK: true, wantVerb: VerbHelp, wantRaw: "help"},
		{input: "h", wantOK: true, wantVerb: VerbHelp, wantRaw: "h"},
		{input: "  STOP\r\n", wantOK: true, wantVerb: VerbStop, wantRaw: "stop"},
		{input: "Start", wantOK: true, wantVerb: VerbStart, wantRaw: "start"},
		{input: "status", wantOK: true, wantVerb: VerbStatus, wantRaw: "status"},
		{input: "stopp", wantOK: true, wantVerb: VerbUnknown, wantRaw: "stopp"},
		{input: "st", wantOK: true, wantVerb: VerbUnknown, wantRaw: "st"},
		{input: "help me", wantOK: true, wantVerb: VerbUnknown, wantRaw: "help me"},
		{input: "", wantOK: false},
		{input: " \t\n", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cmd, ok := ParseCommand(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("ParseCommand(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if cmd.Verb != tt.wantVerb {
				t.Errorf("Verb = %v, want %v", cmd.Verb, tt.wantVerb)
			}
			if cmd.Raw != tt.wantRaw {
				t.Errorf("Raw = %q, want %q", cmd.Raw, tt.wantRaw)
			}
		})
	}
}

func TestVerbAndSourceNames(t *testing.T) {
	verbs := map[Verb]string{
		VerbHelp:    "help",
		VerbStart:   "start",
		VerbStop:    "stop",
		VerbStatus:  "status",
		VerbUnknown: "unknown",
	}
	for v, want := range verbs {
		if v.String() != want {
			t.Errorf("Verb(%d).String() = %q, want %q", v, v.String(), want)
		}
	}

	if SourceLocal.String() != "console" || SourceBus.String() != "mqtt" {
		t.Errorf("source names = %q, %q", SourceLocal.String(), SourceBus.String())
	}
}

func TestControlState(t *testing.T) {
	c := NewControlState()
	if !c.Active() {
		t.Fatal("new ControlState must start active")
	}
	c.setActive(false)
	if c.Active() {
		t.Error("Active() = true after setActive(false)")
	}
}
