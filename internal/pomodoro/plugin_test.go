package pomodoro

import (
	"strings"
	"testing"

	"taiga/internal/plugin"
	"taiga/internal/testsupport"
)

func TestParseBounded(t *testing.T) {
	if _, err := parseBounded("FOCUS", "abc", minFocusMinutes, maxFocusMinutes); err == nil {
		t.Fatal("non-numeric value accepted")
	}
	if _, err := parseBounded("FOCUS", "0", minFocusMinutes, maxFocusMinutes); err == nil {
		t.Fatal("value below range accepted")
	}
	if _, err := parseBounded("FOCUS", "481", minFocusMinutes, maxFocusMinutes); err == nil {
		t.Fatal("value above range accepted")
	}
	got, err := parseBounded("CYCLES", "4", minCycles, maxCycles)
	if err != nil || got != 4 {
		t.Fatalf("parseBounded = %d, %v", got, err)
	}
}

func TestStartArgValidationBeforeDial(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	p := NewPlugin(cfg, nil)

	// Invalid arguments must fail without reaching for the daemon socket.
	if _, err := p.Execute(VerbStart, []string{"999", "5", "4"}, nil); err == nil {
		t.Fatal("out-of-range focus accepted")
	}
	if _, err := p.Execute(VerbStart, []string{"25", "banana", "4"}, nil); err == nil {
		t.Fatal("non-numeric break accepted")
	}
	result, err := p.Execute(VerbStart, []string{"25"}, nil)
	if err != nil {
		t.Fatalf("partial args: %v", err)
	}
	if result.Kind != plugin.ResultError {
		t.Fatalf("partial args result = %+v", result)
	}
	if !strings.Contains(result.Message, "usage") {
		t.Fatalf("partial args message = %q", result.Message)
	}
}

func TestCommandsCoverDaemonVerbs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	p := NewPlugin(cfg, nil)

	names := map[string]bool{}
	for _, def := range p.Commands() {
		names[def.Name] = true
	}
	for _, verb := range []string{VerbStart, VerbStatus, VerbStop, VerbPause, VerbResume, VerbPing, VerbKill, "history", "daemon"} {
		if !names[verb] {
			t.Errorf("command %q not declared", verb)
		}
	}
}

func TestFormatStatus(t *testing.T) {
	if got := formatStatus(&Status{Mode: ModeIdle}); got != "Idle" {
		t.Fatalf("idle = %q", got)
	}
	got := formatStatus(&Status{Mode: ModeFocus, Running: true, RemainingSeconds: 605, CyclesLeft: 3})
	want := "Running | Mode: focus | Time: 10:05 | Cycles left: 3"
	if got != want {
		t.Fatalf("status = %q, want %q", got, want)
	}
	got = formatStatus(&Status{Mode: ModeFocus, Running: false, RemainingSeconds: 60, CyclesLeft: 1})
	if !strings.HasPrefix(got, "Paused") {
		t.Fatalf("paused status = %q", got)
	}
}

func TestHistoryCommandEmpty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	p := NewPlugin(cfg, nil)

	result, err := p.Execute("history", nil, nil)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(result.Message, "No sessions") {
		t.Fatalf("message = %q", result.Message)
	}

	if result, err := p.Execute("history", []string{"-3"}, nil); err != nil || !strings.Contains(result.Message, "COUNT") {
		t.Fatalf("bad count = %+v, %v", result, err)
	}
}
