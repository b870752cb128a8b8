package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestLogger_LogAndEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".mythic-ctl", "events.jsonl")
	logger := NewLogger(path, NewRunID(), "install")

	now := time.Now().Truncate(time.Millisecond)

	events := []Event{
		{Timestamp: now, Step: StepRepository, Status: StatusOK, Details: "cloned"},
		{Timestamp: now.Add(time.Second), Step: StepConfig, Status: StatusOK},
		{Timestamp: now.Add(2 * time.Second), Step: StepBuild, Status: StatusOK},
		{Timestamp: now.Add(3 * time.Second), Step: StepFirewall, Status: StatusFailed, Details: "iptables-restore: exit status 2"},
	}

	for _, e := range events {
		if err := logger.Log(e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	result, err := Events(path)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	if len(result) != len(events) {
		t.Fatalf("got %d events, want %d", len(result), len(events))
	}

	for i, e := range result {
		if e.Step != events[i].Step {
			t.Errorf("event %d: step = %q, want %q", i, e.Step, events[i].Step)
		}
		if e.Status != events[i].Status {
			t.Errorf("event %d: status = %q, want %q", i, e.Status, events[i].Status)
		}
		if e.Details != events[i].Details {
			t.Errorf("event %d: details = %q, want %q", i, e.Details, events[i].Details)
		}
		if e.RunID != logger.RunID() {
			t.Errorf("event %d: run id = %q, want %q", i, e.RunID, logger.RunID())
		}
		if e.Flow != "install" {
			t.Errorf("event %d: flow = %q, want install", i, e.Flow)
		}
	}
}

func TestEvents_Missing(t *testing.T) {
	result, err := Events(filepath.Join(t.TempDir(), "events.jsonl"))
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	if len(result) != 0 {
		t.Errorf("got %d events, want 0", len(result))
	}
}

func TestLogger_Record(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	logger := NewLogger(path, NewRunID(), "cleanup")

	if err := logger.Record(StepStop, StatusOK, "stack stopped"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	events, err := Events(path)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}

	e := events[0]
	if e.Step != StepStop {
		t.Errorf("step = %q, want %q", e.Step, StepStop)
	}
	if e.Details != "stack stopped" {
		t.Errorf("details = %q, want %q", e.Details, "stack stopped")
	}
	if e.Timestamp.IsZero() {
		t.Error("timestamp should be set automatically")
	}
}

func TestLogger_FilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	if err := NewLogger(path, NewRunID(), "install").Record(StepConfig, StatusOK, ""); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("perm = %o, want 600", perm)
	}
}

func TestEvents_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	content := `{"step":"build","status":"ok"}
not json
{"step":"plugins","status":"warning"}
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	events, err := Events(path)
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
}

func TestLast(t *testing.T) {
	events := []Event{
		{Step: StepPlugins, Status: StatusOK},
		{Step: StepBuild, Status: StatusOK},
		{Step: StepPlugins, Status: StatusWarning},
	}

	e, ok := Last(events, StepPlugins)
	if !ok || e.Status != StatusWarning {
		t.Errorf("Last(plugins) = %+v, %v, want the warning event", e, ok)
	}
	if _, ok := Last(events, StepDelete); ok {
		t.Error("Last(delete) found an event, want none")
	}
}

func TestNewRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	if a == b {
		t.Errorf("NewRunID() returned %q twice", a)
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("NewRunID() = %q is not a UUID: %v", a, err)
	}
}

func TestLogger_EventOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	logger := NewLogger(path, NewRunID(), "install")

	base := time.Now()
	for i := 0; i < 5; i++ {
		logger.Log(Event{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Step:      StepPlugins,
			Details:   string(rune('A' + i)),
		})
	}

	events, _ := Events(path)
	if len(events) != 5 {
		t.Fatalf("got %d events, want 5", len(events))
	}

	// Append-only
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.Before(events[i-1].Timestamp) {
			t.Errorf("event %d timestamp before event %d", i, i-1)
		}
	}
}
