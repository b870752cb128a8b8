// Package audit records lifecycle events for an installation directory.
// Events are stored as JSON Lines (JSONL), one file per directory.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Step names a lifecycle step.
type Step string

const (
	StepRepository Step = "repository"
	StepRuntime    Step = "runtime"
	StepConfig     Step = "config"
	StepBuild      Step = "build"
	StepFirewall   Step = "firewall"
	StepPlugins    Step = "plugins"
	StepStop       Step = "stop"
	StepUninstall  Step = "uninstall"
	StepDelete     Step = "delete"
)

// Status is the result of a step.
type Status string

const (
	StatusOK      Status = "ok"
	StatusSkipped Status = "skipped"
	StatusWarning Status = "warning"
	StatusFailed  Status = "failed"
)

// Event represents a single audit log entry.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id"`
	Flow      string    `json:"flow"`
	Step      Step      `json:"step"`
	Status    Status    `json:"status"`
	Details   string    `json:"details,omitempty"`
}

// NewRunID returns a fresh identifier for one invocation.
func NewRunID() string {
	return uuid.NewString()
}

// Logger appends events for one invocation to a JSONL file.
type Logger struct {
	path  string
	runID string
	flow  string
}

// NewLogger creates a logger writing to path. Every event it writes carries
// runID and flow.
func NewLogger(path, runID, flow string) *Logger {
	return &Logger{path: path, runID: runID, flow: flow}
}

// RunID returns the invocation identifier.
func (l *Logger) RunID() string {
	return l.runID
}

// Path returns the event file path.
func (l *Logger) Path() string {
	return l.path
}

// Log appends an event to the audit log.
func (l *Logger) Log(event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.RunID == "" {
		event.RunID = l.runID
	}
	if event.Flow == "" {
		event.Flow = l.flow
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return fmt.Errorf("failed to create audit log directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	return nil
}

// Record is a convenience method that creates and logs an event.
func (l *Logger) Record(step Step, status Status, details string) error {
	return l.Log(Event{Step: step, Status: status, Details: details})
}

// Events reads every event in path in chronological order. A missing file
// has no events.
func Events(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var event Event
		if err := json.Unmarshal(line, &event); err != nil {
			continue // Skip malformed lines
		}
		events = append(events, event)
	}

	if err := scanner.Err(); err != nil {
		return events, fmt.Errorf("error reading audit log: %w", err)
	}

	return events, nil
}

// Last returns the most recent event for step, or false when there is none.
func Last(events []Event, step Step) (Event, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Step == step {
			return events[i], true
		}
	}
	return Event{}, false
}
