package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
)

func TestSetup_Levels(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		log     func(string, ...any)
		want    bool
	}{
		{"debug quiet", false, Debug, false},
		{"info quiet", false, Info, false},
		{"warn quiet", false, Warn, true},
		{"error quiet", false, Error, true},
		{"debug verbose", true, Debug, true},
		{"info verbose", true, Info, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Setup(tt.verbose, false, &buf)

			tt.log("fetching checkout", "path", "/opt/mythic")

			if got := strings.Contains(buf.String(), "fetching checkout"); got != tt.want {
				t.Errorf("logged = %v, want %v (output %q)", got, tt.want, buf.String())
			}
			if Verbose != tt.verbose {
				t.Errorf("Verbose = %v, want %v", Verbose, tt.verbose)
			}
		})
	}
}

func TestSetup_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	Setup(false, true, &buf)

	Warn("rule rejected", "chain", "DOCKER-USER")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output %q is not JSON: %v", buf.String(), err)
	}
	if record["msg"] != "rule rejected" || record["chain"] != "DOCKER-USER" {
		t.Errorf("record = %v", record)
	}
}

func TestWith(t *testing.T) {
	var buf bytes.Buffer
	Setup(false, false, &buf)

	With("component", "firewall").Warn("chain missing")

	if out := buf.String(); !strings.Contains(out, "component=firewall") {
		t.Errorf("output = %q, want component attribute", out)
	}
}

func TestSetup_NilWriter(t *testing.T) {
	Setup(false, false, nil)
	if Logger == nil {
		t.Error("Logger is nil after Setup with nil writer")
	}
}

func TestUserOutput(t *testing.T) {
	var stdout, stderr bytes.Buffer
	SetOutput(&stdout, &stderr)
	defer SetOutput(nil, nil)

	UserInfo("Cloning %s", "Mythic")
	UserSuccess("done")
	UserWarning("plugin %s failed", "dns")
	UserError("fatal")

	if got := stdout.String(); got != "ℹ Cloning Mythic\n✓ done\n" {
		t.Errorf("stdout = %q", got)
	}
	if got := stderr.String(); got != "⚠ plugin dns failed\n✗ fatal\n" {
		t.Errorf("stderr = %q", got)
	}
}

func TestSetOutput_NilRestores(t *testing.T) {
	SetOutput(&bytes.Buffer{}, &bytes.Buffer{})
	SetOutput(nil, nil)

	if Stdout != os.Stdout || Stderr != os.Stderr {
		t.Error("SetOutput(nil, nil) did not restore the process streams")
	}
}
