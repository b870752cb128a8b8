package envfile

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/firefly-engineering/mythic-ctl/internal/errors"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func TestCanonicalKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"debug-level", "DEBUG_LEVEL"},
		{"DEBUG_LEVEL", "DEBUG_LEVEL"},
		{" hasura_port ", "HASURA_PORT"},
		{"x", "X"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := CanonicalKey(tt.in); got != tt.want {
				t.Errorf("CanonicalKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), FileName))
	if !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("Load() error = %v, want NotFound", err)
	}
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "# managed by mythic-ctl\n\nDEBUG_LEVEL=debug\r\nALLOWED_IP_BLOCKS=10.0.0.0/8,::/0\nJWT_SECRET=a=b=c\nEMPTY=\ndebug-level=trace\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	wantKeys := []string{"DEBUG_LEVEL", "ALLOWED_IP_BLOCKS", "JWT_SECRET", "EMPTY"}
	if got := cfg.Keys(); !reflect.DeepEqual(got, wantKeys) {
		t.Errorf("Keys() = %v, want %v", got, wantKeys)
	}

	tests := []struct {
		key  string
		want string
	}{
		{"DEBUG_LEVEL", "trace"},
		{"ALLOWED_IP_BLOCKS", "10.0.0.0/8,::/0"},
		{"JWT_SECRET", "a=b=c"},
		{"EMPTY", ""},
	}
	for _, tt := range tests {
		if got, ok := cfg.Get(tt.key); !ok || got != tt.want {
			t.Errorf("Get(%q) = %q, %v, want %q", tt.key, got, ok, tt.want)
		}
	}
}

func TestLoad_QuotedValues(t *testing.T) {
	path := writeFile(t, "COMPOSE_PROJECT_NAME=\"mythic\"\nEMPTY_QUOTED=\"\"\nLONE=\"\nINNER=a\"b\"\nSINGLE='x'\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	tests := []struct {
		key  string
		want string
	}{
		{"COMPOSE_PROJECT_NAME", "mythic"},
		{"EMPTY_QUOTED", ""},
		{"LONE", `"`},
		{"INNER", `a"b"`},
		{"SINGLE", "'x'"},
	}
	for _, tt := range tests {
		if got, _ := cfg.Get(tt.key); got != tt.want {
			t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}

	var buf bytes.Buffer
	if err := Encode(&buf, cfg); err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if !strings.Contains(buf.String(), "COMPOSE_PROJECT_NAME=mythic\n") {
		t.Errorf("Encode() = %q, want the value written unquoted", buf.String())
	}
}

func TestLoad_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantLine string
	}{
		{"no separator", "A=1\nthis is not an assignment\n", ":2:"},
		{"empty key", "A=1\nB=2\n\n=value\n", ":4:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content))
			if !errors.Is(err, errors.ErrMalformed) {
				t.Fatalf("Load() error = %v, want Malformed", err)
			}
			if !strings.Contains(err.Error(), tt.wantLine) {
				t.Errorf("Load() error = %q, want line %s", err.Error(), tt.wantLine)
			}
		})
	}
}

func TestOverlay(t *testing.T) {
	base := New()
	base.Set("DEBUG_LEVEL", "warning")
	base.Set("HASURA_PORT", "8080")

	out := Overlay(base, []Override{
		{Key: "hasura-port", Value: "9090"},
		{Key: "CUSTOM_FLAG", Value: "1"},
		{Key: "custom_flag", Value: "2"},
	})

	if got := out.Keys(); !reflect.DeepEqual(got, []string{"DEBUG_LEVEL", "HASURA_PORT", "CUSTOM_FLAG"}) {
		t.Errorf("Keys() = %v", got)
	}
	if v, _ := out.Get("HASURA_PORT"); v != "9090" {
		t.Errorf("HASURA_PORT = %q, want %q", v, "9090")
	}
	if v, _ := out.Get("CUSTOM_FLAG"); v != "2" {
		t.Errorf("CUSTOM_FLAG = %q, want later override to win", v)
	}

	if v, _ := base.Get("HASURA_PORT"); v != "8080" {
		t.Errorf("base HASURA_PORT = %q, base must not change", v)
	}
	if base.Len() != 2 {
		t.Errorf("base Len() = %d, want 2", base.Len())
	}
}

func TestPersistLoadRoundTrip(t *testing.T) {
	path := writeFile(t, "DEBUG_LEVEL=warning\nHASURA_PORT=8080\nGLOBAL_SERVER_NAME=mythic\n")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	overrides := []Override{
		{Key: "debug-level", Value: "debug"},
		{Key: "DEFAULT_OPERATION_WEBHOOK_URL", Value: "https://hooks.example.com/x?a=b"},
	}
	if err := Persist(Overlay(loaded, overrides), path); err != nil {
		t.Fatalf("Persist() error: %v", err)
	}

	reread, err := Load(path)
	if err != nil {
		t.Fatalf("Load() after Persist error: %v", err)
	}

	for _, o := range overrides {
		if got, _ := reread.Get(o.Key); got != o.Value {
			t.Errorf("%s = %q, want %q", o.Key, got, o.Value)
		}
	}
	for _, key := range []string{"HASURA_PORT", "GLOBAL_SERVER_NAME"} {
		want, _ := loaded.Get(key)
		if got, _ := reread.Get(key); got != want {
			t.Errorf("%s = %q, want retained %q", key, got, want)
		}
	}
}

func TestPersist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	cfg := New()
	cfg.Set("B", "2")
	cfg.Set("A", "1")

	if err := Persist(cfg, path); err != nil {
		t.Fatalf("Persist() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if string(data) != "B=2\nA=1\n" {
		t.Errorf("content = %q, want insertion order", data)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat error: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir error: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want only %s", len(entries), FileName)
	}
}

func TestPersist_RejectsLineBreak(t *testing.T) {
	path := writeFile(t, "A=1\n")

	cfg := New()
	cfg.Set("A", "line\nbreak")

	err := Persist(cfg, path)
	if !errors.Is(err, errors.ErrInvalidArgument) {
		t.Fatalf("Persist() error = %v, want InvalidArgument", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "A=1\n" {
		t.Errorf("content = %q, original file must be untouched", data)
	}
}

func TestSetAside(t *testing.T) {
	path := writeFile(t, "garbage\n")

	dest, err := SetAside(path)
	if err != nil {
		t.Fatalf("SetAside() error: %v", err)
	}
	if dest != path+MalformedSuffix {
		t.Errorf("SetAside() = %q, want %q", dest, path+MalformedSuffix)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("original file should be gone")
	}
	if data, _ := os.ReadFile(dest); string(data) != "garbage\n" {
		t.Errorf("moved content = %q", data)
	}
}

func TestRender(t *testing.T) {
	cfg := New()
	cfg.Set("DEBUG_LEVEL", "warning")
	cfg.Set("NGINX_PORT", "7443")

	got := Render(cfg)

	if !strings.Contains(got, "Variable") || !strings.Contains(got, "Value") {
		t.Errorf("Render() missing header:\n%s", got)
	}
	if strings.Index(got, "DEBUG_LEVEL") > strings.Index(got, "NGINX_PORT") {
		t.Errorf("Render() rows out of configuration order:\n%s", got)
	}
	if Render(cfg) != got {
		t.Error("Render() is not deterministic")
	}

	lines := strings.Split(got, "\n")
	for _, line := range lines[1:] {
		if len(line) != len(lines[0]) {
			t.Errorf("Render() line %q is not aligned to width %d", line, len(lines[0]))
		}
	}
}

func TestRender_Empty(t *testing.T) {
	if got := Render(nil); got != EmptyNotice {
		t.Errorf("Render(nil) = %q, want %q", got, EmptyNotice)
	}
	if got := Render(New()); got != EmptyNotice {
		t.Errorf("Render(empty) = %q, want %q", got, EmptyNotice)
	}
}

func TestDefaults(t *testing.T) {
	a := Defaults()
	b := Defaults()

	if a.Len() != len(Options) {
		t.Errorf("Len() = %d, want %d", a.Len(), len(Options))
	}
	if port, _ := a.Get(AdminPortKey); port != "7443" {
		t.Errorf("%s = %q, want %q", AdminPortKey, port, "7443")
	}

	for _, o := range Options {
		if !o.Secret {
			continue
		}
		va, _ := a.Get(o.Key)
		vb, _ := b.Get(o.Key)
		if va == "" {
			t.Errorf("%s is empty", o.Key)
		}
		if va == vb {
			t.Errorf("%s is identical across Defaults() calls", o.Key)
		}
	}
}

func TestOption_Flag(t *testing.T) {
	o := Option{Key: "DEFAULT_OPERATION_WEBHOOK_URL"}
	if got := o.Flag(); got != "default-operation-webhook-url" {
		t.Errorf("Flag() = %q", got)
	}
}

func TestEnviron(t *testing.T) {
	cfg := New()
	cfg.Set("A", "1")
	cfg.Set("B", "x=y")

	want := []string{"A=1", "B=x=y"}
	if got := cfg.Environ(); !reflect.DeepEqual(got, want) {
		t.Errorf("Environ() = %v, want %v", got, want)
	}
}

func TestPairOverrides(t *testing.T) {
	tests := []struct {
		name       string
		envs       []string
		positional []string
		want       []Override
		wantRest   []string
		wantErr    bool
	}{
		{
			name: "key=value",
			envs: []string{"debug-level=debug"},
			want: []Override{{Key: "debug-level", Value: "debug"}},
		},
		{
			name:       "key value consumes positional",
			envs:       []string{"debug-level", "hasura-port=9090"},
			positional: []string{"debug"},
			want: []Override{
				{Key: "debug-level", Value: "debug"},
				{Key: "hasura-port", Value: "9090"},
			},
		},
		{
			name:       "further pairs after a bare key",
			envs:       []string{"debug-level"},
			positional: []string{"debug", "hasura-port", "8081", "NGINX_PORT", "8443"},
			want: []Override{
				{Key: "debug-level", Value: "debug"},
				{Key: "hasura-port", Value: "8081"},
				{Key: "NGINX_PORT", Value: "8443"},
			},
		},
		{
			name:       "odd leftover after pairs",
			envs:       []string{"debug-level"},
			positional: []string{"debug", "hasura-port"},
			wantErr:    true,
		},
		{
			name:       "positionals without a bare key are returned",
			envs:       []string{"debug-level=debug"},
			positional: []string{"stray"},
			want:       []Override{{Key: "debug-level", Value: "debug"}},
			wantRest:   []string{"stray"},
		},
		{
			name:    "missing value",
			envs:    []string{"debug-level"},
			wantErr: true,
		},
		{
			name:    "empty key",
			envs:    []string{"=x"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rest, err := PairOverrides(tt.envs, tt.positional)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrInvalidArgument) {
					t.Fatalf("PairOverrides() error = %v, want InvalidArgument", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("PairOverrides() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("PairOverrides() = %v, want %v", got, tt.want)
			}
			if len(rest) != len(tt.wantRest) {
				t.Errorf("rest = %v, want %v", rest, tt.wantRest)
			}
		})
	}
}
