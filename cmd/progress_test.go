package cmd

import (
	"bytes"
	"testing"
)

func TestNewProgress_NotATerminal(t *testing.T) {
	var buf bytes.Buffer
	for _, enabled := range []bool{true, false} {
		p := newProgress(&buf, enabled)
		if _, ok := p.(quietProgress); !ok {
			t.Errorf("newProgress(buffer, %v) = %T, want quietProgress", enabled, p)
		}
		p.Start("building")
		p.Stop()
	}
	if buf.Len() != 0 {
		t.Errorf("quiet progress wrote %q", buf.String())
	}
}
