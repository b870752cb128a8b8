package cmd

import (
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/term"

	"github.com/firefly-engineering/mythic-ctl/internal/lifecycle"
)

// spinnerProgress animates long running steps on a terminal.
type spinnerProgress struct {
	s *spinner.Spinner
}

func (p *spinnerProgress) Start(message string) {
	p.s.Suffix = " " + message
	p.s.Start()
}

func (p *spinnerProgress) Stop() {
	p.s.Stop()
}

// quietProgress is used when w is not a terminal or output is verbose.
type quietProgress struct{}

func (quietProgress) Start(string) {}
func (quietProgress) Stop()        {}

func newProgress(w io.Writer, enabled bool) lifecycle.Progress {
	f, ok := w.(*os.File)
	if !enabled || !ok || !term.IsTerminal(int(f.Fd())) {
		return quietProgress{}
	}
	return &spinnerProgress{s: spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))}
}
