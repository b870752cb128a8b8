package tui

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func press(m ConfirmModel, msg tea.KeyMsg) (ConfirmModel, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(ConfirmModel), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestConfirmModel_Keys(t *testing.T) {
	tests := []struct {
		name string
		keys []tea.KeyMsg
		want bool
	}{
		{"y confirms", []tea.KeyMsg{runes("y")}, true},
		{"n declines", []tea.KeyMsg{runes("n")}, false},
		{"esc declines", []tea.KeyMsg{{Type: tea.KeyEsc}}, false},
		{"ctrl+c declines", []tea.KeyMsg{{Type: tea.KeyCtrlC}}, false},
		{"enter defaults to no", []tea.KeyMsg{{Type: tea.KeyEnter}}, false},
		{"toggle then enter", []tea.KeyMsg{{Type: tea.KeyRight}, {Type: tea.KeyEnter}}, true},
		{"toggle twice then enter", []tea.KeyMsg{{Type: tea.KeyRight}, {Type: tea.KeyLeft}, {Type: tea.KeyEnter}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewConfirmModel("/opt/mythic")
			var cmd tea.Cmd
			for _, k := range tt.keys {
				m, cmd = press(m, k)
			}
			if cmd == nil {
				t.Fatal("expected quit command after the final key")
			}
			if got := m.Answer(); got != tt.want {
				t.Errorf("Answer() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfirmModel_UndecidedIsNo(t *testing.T) {
	m, cmd := press(NewConfirmModel("/opt/mythic"), tea.KeyMsg{Type: tea.KeyRight})
	if cmd != nil {
		t.Error("toggle should not quit")
	}
	if m.Answer() {
		t.Error("Answer() = true before a decision")
	}
}

func TestConfirmModel_View(t *testing.T) {
	m := NewConfirmModel("/opt/mythic")
	view := m.View()
	if !strings.Contains(view, "/opt/mythic") {
		t.Errorf("View() = %q, want it to name the directory", view)
	}
	if !strings.Contains(view, "[y] Delete") {
		t.Errorf("View() = %q, want help text", view)
	}

	m, _ = press(m, runes("n"))
	if m.View() != "" {
		t.Error("View() should be empty once decided")
	}
}

func TestPrompt_LineMode(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"  yes  \n", true},
		{"n\n", false},
		{"\n", false},
		{"sure\n", false},
		{"", false},
		{"y", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompt(strings.NewReader(tt.input), &out)

			if got := p.ConfirmDeletion("/opt/mythic"); got != tt.want {
				t.Errorf("ConfirmDeletion() = %v, want %v", got, tt.want)
			}
			if !strings.Contains(out.String(), "Delete /opt/mythic and everything in it? [y/N]") {
				t.Errorf("prompt = %q", out.String())
			}
		})
	}
}
