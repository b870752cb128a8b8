package tui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	choiceStyle = lipgloss.NewStyle().
			Padding(0, 2)

	selectedStyle = choiceStyle.
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("196")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)
)

type keyMap struct {
	Yes    key.Binding
	No     key.Binding
	Toggle key.Binding
	Submit key.Binding
}

var keys = keyMap{
	Yes:    key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "delete")),
	No:     key.NewBinding(key.WithKeys("n", "N", "q", "esc", "ctrl+c"), key.WithHelp("n", "keep")),
	Toggle: key.NewBinding(key.WithKeys("left", "right", "h", "l", "tab"), key.WithHelp("←/→", "choose")),
	Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "confirm")),
}

// ConfirmModel is the bubbletea model asking whether to delete a directory.
// The highlighted choice starts on "No".
type ConfirmModel struct {
	path   string
	yes    bool
	done   bool
	answer bool
}

// NewConfirmModel creates a deletion prompt for path.
func NewConfirmModel(path string) ConfirmModel {
	return ConfirmModel{path: path}
}

func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Yes):
		m.answer, m.done = true, true
		return m, tea.Quit
	case key.Matches(keyMsg, keys.No):
		m.answer, m.done = false, true
		return m, tea.Quit
	case key.Matches(keyMsg, keys.Toggle):
		m.yes = !m.yes
	case key.Matches(keyMsg, keys.Submit):
		m.answer, m.done = m.yes, true
		return m, tea.Quit
	}
	return m, nil
}

func (m ConfirmModel) View() string {
	if m.done {
		return ""
	}

	yes, no := choiceStyle.Render("Yes"), selectedStyle.Render("No")
	if m.yes {
		yes, no = selectedStyle.Render("Yes"), choiceStyle.Render("No")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Delete installation directory?"))
	b.WriteString("\n\n")
	b.WriteString(pathStyle.Render(m.path))
	b.WriteString(" and everything in it will be removed.\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, yes, no))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("[y] Delete  [n] Keep  [←/→] Choose  [enter] Confirm"))
	return b.String()
}

// Answer reports whether deletion was confirmed.
func (m ConfirmModel) Answer() bool {
	return m.done && m.answer
}

// Prompt asks the operator to confirm destructive actions.
type Prompt struct {
	in          io.Reader
	out         io.Writer
	interactive bool
}

// NewPrompt creates a prompt reading from in. The bubbletea prompt is used
// when in is a terminal, a plain line prompt otherwise.
func NewPrompt(in io.Reader, out io.Writer) *Prompt {
	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}
	return &Prompt{in: in, out: out, interactive: interactive}
}

// ConfirmDeletion asks whether path should be deleted. Anything other than
// an explicit yes, including end of input, keeps the directory.
func (p *Prompt) ConfirmDeletion(path string) bool {
	if p.interactive {
		prog := tea.NewProgram(NewConfirmModel(path), tea.WithInput(p.in), tea.WithOutput(p.out))
		final, err := prog.Run()
		if err != nil {
			return false
		}
		return final.(ConfirmModel).Answer()
	}
	return p.confirmLine(path)
}

func (p *Prompt) confirmLine(path string) bool {
	fmt.Fprintf(p.out, "Delete %s and everything in it? [y/N] ", path)

	line, err := bufio.NewReader(p.in).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(p.out)
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
