// Package tui provides terminal prompts for mythic-ctl.
//
// # Deletion Confirmation
//
// Cleanup asks before removing the installation directory:
//
//	prompt := tui.NewPrompt(os.Stdin, os.Stderr)
//	if prompt.ConfirmDeletion(paths.Target) {
//	    // remove the tree
//	}
//
// On a terminal the question is a Bubble Tea model with a Yes/No choice
// that starts on No. Otherwise a "[y/N]" line is read; end of input keeps
// the directory.
//
// # Dependencies
//
// Uses the Charm libraries:
//   - github.com/charmbracelet/bubbletea - TUI framework
//   - github.com/charmbracelet/bubbles - key bindings
//   - github.com/charmbracelet/lipgloss - Styling
package tui
