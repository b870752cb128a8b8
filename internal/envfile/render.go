package envfile

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// EmptyNotice is rendered in place of a table when there is nothing to show.
const EmptyNotice = "No configuration found."

// Render formats cfg as a two-column Variable/Value table in configuration
// order. A nil or empty Configuration renders as EmptyNotice.
func Render(cfg *Configuration) string {
	if cfg.Len() == 0 {
		return EmptyNotice
	}

	t := table.NewWriter()
	style := table.StyleDefault
	style.Format.Header = text.FormatDefault
	t.SetStyle(style)

	t.AppendHeader(table.Row{"Variable", "Value"})
	for _, e := range cfg.Entries() {
		t.AppendRow(table.Row{e.Key, e.Value})
	}

	return t.Render()
}
