// Table rendering for list and history output.
package cli

import (
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// tableColumn describes one output column. Numeric columns are right-aligned.
type tableColumn struct {
	title   string
	numeric bool
}

var (
	binColumns = []tableColumn{
		{title: "ID", numeric: true},
		{title: "Location"},
		{title: "Type"},
		{title: "Level", numeric: true},
		{title: "Status"},
	}

	eventColumns = []tableColumn{
		{title: "Time"},
		{title: "Operation"},
		{title: "Bin", numeric: true},
		{title: "Level", numeric: true},
		{title: "Needs Collection"},
	}
)

// renderTable draws rows under columns with rounded borders. Short rows are
// padded with empty cells; extra cells are dropped.
func renderTable(columns []tableColumn, rows [][]string) string {
	if len(columns) == 0 {
		return ""
	}

	style := table.StyleRounded
	style.Format.Header = text.FormatDefault

	tw := table.NewWriter()
	tw.SetStyle(style)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = col.title
		configs[i] = table.ColumnConfig{Number: i + 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft}
		if col.numeric {
			configs[i].Align = text.AlignRight
		}
	}
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)

	for _, cells := range rows {
		row := make(table.Row, len(columns))
		for i := range row {
			row[i] = ""
			if i < len(cells) {
				row[i] = cells[i]
			}
		}
		tw.AppendRow(row)
	}
	return tw.Render()
}

// isTerminal reports whether w is an interactive terminal. Pipes and
// buffers get plain line output instead of tables.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
