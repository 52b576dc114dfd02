package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/unicode/norm"
)

// Table is a rendered-ready report: a header row and string cells.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// style is go-pretty's ASCII box style with headers left as written.
var style = func() table.Style {
	s := table.StyleDefault
	s.Format.Header = text.FormatDefault
	s.Format.Footer = text.FormatDefault
	return s
}()

// Render writes t as a bordered ASCII table:
//
//	+------+--------+
//	| Team | Gender |
//	+------+--------+
//	| A    | male   |
//	+------+--------+
//
// Cells are NFC-normalized and left-aligned; widths count terminal cells.
func Render(w io.Writer, t Table) error {
	tw := table.NewWriter()
	tw.SetStyle(style)
	if t.Title != "" {
		tw.SetTitle(t.Title)
	}
	tw.AppendHeader(toRow(t.Headers))
	rows := make([]table.Row, 0, len(t.Rows))
	for _, r := range t.Rows {
		rows = append(rows, toRow(r))
	}
	tw.AppendRows(rows)

	_, err := fmt.Fprintln(w, tw.Render())
	return err
}

func toRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = norm.NFC.String(c)
	}
	return row
}
