// Package report renders aggregation and billing results as plain text.
package report

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Table is a titled grid of already-formatted cells.
type Table struct {
	Title   string     `json:"title" yaml:"title"`
	Columns []string   `json:"columns" yaml:"columns"`
	Rows    [][]string `json:"rows" yaml:"rows"`
}

// NewTable creates an empty table with the given header.
func NewTable(title string, columns ...string) *Table {
	return &Table{Title: title, Columns: columns}
}

// AddRow appends a row. Short rows are padded, long rows are cut to the header.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.Columns))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// Render lays the table out in aligned columns.
func (t *Table) Render() string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, strings.Join(t.Columns, "\t")+"\t")
	for _, row := range t.Rows {
		fmt.Fprintln(w, strings.Join(row, "\t")+"\t")
	}
	w.Flush()
	return strings.TrimRight(sb.String(), "\n")
}

// Box renders the table with ASCII borders, optionally indenting every line.
func (t *Table) Box(indent string) string {
	out := table.New().
		Border(lipgloss.ASCIIBorder()).
		Headers(t.Columns...).
		Rows(t.Rows...).
		String()
	if indent == "" {
		return out
	}
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}

var printer = message.NewPrinter(language.English)

// Thousands formats n with comma separators.
func Thousands(n int64) string {
	return printer.Sprintf("%d", n)
}

// Int formats an integer cell.
func Int(n int64) string {
	return fmt.Sprintf("%d", n)
}

// Float formats a non-integer metric cell.
func Float(f float64) string {
	return fmt.Sprintf("%.2f", f)
}
