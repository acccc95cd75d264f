package report

import "strings"

// Document accumulates report lines in order.
type Document struct {
	parts []string
}

// Heading writes a title underlined with '='.
func (d *Document) Heading(title string) {
	d.parts = append(d.parts, title, strings.Repeat("=", 80))
}

// Section starts a named section.
func (d *Document) Section(name string) {
	d.parts = append(d.parts, "\n=== "+name+" ===")
}

// Line appends one line of text.
func (d *Document) Line(text string) {
	d.parts = append(d.parts, text)
}

// Table appends a rendered table.
func (d *Document) Table(t *Table) {
	d.parts = append(d.parts, t.Render())
}

// Rule appends a separator line of the given width.
func (d *Document) Rule(ch string, width int) {
	d.parts = append(d.parts, strings.Repeat(ch, width))
}

// String joins everything written so far.
func (d *Document) String() string {
	return strings.Join(d.parts, "\n")
}
