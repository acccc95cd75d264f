package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Exporter writes report tables to files.
type Exporter struct{}

// NewExporter creates a new exporter
func NewExporter() *Exporter {
	return &Exporter{}
}

// FormatFromPath guesses the export format from a file extension.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatCSV
	}
}

// ExportToFile writes tables to outputPath in the given format.
func (e *Exporter) ExportToFile(tables []*Table, format, outputPath string) error {
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	content, err := e.Encode(tables, format)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, content, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Encode serializes tables in the given format.
func (e *Exporter) Encode(tables []*Table, format string) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(tables, "", "  ")
	case FormatYAML:
		return yaml.Marshal(tables)
	case FormatCSV:
		return e.toCSV(tables)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// toCSV writes each table as a title row, a header row and its data rows,
// with an empty record between tables.
func (e *Exporter) toCSV(tables []*Table) ([]byte, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	for i, t := range tables {
		if i > 0 {
			w.Write([]string{})
		}
		w.Write([]string{t.Title})
		w.Write(t.Columns)
		for _, row := range t.Rows {
			w.Write(row)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

// GenerateFilename generates a filename for export
func (e *Exporter) GenerateFilename(prefix, format string) string {
	timestamp := time.Now().Format("20060102-150405")
	return fmt.Sprintf("%s-%s.%s", prefix, timestamp, format)
}
