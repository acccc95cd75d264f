package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleTable() *Table {
	t := NewTable("Region Summary", "region", "request_count", "totalTokens_sum")
	t.AddRow("us-east-1", "3", "450")
	t.AddRow("eu-west-1", "1")
	return t
}

func TestTableRender(t *testing.T) {
	out := sampleTable().Render()
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "request_count")
	assert.Contains(t, lines[1], "us-east-1")
	assert.Contains(t, lines[1], "450")
	// short rows are padded so the column count stays stable
	assert.Len(t, sampleTable().Rows[1], 3)
}

func TestTableBox(t *testing.T) {
	out := sampleTable().Box("  ")
	for _, line := range strings.Split(out, "\n") {
		assert.True(t, strings.HasPrefix(line, "  "), "line %q not indented", line)
	}
	assert.Contains(t, out, "us-east-1")
	assert.Contains(t, out, "+")
}

func TestThousands(t *testing.T) {
	assert.Equal(t, "0", Thousands(0))
	assert.Equal(t, "999", Thousands(999))
	assert.Equal(t, "1,234,567", Thousands(1234567))
}

func TestDocument(t *testing.T) {
	var d Document
	d.Heading("Usage")
	d.Section("Model Summary")
	d.Line("Total Requests: 3")
	out := d.String()
	assert.True(t, strings.HasPrefix(out, "Usage\n"+strings.Repeat("=", 80)))
	assert.Contains(t, out, "\n\n=== Model Summary ===\nTotal Requests: 3")
}

func TestExporterEncode(t *testing.T) {
	e := NewExporter()
	tables := []*Table{sampleTable()}

	t.Run("csv", func(t *testing.T) {
		data, err := e.Encode(tables, FormatCSV)
		require.NoError(t, err)
		assert.Equal(t, "Region Summary\nregion,request_count,totalTokens_sum\nus-east-1,3,450\neu-west-1,1,\n", string(data))
	})

	t.Run("json", func(t *testing.T) {
		data, err := e.Encode(tables, FormatJSON)
		require.NoError(t, err)
		var decoded []Table
		require.NoError(t, json.Unmarshal(data, &decoded))
		require.Len(t, decoded, 1)
		assert.Equal(t, "Region Summary", decoded[0].Title)
	})

	t.Run("yaml", func(t *testing.T) {
		data, err := e.Encode(tables, FormatYAML)
		require.NoError(t, err)
		var decoded []Table
		require.NoError(t, yaml.Unmarshal(data, &decoded))
		assert.Equal(t, [][]string{{"us-east-1", "3", "450"}, {"eu-west-1", "1", ""}}, decoded[0].Rows)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := e.Encode(tables, "pdf")
		assert.ErrorContains(t, err, "unsupported format")
	})
}

func TestExportToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "usage.json")
	require.NoError(t, NewExporter().ExportToFile([]*Table{sampleTable()}, FormatFromPath(path), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Region Summary")
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFromPath("out.JSON"))
	assert.Equal(t, FormatYAML, FormatFromPath("out.yml"))
	assert.Equal(t, FormatCSV, FormatFromPath("out.csv"))
	assert.Equal(t, FormatCSV, FormatFromPath("out"))
}
