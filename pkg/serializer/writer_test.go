package serializer

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"
)

type nodeRow struct {
	Name  string `json:"name" yaml:"name"`
	State string `json:"state" yaml:"state"`
}

type statusDoc struct {
	Operation string    `json:"operation" yaml:"operation"`
	Nodes     []nodeRow `json:"nodes" yaml:"nodes"`
}

func TestWriterSerializeJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatJSON, &buf)

	data := []nodeRow{
		{Name: "node1", State: "reachable"},
		{Name: "node2", State: "unreachable"},
	}
	err := w.Serialize(context.Background(), data)
	assert.NoError(t, err)

	var result []nodeRow
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	if assert.Len(t, result, 2) {
		assert.Equal(t, "node1", result[0].Name)
		assert.Equal(t, "unreachable", result[1].State)
	}
}

func TestWriterSerializeYAML(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatYAML, &buf)

	data := statusDoc{
		Operation: "status",
		Nodes:     []nodeRow{{Name: "node1", State: "reachable"}},
	}
	err := w.Serialize(context.Background(), data)
	assert.NoError(t, err)

	var result statusDoc
	assert.NoError(t, yaml.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "status", result.Operation)
	if assert.Len(t, result.Nodes, 1) {
		assert.Equal(t, "node1", result.Nodes[0].Name)
	}
}

func TestWriterSerializeTable(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatTable, &buf)

	data := statusDoc{
		Operation: "status",
		Nodes: []nodeRow{
			{Name: "node1", State: "reachable"},
			{Name: "node2", State: "unreachable"},
		},
	}
	err := w.Serialize(context.Background(), data)
	assert.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "FIELD")
	assert.Contains(t, out, "VALUE")
	assert.Contains(t, out, "operation")
	assert.Contains(t, out, "nodes[0].name")
	assert.Contains(t, out, "nodes[1].state")
	assert.Contains(t, out, "unreachable")
}

func TestWriterSerializeTableSortsMapKeys(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatTable, &buf)

	data := map[string]any{
		"zebra":  1,
		"apple":  2,
		"monkey": 3,
	}
	err := w.Serialize(context.Background(), data)
	assert.NoError(t, err)

	out := buf.String()
	apple := strings.Index(out, "apple")
	monkey := strings.Index(out, "monkey")
	zebra := strings.Index(out, "zebra")
	assert.True(t, apple < monkey && monkey < zebra,
		"map keys should render in sorted order, got:\n%s", out)
}

func TestWriterSerializeTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatTable, &buf)

	err := w.Serialize(context.Background(), []nodeRow{})
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "<empty>")
}

func TestWriterSerializeTableIntegers(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(FormatTable, &buf)

	err := w.Serialize(context.Background(), map[string]any{"total": 4, "ratio": 0.5})
	assert.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "4")
	assert.NotContains(t, out, "4e+00")
	assert.Contains(t, out, "0.5")
}

func TestNewWriterUnknownFormatFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(Format("xml"), &buf)
	assert.NotNil(t, w)

	err := w.Serialize(context.Background(), nodeRow{Name: "node1", State: "reachable"})
	assert.NoError(t, err)

	var result nodeRow
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &result))
	assert.Equal(t, "node1", result.Name)
}

func TestFormatIsUnknown(t *testing.T) {
	tests := []struct {
		format Format
		want   bool
	}{
		{FormatJSON, false},
		{FormatYAML, false},
		{FormatTable, false},
		{Format("xml"), true},
		{Format(""), true},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.format.IsUnknown())
		})
	}
}

func TestSupportedFormats(t *testing.T) {
	formats := SupportedFormats()
	assert.Len(t, formats, 3)
	assert.Contains(t, formats, "json")
	assert.Contains(t, formats, "yaml")
	assert.Contains(t, formats, "table")
}

func TestNewFileWriterOrStdoutEmptyPath(t *testing.T) {
	for _, path := range []string{"", "  ", "\t", StdoutURI} {
		w, err := NewFileWriterOrStdout(FormatJSON, path)
		assert.NoError(t, err, "path %q", path)
		assert.NotNil(t, w, "path %q", path)
		if closer, ok := w.(Closer); assert.True(t, ok) {
			assert.NoError(t, closer.Close())
		}
	}
}

func TestNewFileWriterOrStdoutWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")

	w, err := NewFileWriterOrStdout(FormatJSON, path)
	assert.NoError(t, err)

	err = w.Serialize(context.Background(), nodeRow{Name: "node1", State: "acked"})
	assert.NoError(t, err)
	if closer, ok := w.(Closer); ok {
		assert.NoError(t, closer.Close())
	}

	content, err := os.ReadFile(path)
	assert.NoError(t, err)
	var result nodeRow
	assert.NoError(t, json.Unmarshal(content, &result))
	assert.Equal(t, "acked", result.State)
}

func TestNewFileWriterOrStdoutInvalidPath(t *testing.T) {
	w, err := NewFileWriterOrStdout(FormatJSON, "/nonexistent/dir/report.json")
	assert.Error(t, err)
	assert.Nil(t, w)
	assert.Contains(t, err.Error(), "failed to create output file")
}

func TestWriterCloseIsIdempotent(t *testing.T) {
	w := NewStdoutWriter(FormatJSON)
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
