package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter_StatusLines(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *Writer)
		want  string
	}{
		{"status with icon", func(w *Writer) { w.Status("🔍", "Searching...") }, "🔍 Searching...\n"},
		{"status without icon", func(w *Writer) { w.Status("", "detail") }, "   detail\n"},
		{"statusf", func(w *Writer) { w.Statusf("📁", "Location: %s", "/tmp/x") }, "📁 Location: /tmp/x\n"},
		{"success", func(w *Writer) { w.Successf("Imported %d bookmarks", 3) }, "✅ Imported 3 bookmarks\n"},
		{"warning", func(w *Writer) { w.Warningf("%d pages could not be fetched", 2) }, "⚠️  2 pages could not be fetched\n"},
		{"error", func(w *Writer) { w.Errorf("failed: %s", "boom") }, "❌ failed: boom\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a writer with a buffer
			buf := &bytes.Buffer{}
			w := New(buf)

			// When: writing
			tt.write(w)

			// Then: the line is formatted with its icon
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriter_Field_SkipsEmptyValues(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Field("url", "http://x.test/a")
	w.Field("tags", "")

	assert.Equal(t, "   url:     http://x.test/a\n", buf.String())
}

func TestWriter_List(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.List([]string{"go", "rust"})

	assert.Equal(t, "   - go\n   - rust\n", buf.String())
}

func TestWriter_Code_IndentsEveryLine(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Code("store:\n  collection: bookmarks\n")

	assert.Equal(t, "\n  store:\n    collection: bookmarks\n\n", buf.String())
}

func TestWriter_Progress_PrintsProgressBar(t *testing.T) {
	// Given: a writer with a buffer
	buf := &bytes.Buffer{}
	w := New(buf)

	// When: printing progress halfway, then done
	w.Progress(50, 100, "Exporting")
	half := buf.String()
	w.Progress(100, 100, "Exporting")

	// Then: the bar is redrawn in place and ends with a newline
	assert.Contains(t, half, " 50% Exporting")
	assert.True(t, strings.HasPrefix(half, "\r["))
	assert.True(t, strings.HasSuffix(buf.String(), "100% Exporting\n"))
}

func TestWriter_Progress_ZeroTotal_NoOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Progress(0, 0, "Exporting")

	assert.Empty(t, buf.String())
}

func TestProgressBar_Render(t *testing.T) {
	tests := []struct {
		name    string
		current int
		total   int
		width   int
		want    string
	}{
		{"empty", 0, 10, 4, "░░░░"},
		{"half", 5, 10, 4, "██░░"},
		{"full", 10, 10, 4, "████"},
		{"overflow", 20, 10, 4, "████"},
		{"negative", -1, 10, 4, "░░░░"},
		{"zero total", 0, 0, 4, "░░░░"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderProgressBar(tt.current, tt.total, tt.width))
		})
	}
}

func TestWriter_Newline(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf).Newline()
	assert.Equal(t, "\n", buf.String())
}
