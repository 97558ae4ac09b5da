package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bmerrors "github.com/Aman-CERP/bookmarks/internal/errors"
)

func TestLogsCmd_TailsLogFile(t *testing.T) {
	// Given: a log file with two entries
	isolate(t)
	path := filepath.Join(t.TempDir(), "bookmarks.log")
	lines := `{"time":"2026-03-01T10:00:00Z","level":"INFO","msg":"export_started"}
{"time":"2026-03-01T10:00:01Z","level":"ERROR","msg":"import_ambiguous","submitted":2}
`
	require.NoError(t, os.WriteFile(path, []byte(lines), 0o644))

	// When: showing the last line
	out, err := runCLI(t, "logs", "--log-file", path, "-n", "1")

	// Then: only that entry is printed, uncolored
	require.NoError(t, err)
	assert.Contains(t, out, "Log file: "+path)
	assert.Contains(t, out, "10:00:01.000 ERROR import_ambiguous submitted=2")
	assert.False(t, strings.Contains(out, "export_started"))
}

func TestLogsCmd_InvalidLevel(t *testing.T) {
	isolate(t)

	_, err := runCLI(t, "logs", "--level", "loud")

	require.Error(t, err)
	assert.True(t, bmerrors.IsValidation(err))
}

func TestLogsCmd_MissingFile(t *testing.T) {
	isolate(t)

	_, err := runCLI(t, "logs", "--log-file", filepath.Join(t.TempDir(), "absent.log"))

	assert.Error(t, err)
}
