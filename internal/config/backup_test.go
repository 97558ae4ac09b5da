package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupUserConfig(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	configPath := filepath.Join(tmpDir, "bookmarks", "config.yaml")

	t.Run("no config exists", func(t *testing.T) {
		backupPath, err := BackupUserConfig()
		require.NoError(t, err)
		assert.Empty(t, backupPath)
	})

	t.Run("backup existing config", func(t *testing.T) {
		require.NoError(t, os.MkdirAll(filepath.Dir(configPath), 0o755))
		content := "store:\n  collection: work\n"
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

		backupPath, err := BackupUserConfig()
		require.NoError(t, err)

		got, err := os.ReadFile(backupPath)
		require.NoError(t, err)
		assert.Equal(t, content, string(got))
		assert.True(t, strings.HasPrefix(filepath.Base(backupPath), "config.yaml.bak."))
	})

	t.Run("prunes beyond MaxBackups", func(t *testing.T) {
		for i := 0; i < MaxBackups+2; i++ {
			_, err := BackupUserConfig()
			require.NoError(t, err)
			// Timestamps carry milliseconds; keep names distinct.
			time.Sleep(2 * time.Millisecond)
		}

		backups, err := ListUserConfigBackups()
		require.NoError(t, err)
		assert.Len(t, backups, MaxBackups)
	})
}

func TestListUserConfigBackups_NoDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(t.TempDir(), "missing"))

	backups, err := ListUserConfigBackups()

	require.NoError(t, err)
	assert.Empty(t, backups)
}
