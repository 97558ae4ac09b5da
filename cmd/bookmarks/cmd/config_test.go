package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/bookmarks/configs"
	"github.com/Aman-CERP/bookmarks/internal/config"
)

func TestConfigCmd_HasSubcommands(t *testing.T) {
	// Given: root command
	cmd := NewRootCmd()

	// When: finding config command
	configCmd, _, err := cmd.Find([]string{"config"})
	require.NoError(t, err)

	// Then: config command should have init, show and path
	names := make(map[string]bool)
	for _, sc := range configCmd.Commands() {
		names[sc.Name()] = true
	}
	assert.True(t, names["init"])
	assert.True(t, names["show"])
	assert.True(t, names["path"])
}

func TestConfigPathCmd_HonoursXDG(t *testing.T) {
	// Given: XDG_CONFIG_HOME pointing at a temp dir
	isolate(t)
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)

	// When: printing the config path
	out, err := runCLI(t, "config", "path")

	// Then: the path is under XDG_CONFIG_HOME
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(xdg, "bookmarks", "config.yaml"), strings.TrimSpace(out))
}

func TestConfigInitCmd_WritesTemplate(t *testing.T) {
	// Given: no user config
	isolate(t)

	// When: running config init
	out, err := runCLI(t, "config", "init")

	// Then: the template is written and loads cleanly
	require.NoError(t, err)
	assert.Contains(t, out, "Created user configuration")

	data, err := os.ReadFile(config.GetUserConfigPath())
	require.NoError(t, err)
	assert.Equal(t, configs.UserConfigTemplate, string(data))

	_, err = config.Load("")
	assert.NoError(t, err, "the commented-out template must load as the defaults")
}

func TestConfigInitCmd_ExistingWithoutForce_LeavesFile(t *testing.T) {
	// Given: an existing user config
	isolate(t)
	path := config.GetUserConfigPath()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))

	// When: running config init without --force
	out, err := runCLI(t, "config", "init")

	// Then: the file is untouched and the user is told about --force
	require.NoError(t, err)
	assert.Contains(t, out, "already exists")
	assert.Contains(t, out, "--force")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "version: 1\n", string(data))
}

func TestConfigInitCmd_Force_BacksUpAndReplaces(t *testing.T) {
	// Given: an existing user config
	isolate(t)
	path := config.GetUserConfigPath()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0o644))

	// When: running config init --force
	out, err := runCLI(t, "config", "init", "--force")

	// Then: a backup holds the old file and the template replaces it
	require.NoError(t, err)
	assert.Contains(t, out, "Backup:")

	backups, err := config.ListUserConfigBackups()
	require.NoError(t, err)
	require.Len(t, backups, 1)
	old, err := os.ReadFile(backups[0])
	require.NoError(t, err)
	assert.Equal(t, "version: 1\n", string(old))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, configs.UserConfigTemplate, string(data))
}

func TestConfigShowCmd_Sources(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		contains string
		wantErr  bool
	}{
		{"merged", []string{"config", "show"}, "merged", false},
		{"defaults", []string{"config", "show", "--source", "defaults"}, "collection: bookmarks", false},
		{"user without file", []string{"config", "show", "--source", "user"}, "No user configuration file found", false},
		{"invalid source", []string{"config", "show", "--source", "project"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)

			out, err := runCLI(t, tt.args...)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, out, tt.contains)
		})
	}
}

func TestConfigShowCmd_JSON_ReflectsEnv(t *testing.T) {
	// Given: an environment override
	dataDir := isolate(t)

	// When: showing the merged config as JSON
	out, err := runCLI(t, "config", "show", "--json")

	// Then: the override is visible
	require.NoError(t, err)
	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, dataDir, cfg.Store.DataDir)
	assert.Equal(t, config.DefaultCollection, cfg.Store.Collection)
}
