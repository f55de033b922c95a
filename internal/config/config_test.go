package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isaiah-harvey/logicrpc/internal/models"
)

func TestLoadSettingsFrom_MissingFileReturnsDefaults(t *testing.T) {
	settings, err := LoadSettingsFrom(filepath.Join(t.TempDir(), "settings.yaml"))
	require.NoError(t, err)

	assert.Equal(t, time.Second, settings.Presence.PollInterval)
	assert.Equal(t, 2*time.Second, settings.Presence.ProbeTimeout)
	assert.Equal(t, "Working on %s", settings.Presence.WorkingFormat)
	assert.Equal(t, "Browsing projects", settings.Presence.BrowsingText)
	assert.Equal(t, "logic-pro", settings.Discord.LargeImage)
	assert.Equal(t, ".logicx", settings.Target.DocumentSuffix)
	assert.Equal(t, "com.apple.logic10", settings.Target.BundleID)
}

func TestLoadSettingsFrom_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := `
discord:
  client_id: "123456"
presence:
  poll_interval: 3s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	settings, err := LoadSettingsFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "123456", settings.Discord.ClientID)
	assert.Equal(t, 3*time.Second, settings.Presence.PollInterval)
	assert.Equal(t, 2*time.Second, settings.Presence.ProbeTimeout)
	assert.Equal(t, "logic-pro", settings.Discord.LargeImage)
	assert.Equal(t, "Logic Pro", settings.Target.ProcessName)
}

func TestLoadSettingsFrom_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("presence: [unclosed"), 0644))

	_, err := LoadSettingsFrom(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadSettingsFrom_NormalizesZeroIntervals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	content := `
presence:
  poll_interval: 0s
  working_format: ""
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	settings, err := LoadSettingsFrom(path)
	require.NoError(t, err)
	assert.Equal(t, time.Second, settings.Presence.PollInterval)
	assert.Equal(t, "Working on %s", settings.Presence.WorkingFormat)
}

func TestResolvedClientID_EnvOverrides(t *testing.T) {
	settings := models.NewSettings()
	settings.Discord.ClientID = "from-file"

	t.Setenv(models.ClientIDEnv, "")
	assert.Equal(t, "from-file", settings.ResolvedClientID())

	t.Setenv(models.ClientIDEnv, "from-env")
	assert.Equal(t, "from-env", settings.ResolvedClientID())
}

func TestSaveSettings_WritesUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	settings := models.NewSettings()
	settings.Discord.ClientID = "42"
	require.NoError(t, SaveSettings(settings))

	path := filepath.Join(home, GlobalDirName, SettingsFileName)
	assert.FileExists(t, path)
	assert.NoFileExists(t, path+".tmp")

	loaded, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "42", loaded.Discord.ClientID)
	assert.Equal(t, settings.Presence, loaded.Presence)
}

func TestDaemonInfo_RunningForOwnPID(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	info := models.NewDaemonInfo("127.0.0.1", 4567, os.Getpid())
	require.NoError(t, SaveDaemonInfo(info))

	running, loaded, err := IsDaemonRunning()
	require.NoError(t, err)
	assert.True(t, running)
	require.NotNil(t, loaded)
	assert.Equal(t, 4567, loaded.Port)
	assert.Equal(t, "127.0.0.1:4567", DaemonAddr(loaded))

	require.NoError(t, RemoveDaemonInfo())
	loaded, err = LoadDaemonInfo()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestDaemonInfo_StaleRecordIsRemoved(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.NoError(t, SaveDaemonInfo(models.NewDaemonInfo("127.0.0.1", 1, 0)))

	running, info, err := IsDaemonRunning()
	require.NoError(t, err)
	assert.False(t, running)
	assert.NotNil(t, info)
	assert.NoFileExists(t, filepath.Join(home, GlobalDirName, DaemonFileName))
}

func TestDaemonInfo_MissingFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	running, info, err := IsDaemonRunning()
	require.NoError(t, err)
	assert.False(t, running)
	assert.Nil(t, info)
}
