package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isaiah-harvey/logicrpc/internal/config"
)

func startWatcher(t *testing.T) (*Watcher, string) {
	t.Helper()
	dir := t.TempDir()

	w, err := New(dir)
	require.NoError(t, err)
	w.delay = 20 * time.Millisecond
	require.NoError(t, w.Start())
	t.Cleanup(w.Stop)
	return w, dir
}

func nextEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case ev := <-w.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no watcher event")
		return Event{}
	}
}

func TestWatcher_ReportsSettingsWrite(t *testing.T) {
	w, dir := startWatcher(t)
	path := filepath.Join(dir, config.SettingsFileName)

	require.NoError(t, os.WriteFile(path, []byte("presence:\n  poll_interval: 2s\n"), 0644))

	ev := nextEvent(t, w)
	assert.Equal(t, EventSettingsChanged, ev.Type)
	assert.Equal(t, path, ev.Path)
}

func TestWatcher_CoalescesBurst(t *testing.T) {
	w, dir := startWatcher(t)
	path := filepath.Join(dir, config.SettingsFileName)

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0644))
	}

	assert.Equal(t, EventSettingsChanged, nextEvent(t, w).Type)
	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected second event %v", ev.Type)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_AtomicSaveIsAChange(t *testing.T) {
	w, dir := startWatcher(t)
	path := filepath.Join(dir, config.SettingsFileName)

	require.NoError(t, config.SaveYAML(path, map[string]int{"version": 1}))

	assert.Equal(t, EventSettingsChanged, nextEvent(t, w).Type)
}

func TestWatcher_ReportsRemoval(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.SettingsFileName)
	require.NoError(t, os.WriteFile(path, []byte("version: 1\n"), 0644))

	w, err := New(dir)
	require.NoError(t, err)
	w.delay = 20 * time.Millisecond
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.Remove(path))
	assert.Equal(t, EventSettingsRemoved, nextEvent(t, w).Type)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	w, dir := startWatcher(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DaemonFileName), []byte("pid: 1\n"), 0644))

	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event %v for %s", ev.Type, ev.Path)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w, _ := startWatcher(t)
	w.Stop()
	w.Stop()
}
