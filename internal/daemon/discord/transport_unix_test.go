//go:build !windows

package discord

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isaiah-harvey/logicrpc/internal/models"
)

// shortTempDir keeps socket paths under the sun_path limit on macOS.
func shortTempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("/tmp", "ipc")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func TestSocketPaths_Order(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/501")
	t.Setenv("TMPDIR", "")
	t.Setenv("TMP", "")
	t.Setenv("TEMP", "")

	paths := socketPaths()
	assert.Equal(t, "/run/user/501/discord-ipc-0", paths[0])
	assert.Equal(t, "/run/user/501/discord-ipc-9", paths[9])
	assert.Contains(t, paths, "/run/user/501/app/com.discordapp.Discord/discord-ipc-0")
	assert.Contains(t, paths, "/tmp/discord-ipc-0")
}

func TestConnector_DialsUnixSocket(t *testing.T) {
	dir := shortTempDir(t)
	t.Setenv("XDG_RUNTIME_DIR", dir)

	ln, err := net.Listen("unix", filepath.Join(dir, "discord-ipc-1"))
	require.NoError(t, err)
	defer ln.Close()

	fake := &fakeDiscord{}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go fake.serve(conn)
		}
	}()

	connect := NewConnector("42", models.NewSettings().Discord)
	pub, err := connect(context.Background())
	require.NoError(t, err)
	defer pub.Close()

	require.NoError(t, pub.SetState(context.Background(), "Working on Foo"))
	assert.Equal(t, []handshake{{Version: 1, ClientID: "42"}}, fake.Handshakes())
	require.Len(t, fake.Commands(), 1)
}
