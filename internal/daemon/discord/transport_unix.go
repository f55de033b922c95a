//go:build !windows

package discord

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
)

// socketDirs lists the directories searched for discord-ipc-N, in order.
// Flatpak and Snap installs put the socket in a subdirectory.
func socketDirs() []string {
	var base []string
	for _, env := range []string{"XDG_RUNTIME_DIR", "TMPDIR", "TMP", "TEMP"} {
		if dir := os.Getenv(env); dir != "" {
			base = append(base, dir)
		}
	}
	base = append(base, "/tmp")

	var dirs []string
	seen := make(map[string]bool)
	for _, dir := range base {
		for _, sub := range []string{"", "app/com.discordapp.Discord", "snap.discord"} {
			d := filepath.Join(dir, sub)
			if seen[d] {
				continue
			}
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	return dirs
}

func socketPaths() []string {
	var paths []string
	for _, dir := range socketDirs() {
		for i := 0; i < 10; i++ {
			paths = append(paths, filepath.Join(dir, fmt.Sprintf("discord-ipc-%d", i)))
		}
	}
	return paths
}

func dialIPC(ctx context.Context) (net.Conn, error) {
	var d net.Dialer
	for _, path := range socketPaths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		conn, err := d.DialContext(ctx, "unix", path)
		if err == nil {
			return conn, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, ErrNoSocket
}
