package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"syscall"

	"github.com/isaiah-harvey/logicrpc/internal/models"
)

// LoadDaemonInfo loads the daemon connection info from ~/.logicrpc/daemon.yaml.
// Returns nil if the file doesn't exist.
func LoadDaemonInfo() (*models.DaemonInfo, error) {
	path, err := GlobalDaemonFile()
	if err != nil {
		return nil, err
	}
	if !FileExists(path) {
		return nil, nil
	}

	var info models.DaemonInfo
	if err := LoadYAML(path, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// SaveDaemonInfo records the running daemon in ~/.logicrpc/daemon.yaml.
func SaveDaemonInfo(info *models.DaemonInfo) error {
	if err := EnsureGlobalDir(); err != nil {
		return err
	}
	path, err := GlobalDaemonFile()
	if err != nil {
		return err
	}
	return SaveYAML(path, info)
}

// RemoveDaemonInfo removes daemon.yaml. Only the process recorded in the
// file removes it, so a second instance that failed to start cannot delete
// the live daemon's record.
func RemoveDaemonInfo() error {
	info, err := LoadDaemonInfo()
	if err != nil || info == nil {
		return err
	}
	if info.PID != os.Getpid() && processAlive(info.PID) {
		return nil
	}

	path, err := GlobalDaemonFile()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove daemon info: %w", err)
	}
	return nil
}

// IsDaemonRunning reports whether the daemon recorded in daemon.yaml is
// alive. A record whose process is gone is treated as stale and removed.
func IsDaemonRunning() (bool, *models.DaemonInfo, error) {
	info, err := LoadDaemonInfo()
	if err != nil {
		return false, nil, err
	}
	if info == nil {
		return false, nil, nil
	}

	if !processAlive(info.PID) {
		path, pathErr := GlobalDaemonFile()
		if pathErr == nil {
			_ = os.Remove(path)
		}
		return false, info, nil
	}
	return true, info, nil
}

// DaemonAddr returns the host:port the daemon's control server listens on.
func DaemonAddr(info *models.DaemonInfo) string {
	return net.JoinHostPort(info.Host, strconv.Itoa(info.Port))
}

// processAlive checks a PID with signal 0 (kill -0).
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}
