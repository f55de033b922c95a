package models

import "time"

// daemonInfoVersion is bumped when daemon.yaml changes shape.
const daemonInfoVersion = 1

// DaemonInfo is the record in ~/.logicrpc/daemon.yaml that the CLI reads to
// find the control server. PID doubles as the single-instance lock.
type DaemonInfo struct {
	Version   int       `yaml:"version"`
	Host      string    `yaml:"host"`
	Port      int       `yaml:"port"`
	PID       int       `yaml:"pid"`
	StartedAt time.Time `yaml:"started_at"`
}

func NewDaemonInfo(host string, port, pid int) *DaemonInfo {
	return &DaemonInfo{
		Version:   daemonInfoVersion,
		Host:      host,
		Port:      port,
		PID:       pid,
		StartedAt: time.Now().UTC(),
	}
}
