package config

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/isaiah-harvey/logicrpc/internal/models"
)

// SetupDaemonLog configures the standard logger for the daemon. When toFile
// is set, output also goes to ~/.logicrpc/logs/daemon.log, rotated by size.
// The returned closer flushes and closes the log file.
func SetupDaemonLog(prefix string, toFile bool, cfg models.LogConfig) (io.Closer, error) {
	log.SetPrefix(prefix)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	if !toFile {
		log.SetOutput(os.Stderr)
		return nopCloser{}, nil
	}

	if err := EnsureGlobalLogsDir(); err != nil {
		return nil, err
	}
	path, err := DaemonLogFile()
	if err != nil {
		return nil, err
	}

	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   false,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	return rotator, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
