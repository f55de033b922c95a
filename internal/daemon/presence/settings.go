package presence

import (
	"time"

	"github.com/isaiah-harvey/logicrpc/internal/models"
)

// FormatFromConfig returns the status templates from settings.
func FormatFromConfig(cfg models.PresenceConfig) Format {
	return Format{
		Working:  cfg.WorkingFormat,
		Browsing: cfg.BrowsingText,
	}
}

// OptionsFromConfig returns loop options from settings.
func OptionsFromConfig(cfg models.PresenceConfig) LoopOptions {
	return LoopOptions{
		PollInterval: cfg.PollInterval,
		ProbeTimeout: cfg.ProbeTimeout,
		Format:       FormatFromConfig(cfg),
	}
}

// ShutdownGrace bounds how long the daemon waits for the loop to exit after
// Stop: one sleep, one probe, one clear, plus a second of slack.
func (o LoopOptions) ShutdownGrace() time.Duration {
	o = o.withDefaults()
	return o.PollInterval + o.ProbeTimeout + time.Second
}
