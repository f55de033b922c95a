package models

import (
	"os"
	"time"
)

// ClientIDEnv names the environment variable that overrides the Discord
// application id from settings.yaml.
const ClientIDEnv = "CLIENT_ID"

// DiscordConfig holds the Discord application and the assets shown with the
// activity.
type DiscordConfig struct {
	ClientID   string `yaml:"client_id"`
	LargeImage string `yaml:"large_image"`
	LargeText  string `yaml:"large_text"`
}

// TargetConfig describes the application being watched.
type TargetConfig struct {
	Name           string `yaml:"name"`            // AppleScript application name
	BundleID       string `yaml:"bundle_id"`       // preferred over the name when set
	ProcessName    string `yaml:"process_name"`    // matched exactly by pgrep when bundle_id is empty
	DocumentSuffix string `yaml:"document_suffix"` // required on document names, then stripped
}

// PresenceConfig holds the reconciliation loop settings.
type PresenceConfig struct {
	PollInterval  time.Duration `yaml:"poll_interval"`
	ProbeTimeout  time.Duration `yaml:"probe_timeout"`
	WorkingFormat string        `yaml:"working_format"` // fmt verb %s receives the document name
	BrowsingText  string        `yaml:"browsing_text"`
}

// LogConfig holds settings for the rotating daemon log.
type LogConfig struct {
	MaxSizeMB  int `yaml:"max_size_mb"`
	MaxBackups int `yaml:"max_backups"`
}

// Settings represents global application settings.
// This corresponds to ~/.logicrpc/settings.yaml.
type Settings struct {
	Version  int            `yaml:"version"`
	Discord  DiscordConfig  `yaml:"discord"`
	Target   TargetConfig   `yaml:"target"`
	Presence PresenceConfig `yaml:"presence"`
	Log      LogConfig      `yaml:"log"`
}

// NewSettings creates settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version: 1,
		Discord: DiscordConfig{
			ClientID:   "",
			LargeImage: "logic-pro",
			LargeText:  "Logic Pro",
		},
		Target: TargetConfig{
			Name:           "Logic Pro",
			BundleID:       "com.apple.logic10",
			ProcessName:    "Logic Pro",
			DocumentSuffix: ".logicx",
		},
		Presence: PresenceConfig{
			PollInterval:  time.Second,
			ProbeTimeout:  2 * time.Second,
			WorkingFormat: "Working on %s",
			BrowsingText:  "Browsing projects",
		},
		Log: LogConfig{
			MaxSizeMB:  5,
			MaxBackups: 3,
		},
	}
}

// ResolvedClientID returns the Discord application id, preferring the
// CLIENT_ID environment variable over the settings file.
func (s *Settings) ResolvedClientID() string {
	if v := os.Getenv(ClientIDEnv); v != "" {
		return v
	}
	return s.Discord.ClientID
}

// Normalize replaces zero or invalid values with defaults. Called after
// loading so a partially written settings file still yields a usable config.
func (s *Settings) Normalize() {
	def := NewSettings()
	if s.Presence.PollInterval <= 0 {
		s.Presence.PollInterval = def.Presence.PollInterval
	}
	if s.Presence.ProbeTimeout <= 0 {
		s.Presence.ProbeTimeout = def.Presence.ProbeTimeout
	}
	if s.Presence.WorkingFormat == "" {
		s.Presence.WorkingFormat = def.Presence.WorkingFormat
	}
	if s.Presence.BrowsingText == "" {
		s.Presence.BrowsingText = def.Presence.BrowsingText
	}
	if s.Target.Name == "" {
		s.Target.Name = def.Target.Name
	}
	if s.Target.ProcessName == "" {
		s.Target.ProcessName = s.Target.Name
	}
	if s.Log.MaxSizeMB <= 0 {
		s.Log.MaxSizeMB = def.Log.MaxSizeMB
	}
	if s.Log.MaxBackups < 0 {
		s.Log.MaxBackups = def.Log.MaxBackups
	}
}
