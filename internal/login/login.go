// Package login manages the launchd agent that starts the daemon when the
// user logs in.
package login

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"text/template"
	"time"
)

// Label identifies the launch agent.
const Label = "com.isaiah-harvey.logicrpc"

const launchctlTimeout = 5 * time.Second

// Runner runs an external command.
type Runner func(ctx context.Context, name string, args ...string) error

func execRunner(ctx context.Context, name string, args ...string) error {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s %v: %s: %w", name, args, bytes.TrimSpace(out), err)
	}
	return nil
}

// Agent is a per-user launch agent. The plist's presence under Dir is what
// "enabled" means; launchd picks it up at the next login.
type Agent struct {
	Dir     string   // usually ~/Library/LaunchAgents
	Label   string   // launchd label and plist file name
	Program []string // executable and arguments
	UID     int
	Run     Runner
}

// Supported reports whether launch agents exist on this platform.
func Supported() bool {
	return runtime.GOOS == "darwin"
}

// New creates the agent for program under ~/Library/LaunchAgents.
func New(program ...string) (*Agent, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return &Agent{
		Dir:     filepath.Join(home, "Library", "LaunchAgents"),
		Label:   Label,
		Program: program,
		UID:     os.Getuid(),
		Run:     execRunner,
	}, nil
}

// Path returns the plist path.
func (a *Agent) Path() string {
	return filepath.Join(a.Dir, a.Label+".plist")
}

// IsEnabled reports whether the plist is installed.
func (a *Agent) IsEnabled() bool {
	_, err := os.Stat(a.Path())
	return err == nil
}

// Enable writes the plist.
func (a *Agent) Enable() error {
	if len(a.Program) == 0 || a.Program[0] == "" {
		return fmt.Errorf("launch agent has no program")
	}

	data, err := RenderPlist(a.Label, a.Program)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", a.Dir, err)
	}

	path := a.Path()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write launch agent: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to install launch agent: %w", err)
	}
	log.Printf("[login] installed %s", path)
	return nil
}

// Disable unloads the agent from launchd and removes the plist. The agent
// usually is not loaded, so a launchctl failure is only logged.
func (a *Agent) Disable() error {
	path := a.Path()

	if a.Run != nil {
		ctx, cancel := context.WithTimeout(context.Background(), launchctlTimeout)
		defer cancel()
		domain := "gui/" + strconv.Itoa(a.UID)
		if err := a.Run(ctx, "launchctl", "bootout", domain, path); err != nil {
			log.Printf("[login] launchctl bootout: %v", err)
		}
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove launch agent: %w", err)
	}
	log.Printf("[login] removed %s", path)
	return nil
}

var plistTemplate = template.Must(template.New("plist").Funcs(template.FuncMap{
	"xml": escapeXML,
}).Parse(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>{{xml .Label}}</string>
	<key>ProgramArguments</key>
	<array>
{{- range .Program}}
		<string>{{xml .}}</string>
{{- end}}
	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<false/>
</dict>
</plist>
`))

// RenderPlist returns the launch agent property list.
func RenderPlist(label string, program []string) ([]byte, error) {
	var buf bytes.Buffer
	err := plistTemplate.Execute(&buf, struct {
		Label   string
		Program []string
	}{label, program})
	if err != nil {
		return nil, fmt.Errorf("failed to render launch agent: %w", err)
	}
	return buf.Bytes(), nil
}

func escapeXML(s string) (string, error) {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
