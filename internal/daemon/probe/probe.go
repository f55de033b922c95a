// Package probe answers whether the watched application is running and
// which document it has open, by shelling out to osascript (or pgrep when
// no bundle id is configured).
package probe

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/isaiah-harvey/logicrpc/internal/models"
)

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs the command with exec.CommandContext, so it is killed when
// ctx expires.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// AppProbe checks a desktop application by bundle id and reads the name of
// its front document through AppleScript.
type AppProbe struct {
	target models.TargetConfig
	run    Runner
}

// New creates a probe for target. A nil runner uses ExecRunner.
func New(target models.TargetConfig, run Runner) *AppProbe {
	if run == nil {
		run = ExecRunner
	}
	if target.ProcessName == "" {
		target.ProcessName = target.Name
	}
	return &AppProbe{target: target, run: run}
}

// IsRunning reports whether the target is running, matched by BundleID or,
// when that is empty, by exact ProcessName.
func (p *AppProbe) IsRunning(ctx context.Context) (bool, error) {
	if p.target.BundleID == "" {
		return p.processRunning(ctx)
	}

	out, err := p.run(ctx, "osascript", "-e", "return "+p.application()+" is running")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		return false, fmt.Errorf("failed to check for %s: %w", p.target.BundleID, err)
	}
	switch strings.TrimSpace(string(out)) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("unexpected osascript reply %q", strings.TrimSpace(string(out)))
	}
}

func (p *AppProbe) processRunning(ctx context.Context) (bool, error) {
	_, err := p.run(ctx, "pgrep", "-x", p.target.ProcessName)
	if err == nil {
		return true, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, ctxErr
	}
	// pgrep exits 1 when nothing matched.
	if exitCode(err) == 1 {
		return false, nil
	}
	return false, fmt.Errorf("failed to check for %s: %w", p.target.ProcessName, err)
}

// ActiveDocument returns the front document name with DocumentSuffix
// removed, or "" when the application has no document open.
func (p *AppProbe) ActiveDocument(ctx context.Context) (string, error) {
	out, err := p.run(ctx, "osascript", "-e", frontDocumentScript(p.application()))
	if err != nil {
		return "", fmt.Errorf("failed to read front document: %w", err)
	}
	return DocumentName(string(out), p.target.DocumentSuffix), nil
}

// DocumentName trims the raw AppleScript result and removes suffix. With a
// non-empty suffix, a name that lacks it (an unsaved "Untitled" window) is
// not a project and yields "".
func DocumentName(raw, suffix string) string {
	name := strings.TrimSpace(raw)
	if suffix != "" {
		stripped, ok := strings.CutSuffix(name, suffix)
		if !ok {
			return ""
		}
		name = stripped
	}
	return strings.TrimSpace(name)
}

// application is the AppleScript reference to the target.
func (p *AppProbe) application() string {
	if p.target.BundleID != "" {
		return "application id " + appleScriptString(p.target.BundleID)
	}
	return "application " + appleScriptString(p.target.Name)
}

// frontDocumentScript never launches the application: the running check
// comes before the tell block.
func frontDocumentScript(app string) string {
	return `if ` + app + ` is not running then
	return ""
end if
tell ` + app + `
	try
		return name of front document
	on error
		return ""
	end try
end tell`
}

func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

func exitCode(err error) int {
	var coded interface{ ExitCode() int }
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	return -1
}
