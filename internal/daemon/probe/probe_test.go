package probe

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isaiah-harvey/logicrpc/internal/models"
)

type exitErr int

func (e exitErr) Error() string { return "exit status" }
func (e exitErr) ExitCode() int { return int(e) }

type fakeRunner struct {
	out   string
	err   error
	name  string
	args  []string
	calls int
}

func (f *fakeRunner) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls++
	f.name = name
	f.args = args
	return []byte(f.out), f.err
}

func logicTarget() models.TargetConfig {
	return models.NewSettings().Target
}

func TestIsRunning_ByBundleID(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		err     error
		want    bool
		wantErr bool
	}{
		{"running", "true\n", nil, true, false},
		{"not running", "false\n", nil, false, false},
		{"garbled reply", "maybe\n", nil, false, true},
		{"osascript failure", "", exitErr(1), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{out: tt.out, err: tt.err}
			p := New(logicTarget(), runner.run)

			got, err := p.IsRunning(context.Background())
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "osascript", runner.name)
			assert.Equal(t, []string{"-e", `return application id "com.apple.logic10" is running`}, runner.args)
		})
	}
}

func TestIsRunning_ByProcessName(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    bool
		wantErr bool
	}{
		{"match", nil, true, false},
		{"no match", exitErr(1), false, false},
		{"pgrep failure", exitErr(2), false, true},
		{"missing binary", errors.New("executable file not found"), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := logicTarget()
			target.BundleID = ""
			runner := &fakeRunner{err: tt.err}
			p := New(target, runner.run)

			got, err := p.IsRunning(context.Background())
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "pgrep", runner.name)
			assert.Equal(t, []string{"-x", "Logic Pro"}, runner.args)
		})
	}
}

func TestIsRunning_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &fakeRunner{err: exitErr(1)}
	_, err := New(logicTarget(), runner.run).IsRunning(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestActiveDocument(t *testing.T) {
	tests := []struct {
		name string
		out  string
		want string
	}{
		{"strips suffix", "Foo.logicx\n", "Foo"},
		{"no document", "\n", ""},
		{"empty", "", ""},
		{"unsaved project", "Untitled\n", ""},
		{"other document type", "Foo.band\n", ""},
		{"suffix only", ".logicx\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{out: tt.out}
			got, err := New(logicTarget(), runner.run).ActiveDocument(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "osascript", runner.name)
			assert.Contains(t, runner.args[1], `tell application id "com.apple.logic10"`)
		})
	}
}

func TestDocumentName_EmptySuffixKeepsName(t *testing.T) {
	assert.Equal(t, "Untitled", DocumentName(" Untitled \n", ""))
}

func TestActiveDocument_RunnerError(t *testing.T) {
	runner := &fakeRunner{err: exitErr(1)}
	got, err := New(logicTarget(), runner.run).ActiveDocument(context.Background())
	require.Error(t, err)
	assert.Empty(t, got)
}

func TestFrontDocumentScript_QuotesName(t *testing.T) {
	target := models.TargetConfig{Name: `Say "Hi"\`, DocumentSuffix: ".x"}
	runner := &fakeRunner{}
	_, err := New(target, runner.run).ActiveDocument(context.Background())
	require.NoError(t, err)

	script := runner.args[1]
	assert.Contains(t, script, `if application "Say \"Hi\"\\" is not running`)
	assert.Contains(t, script, "name of front document")
	assert.Equal(t, 2, strings.Count(script, `application "Say \"Hi\"\\"`))
}

func TestNew_ProcessNameFallsBackToName(t *testing.T) {
	runner := &fakeRunner{}
	p := New(models.TargetConfig{Name: "MainStage"}, runner.run)
	_, err := p.IsRunning(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pgrep", runner.name)
	assert.Equal(t, []string{"-x", "MainStage"}, runner.args)
}
