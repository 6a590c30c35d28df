package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webmfit/internal/cli"
	"webmfit/internal/encoder"
	"webmfit/internal/selector"
	"webmfit/internal/util/bitrate"
	"webmfit/internal/util/deps"
	"webmfit/internal/validate"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitOK},
		{name: "validation", err: &validate.ValidationError{Option: "-crf", Reason: "out of range"}, want: ExitCLIError},
		{name: "conflict", err: &validate.ConflictError{A: "-an", B: "-ab"}, want: ExitCLIError},
		{name: "missing dep", err: &deps.MissingError{Tool: "ffmpeg"}, want: ExitMissingDep},
		{name: "size", err: fmt.Errorf("plan: %w", &bitrate.SizeInfeasibleError{LimitMiB: 1}), want: ExitSizeFit},
		{name: "aborted", err: &selector.SelectionAbortedError{Reason: "player closed"}, want: ExitAborted},
		{name: "encoder", err: &encoder.SubprocessFailureError{Tool: "ffmpeg", Pass: 2, Passes: 2, Code: 1}, want: ExitEncoderError},
		{name: "other", err: errors.New("boom"), want: ExitCLIError},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("%s: exitCode() = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestExitErr_KeepsExistingCode(t *testing.T) {
	inner := &ExitError{Code: ExitAborted, Err: errors.New("stop")}
	err := exitErr(fmt.Errorf("wrapped: %w", inner))
	var ee *ExitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ExitAborted, ee.Code)
	assert.Nil(t, exitErr(nil))
}

func execRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(cli.NormalizeArgs(args))
	err := root.Execute()
	return out.String(), err
}

func TestRoot_HelpInteractiveMode(t *testing.T) {
	out, err := execRoot(t, "-hi")
	require.NoError(t, err)
	assert.Contains(t, out, "webmfit_confirm")
}

func TestPlan_HelpInteractiveMode(t *testing.T) {
	out, err := execRoot(t, "plan", "-hi")
	require.NoError(t, err)
	assert.Contains(t, out, "webmfit_confirm")
}

func TestRoot_NoInputPrintsUsage(t *testing.T) {
	out, err := execRoot(t)
	var ee *ExitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ExitCLIError, ee.Code)
	assert.Contains(t, out, "Usage:")
}

func TestPlan_ConflictFailsBeforeProbing(t *testing.T) {
	_, err := execRoot(t, "plan", "-i", "in.mkv", "-an", "-acopy", "--cn")
	var ee *ExitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ExitCLIError, ee.Code)
	assert.EqualError(t, ee.Err, "you cannot use -an with -acopy")
}

func TestCompletion(t *testing.T) {
	out, err := execRoot(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "webmfit")

	out, err = execRoot(t, "__complete", "--vc", "")
	require.NoError(t, err)
	assert.Contains(t, out, "vp9\nvp8\nav1\n")
}
