//go:build unix

package exec

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geobench/geobench/pkg/errors"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tool.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o700))
	return path
}

func TestRunSuccess(t *testing.T) {
	t.Parallel()

	tool := writeScript(t, "exit 0\n")
	err := Run(context.Background(), nil, Spec{Path: tool})
	assert.NoError(t, err)
}

func TestRunNonZeroExitCapturesOutput(t *testing.T) {
	t.Parallel()

	tool := writeScript(t, "echo 'ERROR 1: Unable to open datasource' >&2\nexit 1\n")
	err := Run(context.Background(), nil, Spec{Path: tool})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeExternalTool, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "Unable to open datasource")
}

func TestRunMissingExecutable(t *testing.T) {
	t.Parallel()

	err := Run(context.Background(), nil, Spec{Path: filepath.Join(t.TempDir(), "missing-tool")})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeExternalTool, errors.CodeOf(err))
}

func TestRunTimeoutKillsChild(t *testing.T) {
	t.Parallel()

	tool := writeScript(t, "sleep 30\n")
	start := time.Now()
	err := Run(context.Background(), nil, Spec{Path: tool, Timeout: 200 * time.Millisecond})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeOperationCanceled, errors.CodeOf(err))
	assert.Less(t, time.Since(start), 10*time.Second, "child must be killed, not waited for")
}

type recordedCall struct {
	tool    string
	success bool
}

// captureRecorder collects tool outcomes for assertions.
type captureRecorder struct {
	calls []recordedCall
}

func (r *captureRecorder) RecordToolInvocation(tool string, success bool) {
	r.calls = append(r.calls, recordedCall{tool: tool, success: success})
}

func TestRunRecordsToolOutcome(t *testing.T) {
	t.Parallel()

	rec := &captureRecorder{}
	tool := writeScript(t, "exit 0\n")
	require.NoError(t, Run(context.Background(), nil, Spec{Path: tool, Recorder: rec}))

	failing := writeScript(t, "exit 1\n")
	require.Error(t, Run(context.Background(), nil, Spec{Path: failing, Recorder: rec}))

	require.Len(t, rec.calls, 2)
	assert.Equal(t, recordedCall{tool: "tool.sh", success: true}, rec.calls[0])
	assert.Equal(t, recordedCall{tool: "tool.sh", success: false}, rec.calls[1])
}

func TestRunCanceledContext(t *testing.T) {
	t.Parallel()

	tool := writeScript(t, "sleep 30\n")
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	err := Run(ctx, nil, Spec{Path: tool})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeOperationCanceled, errors.CodeOf(err))
}
