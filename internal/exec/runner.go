// Package exec runs external conversion tools as scoped child processes.
//
// Every invocation owns its child for the duration of one call: on context
// cancellation or timeout the whole process group is terminated, not merely
// abandoned, so no orphaned tool keeps consuming resources after a cell is
// given up on.
package exec

import (
	"bytes"
	"context"
	"fmt"
	osexec "os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/geobench/geobench/pkg/errors"
	"github.com/geobench/geobench/pkg/utils"
)

// outputTailBytes bounds how much tool output is kept for error reporting.
const outputTailBytes = 4096

// ToolRecorder receives the outcome of each tool invocation, keyed by the
// tool's base name.
type ToolRecorder interface {
	RecordToolInvocation(tool string, success bool)
}

// Spec describes one external tool invocation.
type Spec struct {
	// Path is the executable to run, resolved via PATH if not absolute.
	Path string

	// Args are the command arguments, excluding the executable name.
	Args []string

	// Dir is the working directory; empty means the caller's.
	Dir string

	// Timeout bounds the invocation. Zero means no timeout beyond the
	// caller's context.
	Timeout time.Duration

	// Recorder, when set, is told whether the invocation succeeded.
	Recorder ToolRecorder
}

// Run executes the tool and waits for it to exit. A non-zero exit or
// unexpected failure is reported as an EXTERNAL_TOOL error carrying the tail
// of the tool's combined output; cancellation and timeout are reported as
// OPERATION_CANCELED after the child process group has been killed.
func Run(ctx context.Context, logger *utils.Logger, spec Spec) error {
	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	cmd := osexec.CommandContext(ctx, spec.Path, spec.Args...)
	cmd.Dir = spec.Dir

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	setProcessGroup(cmd)
	cmd.Cancel = func() error { return terminate(cmd) }
	// If the group refuses to die, stop waiting rather than hanging the cell.
	cmd.WaitDelay = 10 * time.Second

	if logger != nil {
		logger.Debug("exec: %s %s", spec.Path, strings.Join(spec.Args, " "))
	}

	err := cmd.Run()
	if spec.Recorder != nil {
		spec.Recorder.RecordToolInvocation(filepath.Base(spec.Path), err == nil)
	}
	if err == nil {
		return nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Newf(errors.ErrCodeOperationCanceled, "%s terminated: %v", spec.Path, ctxErr).
			WithComponent("exec").WithCause(ctxErr)
	}

	return errors.Newf(errors.ErrCodeExternalTool, "%s failed: %v%s", spec.Path, err, formatTail(output.Bytes())).
		WithComponent("exec").WithCause(err)
}

func formatTail(out []byte) string {
	if len(out) == 0 {
		return ""
	}
	if len(out) > outputTailBytes {
		out = out[len(out)-outputTailBytes:]
	}
	return fmt.Sprintf("\ntool output:\n%s", strings.TrimSpace(string(out)))
}
