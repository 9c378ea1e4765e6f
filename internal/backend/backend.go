package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/geobench/geobench/internal/exec"
	"github.com/geobench/geobench/pkg/types"
	"github.com/geobench/geobench/pkg/utils"
)

// Backend is the shared conversion contract every processing engine
// implements. Implementations differ in execution strategy, capability
// subset, and failure surface, but never in the contract.
type Backend interface {
	// Process returns the backend's CLI name.
	Process() types.Process

	// Capabilities returns the backend's static capability descriptor. The
	// orchestrator checks it before dispatch; adapters may assume requests
	// they receive are supported.
	Capabilities() types.Capabilities

	// Convert writes the request's dataset to outPath in the requested
	// format. Each call acquires and releases its own engine handle so no
	// state leaks between timed invocations.
	Convert(ctx context.Context, req *types.ConversionRequest, outPath string) error
}

// Options carries the shared dependencies backends are constructed with.
type Options struct {
	Logger *utils.Logger

	// OGR2OGRPath locates the external conversion tool.
	OGR2OGRPath string

	// ToolTimeout bounds each external tool invocation.
	ToolTimeout time.Duration

	// Recorder receives the outcome of every external tool run.
	Recorder exec.ToolRecorder
}

// New constructs the backend for a process choice.
func New(process types.Process, opts Options) (Backend, error) {
	switch process {
	case types.ProcessDuckDB:
		return newDuckDBBackend(opts), nil
	case types.ProcessPandas:
		return newMemoryBackend(opts), nil
	case types.ProcessOGR:
		return newOGRBackend(opts), nil
	default:
		return nil, fmt.Errorf("unknown process %q", process)
	}
}

// Registry constructs every backend keyed by process name.
func Registry(opts Options) map[types.Process]Backend {
	registry := make(map[types.Process]Backend, len(types.AllProcesses()))
	for _, p := range types.AllProcesses() {
		b, err := New(p, opts)
		if err != nil {
			// AllProcesses and New cover the same closed set.
			panic(err)
		}
		registry[p] = b
	}
	return registry
}
