// Package convert runs single conversions end to end: capability
// validation, overwrite policy, timed dispatch to a backend, and output
// post-processing.
package convert

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/geobench/geobench/internal/backend"
	"github.com/geobench/geobench/internal/exec"
	"github.com/geobench/geobench/internal/geometry"
	"github.com/geobench/geobench/internal/metrics"
	"github.com/geobench/geobench/pkg/errors"
	"github.com/geobench/geobench/pkg/types"
	"github.com/geobench/geobench/pkg/utils"
)

// shapefileSidecars lists the companion extensions a shapefile write
// produces next to the .shp file.
var shapefileSidecars = []string{".shx", ".dbf", ".prj", ".cpg"}

// Options configures an Orchestrator.
type Options struct {
	Logger    *utils.Logger
	Collector *metrics.Collector

	// GPQPath locates the gpq tool for the metadata pass.
	GPQPath string

	// ToolTimeout bounds each external tool invocation.
	ToolTimeout time.Duration

	// ShapefileMaxBytes is the hard ceiling on shapefile output size.
	ShapefileMaxBytes int64
}

// Orchestrator dispatches conversion requests to backends and turns every
// outcome, success or failure, into a ConversionResult.
type Orchestrator struct {
	backends map[types.Process]backend.Backend
	opts     Options
}

// New creates an orchestrator over the given backends.
func New(backends map[types.Process]backend.Backend, opts Options) *Orchestrator {
	return &Orchestrator{backends: backends, opts: opts}
}

// Run executes one conversion. It never propagates an error: failures of
// any kind come back as a result with Success=false and the error code set.
func (o *Orchestrator) Run(ctx context.Context, req *types.ConversionRequest) *types.ConversionResult {
	result := &types.ConversionResult{Request: req}

	b, ok := o.backends[req.Process]
	if !ok {
		return o.fail(result, errors.Newf(errors.ErrCodeInvalidInput, "unknown process %q", req.Process).
			WithComponent("convert"))
	}
	caps := b.Capabilities()

	if !caps.SupportsFormat(req.Format) {
		return o.fail(result, errors.Newf(errors.ErrCodeUnsupportedCapability,
			"process %q cannot write format %q", req.Process, req.Format).
			WithComponent("convert"))
	}
	if _, err := geometry.DecideSplit(req.SplitMultipart, req.Process, caps); err != nil {
		return o.fail(result, err)
	}

	outPath := req.OutputPath()
	if err := o.applyOverwritePolicy(req, outPath); err != nil {
		return o.fail(result, err)
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return o.fail(result, errors.Newf(errors.ErrCodeConversionFailed, "cannot create output directory %s", req.OutputDir).
			WithComponent("convert").WithCause(err))
	}

	needsPass := req.MetadataPass &&
		req.Format == types.FormatGeoParquet &&
		!caps.NativeGeoMetadata

	// The timed interval covers the conversion and, when it runs, the
	// metadata pass. Disabling the pass makes timing faster, never just
	// cheaper-looking.
	start := time.Now()
	err := b.Convert(ctx, req, outPath)
	if err == nil && needsPass {
		result.MetadataPassRan = true
		err = gpqPass(ctx, o.opts.Logger, toolRecorder(o.opts.Collector),
			o.opts.GPQPath, outPath, o.opts.ToolTimeout)
	}
	result.Duration = time.Since(start)

	if err != nil {
		o.removeOutputs(req, outPath)
		return o.fail(result, err)
	}

	if req.Format == types.FormatShapefile {
		if err := o.checkShapefileSize(outPath); err != nil {
			o.removeOutputs(req, outPath)
			return o.fail(result, err)
		}
	}

	result.Outputs = o.collectOutputs(req, outPath)
	result.Success = true
	o.record(result)
	if o.opts.Logger != nil {
		o.opts.Logger.Info("converted %s to %s with %s in %s",
			req.Dataset.Name(), req.Format, req.Process, result.Duration)
	}
	return result
}

func (o *Orchestrator) fail(result *types.ConversionResult, err error) *types.ConversionResult {
	result.Success = false
	result.ErrorCode = string(errors.CodeOf(err))
	result.Error = err.Error()
	o.record(result)
	if o.opts.Logger != nil {
		o.opts.Logger.Warn("conversion %s/%s failed: %v",
			result.Request.Process, result.Request.Format, err)
	}
	return result
}

// toolRecorder adapts an optional collector into the runner's recorder
// contract. A nil collector must become a nil interface, not a typed nil.
func toolRecorder(c *metrics.Collector) exec.ToolRecorder {
	if c == nil {
		return nil
	}
	return c
}

func (o *Orchestrator) record(result *types.ConversionResult) {
	if o.opts.Collector == nil {
		return
	}
	o.opts.Collector.RecordConversion(
		string(result.Request.Process), string(result.Request.Format),
		result.Duration, result.Success)
}

// applyOverwritePolicy fails when the output exists and overwriting was not
// requested, and clears stale outputs when it was. Stale outputs must go
// before dispatch: container formats would otherwise append to them.
func (o *Orchestrator) applyOverwritePolicy(req *types.ConversionRequest, outPath string) error {
	if _, err := os.Stat(outPath); err != nil {
		return nil
	}
	if !req.Overwrite {
		return errors.Newf(errors.ErrCodeOutputExists, "output %s already exists", outPath).
			WithComponent("convert")
	}
	o.removeOutputs(req, outPath)
	return nil
}

func (o *Orchestrator) removeOutputs(req *types.ConversionRequest, outPath string) {
	os.Remove(outPath)
	if req.Format == types.FormatShapefile {
		stem := outPath[:len(outPath)-len(filepath.Ext(outPath))]
		for _, ext := range shapefileSidecars {
			os.Remove(stem + ext)
		}
	}
}

func (o *Orchestrator) collectOutputs(req *types.ConversionRequest, outPath string) []string {
	outputs := []string{outPath}
	if req.Format == types.FormatShapefile {
		stem := outPath[:len(outPath)-len(filepath.Ext(outPath))]
		for _, ext := range shapefileSidecars {
			if _, err := os.Stat(stem + ext); err == nil {
				outputs = append(outputs, stem+ext)
			}
		}
	}
	return outputs
}

// checkShapefileSize enforces the format's hard size ceiling. An oversized
// file fails the conversion outright rather than shipping a file other
// tools will truncate or misread.
func (o *Orchestrator) checkShapefileSize(outPath string) error {
	limit := o.opts.ShapefileMaxBytes
	if limit <= 0 {
		return nil
	}
	info, err := os.Stat(outPath)
	if err != nil {
		return errors.Newf(errors.ErrCodeConversionFailed, "cannot stat output %s", outPath).
			WithComponent("convert").WithCause(err)
	}
	if info.Size() > limit {
		return errors.Newf(errors.ErrCodeOutputTooLarge,
			"shapefile output is %d bytes, over the %d byte format limit", info.Size(), limit).
			WithComponent("convert")
	}
	return nil
}
