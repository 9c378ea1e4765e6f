// Package bench runs conversion matrices and renders their results.
package bench

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/geobench/geobench/internal/convert"
	"github.com/geobench/geobench/pkg/errors"
	"github.com/geobench/geobench/pkg/types"
	"github.com/geobench/geobench/pkg/utils"
)

// RunOptions configures one benchmark run.
type RunOptions struct {
	// SplitMultipart and MetadataPass apply to every cell of the matrix.
	SplitMultipart bool
	MetadataPass   bool

	// Overwrite clears pre-existing outputs instead of failing cells.
	Overwrite bool

	// Concurrency bounds how many cells run at once. Zero or one means
	// sequential.
	Concurrency int
}

// Runner executes the (process × format) cross product against one dataset.
type Runner struct {
	orchestrator *convert.Orchestrator
	logger       *utils.Logger
}

// NewRunner creates a benchmark runner over a conversion orchestrator.
func NewRunner(orchestrator *convert.Orchestrator, logger *utils.Logger) *Runner {
	return &Runner{orchestrator: orchestrator, logger: logger}
}

// Run converts the dataset once per (process, format) cell and collects the
// results. Cells are independent: one cell's failure lands in the matrix as
// a failed result and never stops siblings, and no cell is retried. The
// returned error covers setup problems only.
func (r *Runner) Run(ctx context.Context, dataset types.Dataset, outputDir string,
	processes []types.Process, formats []types.Format, opts RunOptions) (*types.BenchmarkMatrix, error) {

	if len(processes) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no processes selected").
			WithComponent("bench")
	}
	if len(formats) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no formats selected").
			WithComponent("bench")
	}

	requests := make([]*types.ConversionRequest, 0, len(processes)*len(formats))
	for _, process := range processes {
		for _, format := range formats {
			requests = append(requests, &types.ConversionRequest{
				Dataset: dataset,
				// Per-process subdirectories keep cell outputs at distinct
				// deterministic paths regardless of scheduling.
				OutputDir:      filepath.Join(outputDir, string(process)),
				Format:         format,
				Process:        process,
				SplitMultipart: opts.SplitMultipart,
				Overwrite:      opts.Overwrite,
				MetadataPass:   opts.MetadataPass,
			})
		}
	}

	results := make([]*types.ConversionResult, len(requests))
	if opts.Concurrency > 1 {
		r.runConcurrent(ctx, requests, results, opts.Concurrency)
	} else {
		for i, req := range requests {
			results[i] = r.runCell(ctx, req, i, len(requests))
		}
	}

	// Results slot by request index, so matrix order matches request order
	// no matter which cells finished first.
	matrix := types.NewBenchmarkMatrix()
	for i, req := range requests {
		matrix.Put(types.CellKey{Process: req.Process, Format: req.Format}, results[i])
	}
	return matrix, nil
}

func (r *Runner) runConcurrent(ctx context.Context, requests []*types.ConversionRequest,
	results []*types.ConversionResult, concurrency int) {

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i, req := range requests {
		wg.Add(1)
		go func(i int, req *types.ConversionRequest) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = r.runCell(ctx, req, i, len(requests))
		}(i, req)
	}
	wg.Wait()
}

func (r *Runner) runCell(ctx context.Context, req *types.ConversionRequest, idx, total int) *types.ConversionResult {
	if r.logger != nil {
		r.logger.Info("cell %d/%d: %s/%s", idx+1, total, req.Process, req.Format)
	}
	return r.orchestrator.Run(ctx, req)
}
