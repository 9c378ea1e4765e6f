// Command geobench converts building-footprint CSV datasets into geospatial
// formats and benchmarks the available conversion engines against each
// other.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/geobench/geobench/internal/backend"
	"github.com/geobench/geobench/internal/bench"
	"github.com/geobench/geobench/internal/config"
	"github.com/geobench/geobench/internal/convert"
	"github.com/geobench/geobench/internal/dataset"
	"github.com/geobench/geobench/internal/download"
	"github.com/geobench/geobench/internal/metrics"
	"github.com/geobench/geobench/pkg/types"
	"github.com/geobench/geobench/pkg/utils"
)

const usage = `usage: geobench <command> [flags] [args]

commands:
  convert    convert a dataset to one geospatial format
  benchmark  convert with every (process, format) combination and report timings
  download   fetch a public Overture release theme

run "geobench <command> -h" for command flags
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "convert":
		err = runConvert(ctx, os.Args[2:])
	case "benchmark":
		err = runBenchmark(ctx, os.Args[2:])
	case "download":
		err = runDownload(ctx, os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "geobench: unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "geobench: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig builds the effective configuration: defaults, then the config
// file if given, then environment overrides.
func loadConfig(path string, verbose bool) (*config.Configuration, *utils.Logger, error) {
	cfg := config.NewDefault()
	if path != "" {
		if err := cfg.LoadFromFile(path); err != nil {
			return nil, nil, err
		}
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, nil, err
	}
	if verbose {
		cfg.Global.LogLevel = "DEBUG"
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	level, err := utils.ParseLogLevel(cfg.Global.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, utils.NewLogger(level, os.Stderr), nil
}

func newOrchestrator(cfg *config.Configuration, logger *utils.Logger, collector *metrics.Collector) *convert.Orchestrator {
	backends := backend.Registry(backend.Options{
		Logger:      logger,
		OGR2OGRPath: cfg.Tools.OGR2OGRPath,
		ToolTimeout: cfg.Tools.Timeout,
		Recorder:    collector,
	})
	return convert.New(backends, convert.Options{
		Logger:            logger,
		Collector:         collector,
		GPQPath:           cfg.Tools.GPQPath,
		ToolTimeout:       cfg.Tools.Timeout,
		ShapefileMaxBytes: cfg.Convert.ShapefileMaxBytes,
	})
}

func newCollector(ctx context.Context, cfg *config.Configuration) (*metrics.Collector, error) {
	collector, err := metrics.NewCollector(&metrics.Config{
		Enabled: cfg.Global.MetricsPort > 0,
		Port:    cfg.Global.MetricsPort,
	})
	if err != nil {
		return nil, err
	}
	if err := collector.Start(ctx); err != nil {
		return nil, err
	}
	return collector, nil
}

func runConvert(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	formatFlag := fs.String("format", "", "output format: fgb, parquet, gpkg or shp")
	processFlag := fs.String("process", "", "conversion engine: duckdb, pandas or ogr")
	overwrite := fs.Bool("overwrite", false, "replace existing output")
	skipSplit := fs.Bool("skip-split-multis", false, "keep multipolygons as single records")
	noGPQ := fs.Bool("no-gpq", false, "skip the GeoParquet metadata pass (timing will be faster)")
	configPath := fs.String("config", "", "configuration file")
	verbose := fs.Bool("verbose", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("convert needs INPUT and OUTPUT_DIR arguments")
	}

	cfg, logger, err := loadConfig(*configPath, *verbose)
	if err != nil {
		return err
	}
	if *formatFlag == "" {
		*formatFlag = cfg.Convert.DefaultFormat
	}
	if *processFlag == "" {
		*processFlag = cfg.Convert.DefaultProcess
	}
	format, err := types.ParseFormat(*formatFlag)
	if err != nil {
		return err
	}
	process, err := types.ParseProcess(*processFlag)
	if err != nil {
		return err
	}

	ds, err := dataset.Resolve(fs.Arg(0))
	if err != nil {
		return err
	}

	collector, err := newCollector(ctx, cfg)
	if err != nil {
		return err
	}
	defer collector.Stop()

	result := newOrchestrator(cfg, logger, collector).Run(ctx, &types.ConversionRequest{
		Dataset:        ds,
		OutputDir:      fs.Arg(1),
		Format:         format,
		Process:        process,
		SplitMultipart: !*skipSplit,
		Overwrite:      *overwrite,
		MetadataPass:   cfg.Convert.MetadataPass && !*noGPQ,
	})
	if !result.Success {
		return fmt.Errorf("%s: %s", result.ErrorCode, result.Error)
	}
	for _, out := range result.Outputs {
		fmt.Println(out)
	}
	return nil
}

func runBenchmark(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("benchmark", flag.ExitOnError)
	processesFlag := fs.String("processes", "", "comma-separated engines to benchmark")
	formatsFlag := fs.String("formats", "", "comma-separated formats to benchmark")
	skipSplit := fs.Bool("skip-split-multis", false, "keep multipolygons as single records")
	noGPQ := fs.Bool("no-gpq", false, "skip the GeoParquet metadata pass (timing will be faster)")
	outputFormat := fs.String("output-format", "", "report format: ascii, csv or json")
	concurrency := fs.Int("concurrency", 0, "cells to run at once (default sequential)")
	configPath := fs.String("config", "", "configuration file")
	verbose := fs.Bool("verbose", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("benchmark needs INPUT and OUTPUT_DIR arguments")
	}

	cfg, logger, err := loadConfig(*configPath, *verbose)
	if err != nil {
		return err
	}
	if *processesFlag == "" {
		*processesFlag = cfg.Benchmark.Processes
	}
	if *formatsFlag == "" {
		*formatsFlag = cfg.Benchmark.Formats
	}
	if *outputFormat == "" {
		*outputFormat = cfg.Benchmark.ReportFormat
	}
	if *concurrency == 0 {
		*concurrency = cfg.Benchmark.Concurrency
	}
	processes, err := types.ParseProcesses(*processesFlag)
	if err != nil {
		return err
	}
	formats, err := types.ParseFormats(*formatsFlag)
	if err != nil {
		return err
	}
	reportFormat, err := bench.ParseReportFormat(*outputFormat)
	if err != nil {
		return err
	}

	ds, err := dataset.Resolve(fs.Arg(0))
	if err != nil {
		return err
	}

	collector, err := newCollector(ctx, cfg)
	if err != nil {
		return err
	}
	defer collector.Stop()

	runner := bench.NewRunner(newOrchestrator(cfg, logger, collector), logger)
	matrix, err := runner.Run(ctx, ds, fs.Arg(1), processes, formats, bench.RunOptions{
		SplitMultipart: !*skipSplit,
		MetadataPass:   cfg.Convert.MetadataPass && !*noGPQ,
		Overwrite:      true,
		Concurrency:    *concurrency,
	})
	if err != nil {
		return err
	}

	// Failed cells are benchmark data, not command failures; the report
	// carries their error codes and the exit status stays zero.
	return bench.WriteReport(os.Stdout, matrix, reportFormat)
}

func runDownload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("download", flag.ExitOnError)
	theme := fs.String("theme", "", "release theme: buildings, admins, places or transportation")
	configPath := fs.String("config", "", "configuration file")
	verbose := fs.Bool("verbose", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("download needs a DEST argument")
	}

	cfg, logger, err := loadConfig(*configPath, *verbose)
	if err != nil {
		return err
	}
	if *theme == "" {
		*theme = cfg.Download.Theme
	}

	fetcher, err := download.NewFromRegion(ctx, download.Options{
		Bucket:  cfg.Download.Bucket,
		Region:  cfg.Download.Region,
		Release: cfg.Download.Release,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	paths, err := fetcher.Download(ctx, *theme, fs.Arg(0))
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Println(p)
	}
	return nil
}
