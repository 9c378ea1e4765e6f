package backend

import (
	"context"
	"time"

	"github.com/geobench/geobench/internal/exec"
	"github.com/geobench/geobench/pkg/types"
	"github.com/geobench/geobench/pkg/utils"
)

// ogrBackend shells out to ogr2ogr, one child process per source file. The
// first file creates the destination; subsequent files append to it.
type ogrBackend struct {
	logger   *utils.Logger
	path     string
	timeout  time.Duration
	recorder exec.ToolRecorder
}

func newOGRBackend(opts Options) *ogrBackend {
	path := opts.OGR2OGRPath
	if path == "" {
		path = "ogr2ogr"
	}
	return &ogrBackend{
		logger:   opts.Logger,
		path:     path,
		timeout:  opts.ToolTimeout,
		recorder: opts.Recorder,
	}
}

func (b *ogrBackend) Process() types.Process {
	return types.ProcessOGR
}

func (b *ogrBackend) Capabilities() types.Capabilities {
	return types.Capabilities{
		Formats: []types.Format{
			types.FormatFlatGeobuf,
			types.FormatGeoParquet,
			types.FormatGeoPackage,
			types.FormatShapefile,
		},
		// ogr2ogr has no multipart-splitting mode; the orchestrator fails
		// split requests before they reach this adapter, and the adapter
		// never silently drops the flag.
		SplitMultipart:    false,
		NativeGeoMetadata: true,
	}
}

func (b *ogrBackend) Convert(ctx context.Context, req *types.ConversionRequest, outPath string) error {
	for i, file := range req.Dataset.Files {
		args := ogrArgs(req.Format, outPath, file, i > 0)
		if err := exec.Run(ctx, b.logger, exec.Spec{
			Path:     b.path,
			Args:     args,
			Timeout:  b.timeout,
			Recorder: b.recorder,
		}); err != nil {
			return err
		}
	}
	return nil
}

// ogrArgs builds the ogr2ogr invocation for one source file. The open
// options teach the CSV driver where the WKT geometry lives.
func ogrArgs(format types.Format, outPath, inPath string, appendMode bool) []string {
	args := []string{
		"-f", gdalDriver(format),
		outPath,
		inPath,
		"-oo", "GEOM_POSSIBLE_NAMES=geometry",
		"-oo", "KEEP_GEOM_COLUMNS=NO",
		"-a_srs", "EPSG:4326",
	}
	if appendMode {
		args = append(args, "-append")
	}
	return args
}
