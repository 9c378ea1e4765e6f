package backend

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/geobench/geobench/internal/backend/writer"
	"github.com/geobench/geobench/internal/geometry"
	"github.com/geobench/geobench/pkg/errors"
	"github.com/geobench/geobench/pkg/types"
	"github.com/geobench/geobench/pkg/utils"
)

// memoryBackend is the in-memory table engine (CLI name "pandas"). It loads
// the whole dataset before writing anything, so it carries no bounded-memory
// guarantee; the tradeoff buys native geo metadata on every format it
// supports. Format writing is delegated to the writer subpackage.
type memoryBackend struct {
	logger *utils.Logger
}

func newMemoryBackend(opts Options) *memoryBackend {
	return &memoryBackend{logger: opts.Logger}
}

func (b *memoryBackend) Process() types.Process {
	return types.ProcessPandas
}

func (b *memoryBackend) Capabilities() types.Capabilities {
	return types.Capabilities{
		// No FlatGeobuf: the engine has no writer for it.
		Formats: []types.Format{
			types.FormatGeoParquet,
			types.FormatGeoPackage,
			types.FormatShapefile,
		},
		SplitMultipart:    true,
		NativeGeoMetadata: true,
	}
}

func (b *memoryBackend) Convert(ctx context.Context, req *types.ConversionRequest, outPath string) error {
	table, err := b.loadTable(ctx, req.Dataset.Files)
	if err != nil {
		return err
	}
	if req.SplitMultipart {
		table = splitTable(table)
	}
	if err := ctx.Err(); err != nil {
		return errors.Newf(errors.ErrCodeOperationCanceled, "conversion canceled: %v", err).
			WithComponent("memory").WithCause(err)
	}

	if b.logger != nil {
		b.logger.Debug("memory engine: writing %d records to %s", table.Len(), outPath)
	}

	switch req.Format {
	case types.FormatGeoParquet:
		return writer.WriteParquet(outPath, table)
	case types.FormatGeoPackage:
		return writer.WriteGeoPackage(outPath, table)
	case types.FormatShapefile:
		return writer.WriteShapefile(outPath, table)
	default:
		// Capability filtering happens before dispatch; reaching this means
		// the caller skipped it.
		return errors.Newf(errors.ErrCodeUnsupportedCapability, "memory engine cannot write %s", req.Format).
			WithComponent("memory")
	}
}

// loadTable reads every source file into one table, parsing the geometry
// column as it goes. All files must share the first file's header.
func (b *memoryBackend) loadTable(ctx context.Context, files []string) (*writer.Table, error) {
	table := &writer.Table{}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, errors.Newf(errors.ErrCodeOperationCanceled, "conversion canceled: %v", err).
				WithComponent("memory").WithCause(err)
		}
		if err := b.loadFile(file, table); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func (b *memoryBackend) loadFile(path string, table *writer.Table) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Newf(errors.ErrCodeConversionFailed, "cannot open %s", path).
			WithComponent("memory").WithCause(err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = false

	header, err := r.Read()
	if err != nil {
		return errors.Newf(errors.ErrCodeConversionFailed, "cannot read header of %s", path).
			WithComponent("memory").WithCause(err)
	}
	geomIdx := -1
	for i, name := range header {
		if strings.EqualFold(name, "geometry") {
			geomIdx = i
			break
		}
	}
	if geomIdx < 0 {
		return errors.Newf(errors.ErrCodeConversionFailed, "%s has no geometry column", path).
			WithComponent("memory")
	}
	if table.Columns == nil {
		table.Columns = dropIndex(header, geomIdx)
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Newf(errors.ErrCodeConversionFailed, "malformed record in %s", path).
				WithComponent("memory").WithCause(err)
		}
		g, err := geometry.Parse(record[geomIdx])
		if err != nil {
			return err
		}
		table.Rows = append(table.Rows, dropIndex(record, geomIdx))
		table.Geoms = append(table.Geoms, g)
	}
}

// splitTable expands multipart geometries into one row per part, duplicating
// the attribute values. Input order is preserved and parts stay adjacent.
func splitTable(table *writer.Table) *writer.Table {
	out := &writer.Table{Columns: table.Columns}
	for i, g := range table.Geoms {
		for _, part := range geometry.Split(g) {
			out.Rows = append(out.Rows, table.Rows[i])
			out.Geoms = append(out.Geoms, part)
		}
	}
	return out
}

func dropIndex(record []string, idx int) []string {
	out := make([]string, 0, len(record)-1)
	out = append(out, record[:idx]...)
	return append(out, record[idx+1:]...)
}
