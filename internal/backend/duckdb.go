package backend

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb/v2" // registers the "duckdb" driver

	"github.com/geobench/geobench/pkg/errors"
	"github.com/geobench/geobench/pkg/types"
	"github.com/geobench/geobench/pkg/utils"
)

// duckdbBackend converts datasets with an embedded DuckDB engine. The whole
// conversion is expressed as SQL: ingest the CSVs, stage a geometry column,
// copy out in the target format. DuckDB streams through the data, so memory
// stays bounded regardless of input size.
type duckdbBackend struct {
	logger *utils.Logger
}

func newDuckDBBackend(opts Options) *duckdbBackend {
	return &duckdbBackend{logger: opts.Logger}
}

func (b *duckdbBackend) Process() types.Process {
	return types.ProcessDuckDB
}

func (b *duckdbBackend) Capabilities() types.Capabilities {
	return types.Capabilities{
		Formats: []types.Format{
			types.FormatFlatGeobuf,
			types.FormatGeoParquet,
			types.FormatGeoPackage,
			types.FormatShapefile,
		},
		SplitMultipart: true,
		// DuckDB's Parquet writer emits plain Parquet with WKB geometry;
		// the gpq pass upgrades it to valid GeoParquet.
		NativeGeoMetadata: false,
	}
}

func (b *duckdbBackend) Convert(ctx context.Context, req *types.ConversionRequest, outPath string) error {
	// A fresh in-memory database per invocation; handles are never shared
	// across benchmark cells.
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return errors.New(errors.ErrCodeConversionFailed, "cannot open duckdb engine").
			WithComponent("duckdb").WithCause(err)
	}
	defer db.Close()

	// Temp tables are connection-scoped, so the whole pipeline runs on one
	// connection.
	conn, err := db.Conn(ctx)
	if err != nil {
		return errors.New(errors.ErrCodeConversionFailed, "cannot acquire duckdb connection").
			WithComponent("duckdb").WithCause(err)
	}
	defer conn.Close()

	statements := []string{
		"INSTALL spatial;",
		"LOAD spatial;",
		ingestSQL(req.Dataset.Files),
		stageSQL(req.SplitMultipart),
		copySQL(req.Format, req.SplitMultipart, outPath),
	}

	for _, stmt := range statements {
		if b.logger != nil {
			b.logger.Debug("duckdb: %s", stmt)
		}
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			if ctx.Err() != nil {
				return errors.Newf(errors.ErrCodeOperationCanceled, "duckdb conversion canceled: %v", ctx.Err()).
					WithComponent("duckdb").WithCause(ctx.Err())
			}
			return errors.Newf(errors.ErrCodeConversionFailed, "duckdb statement failed").
				WithComponent("duckdb").WithContext("statement", stmt).WithCause(err)
		}
	}

	return nil
}

// ingestSQL loads every source file into one staging table. read_csv handles
// the fixed schema; the geometry column stays textual WKT at this stage.
func ingestSQL(files []string) string {
	quoted := make([]string, len(files))
	for i, f := range files {
		quoted[i] = sqlQuote(f)
	}
	return fmt.Sprintf(
		"CREATE TABLE buildings AS SELECT * FROM read_csv([%s], header=true, auto_detect=true);",
		strings.Join(quoted, ", "))
}

// stageSQL materializes the parsed geometry, expanding multiparts into one
// row per part when splitting is requested. ST_Dump yields a (geom, path)
// struct per part; path is dropped again at copy time.
func stageSQL(split bool) string {
	if split {
		return "CREATE TABLE staged AS " +
			"SELECT * EXCLUDE (geometry), UNNEST(ST_Dump(ST_GeomFromText(geometry)), recursive := true) " +
			"FROM buildings;"
	}
	return "CREATE TABLE staged AS " +
		"SELECT * EXCLUDE (geometry), ST_GeomFromText(geometry) AS geom " +
		"FROM buildings;"
}

// copySQL writes the staged table to the destination. GDAL handles every
// format except Parquet, which DuckDB writes natively with WKB geometry.
func copySQL(format types.Format, split bool, outPath string) string {
	exclude := "geom"
	if split {
		exclude = "geom, path"
	}

	if format == types.FormatGeoParquet {
		return fmt.Sprintf(
			"COPY (SELECT * EXCLUDE (%s), ST_AsWKB(geom) AS geometry FROM staged) TO %s (FORMAT PARQUET);",
			exclude, sqlQuote(outPath))
	}

	selectCols := "*"
	if split {
		selectCols = "* EXCLUDE (path)"
	}
	return fmt.Sprintf(
		"COPY (SELECT %s FROM staged) TO %s WITH (FORMAT GDAL, DRIVER %s, SRS 'EPSG:4326');",
		selectCols, sqlQuote(outPath), sqlQuote(gdalDriver(format)))
}

// gdalDriver maps a format to its GDAL driver name.
func gdalDriver(format types.Format) string {
	switch format {
	case types.FormatFlatGeobuf:
		return "FlatGeobuf"
	case types.FormatGeoPackage:
		return "GPKG"
	case types.FormatShapefile:
		return "ESRI Shapefile"
	case types.FormatGeoParquet:
		return "Parquet"
	default:
		return string(format)
	}
}

func sqlQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
