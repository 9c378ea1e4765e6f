package writer

import (
	"encoding/json"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/geobench/geobench/internal/geometry"
	"github.com/geobench/geobench/pkg/errors"
)

// geoParquetVersion is the GeoParquet metadata version the writer emits.
const geoParquetVersion = "1.0.0"

// parquetBatchRows bounds how many rows go into one record batch.
const parquetBatchRows = 65536

// geoMetadata builds the "geo" file-metadata entry that makes the output
// valid GeoParquet without any trailing normalization pass.
func geoMetadata() (string, error) {
	meta := map[string]interface{}{
		"version":        geoParquetVersion,
		"primary_column": "geometry",
		"columns": map[string]interface{}{
			"geometry": map[string]interface{}{
				"encoding":       "WKB",
				"geometry_types": []string{"Polygon", "MultiPolygon"},
				"crs":            nil,
			},
		},
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteParquet writes the table as GeoParquet: attribute columns as UTF-8,
// geometry as a WKB binary column, geo metadata embedded in the schema.
func WriteParquet(path string, table *Table) error {
	geo, err := geoMetadata()
	if err != nil {
		return errors.New(errors.ErrCodeConversionFailed, "cannot build geo metadata").
			WithComponent("writer").WithCause(err)
	}

	fields := make([]arrow.Field, 0, len(table.Columns)+1)
	for _, col := range table.Columns {
		fields = append(fields, arrow.Field{Name: col, Type: arrow.BinaryTypes.String})
	}
	fields = append(fields, arrow.Field{Name: "geometry", Type: arrow.BinaryTypes.Binary})

	md := arrow.NewMetadata([]string{"geo"}, []string{geo})
	schema := arrow.NewSchema(fields, &md)

	f, err := os.Create(path)
	if err != nil {
		return errors.Newf(errors.ErrCodeConversionFailed, "cannot create %s", path).
			WithComponent("writer").WithCause(err)
	}
	defer f.Close()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	fw, err := pqarrow.NewFileWriter(schema, f, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return errors.New(errors.ErrCodeConversionFailed, "cannot open parquet writer").
			WithComponent("writer").WithCause(err)
	}

	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()

	flush := func() error {
		rec := builder.NewRecord()
		defer rec.Release()
		return fw.Write(rec)
	}

	geomIdx := len(table.Columns)
	for i, row := range table.Rows {
		for c := range table.Columns {
			builder.Field(c).(*array.StringBuilder).Append(row[c])
		}
		wkbBytes, err := geometry.EncodeWKB(table.Geoms[i])
		if err != nil {
			fw.Close()
			return err
		}
		builder.Field(geomIdx).(*array.BinaryBuilder).Append(wkbBytes)

		if (i+1)%parquetBatchRows == 0 {
			if err := flush(); err != nil {
				fw.Close()
				return errors.New(errors.ErrCodeConversionFailed, "parquet write failed").
					WithComponent("writer").WithCause(err)
			}
		}
	}
	if len(table.Rows)%parquetBatchRows != 0 || len(table.Rows) == 0 {
		if err := flush(); err != nil {
			fw.Close()
			return errors.New(errors.ErrCodeConversionFailed, "parquet write failed").
				WithComponent("writer").WithCause(err)
		}
	}

	if err := fw.Close(); err != nil {
		return errors.New(errors.ErrCodeConversionFailed, "cannot finalize parquet file").
			WithComponent("writer").WithCause(err)
	}
	return nil
}
