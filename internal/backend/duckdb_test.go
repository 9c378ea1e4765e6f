package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/geobench/geobench/pkg/types"
)

func TestIngestSQL(t *testing.T) {
	sql := ingestSQL([]string{"/data/a.csv", "/data/b.csv"})
	assert.Equal(t,
		"CREATE TABLE buildings AS SELECT * FROM read_csv(['/data/a.csv', '/data/b.csv'], header=true, auto_detect=true);",
		sql)
}

func TestIngestSQLQuotesPaths(t *testing.T) {
	sql := ingestSQL([]string{"/data/o'brien.csv"})
	assert.Contains(t, sql, "'/data/o''brien.csv'")
}

func TestStageSQL(t *testing.T) {
	t.Run("no split", func(t *testing.T) {
		sql := stageSQL(false)
		assert.Contains(t, sql, "ST_GeomFromText(geometry) AS geom")
		assert.NotContains(t, sql, "ST_Dump")
	})

	t.Run("split", func(t *testing.T) {
		sql := stageSQL(true)
		assert.Contains(t, sql, "UNNEST(ST_Dump(ST_GeomFromText(geometry)), recursive := true)")
	})
}

func TestCopySQL(t *testing.T) {
	t.Run("parquet writes natively with WKB", func(t *testing.T) {
		sql := copySQL(types.FormatGeoParquet, false, "/out/x.parquet")
		assert.Contains(t, sql, "ST_AsWKB(geom) AS geometry")
		assert.Contains(t, sql, "(FORMAT PARQUET)")
		assert.NotContains(t, sql, "FORMAT GDAL")
	})

	t.Run("parquet split drops the dump path column", func(t *testing.T) {
		sql := copySQL(types.FormatGeoParquet, true, "/out/x.parquet")
		assert.Contains(t, sql, "EXCLUDE (geom, path)")
	})

	t.Run("gdal formats", func(t *testing.T) {
		cases := map[types.Format]string{
			types.FormatFlatGeobuf: "'FlatGeobuf'",
			types.FormatGeoPackage: "'GPKG'",
			types.FormatShapefile:  "'ESRI Shapefile'",
		}
		for format, driver := range cases {
			sql := copySQL(format, false, "/out/x")
			assert.Contains(t, sql, "FORMAT GDAL")
			assert.Contains(t, sql, driver)
			assert.Contains(t, sql, "SRS 'EPSG:4326'")
		}
	})

	t.Run("gdal split drops the dump path column", func(t *testing.T) {
		sql := copySQL(types.FormatFlatGeobuf, true, "/out/x.fgb")
		assert.Contains(t, sql, "EXCLUDE (path)")
	})
}

func TestDuckDBCapabilities(t *testing.T) {
	caps := newDuckDBBackend(Options{}).Capabilities()
	assert.True(t, caps.SplitMultipart)
	assert.False(t, caps.NativeGeoMetadata)
	for _, f := range types.AllFormats() {
		assert.True(t, caps.SupportsFormat(f), "format %s", f)
	}
}
