package types

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"fgb", "parquet", "gpkg", "shp", " SHP ", "Parquet"} {
		f, err := ParseFormat(s)
		require.NoError(t, err, "ParseFormat(%q)", s)
		assert.NotEmpty(t, f)
	}

	_, err := ParseFormat("geojson")
	assert.Error(t, err)
}

func TestParseFormatsPreservesOrderAndDedupes(t *testing.T) {
	t.Parallel()

	formats, err := ParseFormats("shp,fgb,shp,parquet")
	require.NoError(t, err)
	assert.Equal(t, []Format{FormatShapefile, FormatFlatGeobuf, FormatGeoParquet}, formats)
}

func TestParseProcesses(t *testing.T) {
	t.Parallel()

	processes, err := ParseProcesses("duckdb,pandas,ogr")
	require.NoError(t, err)
	assert.Equal(t, []Process{ProcessDuckDB, ProcessPandas, ProcessOGR}, processes)

	_, err = ParseProcesses("duckdb,spark")
	assert.Error(t, err)
}

func TestDatasetName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "buildings", Dataset{Source: "/data/buildings.csv"}.Name())
	assert.Equal(t, "ghana", Dataset{Source: "/data/ghana"}.Name())
	assert.Equal(t, ".hidden", Dataset{Source: ".hidden"}.Name())
}

func TestCapabilitiesSupportsFormat(t *testing.T) {
	t.Parallel()

	caps := Capabilities{Formats: []Format{FormatGeoParquet, FormatGeoPackage}}
	assert.True(t, caps.SupportsFormat(FormatGeoParquet))
	assert.False(t, caps.SupportsFormat(FormatFlatGeobuf))
}

func TestConversionRequestOutputPath(t *testing.T) {
	t.Parallel()

	req := &ConversionRequest{
		Dataset:   Dataset{Source: "/data/accra.csv"},
		OutputDir: "/out",
		Format:    FormatFlatGeobuf,
	}
	assert.Equal(t, filepath.Join("/out", "accra.fgb"), req.OutputPath())
}

func TestBenchmarkMatrixOrder(t *testing.T) {
	t.Parallel()

	m := NewBenchmarkMatrix()
	keys := []CellKey{
		{ProcessDuckDB, FormatFlatGeobuf},
		{ProcessDuckDB, FormatGeoParquet},
		{ProcessPandas, FormatFlatGeobuf},
	}
	for _, k := range keys {
		m.Put(k, &ConversionResult{Success: true})
	}

	assert.Equal(t, keys, m.Keys())
	assert.Equal(t, []Process{ProcessDuckDB, ProcessPandas}, m.Processes())
	assert.Equal(t, []Format{FormatFlatGeobuf, FormatGeoParquet}, m.Formats())
	assert.Equal(t, 3, m.Len())

	// Re-putting a key must not change its position.
	m.Put(keys[0], &ConversionResult{Success: false})
	assert.Equal(t, keys, m.Keys())
	assert.False(t, m.Get(keys[0]).Success)

	assert.Nil(t, m.Get(CellKey{ProcessOGR, FormatShapefile}))
}
