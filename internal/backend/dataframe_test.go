package backend

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	shp "github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geobench/geobench/pkg/errors"
	"github.com/geobench/geobench/pkg/types"
)

// squareWKT returns a unit-square polygon at the given offset.
func squareWKT(off int) string {
	o := float64(off)
	return fmt.Sprintf("POLYGON ((%[1]v %[1]v,%[2]v %[1]v,%[2]v %[2]v,%[1]v %[2]v,%[1]v %[1]v))", o, o+1)
}

// threePartWKT returns a multipolygon with three unit-square parts.
func threePartWKT(off int) string {
	mk := func(o float64) string {
		return fmt.Sprintf("((%[1]v %[1]v,%[2]v %[1]v,%[2]v %[2]v,%[1]v %[2]v,%[1]v %[1]v))", o, o+1)
	}
	o := float64(off)
	return fmt.Sprintf("MULTIPOLYGON (%s,%s,%s)", mk(o), mk(o+2), mk(o+4))
}

// writeFixture writes a dataset of ten records, two of which are three-part
// multipolygons. Split output therefore has fourteen records.
func writeFixture(t *testing.T, dir string) types.Dataset {
	t.Helper()
	path := filepath.Join(dir, "buildings.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := csv.NewWriter(f)
	require.NoError(t, w.Write([]string{"id", "confidence", "geometry"}))
	for i := 0; i < 10; i++ {
		wkt := squareWKT(i * 10)
		if i == 3 || i == 7 {
			wkt = threePartWKT(i * 10)
		}
		require.NoError(t, w.Write([]string{
			fmt.Sprintf("bldg-%03d", i), "0.95", wkt,
		}))
	}
	w.Flush()
	require.NoError(t, w.Error())

	return types.Dataset{Source: path, Files: []string{path}}
}

func TestMemoryLoadTable(t *testing.T) {
	ds := writeFixture(t, t.TempDir())
	b := newMemoryBackend(Options{})

	table, err := b.loadTable(context.Background(), ds.Files)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "confidence"}, table.Columns)
	assert.Equal(t, 10, table.Len())
	assert.Equal(t, "bldg-000", table.Rows[0][0])
}

func TestMemorySplitExpandsMultiparts(t *testing.T) {
	ds := writeFixture(t, t.TempDir())
	b := newMemoryBackend(Options{})

	table, err := b.loadTable(context.Background(), ds.Files)
	require.NoError(t, err)

	split := splitTable(table)
	assert.Equal(t, 14, split.Len())
	// Parts keep their source record's attributes and stay adjacent.
	assert.Equal(t, "bldg-003", split.Rows[3][0])
	assert.Equal(t, "bldg-003", split.Rows[4][0])
	assert.Equal(t, "bldg-003", split.Rows[5][0])
	assert.Equal(t, "bldg-004", split.Rows[6][0])
}

func TestMemoryConvertShapefile(t *testing.T) {
	dir := t.TempDir()
	ds := writeFixture(t, dir)
	b := newMemoryBackend(Options{})

	outPath := filepath.Join(dir, "buildings.shp")
	req := &types.ConversionRequest{
		Dataset:        ds,
		Format:         types.FormatShapefile,
		SplitMultipart: true,
	}
	require.NoError(t, b.Convert(context.Background(), req, outPath))

	r, err := shp.Open(outPath)
	require.NoError(t, err)
	defer r.Close()

	count := 0
	for r.Next() {
		count++
	}
	assert.Equal(t, 14, count)
}

func TestMemoryConvertRejectsUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	ds := writeFixture(t, dir)
	b := newMemoryBackend(Options{})

	req := &types.ConversionRequest{Dataset: ds, Format: types.FormatFlatGeobuf}
	err := b.Convert(context.Background(), req, filepath.Join(dir, "buildings.fgb"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnsupportedCapability, errors.CodeOf(err))
}

func TestMemoryConvertCanceledContext(t *testing.T) {
	dir := t.TempDir()
	ds := writeFixture(t, dir)
	b := newMemoryBackend(Options{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req := &types.ConversionRequest{Dataset: ds, Format: types.FormatShapefile}
	err := b.Convert(ctx, req, filepath.Join(dir, "buildings.shp"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeOperationCanceled, errors.CodeOf(err))
}

func TestMemoryCapabilities(t *testing.T) {
	caps := newMemoryBackend(Options{}).Capabilities()
	assert.True(t, caps.SplitMultipart)
	assert.True(t, caps.NativeGeoMetadata)
	assert.False(t, caps.SupportsFormat(types.FormatFlatGeobuf))
	assert.True(t, caps.SupportsFormat(types.FormatGeoParquet))
}
