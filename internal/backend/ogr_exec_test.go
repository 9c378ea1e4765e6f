//go:build unix

package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geobench/geobench/pkg/types"
)

type recordedCall struct {
	tool    string
	success bool
}

// captureRecorder collects tool outcomes for assertions.
type captureRecorder struct {
	calls []recordedCall
}

func (r *captureRecorder) RecordToolInvocation(tool string, success bool) {
	r.calls = append(r.calls, recordedCall{tool: tool, success: success})
}

func stubOGR2OGR(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ogr2ogr")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755))
	return path
}

func TestOGRConvertRecordsInvocationPerFile(t *testing.T) {
	rec := &captureRecorder{}
	b := newOGRBackend(Options{
		OGR2OGRPath: stubOGR2OGR(t, "exit 0"),
		Recorder:    rec,
	})

	req := &types.ConversionRequest{
		Dataset: types.Dataset{
			Source: "data",
			Files:  []string{"data/a.csv", "data/b.csv"},
		},
		Format: types.FormatGeoPackage,
	}
	outPath := filepath.Join(t.TempDir(), "data.gpkg")
	require.NoError(t, b.Convert(context.Background(), req, outPath))

	assert.Equal(t, []recordedCall{
		{tool: "ogr2ogr", success: true},
		{tool: "ogr2ogr", success: true},
	}, rec.calls)
}

func TestOGRConvertRecordsFailure(t *testing.T) {
	rec := &captureRecorder{}
	b := newOGRBackend(Options{
		OGR2OGRPath: stubOGR2OGR(t, "exit 1"),
		Recorder:    rec,
	})

	req := &types.ConversionRequest{
		Dataset: types.Dataset{Source: "data", Files: []string{"data/a.csv", "data/b.csv"}},
		Format:  types.FormatGeoPackage,
	}
	err := b.Convert(context.Background(), req, filepath.Join(t.TempDir(), "data.gpkg"))
	require.Error(t, err)

	// The first failing file stops the conversion; exactly one invocation
	// is recorded.
	assert.Equal(t, []recordedCall{{tool: "ogr2ogr", success: false}}, rec.calls)
}
