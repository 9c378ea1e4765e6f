package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollectorDisabled(t *testing.T) {
	c, err := NewCollector(nil)
	require.NoError(t, err)
	require.NotNil(t, c)

	// Recording against a disabled collector must be a safe no-op.
	c.RecordConversion("duckdb", "parquet", time.Second, true)
	c.RecordToolInvocation("ogr2ogr", false)
	assert.NoError(t, c.Start(context.Background()))
	assert.NoError(t, c.Stop())
}

func TestRecordConversion(t *testing.T) {
	c, err := NewCollector(&Config{Enabled: true})
	require.NoError(t, err)

	c.RecordConversion("duckdb", "parquet", 2*time.Second, true)
	c.RecordConversion("duckdb", "parquet", time.Second, true)
	c.RecordConversion("ogr", "shp", 0, false)

	assert.Equal(t, float64(2),
		testutil.ToFloat64(c.conversionCounter.WithLabelValues("duckdb", "parquet", "success")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(c.conversionCounter.WithLabelValues("ogr", "shp", "failure")))
	// Failures never contribute to the duration histogram.
	assert.Equal(t, 2, testutil.CollectAndCount(c.conversionDuration))
}

func TestRecordToolInvocation(t *testing.T) {
	c, err := NewCollector(&Config{Enabled: true})
	require.NoError(t, err)

	c.RecordToolInvocation("gpq", true)
	c.RecordToolInvocation("gpq", true)

	assert.Equal(t, float64(2),
		testutil.ToFloat64(c.toolCounter.WithLabelValues("gpq", "success")))
}
