// Package metrics exposes conversion telemetry through Prometheus.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Config represents metrics configuration.
type Config struct {
	Enabled   bool   `yaml:"enabled"`
	Port      int    `yaml:"port"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// Collector records per-conversion metrics and optionally serves a
// Prometheus scrape endpoint. A disabled collector is a safe no-op, so
// callers never branch on whether metrics are on.
type Collector struct {
	config   *Config
	registry *prometheus.Registry

	conversionCounter  *prometheus.CounterVec
	conversionDuration *prometheus.HistogramVec
	toolCounter        *prometheus.CounterVec

	server *http.Server
}

// NewCollector creates a metrics collector from config. A nil config yields
// a disabled collector.
func NewCollector(config *Config) (*Collector, error) {
	if config == nil {
		config = &Config{}
	}
	c := &Collector{config: config}
	if !config.Enabled {
		return c, nil
	}

	ns := config.Namespace
	if ns == "" {
		ns = "geobench"
	}

	c.registry = prometheus.NewRegistry()
	c.conversionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "conversions_total",
		Help:      "Conversions by process, format and status.",
	}, []string{"process", "format", "status"})
	c.conversionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns,
		Name:      "conversion_duration_seconds",
		Help:      "Conversion wall-clock duration by process and format.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 14),
	}, []string{"process", "format"})
	c.toolCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "external_tool_invocations_total",
		Help:      "External tool invocations by tool and status.",
	}, []string{"tool", "status"})

	for _, col := range []prometheus.Collector{
		c.conversionCounter, c.conversionDuration, c.toolCounter,
	} {
		if err := c.registry.Register(col); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return c, nil
}

// RecordConversion records one conversion outcome.
func (c *Collector) RecordConversion(process, format string, duration time.Duration, success bool) {
	if !c.config.Enabled {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	c.conversionCounter.WithLabelValues(process, format, status).Inc()
	if success {
		c.conversionDuration.WithLabelValues(process, format).Observe(duration.Seconds())
	}
}

// RecordToolInvocation records one external tool run.
func (c *Collector) RecordToolInvocation(tool string, success bool) {
	if !c.config.Enabled {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	c.toolCounter.WithLabelValues(tool, status).Inc()
}

// Start serves the scrape endpoint. No-op when disabled or Port is zero.
func (c *Collector) Start(ctx context.Context) error {
	if !c.config.Enabled || c.config.Port == 0 {
		return nil
	}
	path := c.config.Path
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	c.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", c.config.Port),
		Handler: mux,
	}

	go func() {
		// Metrics exposition is best-effort; conversion work continues.
		_ = c.server.ListenAndServe()
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.server.Shutdown(shutdownCtx)
	}()
	return nil
}

// Stop shuts the scrape endpoint down.
func (c *Collector) Stop() error {
	if c.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.server.Shutdown(ctx)
}
