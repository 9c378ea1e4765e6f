package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/geobench/geobench/pkg/types"
)

// ShapefileMaxBytes is the hard payload limit of the Shapefile format.
// Output exceeding it must fail cleanly, never truncate.
const ShapefileMaxBytes = int64(4) << 30

// Configuration represents the complete application configuration
type Configuration struct {
	Global    GlobalConfig    `yaml:"global"`
	Convert   ConvertConfig   `yaml:"convert"`
	Benchmark BenchmarkConfig `yaml:"benchmark"`
	Tools     ToolsConfig     `yaml:"tools"`
	Download  DownloadConfig  `yaml:"download"`
}

// GlobalConfig represents global application settings
type GlobalConfig struct {
	LogLevel    string `yaml:"log_level"`
	MetricsPort int    `yaml:"metrics_port"`
}

// ConvertConfig represents defaults for single conversions
type ConvertConfig struct {
	DefaultFormat  string `yaml:"default_format"`
	DefaultProcess string `yaml:"default_process"`

	// MetadataPass controls whether the gpq metadata-normalization pass
	// runs after Parquet conversions from backends without native
	// GeoParquet metadata.
	MetadataPass bool `yaml:"metadata_pass"`

	// ShapefileMaxBytes caps Shapefile output size. Defaults to 4 GiB.
	ShapefileMaxBytes int64 `yaml:"shapefile_max_bytes"`
}

// BenchmarkConfig represents defaults for benchmark runs
type BenchmarkConfig struct {
	Processes    string `yaml:"processes"`
	Formats      string `yaml:"formats"`
	Concurrency  int    `yaml:"concurrency"`
	ReportFormat string `yaml:"report_format"`
}

// ToolsConfig represents external tool settings
type ToolsConfig struct {
	OGR2OGRPath string        `yaml:"ogr2ogr_path"`
	GPQPath     string        `yaml:"gpq_path"`
	Timeout     time.Duration `yaml:"timeout"`
}

// DownloadConfig represents settings for fetching public datasets
type DownloadConfig struct {
	Bucket  string `yaml:"bucket"`
	Region  string `yaml:"region"`
	Release string `yaml:"release"`
	Theme   string `yaml:"theme"`
}

// NewDefault returns a configuration with sensible defaults
func NewDefault() *Configuration {
	return &Configuration{
		Global: GlobalConfig{
			LogLevel:    "INFO",
			MetricsPort: 0, // metrics endpoint disabled unless configured
		},
		Convert: ConvertConfig{
			// The default pair must be supported by the default engine's
			// capabilities; the in-memory engine cannot write fgb, so the
			// DuckDB engine is the default.
			DefaultFormat:     string(types.FormatFlatGeobuf),
			DefaultProcess:    string(types.ProcessDuckDB),
			MetadataPass:      true,
			ShapefileMaxBytes: ShapefileMaxBytes,
		},
		Benchmark: BenchmarkConfig{
			Processes:    "duckdb,pandas,ogr",
			Formats:      "fgb,parquet,shp,gpkg",
			Concurrency:  1,
			ReportFormat: "ascii",
		},
		Tools: ToolsConfig{
			OGR2OGRPath: "ogr2ogr",
			GPQPath:     "gpq",
			Timeout:     30 * time.Minute,
		},
		Download: DownloadConfig{
			Bucket:  "overturemaps-us-west-2",
			Region:  "us-west-2",
			Release: "2023-07-26-alpha.0",
			Theme:   "buildings",
		},
	}
}

// LoadFromFile loads configuration from a YAML file
func (c *Configuration) LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// LoadFromEnv loads configuration from environment variables
func (c *Configuration) LoadFromEnv() error {
	if val := os.Getenv("GEOBENCH_LOG_LEVEL"); val != "" {
		c.Global.LogLevel = val
	}
	if val := os.Getenv("GEOBENCH_METRICS_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.Global.MetricsPort = port
		}
	}

	if val := os.Getenv("GEOBENCH_DEFAULT_FORMAT"); val != "" {
		c.Convert.DefaultFormat = val
	}
	if val := os.Getenv("GEOBENCH_DEFAULT_PROCESS"); val != "" {
		c.Convert.DefaultProcess = val
	}
	if val := os.Getenv("GEOBENCH_METADATA_PASS"); val != "" {
		c.Convert.MetadataPass = strings.ToLower(val) == "true"
	}

	if val := os.Getenv("GEOBENCH_OGR2OGR_PATH"); val != "" {
		c.Tools.OGR2OGRPath = val
	}
	if val := os.Getenv("GEOBENCH_GPQ_PATH"); val != "" {
		c.Tools.GPQPath = val
	}
	if val := os.Getenv("GEOBENCH_TOOL_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			c.Tools.Timeout = d
		}
	}

	if val := os.Getenv("GEOBENCH_DOWNLOAD_BUCKET"); val != "" {
		c.Download.Bucket = val
	}
	if val := os.Getenv("GEOBENCH_DOWNLOAD_RELEASE"); val != "" {
		c.Download.Release = val
	}

	return nil
}

// Validate validates the configuration
func (c *Configuration) Validate() error {
	validLogLevels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	logLevelValid := false
	for _, level := range validLogLevels {
		if strings.ToUpper(c.Global.LogLevel) == level {
			logLevelValid = true
			break
		}
	}
	if !logLevelValid {
		return fmt.Errorf("invalid log_level: %s (must be one of: %s)",
			c.Global.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if _, err := types.ParseFormat(c.Convert.DefaultFormat); err != nil {
		return fmt.Errorf("invalid default_format: %w", err)
	}
	if _, err := types.ParseProcess(c.Convert.DefaultProcess); err != nil {
		return fmt.Errorf("invalid default_process: %w", err)
	}
	if c.Convert.ShapefileMaxBytes <= 0 {
		return fmt.Errorf("shapefile_max_bytes must be greater than 0")
	}

	if _, err := types.ParseProcesses(c.Benchmark.Processes); err != nil {
		return fmt.Errorf("invalid benchmark processes: %w", err)
	}
	if _, err := types.ParseFormats(c.Benchmark.Formats); err != nil {
		return fmt.Errorf("invalid benchmark formats: %w", err)
	}
	if c.Benchmark.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1")
	}

	if c.Tools.OGR2OGRPath == "" {
		return fmt.Errorf("ogr2ogr_path must not be empty")
	}
	if c.Tools.GPQPath == "" {
		return fmt.Errorf("gpq_path must not be empty")
	}
	if c.Tools.Timeout <= 0 {
		return fmt.Errorf("tool timeout must be greater than 0")
	}

	return nil
}
