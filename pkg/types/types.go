package types

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Format identifies one of the supported output formats.
type Format string

const (
	// FormatGeoParquet is columnar GeoParquet output. DuckDB writes plain
	// Parquet with WKB geometry, so a gpq metadata pass is required to make
	// it valid GeoParquet unless the backend embeds the metadata itself.
	FormatGeoParquet Format = "parquet"

	// FormatFlatGeobuf is FlatGeobuf output.
	FormatFlatGeobuf Format = "fgb"

	// FormatGeoPackage is GeoPackage (SQLite container) output.
	FormatGeoPackage Format = "gpkg"

	// FormatShapefile is ESRI Shapefile output. The format carries a hard
	// 4 GiB limit per payload file; oversized output must fail, not truncate.
	FormatShapefile Format = "shp"
)

// AllFormats lists every supported format in canonical order.
func AllFormats() []Format {
	return []Format{FormatFlatGeobuf, FormatGeoParquet, FormatGeoPackage, FormatShapefile}
}

// Ext returns the file extension for the format, including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// String returns the CLI name of the format.
func (f Format) String() string {
	return string(f)
}

// ParseFormat parses a CLI format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatGeoParquet:
		return FormatGeoParquet, nil
	case FormatFlatGeobuf:
		return FormatFlatGeobuf, nil
	case FormatGeoPackage:
		return FormatGeoPackage, nil
	case FormatShapefile:
		return FormatShapefile, nil
	default:
		return "", fmt.Errorf("unknown format %q (must be one of fgb, parquet, gpkg, shp)", s)
	}
}

// ParseFormats parses a comma-separated list of format names, preserving order
// and dropping duplicates.
func ParseFormats(s string) ([]Format, error) {
	var formats []Format
	seen := make(map[Format]bool)
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, err := ParseFormat(part)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// Process identifies one of the interchangeable processing backends.
type Process string

const (
	// ProcessDuckDB is the embedded DuckDB engine with the spatial
	// extension. Streaming semantics, bounded memory.
	ProcessDuckDB Process = "duckdb"

	// ProcessPandas is the in-memory dataframe engine. The name is kept
	// for CLI compatibility; it loads the full dataset into memory, so
	// large inputs may exhaust memory. That is a documented limitation.
	ProcessPandas Process = "pandas"

	// ProcessOGR shells out to ogr2ogr for each conversion.
	ProcessOGR Process = "ogr"
)

// AllProcesses lists every supported backend in canonical order.
func AllProcesses() []Process {
	return []Process{ProcessDuckDB, ProcessPandas, ProcessOGR}
}

// String returns the CLI name of the process.
func (p Process) String() string {
	return string(p)
}

// ParseProcess parses a CLI process name.
func ParseProcess(s string) (Process, error) {
	switch Process(strings.ToLower(strings.TrimSpace(s))) {
	case ProcessDuckDB:
		return ProcessDuckDB, nil
	case ProcessPandas:
		return ProcessPandas, nil
	case ProcessOGR:
		return ProcessOGR, nil
	default:
		return "", fmt.Errorf("unknown process %q (must be one of duckdb, pandas, ogr)", s)
	}
}

// ParseProcesses parses a comma-separated list of process names, preserving
// order and dropping duplicates.
func ParseProcesses(s string) ([]Process, error) {
	var processes []Process
	seen := make(map[Process]bool)
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		p, err := ParseProcess(part)
		if err != nil {
			return nil, err
		}
		if !seen[p] {
			seen[p] = true
			processes = append(processes, p)
		}
	}
	return processes, nil
}

// Dataset is an ordered sequence of source files sharing one logical schema.
// Files are sorted lexically so resolution order is deterministic.
type Dataset struct {
	// Source is the path argument the dataset was resolved from, either a
	// single file or a directory.
	Source string `json:"source"`

	// Files holds the resolved source files in lexical order.
	Files []string `json:"files"`
}

// Name returns the dataset's base name without extension, used to derive
// output file names.
func (d Dataset) Name() string {
	base := filepath.Base(d.Source)
	if ext := filepath.Ext(base); ext != "" && len(ext) < len(base) {
		base = base[:len(base)-len(ext)]
	}
	return base
}

// Capabilities describes what a backend can do. Capabilities are static,
// declared up front by each backend so the orchestrator can short-circuit
// unsupported combinations before dispatch.
type Capabilities struct {
	// Formats lists the output formats the backend can write.
	Formats []Format `json:"formats"`

	// SplitMultipart reports whether the backend can expand multipart
	// geometries into single-part records natively.
	SplitMultipart bool `json:"split_multipart"`

	// NativeGeoMetadata reports whether the backend's Parquet output
	// already carries valid GeoParquet metadata. When false, the
	// orchestrator runs the gpq metadata-normalization pass.
	NativeGeoMetadata bool `json:"native_geo_metadata"`
}

// SupportsFormat reports whether the backend can write the given format.
func (c Capabilities) SupportsFormat(f Format) bool {
	for _, have := range c.Formats {
		if have == f {
			return true
		}
	}
	return false
}

// ConversionRequest describes one conversion invocation. Requests are
// immutable once constructed.
type ConversionRequest struct {
	Dataset   Dataset `json:"dataset"`
	OutputDir string  `json:"output_dir"`
	Format    Format  `json:"format"`
	Process   Process `json:"process"`

	// SplitMultipart requests expansion of multipart geometries into one
	// record per part, attributes inherited unchanged.
	SplitMultipart bool `json:"split_multipart"`

	// Overwrite allows replacing an existing destination file.
	Overwrite bool `json:"overwrite"`

	// MetadataPass enables the gpq metadata-normalization pass for
	// GeoParquet output from backends without native geo metadata.
	// Defaults to true at request construction; there is no hidden global
	// toggle.
	MetadataPass bool `json:"metadata_pass"`
}

// OutputPath returns the deterministic destination path for the request:
// <output dir>/<dataset name><format ext>.
func (r *ConversionRequest) OutputPath() string {
	return filepath.Join(r.OutputDir, r.Dataset.Name()+r.Format.Ext())
}

// ConversionResult records the outcome of one conversion invocation. Results
// are created once and never mutated.
type ConversionResult struct {
	Request *ConversionRequest `json:"request"`

	// Outputs lists the files produced, empty on failure.
	Outputs []string `json:"outputs,omitempty"`

	// Duration is wall-clock time measured strictly around the conversion
	// call, including the metadata-normalization pass when it ran and
	// excluding input resolution.
	Duration time.Duration `json:"duration"`

	// MetadataPassRan records whether the gpq pass executed, since skipping
	// it changes both the measured duration and the output's metadata.
	MetadataPassRan bool `json:"metadata_pass_ran"`

	Success bool `json:"success"`

	// ErrorCode is the structured code of the failure, empty on success.
	ErrorCode string `json:"error_code,omitempty"`

	// Error is the captured failure detail, empty on success.
	Error string `json:"error,omitempty"`
}

// CellKey identifies one (process, format) cell of a benchmark matrix.
type CellKey struct {
	Process Process `json:"process"`
	Format  Format  `json:"format"`
}

// String returns "process/format", used in logs and error context.
func (k CellKey) String() string {
	return string(k.Process) + "/" + string(k.Format)
}

// BenchmarkMatrix maps (process, format) cells to conversion results. Cells
// are kept in insertion order so reports are deterministic regardless of
// execution order. A failed cell is present with a failed result, never
// omitted.
type BenchmarkMatrix struct {
	order []CellKey
	cells map[CellKey]*ConversionResult
}

// NewBenchmarkMatrix returns an empty matrix.
func NewBenchmarkMatrix() *BenchmarkMatrix {
	return &BenchmarkMatrix{cells: make(map[CellKey]*ConversionResult)}
}

// Put stores the result for a cell. The first Put of a key fixes its position
// in iteration order.
func (m *BenchmarkMatrix) Put(key CellKey, result *ConversionResult) {
	if _, ok := m.cells[key]; !ok {
		m.order = append(m.order, key)
	}
	m.cells[key] = result
}

// Get returns the result for a cell, or nil if the cell was never run.
func (m *BenchmarkMatrix) Get(key CellKey) *ConversionResult {
	return m.cells[key]
}

// Keys returns the cell keys in insertion order.
func (m *BenchmarkMatrix) Keys() []CellKey {
	keys := make([]CellKey, len(m.order))
	copy(keys, m.order)
	return keys
}

// Len returns the number of cells.
func (m *BenchmarkMatrix) Len() int {
	return len(m.order)
}

// Processes returns the distinct processes in first-seen order.
func (m *BenchmarkMatrix) Processes() []Process {
	var out []Process
	seen := make(map[Process]bool)
	for _, k := range m.order {
		if !seen[k.Process] {
			seen[k.Process] = true
			out = append(out, k.Process)
		}
	}
	return out
}

// Formats returns the distinct formats in first-seen order.
func (m *BenchmarkMatrix) Formats() []Format {
	var out []Format
	seen := make(map[Format]bool)
	for _, k := range m.order {
		if !seen[k.Format] {
			seen[k.Format] = true
			out = append(out, k.Format)
		}
	}
	return out
}
