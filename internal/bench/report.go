package bench

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/geobench/geobench/pkg/errors"
	"github.com/geobench/geobench/pkg/types"
)

// ReportFormat selects how a benchmark matrix is rendered.
type ReportFormat string

const (
	ReportASCII ReportFormat = "ascii"
	ReportCSV   ReportFormat = "csv"
	ReportJSON  ReportFormat = "json"
)

// ParseReportFormat validates a report format name.
func ParseReportFormat(s string) (ReportFormat, error) {
	switch ReportFormat(s) {
	case ReportASCII, ReportCSV, ReportJSON:
		return ReportFormat(s), nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidInput, "unknown report format %q", s).
			WithComponent("bench")
	}
}

// WriteReport renders the matrix to w in the chosen format.
func WriteReport(w io.Writer, matrix *types.BenchmarkMatrix, format ReportFormat) error {
	switch format {
	case ReportASCII:
		return writeASCII(w, matrix)
	case ReportCSV:
		return writeCSV(w, matrix)
	case ReportJSON:
		return writeJSON(w, matrix)
	default:
		return errors.Newf(errors.ErrCodeInvalidInput, "unknown report format %q", format).
			WithComponent("bench")
	}
}

// cellText renders one cell: the duration for successes, the error code for
// failures, a dash for cells that never ran.
func cellText(result *types.ConversionResult) string {
	if result == nil {
		return "-"
	}
	if !result.Success {
		if result.ErrorCode != "" {
			return result.ErrorCode
		}
		return "FAILED"
	}
	return formatDuration(result.Duration)
}

// formatDuration renders a duration as MM:SS.mmm.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Millisecond)
	minutes := int(d / time.Minute)
	d -= time.Duration(minutes) * time.Minute
	seconds := int(d / time.Second)
	millis := int((d - time.Duration(seconds)*time.Second) / time.Millisecond)
	return fmt.Sprintf("%02d:%02d.%03d", minutes, seconds, millis)
}

func writeASCII(w io.Writer, matrix *types.BenchmarkMatrix) error {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)

	fmt.Fprint(tw, "process")
	for _, format := range matrix.Formats() {
		fmt.Fprintf(tw, "\t%s", format)
	}
	fmt.Fprintln(tw)

	for _, process := range matrix.Processes() {
		fmt.Fprint(tw, process)
		for _, format := range matrix.Formats() {
			fmt.Fprintf(tw, "\t%s", cellText(matrix.Get(types.CellKey{Process: process, Format: format})))
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func writeCSV(w io.Writer, matrix *types.BenchmarkMatrix) error {
	cw := csv.NewWriter(w)

	formats := matrix.Formats()
	header := make([]string, 0, len(formats)+1)
	header = append(header, "process")
	for _, f := range formats {
		header = append(header, string(f))
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, process := range matrix.Processes() {
		row := make([]string, 0, len(formats)+1)
		row = append(row, string(process))
		for _, format := range formats {
			row = append(row, cellText(matrix.Get(types.CellKey{Process: process, Format: format})))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// reportRecord is one cell of the JSON report.
type reportRecord struct {
	Process         string  `json:"process"`
	Format          string  `json:"format"`
	Success         bool    `json:"success"`
	DurationSeconds float64 `json:"duration_seconds"`
	MetadataPassRan bool    `json:"metadata_pass_ran"`
	ErrorCode       string  `json:"error_code,omitempty"`
	Error           string  `json:"error,omitempty"`
}

func writeJSON(w io.Writer, matrix *types.BenchmarkMatrix) error {
	records := make([]reportRecord, 0, matrix.Len())
	for _, key := range matrix.Keys() {
		result := matrix.Get(key)
		rec := reportRecord{
			Process: string(key.Process),
			Format:  string(key.Format),
		}
		if result != nil {
			rec.Success = result.Success
			rec.DurationSeconds = result.Duration.Seconds()
			rec.MetadataPassRan = result.MetadataPassRan
			rec.ErrorCode = result.ErrorCode
			rec.Error = result.Error
		}
		records = append(records, rec)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
