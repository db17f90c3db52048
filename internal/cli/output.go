package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/clubmontagne/membercards/internal/pipeline"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// WriteOutput writes the report in the specified format
func WriteOutput(w io.Writer, report *pipeline.Report, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, report)
	case FormatText:
		return writeText(w, report, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs the report as JSON
func writeJSON(w io.Writer, report *pipeline.Report) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// writeText outputs the report as human-readable text
func writeText(w io.Writer, report *pipeline.Report, verbose bool) error {
	if len(report.Rows) == 0 {
		fmt.Fprintln(w, "No members processed.")
		return nil
	}

	for _, row := range report.Rows {
		validity := "not valid"
		if row.Valid {
			validity = "valid"
		}

		fmt.Fprintf(w, "%-30s %-9s %s\n", row.Member, validity, row.Outcome)
		if verbose {
			fmt.Fprintf(w, "     Status: %s (%s)\n", row.Status, row.Method)
			if row.Evidence != "" {
				fmt.Fprintf(w, "     Evidence: %s\n", row.Evidence)
			}
			if row.VerifyError != "" {
				fmt.Fprintf(w, "     Verification error: %s\n", row.VerifyError)
			}
			if row.Expires != "" {
				fmt.Fprintf(w, "     Expires: %s\n", row.Expires)
			}
			if row.CardURL != "" {
				fmt.Fprintf(w, "     Card: %s\n", row.CardURL)
			}
		}
		if row.Error != "" {
			fmt.Fprintf(w, "     Error: %s\n", row.Error)
		}
	}

	fmt.Fprintf(w, "\nTotal: %d members, %d valid", len(report.Rows), report.Valid())
	for _, outcome := range pipeline.Outcomes {
		if n := report.Count(outcome); n > 0 {
			fmt.Fprintf(w, ", %d %s", n, outcome)
		}
	}
	fmt.Fprintf(w, " (%s)\n", report.Elapsed)

	if verbose && len(report.Metrics.Timings) > 0 {
		names := make([]string, 0, len(report.Metrics.Timings))
		for name := range report.Metrics.Timings {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Fprintln(w, "\nTimings:")
		for _, name := range names {
			stats := report.Metrics.Timings[name]
			fmt.Fprintf(w, "  %-7s %d× avg %s, max %s\n", name, stats.Count, stats.Average, stats.Max)
		}
	}

	return nil
}
