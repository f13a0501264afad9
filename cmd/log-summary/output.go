package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/turbot/tailpipe-log-summary/aggregator"
	"gopkg.in/yaml.v3"
)

const (
	outputJSON  = "json"
	outputYAML  = "yaml"
	outputTable = "table"
)

var outputFormats = []string{outputJSON, outputYAML, outputTable}

var (
	headerColor = color.New(color.FgWhite, color.Bold)
	errorColor  = color.New(color.FgRed, color.Bold)
)

func writeReport(w io.Writer, format string, report *aggregator.Report) error {
	switch strings.ToLower(format) {
	case outputJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	case outputYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(report); err != nil {
			return err
		}
		return encoder.Close()
	case outputTable:
		return writeTable(w, report)
	default:
		return &usageError{err: fmt.Errorf("unsupported output %q (supported: %s)", format, strings.Join(outputFormats, ", "))}
	}
}

func writeTable(w io.Writer, report *aggregator.Report) error {
	headerColor.Fprintln(w, "SUMMARY")
	fmt.Fprintf(w, "total_logs:      %d\n", report.TotalLogs)
	fmt.Fprintf(w, "avg_latency:     %s\n", strconv.FormatFloat(report.AvgLatency, 'f', 2, 64))
	fmt.Fprintf(w, "objects:         %d\n", report.Objects)
	fmt.Fprintf(w, "skipped_objects: %d\n", report.SkippedObjects)
	fmt.Fprintf(w, "parse_errors:    %d\n", report.ParseErrors)

	if len(report.TopErrors) == 0 {
		return nil
	}
	fmt.Fprintln(w)

	width := len("SIGNATURE")
	for _, e := range report.TopErrors {
		width = max(width, len(e.Signature))
	}
	headerColor.Fprintf(w, "%-*s  %s\n", width, "SIGNATURE", "COUNT")
	fmt.Fprintf(w, "%s  %s\n", strings.Repeat("-", width), strings.Repeat("-", len("COUNT")))
	for _, e := range report.TopErrors {
		fmt.Fprintf(w, "%-*s  %d\n", width, e.Signature, e.Count)
	}
	return nil
}

func writeError(w io.Writer, err error) {
	errorColor.Fprintf(w, "Error: %s\n", err.Error())
}
