package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/turbot/tailpipe-log-summary/config"
	"github.com/turbot/tailpipe-log-summary/filter"
	"github.com/turbot/tailpipe-log-summary/pipeline"
)

const (
	flagLocation    = "location"
	flagPrefix      = "prefix"
	flagFormat      = "format"
	flagConfig      = "config"
	flagTimeout     = "timeout"
	flagMetricsFile = "metrics-file"
	flagOutput      = "output"
)

func summarizeCmd() *cobra.Command {
	// flags may also be set from LOG_SUMMARY_<FLAG> environment variables
	v := viper.New()
	v.SetEnvPrefix("LOG_SUMMARY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Summarise the log objects under a key prefix",
		Long: `Lists the objects under a key prefix, parses each with the selected format and prints
a JSON report of the total record count, the most frequent error signatures and the average latency.

Store locations: s3://bucket, gs://bucket, cloudwatch://log-group, file:///path or a local path.
A bare name is an S3 bucket.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummarize(cmd, v)
		},
	}

	cmd.Flags().String(flagLocation, "", "Store location to read from")
	cmd.Flags().String(flagPrefix, "", "Key prefix selecting the objects to summarise")
	cmd.Flags().String(flagFormat, filter.DefaultFormat, "Log format of the objects")
	cmd.Flags().String(flagConfig, "", "Path of an HCL config file")
	cmd.Flags().Duration(flagTimeout, 0, "Abandon the summary after this long (0 means no timeout)")
	cmd.Flags().String(flagMetricsFile, "", "Write run metrics to this file in the Prometheus text format")
	cmd.Flags().String(flagOutput, outputJSON, "Report output: "+strings.Join(outputFormats, ", "))
	_ = v.BindPFlags(cmd.Flags())

	return cmd
}

func runSummarize(cmd *cobra.Command, v *viper.Viper) error {
	output := strings.ToLower(v.GetString(flagOutput))
	if !slices.Contains(outputFormats, output) {
		return &usageError{err: fmt.Errorf("unsupported output %q (supported: %s)", output, strings.Join(outputFormats, ", "))}
	}

	spec, err := filter.New(v.GetString(flagLocation), v.GetString(flagPrefix), v.GetString(flagFormat))
	if err != nil {
		return err
	}

	cfg, err := config.Load(v.GetString(flagConfig))
	if err != nil {
		return &usageError{err: err}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if timeout := v.GetDuration(flagTimeout); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	p := pipeline.New(cfg)
	report, runErr := p.Run(ctx, spec)

	// metrics are written for failed runs too
	if path := v.GetString(flagMetricsFile); path != "" {
		if err := p.Metrics().WriteToTextfile(path); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	return writeReport(cmd.OutOrStdout(), output, report)
}
