package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/turbot/tailpipe-log-summary/parser"
)

func formatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List the supported log formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, format := range parser.Formats() {
				fmt.Fprintln(cmd.OutOrStdout(), format)
			}
			return nil
		},
	}
}
