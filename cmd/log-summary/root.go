package main

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/turbot/pipe-fittings/error_helpers"
	"github.com/turbot/tailpipe-log-summary/error_types"
)

const (
	exitOK         = 0
	exitInternal   = 1
	exitBadRequest = 2
	exitNotFound   = 3
)

// Build the cobra command that handles our command line tool.
func rootCommand(stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           appName + " COMMAND [args]",
		Short:         "Summarise log objects held in an object store",
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			err := cmd.Help()
			error_helpers.FailOnError(err)
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	rootCmd.AddCommand(
		summarizeCmd(),
		formatsCmd(),
	)
	return rootCmd
}

// Execute runs the command line and returns the process exit code
func Execute(args []string) int {
	return execute(args, os.Stdout, os.Stderr)
}

func execute(args []string, stdout, stderr io.Writer) int {
	rootCmd := rootCommand(stdout, stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	if err != nil {
		writeError(stderr, err)
	}
	return exitCodeFor(err)
}

func exitCodeFor(err error) int {
	if err == nil {
		return exitOK
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		return exitBadRequest
	}
	switch error_types.KindOf(err) {
	case error_types.KindBadRequest:
		return exitBadRequest
	case error_types.KindNotFound:
		return exitNotFound
	default:
		return exitInternal
	}
}

// usageError is a problem with the command line itself rather than the summary
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }
