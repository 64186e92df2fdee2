package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rshade/backoffice/internal/cli"
	"github.com/rshade/backoffice/pkg/version"
)

func main() {
	os.Exit(extractBatchExitCode(run()))
}

func run() error {
	root := cli.NewRootCmd(version.GetVersion())
	// cmd.Print* defaults to stderr; listings and progress belong on stdout.
	root.SetOut(os.Stdout)
	err := root.Execute()
	if err == nil {
		return nil
	}

	var batchErr *cli.BatchExitError
	if !errors.As(err, &batchErr) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// extractBatchExitCode maps the result of run to a process exit code. A bulk
// run that did not fully succeed carries its own code; other errors exit 1.
func extractBatchExitCode(err error) int {
	if err == nil {
		return 0
	}
	var batchErr *cli.BatchExitError
	if errors.As(err, &batchErr) {
		return batchErr.ExitCode
	}
	return 1
}
