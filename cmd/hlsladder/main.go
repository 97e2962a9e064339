package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"hlsladder/internal/pipeline"
)

const (
	exitOK             = 0
	exitFatal          = 1
	exitPartialFailure = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.Execute()
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(stderr, err)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, pipeline.ErrRenditionsFailed):
		return exitPartialFailure
	default:
		return exitFatal
	}
}
