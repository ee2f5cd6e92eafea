// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"fmt"
	"io"
	"os"
)

// Fatal writes "error: err" to stderr and exits with code 1. Binaries
// call it from main() with the error returned by run().
func Fatal(err error) {
	report(os.Stderr, err)
	os.Exit(1)
}

// Usage writes "error: err" followed by a hint to stderr and exits
// with code 2, the conventional status for bad command-line usage.
func Usage(err error, hint string) {
	report(os.Stderr, err)
	if hint != "" {
		fmt.Fprintln(os.Stderr, hint)
	}
	os.Exit(2)
}

func report(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v\n", err)
}
