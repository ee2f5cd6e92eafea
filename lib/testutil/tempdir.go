// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SocketPath returns the path of a socket named name in a fresh
// directory under /tmp. The directory is removed when the test
// completes.
func SocketPath(t *testing.T, name string) string {
	t.Helper()
	directory, err := os.MkdirTemp("/tmp", "deploywatch-test-*")
	if err != nil {
		t.Fatalf("creating socket directory: %v", err)
	}
	t.Cleanup(func() {
		_ = os.RemoveAll(directory)
	})
	return filepath.Join(directory, name)
}
