// Package testutils holds helpers shared by the package test suites.
package testutils

import (
	"math/rand"
	"os"
	"testing"
)

// Salt for generated values, to prevent hardcoding test expectations.
// + 1 is necessary because rand.Int63n(_) can return 0.
var Salt int64 = rand.Int63n(1000) + 1

// GetTempDbFile creates a scratch database file for a test, returning the
// file's name. The file is deleted once the test finishes.
//
// The file is created next to the test binary's working directory rather
// than in the OS temp dir: data files are opened with O_DIRECT, which tmpfs
// mounts don't support.
func GetTempDbFile(t *testing.T) string {
	t.Helper()
	tmpfile, err := os.CreateTemp(".", "*.db")
	if err != nil {
		t.Fatal(err)
	}
	// os.CreateTemp opens the file; the disk manager reopens it itself.
	_ = tmpfile.Close()
	_ = os.Remove(tmpfile.Name())
	t.Cleanup(func() {
		_ = os.Remove(tmpfile.Name())
	})
	return tmpfile.Name()
}
