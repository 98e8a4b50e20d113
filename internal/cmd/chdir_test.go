package cmd

import (
	"os"
	"testing"
)

// chdirT changes the working directory for the duration of the test,
// mirroring t.Chdir from Go 1.24+ for older toolchains.
func chdirT(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(orig); err != nil {
			t.Fatalf("Chdir back: %v", err)
		}
	})
}
