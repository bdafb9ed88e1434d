package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	t.Parallel()
	// --- Arrange ---
	tmpDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "nested", "deeper"), 0755))

	wanted := []string{
		filepath.Join(tmpDir, "plan.hcl"),
		filepath.Join(tmpDir, "nested", "manifest.hcl"),
		filepath.Join(tmpDir, "nested", "deeper", "more.hcl"),
	}
	unwanted := []string{
		filepath.Join(tmpDir, "notes.txt"),
		filepath.Join(tmpDir, "nested", "plan.hcl.bak"),
	}
	for _, path := range append(append([]string(nil), wanted...), unwanted...) {
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	}

	// --- Act ---
	found, err := FindFilesByExtension(tmpDir, ".hcl")

	// --- Assert ---
	require.NoError(t, err)
	require.ElementsMatch(t, wanted, found)
}

func TestFindFilesByExtension_MissingRootFails(t *testing.T) {
	t.Parallel()

	_, err := FindFilesByExtension(filepath.Join(t.TempDir(), "does-not-exist"), ".hcl")
	require.Error(t, err)
}

func TestFindFilesByExtension_EmptyExtensionPanics(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		_, _ = FindFilesByExtension(t.TempDir(), "")
	})
}
