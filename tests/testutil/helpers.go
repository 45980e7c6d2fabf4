// Package testutil provides shared test helpers used across integration
// and unit test packages.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// RepoRoot returns the absolute path to the repository root by walking
// up from the current working directory. It fails the test if the
// working directory cannot be determined.
func RepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(dir, "..", ".."))
}

// FixturePath returns the path of a file under the repository fixtures
// directory and fails the test when it does not exist.
func FixturePath(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(RepoRoot(t), "fixtures", name)
	_, err := os.Stat(path)
	require.NoError(t, err, "missing fixture %s", name)
	return path
}
