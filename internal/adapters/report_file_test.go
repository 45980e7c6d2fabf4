package adapters

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intune-store-importer/internal/types"
)

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "import.json")
	createdAt := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	results := []types.ImportResult{
		{PackageIdentifier: "A", ApplicationID: "app-1", AssignmentsSubmitted: 2, State: types.StateAssigned, CreatedAt: &createdAt},
		{
			PackageIdentifier: "B",
			State:             types.StateManifestFailed,
			Failure:           &types.ImportFailure{Stage: types.StageManifest, ErrorKind: "ManifestNotFound", Message: "no manifest for B"},
		},
	}
	require.NoError(t, NewReportFileAdapter().WriteReport(path, results))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var report map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &report))
	assert.EqualValues(t, 2, report["total"])
	assert.EqualValues(t, 1, report["succeeded"])
	assert.EqualValues(t, 1, report["failed"])

	entries := report["results"].([]interface{})
	assert.Equal(t, "2025-06-15T10:30:00Z", entries[0].(map[string]interface{})["createdAt"])
	failed := entries[1].(map[string]interface{})
	assert.Equal(t, "ManifestFailed", failed["state"])
	assert.Equal(t, "manifest", failed["failure"].(map[string]interface{})["stage"])
	assert.NotContains(t, failed, "applicationId")
	assert.NotContains(t, failed, "createdAt")
	assert.NotContains(t, failed, "Descriptor")
}

func TestWriteReportRequiresPath(t *testing.T) {
	assert.Error(t, NewReportFileAdapter().WriteReport(" ", nil))
}
