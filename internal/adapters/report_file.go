package adapters

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"intune-store-importer/internal/ports"
	"intune-store-importer/internal/types"
)

type ReportFileAdapter struct{}

type importReport struct {
	Total     int                  `json:"total"`
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
	Results   []types.ImportResult `json:"results"`
}

func NewReportFileAdapter() ReportFileAdapter {
	return ReportFileAdapter{}
}

func (a ReportFileAdapter) WriteReport(path string, results []types.ImportResult) error {
	if strings.TrimSpace(path) == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("report path is required")
	}
	report := importReport{Total: len(results), Results: results}
	for _, result := range results {
		if result.Succeeded() {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to marshal import report").
			WithCause(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create report directory").
			WithCause(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write import report").
			WithCause(err)
	}
	return nil
}

var _ ports.ReportWriterPort = ReportFileAdapter{}
