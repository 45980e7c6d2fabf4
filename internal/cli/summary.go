package cli

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/samber/lo"

	"intune-store-importer/internal/types"
)

var (
	summaryHeaderStyle = lipgloss.NewStyle().Bold(true)
	summaryOKStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	summaryFailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// renderSummary prints one row per application in input order.
func renderSummary(results []types.ImportResult) string {
	return table.New().
		Border(lipgloss.HiddenBorder()).
		BorderTop(false).
		BorderBottom(false).
		Headers("PACKAGE", "STATE", "APP ID", "ASSIGNMENTS", "ERROR").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return summaryHeaderStyle
			}
			return lipgloss.NewStyle()
		}).
		Rows(lo.Map(results, func(result types.ImportResult, _ int) []string {
			return summaryRow(result)
		})...).
		String()
}

func summaryRow(result types.ImportResult) []string {
	state := summaryOKStyle.Render(string(result.State))
	failure := ""
	if result.Failure != nil {
		state = summaryFailStyle.Render(string(result.State))
		failure = result.Failure.ErrorKind + ": " + result.Failure.Message
	}
	appID := result.ApplicationID
	if appID == "" {
		appID = "-"
	}
	return []string{
		result.PackageIdentifier,
		state,
		appID,
		strconv.Itoa(result.AssignmentsSubmitted),
		failure,
	}
}
