package ports

import "intune-store-importer/internal/types"

type AppListPort interface {
	LoadApps(path string) ([]types.AppDescriptor, error)
}

type ReportWriterPort interface {
	WriteReport(path string, results []types.ImportResult) error
}

type EventSinkPort interface {
	Emit(event types.ImportEvent)
}
