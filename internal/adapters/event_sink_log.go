package adapters

import (
	"github.com/rs/zerolog"

	"intune-store-importer/internal/ports"
	"intune-store-importer/internal/types"
)

// LogEventSinkAdapter writes import events as structured log records.
type LogEventSinkAdapter struct {
	Logger zerolog.Logger
}

func NewLogEventSinkAdapter(logger zerolog.Logger) LogEventSinkAdapter {
	return LogEventSinkAdapter{Logger: logger}
}

func (a LogEventSinkAdapter) Emit(event types.ImportEvent) {
	var entry *zerolog.Event
	switch event.Level {
	case types.EventLevelDebug:
		entry = a.Logger.Debug()
	case types.EventLevelWarn:
		entry = a.Logger.Warn()
	case types.EventLevelError:
		entry = a.Logger.Error()
	default:
		entry = a.Logger.Info()
	}
	if event.RunID != "" {
		entry = entry.Str("run_id", event.RunID)
	}
	if event.PackageIdentifier != "" {
		entry = entry.Str("package", event.PackageIdentifier)
	}
	if event.Stage != "" {
		entry = entry.Str("stage", string(event.Stage))
	}
	if event.State != "" {
		entry = entry.Str("state", string(event.State))
	}
	for key, value := range event.Fields {
		entry = entry.Str(key, value)
	}
	entry.Msg(event.Message)
}

var _ ports.EventSinkPort = LogEventSinkAdapter{}
