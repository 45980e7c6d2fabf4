package app

import (
	"intune-store-importer/internal/ports"
	"intune-store-importer/internal/types"
)

// emitter stamps events with the run and package they belong to.
type emitter struct {
	sink  ports.EventSinkPort
	runID string
	pkg   string
}

func (e emitter) emit(level types.EventLevel, stage types.Stage, state types.ImportState, message string, fields map[string]string) {
	if e.sink == nil {
		return
	}
	e.sink.Emit(types.ImportEvent{
		Level:             level,
		RunID:             e.runID,
		PackageIdentifier: e.pkg,
		Stage:             stage,
		State:             state,
		Message:           message,
		Fields:            fields,
	})
}

func (e emitter) transition(stage types.Stage, state types.ImportState) {
	e.emit(types.EventLevelDebug, stage, state, "stage complete", nil)
}
