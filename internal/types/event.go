package types

type EventLevel string

const (
	EventLevelDebug EventLevel = "debug"
	EventLevelInfo  EventLevel = "info"
	EventLevelWarn  EventLevel = "warn"
	EventLevelError EventLevel = "error"
)

// ImportEvent is a progress or diagnostic record emitted while importing.
type ImportEvent struct {
	Level             EventLevel
	RunID             string
	PackageIdentifier string
	Stage             Stage
	State             ImportState
	Message           string
	Fields            map[string]string
}
