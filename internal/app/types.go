package app

import (
	"time"

	"intune-store-importer/internal/types"
)

type SettleMode string

const (
	SettleModeDelay SettleMode = "delay"
	SettleModePoll  SettleMode = "poll"
)

// SettleConfig controls the wait between creating an application and
// assigning it. Delay waits a fixed time; poll backs off exponentially
// until the backend reports the application published or Timeout elapses.
// A zero Delay assigns immediately; a negative Delay selects the default.
type SettleConfig struct {
	Mode            SettleMode
	Delay           time.Duration
	Timeout         time.Duration
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

type ImportRequest struct {
	Apps       []types.AppDescriptor
	AppsPath   string
	Workers    int
	Settle     SettleConfig
	DryRun     bool
	ReportPath string
}

type ImportBatchResult struct {
	RunID     string
	Results   []types.ImportResult
	Succeeded int
	Failed    int
}

type ValidateRequest struct {
	AppsPath string
}

type ValidateResult struct {
	Apps               int
	Assignments        int
	DroppedAssignments int
}
