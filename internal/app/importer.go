package app

import (
	"context"
	"time"

	"intune-store-importer/internal/ports"
	"intune-store-importer/internal/types"
)

// AppImporter creates the backend application and waits for it to settle.
type AppImporter struct {
	Backend ports.AppBackendPort
	Settle  SettleConfig
	Sleep   func(ctx context.Context, d time.Duration) error
}

// Import returns the created backend application. When creation succeeds but
// settling fails, the application is returned with the error; it is not removed.
func (i AppImporter) Import(ctx context.Context, app types.BackendAppDescriptor) (types.BackendApp, error) {
	created, err := i.Backend.CreateApp(ctx, app)
	if err != nil {
		return types.BackendApp{}, err
	}
	wait := settler{
		backend: i.Backend,
		config:  normalizeSettleConfig(i.Settle),
		sleep:   i.Sleep,
	}
	if err := wait.wait(ctx, created.ID); err != nil {
		return created, err
	}
	return created, nil
}
