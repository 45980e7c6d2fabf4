package ports

import (
	"context"

	"intune-store-importer/internal/types"
)

// AppBackendPort is the device-management backend.
type AppBackendPort interface {
	CreateApp(ctx context.Context, app types.BackendAppDescriptor) (types.BackendApp, error)
	GetApp(ctx context.Context, appID string) (types.BackendApp, error)
	// AssignApp replaces the full assignment set of the application.
	AssignApp(ctx context.Context, appID string, assignments []types.BackendAssignment) error
}

type TokenProviderPort interface {
	Token(ctx context.Context) (types.AccessToken, error)
}
