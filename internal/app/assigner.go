package app

import (
	"context"

	"intune-store-importer/internal/core"
	"intune-store-importer/internal/ports"
	"intune-store-importer/internal/types"
)

// AssignmentConfigurator translates assignment intents and submits them as
// one batch, since each submission replaces the full assignment set.
type AssignmentConfigurator struct {
	Backend ports.AppBackendPort
	// OnDropped is called for each intent with an unrecognized target type.
	OnDropped func(intent types.AssignmentIntent)
}

// Configure returns the number of assignments submitted. Nothing is
// submitted when no intent maps to a backend record.
func (c AssignmentConfigurator) Configure(ctx context.Context, appID string, intents []types.AssignmentIntent) (int, error) {
	assignments, dropped := core.MapAssignments(intents)
	if c.OnDropped != nil {
		for _, intent := range dropped {
			c.OnDropped(intent)
		}
	}
	if len(assignments) == 0 {
		return 0, nil
	}
	if err := c.Backend.AssignApp(ctx, appID, assignments); err != nil {
		return 0, err
	}
	return len(assignments), nil
}
