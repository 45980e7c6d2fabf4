package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intune-store-importer/internal/core"
	"intune-store-importer/internal/types"
)

func TestConfigureSubmitsOneBatch(t *testing.T) {
	backend := &fakeBackend{}
	var dropped []types.AssignmentIntent
	configurator := AssignmentConfigurator{
		Backend:   backend,
		OnDropped: func(intent types.AssignmentIntent) { dropped = append(dropped, intent) },
	}

	count, err := configurator.Configure(context.Background(), "app-1", []types.AssignmentIntent{
		{TargetType: types.TargetTypeGroup, Intent: types.InstallIntentRequired, GroupID: "g-1"},
		{TargetType: "tenant", Intent: types.InstallIntentAvailable},
		{TargetType: types.TargetTypeAllDevices, Intent: types.InstallIntentUninstall},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	require.Len(t, backend.assigns, 1)
	assert.Len(t, backend.assigns[0].Assignments, 2)
	require.Len(t, dropped, 1)
	assert.Equal(t, types.TargetType("tenant"), dropped[0].TargetType)
}

func TestConfigureNothingToSubmit(t *testing.T) {
	backend := &fakeBackend{}
	count, err := AssignmentConfigurator{Backend: backend}.Configure(context.Background(), "app-1", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, backend.assigns)
}

func TestConfigureRejected(t *testing.T) {
	backend := &fakeBackend{assignErr: core.NewError(core.KindAssignmentRejected, "rejected", nil)}
	count, err := AssignmentConfigurator{Backend: backend}.Configure(context.Background(), "app-1", []types.AssignmentIntent{
		{TargetType: types.TargetTypeAllLicensedUsers, Intent: types.InstallIntentAvailable},
	})
	require.Error(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, core.KindAssignmentRejected, core.KindOf(err))
}

func TestAppImporterReturnsIDOnSettleFailure(t *testing.T) {
	backend := &fakeBackend{}
	importer := AppImporter{
		Backend: backend,
		Settle:  SettleConfig{Mode: SettleModeDelay},
		Sleep: func(context.Context, time.Duration) error {
			return context.Canceled
		},
	}
	created, err := importer.Import(context.Background(), types.BackendAppDescriptor{PackageIdentifier: "A"})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "app-A", created.ID)
	assert.Equal(t, fakeCreatedAt, created.CreatedAt)
}
