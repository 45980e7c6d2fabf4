package core

import (
	"github.com/samber/lo"

	"intune-store-importer/internal/types"
)

// FixedAssignmentSettings is the settings block attached to every
// assignment: notifications hidden, no install time or restart settings.
func FixedAssignmentSettings() types.AssignmentSettings {
	return types.AssignmentSettings{
		Notifications:       types.NotificationsHideAll,
		InstallTimeSettings: nil,
		RestartSettings:     nil,
	}
}

// TargetFor maps an intent's target type onto the closed target set. The
// second value is false for unrecognized target types.
func TargetFor(intent types.AssignmentIntent) (types.AssignmentTarget, bool) {
	switch intent.TargetType {
	case types.TargetTypeGroup:
		return types.GroupTarget{GroupID: intent.GroupID}, true
	case types.TargetTypeAllDevices:
		return types.AllDevicesTarget{}, true
	case types.TargetTypeAllLicensedUsers:
		return types.AllLicensedUsersTarget{}, true
	default:
		return nil, false
	}
}

// MapAssignment produces the backend record for one intent, or false when
// the target type is unrecognized.
func MapAssignment(intent types.AssignmentIntent) (types.BackendAssignment, bool) {
	target, ok := TargetFor(intent)
	if !ok {
		return types.BackendAssignment{}, false
	}
	return types.BackendAssignment{
		Intent:   intent.Intent,
		Target:   target,
		Settings: FixedAssignmentSettings(),
	}, true
}

// MapAssignments dispatches every intent. Intents with unrecognized target
// types are returned separately and never produce a record.
func MapAssignments(intents []types.AssignmentIntent) ([]types.BackendAssignment, []types.AssignmentIntent) {
	assignments := lo.FilterMap(intents, func(intent types.AssignmentIntent, _ int) (types.BackendAssignment, bool) {
		return MapAssignment(intent)
	})
	dropped := lo.Reject(intents, func(intent types.AssignmentIntent, _ int) bool {
		_, ok := TargetFor(intent)
		return ok
	})
	return assignments, dropped
}
