package types

import "time"

// RepositoryTypeMicrosoftStore tags applications sourced from the store catalog.
const RepositoryTypeMicrosoftStore = "microsoftStore"

const NotificationsHideAll = "hideAll"

// BackendAppDescriptor is the management backend's application resource.
// Absent URLs are nil and never submitted.
type BackendAppDescriptor struct {
	DisplayName           string
	Description           string
	Publisher             string
	Developer             string
	IsFeatured            bool
	InformationURL        *string
	PrivacyInformationURL *string
	LargeIcon             IconPayload
	InstallExperience     InstallExperience
	RepositoryType        string
	PackageIdentifier     string
	RoleScopeTagIDs       []string
}

// IconPayload is an embedded image with a declared MIME type and
// base64-encoded content.
type IconPayload struct {
	MimeType string
	Value    string
}

type InstallExperience struct {
	RunAsAccount InstallScope
}

// BackendApp is the backend's view of a created application.
type BackendApp struct {
	ID              string
	DisplayName     string
	PublishingState string
	CreatedAt       time.Time
}

const PublishingStatePublished = "published"

// AssignmentTarget is the closed set of assignment targets. Only the types in
// this package implement it.
type AssignmentTarget interface {
	TargetType() TargetType
	isAssignmentTarget()
}

type GroupTarget struct {
	GroupID string
}

type AllDevicesTarget struct{}

type AllLicensedUsersTarget struct{}

func (GroupTarget) TargetType() TargetType            { return TargetTypeGroup }
func (AllDevicesTarget) TargetType() TargetType       { return TargetTypeAllDevices }
func (AllLicensedUsersTarget) TargetType() TargetType { return TargetTypeAllLicensedUsers }

func (GroupTarget) isAssignmentTarget()            {}
func (AllDevicesTarget) isAssignmentTarget()       {}
func (AllLicensedUsersTarget) isAssignmentTarget() {}

type InstallTimeSettings struct {
	UseLocalTime     bool
	StartDateTime    string
	DeadlineDateTime string
}

type RestartSettings struct {
	GracePeriodInMinutes                       int
	CountdownDisplayBeforeRestartInMinutes     int
	RestartNotificationSnoozeDurationInMinutes int
}

// AssignmentSettings are fixed by policy: notifications hidden, install time
// and restart settings unset.
type AssignmentSettings struct {
	Notifications       string
	InstallTimeSettings *InstallTimeSettings
	RestartSettings     *RestartSettings
}

type BackendAssignment struct {
	Intent   InstallIntent
	Target   AssignmentTarget
	Settings AssignmentSettings
}
