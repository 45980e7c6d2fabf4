package adapters

import (
	"encoding/json"

	"intune-store-importer/internal/types"
)

// Wire shapes of the Graph device app management resources. Construction of
// the domain values lives in core; these types only serialize them.

type graphWinGetApp struct {
	ODataType             string                 `json:"@odata.type"`
	DisplayName           string                 `json:"displayName"`
	Description           string                 `json:"description"`
	Publisher             string                 `json:"publisher"`
	Developer             string                 `json:"developer"`
	IsFeatured            bool                   `json:"isFeatured"`
	InformationURL        *string                `json:"informationUrl,omitempty"`
	PrivacyInformationURL *string                `json:"privacyInformationUrl,omitempty"`
	LargeIcon             graphMimeContent       `json:"largeIcon"`
	InstallExperience     graphInstallExperience `json:"installExperience"`
	RepositoryType        string                 `json:"repositoryType"`
	PackageIdentifier     string                 `json:"packageIdentifier"`
	RoleScopeTagIDs       []string               `json:"roleScopeTagIds"`
}

type graphMimeContent struct {
	ODataType string `json:"@odata.type"`
	Type      string `json:"type"`
	Value     string `json:"value"`
}

type graphInstallExperience struct {
	ODataType    string `json:"@odata.type"`
	RunAsAccount string `json:"runAsAccount"`
}

type graphMobileApp struct {
	ID              string `json:"id"`
	DisplayName     string `json:"displayName"`
	PublishingState string `json:"publishingState"`
	CreatedDateTime string `json:"createdDateTime"`
}

type graphAssignRequest struct {
	MobileAppAssignments []graphAssignment `json:"mobileAppAssignments"`
}

type graphAssignment struct {
	ODataType string                  `json:"@odata.type"`
	Intent    string                  `json:"intent"`
	Target    graphAssignmentTarget   `json:"target"`
	Settings  graphAssignmentSettings `json:"settings"`
}

type graphAssignmentTarget struct {
	ODataType string `json:"@odata.type"`
	GroupID   string `json:"groupId,omitempty"`
}

type graphAssignmentSettings struct {
	ODataType           string                    `json:"@odata.type"`
	Notifications       string                    `json:"notifications"`
	InstallTimeSettings *graphInstallTimeSettings `json:"installTimeSettings"`
	RestartSettings     *graphRestartSettings     `json:"restartSettings"`
}

type graphInstallTimeSettings struct {
	UseLocalTime     bool   `json:"useLocalTime"`
	StartDateTime    string `json:"startDateTime,omitempty"`
	DeadlineDateTime string `json:"deadlineDateTime,omitempty"`
}

type graphRestartSettings struct {
	GracePeriodInMinutes                       int `json:"gracePeriodInMinutes"`
	CountdownDisplayBeforeRestartInMinutes     int `json:"countdownDisplayBeforeRestartInMinutes"`
	RestartNotificationSnoozeDurationInMinutes int `json:"restartNotificationSnoozeDurationInMinutes"`
}

const (
	odataWinGetApp              = "#microsoft.graph.winGetApp"
	odataMimeContent            = "#microsoft.graph.mimeContent"
	odataInstallExperience      = "#microsoft.graph.winGetAppInstallExperience"
	odataAppAssignment          = "#microsoft.graph.mobileAppAssignment"
	odataAssignmentSettings     = "#microsoft.graph.winGetAppAssignmentSettings"
	odataGroupTarget            = "#microsoft.graph.groupAssignmentTarget"
	odataAllDevicesTarget       = "#microsoft.graph.allDevicesAssignmentTarget"
	odataAllLicensedUsersTarget = "#microsoft.graph.allLicensedUsersAssignmentTarget"
)

func toGraphApp(app types.BackendAppDescriptor) graphWinGetApp {
	roleScopeTags := app.RoleScopeTagIDs
	if roleScopeTags == nil {
		roleScopeTags = []string{}
	}
	return graphWinGetApp{
		ODataType:             odataWinGetApp,
		DisplayName:           app.DisplayName,
		Description:           app.Description,
		Publisher:             app.Publisher,
		Developer:             app.Developer,
		IsFeatured:            app.IsFeatured,
		InformationURL:        app.InformationURL,
		PrivacyInformationURL: app.PrivacyInformationURL,
		LargeIcon: graphMimeContent{
			ODataType: odataMimeContent,
			Type:      app.LargeIcon.MimeType,
			Value:     app.LargeIcon.Value,
		},
		InstallExperience: graphInstallExperience{
			ODataType:    odataInstallExperience,
			RunAsAccount: string(app.InstallExperience.RunAsAccount),
		},
		RepositoryType:    app.RepositoryType,
		PackageIdentifier: app.PackageIdentifier,
		RoleScopeTagIDs:   roleScopeTags,
	}
}

func toGraphAssignments(assignments []types.BackendAssignment) graphAssignRequest {
	payload := graphAssignRequest{MobileAppAssignments: make([]graphAssignment, 0, len(assignments))}
	for _, assignment := range assignments {
		payload.MobileAppAssignments = append(payload.MobileAppAssignments, graphAssignment{
			ODataType: odataAppAssignment,
			Intent:    string(assignment.Intent),
			Target:    toGraphTarget(assignment.Target),
			Settings:  toGraphSettings(assignment.Settings),
		})
	}
	return payload
}

func toGraphTarget(target types.AssignmentTarget) graphAssignmentTarget {
	switch typed := target.(type) {
	case types.GroupTarget:
		return graphAssignmentTarget{ODataType: odataGroupTarget, GroupID: typed.GroupID}
	case types.AllDevicesTarget:
		return graphAssignmentTarget{ODataType: odataAllDevicesTarget}
	case types.AllLicensedUsersTarget:
		return graphAssignmentTarget{ODataType: odataAllLicensedUsersTarget}
	}
	panic("unhandled assignment target type")
}

func toGraphSettings(settings types.AssignmentSettings) graphAssignmentSettings {
	out := graphAssignmentSettings{
		ODataType:     odataAssignmentSettings,
		Notifications: settings.Notifications,
	}
	if settings.InstallTimeSettings != nil {
		out.InstallTimeSettings = &graphInstallTimeSettings{
			UseLocalTime:     settings.InstallTimeSettings.UseLocalTime,
			StartDateTime:    settings.InstallTimeSettings.StartDateTime,
			DeadlineDateTime: settings.InstallTimeSettings.DeadlineDateTime,
		}
	}
	if settings.RestartSettings != nil {
		out.RestartSettings = &graphRestartSettings{
			GracePeriodInMinutes:                       settings.RestartSettings.GracePeriodInMinutes,
			CountdownDisplayBeforeRestartInMinutes:     settings.RestartSettings.CountdownDisplayBeforeRestartInMinutes,
			RestartNotificationSnoozeDurationInMinutes: settings.RestartSettings.RestartNotificationSnoozeDurationInMinutes,
		}
	}
	return out
}

func fromGraphApp(app graphMobileApp) types.BackendApp {
	return types.BackendApp{
		ID:              app.ID,
		DisplayName:     app.DisplayName,
		PublishingState: app.PublishingState,
		CreatedAt:       parseTimeFlexible(app.CreatedDateTime),
	}
}

// EncodeAppPayload renders the request body CreateApp would submit.
func EncodeAppPayload(app types.BackendAppDescriptor) ([]byte, error) {
	return json.MarshalIndent(toGraphApp(app), "", "  ")
}
