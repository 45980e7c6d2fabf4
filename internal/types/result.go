package types

import "time"

type Stage string

const (
	StageManifest Stage = "manifest"
	StageIcon     Stage = "icon"
	StageBuild    Stage = "build"
	StageCreate   Stage = "create"
	StageAssign   Stage = "assign"
)

type ImportState string

const (
	StateCreated          ImportState = "Created"
	StateMetadataResolved ImportState = "MetadataResolved"
	StateIconResolved     ImportState = "IconResolved"
	StateDescriptorBuilt  ImportState = "DescriptorBuilt"
	StateBackendCreated   ImportState = "BackendCreated"
	StateAssigned         ImportState = "Assigned"
	StateAssignmentFailed ImportState = "AssignmentFailed"
	StateManifestFailed   ImportState = "ManifestFailed"
	StateIconFailed       ImportState = "IconFailed"
	StateBuildFailed      ImportState = "BuildFailed"
	StateCreateFailed     ImportState = "CreateFailed"
)

// ImportFailure describes the stage-qualified failure of one application.
type ImportFailure struct {
	Stage     Stage  `json:"stage"`
	ErrorKind string `json:"errorKind"`
	Message   string `json:"message"`
}

// ImportResult is the terminal outcome of one application's import.
type ImportResult struct {
	PackageIdentifier    string                `json:"packageIdentifier"`
	ApplicationID        string                `json:"applicationId,omitempty"`
	AssignmentsSubmitted int                   `json:"assignmentsSubmitted"`
	State                ImportState           `json:"state"`
	CreatedAt            *time.Time            `json:"createdAt,omitempty"`
	Failure              *ImportFailure        `json:"failure,omitempty"`
	Descriptor           *BackendAppDescriptor `json:"-"`
}

func (r ImportResult) Succeeded() bool {
	return r.Failure == nil
}

// AccessToken is a bearer token with its expiry. A zero Expiry means the
// expiry is unknown.
type AccessToken struct {
	Value  string
	Expiry time.Time
}

func (t AccessToken) Expired(now time.Time) bool {
	return !t.Expiry.IsZero() && !now.Before(t.Expiry)
}
