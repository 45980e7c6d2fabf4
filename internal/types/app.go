package types

type TargetType string

const (
	TargetTypeGroup            TargetType = "group"
	TargetTypeAllDevices       TargetType = "allDevices"
	TargetTypeAllLicensedUsers TargetType = "allLicensedUsers"
)

type InstallIntent string

const (
	InstallIntentRequired  InstallIntent = "required"
	InstallIntentAvailable InstallIntent = "available"
	InstallIntentUninstall InstallIntent = "uninstall"
)

// AppDescriptor is one application requested for import.
type AppDescriptor struct {
	PackageIdentifier string             `yaml:"packageIdentifier" json:"packageIdentifier"`
	IsFeatured        bool               `yaml:"isFeatured" json:"isFeatured"`
	Assignments       []AssignmentIntent `yaml:"assignments" json:"assignments"`
}

// AssignmentIntent is a requested assignment. TargetType values outside the
// known set are kept as-is and dropped during dispatch.
type AssignmentIntent struct {
	TargetType TargetType    `yaml:"targetType" json:"targetType"`
	Intent     InstallIntent `yaml:"intent" json:"intent"`
	GroupID    string        `yaml:"groupId,omitempty" json:"groupId,omitempty"`
}

// AppListFile is the top-level structure of an applications file.
type AppListFile struct {
	Apps []AppDescriptor `yaml:"apps" json:"apps"`
}
