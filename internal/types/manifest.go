package types

type InstallScope string

const (
	InstallScopeUser   InstallScope = "user"
	InstallScopeSystem InstallScope = "system"
)

// Installer is one install variant of a package version.
type Installer struct {
	Scope InstallScope
}

// PackageManifest is the catalog record for the most recent version of a
// package. Versions keeps catalog order; the latest is the last element.
type PackageManifest struct {
	PackageIdentifier string
	PackageName       string
	Publisher         string
	ShortDescription  string
	SupportURL        string
	PrivacyURL        string
	Installers        []Installer
	Versions          []string
}

// LatestVersion returns the last listed version, or "" when there is none.
func (m PackageManifest) LatestVersion() string {
	if len(m.Versions) == 0 {
		return ""
	}
	return m.Versions[len(m.Versions)-1]
}

const MimeTypePNG = "image/png"

// IconAsset is a downloaded product icon.
type IconAsset struct {
	SourceURL string
	Content   []byte
	MimeType  string
}
