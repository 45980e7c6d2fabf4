package core

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/rs/zerolog/log"

	"intune-store-importer/internal/types"
)

var validIntents = map[types.InstallIntent]struct{}{
	types.InstallIntentRequired:  {},
	types.InstallIntentAvailable: {},
	types.InstallIntentUninstall: {},
}

// ValidateDescriptor rejects input descriptors that cannot be imported.
// Unknown target types are not an error; they are dropped at dispatch.
func ValidateDescriptor(desc types.AppDescriptor) error {
	if strings.TrimSpace(desc.PackageIdentifier) == "" {
		return NewError(KindInvalidInput, "package identifier is required", nil)
	}
	for i, intent := range desc.Assignments {
		if _, ok := validIntents[intent.Intent]; !ok {
			return NewError(KindInvalidInput,
				fmt.Sprintf("assignment %d of %s has invalid intent %q", i, desc.PackageIdentifier, intent.Intent), nil)
		}
		if intent.TargetType == types.TargetTypeGroup && strings.TrimSpace(intent.GroupID) == "" {
			return NewError(KindInvalidInput,
				fmt.Sprintf("assignment %d of %s targets a group without groupId", i, desc.PackageIdentifier), nil)
		}
	}
	return nil
}

// ValidateManifest checks that a manifest can be translated.
func ValidateManifest(manifest types.PackageManifest) error {
	if len(manifest.Versions) == 0 {
		return NewError(KindManifestNotFound,
			fmt.Sprintf("manifest for %s has no versions", manifest.PackageIdentifier), nil)
	}
	if strings.TrimSpace(manifest.PackageIdentifier) == "" {
		return NewError(KindInvalidInput, "manifest has no package identifier", nil)
	}
	if strings.TrimSpace(manifest.PackageName) == "" {
		return NewError(KindInvalidInput,
			fmt.Sprintf("manifest for %s has no package name", manifest.PackageIdentifier), nil)
	}
	if len(manifest.Installers) == 0 {
		return NewError(KindInvalidInput,
			fmt.Sprintf("manifest for %s has no installers", manifest.PackageIdentifier), nil)
	}
	if LastInstallerScope(manifest.Installers) == "" {
		return NewError(KindInvalidInput,
			fmt.Sprintf("last installer of %s has no scope", manifest.PackageIdentifier), nil)
	}
	return nil
}

// BuildBackendApp translates an input descriptor, its catalog manifest and
// icon into the backend application resource. The manifest must have passed
// ValidateManifest.
func BuildBackendApp(ctx context.Context, desc types.AppDescriptor, manifest types.PackageManifest, icon types.IconAsset) types.BackendAppDescriptor {
	assert.NotEmpty(ctx, manifest.LatestVersion(), "manifest must carry a version")
	assert.NotEmpty(ctx, manifest.PackageIdentifier, "manifest must carry a package identifier")
	runAs := LastInstallerScope(manifest.Installers)
	assert.NotEmpty(ctx, string(runAs), "manifest must carry an installer")

	app := types.BackendAppDescriptor{
		DisplayName:           manifest.PackageName,
		Description:           manifest.ShortDescription,
		Publisher:             manifest.Publisher,
		Developer:             manifest.Publisher,
		IsFeatured:            desc.IsFeatured,
		InformationURL:        NormalizeURL(manifest.SupportURL),
		PrivacyInformationURL: NormalizeURL(manifest.PrivacyURL),
		LargeIcon:             EncodeIcon(icon),
		InstallExperience:     types.InstallExperience{RunAsAccount: runAs},
		RepositoryType:        types.RepositoryTypeMicrosoftStore,
		PackageIdentifier:     manifest.PackageIdentifier,
		RoleScopeTagIDs:       []string{},
	}
	log.Ctx(ctx).Debug().
		Str("package", manifest.PackageIdentifier).
		Str("version", manifest.LatestVersion()).
		Str("run_as", string(runAs)).
		Msg("backend descriptor built")
	return app
}

// LastInstallerScope returns the scope of the last installer. The last
// installer is authoritative regardless of the other entries.
func LastInstallerScope(installers []types.Installer) types.InstallScope {
	if len(installers) == 0 {
		return ""
	}
	return installers[len(installers)-1].Scope
}

// EncodeIcon base64-encodes icon content and declares it as PNG whatever
// the source format is.
func EncodeIcon(icon types.IconAsset) types.IconPayload {
	return types.IconPayload{
		MimeType: types.MimeTypePNG,
		Value:    base64.StdEncoding.EncodeToString(icon.Content),
	}
}
