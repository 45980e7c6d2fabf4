package ports

import (
	"context"

	"intune-store-importer/internal/types"
)

// ManifestSourcePort looks up package manifests in the store catalog.
type ManifestSourcePort interface {
	// Resolve returns the manifest of the most recent version of the
	// package. A package with no versions is reported as not found.
	Resolve(ctx context.Context, packageIdentifier string) (types.PackageManifest, error)
}

// IconSourcePort looks up and downloads a product icon.
type IconSourcePort interface {
	Resolve(ctx context.Context, packageIdentifier string) (types.IconAsset, error)
}
