package adapters

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"intune-store-importer/internal/core"
	"intune-store-importer/internal/ports"
	"intune-store-importer/internal/shared"
	"intune-store-importer/internal/types"
)

const DefaultManifestEndpoint = "https://storeedgefd.dsx.mp.microsoft.com/v9.0"

type ManifestStoreAdapter struct {
	Endpoint string
	client   *http.Client
}

type manifestResponse struct {
	Data manifestData `json:"Data"`
}

type manifestData struct {
	PackageIdentifier string            `json:"PackageIdentifier"`
	Versions          []manifestVersion `json:"Versions"`
}

type manifestVersion struct {
	PackageVersion string              `json:"PackageVersion"`
	DefaultLocale  manifestLocale      `json:"DefaultLocale"`
	Installers     []manifestInstaller `json:"Installers"`
}

type manifestLocale struct {
	PackageName         string `json:"PackageName"`
	Publisher           string `json:"Publisher"`
	ShortDescription    string `json:"ShortDescription"`
	PublisherSupportURL string `json:"PublisherSupportUrl"`
	PrivacyURL          string `json:"PrivacyUrl"`
}

type manifestInstaller struct {
	Scope string `json:"Scope"`
}

func NewManifestStoreAdapter(endpoint string, timeout time.Duration) ManifestStoreAdapter {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultManifestEndpoint
	}
	return ManifestStoreAdapter{
		Endpoint: trimEndpoint(endpoint),
		client:   newHTTPClient(timeout),
	}
}

func (a ManifestStoreAdapter) Resolve(ctx context.Context, packageIdentifier string) (types.PackageManifest, error) {
	id := strings.TrimSpace(packageIdentifier)
	if id == "" {
		return types.PackageManifest{}, core.NewError(core.KindInvalidInput, "package identifier is empty", nil)
	}
	manifestURL := fmt.Sprintf("%s/packageManifests/%s", a.Endpoint, url.PathEscape(id))
	req, err := newRequest(ctx, http.MethodGet, manifestURL, nil)
	if err != nil {
		return types.PackageManifest{}, err
	}
	req.Header.Set("Accept", "application/json")
	status, body, err := doRequest(a.client, req)
	if err != nil {
		return types.PackageManifest{}, core.NewError(core.KindUpstreamUnavailable,
			fmt.Sprintf("manifest lookup for %s failed", id), err)
	}
	if status == http.StatusNotFound || status == http.StatusNoContent {
		return types.PackageManifest{}, core.NewError(core.KindManifestNotFound,
			fmt.Sprintf("no manifest for %s", id),
			shared.HTTPStatusError(status, manifestURL))
	}
	if !shared.IsSuccessStatus(status) {
		return types.PackageManifest{}, core.NewError(core.KindUpstreamUnavailable,
			fmt.Sprintf("manifest lookup for %s failed", id),
			shared.HTTPStatusErrorWithBody(status, manifestURL, shared.TruncateBody(body, maxErrorBodyBytes)))
	}
	manifest, err := decodeManifest(body)
	if err != nil {
		return types.PackageManifest{}, core.NewError(core.KindUpstreamUnavailable,
			fmt.Sprintf("failed to parse manifest for %s", id), err)
	}
	if len(manifest.Versions) == 0 {
		return types.PackageManifest{}, core.NewError(core.KindManifestNotFound,
			fmt.Sprintf("manifest for %s lists no versions", id), nil)
	}
	if manifest.PackageIdentifier == "" {
		manifest.PackageIdentifier = id
	}
	log.Ctx(ctx).Debug().
		Str("package", manifest.PackageIdentifier).
		Str("version", manifest.LatestVersion()).
		Int("installers", len(manifest.Installers)).
		Msg("manifest resolved")
	return manifest, nil
}

// decodeManifest flattens the catalog response. Metadata and installers come
// from the last listed version.
func decodeManifest(body []byte) (types.PackageManifest, error) {
	var payload manifestResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return types.PackageManifest{}, err
	}
	manifest := types.PackageManifest{
		PackageIdentifier: strings.TrimSpace(payload.Data.PackageIdentifier),
	}
	if len(payload.Data.Versions) == 0 {
		return manifest, nil
	}
	for _, version := range payload.Data.Versions {
		manifest.Versions = append(manifest.Versions, version.PackageVersion)
	}
	latest := payload.Data.Versions[len(payload.Data.Versions)-1]
	manifest.PackageName = strings.TrimSpace(latest.DefaultLocale.PackageName)
	manifest.Publisher = strings.TrimSpace(latest.DefaultLocale.Publisher)
	manifest.ShortDescription = strings.TrimSpace(latest.DefaultLocale.ShortDescription)
	manifest.SupportURL = strings.TrimSpace(latest.DefaultLocale.PublisherSupportURL)
	manifest.PrivacyURL = strings.TrimSpace(latest.DefaultLocale.PrivacyURL)
	for _, installer := range latest.Installers {
		manifest.Installers = append(manifest.Installers, types.Installer{
			Scope: types.InstallScope(strings.ToLower(strings.TrimSpace(installer.Scope))),
		})
	}
	return manifest, nil
}

var _ ports.ManifestSourcePort = ManifestStoreAdapter{}
