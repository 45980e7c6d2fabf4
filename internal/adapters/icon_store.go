package adapters

import (
	"context"
	"encoding/json"
	"errors"
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

const DefaultProductDetailsEndpoint = "https://apps.microsoft.com/store/api/ProductsDetails/GetProductDetailsById"

const maxIconBytes = 4 << 20

type IconStoreAdapter struct {
	Endpoint string
	Market   string
	Language string
	client   *http.Client
}

type productDetails struct {
	IconURL string `json:"IconUrl"`
}

func NewIconStoreAdapter(endpoint string, market string, language string, timeout time.Duration) IconStoreAdapter {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultProductDetailsEndpoint
	}
	if strings.TrimSpace(market) == "" {
		market = "US"
	}
	if strings.TrimSpace(language) == "" {
		language = "en-US"
	}
	return IconStoreAdapter{
		Endpoint: trimEndpoint(endpoint),
		Market:   market,
		Language: language,
		client:   newHTTPClient(timeout),
	}
}

func (a IconStoreAdapter) Resolve(ctx context.Context, packageIdentifier string) (types.IconAsset, error) {
	id := strings.TrimSpace(packageIdentifier)
	if id == "" {
		return types.IconAsset{}, core.NewError(core.KindInvalidInput, "package identifier is empty", nil)
	}
	iconURL, err := a.lookupIconURL(ctx, id)
	if err != nil {
		return types.IconAsset{}, err
	}
	content, err := a.download(ctx, iconURL)
	if err != nil {
		return types.IconAsset{}, err
	}
	log.Ctx(ctx).Debug().
		Str("package", id).
		Str("icon_url", iconURL).
		Int("bytes", len(content)).
		Msg("icon downloaded")
	return types.IconAsset{
		SourceURL: iconURL,
		Content:   content,
		MimeType:  types.MimeTypePNG,
	}, nil
}

func (a IconStoreAdapter) lookupIconURL(ctx context.Context, id string) (string, error) {
	query := url.Values{}
	query.Set("hl", a.Language)
	query.Set("gl", a.Market)
	detailsURL := fmt.Sprintf("%s/%s?%s", a.Endpoint, url.PathEscape(id), query.Encode())
	req, err := newRequest(ctx, http.MethodGet, detailsURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	status, body, err := doRequest(a.client, req)
	if err != nil {
		return "", core.NewError(core.KindUpstreamUnavailable,
			fmt.Sprintf("product details lookup for %s failed", id), err)
	}
	if status == http.StatusNotFound {
		return "", core.NewError(core.KindIconNotFound,
			fmt.Sprintf("no product details for %s", id),
			shared.HTTPStatusError(status, detailsURL))
	}
	if !shared.IsSuccessStatus(status) {
		return "", core.NewError(core.KindUpstreamUnavailable,
			fmt.Sprintf("product details lookup for %s failed", id),
			shared.HTTPStatusErrorWithBody(status, detailsURL, shared.TruncateBody(body, maxErrorBodyBytes)))
	}
	var details productDetails
	if err := json.Unmarshal(body, &details); err != nil {
		return "", core.NewError(core.KindIconNotFound,
			fmt.Sprintf("failed to parse product details for %s", id), err)
	}
	iconURL := normalizeIconURL(details.IconURL)
	if iconURL == "" {
		return "", core.NewError(core.KindIconNotFound,
			fmt.Sprintf("product details for %s carry no icon", id), nil)
	}
	return iconURL, nil
}

func (a IconStoreAdapter) download(ctx context.Context, iconURL string) ([]byte, error) {
	req, err := newRequest(ctx, http.MethodGet, iconURL, nil)
	if err != nil {
		return nil, core.NewError(core.KindDownloadFailed, "invalid icon url", err)
	}
	status, body, err := doRequestLimited(a.client, req, maxIconBytes)
	if errors.Is(err, errBodyTooLarge) {
		return nil, core.NewError(core.KindDownloadFailed,
			fmt.Sprintf("icon exceeds %d bytes", maxIconBytes), shared.HTTPStatusError(status, iconURL))
	}
	if err != nil {
		return nil, core.NewError(core.KindDownloadFailed, "icon download failed", err)
	}
	if !shared.IsSuccessStatus(status) {
		return nil, core.NewError(core.KindDownloadFailed, "icon download failed",
			shared.HTTPStatusError(status, iconURL))
	}
	if len(body) == 0 {
		return nil, core.NewError(core.KindDownloadFailed, "icon download returned no content",
			shared.HTTPStatusError(status, iconURL))
	}
	return body, nil
}

// normalizeIconURL completes protocol-relative and scheme-less icon URLs.
func normalizeIconURL(raw string) string {
	normalized := core.NormalizeURL(raw)
	if normalized == nil {
		return ""
	}
	return *normalized
}

var _ ports.IconSourcePort = IconStoreAdapter{}
