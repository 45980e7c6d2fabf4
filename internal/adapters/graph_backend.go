package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"intune-store-importer/internal/core"
	"intune-store-importer/internal/ports"
	"intune-store-importer/internal/shared"
	"intune-store-importer/internal/types"
)

const DefaultGraphEndpoint = "https://graph.microsoft.com/beta"

// GraphBackendAdapter talks to the Graph device app management API. A
// bearer token is requested from Tokens for every call.
type GraphBackendAdapter struct {
	Endpoint string
	Tokens   ports.TokenProviderPort
	client   *http.Client
}

func NewGraphBackendAdapter(endpoint string, tokens ports.TokenProviderPort, timeout time.Duration) GraphBackendAdapter {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultGraphEndpoint
	}
	return GraphBackendAdapter{
		Endpoint: trimEndpoint(endpoint),
		Tokens:   tokens,
		client:   newHTTPClient(timeout),
	}
}

func (a GraphBackendAdapter) CreateApp(ctx context.Context, app types.BackendAppDescriptor) (types.BackendApp, error) {
	createURL := a.Endpoint + "/deviceAppManagement/mobileApps"
	status, body, err := a.send(ctx, http.MethodPost, createURL, toGraphApp(app))
	if err != nil {
		return types.BackendApp{}, err
	}
	if !shared.IsSuccessStatus(status) {
		message := shared.TruncateBody(body, maxErrorBodyBytes)
		return types.BackendApp{}, core.NewError(core.KindImportRejected,
			fmt.Sprintf("backend rejected %s: %s", app.PackageIdentifier, message),
			shared.HTTPStatusErrorWithBody(status, createURL, message))
	}
	var created graphMobileApp
	if err := json.Unmarshal(body, &created); err != nil {
		return types.BackendApp{}, core.NewError(core.KindImportRejected,
			fmt.Sprintf("failed to parse created application for %s", app.PackageIdentifier), err)
	}
	if strings.TrimSpace(created.ID) == "" {
		return types.BackendApp{}, core.NewError(core.KindImportRejected,
			fmt.Sprintf("backend returned no identifier for %s", app.PackageIdentifier), nil)
	}
	log.Ctx(ctx).Debug().
		Str("package", app.PackageIdentifier).
		Str("app_id", created.ID).
		Msg("application created")
	return fromGraphApp(created), nil
}

func (a GraphBackendAdapter) GetApp(ctx context.Context, appID string) (types.BackendApp, error) {
	id := strings.TrimSpace(appID)
	if id == "" {
		return types.BackendApp{}, core.NewError(core.KindInvalidInput, "application id is empty", nil)
	}
	getURL := fmt.Sprintf("%s/deviceAppManagement/mobileApps/%s", a.Endpoint, url.PathEscape(id))
	status, body, err := a.send(ctx, http.MethodGet, getURL, nil)
	if err != nil {
		return types.BackendApp{}, err
	}
	if !shared.IsSuccessStatus(status) {
		return types.BackendApp{}, core.NewError(core.KindUpstreamUnavailable,
			fmt.Sprintf("application %s lookup failed", id),
			shared.HTTPStatusErrorWithBody(status, getURL, shared.TruncateBody(body, maxErrorBodyBytes)))
	}
	var app graphMobileApp
	if err := json.Unmarshal(body, &app); err != nil {
		return types.BackendApp{}, core.NewError(core.KindUpstreamUnavailable,
			fmt.Sprintf("failed to parse application %s", id), err)
	}
	return fromGraphApp(app), nil
}

func (a GraphBackendAdapter) AssignApp(ctx context.Context, appID string, assignments []types.BackendAssignment) error {
	id := strings.TrimSpace(appID)
	if id == "" {
		return core.NewError(core.KindInvalidInput, "application id is empty", nil)
	}
	assignURL := fmt.Sprintf("%s/deviceAppManagement/mobileApps/%s/assign", a.Endpoint, url.PathEscape(id))
	status, body, err := a.send(ctx, http.MethodPost, assignURL, toGraphAssignments(assignments))
	if err != nil {
		return err
	}
	if !shared.IsSuccessStatus(status) {
		message := shared.TruncateBody(body, maxErrorBodyBytes)
		return core.NewError(core.KindAssignmentRejected,
			fmt.Sprintf("backend rejected assignments for %s: %s", id, message),
			shared.HTTPStatusErrorWithBody(status, assignURL, message))
	}
	log.Ctx(ctx).Debug().
		Str("app_id", id).
		Int("assignments", len(assignments)).
		Msg("assignments submitted")
	return nil
}

// send issues an authorized JSON request. Token and transport failures are
// returned as errors; the caller interprets the status.
func (a GraphBackendAdapter) send(ctx context.Context, method string, target string, payload interface{}) (int, []byte, error) {
	if a.Tokens == nil {
		return 0, nil, core.NewError(core.KindUnauthorized, "no token provider configured", nil)
	}
	token, err := a.Tokens.Token(ctx)
	if err != nil {
		return 0, nil, err
	}
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to encode request payload").
				WithCause(err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := newRequest(ctx, method, target, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.Value)
	req.Header.Set("Accept", "application/json")
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	status, body, err := doRequest(a.client, req)
	if err != nil {
		return 0, nil, core.NewError(core.KindUpstreamUnavailable,
			fmt.Sprintf("%s %s failed", method, target), err)
	}
	return status, body, nil
}

var _ ports.AppBackendPort = GraphBackendAdapter{}
