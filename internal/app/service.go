package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"intune-store-importer/internal/adapters"
	"intune-store-importer/internal/ports"
)

type Service struct {
	Apps      ports.AppListPort
	Manifests ports.ManifestSourcePort
	Icons     ports.IconSourcePort
	Backend   ports.AppBackendPort
	Reports   ports.ReportWriterPort
	Events    ports.EventSinkPort
	Sleep     func(ctx context.Context, d time.Duration) error
	NewRunID  func() string
}

// ServiceConfig selects the endpoints and credentials NewService wires.
// The backend is left unset when neither a static token nor client
// credentials are given, which only dry runs accept.
type ServiceConfig struct {
	ManifestEndpoint       string
	ProductDetailsEndpoint string
	GraphEndpoint          string
	AuthorityEndpoint      string
	Market                 string
	Language               string
	TenantID               string
	ClientID               string
	ClientSecret           string
	AccessToken            string
	HTTPTimeoutSec         int
}

func NewService(cfg ServiceConfig) (Service, error) {
	timeout := time.Duration(cfg.HTTPTimeoutSec) * time.Second
	apps, err := adapters.NewAppListFileAdapter()
	if err != nil {
		return Service{}, err
	}
	service := Service{
		Apps:      apps,
		Manifests: adapters.NewManifestStoreAdapter(cfg.ManifestEndpoint, timeout),
		Icons:     adapters.NewIconStoreAdapter(cfg.ProductDetailsEndpoint, cfg.Market, cfg.Language, timeout),
		Reports:   adapters.NewReportFileAdapter(),
		Events:    adapters.NewLogEventSinkAdapter(log.Logger),
		Sleep:     sleepContext,
		NewRunID:  uuid.NewString,
	}
	tokens, err := newTokenProvider(cfg, timeout)
	if err != nil {
		return Service{}, err
	}
	if tokens != nil {
		service.Backend = adapters.NewGraphBackendAdapter(cfg.GraphEndpoint, tokens, timeout)
	}
	return service, nil
}

func newTokenProvider(cfg ServiceConfig, timeout time.Duration) (ports.TokenProviderPort, error) {
	if strings.TrimSpace(cfg.AccessToken) != "" {
		return adapters.NewStaticTokenAdapter(cfg.AccessToken, time.Time{}), nil
	}
	if strings.TrimSpace(cfg.TenantID) == "" && strings.TrimSpace(cfg.ClientID) == "" && strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, nil
	}
	return adapters.NewClientCredentialsTokenAdapter(adapters.ClientCredentials{
		TenantID:     cfg.TenantID,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Authority:    cfg.AuthorityEndpoint,
	}, timeout)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
