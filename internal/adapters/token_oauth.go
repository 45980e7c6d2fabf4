package adapters

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"intune-store-importer/internal/core"
	"intune-store-importer/internal/ports"
	"intune-store-importer/internal/types"
)

const DefaultAuthorityEndpoint = "https://login.microsoftonline.com"
const DefaultGraphScope = "https://graph.microsoft.com/.default"

// ClientCredentialsTokenAdapter obtains app-only tokens with the OAuth2
// client credentials grant. Tokens are cached and refreshed before expiry.
type ClientCredentialsTokenAdapter struct {
	config *clientcredentials.Config
	client *http.Client

	once   sync.Once
	source oauth2.TokenSource
}

type ClientCredentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	Authority    string
	Scopes       []string
}

func NewClientCredentialsTokenAdapter(creds ClientCredentials, timeout time.Duration) (*ClientCredentialsTokenAdapter, error) {
	if strings.TrimSpace(creds.TenantID) == "" {
		return nil, core.NewError(core.KindInvalidInput, "tenant id is required", nil)
	}
	if strings.TrimSpace(creds.ClientID) == "" {
		return nil, core.NewError(core.KindInvalidInput, "client id is required", nil)
	}
	if strings.TrimSpace(creds.ClientSecret) == "" {
		return nil, core.NewError(core.KindInvalidInput, "client secret is required", nil)
	}
	authority := trimEndpoint(creds.Authority)
	if authority == "" {
		authority = DefaultAuthorityEndpoint
	}
	scopes := creds.Scopes
	if len(scopes) == 0 {
		scopes = []string{DefaultGraphScope}
	}
	return &ClientCredentialsTokenAdapter{
		config: &clientcredentials.Config{
			ClientID:     strings.TrimSpace(creds.ClientID),
			ClientSecret: strings.TrimSpace(creds.ClientSecret),
			TokenURL:     fmt.Sprintf("%s/%s/oauth2/v2.0/token", authority, strings.TrimSpace(creds.TenantID)),
			Scopes:       scopes,
		},
		client: newHTTPClient(timeout),
	}, nil
}

func (a *ClientCredentialsTokenAdapter) Token(ctx context.Context) (types.AccessToken, error) {
	if err := ctx.Err(); err != nil {
		return types.AccessToken{}, err
	}
	a.once.Do(func() {
		// The source outlives the first caller's context.
		base := context.WithValue(context.Background(), oauth2.HTTPClient, a.client)
		a.source = a.config.TokenSource(base)
	})
	token, err := a.source.Token()
	if err != nil {
		return types.AccessToken{}, core.NewError(core.KindUnauthorized, "failed to acquire access token", err)
	}
	return types.AccessToken{Value: token.AccessToken, Expiry: token.Expiry}, nil
}

// StaticTokenAdapter serves a pre-obtained bearer token.
type StaticTokenAdapter struct {
	AccessToken types.AccessToken
	Clock       func() time.Time
}

func NewStaticTokenAdapter(token string, expiry time.Time) StaticTokenAdapter {
	return StaticTokenAdapter{
		AccessToken: types.AccessToken{Value: strings.TrimSpace(token), Expiry: expiry},
		Clock:       time.Now,
	}
}

func (a StaticTokenAdapter) Token(_ context.Context) (types.AccessToken, error) {
	if a.AccessToken.Value == "" {
		return types.AccessToken{}, core.NewError(core.KindUnauthorized, "access token is empty", nil)
	}
	clock := a.Clock
	if clock == nil {
		clock = time.Now
	}
	if a.AccessToken.Expired(clock()) {
		return types.AccessToken{}, core.NewError(core.KindUnauthorized, "access token has expired", nil)
	}
	return a.AccessToken, nil
}

// ReadSecretFile returns the trimmed contents of a secret file.
func ReadSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", core.NewError(core.KindInvalidInput, "failed to read secret file", err)
	}
	secret := strings.TrimSpace(string(data))
	if secret == "" {
		return "", core.NewError(core.KindInvalidInput, "secret file is empty", nil)
	}
	return secret, nil
}

var _ ports.TokenProviderPort = (*ClientCredentialsTokenAdapter)(nil)
var _ ports.TokenProviderPort = StaticTokenAdapter{}
