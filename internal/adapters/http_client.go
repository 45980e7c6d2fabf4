package adapters

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

const defaultHTTPTimeout = 60 * time.Second
const maxErrorBodyBytes = 2048
const userAgent = "intune-store-importer"

// newHTTPClient returns a client restricted to TLS 1.2 or newer.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	transport.ForceAttemptHTTP2 = true
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

func trimEndpoint(endpoint string) string {
	return strings.TrimRight(strings.TrimSpace(endpoint), "/")
}

var errBodyTooLarge = errors.New("response body exceeds limit")

// doRequest performs req and returns the status code and body. A transport
// failure is returned as an error; non-2xx responses are not.
func doRequest(client *http.Client, req *http.Request) (int, []byte, error) {
	return doRequestLimited(client, req, 0)
}

// doRequestLimited is doRequest with the body read capped at limit bytes.
// A longer body stops the read and returns errBodyTooLarge. A limit of zero
// or less reads the whole body.
func doRequestLimited(client *http.Client, req *http.Request, limit int64) (int, []byte, error) {
	req.Header.Set("User-Agent", userAgent)
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	var reader io.Reader = resp.Body
	if limit > 0 {
		reader = io.LimitReader(resp.Body, limit+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	if limit > 0 && int64(len(body)) > limit {
		return resp.StatusCode, nil, errBodyTooLarge
	}
	return resp.StatusCode, body, nil
}

func newRequest(ctx context.Context, method string, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create request").
			WithCause(err)
	}
	return req, nil
}
