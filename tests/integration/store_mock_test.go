package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

var iconPNG = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0x00}

type capturedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]interface{}
}

// storeMock serves the catalog manifest, product details, icon, token and
// Graph endpoints from one server.
type storeMock struct {
	mu       sync.Mutex
	server   *httptest.Server
	requests []capturedRequest
	missing  map[string]bool
	created  int
	gets     map[string]int
}

func newStoreMock(t *testing.T, missing ...string) *storeMock {
	t.Helper()
	mock := &storeMock{missing: map[string]bool{}, gets: map[string]int{}}
	for _, id := range missing {
		mock.missing[id] = true
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/manifests/packageManifests/", mock.manifest)
	mux.HandleFunc("/details/", mock.details)
	mux.HandleFunc("/icons/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(iconPNG)
	})
	mux.HandleFunc("/login/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"graph-token","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/graph/", mock.graph)
	mock.server = httptest.NewServer(mux)
	t.Cleanup(mock.server.Close)
	return mock
}

func (m *storeMock) URL(path string) string {
	return m.server.URL + path
}

func (m *storeMock) manifest(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/manifests/packageManifests/")
	if m.missing[id] {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w, `{"Data":{"PackageIdentifier":%q,"Versions":[{"PackageVersion":"Unknown","DefaultLocale":{"PackageName":"App %s","Publisher":"Publisher %s","ShortDescription":"desc","PublisherSupportUrl":"support.example.com","PrivacyUrl":"https://example.com/privacy"},"Installers":[{"Scope":"system"},{"Scope":"user"}]}]}}`, id, id, id)
}

func (m *storeMock) details(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/details/")
	w.Header().Set("Content-Type", "application/json")
	_, _ = fmt.Fprintf(w, `{"Title":"App %s","IconUrl":%q}`, id, m.URL("/icons/"+id+".png"))
}

func (m *storeMock) graph(w http.ResponseWriter, r *http.Request) {
	record := capturedRequest{
		Method: r.Method,
		Path:   strings.TrimPrefix(r.URL.Path, "/graph"),
		Auth:   r.Header.Get("Authorization"),
	}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &record.Body)
	}
	m.mu.Lock()
	m.requests = append(m.requests, record)
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && record.Path == "/deviceAppManagement/mobileApps":
		m.mu.Lock()
		m.created++
		id := fmt.Sprintf("app-%d", m.created)
		m.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = fmt.Fprintf(w, `{"id":%q,"publishingState":"processing"}`, id)
	case r.Method == http.MethodGet && strings.HasPrefix(record.Path, "/deviceAppManagement/mobileApps/"):
		id := strings.TrimPrefix(record.Path, "/deviceAppManagement/mobileApps/")
		m.mu.Lock()
		m.gets[id]++
		state := "processing"
		if m.gets[id] >= 2 {
			state = "published"
		}
		m.mu.Unlock()
		_, _ = fmt.Fprintf(w, `{"id":%q,"publishingState":%q}`, id, state)
	case r.Method == http.MethodPost && strings.HasSuffix(record.Path, "/assign"):
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (m *storeMock) graphRequests(method string, suffix string) []capturedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []capturedRequest
	for _, req := range m.requests {
		if req.Method == method && strings.HasSuffix(req.Path, suffix) {
			out = append(out, req)
		}
	}
	return out
}
