package app

import (
	"context"
	"sync"
	"time"

	"intune-store-importer/internal/core"
	"intune-store-importer/internal/types"
)

type fakeManifests struct {
	manifests map[string]types.PackageManifest
	errs      map[string]error
}

func (f fakeManifests) Resolve(_ context.Context, id string) (types.PackageManifest, error) {
	if err, ok := f.errs[id]; ok {
		return types.PackageManifest{}, err
	}
	manifest, ok := f.manifests[id]
	if !ok {
		return types.PackageManifest{}, core.NewError(core.KindManifestNotFound, "no manifest for "+id, nil)
	}
	return manifest, nil
}

type fakeIcons struct {
	mu    sync.Mutex
	calls []string
	errs  map[string]error
}

func (f *fakeIcons) Resolve(_ context.Context, id string) (types.IconAsset, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	f.mu.Unlock()
	if err, ok := f.errs[id]; ok {
		return types.IconAsset{}, err
	}
	return types.IconAsset{Content: []byte("icon-" + id), MimeType: types.MimeTypePNG}, nil
}

type assignCall struct {
	AppID       string
	Assignments []types.BackendAssignment
}

type fakeBackend struct {
	mu          sync.Mutex
	created     []types.BackendAppDescriptor
	assigns     []assignCall
	gets        int
	createErrs  map[string]error
	assignErr   error
	getErr      error
	publishedAt int
}

var fakeCreatedAt = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func (f *fakeBackend) CreateApp(_ context.Context, app types.BackendAppDescriptor) (types.BackendApp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.createErrs[app.PackageIdentifier]; ok {
		return types.BackendApp{}, err
	}
	f.created = append(f.created, app)
	return types.BackendApp{ID: "app-" + app.PackageIdentifier, PublishingState: "processing", CreatedAt: fakeCreatedAt}, nil
}

func (f *fakeBackend) GetApp(_ context.Context, appID string) (types.BackendApp, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.getErr != nil {
		return types.BackendApp{}, f.getErr
	}
	state := "processing"
	if f.publishedAt > 0 && f.gets >= f.publishedAt {
		state = types.PublishingStatePublished
	}
	return types.BackendApp{ID: appID, PublishingState: state}, nil
}

func (f *fakeBackend) AssignApp(_ context.Context, appID string, assignments []types.BackendAssignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.assignErr != nil {
		return f.assignErr
	}
	f.assigns = append(f.assigns, assignCall{AppID: appID, Assignments: assignments})
	return nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []types.ImportEvent
}

func (s *recordingSink) Emit(event types.ImportEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, event := range s.events {
		out = append(out, event.Message)
	}
	return out
}

func noSleep(context.Context, time.Duration) error {
	return nil
}

func manifestFor(id string, name string) types.PackageManifest {
	return types.PackageManifest{
		PackageIdentifier: id,
		PackageName:       name,
		Publisher:         name + " Corp",
		ShortDescription:  name + " app",
		SupportURL:        "support.example.com/" + id,
		Installers:        []types.Installer{{Scope: types.InstallScopeSystem}, {Scope: types.InstallScopeUser}},
		Versions:          []string{"1.0.0"},
	}
}
