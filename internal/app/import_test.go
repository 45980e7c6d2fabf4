package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"intune-store-importer/internal/core"
	"intune-store-importer/internal/types"
)

type stubReports struct {
	path    string
	results []types.ImportResult
}

func (s *stubReports) WriteReport(path string, results []types.ImportResult) error {
	s.path = path
	s.results = results
	return nil
}

func newTestService(manifests fakeManifests, icons *fakeIcons, backend *fakeBackend) Service {
	svc := Service{
		Manifests: manifests,
		Icons:     icons,
		Events:    &recordingSink{},
		Sleep:     noSleep,
		NewRunID:  func() string { return "run-test" },
	}
	if backend != nil {
		svc.Backend = backend
	}
	return svc
}

func states(results []types.ImportResult) []string {
	out := make([]string, 0, len(results))
	for _, result := range results {
		out = append(out, result.PackageIdentifier+":"+string(result.State))
	}
	return out
}

func TestImportHappyPath(t *testing.T) {
	manifests := fakeManifests{manifests: map[string]types.PackageManifest{
		"A": manifestFor("A", "Alpha"),
		"B": manifestFor("B", "Bravo"),
	}}
	backend := &fakeBackend{}
	svc := newTestService(manifests, &fakeIcons{}, backend)

	batch, err := svc.Import(context.Background(), ImportRequest{Apps: []types.AppDescriptor{
		{
			PackageIdentifier: "A",
			IsFeatured:        true,
			Assignments: []types.AssignmentIntent{
				{TargetType: types.TargetTypeGroup, Intent: types.InstallIntentRequired, GroupID: "g-1"},
				{TargetType: types.TargetTypeAllDevices, Intent: types.InstallIntentAvailable},
			},
		},
		{PackageIdentifier: "B"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "run-test", batch.RunID)
	assert.Equal(t, 2, batch.Succeeded)
	assert.Equal(t, 0, batch.Failed)
	if diff := cmp.Diff([]string{"A:Assigned", "B:Assigned"}, states(batch.Results)); diff != "" {
		t.Fatalf("unexpected states (-want +got):\n%s", diff)
	}

	first := batch.Results[0]
	assert.Equal(t, "app-A", first.ApplicationID)
	assert.Equal(t, 2, first.AssignmentsSubmitted)
	assert.Nil(t, first.Failure)
	assert.Equal(t, 0, batch.Results[1].AssignmentsSubmitted)

	require.Len(t, backend.created, 2)
	assert.Equal(t, "Alpha", backend.created[0].DisplayName)
	assert.True(t, backend.created[0].IsFeatured)
	assert.Equal(t, types.InstallScopeUser, backend.created[0].InstallExperience.RunAsAccount)
	require.NotNil(t, backend.created[0].InformationURL)
	assert.Equal(t, "https://support.example.com/A", *backend.created[0].InformationURL)

	require.Len(t, backend.assigns, 1, "B has no assignments and must not submit")
	assert.Equal(t, "app-A", backend.assigns[0].AppID)
	assert.Len(t, backend.assigns[0].Assignments, 2)
}

func TestImportContinuesAfterFailure(t *testing.T) {
	manifests := fakeManifests{
		manifests: map[string]types.PackageManifest{"B": manifestFor("B", "Bravo")},
		errs: map[string]error{
			"A": core.NewError(core.KindUpstreamUnavailable, "manifest lookup for A failed", nil),
		},
	}
	backend := &fakeBackend{}
	svc := newTestService(manifests, &fakeIcons{}, backend)

	batch, err := svc.Import(context.Background(), ImportRequest{Apps: []types.AppDescriptor{
		{PackageIdentifier: "A"},
		{PackageIdentifier: "B"},
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, batch.Succeeded)
	assert.Equal(t, 1, batch.Failed)

	failed := batch.Results[0]
	assert.Equal(t, types.StateManifestFailed, failed.State)
	require.NotNil(t, failed.Failure)
	assert.Equal(t, types.StageManifest, failed.Failure.Stage)
	assert.Equal(t, string(core.KindUpstreamUnavailable), failed.Failure.ErrorKind)
	assert.Equal(t, "manifest lookup for A failed", failed.Failure.Message)
	assert.Equal(t, types.StateAssigned, batch.Results[1].State)
}

func TestImportEmptyVersionsStopsBeforeDownstream(t *testing.T) {
	empty := manifestFor("A", "Alpha")
	empty.Versions = nil
	icons := &fakeIcons{}
	backend := &fakeBackend{}
	svc := newTestService(fakeManifests{manifests: map[string]types.PackageManifest{"A": empty}}, icons, backend)

	batch, err := svc.Import(context.Background(), ImportRequest{Apps: []types.AppDescriptor{{PackageIdentifier: "A"}}})
	require.NoError(t, err)

	result := batch.Results[0]
	assert.Equal(t, types.StateManifestFailed, result.State)
	assert.Equal(t, string(core.KindManifestNotFound), result.Failure.ErrorKind)
	assert.Empty(t, icons.calls)
	assert.Empty(t, backend.created)
}

func TestImportStageFailures(t *testing.T) {
	tests := []struct {
		name      string
		icons     *fakeIcons
		backend   *fakeBackend
		manifest  func() types.PackageManifest
		wantState types.ImportState
		wantStage types.Stage
		wantKind  core.ErrorKind
		wantAppID string
	}{
		{
			name:      "icon not found",
			icons:     &fakeIcons{errs: map[string]error{"A": core.NewError(core.KindIconNotFound, "no icon", nil)}},
			backend:   &fakeBackend{},
			wantState: types.StateIconFailed,
			wantStage: types.StageIcon,
			wantKind:  core.KindIconNotFound,
		},
		{
			name:      "icon download failed",
			icons:     &fakeIcons{errs: map[string]error{"A": core.NewError(core.KindDownloadFailed, "icon download failed", nil)}},
			backend:   &fakeBackend{},
			wantState: types.StateIconFailed,
			wantStage: types.StageIcon,
			wantKind:  core.KindDownloadFailed,
		},
		{
			name:  "manifest without installers",
			icons: &fakeIcons{},
			manifest: func() types.PackageManifest {
				manifest := manifestFor("A", "Alpha")
				manifest.Installers = nil
				return manifest
			},
			backend:   &fakeBackend{},
			wantState: types.StateBuildFailed,
			wantStage: types.StageBuild,
			wantKind:  core.KindInvalidInput,
		},
		{
			name:      "create rejected",
			icons:     &fakeIcons{},
			backend:   &fakeBackend{createErrs: map[string]error{"A": core.NewError(core.KindImportRejected, "backend rejected A", nil)}},
			wantState: types.StateCreateFailed,
			wantStage: types.StageCreate,
			wantKind:  core.KindImportRejected,
		},
		{
			name:      "assignment rejected keeps application id",
			icons:     &fakeIcons{},
			backend:   &fakeBackend{assignErr: core.NewError(core.KindAssignmentRejected, "bad group", nil)},
			wantState: types.StateAssignmentFailed,
			wantStage: types.StageAssign,
			wantKind:  core.KindAssignmentRejected,
			wantAppID: "app-A",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manifest := manifestFor("A", "Alpha")
			if tt.manifest != nil {
				manifest = tt.manifest()
			}
			svc := newTestService(fakeManifests{manifests: map[string]types.PackageManifest{"A": manifest}}, tt.icons, tt.backend)
			batch, err := svc.Import(context.Background(), ImportRequest{Apps: []types.AppDescriptor{{
				PackageIdentifier: "A",
				Assignments:       []types.AssignmentIntent{{TargetType: types.TargetTypeGroup, Intent: types.InstallIntentRequired, GroupID: "g-1"}},
			}}})
			require.NoError(t, err)
			result := batch.Results[0]
			assert.Equal(t, tt.wantState, result.State)
			require.NotNil(t, result.Failure)
			assert.Equal(t, tt.wantStage, result.Failure.Stage)
			assert.Equal(t, string(tt.wantKind), result.Failure.ErrorKind)
			assert.Equal(t, tt.wantAppID, result.ApplicationID)
			assert.Equal(t, 1, batch.Failed)
		})
	}
}

func TestImportInvalidDescriptorSkipsNetwork(t *testing.T) {
	icons := &fakeIcons{}
	backend := &fakeBackend{}
	svc := newTestService(fakeManifests{errs: map[string]error{"A": assert.AnError}}, icons, backend)

	batch, err := svc.Import(context.Background(), ImportRequest{Apps: []types.AppDescriptor{{
		PackageIdentifier: "A",
		Assignments:       []types.AssignmentIntent{{TargetType: types.TargetTypeGroup, Intent: types.InstallIntentRequired}},
	}}})
	require.NoError(t, err)
	result := batch.Results[0]
	assert.Equal(t, types.StateBuildFailed, result.State)
	assert.Equal(t, types.StageBuild, result.Failure.Stage)
	assert.Equal(t, string(core.KindInvalidInput), result.Failure.ErrorKind)
	assert.Empty(t, icons.calls)
}

func TestImportDropsUnknownTargets(t *testing.T) {
	backend := &fakeBackend{}
	sink := &recordingSink{}
	svc := newTestService(fakeManifests{manifests: map[string]types.PackageManifest{"A": manifestFor("A", "Alpha")}}, &fakeIcons{}, backend)
	svc.Events = sink

	batch, err := svc.Import(context.Background(), ImportRequest{Apps: []types.AppDescriptor{{
		PackageIdentifier: "A",
		Assignments:       []types.AssignmentIntent{{TargetType: "everyone", Intent: types.InstallIntentRequired}},
	}}})
	require.NoError(t, err)
	assert.Equal(t, types.StateAssigned, batch.Results[0].State)
	assert.Equal(t, 0, batch.Results[0].AssignmentsSubmitted)
	assert.Empty(t, backend.assigns)
	assert.Contains(t, sink.messages(), "dropping assignment with unrecognized target type")
}

func TestImportDryRun(t *testing.T) {
	svc := newTestService(fakeManifests{manifests: map[string]types.PackageManifest{"A": manifestFor("A", "Alpha")}}, &fakeIcons{}, nil)

	batch, err := svc.Import(context.Background(), ImportRequest{
		DryRun: true,
		Apps:   []types.AppDescriptor{{PackageIdentifier: "A"}},
	})
	require.NoError(t, err)
	result := batch.Results[0]
	assert.Equal(t, types.StateDescriptorBuilt, result.State)
	assert.True(t, result.Succeeded())
	require.NotNil(t, result.Descriptor)
	assert.Equal(t, "Alpha", result.Descriptor.DisplayName)
	assert.Empty(t, result.ApplicationID)
}

func TestImportRequiresBackendUnlessDryRun(t *testing.T) {
	svc := newTestService(fakeManifests{}, &fakeIcons{}, nil)
	_, err := svc.Import(context.Background(), ImportRequest{Apps: []types.AppDescriptor{{PackageIdentifier: "A"}}})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestImportRejectsUnknownSettleMode(t *testing.T) {
	svc := newTestService(fakeManifests{}, &fakeIcons{}, &fakeBackend{})
	_, err := svc.Import(context.Background(), ImportRequest{
		Apps:   []types.AppDescriptor{{PackageIdentifier: "A"}},
		Settle: SettleConfig{Mode: "forever"},
	})
	require.Error(t, err)
	assert.Equal(t, errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err))
}

func TestImportPollTimeout(t *testing.T) {
	backend := &fakeBackend{}
	svc := newTestService(fakeManifests{manifests: map[string]types.PackageManifest{"A": manifestFor("A", "Alpha")}}, &fakeIcons{}, backend)

	batch, err := svc.Import(context.Background(), ImportRequest{
		Apps: []types.AppDescriptor{{PackageIdentifier: "A"}},
		Settle: SettleConfig{
			Mode:            SettleModePoll,
			Timeout:         30 * time.Millisecond,
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
		},
	})
	require.NoError(t, err)
	result := batch.Results[0]
	assert.Equal(t, types.StateCreateFailed, result.State)
	assert.Equal(t, string(core.KindImportTimedOut), result.Failure.ErrorKind)
	assert.Equal(t, "app-A", result.ApplicationID)
	assert.Greater(t, backend.gets, 0)
}

func TestImportWorkersPreserveOrder(t *testing.T) {
	manifests := fakeManifests{manifests: map[string]types.PackageManifest{}}
	apps := make([]types.AppDescriptor, 0, 12)
	want := make([]string, 0, 12)
	for i := 0; i < 12; i++ {
		id := fmt.Sprintf("PKG%02d", i)
		manifests.manifests[id] = manifestFor(id, "App "+id)
		apps = append(apps, types.AppDescriptor{PackageIdentifier: id})
		want = append(want, id+":Assigned")
	}
	svc := newTestService(manifests, &fakeIcons{}, &fakeBackend{})

	batch, err := svc.Import(context.Background(), ImportRequest{Apps: apps, Workers: 4})
	require.NoError(t, err)
	if diff := cmp.Diff(want, states(batch.Results)); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestImportCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc := newTestService(fakeManifests{manifests: map[string]types.PackageManifest{"A": manifestFor("A", "Alpha")}}, &fakeIcons{}, &fakeBackend{})

	batch, err := svc.Import(ctx, ImportRequest{Apps: []types.AppDescriptor{{PackageIdentifier: "A"}}})
	require.NoError(t, err)
	assert.Equal(t, string(core.KindCanceled), batch.Results[0].Failure.ErrorKind)
}

func TestFailureKindDuringCancellation(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want core.ErrorKind
	}{
		{
			name: "rejection keeps its kind",
			ctx:  canceled,
			err:  core.NewError(core.KindImportRejected, "bad request", nil),
			want: core.KindImportRejected,
		},
		{
			name: "assignment rejection keeps its kind",
			ctx:  canceled,
			err:  core.NewError(core.KindAssignmentRejected, "forbidden", nil),
			want: core.KindAssignmentRejected,
		},
		{
			name: "unclassified error on canceled run",
			ctx:  canceled,
			err:  fmt.Errorf("connection reset"),
			want: core.KindCanceled,
		},
		{
			name: "context error",
			ctx:  context.Background(),
			err:  fmt.Errorf("create: %w", context.Canceled),
			want: core.KindCanceled,
		},
		{
			name: "deadline",
			ctx:  context.Background(),
			err:  context.DeadlineExceeded,
			want: core.KindCanceled,
		},
		{
			name: "unclassified error on live run",
			ctx:  context.Background(),
			err:  fmt.Errorf("connection reset"),
			want: core.KindInternal,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, failureKind(tt.ctx, tt.err))
		})
	}
}

func TestImportRecordsCreationTime(t *testing.T) {
	sink := &recordingSink{}
	svc := newTestService(fakeManifests{manifests: map[string]types.PackageManifest{"A": manifestFor("A", "Alpha")}}, &fakeIcons{}, &fakeBackend{})
	svc.Events = sink

	batch, err := svc.Import(context.Background(), ImportRequest{Apps: []types.AppDescriptor{{PackageIdentifier: "A"}}})
	require.NoError(t, err)
	require.NotNil(t, batch.Results[0].CreatedAt)
	assert.Equal(t, fakeCreatedAt, *batch.Results[0].CreatedAt)

	var createdAt string
	for _, event := range sink.events {
		if event.Message == "application created" {
			createdAt = event.Fields["created_at"]
		}
	}
	assert.Equal(t, "2025-06-15T10:30:00Z", createdAt)
}

func TestImportWritesReport(t *testing.T) {
	reports := &stubReports{}
	svc := newTestService(fakeManifests{manifests: map[string]types.PackageManifest{"A": manifestFor("A", "Alpha")}}, &fakeIcons{}, &fakeBackend{})
	svc.Reports = reports

	_, err := svc.Import(context.Background(), ImportRequest{
		Apps:       []types.AppDescriptor{{PackageIdentifier: "A"}},
		ReportPath: "out/report.json",
	})
	require.NoError(t, err)
	assert.Equal(t, "out/report.json", reports.path)
	require.Len(t, reports.results, 1)
}

func TestImportEmptyBatch(t *testing.T) {
	svc := newTestService(fakeManifests{}, &fakeIcons{}, &fakeBackend{})
	batch, err := svc.Import(context.Background(), ImportRequest{Apps: []types.AppDescriptor{}})
	require.NoError(t, err)
	assert.Empty(t, batch.Results)
}
