package app

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"intune-store-importer/internal/core"
	"intune-store-importer/internal/types"
)

const defaultImportWorkers = 1

// Import runs every application through the import pipeline. A failing
// application is recorded in its result and never stops the batch. Results
// keep the input order.
func (s Service) Import(ctx context.Context, req ImportRequest) (ImportBatchResult, error) {
	apps := req.Apps
	if apps == nil {
		path := strings.TrimSpace(req.AppsPath)
		if path == "" {
			return ImportBatchResult{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("apps file path is required")
		}
		if s.Apps == nil {
			return ImportBatchResult{}, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("apps loader is not configured")
		}
		loaded, err := s.Apps.LoadApps(path)
		if err != nil {
			return ImportBatchResult{}, err
		}
		apps = loaded
	}
	if s.Manifests == nil || s.Icons == nil {
		return ImportBatchResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("catalog sources are not configured")
	}
	if !req.DryRun && s.Backend == nil {
		return ImportBatchResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("backend credentials are required unless dry run is set")
	}
	settle := normalizeSettleConfig(req.Settle)
	if settle.Mode != SettleModeDelay && settle.Mode != SettleModePoll {
		return ImportBatchResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unsupported settle mode")
	}
	req.Settle = settle

	runID := s.newRunID()
	logger := log.Ctx(ctx).With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx)

	results := s.importAll(ctx, runID, apps, req)
	batch := ImportBatchResult{RunID: runID, Results: results}
	for _, result := range results {
		if result.Succeeded() {
			batch.Succeeded++
		} else {
			batch.Failed++
		}
	}
	emitter{sink: s.Events, runID: runID}.emit(types.EventLevelInfo, "", "", "import finished", map[string]string{
		"total":     strconv.Itoa(len(results)),
		"succeeded": strconv.Itoa(batch.Succeeded),
		"failed":    strconv.Itoa(batch.Failed),
	})
	if strings.TrimSpace(req.ReportPath) != "" && s.Reports != nil {
		if err := s.Reports.WriteReport(req.ReportPath, results); err != nil {
			return batch, err
		}
	}
	return batch, nil
}

// importAll fans applications out to a bounded worker pool. Each worker
// writes only its own result slot.
func (s Service) importAll(ctx context.Context, runID string, apps []types.AppDescriptor, req ImportRequest) []types.ImportResult {
	results := make([]types.ImportResult, len(apps))
	workerCount := req.Workers
	if workerCount <= 0 {
		workerCount = defaultImportWorkers
	}
	if len(apps) < workerCount {
		workerCount = len(apps)
	}
	if workerCount == 0 {
		return results
	}
	tasks := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range tasks {
				results[index] = s.importOne(ctx, runID, apps[index], req)
			}
		}()
	}
	for index := range apps {
		tasks <- index
	}
	close(tasks)
	wg.Wait()
	return results
}

// importOne drives one application through
// Created -> MetadataResolved -> IconResolved -> DescriptorBuilt ->
// BackendCreated -> Assigned, stopping at the first failed stage.
func (s Service) importOne(ctx context.Context, runID string, desc types.AppDescriptor, req ImportRequest) types.ImportResult {
	events := emitter{sink: s.Events, runID: runID, pkg: desc.PackageIdentifier}
	result := types.ImportResult{
		PackageIdentifier: desc.PackageIdentifier,
		State:             types.StateCreated,
	}
	fail := func(stage types.Stage, state types.ImportState, err error) types.ImportResult {
		result.State = state
		result.Failure = &types.ImportFailure{
			Stage:     stage,
			ErrorKind: string(failureKind(ctx, err)),
			Message:   core.Message(err),
		}
		events.emit(types.EventLevelError, stage, state, "import failed", map[string]string{
			"error_kind": result.Failure.ErrorKind,
			"error":      err.Error(),
		})
		return result
	}
	events.emit(types.EventLevelInfo, "", types.StateCreated, "import started", nil)

	if err := ctx.Err(); err != nil {
		return fail(types.StageManifest, types.StateManifestFailed, err)
	}
	if err := core.ValidateDescriptor(desc); err != nil {
		return fail(types.StageBuild, types.StateBuildFailed, err)
	}

	manifest, err := s.Manifests.Resolve(ctx, desc.PackageIdentifier)
	if err != nil {
		return fail(types.StageManifest, types.StateManifestFailed, err)
	}
	if len(manifest.Versions) == 0 {
		return fail(types.StageManifest, types.StateManifestFailed,
			core.NewError(core.KindManifestNotFound, "manifest for "+desc.PackageIdentifier+" lists no versions", nil))
	}
	result.State = types.StateMetadataResolved
	events.transition(types.StageManifest, result.State)

	icon, err := s.Icons.Resolve(ctx, desc.PackageIdentifier)
	if err != nil {
		return fail(types.StageIcon, types.StateIconFailed, err)
	}
	result.State = types.StateIconResolved
	events.transition(types.StageIcon, result.State)

	if err := core.ValidateManifest(manifest); err != nil {
		return fail(types.StageBuild, types.StateBuildFailed, err)
	}
	descriptor := core.BuildBackendApp(ctx, desc, manifest, icon)
	result.State = types.StateDescriptorBuilt
	result.Descriptor = &descriptor
	events.transition(types.StageBuild, result.State)
	if req.DryRun {
		events.emit(types.EventLevelInfo, types.StageBuild, result.State, "dry run, skipping backend", nil)
		return result
	}

	importer := AppImporter{Backend: s.Backend, Settle: req.Settle, Sleep: s.Sleep}
	created, err := importer.Import(ctx, descriptor)
	appID := created.ID
	result.ApplicationID = appID
	createdFields := map[string]string{"app_id": appID}
	if !created.CreatedAt.IsZero() {
		createdAt := created.CreatedAt
		result.CreatedAt = &createdAt
		createdFields["created_at"] = createdAt.Format(time.RFC3339)
	}
	if err != nil {
		return fail(types.StageCreate, types.StateCreateFailed, err)
	}
	result.State = types.StateBackendCreated
	events.emit(types.EventLevelInfo, types.StageCreate, result.State, "application created", createdFields)

	configurator := AssignmentConfigurator{
		Backend: s.Backend,
		OnDropped: func(intent types.AssignmentIntent) {
			events.emit(types.EventLevelWarn, types.StageAssign, result.State, "dropping assignment with unrecognized target type", map[string]string{
				"target_type": string(intent.TargetType),
				"intent":      string(intent.Intent),
			})
		},
	}
	submitted, err := configurator.Configure(ctx, appID, desc.Assignments)
	if err != nil {
		return fail(types.StageAssign, types.StateAssignmentFailed, err)
	}
	result.AssignmentsSubmitted = submitted
	result.State = types.StateAssigned
	events.emit(types.EventLevelInfo, types.StageAssign, result.State, "import complete", map[string]string{
		"app_id":      appID,
		"assignments": strconv.Itoa(submitted),
	})
	return result
}

// failureKind keeps a classified failure even when the run was canceled at the
// same time; only unclassified errors are attributed to the cancellation.
func failureKind(ctx context.Context, err error) core.ErrorKind {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return core.KindCanceled
	}
	kind := core.KindOf(err)
	if kind == core.KindInternal && ctx.Err() != nil {
		return core.KindCanceled
	}
	return kind
}

func (s Service) newRunID() string {
	if s.NewRunID != nil {
		return s.NewRunID()
	}
	return uuid.NewString()
}
