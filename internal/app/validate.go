package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"intune-store-importer/internal/core"
)

// Validate loads an apps file and checks every descriptor without calling
// any external service.
func (s Service) Validate(ctx context.Context, req ValidateRequest) (ValidateResult, error) {
	path := strings.TrimSpace(req.AppsPath)
	if path == "" {
		return ValidateResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("apps file path is required")
	}
	apps, err := s.Apps.LoadApps(path)
	if err != nil {
		return ValidateResult{}, err
	}
	result := ValidateResult{Apps: len(apps)}
	for _, desc := range apps {
		if err := core.ValidateDescriptor(desc); err != nil {
			return ValidateResult{}, err
		}
		assignments, dropped := core.MapAssignments(desc.Assignments)
		result.Assignments += len(assignments)
		result.DroppedAssignments += len(dropped)
		for _, intent := range dropped {
			log.Ctx(ctx).Warn().
				Str("package", desc.PackageIdentifier).
				Str("target_type", string(intent.TargetType)).
				Msg("assignment target type is not recognized and will be dropped")
		}
	}
	return result, nil
}
