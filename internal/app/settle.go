package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"intune-store-importer/internal/core"
	"intune-store-importer/internal/ports"
	"intune-store-importer/internal/types"
)

const defaultSettleDelay = 3 * time.Second
const defaultSettleTimeout = 2 * time.Minute
const defaultSettleInitialInterval = time.Second
const defaultSettleMaxInterval = 15 * time.Second

var errNotPublished = errors.New("application not yet published")

func normalizeSettleConfig(cfg SettleConfig) SettleConfig {
	if cfg.Mode == "" {
		cfg.Mode = SettleModeDelay
	}
	if cfg.Delay < 0 {
		cfg.Delay = defaultSettleDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSettleTimeout
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = defaultSettleInitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = defaultSettleMaxInterval
	}
	if cfg.MaxInterval < cfg.InitialInterval {
		cfg.MaxInterval = cfg.InitialInterval
	}
	return cfg
}

// settler waits until a freshly created application can be assigned.
type settler struct {
	backend ports.AppBackendPort
	config  SettleConfig
	sleep   func(ctx context.Context, d time.Duration) error
}

func (s settler) wait(ctx context.Context, appID string) error {
	switch s.config.Mode {
	case SettleModePoll:
		return s.poll(ctx, appID)
	case SettleModeDelay:
		sleep := s.sleep
		if sleep == nil {
			sleep = sleepContext
		}
		return sleep(ctx, s.config.Delay)
	default:
		return core.NewError(core.KindInvalidInput, fmt.Sprintf("unsupported settle mode %q", s.config.Mode), nil)
	}
}

func (s settler) poll(ctx context.Context, appID string) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.config.InitialInterval
	policy.MaxInterval = s.config.MaxInterval
	policy.MaxElapsedTime = s.config.Timeout
	attempts := 0
	operation := func() error {
		attempts++
		app, err := s.backend.GetApp(ctx, appID)
		if err != nil {
			if core.IsKind(err, core.KindUnauthorized) {
				return backoff.Permanent(err)
			}
			return err
		}
		if app.PublishingState != types.PublishingStatePublished {
			return errNotPublished
		}
		return nil
	}
	err := backoff.Retry(operation, backoff.WithContext(policy, ctx))
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if core.IsKind(err, core.KindUnauthorized) {
		return err
	}
	return core.NewError(core.KindImportTimedOut,
		fmt.Sprintf("application %s not ready after %s (%d checks)", appID, s.config.Timeout, attempts), err)
}
