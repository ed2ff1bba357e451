package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/repo"
	"github.com/hamed0406/sitewatch/internal/status"
)

// Rechecker probes every registered endpoint on an interval and stores the
// latest observation of each.
type Rechecker struct {
	Logger    *zap.Logger
	Endpoints repo.EndpointStore
	Results   repo.ObservationStore
	Runner    status.Runner
	Interval  time.Duration
	Timeout   time.Duration
	now       func() time.Time
}

func NewRechecker(
	logger *zap.Logger,
	es repo.EndpointStore,
	rs repo.ObservationStore,
	runner status.Runner,
	interval time.Duration,
	timeout time.Duration,
) *Rechecker {
	if interval < 0 {
		interval = 0
	}
	if timeout <= 0 {
		timeout = status.DefaultTimeout
	}
	return &Rechecker{
		Logger:    logger,
		Endpoints: es,
		Results:   rs,
		Runner:    runner,
		Interval:  interval,
		Timeout:   timeout,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run starts the loop. It does an immediate pass, then runs each tick.
// Stops when ctx is cancelled.
func (r *Rechecker) Run(ctx context.Context) {
	if r.Interval == 0 {
		// disabled
		r.Logger.Info("rechecker_disabled")
		return
	}
	t := time.NewTicker(r.Interval)
	defer t.Stop()

	// immediate pass
	r.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			r.Logger.Info("rechecker_stopped")
			return
		case <-t.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Rechecker) runOnce(ctx context.Context) {
	eps, err := r.Endpoints.ListEndpoints(ctx)
	if err != nil {
		r.Logger.Warn("rechecker_list_error", zap.Error(err))
		return
	}
	if len(eps) == 0 {
		return
	}

	start := time.Now()
	outcomes, err := r.Runner.RunAll(ctx, eps, r.Timeout)
	if err != nil {
		r.Logger.Warn("rechecker_run_error", zap.Error(err))
		return
	}

	checkedAt := r.now()
	obs := make([]domain.Observation, len(outcomes))
	down := 0
	for i, o := range outcomes {
		obs[i] = domain.NewObservation(o.Endpoint.ID, o.Result, checkedAt)
		if o.Result.Kind.Severity() == domain.SeverityDanger {
			down++
		}
		r.Logger.Debug("rechecker_checked",
			zap.String("endpoint_id", string(o.Endpoint.ID)),
			zap.String("url", o.Endpoint.TargetURL),
			zap.String("kind", string(o.Result.Kind)),
			zap.String("text", o.Result.DisplayText),
		)
	}

	if err := r.Results.SaveLatest(ctx, obs); err != nil {
		r.Logger.Warn("rechecker_save_error", zap.Error(err))
		return
	}
	r.Logger.Info("rechecker_pass",
		zap.Int("endpoints", len(obs)),
		zap.Int("danger", down),
		zap.Duration("took", time.Since(start)),
	)
}
