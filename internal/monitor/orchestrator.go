package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/probe"
)

// Outcome pairs an endpoint with the result of probing it.
type Outcome struct {
	Endpoint domain.Endpoint
	Result   domain.ProbeResult
}

// Orchestrator probes a set of endpoints concurrently.
type Orchestrator struct {
	Logger  *zap.Logger
	Checker probe.Checker
	// MaxConcurrency caps simultaneous probes. Zero or less means one worker
	// per endpoint, which keeps RunAll within a single timeout.
	MaxConcurrency int
}

func NewOrchestrator(logger *zap.Logger, checker probe.Checker, maxConcurrency int) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{Logger: logger, Checker: checker, MaxConcurrency: maxConcurrency}
}

// RunAll probes every endpoint once and returns outcomes in input order.
// It waits for every probe; an empty input yields an empty result.
func (o *Orchestrator) RunAll(ctx context.Context, endpoints []domain.Endpoint, timeout time.Duration) ([]Outcome, error) {
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidTimeout, timeout)
	}
	out := make([]Outcome, len(endpoints))
	if len(endpoints) == 0 {
		return out, nil
	}

	workers := len(endpoints)
	if o.MaxConcurrency > 0 && o.MaxConcurrency < workers {
		workers = o.MaxConcurrency
	}
	pool := pond.NewPool(workers, pond.WithQueueSize(len(endpoints)))
	defer pool.StopAndWait()

	group := pool.NewGroup()
	for i, ep := range endpoints {
		group.Submit(func() {
			out[i] = Outcome{Endpoint: ep, Result: o.probe(ctx, ep, timeout)}
		})
	}
	// Tasks recover their own panics, so Wait has nothing to report.
	_ = group.Wait()

	return out, nil
}

func (o *Orchestrator) probe(ctx context.Context, ep domain.Endpoint, timeout time.Duration) (res domain.ProbeResult) {
	defer func() {
		if r := recover(); r != nil {
			o.Logger.Error("probe_panic",
				zap.String("endpoint_id", string(ep.ID)),
				zap.String("url", ep.TargetURL),
				zap.Any("panic", r),
			)
			res = domain.Unknown()
		}
	}()

	start := time.Now()
	res = o.Checker.Check(ctx, ep.TargetURL, timeout)
	o.Logger.Debug("probe_done",
		zap.String("endpoint_id", string(ep.ID)),
		zap.String("url", ep.TargetURL),
		zap.String("kind", string(res.Kind)),
		zap.Duration("took", time.Since(start)),
	)
	return res
}
