// Package status serves live endpoint statuses: list the registered
// endpoints, probe them all, and join each result with its endpoint.
package status

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/monitor"
	"github.com/hamed0406/sitewatch/internal/repo"
)

// DefaultTimeout is the per-probe deadline used when none is configured.
const DefaultTimeout = 5000 * time.Millisecond

// Runner is satisfied by *monitor.Orchestrator.
type Runner interface {
	RunAll(ctx context.Context, endpoints []domain.Endpoint, timeout time.Duration) ([]monitor.Outcome, error)
}

type Service struct {
	Logger    *zap.Logger
	Endpoints repo.EndpointStore
	Runner    Runner
	Timeout   time.Duration
}

func NewService(logger *zap.Logger, endpoints repo.EndpointStore, runner Runner, timeout time.Duration) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Service{Logger: logger, Endpoints: endpoints, Runner: runner, Timeout: timeout}
}

// GetLiveStatuses probes every registered endpoint once and returns one
// record per endpoint, in listing order.
func (s *Service) GetLiveStatuses(ctx context.Context) ([]domain.ViewRecord, error) {
	eps, err := s.Endpoints.ListEndpoints(ctx)
	if err != nil {
		return nil, fmt.Errorf("list endpoints: %w", err)
	}

	start := time.Now()
	outcomes, err := s.Runner.RunAll(ctx, eps, s.Timeout)
	if err != nil {
		return nil, err
	}

	records := make([]domain.ViewRecord, len(outcomes))
	for i, o := range outcomes {
		records[i] = domain.Assemble(o.Endpoint, o.Result)
	}
	s.Logger.Debug("live_statuses",
		zap.Int("endpoints", len(records)),
		zap.Duration("took", time.Since(start)),
	)
	return records, nil
}

// LatestStatuses joins the registered endpoints with their stored
// observations, one row per endpoint in listing order. An endpoint the
// rechecker has not observed yet gets an Unknown row.
func LatestStatuses(ctx context.Context, endpoints repo.EndpointStore, obs repo.ObservationStore) ([]domain.ViewRecord, error) {
	eps, err := endpoints.ListEndpoints(ctx)
	if err != nil {
		return nil, fmt.Errorf("list endpoints: %w", err)
	}
	latest, err := obs.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest observations: %w", err)
	}
	out := make([]domain.ViewRecord, 0, len(eps))
	for _, ep := range eps {
		r := domain.Unknown()
		if o, ok := latest[ep.ID]; ok {
			r = o.Result()
		}
		out = append(out, domain.Assemble(ep, r))
	}
	return out, nil
}
