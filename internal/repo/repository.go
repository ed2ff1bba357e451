package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hamed0406/sitewatch/internal/domain"
)

// Ports (interfaces) implemented by the memory, sqlite and postgres adapters.

// EndpointStore is the registry of monitored endpoints.
type EndpointStore interface {
	// ListEndpoints returns a snapshot in insertion order.
	ListEndpoints(ctx context.Context) ([]domain.Endpoint, error)
	// AddEndpoint validates name, normalizes rawURL (https:// when no scheme)
	// and stores a new endpoint.
	AddEndpoint(ctx context.Context, name, rawURL string) (domain.Endpoint, error)
	// DeleteEndpoint returns domain.ErrNotFound for unknown ids. The
	// endpoint's latest observation goes with it.
	DeleteEndpoint(ctx context.Context, id domain.EndpointID) error
	GetEndpoint(ctx context.Context, id domain.EndpointID) (domain.Endpoint, error)
}

// ObservationStore keeps the latest observation per endpoint. No history.
type ObservationStore interface {
	SaveLatest(ctx context.Context, obs []domain.Observation) error
	Latest(ctx context.Context) (map[domain.EndpointID]domain.Observation, error)
}

// Store is what the adapters provide.
type Store interface {
	EndpointStore
	ObservationStore
	Close() error
}

// Prepare validates the input and returns an endpoint with a fresh id and
// creation time, ready to be inserted.
func Prepare(name, rawURL string) (domain.Endpoint, error) {
	n, err := domain.NormalizeName(name)
	if err != nil {
		return domain.Endpoint{}, err
	}
	u, err := domain.NormalizeTargetURL(rawURL)
	if err != nil {
		return domain.Endpoint{}, err
	}
	return domain.Endpoint{
		ID:        domain.EndpointID(uuid.NewString()),
		Name:      n,
		TargetURL: u,
		CreatedAt: time.Now().UTC(),
	}, nil
}
