package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/repo"
)

var _ repo.Store = (*Store)(nil)

type Store struct {
	mu        sync.RWMutex
	endpoints []domain.Endpoint // insertion order
	latest    *xsync.Map[domain.EndpointID, domain.Observation]
}

func New() *Store {
	return &Store{
		endpoints: make([]domain.Endpoint, 0, 16),
		latest:    xsync.NewMap[domain.EndpointID, domain.Observation](),
	}
}

func (m *Store) Close() error { return nil }

// ---- EndpointStore ----

func (m *Store) AddEndpoint(ctx context.Context, name, rawURL string) (domain.Endpoint, error) {
	ep, err := repo.Prepare(name, rawURL)
	if err != nil {
		return domain.Endpoint{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endpoints = append(m.endpoints, ep)
	return ep, nil
}

func (m *Store) ListEndpoints(ctx context.Context) ([]domain.Endpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.endpoints), nil
}

func (m *Store) GetEndpoint(ctx context.Context, id domain.EndpointID) (domain.Endpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i := m.indexOf(id); i >= 0 {
		return m.endpoints[i], nil
	}
	return domain.Endpoint{}, domain.ErrNotFound
}

func (m *Store) DeleteEndpoint(ctx context.Context, id domain.EndpointID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.indexOf(id)
	if i < 0 {
		return domain.ErrNotFound
	}
	m.endpoints = slices.Delete(m.endpoints, i, i+1)
	m.latest.Delete(id)
	return nil
}

func (m *Store) indexOf(id domain.EndpointID) int {
	return slices.IndexFunc(m.endpoints, func(e domain.Endpoint) bool { return e.ID == id })
}

// ---- ObservationStore ----

// SaveLatest keeps observations only for endpoints that are still registered.
func (m *Store) SaveLatest(ctx context.Context, obs []domain.Observation) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, o := range obs {
		if m.indexOf(o.EndpointID) < 0 {
			continue
		}
		if cur, ok := m.latest.Load(o.EndpointID); ok && cur.CheckedAt.After(o.CheckedAt) {
			continue
		}
		m.latest.Store(o.EndpointID, o)
	}
	return nil
}

func (m *Store) Latest(ctx context.Context) (map[domain.EndpointID]domain.Observation, error) {
	out := make(map[domain.EndpointID]domain.Observation, m.latest.Size())
	m.latest.Range(func(id domain.EndpointID, o domain.Observation) bool {
		out[id] = o
		return true
	})
	return out, nil
}
