package status

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/monitor"
	"github.com/hamed0406/sitewatch/internal/probe"
	"github.com/hamed0406/sitewatch/internal/repo/memory"
)

func newService(t *testing.T, timeout time.Duration) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	orch := monitor.NewOrchestrator(zap.NewNop(), probe.NewHTTPChecker(), 0)
	return NewService(zap.NewNop(), store, orch, timeout), store
}

func TestGetLiveStatuses_OneRowPerEndpointInOrder(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()
	missing := httptest.NewServer(http.NotFoundHandler())
	defer missing.Close()

	svc, store := newService(t, 2*time.Second)
	ctx := context.Background()
	var ids []domain.EndpointID
	for i, u := range []string{ok.URL, missing.URL, ok.URL + "/again", "http://127.0.0.1:1"} {
		ep, err := store.AddEndpoint(ctx, fmt.Sprintf("site-%d", i), u)
		require.NoError(t, err)
		ids = append(ids, ep.ID)
	}

	recs, err := svc.GetLiveStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 4)
	for i, id := range ids {
		assert.Equal(t, id, recs[i].ID)
	}
	assert.Equal(t, domain.KindReachable, recs[0].Kind)
	assert.Equal(t, domain.SeverityOK, recs[0].Severity)
	assert.Equal(t, domain.KindHTTPError, recs[1].Kind)
	assert.Equal(t, "Erro 404", recs[1].DisplayText)
	assert.Equal(t, domain.SeverityWarning, recs[1].Severity)
	assert.Equal(t, domain.KindReachable, recs[2].Kind)
	assert.Equal(t, domain.KindUnreachable, recs[3].Kind)
	assert.Equal(t, domain.SeverityDanger, recs[3].Severity)
}

func TestGetLiveStatuses_EmptyRegistry(t *testing.T) {
	svc, _ := newService(t, time.Second)
	recs, err := svc.GetLiveStatuses(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestGetLiveStatuses_IsStableForStableTargets(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/down" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc, store := newService(t, time.Second)
	ctx := context.Background()
	_, _ = store.AddEndpoint(ctx, "up", srv.URL)
	_, _ = store.AddEndpoint(ctx, "down", srv.URL+"/down")

	first, err := svc.GetLiveStatuses(ctx)
	require.NoError(t, err)
	second, err := svc.GetLiveStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Kind, second[i].Kind)
	}
}

func TestGetLiveStatuses_HangingEndpointIsolated(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	defer close(release)
	fast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer fast.Close()

	timeout := 300 * time.Millisecond
	svc, store := newService(t, timeout)
	ctx := context.Background()
	_, _ = store.AddEndpoint(ctx, "fast", fast.URL)
	_, _ = store.AddEndpoint(ctx, "slow", slow.URL)
	_, _ = store.AddEndpoint(ctx, "fast-2", fast.URL+"/2")

	start := time.Now()
	recs, err := svc.GetLiveStatuses(ctx)
	took := time.Since(start)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, domain.KindReachable, recs[0].Kind)
	assert.Equal(t, domain.KindTimedOut, recs[1].Kind)
	assert.Equal(t, "Lento", recs[1].DisplayText)
	assert.Nil(t, recs[1].LatencyMS)
	assert.Equal(t, domain.KindReachable, recs[2].Kind)
	assert.Less(t, took, timeout+time.Second)
}

type failingStore struct{ memory.Store }

func (f *failingStore) ListEndpoints(ctx context.Context) ([]domain.Endpoint, error) {
	return nil, errors.New("db down")
}

func TestGetLiveStatuses_ListErrorPropagates(t *testing.T) {
	orch := monitor.NewOrchestrator(nil, probe.NewHTTPChecker(), 0)
	svc := NewService(nil, &failingStore{}, orch, time.Second)
	_, err := svc.GetLiveStatuses(context.Background())
	require.Error(t, err)
}

func TestGetLiveStatuses_InvalidTimeout(t *testing.T) {
	svc, store := newService(t, -time.Second)
	_, _ = store.AddEndpoint(context.Background(), "x", "example.com")
	_, err := svc.GetLiveStatuses(context.Background())
	require.ErrorIs(t, err, domain.ErrInvalidTimeout)
}

func TestLatestStatuses_OneRowPerEndpoint(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	a, _ := store.AddEndpoint(ctx, "a", "a.example")
	b, _ := store.AddEndpoint(ctx, "b", "b.example")
	c, _ := store.AddEndpoint(ctx, "never-checked", "c.example")

	now := time.Now()
	require.NoError(t, store.SaveLatest(ctx, []domain.Observation{
		domain.NewObservation(b.ID, domain.Unreachable(), now),
		domain.NewObservation(a.ID, domain.Responded(200, time.Millisecond), now),
	}))

	recs, err := LatestStatuses(ctx, store, store)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, a.ID, recs[0].ID)
	assert.Equal(t, domain.KindReachable, recs[0].Kind)
	assert.Equal(t, b.ID, recs[1].ID)
	assert.Equal(t, domain.SeverityDanger, recs[1].Severity)
	assert.Equal(t, c.ID, recs[2].ID)
	assert.Equal(t, domain.KindUnknown, recs[2].Kind)
	assert.Equal(t, domain.TextUnknown, recs[2].DisplayText)
	assert.Nil(t, recs[2].HTTPStatus)
}
