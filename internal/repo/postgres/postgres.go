package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/repo"
)

var _ repo.Store = (*Store)(nil)

// SchemaSQL creates the tables the store needs. It is idempotent.
const SchemaSQL = `
CREATE TABLE IF NOT EXISTS endpoints (
  seq        BIGSERIAL   UNIQUE,
  id         TEXT        PRIMARY KEY,
  name       TEXT        NOT NULL,
  target_url TEXT        NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS latest_observations (
  endpoint_id  TEXT        PRIMARY KEY REFERENCES endpoints(id) ON DELETE CASCADE,
  status_kind  TEXT        NOT NULL,
  http_status  INTEGER     NULL,
  latency_ms   BIGINT      NULL,
  display_text TEXT        NOT NULL,
  checked_at   TIMESTAMPTZ NOT NULL
);
`

type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

func New(ctx context.Context, dsn string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Store{pool: pool, log: log}, nil
}

// Migrate applies SchemaSQL.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, SchemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	s.log.Info("postgres_schema_ready")
	return nil
}

func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// ---- EndpointStore ----

func (s *Store) AddEndpoint(ctx context.Context, name, rawURL string) (domain.Endpoint, error) {
	ep, err := repo.Prepare(name, rawURL)
	if err != nil {
		return domain.Endpoint{}, err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO endpoints (id, name, target_url, created_at)
		 VALUES ($1, $2, $3, $4)`,
		string(ep.ID), ep.Name, ep.TargetURL, ep.CreatedAt,
	)
	if err != nil {
		return domain.Endpoint{}, fmt.Errorf("insert endpoint: %w", err)
	}
	return ep, nil
}

func (s *Store) ListEndpoints(ctx context.Context) ([]domain.Endpoint, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, target_url, created_at
		   FROM endpoints
		  ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list endpoints: %w", err)
	}
	defer rows.Close()

	out := []domain.Endpoint{}
	for rows.Next() {
		var ep domain.Endpoint
		if err := rows.Scan(&ep.ID, &ep.Name, &ep.TargetURL, &ep.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan endpoint: %w", err)
		}
		out = append(out, ep)
	}
	return out, rows.Err()
}

func (s *Store) GetEndpoint(ctx context.Context, id domain.EndpointID) (domain.Endpoint, error) {
	var ep domain.Endpoint
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, target_url, created_at FROM endpoints WHERE id = $1`, string(id),
	).Scan(&ep.ID, &ep.Name, &ep.TargetURL, &ep.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Endpoint{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Endpoint{}, fmt.Errorf("get endpoint: %w", err)
	}
	return ep, nil
}

// DeleteEndpoint relies on ON DELETE CASCADE for the observation row.
func (s *Store) DeleteEndpoint(ctx context.Context, id domain.EndpointID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM endpoints WHERE id = $1`, string(id))
	if err != nil {
		return fmt.Errorf("delete endpoint: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ---- ObservationStore ----

func (s *Store) SaveLatest(ctx context.Context, obs []domain.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	const q = `
		INSERT INTO latest_observations
		  (endpoint_id, status_kind, http_status, latency_ms, display_text, checked_at)
		SELECT $1::text, $2::text, $3::int, $4::bigint, $5::text, $6::timestamptz
		 WHERE EXISTS (SELECT 1 FROM endpoints WHERE id = $1)
		ON CONFLICT (endpoint_id) DO UPDATE SET
		  status_kind  = EXCLUDED.status_kind,
		  http_status  = EXCLUDED.http_status,
		  latency_ms   = EXCLUDED.latency_ms,
		  display_text = EXCLUDED.display_text,
		  checked_at   = EXCLUDED.checked_at
		WHERE EXCLUDED.checked_at >= latest_observations.checked_at`

	batch := &pgx.Batch{}
	for _, o := range obs {
		batch.Queue(q, string(o.EndpointID), string(o.Kind), o.HTTPStatus, o.LatencyMS, o.DisplayText, o.CheckedAt)
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save latest: %w", err)
	}
	return nil
}

func (s *Store) Latest(ctx context.Context) (map[domain.EndpointID]domain.Observation, error) {
	rows, err := s.pool.Query(ctx, `
SELECT endpoint_id, status_kind, http_status, latency_ms, display_text, checked_at
  FROM latest_observations`)
	if err != nil {
		return nil, fmt.Errorf("latest: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.EndpointID]domain.Observation)
	for rows.Next() {
		var (
			o          domain.Observation
			kind       string
			httpStatus *int32
		)
		if err := rows.Scan(&o.EndpointID, &kind, &httpStatus, &o.LatencyMS, &o.DisplayText, &o.CheckedAt); err != nil {
			return nil, fmt.Errorf("scan latest: %w", err)
		}
		o.Kind = domain.StatusKind(kind)
		if httpStatus != nil {
			v := int(*httpStatus)
			o.HTTPStatus = &v
		}
		out[o.EndpointID] = o
	}
	return out, rows.Err()
}
