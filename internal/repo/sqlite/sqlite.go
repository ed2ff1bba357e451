package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/repo"
)

var _ repo.Store = (*Store)(nil)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS endpoints (
  seq        INTEGER PRIMARY KEY AUTOINCREMENT,
  id         TEXT    NOT NULL UNIQUE,
  name       TEXT    NOT NULL,
  target_url TEXT    NOT NULL,
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS latest_observations (
  endpoint_id  TEXT    PRIMARY KEY REFERENCES endpoints(id) ON DELETE CASCADE,
  status_kind  TEXT    NOT NULL,
  http_status  INTEGER NULL,
  latency_ms   INTEGER NULL,
  display_text TEXT    NOT NULL,
  checked_at   INTEGER NOT NULL
);
`

type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Open opens (creating if needed) the database file at path and applies the
// schema.
func Open(ctx context.Context, path string, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	log.Info("sqlite_open", zap.String("path", path))
	return &Store{db: db, log: log}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// ---- EndpointStore ----

func (s *Store) AddEndpoint(ctx context.Context, name, rawURL string) (domain.Endpoint, error) {
	ep, err := repo.Prepare(name, rawURL)
	if err != nil {
		return domain.Endpoint{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO endpoints (id, name, target_url, created_at) VALUES (?, ?, ?, ?)`,
		string(ep.ID), ep.Name, ep.TargetURL, ep.CreatedAt.UnixNano(),
	)
	if err != nil {
		return domain.Endpoint{}, fmt.Errorf("insert endpoint: %w", err)
	}
	return ep, nil
}

func (s *Store) ListEndpoints(ctx context.Context) ([]domain.Endpoint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, target_url, created_at FROM endpoints ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list endpoints: %w", err)
	}
	defer rows.Close()

	out := []domain.Endpoint{}
	for rows.Next() {
		ep, err := scanEndpoint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ep)
	}
	return out, rows.Err()
}

func (s *Store) GetEndpoint(ctx context.Context, id domain.EndpointID) (domain.Endpoint, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, target_url, created_at FROM endpoints WHERE id = ?`, string(id))
	ep, err := scanEndpoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Endpoint{}, domain.ErrNotFound
	}
	return ep, err
}

func (s *Store) DeleteEndpoint(ctx context.Context, id domain.EndpointID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM latest_observations WHERE endpoint_id = ?`, string(id)); err != nil {
		return fmt.Errorf("delete observation: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM endpoints WHERE id = ?`, string(id))
	if err != nil {
		return fmt.Errorf("delete endpoint: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return tx.Commit()
}

// ---- ObservationStore ----

func (s *Store) SaveLatest(ctx context.Context, obs []domain.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO latest_observations
		  (endpoint_id, status_kind, http_status, latency_ms, display_text, checked_at)
		SELECT ?, ?, ?, ?, ?, ?
		 WHERE EXISTS (SELECT 1 FROM endpoints WHERE id = ?)
		ON CONFLICT (endpoint_id) DO UPDATE SET
		  status_kind  = excluded.status_kind,
		  http_status  = excluded.http_status,
		  latency_ms   = excluded.latency_ms,
		  display_text = excluded.display_text,
		  checked_at   = excluded.checked_at
		WHERE excluded.checked_at >= latest_observations.checked_at`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, o := range obs {
		if _, err := stmt.ExecContext(ctx,
			string(o.EndpointID), string(o.Kind), o.HTTPStatus, o.LatencyMS, o.DisplayText,
			o.CheckedAt.UnixNano(), string(o.EndpointID),
		); err != nil {
			return fmt.Errorf("upsert observation %s: %w", o.EndpointID, err)
		}
	}
	return tx.Commit()
}

func (s *Store) Latest(ctx context.Context) (map[domain.EndpointID]domain.Observation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT endpoint_id, status_kind, http_status, latency_ms, display_text, checked_at
		  FROM latest_observations`)
	if err != nil {
		return nil, fmt.Errorf("latest: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.EndpointID]domain.Observation)
	for rows.Next() {
		var (
			id, kind, text string
			httpNull       sql.NullInt64
			latNull        sql.NullInt64
			checkedAt      int64
		)
		if err := rows.Scan(&id, &kind, &httpNull, &latNull, &text, &checkedAt); err != nil {
			return nil, fmt.Errorf("scan latest: %w", err)
		}
		o := domain.Observation{
			EndpointID:  domain.EndpointID(id),
			Kind:        domain.StatusKind(kind),
			DisplayText: text,
			CheckedAt:   time.Unix(0, checkedAt).UTC(),
		}
		if httpNull.Valid {
			v := int(httpNull.Int64)
			o.HTTPStatus = &v
		}
		if latNull.Valid {
			v := latNull.Int64
			o.LatencyMS = &v
		}
		out[o.EndpointID] = o
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEndpoint(sc scanner) (domain.Endpoint, error) {
	var (
		id, name, target string
		createdAt        int64
	)
	if err := sc.Scan(&id, &name, &target, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Endpoint{}, err
		}
		return domain.Endpoint{}, fmt.Errorf("scan endpoint: %w", err)
	}
	return domain.Endpoint{
		ID:        domain.EndpointID(id),
		Name:      name,
		TargetURL: target,
		CreatedAt: time.Unix(0, createdAt).UTC(),
	}, nil
}
