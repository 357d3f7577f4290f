// Package postgres stores stylesheets in a PostgreSQL table keyed by
// (container, name). It uses pgx/v5; the request path opens a single
// connection per invocation while cmd/server uses a pool for migrations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/xsltfn/pkg/storage"
)

// querier is the subset shared by *pgx.Conn and *pgxpool.Pool.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// Store is a PostgreSQL-backed stylesheet store.
type Store struct {
	db    querier
	close func() error
}

// Ensure Store implements storage.Client at compile time.
var _ storage.Client = (*Store)(nil)

// New creates a pooled store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{db: pool, close: func() error { pool.Close(); return nil }}

	if cfg.MigrateOnStart {
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// Fetch returns the content of the named stylesheet. A missing row is
// reported as ErrContainerNotFound when the container itself is unknown.
func (s *Store) Fetch(ctx context.Context, container, name string) ([]byte, error) {
	var content []byte
	err := s.db.QueryRow(ctx,
		`SELECT content FROM stylesheets WHERE container = $1 AND name = $2`,
		container, name,
	).Scan(&content)
	if err == nil {
		return content, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("querying stylesheet: %w", err)
	}

	exists, err := s.containerExists(ctx, container)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("container %q: %w", container, storage.ErrContainerNotFound)
	}
	return nil, fmt.Errorf("object %q in container %q: %w", name, container, storage.ErrObjectNotFound)
}

// CreateContainer registers a container. Creating an existing container
// is a no-op.
func (s *Store) CreateContainer(ctx context.Context, container string) error {
	if _, err := s.db.Exec(ctx,
		`INSERT INTO containers (name) VALUES ($1) ON CONFLICT DO NOTHING`,
		container,
	); err != nil {
		return fmt.Errorf("creating container: %w", err)
	}
	return nil
}

// Put inserts or replaces a stylesheet, creating its container if needed.
func (s *Store) Put(ctx context.Context, container, name string, content []byte) error {
	if err := s.CreateContainer(ctx, container); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO stylesheets (container, name, content, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (container, name)
		DO UPDATE SET content = EXCLUDED.content, updated_at = now()
	`, container, name, content)
	if err != nil {
		return fmt.Errorf("upserting stylesheet: %w", err)
	}
	return nil
}

// Delete removes a stylesheet. Deleting a missing row returns ErrObjectNotFound.
func (s *Store) Delete(ctx context.Context, container, name string) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM stylesheets WHERE container = $1 AND name = $2`,
		container, name,
	)
	if err != nil {
		return fmt.Errorf("deleting stylesheet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrObjectNotFound
	}
	return nil
}

// HealthCheck verifies database connectivity.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close releases the underlying connection or pool.
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

func (s *Store) containerExists(ctx context.Context, container string) (bool, error) {
	var exists bool
	if err := s.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM containers WHERE name = $1)`,
		container,
	).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking container: %w", err)
	}
	return exists, nil
}

// Driver opens a single connection per request for postgres:// and
// postgresql:// connection strings.
type Driver struct{}

// Ensure Driver implements storage.Driver at compile time.
var _ storage.Driver = Driver{}

// Name returns the driver label.
func (Driver) Name() string { return "postgres" }

// Accepts reports whether connString uses a postgres URL scheme.
func (Driver) Accepts(connString string) bool {
	return strings.HasPrefix(connString, "postgres://") || strings.HasPrefix(connString, "postgresql://")
}

// Open parses connString and connects. Parse failures are reported as
// ErrInvalidConnectionString; connection failures are returned wrapped.
func (Driver) Open(ctx context.Context, connString string) (storage.Client, error) {
	connCfg, err := pgx.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrInvalidConnectionString, err)
	}

	conn, err := pgx.ConnectConfig(ctx, connCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Store{
		db: conn,
		close: func() error {
			return conn.Close(context.Background())
		},
	}, nil
}
