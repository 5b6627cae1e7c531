package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/rasoi-group/market-intel/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses, satisfied by
// pgxmock.PgxPoolIface in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS prices (
	name         TEXT PRIMARY KEY,
	unit         TEXT NOT NULL,
	market_price INTEGER NOT NULL,
	best_price   INTEGER NOT NULL,
	platform     TEXT NOT NULL,
	savings      INTEGER NOT NULL,
	source       TEXT NOT NULL,
	date         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_prices_date ON prices(date DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

const postgresUpsert = `
INSERT INTO prices (name, unit, market_price, best_price, platform, savings, source, date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (name) DO UPDATE SET
	unit = EXCLUDED.unit,
	market_price = EXCLUDED.market_price,
	best_price = EXCLUDED.best_price,
	platform = EXCLUDED.platform,
	savings = EXCLUDED.savings,
	source = EXCLUDED.source,
	date = EXCLUDED.date`

// UpsertPrices writes each record independently so a crash mid-run
// leaves a consistent, partially updated table rather than an empty one.
func (s *PostgresStore) UpsertPrices(ctx context.Context, records []model.PriceRecord) (int64, error) {
	var written int64
	for _, r := range records {
		_, err := s.pool.Exec(ctx, postgresUpsert,
			r.Name, r.Unit, r.MarketPrice, r.BestPrice, string(r.Platform), r.Savings, r.Source, r.Date,
		)
		if err != nil {
			return written, eris.Wrapf(err, "postgres: upsert %s", r.Name)
		}
		written++
	}
	return written, nil
}

func (s *PostgresStore) ListPrices(ctx context.Context) ([]model.PriceRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, unit, market_price, best_price, platform, savings, source, date
		 FROM prices ORDER BY date DESC, name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list prices")
	}
	defer rows.Close()

	var records []model.PriceRecord
	for rows.Next() {
		var r model.PriceRecord
		var platform string
		if err := rows.Scan(&r.Name, &r.Unit, &r.MarketPrice, &r.BestPrice, &platform, &r.Savings, &r.Source, &r.Date); err != nil {
			return nil, eris.Wrap(err, "postgres: scan price")
		}
		r.Platform = model.Platform(platform)
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list prices iterate")
}

func (s *PostgresStore) GetPrice(ctx context.Context, name string) (*model.PriceRecord, error) {
	var r model.PriceRecord
	var platform string
	err := s.pool.QueryRow(ctx,
		`SELECT name, unit, market_price, best_price, platform, savings, source, date
		 FROM prices WHERE name = $1`,
		name,
	).Scan(&r.Name, &r.Unit, &r.MarketPrice, &r.BestPrice, &platform, &r.Savings, &r.Source, &r.Date)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get price %s", name)
	}
	r.Platform = model.Platform(platform)
	return &r, nil
}

// Deduplicate keeps the newest row per name. With the primary key in
// place it is a no-op; it repairs tables predating the constraint.
func (s *PostgresStore) Deduplicate(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM prices WHERE ctid NOT IN (
			SELECT DISTINCT ON (name) ctid FROM prices ORDER BY name, date DESC
		)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: deduplicate")
	}
	return tag.RowsAffected(), nil
}
