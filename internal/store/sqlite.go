package store

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/rasoi-group/market-intel/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite, for embedded
// and development deployments.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS prices (
	name         TEXT PRIMARY KEY,
	unit         TEXT NOT NULL,
	market_price INTEGER NOT NULL,
	best_price   INTEGER NOT NULL,
	platform     TEXT NOT NULL,
	savings      INTEGER NOT NULL,
	source       TEXT NOT NULL,
	date         DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_prices_date ON prices(date DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sqliteUpsert = `
INSERT INTO prices (name, unit, market_price, best_price, platform, savings, source, date)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
	unit = excluded.unit,
	market_price = excluded.market_price,
	best_price = excluded.best_price,
	platform = excluded.platform,
	savings = excluded.savings,
	source = excluded.source,
	date = excluded.date`

func (s *SQLiteStore) UpsertPrices(ctx context.Context, records []model.PriceRecord) (int64, error) {
	var written int64
	for _, r := range records {
		_, err := s.db.ExecContext(ctx, sqliteUpsert,
			r.Name, r.Unit, r.MarketPrice, r.BestPrice, string(r.Platform), r.Savings, r.Source, r.Date.UTC(),
		)
		if err != nil {
			return written, eris.Wrapf(err, "sqlite: upsert %s", r.Name)
		}
		written++
	}
	return written, nil
}

func (s *SQLiteStore) ListPrices(ctx context.Context) ([]model.PriceRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, unit, market_price, best_price, platform, savings, source, date
		 FROM prices ORDER BY date DESC, name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list prices")
	}
	defer rows.Close()

	var records []model.PriceRecord
	for rows.Next() {
		var r model.PriceRecord
		var platform string
		if err := rows.Scan(&r.Name, &r.Unit, &r.MarketPrice, &r.BestPrice, &platform, &r.Savings, &r.Source, &r.Date); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan price")
		}
		r.Platform = model.Platform(platform)
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list prices iterate")
}

func (s *SQLiteStore) GetPrice(ctx context.Context, name string) (*model.PriceRecord, error) {
	var r model.PriceRecord
	var platform string
	err := s.db.QueryRowContext(ctx,
		`SELECT name, unit, market_price, best_price, platform, savings, source, date
		 FROM prices WHERE name = ?`,
		name,
	).Scan(&r.Name, &r.Unit, &r.MarketPrice, &r.BestPrice, &platform, &r.Savings, &r.Source, &r.Date)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get price %s", name)
	}
	r.Platform = model.Platform(platform)
	return &r, nil
}

func (s *SQLiteStore) Deduplicate(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM prices WHERE rowid NOT IN (
			SELECT keep FROM (
				SELECT rowid AS keep,
				       ROW_NUMBER() OVER (PARTITION BY name ORDER BY date DESC, rowid DESC) AS rn
				FROM prices
			) WHERE rn = 1
		)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: deduplicate")
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "sqlite: rows affected")
}
