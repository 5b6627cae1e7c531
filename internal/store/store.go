// Package store persists the canonical price table. Uniqueness by
// ingredient name is enforced natively (primary key on name); the
// deduplication maintainer remains as a repair tool for rows predating
// that constraint.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/rasoi-group/market-intel/internal/config"
	"github.com/rasoi-group/market-intel/internal/model"
)

// Store defines the persistence interface for the canonical price table.
type Store interface {
	// UpsertPrices writes records keyed by name: an existing name is
	// fully replaced, a new name is inserted. Atomic per record; no
	// read-then-write race. Returns the number of rows written.
	UpsertPrices(ctx context.Context, records []model.PriceRecord) (int64, error)

	// ListPrices returns the full table, newest first.
	ListPrices(ctx context.Context) ([]model.PriceRecord, error)

	// GetPrice returns the record for a name, or nil if absent.
	GetPrice(ctx context.Context, name string) (*model.PriceRecord, error)

	// Deduplicate keeps the most recent record per name and deletes the
	// rest, returning how many rows were removed. Idempotent.
	Deduplicate(ctx context.Context) (int64, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a Store for the configured driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	case "sqlite":
		return NewSQLite(cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q (valid: postgres, sqlite)", cfg.Driver)
	}
}
