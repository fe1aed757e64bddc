// Package storage persists interpreted receipts.
//
// Two backends share one port: a flat-file JSON store matching the original
// deployment format, and a SQLite repository for anything beyond toy sizes.
package storage

import (
	"context"
	"errors"

	"scontrino/internal/core"
)

// ErrNotFound is returned by Get for unknown receipt ids.
var ErrNotFound = errors.New("receipt not found")

// ReceiptStore is the persistence port consumed by the HTTP layer and the
// sync worker. List returns receipts newest-first by upload time; callers
// treat the returned slice as a read-only snapshot.
type ReceiptStore interface {
	Save(ctx context.Context, r core.Receipt) error
	List(ctx context.Context) ([]core.Receipt, error)
	Get(ctx context.Context, id string) (core.Receipt, error)
	Close() error
}
