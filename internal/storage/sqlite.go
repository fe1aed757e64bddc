package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"scontrino/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores receipts and their line items in SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ReceiptStore = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Save(ctx context.Context, receipt core.Receipt) error {
	if err := receipt.Validate(); err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO receipts (id, filename, uploaded_at, store, date, currency, total, ocr_text)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		receipt.ID, receipt.Filename, receipt.UploadedAt.UTC().Format(time.RFC3339Nano),
		receipt.Store, receipt.Date, receipt.Currency, receipt.Total, receipt.OCRText)
	if err != nil {
		return fmt.Errorf("insert receipt: %w", err)
	}

	for pos, item := range receipt.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO receipt_items (receipt_id, position, name, price, category)
			 VALUES (?, ?, ?, ?, ?)`,
			receipt.ID, pos, item.Name, item.Price, string(item.Category))
		if err != nil {
			return fmt.Errorf("insert receipt item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	slog.InfoContext(ctx, "Receipt saved to SQLite",
		"id", receipt.ID,
		"store", receipt.Store,
		"total", receipt.Total,
		"items", len(receipt.Items))

	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]core.Receipt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, filename, uploaded_at, store, date, currency, total, ocr_text
		 FROM receipts ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query receipts: %w", err)
	}
	defer rows.Close()

	var receipts []core.Receipt
	for rows.Next() {
		receipt, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, receipt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipts: %w", err)
	}

	for i := range receipts {
		items, err := r.loadItems(ctx, receipts[i].ID)
		if err != nil {
			return nil, err
		}
		receipts[i].Items = items
	}
	return receipts, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (core.Receipt, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, filename, uploaded_at, store, date, currency, total, ocr_text
		 FROM receipts WHERE id = ?`, id)

	receipt, err := scanReceipt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Receipt{}, ErrNotFound
	}
	if err != nil {
		return core.Receipt{}, err
	}

	items, err := r.loadItems(ctx, receipt.ID)
	if err != nil {
		return core.Receipt{}, err
	}
	receipt.Items = items
	return receipt, nil
}

func (r *SQLiteRepository) loadItems(ctx context.Context, receiptID string) ([]core.LineItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, price, category FROM receipt_items
		 WHERE receipt_id = ? ORDER BY position`, receiptID)
	if err != nil {
		return nil, fmt.Errorf("query receipt items: %w", err)
	}
	defer rows.Close()

	var items []core.LineItem
	for rows.Next() {
		var item core.LineItem
		var category string
		if err := rows.Scan(&item.Name, &item.Price, &category); err != nil {
			return nil, fmt.Errorf("scan receipt item: %w", err)
		}
		item.Category = core.Category(category)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate receipt items: %w", err)
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReceipt(row rowScanner) (core.Receipt, error) {
	var r core.Receipt
	var uploadedAt string
	if err := row.Scan(&r.ID, &r.Filename, &uploadedAt, &r.Store, &r.Date, &r.Currency, &r.Total, &r.OCRText); err != nil {
		return core.Receipt{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, uploadedAt)
	if err != nil {
		return core.Receipt{}, fmt.Errorf("parse uploaded_at %q: %w", uploadedAt, err)
	}
	r.UploadedAt = ts
	return r, nil
}
