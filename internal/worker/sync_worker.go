// Package worker mirrors stored receipts into the external ledger.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"scontrino/internal/amqp"
	"scontrino/internal/ledger"
	"scontrino/internal/storage"
)

// SyncWorker handles receipt sync messages: it fetches the receipt from
// storage and appends it to the ledger.
type SyncWorker struct {
	store  storage.ReceiptStore
	ledger ledger.ReceiptLedger
}

func NewSyncWorker(store storage.ReceiptStore, l ledger.ReceiptLedger) *SyncWorker {
	return &SyncWorker{store: store, ledger: l}
}

// HandleSyncMessage processes one sync message. An unknown receipt id is
// dropped without error so the broker does not requeue it forever.
func (w *SyncWorker) HandleSyncMessage(msg *amqp.ReceiptSyncMessage) error {
	ctx := context.Background()

	receipt, err := w.store.Get(ctx, msg.ReceiptID)
	if errors.Is(err, storage.ErrNotFound) {
		slog.Warn("Receipt in sync message not found, dropping",
			"receipt_id", msg.ReceiptID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load receipt %s: %w", msg.ReceiptID, err)
	}

	rowRef, err := w.ledger.AppendReceipt(ctx, receipt)
	if err != nil {
		return fmt.Errorf("append receipt %s to ledger: %w", msg.ReceiptID, err)
	}

	slog.Info("Receipt synced to ledger",
		"receipt_id", receipt.ID,
		"store", receipt.Store,
		"row_ref", rowRef)
	return nil
}

// SyncAll exports every stored receipt, used for startup catch-up when the
// broker may have dropped messages. Failures are logged and counted, not
// fatal, so one bad receipt does not block the rest.
func (w *SyncWorker) SyncAll(ctx context.Context) error {
	receipts, err := w.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list receipts: %w", err)
	}

	synced, failed := 0, 0
	for _, r := range receipts {
		if _, err := w.ledger.AppendReceipt(ctx, r); err != nil {
			slog.ErrorContext(ctx, "Failed to sync receipt", "receipt_id", r.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed", "synced", synced, "failed", failed)
	if failed > 0 {
		return fmt.Errorf("startup sync: %d of %d receipts failed", failed, len(receipts))
	}
	return nil
}
