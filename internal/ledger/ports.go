// Package ledger defines the outbound port for exporting receipts to an
// external spending ledger.
package ledger

import (
	"context"

	"scontrino/internal/core"
)

// ReceiptLedger appends interpreted receipts to an external ledger and
// returns an opaque row reference.
type ReceiptLedger interface {
	AppendReceipt(ctx context.Context, r core.Receipt) (rowRef string, err error)
}
