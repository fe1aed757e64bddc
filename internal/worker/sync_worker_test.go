package worker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"scontrino/internal/amqp"
	"scontrino/internal/core"
	"scontrino/internal/storage"
)

type fakeStore struct {
	receipts map[string]core.Receipt
	listErr  error
}

func (f *fakeStore) Save(ctx context.Context, r core.Receipt) error { return nil }

func (f *fakeStore) List(ctx context.Context) ([]core.Receipt, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []core.Receipt
	for _, r := range f.receipts {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeStore) Get(ctx context.Context, id string) (core.Receipt, error) {
	r, ok := f.receipts[id]
	if !ok {
		return core.Receipt{}, storage.ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) Close() error { return nil }

type fakeLedger struct {
	appended []core.Receipt
	failIDs  map[string]bool
}

func (f *fakeLedger) AppendReceipt(ctx context.Context, r core.Receipt) (string, error) {
	if f.failIDs[r.ID] {
		return "", errors.New("ledger unavailable")
	}
	f.appended = append(f.appended, r)
	return "Receipts!A2:I2", nil
}

func receipt(id string) core.Receipt {
	return core.Receipt{
		ID:         id,
		UploadedAt: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC),
		Store:      "Test Mart",
		Date:       "2024-03-04",
		Currency:   core.CurrencyUSD,
		Items:      []core.LineItem{{Name: "Milk", Price: "3.99", Category: core.CategoryGroceries}},
		Total:      "3.99",
	}
}

func TestHandleSyncMessage(t *testing.T) {
	store := &fakeStore{receipts: map[string]core.Receipt{"r1": receipt("r1")}}
	ledger := &fakeLedger{}
	w := NewSyncWorker(store, ledger)

	if err := w.HandleSyncMessage(amqp.NewReceiptSyncMessage("r1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ledger.appended) != 1 || ledger.appended[0].ID != "r1" {
		t.Errorf("appended = %+v, want r1", ledger.appended)
	}
}

func TestHandleSyncMessageUnknownReceiptDropped(t *testing.T) {
	store := &fakeStore{receipts: map[string]core.Receipt{}}
	ledger := &fakeLedger{}
	w := NewSyncWorker(store, ledger)

	// Unknown ids must not error, otherwise the broker requeues forever.
	if err := w.HandleSyncMessage(amqp.NewReceiptSyncMessage("missing")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ledger.appended) != 0 {
		t.Errorf("appended = %+v, want none", ledger.appended)
	}
}

func TestHandleSyncMessageLedgerError(t *testing.T) {
	store := &fakeStore{receipts: map[string]core.Receipt{"r1": receipt("r1")}}
	ledger := &fakeLedger{failIDs: map[string]bool{"r1": true}}
	w := NewSyncWorker(store, ledger)

	err := w.HandleSyncMessage(amqp.NewReceiptSyncMessage("r1"))
	if err == nil {
		t.Fatal("expected error from ledger")
	}
	if !strings.Contains(err.Error(), "r1") {
		t.Errorf("error %q does not name the receipt", err)
	}
}

func TestSyncAll(t *testing.T) {
	store := &fakeStore{receipts: map[string]core.Receipt{
		"r1": receipt("r1"),
		"r2": receipt("r2"),
	}}
	ledger := &fakeLedger{}
	w := NewSyncWorker(store, ledger)

	if err := w.SyncAll(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ledger.appended) != 2 {
		t.Errorf("appended %d receipts, want 2", len(ledger.appended))
	}
}

func TestSyncAllPartialFailure(t *testing.T) {
	store := &fakeStore{receipts: map[string]core.Receipt{
		"r1": receipt("r1"),
		"r2": receipt("r2"),
	}}
	ledger := &fakeLedger{failIDs: map[string]bool{"r1": true}}
	w := NewSyncWorker(store, ledger)

	err := w.SyncAll(context.Background())
	if err == nil {
		t.Fatal("expected error when a receipt fails")
	}
	if !strings.Contains(err.Error(), "1 of 2") {
		t.Errorf("error %q does not report the failure count", err)
	}
	// The healthy receipt still goes through.
	if len(ledger.appended) != 1 || ledger.appended[0].ID != "r2" {
		t.Errorf("appended = %+v, want r2 only", ledger.appended)
	}
}

func TestSyncAllListError(t *testing.T) {
	store := &fakeStore{listErr: errors.New("disk gone")}
	w := NewSyncWorker(store, &fakeLedger{})

	if err := w.SyncAll(context.Background()); err == nil {
		t.Fatal("expected error when listing fails")
	}
}
