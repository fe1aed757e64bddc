package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLite(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteSaveAndGet(t *testing.T) {
	repo := newTestSQLite(t)
	ctx := context.Background()

	want := testReceipt("r1", time.Date(2024, 3, 4, 10, 30, 0, 123456789, time.UTC))
	if err := repo.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.Get(ctx, "r1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != want.ID || got.Store != want.Store || got.Date != want.Date ||
		got.Currency != want.Currency || got.Total != want.Total || got.OCRText != want.OCRText {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if !got.UploadedAt.Equal(want.UploadedAt) {
		t.Errorf("uploaded_at = %v, want %v", got.UploadedAt, want.UploadedAt)
	}
	if len(got.Items) != 2 {
		t.Fatalf("got %d items, want 2", len(got.Items))
	}
	if got.Items[0].Name != "Milk" || got.Items[1].Name != "Soap" {
		t.Errorf("item order not preserved: %+v", got.Items)
	}
}

func TestSQLiteGetNotFound(t *testing.T) {
	repo := newTestSQLite(t)

	_, err := repo.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestSQLiteListNewestFirst(t *testing.T) {
	repo := newTestSQLite(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		if err := repo.Save(ctx, testReceipt(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	got, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"new", "mid", "old"}
	if len(got) != len(want) {
		t.Fatalf("got %d receipts, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, got[i].ID, id)
		}
		if len(got[i].Items) != 2 {
			t.Errorf("receipt %s: got %d items, want 2", id, len(got[i].Items))
		}
	}
}

func TestSQLiteSaveRejectsDuplicateID(t *testing.T) {
	repo := newTestSQLite(t)
	ctx := context.Background()

	r := testReceipt("r1", time.Now().UTC())
	if err := repo.Save(ctx, r); err != nil {
		t.Fatalf("first Save: %v", err)
	}
	if err := repo.Save(ctx, r); err == nil {
		t.Fatal("expected error on duplicate id")
	}
}
