package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"scontrino/internal/core"
)

const jsonFileName = "receipts.json"

// JSONStore keeps the whole receipt collection in one JSON file, the
// original flat-file format. All operations serialize on a mutex; writes
// go through a temp file and rename so a crash never truncates the data.
type JSONStore struct {
	mu   sync.Mutex
	path string
}

var _ ReceiptStore = (*JSONStore)(nil)

func NewJSONStore(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &JSONStore{path: filepath.Join(dir, jsonFileName)}, nil
}

func (s *JSONStore) Save(ctx context.Context, r core.Receipt) error {
	if err := r.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	receipts, err := s.load()
	if err != nil {
		return err
	}
	receipts = append(receipts, r)
	return s.write(receipts)
}

func (s *JSONStore) List(ctx context.Context) ([]core.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	receipts, err := s.load()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(receipts, func(i, j int) bool {
		return receipts[i].UploadedAt.After(receipts[j].UploadedAt)
	})
	return receipts, nil
}

func (s *JSONStore) Get(ctx context.Context, id string) (core.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	receipts, err := s.load()
	if err != nil {
		return core.Receipt{}, err
	}
	for _, r := range receipts {
		if r.ID == id {
			return r, nil
		}
	}
	return core.Receipt{}, ErrNotFound
}

func (s *JSONStore) Close() error { return nil }

func (s *JSONStore) load() ([]core.Receipt, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	var receipts []core.Receipt
	if err := json.Unmarshal(data, &receipts); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return receipts, nil
}

func (s *JSONStore) write(receipts []core.Receipt) error {
	data, err := json.MarshalIndent(receipts, "", "  ")
	if err != nil {
		return fmt.Errorf("encode receipts: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
