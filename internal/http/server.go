// Package http exposes the receipt API: upload, listing, detail, and
// monthly spending stats.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"scontrino/internal/ocr"
	"scontrino/internal/storage"
)

// SyncPublisher publishes receipt sync messages for the ledger worker.
// A nil publisher disables sync, uploads still succeed.
type SyncPublisher interface {
	PublishReceiptSync(ctx context.Context, receiptID string) error
}

// ServerConfig carries the upload and caching knobs.
type ServerConfig struct {
	UploadDir      string
	MaxUploadBytes int64
	StatsCacheTTL  time.Duration
}

type Server struct {
	http.Server
	store     storage.ReceiptStore
	extractor ocr.TextExtractor
	publisher SyncPublisher
	cfg       ServerConfig

	// clock is the reference instant source, swapped in tests.
	clock func() time.Time

	statsCache *summaryCache
}

// NewServer configures routes and returns a ready-to-run server.
func NewServer(addr string, store storage.ReceiptStore, extractor ocr.TextExtractor, publisher SyncPublisher, cfg ServerConfig) *Server {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 16 << 20
	}
	if cfg.StatsCacheTTL <= 0 {
		cfg.StatsCacheTTL = 5 * time.Minute
	}

	s := &Server{
		store:      store,
		extractor:  extractor,
		publisher:  publisher,
		cfg:        cfg,
		clock:      time.Now,
		statsCache: newSummaryCache(cfg.StatsCacheTTL),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/receipt/upload", s.handleUpload)
	mux.HandleFunc("/receipts", s.handleListReceipts)
	mux.HandleFunc("/receipts/", s.handleReceiptDetail)
	mux.HandleFunc("/stats/month", s.handleMonthlyStats)

	s.Server = http.Server{
		Addr:    addr,
		Handler: requestLogger(mux),
	}
	return s
}

// requestLogger logs one line per request with method, path, status and
// duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.InfoContext(r.Context(), "Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// summaryCache memoizes stats responses per year-month key with a TTL.
// Uploads invalidate the whole cache, it never grows past a handful of
// months in practice.
type summaryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]summaryCacheEntry
}

type summaryCacheEntry struct {
	resp      summaryResponse
	expiresAt time.Time
}

func newSummaryCache(ttl time.Duration) *summaryCache {
	return &summaryCache{
		ttl:     ttl,
		entries: make(map[string]summaryCacheEntry),
	}
}

func (c *summaryCache) get(key string) (summaryResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return summaryResponse{}, false
	}
	return entry.resp, true
}

func (c *summaryCache) set(key string, resp summaryResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = summaryCacheEntry{resp: resp, expiresAt: time.Now().Add(c.ttl)}
}

func (c *summaryCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]summaryCacheEntry)
}
