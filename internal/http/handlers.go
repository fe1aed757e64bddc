package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"scontrino/internal/interpret"
	"scontrino/internal/stats"
	"scontrino/internal/storage"
)

var allowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
}

type (
	errorResponse struct {
		Error string `json:"error"`
	}

	healthResponse struct {
		Status  string `json:"status"`
		Service string `json:"service"`
	}

	receiptSummary struct {
		ID         string    `json:"id"`
		Store      string    `json:"store"`
		Date       string    `json:"date"`
		Currency   string    `json:"currency"`
		Total      string    `json:"total"`
		UploadedAt time.Time `json:"uploaded_at"`
		ItemCount  int       `json:"item_count"`
	}

	categoryAmountResponse struct {
		Category string  `json:"category"`
		Amount   float64 `json:"amount"`
	}

	summaryResponse struct {
		Month        int                      `json:"month"`
		Year         int                      `json:"year"`
		TotalSpent   float64                  `json:"total_spent"`
		ReceiptCount int                      `json:"receipt_count"`
		Categories   []categoryAmountResponse `json:"categories"`
	}
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", Service: "scontrino-api"})
}

// handleUpload accepts a multipart receipt image, runs it through OCR and
// interpretation, persists the result, and returns the structured receipt
// (without the raw OCR text, which stays in storage for debugging).
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload: "+err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "no file selected")
		return
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	if !allowedExtensions[ext] {
		writeError(w, http.StatusBadRequest, "invalid file type, allowed: png, jpg, jpeg, gif")
		return
	}

	receiptID := uuid.NewString()
	savedName := receiptID + "." + ext

	if err := os.MkdirAll(s.cfg.UploadDir, 0755); err != nil {
		slog.ErrorContext(r.Context(), "Failed to create upload directory", "error", err)
		writeError(w, http.StatusInternalServerError, "processing failed")
		return
	}
	imagePath := filepath.Join(s.cfg.UploadDir, savedName)
	dst, err := os.Create(imagePath)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create upload file", "error", err, "path", imagePath)
		writeError(w, http.StatusInternalServerError, "processing failed")
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		writeError(w, http.StatusInternalServerError, "processing failed")
		return
	}
	dst.Close()

	rawText, err := s.extractor.ExtractText(r.Context(), imagePath)
	if err != nil {
		slog.ErrorContext(r.Context(), "OCR extraction failed", "error", err, "path", imagePath)
		writeError(w, http.StatusInternalServerError, "processing failed: "+err.Error())
		return
	}

	now := s.clock()
	receipt := interpret.Interpret(rawText, now)
	receipt.ID = receiptID
	receipt.Filename = savedName
	receipt.UploadedAt = now
	receipt.OCRText = rawText

	if err := s.store.Save(r.Context(), receipt); err != nil {
		slog.ErrorContext(r.Context(), "Failed to save receipt", "error", err, "receipt_id", receiptID)
		writeError(w, http.StatusInternalServerError, "processing failed: "+err.Error())
		return
	}

	if s.publisher != nil {
		// Sync is best-effort, the receipt is already persisted.
		if err := s.publisher.PublishReceiptSync(r.Context(), receiptID); err != nil {
			slog.ErrorContext(r.Context(), "Failed to publish sync message",
				"error", err, "receipt_id", receiptID)
		}
	}

	s.statsCache.invalidate()

	slog.InfoContext(r.Context(), "Receipt processed",
		"receipt_id", receiptID,
		"store", receipt.Store,
		"total", receipt.Total,
		"currency", receipt.Currency,
		"items", len(receipt.Items))

	resp := receipt
	resp.OCRText = ""
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	receipts, err := s.store.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to list receipts", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load receipts")
		return
	}

	summaries := make([]receiptSummary, 0, len(receipts))
	for _, rc := range receipts {
		summaries = append(summaries, receiptSummary{
			ID:         rc.ID,
			Store:      rc.Store,
			Date:       rc.Date,
			Currency:   rc.Currency,
			Total:      rc.Total,
			UploadedAt: rc.UploadedAt,
			ItemCount:  len(rc.Items),
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleReceiptDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/receipts/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}

	receipt, err := s.store.Get(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "receipt not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load receipt", "error", err, "receipt_id", id)
		writeError(w, http.StatusInternalServerError, "failed to load receipt")
		return
	}

	receipt.OCRText = ""
	writeJSON(w, http.StatusOK, receipt)
}

// handleMonthlyStats aggregates spending for the month given by the
// optional year/month query parameters, defaulting to the current month.
func (s *Server) handleMonthlyStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ref, err := s.refInstant(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := fmt.Sprintf("%04d-%02d", ref.Year(), int(ref.Month()))
	if cached, ok := s.statsCache.get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	records, err := s.store.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to load receipts for stats", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to calculate stats")
		return
	}

	summary, err := stats.Aggregate(records, ref)
	if err != nil {
		if errors.Is(err, stats.ErrInvalidTotal) {
			slog.ErrorContext(r.Context(), "Aggregation hit corrupt record", "error", err)
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to calculate stats")
		return
	}

	resp := summaryResponse{
		Month:        summary.Month,
		Year:         summary.Year,
		TotalSpent:   summary.TotalSpent.Amount(),
		ReceiptCount: summary.ReceiptCount,
		Categories:   make([]categoryAmountResponse, 0, len(summary.Categories)),
	}
	for _, ca := range summary.Categories {
		resp.Categories = append(resp.Categories, categoryAmountResponse{
			Category: string(ca.Category),
			Amount:   ca.Amount.Amount(),
		})
	}

	s.statsCache.set(key, resp)
	writeJSON(w, http.StatusOK, resp)
}

// refInstant resolves the reference instant for stats. Both or neither of
// year and month must be given; out-of-range values are rejected.
func (s *Server) refInstant(r *http.Request) (time.Time, error) {
	q := r.URL.Query()
	yearStr, monthStr := q.Get("year"), q.Get("month")
	if yearStr == "" && monthStr == "" {
		return s.clock(), nil
	}
	if yearStr == "" || monthStr == "" {
		return time.Time{}, errors.New("year and month must be provided together")
	}

	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 1000 || year > 9999 {
		return time.Time{}, fmt.Errorf("invalid year %q", yearStr)
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("invalid month %q", monthStr)
	}
	return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), nil
}
