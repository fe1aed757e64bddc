package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Expense categories assigned to receipt line items.
const (
	CategoryGroceries Category = "groceries"
	CategoryHousehold Category = "household"
	CategoryAlcohol   Category = "alcohol"
	CategoryOther     Category = "other"
)

// Supported currency codes. Detection only, amounts are never converted.
const (
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
	CurrencyGBP = "GBP"
	CurrencyJPY = "JPY"
)

type (
	Category string

	// LineItem is a single purchased item extracted from receipt text.
	// Price is a non-negative decimal string with exactly two fraction
	// digits and a dot separator.
	LineItem struct {
		Name     string   `json:"name"`
		Price    string   `json:"price"`
		Category Category `json:"category"`
	}

	// Receipt is one interpreted receipt as persisted and served.
	// Date is kept as a string on purpose: stored records may carry
	// unparsable dates and the aggregator tolerates them.
	Receipt struct {
		ID         string     `json:"id"`
		Filename   string     `json:"filename,omitempty"`
		UploadedAt time.Time  `json:"uploaded_at"`
		Store      string     `json:"store"`
		Date       string     `json:"date"`
		Currency   string     `json:"currency"`
		Items      []LineItem `json:"items"`
		Total      string     `json:"total"`
		OCRText    string     `json:"ocr_text,omitempty"`
	}

	// CategoryAmount is one category's share of a monthly summary.
	CategoryAmount struct {
		Category Category
		Amount   Money
	}

	// MonthlySummary holds spending totals for one calendar month.
	// Recomputed fresh from the full receipt collection on every call.
	MonthlySummary struct {
		Year         int
		Month        int // 1-12
		TotalSpent   Money
		ReceiptCount int
		Categories   []CategoryAmount
	}
)

var (
	ErrEmptyID       = errors.New("empty receipt id")
	ErrEmptyStore    = errors.New("empty store name")
	ErrInvalidAmount = errors.New("invalid amount")
)

// IsValid reports whether c is one of the fixed category set.
func (c Category) IsValid() bool {
	switch c {
	case CategoryGroceries, CategoryHousehold, CategoryAlcohol, CategoryOther:
		return true
	default:
		return false
	}
}

// CategoryOrDefault maps a stored category string onto the closed set,
// treating anything missing or unknown as "other".
func CategoryOrDefault(s string) Category {
	c := Category(strings.TrimSpace(s))
	if !c.IsValid() {
		return CategoryOther
	}
	return c
}

func (i LineItem) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return errors.New("empty item name")
	}
	if _, err := ParseDecimalToCents(i.Price); err != nil {
		return fmt.Errorf("item %q: %w", i.Name, err)
	}
	if !i.Category.IsValid() {
		return fmt.Errorf("item %q: unknown category %q", i.Name, i.Category)
	}
	return nil
}

// Validate checks the fields the interpreter guarantees at write time.
// Date is deliberately not validated here, see MonthlySummary.
func (r Receipt) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(r.Store) == "" {
		return ErrEmptyStore
	}
	if _, err := ParseDecimalToCents(r.Total); err != nil {
		return fmt.Errorf("total %q: %w", r.Total, err)
	}
	for _, it := range r.Items {
		if err := it.Validate(); err != nil {
			return err
		}
	}
	return nil
}
