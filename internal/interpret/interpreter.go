// Package interpret converts raw OCR receipt text into structured receipts.
//
// Extraction is deterministic and rule-based: fixed regular expressions and
// keyword lists, no network or model calls. Every step has a documented
// fallback, so interpretation never fails on malformed input. The reference
// instant for the date fallback is injected by the caller to keep the
// package pure.
package interpret

import (
	"regexp"
	"strings"
	"time"

	"scontrino/internal/core"
)

// UnknownStore is the store name used when the input has no usable lines.
const UnknownStore = "Unknown Store"

const isoDate = "2006-01-02"

var (
	dateRe = regexp.MustCompile(`Date:\s*(\d{1,2}/\d{1,2}/\d{4})`)

	// Trailing price on an item line: optional currency symbol on either
	// side, dot or comma separator, exactly two fraction digits.
	itemRe = regexp.MustCompile(`^(.+?)\s+[€£¥$]?(\d+[.,]\d{2})[€£¥$]?$`)

	// Comma used as a decimal separator (exactly two digits follow).
	commaDecimalRe = regexp.MustCompile(`\d,\d{2}([^0-9]|$)`)

	// Currency codes must stand alone as tokens; "FLEUR" is not EUR.
	eurCodeRe = regexp.MustCompile(`\bEUR\b`)
	gbpCodeRe = regexp.MustCompile(`\bGBP\b`)
	jpyCodeRe = regexp.MustCompile(`\b(JPY|CNY)\b`)

	// Recap and tax lines are never purchased items.
	recapKeywords = []string{"subtotal", "total", "tax", "suma", "importe"}

	// Total patterns tried in order; anchored to line starts so that
	// "Subtotal:" never shadows the real total.
	totalRes = []*regexp.Regexp{
		regexp.MustCompile(`(?im)^\s*total\s*:?\s*[€£¥$]?\s*(\d+[.,]\d{2})`),
		regexp.MustCompile(`(?im)^\s*suma\s*:?\s*[€£¥$]?\s*(\d+[.,]\d{2})`),
		regexp.MustCompile(`(?im)^\s*importe\s*:?\s*[€£¥$]?\s*(\d+[.,]\d{2})`),
	}
)

// Interpret parses raw OCR text into a structured receipt. It always
// succeeds: missing fields degrade to their documented defaults (UnknownStore,
// the now date, USD, no items, "0.00"). The caller owns the returned value;
// envelope fields (ID, Filename, UploadedAt, OCRText) are left zero.
func Interpret(raw string, now time.Time) core.Receipt {
	date, _ := ExtractDate(raw, now)
	return core.Receipt{
		Store:    ExtractStore(raw),
		Date:     date,
		Currency: DetectCurrency(raw),
		Items:    ExtractItems(raw),
		Total:    ExtractTotal(raw),
	}
}

// ExtractStore returns the first non-empty line of the trimmed input,
// or UnknownStore when there is none.
func ExtractStore(raw string) string {
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return UnknownStore
}

// ExtractDate looks for a "Date: M/D/YYYY" pattern and reformats it to ISO
// YYYY-MM-DD. The second return value reports whether the date came from the
// text; on no match or an impossible calendar date it is false and the
// injected now is returned instead.
func ExtractDate(raw string, now time.Time) (string, bool) {
	m := dateRe.FindStringSubmatch(raw)
	if m != nil {
		if d, err := time.Parse("1/2/2006", m[1]); err == nil {
			return d.Format(isoDate), true
		}
	}
	return now.Format(isoDate), false
}

// DetectCurrency scans the text for currency evidence in fixed priority
// order. A comma-decimal number with no symbol at all is taken as European
// formatting and yields EUR; this is a documented approximation, not a
// guarantee. The final default is USD.
func DetectCurrency(raw string) string {
	switch {
	case strings.Contains(raw, "€") || eurCodeRe.MatchString(raw):
		return core.CurrencyEUR
	case strings.Contains(raw, "£") || gbpCodeRe.MatchString(raw):
		return core.CurrencyGBP
	case strings.Contains(raw, "¥") || jpyCodeRe.MatchString(raw):
		return core.CurrencyJPY
	case strings.Contains(raw, "$"):
		return core.CurrencyUSD
	case commaDecimalRe.MatchString(raw):
		return core.CurrencyEUR
	default:
		return core.CurrencyUSD
	}
}

// ExtractItems collects line items in source order. Lines without a trailing
// price are ignored; recap lines (subtotal, total, tax, suma, importe) are
// skipped even when they carry a price.
func ExtractItems(raw string) []core.LineItem {
	var items []core.LineItem
	for _, line := range strings.Split(raw, "\n") {
		m := itemRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if isRecapLine(name) {
			continue
		}
		items = append(items, core.LineItem{
			Name:     name,
			Price:    normalizePrice(m[2]),
			Category: Categorize(name),
		})
	}
	return items
}

// ExtractTotal returns the first total-keyword line's amount, normalized to
// a dot separator, or "0.00" when no total line is found.
func ExtractTotal(raw string) string {
	for _, re := range totalRes {
		if m := re.FindStringSubmatch(raw); m != nil {
			return normalizePrice(m[1])
		}
	}
	return "0.00"
}

func isRecapLine(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range recapKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// normalizePrice swaps a comma decimal separator for a dot. Syntactic only,
// no currency conversion happens anywhere in the pipeline.
func normalizePrice(price string) string {
	return strings.Replace(price, ",", ".", 1)
}
