// Package stats derives monthly spending summaries from stored receipts.
package stats

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"scontrino/internal/core"
)

var (
	// ErrInvalidReference means the caller supplied no usable reference
	// instant. Precondition failure, never retried.
	ErrInvalidReference = errors.New("invalid reference instant")

	// ErrInvalidTotal means a month-matched record carries a total that is
	// not a decimal string. Totals are validated at write time, so this is
	// a data integrity failure and aborts the whole aggregation.
	ErrInvalidTotal = errors.New("invalid receipt total")
)

const isoDate = "2006-01-02"

// Aggregate computes the summary for the calendar month containing ref.
//
// Records whose date is missing, unparsable, or outside the reference month
// are skipped silently: date integrity of stored records is not assumed.
// Item prices are parsed as decimals with a missing price counting as zero,
// and a missing or unknown item category counting as "other". Category
// amounts are sorted by amount descending; ties keep first-seen order.
func Aggregate(records []core.Receipt, ref time.Time) (core.MonthlySummary, error) {
	if ref.IsZero() {
		return core.MonthlySummary{}, ErrInvalidReference
	}

	year, month := ref.Year(), int(ref.Month())
	summary := core.MonthlySummary{
		Year:       year,
		Month:      month,
		Categories: []core.CategoryAmount{},
	}

	var totalCents int64
	sums := make(map[core.Category]int64)
	var seen []core.Category

	for _, r := range records {
		d, err := time.Parse(isoDate, r.Date)
		if err != nil || d.Year() != year || int(d.Month()) != month {
			continue
		}

		cents, err := core.ParseDecimalToCents(r.Total)
		if err != nil {
			return core.MonthlySummary{}, fmt.Errorf("receipt %s: %w: %q", r.ID, ErrInvalidTotal, r.Total)
		}
		totalCents += cents
		summary.ReceiptCount++

		for _, item := range r.Items {
			var price int64
			if item.Price != "" {
				price, err = core.ParseDecimalToCents(item.Price)
				if err != nil {
					return core.MonthlySummary{}, fmt.Errorf("receipt %s item %q: %w: %q", r.ID, item.Name, ErrInvalidTotal, item.Price)
				}
			}
			cat := core.CategoryOrDefault(string(item.Category))
			if _, ok := sums[cat]; !ok {
				seen = append(seen, cat)
			}
			sums[cat] += price
		}
	}

	summary.TotalSpent = core.Money{Cents: totalCents}
	for _, cat := range seen {
		summary.Categories = append(summary.Categories, core.CategoryAmount{
			Category: cat,
			Amount:   core.Money{Cents: sums[cat]},
		})
	}
	sort.SliceStable(summary.Categories, func(i, j int) bool {
		return summary.Categories[i].Amount.Cents > summary.Categories[j].Amount.Cents
	})

	return summary, nil
}
