// Package ocr defines the text extraction boundary of the pipeline.
//
// The OCR step is a black box that returns raw text for an image reference.
// The shipped implementation is a mock that generates realistic sample
// receipts; real engines (Tesseract, cloud vision APIs) plug in behind the
// same interface.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// TextExtractor extracts raw text from a receipt image.
type TextExtractor interface {
	ExtractText(ctx context.Context, imagePath string) (string, error)
}

type sampleItem struct {
	name     string
	min, max float64
}

var sampleStores = []string{"Walmart", "Target", "Whole Foods", "Costco", "Safeway"}

var sampleItems = []sampleItem{
	{"Organic Milk 1gal", 4.5, 6.5},
	{"Bread Whole Wheat", 2.5, 4.0},
	{"Eggs Large 12ct", 3.0, 5.0},
	{"Chicken Breast 2lb", 8.0, 12.0},
	{"Bananas 3lb", 1.5, 3.0},
	{"Tomatoes 2lb", 3.0, 5.0},
	{"Pasta 16oz", 1.5, 3.0},
	{"Laundry Detergent", 8.0, 15.0},
	{"Paper Towels 6pk", 10.0, 15.0},
	{"Orange Juice 64oz", 4.0, 6.0},
	{"Beer 6pk", 8.0, 12.0},
	{"Wine Bottle", 10.0, 20.0},
}

// MockExtractor generates sample receipt text instead of reading the image.
// Output is deterministic for a given seed, which the tests rely on.
type MockExtractor struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

var _ TextExtractor = (*MockExtractor)(nil)

func NewMockExtractor(seed int64) *MockExtractor {
	return &MockExtractor{
		rng: rand.New(rand.NewSource(seed)),
		now: time.Now,
	}
}

// ExtractText returns sample receipt text: a store header, a date within
// the last 30 days, 4-8 priced items and a subtotal/tax/total footer.
func (m *MockExtractor) ExtractText(ctx context.Context, imagePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	store := sampleStores[m.rng.Intn(len(sampleStores))]
	date := m.now().AddDate(0, 0, -m.rng.Intn(31))

	picked := m.rng.Perm(len(sampleItems))[:4+m.rng.Intn(5)]

	lines := []string{
		store,
		fmt.Sprintf("Date: %s", date.Format("1/2/2006")),
		"",
		"Items:",
	}

	var subtotal float64
	for _, idx := range picked {
		it := sampleItems[idx]
		price := it.min + m.rng.Float64()*(it.max-it.min)
		subtotal += price
		lines = append(lines, fmt.Sprintf("%s    $%.2f", it.name, price))
	}

	const taxRate = 0.08
	lines = append(lines,
		"",
		fmt.Sprintf("Subtotal: $%.2f", subtotal),
		fmt.Sprintf("Tax: $%.2f", subtotal*taxRate),
		fmt.Sprintf("Total: $%.2f", subtotal*(1+taxRate)),
		"",
		"Thank you for shopping!",
	)

	slog.DebugContext(ctx, "Mock OCR extracted text",
		"image_path", imagePath,
		"store", store,
		"items", len(picked))

	return strings.Join(lines, "\n"), nil
}
