package interpret

import (
	"reflect"
	"testing"
	"time"

	"scontrino/internal/core"
)

var testNow = time.Date(2024, 6, 15, 10, 30, 0, 0, time.UTC)

const sampleReceipt = `Test Mart
Date: 3/4/2024

Items:
Organic Milk 1gal    $5.49
Wine Bottle    $15.99
Paper Towels 6pk    $12.49
Mystery Snack    $2.00

Subtotal: $35.97
Tax: $2.88
Total: $38.85

Thank you for shopping!`

func TestInterpretSampleReceipt(t *testing.T) {
	r := Interpret(sampleReceipt, testNow)

	if r.Store != "Test Mart" {
		t.Errorf("store = %q, want Test Mart", r.Store)
	}
	if r.Date != "2024-03-04" {
		t.Errorf("date = %q, want 2024-03-04", r.Date)
	}
	if r.Currency != core.CurrencyUSD {
		t.Errorf("currency = %q, want USD", r.Currency)
	}
	if r.Total != "38.85" {
		t.Errorf("total = %q, want 38.85", r.Total)
	}

	want := []core.LineItem{
		{Name: "Organic Milk 1gal", Price: "5.49", Category: core.CategoryGroceries},
		{Name: "Wine Bottle", Price: "15.99", Category: core.CategoryAlcohol},
		{Name: "Paper Towels 6pk", Price: "12.49", Category: core.CategoryHousehold},
		{Name: "Mystery Snack", Price: "2.00", Category: core.CategoryGroceries},
	}
	if !reflect.DeepEqual(r.Items, want) {
		t.Errorf("items = %+v, want %+v", r.Items, want)
	}
}

func TestInterpretIdempotent(t *testing.T) {
	a := Interpret(sampleReceipt, testNow)
	b := Interpret(sampleReceipt, testNow)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("two interpretations differ:\n%+v\n%+v", a, b)
	}
}

func TestExtractStore(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"first line", "Walmart\nDate: 1/2/2024", "Walmart"},
		{"leading blank lines", "\n\n  \nTarget\nstuff", "Target"},
		{"surrounding whitespace", "   Whole Foods   \n", "Whole Foods"},
		{"empty input", "", UnknownStore},
		{"whitespace only", " \n \t \n", UnknownStore},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractStore(tc.in); got != tc.want {
				t.Fatalf("ExtractStore(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestExtractDate(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		matched bool
	}{
		{"standard", "Date: 3/4/2024", "2024-03-04", true},
		{"two digit fields", "Date: 12/31/2023", "2023-12-31", true},
		{"embedded in text", "header\nDate: 1/9/2024\nfooter", "2024-01-09", true},
		{"no pattern", "no date here", "2024-06-15", false},
		{"impossible day", "Date: 2/30/2024", "2024-06-15", false},
		{"impossible month", "Date: 13/1/2024", "2024-06-15", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, matched := ExtractDate(tc.in, testNow)
			if got != tc.want || matched != tc.matched {
				t.Fatalf("ExtractDate(%q) = (%q, %v), want (%q, %v)", tc.in, got, matched, tc.want, tc.matched)
			}
		})
	}
}

func TestDetectCurrency(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"euro symbol", "Brot 3,50€", core.CurrencyEUR},
		{"euro code", "Total EUR 10.00", core.CurrencyEUR},
		{"pound symbol", "Tea £2.50", core.CurrencyGBP},
		{"pound code", "Total GBP 9.99", core.CurrencyGBP},
		{"yen symbol", "¥1200", core.CurrencyJPY},
		{"jpy code", "Total JPY 500.00", core.CurrencyJPY},
		{"cny code", "Total CNY 88.00", core.CurrencyJPY},
		{"dollar", "Milk $4.99", core.CurrencyUSD},
		{"comma decimal heuristic", "Wine Bottle 15,99", core.CurrencyEUR},
		{"thousands comma is not decimal", "Ref 1,234 items", core.CurrencyUSD},
		{"no evidence", "just text 12.50", core.CurrencyUSD},
		{"euro beats dollar", "Total: 5,00€ was $6", core.CurrencyEUR},
		{"code inside a word", "FLEUR BAKERY\nMilk    $3.00\nTotal: $3.00", core.CurrencyUSD},
		{"gbp inside a word", "SGBPLAZA MARKET\nBall $20.00", core.CurrencyUSD},
		{"jpy inside a word", "Item JPYX 4.50\nTotal: $4.50", core.CurrencyUSD},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectCurrency(tc.in); got != tc.want {
				t.Fatalf("DetectCurrency(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestExtractItems(t *testing.T) {
	t.Run("comma decimal normalized", func(t *testing.T) {
		items := ExtractItems("Wine Bottle    15,99")
		if len(items) != 1 {
			t.Fatalf("got %d items, want 1", len(items))
		}
		if items[0].Price != "15.99" {
			t.Errorf("price = %q, want 15.99", items[0].Price)
		}
		if items[0].Category != core.CategoryAlcohol {
			t.Errorf("category = %q, want alcohol", items[0].Category)
		}
	})

	t.Run("currency symbols stripped", func(t *testing.T) {
		items := ExtractItems("Brot 3,50€\nTea £2.50\nMilk $4.99")
		if len(items) != 3 {
			t.Fatalf("got %d items, want 3", len(items))
		}
		for i, want := range []string{"3.50", "2.50", "4.99"} {
			if items[i].Price != want {
				t.Errorf("item %d price = %q, want %q", i, items[i].Price, want)
			}
		}
	})

	t.Run("recap lines skipped", func(t *testing.T) {
		text := "Milk    $4.99\nSubtotal: $4.99\nTax: $0.40\nTOTAL    $5.39\nSuma    $5.39\nImporte total    $5.39"
		items := ExtractItems(text)
		if len(items) != 1 || items[0].Name != "Milk" {
			t.Fatalf("recap lines leaked into items: %+v", items)
		}
	})

	t.Run("tax in any case never yields an item", func(t *testing.T) {
		for _, line := range []string{"Tax: $1.00", "TAX $1.00", "City tax    $2.00"} {
			if items := ExtractItems(line); len(items) != 0 {
				t.Fatalf("line %q produced items %+v", line, items)
			}
		}
	})

	t.Run("lines without prices ignored", func(t *testing.T) {
		text := "Items:\nThank you for shopping!\nDate: 3/4/2024\nMilk $4.99"
		items := ExtractItems(text)
		if len(items) != 1 {
			t.Fatalf("got %d items, want 1: %+v", len(items), items)
		}
	})

	t.Run("source order preserved", func(t *testing.T) {
		items := ExtractItems("Zebra Cakes $1.00\nApple $2.00\nMop $3.00")
		names := []string{"Zebra Cakes", "Apple", "Mop"}
		if len(items) != 3 {
			t.Fatalf("got %d items, want 3", len(items))
		}
		for i, n := range names {
			if items[i].Name != n {
				t.Fatalf("item %d = %q, want %q", i, items[i].Name, n)
			}
		}
	})
}

func TestExtractTotal(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"dollar total", "Total: $12.50", "12.50"},
		{"subtotal not mistaken for total", "Subtotal: $99.99\nTotal: $12.50", "12.50"},
		{"comma normalized", "TOTAL 45,00", "45.00"},
		{"suma keyword", "Suma: 19,95€", "19.95"},
		{"importe keyword", "Importe: 7.25", "7.25"},
		{"total preferred over suma", "Suma: 1.00\nTotal: 2.00", "2.00"},
		{"missing total", "Milk $4.99\nThanks", "0.00"},
		{"empty input", "", "0.00"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractTotal(tc.in); got != tc.want {
				t.Fatalf("ExtractTotal(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestInterpretEmptyInput(t *testing.T) {
	r := Interpret("", testNow)
	if r.Store != UnknownStore {
		t.Errorf("store = %q, want %q", r.Store, UnknownStore)
	}
	if r.Date != "2024-06-15" {
		t.Errorf("date = %q, want fallback 2024-06-15", r.Date)
	}
	if r.Currency != core.CurrencyUSD {
		t.Errorf("currency = %q, want USD", r.Currency)
	}
	if len(r.Items) != 0 {
		t.Errorf("items = %+v, want none", r.Items)
	}
	if r.Total != "0.00" {
		t.Errorf("total = %q, want 0.00", r.Total)
	}
}

func TestInterpretCommaDecimalReceipt(t *testing.T) {
	text := "Mercado Central\nVino Tinto    15,99\nPan Fresco    2,50\nSuma: 18,49"
	r := Interpret(text, testNow)

	if r.Currency != core.CurrencyEUR {
		t.Errorf("currency = %q, want EUR from comma-decimal evidence", r.Currency)
	}
	if r.Total != "18.49" {
		t.Errorf("total = %q, want 18.49", r.Total)
	}
	if len(r.Items) != 2 {
		t.Fatalf("items = %+v, want 2", r.Items)
	}
	// "Vino" is not in the alcohol keyword list, so the groceries default applies.
	if r.Items[0].Price != "15.99" || r.Items[0].Category != core.CategoryGroceries {
		t.Errorf("first item = %+v, want price 15.99 category groceries", r.Items[0])
	}
}
