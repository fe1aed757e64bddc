package interpret

import (
	"testing"

	"scontrino/internal/core"
)

func TestCategorize(t *testing.T) {
	cases := []struct {
		name string
		want core.Category
	}{
		{"Beer 6pk", core.CategoryAlcohol},
		{"WINE BOTTLE", core.CategoryAlcohol},
		{"Whiskey 750ml", core.CategoryAlcohol},
		{"Laundry Detergent", core.CategoryHousehold},
		{"Paper Towels 6pk", core.CategoryHousehold},
		{"Trash Bags 30ct", core.CategoryHousehold},
		{"Organic Milk 1gal", core.CategoryGroceries},
		{"Chicken Breast 2lb", core.CategoryGroceries},
		{"Frozen Pizza", core.CategoryGroceries},
		// No keyword match: defaults to groceries, never other.
		{"Mystery Snack", core.CategoryGroceries},
		{"Candles", core.CategoryGroceries},
	}
	for _, tc := range cases {
		if got := Categorize(tc.name); got != tc.want {
			t.Errorf("Categorize(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestCategorizePriority(t *testing.T) {
	// Alcohol rules win over household and groceries when keywords overlap.
	if got := Categorize("Rice Wine"); got != core.CategoryAlcohol {
		t.Errorf("Categorize(Rice Wine) = %q, want alcohol (rule priority)", got)
	}
	// Household wins over groceries.
	if got := Categorize("Fresh Scent Soap"); got != core.CategoryHousehold {
		t.Errorf("Categorize(Fresh Scent Soap) = %q, want household (rule priority)", got)
	}
}
