package interpret

import (
	"strings"

	"scontrino/internal/core"
)

// categoryRule pairs a category with the substrings that select it.
// Rules are evaluated in slice order; the first keyword hit wins.
type categoryRule struct {
	category core.Category
	keywords []string
}

var categoryRules = []categoryRule{
	{core.CategoryAlcohol, []string{
		"beer", "wine", "liquor", "vodka", "whiskey", "rum", "tequila",
	}},
	{core.CategoryHousehold, []string{
		"detergent", "paper", "towel", "soap", "cleaner", "tissue", "trash", "bag",
	}},
	{core.CategoryGroceries, []string{
		"milk", "bread", "egg", "chicken", "beef", "pork", "fish",
		"banana", "apple", "orange", "tomato", "lettuce", "carrot",
		"pasta", "rice", "cereal", "cheese", "yogurt", "juice",
		"organic", "fresh", "frozen",
	}},
}

// Categorize assigns a category by case-insensitive substring match against
// the ordered rule list. Items matching nothing default to groceries, not
// other: the historical contract assumes food-heavy receipts, and downstream
// consumers rely on it.
func Categorize(name string) core.Category {
	lower := strings.ToLower(name)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return core.CategoryGroceries
}
