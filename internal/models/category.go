package models

// Category is a coarse spending label drawn from a fixed vocabulary.
type Category string

const (
	CategoryIncome        Category = "Income"
	CategoryShopping      Category = "Shopping"
	CategoryTransport     Category = "Transport"
	CategoryFood          Category = "Food"
	CategoryEntertainment Category = "Entertainment"
	CategoryGroceries     Category = "Groceries"
	CategoryInsurance     Category = "Insurance"
	CategoryHousing       Category = "Housing"
	CategoryUtilities     Category = "Utilities"
	CategoryOther         Category = "Other"
)

// Categories lists the vocabulary in display order.
var Categories = []Category{
	CategoryIncome,
	CategoryShopping,
	CategoryTransport,
	CategoryFood,
	CategoryEntertainment,
	CategoryGroceries,
	CategoryInsurance,
	CategoryHousing,
	CategoryUtilities,
	CategoryOther,
}

// IsValid reports whether c belongs to the vocabulary.
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// CategoryRule assigns Category to descriptions containing any of Keywords.
type CategoryRule struct {
	Category Category `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// CategoryRules is the document layout of a rules file.
type CategoryRules struct {
	Rules []CategoryRule `yaml:"rules"`
}
