package categorizer

import "fjacquet/statement-insights/internal/models"

// DefaultRules is the built-in keyword table, checked in order. "food" sits
// after the restaurant rule, so descriptions mentioning both land in Food.
var DefaultRules = []models.CategoryRule{
	{Category: models.CategoryIncome, Keywords: []string{"salary", "payroll"}},
	{Category: models.CategoryShopping, Keywords: []string{"amazon", "shop"}},
	{Category: models.CategoryTransport, Keywords: []string{"uber", "lyft"}},
	{Category: models.CategoryFood, Keywords: []string{"restaurant", "cafe"}},
	{Category: models.CategoryEntertainment, Keywords: []string{"netflix", "spotify"}},
	{Category: models.CategoryGroceries, Keywords: []string{"grocery", "food"}},
	{Category: models.CategoryTransport, Keywords: []string{"gas", "fuel"}},
	{Category: models.CategoryInsurance, Keywords: []string{"insurance"}},
	{Category: models.CategoryHousing, Keywords: []string{"rent", "mortgage"}},
	{Category: models.CategoryUtilities, Keywords: []string{"utility", "electric", "water"}},
}
