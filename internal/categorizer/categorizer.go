// Package categorizer assigns a category to each transaction from its amount
// and description.
package categorizer

import (
	"strings"

	"fjacquet/statement-insights/internal/logging"
	"fjacquet/statement-insights/internal/models"

	"github.com/shopspring/decimal"
)

// RuleSource supplies a replacement keyword table. A nil table keeps the defaults.
type RuleSource interface {
	LoadRules() ([]models.CategoryRule, error)
}

// Categorizer applies an ordered keyword table. Any positive amount is Income
// before the table is consulted.
type Categorizer struct {
	rules  []models.CategoryRule
	logger logging.Logger
}

// NewCategorizer creates a categorizer. A nil or empty rules slice selects DefaultRules.
func NewCategorizer(rules []models.CategoryRule, logger logging.Logger) *Categorizer {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	return &Categorizer{rules: rules, logger: logger}
}

// NewFromSource loads rules from source, falling back to the defaults when it
// has none.
func NewFromSource(source RuleSource, logger logging.Logger) (*Categorizer, error) {
	var rules []models.CategoryRule
	if source != nil {
		var err error
		if rules, err = source.LoadRules(); err != nil {
			return nil, err
		}
	}
	return NewCategorizer(rules, logger), nil
}

// Rules returns a copy of the active keyword table.
func (c *Categorizer) Rules() []models.CategoryRule {
	out := make([]models.CategoryRule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Categorize returns the category for one description and signed amount.
func (c *Categorizer) Categorize(description string, amount decimal.Decimal) models.Category {
	if amount.IsPositive() {
		return models.CategoryIncome
	}
	desc := strings.ToLower(description)
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if kw != "" && strings.Contains(desc, strings.ToLower(kw)) {
				return rule.Category
			}
		}
	}
	return models.CategoryOther
}

// CategorizeAll sets the category of every transaction in place.
func (c *Categorizer) CategorizeAll(txs []models.Transaction) {
	counts := make(map[models.Category]int)
	for i := range txs {
		txs[i].Category = c.Categorize(txs[i].Counterparty, txs[i].Amount)
		counts[txs[i].Category]++
	}
	c.logger.Debug("Categorized transactions",
		logging.F(logging.FieldCount, len(txs)),
		logging.F(logging.FieldCategory, counts))
}

var defaultCategorizer = NewCategorizer(nil, nil)

// Categorize classifies with the built-in table.
func Categorize(description string, amount decimal.Decimal) models.Category {
	return defaultCategorizer.Categorize(description, amount)
}
