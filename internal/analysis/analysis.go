// Package analysis derives the income, expense and cash flow report of a
// categorized statement.
package analysis

import (
	"sort"
	"time"

	"fjacquet/statement-insights/internal/dateutils"
	"fjacquet/statement-insights/internal/logging"
	"fjacquet/statement-insights/internal/models"
	"fjacquet/statement-insights/internal/parsererror"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// DaysPerMonth is the average month length used to scale period totals.
var DaysPerMonth = decimal.RequireFromString("30.44")

// DefaultHorizons are the wealth forecast horizons in years.
var DefaultHorizons = []int{5, 10, 25}

// trendThreshold is the relative change between period halves below which a
// category is stable.
var trendThreshold = decimal.RequireFromString("0.1")

var (
	twelve  = decimal.NewFromInt(12)
	hundred = decimal.NewFromInt(100)
)

// Analyzer builds AnalysisResult values.
type Analyzer struct {
	horizons []int
	now      func() time.Time
	logger   logging.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithHorizons sets the forecast horizons; an empty list keeps the defaults.
func WithHorizons(years []int) Option {
	return func(a *Analyzer) {
		if len(years) > 0 {
			a.horizons = append([]int(nil), years...)
		}
	}
}

// WithClock replaces the clock used for the generation timestamp.
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(logger logging.Logger, opts ...Option) *Analyzer {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}
	a := &Analyzer{horizons: DefaultHorizons, now: time.Now, logger: logger}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze computes the report. The input is not modified; the result holds a
// date-sorted copy. An empty input is a precondition failure.
func (a *Analyzer) Analyze(transactions []models.Transaction) (*models.AnalysisResult, error) {
	if len(transactions) == 0 {
		return nil, &parsererror.PreconditionError{Reason: "no transactions to analyze"}
	}

	sorted := append([]models.Transaction(nil), transactions...)
	SortByDate(sorted)

	first, last := sorted[0].Date, sorted[len(sorted)-1].Date
	days := dateutils.DaysBetween(first, last) + 1
	info := models.ReportInfo{
		GeneratedAt:          a.now().UTC(),
		FirstTransactionDate: first,
		LastTransactionDate:  last,
		PeriodInDays:         days,
		PeriodInMonths:       dateutils.FullMonthsBetween(first, last) + 1,
	}

	var income, expenses []models.Transaction
	for _, tx := range sorted {
		switch {
		case tx.Amount.IsPositive():
			income = append(income, tx)
		case tx.Amount.IsNegative():
			expenses = append(expenses, tx)
		}
	}

	incomePart, incomeMonthly := partition(income, days)
	expensePart, expenseMonthly := partition(expenses, days)

	monthlyCF := incomeMonthly.Sub(expenseMonthly)
	cashFlow := models.CashFlow{
		Daily:   incomePart.Total.Sub(expensePart.Total).Div(decimal.NewFromInt(int64(days))).Round(2),
		Monthly: monthlyCF.Round(2),
		Annual:  monthlyCF.Mul(twelve).Round(2),
		Weekly:  weeklySeries(sorted),
	}

	result := &models.AnalysisResult{
		Transactions: sorted,
		ReportInfo:   info,
		Summary: models.Summary{
			TotalTransactions: len(sorted),
			Income:            incomePart,
			Expenses:          expensePart,
			CashFlow:          cashFlow,
		},
		WealthForecasts: Forecast(monthlyCF, a.horizons),
	}

	a.logger.Info("Analyzed transactions",
		logging.F(logging.FieldCount, len(sorted)),
		logging.F("periodInDays", days))
	return result, nil
}

// SortByDate orders transactions chronologically, keeping input order for equal dates.
func SortByDate(txs []models.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Date.Before(txs[j].Date)
	})
}

// Forecast projects a constant monthly cash flow over each horizon without
// compounding.
func Forecast(monthly decimal.Decimal, horizons []int) []models.WealthForecast {
	out := make([]models.WealthForecast, 0, len(horizons))
	for _, years := range horizons {
		out = append(out, models.WealthForecast{
			Years:               years,
			Amount:              monthly.Mul(twelve).Mul(decimal.NewFromInt(int64(years))).Round(2),
			MonthlyContribution: monthly.Round(2),
		})
	}
	return out
}

// partition returns the aggregated partition and its unrounded monthly average.
func partition(txs []models.Transaction, days int) (models.Partition, decimal.Decimal) {
	total := decimal.Zero
	for _, tx := range txs {
		total = total.Add(tx.Amount.Abs())
	}
	monthly := total.Mul(DaysPerMonth).Div(decimal.NewFromInt(int64(days)))

	return models.Partition{
		Total:          total.Round(2),
		MonthlyAverage: monthly.Round(2),
		Categories:     categoryGroups(txs, total),
		Trends: models.Trends{
			Monthly: monthlySeries(txs),
			Weekly:  weeklySeries(txs),
		},
	}, monthly
}

func categoryGroups(txs []models.Transaction, partitionTotal decimal.Decimal) []models.CategoryGroup {
	byCategory := make(map[models.Category][]models.Transaction)
	for _, tx := range txs {
		byCategory[tx.Category] = append(byCategory[tx.Category], tx)
	}

	groups := make([]models.CategoryGroup, 0, len(byCategory))
	for name, members := range byCategory {
		total := decimal.Zero
		byParty := make(map[string]decimal.Decimal)
		for _, tx := range members {
			total = total.Add(tx.Amount.Abs())
			byParty[tx.Counterparty] = byParty[tx.Counterparty].Add(tx.Amount.Abs())
		}

		var pct float64
		if partitionTotal.IsPositive() {
			pct = total.Div(partitionTotal).Mul(hundred).Round(2).InexactFloat64()
		}

		groups = append(groups, models.CategoryGroup{
			Name:           name,
			Total:          total.Round(2),
			Percentage:     pct,
			Trend:          Trend(members),
			Counterparties: counterpartyTotals(byParty),
		})
	}

	sort.Slice(groups, func(i, j int) bool {
		if c := groups[i].Total.Cmp(groups[j].Total); c != 0 {
			return c > 0
		}
		return groups[i].Name < groups[j].Name
	})
	return groups
}

func counterpartyTotals(byParty map[string]decimal.Decimal) []models.CounterpartyTotal {
	out := make([]models.CounterpartyTotal, 0, len(byParty))
	for name, total := range byParty {
		out = append(out, models.CounterpartyTotal{Name: name, Total: total.Round(2)})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Trend compares the average absolute amount of the chronologically later
// half against the earlier half. Changes under 10% of the earlier average are
// stable.
func Trend(txs []models.Transaction) models.Trend {
	if len(txs) < 2 {
		return models.TrendStable
	}
	sorted := append([]models.Transaction(nil), txs...)
	SortByDate(sorted)

	mid := len(sorted) / 2
	firstAvg := averageAbs(sorted[:mid])
	secondAvg := averageAbs(sorted[mid:])

	diff := secondAvg.Sub(firstAvg)
	if diff.IsZero() || diff.Abs().LessThan(firstAvg.Mul(trendThreshold)) {
		return models.TrendStable
	}
	if diff.IsPositive() {
		return models.TrendUp
	}
	return models.TrendDown
}

func averageAbs(txs []models.Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range txs {
		sum = sum.Add(tx.Amount.Abs())
	}
	return sum.Div(decimal.NewFromInt(int64(len(txs))))
}

func monthlySeries(txs []models.Transaction) []models.MonthlyPoint {
	sums := make(map[string]decimal.Decimal)
	labels := make(map[string]string)
	for _, tx := range txs {
		key := dateutils.MonthKey(tx.Date)
		sums[key] = sums[key].Add(tx.Amount)
		labels[key] = dateutils.MonthLabel(tx.Date)
	}

	out := make([]models.MonthlyPoint, 0, len(sums))
	for key, amount := range sums {
		out = append(out, models.MonthlyPoint{Month: key, Label: labels[key], Amount: amount.Round(2)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

func weeklySeries(txs []models.Transaction) []models.WeeklyPoint {
	sums := make(map[string]decimal.Decimal)
	starts := make(map[string]civil.Date)
	for _, tx := range txs {
		key, monday := dateutils.ISOWeek(tx.Date)
		sums[key] = sums[key].Add(tx.Amount)
		starts[key] = monday
	}

	out := make([]models.WeeklyPoint, 0, len(sums))
	for key, amount := range sums {
		out = append(out, models.WeeklyPoint{Week: key, StartDate: starts[key], Amount: amount.Round(2)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out
}
