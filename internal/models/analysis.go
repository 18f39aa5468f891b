package models

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Trend is the direction of a category between the two halves of a period.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// AnalysisResult is the full analytics output for one statement.
type AnalysisResult struct {
	Transactions    []Transaction    `json:"transactions"`
	ReportInfo      ReportInfo       `json:"reportInfo"`
	Summary         Summary          `json:"summary"`
	WealthForecasts []WealthForecast `json:"wealthForecasts"`
}

// ReportInfo carries report metadata.
type ReportInfo struct {
	GeneratedAt          time.Time  `json:"generatedAt"`
	FirstTransactionDate civil.Date `json:"firstTransactionDate"`
	LastTransactionDate  civil.Date `json:"lastTransactionDate"`
	PeriodInDays         int        `json:"periodInDays"`
	PeriodInMonths       int        `json:"periodInMonths"`
}

// Summary holds the income and expense partitions plus cash flow.
type Summary struct {
	TotalTransactions int       `json:"totalTransactions"`
	Income            Partition `json:"income"`
	Expenses          Partition `json:"expenses"`
	CashFlow          CashFlow  `json:"cashFlow"`
}

// Partition aggregates either all inflows or all outflows.
type Partition struct {
	Total          decimal.Decimal `json:"total"`
	MonthlyAverage decimal.Decimal `json:"monthlyAverage"`
	Categories     []CategoryGroup `json:"categories"`
	Trends         Trends          `json:"trends"`
}

// Trends holds the time series for a partition.
type Trends struct {
	Monthly []MonthlyPoint `json:"monthly"`
	Weekly  []WeeklyPoint  `json:"weekly"`
}

// CategoryGroup aggregates the transactions of one category within a partition.
type CategoryGroup struct {
	Name           Category            `json:"name"`
	Total          decimal.Decimal     `json:"total"`
	Percentage     float64             `json:"percentage"`
	Trend          Trend               `json:"trend"`
	Counterparties []CounterpartyTotal `json:"counterparties"`
}

// CounterpartyTotal is the absolute total for one counterparty.
type CounterpartyTotal struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

// MonthlyPoint is one YYYY-MM bucket of signed amounts.
type MonthlyPoint struct {
	Month  string          `json:"month"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// WeeklyPoint is one ISO week bucket of signed amounts.
type WeeklyPoint struct {
	Week      string          `json:"week"`
	StartDate civil.Date      `json:"startDate"`
	Amount    decimal.Decimal `json:"amount"`
}

// CashFlow is net income normalized to several rates.
type CashFlow struct {
	Daily   decimal.Decimal `json:"daily"`
	Monthly decimal.Decimal `json:"monthly"`
	Annual  decimal.Decimal `json:"annual"`
	Weekly  []WeeklyPoint   `json:"weekly"`
}

// WealthForecast is a linear, undiscounted projection of cash flow.
type WealthForecast struct {
	Years               int             `json:"years"`
	Amount              decimal.Decimal `json:"amount"`
	MonthlyContribution decimal.Decimal `json:"monthlyContribution"`
}
