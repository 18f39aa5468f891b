// Package models provides the data structures used throughout the application.
package models

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

func init() {
	// Amounts are emitted as JSON numbers rather than quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Transaction is one normalized statement line. It is created by a parser,
// categorized once, and only read afterwards.
type Transaction struct {
	Date         civil.Date      `json:"date"`
	Amount       decimal.Decimal `json:"amount"` // positive = inflow, negative = outflow
	Currency     string          `json:"currency,omitempty"`
	Counterparty string          `json:"counterparty"`
	Category     Category        `json:"category"`
}

// IsIncome reports whether the transaction is an inflow.
func (t Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

// IsExpense reports whether the transaction is an outflow.
func (t Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// AbsAmount returns the unsigned amount.
func (t Transaction) AbsAmount() decimal.Decimal {
	return t.Amount.Abs()
}

// FormatDate returns the canonical YYYY-MM-DD form of the date.
func (t Transaction) FormatDate() string {
	return t.Date.String()
}

// TransactionRow is the flat CSV shape of a transaction.
type TransactionRow struct {
	Date         string `csv:"date"`
	Amount       string `csv:"amount"`
	Currency     string `csv:"currency"`
	Counterparty string `csv:"counterparty"`
	Category     string `csv:"category"`
}

// ToRow converts a transaction to its CSV row.
func (t Transaction) ToRow() TransactionRow {
	return TransactionRow{
		Date:         t.FormatDate(),
		Amount:       t.Amount.StringFixed(2),
		Currency:     t.Currency,
		Counterparty: t.Counterparty,
		Category:     string(t.Category),
	}
}

// ToRows converts a transaction list to CSV rows, preserving order.
func ToRows(txs []Transaction) []TransactionRow {
	rows := make([]TransactionRow, len(txs))
	for i, tx := range txs {
		rows[i] = tx.ToRow()
	}
	return rows
}
