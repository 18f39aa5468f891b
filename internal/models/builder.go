package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// TransactionBuilder provides a fluent API for constructing transactions
type TransactionBuilder struct {
	tx  Transaction
	err error
}

// NewTransactionBuilder creates a new TransactionBuilder
func NewTransactionBuilder() *TransactionBuilder {
	return &TransactionBuilder{
		tx: Transaction{Amount: decimal.Zero},
	}
}

// WithDate sets the transaction date
func (b *TransactionBuilder) WithDate(date civil.Date) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	if !date.IsValid() {
		b.err = fmt.Errorf("invalid date %s", date)
		return b
	}
	b.tx.Date = date
	return b
}

// WithDateFromTime sets the transaction date from a time.Time, keeping its calendar day
func (b *TransactionBuilder) WithDateFromTime(t time.Time) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	if t.IsZero() {
		b.err = errors.New("date cannot be zero")
		return b
	}
	b.tx.Date = civil.DateOf(t)
	return b
}

// WithISODate sets the date from a YYYY-MM-DD string
func (b *TransactionBuilder) WithISODate(s string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		b.err = fmt.Errorf("invalid date %q: %w", s, err)
		return b
	}
	b.tx.Date = d
	return b
}

// WithAmount sets the signed amount
func (b *TransactionBuilder) WithAmount(amount decimal.Decimal) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.Amount = amount
	return b
}

// WithAmountFromString sets the signed amount from a plain decimal string
func (b *TransactionBuilder) WithAmountFromString(s string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	amount, err := decimal.NewFromString(s)
	if err != nil {
		b.err = fmt.Errorf("invalid amount %q: %w", s, err)
		return b
	}
	b.tx.Amount = amount
	return b
}

// WithCurrency sets the currency code
func (b *TransactionBuilder) WithCurrency(currency string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.Currency = strings.ToUpper(strings.TrimSpace(currency))
	return b
}

// WithCounterparty sets the free-text counterparty
func (b *TransactionBuilder) WithCounterparty(counterparty string) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.Counterparty = strings.TrimSpace(counterparty)
	return b
}

// WithCategory sets the category
func (b *TransactionBuilder) WithCategory(category Category) *TransactionBuilder {
	if b.err != nil {
		return b
	}
	b.tx.Category = category
	return b
}

// Build validates the transaction and returns it
func (b *TransactionBuilder) Build() (Transaction, error) {
	if b.err != nil {
		return Transaction{}, fmt.Errorf("builder error: %w", b.err)
	}
	if !b.tx.Date.IsValid() {
		return Transaction{}, errors.New("date is required")
	}
	if b.tx.Category != "" && !b.tx.Category.IsValid() {
		return Transaction{}, fmt.Errorf("unknown category %q", b.tx.Category)
	}
	return b.tx, nil
}

// MustBuild is Build for fixtures; it panics on error.
func (b *TransactionBuilder) MustBuild() Transaction {
	tx, err := b.Build()
	if err != nil {
		panic(err)
	}
	return tx
}
