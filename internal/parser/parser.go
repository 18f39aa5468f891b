// Package parser defines the contract shared by every statement parsing
// strategy and the registry that dispatches on the detected format.
package parser

import (
	"context"

	"fjacquet/statement-insights/internal/models"
)

// Parser turns the raw bytes of one uploaded statement into transactions.
//
// Implementations return typed errors from parsererror for structural
// failures and drop individual bad records after logging them. Returned
// transactions carry a date, an amount and a counterparty; currency may be
// empty and category is assigned later by the processor.
type Parser interface {
	Parse(ctx context.Context, data []byte) ([]models.Transaction, error)
}

// Func adapts a function to the Parser interface.
type Func func(ctx context.Context, data []byte) ([]models.Transaction, error)

// Parse calls f.
func (f Func) Parse(ctx context.Context, data []byte) ([]models.Transaction, error) {
	return f(ctx, data)
}
