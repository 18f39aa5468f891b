package textutils_test

import (
	"context"
	"testing"

	"fjacquet/statement-insights/internal/dateutils"
	"fjacquet/statement-insights/internal/logging"
	"fjacquet/statement-insights/internal/parsererror"
	"fjacquet/statement-insights/internal/textutils"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newExtractor(logger logging.Logger) *textutils.LineExtractor {
	return textutils.NewLineExtractor(dateutils.NewParser(dateutils.MonthFirst), textutils.DefaultSignPolicy(), logger)
}

func TestExtract_WholeLineBecomesCounterparty(t *testing.T) {
	text := "Account Statement\n  03/15/2024   $128.40   Whole Foods Market  \nPage 1 of 1\n"

	txs, err := newExtractor(nil).Extract(context.Background(), text, "pdf")

	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, civil.Date{Year: 2024, Month: 3, Day: 15}, txs[0].Date)
	assert.Equal(t, "-128.4", txs[0].Amount.String())
	assert.Equal(t, "USD", txs[0].Currency)
	assert.Equal(t, "03/15/2024   $128.40   Whole Foods Market", txs[0].Counterparty)
}

func TestExtract_Sign(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected string
	}{
		{"unmarked defaults to expense", "01/02/2024 Coffee Shop 4.50", "-4.5"},
		{"explicit minus", "01/02/2024 Coffee Shop -4.50", "-4.5"},
		{"parentheses", "01/02/2024 Coffee Shop (4.50)", "-4.5"},
		{"deposit keyword", "01/03/2024 Direct Deposit ACME 2,500.00", "2500"},
		{"salary keyword", "01/03/2024 SALARY January EUR 1200.00", "1200"},
		{"transfer in keyword", "01/04/2024 Transfer in from savings 100.00", "100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txs, err := newExtractor(nil).Extract(context.Background(), tt.line, "pdf")
			require.NoError(t, err)
			require.Len(t, txs, 1)
			assert.Equal(t, tt.expected, txs[0].Amount.String())
		})
	}
}

func TestExtract_DefaultPositivePolicy(t *testing.T) {
	x := textutils.NewLineExtractor(nil, textutils.NewSignPolicy("positive", nil), nil)

	txs, err := x.Extract(context.Background(), "05/06/2024 Something 10.00", "image")

	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "10", txs[0].Amount.String())
}

func TestExtract_CurrencyCodeOnLine(t *testing.T) {
	txs, err := newExtractor(nil).Extract(context.Background(), "15/03/2024 Boulangerie EUR 12.30", "pdf")

	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "EUR", txs[0].Currency)
	assert.Equal(t, civil.Date{Year: 2024, Month: 3, Day: 15}, txs[0].Date)
}

func TestExtract_SkipsLinesWithoutDateOrAmount(t *testing.T) {
	text := "Balance forward 1,000.00\n03/01/2024 Opening\n03/02/2024 Rent 950.00\n"

	txs, err := newExtractor(nil).Extract(context.Background(), text, "pdf")

	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "-950", txs[0].Amount.String())
}

func TestExtract_InvalidDateIsSkippedWithWarning(t *testing.T) {
	rec := logging.NewRecorder()
	text := "13/45/2024 Bad date 10.00\n03/02/2024 Rent 950.00\n"

	txs, err := newExtractor(rec).Extract(context.Background(), text, "pdf")

	require.NoError(t, err)
	assert.Len(t, txs, 1)
	warnings := rec.EntriesAt("WARN")
	require.Len(t, warnings, 1)
	assert.True(t, warnings[0].HasField(logging.FieldLine, 1))
	assert.True(t, warnings[0].HasField(logging.FieldCode, string(parsererror.CodeDateParseFailure)))
}

func TestExtract_NoTransactions(t *testing.T) {
	_, err := newExtractor(nil).Extract(context.Background(), "nothing to see here", "pdf")

	require.Error(t, err)
	assert.Equal(t, parsererror.CodeNoValidRecords, parsererror.CodeOf(err))
}

func TestExtract_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newExtractor(nil).Extract(ctx, "03/02/2024 Rent 950.00", "pdf")

	assert.ErrorIs(t, err, context.Canceled)
}
