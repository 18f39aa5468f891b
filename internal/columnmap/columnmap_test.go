package columnmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fjacquet/statement-insights/internal/parsererror"
)

func TestScore(t *testing.T) {
	tests := []struct {
		header string
		field  Field
		want   float64
	}{
		{"Date", FieldDate, 1.0},
		{"  DATE  ", FieldDate, 1.0},
		{"Transaction   Date", FieldDate, 1.0},
		{"Booking date", FieldDate, 0.8},
		{"Amount (USD)", FieldAmount, 0.8},
		{"Paid Out", FieldDebit, 1.0},
		{"Balance", FieldAmount, 0},
		{"", FieldDate, 0},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.InDelta(t, tt.want, Score(tt.header, Patterns[tt.field]), 1e-9)
		})
	}
}

func TestMap(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    Mapping
	}{
		{
			name:    "simple",
			headers: []string{"date", "amount", "currency", "description"},
			want:    Mapping{Date: 0, Amount: 1, Currency: 2, Description: 3, Debit: NotFound, Credit: NotFound},
		},
		{
			name:    "case and spacing variants",
			headers: []string{" Posted  Date ", "Details", "AMOUNT"},
			want:    Mapping{Date: 0, Description: 1, Amount: 2, Debit: NotFound, Credit: NotFound, Currency: NotFound},
		},
		{
			name:    "exact beats contains",
			headers: []string{"Value Date", "Date", "Transaction Amount", "Amount"},
			want:    Mapping{Date: 1, Description: 2, Amount: 2, Debit: NotFound, Credit: NotFound, Currency: NotFound},
		},
		{
			name:    "tie goes to first occurrence",
			headers: []string{"Booking Date", "Value Date", "Text", "Amount"},
			want:    Mapping{Date: 0, Description: NotFound, Amount: 3, Debit: NotFound, Credit: NotFound, Currency: NotFound},
		},
		{
			name:    "split debit credit",
			headers: []string{"Date", "Narrative", "Paid Out", "Paid In", "Balance"},
			want:    Mapping{Date: 0, Description: 1, Amount: NotFound, Debit: 2, Credit: 3, Currency: NotFound},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Map(tt.headers))
		})
	}
}

func TestMapping_Validate(t *testing.T) {
	tests := []struct {
		name       string
		headers    []string
		wantValid  bool
		wantSplit  bool
		wantReason string
	}{
		{"date and amount", []string{"date", "amount"}, true, false, ""},
		{"split columns", []string{"date", "debit", "credit"}, true, true, ""},
		{"only debit", []string{"date", "debit"}, false, false, "AMOUNT_COLUMN_NOT_FOUND"},
		{"no date", []string{"description", "amount"}, false, false, "DATE_COLUMN_NOT_FOUND"},
		{"data row", []string{"2024-01-05", "-42.50", "USD", "Uber ride"}, false, false, "DATE_COLUMN_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Map(tt.headers)
			assert.Equal(t, tt.wantValid, m.Valid())
			assert.Equal(t, tt.wantSplit, m.UsesSplitAmounts())

			err := m.Validate()
			if tt.wantValid {
				assert.NoError(t, err)
				return
			}
			var missing *parsererror.MissingColumnError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tt.wantReason, missing.Reason())
			assert.Equal(t, parsererror.CodeMissingRequiredColumn, parsererror.CodeOf(err))
		})
	}
}
