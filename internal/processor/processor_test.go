package processor_test

import (
	"context"
	"testing"
	"time"

	"fjacquet/statement-insights/internal/detector"
	"fjacquet/statement-insights/internal/factory"
	"fjacquet/statement-insights/internal/models"
	"fjacquet/statement-insights/internal/parser"
	"fjacquet/statement-insights/internal/parsererror"
	"fjacquet/statement-insights/internal/processor"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProcessor(cfg processor.Config) *processor.Processor {
	return processor.New(factory.NewRegistry(factory.Options{}), nil, cfg, nil)
}

func TestProcess_CSV(t *testing.T) {
	csv := "date,amount,currency,description\n2024-01-10,3000,USD,Salary payment\n2024-01-05,-42.50,USD,Uber ride\n"

	txs, err := newProcessor(processor.Config{}).Process(context.Background(), processor.Upload{
		Data: []byte(csv), MIMEType: "text/csv", Filename: "jan.csv",
	})

	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, civil.Date{Year: 2024, Month: 1, Day: 5}, txs[0].Date)
	assert.Equal(t, models.CategoryTransport, txs[0].Category)
	assert.Equal(t, models.CategoryIncome, txs[1].Category)
}

func TestProcess_DefaultCurrency(t *testing.T) {
	csv := "Date,Description,Amount\n2024-02-01,Netflix,15.99\n2024-02-02,Rent,-900\n"

	txs, err := newProcessor(processor.Config{DefaultCurrency: "EUR"}).Process(context.Background(), processor.Upload{
		Data: []byte(csv), MIMEType: "text/csv",
	})

	require.NoError(t, err)
	for _, tx := range txs {
		assert.Equal(t, "EUR", tx.Currency)
	}
}

func TestProcess_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		upload processor.Upload
		cfg    processor.Config
		code   parsererror.Code
	}{
		{"json is unsupported", processor.Upload{Data: []byte(`{"a":1}`), MIMEType: "application/json", Filename: "x.csv"}, processor.Config{}, parsererror.CodeUnsupportedFileType},
		{"mislabeled pdf", processor.Upload{Data: []byte("date,amount\n"), MIMEType: "application/pdf"}, processor.Config{}, parsererror.CodeInvalidFileContent},
		{"empty csv", processor.Upload{Data: nil, MIMEType: "text/csv"}, processor.Config{}, parsererror.CodeInvalidFileContent},
		{"too large", processor.Upload{Data: make([]byte, 11), MIMEType: "text/csv"}, processor.Config{MaxBytes: 10}, parsererror.CodeFileTooLarge},
		{"missing columns", processor.Upload{Data: []byte("foo,bar\n1,2\n"), MIMEType: "text/csv"}, processor.Config{}, parsererror.CodeMissingRequiredColumn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newProcessor(tt.cfg).Process(context.Background(), tt.upload)
			assert.Equal(t, tt.code, parsererror.CodeOf(err))
		})
	}
}

type slowParser struct{}

func (slowParser) Parse(ctx context.Context, _ []byte) ([]models.Transaction, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type staticSource struct{ p parser.Parser }

func (s staticSource) Get(detector.Format) (parser.Parser, error) { return s.p, nil }

func TestProcess_Timeout(t *testing.T) {
	p := processor.New(staticSource{slowParser{}}, nil, processor.Config{Timeout: 10 * time.Millisecond}, nil)

	_, err := p.Process(context.Background(), processor.Upload{Data: []byte("x"), MIMEType: "text/csv"})

	require.Error(t, err)
	assert.Equal(t, parsererror.CodeParseTimeout, parsererror.CodeOf(err))
	assert.True(t, parsererror.IsRetryable(err))
}
