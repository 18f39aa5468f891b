package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"fjacquet/statement-insights/internal/logging"
	"fjacquet/statement-insights/internal/models"
	"fjacquet/statement-insights/internal/parsererror"
	"fjacquet/statement-insights/internal/processor"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcessor struct {
	byName map[string][]models.Transaction
	fail   map[string]error
}

func (f fakeProcessor) Process(_ context.Context, u processor.Upload) ([]models.Transaction, error) {
	if err := f.fail[u.Filename]; err != nil {
		return nil, err
	}
	out := make([]models.Transaction, len(f.byName[u.Filename]))
	copy(out, f.byName[u.Filename])
	return out, nil
}

func tx(day int, amount, party string) models.Transaction {
	return models.Transaction{
		Date:         civil.Date{Year: 2024, Month: 3, Day: day},
		Amount:       decimal.RequireFromString(amount),
		Counterparty: party,
	}
}

func writeFiles(t *testing.T, dir string, names ...string) []string {
	t.Helper()
	var paths []string
	for _, n := range names {
		p := filepath.Join(dir, n)
		require.NoError(t, os.WriteFile(p, []byte("x"), 0600))
		paths = append(paths, p)
	}
	return paths
}

func TestAggregate_MergesChronologically(t *testing.T) {
	dir := t.TempDir()
	files := writeFiles(t, dir, "feb.csv", "mar.csv")
	proc := fakeProcessor{byName: map[string][]models.Transaction{
		"feb.csv": {tx(10, "-20", "Shop"), tx(2, "1000", "Salary")},
		"mar.csv": {tx(5, "-8.50", "Cafe"), tx(10, "-20", "shop ")},
	}}
	log := logging.NewRecorder()

	result, err := NewAggregator(proc, 1<<20, log).Aggregate(context.Background(), files)
	require.NoError(t, err)

	require.Len(t, result.Transactions, 4)
	assert.Equal(t, 2, result.Transactions[0].Date.Day)
	assert.Equal(t, 10, result.Transactions[3].Date.Day)
	assert.Equal(t, "2024-03-02_2024-03-10", result.DateRange.String())
	assert.Equal(t, 1, result.Duplicates)
	assert.Len(t, log.EntriesAt("WARN"), 1)
	assert.Empty(t, result.Failed())
}

func TestAggregate_SkipsFailedFiles(t *testing.T) {
	dir := t.TempDir()
	files := writeFiles(t, dir, "good.csv", "bad.csv")
	proc := fakeProcessor{
		byName: map[string][]models.Transaction{"good.csv": {tx(1, "-5", "Cafe")}},
		fail:   map[string]error{"bad.csv": &parsererror.NoValidRecordsError{Format: "csv"}},
	}

	result, err := NewAggregator(proc, 1<<20, nil).Aggregate(context.Background(), files)
	require.NoError(t, err)

	assert.Len(t, result.Transactions, 1)
	require.Len(t, result.Failed(), 1)
	assert.Equal(t, files[1], result.Failed()[0].File)
}

func TestAggregate_AllFailed(t *testing.T) {
	dir := t.TempDir()
	files := writeFiles(t, dir, "bad.csv")
	want := &parsererror.NoValidRecordsError{Format: "csv"}
	proc := fakeProcessor{fail: map[string]error{"bad.csv": want}}

	_, err := NewAggregator(proc, 1<<20, nil).Aggregate(context.Background(), files)

	assert.True(t, errors.Is(err, want))
}

func TestAggregate_FileTooLarge(t *testing.T) {
	big := filepath.Join(t.TempDir(), "big.csv")
	require.NoError(t, os.WriteFile(big, []byte("0123456789"), 0600))

	_, err := NewAggregator(fakeProcessor{}, 4, nil).Aggregate(context.Background(), []string{big})

	assert.Equal(t, parsererror.CodeFileTooLarge, parsererror.CodeOf(err))
}

func TestAggregate_NoFiles(t *testing.T) {
	_, err := NewAggregator(fakeProcessor{}, 1<<20, nil).Aggregate(context.Background(), nil)
	assert.Error(t, err)
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "b.pdf", "a.csv", "notes.txt")
	extra := filepath.Join(t.TempDir(), "single.xlsx")

	files, err := CollectFiles([]string{dir, extra})
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.pdf"), extra}, files)
}

func TestGenerateOutputFilename(t *testing.T) {
	tests := []struct {
		name string
		dr   DateRange
		want string
	}{
		{"with range", DateRange{Start: civil.Date{Year: 2024, Month: 1, Day: 1}, End: civil.Date{Year: 2024, Month: 1, Day: 31}}, "merged_2024-01-01_2024-01-31.csv"},
		{"without range", DateRange{}, "merged.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateOutputFilename("merged", tt.dr))
		})
	}
}
