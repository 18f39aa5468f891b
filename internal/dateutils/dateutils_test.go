package dateutils

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_Parse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		order    Order
		expected string
	}{
		{"iso", "2023-12-31", MonthFirst, "2023-12-31"},
		{"iso with time", "2024-01-05T13:45:00Z", MonthFirst, "2024-01-05"},
		{"iso with space time", "2024-01-05 08:00:00", MonthFirst, "2024-01-05"},
		{"slash year first", "2024/03/15", MonthFirst, "2024-03-15"},
		{"day first by value", "31/12/2023", MonthFirst, "2023-12-31"},
		{"month first by value", "12/31/2023", DayFirst, "2023-12-31"},
		{"ambiguous month first", "03/04/2024", MonthFirst, "2024-03-04"},
		{"ambiguous day first", "03/04/2024", DayFirst, "2024-04-03"},
		{"dotted european", "15.03.2024", MonthFirst, "2024-03-15"},
		{"dashed", "15-03-2024", MonthFirst, "2024-03-15"},
		{"two digit year", "03/15/24", MonthFirst, "2024-03-15"},
		{"two digit year last century", "03/15/85", MonthFirst, "1985-03-15"},
		{"single digits", "1/5/2024", MonthFirst, "2024-01-05"},
		{"textual us", "Jan 5, 2024", MonthFirst, "2024-01-05"},
		{"textual long", "January 5, 2024", MonthFirst, "2024-01-05"},
		{"textual day first", "5 Jan 2024", MonthFirst, "2024-01-05"},
		{"textual dashed", "5-Jan-2024", MonthFirst, "2024-01-05"},
		{"extra whitespace", "  2024-01-05  ", MonthFirst, "2024-01-05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewParser(tt.order).Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d.String())
		})
	}
}

func TestParser_ParseInvalid(t *testing.T) {
	inputs := []string{"", "   ", "yesterday", "2023-02-30", "13/13/2024", "2024-13-01", "12345", "99/99/99"}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := ParseDate(in)
			assert.Error(t, err)
		})
	}
}

func TestNormalizeDate_RoundTrip(t *testing.T) {
	a, err := NormalizeDate("31/12/2023")
	require.NoError(t, err)
	b, err := NormalizeDate("2023-12-31")
	require.NoError(t, err)
	assert.Equal(t, "2023-12-31", a)
	assert.Equal(t, a, b)
}

func TestParseOrder(t *testing.T) {
	assert.Equal(t, DayFirst, ParseOrder("DMY"))
	assert.Equal(t, MonthFirst, ParseOrder("mdy"))
	assert.Equal(t, MonthFirst, ParseOrder(""))
}

func TestPeriodHelpers(t *testing.T) {
	jan5 := civil.Date{Year: 2024, Month: time.January, Day: 5}
	jan10 := civil.Date{Year: 2024, Month: time.January, Day: 10}
	mar4 := civil.Date{Year: 2024, Month: time.March, Day: 4}

	assert.Equal(t, 5, DaysBetween(jan5, jan10))
	assert.Equal(t, 0, FullMonthsBetween(jan5, jan10))
	assert.Equal(t, 1, FullMonthsBetween(jan5, mar4))
	assert.Equal(t, "2024-01", MonthKey(jan5))
	assert.Equal(t, "Jan 2024", MonthLabel(jan5))
}

func TestISOWeek(t *testing.T) {
	// 2024-01-05 is a Friday in ISO week 1, which starts Monday 2024-01-01.
	key, start := ISOWeek(civil.Date{Year: 2024, Month: time.January, Day: 5})
	assert.Equal(t, "2024-W01", key)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.January, Day: 1}, start)

	// 2021-01-03 is a Sunday belonging to 2020-W53.
	key, start = ISOWeek(civil.Date{Year: 2021, Month: time.January, Day: 3})
	assert.Equal(t, "2020-W53", key)
	assert.Equal(t, civil.Date{Year: 2020, Month: time.December, Day: 28}, start)
}
