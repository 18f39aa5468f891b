// Package dateutils parses the heterogeneous date strings found in bank
// exports into calendar dates.
package dateutils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Order decides how an ambiguous numeric date such as 03/04/2024 is read.
type Order int

const (
	MonthFirst Order = iota // 03/04/2024 is March 4th
	DayFirst                // 03/04/2024 is April 3rd
)

// ParseOrder maps the configuration value ("mdy" or "dmy") to an Order.
func ParseOrder(s string) Order {
	if strings.EqualFold(strings.TrimSpace(s), "dmy") {
		return DayFirst
	}
	return MonthFirst
}

// Layout constants used for textual month formats.
const (
	DateLayoutISO       = "2006-01-02"
	DateLayoutWithMonth = "2-Jan-2006"
)

// textualFormats are tried after the numeric forms fail.
var textualFormats = []string{
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"January 2 2006",
	"2 Jan 2006",
	"2 January 2006",
	"2 Jan, 2006",
	DateLayoutWithMonth,
	"2-Jan-06",
	"Mon, Jan 2, 2006",
	"Monday, January 2, 2006",
}

// numericDate matches Y-M-D, D/M/Y and M/D/Y with '-', '/' or '.' separators
// and an optional trailing time part.
var numericDate = regexp.MustCompile(`^(\d{1,4})[./-](\d{1,2})[./-](\d{1,4})(?:[ T].*)?$`)

var spaces = regexp.MustCompile(`\s+`)

const (
	minYear = 1900
	maxYear = 2999
)

// Parser parses date strings with a fixed ambiguity rule.
type Parser struct {
	Order Order
}

// NewParser creates a Parser using the given order for ambiguous dates.
func NewParser(order Order) *Parser {
	return &Parser{Order: order}
}

// ParseDate parses s with month-first ambiguity resolution.
func ParseDate(s string) (civil.Date, error) {
	return NewParser(MonthFirst).Parse(s)
}

// NormalizeDate parses s and returns its canonical YYYY-MM-DD form.
func NormalizeDate(s string) (string, error) {
	d, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return d.String(), nil
}

// Parse converts s into a calendar date. Unparseable or impossible dates
// (such as 2023-02-30) return an error.
func (p *Parser) Parse(s string) (civil.Date, error) {
	cleaned := CleanDateString(s)
	if cleaned == "" {
		return civil.Date{}, fmt.Errorf("empty date")
	}

	if m := numericDate.FindStringSubmatch(cleaned); m != nil {
		d, err := p.fromParts(m[1], m[2], m[3])
		if err != nil {
			return civil.Date{}, fmt.Errorf("unable to parse date %q: %w", s, err)
		}
		return d, nil
	}

	for _, layout := range textualFormats {
		if t, err := time.Parse(layout, cleaned); err == nil {
			d := civil.DateOf(t)
			if err := validate(d); err != nil {
				return civil.Date{}, fmt.Errorf("unable to parse date %q: %w", s, err)
			}
			return d, nil
		}
	}

	return civil.Date{}, fmt.Errorf("unable to parse date %q", s)
}

func (p *Parser) fromParts(a, b, c string) (civil.Date, error) {
	x, _ := strconv.Atoi(a)
	y, _ := strconv.Atoi(b)
	z, _ := strconv.Atoi(c)

	var year, month, day int
	switch {
	case len(a) == 4:
		year, month, day = x, y, z
	case len(c) == 4 || len(c) == 2:
		year = expandYear(z, len(c))
		switch {
		case x > 12:
			day, month = x, y
		case y > 12:
			month, day = x, y
		case p.Order == DayFirst:
			day, month = x, y
		default:
			month, day = x, y
		}
	default:
		return civil.Date{}, fmt.Errorf("unrecognized year component")
	}

	d := civil.Date{Year: year, Month: time.Month(month), Day: day}
	return d, validate(d)
}

func expandYear(y, digits int) int {
	if digits != 2 {
		return y
	}
	if y < 70 {
		return 2000 + y
	}
	return 1900 + y
}

func validate(d civil.Date) error {
	if !d.IsValid() {
		return fmt.Errorf("invalid calendar date %04d-%02d-%02d", d.Year, d.Month, d.Day)
	}
	if d.Year < minYear || d.Year > maxYear {
		return fmt.Errorf("year %d out of range", d.Year)
	}
	return nil
}

// CleanDateString trims and collapses whitespace and drops a trailing comma or semicolon.
func CleanDateString(dateStr string) string {
	dateStr = strings.TrimSpace(dateStr)
	dateStr = spaces.ReplaceAllString(dateStr, " ")
	return strings.TrimRight(dateStr, ",;")
}

// DaysBetween returns the number of days from a to b.
func DaysBetween(a, b civil.Date) int {
	return b.DaysSince(a)
}

// FullMonthsBetween returns the number of complete months from a to b.
func FullMonthsBetween(a, b civil.Date) int {
	months := (b.Year-a.Year)*12 + int(b.Month) - int(a.Month)
	if b.Day < a.Day {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// MonthKey returns the YYYY-MM bucket key of d.
func MonthKey(d civil.Date) string {
	return fmt.Sprintf("%04d-%02d", d.Year, int(d.Month))
}

// MonthLabel returns a display label such as "Jan 2024".
func MonthLabel(d civil.Date) string {
	return fmt.Sprintf("%s %04d", d.Month.String()[:3], d.Year)
}

// ISOWeek returns the ISO week key (2024-W01) of d and the Monday starting that week.
func ISOWeek(d civil.Date) (string, civil.Date) {
	t := d.In(time.UTC)
	year, week := t.ISOWeek()
	offset := (int(t.Weekday()) + 6) % 7
	return fmt.Sprintf("%04d-W%02d", year, week), d.AddDays(-offset)
}
