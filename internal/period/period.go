// Package period derives the selectable month/year ranges for reports.
package period

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gitlab.com/yelinaung/club-ledger/internal/format"
)

// Year window offered around the selected year.
const (
	yearsBefore = 5
	yearsAfter  = 1
)

var (
	// ErrNoSelection is returned when month or year has not been chosen yet.
	ErrNoSelection = errors.New("no period selected")
	// ErrMalformed is returned for month/year values that cannot be parsed.
	ErrMalformed = errors.New("malformed period")
)

// Selection holds the raw month key ("YYYY-MM") and year ("YYYY") chosen in the UI.
// Either field may be empty.
type Selection struct {
	Month string `json:"month"`
	Year  string `json:"year"`
}

// Empty reports whether the selection lacks a month or a year.
func (s Selection) Empty() bool {
	return strings.TrimSpace(s.Month) == "" || strings.TrimSpace(s.Year) == ""
}

// Option is a selectable value with its display label.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Period is a validated calendar month.
type Period struct {
	Year  int
	Month time.Month
}

// Current returns the selection for the month containing now.
func Current(now time.Time) Selection {
	return Selection{
		Month: MonthKey(now.Year(), now.Month()),
		Year:  strconv.Itoa(now.Year()),
	}
}

// MonthKey builds the "YYYY-MM" key used by payment rows.
func MonthKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// MonthOptions returns the twelve months of year with Portuguese labels.
func MonthOptions(year int) []Option {
	opts := make([]Option, 0, 12)
	for m := time.January; m <= time.December; m++ {
		opts = append(opts, Option{
			Value: MonthKey(year, m),
			Label: format.MonthName(m),
		})
	}
	return opts
}

// YearOptions returns selectedYear-5 through selectedYear+1.
func YearOptions(selectedYear int) []Option {
	opts := make([]Option, 0, yearsBefore+yearsAfter+1)
	for y := selectedYear - yearsBefore; y <= selectedYear+yearsAfter; y++ {
		v := strconv.Itoa(y)
		opts = append(opts, Option{Value: v, Label: v})
	}
	return opts
}

// ChangeYear switches the selection to newYear, re-keying the month while
// keeping its month component. A selection without a month only changes year.
func ChangeYear(sel Selection, newYear string) Selection {
	out := Selection{Month: sel.Month, Year: newYear}
	if sel.Month == "" {
		return out
	}
	_, mm, ok := strings.Cut(sel.Month, "-")
	if !ok {
		return out
	}
	out.Month = newYear + "-" + mm
	return out
}

// Parse validates a selection. The year in the month key must match the year
// field.
func Parse(sel Selection) (Period, error) {
	if sel.Empty() {
		return Period{}, ErrNoSelection
	}

	year, err := strconv.Atoi(strings.TrimSpace(sel.Year))
	if err != nil || year < 1900 || year > 9999 {
		return Period{}, fmt.Errorf("%w: year %q", ErrMalformed, sel.Year)
	}

	yy, mm, ok := strings.Cut(strings.TrimSpace(sel.Month), "-")
	if !ok || len(yy) != 4 || len(mm) != 2 {
		return Period{}, fmt.Errorf("%w: month %q", ErrMalformed, sel.Month)
	}
	keyYear, err := strconv.Atoi(yy)
	if err != nil {
		return Period{}, fmt.Errorf("%w: month %q", ErrMalformed, sel.Month)
	}
	if keyYear != year {
		return Period{}, fmt.Errorf("%w: month %q does not match year %q", ErrMalformed, sel.Month, sel.Year)
	}
	month, err := strconv.Atoi(mm)
	if err != nil || month < 1 || month > 12 {
		return Period{}, fmt.Errorf("%w: month %q", ErrMalformed, sel.Month)
	}

	return Period{Year: year, Month: time.Month(month)}, nil
}

// Key returns the "YYYY-MM" month key.
func (p Period) Key() string {
	return MonthKey(p.Year, p.Month)
}

// Start returns the first instant of the month in UTC.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first instant of the following month in UTC.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// Contains reports whether t falls in the calendar month, comparing the
// date components only so stored DATE values are not shifted by zone.
func (p Period) Contains(t time.Time) bool {
	return t.Year() == p.Year && t.Month() == p.Month
}

// Selection converts the period back into a UI selection.
func (p Period) Selection() Selection {
	return Selection{Month: p.Key(), Year: strconv.Itoa(p.Year)}
}

// Label renders e.g. "Março de 2024".
func (p Period) Label() string {
	return format.MonthLabel(p.Month, p.Year)
}

// String implements fmt.Stringer.
func (p Period) String() string {
	return p.Key()
}
