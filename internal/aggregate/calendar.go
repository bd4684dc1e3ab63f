// Package aggregate turns flat record streams into display summaries: month
// buckets, per-article totals and per-welder breakdowns. Everything here is
// pure; no function performs I/O.
package aggregate

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MonthKeyLayout is the time layout of a month key ("YYYY-MM"). Keys sort
// lexicographically in chronological order.
const MonthKeyLayout = "2006-01"

// Round2 rounds x to two decimal places, halves rounding up.
func Round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}

// Calendar fixes the wall clock and language used for month bucketing and
// labels. The zero value uses time.Local and Russian labels.
type Calendar struct {
	Location *time.Location
	Language language.Tag
}

func (c Calendar) loc() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// MonthKey returns the "YYYY-MM" key of t in the calendar's location.
func (c Calendar) MonthKey(t time.Time) string {
	return t.In(c.loc()).Format(MonthKeyLayout)
}

// SameMonth reports whether a and b fall in the same calendar month.
func (c Calendar) SameMonth(a, b time.Time) bool {
	return c.MonthKey(a) == c.MonthKey(b)
}

var labelMatcher = language.NewMatcher([]language.Tag{
	language.Russian,
	language.English,
})

var monthNames = [][12]string{
	{"январь", "февраль", "март", "апрель", "май", "июнь",
		"июль", "август", "сентябрь", "октябрь", "ноябрь", "декабрь"},
	{"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December"},
}

// MonthLabel returns the human-readable month and year of t, e.g.
// "январь 2024 г." or "January 2024".
func (c Calendar) MonthLabel(t time.Time) string {
	t = t.In(c.loc())
	tag := c.Language
	if tag == language.Und {
		tag = language.Russian
	}
	_, idx, _ := labelMatcher.Match(tag)
	name := monthNames[idx][t.Month()-1]
	if idx == 0 {
		return fmt.Sprintf("%s %d г.", name, t.Year())
	}
	return fmt.Sprintf("%s %d", name, t.Year())
}

// TitleLabel is MonthLabel with the first letter upper-cased in the
// calendar's language, used for headings.
func (c Calendar) TitleLabel(t time.Time) string {
	label := []rune(c.MonthLabel(t))
	if len(label) == 0 {
		return ""
	}
	first := cases.Title(c.Language).String(string(label[0]))
	return first + string(label[1:])
}
