package travel

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

const dateLayout = "2006-01-02"

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// phraseParser resolves relative English phrases ("in 3 days", "next week")
// against an explicit base time. The rule set is immutable after
// construction.
var phraseParser = newPhraseParser()

func newPhraseParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// IsWeekdayName reports whether s names a day of the week.
func IsWeekdayName(s string) bool {
	_, ok := weekdays[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// NextWeekday returns the date of the next occurrence of the named weekday
// strictly after from, in YYYY-MM-DD format. Unknown names yield "".
func NextWeekday(name string, from time.Time) string {
	target, ok := weekdays[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return ""
	}
	daysAhead := int(target) - int(from.Weekday())
	if daysAhead <= 0 {
		daysAhead += 7
	}
	return from.AddDate(0, 0, daysAhead).Format(dateLayout)
}

// WeekendDates returns the upcoming Saturday and Sunday.
func WeekendDates(now time.Time) (string, string) {
	daysToSaturday := (int(time.Saturday) - int(now.Weekday()) + 7) % 7
	saturday := now.AddDate(0, 0, daysToSaturday)
	sunday := saturday.AddDate(0, 0, 1)
	return saturday.Format(dateLayout), sunday.Format(dateLayout)
}

// yearlessLayouts cover month-day strings dateparse rejects for lack of a
// year; they anchor to the current year and bump forward if already past.
var yearlessLayouts = []string{"January 2", "Jan 2", "01/02"}

// ParseDate parses a loosely formatted date string into YYYY-MM-DD. Absolute
// formats go through dateparse, relative English phrases through the when
// parser anchored at now. Dates that land in the past are bumped to their
// next future occurrence, since a travel request is always about upcoming
// dates. Returns "" when the string cannot be resolved to a date.
func ParseDate(s string, now time.Time) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	switch lower {
	case "", "null", "none":
		return ""
	case "today":
		return now.Format(dateLayout)
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format(dateLayout)
	case "this weekend":
		saturday, _ := WeekendDates(now)
		return saturday
	}
	if IsWeekdayName(lower) {
		return NextWeekday(lower, now)
	}
	if rest, ok := strings.CutPrefix(lower, "next "); ok && IsWeekdayName(rest) {
		return NextWeekday(rest, now)
	}

	if parsed, err := dateparse.ParseAny(s); err == nil {
		if parsed.Year() == 0 {
			parsed = time.Date(now.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, now.Location())
		}
		return bumpToFuture(parsed, now).Format(dateLayout)
	}

	for _, layout := range yearlessLayouts {
		parsed, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		parsed = time.Date(now.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, now.Location())
		return bumpToFuture(parsed, now).Format(dateLayout)
	}

	if r, err := phraseParser.Parse(s, now); err == nil && r != nil {
		return bumpToFuture(r.Time, now).Format(dateLayout)
	}
	return ""
}

// bumpToFuture moves a past date to the next occurrence of its month and
// day.
func bumpToFuture(date, now time.Time) time.Time {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if !date.Before(today) {
		return date
	}
	bumped := time.Date(now.Year(), date.Month(), date.Day(), 0, 0, 0, 0, now.Location())
	if bumped.Before(today) {
		bumped = bumped.AddDate(1, 0, 0)
	}
	return bumped
}
