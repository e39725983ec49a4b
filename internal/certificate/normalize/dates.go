package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// dayFirstLayouts are tried after ISO and before the lenient parser, so
// "05/03/2024" reads as 5 March. Unpadded verbs accept padded input.
var dayFirstLayouts = buildDayFirstLayouts()

func buildDayFirstLayouts() []string {
	var layouts []string
	for _, sep := range []string{"/", "-", "."} {
		for _, year := range []string{"2006", "06"} {
			base := "2" + sep + "1" + sep + year
			for _, clock := range []string{"", " 15:04", " 15:04:05", " 3:04 PM", " 3:04PM"} {
				layouts = append(layouts, base+clock)
			}
		}
	}
	return append(layouts,
		"2 January 2006",
		"2 January, 2006",
		"2 Jan 2006",
		"2 Jan, 2006",
		"2-Jan-2006",
		"2-Jan-06",
		"2 January 2006 15:04",
		"January 2, 2006",
		"Jan 2, 2006",
	)
}

var isoLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// ParseDate reads a roster date, preferring day-before-month when the input
// is ambiguous. ok is false for empty or unparsable input; it never panics.
func ParseDate(s string) (t time.Time, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, stripOrdinal(s)); err == nil {
			return t, true
		}
	}
	return lenient(s)
}

func lenient(s string) (t time.Time, ok bool) {
	defer func() {
		if recover() != nil {
			t, ok = time.Time{}, false
		}
	}()
	t, err := dateparse.ParseIn(s, time.UTC,
		dateparse.PreferMonthFirst(false),
		dateparse.RetryAmbiguousDateWithSwap(true),
	)
	if err != nil || t.Year() < 1 || t.Year() > 9999 {
		return time.Time{}, false
	}
	return dayFirst(s, t), true
}

var leadingPair = regexp.MustCompile(`^(\d{1,2})\D(\d{1,2})\D`)

// dayFirst undoes a month-first reading of an ambiguous numeric date: when
// the input starts with two groups that both fit a month and t took the
// first as the month, the groups are swapped.
func dayFirst(s string, t time.Time) time.Time {
	m := leadingPair.FindStringSubmatch(s)
	if m == nil {
		return t
	}
	first, _ := strconv.Atoi(m[1])
	second, _ := strconv.Atoi(m[2])
	if first == second || first > 12 || second > 12 {
		return t
	}
	if int(t.Month()) != first || t.Day() != second {
		return t
	}
	h, mi, sec := t.Clock()
	return time.Date(t.Year(), time.Month(second), first, h, mi, sec, t.Nanosecond(), t.Location())
}

// stripOrdinal turns "1st March 2024" into "1 March 2024".
func stripOrdinal(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return s
	}
	day := fields[0]
	for _, suffix := range []string{"st", "nd", "rd", "th"} {
		if strings.HasSuffix(day, suffix) && len(day) > len(suffix) {
			fields[0] = strings.TrimSuffix(day, suffix)
			return strings.Join(fields, " ")
		}
	}
	return s
}
