package render

import (
	"fmt"
	"strings"
	"time"

	"certgen/internal/certificate/models"
)

// FormatDate renders t as "1st March 2024".
func FormatDate(t time.Time) string {
	return fmt.Sprintf("%d%s %s", t.Day(), ordinal(t.Day()), t.Format("January 2006"))
}

// FormatDateString formats a canonical YYYY-MM-DD date. Other input is
// returned unchanged.
func FormatDateString(s string) string {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return s
	}
	return FormatDate(t)
}

func ordinal(day int) string {
	if n := day % 100; n >= 11 && n <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}

var quoteReplacer = strings.NewReplacer(
	"\u2019", "'",
	"\u2018", "'",
	"\u201c", `"`,
	"\u201d", `"`,
)

// cleanText replaces typographic quotes the core fonts cannot show.
func cleanText(s string) string {
	return quoteReplacer.Replace(s)
}
