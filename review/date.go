package review

import (
	"strconv"
	"strings"
	"time"
)

// months maps the genitive Russian month names the target renders to month
// numbers. Dates appear as "12 января 2024" or, within the current year,
// "12 января".
var months = map[string]time.Month{
	"января":   time.January,
	"февраля":  time.February,
	"марта":    time.March,
	"апреля":   time.April,
	"мая":      time.May,
	"июня":     time.June,
	"июля":     time.July,
	"августа":  time.August,
	"сентября": time.September,
	"октября":  time.October,
	"ноября":   time.November,
	"декабря":  time.December,
}

// isoLayouts are tried first: cards sometimes carry a machine-readable
// datePublished attribute.
var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses a rendered publication date. now supplies the year for
// year-less dates. Returns the zero time and false when the text matches no
// known format; callers keep the raw text in that case.
func ParseDate(raw string, now time.Time) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}

	parts := strings.Fields(strings.ToLower(raw))
	var dayStr, monthStr, yearStr string
	switch len(parts) {
	case 3:
		dayStr, monthStr, yearStr = parts[0], parts[1], parts[2]
	case 2:
		// Year omitted means the current year.
		dayStr, monthStr = parts[0], parts[1]
		yearStr = strconv.Itoa(now.Year())
	default:
		return time.Time{}, false
	}

	day, err := strconv.Atoi(dayStr)
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	month, ok := months[monthStr]
	if !ok {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 1970 {
		return time.Time{}, false
	}

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
}
