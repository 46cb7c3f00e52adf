package timestamp

import (
	"strconv"
	"strings"
	"time"
)

// Unix values above this are read as milliseconds, below as seconds
const millisThreshold = 1e11

var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
}

// Parse reads a timestamp written as RFC3339, a postgres text timestamp or a
// unix epoch in seconds or milliseconds. The result is always UTC.
func Parse(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	if isDigits(value) {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n <= 0 {
			return time.Time{}, false
		}
		if n > millisThreshold {
			return time.UnixMilli(n).UTC(), true
		}
		return time.Unix(n, 0).UTC(), true
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}

// Format renders t the way the feed exposes timestamps
func Format(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func isDigits(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
