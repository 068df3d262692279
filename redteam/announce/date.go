package announce

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

var fallbackDateLayouts = []string{
	"Mon, 2 Jan 2006 15:04:05",
	"Mon, 02 Jan 2006 15:04:05",
	"Mon Jan _2 15:04:05 2006",
	"2 Jan 2006 15:04:05",
}

// ParseDate parses a message Date header. RFC 5322 forms (including trailing zone comments such as "(UTC)") are
// handled first; otherwise the zone is discarded and the remainder is read as UTC.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if t, err := mail.ParseDate(value); err == nil {
		return t.UTC(), nil
	}

	simple := stripZone(value)
	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, simple); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

func stripZone(value string) string {
	if i := strings.Index(value, "("); i >= 0 {
		value = value[:i]
	}
	fields := strings.Fields(value)
	if n := len(fields); n > 0 && isZone(fields[n-1]) {
		fields = fields[:n-1]
	}
	return strings.Join(fields, " ")
}

// isZone matches numeric offsets ("+0000", "-0500") and short named zones ("EST", "GMT")
func isZone(s string) bool {
	if len(s) == 5 && (s[0] == '+' || s[0] == '-') {
		for _, r := range s[1:] {
			if r < '0' || r > '9' {
				return false
			}
		}
		return true
	}
	if len(s) < 2 || len(s) > 5 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
