package normalize

import (
	"fmt"
	"strings"
	"time"
)

// defaultDateFormats is the ordered list of accepted statement date layouts.
// Formats are tried in sequence; first successful parse wins, so the
// unambiguous and most common layouts come first. Day-first beats
// month-first because the statements this was built against are UK ones.
var defaultDateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"02 January 2006",
	"Jan 2, 2006",
	"02-Jan-2006",
	"02.01.2006",
	"02/01/06",
}

// ParseDate parses a statement date by trying each accepted format in order.
func ParseDate(s string, formats []string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if len(formats) == 0 {
		formats = defaultDateFormats
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
