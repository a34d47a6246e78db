package hidroweb

import (
	"fmt"
	"strings"
	"time"
)

const dateLayoutISO = "2006-01-02"

// The service expects ISO dates; callers commonly hold Brazilian day-first
// formats, so those are accepted and normalized.
var dateLayouts = []string{
	dateLayoutISO,
	"02/01/2006",
	"02-01-2006",
	"2006/01/02",
}

// NormalizeDate parses a date string in one of the accepted layouts and
// returns its ISO (yyyy-MM-dd) representation
func NormalizeDate(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, trimmed)
		if err == nil {
			return parsed.Format(dateLayoutISO), nil
		}
	}
	return "", &ValidationError{Field: "date", Message: fmt.Sprintf("unable to parse '%s'", raw)}
}

// ValidateDateRange normalizes both dates and verifies that the end of the
// range does not precede its start. Equal dates form a valid one-day range.
func ValidateDateRange(start, end string) (string, string, error) {
	normalizedStart, err := NormalizeDate(start)
	if err != nil {
		return "", "", err
	}
	normalizedEnd, err := NormalizeDate(end)
	if err != nil {
		return "", "", err
	}

	startTime, _ := time.Parse(dateLayoutISO, normalizedStart)
	endTime, _ := time.Parse(dateLayoutISO, normalizedEnd)
	if endTime.Before(startTime) {
		return "", "", &ValidationError{Field: "date range", Message: fmt.Sprintf("end date %s precedes start date %s", normalizedEnd, normalizedStart)}
	}

	return normalizedStart, normalizedEnd, nil
}
