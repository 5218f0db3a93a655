package feed

import (
	"bytes"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	ical "github.com/arran4/golang-ical"
)

// Feeds routinely carry clock-change pseudo-events; they are not holidays.
var dstPattern = regexp.MustCompile(`(?i)(daylight saving|sommerzeit|summertime)`)

// Extract parses raw feed bytes into a date -> description map, keeping only
// events whose start date falls within [now - 1 year, now + 3 years].
//
// The description is the event summary, falling back to the description
// property. Text with invalid UTF-8 sequences is repaired with '?'
// placeholders rather than aborting the parse. When several events share a
// date, the later-processed one wins. An unparsable body returns
// *ParseError, which is fatal for the sync attempt.
func Extract(body []byte, now time.Time) (map[string]string, error) {
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	lower := now.AddDate(-1, 0, 0)
	upper := now.AddDate(3, 0, 0)

	events := make(map[string]string)
	for _, ve := range cal.Events() {
		start, err := ve.GetStartAt()
		if err != nil {
			// Holiday feeds use VALUE=DATE starts; fall back before skipping.
			start, err = ve.GetAllDayStartAt()
			if err != nil {
				continue
			}
		}

		if start.Before(lower) || start.After(upper) {
			continue
		}

		summary := propertyValue(ve, ical.ComponentPropertySummary)
		if summary == "" {
			summary = propertyValue(ve, ical.ComponentPropertyDescription)
		}
		summary = normalizeText(summary)

		if dstPattern.MatchString(summary) {
			continue
		}

		events[start.Format("2006-01-02")] = summary
	}

	return events, nil
}

// SortedDates returns the event dates in ascending order.
func SortedDates(events map[string]string) []string {
	dates := make([]string, 0, len(events))
	for day := range events {
		dates = append(dates, day)
	}
	sort.Strings(dates)
	return dates
}

func propertyValue(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}

// normalizeText repairs invalid UTF-8 byte sequences with a placeholder
// instead of failing the whole parse.
func normalizeText(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "?")
}
