package feed

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

var extractNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func icsFeed(events ...string) []byte {
	var b bytes.Buffer
	b.WriteString("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//EN\r\n")
	for _, ev := range events {
		b.WriteString(ev)
	}
	b.WriteString("END:VCALENDAR\r\n")
	return b.Bytes()
}

func icsEvent(uid, date, summary string) string {
	var b strings.Builder
	b.WriteString("BEGIN:VEVENT\r\n")
	b.WriteString("UID:" + uid + "\r\n")
	b.WriteString("DTSTAMP:20250101T000000Z\r\n")
	b.WriteString("DTSTART;VALUE=DATE:" + date + "\r\n")
	if summary != "" {
		b.WriteString("SUMMARY:" + summary + "\r\n")
	}
	b.WriteString("END:VEVENT\r\n")
	return b.String()
}

func TestExtract_MapsEventsToDates(t *testing.T) {
	body := icsFeed(
		icsEvent("1", "20251225", "Christmas"),
		icsEvent("2", "20260101", "New Year"),
	)

	events, err := Extract(body, extractNow)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d: %v", len(events), events)
	}
	if events["2025-12-25"] != "Christmas" {
		t.Errorf("Expected Christmas on 2025-12-25, got %q", events["2025-12-25"])
	}
	if events["2026-01-01"] != "New Year" {
		t.Errorf("Expected New Year on 2026-01-01, got %q", events["2026-01-01"])
	}
}

func TestExtract_FiltersTimeWindow(t *testing.T) {
	body := icsFeed(
		icsEvent("old", "20230101", "Too Old"),
		icsEvent("future", "20300101", "Too Far"),
		icsEvent("ok", "20251225", "Christmas"),
	)

	events, err := Extract(body, extractNow)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("Expected only the in-window event, got %v", events)
	}
	if _, ok := events["2025-12-25"]; !ok {
		t.Errorf("Expected 2025-12-25 to survive the window filter")
	}
}

func TestExtract_DiscardsDaylightSavingEvents(t *testing.T) {
	body := icsFeed(
		icsEvent("1", "20251026", "Daylight Saving Time ends"),
		icsEvent("2", "20250330", "Sommerzeit beginnt"),
		icsEvent("3", "20251005", "Summertime change"),
		icsEvent("4", "20251225", "Christmas"),
	)

	events, err := Extract(body, extractNow)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if len(events) != 1 {
		t.Fatalf("Expected DST pseudo-events to be discarded, got %v", events)
	}
	if _, ok := events["2025-12-25"]; !ok {
		t.Errorf("Expected the real holiday to survive")
	}
}

func TestExtract_SummaryFallsBackToDescription(t *testing.T) {
	ev := "BEGIN:VEVENT\r\nUID:d\r\nDTSTAMP:20250101T000000Z\r\n" +
		"DTSTART;VALUE=DATE:20251225\r\nDESCRIPTION:From description\r\nEND:VEVENT\r\n"

	events, err := Extract(icsFeed(ev), extractNow)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if events["2025-12-25"] != "From description" {
		t.Errorf("Expected description fallback, got %q", events["2025-12-25"])
	}
}

func TestExtract_RepairsInvalidEncoding(t *testing.T) {
	ev := []byte("BEGIN:VEVENT\r\nUID:e\r\nDTSTAMP:20250101T000000Z\r\n" +
		"DTSTART;VALUE=DATE:20251225\r\nSUMMARY:Weihnach")
	ev = append(ev, 0xff, 0xfe)
	ev = append(ev, []byte("ten\r\nEND:VEVENT\r\n")...)

	events, err := Extract(icsFeed(string(ev)), extractNow)
	if err != nil {
		t.Fatalf("Expected encoding damage to be repaired, not fatal: %v", err)
	}

	got := events["2025-12-25"]
	if !strings.Contains(got, "?") {
		t.Errorf("Expected placeholder substitution, got %q", got)
	}
	if !strings.HasPrefix(got, "Weihnach") || !strings.HasSuffix(got, "ten") {
		t.Errorf("Expected surrounding text preserved, got %q", got)
	}
}

func TestExtract_LastEventWinsPerDate(t *testing.T) {
	body := icsFeed(
		icsEvent("1", "20251225", "First"),
		icsEvent("2", "20251225", "Second"),
	)

	events, err := Extract(body, extractNow)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if events["2025-12-25"] != "Second" {
		t.Errorf("Expected last write to win, got %q", events["2025-12-25"])
	}
}

func TestExtract_UnparsableBodyIsParseError(t *testing.T) {
	_, err := Extract([]byte("this is not a calendar"), extractNow)
	if err == nil {
		t.Fatal("Expected a parse error")
	}

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("Expected *ParseError, got %T", err)
	}
}

func TestSortedDates(t *testing.T) {
	events := map[string]string{
		"2026-01-01": "New Year",
		"2025-12-25": "Christmas",
		"2025-12-26": "Boxing Day",
	}

	dates := SortedDates(events)
	want := []string{"2025-12-25", "2025-12-26", "2026-01-01"}
	for i, d := range want {
		if dates[i] != d {
			t.Fatalf("Expected %v, got %v", want, dates)
		}
	}
}

func TestFingerprint_TracksURLNotContent(t *testing.T) {
	a := Fingerprint("https://example.com/feed-a.ics")
	b := Fingerprint("https://example.com/feed-b.ics")

	if a == b {
		t.Error("Expected different URLs to produce different fingerprints")
	}
	if a != Fingerprint("https://example.com/feed-a.ics") {
		t.Error("Expected fingerprint to be stable for the same URL")
	}
	if len(a) != 32 {
		t.Errorf("Expected 32 hex chars, got %q", a)
	}
}
