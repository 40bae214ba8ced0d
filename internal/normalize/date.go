package normalize

import (
	"strings"
	"time"

	"golang.org/x/text/width"
)

// DateLayout is the canonical calendar-date key used for storage and lookups.
const DateLayout = "2006-01-02"

// SlashLayout is the form the diet-tracking API expects in requests and the
// form used in user-facing text.
const SlashLayout = "2006/01/02"

// Date converts "YYYY-MM-DD" or "YYYY/MM/DD", optionally followed by a time
// component ("T09:00:00+09:00", " 12:00"), into the canonical key. Single-digit
// month/day ("2025/8/1") is accepted. ok is false for anything that is not a
// real calendar date.
func Date(s string) (string, bool) {
	t, ok := ParseDate(s)
	if !ok {
		return "", false
	}
	return t.Format(DateLayout), true
}

// ParseDate is Date returning the midnight-UTC time value.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(width.Narrow.String(s))
	if i := strings.IndexAny(s, "T "); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return time.Time{}, false
	}
	s = strings.ReplaceAll(s, "/", "-")
	parts := strings.Split(s, "-")
	if len(parts) != 3 || len(parts[0]) != 4 {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-1-2", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// DateOf renders t as the canonical key.
func DateOf(t time.Time) string { return t.Format(DateLayout) }

// Slash converts a date in either convention to "YYYY/MM/DD". Unparseable input
// is returned unchanged so the remote side reports the problem.
func Slash(s string) string {
	t, ok := ParseDate(s)
	if !ok {
		return s
	}
	return t.Format(SlashLayout)
}

// Range lists every canonical date from start to end inclusive. It returns nil
// when either bound is invalid or end precedes start.
func Range(start, end string) []string {
	s, ok1 := ParseDate(start)
	e, ok2 := ParseDate(end)
	if !ok1 || !ok2 || e.Before(s) {
		return nil
	}
	var out []string
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		out = append(out, DateOf(d))
	}
	return out
}

// NextDay returns the canonical date after d, or "" when d is invalid.
func NextDay(d string) string {
	t, ok := ParseDate(d)
	if !ok {
		return ""
	}
	return DateOf(t.AddDate(0, 0, 1))
}
