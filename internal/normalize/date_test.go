package normalize

import (
	"reflect"
	"testing"
)

func TestDate_AllFormsShareOneKey(t *testing.T) {
	forms := []string{
		"2025-08-12",
		"2025/08/12",
		"2025-08-12T09:30:00+09:00",
		"2025/08/12 23:59",
		"2025/8/12",
		" 2025-08-12 ",
	}
	for _, f := range forms {
		got, ok := Date(f)
		if !ok || got != "2025-08-12" {
			t.Fatalf("Date(%q) = (%q,%v); want 2025-08-12", f, got, ok)
		}
	}
}

func TestDate_Invalid(t *testing.T) {
	for _, f := range []string{"", "2025", "12/08/2025", "2025-13-01", "2025-02-30", "yesterday", "25-08-12"} {
		if got, ok := Date(f); ok {
			t.Fatalf("Date(%q) = %q; want invalid", f, got)
		}
	}
}

func TestSlash(t *testing.T) {
	if got := Slash("2025-08-12"); got != "2025/08/12" {
		t.Fatalf("Slash = %q", got)
	}
	if got := Slash("2025/08/12T00:00:00"); got != "2025/08/12" {
		t.Fatalf("Slash = %q", got)
	}
	if got := Slash("bogus"); got != "bogus" {
		t.Fatalf("Slash should pass through invalid input, got %q", got)
	}
}

func TestRange_And_NextDay(t *testing.T) {
	got := Range("2024-02-27", "2024/03/01")
	want := []string{"2024-02-27", "2024-02-28", "2024-02-29", "2024-03-01"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Range = %v; want %v", got, want)
	}
	if Range("2024-03-02", "2024-03-01") != nil {
		t.Fatalf("reversed range should be nil")
	}
	if Range("x", "2024-03-01") != nil {
		t.Fatalf("invalid bound should be nil")
	}
	if NextDay("2024-12-31") != "2025-01-01" {
		t.Fatalf("NextDay across year")
	}
	if NextDay("nope") != "" {
		t.Fatalf("NextDay invalid should be empty")
	}
}
