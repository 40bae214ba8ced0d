package normalize

import (
	"encoding/json"
	"testing"
)

func TestFloat_SameQuantityAcrossRepresentations(t *testing.T) {
	inputs := []any{
		1234.5,
		json.Number("1234.5"),
		"1234.5",
		"1,234.5",
		"1,234.5kcal",
		"1234.5 kcal",
		" 1,234.5 ",
		"１，２３４．５",
	}
	for _, in := range inputs {
		got, ok := Float(in)
		if !ok || got != 1234.5 {
			t.Fatalf("Float(%#v) = (%v,%v); want 1234.5", in, got, ok)
		}
	}
}

func TestFloat_IntegersAndSigns(t *testing.T) {
	cases := map[any]float64{
		int(60):            60,
		int64(-3):          -3,
		"-2.5g":            -2.5,
		"+7":               7,
		".5":               0.5,
		json.Number("100"): 100,
		"approx 42 g":      42,
	}
	for in, want := range cases {
		got, ok := Float(in)
		if !ok || got != want {
			t.Fatalf("Float(%#v) = (%v,%v); want %v", in, got, ok, want)
		}
	}
}

func TestFloat_SentinelsAreAbsent(t *testing.T) {
	for _, in := range []any{nil, "", "-", "  ", "null", "kcal", "abc", true, []any{1}, map[string]any{}} {
		if v, ok := Float(in); ok {
			t.Fatalf("Float(%#v) = %v; want absent", in, v)
		}
	}
	if FloatPtr("-") != nil {
		t.Fatalf("FloatPtr(-) should be nil")
	}
}

func TestFloat_ZeroIsAValue(t *testing.T) {
	got, ok := Float("0")
	if !ok || got != 0 {
		t.Fatalf("zero must be a measured value, got (%v,%v)", got, ok)
	}
	if p := FloatPtr(0.0); p == nil || *p != 0 {
		t.Fatalf("FloatPtr(0) = %v", p)
	}
}
