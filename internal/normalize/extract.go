package normalize

import (
	"github.com/tbourn/dietbot/internal/domain"
)

// Aliases lists, per macro, the field names a value may appear under, highest
// priority first.
type Aliases struct {
	Calorie []string
	Protein []string
	Fat     []string
	Carb    []string
}

// MacroAliases is the lookup table for slot sub-totals, summary totals and
// goal targets.
var MacroAliases = Aliases{
	Calorie: []string{"calorie", "kcal", "calorie_kcal", "energy", "cal"},
	Protein: []string{"protein", "p", "protein_g"},
	Fat:     []string{"fat", "f", "lipid", "fat_g"},
	Carb:    []string{"carb", "c", "carbohydrate", "carbohydrates", "carb_g", "cho"},
}

// Macros reads all four macros from obj.
func (a Aliases) Macros(obj Object) domain.Macros {
	return domain.Macros{
		Calorie: Pick(obj, a.Calorie),
		Protein: Pick(obj, a.Protein),
		Fat:     Pick(obj, a.Fat),
		Carb:    Pick(obj, a.Carb),
	}
}

// Pick returns the first alias whose value is present and numeric.
func Pick(obj Object, names []string) *float64 {
	for _, k := range names {
		v, ok := obj[k]
		if !ok || !present(v) {
			continue
		}
		if f := FloatPtr(v); f != nil {
			return f
		}
	}
	return nil
}

// totalTuples are day-level field sets that carry all four totals at once.
// A tuple matches only when all four keys exist on the day object.
var totalTuples = [][4]string{
	{"calorie_kcal", "protein_g", "fat_g", "carb_g"},
	{"calorie", "protein", "fat", "carb"},
	{"kcal", "p", "f", "c"},
}

// dateFields are the day-object keys that may hold the calendar date.
var dateFields = []string{"date", "day", "dt", "target_date"}

// TotalsSource tells where day totals came from.
type TotalsSource string

const (
	TotalsDirect    TotalsSource = "direct"
	TotalsSummary   TotalsSource = "summary"
	TotalsBreakdown TotalsSource = "breakdown"
	TotalsNone      TotalsSource = "none"
)

// Day is one normalized per-day nutrition record.
type Day struct {
	Date      string
	Breakdown domain.Breakdown
	Totals    domain.Macros
	Source    TotalsSource
}

// ExtractDay normalizes one per-day object. ok is false when the day carries
// no parseable date; such days are skipped by callers and counted as empty.
func ExtractDay(obj Object) (Day, bool) {
	date, ok := DayDate(obj)
	if !ok {
		return Day{}, false
	}
	bd := ExtractBreakdown(obj)
	totals, src := ExtractTotals(obj, bd)
	return Day{Date: date, Breakdown: bd, Totals: totals, Source: src}, true
}

// DayDate returns the canonical date of a per-day object, trying each known
// date field in order.
func DayDate(obj Object) (string, bool) {
	for _, k := range dateFields {
		s, ok := obj[k].(string)
		if !ok || s == "" {
			continue
		}
		if d, ok := Date(s); ok {
			return d, true
		}
	}
	return "", false
}

// mealSummary locates the meal history summary, either on the day object
// itself or under its "basis" object.
func mealSummary(obj Object) (Object, bool) {
	if s, ok := object(obj["meal_histories_summary"]); ok {
		return s, true
	}
	if basis, ok := object(obj["basis"]); ok {
		return object(basis["meal_histories_summary"])
	}
	return nil, false
}

// ExtractBreakdown reads per-slot sub-totals. Slots without a sub-object are
// omitted. A nil result means no slot data was found at all.
func ExtractBreakdown(obj Object) domain.Breakdown {
	src, ok := mealSummary(obj)
	if !ok {
		return nil
	}
	out := domain.Breakdown{}
	for _, slot := range domain.MealSlots {
		sub, ok := src[string(slot)].(Object)
		if !ok {
			continue
		}
		out[slot] = MacroAliases.Macros(sub)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ExtractTotals resolves day totals through the fallback chain:
//
//  1. a direct four-field tuple on the day object,
//  2. the sum of the breakdown, rounded to one decimal,
//  3. the meal summary's "all" entry (partial values allowed),
//  4. all absent.
func ExtractTotals(obj Object, bd domain.Breakdown) (domain.Macros, TotalsSource) {
	for _, t := range totalTuples {
		if !hasAll(obj, t[:]) {
			continue
		}
		return domain.Macros{
			Calorie: FloatPtr(obj[t[0]]),
			Protein: FloatPtr(obj[t[1]]),
			Fat:     FloatPtr(obj[t[2]]),
			Carb:    FloatPtr(obj[t[3]]),
		}, TotalsDirect
	}

	if sum, ok := bd.Sum(); ok {
		return sum, TotalsBreakdown
	}

	if m := ExtractSummaryAll(obj); !m.IsEmpty() {
		return m, TotalsSummary
	}
	return domain.Macros{}, TotalsNone
}

// ExtractDayGoal reads the goal targets that meal payloads carry under
// "basis.all".
func ExtractDayGoal(obj Object) domain.Macros {
	basis, ok := object(obj["basis"])
	if !ok {
		return domain.Macros{}
	}
	all, ok := object(basis["all"])
	if !ok {
		return domain.Macros{}
	}
	return MacroAliases.Macros(all)
}

// ExtractSummaryAll reads "meal_histories_summary.all" as reported upstream,
// without any fallback.
func ExtractSummaryAll(obj Object) domain.Macros {
	s, ok := mealSummary(obj)
	if !ok {
		return domain.Macros{}
	}
	all, ok := object(s["all"])
	if !ok {
		return domain.Macros{}
	}
	return MacroAliases.Macros(all)
}

// SelectDay picks the day object for date: an exact "date" match, then a
// "target_date" match, then the first element. nil for an empty list.
func SelectDay(days []Object, date string) Object {
	if len(days) == 0 {
		return nil
	}
	target, _ := Date(date)
	for _, key := range []string{"date", "target_date"} {
		for _, d := range days {
			s, _ := d[key].(string)
			if k, ok := Date(s); ok && k == target {
				return d
			}
		}
	}
	return days[0]
}

func hasAll(obj Object, keys []string) bool {
	for _, k := range keys {
		if _, ok := obj[k]; !ok {
			return false
		}
	}
	return true
}
