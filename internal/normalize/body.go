package normalize

var (
	weightAliases  = []string{"weight", "weight_kg", "body_weight"}
	bodyFatAliases = []string{"fat", "body_fat", "body_fat_pct", "body_fat_percentage", "fat_percentage"}
)

// BodyDay is one normalized day of body composition.
type BodyDay struct {
	Date       string
	WeightKg   *float64
	BodyFatPct *float64
}

// Empty reports whether neither metric is known.
func (b BodyDay) Empty() bool { return b.WeightKg == nil && b.BodyFatPct == nil }

// ExtractBody normalizes an anthropometric payload. Days without a parseable
// date are skipped and counted in unparsed.
func ExtractBody(payload any) (days []BodyDay, unparsed int) {
	for _, obj := range BodyResolver.Days(payload) {
		d, ok := DayDate(obj)
		if !ok {
			unparsed++
			continue
		}
		days = append(days, BodyDay{
			Date:       d,
			WeightKg:   Pick(obj, weightAliases),
			BodyFatPct: Pick(obj, bodyFatAliases),
		})
	}
	return days, unparsed
}

// BodyFor returns the metrics recorded on date, or an empty BodyDay.
func BodyFor(payload any, date string) BodyDay {
	target, _ := Date(date)
	days, _ := ExtractBody(payload)
	for _, d := range days {
		if d.Date == target {
			return d
		}
	}
	return BodyDay{Date: target}
}
