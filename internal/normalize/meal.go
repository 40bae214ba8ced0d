package normalize

import (
	"strings"

	"github.com/tbourn/dietbot/internal/domain"
)

// MealItem is one logged food entry, used for report text.
type MealItem struct {
	Slot     domain.MealSlot
	Time     string
	Name     string
	Macros   domain.Macros
	HasImage bool
}

// ExtractMealItems groups a day's "meal_histories" by slot. Entries with an
// unknown meal_type are dropped.
func ExtractMealItems(obj Object) map[domain.MealSlot][]MealItem {
	out := make(map[domain.MealSlot][]MealItem, len(domain.MealSlots))
	list, _ := objects(obj["meal_histories"])
	for _, it := range list {
		mt, _ := it["meal_type"].(string)
		slot := domain.MealSlot(strings.TrimSpace(mt))
		if !validSlot(slot) {
			continue
		}
		t, _ := it["time"].(string)
		name, _ := it["name"].(string)
		img, _ := it["image_url"].(string)
		out[slot] = append(out[slot], MealItem{
			Slot:     slot,
			Time:     strings.TrimSpace(t),
			Name:     strings.TrimSpace(name),
			Macros:   MacroAliases.Macros(it),
			HasImage: strings.TrimSpace(img) != "",
		})
	}
	return out
}

func validSlot(s domain.MealSlot) bool {
	for _, v := range domain.MealSlots {
		if v == s {
			return true
		}
	}
	return false
}
