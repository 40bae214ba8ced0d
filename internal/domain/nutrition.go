// Nutrition value types: the four-macro tuple (Macros), the fixed meal slots,
// and the per-slot Breakdown stored as opaque JSON next to the daily totals.

package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
)

// MealSlot is one of the four fixed categories a day's intake is bucketed into.
type MealSlot string

const (
	SlotMorning MealSlot = "morning" // breakfast
	SlotNoon    MealSlot = "noon"    // lunch
	SlotNight   MealSlot = "night"   // dinner
	SlotSnack   MealSlot = "snack"
)

// MealSlots lists the slots in display order.
var MealSlots = []MealSlot{SlotMorning, SlotNoon, SlotNight, SlotSnack}

// Macros is the (energy, protein, fat, carbohydrate) tuple used for totals,
// per-slot sub-totals, and goal targets. A nil field means "unknown"; zero is
// a measured value and must never stand in for a missing one.
type Macros struct {
	Calorie *float64 `json:"calorie"`
	Protein *float64 `json:"protein"`
	Fat     *float64 `json:"fat"`
	Carb    *float64 `json:"carb"`
}

// IsEmpty reports whether no macro is known.
func (m Macros) IsEmpty() bool {
	return m.Calorie == nil && m.Protein == nil && m.Fat == nil && m.Carb == nil
}

// Complete reports whether all four macros are known.
func (m Macros) Complete() bool {
	return m.Calorie != nil && m.Protein != nil && m.Fat != nil && m.Carb != nil
}

// Breakdown maps meal slots to their macro sub-totals. Slots without data are
// omitted rather than zero-filled. A nil Breakdown means "no slot data found".
type Breakdown map[MealSlot]Macros

// Sum adds each macro across all slots, treating missing values as zero, and
// rounds every sum to one decimal place. ok is false when no slot carried any
// value at all.
func (b Breakdown) Sum() (total Macros, ok bool) {
	var cal, p, f, c float64
	for _, slot := range MealSlots {
		v, present := b[slot]
		if !present || v.IsEmpty() {
			continue
		}
		ok = true
		cal += deref(v.Calorie)
		p += deref(v.Protein)
		f += deref(v.Fat)
		c += deref(v.Carb)
	}
	if !ok {
		return Macros{}, false
	}
	return Macros{
		Calorie: Float(Round1(cal)),
		Protein: Float(Round1(p)),
		Fat:     Float(Round1(f)),
		Carb:    Float(Round1(c)),
	}, true
}

// Value stores the breakdown as JSON; an empty breakdown is stored as NULL.
func (b Breakdown) Value() (driver.Value, error) {
	if len(b) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(map[MealSlot]Macros(b))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan implements sql.Scanner for JSON text/bytes columns.
func (b *Breakdown) Scan(src any) error {
	raw, err := jsonBytes(src)
	if err != nil || raw == nil {
		*b = nil
		return err
	}
	var m map[MealSlot]Macros
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("scan breakdown: %w", err)
	}
	if len(m) == 0 {
		m = nil
	}
	*b = m
	return nil
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Round1 rounds half away from zero to one decimal place.
func Round1(v float64) float64 { return math.Round(v*10) / 10 }

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func jsonBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		if len(v) == 0 {
			return nil, nil
		}
		return v, nil
	case string:
		if v == "" {
			return nil, nil
		}
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported JSON column type %T", src)
	}
}
