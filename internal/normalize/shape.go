package normalize

import (
	"bytes"
	"encoding/json"
)

// Object is one decoded JSON object.
type Object = map[string]any

// Variant recognizes one envelope shape. Parse returns ok=false when the
// payload does not have this shape so the next variant can be tried.
type Variant struct {
	Name  string
	Parse func(payload any) (days []Object, ok bool)
}

// Resolver tries its variants in priority order and returns the first match.
// New envelope shapes are added as variants; extraction never changes.
type Resolver struct {
	variants []Variant
}

// NewResolver builds a resolver over variants, highest priority first.
func NewResolver(variants ...Variant) *Resolver {
	return &Resolver{variants: variants}
}

// Resolve returns the per-day objects and the name of the matching variant.
// An unrecognized payload yields (nil, "").
func (r *Resolver) Resolve(payload any) ([]Object, string) {
	for _, v := range r.variants {
		if days, ok := v.Parse(payload); ok {
			return days, v.Name
		}
	}
	return nil, ""
}

// Days is Resolve without the variant name.
func (r *Resolver) Days(payload any) []Object {
	days, _ := r.Resolve(payload)
	return days
}

// DirectList matches a bare array of objects.
func DirectList() Variant {
	return Variant{
		Name: "list",
		Parse: func(payload any) ([]Object, bool) {
			return objects(payload)
		},
	}
}

// ListField matches {"<field>": [...]}.
func ListField(field string) Variant {
	return Variant{
		Name: field,
		Parse: func(payload any) ([]Object, bool) {
			obj, ok := payload.(Object)
			if !ok {
				return nil, false
			}
			return objects(obj[field])
		},
	}
}

// WrappedListField matches {"<wrapper>": {"<field>": [...]}}.
func WrappedListField(wrapper, field string) Variant {
	inner := ListField(field)
	return Variant{
		Name: wrapper + "." + field,
		Parse: func(payload any) ([]Object, bool) {
			obj, ok := payload.(Object)
			if !ok {
				return nil, false
			}
			return inner.Parse(obj[wrapper])
		},
	}
}

var (
	// MealResolver recognizes the meal_with_basis response envelopes.
	MealResolver = NewResolver(
		DirectList(),
		ListField("meal_with_basis"),
		WrappedListField("result", "meal_with_basis"),
	)

	// BodyResolver recognizes the anthropometric response envelopes.
	BodyResolver = NewResolver(
		DirectList(),
		ListField("data"),
		ListField("result"),
		WrappedListField("result", "data"),
	)
)

// Decode parses a raw response body, keeping numbers as json.Number so that
// integer-valued fields survive unchanged.
func Decode(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// objects matches a JSON array and keeps only its object elements.
func objects(v any) ([]Object, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]Object, 0, len(list))
	for _, item := range list {
		if o, ok := item.(Object); ok {
			out = append(out, o)
		}
	}
	return out, true
}

func object(v any) (Object, bool) {
	o, ok := v.(Object)
	return o, ok && len(o) > 0
}
