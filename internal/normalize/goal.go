package normalize

import (
	"github.com/tbourn/dietbot/internal/domain"
)

// goalVariants locate the goal sub-object of a user-info payload. Nested "all"
// objects are unwrapped by ExtractGoal.
var goalVariants = []struct {
	name string
	path []string
}{
	{"goal", []string{"goal"}},
	{"target", []string{"target"}},
	{"basis", []string{"basis"}},
	{"result.goal", []string{"result", "goal"}},
	{"result.target", []string{"result", "target"}},
	{"result.basis", []string{"result", "basis"}},
}

// ExtractGoal reads the current goal targets from a user-info payload. The
// goal object may be at the top level or under "result", optionally with the
// values under an "all" key. ok is false when no target value was found.
func ExtractGoal(payload any) (domain.Macros, bool) {
	root, ok := payload.(Object)
	if !ok {
		return domain.Macros{}, false
	}
	for _, v := range goalVariants {
		obj, ok := walk(root, v.path)
		if !ok {
			continue
		}
		if all, ok := object(obj["all"]); ok {
			obj = all
		}
		if m := goalAliases.Macros(obj); !m.IsEmpty() {
			return m, true
		}
	}
	return domain.Macros{}, false
}

var goalAliases = Aliases{
	Calorie: append([]string{"target_calorie", "target_kcal"}, MacroAliases.Calorie...),
	Protein: append([]string{"target_protein"}, MacroAliases.Protein...),
	Fat:     append([]string{"target_fat"}, MacroAliases.Fat...),
	Carb:    append([]string{"target_carb", "target_carbohydrate"}, MacroAliases.Carb...),
}

func walk(root Object, path []string) (Object, bool) {
	cur := root
	for _, k := range path {
		next, ok := object(cur[k])
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}
