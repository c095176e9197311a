// Package engine compiles the ingredient rule table and applies the single
// state transition used by both searches.
//
// An Engine is immutable after New returns and may be shared by concurrent
// searches without locking.
package engine

import (
	"cmp"
	"slices"
)

// DefaultMaxEffects bounds the size of an EffectSet when the catalog does not
// specify one.
const DefaultMaxEffects = 8

// Rule is one row of the rule table. Empty strings mean "absent".
type Rule struct {
	Base           string `yaml:"base" json:"base"`
	BaseEffect     string `yaml:"base_effect" json:"base_effect"`
	Modifier       string `yaml:"modifier" json:"modifier"`
	ResultEffect   string `yaml:"result_effect" json:"result_effect"`
	ModifierEffect string `yaml:"modifier_effect" json:"modifier_effect"`
}

// Transform is the outcome of adding an ingredient to a mixture that holds a
// specific effect.
type Transform struct {
	Replacement Effect
	Added       Effect
}

type transformKey struct {
	effect     Effect
	ingredient Ingredient
}

// Conflict records a rule row that redefined an ingredient's base effect.
type Conflict struct {
	Ingredient Ingredient
	Previous   Effect
	Effect     Effect
	Row        int
}

// Engine holds the compiled rule table.
type Engine struct {
	maxEffects  int
	priorities  map[Effect]int
	baseEffects map[Ingredient]Effect
	ingredients []Ingredient // first-appearance order
	transforms  map[transformKey]Transform
	conflicts   []Conflict
}

// New compiles rules into lookup tables. A non-positive maxEffects falls back
// to DefaultMaxEffects. When rows disagree on an ingredient's base effect the
// last row wins; the disagreement is available from Conflicts.
func New(rules []Rule, maxEffects int, priorities map[Effect]int) *Engine {
	if maxEffects <= 0 {
		maxEffects = DefaultMaxEffects
	}
	e := &Engine{
		maxEffects:  maxEffects,
		priorities:  make(map[Effect]int, len(priorities)),
		baseEffects: make(map[Ingredient]Effect),
		transforms:  make(map[transformKey]Transform),
	}
	for k, v := range priorities {
		e.priorities[k] = v
	}

	for row, r := range rules {
		if r.Base != "" {
			e.setBase(Ingredient(r.Base), Effect(r.BaseEffect), row)
		}
		if r.Modifier != "" {
			e.setBase(Ingredient(r.Modifier), Effect(r.ModifierEffect), row)
		}
		if r.BaseEffect != "" && r.Modifier != "" {
			e.transforms[transformKey{Effect(r.BaseEffect), Ingredient(r.Modifier)}] = Transform{
				Replacement: Effect(r.ResultEffect),
				Added:       Effect(r.ModifierEffect),
			}
		}
	}
	return e
}

func (e *Engine) setBase(ing Ingredient, eff Effect, row int) {
	prev, ok := e.baseEffects[ing]
	if !ok {
		e.ingredients = append(e.ingredients, ing)
	} else if prev != eff {
		e.conflicts = append(e.conflicts, Conflict{Ingredient: ing, Previous: prev, Effect: eff, Row: row})
	}
	e.baseEffects[ing] = eff
}

// MaxEffects returns the effect set size bound.
func (e *Engine) MaxEffects() int { return e.maxEffects }

// Ingredients returns every known ingredient in rule-table order. This order
// decides ties between equal-length paths.
func (e *Engine) Ingredients() []Ingredient {
	return slices.Clone(e.ingredients)
}

// BaseEffect returns the effect an ingredient adds on its own. The boolean is
// false for unknown and inert ingredients.
func (e *Engine) BaseEffect(ing Ingredient) (Effect, bool) {
	eff, ok := e.baseEffects[ing]
	return eff, ok && eff != ""
}

// Lookup returns the transform for an (existing effect, ingredient) pair.
func (e *Engine) Lookup(existing Effect, ing Ingredient) (Transform, bool) {
	t, ok := e.transforms[transformKey{existing, ing}]
	return t, ok
}

// Conflicts lists rule rows that redefined an ingredient's base effect.
func (e *Engine) Conflicts() []Conflict {
	return slices.Clone(e.conflicts)
}

// Priority returns an effect's rank in the global ordering.
func (e *Engine) Priority(eff Effect) (int, bool) {
	p, ok := e.priorities[eff]
	return p, ok
}

// compareEffects orders known effects by priority, then unknown effects by
// name after all known ones.
func (e *Engine) compareEffects(a, b Effect) int {
	pa, oka := e.Priority(a)
	pb, okb := e.Priority(b)
	switch {
	case oka && okb:
		return cmp.Compare(pa, pb)
	case oka:
		return -1
	case okb:
		return 1
	}
	return cmp.Compare(a, b)
}

// Canonical turns an arbitrary effect list into an EffectSet: duplicates are
// dropped and the rest sorted by priority. The size bound is not applied to
// caller-supplied sets.
func (e *Engine) Canonical(effects []Effect) EffectSet {
	out := make(EffectSet, 0, len(effects))
	for _, eff := range effects {
		if eff == "" || slices.Contains(out, eff) {
			continue
		}
		out = append(out, eff)
	}
	slices.SortStableFunc(out, e.compareEffects)
	return out
}

// Combine adds ingredient to the mixture holding effects and returns the
// resulting canonical set. The input is never modified.
//
// Each existing effect is rewritten at most once per call, and only when its
// replacement is not already active. The ingredient's own effect is appended
// afterwards if absent and the set is below MaxEffects; otherwise it is
// dropped. Unknown and inert ingredients leave the set unchanged.
func (e *Engine) Combine(effects EffectSet, ing Ingredient) EffectSet {
	return e.combine(effects, ing, nil)
}

// Change is one effect rewritten while adding an ingredient.
type Change struct {
	From Effect
	To   Effect
	// Adds is the effect the rewriting rule credits to the ingredient.
	Adds Effect
}

// Step records what Combine did for one ingredient.
type Step struct {
	Ingredient Ingredient
	Changes    []Change
	// Added is the appended base effect, empty when it was already active or
	// did not fit.
	Added   Effect
	Effects EffectSet
}

// Trace is Combine that also reports the rewrites and the appended effect.
func (e *Engine) Trace(effects EffectSet, ing Ingredient) Step {
	step := Step{Ingredient: ing}
	step.Effects = e.combine(effects, ing, &step)
	return step
}

func (e *Engine) combine(effects EffectSet, ing Ingredient, step *Step) EffectSet {
	result := effects.Clone()

	added, ok := e.BaseEffect(ing)
	if !ok {
		return result
	}

	for i := range result {
		t, ok := e.Lookup(result[i], ing)
		if !ok || t.Replacement == "" {
			continue
		}
		if !slices.Contains(result, t.Replacement) {
			if step != nil {
				step.Changes = append(step.Changes, Change{From: result[i], To: t.Replacement, Adds: t.Added})
			}
			result[i] = t.Replacement
		}
	}

	if !slices.Contains(result, added) && len(result) < e.maxEffects {
		result = append(result, added)
		if step != nil {
			step.Added = added
		}
	}

	slices.SortStableFunc(result, e.compareEffects)
	return result
}

// Replay applies path to initial in order and returns the final set.
func (e *Engine) Replay(initial []Effect, path []Ingredient) EffectSet {
	state := e.Canonical(initial)
	for _, ing := range path {
		state = e.Combine(state, ing)
	}
	return state
}
