package engine

import (
	"slices"
	"strings"
)

// Effect is a named modifier active in a mixture.
type Effect string

// Ingredient is a named item that can be added to a mixture.
type Ingredient string

// EffectSet is the canonical search state: distinct effects sorted by
// global priority. Sets are values; Combine always returns a new slice.
type EffectSet []Effect

// Key returns the fingerprint used for visited sets and memo tables.
// Two sets share a key iff their sorted sequences are identical.
func (s EffectSet) Key() string {
	n := 0
	for _, e := range s {
		n += len(e) + 1
	}
	var b strings.Builder
	b.Grow(n)
	for i, e := range s {
		if i > 0 {
			b.WriteByte(0)
		}
		b.WriteString(string(e))
	}
	return b.String()
}

// Contains reports whether e is active in the set.
func (s EffectSet) Contains(e Effect) bool {
	return slices.Contains(s, e)
}

// ContainsAll reports whether every effect in want is active in the set.
func (s EffectSet) ContainsAll(want []Effect) bool {
	for _, e := range want {
		if !s.Contains(e) {
			return false
		}
	}
	return true
}

// Clone returns a copy that does not share backing storage.
func (s EffectSet) Clone() EffectSet {
	if s == nil {
		return EffectSet{}
	}
	return slices.Clone(s)
}

// Strings converts the set for rendering.
func (s EffectSet) Strings() []string {
	out := make([]string, len(s))
	for i, e := range s {
		out[i] = string(e)
	}
	return out
}

// IngredientStrings converts an ingredient sequence for rendering.
func IngredientStrings(path []Ingredient) []string {
	out := make([]string, len(path))
	for i, ing := range path {
		out[i] = string(ing)
	}
	return out
}
