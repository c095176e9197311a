package catalog

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"mix-optimizer/internal/engine"
)

// ParseEffects resolves user-supplied effect references. Each argument may
// hold several comma-separated tokens; a token is either a 1-based index into
// SortedEffects or an effect name, matched case-insensitively. Duplicates are
// dropped and the first spelling wins. Tokens that match nothing are returned
// in unknown, in input order.
func (c *Catalog) ParseEffects(args []string) (found []engine.Effect, unknown []string) {
	sorted := c.SortedEffects()
	fold := cases.Fold()

	byFold := make(map[string]string, len(sorted))
	for _, name := range sorted {
		byFold[fold.String(name)] = name
	}

	seen := make(map[engine.Effect]struct{})
	for _, arg := range args {
		for _, tok := range strings.Split(arg, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}

			name, ok := "", false
			if n, err := strconv.Atoi(tok); err == nil {
				if n >= 1 && n <= len(sorted) {
					name, ok = sorted[n-1], true
				}
			} else {
				name, ok = byFold[fold.String(tok)]
			}
			if !ok {
				unknown = append(unknown, tok)
				continue
			}

			e := engine.Effect(name)
			if _, dup := seen[e]; dup {
				continue
			}
			seen[e] = struct{}{}
			found = append(found, e)
		}
	}
	return found, unknown
}

// ParseIngredients resolves ingredient names case-insensitively against the
// ingredients the engine knows.
func ParseIngredients(eng *engine.Engine, args []string) (found []engine.Ingredient, unknown []string) {
	fold := cases.Fold()
	byFold := make(map[string]engine.Ingredient)
	for _, ing := range eng.Ingredients() {
		byFold[fold.String(string(ing))] = ing
	}

	for _, arg := range args {
		for _, tok := range strings.Split(arg, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			ing, ok := byFold[fold.String(tok)]
			if !ok {
				unknown = append(unknown, tok)
				continue
			}
			found = append(found, ing)
		}
	}
	return found, unknown
}
