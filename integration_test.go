package main

import (
	"fmt"
	"math"
	"slices"
	"testing"

	"mix-optimizer/internal/catalog"
	"mix-optimizer/internal/engine"
	"mix-optimizer/internal/mixer"
)

func loadTestService(t *testing.T) *mixer.Service {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default: %v", err)
	}
	return mixer.NewService(cat)
}

func toEffects(names []string) []engine.Effect {
	out := make([]engine.Effect, len(names))
	for i, n := range names {
		out[i] = engine.Effect(n)
	}
	return out
}

func toIngredients(names []string) []engine.Ingredient {
	out := make([]engine.Ingredient, len(names))
	for i, n := range names {
		out[i] = engine.Ingredient(n)
	}
	return out
}

// shorterPathExists reports whether any sequence of fewer than n ingredients
// reaches desired from initial.
func shorterPathExists(eng *engine.Engine, initial engine.EffectSet, desired []engine.Effect, n int) bool {
	if initial.ContainsAll(desired) {
		return true
	}
	if n <= 1 {
		return false
	}
	for _, ing := range eng.Ingredients() {
		next := eng.Combine(initial, ing)
		if len(next) > eng.MaxEffects() {
			continue
		}
		if shorterPathExists(eng, next, desired, n-1) {
			return true
		}
	}
	return false
}

// verifyPath checks a path result against the engine.
func verifyPath(t *testing.T, svc *mixer.Service, res *mixer.PathResult) {
	t.Helper()
	eng := svc.Engine()

	// 1. replaying the recipe reproduces the reported effects
	replayed := eng.Replay(toEffects(res.Initial), toIngredients(res.Recipe))
	if !slices.Equal(replayed.Strings(), res.Effects) {
		t.Errorf("replay gives %v, reported %v", replayed.Strings(), res.Effects)
	}

	// 2. every desired effect is active
	if !replayed.ContainsAll(toEffects(res.Desired)) {
		t.Errorf("effects %v miss desired %v", res.Effects, res.Desired)
	}

	// 3. never more than the effect limit
	if len(replayed) > eng.MaxEffects() && len(res.Recipe) > 0 {
		t.Errorf("%d effects exceed limit %d", len(replayed), eng.MaxEffects())
	}

	// 4. no shorter recipe exists
	if shorterPathExists(eng, eng.Canonical(toEffects(res.Initial)), toEffects(res.Desired), len(res.Recipe)) {
		t.Errorf("recipe %v is not the shortest for %v", res.Recipe, res.Desired)
	}
}

// verifyProfit checks an optimize result against the catalog prices.
func verifyProfit(t *testing.T, svc *mixer.Service, res *mixer.ProfitResult) {
	t.Helper()
	cat := svc.Catalog()
	eng := svc.Engine()

	// 1. recipe length within depth
	if len(res.Recipe) > res.Depth {
		t.Errorf("recipe %v longer than depth %d", res.Recipe, res.Depth)
	}

	// 2. replaying the recipe reproduces the reported effects
	replayed := eng.Replay(toEffects(res.Initial), toIngredients(res.Recipe))
	names := make([]string, len(res.Effects))
	for i, e := range res.Effects {
		names[i] = e.Name
	}
	if !slices.Equal(replayed.Strings(), names) {
		t.Errorf("replay gives %v, reported %v", replayed.Strings(), names)
	}

	// 3. ingredient cost is the sum of recipe prices
	cost := 0.0
	for _, ing := range res.Recipe {
		cost += cat.IngredientPrices[ing]
	}
	if math.Abs(cost-res.IngredientCost) > 1e-9 {
		t.Errorf("ingredient cost %.2f, recipe prices sum to %.2f", res.IngredientCost, cost)
	}

	// 4. value is floor(base × (1 + Σ multipliers))
	sum := 0.0
	for _, e := range res.Effects {
		sum += cat.EffectMultipliers[e.Name]
	}
	if want := math.Floor(res.BasePrice * (1 + sum)); res.Value != want {
		t.Errorf("value %.2f, want %.2f", res.Value, want)
	}

	// 5. totals add up
	if math.Abs(res.TotalCost-(res.ProductionCost+res.IngredientCost)) > 1e-9 {
		t.Errorf("total cost %.2f != %.2f + %.2f", res.TotalCost, res.ProductionCost, res.IngredientCost)
	}
	if math.Abs(res.Profit-(res.Value-res.TotalCost)) > 1e-9 {
		t.Errorf("profit %.2f != value %.2f - cost %.2f", res.Profit, res.Value, res.TotalCost)
	}
}

func TestDefaultCatalogPaths(t *testing.T) {
	svc := loadTestService(t)
	eng := svc.Engine()

	ingredients := eng.Ingredients()
	n := 4
	if testing.Short() {
		n = 2
	}

	// Every target is a state some two-step recipe reaches, so each search
	// must succeed in at most two steps.
	for _, a := range ingredients[:n] {
		for _, b := range ingredients[len(ingredients)-n:] {
			target := eng.Replay(nil, []engine.Ingredient{a, b})
			if len(target) == 0 {
				continue
			}
			t.Run(fmt.Sprintf("%s_%s", a, b), func(t *testing.T) {
				t.Parallel()
				res, err := svc.FindPath(mixer.PathRequest{Desired: target.Strings()})
				if err != nil {
					t.Fatalf("FindPath(%v): %v", target, err)
				}
				t.Logf("%v: recipe=%v expanded=%d", target, res.Recipe, res.Expanded)
				if len(res.Recipe) > 2 {
					t.Errorf("recipe %v longer than the known two-step recipe", res.Recipe)
				}
				verifyPath(t, svc, res)
			})
		}
	}
}

func TestDefaultCatalogBaseEffects(t *testing.T) {
	svc := loadTestService(t)
	eng := svc.Engine()

	for _, ing := range eng.Ingredients() {
		eff, ok := eng.BaseEffect(ing)
		if !ok {
			continue
		}
		res, err := svc.FindPath(mixer.PathRequest{Desired: []string{string(eff)}})
		if err != nil {
			t.Fatalf("FindPath(%s): %v", eff, err)
		}
		if len(res.Recipe) != 1 {
			t.Errorf("%s: recipe %v, want one step", eff, res.Recipe)
		}
		verifyPath(t, svc, res)
	}
}

func TestDefaultCatalogOptimize(t *testing.T) {
	svc := loadTestService(t)
	eng := svc.Engine()

	maxDepth := 3
	if testing.Short() {
		maxDepth = 2
	}

	for _, product := range svc.Catalog().ProductNames() {
		t.Run(product, func(t *testing.T) {
			t.Parallel()
			prev := math.Inf(-1)
			for depth := 0; depth <= maxDepth; depth++ {
				d := depth
				res, err := svc.Optimize(mixer.OptimizeRequest{Product: product, Depth: &d})
				if err != nil {
					t.Fatalf("depth %d: %v", depth, err)
				}
				t.Logf("%s depth %d: profit=%.2f recipe=%v expanded=%d", product, depth, res.Profit, res.Recipe, res.Expanded)
				verifyProfit(t, svc, res)

				// deeper searches never do worse
				if res.Profit < prev {
					t.Errorf("depth %d profit %.2f below depth %d profit %.2f", depth, res.Profit, depth-1, prev)
				}
				prev = res.Profit

				if depth != 1 {
					continue
				}
				// every single-ingredient recipe is considered at depth 1
				initial := eng.Canonical(toEffects(res.Initial))
				for _, ing := range eng.Ingredients() {
					state := eng.Combine(initial, ing)
					sum := 0.0
					for _, e := range state {
						sum += svc.Catalog().EffectMultipliers[string(e)]
					}
					profit := math.Floor(res.BasePrice*(1+sum)) - res.ProductionCost - svc.Catalog().IngredientPrices[string(ing)]
					if profit > res.Profit+1e-9 {
						t.Errorf("%s alone earns %.2f, more than best %.2f", ing, profit, res.Profit)
					}
				}
			}
		})
	}
}
