package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mix-optimizer/internal/engine"
)

func exampleEngine() *engine.Engine {
	rules := []engine.Rule{
		{Base: "Base1", BaseEffect: "Calming"},
		{Base: "Base2", BaseEffect: "Energizing"},
		{BaseEffect: "Calming", Modifier: "Base2", ResultEffect: "Anti-gravity", ModifierEffect: "Energizing"},
	}
	prio := map[engine.Effect]int{"Calming": 0, "Anti-gravity": 1, "Energizing": 2, "Toxic": 3}
	return engine.New(rules, 3, prio)
}

func effects(names ...string) []engine.Effect {
	out := make([]engine.Effect, len(names))
	for i, n := range names {
		out[i] = engine.Effect(n)
	}
	return out
}

func ingredients(names ...string) []engine.Ingredient {
	out := make([]engine.Ingredient, len(names))
	for i, n := range names {
		out[i] = engine.Ingredient(n)
	}
	return out
}

// ── FindPath ────────────────────────────────────────────────────────

func TestFindPath(t *testing.T) {
	eng := exampleEngine()

	tests := []struct {
		name    string
		desired []engine.Effect
		initial []engine.Effect
		want    []engine.Ingredient
	}{
		{name: "single base effect", desired: effects("Calming"), want: ingredients("Base1")},
		{name: "other base effect", desired: effects("Energizing"), want: ingredients("Base2")},
		{name: "transformation", desired: effects("Anti-gravity"), want: ingredients("Base1", "Base2")},
		{name: "two base effects", desired: effects("Calming", "Energizing"), want: ingredients("Base2", "Base1")},
		{name: "re-add transformed effect", desired: effects("Anti-gravity", "Calming"), want: ingredients("Base1", "Base2", "Base1")},
		{name: "from initial", desired: effects("Anti-gravity"), initial: effects("Calming"), want: ingredients("Base2")},
		{name: "already satisfied", desired: effects("Calming"), initial: effects("Calming"), want: ingredients()},
		{name: "empty goal", want: ingredients()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := FindPath(eng, tt.desired, tt.initial)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Path)
			assert.True(t, res.Effects.ContainsAll(tt.desired))
			assert.Equal(t, res.Effects, eng.Replay(tt.initial, res.Path))
		})
	}
}

func TestFindPathNotFound(t *testing.T) {
	eng := exampleEngine()

	_, err := FindPath(eng, effects("Toxic"), nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = FindPath(eng, effects("NotAnEffect"), effects("AlsoUnknown"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindPathIsShortest(t *testing.T) {
	eng := exampleEngine()
	goals := [][]engine.Effect{
		effects("Calming"),
		effects("Anti-gravity"),
		effects("Calming", "Energizing"),
		effects("Anti-gravity", "Calming"),
	}
	for _, desired := range goals {
		res, err := FindPath(eng, desired, nil)
		require.NoError(t, err)
		assert.False(t, reachableWithin(eng, desired, nil, len(res.Path)-1),
			"shorter path exists for %v", desired)
	}
}

// reachableWithin enumerates every sequence of at most n ingredients.
func reachableWithin(eng *engine.Engine, desired, initial []engine.Effect, n int) bool {
	var walk func(state engine.EffectSet, left int) bool
	walk = func(state engine.EffectSet, left int) bool {
		if state.ContainsAll(desired) {
			return true
		}
		if left == 0 {
			return false
		}
		for _, ing := range eng.Ingredients() {
			if walk(eng.Combine(state, ing), left-1) {
				return true
			}
		}
		return false
	}
	if n < 0 {
		return false
	}
	return walk(eng.Canonical(initial), n)
}

// ── Optimize ────────────────────────────────────────────────────────

func exampleMarket() Market {
	return Market{
		BasePrice:      100,
		ProductionCost: 10,
		Multipliers:    map[engine.Effect]float64{"Calming": 0.25, "Energizing": 0.125, "Anti-gravity": 0.5},
		Prices:         map[engine.Ingredient]float64{"Base1": 2, "Base2": 3},
	}
}

func TestMarketValue(t *testing.T) {
	m := exampleMarket()
	assert.Equal(t, 100.0, m.Value(engine.EffectSet{}))
	assert.Equal(t, 112.0, m.Value(engine.EffectSet{"Energizing"}))
	assert.Equal(t, 162.0, m.Value(engine.EffectSet{"Anti-gravity", "Energizing"}))
	assert.Equal(t, 100.0, m.Value(engine.EffectSet{"Unpriced"}))
	assert.Equal(t, 147.0, m.Profit(engine.EffectSet{"Anti-gravity", "Energizing"}, 5))
}

func TestOptimize(t *testing.T) {
	eng := exampleEngine()

	tests := []struct {
		name     string
		depth    int
		initial  []engine.Effect
		wantPath []engine.Ingredient
		wantEff  engine.EffectSet
		wantCost float64
		want     float64
	}{
		{name: "depth zero", depth: 0, wantPath: ingredients(), wantEff: engine.EffectSet{}, want: 90},
		{name: "depth one", depth: 1, wantPath: ingredients("Base1"), wantEff: engine.EffectSet{"Calming"}, wantCost: 2, want: 113},
		{name: "depth two", depth: 2, wantPath: ingredients("Base1", "Base2"), wantEff: engine.EffectSet{"Anti-gravity", "Energizing"}, wantCost: 5, want: 147},
		{name: "from initial", depth: 1, initial: effects("Calming"), wantPath: ingredients("Base2"), wantEff: engine.EffectSet{"Anti-gravity", "Energizing"}, wantCost: 3, want: 149},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Optimize(eng, exampleMarket(), tt.depth, tt.initial)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, res.Path)
			assert.Equal(t, tt.wantEff, res.Effects)
			assert.Equal(t, tt.wantCost, res.IngredientCost)
			assert.Equal(t, tt.want, res.Profit)
			assert.LessOrEqual(t, len(res.Path), tt.depth)
			assert.Equal(t, res.Effects, eng.Replay(tt.initial, res.Path))
		})
	}
}

func TestOptimizeDepthZeroEvaluatesInitial(t *testing.T) {
	eng := exampleEngine()
	m := exampleMarket()
	initial := effects("Energizing", "Calming")

	res, err := Optimize(eng, m, 0, initial)
	require.NoError(t, err)
	assert.Empty(t, res.Path)
	assert.Zero(t, res.Expanded)
	assert.Equal(t, m.Profit(eng.Canonical(initial), 0), res.Profit)
}

func TestOptimizeKeepsInitialWhenIngredientsCostTooMuch(t *testing.T) {
	eng := exampleEngine()
	m := exampleMarket()
	m.Prices = map[engine.Ingredient]float64{"Base1": 1000, "Base2": 1000}

	res, err := Optimize(eng, m, 3, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Path)
	assert.Equal(t, 90.0, res.Profit)
	assert.Equal(t, 100.0, res.Value)
}

func TestOptimizeCountsExpandedNodes(t *testing.T) {
	res, err := Optimize(exampleEngine(), exampleMarket(), 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Expanded)
}

// ── Memo re-enqueue rule ────────────────────────────────────────────

func TestOptimizeRevisitsStates(t *testing.T) {
	tests := []struct {
		name         string
		rules        []engine.Rule
		maxEffects   int
		multipliers  map[engine.Effect]float64
		prices       map[engine.Ingredient]float64
		depth        int
		wantPath     []engine.Ingredient
		wantProfit   float64
		wantExpanded int
	}{
		{
			// Dear and Cheap both give {A}; Cheap comes second with a
			// lower cost and must replace the dearer route.
			name: "cheaper route to a seen state",
			rules: []engine.Rule{
				{Base: "Dear", BaseEffect: "A"},
				{Base: "Cheap", BaseEffect: "A"},
			},
			maxEffects:   8,
			multipliers:  map[engine.Effect]float64{"A": 0.5},
			prices:       map[engine.Ingredient]float64{"Dear": 5, "Cheap": 1},
			depth:        1,
			wantPath:     ingredients("Cheap"),
			wantProfit:   149,
			wantExpanded: 1,
		},
		{
			// With one effect slot, Z turns both {L} and {H} into {X}.
			// {H} is dearer but more profitable than {L}, so its routes to
			// {H} and {X} are queued again at depth 2, and the cheap {X}
			// reached from there is queued again at depth 3.
			name: "more profitable parent of a seen state",
			rules: []engine.Rule{
				{Base: "Lo", BaseEffect: "L"},
				{Base: "Hi", BaseEffect: "H"},
				{Base: "Z", BaseEffect: "Zb"},
				{BaseEffect: "L", Modifier: "Z", ResultEffect: "X", ModifierEffect: "Zb"},
				{BaseEffect: "H", Modifier: "Z", ResultEffect: "X", ModifierEffect: "Zb"},
			},
			maxEffects:   1,
			multipliers:  map[engine.Effect]float64{"H": 1},
			prices:       map[engine.Ingredient]float64{"Lo": 1, "Hi": 5, "Z": 1},
			depth:        3,
			wantPath:     ingredients("Hi"),
			wantProfit:   195,
			wantExpanded: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prio := map[engine.Effect]int{"A": 0, "L": 1, "H": 2, "Zb": 3, "X": 4}
			eng := engine.New(tt.rules, tt.maxEffects, prio)
			m := Market{BasePrice: 100, Multipliers: tt.multipliers, Prices: tt.prices}

			res, err := Optimize(eng, m, tt.depth, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPath, res.Path)
			assert.Equal(t, tt.wantProfit, res.Profit)
			assert.Equal(t, tt.wantExpanded, res.Expanded)
		})
	}
}
