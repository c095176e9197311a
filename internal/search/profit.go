package search

import (
	"math"

	"mix-optimizer/internal/engine"
)

// Market prices a mixture. Missing multipliers and prices count as zero.
type Market struct {
	BasePrice      float64
	ProductionCost float64
	Multipliers    map[engine.Effect]float64
	Prices         map[engine.Ingredient]float64
}

// Value is the sale price of a mixture: floor(base × (1 + Σ multipliers)).
func (m Market) Value(effects engine.EffectSet) float64 {
	sum := 0.0
	for _, e := range effects {
		sum += m.Multipliers[e]
	}
	return math.Floor(m.BasePrice * (1 + sum))
}

// Profit is Value minus production and ingredient cost.
func (m Market) Profit(effects engine.EffectSet, ingredientCost float64) float64 {
	return m.Value(effects) - (m.ProductionCost + ingredientCost)
}

// ProfitResult is the best state found by Optimize.
type ProfitResult struct {
	Effects        engine.EffectSet
	Path           []engine.Ingredient
	IngredientCost float64
	Value          float64
	Profit         float64
	Expanded       int
}

type profitNode struct {
	depth int
	cost  float64
	state engine.EffectSet
	path  []engine.Ingredient
}

type memoEntry struct {
	cost   float64
	profit float64
}

// Optimize returns the ingredient sequence of at most maxDepth additions that
// maximizes profit. Every visited state is a candidate, including initial with
// an empty path.
//
// A successor state is queued when it is new, when it is reached more cheaply
// than before, or when the parent's profit beats the profit stored for it. The
// rule admits some dominated paths and does not prove global optimality.
func Optimize(eng *engine.Engine, market Market, maxDepth int, initial []engine.Effect) (*ProfitResult, error) {
	ingredients := eng.Ingredients()
	memo := make(map[string]memoEntry)
	queue := []profitNode{{state: eng.Canonical(initial), path: []engine.Ingredient{}}}

	var best *ProfitResult
	bestProfit := math.Inf(-1)
	expanded := 0

	for head := 0; head < len(queue); head++ {
		node := queue[head]
		queue[head] = profitNode{}

		value := market.Value(node.state)
		profit := value - (market.ProductionCost + node.cost)
		if profit > bestProfit {
			bestProfit = profit
			best = &ProfitResult{
				Effects:        node.state,
				Path:           node.path,
				IngredientCost: node.cost,
				Value:          value,
				Profit:         profit,
			}
		}

		if node.depth >= maxDepth {
			continue
		}
		expanded++

		for _, ing := range ingredients {
			next := eng.Combine(node.state, ing)
			cost := node.cost + market.Prices[ing]
			key := next.Key()
			if m, ok := memo[key]; ok && cost >= m.cost && profit <= m.profit {
				continue
			}
			memo[key] = memoEntry{cost: cost, profit: profit}
			queue = append(queue, profitNode{
				depth: node.depth + 1,
				cost:  cost,
				state: next,
				path:  extend(node.path, ing),
			})
		}
	}

	if best == nil {
		return nil, ErrNotFound
	}
	best.Expanded = expanded
	return best, nil
}
