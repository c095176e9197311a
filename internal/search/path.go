// Package search runs breadth-first searches over mixture states.
//
// Both searches are synchronous and own their queues and visited tables, so
// any number of them may run concurrently against one shared engine.
package search

import (
	"errors"

	"mix-optimizer/internal/engine"
)

// ErrNotFound is returned when the reachable state space is exhausted without
// meeting the goal.
var ErrNotFound = errors.New("no ingredient sequence found")

// PathResult is the outcome of FindPath.
type PathResult struct {
	Path     []engine.Ingredient
	Effects  engine.EffectSet
	Expanded int
}

type pathNode struct {
	state engine.EffectSet
	path  []engine.Ingredient
}

// FindPath returns the shortest ingredient sequence that makes every desired
// effect active at once, starting from initial.
//
// Among equal-length sequences the first one discovered wins, which follows
// the engine's ingredient order. Effects that no rule produces make the goal
// unreachable and yield ErrNotFound.
func FindPath(eng *engine.Engine, desired, initial []engine.Effect) (*PathResult, error) {
	start := eng.Canonical(initial)
	if start.ContainsAll(desired) {
		return &PathResult{Path: []engine.Ingredient{}, Effects: start}, nil
	}

	ingredients := eng.Ingredients()
	visited := map[string]struct{}{start.Key(): {}}
	queue := []pathNode{{state: start, path: []engine.Ingredient{}}}
	expanded := 0

	for head := 0; head < len(queue); head++ {
		node := queue[head]
		queue[head] = pathNode{}

		if node.state.ContainsAll(desired) {
			return &PathResult{Path: node.path, Effects: node.state, Expanded: expanded}, nil
		}
		expanded++

		for _, ing := range ingredients {
			next := eng.Combine(node.state, ing)
			if len(next) > eng.MaxEffects() {
				continue
			}
			key := next.Key()
			if _, seen := visited[key]; seen {
				continue
			}
			visited[key] = struct{}{}
			queue = append(queue, pathNode{state: next, path: extend(node.path, ing)})
		}
	}

	return nil, ErrNotFound
}

// extend returns path+ing without aliasing path's backing array.
func extend(path []engine.Ingredient, ing engine.Ingredient) []engine.Ingredient {
	out := make([]engine.Ingredient, len(path)+1)
	copy(out, path)
	out[len(path)] = ing
	return out
}
