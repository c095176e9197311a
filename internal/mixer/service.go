// Package mixer turns user requests into searches over the catalog's rule
// table and shapes the results for output.
package mixer

import (
	stderrors "errors"
	"log/slog"
	"strings"

	"mix-optimizer/internal/catalog"
	"mix-optimizer/internal/engine"
	"mix-optimizer/internal/errors"
	"mix-optimizer/internal/pricing"
	"mix-optimizer/internal/search"
)

// EffectValue is an active effect with its value multiplier.
type EffectValue struct {
	Name       string  `json:"name" yaml:"name"`
	Multiplier float64 `json:"multiplier" yaml:"multiplier"`
}

// PathResult is the answer to a PathRequest.
type PathResult struct {
	Desired  []string `json:"desired" yaml:"desired"`
	Initial  []string `json:"initial" yaml:"initial"`
	Recipe   []string `json:"recipe" yaml:"recipe"`
	Effects  []string `json:"effects" yaml:"effects"`
	Expanded int      `json:"expanded" yaml:"expanded"`
}

// Steps is the number of ingredients in the recipe.
func (r *PathResult) Steps() int { return len(r.Recipe) }

// EffectChange is one effect rewritten by an ingredient. Adds is the effect
// the rule credits to the ingredient.
type EffectChange struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
	Adds string `json:"adds" yaml:"adds"`
}

// MixStep is the state after one ingredient of a MixRequest.
type MixStep struct {
	Ingredient string         `json:"ingredient" yaml:"ingredient"`
	Changes    []EffectChange `json:"changes,omitempty" yaml:"changes,omitempty"`
	Added      string         `json:"added,omitempty" yaml:"added,omitempty"`
	Effects    []string       `json:"effects" yaml:"effects"`
}

// MixResult is the answer to a MixRequest.
type MixResult struct {
	Initial        []string  `json:"initial" yaml:"initial"`
	Recipe         []string  `json:"recipe" yaml:"recipe"`
	Steps          []MixStep `json:"steps" yaml:"steps"`
	Effects        []string  `json:"effects" yaml:"effects"`
	IngredientCost float64   `json:"ingredient_cost" yaml:"ingredient_cost"`
}

// ProfitResult is the answer to an OptimizeRequest.
type ProfitResult struct {
	Product        string        `json:"product" yaml:"product"`
	Depth          int           `json:"depth" yaml:"depth"`
	Initial        []string      `json:"initial" yaml:"initial"`
	Recipe         []string      `json:"recipe" yaml:"recipe"`
	Effects        []EffectValue `json:"effects" yaml:"effects"`
	BasePrice      float64       `json:"base_price" yaml:"base_price"`
	ProductionCost float64       `json:"production_cost" yaml:"production_cost"`
	IngredientCost float64       `json:"ingredient_cost" yaml:"ingredient_cost"`
	TotalCost      float64       `json:"total_cost" yaml:"total_cost"`
	Value          float64       `json:"value" yaml:"value"`
	Profit         float64       `json:"profit" yaml:"profit"`
	Expanded       int           `json:"expanded" yaml:"expanded"`
}

// Service answers path and optimize requests against one catalog. It is safe
// for concurrent use.
type Service struct {
	cat         *catalog.Catalog
	eng         *engine.Engine
	multipliers map[engine.Effect]float64
	prices      map[engine.Ingredient]float64
}

// NewService compiles the catalog's rule table.
func NewService(c *catalog.Catalog) *Service {
	return &Service{
		cat:         c,
		eng:         c.Engine(),
		multipliers: c.Multipliers(),
		prices:      c.Prices(),
	}
}

// Catalog returns the catalog the service was built from.
func (s *Service) Catalog() *catalog.Catalog { return s.cat }

// Engine returns the compiled rule table.
func (s *Service) Engine() *engine.Engine { return s.eng }

// FindPath finds the shortest recipe for req.
func (s *Service) FindPath(req PathRequest) (*PathResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	desired := s.resolveEffects("desired", req.Desired)
	if len(desired) == 0 {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"no valid desired effects", map[string]any{"desired": req.Desired})
	}
	initial := s.resolveEffects("initial", req.Initial)

	slog.Debug("finding path", "desired", desired, "initial", initial)
	res, err := search.FindPath(s.eng, desired, initial)
	if err != nil {
		return nil, searchError(err, "no ingredient sequence produces "+joinEffects(desired))
	}
	slog.Debug("path found", "steps", len(res.Path), "expanded", res.Expanded)

	return &PathResult{
		Desired:  effectStrings(desired),
		Initial:  effectStrings(initial),
		Recipe:   engine.IngredientStrings(res.Path),
		Effects:  res.Effects.Strings(),
		Expanded: res.Expanded,
	}, nil
}

// Optimize finds the most profitable recipe for req.
func (s *Service) Optimize(req OptimizeRequest) (*ProfitResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	p, ok := s.cat.Product(req.Product)
	if !ok {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"unknown product "+req.Product,
			map[string]any{"product": req.Product, "known": s.cat.ProductNames()})
	}

	opts := pricing.Options{
		GrowTent: req.GrowTent,
		PGR:      req.PGR,
		Strain:   req.Strain,
		Quality:  req.Quality,
	}
	prodCost, err := pricing.ProductionCost(s.cat, p, opts)
	if err != nil {
		return nil, err
	}
	initial, err := pricing.InitialEffects(p, opts)
	if err != nil {
		return nil, err
	}
	initial = appendUnique(initial, s.resolveEffects("initial", req.Initial)...)

	depth := req.EffectiveDepth()
	market := search.Market{
		BasePrice:      p.BasePrice,
		ProductionCost: prodCost,
		Multipliers:    s.multipliers,
		Prices:         s.prices,
	}

	slog.Debug("optimizing", "product", p.Name, "depth", depth, "production_cost", prodCost, "initial", initial)
	res, err := search.Optimize(s.eng, market, depth, initial)
	if err != nil {
		return nil, searchError(err, "no profitable state for "+p.Name)
	}
	slog.Debug("optimized", "product", p.Name, "profit", res.Profit, "expanded", res.Expanded)

	effects := make([]EffectValue, len(res.Effects))
	for i, e := range res.Effects {
		effects[i] = EffectValue{Name: string(e), Multiplier: s.multipliers[e]}
	}

	return &ProfitResult{
		Product:        p.Name,
		Depth:          depth,
		Initial:        effectStrings(initial),
		Recipe:         engine.IngredientStrings(res.Path),
		Effects:        effects,
		BasePrice:      p.BasePrice,
		ProductionCost: prodCost,
		IngredientCost: res.IngredientCost,
		TotalCost:      prodCost + res.IngredientCost,
		Value:          res.Value,
		Profit:         res.Profit,
		Expanded:       res.Expanded,
	}, nil
}

// Mix applies req.Ingredients in order and reports the resulting effects.
// Every ingredient must be known since skipping one would change the result.
func (s *Service) Mix(req MixRequest) (*MixResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	recipe, unknown := catalog.ParseIngredients(s.eng, req.Ingredients)
	if len(unknown) > 0 {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			"unknown ingredients "+strings.Join(unknown, ", "),
			map[string]any{"unknown": unknown})
	}
	if len(recipe) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "no ingredients")
	}
	initial := s.resolveEffects("initial", req.Initial)

	state := s.eng.Canonical(initial)
	steps := make([]MixStep, len(recipe))
	cost := 0.0
	for i, ing := range recipe {
		st := s.eng.Trace(state, ing)
		changes := make([]EffectChange, len(st.Changes))
		for j, c := range st.Changes {
			changes[j] = EffectChange{From: string(c.From), To: string(c.To), Adds: string(c.Adds)}
		}
		steps[i] = MixStep{
			Ingredient: string(ing),
			Changes:    changes,
			Added:      string(st.Added),
			Effects:    st.Effects.Strings(),
		}
		state = st.Effects
		cost += s.prices[ing]
	}

	return &MixResult{
		Initial:        effectStrings(initial),
		Recipe:         engine.IngredientStrings(recipe),
		Steps:          steps,
		Effects:        state.Strings(),
		IngredientCost: cost,
	}, nil
}

// resolveEffects parses effect references, logging any that match nothing.
func (s *Service) resolveEffects(field string, refs []string) []engine.Effect {
	found, unknown := s.cat.ParseEffects(refs)
	if len(unknown) > 0 {
		slog.Warn("ignoring unknown effects", "field", field, "effects", unknown)
	}
	return found
}

func searchError(err error, msg string) error {
	if stderrors.Is(err, search.ErrNotFound) {
		return errors.Wrap(errors.ErrCodeNotFound, msg, err)
	}
	return errors.Wrap(errors.ErrCodeInternal, "search failed", err)
}

func appendUnique(dst []engine.Effect, more ...engine.Effect) []engine.Effect {
	for _, e := range more {
		if !engine.EffectSet(dst).Contains(e) {
			dst = append(dst, e)
		}
	}
	return dst
}

func effectStrings(effects []engine.Effect) []string {
	return engine.EffectSet(effects).Strings()
}

func joinEffects(effects []engine.Effect) string {
	return strings.Join(effectStrings(effects), ", ")
}
