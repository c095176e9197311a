// Package pricing computes per-unit production cost for catalog products.
package pricing

import (
	"fmt"
	"strconv"
	"strings"

	"mix-optimizer/internal/catalog"
	"mix-optimizer/internal/engine"
	"mix-optimizer/internal/errors"
)

// GasolineIngredient is the ingredient whose price feeds the
// seed_and_gasoline formula.
const GasolineIngredient = "Gasoline"

// Options selects the production setup.
type Options struct {
	GrowTent bool
	PGR      bool
	// Strain is a strain name or 1-based index. Empty selects the first.
	Strain string
	// Quality is a 1-based quality index. Zero selects the highest.
	Quality int
}

// Units returns the units per seed for the grow setup. Unset counts fall
// through to the next condition; when none is set the result is 1.
func Units(p *catalog.Product, growTent, pgr bool) int {
	u := p.Units
	candidates := []struct {
		on    bool
		value int
	}{
		{growTent && pgr, u.GrowTentAndPGR},
		{growTent, u.GrowTent},
		{pgr, u.PGR},
		{true, u.Default},
	}
	for _, c := range candidates {
		if c.on && c.value > 0 {
			return c.value
		}
	}
	return 1
}

// Strain resolves the selected strain. Products without strains return nil.
func Strain(p *catalog.Product, ref string) (*catalog.Strain, error) {
	if len(p.Strains) == 0 {
		return nil, nil
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return &p.Strains[0], nil
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if n >= 1 && n <= len(p.Strains) {
			return &p.Strains[n-1], nil
		}
	} else {
		for i := range p.Strains {
			if strings.EqualFold(p.Strains[i].Name, ref) {
				return &p.Strains[i], nil
			}
		}
	}
	return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
		fmt.Sprintf("unknown strain %q for %s", ref, p.Name),
		map[string]any{"product": p.Name, "strain": ref})
}

// Quality resolves the selected precursor quality. Products without
// qualities return nil.
func Quality(p *catalog.Product, n int) (*catalog.Quality, error) {
	if len(p.Qualities) == 0 {
		return nil, nil
	}
	if n == 0 {
		n = len(p.Qualities)
	}
	if n < 1 || n > len(p.Qualities) {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("quality must be between 1 and %d", len(p.Qualities)),
			map[string]any{"product": p.Name, "quality": n})
	}
	return &p.Qualities[n-1], nil
}

// ProductionCost returns the cost of producing one unit of p.
func ProductionCost(c *catalog.Catalog, p *catalog.Product, opts Options) (float64, error) {
	k := c.Constants
	soilPerSeed := 0.0
	if k.PlantSoilUses > 0 {
		soilPerSeed = k.PlantSoilCost / k.PlantSoilUses
	}

	switch p.Formula {
	case catalog.FormulaSoilAndSeed:
		s, err := Strain(p, opts.Strain)
		if err != nil {
			return 0, err
		}
		if s == nil {
			return 0, errors.New(errors.ErrCodeInvalidRequest, p.Name+" has no strains")
		}
		return (s.Cost + soilPerSeed) / float64(Units(p, opts.GrowTent, opts.PGR)), nil

	case catalog.FormulaBatchBased:
		q, err := Quality(p, opts.Quality)
		if err != nil {
			return 0, err
		}
		if q == nil {
			return 0, errors.New(errors.ErrCodeInvalidRequest, p.Name+" has no qualities")
		}
		if k.MethBatchSize <= 0 {
			return 0, errors.New(errors.ErrCodeInvalidRequest, "meth_batch_size must be positive")
		}
		return (q.Cost + k.MethAcidCost + k.MethPhosphorusCost) / k.MethBatchSize, nil

	case catalog.FormulaSeedAndGasoline:
		perSeed := (k.CocaineSeedCost + soilPerSeed) / float64(Units(p, opts.GrowTent, opts.PGR))
		gasoline := c.IngredientPrices[GasolineIngredient] * k.GasolinePerCocaineUnit
		return perSeed + gasoline, nil
	}

	return 0, errors.NewWithContext(errors.ErrCodeInvalidRequest,
		fmt.Sprintf("unknown formula %q", p.Formula),
		map[string]any{"product": p.Name})
}

// InitialEffects returns the effects a product starts with: the strain's
// effect for strain products, nothing otherwise.
func InitialEffects(p *catalog.Product, opts Options) ([]engine.Effect, error) {
	s, err := Strain(p, opts.Strain)
	if err != nil || s == nil {
		return nil, err
	}
	return []engine.Effect{engine.Effect(s.Effect)}, nil
}
