// Package catalog loads the effect, ingredient and product tables that feed
// the rule engine and the pricing model.
//
// A catalog is a single YAML document. The embedded default catalog is used
// when no file is given.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"mix-optimizer/internal/engine"
	"mix-optimizer/internal/errors"
)

//go:embed default.yaml
var defaultCatalog []byte

// Formula names a production cost formula.
type Formula string

const (
	// FormulaSoilAndSeed prices plant products: (seed + soil per seed) / units.
	FormulaSoilAndSeed Formula = "soil_and_seed"
	// FormulaBatchBased prices batch products: (precursor + acid + phosphorus) / batch size.
	FormulaBatchBased Formula = "batch_based"
	// FormulaSeedAndGasoline prices plant products that also consume gasoline per unit.
	FormulaSeedAndGasoline Formula = "seed_and_gasoline"
)

// IsValid reports whether f is a known formula.
func (f Formula) IsValid() bool {
	switch f {
	case FormulaSoilAndSeed, FormulaBatchBased, FormulaSeedAndGasoline:
		return true
	default:
		return false
	}
}

// Constants are the shared inputs of the production cost formulas.
type Constants struct {
	PlantSoilCost          float64 `yaml:"plant_soil_cost" json:"plant_soil_cost"`
	PlantSoilUses          float64 `yaml:"plant_soil_uses" json:"plant_soil_uses"`
	MethAcidCost           float64 `yaml:"meth_acid_cost" json:"meth_acid_cost"`
	MethPhosphorusCost     float64 `yaml:"meth_phosphorus_cost" json:"meth_phosphorus_cost"`
	MethBatchSize          float64 `yaml:"meth_batch_size" json:"meth_batch_size"`
	CocaineSeedCost        float64 `yaml:"cocaine_seed_cost" json:"cocaine_seed_cost"`
	GasolinePerCocaineUnit float64 `yaml:"gasoline_per_cocaine_unit" json:"gasoline_per_cocaine_unit"`
}

// Units is the number of product units per seed under each grow setup.
// Zero means "not configured".
type Units struct {
	Default        int `yaml:"default" json:"default"`
	GrowTent       int `yaml:"grow_tent" json:"grow_tent"`
	PGR            int `yaml:"pgr" json:"pgr"`
	GrowTentAndPGR int `yaml:"grow_tent_and_pgr" json:"grow_tent_and_pgr"`
}

// Strain is a plant variety; its effect is the product's starting effect.
type Strain struct {
	Name   string  `yaml:"name" json:"name"`
	Effect string  `yaml:"effect" json:"effect"`
	Cost   float64 `yaml:"cost" json:"cost"`
}

// Quality is a precursor grade for batch products.
type Quality struct {
	Name string  `yaml:"name" json:"name"`
	Cost float64 `yaml:"cost" json:"cost"`
}

// Product is something that can be mixed and sold.
type Product struct {
	Name      string    `yaml:"name" json:"name"`
	BasePrice float64   `yaml:"base_price" json:"base_price"`
	Formula   Formula   `yaml:"formula" json:"formula"`
	Units     Units     `yaml:"units" json:"units"`
	Strains   []Strain  `yaml:"strains,omitempty" json:"strains,omitempty"`
	Qualities []Quality `yaml:"qualities,omitempty" json:"qualities,omitempty"`
}

// Catalog is the full data set.
type Catalog struct {
	MaxEffects        int                `yaml:"max_effects"`
	Effects           []string           `yaml:"effects"`
	EffectMultipliers map[string]float64 `yaml:"effect_multipliers"`
	IngredientPrices  map[string]float64 `yaml:"ingredient_prices"`
	Constants         Constants          `yaml:"constants"`
	Products          []Product          `yaml:"products"`
	Combinations      []engine.Rule      `yaml:"combinations"`
}

var loadDefault = sync.OnceValues(func() (*Catalog, error) {
	return Parse(defaultCatalog)
})

// Default returns the embedded catalog. The result is shared and must not be
// modified.
func Default() (*Catalog, error) {
	return loadDefault()
}

// Load reads and validates a catalog file. An empty path selects Default.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, fmt.Sprintf("read catalog %s", path), err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a catalog document. Unknown fields are errors.
func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return nil, errors.Wrap(errors.ErrCodeInvalidRequest, "decode catalog", err)
	}
	if c.MaxEffects == 0 {
		c.MaxEffects = engine.DefaultMaxEffects
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the references between tables.
func (c *Catalog) Validate() error {
	invalid := func(msg string, ctx map[string]any) error {
		return errors.NewWithContext(errors.ErrCodeInvalidRequest, msg, ctx)
	}

	if c.MaxEffects < 0 {
		return invalid("max_effects must be positive", map[string]any{"max_effects": c.MaxEffects})
	}
	if len(c.Effects) == 0 {
		return invalid("effects must not be empty", nil)
	}
	known := make(map[string]struct{}, len(c.Effects))
	for _, e := range c.Effects {
		if e == "" {
			return invalid("effect names must not be empty", nil)
		}
		if _, dup := known[e]; dup {
			return invalid("duplicate effect "+strconv.Quote(e), map[string]any{"effect": e})
		}
		known[e] = struct{}{}
	}

	for i, r := range c.Combinations {
		for _, e := range []string{r.BaseEffect, r.ResultEffect, r.ModifierEffect} {
			if e == "" {
				continue
			}
			if _, ok := known[e]; !ok {
				return invalid(fmt.Sprintf("combination %d references unknown effect %q", i, e),
					map[string]any{"row": i, "effect": e})
			}
		}
	}

	seen := make(map[string]struct{}, len(c.Products))
	for _, p := range c.Products {
		if p.Name == "" {
			return invalid("product name must not be empty", nil)
		}
		if _, dup := seen[p.Name]; dup {
			return invalid("duplicate product "+strconv.Quote(p.Name), map[string]any{"product": p.Name})
		}
		seen[p.Name] = struct{}{}
		if !p.Formula.IsValid() {
			return invalid(fmt.Sprintf("product %q has unknown formula %q", p.Name, p.Formula),
				map[string]any{"product": p.Name, "formula": p.Formula})
		}
		for _, s := range p.Strains {
			if _, ok := known[s.Effect]; !ok {
				return invalid(fmt.Sprintf("strain %q references unknown effect %q", s.Name, s.Effect),
					map[string]any{"strain": s.Name, "effect": s.Effect})
			}
		}
	}
	return nil
}

// Priorities maps every effect to its rank in the priority order.
func (c *Catalog) Priorities() map[engine.Effect]int {
	m := make(map[engine.Effect]int, len(c.Effects))
	for i, e := range c.Effects {
		m[engine.Effect(e)] = i
	}
	return m
}

// SortedEffects returns the effect names in lexicographic order. Numeric
// effect IDs are 1-based positions in this list.
func (c *Catalog) SortedEffects() []string {
	out := slices.Clone(c.Effects)
	slices.Sort(out)
	return out
}

// Multipliers returns the effect value multipliers.
func (c *Catalog) Multipliers() map[engine.Effect]float64 {
	m := make(map[engine.Effect]float64, len(c.EffectMultipliers))
	for k, v := range c.EffectMultipliers {
		m[engine.Effect(k)] = v
	}
	return m
}

// Prices returns the ingredient prices.
func (c *Catalog) Prices() map[engine.Ingredient]float64 {
	m := make(map[engine.Ingredient]float64, len(c.IngredientPrices))
	for k, v := range c.IngredientPrices {
		m[engine.Ingredient(k)] = v
	}
	return m
}

// Engine compiles the combination table. Ingredients whose base effect is
// redefined by a later row are logged; the later row wins.
func (c *Catalog) Engine() *engine.Engine {
	eng := engine.New(c.Combinations, c.MaxEffects, c.Priorities())
	for _, cf := range eng.Conflicts() {
		slog.Warn("ingredient base effect redefined",
			"ingredient", cf.Ingredient,
			"previous", cf.Previous,
			"effect", cf.Effect,
			"row", cf.Row)
	}
	return eng
}

// ProductNames lists products in catalog order.
func (c *Catalog) ProductNames() []string {
	out := make([]string, len(c.Products))
	for i, p := range c.Products {
		out[i] = p.Name
	}
	return out
}

// Product finds a product by name (case-insensitive) or 1-based index.
func (c *Catalog) Product(ref string) (*Product, bool) {
	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(ref); err == nil {
		if n >= 1 && n <= len(c.Products) {
			return &c.Products[n-1], true
		}
		return nil, false
	}
	for i := range c.Products {
		if strings.EqualFold(c.Products[i].Name, ref) {
			return &c.Products[i], true
		}
	}
	return nil, false
}
