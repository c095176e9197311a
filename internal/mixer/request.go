package mixer

import (
	"github.com/go-playground/validator/v10"

	"mix-optimizer/internal/errors"
)

const (
	// DefaultDepth is the optimizer depth used when a request omits one.
	DefaultDepth = 3
	// MaxDepth bounds optimizer requests; the state space grows as
	// ingredients^depth.
	MaxDepth = 12
)

var requestValidate = validator.New()

// PathRequest asks for the shortest recipe producing every desired effect.
// Effects are names or 1-based effect IDs.
type PathRequest struct {
	Desired []string `json:"desired" yaml:"desired" validate:"required,min=1,dive,required"`
	Initial []string `json:"initial,omitempty" yaml:"initial,omitempty"`
}

// Validate checks the request fields.
func (r *PathRequest) Validate() error {
	if err := requestValidate.Struct(r); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRequest, "invalid path request", err)
	}
	return nil
}

// MixRequest replays a fixed ingredient sequence.
type MixRequest struct {
	Ingredients []string `json:"ingredients" yaml:"ingredients" validate:"required,min=1,dive,required"`
	Initial     []string `json:"initial,omitempty" yaml:"initial,omitempty"`
}

// Validate checks the request fields.
func (r *MixRequest) Validate() error {
	if err := requestValidate.Struct(r); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRequest, "invalid mix request", err)
	}
	return nil
}

// OptimizeRequest asks for the most profitable recipe for a product.
type OptimizeRequest struct {
	// Product is a product name or 1-based index.
	Product string `json:"product" yaml:"product" validate:"required"`
	// Depth is the maximum number of ingredients. Nil selects DefaultDepth.
	Depth    *int     `json:"depth,omitempty" yaml:"depth,omitempty" validate:"omitempty,gte=0,lte=12"`
	GrowTent bool     `json:"grow_tent,omitempty" yaml:"grow_tent,omitempty"`
	PGR      bool     `json:"pgr,omitempty" yaml:"pgr,omitempty"`
	Strain   string   `json:"strain,omitempty" yaml:"strain,omitempty"`
	Quality  int      `json:"quality,omitempty" yaml:"quality,omitempty" validate:"gte=0"`
	Initial  []string `json:"initial,omitempty" yaml:"initial,omitempty"`
}

// Validate checks the request fields.
func (r *OptimizeRequest) Validate() error {
	if err := requestValidate.Struct(r); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRequest, "invalid optimize request", err)
	}
	return nil
}

// EffectiveDepth returns the requested depth or DefaultDepth.
func (r *OptimizeRequest) EffectiveDepth() int {
	if r.Depth == nil {
		return DefaultDepth
	}
	return *r.Depth
}
