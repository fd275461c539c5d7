// Package rampcache memoizes ramp.Generate by its key quantities, since
// generation is pure (spec.md §3 "Ramp profiles may be computed once per
// (target ω, α, mode) and cached").
//
// Grounded on spec.md §9 Design Notes: the source carries a
// database-backed cache of ramp profiles keyed by (variant, v, a, mode);
// this package keeps that as an optional, swappable backend (see
// sqlite.go) rather than baking a database into the ramp generator
// itself.
package rampcache

import (
	"fmt"

	"cncrouter/internal/ramp"
)

// Key uniquely identifies a ramp by the inputs it is a pure function of.
type Key struct {
	Variant      ramp.Variant
	Omega        float64
	Alpha        float64
	Mode         int
	StepAngleDeg float64
	LeadMM       float64
}

func (k Key) string() string {
	return fmt.Sprintf("%d|%.10g|%.10g|%d|%.10g|%.10g",
		k.Variant, k.Omega, k.Alpha, k.Mode, k.StepAngleDeg, k.LeadMM)
}

// Cache memoizes generated ramp profiles.
type Cache interface {
	Get(k Key) ([]float64, bool)
	Put(k Key, intervals []float64)
	Close() error
}

// Generate consults the cache before calling ramp.Generate, and populates
// it with any newly-generated profile.
func Generate(c Cache, k Key, p ramp.Params) ([]float64, error) {
	if c != nil {
		if v, ok := c.Get(k); ok {
			return v, nil
		}
	}
	v, err := ramp.Generate(k.Variant, p)
	if err != nil {
		return nil, err
	}
	if c != nil {
		c.Put(k, v)
	}
	return v, nil
}
