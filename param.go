package canopy

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Param is an emitter parameter: either a fixed value or an inclusive range
// sampled uniformly for every spawned particle. The zero value is Fixed(0).
type Param struct {
	min, max float64
	ranged   bool
}

// Fixed returns a parameter that always samples v.
func Fixed(v float64) Param {
	return Param{min: v, max: v}
}

// Between returns a parameter sampled uniformly from [lo, hi]. The bounds
// may be given in either order.
func Between(lo, hi float64) Param {
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo == hi {
		return Fixed(lo)
	}
	return Param{min: lo, max: hi, ranged: true}
}

// Ranged reports whether p was built with Between and has distinct bounds.
func (p Param) Ranged() bool { return p.ranged }

// Min returns the lower bound, or the fixed value.
func (p Param) Min() float64 { return p.min }

// Max returns the upper bound, or the fixed value.
func (p Param) Max() float64 { return p.max }

// Sample draws a value. Fixed parameters return their value exactly;
// ranged ones return a value in [Min, Max].
func (p Param) Sample(rng *rand.Rand) float64 {
	if !p.ranged {
		return p.min
	}
	v := p.min + rng.Float64()*(p.max-p.min)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		// Infinite bounds: the product above is not meaningful.
		return p.min
	}
	return clamp(v, p.min, p.max)
}

func (p Param) String() string {
	if p.ranged {
		return fmt.Sprintf("[%g, %g]", p.min, p.max)
	}
	return fmt.Sprintf("%g", p.min)
}
