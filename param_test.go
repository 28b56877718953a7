package canopy

import (
	"math"
	"math/rand/v2"
	"testing"
)

func TestFixed(t *testing.T) {
	p := Fixed(3.5)
	if p.Ranged() {
		t.Error("Fixed should not be ranged")
	}
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 10; i++ {
		if v := p.Sample(rng); v != 3.5 {
			t.Fatalf("Sample = %v, want 3.5", v)
		}
	}
	if p.String() != "3.5" {
		t.Errorf("String = %q", p.String())
	}
}

func TestZeroParamIsFixedZero(t *testing.T) {
	var p Param
	if p.Sample(rand.New(rand.NewPCG(1, 2))) != 0 || p.Ranged() {
		t.Error("the zero Param should sample 0")
	}
}

func TestBetween(t *testing.T) {
	tests := []struct {
		name       string
		lo, hi     float64
		wantMin    float64
		wantMax    float64
		wantRanged bool
	}{
		{"ordered", 1, 5, 1, 5, true},
		{"swapped", 5, 1, 1, 5, true},
		{"negative", -10, -2, -10, -2, true},
		{"degenerate", 2, 2, 2, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Between(tt.lo, tt.hi)
			if p.Min() != tt.wantMin || p.Max() != tt.wantMax || p.Ranged() != tt.wantRanged {
				t.Errorf("Between(%v, %v) = %v (ranged %v)", tt.lo, tt.hi, p, p.Ranged())
			}
		})
	}
}

func TestBetweenSamplesInclusiveRange(t *testing.T) {
	p := Between(-2, 3)
	rng := rand.New(rand.NewPCG(9, 9))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < 10000; i++ {
		v := p.Sample(rng)
		if v < -2 || v > 3 {
			t.Fatalf("Sample = %v outside [-2, 3]", v)
		}
		lo, hi = min(lo, v), max(hi, v)
	}
	// A uniform sampler covers most of the range in 10k draws.
	if lo > -1.9 || hi < 2.9 {
		t.Errorf("samples span [%v, %v], expected close to [-2, 3]", lo, hi)
	}
	if p.String() != "[-2, 3]" {
		t.Errorf("String = %q", p.String())
	}
}

func TestBetweenInfiniteBound(t *testing.T) {
	p := Between(1, math.Inf(1))
	rng := rand.New(rand.NewPCG(3, 4))
	if v := p.Sample(rng); v != 1 {
		t.Errorf("Sample = %v, want the finite lower bound", v)
	}
}
