package channel

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand/v2"
	"strings"
)

// FadingKind selects the flat-fading distribution.
type FadingKind int

const (
	Rayleigh FadingKind = iota
	Rician
)

func (k FadingKind) String() string {
	switch k {
	case Rayleigh:
		return "rayleigh"
	case Rician:
		return "rician"
	default:
		return "unknown"
	}
}

// ParseFadingKind parses "rayleigh" or "rician".
func ParseFadingKind(s string) (FadingKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rayleigh":
		return Rayleigh, nil
	case "rician", "rice":
		return Rician, nil
	}
	return 0, fmt.Errorf("%w: fading model %q", ErrInvalidParameter, s)
}

// FlatFading multiplies the whole buffer by one random channel coefficient
// drawn per Apply call.
type FlatFading struct {
	Kind    FadingKind
	KFactor float64 // linear; Rician only
	rng     *rand.Rand
	last    complex128
}

// NewFlatFading creates a fading impairment. Rician fading requires
// kFactorDB.
func NewFlatFading(kind FadingKind, kFactorDB *float64, rng *rand.Rand) (*FlatFading, error) {
	f := &FlatFading{Kind: kind, rng: rng}
	switch kind {
	case Rayleigh:
	case Rician:
		if kFactorDB == nil {
			return nil, fmt.Errorf("%w: rician fading requires k_factor_db", ErrMissingParameter)
		}
		f.KFactor = math.Pow(10, *kFactorDB/10)
	default:
		return nil, fmt.Errorf("%w: fading kind %d", ErrInvalidParameter, int(kind))
	}
	return f, nil
}

func (f *FlatFading) Name() string {
	if f.Kind == Rician {
		return fmt.Sprintf("rician(K=%.3g dB)", 10*math.Log10(f.KFactor))
	}
	return "rayleigh"
}

// Coefficient returns the coefficient drawn by the last Apply.
func (f *FlatFading) Coefficient() complex128 { return f.last }

// Apply scales x by a fresh coefficient h. Rayleigh uses the real envelope
// |a+jb|/sqrt2; Rician adds a line-of-sight term sqrt(K/(K+1)) to the
// diffuse part sqrt(1/(K+1))*(a+jb)/sqrt2.
func (f *FlatFading) Apply(x []complex128) []complex128 {
	g := complex(f.rng.NormFloat64(), f.rng.NormFloat64()) / math.Sqrt2

	var h complex128
	switch f.Kind {
	case Rician:
		k := f.KFactor
		h = complex(math.Sqrt(k/(k+1)), 0) + complex(math.Sqrt(1/(k+1)), 0)*g
	default:
		h = complex(cmplx.Abs(g), 0)
	}
	f.last = h

	out := make([]complex128, len(x))
	for i, v := range x {
		out[i] = h * v
	}
	return out
}
