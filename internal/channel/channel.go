// Package channel models the impairments applied between modulator and
// demodulator: additive noise, flat fading, frequency drift and offset, and
// fractional-sample delay.
//
// Stochastic impairments draw from an explicit *rand.Rand handle so that a
// run is reproducible from its seed. An impairment holding a generator is
// not safe for concurrent use; build one chain per goroutine.
package channel

import (
	"errors"
	"math/rand/v2"
	"strings"
)

var (
	// ErrMissingParameter is returned when an impairment lacks a required parameter.
	ErrMissingParameter = errors.New("missing impairment parameter")
	// ErrInvalidParameter is returned for out-of-range impairment parameters.
	ErrInvalidParameter = errors.New("invalid impairment parameter")
	// ErrUnknownImpairment is returned for unrecognised impairment types.
	ErrUnknownImpairment = errors.New("unknown impairment")
)

// Impairment transforms a sample buffer. Apply never modifies its input.
type Impairment interface {
	Name() string
	Apply(x []complex128) []complex128
}

// Chain applies impairments in order.
type Chain []Impairment

// Apply runs x through every impairment in the chain.
func (c Chain) Apply(x []complex128) []complex128 {
	for _, imp := range c {
		x = imp.Apply(x)
	}
	return x
}

// String lists the impairment names, e.g. "awgn(10 dB) -> offset(50 Hz)".
func (c Chain) String() string {
	if len(c) == 0 {
		return "ideal"
	}
	names := make([]string, len(c))
	for i, imp := range c {
		names[i] = imp.Name()
	}
	return strings.Join(names, " -> ")
}

// NewRNG returns a deterministic generator for seed.
func NewRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
