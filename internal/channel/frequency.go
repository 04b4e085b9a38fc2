package channel

import (
	"fmt"
	"math"
)

// FrequencyDrift applies a linearly increasing frequency error: sample n is
// rotated by exp(-j*pi*Rate*n^2/fs^2).
type FrequencyDrift struct {
	Rate         float64 // Hz per second
	SamplingRate float64
}

// NewFrequencyDrift creates a drift impairment.
func NewFrequencyDrift(rate, fs float64) *FrequencyDrift {
	return &FrequencyDrift{Rate: rate, SamplingRate: fs}
}

func (d *FrequencyDrift) Name() string { return fmt.Sprintf("drift(%g Hz/s)", d.Rate) }

func (d *FrequencyDrift) Apply(x []complex128) []complex128 {
	out := make([]complex128, len(x))
	fs2 := d.SamplingRate * d.SamplingRate
	for n, v := range x {
		nf := float64(n)
		sin, cos := math.Sincos(-math.Pi * d.Rate * nf * nf / fs2)
		out[n] = v * complex(cos, sin)
	}
	return out
}

// FrequencyOffset applies a constant carrier offset: sample n is rotated by
// exp(-j*2*pi*Offset*n/fs).
type FrequencyOffset struct {
	Offset       float64 // Hz
	SamplingRate float64
}

// NewFrequencyOffset creates an offset impairment.
func NewFrequencyOffset(offset, fs float64) *FrequencyOffset {
	return &FrequencyOffset{Offset: offset, SamplingRate: fs}
}

func (o *FrequencyOffset) Name() string { return fmt.Sprintf("offset(%g Hz)", o.Offset) }

func (o *FrequencyOffset) Apply(x []complex128) []complex128 {
	out := make([]complex128, len(x))
	for n, v := range x {
		sin, cos := math.Sincos(-2 * math.Pi * o.Offset * float64(n) / o.SamplingRate)
		out[n] = v * complex(cos, sin)
	}
	return out
}
