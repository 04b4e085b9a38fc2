package channel

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/dsp"
)

// AWGN adds white Gaussian noise at a target SNR relative to the mean power
// of each buffer it is applied to.
type AWGN struct {
	SNR float64 // dB
	rng *rand.Rand
}

// NewAWGN creates a noise source drawing from rng.
func NewAWGN(snrDB float64, rng *rand.Rand) *AWGN {
	return &AWGN{SNR: snrDB, rng: rng}
}

func (a *AWGN) Name() string { return fmt.Sprintf("awgn(%g dB)", a.SNR) }

// NoiseStd returns the noise standard deviation for a signal of the given
// mean power.
func (a *AWGN) NoiseStd(signalPower float64) float64 {
	return math.Sqrt(signalPower / math.Pow(10, a.SNR/10))
}

// Apply adds real-valued noise with variance P/10^(SNR/10) to every sample,
// where P is the mean power of x. The passband is real, so noise lands on
// the real rail only.
func (a *AWGN) Apply(x []complex128) []complex128 {
	std := a.NoiseStd(dsp.Power(x))
	out := make([]complex128, len(x))
	for i, v := range x {
		out[i] = v + complex(std*a.rng.NormFloat64(), 0)
	}
	return out
}

// AddNoise is Apply for a real signal.
func (a *AWGN) AddNoise(x []float64) []float64 {
	return dsp.Real(a.Apply(dsp.Complex(x)))
}
