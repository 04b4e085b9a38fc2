package channel

import (
	"fmt"
	"math"

	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/dsp"
)

// DelayTaps is the length of the fractional-delay interpolator.
const DelayTaps = 21

// FractionalDelay delays a signal by a fraction of a sample using a
// Hamming-windowed sinc interpolator. The interpolator's own DelayTaps/2
// group delay is removed, so the output has the input's length and is
// shifted by Delay samples only.
type FractionalDelay struct {
	Delay float64 // samples
	taps  []float64
}

// NewFractionalDelay creates a delay impairment. |delay| must stay within
// the interpolator's half-length.
func NewFractionalDelay(delay float64) (*FractionalDelay, error) {
	if math.IsNaN(delay) || math.Abs(delay) >= DelayTaps/2 {
		return nil, fmt.Errorf("%w: delay %v samples outside (-%d, %d)", ErrInvalidParameter, delay, DelayTaps/2, DelayTaps/2)
	}
	return &FractionalDelay{Delay: delay, taps: dsp.FractionalDelay(DelayTaps, delay)}, nil
}

func (d *FractionalDelay) Name() string { return fmt.Sprintf("delay(%g samples)", d.Delay) }

func (d *FractionalDelay) Apply(x []complex128) []complex128 {
	if len(x) == 0 {
		return nil
	}
	half := DelayTaps / 2
	return dsp.Convolve(x, d.taps)[half : half+len(x)]
}
