package dsp

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// RootRaisedCosine returns the n+1 taps of a root-raised-cosine pulse with
// roll-off alpha and symbol period ts, sampled at fs. Tap n/2 is t = 0.
//
// The response is not normalised: the centre tap is 1-alpha+4*alpha/pi.
func RootRaisedCosine(n int, alpha, ts, fs float64) []float64 {
	taps := make([]float64, n+1)
	edge := ts / (4 * alpha)
	for i := range taps {
		t := float64(i-n/2) / fs
		switch {
		case t == 0:
			taps[i] = 1 - alpha + 4*alpha/math.Pi
		case alpha > 0 && math.Abs(math.Abs(t)-edge) < 1e-9*ts:
			taps[i] = alpha / math.Sqrt2 * ((1+2/math.Pi)*math.Sin(math.Pi/(4*alpha)) +
				(1-2/math.Pi)*math.Cos(math.Pi/(4*alpha)))
		default:
			r := t / ts
			num := math.Sin(math.Pi*r*(1-alpha)) + 4*alpha*r*math.Cos(math.Pi*r*(1+alpha))
			den := math.Pi * r * (1 - (4*alpha*r)*(4*alpha*r))
			taps[i] = num / den
		}
	}
	return taps
}

// Hamming returns an n-point symmetric Hamming window.
func Hamming(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// Sinc is the normalised sinc function sin(pi x)/(pi x).
func Sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(math.Pi*x) / (math.Pi * x)
}

// LowPass designs a linear-phase FIR low-pass filter with the given number of
// taps and cutoff (Hz) at sampling rate fs, using a Hamming-windowed sinc.
// The taps are scaled to unity gain at DC.
func LowPass(taps int, cutoff, fs float64) []float64 {
	h := make([]float64, taps)
	w := Hamming(taps)
	fc := cutoff / fs
	mid := float64(taps-1) / 2
	for i := range h {
		h[i] = 2 * fc * Sinc(2*fc*(float64(i)-mid)) * w[i]
	}
	floats.Scale(1/floats.Sum(h), h)
	return h
}

// FractionalDelay designs a windowed-sinc interpolator that delays a signal by
// delay samples (plus the (taps-1)/2 group delay of the filter itself).
// Taps are normalised to unity sum.
func FractionalDelay(taps int, delay float64) []float64 {
	h := make([]float64, taps)
	w := Hamming(taps)
	half := taps / 2
	for i := range h {
		h[i] = Sinc(float64(i-half)-delay) * w[i]
	}
	floats.Scale(1/floats.Sum(h), h)
	return h
}
