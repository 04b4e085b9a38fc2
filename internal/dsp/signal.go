package dsp

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Complex widens a real signal to complex samples with zero imaginary part.
func Complex(x []float64) []complex128 {
	out := make([]complex128, len(x))
	for i, v := range x {
		out[i] = complex(v, 0)
	}
	return out
}

// Real returns the real rail of x.
func Real(x []complex128) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = real(v)
	}
	return out
}

// Imag returns the imaginary rail of x.
func Imag(x []complex128) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = imag(v)
	}
	return out
}

// TimeAxis returns n sample instants spaced 1/fs apart, starting at zero.
func TimeAxis(n int, fs float64) []float64 {
	t := make([]float64, n)
	for i := range t {
		t[i] = float64(i) / fs
	}
	return t
}

// Power returns the mean squared magnitude of x.
func Power(x []complex128) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += real(v)*real(v) + imag(v)*imag(v)
	}
	return sum / float64(len(x))
}

// Energy returns the sum of squared taps.
func Energy(h []float64) float64 {
	return floats.Dot(h, h)
}

// RMS returns the root mean square magnitude of x.
func RMS(x []complex128) float64 {
	return math.Sqrt(Power(x))
}
