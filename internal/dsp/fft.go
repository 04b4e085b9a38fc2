// Package dsp holds the signal-processing primitives shared by the modem and
// the channel models: transforms, convolution, and FIR filter design.
package dsp

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// directLimit is the kernel length up to which Convolve uses the direct sum.
const directLimit = 64

// FFT computes the Discrete Fourier Transform of x. Any length is accepted.
func FFT(x []complex128) []complex128 {
	n := len(x)
	if n <= 1 {
		out := make([]complex128, n)
		copy(out, x)
		return out
	}
	return fourier.NewCmplxFFT(n).Coefficients(nil, x)
}

// IFFT computes the Inverse Discrete Fourier Transform, scaled by 1/N.
func IFFT(x []complex128) []complex128 {
	n := len(x)
	if n <= 1 {
		out := make([]complex128, n)
		copy(out, x)
		return out
	}

	out := fourier.NewCmplxFFT(n).Sequence(nil, x)
	scale := complex(1.0/float64(n), 0)
	for i := range out {
		out[i] *= scale
	}
	return out
}

// Convolve returns the full linear convolution of x with the real kernel h.
// The result has len(x)+len(h)-1 samples.
func Convolve(x []complex128, h []float64) []complex128 {
	if len(x) == 0 || len(h) == 0 {
		return nil
	}
	n := len(x) + len(h) - 1
	if len(h) <= directLimit || len(x) <= directLimit {
		return convolveDirect(x, h)
	}

	size := nextPow2(n)
	xa := make([]complex128, size)
	copy(xa, x)
	ha := make([]complex128, size)
	for i, v := range h {
		ha[i] = complex(v, 0)
	}

	xf, hf := FFT(xa), FFT(ha)
	for i := range xf {
		xf[i] *= hf[i]
	}
	return IFFT(xf)[:n]
}

// Filter applies the causal FIR filter h to x and returns len(x) samples,
// i.e. the leading part of the full convolution.
func Filter(h []float64, x []complex128) []complex128 {
	y := Convolve(x, h)
	if y == nil {
		return make([]complex128, len(x))
	}
	return y[:len(x)]
}

func convolveDirect(x []complex128, h []float64) []complex128 {
	out := make([]complex128, len(x)+len(h)-1)
	for i, xv := range x {
		if xv == 0 {
			continue
		}
		for k, hv := range h {
			out[i+k] += xv * complex(hv, 0)
		}
	}
	return out
}

func nextPow2(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}
