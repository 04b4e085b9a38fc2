package modem

import (
	"math"

	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/dsp"
)

// Baseband is the delay-aligned complex baseband produced by the receiver.
type Baseband struct {
	Samples          []complex128 // scaled matched-filter output, tail trimmed
	Delay            int          // index of the first symbol instant
	SamplesPerSymbol int
}

// SymbolSamples returns the samples at Delay + k*SamplesPerSymbol.
func (b *Baseband) SymbolSamples() []complex128 {
	if b.SamplesPerSymbol < 1 || b.Delay >= len(b.Samples) {
		return nil
	}
	out := make([]complex128, 0, (len(b.Samples)-b.Delay+b.SamplesPerSymbol-1)/b.SamplesPerSymbol)
	for k := b.Delay; k < len(b.Samples); k += b.SamplesPerSymbol {
		out = append(out, b.Samples[k])
	}
	return out
}

// Demodulator recovers complex baseband from a passband signal: coherent
// downconversion, causal low-pass filtering and RRC matched filtering.
// It is safe for concurrent use.
type Demodulator struct {
	link       Link
	pulse      []float64
	pulseGain  float64
	lowpass    []float64
	scale      float64
	totalDelay int
	pad        int // zeros appended before low-pass filtering to flush its delay
	trim       int // matched-filter tail dropped from the output
}

// NewDemodulator creates a demodulator for link.
func NewDemodulator(link Link) *Demodulator {
	fs := link.SamplingRate()
	pulse := link.Pulse()
	lpfDelay := LowPassTaps / 2

	d := &Demodulator{
		link:      link,
		pulse:     pulse,
		pulseGain: 2 / dsp.Energy(pulse),
		lowpass:   dsp.LowPass(LowPassTaps, link.LowPassCutoff(), fs),
		scale:     link.Scheme().Scale(),
	}

	pulseDelay := float64(link.PulseOrder()/2) / fs
	d.totalDelay = int(math.Round((2*pulseDelay + float64(lpfDelay)/fs) * fs))
	d.pad = lpfDelay
	d.trim = len(pulse) - 1
	return d
}

// Link returns the demodulator's link parameters.
func (d *Demodulator) Link() Link { return d.link }

// TotalDelay returns the combined transmit/receive filter delay in samples.
func (d *Demodulator) TotalDelay() int { return d.totalDelay }

// Demodulate converts a (possibly impaired) passband signal to baseband.
func (d *Demodulator) Demodulate(signal []complex128) *Baseband {
	fs := d.link.SamplingRate()
	w := 2 * math.Pi * d.link.CarrierFrequency()

	mixed := make([]complex128, len(signal)+d.pad)
	for k, v := range signal {
		sin, cos := math.Sincos(w * float64(k) / fs)
		mixed[k] = v * complex(cos, -sin)
	}

	filtered := dsp.Filter(d.lowpass, mixed)
	matched := dsp.Convolve(filtered, d.pulse)

	keep := max(len(matched)-d.trim, 0)
	gain := complex(d.pulseGain*d.scale, 0)
	samples := make([]complex128, keep)
	for k := range samples {
		samples[k] = matched[k] * gain
	}

	return &Baseband{
		Samples:          samples,
		Delay:            d.totalDelay,
		SamplesPerSymbol: d.link.SamplesPerSymbol(),
	}
}

// DemodulateReal is Demodulate for a real passband signal.
func (d *Demodulator) DemodulateReal(signal []float64) *Baseband {
	return d.Demodulate(dsp.Complex(signal))
}
