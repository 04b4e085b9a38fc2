package modem

import (
	"fmt"
	"math"

	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/constellation"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/dsp"
)

// Options controls optional modulator output.
type Options struct {
	// IQDiagnostics keeps the intermediate I/Q signals in the Transmission.
	IQDiagnostics bool
}

// Transmission is the output of one modulation run.
type Transmission struct {
	Time    []float64    // sample instants in seconds
	Signal  []float64    // real passband signal
	Symbols []complex128 // transmitted constellation symbols

	// Diagnostics is nil unless Options.IQDiagnostics is set.
	Diagnostics *IQDiagnostics
}

// IQDiagnostics exposes the intermediate transmitter signals.
type IQDiagnostics struct {
	InPhase    []float64    // I(t)*cos(wt)
	Quadrature []float64    // Q(t)*sin(wt)
	ShapedI    []float64    // pulse-shaped I before mixing
	ShapedQ    []float64    // pulse-shaped Q before mixing
	Impulses   []complex128 // symbol impulse train
	PulseDelay float64      // RRC group delay in seconds
}

// Modulator maps bits to a pulse-shaped passband signal. It is safe for
// concurrent use.
type Modulator struct {
	link  Link
	table *constellation.Table
	pulse []float64
	scale float64
	opts  Options
}

// NewModulator creates a modulator for link. tables may be nil for BPSK and
// QPSK; QAM schemes fail when their table cannot be provided.
func NewModulator(link Link, tables constellation.Provider, opts Options) (*Modulator, error) {
	m := &Modulator{
		link:  link,
		pulse: link.Pulse(),
		scale: link.Scheme().Scale(),
		opts:  opts,
	}

	if link.Scheme().UsesTable() {
		if tables == nil {
			return nil, fmt.Errorf("modulator %s: no constellation provider", link.Scheme())
		}
		t, err := tables.Table(link.Scheme().Order())
		if err != nil {
			return nil, fmt.Errorf("modulator %s: %w", link.Scheme(), err)
		}
		m.table = t
	}
	return m, nil
}

// Link returns the modulator's link parameters.
func (m *Modulator) Link() Link { return m.link }

// Symbols maps a bit stream onto constellation symbols. len(bits) must be a
// multiple of the order.
func (m *Modulator) Symbols(bits []byte) []complex128 {
	groups := Group(bits, m.link.Scheme().Order())
	symbols := make([]complex128, len(groups))

	for i, g := range groups {
		switch m.link.Scheme() {
		case BPSK:
			symbols[i] = complex(2*float64(g[0])-1, 0)
		case QPSK:
			symbols[i] = complex(2*float64(g[0])-1, 2*float64(g[1])-1)
		default:
			p := m.table.Point(constellation.BitsToGroup(g))
			symbols[i] = complex(float64(p.I)/m.scale, float64(p.Q)/m.scale)
		}
	}
	return symbols
}

// Modulate produces the passband signal for a framed bit stream.
// It panics when len(bits) is not a multiple of the order.
func (m *Modulator) Modulate(bits []byte) *Transmission {
	symbols := m.Symbols(bits)
	sps := m.link.SamplesPerSymbol()
	n := len(symbols)*sps + len(m.pulse) - 1

	impulses := make([]complex128, n)
	for i, s := range symbols {
		impulses[i*sps] = s
	}
	shaped := dsp.Convolve(impulses, m.pulse)[:n]

	t := dsp.TimeAxis(n, m.link.SamplingRate())
	shapedI := dsp.Real(shaped)
	shapedQ := dsp.Imag(shaped)
	inPhase, quadrature := mix(shapedI, shapedQ, t, m.link.CarrierFrequency())

	signal := make([]float64, n)
	for k := range signal {
		signal[k] = inPhase[k] - quadrature[k]
	}

	tx := &Transmission{Time: t, Signal: signal, Symbols: symbols}
	if m.opts.IQDiagnostics {
		tx.Diagnostics = &IQDiagnostics{
			InPhase:    inPhase,
			Quadrature: quadrature,
			ShapedI:    shapedI,
			ShapedQ:    shapedQ,
			Impulses:   impulses,
			PulseDelay: float64(m.link.PulseOrder()/2) / m.link.SamplingRate(),
		}
	}
	return tx
}

// ModulateMessage frames msg and modulates it.
func (m *Modulator) ModulateMessage(msg []byte) (*Transmission, Frame) {
	frame := PadAndFlush(MessageToBits(msg), m.link.Scheme().Order())
	return m.Modulate(frame.Bits), frame
}

// Save writes signal to a 32-bit float WAV file at the link's sampling rate.
// Samples are halved on the way out; any halved sample outside [-1, 1] is an
// error.
func (m *Modulator) Save(path string, signal []float64) error {
	out := make([]float32, len(signal))
	for i, v := range signal {
		h := v / 2
		if math.IsNaN(h) || h < -1 || h > 1 {
			return fmt.Errorf("save %s: sample %d = %v is outside the [-2, 2] range", path, i, v)
		}
		out[i] = float32(h)
	}
	return WriteWAV(path, int(math.Round(m.link.SamplingRate())), out)
}

// mix returns I*cos(2*pi*fc*t) and Q*sin(2*pi*fc*t).
func mix(i, q, t []float64, fc float64) ([]float64, []float64) {
	if len(i) != len(q) || len(i) != len(t) {
		panic(fmt.Sprintf("modulator: I/Q length mismatch (%d, %d, %d)", len(i), len(q), len(t)))
	}
	inPhase := make([]float64, len(i))
	quadrature := make([]float64, len(q))
	w := 2 * math.Pi * fc
	for k := range t {
		sin, cos := math.Sincos(w * t[k])
		inPhase[k] = i[k] * cos
		quadrature[k] = q[k] * sin
	}
	return inPhase, quadrature
}

func rrcPulse(n int, ts, fs float64) []float64 {
	return dsp.RootRaisedCosine(n, RollOff, ts, fs)
}
