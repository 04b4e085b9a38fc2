package modem

import (
	"errors"
	"fmt"
	"math"
)

// Canonical filter and rate constants shared by transmitter and receiver.
const (
	// OversamplingFactor sets the sampling rate to 2*OversamplingFactor*carrier.
	OversamplingFactor = 10
	// RollOff is the root-raised-cosine excess bandwidth.
	RollOff = 0.35
	// PulseSpan is the RRC half-length in symbol periods.
	PulseSpan = 3
	// LowPassTaps is the length of the receiver's low-pass filter.
	LowPassTaps = 101
	// LowPassCutoffFactor scales the carrier frequency to the low-pass cutoff.
	// The 101-tap transition band is about fs/30 wide, so the cutoff sits
	// halfway between the baseband and the 2*carrier mixing image.
	LowPassCutoffFactor = 1.0
	// MaxSamplesPerSymbol bounds the pulse and matched-filter lengths.
	MaxSamplesPerSymbol = 8192
)

// ErrInvalidLink is returned for unusable bit rate / carrier combinations.
var ErrInvalidLink = errors.New("invalid link parameters")

// Link holds the rates derived from a scheme, bit rate and carrier frequency.
// It is a value type and never changes once built.
type Link struct {
	scheme  Scheme
	bitRate float64
	carrier float64
	baud    float64
	fs      float64
	sps     int
}

// NewLink derives the link parameters and validates them.
func NewLink(scheme Scheme, bitRate, carrier float64) (Link, error) {
	if !scheme.Valid() {
		return Link{}, fmt.Errorf("%w: %d", ErrUnknownScheme, int(scheme))
	}
	if !(bitRate > 0) || math.IsInf(bitRate, 0) {
		return Link{}, fmt.Errorf("%w: bit rate %v", ErrInvalidLink, bitRate)
	}
	if !(carrier > 0) || math.IsInf(carrier, 0) {
		return Link{}, fmt.Errorf("%w: carrier frequency %v", ErrInvalidLink, carrier)
	}

	l := Link{
		scheme:  scheme,
		bitRate: bitRate,
		carrier: carrier,
		baud:    bitRate / float64(scheme.Order()),
		fs:      2 * OversamplingFactor * carrier,
	}
	l.sps = int(math.Round(l.fs / l.baud))
	if l.sps < 1 {
		return Link{}, fmt.Errorf("%w: %v baud exceeds sampling rate %v", ErrInvalidLink, l.baud, l.fs)
	}
	if l.sps > MaxSamplesPerSymbol {
		return Link{}, fmt.Errorf("%w: %d samples per symbol exceeds %d", ErrInvalidLink, l.sps, MaxSamplesPerSymbol)
	}
	// The lower band edge must stay above DC or the passband folds onto itself.
	if edge := (1 + RollOff) * l.baud / 2; edge >= carrier {
		return Link{}, fmt.Errorf("%w: occupied bandwidth %.0f Hz reaches below DC at carrier %v", ErrInvalidLink, 2*edge, carrier)
	}
	return l, nil
}

// Scheme returns the modulation scheme.
func (l Link) Scheme() Scheme { return l.scheme }

// BitRate returns the bit rate in bits per second.
func (l Link) BitRate() float64 { return l.bitRate }

// CarrierFrequency returns the carrier frequency in Hz.
func (l Link) CarrierFrequency() float64 { return l.carrier }

// BaudRate returns the symbol rate.
func (l Link) BaudRate() float64 { return l.baud }

// SymbolPeriod returns 1/BaudRate in seconds.
func (l Link) SymbolPeriod() float64 { return 1 / l.baud }

// SamplingRate returns the sampling rate in Hz.
func (l Link) SamplingRate() float64 { return l.fs }

// SamplesPerSymbol returns round(SamplingRate/BaudRate).
func (l Link) SamplesPerSymbol() int { return l.sps }

// LowPassCutoff returns the receiver low-pass cutoff in Hz.
func (l Link) LowPassCutoff() float64 { return LowPassCutoffFactor * l.carrier }

// PulseOrder returns N, the RRC order; the pulse has N+1 taps.
func (l Link) PulseOrder() int { return 2 * PulseSpan * l.sps }

// Pulse returns the RRC pulse-shaping kernel for this link. The pulse is
// designed on the sampled symbol period SamplesPerSymbol/SamplingRate so its
// zero crossings land on the symbol grid when fs/baud is not an integer.
func (l Link) Pulse() []float64 {
	return rrcPulse(l.PulseOrder(), float64(l.sps)/l.fs, l.fs)
}

func (l Link) String() string {
	return fmt.Sprintf("%s %.0f bps @ %.0f Hz (fs=%.0f Hz, %d samples/symbol)",
		l.scheme, l.bitRate, l.carrier, l.fs, l.sps)
}
