package channel

import (
	"fmt"
	"strings"
)

// Spec describes one impairment in configuration files and API requests.
type Spec struct {
	Type      string   `yaml:"type" json:"type"`                                       // awgn, fading, drift, offset or delay
	SNR       *float64 `yaml:"snr_db,omitempty" json:"snr_db,omitempty"`               // awgn
	Model     string   `yaml:"model,omitempty" json:"model,omitempty"`                 // fading: rayleigh or rician
	KFactorDB *float64 `yaml:"k_factor_db,omitempty" json:"k_factor_db,omitempty"`     // fading: rician K in dB
	Rate      *float64 `yaml:"rate_hz_per_s,omitempty" json:"rate_hz_per_s,omitempty"` // drift
	Offset    *float64 `yaml:"offset_hz,omitempty" json:"offset_hz,omitempty"`         // offset
	Delay     *float64 `yaml:"delay_samples,omitempty" json:"delay_samples,omitempty"` // delay
}

// Build constructs a chain from specs at sampling rate fs. The i-th
// stochastic impairment draws from NewRNG(seed+i).
func Build(specs []Spec, fs float64, seed uint64) (Chain, error) {
	chain := make(Chain, 0, len(specs))
	for i, s := range specs {
		imp, err := s.build(fs, seed+uint64(i))
		if err != nil {
			return nil, fmt.Errorf("channel[%d]: %w", i, err)
		}
		chain = append(chain, imp)
	}
	return chain, nil
}

// Validate checks that s names a known impairment with its parameters.
func (s Spec) Validate() error {
	_, err := s.build(1, 0)
	return err
}

func (s Spec) build(fs float64, seed uint64) (Impairment, error) {
	switch strings.ToLower(strings.TrimSpace(s.Type)) {
	case "awgn", "noise":
		if s.SNR == nil {
			return nil, fmt.Errorf("%w: awgn requires snr_db", ErrMissingParameter)
		}
		return NewAWGN(*s.SNR, NewRNG(seed)), nil

	case "fading":
		model := s.Model
		if model == "" {
			model = "rayleigh"
		}
		kind, err := ParseFadingKind(model)
		if err != nil {
			return nil, err
		}
		return NewFlatFading(kind, s.KFactorDB, NewRNG(seed))

	case "drift":
		if s.Rate == nil {
			return nil, fmt.Errorf("%w: drift requires rate_hz_per_s", ErrMissingParameter)
		}
		return NewFrequencyDrift(*s.Rate, fs), nil

	case "offset":
		if s.Offset == nil {
			return nil, fmt.Errorf("%w: offset requires offset_hz", ErrMissingParameter)
		}
		return NewFrequencyOffset(*s.Offset, fs), nil

	case "delay":
		if s.Delay == nil {
			return nil, fmt.Errorf("%w: delay requires delay_samples", ErrMissingParameter)
		}
		return NewFractionalDelay(*s.Delay)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownImpairment, s.Type)
}
