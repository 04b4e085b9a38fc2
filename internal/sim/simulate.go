// Package sim runs end-to-end link simulations: single loopback runs and
// BER/SNR sweeps across modulation schemes.
package sim

import (
	"errors"
	"fmt"

	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/channel"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/constellation"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/dsp"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/modem"
)

// ErrEmptyMessage is returned when there is nothing to transmit.
var ErrEmptyMessage = errors.New("empty message")

// Outcome is the result of one modulate -> channel -> demodulate -> demap run.
type Outcome struct {
	Link         modem.Link
	Chain        string
	Transmission *modem.Transmission
	Baseband     *modem.Baseband
	Recovered    modem.Recovered
	BitErrors    int
	Bits         int
	BER          float64
}

// Simulate sends message over link through chain and measures bit errors.
// A nil chain is an ideal channel.
func Simulate(link modem.Link, tables constellation.Provider, message []byte, chain channel.Chain, opts modem.Options) (*Outcome, error) {
	if len(message) == 0 {
		return nil, ErrEmptyMessage
	}

	mod, err := modem.NewModulator(link, tables, opts)
	if err != nil {
		return nil, err
	}
	demapper, err := modem.NewDemapper(link.Scheme(), tables)
	if err != nil {
		return nil, err
	}
	demod := modem.NewDemodulator(link)

	tx, _ := mod.ModulateMessage(message)
	rx := chain.Apply(dsp.Complex(tx.Signal))
	bits := modem.MessageToBits(message)
	bb := demod.Demodulate(rx)
	rec := demapper.DemapLength(bb, len(bits))

	errs := CountErrors(bits, rec.Bits)
	return &Outcome{
		Link:         link,
		Chain:        chain.String(),
		Transmission: tx,
		Baseband:     bb,
		Recovered:    rec,
		BitErrors:    errs,
		Bits:         len(bits),
		BER:          float64(errs) / float64(len(bits)),
	}, nil
}

// CountErrors compares got against want over len(want) bits. Bits missing
// from got count as errors.
func CountErrors(want, got []byte) int {
	errs := 0
	for i, b := range want {
		if i >= len(got) || got[i]&1 != b&1 {
			errs++
		}
	}
	return errs
}

func describe(scheme modem.Scheme, snr int) string {
	return fmt.Sprintf("%s@%ddB", scheme, snr)
}
