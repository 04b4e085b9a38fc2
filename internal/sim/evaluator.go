package sim

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/channel"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/constellation"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/dsp"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/modem"
)

const (
	// DefaultSeed is used when a sweep does not set one.
	DefaultSeed = 1
	// MaxSNRPoints bounds the number of SNR values in one sweep.
	MaxSNRPoints = 401
)

var (
	// ErrInvalidRange is returned when the SNR upper bound is below the lower bound.
	ErrInvalidRange = errors.New("invalid SNR range")
	// ErrNoSchemes is returned for a sweep without modulation schemes.
	ErrNoSchemes = errors.New("no modulation schemes selected")
)

// Config describes a BER/SNR sweep.
type Config struct {
	Schemes          []modem.Scheme `json:"schemes"`
	BitRate          float64        `json:"bit_rate"`
	CarrierFrequency float64        `json:"carrier_frequency"`
	SNRLow           int            `json:"snr_low_db"`
	SNRHigh          int            `json:"snr_high_db"` // inclusive
	Seed             uint64         `json:"seed"`
	Impairments      []channel.Spec `json:"impairments,omitempty"`
	Workers          int            `json:"workers"`
}

// Validate checks the sweep configuration.
func (c Config) Validate() error {
	if len(c.Schemes) == 0 {
		return ErrNoSchemes
	}
	seen := make(map[modem.Scheme]bool, len(c.Schemes))
	for _, s := range c.Schemes {
		if seen[s] {
			return fmt.Errorf("scheme %v listed twice", s)
		}
		seen[s] = true
		if _, err := modem.NewLink(s, c.BitRate, c.CarrierFrequency); err != nil {
			return err
		}
	}
	if c.SNRHigh < c.SNRLow {
		return fmt.Errorf("%w: upper bound %d dB < lower bound %d dB", ErrInvalidRange, c.SNRHigh, c.SNRLow)
	}
	if n := int64(c.SNRHigh) - int64(c.SNRLow) + 1; n > MaxSNRPoints {
		return fmt.Errorf("%w: %d SNR values exceeds %d", ErrInvalidRange, n, MaxSNRPoints)
	}
	if c.Workers < 1 {
		return fmt.Errorf("invalid worker count %d", c.Workers)
	}
	for i, spec := range c.Impairments {
		if err := spec.Validate(); err != nil {
			return fmt.Errorf("impairment %d: %w", i, err)
		}
	}
	return nil
}

// SNRs returns the swept SNR values in dB.
func (c Config) SNRs() []int {
	snrs := make([]int, 0, c.SNRHigh-c.SNRLow+1)
	for snr := c.SNRLow; snr <= c.SNRHigh; snr++ {
		snrs = append(snrs, snr)
	}
	return snrs
}

// Point is the BER measured for one (scheme, SNR) cell.
type Point struct {
	Scheme    modem.Scheme `json:"scheme"`
	SNR       int          `json:"snr_db"`
	BER       float64      `json:"ber"`
	BitErrors int          `json:"bit_errors"`
	Bits      int          `json:"bits"`
}

// Result holds a finished sweep, ordered by scheme then SNR.
type Result struct {
	Config  Config        `json:"config"`
	Message string        `json:"message"`
	Points  []Point       `json:"points"`
	Elapsed time.Duration `json:"elapsed"`
}

// Series returns the points for one scheme in SNR order.
func (r *Result) Series(scheme modem.Scheme) []Point {
	var out []Point
	for _, p := range r.Points {
		if p.Scheme == scheme {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SNR < out[j].SNR })
	return out
}

// Progress reports a finished cell.
type Progress struct {
	Done  int
	Total int
	Point Point
}

// Observer is notified as cells finish.
type Observer interface {
	CellDone(p Point, elapsed time.Duration)
}

// Evaluator runs BER/SNR sweeps.
type Evaluator struct {
	cfg    Config
	tables constellation.Provider

	// OnProgress, when set, is called after each cell. Calls are serialised.
	OnProgress func(Progress)
	// Observer, when set, receives every finished cell.
	Observer Observer
}

// NewEvaluator validates cfg and prepares an evaluator.
func NewEvaluator(cfg Config, tables constellation.Provider) (*Evaluator, error) {
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{cfg: cfg, tables: tables}, nil
}

// Config returns the evaluator's configuration.
func (e *Evaluator) Config() Config { return e.cfg }

// link bundles the per-scheme transmitter output and receiver.
type link struct {
	scheme   modem.Scheme
	passband []complex128
	demod    *modem.Demodulator
	demapper *modem.Demapper
	fs       float64
}

// Run sweeps every scheme over the SNR range with message as payload.
//
// Every cell seeds its AWGN with the base seed, so each scheme sees the same
// noise realisation at a given SNR, and seeds extra impairments from
// seed+1 onward. Results therefore do not depend on the worker count.
func (e *Evaluator) Run(ctx context.Context, message []byte) (*Result, error) {
	if len(message) == 0 {
		return nil, ErrEmptyMessage
	}
	start := time.Now()
	bits := modem.MessageToBits(message)

	links := make([]link, len(e.cfg.Schemes))
	for i, scheme := range e.cfg.Schemes {
		l, err := e.prepare(scheme, message)
		if err != nil {
			return nil, err
		}
		links[i] = l
	}

	snrs := e.cfg.SNRs()
	total := len(links) * len(snrs)
	points := make([]Point, total)

	log.Printf("[sweep] %d schemes x %d SNR values (%d..%d dB), %d workers, seed %d",
		len(links), len(snrs), e.cfg.SNRLow, e.cfg.SNRHigh, e.cfg.Workers, e.cfg.Seed)

	var (
		mu   sync.Mutex
		done int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)

	for li := range links {
		for si, snr := range snrs {
			idx := li*len(snrs) + si
			l := &links[li]
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				cellStart := time.Now()
				p, err := e.cell(l, snr, bits)
				if err != nil {
					return fmt.Errorf("%s: %w", describe(l.scheme, snr), err)
				}
				points[idx] = p
				elapsed := time.Since(cellStart)

				if e.Observer != nil {
					e.Observer.CellDone(p, elapsed)
				}
				mu.Lock()
				done++
				if e.OnProgress != nil {
					e.OnProgress(Progress{Done: done, Total: total, Point: p})
				}
				mu.Unlock()
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{
		Config:  e.cfg,
		Message: string(message),
		Points:  points,
		Elapsed: time.Since(start),
	}
	log.Printf("[sweep] finished %d cells in %v", total, res.Elapsed.Round(time.Millisecond))
	return res, nil
}

func (e *Evaluator) prepare(scheme modem.Scheme, message []byte) (link, error) {
	ml, err := modem.NewLink(scheme, e.cfg.BitRate, e.cfg.CarrierFrequency)
	if err != nil {
		return link{}, err
	}
	mod, err := modem.NewModulator(ml, e.tables, modem.Options{})
	if err != nil {
		return link{}, err
	}
	demapper, err := modem.NewDemapper(scheme, e.tables)
	if err != nil {
		return link{}, err
	}
	tx, _ := mod.ModulateMessage(message)
	return link{
		scheme:   scheme,
		passband: dsp.Complex(tx.Signal),
		demod:    modem.NewDemodulator(ml),
		demapper: demapper,
		fs:       ml.SamplingRate(),
	}, nil
}

func (e *Evaluator) cell(l *link, snr int, bits []byte) (Point, error) {
	extra, err := channel.Build(e.cfg.Impairments, l.fs, e.cfg.Seed+1)
	if err != nil {
		return Point{}, err
	}
	awgn := channel.NewAWGN(float64(snr), channel.NewRNG(e.cfg.Seed))

	rx := extra.Apply(awgn.Apply(l.passband))
	rec := l.demapper.Demap(l.demod.Demodulate(rx))

	errs := CountErrors(bits, rec.Bits)
	return Point{
		Scheme:    l.scheme,
		SNR:       snr,
		BER:       float64(errs) / float64(len(bits)),
		BitErrors: errs,
		Bits:      len(bits),
	}, nil
}
