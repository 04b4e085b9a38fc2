package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/channel"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/modem"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/sim"
)

// SweepRun is one stored BER/SNR sweep.
type SweepRun struct {
	ID               string     `gorm:"primarykey;size:36" json:"id"`
	Message          string     `json:"message"`
	Schemes          string     `gorm:"size:128" json:"schemes"` // comma-separated scheme names
	BitRate          float64    `json:"bit_rate"`
	CarrierFrequency float64    `json:"carrier_frequency"`
	SNRLow           int        `json:"snr_low_db"`
	SNRHigh          int        `json:"snr_high_db"`
	Seed             int64      `json:"seed"`
	Workers          int        `json:"workers"`
	Impairments      string     `json:"impairments"` // JSON-encoded []channel.Spec
	ElapsedMS        int64      `json:"elapsed_ms"`
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`
	Points           []BERPoint `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE" json:"points,omitempty"`
}

// TableName specifies the table name for GORM
func (SweepRun) TableName() string {
	return "sweep_runs"
}

// BERPoint is one (scheme, SNR) measurement of a run.
type BERPoint struct {
	ID        uint    `gorm:"primarykey" json:"-"`
	RunID     string  `gorm:"index;size:36;not null" json:"-"`
	Scheme    string  `gorm:"size:16" json:"scheme"`
	SNR       int     `json:"snr_db"`
	BER       float64 `json:"ber"`
	BitErrors int     `json:"bit_errors"`
	Bits      int     `json:"bits"`
}

// TableName specifies the table name for GORM
func (BERPoint) TableName() string {
	return "ber_points"
}

// newSweepRun converts an evaluator result into its stored form.
func newSweepRun(id string, res *sim.Result) (*SweepRun, error) {
	names := make([]string, len(res.Config.Schemes))
	for i, s := range res.Config.Schemes {
		names[i] = s.String()
	}
	impairments, err := json.Marshal(res.Config.Impairments)
	if err != nil {
		return nil, fmt.Errorf("encode impairments: %w", err)
	}

	run := &SweepRun{
		ID:               id,
		Message:          res.Message,
		Schemes:          strings.Join(names, ","),
		BitRate:          res.Config.BitRate,
		CarrierFrequency: res.Config.CarrierFrequency,
		SNRLow:           res.Config.SNRLow,
		SNRHigh:          res.Config.SNRHigh,
		Seed:             int64(res.Config.Seed),
		Workers:          res.Config.Workers,
		Impairments:      string(impairments),
		ElapsedMS:        res.Elapsed.Milliseconds(),
		Points:           make([]BERPoint, len(res.Points)),
	}
	for i, p := range res.Points {
		run.Points[i] = BERPoint{
			RunID:     id,
			Scheme:    p.Scheme.String(),
			SNR:       p.SNR,
			BER:       p.BER,
			BitErrors: p.BitErrors,
			Bits:      p.Bits,
		}
	}
	return run, nil
}

// Result rebuilds the evaluator result from a stored run.
func (r *SweepRun) Result() (*sim.Result, error) {
	cfg := sim.Config{
		BitRate:          r.BitRate,
		CarrierFrequency: r.CarrierFrequency,
		SNRLow:           r.SNRLow,
		SNRHigh:          r.SNRHigh,
		Seed:             uint64(r.Seed),
		Workers:          r.Workers,
	}
	if r.Schemes != "" {
		for _, name := range strings.Split(r.Schemes, ",") {
			s, err := modem.ParseScheme(name)
			if err != nil {
				return nil, fmt.Errorf("run %s: %w", r.ID, err)
			}
			cfg.Schemes = append(cfg.Schemes, s)
		}
	}
	if r.Impairments != "" && r.Impairments != "null" {
		var specs []channel.Spec
		if err := json.Unmarshal([]byte(r.Impairments), &specs); err != nil {
			return nil, fmt.Errorf("run %s: decode impairments: %w", r.ID, err)
		}
		cfg.Impairments = specs
	}

	res := &sim.Result{
		Config:  cfg,
		Message: r.Message,
		Points:  make([]sim.Point, len(r.Points)),
		Elapsed: time.Duration(r.ElapsedMS) * time.Millisecond,
	}
	for i, p := range r.Points {
		s, err := modem.ParseScheme(p.Scheme)
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", r.ID, err)
		}
		res.Points[i] = sim.Point{Scheme: s, SNR: p.SNR, BER: p.BER, BitErrors: p.BitErrors, Bits: p.Bits}
	}
	return res, nil
}
