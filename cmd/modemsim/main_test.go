package main

import (
	"strings"
	"testing"

	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/modem"
	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/sim"
)

func TestParseOrders(t *testing.T) {
	got, err := parseOrders(" 4, 6,,12")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0] != 4 || got[1] != 6 || got[2] != 12 {
		t.Errorf("parseOrders = %v", got)
	}
	if _, err := parseOrders("4,x"); err == nil {
		t.Error("expected error for non-numeric order")
	}
}

func TestFormatTable(t *testing.T) {
	res := &sim.Result{
		Config: sim.Config{Schemes: []modem.Scheme{modem.BPSK, modem.QAM16}, SNRLow: -1, SNRHigh: 0},
		Points: []sim.Point{
			{Scheme: modem.BPSK, SNR: -1, BER: 0.5},
			{Scheme: modem.BPSK, SNR: 0, BER: 0.25},
			{Scheme: modem.QAM16, SNR: -1, BER: 0.75},
			{Scheme: modem.QAM16, SNR: 0, BER: 0.125},
		},
	}
	lines := strings.Split(strings.TrimSpace(formatTable(res)), "\n")
	if len(lines) != 3 {
		t.Fatalf("table has %d lines:\n%s", len(lines), formatTable(res))
	}
	if !strings.Contains(lines[0], "BPSK") || !strings.Contains(lines[0], "QAM16") {
		t.Errorf("header = %q", lines[0])
	}
	if f := strings.Fields(lines[2]); len(f) != 3 || f[0] != "0" || f[1] != "0.2500" || f[2] != "0.1250" {
		t.Errorf("row = %q", lines[2])
	}
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	cmd := newSimulateCmd()
	if err := cmd.Flags().Parse([]string{"--scheme", "QAM64", "--bit-rate", "2400"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Link.Scheme != "QAM64" || cfg.Link.BitRate != 2400 || cfg.Link.CarrierFrequency != 16000 {
		t.Errorf("link = %+v", cfg.Link)
	}
}
