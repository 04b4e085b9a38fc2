package modem

import (
	"errors"
	"math"
	"testing"
)

func TestParseScheme(t *testing.T) {
	tests := []struct {
		name string
		want Scheme
	}{
		{"BPSK", BPSK},
		{"qpsk", QPSK},
		{"QAM16", QAM16},
		{"16-QAM", QAM16},
		{"qam-64", QAM64},
		{" QAM256 ", QAM256},
		{"1024QAM", QAM1024},
		{"QAM_4096", QAM4096},
	}
	for _, tt := range tests {
		got, err := ParseScheme(tt.name)
		if err != nil {
			t.Errorf("ParseScheme(%q): %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseScheme(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}

	for _, bad := range []string{"", "QAM", "QAM32", "8PSK"} {
		if _, err := ParseScheme(bad); !errors.Is(err, ErrUnknownScheme) {
			t.Errorf("ParseScheme(%q) err = %v, want ErrUnknownScheme", bad, err)
		}
	}
}

func TestScheme_Scale(t *testing.T) {
	if BPSK.Scale() != 1 || QPSK.Scale() != 1 {
		t.Errorf("BPSK/QPSK scale should be 1")
	}
	if got := QAM16.Scale(); math.Abs(got-math.Sqrt(10)) > 1e-12 {
		t.Errorf("QAM16 scale = %v, want sqrt(10)", got)
	}
	if got := QAM4096.Scale(); math.Abs(got-math.Sqrt(2.0/3.0*4095)) > 1e-12 {
		t.Errorf("QAM4096 scale = %v", got)
	}
}

func TestScheme_TextRoundTrip(t *testing.T) {
	for _, s := range Schemes() {
		text, err := s.MarshalText()
		if err != nil {
			t.Fatalf("%v: %v", s, err)
		}
		var back Scheme
		if err := back.UnmarshalText(text); err != nil || back != s {
			t.Errorf("%s: round trip gave %v, %v", text, back, err)
		}
	}
	if _, err := Scheme(3).MarshalText(); err == nil {
		t.Errorf("Scheme(3).MarshalText should fail")
	}
}

func TestNewLink(t *testing.T) {
	l, err := NewLink(BPSK, 1800, 18000)
	if err != nil {
		t.Fatalf("NewLink: %v", err)
	}
	if l.SamplingRate() != 360000 || l.BaudRate() != 1800 || l.SamplesPerSymbol() != 200 {
		t.Errorf("link = %v", l)
	}
	if len(l.Pulse()) != 6*200+1 {
		t.Errorf("pulse has %d taps, want %d", len(l.Pulse()), 6*200+1)
	}

	l, _ = NewLink(QPSK, 1600, 16000)
	if l.BaudRate() != 800 || l.SamplesPerSymbol() != 400 {
		t.Errorf("QPSK link = %v", l)
	}
	if l.LowPassCutoff() != 16000 {
		t.Errorf("LowPassCutoff = %v, want the carrier", l.LowPassCutoff())
	}

	// 20000/650 is not an integer: the pulse is built on 31 samples per symbol.
	l, _ = NewLink(QAM16, 2600, 1000)
	if l.SamplesPerSymbol() != 31 || len(l.Pulse()) != 6*31+1 {
		t.Errorf("QAM16 link = %v, pulse %d taps", l, len(l.Pulse()))
	}

	tests := []struct {
		scheme  Scheme
		rate    float64
		carrier float64
		want    error
	}{
		{Scheme(5), 1000, 10000, ErrUnknownScheme},
		{BPSK, 0, 10000, ErrInvalidLink},
		{BPSK, -5, 10000, ErrInvalidLink},
		{BPSK, 1000, 0, ErrInvalidLink},
		{BPSK, math.NaN(), 1000, ErrInvalidLink},
		{BPSK, 1e9, 100, ErrInvalidLink},
		{BPSK, 0.01, 16000, ErrInvalidLink},
		{QAM16, 4, 1000, ErrInvalidLink},
		{BPSK, 3000, 1000, ErrInvalidLink},
	}
	for _, tt := range tests {
		if _, err := NewLink(tt.scheme, tt.rate, tt.carrier); !errors.Is(err, tt.want) {
			t.Errorf("NewLink(%v, %v, %v) err = %v, want %v", tt.scheme, tt.rate, tt.carrier, err, tt.want)
		}
	}
}
