package modem

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrUnknownScheme is returned when a modulation name cannot be parsed.
var ErrUnknownScheme = errors.New("unknown modulation scheme")

// Scheme identifies a modulation scheme. Its value is the number of bits
// carried per symbol (the modulation order).
type Scheme int

const (
	BPSK    Scheme = 1  // 1 bit per symbol
	QPSK    Scheme = 2  // 2 bits per symbol
	QAM16   Scheme = 4  // 4 bits per symbol
	QAM64   Scheme = 6  // 6 bits per symbol
	QAM256  Scheme = 8  // 8 bits per symbol
	QAM1024 Scheme = 10 // 10 bits per symbol
	QAM4096 Scheme = 12 // 12 bits per symbol
)

// Schemes lists every supported scheme in increasing order.
func Schemes() []Scheme {
	return []Scheme{BPSK, QPSK, QAM16, QAM64, QAM256, QAM1024, QAM4096}
}

// Order returns the number of bits per symbol.
func (s Scheme) Order() int {
	return int(s)
}

// Valid reports whether s is a supported scheme.
func (s Scheme) Valid() bool {
	switch s {
	case BPSK, QPSK, QAM16, QAM64, QAM256, QAM1024, QAM4096:
		return true
	}
	return false
}

// UsesTable reports whether symbols are mapped through a constellation table.
func (s Scheme) UsesTable() bool {
	return s.Valid() && s >= QAM16
}

// Scale returns the factor that maps unit-power QAM points back onto the
// integer grid: sqrt(2/3*(M-1)) for QAM-M and 1 for BPSK and QPSK.
func (s Scheme) Scale() float64 {
	if !s.UsesTable() {
		return 1
	}
	return math.Sqrt(2.0 / 3.0 * float64(int(1)<<s.Order()-1))
}

// String returns the scheme name.
func (s Scheme) String() string {
	switch s {
	case BPSK:
		return "BPSK"
	case QPSK:
		return "QPSK"
	case QAM16, QAM64, QAM256, QAM1024, QAM4096:
		return fmt.Sprintf("QAM%d", 1<<s.Order())
	default:
		return "Unknown"
	}
}

// ParseScheme parses names such as "BPSK", "qpsk", "QAM16", "16-QAM" or "qam-64".
func ParseScheme(name string) (Scheme, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = strings.NewReplacer("-", "", "_", "", " ", "").Replace(n)
	if strings.HasSuffix(n, "QAM") && n != "QAM" {
		n = "QAM" + strings.TrimSuffix(n, "QAM")
	}
	for _, s := range Schemes() {
		if s.String() == n {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
}

// MarshalText implements encoding.TextMarshaler.
func (s Scheme) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownScheme, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Scheme) UnmarshalText(text []byte) error {
	v, err := ParseScheme(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
