package modem

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ThiHan-SZ/FYP-IoT-Conti/internal/constellation"
)

// DecodeErrorPrefix starts the text returned when payload bytes are not UTF-8.
const DecodeErrorPrefix = "Decode Error Received : "

// Recovered is the demapper's view of a received frame.
type Recovered struct {
	Symbols []complex128 // samples at the symbol instants
	Bits    []byte       // decided payload bits, flush tail removed
	Bytes   []byte       // whole payload bytes
	Text    string
	Decoded bool // false when Bytes are not valid UTF-8
}

// Demapper turns symbol-instant samples into bits by minimum-distance
// decisions. It is safe for concurrent use.
type Demapper struct {
	scheme Scheme
	table  *constellation.Table
}

// NewDemapper creates a demapper for scheme. tables may be nil for BPSK and
// QPSK.
func NewDemapper(scheme Scheme, tables constellation.Provider) (*Demapper, error) {
	if !scheme.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownScheme, int(scheme))
	}
	m := &Demapper{scheme: scheme}
	if scheme.UsesTable() {
		if tables == nil {
			return nil, fmt.Errorf("demapper %s: no constellation provider", scheme)
		}
		t, err := tables.Table(scheme.Order())
		if err != nil {
			return nil, fmt.Errorf("demapper %s: %w", scheme, err)
		}
		m.table = t
	}
	return m, nil
}

// Decide maps each sample to the bit group of the nearest constellation point.
func (m *Demapper) Decide(samples []complex128) []byte {
	order := m.scheme.Order()
	bits := make([]byte, 0, len(samples)*order)

	for _, s := range samples {
		switch m.scheme {
		case BPSK:
			bits = append(bits, sign(real(s)))
		case QPSK:
			bits = append(bits, sign(real(s)), sign(imag(s)))
		default:
			group := m.table.Nearest(real(s), imag(s))
			bits = append(bits, constellation.GroupToBits(group, order)...)
		}
	}
	return bits
}

// Demap samples bb at its symbol instants, decides bits, strips the flush
// tail and decodes the payload as UTF-8 text.
//
// The payload length is not transmitted. For orders 10 and 12 the padding
// window can hold a whole byte, and a trailing zero byte there is taken to
// be padding, so a message ending in 0x00 loses it. Use DemapLength when
// the length is known.
func (m *Demapper) Demap(bb *Baseband) Recovered {
	return m.demap(bb, -1)
}

// DemapLength is Demap for a payload of exactly payloadBits bits.
func (m *Demapper) DemapLength(bb *Baseband, payloadBits int) Recovered {
	return m.demap(bb, payloadBits)
}

func (m *Demapper) demap(bb *Baseband, payloadBits int) Recovered {
	symbols := bb.SymbolSamples()
	order := m.scheme.Order()

	payloadSymbols := len(symbols) - FlushSymbols(order)
	if payloadSymbols < 0 {
		payloadSymbols = 0
	}
	bits := m.Decide(symbols[:payloadSymbols])

	r := Recovered{
		Symbols: symbols,
		Bits:    bits,
	}
	if payloadBits >= 0 {
		r.Bytes = BitsToBytes(bits[:min(payloadBits, len(bits))])
	} else {
		r.Bytes = payloadBytes(bits, order)
	}
	if utf8.Valid(r.Bytes) {
		r.Text = string(r.Bytes)
		r.Decoded = true
	} else {
		r.Text = DecodeErrorPrefix + BitString(bits)
	}
	return r
}

// payloadBytes packs decided bits into bytes, dropping the trailing partial
// byte and a trailing zero byte that starts inside the padding window. Only
// orders above 8 can fit a second byte boundary in that window.
func payloadBytes(bits []byte, order int) []byte {
	out := BitsToBytes(bits)
	n := len(out)
	if n > 0 && out[n-1] == 0 && 8*(n-1) > len(bits)-order {
		out = out[:n-1]
	}
	return out
}

// BitString renders bits as a string of '0' and '1'.
func BitString(bits []byte) string {
	var b strings.Builder
	b.Grow(len(bits))
	for _, bit := range bits {
		b.WriteByte('0' + bit&1)
	}
	return b.String()
}

func sign(v float64) byte {
	if v > 0 {
		return 1
	}
	return 0
}
