package modem

import "fmt"

// FlushBits is the number of zero bits appended after the payload so the
// filters settle before the final payload symbol is sampled.
const FlushBits = 2

// Frame is a bit stream ready for modulation.
type Frame struct {
	Bits        []byte // payload, padding and flush tail; len(Bits)%order == 0
	PayloadBits int    // number of message bits at the start of Bits
	PaddedBits  int    // payload plus padding, a multiple of the order
}

// MessageToBits expands a byte string into bits (0 or 1 each), MSB first.
func MessageToBits(msg []byte) []byte {
	bits := make([]byte, 0, len(msg)*8)
	for _, b := range msg {
		for i := 7; i >= 0; i-- {
			bits = append(bits, (b>>i)&1)
		}
	}
	return bits
}

// BitsToBytes packs bits into bytes MSB first. A trailing partial byte is
// dropped.
func BitsToBytes(bits []byte) []byte {
	out := make([]byte, len(bits)/8)
	for i := range out {
		var b byte
		for _, bit := range bits[i*8 : i*8+8] {
			b = b<<1 | bit&1
		}
		out[i] = b
	}
	return out
}

// FlushSymbols returns how many symbols carry the flush tail for an order.
func FlushSymbols(order int) int {
	return (FlushBits + order - 1) / order
}

// PadAndFlush zero-pads bits to a multiple of order, then appends the
// flush tail, itself zero-filled to whole symbols.
func PadAndFlush(bits []byte, order int) Frame {
	if order < 1 {
		panic(fmt.Sprintf("framer: invalid order %d", order))
	}
	padded := (len(bits) + order - 1) / order * order
	total := padded + FlushSymbols(order)*order

	out := make([]byte, total)
	copy(out, bits)
	return Frame{Bits: out, PayloadBits: len(bits), PaddedBits: padded}
}

// Group splits bits into order-sized groups. It panics when len(bits) is not
// a multiple of order.
func Group(bits []byte, order int) [][]byte {
	if order < 1 || len(bits)%order != 0 {
		panic(fmt.Sprintf("framer: %d bits is not a multiple of order %d", len(bits), order))
	}
	groups := make([][]byte, len(bits)/order)
	for i := range groups {
		groups[i] = bits[i*order : (i+1)*order]
	}
	return groups
}
