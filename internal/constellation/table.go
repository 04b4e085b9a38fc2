// Package constellation provides the Gray-coded square QAM tables used by the
// modulator and the decision demapper.
//
// A table maps every order-bit group to an integer-level grid point (odd
// coordinates from -(side-1) to side-1) and back. Tables are immutable once
// built and safe for concurrent use.
package constellation

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// MaxOrder is the largest supported number of bits per symbol.
const MaxOrder = 16

var (
	// ErrUnsupportedOrder is returned for orders that do not describe a square grid.
	ErrUnsupportedOrder = errors.New("unsupported constellation order")
	// ErrInvalidTable is returned when forward and inverse mappings disagree.
	ErrInvalidTable = errors.New("invalid constellation table")
)

// Point is a constellation coordinate on the integer-level grid.
type Point struct {
	I int `yaml:"i"`
	Q int `yaml:"q"`
}

// Complex returns p as a complex number I + jQ.
func (p Point) Complex() complex128 {
	return complex(float64(p.I), float64(p.Q))
}

// Table is a validated forward/inverse constellation mapping for one order.
type Table struct {
	order   int
	forward []Point // indexed by bit-group value
	inverse map[Point]int
	tree    *kdtree.Tree
}

// Generate builds the canonical Gray-coded table for the given order.
//
// Column i carries I = -(side-1)+2i and row j carries Q = (side-1)-2j; the
// bit group is gray(i) followed by gray(j), each order/2 bits wide.
func Generate(order int) (*Table, error) {
	if err := checkOrder(order); err != nil {
		return nil, err
	}

	half := order / 2
	side := 1 << half
	forward := make([]Point, 1<<order)
	for i := 0; i < side; i++ {
		for j := 0; j < side; j++ {
			group := gray(i)<<half | gray(j)
			forward[group] = Point{I: -(side - 1) + 2*i, Q: (side - 1) - 2*j}
		}
	}
	return New(order, forward)
}

// New validates a forward mapping (indexed by bit-group value) and builds
// the inverse mapping and the nearest-neighbour index.
func New(order int, forward []Point) (*Table, error) {
	if err := checkOrder(order); err != nil {
		return nil, err
	}
	if len(forward) != 1<<order {
		return nil, fmt.Errorf("%w: %d entries for order %d, want %d",
			ErrInvalidTable, len(forward), order, 1<<order)
	}

	t := &Table{
		order:   order,
		forward: make([]Point, len(forward)),
		inverse: make(map[Point]int, len(forward)),
	}
	copy(t.forward, forward)

	points := make(kdtree.Points, len(forward))
	for group, p := range t.forward {
		if prev, dup := t.inverse[p]; dup {
			return nil, fmt.Errorf("%w: point (%d,%d) assigned to %s and %s",
				ErrInvalidTable, p.I, p.Q, t.Key(prev), t.Key(group))
		}
		t.inverse[p] = group
		points[group] = kdtree.Point{float64(p.I), float64(p.Q)}
	}
	t.tree = kdtree.New(points, false)
	return t, nil
}

// Order returns the number of bits per symbol.
func (t *Table) Order() int { return t.order }

// Len returns the number of constellation points.
func (t *Table) Len() int { return len(t.forward) }

// Point returns the grid point of a bit-group value.
func (t *Table) Point(group int) Point {
	return t.forward[group]
}

// Group returns the bit-group value assigned to p.
func (t *Table) Group(p Point) (int, bool) {
	g, ok := t.inverse[p]
	return g, ok
}

// Nearest returns the bit-group value whose point is closest to (i, q).
// Exact ties resolve to whichever point the index reaches first.
func (t *Table) Nearest(i, q float64) int {
	if math.IsNaN(i) || math.IsNaN(q) {
		i, q = 0, 0
	}
	c, _ := t.tree.Nearest(kdtree.Point{i, q})
	p := c.(kdtree.Point)
	return t.inverse[Point{I: int(math.Round(p[0])), Q: int(math.Round(p[1]))}]
}

// MeanEnergy returns the average of I²+Q² over all points.
func (t *Table) MeanEnergy() float64 {
	var sum float64
	for _, p := range t.forward {
		sum += float64(p.I*p.I + p.Q*p.Q)
	}
	return sum / float64(len(t.forward))
}

// Key formats a bit-group value as a fixed-width binary string.
func (t *Table) Key(group int) string {
	return FormatKey(group, t.order)
}

// FormatKey formats group as an order-wide string of '0' and '1'.
func FormatKey(group, order int) string {
	return fmt.Sprintf("%0*b", order, group)
}

// ParseKey parses a fixed-width binary bit-group string.
func ParseKey(key string, order int) (int, error) {
	if len(key) != order {
		return 0, fmt.Errorf("%w: key %q is %d bits wide, want %d", ErrInvalidTable, key, len(key), order)
	}
	v, err := strconv.ParseUint(key, 2, order)
	if err != nil {
		return 0, fmt.Errorf("%w: key %q: %v", ErrInvalidTable, key, err)
	}
	return int(v), nil
}

// BitsToGroup packs bits (0 or 1 each, MSB first) into a bit-group value.
func BitsToGroup(bits []byte) int {
	idx := 0
	for _, b := range bits {
		idx = (idx << 1) | int(b&1)
	}
	return idx
}

// GroupToBits unpacks a bit-group value into numBits bits, MSB first.
func GroupToBits(group, numBits int) []byte {
	bits := make([]byte, numBits)
	for i := numBits - 1; i >= 0; i-- {
		bits[i] = byte(group & 1)
		group >>= 1
	}
	return bits
}

func gray(n int) int {
	return n ^ (n >> 1)
}

func checkOrder(order int) error {
	if order < 2 || order > MaxOrder || order%2 != 0 {
		return fmt.Errorf("%w: %d", ErrUnsupportedOrder, order)
	}
	return nil
}
