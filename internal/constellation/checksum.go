package constellation

import (
	"fmt"
	"hash/crc32"
	"strings"
)

// Checksum computes the CRC-32 (IEEE) of the table's canonical forward
// listing: one "<key>:<i>,<q>\n" line per bit group in ascending order.
func Checksum(t *Table) uint32 {
	return crc32.ChecksumIEEE(canonical(t))
}

// FormatChecksum renders a checksum as eight lowercase hex digits.
func FormatChecksum(sum uint32) string {
	return fmt.Sprintf("%08x", sum)
}

// VerifyChecksum reports whether want (as written by FormatChecksum)
// matches the table contents.
func VerifyChecksum(t *Table, want string) bool {
	return strings.EqualFold(FormatChecksum(Checksum(t)), strings.TrimSpace(want))
}

func canonical(t *Table) []byte {
	var b strings.Builder
	for group, p := range t.forward {
		fmt.Fprintf(&b, "%s:%d,%d\n", t.Key(group), p.I, p.Q)
	}
	return []byte(b.String())
}
