package proto

import (
	"fmt"
	"strings"
)

// Bitvector is a set of up to 64 flags.
type Bitvector uint64

// Bit returns the bitvector with only bit n set.
func Bit(n int) Bitvector { return Bitvector(1) << uint(n) }

func (b Bitvector) Has(f Bitvector) bool         { return b&f != 0 }
func (b Bitvector) Set(f Bitvector) Bitvector    { return b | f }
func (b Bitvector) Remove(f Bitvector) Bitvector { return b &^ f }
func (b Bitvector) Toggle(f Bitvector) Bitvector { return b ^ f }

// Names renders the set bits using names[i] for bit i, space-separated,
// or "none" when empty. Bits beyond names are shown as UNKNOWN.
func (b Bitvector) Names(names []string) string {
	var parts []string
	for i := 0; i < 64; i++ {
		if b&Bit(i) == 0 {
			continue
		}
		if i < len(names) {
			parts = append(parts, names[i])
		} else {
			parts = append(parts, "UNKNOWN")
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}

// FlagIndex finds a flag name by exact match, then by abbreviation.
func FlagIndex(names []string, arg string) int {
	for i, n := range names {
		if FoldEqual(n, arg) {
			return i
		}
	}
	for i, n := range names {
		if IsAbbrev(arg, n) {
			return i
		}
	}
	return -1
}

// ParseFlagNames applies a list of flag words to b. A word may be
// prefixed with + (set) or - (remove); bare words toggle.
func ParseFlagNames(b Bitvector, names []string, args string) (Bitvector, error) {
	words := strings.Fields(args)
	if len(words) == 0 {
		return b, fmt.Errorf("no flags given")
	}
	for _, w := range words {
		op := byte(0)
		if w[0] == '+' || w[0] == '-' {
			op, w = w[0], w[1:]
		}
		i := FlagIndex(names, w)
		if i < 0 {
			return b, fmt.Errorf("unknown flag '%s'", w)
		}
		switch op {
		case '+':
			b = b.Set(Bit(i))
		case '-':
			b = b.Remove(Bit(i))
		default:
			b = b.Toggle(Bit(i))
		}
	}
	return b, nil
}
