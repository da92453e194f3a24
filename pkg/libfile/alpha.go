package libfile

import (
	"strconv"

	"github.com/crystal-mush/empireolc/pkg/proto"
)

// FlagsToAlpha encodes a bitvector one letter per set bit: a-z for bits
// 0-25, A-Z for 26-51 and '!' onward for 52+. An empty set is "0".
func FlagsToAlpha(b proto.Bitvector) string {
	buf := make([]byte, 0, 8)
	for i := 0; i < 64; i++ {
		if !b.Has(proto.Bit(i)) {
			continue
		}
		switch {
		case i < 26:
			buf = append(buf, byte('a'+i))
		case i < 52:
			buf = append(buf, byte('A'+i-26))
		default:
			buf = append(buf, byte('!'+i-52))
		}
	}
	if len(buf) == 0 {
		return "0"
	}
	return string(buf)
}

// AlphaToFlags decodes FlagsToAlpha output. A string made only of digits
// is read as a plain decimal bitvector.
func AlphaToFlags(s string) proto.Bitvector {
	var b proto.Bitvector
	isNumber := true
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' {
			continue
		}
		isNumber = false
		switch {
		case c >= 'a' && c <= 'z':
			b |= proto.Bit(int(c - 'a'))
		case c >= 'A' && c <= 'Z':
			b |= proto.Bit(26 + int(c-'A'))
		case c >= '!' && int(c-'!') < 12:
			b |= proto.Bit(52 + int(c-'!'))
		}
	}
	if isNumber {
		n, _ := strconv.ParseUint(s, 10, 64)
		return proto.Bitvector(n)
	}
	return b
}
