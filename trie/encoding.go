package trie

import "github.com/mana-ethereum/mana-sub004/common"

// flagTerminator and flagOddLength are the two bits of the hex-prefix
// flag nibble (see EncodeHexPrefix).
const (
	flagTerminator = 0x20
	flagOddLength  = 0x10
)

// EncodeHexPrefix encodes a nibble path plus a terminator flag into
// bytes. The first byte carries a 2-bit flag: bit 0x20 is set when
// terminator is true, bit 0x10 is set when the nibble count is odd.
// When the count is odd, the first nibble is folded into the low
// half of the flag byte; otherwise the low half of the flag byte is
// zero and nibbles start at the next byte. This is the exact inverse
// of DecodeHexPrefix.
func EncodeHexPrefix(nibbles []common.Nibble, terminator bool) []byte {
	flag := byte(0)
	if terminator {
		flag |= flagTerminator
	}
	odd := len(nibbles)%2 == 1
	rest := nibbles
	if odd {
		flag |= flagOddLength | byte(nibbles[0])
		rest = nibbles[1:]
	}
	buf := make([]byte, 1+len(rest)/2)
	buf[0] = flag
	for i := 0; i < len(rest); i += 2 {
		buf[1+i/2] = byte(rest[i]<<4) | byte(rest[i+1])
	}
	return buf
}

// DecodeHexPrefix decodes bytes produced by EncodeHexPrefix back into
// a nibble path and its terminator flag.
func DecodeHexPrefix(data []byte) (nibbles []common.Nibble, terminator bool) {
	if len(data) == 0 {
		return nil, false
	}
	flag := data[0]
	terminator = flag&flagTerminator != 0
	odd := flag&flagOddLength != 0

	tail := common.BytesToNibbles(data[1:])
	if odd {
		nibbles = make([]common.Nibble, 0, len(tail)+1)
		nibbles = append(nibbles, common.Nibble(flag&0x0F))
		nibbles = append(nibbles, tail...)
		return nibbles, terminator
	}
	return tail, terminator
}
