package trie

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mana-ethereum/mana-sub004/common"
)

func TestHexPrefixRoundTrip(t *testing.T) {
	cases := [][]common.Nibble{
		{},
		{1},
		{1, 2, 3},
		{0xf, 0x0, 0xa, 0xb},
		{0, 0, 0, 0, 0},
	}
	for _, nibbles := range cases {
		for _, terminator := range []bool{true, false} {
			enc := EncodeHexPrefix(nibbles, terminator)
			gotNibbles, gotTerm := DecodeHexPrefix(enc)
			require.Equal(t, terminator, gotTerm)
			require.Equal(t, nibbles, gotNibbles)
		}
	}
}

func TestHexPrefixDistinguishesParity(t *testing.T) {
	odd := EncodeHexPrefix([]common.Nibble{1, 2, 3}, false)
	even := EncodeHexPrefix([]common.Nibble{0, 1, 2, 3}, false)
	require.NotEqual(t, odd, even)
}
