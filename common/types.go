// Package common defines the primitive value types shared across the
// trie, state and vm packages: fixed-size addresses, hashes, storage
// keys and values, and the Keccak-256 hash function they are built on.
package common

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// Address is a 20 byte account address.
type Address [20]byte

func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Hash is a 32 byte Keccak-256 hash.
type Hash [32]byte

func (h Hash) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero hash.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Key is a 32 byte storage slot key.
type Key [32]byte

func (k Key) String() string {
	return "0x" + hex.EncodeToString(k[:])
}

// Value is a 32 byte storage slot value.
type Value [32]byte

func (v Value) String() string {
	return "0x" + hex.EncodeToString(v[:])
}

// IsZero reports whether v is the zero value, the value implicitly
// held by every storage slot that has never been written.
func (v Value) IsZero() bool {
	return v == Value{}
}

// Keccak256 computes the Keccak-256 digest of the concatenation of
// the given byte slices.
func Keccak256(data ...[]byte) Hash {
	hasher := sha3.NewLegacyKeccak256()
	for _, d := range data {
		hasher.Write(d)
	}
	var res Hash
	hasher.Sum(res[:0])
	return res
}

// BytesToHash left-pads or truncates b to 32 bytes and returns it as a Hash.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	copy(h[32-len(b):], b)
	return h
}

// HexToHash parses a hex string (with or without 0x prefix) into a Hash.
func HexToHash(s string) (Hash, error) {
	s = trimHexPrefix(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}, fmt.Errorf("invalid hex hash %q: %w", s, err)
	}
	return BytesToHash(b), nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// EmptyCodeHash is the Keccak-256 hash of the empty byte string, the
// CodeHash of every account without contract code.
var EmptyCodeHash = Keccak256(nil)

// EmptyRootHash is the Keccak-256 hash of the RLP encoding of the
// empty string, the root hash of an empty Merkle-Patricia trie.
var EmptyRootHash = mustHash("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")

func mustHash(s string) Hash {
	h, err := HexToHash(s)
	if err != nil {
		panic(err)
	}
	return h
}
