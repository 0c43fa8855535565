// Package rlp implements Recursive-Length Prefix encoding, the byte
// serialization format used for trie nodes, accounts and storage
// slots.
//
// The definition of the RLP encoding can be found here:
// https://ethereum.org/en/developers/docs/data-structures-and-encoding/rlp
//
// Based on Appendix B of https://ethereum.github.io/yellowpaper/paper.pdf
package rlp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/mana-ethereum/mana-sub004/common"
)

// Item is implemented by everything this package can serialize.
type Item interface {
	writeTo(*bytes.Buffer)
	payloadSize() int
}

// Encode serializes item into a freshly allocated byte slice.
func Encode(item Item) []byte {
	var buf bytes.Buffer
	_ = EncodeTo(&buf, item)
	return buf.Bytes()
}

// EncodeInto appends item's encoding to dst and returns the result.
func EncodeInto(dst []byte, item Item) []byte {
	buf := bytes.NewBuffer(dst)
	_ = EncodeTo(buf, item)
	return buf.Bytes()
}

// EncodeTo streams item's RLP encoding into w.
func EncodeTo(w io.Writer, item Item) error {
	var buf bytes.Buffer
	item.writeTo(&buf)
	_, err := w.Write(buf.Bytes())
	return err
}

// Kind classifies the head byte of an RLP value, mirroring how a
// streaming decoder inspects a value before consuming its payload.
type Kind int

const (
	kindString Kind = iota
	kindList
)

// ErrCanonSize rejects a non-canonical single-byte string encoded
// using the two-byte short-string form instead of the bare byte.
var ErrCanonSize = errors.New("rlp: non-canonical size for single byte string")

// cursor walks an RLP byte stream left to right, handing back one
// decoded item (and how many bytes it consumed) per call.
type cursor struct {
	data []byte
	pos  int
}

// header reads the tag at the cursor's position without consuming it,
// reporting the value's Kind, its payload size and the tag's own
// length in bytes.
func (c *cursor) header() (kind Kind, size, tagLen uint64, err error) {
	if c.pos >= len(c.data) {
		return 0, 0, 0, io.EOF
	}
	b := c.data[c.pos]
	switch {
	case b < 0x80:
		return kindString, 1, 0, nil
	case b < 0xb8:
		return kindString, uint64(b - 0x80), 1, nil
	case b < 0xc0:
		lenOfLen := int(b - 0xb7)
		n, err := c.readBigEndian(c.pos+1, lenOfLen)
		if err != nil {
			return 0, 0, 0, err
		}
		return kindString, n, uint64(1 + lenOfLen), nil
	case b < 0xf8:
		return kindList, uint64(b - 0xc0), 1, nil
	default:
		lenOfLen := int(b - 0xf7)
		n, err := c.readBigEndian(c.pos+1, lenOfLen)
		if err != nil {
			return 0, 0, 0, err
		}
		return kindList, n, uint64(1 + lenOfLen), nil
	}
}

func (c *cursor) readBigEndian(offset, n int) (uint64, error) {
	if offset+n > len(c.data) {
		return 0, fmt.Errorf("rlp: truncated length field")
	}
	var v uint64
	for i := 0; i < n; i++ {
		v = v<<8 | uint64(c.data[offset+i])
	}
	return v, nil
}

// next consumes and returns one full item (tag plus payload) starting
// at the cursor's current position.
func (c *cursor) next() (Item, error) {
	kind, size, tagLen, err := c.header()
	if err != nil {
		return nil, err
	}
	start := c.pos + int(tagLen)
	end := start + int(size)
	if end > len(c.data) {
		return nil, fmt.Errorf("rlp: expected %d bytes, got %d", end-c.pos, len(c.data)-c.pos)
	}
	if kind == kindString && tagLen == 1 && size == 1 && c.data[start] < 0x80 {
		return nil, ErrCanonSize
	}
	switch kind {
	case kindString:
		c.pos = end
		return String{Str: c.data[start:end]}, nil
	default:
		items, err := decodeSequence(c.data[start:end])
		if err != nil {
			return nil, err
		}
		c.pos = end
		return List{Items: items}, nil
	}
}

// Decode parses a single RLP item from data, requiring the whole
// slice to be consumed by exactly one value.
func Decode(data []byte) (Item, error) {
	c := &cursor{data: data}
	item, err := c.next()
	if err != nil {
		return nil, err
	}
	if c.pos != len(data) {
		return nil, fmt.Errorf("rlp: %d trailing bytes after decoded value", len(data)-c.pos)
	}
	return item, nil
}

// decodeSequence decodes zero or more back-to-back items out of a
// list's payload bytes.
func decodeSequence(data []byte) ([]Item, error) {
	c := &cursor{data: data}
	items := make([]Item, 0, 17)
	for c.pos < len(data) {
		item, err := c.next()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// ----------------------------------------------------------------------------
//                           Core Item Types
// ----------------------------------------------------------------------------

// String is the atomic ground type of an RLP input structure, a
// (potentially empty) string of bytes.
type String struct {
	Str []byte
}

func (s String) writeTo(buf *bytes.Buffer) {
	writeStringHeader(buf, s.Str)
	buf.Write(s.Str)
}

func (s String) payloadSize() int {
	return stringEncodedLength(s.Str)
}

// Hash holds a pointer to a common.Hash. Its usage is similar to
// String, but avoids the byte-slice conversion of a 32-byte array on
// every call.
type Hash struct {
	Hash *common.Hash
}

func (h Hash) writeTo(buf *bytes.Buffer) {
	writeLengthHeader(buf, 32, 0x80)
	buf.Write(h.Hash[:])
}

func (h Hash) payloadSize() int {
	return 33
}

// List composes a list of items into a new item to be serialized.
type List struct {
	Items []Item
}

func (l List) writeTo(buf *bytes.Buffer) {
	var body bytes.Buffer
	for _, item := range l.Items {
		item.writeTo(&body)
	}
	writeLengthHeader(buf, body.Len(), 0xc0)
	buf.Write(body.Bytes())
}

func (l List) payloadSize() int {
	sum := 0
	for _, item := range l.Items {
		sum += item.payloadSize()
	}
	return lengthHeaderSize(sum) + sum
}

// Encoded allows embedding an already RLP-encoded fragment into a new
// RLP encoding, without re-decoding it first.
type Encoded struct {
	Data []byte
}

func (e Encoded) writeTo(buf *bytes.Buffer) {
	buf.Write(e.Data)
}

func (e Encoded) payloadSize() int {
	return len(e.Data)
}

// ----------------------------------------------------------------------------
//                           Utility Item Types
// ----------------------------------------------------------------------------

// Uint64 encodes unsigned integers into RLP by interpreting them as a
// string of bytes: big-endian encoding with leading zero-bytes
// stripped.
type Uint64 struct {
	Value uint64
}

func (u Uint64) asBytes() []byte {
	if u.Value == 0 {
		return nil
	}
	var buffer [8]byte
	binary.BigEndian.PutUint64(buffer[:], u.Value)
	b := buffer[:]
	for len(b) > 0 && b[0] == 0 {
		b = b[1:]
	}
	return b
}

func (u Uint64) writeTo(buf *bytes.Buffer) {
	String{Str: u.asBytes()}.writeTo(buf)
}

func (u Uint64) payloadSize() int {
	return stringEncodedLength(u.asBytes())
}

// BigInt encodes big.Int values into RLP analogous to Uint64.
type BigInt struct {
	Value *big.Int
}

func (i BigInt) asBytes() []byte {
	if i.Value.Sign() == 0 {
		return nil
	}
	return i.Value.Bytes()
}

func (i BigInt) writeTo(buf *bytes.Buffer) {
	String{Str: i.asBytes()}.writeTo(buf)
}

func (i BigInt) payloadSize() int {
	return stringEncodedLength(i.asBytes())
}

// ----------------------------------------------------------------------------
//                           Header encoding helpers
// ----------------------------------------------------------------------------

func writeStringHeader(buf *bytes.Buffer, data []byte) {
	if len(data) == 1 && data[0] < 0x80 {
		return
	}
	writeLengthHeader(buf, len(data), 0x80)
}

func stringEncodedLength(data []byte) int {
	if len(data) == 1 && data[0] < 0x80 {
		return 1
	}
	return lengthHeaderSize(len(data)) + len(data)
}

// writeLengthHeader appends the RLP tag for a string or list payload
// of the given length, short-form if it fits in 55 bytes and
// long-form (length-of-length prefixed) otherwise.
func writeLengthHeader(buf *bytes.Buffer, length int, offset byte) {
	if length < 56 {
		buf.WriteByte(offset + byte(length))
		return
	}
	n := minimalBigEndianLen(uint64(length))
	buf.WriteByte(offset + 55 + n)
	for i := byte(0); i < n; i++ {
		buf.WriteByte(byte(length >> (8 * (n - i - 1))))
	}
}

func lengthHeaderSize(length int) int {
	if length < 56 {
		return 1
	}
	return int(minimalBigEndianLen(uint64(length))) + 1
}

// minimalBigEndianLen is the number of bytes needed to represent
// value in big-endian form with no leading zero byte.
func minimalBigEndianLen(value uint64) byte {
	var n byte
	for value > 0 {
		n++
		value >>= 8
	}
	return n
}
