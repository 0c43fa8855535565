package vm

import "math"

// Memory is the EVM's linear, byte-addressed, word-expanding scratch
// space. It grows only via Resize, whose caller must deduct the
// quadratic expansion cost (§4.8) before the region is made available.
type Memory struct {
	store []byte
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Len() int {
	return len(m.store)
}

// Words returns the number of active 32-byte words.
func (m *Memory) Words() uint64 {
	return uint64((len(m.store) + 31) / 32)
}

// Resize grows the backing buffer to hold at least size bytes,
// zero-filling the new region. Shrinking is a no-op: memory never
// contracts within a call frame.
func (m *Memory) Resize(size uint64) {
	if uint64(len(m.store)) >= size {
		return
	}
	grown := make([]byte, size)
	copy(grown, m.store)
	m.store = grown
}

// addRange safely computes offset+size, failing rather than wrapping
// when the sum would overflow uint64. Every byte range this package
// addresses or charges gas for must go through this check first: a
// wrapped sum near zero would otherwise slip past the gas accounting
// in chargeMemory and then panic in Resize/Get/Set's own slicing.
func addRange(offset, size uint64) (uint64, bool) {
	if size > math.MaxUint64-offset {
		return 0, false
	}
	return offset + size, true
}

func (m *Memory) Set(offset, size uint64, data []byte) {
	if size == 0 {
		return
	}
	end, ok := addRange(offset, size)
	if !ok {
		return
	}
	m.Resize(end)
	copy(m.store[offset:end], data)
}

func (m *Memory) Set32(offset uint64, val []byte) {
	end, ok := addRange(offset, 32)
	if !ok {
		return
	}
	m.Resize(end)
	var buf [32]byte
	copy(buf[32-len(val):], val)
	copy(m.store[offset:end], buf[:])
}

func (m *Memory) Get(offset, size uint64) []byte {
	if size == 0 {
		return nil
	}
	end, ok := addRange(offset, size)
	if !ok {
		return nil
	}
	m.Resize(end)
	res := make([]byte, size)
	copy(res, m.store[offset:end])
	return res
}

func (m *Memory) Data() []byte {
	return m.store
}

// wordsFor computes the number of 32-byte words needed to cover the
// byte range [offset, offset+size), failing if that range overflows
// uint64 instead of silently wrapping.
func wordsFor(offset, size uint64) (uint64, bool) {
	if size == 0 {
		return 0, true
	}
	end, ok := addRange(offset, size)
	if !ok {
		return 0, false
	}
	words, ok := addRange(end, 31)
	if !ok {
		return 0, false
	}
	return words / 32, true
}
