package vm

import (
	"github.com/holiman/uint256"

	"github.com/mana-ethereum/mana-sub004/common"
)

// opPush reads the opcode's immediate data (zero-padded if it runs
// past the end of the code, per §4.7) and pushes it as a 256-bit word.
func (m *machine) opPush(op OpCode) (signal, []byte) {
	if !m.spend(GasVeryLow) {
		return sigException, nil
	}
	n := pushSize(op)
	start := m.pc + 1
	var buf [32]byte
	for i := 0; i < n; i++ {
		idx := start + uint64(i)
		if idx < uint64(len(m.code)) {
			buf[32-n+i] = m.code[idx]
		}
	}
	var v uint256.Int
	v.SetBytes(buf[:])
	if !m.push(&v) {
		return sigException, nil
	}
	m.advance(uint64(1 + n))
	return sigContinue, nil
}

func (m *machine) opDup(op OpCode) (signal, []byte) {
	if !m.spend(GasVeryLow) {
		return sigException, nil
	}
	if err := m.stack.Dup(dupN(op)); err != nil {
		return sigException, nil
	}
	m.advance(1)
	return sigContinue, nil
}

func (m *machine) opSwap(op OpCode) (signal, []byte) {
	if !m.spend(GasVeryLow) {
		return sigException, nil
	}
	if err := m.stack.Swap(swapN(op)); err != nil {
		return sigException, nil
	}
	m.advance(1)
	return sigContinue, nil
}

// opSha3 implements SHA3 (Keccak-256 of a memory range), §4.9.
func (m *machine) opSha3() (signal, []byte) {
	offsetW, sizeW, ok := m.pop2()
	if !ok {
		return sigException, nil
	}
	offset, size, ok := u256Offsets(&offsetW, &sizeW)
	if !ok {
		return sigException, nil
	}
	if !m.chargeMemory(offset, size) {
		return sigException, nil
	}
	if !m.spend(GasSha3Base + GasSha3Word*ceilWords(size)) {
		return sigException, nil
	}
	data := m.memory.Get(offset, size)
	h := common.Keccak256(data)
	var v uint256.Int
	v.SetBytes(h[:])
	if !m.push(&v) {
		return sigException, nil
	}
	m.advance(1)
	return sigContinue, nil
}

// u256Offsets converts a (offset, size) pair of stack words to uint64,
// reporting failure if either doesn't fit a uint64 or if offset+size
// itself overflows one — a crafted offset near 2^64 and a small size
// must not be allowed through just because each word fits on its own.
func u256Offsets(offsetW, sizeW *uint256.Int) (uint64, uint64, bool) {
	if !offsetW.IsUint64() || !sizeW.IsUint64() {
		return 0, 0, false
	}
	offset, size := offsetW.Uint64(), sizeW.Uint64()
	if _, ok := addRange(offset, size); !ok {
		return 0, 0, false
	}
	return offset, size, true
}
