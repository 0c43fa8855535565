package vm

import (
	"github.com/holiman/uint256"

	"github.com/mana-ethereum/mana-sub004/common"
	"github.com/mana-ethereum/mana-sub004/params"
)

// opNullary implements the opcode group that pushes a single
// environment or block-info value with no stack inputs (§4.9).
func (m *machine) opNullary(op OpCode, env *ExecEnv) (signal, []byte) {
	cost := GasBase
	if op == BALANCE {
		cost = env.Rules.BalanceCost
	}
	if !m.spend(cost) {
		return sigException, nil
	}

	var v uint256.Int
	switch op {
	case ADDRESS:
		v.SetBytes(env.Address[:])
	case ORIGIN:
		v.SetBytes(env.Originator[:])
	case CALLER:
		v.SetBytes(env.Sender[:])
	case CALLVALUE:
		if env.Value != nil {
			v.SetFromBig(env.Value)
		}
	case CALLDATASIZE:
		v.SetUint64(uint64(len(env.Data)))
	case CODESIZE:
		v.SetUint64(uint64(len(env.MachineCode)))
	case GASPRICE:
		if env.GasPrice != nil {
			v.SetFromBig(env.GasPrice)
		}
	case RETURNDATASIZE:
		v.SetUint64(uint64(len(m.lastReturnData)))
	case COINBASE:
		v.SetBytes(env.Block.Coinbase[:])
	case TIMESTAMP:
		v.SetUint64(env.Block.Timestamp)
	case NUMBER:
		v.SetUint64(env.Block.Number)
	case DIFFICULTY:
		if env.Block.Difficulty != nil {
			v.SetFromBig(env.Block.Difficulty)
		}
	case GASLIMIT:
		v.SetUint64(env.Block.GasLimit)
	case PC:
		v.SetUint64(m.pc)
	case MSIZE:
		v.SetUint64(m.activeWords * 32)
	case GAS:
		v.SetUint64(m.gas)
	}
	if !m.push(&v) {
		return sigException, nil
	}
	m.advance(1)
	return sigContinue, nil
}

// opAddressQuery implements BALANCE, EXTCODESIZE and EXTCODEHASH,
// which read state belonging to an address taken off the stack.
func (m *machine) opAddressQuery(op OpCode, env *ExecEnv) (signal, []byte) {
	if op == EXTCODEHASH && !env.Rules.HasExtCodeHash {
		return sigException, nil
	}
	addrW, ok := m.pop1()
	if !ok {
		return sigException, nil
	}
	addr := u256ToAddress(&addrW)

	var cost uint64
	switch op {
	case BALANCE:
		cost = env.Rules.BalanceCost
	case EXTCODESIZE:
		cost = env.Rules.ExtCodeSizeCost
	case EXTCODEHASH:
		cost = env.Rules.ExtCodeSizeCost
	}
	if !m.spend(cost) {
		return sigException, nil
	}

	var v uint256.Int
	switch op {
	case BALANCE:
		acc, err := env.Repo.GetAccount(addr)
		if err != nil {
			return sigException, nil
		}
		if acc != nil && acc.Balance != nil {
			v.SetFromBig(acc.Balance)
		}
	case EXTCODESIZE:
		code, err := loadCode(env, addr)
		if err != nil {
			return sigException, nil
		}
		v.SetUint64(uint64(len(code)))
	case EXTCODEHASH:
		acc, err := env.Repo.GetAccount(addr)
		if err != nil {
			return sigException, nil
		}
		if acc != nil {
			v.SetBytes(acc.CodeHash[:])
		}
	}
	if !m.push(&v) {
		return sigException, nil
	}
	m.advance(1)
	return sigContinue, nil
}

func (m *machine) opCallDataLoad(env *ExecEnv) (signal, []byte) {
	if !m.spend(GasVeryLow) {
		return sigException, nil
	}
	offW, ok := m.pop1()
	if !ok {
		return sigException, nil
	}
	var buf [32]byte
	if offW.IsUint64() {
		off := offW.Uint64()
		for i := 0; i < 32; i++ {
			idx := off + uint64(i)
			if idx < uint64(len(env.Data)) {
				buf[i] = env.Data[idx]
			}
		}
	}
	var v uint256.Int
	v.SetBytes(buf[:])
	if !m.push(&v) {
		return sigException, nil
	}
	m.advance(1)
	return sigContinue, nil
}

// opDataCopy implements CALLDATACOPY, CODECOPY and RETURNDATACOPY,
// which all copy a range of src into memory with the same cost shape:
// a flat word surcharge plus memory expansion.
func (m *machine) opDataCopy(src []byte, rules params.Rules) (signal, []byte) {
	destW, offW, sizeW, ok := m.pop3()
	if !ok {
		return sigException, nil
	}
	dest, size, ok := u256Offsets(&destW, &sizeW)
	if !ok {
		return sigException, nil
	}
	// off only indexes into src for the read side; readPadded bounds
	// it against src's actual length and zero-fills the rest, so an
	// out-of-range or truncated value here cannot overrun anything.
	off := offW.Uint64()
	if !m.chargeMemory(dest, size) {
		return sigException, nil
	}
	if !m.spend(GasVeryLow + GasCopyWord*ceilWords(size)) {
		return sigException, nil
	}
	data := readPadded(src, off, size)
	m.memory.Set(dest, size, data)
	m.advance(1)
	return sigContinue, nil
}

// opExtCodeCopy implements EXTCODECOPY: the address to read from is
// an extra stack argument ahead of the (destOffset, offset, size)
// triple shared with the other *COPY opcodes.
func (m *machine) opExtCodeCopy(env *ExecEnv) (signal, []byte) {
	addrW, ok := m.pop1()
	if !ok {
		return sigException, nil
	}
	destW, offW, sizeW, ok := m.pop3()
	if !ok {
		return sigException, nil
	}
	dest, size, ok := u256Offsets(&destW, &sizeW)
	if !ok {
		return sigException, nil
	}
	// off only indexes into code for the read side; readPadded bounds
	// it against code's actual length and zero-fills the rest.
	off := offW.Uint64()
	if !m.chargeMemory(dest, size) {
		return sigException, nil
	}
	if !m.spend(env.Rules.ExtCodeCopyCost + GasCopyWord*ceilWords(size)) {
		return sigException, nil
	}
	code, err := loadCode(env, u256ToAddress(&addrW))
	if err != nil {
		return sigException, nil
	}
	data := readPadded(code, off, size)
	m.memory.Set(dest, size, data)
	m.advance(1)
	return sigContinue, nil
}

// opBlockHash implements BLOCKHASH, deferring to the block context's
// GetHash callback, which itself enforces the 256-block lookback
// window (§3).
func (m *machine) opBlockHash(env *ExecEnv) (signal, []byte) {
	if !m.spend(GasBase) {
		return sigException, nil
	}
	numW, ok := m.pop1()
	if !ok {
		return sigException, nil
	}
	var hash common.Hash
	if numW.IsUint64() && env.Block.GetHash != nil {
		hash = env.Block.GetHash(numW.Uint64())
	}
	var v uint256.Int
	v.SetBytes(hash[:])
	if !m.push(&v) {
		return sigException, nil
	}
	m.advance(1)
	return sigContinue, nil
}

func loadCode(env *ExecEnv, addr common.Address) ([]byte, error) {
	if addr == env.Address {
		return env.MachineCode, nil
	}
	return env.Repo.GetCode(addr)
}

func u256ToAddress(v *uint256.Int) common.Address {
	b := v.Bytes20()
	return common.Address(b)
}

// readPadded returns src[off:off+size], zero-padding past src's end.
func readPadded(src []byte, off, size uint64) []byte {
	out := make([]byte, size)
	if off >= uint64(len(src)) {
		return out
	}
	n := uint64(len(src)) - off
	if n > size {
		n = size
	}
	copy(out, src[off:off+n])
	return out
}
