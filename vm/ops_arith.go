package vm

import (
	"github.com/holiman/uint256"

	"github.com/mana-ethereum/mana-sub004/params"
)

// opArith implements the arithmetic, comparison and bitwise opcode
// group of §4.9: pop inputs, push result, all modulo 2^256; signed
// variants interpret operands as two's-complement.
func (m *machine) opArith(op OpCode, rules params.Rules) (signal, []byte) {
	if (op == SHL || op == SHR || op == SAR) && !rules.HasShiftOperations {
		return sigException, nil
	}
	switch op {
	case ADD, SUB, LT, GT, SLT, SGT, EQ, AND, OR, XOR, BYTE, SHL, SHR, SAR:
		if !m.spend(GasVeryLow) {
			return sigException, nil
		}
	case MUL, DIV, SDIV, MOD, SMOD, SIGNEXTEND:
		if !m.spend(GasLow) {
			return sigException, nil
		}
	case ADDMOD, MULMOD:
		if !m.spend(GasMid) {
			return sigException, nil
		}
	case ISZERO, NOT:
		if !m.spend(GasVeryLow) {
			return sigException, nil
		}
	case EXP:
		exponent, err := m.stack.Peek(1)
		if err != nil {
			return sigException, nil
		}
		cost := GasExpBase + rules.ExpByteCost*byteSizeU256(exponent)
		if !m.spend(cost) {
			return sigException, nil
		}
	}

	var result uint256.Int
	switch op {
	case ADD:
		a, b, ok := m.pop2()
		if !ok {
			return sigException, nil
		}
		result.Add(&a, &b)
	case SUB:
		a, b, ok := m.pop2()
		if !ok {
			return sigException, nil
		}
		result.Sub(&a, &b)
	case MUL:
		a, b, ok := m.pop2()
		if !ok {
			return sigException, nil
		}
		result.Mul(&a, &b)
	case DIV:
		a, b, ok := m.pop2()
		if !ok {
			return sigException, nil
		}
		result.Div(&a, &b)
	case SDIV:
		a, b, ok := m.pop2()
		if !ok {
			return sigException, nil
		}
		result.SDiv(&a, &b)
	case MOD:
		a, b, ok := m.pop2()
		if !ok {
			return sigException, nil
		}
		result.Mod(&a, &b)
	case SMOD:
		a, b, ok := m.pop2()
		if !ok {
			return sigException, nil
		}
		result.SMod(&a, &b)
	case ADDMOD:
		a, b, n, ok := m.pop3()
		if !ok {
			return sigException, nil
		}
		result.AddMod(&a, &b, &n)
	case MULMOD:
		a, b, n, ok := m.pop3()
		if !ok {
			return sigException, nil
		}
		result.MulMod(&a, &b, &n)
	case EXP:
		base, exponent, ok := m.pop2()
		if !ok {
			return sigException, nil
		}
		result.Exp(&base, &exponent)
	case SIGNEXTEND:
		back, num, ok := m.pop2()
		if !ok {
			return sigException, nil
		}
		result.ExtendSign(&num, &back)
	case LT:
		a, b, ok := m.pop2()
		if !ok {
			return sigException, nil
		}
		result = boolToU256(a.Lt(&b))
	case GT:
		a, b, ok := m.pop2()
		if !ok {
			return sigException, nil
		}
		result = boolToU256(a.Gt(&b))
	case SLT:
		a, b, ok := m.pop2()
		if !ok {
			return sigException, nil
		}
		result = boolToU256(a.Slt(&b))
	case SGT:
		a, b, ok := m.pop2()
		if !ok {
			return sigException, nil
		}
		result = boolToU256(a.Sgt(&b))
	case EQ:
		a, b, ok := m.pop2()
		if !ok {
			return sigException, nil
		}
		result = boolToU256(a.Eq(&b))
	case ISZERO:
		a, ok := m.pop1()
		if !ok {
			return sigException, nil
		}
		result = boolToU256(a.IsZero())
	case AND:
		a, b, ok := m.pop2()
		if !ok {
			return sigException, nil
		}
		result.And(&a, &b)
	case OR:
		a, b, ok := m.pop2()
		if !ok {
			return sigException, nil
		}
		result.Or(&a, &b)
	case XOR:
		a, b, ok := m.pop2()
		if !ok {
			return sigException, nil
		}
		result.Xor(&a, &b)
	case NOT:
		a, ok := m.pop1()
		if !ok {
			return sigException, nil
		}
		result.Not(&a)
	case BYTE:
		idx, val, ok := m.pop2()
		if !ok {
			return sigException, nil
		}
		result = *val.Byte(&idx)
	case SHL:
		shift, val, ok := m.pop2()
		if !ok {
			return sigException, nil
		}
		if shift.LtUint64(256) {
			result.Lsh(&val, uint(shift.Uint64()))
		}
	case SHR:
		shift, val, ok := m.pop2()
		if !ok {
			return sigException, nil
		}
		if shift.LtUint64(256) {
			result.Rsh(&val, uint(shift.Uint64()))
		}
	case SAR:
		shift, val, ok := m.pop2()
		if !ok {
			return sigException, nil
		}
		if shift.GtUint64(256) {
			if val.Sign() >= 0 {
				result.Clear()
			} else {
				result.SetAllOne()
			}
		} else {
			result.SRsh(&val, uint(shift.Uint64()))
		}
	}

	if !m.push(&result) {
		return sigException, nil
	}
	m.advance(1)
	return sigContinue, nil
}

func boolToU256(b bool) uint256.Int {
	if b {
		return *uint256.NewInt(1)
	}
	return uint256.Int{}
}

// byteSizeU256 returns the number of non-zero-padded bytes needed to
// represent v, used by the EXP gas surcharge.
func byteSizeU256(v *uint256.Int) uint64 {
	b := v.Bytes32()
	return byteSize(b[:])
}
