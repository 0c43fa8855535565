package vm

import (
	"github.com/mana-ethereum/mana-sub004/common"
	"github.com/mana-ethereum/mana-sub004/params"
)

func (m *machine) opJump() (signal, []byte) {
	if !m.spend(GasMid) {
		return sigException, nil
	}
	destW, ok := m.pop1()
	if !ok {
		return sigException, nil
	}
	dest, okU := destW.Uint64(), destW.IsUint64()
	if !okU || !m.jumpdests[dest] {
		return sigException, nil
	}
	m.pc = dest
	return sigContinue, nil
}

func (m *machine) opJumpi() (signal, []byte) {
	if !m.spend(GasHigh) {
		return sigException, nil
	}
	destW, condW, ok := m.pop2()
	if !ok {
		return sigException, nil
	}
	if condW.IsZero() {
		m.advance(1)
		return sigContinue, nil
	}
	dest, okU := destW.Uint64(), destW.IsUint64()
	if !okU || !m.jumpdests[dest] {
		return sigException, nil
	}
	m.pc = dest
	return sigContinue, nil
}

// opReturn implements RETURN: it halts normally, returning a slice of
// memory as the call frame's output.
func (m *machine) opReturn() (signal, []byte) {
	offW, sizeW, ok := m.pop2()
	if !ok {
		return sigException, nil
	}
	off, size, ok := u256Offsets(&offW, &sizeW)
	if !ok {
		return sigException, nil
	}
	if !m.chargeMemory(off, size) {
		return sigException, nil
	}
	return sigHaltNormal, m.memory.Get(off, size)
}

// opRevert implements REVERT: like RETURN but undoes all state
// changes made by this frame and its sub-calls (§4.7, §9).
func (m *machine) opRevert(rules params.Rules) (signal, []byte) {
	if !rules.HasRevert {
		return sigException, nil
	}
	offW, sizeW, ok := m.pop2()
	if !ok {
		return sigException, nil
	}
	off, size, ok := u256Offsets(&offW, &sizeW)
	if !ok {
		return sigException, nil
	}
	if !m.chargeMemory(off, size) {
		return sigException, nil
	}
	return sigHaltRevert, m.memory.Get(off, size)
}

// opLog implements LOG0-LOG4: it copies a memory range into the log's
// data field and consumes `n` topics off the stack, where n is the
// opcode's position in the LOG group.
func (m *machine) opLog(op OpCode, env *ExecEnv, sub *SubState) (signal, []byte) {
	if env.ReadOnly {
		return sigException, nil
	}
	offW, sizeW, ok := m.pop2()
	if !ok {
		return sigException, nil
	}
	off, size, ok := u256Offsets(&offW, &sizeW)
	if !ok {
		return sigException, nil
	}
	n := logTopics(op)
	topics := make([]common.Hash, n)
	for i := 0; i < n; i++ {
		tW, ok := m.pop1()
		if !ok {
			return sigException, nil
		}
		topics[i] = common.Hash(tW.Bytes32())
	}
	if !m.chargeMemory(off, size) {
		return sigException, nil
	}
	cost := GasLogBase + uint64(n)*GasLogTopic + size*GasLogByte
	if !m.spend(cost) {
		return sigException, nil
	}
	sub.AddLog(Log{
		Address: env.Address,
		Topics:  topics,
		Data:    m.memory.Get(off, size),
	})
	m.advance(1)
	return sigContinue, nil
}
