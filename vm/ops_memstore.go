package vm

import (
	"github.com/holiman/uint256"

	"github.com/mana-ethereum/mana-sub004/common"
)

func (m *machine) opMLoad() (signal, []byte) {
	offW, ok := m.pop1()
	if !ok {
		return sigException, nil
	}
	off, okU := offW.Uint64(), offW.IsUint64()
	if !okU {
		return sigException, nil
	}
	if !m.chargeMemory(off, 32) {
		return sigException, nil
	}
	if !m.spend(GasVeryLow) {
		return sigException, nil
	}
	var v uint256.Int
	v.SetBytes(m.memory.Get(off, 32))
	if !m.push(&v) {
		return sigException, nil
	}
	m.advance(1)
	return sigContinue, nil
}

func (m *machine) opMStore() (signal, []byte) {
	offW, val, ok := m.pop2()
	if !ok {
		return sigException, nil
	}
	off, okU := offW.Uint64(), offW.IsUint64()
	if !okU {
		return sigException, nil
	}
	if !m.chargeMemory(off, 32) {
		return sigException, nil
	}
	if !m.spend(GasVeryLow) {
		return sigException, nil
	}
	b := val.Bytes32()
	m.memory.Set32(off, b[:])
	m.advance(1)
	return sigContinue, nil
}

func (m *machine) opMStore8() (signal, []byte) {
	offW, val, ok := m.pop2()
	if !ok {
		return sigException, nil
	}
	off, okU := offW.Uint64(), offW.IsUint64()
	if !okU {
		return sigException, nil
	}
	if !m.chargeMemory(off, 1) {
		return sigException, nil
	}
	if !m.spend(GasVeryLow) {
		return sigException, nil
	}
	m.memory.Set(off, 1, []byte{byte(val.Uint64())})
	m.advance(1)
	return sigContinue, nil
}

func (m *machine) opSLoad(env *ExecEnv) (signal, []byte) {
	if !m.spend(env.Rules.SLoadCost) {
		return sigException, nil
	}
	keyW, ok := m.pop1()
	if !ok {
		return sigException, nil
	}
	key := common.Key(keyW.Bytes32())
	val, _, err := env.Repo.GetStorage(env.Address, key)
	if err != nil {
		return sigException, nil
	}
	var v uint256.Int
	v.SetBytes(val[:])
	if !m.push(&v) {
		return sigException, nil
	}
	m.advance(1)
	return sigContinue, nil
}

// opSStore implements SSTORE's gas and refund accounting, which
// diverges sharply depending on whether EIP-1283 is active (§4.8,
// resolving §9's Open Question on the refund model in favor of the
// Eip1283SstoreGasCostChanged capability flag in params.Rules).
func (m *machine) opSStore(env *ExecEnv, sub *SubState) (signal, []byte) {
	keyW, valW, ok := m.pop2()
	if !ok {
		return sigException, nil
	}
	key := common.Key(keyW.Bytes32())
	newVal := common.Value(valW.Bytes32())

	current, _, err := env.Repo.GetStorage(env.Address, key)
	if err != nil {
		return sigException, nil
	}

	var cost uint64
	if env.Rules.Eip1283SstoreGasCostChanged {
		original, err := env.Repo.InitialStorage(env.Address, key)
		if err != nil {
			return sigException, nil
		}
		cost = sstoreCostEip1283(original, current, newVal, sub)
	} else {
		cost = sstoreCostBasic(current, newVal, sub)
	}
	if !m.spend(cost) {
		return sigException, nil
	}
	if err := env.Repo.PutStorage(env.Address, key, newVal); err != nil {
		return sigException, nil
	}
	m.advance(1)
	return sigContinue, nil
}

// sstoreCostBasic is the pre-Constantinople SSTORE gas table: writing
// a zero slot to non-zero costs SstoreSet, every other write costs
// SstoreReset, and clearing a non-zero slot to zero earns a refund.
func sstoreCostBasic(current, newVal common.Value, sub *SubState) uint64 {
	if current.IsZero() && !newVal.IsZero() {
		return SstoreSet
	}
	if !current.IsZero() && newVal.IsZero() {
		sub.AddRefund(SstoreClearRefund)
	}
	return SstoreReset
}

// sstoreCostEip1283 is the dirty/clean-slot-aware SSTORE gas table
// introduced by EIP-1283, used from Constantinople on. No EIP-2200
// stipend check is made: the caller only checks that cost is affordable.
func sstoreCostEip1283(original, current, newVal common.Value, sub *SubState) uint64 {
	if current == newVal {
		return GasSloadCostWarm
	}
	if original == current {
		if original.IsZero() {
			return SstoreSet
		}
		if newVal.IsZero() {
			sub.AddRefund(SstoreClearRefund)
		}
		return SstoreReset
	}
	// Dirty slot: the value has already been changed once this
	// transaction. Reconcile refunds against the original value.
	if !original.IsZero() {
		if current.IsZero() {
			sub.SubRefund(SstoreClearRefund)
		} else if newVal.IsZero() {
			sub.AddRefund(SstoreClearRefund)
		}
	}
	if original == newVal {
		if original.IsZero() {
			sub.AddRefund(SstoreSet - GasSloadCostWarm)
		} else {
			sub.AddRefund(SstoreReset - GasSloadCostWarm)
		}
	}
	return GasSloadCostWarm
}
