package vm

import "github.com/mana-ethereum/mana-sub004/common"

// Log is a single LOGn entry appended to the sub-state.
type Log struct {
	Address common.Address
	Topics  []common.Hash
	Data    []byte
}

// SubState accumulates the per-transaction side effects that survive
// only if their enclosing frame does not revert: logs, the gas
// refund counter, the self-destruct set, and the set of accounts
// touched during execution (consulted by EIP-161 state clearing).
type SubState struct {
	Logs              []Log
	Refund            uint64
	SelfDestructSet   map[common.Address]bool
	TouchedAccounts   map[common.Address]bool
	CreatedContracts  map[common.Address]bool
}

func NewSubState() *SubState {
	return &SubState{
		SelfDestructSet:  make(map[common.Address]bool),
		TouchedAccounts:  make(map[common.Address]bool),
		CreatedContracts: make(map[common.Address]bool),
	}
}

// Snapshot captures a restorable copy of the sub-state, used to
// implement revert semantics: a reverted frame restores the
// snapshot taken just before it ran (§9 "Revert semantics require
// snapshotting").
func (s *SubState) Snapshot() *SubState {
	cp := &SubState{
		Logs:             append([]Log(nil), s.Logs...),
		Refund:           s.Refund,
		SelfDestructSet:  make(map[common.Address]bool, len(s.SelfDestructSet)),
		TouchedAccounts:  make(map[common.Address]bool, len(s.TouchedAccounts)),
		CreatedContracts: make(map[common.Address]bool, len(s.CreatedContracts)),
	}
	for k, v := range s.SelfDestructSet {
		cp.SelfDestructSet[k] = v
	}
	for k, v := range s.TouchedAccounts {
		cp.TouchedAccounts[k] = v
	}
	for k, v := range s.CreatedContracts {
		cp.CreatedContracts[k] = v
	}
	return cp
}

// Restore overwrites s's contents with snap's, used on revert/exception.
func (s *SubState) Restore(snap *SubState) {
	s.Logs = snap.Logs
	s.Refund = snap.Refund
	s.SelfDestructSet = snap.SelfDestructSet
	s.TouchedAccounts = snap.TouchedAccounts
	s.CreatedContracts = snap.CreatedContracts
}

func (s *SubState) AddLog(l Log) {
	s.Logs = append(s.Logs, l)
}

func (s *SubState) AddRefund(v uint64) {
	s.Refund += v
}

// SubRefund decreases the refund counter, clamped at zero (used by
// the EIP-1283 table when a slot's net effect cancels a prior
// refund-earning write).
func (s *SubState) SubRefund(v uint64) {
	if v > s.Refund {
		s.Refund = 0
		return
	}
	s.Refund -= v
}

func (s *SubState) Touch(addr common.Address) {
	s.TouchedAccounts[addr] = true
}

func (s *SubState) MarkSelfDestruct(addr common.Address) {
	s.SelfDestructSet[addr] = true
}

func (s *SubState) MarkCreated(addr common.Address) {
	s.CreatedContracts[addr] = true
}
