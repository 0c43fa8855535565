// Package vm implements the EVM interpreter: machine state, the gas
// schedule, the opcode dispatch table, the sub-state, the precompiles
// and the contract-creation / message-call subprotocols.
package vm

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/mana-ethereum/mana-sub004/common"
	"github.com/mana-ethereum/mana-sub004/params"
	"github.com/mana-ethereum/mana-sub004/state"
)

// HaltKind distinguishes the three ways a call frame can stop, per
// §4.7's output contract. Unlike Go errors none of these are a
// programming bug: they are routine, expected outcomes of executing
// arbitrary bytecode, so they are modeled as a status rather than an
// error value (see SPEC_FULL.md §2).
type HaltKind int

const (
	HaltNormal HaltKind = iota
	HaltRevert
	HaltException
)

// Result is the outcome of running a call frame to completion.
type Result struct {
	Halt         HaltKind
	RemainingGas uint64
	Output       []byte
}

// BlockContext carries the header fields opcodes like COINBASE and
// BLOCKHASH read; it is supplied by the transaction processor, named
// in §2 as an external collaborator out of core scope.
type BlockContext struct {
	Coinbase   common.Address
	Timestamp  uint64
	Number     uint64
	Difficulty *big.Int
	GasLimit   uint64
	// GetHash returns the hash of one of the 256 most recent blocks,
	// or the zero hash if n is out of that window.
	GetHash func(n uint64) common.Hash
}

// ExecEnv is the execution environment of a single call frame (§3).
type ExecEnv struct {
	Address     common.Address
	Originator  common.Address
	GasPrice    *big.Int
	Data        []byte
	Sender      common.Address
	Value       *big.Int
	MachineCode []byte
	StackDepth  int
	Block       BlockContext
	Repo        *state.Repository
	Rules       params.Rules
	ReadOnly    bool
	// Logger receives Trace/Debug events from the call frame. A nil
	// Logger is treated as common.NopLogger{}.
	Logger common.Logger
}

// machine is the mutable state of one call frame: program counter,
// remaining gas, stack, memory and its active word count.
type machine struct {
	pc             uint64
	gas            uint64
	stack          *Stack
	memory         *Memory
	activeWords    uint64
	lastReturnData []byte
	jumpdests      map[uint64]bool
	code           []byte
}

// signal is what an opcode handler tells the dispatch loop to do next.
type signal int

const (
	sigContinue signal = iota
	sigHaltNormal
	sigHaltRevert
	sigException
)

// Run executes env.MachineCode starting with gas available, mutating
// sub as a side effect. It never suspends: the interpreter is a tight
// loop with no async boundaries (§5).
func Run(gas uint64, env *ExecEnv, sub *SubState) Result {
	logger := env.Logger
	if logger == nil {
		logger = common.NopLogger{}
	}
	if logger.IsTrace() {
		logger.Trace("vm: call frame start", "address", env.Address, "gas", gas, "codeSize", len(env.MachineCode))
	}

	m := &machine{
		gas:       gas,
		stack:     NewStack(),
		memory:    NewMemory(),
		jumpdests: validJumpDests(env.MachineCode),
		code:      env.MachineCode,
	}

	for {
		op := currentOp(m.code, m.pc)
		if op == STOP {
			result := Result{Halt: HaltNormal, RemainingGas: m.gas}
			logHalt(logger, env, result)
			return result
		}

		sig, output := m.step(op, env, sub)
		var result Result
		switch sig {
		case sigContinue:
			continue
		case sigHaltNormal:
			result = Result{Halt: HaltNormal, RemainingGas: m.gas, Output: output}
		case sigHaltRevert:
			result = Result{Halt: HaltRevert, RemainingGas: m.gas, Output: output}
		default:
			result = Result{Halt: HaltException}
		}
		logHalt(logger, env, result)
		return result
	}
}

func logHalt(logger common.Logger, env *ExecEnv, result Result) {
	if !logger.IsDebug() {
		return
	}
	logger.Debug("vm: call frame halted", "address", env.Address, "halt", result.Halt, "remainingGas", result.RemainingGas)
}

// currentOp returns the opcode at pc, or STOP if pc runs past the end
// of the code (§4.7 step 1).
func currentOp(code []byte, pc uint64) OpCode {
	if pc >= uint64(len(code)) {
		return STOP
	}
	return OpCode(code[pc])
}

// validJumpDests returns the set of byte offsets holding a JUMPDEST
// opcode that is not inside a PUSH's immediate data.
func validJumpDests(code []byte) map[uint64]bool {
	dests := make(map[uint64]bool)
	for i := 0; i < len(code); {
		op := OpCode(code[i])
		if op == JUMPDEST {
			dests[uint64(i)] = true
			i++
			continue
		}
		if isPush(op) {
			i += 1 + pushSize(op)
			continue
		}
		i++
	}
	return dests
}

func isStateModifying(op OpCode) bool {
	if isLog(op) {
		return true
	}
	switch op {
	case SSTORE, CREATE, CREATE2, SELFDESTRUCT:
		return true
	default:
		return false
	}
}

// chargeMemory deducts the quadratic expansion cost needed to make
// [offset, offset+size) addressable, growing memory if the charge
// succeeds. Gas must always be deducted before memory is grown (§9
// "Gas is a side channel").
func (m *machine) chargeMemory(offset, size uint64) bool {
	words, ok := wordsFor(offset, size)
	if !ok {
		return false
	}
	if words <= m.activeWords {
		return true
	}
	cost := memoryExpansionCost(m.activeWords, words)
	if !m.spend(cost) {
		return false
	}
	m.memory.Resize(words * 32)
	m.activeWords = words
	return true
}

func (m *machine) spend(cost uint64) bool {
	if m.gas < cost {
		return false
	}
	m.gas -= cost
	return true
}

func u256(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}
