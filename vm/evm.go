package vm

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/mana-ethereum/mana-sub004/common"
	"github.com/mana-ethereum/mana-sub004/params"
	"github.com/mana-ethereum/mana-sub004/rlp"
	"github.com/mana-ethereum/mana-sub004/state"
)

// callGas computes the gas made available to a child frame: the
// amount the caller explicitly requested, capped under the EIP-150
// "63/64ths" rule at all-but-one-64th of the gas left in the parent
// after its own opcode cost, and before EIP-150 at all of that gas.
func callGas(rules params.Rules, available, requested uint64) uint64 {
	if !rules.FailNestedOperationLackOfGas {
		if requested > available {
			return available
		}
		return requested
	}
	cap64 := available - available/64
	if requested > cap64 {
		return cap64
	}
	return requested
}

// createAddress computes the CREATE contract address: kec(rlp([sender,
// nonce]))[12:32] (§4.10, §6).
func createAddress(sender common.Address, nonce uint64) common.Address {
	enc := rlp.Encode(rlp.List{Items: []rlp.Item{
		rlp.String{Str: sender[:]},
		rlp.Uint64{Value: nonce},
	}})
	h := common.Keccak256(enc)
	var addr common.Address
	copy(addr[:], h[12:])
	return addr
}

// createAddress2 computes the CREATE2 contract address:
// kec(0xff || sender || salt || kec(init_code))[12:32].
func createAddress2(sender common.Address, salt common.Hash, initCode []byte) common.Address {
	codeHash := common.Keccak256(initCode)
	h := common.Keccak256([]byte{0xff}, sender[:], salt[:], codeHash[:])
	var addr common.Address
	copy(addr[:], h[12:])
	return addr
}

// CreateContract implements §4.10: it validates the creation, runs
// init_code, and either installs the resulting code or unwinds all
// state changes the attempt made.
func CreateContract(gas uint64, env *ExecEnv, sub *SubState, endowment *big.Int, initCode []byte, newAddr common.Address) Result {
	if env.StackDepth >= 1024 {
		return Result{Halt: HaltException}
	}
	senderAcc, err := env.Repo.GetAccount(env.Sender)
	if err != nil || senderAcc == nil || senderAcc.Balance.Cmp(endowment) < 0 {
		return Result{Halt: HaltException}
	}

	existing, err := env.Repo.GetAccount(newAddr)
	if err != nil {
		return Result{Halt: HaltException}
	}
	if existing != nil && (existing.Nonce > 0 || existing.CodeHash != common.EmptyCodeHash) {
		return Result{Halt: HaltException}
	}

	snap := sub.Snapshot()

	// Homestead+ increments the sender's nonce on CREATE; HasDelegateCall
	// is Homestead's capability flag (§4.10 step 4).
	if env.Rules.HasDelegateCall {
		if err := env.Repo.IncrementNonce(env.Sender); err != nil {
			sub.Restore(snap)
			return Result{Halt: HaltException}
		}
	}

	var newAccount *state.Account
	if existing != nil {
		newAccount = existing.Clone()
	} else {
		newAccount = state.NewAccount(env.Rules.StartNonce())
	}
	newAccount.Nonce = env.Rules.StartNonce()
	env.Repo.ResetAccount(newAddr, newAccount)

	if err := env.Repo.Transfer(env.Sender, newAddr, endowment, env.Rules.StartNonce()); err != nil {
		sub.Restore(snap)
		return Result{Halt: HaltException}
	}
	sub.Touch(newAddr)
	sub.MarkCreated(newAddr)

	childEnv := &ExecEnv{
		Address:     newAddr,
		Originator:  env.Originator,
		GasPrice:    env.GasPrice,
		Data:        nil,
		Sender:      env.Sender,
		Value:       endowment,
		MachineCode: initCode,
		StackDepth:  env.StackDepth + 1,
		Block:       env.Block,
		Repo:        env.Repo,
		Rules:       env.Rules,
		ReadOnly:    false,
		Logger:      env.Logger,
	}
	res := Run(gas, childEnv, sub)

	switch res.Halt {
	case HaltNormal:
		depositCost := GasCreateDeposit * uint64(len(res.Output))
		tooLarge := env.Rules.LimitContractCodeSize && len(res.Output) > env.Rules.MaxCodeSize
		if tooLarge {
			sub.Restore(snap)
			return Result{Halt: HaltException}
		}
		if res.RemainingGas < depositCost {
			if env.Rules.FailContractCreationLackOfGas {
				sub.Restore(snap)
				return Result{Halt: HaltException}
			}
			return Result{Halt: HaltNormal, RemainingGas: res.RemainingGas, Output: newAddr[:]}
		}
		if err := env.Repo.PutCode(newAddr, res.Output); err != nil {
			sub.Restore(snap)
			return Result{Halt: HaltException}
		}
		return Result{Halt: HaltNormal, RemainingGas: res.RemainingGas - depositCost, Output: newAddr[:]}
	case HaltRevert:
		sub.Restore(snap)
		return Result{Halt: HaltRevert, RemainingGas: res.RemainingGas, Output: res.Output}
	default:
		sub.Restore(snap)
		return Result{Halt: HaltException}
	}
}

// MessageCall implements §4.11: it validates the call, transfers
// value, dispatches to a precompile or runs the recipient's code, and
// reconciles state changes against the frame's halt kind.
func MessageCall(gas uint64, env *ExecEnv, sub *SubState, recipient, codeAddr common.Address, value *big.Int, data []byte) Result {
	if env.StackDepth >= 1024 {
		return Result{Halt: HaltException, RemainingGas: gas}
	}
	if value.Sign() > 0 {
		senderAcc, err := env.Repo.GetAccount(env.Address)
		if err != nil || senderAcc == nil || senderAcc.Balance.Cmp(value) < 0 {
			return Result{Halt: HaltException, RemainingGas: gas}
		}
	}

	snap := sub.Snapshot()

	if value.Sign() > 0 {
		gas += GasCallStipend
		recipientAcc, err := env.Repo.GetAccount(recipient)
		if err != nil {
			return Result{Halt: HaltException}
		}
		if recipientAcc == nil {
			env.Repo.ResetAccount(recipient, state.NewAccount(env.Rules.StartNonce()))
		}
		if err := env.Repo.Transfer(env.Address, recipient, value, env.Rules.StartNonce()); err != nil {
			sub.Restore(snap)
			return Result{Halt: HaltException, RemainingGas: gas}
		}
	}
	sub.Touch(recipient)

	if pre, ok := precompile(codeAddr, env.Rules); ok {
		out, cost, err := pre(data)
		if err != nil || cost > gas {
			sub.Restore(snap)
			return Result{Halt: HaltException}
		}
		return Result{Halt: HaltNormal, RemainingGas: gas - cost, Output: out}
	}

	code, err := env.Repo.GetCode(codeAddr)
	if err != nil {
		sub.Restore(snap)
		return Result{Halt: HaltException}
	}
	if len(code) == 0 {
		return Result{Halt: HaltNormal, RemainingGas: gas}
	}

	childEnv := &ExecEnv{
		Address:     recipient,
		Originator:  env.Originator,
		GasPrice:    env.GasPrice,
		Data:        data,
		Sender:      env.Address,
		Value:       value,
		MachineCode: code,
		StackDepth:  env.StackDepth + 1,
		Block:       env.Block,
		Repo:        env.Repo,
		Rules:       env.Rules,
		ReadOnly:    env.ReadOnly,
		Logger:      env.Logger,
	}
	res := Run(gas, childEnv, sub)
	if res.Halt != HaltNormal {
		sub.Restore(snap)
	}
	return res
}

// opCreate implements CREATE and CREATE2: both pop (value, offset,
// size) for the init-code range, CREATE2 additionally pops a salt.
func (m *machine) opCreate(op OpCode, env *ExecEnv, sub *SubState) (signal, []byte) {
	if env.ReadOnly {
		return sigException, nil
	}
	if op == CREATE2 && !env.Rules.HasCreate2 {
		return sigException, nil
	}
	valueW, offW, sizeW, ok := m.pop3()
	if !ok {
		return sigException, nil
	}
	var saltW uint256.Int
	if op == CREATE2 {
		s, ok := m.pop1()
		if !ok {
			return sigException, nil
		}
		saltW = s
	}
	off, size, ok := u256Offsets(&offW, &sizeW)
	if !ok {
		return sigException, nil
	}
	if !m.chargeMemory(off, size) {
		return sigException, nil
	}
	if !m.spend(GasCreate) {
		return sigException, nil
	}
	if op == CREATE2 {
		words := ceilWords(size)
		if !m.spend(GasSha3Word * words) {
			return sigException, nil
		}
	}

	initCode := m.memory.Get(off, size)
	endowment := new(big.Int).SetBytes(valueW.Bytes())

	senderAcc, err := env.Repo.GetAccount(env.Address)
	if err != nil {
		return sigException, nil
	}
	var nonce uint64
	if senderAcc != nil {
		nonce = senderAcc.Nonce
	}

	var newAddr common.Address
	if op == CREATE2 {
		newAddr = createAddress2(env.Address, common.Hash(saltW.Bytes32()), initCode)
	} else {
		newAddr = createAddress(env.Address, nonce)
	}

	childGas := callGas(env.Rules, m.gas, m.gas)
	m.gas -= childGas

	childEnv := *env
	childEnv.Sender = env.Address
	res := CreateContract(childGas, &childEnv, sub, endowment, initCode, newAddr)
	m.gas += res.RemainingGas

	var result uint256.Int
	switch res.Halt {
	case HaltNormal:
		result.SetBytes(newAddr[:])
		m.lastReturnData = nil
	case HaltRevert:
		m.lastReturnData = res.Output
	default:
		m.lastReturnData = nil
	}
	if !m.push(&result) {
		return sigException, nil
	}
	m.advance(1)
	return sigContinue, nil
}

// opCall implements CALL, CALLCODE, DELEGATECALL and STATICCALL,
// which share a cost shape but differ in stack arity and in whose
// storage/address/value context the callee executes under.
func (m *machine) opCall(op OpCode, env *ExecEnv, sub *SubState) (signal, []byte) {
	gasW, addrW, ok := m.pop2()
	if !ok {
		return sigException, nil
	}
	var valueW uint256.Int
	hasValue := op == CALL || op == CALLCODE
	if hasValue {
		v, ok := m.pop1()
		if !ok {
			return sigException, nil
		}
		valueW = v
	}
	argsOffW, argsSizeW, ok := m.pop2()
	if !ok {
		return sigException, nil
	}
	retOffW, retSizeW, ok := m.pop2()
	if !ok {
		return sigException, nil
	}

	if op == STATICCALL && !env.Rules.HasStaticCall {
		return sigException, nil
	}
	if op == DELEGATECALL && !env.Rules.HasDelegateCall {
		return sigException, nil
	}
	if env.ReadOnly && hasValue && !valueW.IsZero() {
		return sigException, nil
	}

	argsOff, argsSize, ok := u256Offsets(&argsOffW, &argsSizeW)
	if !ok {
		return sigException, nil
	}
	retOff, retSize, ok := u256Offsets(&retOffW, &retSizeW)
	if !ok {
		return sigException, nil
	}
	if !m.chargeMemory(argsOff, argsSize) {
		return sigException, nil
	}
	if !m.chargeMemory(retOff, retSize) {
		return sigException, nil
	}

	addr := u256ToAddress(&addrW)
	targetExists, err := accountExists(env.Repo, addr)
	if err != nil {
		return sigException, nil
	}

	cost := env.Rules.CallCost
	if hasValue && !valueW.IsZero() {
		cost += GasCallValue
	}
	if !targetExists && (op == CALL) && (!env.Rules.EmptyAccountValueTransfer || !valueW.IsZero()) {
		cost += GasCallNewAccount
	}
	if !m.spend(cost) {
		return sigException, nil
	}

	requested := gasW.Uint64()
	if !gasW.IsUint64() {
		requested = m.gas
	}
	childGas := callGas(env.Rules, m.gas, requested)
	m.gas -= childGas

	args := m.memory.Get(argsOff, argsSize)

	var res Result
	switch op {
	case CALL:
		value := new(big.Int).SetBytes(valueW.Bytes())
		res = MessageCall(childGas, env, sub, addr, addr, value, args)
	case CALLCODE:
		value := new(big.Int).SetBytes(valueW.Bytes())
		res = MessageCall(childGas, env, sub, env.Address, addr, value, args)
	case DELEGATECALL:
		res = delegateCall(childGas, env, sub, addr, args)
	case STATICCALL:
		res = staticCall(childGas, env, sub, addr, args)
	}
	m.gas += res.RemainingGas

	var result uint256.Int
	if res.Halt == HaltNormal {
		result.SetOne()
		m.lastReturnData = res.Output
	} else if res.Halt == HaltRevert {
		m.lastReturnData = res.Output
	} else {
		m.lastReturnData = nil
	}

	n := retSize
	if uint64(len(res.Output)) < n {
		n = uint64(len(res.Output))
	}
	if n > 0 {
		m.memory.Set(retOff, n, res.Output[:n])
	}

	if !m.push(&result) {
		return sigException, nil
	}
	m.advance(1)
	return sigContinue, nil
}

// delegateCall runs codeAddr's code in the caller's own address,
// storage, sender and value context (no value transfer of its own).
func delegateCall(gas uint64, env *ExecEnv, sub *SubState, codeAddr common.Address, data []byte) Result {
	if env.StackDepth >= 1024 {
		return Result{Halt: HaltException, RemainingGas: gas}
	}
	code, err := env.Repo.GetCode(codeAddr)
	if err != nil {
		return Result{Halt: HaltException}
	}
	childEnv := &ExecEnv{
		Address:     env.Address,
		Originator:  env.Originator,
		GasPrice:    env.GasPrice,
		Data:        data,
		Sender:      env.Sender,
		Value:       env.Value,
		MachineCode: code,
		StackDepth:  env.StackDepth + 1,
		Block:       env.Block,
		Repo:        env.Repo,
		Rules:       env.Rules,
		ReadOnly:    env.ReadOnly,
		Logger:      env.Logger,
	}
	snap := sub.Snapshot()
	res := Run(gas, childEnv, sub)
	if res.Halt != HaltNormal {
		sub.Restore(snap)
	}
	return res
}

// staticCall runs addr's code at address addr, with env.Address as
// sender, in a read-only environment: no balance transfer,
// storage write, log, create or self-destruct is permitted (§4.9).
func staticCall(gas uint64, env *ExecEnv, sub *SubState, addr common.Address, data []byte) Result {
	if env.StackDepth >= 1024 {
		return Result{Halt: HaltException, RemainingGas: gas}
	}
	if pre, ok := precompile(addr, env.Rules); ok {
		out, cost, err := pre(data)
		if err != nil || cost > gas {
			return Result{Halt: HaltException}
		}
		return Result{Halt: HaltNormal, RemainingGas: gas - cost, Output: out}
	}
	code, err := env.Repo.GetCode(addr)
	if err != nil {
		return Result{Halt: HaltException}
	}
	childEnv := &ExecEnv{
		Address:     addr,
		Originator:  env.Originator,
		GasPrice:    env.GasPrice,
		Data:        data,
		Sender:      env.Address,
		Value:       big.NewInt(0),
		MachineCode: code,
		StackDepth:  env.StackDepth + 1,
		Block:       env.Block,
		Repo:        env.Repo,
		Rules:       env.Rules,
		ReadOnly:    true,
		Logger:      env.Logger,
	}
	snap := sub.Snapshot()
	res := Run(gas, childEnv, sub)
	if res.Halt != HaltNormal {
		sub.Restore(snap)
	}
	return res
}

// opSelfDestruct implements SELFDESTRUCT: the target's entire balance
// moves to the beneficiary and the account is marked for removal at
// the end of the transaction.
func (m *machine) opSelfDestruct(env *ExecEnv, sub *SubState) (signal, []byte) {
	if env.ReadOnly {
		return sigException, nil
	}
	beneficiaryW, ok := m.pop1()
	if !ok {
		return sigException, nil
	}
	beneficiary := u256ToAddress(&beneficiaryW)

	cost := env.Rules.SelfDestructCost
	exists, err := accountExists(env.Repo, beneficiary)
	if err != nil {
		return sigException, nil
	}
	acc, err := env.Repo.GetAccount(env.Address)
	if err != nil {
		return sigException, nil
	}
	if !exists && acc != nil && acc.Balance.Sign() > 0 {
		cost += env.Rules.SelfDestructNewAccountCost
	}
	if !m.spend(cost) {
		return sigException, nil
	}

	if acc != nil && acc.Balance.Sign() > 0 {
		if !exists {
			env.Repo.ResetAccount(beneficiary, state.NewAccount(env.Rules.StartNonce()))
		}
		if beneficiary != env.Address {
			if err := env.Repo.Transfer(env.Address, beneficiary, acc.Balance, env.Rules.StartNonce()); err != nil {
				return sigException, nil
			}
		}
	}
	sub.Touch(beneficiary)
	sub.MarkSelfDestruct(env.Address)
	return sigHaltNormal, nil
}

func accountExists(repo *state.Repository, addr common.Address) (bool, error) {
	acc, err := repo.GetAccount(addr)
	if err != nil {
		return false, err
	}
	return acc != nil, nil
}
