// Package params implements the hardfork configuration mechanism:
// a flat, immutable capability vector built by composing a Frontier
// base with successor patches (Homestead, EIP150, EIP158, Byzantium,
// Constantinople), rather than a dynamic fallback-delegation chain.
package params

import "math/big"

// Rules is the capability vector consulted by the EVM interpreter,
// the gas schedule and the contract-creation/message-call
// subprotocols. Every field is resolved ahead of time by composing
// Frontier with the successor forks' patches; there is no runtime
// delegation to a "previous fork" object.
type Rules struct {
	Name string

	// Intrinsic gas.
	ContractCreationCost uint64

	// secp256k1 signature validation.
	MaxSignatureS *big.Int

	// Homestead.
	HasDelegateCall                bool
	FailContractCreationLackOfGas bool

	// EIP-150 (Tangerine Whistle) repricing.
	ExtCodeSizeCost              uint64
	ExtCodeCopyCost              uint64
	BalanceCost                  uint64
	SLoadCost                    uint64
	CallCost                     uint64
	SelfDestructCost             uint64
	SelfDestructNewAccountCost   uint64
	FailNestedOperationLackOfGas bool

	// EIP-158 (Spurious Dragon) state clearing.
	ExpByteCost              uint64
	LimitContractCodeSize    bool
	MaxCodeSize              int
	IncrementNonceOnCreate   bool
	EmptyAccountValueTransfer bool
	CleanTouchedAccounts      bool

	// Byzantium.
	HasRevert                      bool
	HasStaticCall                  bool
	SupportVariableLengthReturnValue bool
	HasModExpBuiltin               bool
	HasEcAddBuiltin                bool
	HasEcMultBuiltin               bool
	HasEcPairingBuiltin            bool

	// Constantinople.
	HasShiftOperations            bool
	HasExtCodeHash                bool
	HasCreate2                    bool
	Eip1283SstoreGasCostChanged   bool

	// Supplemented (Istanbul) precompile, see SPEC_FULL.md §5.
	HasBlake2FBuiltin bool
}

// StartNonce is the nonce assigned to a freshly created account: 0
// before EIP-161, 1 from Spurious Dragon onward.
func (r Rules) StartNonce() uint64 {
	if r.IncrementNonceOnCreate {
		return 1
	}
	return 0
}

var secp256k1HalfN = new(big.Int).Rsh(secp256k1N(), 1)

func secp256k1N() *big.Int {
	n, _ := new(big.Int).SetString("fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", 16)
	return n
}

// Frontier is the genesis rule set.
var Frontier = Rules{
	Name:                 "Frontier",
	ContractCreationCost: 21000,
	MaxSignatureS:        secp256k1N(),

	ExtCodeSizeCost:            20,
	ExtCodeCopyCost:            20,
	BalanceCost:                20,
	SLoadCost:                  50,
	CallCost:                   40,
	SelfDestructCost:           0,
	SelfDestructNewAccountCost: 0,

	ExpByteCost: 10,
	MaxCodeSize: 1 << 31, // effectively unbounded before EIP-170
}

// Homestead enables DELEGATECALL, tightens signature malleability and
// introduces the lack-of-gas creation failure mode.
var Homestead = patch(Frontier, func(r *Rules) {
	r.Name = "Homestead"
	r.ContractCreationCost = 53000
	r.MaxSignatureS = new(big.Int).Set(secp256k1HalfN)
	r.HasDelegateCall = true
	r.FailContractCreationLackOfGas = true
})

// EIP150 is the Tangerine Whistle repricing.
var EIP150 = patch(Homestead, func(r *Rules) {
	r.Name = "EIP150"
	r.ExtCodeSizeCost = 700
	r.ExtCodeCopyCost = 700
	r.BalanceCost = 400
	r.SLoadCost = 200
	r.CallCost = 700
	r.SelfDestructCost = 5000
	r.SelfDestructNewAccountCost = 25000
	r.FailNestedOperationLackOfGas = true
})

// EIP158 is the Spurious Dragon state-clearing fork.
var EIP158 = patch(EIP150, func(r *Rules) {
	r.Name = "EIP158"
	r.ExpByteCost = 50
	r.LimitContractCodeSize = true
	r.MaxCodeSize = 24576
	r.IncrementNonceOnCreate = true
	r.EmptyAccountValueTransfer = true
	r.CleanTouchedAccounts = true
})

// Byzantium adds REVERT, STATICCALL and the four built-in precompiles
// beyond ECRECOVER/SHA256/RIPEMD160/IDENTITY (MODEXP, EC_ADD, EC_MULT,
// EC_PAIRING).
var Byzantium = patch(EIP158, func(r *Rules) {
	r.Name = "Byzantium"
	r.HasRevert = true
	r.HasStaticCall = true
	r.SupportVariableLengthReturnValue = true
	r.HasModExpBuiltin = true
	r.HasEcAddBuiltin = true
	r.HasEcMultBuiltin = true
	r.HasEcPairingBuiltin = true
})

// Constantinople adds the SHL/SHR/SAR shifts, EXTCODEHASH, CREATE2
// and the EIP-1283 SSTORE gas metering.
var Constantinople = patch(Byzantium, func(r *Rules) {
	r.Name = "Constantinople"
	r.HasShiftOperations = true
	r.HasExtCodeHash = true
	r.HasCreate2 = true
	r.Eip1283SstoreGasCostChanged = true
})

// patch clones base and applies fn, composing a successor fork's
// capability vector without a runtime delegation chain.
func patch(base Rules, fn func(*Rules)) Rules {
	r := base
	if base.MaxSignatureS != nil {
		r.MaxSignatureS = new(big.Int).Set(base.MaxSignatureS)
	}
	fn(&r)
	return r
}
