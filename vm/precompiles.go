package vm

import (
	"crypto/sha256"
	"errors"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	bn256 "github.com/ethereum/go-ethereum/crypto/bn256/cloudflare"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/ripemd160"

	"github.com/mana-ethereum/mana-sub004/common"
	"github.com/mana-ethereum/mana-sub004/params"
)

// precompileFunc runs a builtin contract over its input, returning the
// output and its gas cost (§4.11 step 4, §5 supplemented features).
type precompileFunc func(input []byte) ([]byte, uint64, error)

// precompile resolves addr to its builtin implementation if addr names
// one of the nine standard precompiles and the active rules enable it.
func precompile(addr common.Address, rules params.Rules) (precompileFunc, bool) {
	var n byte
	for _, b := range addr[:19] {
		if b != 0 {
			return nil, false
		}
	}
	n = addr[19]

	switch n {
	case 1:
		return ecrecoverPrecompile, true
	case 2:
		return sha256Precompile, true
	case 3:
		return ripemd160Precompile, true
	case 4:
		return identityPrecompile, true
	case 5:
		if !rules.HasModExpBuiltin {
			return nil, false
		}
		return modExpPrecompile, true
	case 6:
		if !rules.HasEcAddBuiltin {
			return nil, false
		}
		return ecAddPrecompile, true
	case 7:
		if !rules.HasEcMultBuiltin {
			return nil, false
		}
		return ecMulPrecompile, true
	case 8:
		if !rules.HasEcPairingBuiltin {
			return nil, false
		}
		return ecPairingPrecompile, true
	case 9:
		if !rules.HasBlake2FBuiltin {
			return nil, false
		}
		return blake2FPrecompile, true
	default:
		return nil, false
	}
}

func padRight(b []byte, n int) []byte {
	if len(b) >= n {
		return b[:n]
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

func readPadded32(input []byte, off int) []byte {
	out := make([]byte, 32)
	if off >= len(input) {
		return out
	}
	copy(out, input[off:])
	return out
}

// ecrecoverPrecompile implements address 1.
func ecrecoverPrecompile(input []byte) ([]byte, uint64, error) {
	in := padRight(input, 128)
	hash := in[0:32]
	v := new(big.Int).SetBytes(in[32:64])
	r := in[64:96]
	s := in[96:128]

	if v.Cmp(big.NewInt(27)) != 0 && v.Cmp(big.NewInt(28)) != 0 {
		return nil, 3000, nil
	}
	sig := make([]byte, 65)
	copy(sig[0:32], r)
	copy(sig[32:64], s)
	sig[64] = byte(v.Uint64() - 27)

	pub, err := ethcrypto.SigToPub(hash, sig)
	if err != nil {
		return nil, 3000, nil
	}
	addr := ethcrypto.PubkeyToAddress(*pub)
	out := make([]byte, 32)
	copy(out[12:], addr[:])
	return out, 3000, nil
}

func sha256Precompile(input []byte) ([]byte, uint64, error) {
	h := sha256.Sum256(input)
	cost := uint64(60) + 12*uint64(ceilWords(uint64(len(input))))
	return h[:], cost, nil
}

func ripemd160Precompile(input []byte) ([]byte, uint64, error) {
	h := ripemd160.New()
	h.Write(input)
	out := make([]byte, 32)
	copy(out[12:], h.Sum(nil))
	cost := uint64(600) + 120*uint64(ceilWords(uint64(len(input))))
	return out, cost, nil
}

func identityPrecompile(input []byte) ([]byte, uint64, error) {
	cost := uint64(15) + 3*uint64(ceilWords(uint64(len(input))))
	out := make([]byte, len(input))
	copy(out, input)
	return out, cost, nil
}

// modExpPrecompile implements address 5 (EIP-198): B^E mod M over
// arbitrary-length big-endian integers whose lengths are themselves
// given as the first three 32-byte words of input.
func modExpPrecompile(input []byte) ([]byte, uint64, error) {
	baseLen := new(big.Int).SetBytes(readPadded32(input, 0)).Uint64()
	expLen := new(big.Int).SetBytes(readPadded32(input, 32)).Uint64()
	modLen := new(big.Int).SetBytes(readPadded32(input, 64)).Uint64()

	const headerLen = 96
	body := input
	if len(body) > headerLen {
		body = body[headerLen:]
	} else {
		body = nil
	}

	base := new(big.Int).SetBytes(padRight(sliceFrom(body, 0, baseLen), int(baseLen)))
	exp := new(big.Int).SetBytes(padRight(sliceFrom(body, baseLen, expLen), int(expLen)))
	mod := new(big.Int).SetBytes(padRight(sliceFrom(body, baseLen+expLen, modLen), int(modLen)))

	cost := modExpGas(baseLen, expLen, modLen, exp)

	var result *big.Int
	if mod.Sign() == 0 {
		result = new(big.Int)
	} else {
		result = new(big.Int).Exp(base, exp, mod)
	}
	return padRight(leftPadBig(result, int(modLen)), int(modLen)), cost, nil
}

func sliceFrom(b []byte, off, size uint64) []byte {
	if off >= uint64(len(b)) || size == 0 {
		return nil
	}
	end := off + size
	if end > uint64(len(b)) {
		end = uint64(len(b))
	}
	return b[off:end]
}

func leftPadBig(v *big.Int, size int) []byte {
	b := v.Bytes()
	if len(b) >= size {
		return b[len(b)-size:]
	}
	out := make([]byte, size)
	copy(out[size-len(b):], b)
	return out
}

// modExpGas is the EIP-198 cost formula: max(200, floor(words^2 *
// adjusted_exponent_length / 20)), simplified to the pre-Berlin model.
func modExpGas(baseLen, expLen, modLen uint64, exp *big.Int) uint64 {
	maxLen := baseLen
	if modLen > maxLen {
		maxLen = modLen
	}
	words := (maxLen + 7) / 8
	complexity := words * words

	adjExpLen := uint64(0)
	if expLen <= 32 {
		if exp.Sign() != 0 {
			adjExpLen = uint64(exp.BitLen() - 1)
		}
	} else {
		adjExpLen = 8 * (expLen - 32)
		if exp.Sign() != 0 {
			adjExpLen += uint64(exp.BitLen() - 1)
		}
	}
	if adjExpLen < 1 {
		adjExpLen = 1
	}

	gas := complexity * adjExpLen / 20
	if gas < 200 {
		gas = 200
	}
	return gas
}

func ecAddPrecompile(input []byte) ([]byte, uint64, error) {
	in := padRight(input, 128)
	p1, err := newCurvePoint(in[0:64])
	if err != nil {
		return nil, 500, err
	}
	p2, err := newCurvePoint(in[64:128])
	if err != nil {
		return nil, 500, err
	}
	res := new(bn256.G1).Add(p1, p2)
	return marshalCurvePoint(res), 500, nil
}

func ecMulPrecompile(input []byte) ([]byte, uint64, error) {
	in := padRight(input, 96)
	p, err := newCurvePoint(in[0:64])
	if err != nil {
		return nil, 40000, err
	}
	k := new(big.Int).SetBytes(in[64:96])
	res := new(bn256.G1).ScalarMult(p, k)
	return marshalCurvePoint(res), 40000, nil
}

func newCurvePoint(b []byte) (*bn256.G1, error) {
	p := new(bn256.G1)
	_, err := p.Unmarshal(b)
	return p, err
}

func marshalCurvePoint(p *bn256.G1) []byte {
	return p.Marshal()
}

// ecPairingPrecompile implements address 8: the BN128 pairing check
// used by zk-SNARK verifiers, over a sequence of (G1, G2) pairs.
func ecPairingPrecompile(input []byte) ([]byte, uint64, error) {
	const pairSize = 192
	if len(input)%pairSize != 0 {
		return nil, 0, errInvalidPairingInput
	}
	n := len(input) / pairSize
	cost := uint64(45000) + uint64(n)*34000

	var g1s []*bn256.G1
	var g2s []*bn256.G2
	for i := 0; i < n; i++ {
		chunk := input[i*pairSize : (i+1)*pairSize]
		g1 := new(bn256.G1)
		if _, err := g1.Unmarshal(chunk[0:64]); err != nil {
			return nil, cost, err
		}
		g2 := new(bn256.G2)
		if _, err := g2.Unmarshal(chunk[64:192]); err != nil {
			return nil, cost, err
		}
		g1s = append(g1s, g1)
		g2s = append(g2s, g2)
	}

	success := bn256.PairingCheck(g1s, g2s)
	out := make([]byte, 32)
	if success {
		out[31] = 1
	}
	return out, cost, nil
}

var errInvalidPairingInput = errors.New("vm: invalid ec pairing input length")

// blake2FPrecompile implements address 9 (EIP-152): the raw BLAKE2b
// compression function F, exposed so off-chain BLAKE2b-keyed
// applications (e.g. Zcash shielded pools) can be verified on chain.
func blake2FPrecompile(input []byte) ([]byte, uint64, error) {
	if len(input) != 213 {
		return nil, 0, errInvalidBlake2Input
	}
	rounds := beUint32(input[0:4])
	final := input[212]
	if final != 0 && final != 1 {
		return nil, 0, errInvalidBlake2Input
	}

	var h [8]uint64
	for i := 0; i < 8; i++ {
		h[i] = leUint64(input[4+i*8:])
	}
	var m [16]uint64
	for i := 0; i < 16; i++ {
		m[i] = leUint64(input[68+i*8:])
	}
	var t [2]uint64
	t[0] = leUint64(input[196:204])
	t[1] = leUint64(input[204:212])

	blake2b.F(rounds, &h, &m, t, final == 1)

	out := make([]byte, 64)
	for i := 0; i < 8; i++ {
		putLeUint64(out[i*8:], h[i])
	}
	return out, uint64(rounds), nil
}

var errInvalidBlake2Input = errors.New("vm: invalid blake2f input")

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func leUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(b[i]) << (8 * i)
	}
	return v
}

func putLeUint64(b []byte, v uint64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}
