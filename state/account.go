// Package state implements the account repository of §4.5: a
// dirty/clean cache of per-address {account, code} plus per-slot
// {initial, current} storage values layered over the state trie.
package state

import (
	"fmt"
	"math/big"

	"github.com/mana-ethereum/mana-sub004/common"
	"github.com/mana-ethereum/mana-sub004/rlp"
)

// Account is the state trie's leaf value: {nonce, balance,
// storage_root, code_hash}. An account is empty iff nonce=0,
// balance=0, and code_hash is the hash of the empty string.
type Account struct {
	Nonce       uint64
	Balance     *big.Int
	StorageRoot common.Hash
	CodeHash    common.Hash
}

// NewAccount returns a freshly created account at the given starting
// nonce (0 pre-EIP-161, 1 from Spurious Dragon onward), zero balance,
// the empty storage root and the empty code hash.
func NewAccount(startNonce uint64) *Account {
	return &Account{
		Nonce:       startNonce,
		Balance:     new(big.Int),
		StorageRoot: common.EmptyRootHash,
		CodeHash:    common.EmptyCodeHash,
	}
}

// IsEmpty reports whether the account matches the EIP-161 definition
// of an empty account.
func (a *Account) IsEmpty() bool {
	return a.Nonce == 0 && a.Balance.Sign() == 0 && a.CodeHash == common.EmptyCodeHash
}

// Clone returns an independent copy, used to snapshot an account
// before it is mutated in the dirty cache.
func (a *Account) Clone() *Account {
	return &Account{
		Nonce:       a.Nonce,
		Balance:     new(big.Int).Set(a.Balance),
		StorageRoot: a.StorageRoot,
		CodeHash:    a.CodeHash,
	}
}

// Encode serializes the account as rlp([nonce, balance, storage_root, code_hash]).
func (a *Account) Encode() []byte {
	root := a.StorageRoot
	codeHash := a.CodeHash
	return rlp.Encode(rlp.List{Items: []rlp.Item{
		rlp.Uint64{Value: a.Nonce},
		rlp.BigInt{Value: a.Balance},
		rlp.Hash{Hash: &root},
		rlp.Hash{Hash: &codeHash},
	}})
}

// DecodeAccount parses the RLP encoding written by Encode.
func DecodeAccount(data []byte) (*Account, error) {
	item, err := rlp.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("malformed account encoding: %w", err)
	}
	list, ok := item.(rlp.List)
	if !ok || len(list.Items) != 4 {
		return nil, fmt.Errorf("expected 4-element account list, got %T", item)
	}
	nonceStr, ok := list.Items[0].(rlp.String)
	if !ok {
		return nil, fmt.Errorf("expected string nonce")
	}
	balanceStr, ok := list.Items[1].(rlp.String)
	if !ok {
		return nil, fmt.Errorf("expected string balance")
	}
	rootStr, ok := list.Items[2].(rlp.String)
	if !ok || len(rootStr.Str) != 32 {
		return nil, fmt.Errorf("expected 32 byte storage root")
	}
	codeHashStr, ok := list.Items[3].(rlp.String)
	if !ok || len(codeHashStr.Str) != 32 {
		return nil, fmt.Errorf("expected 32 byte code hash")
	}
	return &Account{
		Nonce:       bytesToUint64(nonceStr.Str),
		Balance:     new(big.Int).SetBytes(balanceStr.Str),
		StorageRoot: common.BytesToHash(rootStr.Str),
		CodeHash:    common.BytesToHash(codeHashStr.Str),
	}, nil
}

func bytesToUint64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
