package state

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/mana-ethereum/mana-sub004/cachingtrie"
	"github.com/mana-ethereum/mana-sub004/common"
	"github.com/mana-ethereum/mana-sub004/rlp"
)

// ErrInsufficientBalance is returned by Transfer when the sender does
// not hold enough wei.
var ErrInsufficientBalance = errors.New("state: insufficient balance")

type accountStatus int

const (
	statusClean accountStatus = iota
	statusDirty
)

type codeStatus int

const (
	codeNone codeStatus = iota
	codeClean
	codeDirty
)

// accountEntry is the repository's per-address cache line. A dirty
// entry with account == nil means "this account has been deleted".
type accountEntry struct {
	status     accountStatus
	account    *Account
	codeStatus codeStatus
	code       []byte
}

// slotEntry tracks a storage slot's value as of the start of the
// transaction (initial, used by EIP-1283) and its current value.
type slotEntry struct {
	hasInitial bool
	initial    common.Value
	hasCurrent bool
	current    common.Value // valid only if !deleted
	deleted    bool
}

// Repository is the per-transaction account + storage cache layered
// over the state trie. It is not safe for concurrent use: one
// Repository belongs to exactly one execution unit (see §5).
type Repository struct {
	trie *cachingtrie.CachingTrie

	accounts map[common.Address]*accountEntry
	storage  map[common.Address]map[common.Key]*slotEntry
	logger   common.Logger
}

// New wraps trie with an empty account/storage cache.
func New(trie *cachingtrie.CachingTrie) *Repository {
	return &Repository{
		trie:     trie,
		accounts: make(map[common.Address]*accountEntry),
		storage:  make(map[common.Address]map[common.Key]*slotEntry),
		logger:   common.NopLogger{},
	}
}

// SetLogger replaces the repository's logger and wires the same one
// through to the underlying caching trie; passing nil restores the
// no-op default.
func (r *Repository) SetLogger(l common.Logger) {
	if l == nil {
		l = common.NopLogger{}
	}
	r.logger = l
	r.trie.SetLogger(l)
}

func addrKey(addr common.Address) []byte {
	h := common.Keccak256(addr[:])
	return h[:]
}

func slotKey(k common.Key) []byte {
	h := common.Keccak256(k[:])
	return h[:]
}

// GetAccount returns the account at addr, or nil if it does not exist.
func (r *Repository) GetAccount(addr common.Address) (*Account, error) {
	if e, ok := r.accounts[addr]; ok {
		return e.account, nil
	}
	data, found, err := r.trie.Get(addrKey(addr))
	if err != nil {
		return nil, err
	}
	if !found {
		r.accounts[addr] = &accountEntry{status: statusClean, account: nil}
		return nil, nil
	}
	acc, err := DecodeAccount(data)
	if err != nil {
		return nil, err
	}
	r.accounts[addr] = &accountEntry{status: statusClean, account: acc}
	return acc, nil
}

// PutAccount installs account as the dirty value for addr.
func (r *Repository) PutAccount(addr common.Address, account *Account) {
	e := r.entry(addr)
	e.status = statusDirty
	e.account = account
}

func (r *Repository) entry(addr common.Address) *accountEntry {
	e, ok := r.accounts[addr]
	if !ok {
		e = &accountEntry{}
		r.accounts[addr] = e
	}
	return e
}

// Transfer moves wei from sender to recipient. It fails if wei is
// negative, the sender does not exist, or the sender's balance is
// insufficient. A transfer to oneself is a no-op.
func (r *Repository) Transfer(from, to common.Address, wei *big.Int, startNonce uint64) error {
	if wei.Sign() < 0 {
		return fmt.Errorf("state: negative transfer amount %s", wei)
	}
	if from == to || wei.Sign() == 0 {
		return nil
	}
	sender, err := r.GetAccount(from)
	if err != nil {
		return err
	}
	if sender == nil {
		return fmt.Errorf("state: transfer from non-existent account %s", from)
	}
	if sender.Balance.Cmp(wei) < 0 {
		return ErrInsufficientBalance
	}
	recipient, err := r.GetAccount(to)
	if err != nil {
		return err
	}
	if recipient == nil {
		recipient = NewAccount(startNonce)
	} else {
		recipient = recipient.Clone()
	}
	sender = sender.Clone()
	sender.Balance.Sub(sender.Balance, wei)
	recipient.Balance.Add(recipient.Balance, wei)
	r.PutAccount(from, sender)
	r.PutAccount(to, recipient)
	if r.logger.IsTrace() {
		r.logger.Trace("state: transfer", "from", from, "to", to, "wei", wei)
	}
	return nil
}

// IncrementNonce bumps addr's nonce by one.
func (r *Repository) IncrementNonce(addr common.Address) error {
	acc, err := r.GetAccount(addr)
	if err != nil {
		return err
	}
	if acc == nil {
		return fmt.Errorf("state: increment nonce of non-existent account %s", addr)
	}
	acc = acc.Clone()
	acc.Nonce++
	r.PutAccount(addr, acc)
	return nil
}

// GetCode returns addr's contract code, or nil if it has none.
func (r *Repository) GetCode(addr common.Address) ([]byte, error) {
	if e, ok := r.accounts[addr]; ok && e.codeStatus != codeNone {
		return e.code, nil
	}
	acc, err := r.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil || acc.CodeHash == common.EmptyCodeHash {
		return nil, nil
	}
	code, err := r.trie.RawGet(acc.CodeHash[:])
	if err != nil {
		return nil, fmt.Errorf("state: missing code for hash %s: %w", acc.CodeHash, err)
	}
	e := r.entry(addr)
	e.codeStatus = codeClean
	e.code = code
	return code, nil
}

// PutCode sets addr's code, updating its account's code hash. The
// actual kec(code) -> code write to the raw store happens at Commit.
func (r *Repository) PutCode(addr common.Address, code []byte) error {
	h := common.Keccak256(code)
	acc, err := r.GetAccount(addr)
	if err != nil {
		return err
	}
	if acc == nil {
		return fmt.Errorf("state: set code on non-existent account %s", addr)
	}
	acc = acc.Clone()
	acc.CodeHash = h
	r.PutAccount(addr, acc)
	e := r.entry(addr)
	e.codeStatus = codeDirty
	e.code = code
	return nil
}

func (r *Repository) slots(addr common.Address) map[common.Key]*slotEntry {
	m, ok := r.storage[addr]
	if !ok {
		m = make(map[common.Key]*slotEntry)
		r.storage[addr] = m
	}
	return m
}

func (r *Repository) loadInitial(addr common.Address, k common.Key, s *slotEntry) error {
	if s.hasInitial {
		return nil
	}
	acc, err := r.GetAccount(addr)
	if err != nil {
		return err
	}
	if acc == nil {
		s.hasInitial = true
		return nil
	}
	sub := r.trie.SubTrie(acc.StorageRoot)
	data, found, err := sub.Get(slotKey(k))
	if err != nil {
		return err
	}
	if found {
		v, err := decodeStorageValue(data)
		if err != nil {
			return err
		}
		s.initial = v
	}
	s.hasInitial = true
	return nil
}

// GetStorage returns the current value of slot k in addr's storage,
// caching the initial (pre-transaction) value on first read.
// (common.Value{}, false, nil) means the account does not exist; an
// unset slot of an existing account reads as the zero value with
// found=true.
func (r *Repository) GetStorage(addr common.Address, k common.Key) (common.Value, bool, error) {
	acc, err := r.GetAccount(addr)
	if err != nil {
		return common.Value{}, false, err
	}
	if acc == nil {
		return common.Value{}, false, nil
	}
	s, ok := r.slots(addr)[k]
	if !ok {
		s = &slotEntry{}
		r.slots(addr)[k] = s
	}
	if err := r.loadInitial(addr, k, s); err != nil {
		return common.Value{}, false, err
	}
	if s.hasCurrent {
		if s.deleted {
			return common.Value{}, true, nil
		}
		return s.current, true, nil
	}
	return s.initial, true, nil
}

// InitialStorage returns the value of slot k as of the start of the
// transaction, used by the EIP-1283 SSTORE gas schedule.
func (r *Repository) InitialStorage(addr common.Address, k common.Key) (common.Value, error) {
	s, ok := r.slots(addr)[k]
	if !ok {
		s = &slotEntry{}
		r.slots(addr)[k] = s
	}
	if err := r.loadInitial(addr, k, s); err != nil {
		return common.Value{}, err
	}
	return s.initial, nil
}

// PutStorage updates slot k's current value. A silent no-op if addr
// does not exist.
func (r *Repository) PutStorage(addr common.Address, k common.Key, v common.Value) error {
	acc, err := r.GetAccount(addr)
	if err != nil {
		return err
	}
	if acc == nil {
		return nil
	}
	s, ok := r.slots(addr)[k]
	if !ok {
		s = &slotEntry{}
		r.slots(addr)[k] = s
	}
	if err := r.loadInitial(addr, k, s); err != nil {
		return err
	}
	s.hasCurrent = true
	s.deleted = false
	s.current = v
	return nil
}

// RemoveStorage deletes slot k. A silent no-op if addr does not exist.
func (r *Repository) RemoveStorage(addr common.Address, k common.Key) error {
	return r.PutStorage(addr, k, common.Value{})
}

// ResetAccount replaces addr's account and clears its storage cache,
// used when a CREATE overwrites an account that only held a balance.
func (r *Repository) ResetAccount(addr common.Address, account *Account) {
	r.PutAccount(addr, account)
	delete(r.storage, addr)
}

// DelAccount marks addr for deletion (SELFDESTRUCT and EIP-161
// touched-empty-account clearing).
func (r *Repository) DelAccount(addr common.Address) {
	e := r.entry(addr)
	e.status = statusDirty
	e.account = nil
	e.codeStatus = codeNone
	e.code = nil
	delete(r.storage, addr)
}

// SetEmptyStorageRoot sets addr's StorageRoot back to the canonical
// empty-trie root, used when an account's storage is cleared.
func (r *Repository) SetEmptyStorageRoot(addr common.Address) error {
	acc, err := r.GetAccount(addr)
	if err != nil {
		return err
	}
	if acc == nil {
		return nil
	}
	acc = acc.Clone()
	acc.StorageRoot = common.EmptyRootHash
	r.PutAccount(addr, acc)
	return nil
}

func decodeStorageValue(data []byte) (common.Value, error) {
	item, err := rlp.Decode(data)
	if err != nil {
		return common.Value{}, err
	}
	str, ok := item.(rlp.String)
	if !ok {
		return common.Value{}, fmt.Errorf("state: expected string storage value, got %T", item)
	}
	return common.BytesToHash(str.Str), nil
}

func encodeStorageValue(v common.Value) []byte {
	trimmed := v[:]
	for len(trimmed) > 0 && trimmed[0] == 0 {
		trimmed = trimmed[1:]
	}
	return rlp.Encode(rlp.String{Str: trimmed})
}

// Commit applies every cached change to the underlying caching trie
// in the three passes described in §4.5: (1) write dirty code into the
// raw store by its hash; (2) for every address with storage changes,
// apply each slot write against its storage trie and update the
// account's storage_root; (3) write or delete each dirty account in
// the state trie.
func (r *Repository) Commit() error {
	for _, e := range r.accounts {
		if e.codeStatus == codeDirty && e.code != nil {
			h := common.Keccak256(e.code)
			if err := r.trie.RawPut(h[:], e.code); err != nil {
				return err
			}
		}
	}

	for addr, slots := range r.storage {
		e, ok := r.accounts[addr]
		if !ok || e.account == nil {
			continue
		}
		acc := e.account.Clone()
		sub := r.trie.SubTrie(acc.StorageRoot)
		for k, s := range slots {
			if !s.hasCurrent {
				continue
			}
			key := slotKey(k)
			if s.deleted || s.current.IsZero() {
				if err := sub.Delete(key); err != nil {
					return err
				}
				continue
			}
			if err := sub.Put(key, encodeStorageValue(s.current)); err != nil {
				return err
			}
		}
		acc.StorageRoot = sub.Hash()
		e.account = acc
		e.status = statusDirty
	}

	for addr, e := range r.accounts {
		if e.status != statusDirty {
			continue
		}
		key := addrKey(addr)
		if e.account == nil {
			if err := r.trie.Delete(key); err != nil {
				return err
			}
			continue
		}
		if err := r.trie.Put(key, e.account.Encode()); err != nil {
			return err
		}
	}
	if r.logger.IsDebug() {
		r.logger.Debug("state: committed repository", "root", r.trie.Hash(), "accounts", len(r.accounts))
	}
	return nil
}

// Root returns the state trie's current root hash.
func (r *Repository) Root() common.Hash {
	return r.trie.Hash()
}
