// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	lru "github.com/hashicorp/golang-lru"

	"github.com/vechain/vault/kv"
	"github.com/vechain/vault/stackedmap"
	"github.com/vechain/vault/thor"
)

const (
	storageBucket = kv.Bucket("s")
	balanceBucket = kv.Bucket("b")

	cacheSize = 4096 // committed values kept in memory
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

type storageKey struct {
	addr thor.Address
	key  thor.Bytes32
}

type balanceKey struct {
	asset  thor.Address
	holder thor.Address
}

func (k storageKey) dbKey() []byte {
	return storageBucket.Key(append(k.addr.Bytes(), k.key.Bytes()...))
}

func (k balanceKey) dbKey() []byte {
	return balanceBucket.Key(append(k.asset.Bytes(), k.holder.Bytes()...))
}

// State manages the ledger state.
type State struct {
	db    kv.Getter
	sm    *stackedmap.StackedMap // keeps revisions of state
	cache *lru.Cache             // db key => committed value
}

// New create state object.
// A nil db gives a state that starts empty and is never persisted.
func New(db kv.Getter) *State {
	cache, _ := lru.New(cacheSize)
	s := &State{db: db, cache: cache}
	s.sm = stackedmap.New(s.dbGetter)
	return s
}

// dbGetter implements stackedmap.MapGetter.
func (s *State) dbGetter(key any) (value any, exist bool, err error) {
	switch k := key.(type) {
	case storageKey:
		data, err := s.load(k.dbKey())
		if err != nil {
			return nil, false, err
		}
		return rlp.RawValue(data), true, nil
	case balanceKey:
		data, err := s.load(k.dbKey())
		if err != nil {
			return nil, false, err
		}
		return new(big.Int).SetBytes(data), true, nil
	}
	panic(fmt.Errorf("unexpected key type %+v", key))
}

func (s *State) load(key []byte) ([]byte, error) {
	if s.db == nil {
		return nil, nil
	}
	if cached, ok := s.cache.Get(string(key)); ok {
		return cached.([]byte), nil
	}
	data, err := s.db.Get(key)
	if err != nil {
		if !s.db.IsNotFound(err) {
			return nil, err
		}
		data = nil
	}
	s.cache.Add(string(key), data)
	return data, nil
}

// GetBalance returns the balance of asset held by holder.
func (s *State) GetBalance(asset, holder thor.Address) (*big.Int, error) {
	v, _, err := s.sm.Get(balanceKey{asset, holder})
	if err != nil {
		return nil, &Error{err}
	}
	return new(big.Int).Set(v.(*big.Int)), nil
}

// SetBalance set the balance of asset held by holder.
func (s *State) SetBalance(asset, holder thor.Address, balance *big.Int) error {
	if balance.Sign() < 0 {
		return &Error{fmt.Errorf("negative balance %v", balance)}
	}
	s.sm.Put(balanceKey{asset, holder}, new(big.Int).Set(balance))
	return nil
}

// GetStorage returns storage value for the given address and key.
func (s *State) GetStorage(addr thor.Address, key thor.Bytes32) (thor.Bytes32, error) {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return thor.Bytes32{}, err
	}
	if len(raw) == 0 {
		return thor.Bytes32{}, nil
	}
	kind, content, _, err := rlp.Split(raw)
	if err != nil {
		return thor.Bytes32{}, &Error{err}
	}
	if kind == rlp.List {
		// special case for rlp list, it should be customized storage value
		// return hash of raw data
		return thor.Blake2b(raw), nil
	}
	return thor.BytesToBytes32(content), nil
}

// SetStorage set storage value for the given address and key.
func (s *State) SetStorage(addr thor.Address, key, value thor.Bytes32) {
	if value.IsZero() {
		s.SetRawStorage(addr, key, nil)
		return
	}
	v, _ := rlp.EncodeToBytes(bytes.TrimLeft(value[:], "\x00"))
	s.SetRawStorage(addr, key, v)
}

// GetRawStorage returns storage value in rlp raw for given address and key.
func (s *State) GetRawStorage(addr thor.Address, key thor.Bytes32) (rlp.RawValue, error) {
	data, _, err := s.sm.Get(storageKey{addr, key})
	if err != nil {
		return nil, &Error{err}
	}
	return data.(rlp.RawValue), nil
}

// SetRawStorage set storage value in rlp raw.
func (s *State) SetRawStorage(addr thor.Address, key thor.Bytes32, raw rlp.RawValue) {
	s.sm.Put(storageKey{addr, key}, raw)
}

// EncodeStorage set storage value encoded by given enc method.
func (s *State) EncodeStorage(addr thor.Address, key thor.Bytes32, enc func() ([]byte, error)) error {
	raw, err := enc()
	if err != nil {
		return &Error{err}
	}
	s.SetRawStorage(addr, key, raw)
	return nil
}

// DecodeStorage get and decode storage value.
func (s *State) DecodeStorage(addr thor.Address, key thor.Bytes32, dec func([]byte) error) error {
	raw, err := s.GetRawStorage(addr, key)
	if err != nil {
		return err
	}
	if err := dec(raw); err != nil {
		return &Error{err}
	}
	return nil
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	s.sm.PopTo(revision)
}

// Keep releases the checkpoint specified by revision and every later one.
// Changes made since are kept as if no checkpoint was taken.
func (s *State) Keep(revision int) {
	s.sm.Merge(revision)
}
