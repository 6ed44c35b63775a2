// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/vechain/vault/kv"
	"github.com/vechain/vault/stackedmap"
)

// Stage holds the flattened changes of a state, ready to be committed.
type Stage struct {
	changes map[string][]byte
	order   []string
}

// Stage flattens the journal into a set of key/value changes.
// Later writes to the same key win.
func (s *State) Stage() *Stage {
	stage := &Stage{changes: make(map[string][]byte)}
	for _, entry := range s.sm.Journal() {
		var (
			key string
			val []byte
		)
		switch k := entry.Key.(type) {
		case storageKey:
			key = string(k.dbKey())
			val = entry.Value.(rlp.RawValue)
		case balanceKey:
			key = string(k.dbKey())
			val = entry.Value.(*big.Int).Bytes()
		default:
			continue
		}
		if _, ok := stage.changes[key]; !ok {
			stage.order = append(stage.order, key)
		}
		stage.changes[key] = val
	}
	return stage
}

// Len returns the number of changed keys.
func (st *Stage) Len() int {
	return len(st.order)
}

// Commit writes all changes into the store within one batch.
func (st *Stage) Commit(store kv.Store) error {
	batch := store.NewBatch()
	for _, key := range st.order {
		val := st.changes[key]
		var err error
		if len(val) == 0 {
			err = batch.Delete([]byte(key))
		} else {
			err = batch.Put([]byte(key), val)
		}
		if err != nil {
			return errors.Wrap(err, "stage")
		}
	}
	if err := batch.Write(); err != nil {
		return errors.Wrap(err, "commit state")
	}
	return nil
}

// Commit flushes all pending changes into store and resets the journal.
// Checkpoints taken before Commit are no longer valid.
func (s *State) Commit(store kv.Store) error {
	stage := s.Stage()
	if stage.Len() > 0 {
		if err := stage.Commit(store); err != nil {
			return err
		}
	}
	if s.db != store {
		s.cache.Purge()
	}
	for key, val := range stage.changes {
		s.cache.Add(key, val)
	}
	s.db = store
	s.sm = stackedmap.New(s.dbGetter)
	return nil
}
