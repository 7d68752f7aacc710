// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/mixledger/mixledger/kv"
)

// Stage abstracts the net changes of a state.
type Stage struct {
	store kv.Store
	cache *Cache
	keys  []string
	vals  map[string][]byte
}

// Stage collapses the journal into the last value written per key.
func (s *State) Stage() *Stage {
	stage := &Stage{
		store: s.store,
		cache: s.cache,
		vals:  make(map[string][]byte),
	}
	s.sm.Journal(func(key string, val []byte) bool {
		if _, ok := stage.vals[key]; !ok {
			stage.keys = append(stage.keys, key)
		}
		stage.vals[key] = val
		return true
	})
	return stage
}

// Len returns the number of changed keys.
func (st *Stage) Len() int {
	return len(st.keys)
}

// Commit writes changes atomically and refreshes the read cache.
func (st *Stage) Commit() error {
	if len(st.keys) == 0 {
		return nil
	}
	batch := st.store.NewBatch()
	for _, key := range st.keys {
		var err error
		if val := st.vals[key]; val == nil {
			err = batch.Delete([]byte(key))
		} else {
			err = batch.Put([]byte(key), val)
		}
		if err != nil {
			return &Error{err}
		}
	}
	if err := batch.Write(); err != nil {
		return &Error{err}
	}

	for _, key := range st.keys {
		st.cache.set(key, st.vals[key])
	}
	metricCommittedKeys().Add(int64(len(st.keys)))
	return nil
}
