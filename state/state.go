// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state stages writes on top of a kv store. Changes live in a
// stack of journaled levels until they are committed in one batch, so a
// whole state transition is either persisted completely or not at all.
package state

import (
	"fmt"
	"sort"

	"github.com/mixledger/mixledger/kv"
	"github.com/mixledger/mixledger/stackedmap"
)

// Error is the error caused by state access failure.
type Error struct {
	cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("state: %v", e.cause)
}

func (e *Error) Unwrap() error { return e.cause }

// State manages staged key/value changes. A nil value marks a deleted key.
type State struct {
	store kv.Store
	cache *Cache
	sm    *stackedmap.StackedMap[string, []byte]
}

// New create state object. cache may be nil.
func New(store kv.Store, cache *Cache) *State {
	s := &State{store: store, cache: cache}
	s.reset()
	return s
}

func (s *State) reset() {
	s.sm = stackedmap.New(s.committedGetter)
	// the base level holds changes made outside of any checkpoint
	s.sm.Push()
}

// committedGetter implements stackedmap.MapGetter.
func (s *State) committedGetter(key string) ([]byte, bool, error) {
	if v, ok := s.cache.get(key); ok {
		return v, true, nil
	}
	v, err := s.store.Get([]byte(key))
	if err != nil {
		if !s.store.IsNotFound(err) {
			return nil, false, err
		}
		v = nil
	}
	s.cache.set(key, v)
	return v, true, nil
}

// Get returns the current value of key, or nil if absent.
func (s *State) Get(key []byte) ([]byte, error) {
	v, _, err := s.sm.Get(string(key))
	if err != nil {
		return nil, &Error{err}
	}
	return v, nil
}

// Put sets the value of key. An empty value deletes the key.
func (s *State) Put(key, val []byte) {
	if len(val) == 0 {
		val = nil
	}
	s.sm.Put(string(key), val)
}

// Delete removes the key.
func (s *State) Delete(key []byte) {
	s.sm.Put(string(key), nil)
}

// NewCheckpoint makes a checkpoint of current state.
// It returns revision of the checkpoint.
func (s *State) NewCheckpoint() int {
	return s.sm.Push()
}

// RevertTo revert to checkpoint specified by revision.
func (s *State) RevertTo(revision int) {
	if revision < 1 {
		revision = 1
	}
	s.sm.PopTo(revision)
}

// Iterate traverses entries in range in key order, staged changes included.
// Staged deletes hide committed entries.
func (s *State) Iterate(r kv.Range, fn func(key, val []byte) bool) error {
	stage := s.Stage()
	staged := make([]string, 0, len(stage.keys))
	for _, key := range stage.keys {
		if inRange(r, key) {
			staged = append(staged, key)
		}
	}
	sort.Strings(staged)

	// emit writes staged keys below limit and reports whether to go on.
	next := 0
	emit := func(limit string, bounded bool) bool {
		for ; next < len(staged) && (!bounded || staged[next] < limit); next++ {
			key := staged[next]
			if val := stage.vals[key]; val != nil && !fn([]byte(key), val) {
				next = len(staged)
				return false
			}
		}
		return true
	}

	stopped := false
	err := s.store.Iterate(r, func(key, val []byte) bool {
		k := string(key)
		if !emit(k, true) {
			stopped = true
			return false
		}
		if next < len(staged) && staged[next] == k {
			next++
			if v := stage.vals[k]; v != nil {
				val = v
			} else {
				return true
			}
		}
		if !fn(key, val) {
			stopped = true
			return false
		}
		return true
	})
	if err != nil {
		return &Error{err}
	}
	if !stopped {
		emit("", false)
	}
	return nil
}

func inRange(r kv.Range, key string) bool {
	if key < string(r.Start) {
		return false
	}
	return len(r.Limit) == 0 || key < string(r.Limit)
}

// Commit writes all staged changes in one batch and starts over with an empty stage.
// It returns the number of keys written.
func (s *State) Commit() (int, error) {
	stage := s.Stage()
	if err := stage.Commit(); err != nil {
		return 0, err
	}
	s.reset()
	return stage.Len(), nil
}
