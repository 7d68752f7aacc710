// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package storage

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/mixledger/mixledger/state"
)

// Raw is a single named record.
type Raw[V any] struct {
	state *state.State
	key   []byte
}

func NewRaw[V any](st *state.State, name string) *Raw[V] {
	return &Raw[V]{state: st, key: []byte(name)}
}

// Get returns the zero value of V if the record was never set.
func (r *Raw[V]) Get() (value V, err error) {
	raw, err := r.state.Get(r.key)
	if err != nil || len(raw) == 0 {
		return value, err
	}
	if err := rlp.DecodeBytes(raw, &value); err != nil {
		return value, errors.Wrapf(err, "decode %s", r.key)
	}
	return value, nil
}

func (r *Raw[V]) Set(value V) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return errors.Wrapf(err, "encode %s", r.key)
	}
	r.state.Put(r.key, raw)
	return nil
}

// Counter is a persisted monotonically increasing number.
type Counter struct {
	raw *Raw[uint64]
}

func NewCounter(st *state.State, name string) *Counter {
	return &Counter{NewRaw[uint64](st, name)}
}

func (c *Counter) Get() (uint64, error) {
	return c.raw.Get()
}

// Next increments the counter and returns the new value.
func (c *Counter) Next() (uint64, error) {
	v, err := c.raw.Get()
	if err != nil {
		return 0, err
	}
	v++
	return v, c.raw.Set(v)
}
