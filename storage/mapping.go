// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package storage provides typed, rlp encoded records on top of a staged state.
package storage

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/mixledger/mixledger/kv"
	"github.com/mixledger/mixledger/state"
)

type Key interface {
	Bytes() []byte
}

// Mapping is a key/value table of records sharing a name prefix.
// Key bytes are appended to the prefix as is, so keys with a common
// leading part are stored next to each other.
type Mapping[K Key, V any] struct {
	state  *state.State
	bucket kv.Bucket
}

func NewMapping[K Key, V any](st *state.State, name string) *Mapping[K, V] {
	return &Mapping[K, V]{state: st, bucket: kv.Bucket(name + "/")}
}

// Get returns the zero value of V if the key is absent.
func (m *Mapping[K, V]) Get(key K) (value V, err error) {
	raw, err := m.state.Get(m.bucket.Key(key.Bytes()))
	if err != nil {
		return value, err
	}
	if len(raw) == 0 {
		return value, nil
	}
	if err := rlp.DecodeBytes(raw, &value); err != nil {
		return value, errors.Wrapf(err, "decode %s", m.bucket)
	}
	return value, nil
}

func (m *Mapping[K, V]) Has(key K) (bool, error) {
	raw, err := m.state.Get(m.bucket.Key(key.Bytes()))
	if err != nil {
		return false, err
	}
	return len(raw) > 0, nil
}

func (m *Mapping[K, V]) Set(key K, value V) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return errors.Wrapf(err, "encode %s", m.bucket)
	}
	m.state.Put(m.bucket.Key(key.Bytes()), raw)
	return nil
}

func (m *Mapping[K, V]) Delete(key K) {
	m.state.Delete(m.bucket.Key(key.Bytes()))
}

// Iterate traverses records whose key starts with prefix, in key order, staged changes included.
// The key passed to fn has the table name stripped.
func (m *Mapping[K, V]) Iterate(prefix []byte, fn func(key []byte, value V) bool) error {
	var derr error
	err := m.state.Iterate(kv.PrefixRange(m.bucket.Key(prefix)), func(k, raw []byte) bool {
		var value V
		if derr = rlp.DecodeBytes(raw, &value); derr != nil {
			return false
		}
		return fn(k[len(m.bucket):], value)
	})
	if err != nil {
		return err
	}
	return errors.Wrapf(derr, "decode %s", m.bucket)
}
