// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"github.com/pkg/errors"

	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/state"
	"github.com/mixledger/mixledger/storage"
)

const tableDelegations = "delegations"

type Service struct {
	delegations *storage.Mapping[Key, *Delegation]
}

func NewService(st *state.State) *Service {
	return &Service{
		delegations: storage.NewMapping[Key, *Delegation](st, tableDelegations),
	}
}

// MayLoad returns nil if the delegation does not exist.
func (s *Service) MayLoad(key Key) (*Delegation, error) {
	d, err := s.delegations.Get(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get delegation")
	}
	return d, nil
}

func (s *Service) Save(d *Delegation) error {
	if err := s.delegations.Set(d.Key(), d); err != nil {
		return errors.Wrap(err, "failed to set delegation")
	}
	return nil
}

// Replace swaps old for d. The two may live under different keys.
func (s *Service) Replace(d *Delegation, old *Delegation) error {
	if old != nil && old.Key() != d.Key() {
		s.delegations.Delete(old.Key())
	}
	return s.Save(d)
}

func (s *Service) Remove(key Key) {
	s.delegations.Delete(key)
}

// NodeDelegations lists the delegations of a node, starting after
// the given key when it is not nil.
func (s *Service) NodeDelegations(id mix.NodeID, startAfter *Key, limit int) ([]*Delegation, error) {
	var (
		out  []*Delegation
		skip = startAfter != nil
	)
	err := s.delegations.Iterate(id.Bytes(), func(key []byte, d *Delegation) bool {
		if skip {
			if string(key) <= string(startAfter.Bytes()) {
				return true
			}
			skip = false
		}
		out = append(out, d)
		return limit <= 0 || len(out) < limit
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list delegations")
	}
	return out, nil
}
