// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bonds

import (
	"github.com/pkg/errors"

	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet/reverts"
	"github.com/mixledger/mixledger/state"
	"github.com/mixledger/mixledger/storage"
)

const (
	tableBonds    = "bonds/mixnodes"
	tableOwners   = "bonds/owners"
	tableUnbonded = "bonds/unbonded"
	slotLastID    = "bonds/last-id"
	slotLayers    = "bonds/layers"
)

// Service stores mixnode bonds, indexed by id and by owner.
type Service struct {
	bonds    *storage.Mapping[mix.NodeID, *MixNodeBond]
	owners   *storage.Mapping[mix.Addr, mix.NodeID]
	unbonded *storage.Mapping[mix.NodeID, *UnbondedMixnode]
	lastID   *storage.Counter
	layers   *storage.Raw[LayerDistribution]
}

func New(st *state.State) *Service {
	return &Service{
		bonds:    storage.NewMapping[mix.NodeID, *MixNodeBond](st, tableBonds),
		owners:   storage.NewMapping[mix.Addr, mix.NodeID](st, tableOwners),
		unbonded: storage.NewMapping[mix.NodeID, *UnbondedMixnode](st, tableUnbonded),
		lastID:   storage.NewCounter(st, slotLastID),
		layers:   storage.NewRaw[LayerDistribution](st, slotLayers),
	}
}

// NextID allocates a node id. Ids start at 1 and are never reused.
func (s *Service) NextID() (mix.NodeID, error) {
	id, err := s.lastID.Next()
	if err != nil {
		return 0, errors.Wrap(err, "failed to allocate node id")
	}
	return mix.NodeID(id), nil
}

// Get returns nil if no such bond exists.
func (s *Service) Get(id mix.NodeID) (*MixNodeBond, error) {
	b, err := s.bonds.Get(id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get bond %d", id)
	}
	return b, nil
}

// ByOwner returns nil if owner has no bonded node.
func (s *Service) ByOwner(owner mix.Addr) (*MixNodeBond, error) {
	id, err := s.owners.Get(owner)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get owner index")
	}
	if id == 0 {
		return nil, nil
	}
	b, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, reverts.InconsistentState("owner %s points at missing mixnode %d", owner, id)
	}
	return b, nil
}

// Add stores a new bond and assigns it the least populated layer.
func (s *Service) Add(b *MixNodeBond) error {
	layers, err := s.layers.Get()
	if err != nil {
		return err
	}
	b.Layer = layers.Choose()
	if err := layers.Increment(b.Layer); err != nil {
		return err
	}
	if err := s.layers.Set(layers); err != nil {
		return err
	}
	if err := s.owners.Set(b.Owner, b.ID); err != nil {
		return err
	}
	return s.Save(b)
}

func (s *Service) Save(b *MixNodeBond) error {
	return errors.Wrapf(s.bonds.Set(b.ID, b), "failed to set bond %d", b.ID)
}

// Remove deletes the bond and keeps a record of it having existed.
func (s *Service) Remove(b *MixNodeBond, height uint64) error {
	layers, err := s.layers.Get()
	if err != nil {
		return err
	}
	if err := layers.Decrement(b.Layer); err != nil {
		return reverts.InconsistentState("mixnode %d: %v", b.ID, err)
	}
	if err := s.layers.Set(layers); err != nil {
		return err
	}
	s.bonds.Delete(b.ID)
	s.owners.Delete(b.Owner)
	return s.unbonded.Set(b.ID, &UnbondedMixnode{
		Identity:        b.Identity(),
		Owner:           b.Owner,
		UnbondingHeight: height,
		Proxy:           b.Proxy,
	})
}

// Unbonded returns nil if the node never unbonded.
func (s *Service) Unbonded(id mix.NodeID) (*UnbondedMixnode, error) {
	u, err := s.unbonded.Get(id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get unbonded node %d", id)
	}
	return u, nil
}

func (s *Service) Layers() (LayerDistribution, error) {
	return s.layers.Get()
}

// List returns bonds in id order, starting after the given id.
func (s *Service) List(startAfter mix.NodeID, limit int) ([]*MixNodeBond, error) {
	var out []*MixNodeBond
	err := s.bonds.Iterate(nil, func(_ []byte, b *MixNodeBond) bool {
		if b.ID <= startAfter {
			return true
		}
		out = append(out, b)
		return limit <= 0 || len(out) < limit
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list bonds")
	}
	return out, nil
}
