// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewarding

import (
	"github.com/pkg/errors"

	"github.com/mixledger/mixledger/decimal"
	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/state"
	"github.com/mixledger/mixledger/storage"
)

const (
	tableLedgers    = "rewarding/ledgers"
	slotParams      = "rewarding/params"
	slotDistributed = "rewarding/distributed"
)

// Service persists the rewarding ledgers and the global rewarding parameters.
type Service struct {
	ledgers     *storage.Mapping[mix.NodeID, *MixNodeRewarding]
	params      *storage.Raw[*RewardingParams]
	distributed *storage.Raw[decimal.Decimal]
}

func NewService(st *state.State) *Service {
	return &Service{
		ledgers:     storage.NewMapping[mix.NodeID, *MixNodeRewarding](st, tableLedgers),
		params:      storage.NewRaw[*RewardingParams](st, slotParams),
		distributed: storage.NewRaw[decimal.Decimal](st, slotDistributed),
	}
}

// GetLedger returns nil if the node has no ledger.
func (s *Service) GetLedger(id mix.NodeID) (*MixNodeRewarding, error) {
	r, err := s.ledgers.Get(id)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get ledger of node %d", id)
	}
	return r, nil
}

func (s *Service) SetLedger(id mix.NodeID, r *MixNodeRewarding) error {
	return errors.Wrapf(s.ledgers.Set(id, r), "failed to set ledger of node %d", id)
}

func (s *Service) RemoveLedger(id mix.NodeID) {
	s.ledgers.Delete(id)
}

func (s *Service) Params() (*RewardingParams, error) {
	p, err := s.params.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get rewarding params")
	}
	if p == nil {
		return nil, errors.New("rewarding params are not initialised")
	}
	return p, nil
}

func (s *Service) SetParams(p *RewardingParams) error {
	return errors.Wrap(s.params.Set(p), "failed to set rewarding params")
}

// Distributed is the total reward credited to nodes in the current interval.
func (s *Service) Distributed() (decimal.Decimal, error) {
	return s.distributed.Get()
}

// AddDistributed accounts a distribution to the current interval.
func (s *Service) AddDistributed(dist RewardDistribution) error {
	cur, err := s.distributed.Get()
	if err != nil {
		return err
	}
	total, err := dist.Total()
	if err != nil {
		return err
	}
	if cur, err = cur.Add(total); err != nil {
		return errors.Wrap(err, "interval distributed")
	}
	return s.distributed.Set(cur)
}

// RollInterval moves the parameters to the next interval and resets the
// distributed counter.
func (s *Service) RollInterval(epochsInInterval uint32) (*RewardingParams, error) {
	p, err := s.Params()
	if err != nil {
		return nil, err
	}
	distributed, err := s.Distributed()
	if err != nil {
		return nil, err
	}
	if err := p.ForNextInterval(distributed, epochsInInterval); err != nil {
		return nil, err
	}
	if err := s.SetParams(p); err != nil {
		return nil, err
	}
	return p, s.distributed.Set(decimal.Zero())
}
