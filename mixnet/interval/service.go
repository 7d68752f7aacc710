// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package interval

import (
	"github.com/pkg/errors"

	"github.com/mixledger/mixledger/state"
	"github.com/mixledger/mixledger/storage"
)

type Service struct {
	current     *storage.Raw[*Interval]
	rewardedSet *storage.Raw[RewardedSet]
}

func NewService(st *state.State) *Service {
	return &Service{
		current:     storage.NewRaw[*Interval](st, "interval/current"),
		rewardedSet: storage.NewRaw[RewardedSet](st, "interval/rewarded-set"),
	}
}

func (s *Service) Current() (*Interval, error) {
	i, err := s.current.Get()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get interval")
	}
	if i == nil {
		return nil, errors.New("interval is not initialised")
	}
	return i, nil
}

// IsInitialised reports whether the clock was ever started.
func (s *Service) IsInitialised() (bool, error) {
	i, err := s.current.Get()
	return i != nil, errors.Wrap(err, "failed to get interval")
}

func (s *Service) SetCurrent(i *Interval) error {
	return errors.Wrap(s.current.Set(i), "failed to set interval")
}

func (s *Service) RewardedSet() (RewardedSet, error) {
	set, err := s.rewardedSet.Get()
	return set, errors.Wrap(err, "failed to get rewarded set")
}

func (s *Service) SetRewardedSet(set RewardedSet) error {
	return errors.Wrap(s.rewardedSet.Set(set), "failed to set rewarded set")
}
