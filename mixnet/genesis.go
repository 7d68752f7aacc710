// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mixnet

import (
	"time"

	"github.com/pkg/errors"

	"github.com/mixledger/mixledger/decimal"
	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet/rewarding"
)

// Genesis holds the parameters the ledger starts from.
type Genesis struct {
	Denom            string                         `yaml:"denom"`
	EpochsInInterval uint32                         `yaml:"epochs_in_interval"`
	EpochLength      time.Duration                  `yaml:"epoch_length"`
	RewardedSetSize  uint32                         `yaml:"rewarded_set_size"`
	ActiveSetSize    uint32                         `yaml:"active_set_size"`
	Rewarding        rewarding.IntervalRewardParams `yaml:"rewarding"`
}

// DefaultGenesis returns hourly epochs and 30 day intervals.
func DefaultGenesis() *Genesis {
	return &Genesis{
		Denom:            mix.DefaultDenom,
		EpochsInInterval: 720,
		EpochLength:      time.Hour,
		RewardedSetSize:  240,
		ActiveSetSize:    100,
		Rewarding: rewarding.IntervalRewardParams{
			RewardPool:               decimal.MustFromString("250000000000000"),
			StakingSupply:            decimal.MustFromString("100000000000000"),
			StakingSupplyScaleFactor: decimal.MustPercent("0.5"),
			SybilResistance:          decimal.MustPercent("0.3"),
			ActiveSetWorkFactor:      decimal.NewFromUint64(10),
			IntervalPoolEmission:     decimal.MustPercent("0.02"),
		},
	}
}

func (g *Genesis) Validate() error {
	if g.Denom == "" {
		return errors.New("denom is required")
	}
	if g.EpochLength < time.Second {
		return errors.Errorf("epoch length %s is below one second", g.EpochLength)
	}
	if g.EpochsInInterval == 0 {
		return errors.New("epochs in interval must be positive")
	}
	return nil
}
