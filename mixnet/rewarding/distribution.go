// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewarding

import (
	"github.com/mixledger/mixledger/decimal"
	"github.com/mixledger/mixledger/mix"
)

// RewardDistribution is the outcome of splitting one node reward.
type RewardDistribution struct {
	Operator  decimal.Decimal `json:"operator"`
	Delegates decimal.Decimal `json:"delegates"`
}

func (d RewardDistribution) Total() (decimal.Decimal, error) {
	return d.Operator.Add(d.Delegates)
}

// TruncateReward converts a decimal amount into whole minimal units,
// dropping the fraction.
func TruncateReward(reward decimal.Decimal, denom string) mix.Coin {
	return mix.Coin{Amount: reward.Floor(), Denom: denom}
}
