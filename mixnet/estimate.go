// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mixnet

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/mixledger/mixledger/decimal"
	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet/interval"
	"github.com/mixledger/mixledger/mixnet/rewarding"
)

var ErrStakeExceedsSupply = errors.New("pledge plus delegation exceeds the staking supply")

// EstimateRequest describes the hypothetical epoch a node is estimated for.
// Nil fields take the node's current values.
type EstimateRequest struct {
	Performance     decimal.Percent
	Active          *bool
	Pledge          *big.Int
	TotalDelegation *big.Int
}

// RewardEstimate is what a node would earn for one epoch.
type RewardEstimate struct {
	TotalNodeReward decimal.Decimal `json:"total_node_reward"`
	Operator        decimal.Decimal `json:"operator"`
	Delegates       decimal.Decimal `json:"delegates"`
	OperatingCost   decimal.Decimal `json:"operating_cost"`
}

type RewardEstimation struct {
	Estimation   RewardEstimate             `json:"estimation"`
	RewardParams *rewarding.RewardingParams `json:"reward_params"`
	Epoch        *interval.Interval         `json:"epoch"`
}

// EstimateReward computes the reward of the current epoch without crediting
// it. A node outside the rewarded set is estimated at zero unless req forces
// a status. Returns nil if the node is not bonded.
func (m *Mixnet) EstimateReward(id mix.NodeID, req EstimateRequest) (est *RewardEstimation, err error) {
	err = m.view(func() error {
		bond, err := m.bonds.Get(id)
		if err != nil || bond == nil {
			return err
		}
		details, err := m.details(bond)
		if err != nil {
			return err
		}
		params, err := m.rewarding.Params()
		if err != nil {
			return err
		}
		clock, err := m.interval.Current()
		if err != nil {
			return err
		}
		est = &RewardEstimation{
			Estimation: RewardEstimate{
				TotalNodeReward: decimal.Zero(),
				Operator:        decimal.Zero(),
				Delegates:       decimal.Zero(),
				OperatingCost:   decimal.Zero(),
			},
			RewardParams: params,
			Epoch:        clock,
		}

		active := req.Active
		if active == nil {
			set, err := m.interval.RewardedSet()
			if err != nil {
				return err
			}
			status, ok := set.Status(id)
			if !ok {
				return nil
			}
			inActive := status == interval.Active
			active = &inActive
		}

		ledger := details.Rewarding
		if req.Pledge != nil {
			if ledger.Operator, err = decimal.NewFromInt(req.Pledge); err != nil {
				return err
			}
		}
		if req.TotalDelegation != nil {
			if ledger.Delegates, err = decimal.NewFromInt(req.TotalDelegation); err != nil {
				return err
			}
		}
		stake, err := ledger.NodeBond()
		if err != nil {
			return err
		}
		if stake.GreaterThan(params.Interval.StakingSupply) {
			return ErrStakeExceedsSupply
		}

		nodeParams := rewarding.NodeRewardParams{Performance: req.Performance, InActiveSet: *active}
		reward, err := ledger.NodeReward(params, nodeParams)
		if err != nil {
			return err
		}
		dist, err := ledger.DetermineRewardSplit(reward, req.Performance, clock.EpochsInInterval)
		if err != nil {
			return err
		}
		epochCost, err := ledger.CostParams.EpochOperatingCost(clock.EpochsInInterval)
		if err != nil {
			return err
		}
		cost, err := epochCost.Mul(req.Performance.Value())
		if err != nil {
			return err
		}
		est.Estimation = RewardEstimate{
			TotalNodeReward: reward,
			Operator:        dist.Operator,
			Delegates:       dist.Delegates,
			OperatingCost:   cost,
		}
		return nil
	})
	return
}
