// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewarding

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/mixledger/mixledger/decimal"
	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet/delegation"
	"github.com/mixledger/mixledger/mixnet/reverts"
)

// MixNodeRewarding is the rewarding ledger of a single node.
//
// Delegator rewards are never credited one by one. Instead TotalUnitReward
// grows with every distribution and each delegation catches up with it on
// its own, comparing the index to the ratio it recorded last time.
type MixNodeRewarding struct {
	CostParams MixNodeCostParams `json:"cost_params"`

	// Operator is the pledge plus compounded operator rewards. Zero means the
	// node has unbonded and the ledger only serves remaining delegators.
	Operator decimal.Decimal `json:"operator"`
	// Delegates is the sum of all delegations plus their compounded rewards.
	Delegates decimal.Decimal `json:"delegates"`

	TotalUnitReward decimal.Decimal `json:"total_unit_reward"`
	UnitDelegation  decimal.Decimal `json:"unit_delegation"`

	LastRewardedEpoch mix.FullEpochID `json:"last_rewarded_epoch"`
	UniqueDelegations uint32          `json:"unique_delegations"`
}

func InitialiseNew(costParams MixNodeCostParams, initialPledge mix.Coin, epoch mix.FullEpochID) (*MixNodeRewarding, error) {
	pledge, err := initialPledge.Dec()
	if err != nil {
		return nil, errors.Wrap(err, "initial pledge")
	}
	return &MixNodeRewarding{
		CostParams:        costParams,
		Operator:          pledge,
		Delegates:         decimal.Zero(),
		TotalUnitReward:   decimal.Zero(),
		UnitDelegation:    mix.UnitDelegationBase,
		LastRewardedEpoch: epoch,
	}, nil
}

func (r *MixNodeRewarding) StillBonded() bool {
	return !r.Operator.IsZero()
}

func (r *MixNodeRewarding) NodeBond() (decimal.Decimal, error) {
	return r.Operator.Add(r.Delegates)
}

func (r *MixNodeRewarding) UncappedPledgeSaturation(params *RewardingParams) (decimal.Decimal, error) {
	return r.Operator.Quo(params.Interval.StakeSaturationPoint)
}

func (r *MixNodeRewarding) UncappedBondSaturation(params *RewardingParams) (decimal.Decimal, error) {
	bond, err := r.NodeBond()
	if err != nil {
		return decimal.Zero(), err
	}
	return bond.Quo(params.Interval.StakeSaturationPoint)
}

// PledgeSaturation is the operator's share of the saturation point, never above 1.
func (r *MixNodeRewarding) PledgeSaturation(params *RewardingParams) (decimal.Decimal, error) {
	if r.Operator.GreaterThan(params.Interval.StakeSaturationPoint) {
		return decimal.One(), nil
	}
	return r.UncappedPledgeSaturation(params)
}

// BondSaturation is the node's total stake over the saturation point, never above 1.
func (r *MixNodeRewarding) BondSaturation(params *RewardingParams) (decimal.Decimal, error) {
	bond, err := r.NodeBond()
	if err != nil {
		return decimal.Zero(), err
	}
	if bond.GreaterThan(params.Interval.StakeSaturationPoint) {
		return decimal.One(), nil
	}
	return bond.Quo(params.Interval.StakeSaturationPoint)
}

// NodeReward computes
//
//	budget * performance * bond_saturation * (work + alpha * pledge_saturation / rewarded_set_size) / (1 + alpha)
func (r *MixNodeRewarding) NodeReward(params *RewardingParams, node NodeRewardParams) (decimal.Decimal, error) {
	var (
		work decimal.Decimal
		err  error
	)
	if node.InActiveSet {
		work, err = params.ActiveNodeWork()
	} else {
		work, err = params.StandbyNodeWork()
	}
	if err != nil {
		return decimal.Zero(), errors.Wrap(err, "node work")
	}

	bondSaturation, err := r.BondSaturation(params)
	if err != nil {
		return decimal.Zero(), errors.Wrap(err, "bond saturation")
	}
	pledgeSaturation, err := r.PledgeSaturation(params)
	if err != nil {
		return decimal.Zero(), errors.Wrap(err, "pledge saturation")
	}

	var a decimal.Arith
	alpha := params.Interval.SybilResistance.Value()
	reward := a.Mul(params.Interval.EpochRewardBudget, node.Performance.Value())
	reward = a.Mul(reward, bondSaturation)
	reward = a.Mul(reward, a.Add(work, a.Quo(a.Mul(alpha, pledgeSaturation), params.DecRewardedSetSize())))
	reward = a.Quo(reward, a.Add(decimal.One(), alpha))
	if err := a.Err(); err != nil {
		return decimal.Zero(), errors.Wrap(err, "node reward")
	}
	return reward, nil
}

// DetermineRewardSplit divides the node reward between the operator and the
// delegators. The operator always recovers its operating cost first, scaled
// by performance. If the reward doesn't cover that, the operator takes it all.
func (r *MixNodeRewarding) DetermineRewardSplit(
	nodeReward decimal.Decimal,
	performance decimal.Percent,
	epochsInInterval uint32,
) (RewardDistribution, error) {
	epochCost, err := r.CostParams.EpochOperatingCost(epochsInInterval)
	if err != nil {
		return RewardDistribution{}, errors.Wrap(err, "epoch operating cost")
	}
	nodeCost, err := epochCost.Mul(performance.Value())
	if err != nil {
		return RewardDistribution{}, errors.Wrap(err, "node cost")
	}

	if !nodeReward.GreaterThan(nodeCost) {
		return RewardDistribution{Operator: nodeReward, Delegates: decimal.Zero()}, nil
	}

	var a decimal.Arith
	profit := a.Sub(nodeReward, nodeCost)
	margin := r.CostParams.ProfitMarginPercent.Value()
	operatorShare := a.Quo(r.Operator, a.Add(r.Operator, r.Delegates))

	operator := a.Mul(profit, a.Add(margin, a.Mul(a.Sub(decimal.One(), margin), operatorShare)))
	delegates := a.Sub(profit, operator)
	operatorTotal := a.Add(operator, nodeCost)
	if err := a.Err(); err != nil {
		return RewardDistribution{}, errors.Wrap(err, "reward split")
	}

	if total, err := operatorTotal.Add(delegates); err != nil || !total.Equal(nodeReward) {
		return RewardDistribution{}, reverts.InconsistentState(
			"reward split of %s leaked: operator %s, delegates %s", nodeReward, operatorTotal, delegates)
	}
	return RewardDistribution{Operator: operatorTotal, Delegates: delegates}, nil
}

func (r *MixNodeRewarding) CalculateEpochReward(
	params *RewardingParams,
	node NodeRewardParams,
	epochsInInterval uint32,
) (RewardDistribution, error) {
	reward, err := r.NodeReward(params, node)
	if err != nil {
		return RewardDistribution{}, err
	}
	return r.DetermineRewardSplit(reward, node.Performance, epochsInInterval)
}

// DistributeRewards credits dist to the ledger. The index grows by the reward
// earned by one unit delegation held since epoch 0, that is the unit plus
// everything it already compounded, against the pool before the credit.
func (r *MixNodeRewarding) DistributeRewards(dist RewardDistribution, epoch mix.FullEpochID) error {
	var a decimal.Arith
	share := r.delegatorShare(&a, a.Add(r.UnitDelegation, r.TotalUnitReward))
	unitReward := a.Mul(dist.Delegates, share)
	totalUnitReward := a.Add(r.TotalUnitReward, unitReward)
	operator := a.Add(r.Operator, dist.Operator)
	delegates := a.Add(r.Delegates, dist.Delegates)
	if err := a.Err(); err != nil {
		return errors.Wrap(err, "distribute rewards")
	}

	r.Operator = operator
	r.Delegates = delegates
	r.TotalUnitReward = totalUnitReward
	r.LastRewardedEpoch = epoch
	return nil
}

// EpochRewarding computes and distributes the reward of one epoch.
func (r *MixNodeRewarding) EpochRewarding(
	params *RewardingParams,
	node NodeRewardParams,
	epochsInInterval uint32,
	epoch mix.FullEpochID,
) (RewardDistribution, error) {
	dist, err := r.CalculateEpochReward(params, node, epochsInInterval)
	if err != nil {
		return RewardDistribution{}, err
	}
	if err := r.DistributeRewards(dist, epoch); err != nil {
		return RewardDistribution{}, err
	}
	return dist, nil
}

func (r *MixNodeRewarding) FullRewardRatio() decimal.Decimal {
	return r.TotalUnitReward
}

// DelegatorShare returns amount / delegates, or zero without delegates.
func (r *MixNodeRewarding) DelegatorShare(amount decimal.Decimal) (decimal.Decimal, error) {
	var a decimal.Arith
	share := r.delegatorShare(&a, amount)
	return share, a.Err()
}

func (r *MixNodeRewarding) delegatorShare(a *decimal.Arith, amount decimal.Decimal) decimal.Decimal {
	if r.Delegates.IsZero() {
		return decimal.Zero()
	}
	return a.Quo(amount, r.Delegates)
}

// DetermineDelegationReward computes what d earned since its ratio snapshot:
//
//	(index - ratio) * amount / (ratio + unit delegation)
func (r *MixNodeRewarding) DetermineDelegationReward(d *delegation.Delegation) (decimal.Decimal, error) {
	amount, err := d.DecAmount()
	if err != nil {
		return decimal.Zero(), err
	}
	start := d.CumulativeRewardRatio
	end := r.FullRewardRatio()

	var a decimal.Arith
	reward := a.Quo(a.Mul(a.Sub(end, start), amount), a.Add(start, mix.UnitDelegationBase))
	if err := a.Err(); err != nil {
		return decimal.Zero(), errors.Wrap(err, "delegation reward")
	}
	return reward, nil
}

func (r *MixNodeRewarding) PendingDelegatorReward(d *delegation.Delegation) (mix.Coin, error) {
	reward, err := r.DetermineDelegationReward(d)
	if err != nil {
		return mix.Coin{}, err
	}
	return TruncateReward(reward, d.Amount.Denom), nil
}

func (r *MixNodeRewarding) OperatorPledgeWithReward(denom string) mix.Coin {
	return TruncateReward(r.Operator, denom)
}

func (r *MixNodeRewarding) PendingOperatorReward(originalPledge mix.Coin) (mix.Coin, error) {
	withPledge := r.OperatorPledgeWithReward(originalPledge.Denom)
	reward := new(big.Int).Sub(withPledge.Amount, originalPledge.Amount)
	if reward.Sign() < 0 {
		return mix.Coin{}, reverts.InconsistentState(
			"operator balance %s is below the original pledge %s", r.Operator, originalPledge)
	}
	return mix.Coin{Amount: reward, Denom: originalPledge.Denom}, nil
}

// WithdrawOperatorReward resets the operator balance to the original pledge
// and returns the truncated difference.
func (r *MixNodeRewarding) WithdrawOperatorReward(originalPledge mix.Coin) (mix.Coin, error) {
	initial, err := originalPledge.Dec()
	if err != nil {
		return mix.Coin{}, err
	}
	diff, err := r.Operator.Sub(initial)
	if err != nil {
		// slashing is not modelled, nothing else can take the balance below the pledge
		return mix.Coin{}, reverts.InconsistentState(
			"operator balance %s is below the original pledge %s", r.Operator, originalPledge)
	}
	r.Operator = initial
	return TruncateReward(diff, originalPledge.Denom), nil
}

// WithdrawDelegatorReward realises the reward of d and resets its ratio.
// The sub-unit remainder of the reward stays in the pool.
func (r *MixNodeRewarding) WithdrawDelegatorReward(d *delegation.Delegation) (mix.Coin, error) {
	reward, err := r.DetermineDelegationReward(d)
	if err != nil {
		return mix.Coin{}, err
	}
	if err := r.DecreaseDelegates(reward); err != nil {
		return mix.Coin{}, err
	}
	d.CumulativeRewardRatio = r.FullRewardRatio()
	return TruncateReward(reward, d.Amount.Denom), nil
}

// AddBaseDelegation credits amount of minimal units to the pool.
func (r *MixNodeRewarding) AddBaseDelegation(amount *big.Int) error {
	dec, err := decimal.NewFromInt(amount)
	if err != nil {
		return err
	}
	delegates, err := r.Delegates.Add(dec)
	if err != nil {
		return err
	}
	r.Delegates = delegates
	return nil
}

func (r *MixNodeRewarding) DecreaseDelegates(amount decimal.Decimal) error {
	delegates, err := r.Delegates.Sub(amount)
	if err != nil {
		return reverts.OverflowDecimalSubtraction(r.Delegates, amount)
	}
	r.Delegates = delegates
	return nil
}

func (r *MixNodeRewarding) DecreaseOperator(amount decimal.Decimal) error {
	operator, err := r.Operator.Sub(amount)
	if err != nil {
		return reverts.OverflowDecimalSubtraction(r.Operator, amount)
	}
	r.Operator = operator
	return nil
}

// RemoveDelegationDecimal takes amount, a delegation's principal plus reward,
// out of the pool. When it is the last delegation whatever remains is rounding
// dust; it goes to the operator while the node is bonded and the pool is zeroed.
func (r *MixNodeRewarding) RemoveDelegationDecimal(amount decimal.Decimal) error {
	if r.UniqueDelegations == 0 {
		return reverts.InconsistentState("removing a delegation from a ledger without delegations")
	}
	if amount.GreaterThan(r.Delegates) {
		return reverts.OverflowDecimalSubtraction(r.Delegates, amount)
	}

	if r.UniqueDelegations == 1 {
		if r.StillBonded() {
			dust, err := r.Delegates.Sub(amount)
			if err != nil {
				return reverts.OverflowDecimalSubtraction(r.Delegates, amount)
			}
			operator, err := r.Operator.Add(dust)
			if err != nil {
				return err
			}
			r.Operator = operator
		}
		r.Delegates = decimal.Zero()
	} else if err := r.DecreaseDelegates(amount); err != nil {
		return err
	}
	r.UniqueDelegations--
	return nil
}

// Undelegate removes d from the pool and returns its principal plus the
// truncated reward.
func (r *MixNodeRewarding) Undelegate(d *delegation.Delegation) (mix.Coin, error) {
	reward, err := r.DetermineDelegationReward(d)
	if err != nil {
		return mix.Coin{}, err
	}
	principal, err := d.DecAmount()
	if err != nil {
		return mix.Coin{}, err
	}
	total, err := principal.Add(reward)
	if err != nil {
		return mix.Coin{}, err
	}
	if err := r.RemoveDelegationDecimal(total); err != nil {
		return mix.Coin{}, err
	}
	return d.Amount.Add(TruncateReward(reward, d.Amount.Denom)), nil
}
