// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewarding

import (
	"github.com/pkg/errors"

	"github.com/mixledger/mixledger/decimal"
	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet/reverts"
)

// IntervalRewardParams are the economic parameters fixed for a whole interval.
type IntervalRewardParams struct {
	// RewardPool is what remains to be emitted over all future intervals.
	RewardPool decimal.Decimal `json:"reward_pool" yaml:"reward_pool"`
	// StakingSupply is the amount of tokens considered stakeable.
	StakingSupply decimal.Decimal `json:"staking_supply" yaml:"staking_supply"`
	// StakingSupplyScaleFactor is the part of each interval's distributed rewards
	// added to the staking supply at rollover.
	StakingSupplyScaleFactor decimal.Percent `json:"staking_supply_scale_factor" yaml:"staking_supply_scale_factor"`

	EpochRewardBudget    decimal.Decimal `json:"epoch_reward_budget" yaml:"epoch_reward_budget"`
	StakeSaturationPoint decimal.Decimal `json:"stake_saturation_point" yaml:"stake_saturation_point"`

	// SybilResistance is alpha, the weight given to operator pledge over delegations.
	SybilResistance decimal.Percent `json:"sybil_resistance" yaml:"sybil_resistance"`
	// ActiveSetWorkFactor is how much more work an active node does than a standby one.
	ActiveSetWorkFactor decimal.Decimal `json:"active_set_work_factor" yaml:"active_set_work_factor"`
	// IntervalPoolEmission is the part of the reward pool emitted per interval.
	IntervalPoolEmission decimal.Percent `json:"interval_pool_emission" yaml:"interval_pool_emission"`
}

type RewardingParams struct {
	Interval        IntervalRewardParams `json:"interval" yaml:"interval"`
	RewardedSetSize uint32               `json:"rewarded_set_size" yaml:"rewarded_set_size"`
	ActiveSetSize   uint32               `json:"active_set_size" yaml:"active_set_size"`
}

// InitParams derives the epoch budget and saturation point from the pool and
// supply, as done at every interval rollover.
func InitParams(interval IntervalRewardParams, rewardedSetSize, activeSetSize, epochsInInterval uint32) (*RewardingParams, error) {
	p := &RewardingParams{
		Interval:        interval,
		RewardedSetSize: rewardedSetSize,
		ActiveSetSize:   activeSetSize,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := p.rederive(epochsInInterval); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the set sizes.
func (p *RewardingParams) Validate() error {
	switch {
	case p.ActiveSetSize == 0:
		return reverts.ZeroActiveSet()
	case p.RewardedSetSize == 0:
		return reverts.ZeroRewardedSet()
	case p.ActiveSetSize > p.RewardedSetSize:
		return reverts.InvalidActiveSetSize()
	}
	if p.Interval.ActiveSetWorkFactor.LessThan(decimal.One()) {
		return errors.New("active set work factor can't be lower than 1")
	}
	return nil
}

func (p *RewardingParams) DecRewardedSetSize() decimal.Decimal {
	return decimal.NewFromUint64(uint64(p.RewardedSetSize))
}

func (p *RewardingParams) StandbySetSize() uint32 {
	return p.RewardedSetSize - p.ActiveSetSize
}

// StandbyNodeWork is 1 / (f * k_active + k_standby).
func (p *RewardingParams) StandbyNodeWork() (decimal.Decimal, error) {
	var a decimal.Arith
	f := p.Interval.ActiveSetWorkFactor
	total := a.Add(
		a.Mul(f, decimal.NewFromUint64(uint64(p.ActiveSetSize))),
		decimal.NewFromUint64(uint64(p.StandbySetSize())),
	)
	work := a.Quo(decimal.One(), total)
	return work, a.Err()
}

// ActiveNodeWork is f times the standby work.
func (p *RewardingParams) ActiveNodeWork() (decimal.Decimal, error) {
	standby, err := p.StandbyNodeWork()
	if err != nil {
		return decimal.Zero(), err
	}
	return p.Interval.ActiveSetWorkFactor.Mul(standby)
}

func (p *RewardingParams) rederive(epochsInInterval uint32) error {
	var a decimal.Arith
	ip := &p.Interval
	ip.EpochRewardBudget = a.Mul(
		a.Quo(ip.RewardPool, decimal.NewFromUint64(uint64(epochsInInterval))),
		ip.IntervalPoolEmission.Value(),
	)
	ip.StakeSaturationPoint = a.Quo(ip.StakingSupply, p.DecRewardedSetSize())
	return errors.Wrap(a.Err(), "derive interval params")
}

// ForNextInterval rolls the parameters over once an interval completes.
// distributed is the total reward credited to nodes during the interval.
func (p *RewardingParams) ForNextInterval(distributed decimal.Decimal, epochsInInterval uint32) error {
	pool, err := p.Interval.RewardPool.Sub(distributed)
	if err != nil {
		return reverts.InconsistentState(
			"distributed %s more than the reward pool %s", distributed, p.Interval.RewardPool)
	}
	var a decimal.Arith
	supply := a.Add(p.Interval.StakingSupply, a.Mul(distributed, p.Interval.StakingSupplyScaleFactor.Value()))
	if err := a.Err(); err != nil {
		return errors.Wrap(err, "staking supply")
	}
	p.Interval.RewardPool = pool
	p.Interval.StakingSupply = supply
	return p.rederive(epochsInInterval)
}

// RewardingParamsUpdate changes any subset of the parameters. Budget and
// saturation are always re-derived afterwards.
type RewardingParamsUpdate struct {
	RewardPool               *decimal.Decimal `json:"reward_pool,omitempty" rlp:"nil"`
	StakingSupply            *decimal.Decimal `json:"staking_supply,omitempty" rlp:"nil"`
	StakingSupplyScaleFactor *decimal.Percent `json:"staking_supply_scale_factor,omitempty" rlp:"nil"`
	SybilResistance          *decimal.Percent `json:"sybil_resistance,omitempty" rlp:"nil"`
	ActiveSetWorkFactor      *decimal.Decimal `json:"active_set_work_factor,omitempty" rlp:"nil"`
	IntervalPoolEmission     *decimal.Percent `json:"interval_pool_emission,omitempty" rlp:"nil"`
	RewardedSetSize          *uint32          `json:"rewarded_set_size,omitempty" rlp:"nil"`
	ActiveSetSize            *uint32          `json:"active_set_size,omitempty" rlp:"nil"`
}

func (u *RewardingParamsUpdate) IsEmpty() bool {
	return u.RewardPool == nil &&
		u.StakingSupply == nil &&
		u.StakingSupplyScaleFactor == nil &&
		u.SybilResistance == nil &&
		u.ActiveSetWorkFactor == nil &&
		u.IntervalPoolEmission == nil &&
		u.RewardedSetSize == nil &&
		u.ActiveSetSize == nil
}

// Apply returns the parameters with the update applied, p is left untouched.
func (p *RewardingParams) Apply(u *RewardingParamsUpdate, epochsInInterval uint32) (*RewardingParams, error) {
	if u.IsEmpty() {
		return nil, reverts.EmptyParamsChangeMsg()
	}
	next := *p
	ip := &next.Interval
	if u.RewardPool != nil {
		ip.RewardPool = *u.RewardPool
	}
	if u.StakingSupply != nil {
		ip.StakingSupply = *u.StakingSupply
	}
	if u.StakingSupplyScaleFactor != nil {
		ip.StakingSupplyScaleFactor = *u.StakingSupplyScaleFactor
	}
	if u.SybilResistance != nil {
		ip.SybilResistance = *u.SybilResistance
	}
	if u.ActiveSetWorkFactor != nil {
		ip.ActiveSetWorkFactor = *u.ActiveSetWorkFactor
	}
	if u.IntervalPoolEmission != nil {
		ip.IntervalPoolEmission = *u.IntervalPoolEmission
	}
	if u.RewardedSetSize != nil {
		next.RewardedSetSize = *u.RewardedSetSize
	}
	if u.ActiveSetSize != nil {
		next.ActiveSetSize = *u.ActiveSetSize
	}

	switch {
	case next.RewardedSetSize == 0:
		return nil, reverts.ZeroRewardedSet()
	case next.ActiveSetSize == 0:
		return nil, reverts.ZeroActiveSet()
	case next.ActiveSetSize > next.RewardedSetSize:
		if u.RewardedSetSize != nil && u.ActiveSetSize == nil {
			return nil, reverts.InvalidRewardedSetSize()
		}
		return nil, reverts.InvalidActiveSetSize()
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	if err := next.rederive(epochsInInterval); err != nil {
		return nil, err
	}
	return &next, nil
}

// MixNodeCostParams is what an operator declares about its running costs.
type MixNodeCostParams struct {
	ProfitMarginPercent   decimal.Percent `json:"profit_margin_percent"`
	IntervalOperatingCost mix.Coin        `json:"interval_operating_cost"`
}

// EpochOperatingCost spreads the interval cost evenly over its epochs.
func (c *MixNodeCostParams) EpochOperatingCost(epochsInInterval uint32) (decimal.Decimal, error) {
	cost, err := c.IntervalOperatingCost.Dec()
	if err != nil {
		return decimal.Zero(), err
	}
	return cost.Quo(decimal.NewFromUint64(uint64(epochsInInterval)))
}

// NodeRewardParams is how a node did during the epoch being rewarded.
type NodeRewardParams struct {
	Performance decimal.Percent `json:"performance"`
	InActiveSet bool            `json:"in_active_set"`
}
