// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mixnet

import (
	"math/big"

	"github.com/mixledger/mixledger/decimal"
	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet/bonds"
	"github.com/mixledger/mixledger/mixnet/delegation"
	"github.com/mixledger/mixledger/mixnet/events"
	"github.com/mixledger/mixledger/mixnet/reverts"
	"github.com/mixledger/mixledger/mixnet/rewarding"
	"github.com/mixledger/mixledger/storage"
)

var (
	minimumPledge     = big.NewInt(mix.MinimumPledge)
	minimumDelegation = big.NewInt(mix.MinimumDelegation)
)

// BondMixnode bonds a new mixnode owned by owner and returns its id. The
// pledge is attached to the request. The node takes part in rewarding from
// the next epoch on.
func (m *Mixnet) BondMixnode(
	owner mix.Addr,
	proxy *mix.Addr,
	node bonds.MixNode,
	costs rewarding.MixNodeCostParams,
	pledge mix.Coin,
	env mix.Env,
) (id mix.NodeID, err error) {
	proxy = normaliseProxy(proxy)
	logger.Debug("bonding mixnode", "owner", owner, "identity", node.IdentityKey, "pledge", pledge)
	defer func() { observeTx("bond_mixnode", err) }()

	err = m.atomic(func() error {
		denom, err := m.rewardingDenom()
		if err != nil {
			return err
		}
		if pledge.Denom != denom {
			return reverts.WrongDenom(pledge.Denom, denom)
		}
		if pledge.Amount == nil || pledge.Amount.Cmp(minimumPledge) < 0 {
			return reverts.InsufficientPledge(pledge, mix.Coin{Amount: minimumPledge, Denom: denom})
		}
		if costs, err = normaliseCosts(costs, denom); err != nil {
			return err
		}

		existing, err := m.bonds.ByOwner(owner)
		if err != nil {
			return err
		}
		if existing != nil {
			return reverts.AlreadyOwnsMixnode(owner, existing.ID)
		}

		clock, err := m.interval.Current()
		if err != nil {
			return err
		}
		if id, err = m.bonds.NextID(); err != nil {
			return err
		}
		ledger, err := rewarding.InitialiseNew(costs, pledge, clock.CurrentFullEpochID())
		if err != nil {
			return err
		}
		bond := &bonds.MixNodeBond{
			ID:             id,
			Owner:          owner,
			OriginalPledge: pledge,
			MixNode:        node,
			BondingHeight:  env.Height,
			Proxy:          proxy,
		}
		if err := m.bonds.Add(bond); err != nil {
			return err
		}
		return m.rewarding.SetLedger(id, ledger)
	})
	if err != nil {
		logger.Info("bond mixnode failed", "owner", owner, "error", err)
		return 0, err
	}
	logger.Info("bonded mixnode", "mix_id", id, "owner", owner)
	return id, nil
}

// UnbondMixnode marks the owner's node as unbonding. The pledge and operator
// rewards are returned when the current epoch ends.
func (m *Mixnet) UnbondMixnode(owner mix.Addr, proxy *mix.Addr) (err error) {
	proxy = normaliseProxy(proxy)
	logger.Debug("unbonding mixnode", "owner", owner)
	defer func() { observeTx("unbond_mixnode", err) }()

	err = m.atomic(func() error {
		bond, err := m.ownedBond(owner, proxy)
		if err != nil {
			return err
		}
		bond.IsUnbonding = true
		if err := m.bonds.Save(bond); err != nil {
			return err
		}
		_, err = m.queues.PushEpochEvent(&events.UnbondMixnode{NodeID: bond.ID})
		return err
	})
	if err != nil {
		logger.Info("unbond mixnode failed", "owner", owner, "error", err)
		return err
	}
	logger.Info("mixnode is unbonding", "owner", owner)
	return nil
}

// UpdateCostParams changes the node's costs from the next interval on.
func (m *Mixnet) UpdateCostParams(owner mix.Addr, proxy *mix.Addr, costs rewarding.MixNodeCostParams) (err error) {
	proxy = normaliseProxy(proxy)
	logger.Debug("updating cost params", "owner", owner, "margin", costs.ProfitMarginPercent, "cost", costs.IntervalOperatingCost)
	defer func() { observeTx("update_cost_params", err) }()

	err = m.atomic(func() error {
		bond, err := m.ownedBond(owner, proxy)
		if err != nil {
			return err
		}
		denom, err := m.rewardingDenom()
		if err != nil {
			return err
		}
		if costs, err = normaliseCosts(costs, denom); err != nil {
			return err
		}
		_, err = m.queues.PushIntervalEvent(&events.ChangeCostParams{NodeID: bond.ID, NewCosts: costs})
		return err
	})
	if err != nil {
		logger.Info("update cost params failed", "owner", owner, "error", err)
	}
	return err
}

// Delegate stakes amount on a node on behalf of owner. The delegation is
// created when the current epoch ends.
func (m *Mixnet) Delegate(owner mix.Addr, id mix.NodeID, amount mix.Coin, proxy *mix.Addr) (err error) {
	proxy = normaliseProxy(proxy)
	logger.Debug("delegating", "owner", owner, "mix_id", id, "amount", amount)
	defer func() { observeTx("delegate", err) }()

	err = m.atomic(func() error {
		denom, err := m.rewardingDenom()
		if err != nil {
			return err
		}
		if amount.IsZero() {
			return reverts.EmptyDelegation()
		}
		if amount.Denom != denom {
			return reverts.WrongDenom(amount.Denom, denom)
		}
		if amount.Amount.Cmp(minimumDelegation) < 0 {
			return reverts.InsufficientDelegation(amount, mix.Coin{Amount: minimumDelegation, Denom: denom})
		}

		bond, err := m.bonds.Get(id)
		if err != nil {
			return err
		}
		if bond == nil {
			unbonded, err := m.bonds.Unbonded(id)
			if err != nil {
				return err
			}
			if unbonded != nil {
				return reverts.MixnodeHasUnbonded(id)
			}
			return reverts.MixNodeBondNotFound(id)
		}
		if bond.IsUnbonding {
			return reverts.MixnodeIsUnbonding(id)
		}
		_, err = m.queues.PushEpochEvent(&events.Delegate{Owner: owner, NodeID: id, Amount: amount, Proxy: proxy})
		return err
	})
	if err != nil {
		logger.Info("delegate failed", "owner", owner, "mix_id", id, "error", err)
	}
	return err
}

// Undelegate removes the owner's delegation when the current epoch ends.
func (m *Mixnet) Undelegate(owner mix.Addr, id mix.NodeID, proxy *mix.Addr) (err error) {
	proxy = normaliseProxy(proxy)
	logger.Debug("undelegating", "owner", owner, "mix_id", id)
	defer func() { observeTx("undelegate", err) }()

	err = m.atomic(func() error {
		if _, err := m.existingDelegation(owner, id, proxy); err != nil {
			return err
		}
		_, err := m.queues.PushEpochEvent(&events.Undelegate{Owner: owner, NodeID: id, Proxy: proxy})
		return err
	})
	if err != nil {
		logger.Info("undelegate failed", "owner", owner, "mix_id", id, "error", err)
	}
	return err
}

// WithdrawOperatorReward pays out everything the operator earned on top of
// the original pledge.
func (m *Mixnet) WithdrawOperatorReward(owner mix.Addr, proxy *mix.Addr) (reward mix.Coin, err error) {
	proxy = normaliseProxy(proxy)
	logger.Debug("withdrawing operator reward", "owner", owner)
	defer func() { observeTx("withdraw_operator_reward", err) }()

	err = m.atomic(func() error {
		bond, err := m.ownedBond(owner, proxy)
		if err != nil {
			return err
		}
		ledger, err := m.existingLedger(bond.ID)
		if err != nil {
			return err
		}
		if reward, err = ledger.WithdrawOperatorReward(bond.OriginalPledge); err != nil {
			return err
		}
		if reward.IsZero() {
			return reverts.NoRewardsToClaim(bond.ID, owner)
		}
		if err := m.rewarding.SetLedger(bond.ID, ledger); err != nil {
			return err
		}
		_, err = m.bank.SendToProxyOrOwner(bond.Proxy, bond.Owner, reward)
		return err
	})
	if err != nil {
		logger.Info("withdraw operator reward failed", "owner", owner, "error", err)
		return mix.Coin{}, err
	}
	logger.Info("withdrew operator reward", "owner", owner, "reward", reward)
	return reward, nil
}

// WithdrawDelegatorReward pays out what the delegation earned so far. The
// principal stays delegated.
func (m *Mixnet) WithdrawDelegatorReward(owner mix.Addr, id mix.NodeID, proxy *mix.Addr) (reward mix.Coin, err error) {
	proxy = normaliseProxy(proxy)
	logger.Debug("withdrawing delegator reward", "owner", owner, "mix_id", id)
	defer func() { observeTx("withdraw_delegator_reward", err) }()

	err = m.atomic(func() error {
		d, err := m.existingDelegation(owner, id, proxy)
		if err != nil {
			return err
		}
		ledger, err := m.existingLedger(id)
		if err != nil {
			return err
		}
		if reward, err = ledger.WithdrawDelegatorReward(d); err != nil {
			return err
		}
		if reward.IsZero() {
			return reverts.NoRewardsToClaim(id, owner)
		}
		if err := m.delegations.Save(d); err != nil {
			return err
		}
		if err := m.rewarding.SetLedger(id, ledger); err != nil {
			return err
		}
		_, err = m.bank.SendToProxyOrOwner(d.Proxy, d.Owner, reward)
		return err
	})
	if err != nil {
		logger.Info("withdraw delegator reward failed", "owner", owner, "mix_id", id, "error", err)
		return mix.Coin{}, err
	}
	logger.Info("withdrew delegator reward", "owner", owner, "mix_id", id, "reward", reward)
	return reward, nil
}

// UpdateRewardingParams validates update against the current parameters and
// applies it when the current interval ends.
func (m *Mixnet) UpdateRewardingParams(update rewarding.RewardingParamsUpdate) (id storage.QueueID, err error) {
	defer func() { observeTx("update_rewarding_params", err) }()

	err = m.atomic(func() error {
		params, err := m.rewarding.Params()
		if err != nil {
			return err
		}
		clock, err := m.interval.Current()
		if err != nil {
			return err
		}
		if _, err := params.Apply(&update, clock.EpochsInInterval); err != nil {
			return err
		}
		id, err = m.queues.PushIntervalEvent(&events.UpdateRewardingParams{Update: update})
		return err
	})
	if err != nil {
		logger.Info("update rewarding params failed", "error", err)
	}
	return id, err
}

// ownedBond returns the bond of owner, which must have been created through
// proxy and must not be unbonding.
func (m *Mixnet) ownedBond(owner mix.Addr, proxy *mix.Addr) (*bonds.MixNodeBond, error) {
	bond, err := m.bonds.ByOwner(owner)
	if err != nil {
		return nil, err
	}
	if bond == nil {
		return nil, reverts.NoAssociatedMixNodeBond(owner)
	}
	if err := bond.CheckProxy(proxy); err != nil {
		return nil, err
	}
	if bond.IsUnbonding {
		return nil, reverts.MixnodeIsUnbonding(bond.ID)
	}
	return bond, nil
}

func (m *Mixnet) existingDelegation(owner mix.Addr, id mix.NodeID, proxy *mix.Addr) (*delegation.Delegation, error) {
	d, err := m.delegations.MayLoad(delegation.NewKey(id, owner, proxy))
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, reverts.NoMixnodeDelegationFound(id, owner, proxy)
	}
	return d, nil
}

func (m *Mixnet) existingLedger(id mix.NodeID) (*rewarding.MixNodeRewarding, error) {
	ledger, err := m.rewarding.GetLedger(id)
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		return nil, reverts.InconsistentState("rewarding ledger of mixnode %d is missing", id)
	}
	return ledger, nil
}

// normaliseProxy treats an empty proxy as no proxy.
func normaliseProxy(proxy *mix.Addr) *mix.Addr {
	if proxy == nil || *proxy == "" {
		return nil
	}
	return proxy
}

// normaliseCosts rejects a margin above 100% and tags a zero operating cost with denom.
// Any other denomination is rejected.
func normaliseCosts(costs rewarding.MixNodeCostParams, denom string) (rewarding.MixNodeCostParams, error) {
	if costs.ProfitMarginPercent.Value().GreaterThan(decimal.One()) {
		return costs, reverts.InvalidPercent()
	}
	cost := costs.IntervalOperatingCost
	if cost.Amount == nil {
		cost.Amount = new(big.Int)
	}
	if cost.Denom == "" && cost.IsZero() {
		cost.Denom = denom
	}
	if cost.Denom != denom {
		return costs, reverts.WrongDenom(cost.Denom, denom)
	}
	costs.IntervalOperatingCost = cost
	return costs, nil
}
