// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/mixledger/mixledger/decimal"
	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet/bank"
	"github.com/mixledger/mixledger/mixnet/bonds"
	"github.com/mixledger/mixledger/mixnet/delegation"
	"github.com/mixledger/mixledger/mixnet/reverts"
	"github.com/mixledger/mixledger/mixnet/rewarding"
)

var logger = log.New("pkg", "events")

func SetLogger(l log.Logger) {
	logger = l
}

// Executor applies pending events to the ledger.
//
// An error returned by any Execute method is a hard failure: the enclosing
// boundary pass must be reverted. Events that can no longer apply, such as a
// delegation to a node that unbonded meanwhile, are soft failures and are
// reported as success.
type Executor struct {
	bonds       *bonds.Service
	rewarding   *rewarding.Service
	delegations *delegation.Service
	bank        *bank.Service
}

func NewExecutor(
	bonds *bonds.Service,
	rewarding *rewarding.Service,
	delegations *delegation.Service,
	bank *bank.Service,
) *Executor {
	return &Executor{
		bonds:       bonds,
		rewarding:   rewarding,
		delegations: delegations,
		bank:        bank,
	}
}

func (x *Executor) ExecuteEpochEvent(ev PendingEpochEvent, env mix.Env) error {
	switch ev := ev.(type) {
	case *Delegate:
		return x.delegate(ev, env)
	case *Undelegate:
		return x.undelegate(ev)
	case *UnbondMixnode:
		return x.unbondMixnode(ev, env)
	default:
		return reverts.InconsistentState("unknown epoch event %T", ev)
	}
}

func (x *Executor) ExecuteIntervalEvent(ev PendingIntervalEvent, epochsInInterval uint32) error {
	switch ev := ev.(type) {
	case *ChangeCostParams:
		return x.changeCostParams(ev)
	case *UpdateRewardingParams:
		return x.updateRewardingParams(ev, epochsInInterval)
	default:
		return reverts.InconsistentState("unknown interval event %T", ev)
	}
}

// DrainEpochEvents executes every pending epoch event in arrival order and
// returns how many were executed.
func (x *Executor) DrainEpochEvents(q *Queues, env mix.Env) (int, error) {
	start := time.Now()
	n := 0
	for {
		entry, ok, err := q.peekEpochEvent()
		if err != nil {
			return n, err
		}
		if !ok {
			break
		}
		if err := x.ExecuteEpochEvent(entry.Event, env); err != nil {
			metricEventsExecuted().AddWithLabel(1, map[string]string{"kind": entry.Event.Kind().String(), "status": "failed"})
			return n, errors.Wrapf(err, "execute epoch event %d (%s)", entry.ID, entry.Event.Kind())
		}
		if err := q.epoch.Pop(); err != nil {
			return n, err
		}
		metricEventsExecuted().AddWithLabel(1, map[string]string{"kind": entry.Event.Kind().String(), "status": "executed"})
		n++
	}
	metricEventsPerPass().ObserveWithLabels(int64(n), map[string]string{"queue": "epoch"})
	logger.Debug("drained epoch events", "count", n, "elapsed", time.Since(start))
	return n, nil
}

// DrainIntervalEvents executes every pending interval event in arrival order.
func (x *Executor) DrainIntervalEvents(q *Queues, epochsInInterval uint32) (int, error) {
	n := 0
	for {
		entry, ok, err := q.peekIntervalEvent()
		if err != nil {
			return n, err
		}
		if !ok {
			break
		}
		if err := x.ExecuteIntervalEvent(entry.Event, epochsInInterval); err != nil {
			metricEventsExecuted().AddWithLabel(1, map[string]string{"kind": entry.Event.Kind().String(), "status": "failed"})
			return n, errors.Wrapf(err, "execute interval event %d (%s)", entry.ID, entry.Event.Kind())
		}
		if err := q.interval.Pop(); err != nil {
			return n, err
		}
		metricEventsExecuted().AddWithLabel(1, map[string]string{"kind": entry.Event.Kind().String(), "status": "executed"})
		n++
	}
	metricEventsPerPass().ObserveWithLabels(int64(n), map[string]string{"queue": "interval"})
	logger.Debug("drained interval events", "count", n)
	return n, nil
}

func (x *Executor) delegate(ev *Delegate, env mix.Env) error {
	ledger, err := x.rewarding.GetLedger(ev.NodeID)
	if err != nil {
		return err
	}
	bond, err := x.bonds.Get(ev.NodeID)
	if err != nil {
		return err
	}
	// the node may have gone away after the request was accepted
	if ledger == nil || !ledger.StillBonded() || bond == nil || bond.IsUnbonding {
		to, err := x.bank.SendToProxyOrOwner(ev.Proxy, ev.Owner, ev.Amount)
		if err != nil {
			return err
		}
		logger.Debug("mixnode no longer bonded, delegation returned", "mix_id", ev.NodeID, "owner", ev.Owner, "to", to, "amount", ev.Amount)
		return nil
	}

	amount := ev.Amount
	existing, err := x.delegations.MayLoad(delegation.NewKey(ev.NodeID, ev.Owner, ev.Proxy))
	if err != nil {
		return err
	}
	if existing != nil {
		// realise the reward of the existing delegation and fold it into the new one
		reward, err := ledger.DetermineDelegationReward(existing)
		if err != nil {
			return err
		}
		principal, err := existing.DecAmount()
		if err != nil {
			return err
		}
		total, err := principal.Add(reward)
		if err != nil {
			return err
		}
		if err := ledger.RemoveDelegationDecimal(total); err != nil {
			return err
		}
		amount = amount.Add(existing.Amount).Add(rewarding.TruncateReward(reward, amount.Denom))
	}

	if err := ledger.AddBaseDelegation(amount.Amount); err != nil {
		return err
	}
	ledger.UniqueDelegations++

	d := delegation.New(ev.Owner, ev.NodeID, ledger.FullRewardRatio(), amount, env.Height, ev.Proxy)
	if err := x.delegations.Replace(d, existing); err != nil {
		return err
	}
	if err := x.rewarding.SetLedger(ev.NodeID, ledger); err != nil {
		return err
	}
	logger.Debug("delegated", "mix_id", ev.NodeID, "owner", ev.Owner, "amount", amount)
	return nil
}

func (x *Executor) undelegate(ev *Undelegate) error {
	key := delegation.NewKey(ev.NodeID, ev.Owner, ev.Proxy)
	d, err := x.delegations.MayLoad(key)
	if err != nil {
		return err
	}
	if d == nil {
		logger.Debug("nothing to undelegate", "mix_id", ev.NodeID, "owner", ev.Owner)
		return nil
	}
	ledger, err := x.rewarding.GetLedger(ev.NodeID)
	if err != nil {
		return err
	}
	if ledger == nil {
		return reverts.InconsistentState("delegation of %s exists but mixnode %d has no rewarding ledger", ev.Owner, ev.NodeID)
	}

	returned, err := ledger.Undelegate(d)
	if err != nil {
		return err
	}
	x.delegations.Remove(key)
	if ledger.UniqueDelegations == 0 && !ledger.StillBonded() {
		x.rewarding.RemoveLedger(ev.NodeID)
	} else if err := x.rewarding.SetLedger(ev.NodeID, ledger); err != nil {
		return err
	}

	to, err := x.bank.SendToProxyOrOwner(d.Proxy, d.Owner, returned)
	if err != nil {
		return err
	}
	logger.Debug("undelegated", "mix_id", ev.NodeID, "owner", ev.Owner, "to", to, "amount", returned)
	return nil
}

func (x *Executor) unbondMixnode(ev *UnbondMixnode, env mix.Env) error {
	bond, err := x.bonds.Get(ev.NodeID)
	if err != nil {
		return err
	}
	if bond == nil {
		return reverts.InconsistentState("mixnode %d getting unbonded doesn't exist", ev.NodeID)
	}
	if !bond.IsUnbonding {
		return reverts.InconsistentState("mixnode %d getting unbonded was never marked as unbonding", ev.NodeID)
	}
	ledger, err := x.rewarding.GetLedger(ev.NodeID)
	if err != nil {
		return err
	}
	if ledger == nil {
		return reverts.InconsistentState("mixnode %d getting unbonded has no rewarding ledger", ev.NodeID)
	}

	tokens := ledger.OperatorPledgeWithReward(bond.OriginalPledge.Denom)
	to, err := x.bank.SendToProxyOrOwner(bond.Proxy, bond.Owner, tokens)
	if err != nil {
		return err
	}
	if err := x.bonds.Remove(bond, env.Height); err != nil {
		return err
	}

	if ledger.UniqueDelegations == 0 {
		x.rewarding.RemoveLedger(ev.NodeID)
	} else {
		// kept so the remaining delegators can still withdraw
		ledger.Operator = decimal.Zero()
		if err := x.rewarding.SetLedger(ev.NodeID, ledger); err != nil {
			return err
		}
	}
	logger.Debug("unbonded mixnode", "mix_id", ev.NodeID, "owner", bond.Owner, "to", to, "amount", tokens)
	return nil
}

func (x *Executor) changeCostParams(ev *ChangeCostParams) error {
	ledger, err := x.rewarding.GetLedger(ev.NodeID)
	if err != nil {
		return err
	}
	if ledger == nil || !ledger.StillBonded() {
		logger.Debug("mixnode no longer bonded, cost change dropped", "mix_id", ev.NodeID)
		return nil
	}
	ledger.CostParams = ev.NewCosts
	if err := x.rewarding.SetLedger(ev.NodeID, ledger); err != nil {
		return err
	}
	logger.Debug("changed cost params", "mix_id", ev.NodeID,
		"margin", ev.NewCosts.ProfitMarginPercent, "cost", ev.NewCosts.IntervalOperatingCost)
	return nil
}

func (x *Executor) updateRewardingParams(ev *UpdateRewardingParams, epochsInInterval uint32) error {
	params, err := x.rewarding.Params()
	if err != nil {
		return err
	}
	next, err := params.Apply(&ev.Update, epochsInInterval)
	if err != nil {
		return err
	}
	if err := x.rewarding.SetParams(next); err != nil {
		return err
	}
	logger.Debug("updated rewarding params", "rewarded_set_size", next.RewardedSetSize, "active_set_size", next.ActiveSetSize)
	return nil
}
