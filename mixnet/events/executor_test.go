// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mixledger/mixledger/decimal"
	"github.com/mixledger/mixledger/lvldb"
	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet/bank"
	"github.com/mixledger/mixledger/mixnet/bonds"
	"github.com/mixledger/mixledger/mixnet/delegation"
	"github.com/mixledger/mixledger/mixnet/reverts"
	"github.com/mixledger/mixledger/mixnet/rewarding"
	"github.com/mixledger/mixledger/state"
)

const epochs = 720

type fixture struct {
	st          *state.State
	bonds       *bonds.Service
	rewarding   *rewarding.Service
	delegations *delegation.Service
	bank        *bank.Service
	queues      *Queues
	exec        *Executor
}

func newFixture(t *testing.T) *fixture {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := state.New(db, nil)
	f := &fixture{
		st:          st,
		bonds:       bonds.New(st),
		rewarding:   rewarding.NewService(st),
		delegations: delegation.NewService(st),
		bank:        bank.New(st),
		queues:      NewQueues(st),
	}
	f.exec = NewExecutor(f.bonds, f.rewarding, f.delegations, f.bank)

	params, err := rewarding.InitParams(rewarding.IntervalRewardParams{
		RewardPool:               decimal.MustFromString("250000000000000"),
		StakingSupply:            decimal.MustFromString("100000000000000"),
		StakingSupplyScaleFactor: decimal.MustPercent("0.5"),
		SybilResistance:          decimal.MustPercent("0.3"),
		ActiveSetWorkFactor:      decimal.NewFromUint64(10),
		IntervalPoolEmission:     decimal.MustPercent("0.02"),
	}, 240, 100, epochs)
	require.NoError(t, err)
	require.NoError(t, f.rewarding.SetParams(params))
	return f
}

func (f *fixture) bond(t *testing.T, owner mix.Addr) mix.NodeID {
	id, err := f.bonds.NextID()
	require.NoError(t, err)
	pledge := mix.NewCoin(100_000_000_000, mix.DefaultDenom)
	require.NoError(t, f.bonds.Add(&bonds.MixNodeBond{ID: id, Owner: owner, OriginalPledge: pledge}))

	ledger, err := rewarding.InitialiseNew(rewarding.MixNodeCostParams{
		ProfitMarginPercent:   decimal.MustPercent("0.1"),
		IntervalOperatingCost: mix.NewCoin(40_000_000, mix.DefaultDenom),
	}, pledge, 0)
	require.NoError(t, err)
	require.NoError(t, f.rewarding.SetLedger(id, ledger))
	return id
}

func (f *fixture) ledger(t *testing.T, id mix.NodeID) *rewarding.MixNodeRewarding {
	l, err := f.rewarding.GetLedger(id)
	require.NoError(t, err)
	return l
}

func (f *fixture) balance(t *testing.T, addr mix.Addr) string {
	b, err := f.bank.Balance(addr, mix.DefaultDenom)
	require.NoError(t, err)
	return b.Amount.String()
}

func (f *fixture) rewardEpoch(t *testing.T, id mix.NodeID, epoch mix.FullEpochID) {
	params, err := f.rewarding.Params()
	require.NoError(t, err)
	l := f.ledger(t, id)
	_, err = l.EpochRewarding(params, rewarding.NodeRewardParams{Performance: decimal.MustPercent("1"), InActiveSet: true}, epochs, epoch)
	require.NoError(t, err)
	require.NoError(t, f.rewarding.SetLedger(id, l))
}

var env = mix.Env{Height: 100, Time: 1000}

func coin(amount uint64) mix.Coin {
	return mix.NewCoin(amount, mix.DefaultDenom)
}

func TestQueueOrderAndEncoding(t *testing.T) {
	f := newFixture(t)
	vesting := mix.Addr("vesting")

	_, err := f.queues.PushEpochEvent(&Delegate{Owner: "alice", NodeID: 1, Amount: coin(10), Proxy: &vesting})
	require.NoError(t, err)
	_, err = f.queues.PushEpochEvent(&Undelegate{Owner: "bob", NodeID: 2})
	require.NoError(t, err)
	_, err = f.queues.PushEpochEvent(&UnbondMixnode{NodeID: 3})
	require.NoError(t, err)

	margin := decimal.MustPercent("0.2")
	size := uint32(300)
	_, err = f.queues.PushIntervalEvent(&ChangeCostParams{NodeID: 1, NewCosts: rewarding.MixNodeCostParams{
		ProfitMarginPercent:   margin,
		IntervalOperatingCost: coin(5),
	}})
	require.NoError(t, err)
	_, err = f.queues.PushIntervalEvent(&UpdateRewardingParams{Update: rewarding.RewardingParamsUpdate{RewardedSetSize: &size}})
	require.NoError(t, err)

	list, err := f.queues.EpochEvents(0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, e := range list {
		assert.EqualValues(t, i, e.ID)
	}
	d, ok := list[0].Event.(*Delegate)
	require.True(t, ok)
	assert.Equal(t, mix.Addr("alice"), d.Owner)
	assert.Equal(t, "10unym", d.Amount.String())
	require.NotNil(t, d.Proxy)
	assert.Equal(t, vesting, *d.Proxy)

	u, ok := list[1].Event.(*Undelegate)
	require.True(t, ok)
	assert.Nil(t, u.Proxy)
	assert.Equal(t, KindUnbondMixnode, list[2].Event.Kind())

	limited, err := f.queues.EpochEvents(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	intervals, err := f.queues.IntervalEvents(0)
	require.NoError(t, err)
	require.Len(t, intervals, 2)
	c, ok := intervals[0].Event.(*ChangeCostParams)
	require.True(t, ok)
	assert.Equal(t, "0.2", c.NewCosts.ProfitMarginPercent.String())
	p, ok := intervals[1].Event.(*UpdateRewardingParams)
	require.True(t, ok)
	require.NotNil(t, p.Update.RewardedSetSize)
	assert.Equal(t, uint32(300), *p.Update.RewardedSetSize)
	assert.Nil(t, p.Update.ActiveSetSize)
	assert.Nil(t, p.Update.RewardPool)
}

func TestDelegateToGoneNodeIsRefunded(t *testing.T) {
	f := newFixture(t)
	vesting := mix.Addr("vesting")

	require.NoError(t, f.exec.ExecuteEpochEvent(&Delegate{Owner: "alice", NodeID: 7, Amount: coin(500), Proxy: &vesting}, env))
	assert.Equal(t, "500", f.balance(t, vesting))
	assert.Equal(t, "0", f.balance(t, "alice"))

	d, err := f.delegations.MayLoad(delegation.NewKey(7, "alice", &vesting))
	require.NoError(t, err)
	assert.Nil(t, d)

	// unbonding nodes take no new delegations either
	id := f.bond(t, "operator")
	b, err := f.bonds.Get(id)
	require.NoError(t, err)
	b.IsUnbonding = true
	require.NoError(t, f.bonds.Save(b))

	require.NoError(t, f.exec.ExecuteEpochEvent(&Delegate{Owner: "alice", NodeID: id, Amount: coin(30)}, env))
	assert.Equal(t, "30", f.balance(t, "alice"))
	assert.True(t, f.ledger(t, id).Delegates.IsZero())
}

func TestDelegateFoldsExistingDelegation(t *testing.T) {
	f := newFixture(t)
	id := f.bond(t, "operator")

	require.NoError(t, f.exec.ExecuteEpochEvent(&Delegate{Owner: "alice", NodeID: id, Amount: coin(50_000_000_000)}, env))
	l := f.ledger(t, id)
	assert.Equal(t, "50000000000", l.Delegates.String())
	assert.Equal(t, uint32(1), l.UniqueDelegations)

	f.rewardEpoch(t, id, 1)
	l = f.ledger(t, id)
	key := delegation.NewKey(id, "alice", nil)
	existing, err := f.delegations.MayLoad(key)
	require.NoError(t, err)
	pending, err := l.PendingDelegatorReward(existing)
	require.NoError(t, err)
	require.True(t, pending.Amount.Sign() > 0)

	require.NoError(t, f.exec.ExecuteEpochEvent(&Delegate{Owner: "alice", NodeID: id, Amount: coin(1_000)}, mix.Env{Height: 200}))

	d, err := f.delegations.MayLoad(key)
	require.NoError(t, err)
	require.NotNil(t, d)
	expected := coin(50_000_001_000).Add(pending)
	assert.Equal(t, expected.String(), d.Amount.String())
	assert.Equal(t, uint64(200), d.Height)

	l = f.ledger(t, id)
	assert.Equal(t, uint32(1), l.UniqueDelegations)
	assert.True(t, d.CumulativeRewardRatio.Equal(l.TotalUnitReward))
	// the pool is exactly the new principal, dust went to the operator
	assert.Equal(t, expected.Amount.String(), l.Delegates.String())
}

func TestUndelegate(t *testing.T) {
	f := newFixture(t)
	id := f.bond(t, "operator")
	vesting := mix.Addr("vesting")

	require.NoError(t, f.exec.ExecuteEpochEvent(&Undelegate{Owner: "alice", NodeID: id}, env))

	require.NoError(t, f.exec.ExecuteEpochEvent(&Delegate{Owner: "alice", NodeID: id, Amount: coin(20_000), Proxy: &vesting}, env))
	require.NoError(t, f.exec.ExecuteEpochEvent(&Delegate{Owner: "bob", NodeID: id, Amount: coin(30_000)}, env))
	f.rewardEpoch(t, id, 1)

	d, err := f.delegations.MayLoad(delegation.NewKey(id, "alice", &vesting))
	require.NoError(t, err)
	pending, err := f.ledger(t, id).PendingDelegatorReward(d)
	require.NoError(t, err)

	require.NoError(t, f.exec.ExecuteEpochEvent(&Undelegate{Owner: "alice", NodeID: id, Proxy: &vesting}, env))
	assert.Equal(t, coin(20_000).Add(pending).Amount.String(), f.balance(t, vesting))

	d, err = f.delegations.MayLoad(delegation.NewKey(id, "alice", &vesting))
	require.NoError(t, err)
	assert.Nil(t, d)
	assert.Equal(t, uint32(1), f.ledger(t, id).UniqueDelegations)
}

func TestUndelegateWithoutLedgerIsFatal(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.delegations.Save(delegation.New("alice", 9, decimal.Zero(), coin(1), 1, nil)))

	err := f.exec.ExecuteEpochEvent(&Undelegate{Owner: "alice", NodeID: 9}, env)
	assert.True(t, reverts.IsFatal(err))
}

func TestUnbondMixnode(t *testing.T) {
	t.Run("without delegations", func(t *testing.T) {
		f := newFixture(t)
		id := f.bond(t, "operator")
		f.rewardEpoch(t, id, 1)
		expected := f.ledger(t, id).OperatorPledgeWithReward(mix.DefaultDenom)

		b, err := f.bonds.Get(id)
		require.NoError(t, err)
		b.IsUnbonding = true
		require.NoError(t, f.bonds.Save(b))

		require.NoError(t, f.exec.ExecuteEpochEvent(&UnbondMixnode{NodeID: id}, env))
		assert.Equal(t, expected.Amount.String(), f.balance(t, "operator"))
		assert.Nil(t, f.ledger(t, id))

		b, err = f.bonds.Get(id)
		require.NoError(t, err)
		assert.Nil(t, b)
		u, err := f.bonds.Unbonded(id)
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.Equal(t, env.Height, u.UnbondingHeight)
	})

	t.Run("delegators keep the ledger", func(t *testing.T) {
		f := newFixture(t)
		id := f.bond(t, "operator")
		require.NoError(t, f.exec.ExecuteEpochEvent(&Delegate{Owner: "alice", NodeID: id, Amount: coin(10_000)}, env))
		f.rewardEpoch(t, id, 1)

		b, err := f.bonds.Get(id)
		require.NoError(t, err)
		b.IsUnbonding = true
		require.NoError(t, f.bonds.Save(b))
		require.NoError(t, f.exec.ExecuteEpochEvent(&UnbondMixnode{NodeID: id}, env))

		l := f.ledger(t, id)
		require.NotNil(t, l)
		assert.False(t, l.StillBonded())
		assert.True(t, l.Operator.IsZero())

		// a delegation to the zero-operator ledger is a refunded no-op
		require.NoError(t, f.exec.ExecuteEpochEvent(&Delegate{Owner: "carol", NodeID: id, Amount: coin(700)}, env))
		assert.Equal(t, "700", f.balance(t, "carol"))
		after := f.ledger(t, id)
		assert.True(t, l.Delegates.Equal(after.Delegates))
		assert.Equal(t, l.UniqueDelegations, after.UniqueDelegations)
		d, err := f.delegations.MayLoad(delegation.NewKey(id, "carol", nil))
		require.NoError(t, err)
		assert.Nil(t, d)

		// a cost change for a gone node is dropped
		require.NoError(t, f.exec.ExecuteIntervalEvent(&ChangeCostParams{NodeID: id}, epochs))

		// the last delegator leaving removes the ledger
		require.NoError(t, f.exec.ExecuteEpochEvent(&Undelegate{Owner: "alice", NodeID: id}, env))
		assert.Nil(t, f.ledger(t, id))
		assert.NotEqual(t, "0", f.balance(t, "alice"))
	})

	t.Run("missing node", func(t *testing.T) {
		f := newFixture(t)
		assert.True(t, reverts.IsFatal(f.exec.ExecuteEpochEvent(&UnbondMixnode{NodeID: 4}, env)))
	})

	t.Run("not marked unbonding", func(t *testing.T) {
		f := newFixture(t)
		id := f.bond(t, "operator")
		assert.True(t, reverts.IsFatal(f.exec.ExecuteEpochEvent(&UnbondMixnode{NodeID: id}, env)))
	})
}

func TestIntervalEvents(t *testing.T) {
	f := newFixture(t)
	id := f.bond(t, "operator")

	costs := rewarding.MixNodeCostParams{ProfitMarginPercent: decimal.MustPercent("0.25"), IntervalOperatingCost: coin(99)}
	require.NoError(t, f.exec.ExecuteIntervalEvent(&ChangeCostParams{NodeID: id, NewCosts: costs}, epochs))
	assert.Equal(t, "0.25", f.ledger(t, id).CostParams.ProfitMarginPercent.String())
	assert.Equal(t, "99unym", f.ledger(t, id).CostParams.IntervalOperatingCost.String())

	require.NoError(t, f.exec.ExecuteIntervalEvent(&ChangeCostParams{NodeID: 42, NewCosts: costs}, epochs))

	size := uint32(480)
	require.NoError(t, f.exec.ExecuteIntervalEvent(&UpdateRewardingParams{Update: rewarding.RewardingParamsUpdate{RewardedSetSize: &size}}, epochs))
	params, err := f.rewarding.Params()
	require.NoError(t, err)
	assert.Equal(t, uint32(480), params.RewardedSetSize)

	zero := uint32(0)
	err = f.exec.ExecuteIntervalEvent(&UpdateRewardingParams{Update: rewarding.RewardingParamsUpdate{ActiveSetSize: &zero}}, epochs)
	assert.ErrorIs(t, err, reverts.ErrZeroActiveSet)
}

func TestDrain(t *testing.T) {
	f := newFixture(t)
	id := f.bond(t, "operator")

	for _, owner := range []mix.Addr{"alice", "bob", "alice"} {
		_, err := f.queues.PushEpochEvent(&Delegate{Owner: owner, NodeID: id, Amount: coin(1_000)})
		require.NoError(t, err)
	}
	_, err := f.queues.PushEpochEvent(&Undelegate{Owner: "bob", NodeID: id})
	require.NoError(t, err)

	n, err := f.exec.DrainEpochEvents(f.queues, env)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	left, err := f.queues.EpochEvents(0)
	require.NoError(t, err)
	assert.Empty(t, left)

	l := f.ledger(t, id)
	assert.Equal(t, uint32(1), l.UniqueDelegations)
	assert.Equal(t, "2000", l.Delegates.String())
	assert.Equal(t, "1000", f.balance(t, "bob"))
}

func TestDrainStopsOnHardFailure(t *testing.T) {
	f := newFixture(t)

	_, err := f.queues.PushEpochEvent(&Undelegate{Owner: "alice", NodeID: 1})
	require.NoError(t, err)
	_, err = f.queues.PushEpochEvent(&UnbondMixnode{NodeID: 1})
	require.NoError(t, err)
	_, err = f.queues.PushEpochEvent(&Delegate{Owner: "bob", NodeID: 1, Amount: coin(1)})
	require.NoError(t, err)

	n, err := f.exec.DrainEpochEvents(f.queues, env)
	assert.True(t, reverts.IsFatal(err))
	assert.Equal(t, 1, n)

	left, err := f.queues.EpochEvents(0)
	require.NoError(t, err)
	require.Len(t, left, 2)
	assert.Equal(t, KindUnbondMixnode, left[0].Event.Kind())
}

func TestDrainIntervalEvents(t *testing.T) {
	f := newFixture(t)
	id := f.bond(t, "operator")

	for _, margin := range []string{"0.2", "0.3"} {
		_, err := f.queues.PushIntervalEvent(&ChangeCostParams{NodeID: id, NewCosts: rewarding.MixNodeCostParams{
			ProfitMarginPercent:   decimal.MustPercent(margin),
			IntervalOperatingCost: coin(1),
		}})
		require.NoError(t, err)
	}
	n, err := f.exec.DrainIntervalEvents(f.queues, epochs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	// the later change wins
	assert.Equal(t, "0.3", f.ledger(t, id).CostParams.ProfitMarginPercent.String())
}
