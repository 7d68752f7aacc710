// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mixledger/mixledger/decimal"
	"github.com/mixledger/mixledger/lvldb"
	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet"
	"github.com/mixledger/mixledger/mixnet/bonds"
	"github.com/mixledger/mixledger/mixnet/interval"
	"github.com/mixledger/mixledger/mixnet/rewarding"
	"github.com/mixledger/mixledger/rewarddb"
	"github.com/mixledger/mixledger/state"
)

func TestVerifyHistory(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	history, err := rewarddb.NewMem()
	require.NoError(t, err)
	defer history.Close()

	now := uint64(1_700_000_000)
	m := mixnet.New(state.New(db, nil))
	require.NoError(t, m.Initialise(mixnet.DefaultGenesis(), mix.Env{Height: 1, Time: now}))
	costs := rewarding.MixNodeCostParams{
		ProfitMarginPercent:   decimal.MustPercent("0.1"),
		IntervalOperatingCost: mix.NewCoin(40_000_000, mix.DefaultDenom),
	}
	id, err := m.BondMixnode("alice", nil, bonds.MixNode{Host: "1.2.3.4", IdentityKey: "alice-identity"},
		costs, mix.NewCoin(100_000_000_000, mix.DefaultDenom), mix.Env{Height: 2, Time: now})
	require.NoError(t, err)

	for epoch := 0; epoch < 2; epoch++ {
		now += 3600
		env := mix.Env{Height: uint64(epoch) + 3, Time: now}
		adv, err := m.AdvanceEpoch(interval.NewRewardedSet([]mix.NodeID{id}, 100), env)
		require.NoError(t, err)
		require.NoError(t, history.NewBatch(env).Advance(adv).Commit())

		now += 3600
		env.Time = now
		results, err := m.RewardEpoch([]mixnet.NodeRewardRequest{{NodeID: id, Performance: decimal.MustPercent("1")}}, env)
		require.NoError(t, err)
		require.NoError(t, history.NewBatch(env).Rewards(results).Commit())
	}
	_, err = m.Commit()
	require.NoError(t, err)

	view := mixnet.New(state.New(db, nil))
	nodes, err := allMixnodes(view)
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	steps := 0
	require.NoError(t, verifyHistory(context.Background(), view, history, nodes, func() { steps++ }))
	assert.Equal(t, 1, steps)

	// a reward the ledger never saw
	stray := mixnet.RewardResult{NodeID: id, Epoch: 7, Performance: decimal.MustPercent("1")}
	require.NoError(t, history.NewBatch(mix.Env{}).Rewards([]mixnet.RewardResult{stray}).Commit())

	err = verifyHistory(context.Background(), view, history, nodes, func() {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"last_rewarded_epoch": 7`)
}

func TestVerifyHistoryGap(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	history, err := rewarddb.NewMem()
	require.NoError(t, err)
	defer history.Close()

	m := mixnet.New(state.New(db, nil))
	require.NoError(t, m.Initialise(mixnet.DefaultGenesis(), mix.Env{Height: 1, Time: 1000}))
	_, err = m.Commit()
	require.NoError(t, err)

	for _, epoch := range []mix.FullEpochID{0, 2} {
		require.NoError(t, history.NewBatch(mix.Env{}).Advance(mixnet.EpochAdvance{NewEpoch: epoch + 1}).Commit())
	}

	err = verifyHistory(context.Background(), mixnet.New(state.New(db, nil)), history, nil, func() {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "advance_gaps")
}
