// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mixnet

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mixledger/mixledger/decimal"
	"github.com/mixledger/mixledger/lvldb"
	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet/bonds"
	"github.com/mixledger/mixledger/mixnet/interval"
	"github.com/mixledger/mixledger/mixnet/rewarding"
	"github.com/mixledger/mixledger/state"
)

const (
	genesisTime = 1_700_000_000
	epochLength = uint64(time.Hour / time.Second)
	pledge      = 100_000_000_000
)

type testNet struct {
	*Mixnet
	t      *testing.T
	db     *lvldb.LevelDB
	now    uint64
	height uint64
}

func testGenesis() *Genesis {
	g := DefaultGenesis()
	g.EpochsInInterval = 3
	return g
}

func newTestNet(t *testing.T) *testNet {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	n := &testNet{
		Mixnet: New(state.New(db, nil)),
		t:      t,
		db:     db,
		now:    genesisTime,
		height: 1,
	}
	require.NoError(t, n.Initialise(testGenesis(), n.env()))
	return n
}

func (n *testNet) env() mix.Env {
	return mix.Env{Height: n.height, Time: n.now}
}

func (n *testNet) coin(amount uint64) mix.Coin {
	return mix.NewCoin(amount, mix.DefaultDenom)
}

func testCosts() rewarding.MixNodeCostParams {
	return rewarding.MixNodeCostParams{
		ProfitMarginPercent:   decimal.MustPercent("0.1"),
		IntervalOperatingCost: mix.NewCoin(40_000_000, mix.DefaultDenom),
	}
}

func (n *testNet) bond(owner mix.Addr) mix.NodeID {
	n.height++
	id, err := n.BondMixnode(owner, nil, bonds.MixNode{Host: "1.1.1.1", IdentityKey: string(owner) + "-identity"},
		testCosts(), n.coin(pledge), n.env())
	require.NoError(n.t, err)
	return id
}

func (n *testNet) delegate(owner mix.Addr, id mix.NodeID, amount uint64) {
	n.height++
	require.NoError(n.t, n.Delegate(owner, id, n.coin(amount), nil))
}

// endEpoch moves time past the end of the current epoch.
func (n *testNet) endEpoch() {
	n.now += epochLength
	n.height++
}

// advance ends the epoch and starts the next one with ids as its rewarded set.
func (n *testNet) advance(ids ...mix.NodeID) EpochAdvance {
	n.endEpoch()
	adv, err := n.AdvanceEpoch(interval.NewRewardedSet(ids, testGenesis().ActiveSetSize), n.env())
	require.NoError(n.t, err)
	return adv
}

// reward ends the current epoch and rewards every id with full performance.
func (n *testNet) reward(ids ...mix.NodeID) []RewardResult {
	n.endEpoch()
	requests := make([]NodeRewardRequest, 0, len(ids))
	for _, id := range ids {
		requests = append(requests, NodeRewardRequest{NodeID: id, Performance: decimal.MustPercent("1")})
	}
	results, err := n.RewardEpoch(requests, n.env())
	require.NoError(n.t, err)
	return results
}

func (n *testNet) balance(addr mix.Addr) *big.Int {
	b, err := n.Balance(addr)
	require.NoError(n.t, err)
	return b.Amount
}
