// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mixnet

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mixledger/mixledger/decimal"
)

func TestEstimateReward(t *testing.T) {
	n := newTestNet(t)
	id := n.bond("alice")
	n.delegate("bob", id, 50_000_000_000)
	full := EstimateRequest{Performance: decimal.MustPercent("1")}

	// outside the rewarded set
	est, err := n.EstimateReward(id, full)
	require.NoError(t, err)
	require.NotNil(t, est)
	assert.True(t, est.Estimation.TotalNodeReward.IsZero())

	active := true
	forced, err := n.EstimateReward(id, EstimateRequest{Performance: full.Performance, Active: &active})
	require.NoError(t, err)
	assert.False(t, forced.Estimation.TotalNodeReward.IsZero())

	n.advance(id)
	est, err = n.EstimateReward(id, full)
	require.NoError(t, err)
	assert.False(t, est.Estimation.OperatingCost.IsZero())

	results := n.reward(id)
	require.Len(t, results, 1)
	assert.True(t, est.Estimation.Operator.Equal(results[0].Distribution.Operator))
	assert.True(t, est.Estimation.Delegates.Equal(results[0].Distribution.Delegates))

	total, err := results[0].Distribution.Total()
	require.NoError(t, err)
	assert.True(t, est.Estimation.TotalNodeReward.Equal(total))

	// estimating doesn't touch the ledger
	ledger, err := n.RewardingDetails(id)
	require.NoError(t, err)
	assert.Equal(t, results[0].Epoch, ledger.LastRewardedEpoch)

	huge, _ := new(big.Int).SetString("1000000000000000000000000", 10)
	_, err = n.EstimateReward(id, EstimateRequest{Performance: full.Performance, Pledge: huge})
	assert.ErrorIs(t, err, ErrStakeExceedsSupply)

	missing, err := n.EstimateReward(42, full)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
