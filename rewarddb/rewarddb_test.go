// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewarddb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mixledger/mixledger/decimal"
	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet"
	"github.com/mixledger/mixledger/mixnet/rewarding"
)

func result(id mix.NodeID, epoch mix.FullEpochID, operator, delegates string) mixnet.RewardResult {
	return mixnet.RewardResult{
		NodeID:      id,
		Epoch:       epoch,
		Performance: decimal.MustPercent("0.95"),
		Distribution: rewarding.RewardDistribution{
			Operator:  decimal.MustFromString(operator),
			Delegates: decimal.MustFromString(delegates),
		},
	}
}

func newTestDB(t *testing.T) *RewardDB {
	db, err := NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func fill(t *testing.T, db *RewardDB) {
	for epoch := mix.FullEpochID(0); epoch < 5; epoch++ {
		env := mix.Env{Height: uint64(epoch) + 10, Time: 1_700_000_000 + uint64(epoch)*3600}
		require.NoError(t, db.NewBatch(env).
			Rewards([]mixnet.RewardResult{
				result(1, epoch, "1.5", "0.25"),
				result(2, epoch, "2", "0.000000000000000001"),
			}).
			Advance(mixnet.EpochAdvance{EpochEvents: int(epoch), NewEpoch: epoch + 1, IntervalRolled: epoch == 2}).
			Commit())
	}
}

func TestFilterRewards(t *testing.T) {
	db := newTestDB(t)
	fill(t, db)
	ctx := context.Background()

	all, err := db.FilterRewards(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 10)

	id := mix.NodeID(2)
	rewards, err := db.FilterRewards(ctx, &RewardFilter{
		NodeID:  &id,
		Range:   &Range{From: 1, To: 3},
		Order:   DESC,
		Options: &Options{Offset: 0, Limit: 2},
	})
	require.NoError(t, err)
	require.Len(t, rewards, 2)
	assert.Equal(t, mix.FullEpochID(3), rewards[0].Epoch)
	assert.Equal(t, mix.FullEpochID(2), rewards[1].Epoch)
	assert.Equal(t, id, rewards[0].NodeID)
	assert.Equal(t, "0.000000000000000001", rewards[0].Delegates.String())
	assert.Equal(t, "0.95", rewards[0].Performance.String())
	assert.Equal(t, uint64(13), rewards[0].BlockNumber)

	// open range
	rewards, err = db.FilterRewards(ctx, &RewardFilter{Range: &Range{From: 4}})
	require.NoError(t, err)
	assert.Len(t, rewards, 2)
}

func TestCommitReplaces(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	env := mix.Env{Height: 1, Time: 1}
	require.NoError(t, db.NewBatch(env).Rewards([]mixnet.RewardResult{result(1, 0, "1", "1")}).Commit())
	require.NoError(t, db.NewBatch(env).Rewards([]mixnet.RewardResult{result(1, 0, "3", "1")}).Commit())

	rewards, err := db.FilterRewards(ctx, nil)
	require.NoError(t, err)
	require.Len(t, rewards, 1)
	assert.Equal(t, "3", rewards[0].Operator.String())
}

func TestFilterAdvances(t *testing.T) {
	db := newTestDB(t)
	fill(t, db)

	advances, err := db.FilterAdvances(context.Background(), &AdvanceFilter{Order: DESC})
	require.NoError(t, err)
	require.Len(t, advances, 5)
	assert.Equal(t, mix.FullEpochID(4), advances[0].Epoch)
	assert.Equal(t, 4, advances[0].EpochEvents)
	assert.True(t, advances[2].IntervalRolled)
	assert.False(t, advances[1].IntervalRolled)
}

func TestNodeTotals(t *testing.T) {
	db := newTestDB(t)
	fill(t, db)

	skipped := mixnet.RewardResult{NodeID: 1, Epoch: 9, Skipped: true}
	require.NoError(t, db.NewBatch(mix.Env{}).Rewards([]mixnet.RewardResult{skipped}).Commit())

	totals, err := db.NodeTotals(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), totals.RewardedEpochs)
	require.NotNil(t, totals.LastRewardedEpoch)
	assert.Equal(t, mix.FullEpochID(4), *totals.LastRewardedEpoch)
	assert.Equal(t, "7.5", totals.Operator.String())
	assert.Equal(t, "1.25", totals.Delegates.String())

	none, err := db.NodeTotals(context.Background(), 7)
	require.NoError(t, err)
	assert.Zero(t, none.RewardedEpochs)
	assert.Nil(t, none.LastRewardedEpoch)
	assert.True(t, none.Operator.IsZero())
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rewards.db")
	db, err := New(path)
	require.NoError(t, err)
	require.NoError(t, db.NewBatch(mix.Env{}).Rewards([]mixnet.RewardResult{result(1, 0, "1", "0")}).Commit())
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()
	assert.Equal(t, path, db.Path())
	assert.NotEmpty(t, db.DriverVersion())

	rewards, err := db.FilterRewards(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, rewards, 1)
}
