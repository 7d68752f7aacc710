// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewarddb

import (
	"github.com/mixledger/mixledger/decimal"
	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet"
)

// Reward is the recorded outcome of rewarding one node for one epoch.
type Reward struct {
	Epoch       mix.FullEpochID `json:"epoch"`
	NodeID      mix.NodeID      `json:"mix_id"`
	BlockNumber uint64          `json:"block_number"`
	BlockTime   uint64          `json:"block_time"`
	Performance decimal.Percent `json:"performance"`
	Operator    decimal.Decimal `json:"operator"`
	Delegates   decimal.Decimal `json:"delegates"`
	Skipped     bool            `json:"skipped"`
}

func newReward(env mix.Env, res *mixnet.RewardResult) *Reward {
	return &Reward{
		Epoch:       res.Epoch,
		NodeID:      res.NodeID,
		BlockNumber: env.Height,
		BlockTime:   env.Time,
		Performance: res.Performance,
		Operator:    res.Distribution.Operator,
		Delegates:   res.Distribution.Delegates,
		Skipped:     res.Skipped,
	}
}

// Advance records the close of an epoch.
type Advance struct {
	Epoch          mix.FullEpochID `json:"epoch"`
	BlockNumber    uint64          `json:"block_number"`
	BlockTime      uint64          `json:"block_time"`
	EpochEvents    int             `json:"epoch_events"`
	IntervalEvents int             `json:"interval_events"`
	IntervalRolled bool            `json:"interval_rolled"`
}

func newAdvance(env mix.Env, adv *mixnet.EpochAdvance) *Advance {
	return &Advance{
		Epoch:          adv.NewEpoch - 1,
		BlockNumber:    env.Height,
		BlockTime:      env.Time,
		EpochEvents:    adv.EpochEvents,
		IntervalEvents: adv.IntervalEvents,
		IntervalRolled: adv.IntervalRolled,
	}
}

// NodeTotals sums what a node earned over the recorded epochs.
type NodeTotals struct {
	NodeID         mix.NodeID `json:"mix_id"`
	RewardedEpochs uint64     `json:"rewarded_epochs"`
	// nil when nothing was recorded
	LastRewardedEpoch *mix.FullEpochID `json:"last_rewarded_epoch,omitempty"`
	Operator          decimal.Decimal  `json:"operator"`
	Delegates         decimal.Decimal  `json:"delegates"`
}

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Range of epochs, both ends inclusive. To below From leaves the range open.
type Range struct {
	From mix.FullEpochID
	To   mix.FullEpochID
}

type Options struct {
	Offset uint64
	Limit  uint64
}

type RewardFilter struct {
	NodeID  *mix.NodeID
	Range   *Range
	Order   Order
	Options *Options
}

type AdvanceFilter struct {
	Range   *Range
	Order   Order
	Options *Options
}
