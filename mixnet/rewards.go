// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mixnet

import (
	"time"

	"github.com/pkg/errors"

	"github.com/mixledger/mixledger/decimal"
	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet/interval"
	"github.com/mixledger/mixledger/mixnet/reverts"
	"github.com/mixledger/mixledger/mixnet/rewarding"
)

// NodeRewardRequest is the measured performance of one node in the epoch
// being rewarded.
type NodeRewardRequest struct {
	NodeID      mix.NodeID      `json:"mix_id" yaml:"mix_id"`
	Performance decimal.Percent `json:"performance" yaml:"performance"`
}

// RewardResult is what a node got for the epoch. Skipped is set for nodes
// that unbonded before being rewarded.
type RewardResult struct {
	NodeID       mix.NodeID                   `json:"mix_id"`
	Epoch        mix.FullEpochID              `json:"epoch"`
	Performance  decimal.Percent              `json:"performance"`
	Distribution rewarding.RewardDistribution `json:"distribution"`
	Skipped      bool                         `json:"skipped"`
}

// RewardMixnode rewards one node for the epoch that just ended.
func (m *Mixnet) RewardMixnode(id mix.NodeID, performance decimal.Percent, env mix.Env) (res RewardResult, err error) {
	defer func() { observeTx("reward_mixnode", err) }()

	err = m.atomic(func() error {
		res, err = m.rewardMixnode(NodeRewardRequest{id, performance}, env)
		return err
	})
	if err != nil {
		logger.Info("reward mixnode failed", "mix_id", id, "error", err)
		return RewardResult{}, err
	}
	return res, nil
}

// RewardEpoch rewards every requested node. Either all of them are rewarded
// or none is.
func (m *Mixnet) RewardEpoch(requests []NodeRewardRequest, env mix.Env) (results []RewardResult, err error) {
	start := time.Now()
	defer func() { observeTx("reward_epoch", err) }()

	err = m.atomic(func() error {
		results = make([]RewardResult, 0, len(requests))
		for _, req := range requests {
			res, err := m.rewardMixnode(req, env)
			if err != nil {
				return errors.Wrapf(err, "reward mixnode %d", req.NodeID)
			}
			results = append(results, res)
		}
		return nil
	})
	if err != nil {
		logger.Info("reward epoch failed", "nodes", len(requests), "error", err)
		return nil, err
	}
	metricRewardPassDuration().Observe(time.Since(start).Milliseconds())
	logger.Info("rewarded epoch", "nodes", len(results), "elapsed", time.Since(start))
	return results, nil
}

func (m *Mixnet) rewardMixnode(req NodeRewardRequest, env mix.Env) (RewardResult, error) {
	res := RewardResult{NodeID: req.NodeID, Performance: req.Performance}

	clock, err := m.interval.Current()
	if err != nil {
		return res, err
	}
	if !clock.IsCurrentEpochOver(env) {
		return res, reverts.EpochInProgress(env.Time, clock.CurrentEpochStart, clock.EpochEnd())
	}
	epoch := clock.CurrentFullEpochID()
	res.Epoch = epoch

	set, err := m.interval.RewardedSet()
	if err != nil {
		return res, err
	}
	status, ok := set.Status(req.NodeID)
	if !ok {
		return res, reverts.MixnodeNotInRewardedSet(req.NodeID, epoch)
	}

	ledger, err := m.rewarding.GetLedger(req.NodeID)
	if err != nil {
		return res, err
	}
	if ledger == nil || !ledger.StillBonded() {
		logger.Debug("mixnode unbonded before being rewarded", "mix_id", req.NodeID, "epoch", epoch)
		res.Skipped = true
		return res, nil
	}
	if ledger.LastRewardedEpoch >= epoch {
		return res, reverts.MixnodeAlreadyRewarded(req.NodeID, epoch)
	}

	params, err := m.rewarding.Params()
	if err != nil {
		return res, err
	}
	nodeParams := rewarding.NodeRewardParams{
		Performance: req.Performance,
		InActiveSet: status == interval.Active,
	}
	dist, err := ledger.EpochRewarding(params, nodeParams, clock.EpochsInInterval, epoch)
	if err != nil {
		return res, err
	}
	if err := m.rewarding.SetLedger(req.NodeID, ledger); err != nil {
		return res, err
	}
	if err := m.rewarding.AddDistributed(dist); err != nil {
		return res, err
	}

	metricRewardedNodes().AddWithLabel(1, map[string]string{"status": status.String()})
	logger.Debug("rewarded mixnode", "mix_id", req.NodeID, "epoch", epoch,
		"performance", req.Performance, "operator", dist.Operator, "delegates", dist.Delegates)
	res.Distribution = dist
	return res, nil
}

// EpochAdvance summarises one epoch boundary.
type EpochAdvance struct {
	EpochEvents    int             `json:"epoch_events"`
	IntervalEvents int             `json:"interval_events"`
	IntervalRolled bool            `json:"interval_rolled"`
	NewEpoch       mix.FullEpochID `json:"new_epoch"`
}

// AdvanceEpoch closes the current epoch: pending epoch events are executed,
// at the end of an interval pending interval events too and the rewarding
// parameters roll over. set becomes the rewarded set of the new epoch.
//
// Any hard failure reverts the whole pass and leaves the queues untouched.
func (m *Mixnet) AdvanceEpoch(set interval.RewardedSet, env mix.Env) (adv EpochAdvance, err error) {
	start := time.Now()
	defer func() { observeTx("advance_epoch", err) }()

	err = m.atomic(func() error {
		clock, err := m.interval.Current()
		if err != nil {
			return err
		}
		if !clock.IsCurrentEpochOver(env) {
			return reverts.EpochInProgress(env.Time, clock.CurrentEpochStart, clock.EpochEnd())
		}

		if adv.EpochEvents, err = m.executor.DrainEpochEvents(m.queues, env); err != nil {
			return err
		}
		if clock.IsCurrentIntervalOver(env) {
			if adv.IntervalEvents, err = m.executor.DrainIntervalEvents(m.queues, clock.EpochsInInterval); err != nil {
				return err
			}
			params, err := m.rewarding.RollInterval(clock.EpochsInInterval)
			if err != nil {
				return err
			}
			logger.Info("rolled interval", "interval", clock.ID+1,
				"reward_pool", params.Interval.RewardPool, "staking_supply", params.Interval.StakingSupply,
				"epoch_budget", params.Interval.EpochRewardBudget)
		}

		params, err := m.rewarding.Params()
		if err != nil {
			return err
		}
		if err := set.Validate(params.RewardedSetSize, params.ActiveSetSize); err != nil {
			return err
		}
		if err := m.interval.SetRewardedSet(set); err != nil {
			return err
		}

		adv.IntervalRolled = clock.AdvanceEpoch(env)
		adv.NewEpoch = clock.CurrentFullEpochID()
		return m.interval.SetCurrent(clock)
	})
	if err != nil {
		logger.Info("advance epoch failed", "error", err)
		return EpochAdvance{}, err
	}

	metricEpochPassDuration().Observe(time.Since(start).Milliseconds())
	logger.Info("advanced epoch", "epoch", adv.NewEpoch, "epoch_events", adv.EpochEvents,
		"interval_events", adv.IntervalEvents, "interval_rolled", adv.IntervalRolled, "elapsed", time.Since(start))
	return adv, nil
}
