// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"
	"gopkg.in/yaml.v3"

	"github.com/mixledger/mixledger/decimal"
	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet"
	"github.com/mixledger/mixledger/mixnet/bonds"
	"github.com/mixledger/mixledger/mixnet/interval"
	"github.com/mixledger/mixledger/mixnet/rewarding"
	"github.com/mixledger/mixledger/rewarddb"
)

func initAction(ctx *cli.Context) error {
	g, err := loadGenesis(ctx.String(genesisFlag.Name))
	if err != nil {
		return err
	}
	return withLedger(ctx, func(m *mixnet.Mixnet, env mix.Env) (any, error) {
		if err := m.Initialise(g, env); err != nil {
			return nil, err
		}
		return m.CurrentInterval()
	})
}

func dumpGenesisAction(*cli.Context) error {
	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()
	return enc.Encode(mixnet.DefaultGenesis())
}

func costParams(ctx *cli.Context) (rewarding.MixNodeCostParams, error) {
	margin, err := decimal.PercentFromString(ctx.String(profitMarginFlag.Name))
	if err != nil {
		return rewarding.MixNodeCostParams{}, errors.Wrap(err, "profit margin")
	}
	cost, err := parseCoin(ctx.String(operatingCostFlag.Name), mix.DefaultDenom)
	if err != nil {
		return rewarding.MixNodeCostParams{}, errors.Wrap(err, "operating cost")
	}
	return rewarding.MixNodeCostParams{ProfitMarginPercent: margin, IntervalOperatingCost: cost}, nil
}

func bondAction(ctx *cli.Context) error {
	owner, err := requireOwner(ctx)
	if err != nil {
		return err
	}
	pledge, err := parseCoin(ctx.String(amountFlag.Name), mix.DefaultDenom)
	if err != nil {
		return errors.Wrap(err, "pledge")
	}
	costs, err := costParams(ctx)
	if err != nil {
		return err
	}
	node := bonds.MixNode{
		Host:        ctx.String(hostFlag.Name),
		MixPort:     uint16(ctx.Uint(mixPortFlag.Name)),
		VerlocPort:  uint16(ctx.Uint(verlocPortFlag.Name)),
		HTTPAPIPort: uint16(ctx.Uint(httpAPIPortFlag.Name)),
		SphinxKey:   ctx.String(sphinxKeyFlag.Name),
		IdentityKey: ctx.String(identityKeyFlag.Name),
		Version:     ctx.String(nodeVersionFlag.Name),
	}
	if node.IdentityKey == "" {
		return errors.Errorf("-%s is required", identityKeyFlag.Name)
	}
	return withLedger(ctx, func(m *mixnet.Mixnet, env mix.Env) (any, error) {
		id, err := m.BondMixnode(owner, optionalProxy(ctx), node, costs, pledge, env)
		if err != nil {
			return nil, err
		}
		return map[string]any{"mix_id": id}, nil
	})
}

func unbondAction(ctx *cli.Context) error {
	owner, err := requireOwner(ctx)
	if err != nil {
		return err
	}
	return withLedger(ctx, func(m *mixnet.Mixnet, _ mix.Env) (any, error) {
		return nil, m.UnbondMixnode(owner, optionalProxy(ctx))
	})
}

func updateCostsAction(ctx *cli.Context) error {
	owner, err := requireOwner(ctx)
	if err != nil {
		return err
	}
	costs, err := costParams(ctx)
	if err != nil {
		return err
	}
	return withLedger(ctx, func(m *mixnet.Mixnet, _ mix.Env) (any, error) {
		return nil, m.UpdateCostParams(owner, optionalProxy(ctx), costs)
	})
}

func delegateAction(ctx *cli.Context) error {
	owner, err := requireOwner(ctx)
	if err != nil {
		return err
	}
	amount, err := parseCoin(ctx.String(amountFlag.Name), mix.DefaultDenom)
	if err != nil {
		return errors.Wrap(err, "amount")
	}
	id := mix.NodeID(ctx.Uint64(mixIDFlag.Name))
	return withLedger(ctx, func(m *mixnet.Mixnet, _ mix.Env) (any, error) {
		return nil, m.Delegate(owner, id, amount, optionalProxy(ctx))
	})
}

func undelegateAction(ctx *cli.Context) error {
	owner, err := requireOwner(ctx)
	if err != nil {
		return err
	}
	id := mix.NodeID(ctx.Uint64(mixIDFlag.Name))
	return withLedger(ctx, func(m *mixnet.Mixnet, _ mix.Env) (any, error) {
		return nil, m.Undelegate(owner, id, optionalProxy(ctx))
	})
}

func withdrawAction(ctx *cli.Context) error {
	owner, err := requireOwner(ctx)
	if err != nil {
		return err
	}
	return withLedger(ctx, func(m *mixnet.Mixnet, _ mix.Env) (any, error) {
		var (
			reward mix.Coin
			err    error
		)
		if ctx.Bool(operatorFlag.Name) {
			reward, err = m.WithdrawOperatorReward(owner, optionalProxy(ctx))
		} else {
			reward, err = m.WithdrawDelegatorReward(owner, mix.NodeID(ctx.Uint64(mixIDFlag.Name)), optionalProxy(ctx))
		}
		if err != nil {
			return nil, err
		}
		return map[string]any{"reward": reward}, nil
	})
}

func rewardAction(ctx *cli.Context) error {
	requests, err := parseRewardRequests(ctx.Args())
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		return errors.New("no mixnode to reward")
	}
	return withRecordedLedger(ctx, func(m *mixnet.Mixnet, env mix.Env) (any, error) {
		return m.RewardEpoch(requests, env)
	}, func(b *rewarddb.Batch, out any) {
		b.Rewards(out.([]mixnet.RewardResult))
	})
}

func advanceAction(ctx *cli.Context) error {
	ids, err := parseNodeIDs(ctx.Args())
	if err != nil {
		return err
	}
	return withRecordedLedger(ctx, func(m *mixnet.Mixnet, env mix.Env) (any, error) {
		params, err := m.Params()
		if err != nil {
			return nil, err
		}
		return m.AdvanceEpoch(interval.NewRewardedSet(ids, params.ActiveSetSize), env)
	}, func(b *rewarddb.Batch, out any) {
		b.Advance(out.(mixnet.EpochAdvance))
	})
}

func queryParamsAction(ctx *cli.Context) error {
	return withLedger(ctx, func(m *mixnet.Mixnet, _ mix.Env) (any, error) {
		return m.Params()
	})
}

func queryIntervalAction(ctx *cli.Context) error {
	return withLedger(ctx, func(m *mixnet.Mixnet, _ mix.Env) (any, error) {
		return m.CurrentInterval()
	})
}

func queryRewardedSetAction(ctx *cli.Context) error {
	return withLedger(ctx, func(m *mixnet.Mixnet, _ mix.Env) (any, error) {
		return m.RewardedSet()
	})
}

func queryMixnodeAction(ctx *cli.Context) error {
	id, err := singleNodeID(ctx)
	if err != nil {
		return err
	}
	return withLedger(ctx, func(m *mixnet.Mixnet, _ mix.Env) (any, error) {
		details, err := m.Mixnode(id)
		if err != nil {
			return nil, err
		}
		if details != nil {
			return details, nil
		}
		unbonded, err := m.UnbondedMixnode(id)
		if err != nil {
			return nil, err
		}
		if unbonded == nil {
			return nil, errors.Errorf("mixnode %d not found", id)
		}
		return unbonded, nil
	})
}

func queryMixnodesAction(ctx *cli.Context) error {
	return withLedger(ctx, func(m *mixnet.Mixnet, _ mix.Env) (any, error) {
		return m.Mixnodes(0, int(ctx.Uint64(limitFlag.Name)))
	})
}

func queryDelegationAction(ctx *cli.Context) error {
	owner, err := requireOwner(ctx)
	if err != nil {
		return err
	}
	id := mix.NodeID(ctx.Uint64(mixIDFlag.Name))
	return withLedger(ctx, func(m *mixnet.Mixnet, _ mix.Env) (any, error) {
		d, err := m.Delegation(owner, id, optionalProxy(ctx))
		if err != nil {
			return nil, err
		}
		if d == nil {
			return nil, errors.Errorf("%s has no delegation on mixnode %d", owner, id)
		}
		reward, err := m.PendingDelegatorReward(owner, id, optionalProxy(ctx))
		if err != nil {
			return nil, err
		}
		return map[string]any{"delegation": d, "pending_reward": reward}, nil
	})
}

func queryEventsAction(ctx *cli.Context) error {
	limit := ctx.Uint64(limitFlag.Name)
	return withLedger(ctx, func(m *mixnet.Mixnet, _ mix.Env) (any, error) {
		epochEvents, err := m.PendingEpochEvents(limit)
		if err != nil {
			return nil, err
		}
		intervalEvents, err := m.PendingIntervalEvents(limit)
		if err != nil {
			return nil, err
		}
		return map[string]any{"epoch": epochEvents, "interval": intervalEvents}, nil
	})
}

func queryBalanceAction(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("expected exactly one address")
	}
	addr := mix.Addr(ctx.Args().First())
	return withLedger(ctx, func(m *mixnet.Mixnet, _ mix.Env) (any, error) {
		return m.Balance(addr)
	})
}

func singleNodeID(ctx *cli.Context) (mix.NodeID, error) {
	ids, err := parseNodeIDs(ctx.Args())
	if err != nil {
		return 0, err
	}
	if len(ids) != 1 {
		return 0, errors.New("expected exactly one mix id")
	}
	return ids[0], nil
}

func queryEstimateAction(ctx *cli.Context) error {
	id, err := singleNodeID(ctx)
	if err != nil {
		return err
	}
	req, err := parseEstimateRequest(ctx.String(performanceFlag.Name), ctx.String(activeFlag.Name))
	if err != nil {
		return err
	}
	return withLedger(ctx, func(m *mixnet.Mixnet, _ mix.Env) (any, error) {
		est, err := m.EstimateReward(id, req)
		if err != nil {
			return nil, err
		}
		if est == nil {
			return nil, errors.Errorf("mixnode %d not found", id)
		}
		return est, nil
	})
}

func historyRange(ctx *cli.Context) *rewarddb.Range {
	if !ctx.IsSet(fromEpochFlag.Name) && !ctx.IsSet(toEpochFlag.Name) {
		return nil
	}
	return &rewarddb.Range{
		From: mix.FullEpochID(ctx.Uint64(fromEpochFlag.Name)),
		To:   mix.FullEpochID(ctx.Uint64(toEpochFlag.Name)),
	}
}

func historyOrder(ctx *cli.Context) (rewarddb.Order, error) {
	switch order := rewarddb.Order(ctx.String(orderFlag.Name)); order {
	case rewarddb.ASC, rewarddb.DESC:
		return order, nil
	default:
		return "", errors.Errorf("invalid order %q", order)
	}
}

func withHistory(ctx *cli.Context, fn func(db *rewarddb.RewardDB) (any, error)) error {
	initLogger(ctx)
	db, err := openRewardDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	out, err := fn(db)
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, out)
}

func queryRewardsAction(ctx *cli.Context) error {
	ids, err := parseNodeIDs(ctx.Args())
	if err != nil {
		return err
	}
	if len(ids) > 1 {
		return errors.New("expected at most one mix id")
	}
	order, err := historyOrder(ctx)
	if err != nil {
		return err
	}
	filter := &rewarddb.RewardFilter{
		Range:   historyRange(ctx),
		Order:   order,
		Options: &rewarddb.Options{Limit: ctx.Uint64(limitFlag.Name)},
	}
	if len(ids) == 1 {
		filter.NodeID = &ids[0]
	}
	return withHistory(ctx, func(db *rewarddb.RewardDB) (any, error) {
		return db.FilterRewards(context.Background(), filter)
	})
}

func queryTotalsAction(ctx *cli.Context) error {
	id, err := singleNodeID(ctx)
	if err != nil {
		return err
	}
	return withHistory(ctx, func(db *rewarddb.RewardDB) (any, error) {
		return db.NodeTotals(context.Background(), id)
	})
}

func queryAdvancesAction(ctx *cli.Context) error {
	order, err := historyOrder(ctx)
	if err != nil {
		return err
	}
	filter := &rewarddb.AdvanceFilter{
		Range:   historyRange(ctx),
		Order:   order,
		Options: &rewarddb.Options{Limit: ctx.Uint64(limitFlag.Name)},
	}
	return withHistory(ctx, func(db *rewarddb.RewardDB) (any, error) {
		return db.FilterAdvances(context.Background(), filter)
	})
}
