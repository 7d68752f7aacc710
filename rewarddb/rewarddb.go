// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package rewarddb keeps a queryable history of reward passes and epoch
// advances. The ledger itself never reads it.
package rewarddb

import (
	"context"
	"database/sql"

	"github.com/ethereum/go-ethereum/log"
	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/mixledger/mixledger/decimal"
	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet"
)

const memPath = ":memory:"

var logger = log.New("pkg", "rewarddb")

func SetLogger(l log.Logger) {
	logger = l
}

type RewardDB struct {
	path          string
	db            *sql.DB
	stmtCache     *stmtCache
	driverVersion string
}

// New create or open reward db at given path.
func New(path string) (rdb *RewardDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rdb == nil {
			db.Close()
		}
	}()
	if path == memPath {
		// every connection to :memory: opens a fresh database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(rewardTableSchema + advanceTableSchema); err != nil {
		return nil, errors.Wrap(err, "create reward db schema")
	}

	driverVer, _, _ := sqlite3.Version()
	logger.Debug("opened reward db", "path", path, "sqlite", driverVer)
	return &RewardDB{
		path:          path,
		db:            db,
		stmtCache:     newStmtCache(db),
		driverVersion: driverVer,
	}, nil
}

// NewMem create a reward db in ram.
func NewMem() (*RewardDB, error) {
	return New(memPath)
}

func (db *RewardDB) Close() error {
	db.stmtCache.Clear()
	return db.db.Close()
}

func (db *RewardDB) Path() string {
	return db.path
}

func (db *RewardDB) DriverVersion() string {
	return db.driverVersion
}

// NewBatch starts collecting the records produced at env.
func (db *RewardDB) NewBatch(env mix.Env) *Batch {
	return &Batch{db: db.db, env: env}
}

func (db *RewardDB) FilterRewards(ctx context.Context, filter *RewardFilter) ([]*Reward, error) {
	if filter == nil {
		return db.queryRewards(ctx, "SELECT * FROM reward")
	}
	metricsHandleQuery(filter.Options, filter.Order, "reward")

	var args []any
	stmt := "SELECT * FROM reward WHERE 1"
	if filter.NodeID != nil {
		args = append(args, uint32(*filter.NodeID))
		stmt += " AND mixID = ? "
	}
	stmt, args = withRange(stmt, args, filter.Range)
	if filter.Order == DESC {
		stmt += " ORDER BY epoch DESC, mixID DESC "
	} else {
		stmt += " ORDER BY epoch ASC, mixID ASC "
	}
	stmt, args = withOptions(stmt, args, filter.Options)
	return db.queryRewards(ctx, stmt, args...)
}

func (db *RewardDB) FilterAdvances(ctx context.Context, filter *AdvanceFilter) ([]*Advance, error) {
	if filter == nil {
		return db.queryAdvances(ctx, "SELECT * FROM advance")
	}
	metricsHandleQuery(filter.Options, filter.Order, "advance")

	var args []any
	stmt := "SELECT * FROM advance WHERE 1"
	stmt, args = withRange(stmt, args, filter.Range)
	if filter.Order == DESC {
		stmt += " ORDER BY epoch DESC "
	} else {
		stmt += " ORDER BY epoch ASC "
	}
	stmt, args = withOptions(stmt, args, filter.Options)
	return db.queryAdvances(ctx, stmt, args...)
}

// NodeTotals sums the rewards recorded for id. Skipped epochs don't count.
func (db *RewardDB) NodeTotals(ctx context.Context, id mix.NodeID) (*NodeTotals, error) {
	rewards, err := db.queryRewards(ctx, "SELECT * FROM reward WHERE mixID = ? AND skipped = 0", uint32(id))
	if err != nil {
		return nil, err
	}
	totals := &NodeTotals{NodeID: id}
	var a decimal.Arith
	for _, r := range rewards {
		totals.RewardedEpochs++
		if totals.LastRewardedEpoch == nil || r.Epoch > *totals.LastRewardedEpoch {
			epoch := r.Epoch
			totals.LastRewardedEpoch = &epoch
		}
		totals.Operator = a.Add(totals.Operator, r.Operator)
		totals.Delegates = a.Add(totals.Delegates, r.Delegates)
	}
	if err := a.Err(); err != nil {
		return nil, err
	}
	return totals, nil
}

func withRange(stmt string, args []any, rng *Range) (string, []any) {
	if rng == nil {
		return stmt, args
	}
	args = append(args, uint32(rng.From))
	stmt += " AND epoch >= ? "
	if rng.To >= rng.From {
		args = append(args, uint32(rng.To))
		stmt += " AND epoch <= ? "
	}
	return stmt, args
}

func withOptions(stmt string, args []any, opts *Options) (string, []any) {
	if opts == nil {
		return stmt, args
	}
	return stmt + " limit ?, ? ", append(args, opts.Offset, opts.Limit)
}

func (db *RewardDB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	stmt, err := db.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}
	return stmt.QueryContext(ctx, args...)
}

func (db *RewardDB) queryRewards(ctx context.Context, query string, args ...any) ([]*Reward, error) {
	rows, err := db.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rewards []*Reward
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			epoch       uint32
			mixID       uint32
			r           Reward
			performance string
			operator    string
			delegates   string
		)
		if err := rows.Scan(
			&epoch,
			&mixID,
			&r.BlockNumber,
			&r.BlockTime,
			&performance,
			&operator,
			&delegates,
			&r.Skipped,
		); err != nil {
			return nil, err
		}
		r.Epoch = mix.FullEpochID(epoch)
		r.NodeID = mix.NodeID(mixID)
		if r.Performance, err = decimal.PercentFromString(performance); err != nil {
			return nil, errors.Wrapf(err, "reward %d/%d performance", epoch, mixID)
		}
		if r.Operator, err = decimal.FromString(operator); err != nil {
			return nil, errors.Wrapf(err, "reward %d/%d operator", epoch, mixID)
		}
		if r.Delegates, err = decimal.FromString(delegates); err != nil {
			return nil, errors.Wrapf(err, "reward %d/%d delegates", epoch, mixID)
		}
		rewards = append(rewards, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rewards, nil
}

func (db *RewardDB) queryAdvances(ctx context.Context, query string, args ...any) ([]*Advance, error) {
	rows, err := db.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var advances []*Advance
	for rows.Next() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var (
			epoch uint32
			adv   Advance
		)
		if err := rows.Scan(
			&epoch,
			&adv.BlockNumber,
			&adv.BlockTime,
			&adv.EpochEvents,
			&adv.IntervalEvents,
			&adv.IntervalRolled,
		); err != nil {
			return nil, err
		}
		adv.Epoch = mix.FullEpochID(epoch)
		advances = append(advances, &adv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return advances, nil
}

// Batch collects the records of one ledger call and writes them in one
// sqlite transaction.
type Batch struct {
	db       *sql.DB
	env      mix.Env
	rewards  []*Reward
	advances []*Advance
}

func (b *Batch) Rewards(results []mixnet.RewardResult) *Batch {
	for i := range results {
		b.rewards = append(b.rewards, newReward(b.env, &results[i]))
	}
	return b
}

func (b *Batch) Advance(adv mixnet.EpochAdvance) *Batch {
	b.advances = append(b.advances, newAdvance(b.env, &adv))
	return b
}

func (b *Batch) execInTx(proc func(*sql.Tx) error) (err error) {
	tx, err := b.db.Begin()
	if err != nil {
		return err
	}
	if err := proc(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Commit writes the batch. Records of an epoch already present are replaced.
func (b *Batch) Commit() error {
	err := b.execInTx(func(tx *sql.Tx) error {
		for _, r := range b.rewards {
			if _, err := tx.Exec("INSERT OR REPLACE INTO reward(epoch, mixID, blockNumber, blockTime, performance, operator, delegates, skipped) VALUES (?, ?, ?, ?, ?, ?, ?, ?);",
				uint32(r.Epoch),
				uint32(r.NodeID),
				r.BlockNumber,
				r.BlockTime,
				r.Performance.String(),
				r.Operator.String(),
				r.Delegates.String(),
				r.Skipped,
			); err != nil {
				return err
			}
		}
		for _, adv := range b.advances {
			if _, err := tx.Exec("INSERT OR REPLACE INTO advance(epoch, blockNumber, blockTime, epochEvents, intervalEvents, intervalRolled) VALUES (?, ?, ?, ?, ?, ?);",
				uint32(adv.Epoch),
				adv.BlockNumber,
				adv.BlockTime,
				adv.EpochEvents,
				adv.IntervalEvents,
				adv.IntervalRolled,
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "commit reward history")
	}
	metricRowsWritten().AddWithLabel(int64(len(b.rewards)), map[string]string{"table": "reward"})
	metricRowsWritten().AddWithLabel(int64(len(b.advances)), map[string]string{"table": "advance"})
	return nil
}
