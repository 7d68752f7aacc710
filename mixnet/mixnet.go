// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package mixnet is the entry point of the rewarding ledger. It validates
// requests, queues the ones that take effect at epoch or interval end and
// runs the per epoch reward pass.
package mixnet

import (
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/pkg/errors"

	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet/bank"
	"github.com/mixledger/mixledger/mixnet/bonds"
	"github.com/mixledger/mixledger/mixnet/delegation"
	"github.com/mixledger/mixledger/mixnet/events"
	"github.com/mixledger/mixledger/mixnet/interval"
	"github.com/mixledger/mixledger/mixnet/rewarding"
	"github.com/mixledger/mixledger/state"
	"github.com/mixledger/mixledger/storage"
)

var logger = log.New("pkg", "mixnet")

func SetLogger(l log.Logger) {
	logger = l
}

// Mixnet drives the ledger on top of a state. Each call either applies all
// of its changes to the state or none of them; changes reach the store on
// Commit.
type Mixnet struct {
	mu    sync.Mutex
	state *state.State

	bonds       *bonds.Service
	rewarding   *rewarding.Service
	delegations *delegation.Service
	interval    *interval.Service
	bank        *bank.Service
	queues      *events.Queues
	executor    *events.Executor
	denom       *storage.Raw[string]
}

func New(st *state.State) *Mixnet {
	m := &Mixnet{
		state:       st,
		bonds:       bonds.New(st),
		rewarding:   rewarding.NewService(st),
		delegations: delegation.NewService(st),
		interval:    interval.NewService(st),
		bank:        bank.New(st),
		queues:      events.NewQueues(st),
		denom:       storage.NewRaw[string](st, "mixnet/denom"),
	}
	m.executor = events.NewExecutor(m.bonds, m.rewarding, m.delegations, m.bank)
	return m
}

// Initialise sets up parameters and starts the epoch clock at env.Time.
func (m *Mixnet) Initialise(g *Genesis, env mix.Env) error {
	if err := g.Validate(); err != nil {
		return err
	}
	return m.atomic(func() error {
		initialised, err := m.interval.IsInitialised()
		if err != nil {
			return err
		}
		if initialised {
			return errors.New("mixnet is already initialised")
		}
		params, err := rewarding.InitParams(g.Rewarding, g.RewardedSetSize, g.ActiveSetSize, g.EpochsInInterval)
		if err != nil {
			return err
		}
		clock, err := interval.New(g.EpochsInInterval, uint64(g.EpochLength.Seconds()), env.Time)
		if err != nil {
			return err
		}
		if err := m.rewarding.SetParams(params); err != nil {
			return err
		}
		if err := m.setDenom(g.Denom); err != nil {
			return err
		}
		logger.Info("initialised mixnet", "denom", g.Denom, "epochs_in_interval", g.EpochsInInterval,
			"epoch_length", g.EpochLength, "budget", params.Interval.EpochRewardBudget)
		return m.interval.SetCurrent(clock)
	})
}

func (m *Mixnet) setDenom(denom string) error {
	return errors.Wrap(m.denom.Set(denom), "failed to set denom")
}

// rewardingDenom is the only denomination accepted for pledges and delegations.
func (m *Mixnet) rewardingDenom() (string, error) {
	denom, err := m.denom.Get()
	if err != nil {
		return "", errors.Wrap(err, "failed to get denom")
	}
	if denom == "" {
		return "", errors.New("mixnet is not initialised")
	}
	return denom, nil
}

// Commit writes everything applied so far to the store.
func (m *Mixnet) Commit() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.state.Commit()
	if err != nil {
		return 0, errors.Wrap(err, "commit")
	}
	logger.Debug("committed", "keys", n)
	return n, nil
}

// atomic runs fn under the lock inside a checkpoint, reverting on error.
func (m *Mixnet) atomic(fn func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	checkpoint := m.state.NewCheckpoint()
	if err := fn(); err != nil {
		m.state.RevertTo(checkpoint)
		return err
	}
	return nil
}

// view runs fn under the lock.
func (m *Mixnet) view(fn func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn()
}
