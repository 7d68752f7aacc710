// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet"
	"github.com/mixledger/mixledger/rewarddb"
	"github.com/mixledger/mixledger/state"
)

const verifyPageSize = 100

type nodeHistory struct {
	NodeID            mix.NodeID      `json:"mix_id"`
	LastRewardedEpoch mix.FullEpochID `json:"last_rewarded_epoch"`
}

// historySummary is what the ledger and the reward history must agree on.
type historySummary struct {
	LastAdvancedEpoch *mix.FullEpochID  `json:"last_advanced_epoch"`
	AdvanceGaps       []mix.FullEpochID `json:"advance_gaps"`
	Nodes             []nodeHistory     `json:"nodes"`
}

func verifyHistoryAction(ctx *cli.Context) error {
	initLogger(ctx)
	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	history, err := openRewardDB(ctx)
	if err != nil {
		return err
	}
	defer history.Close()

	m := mixnet.New(state.New(db, nil))
	nodes, err := allMixnodes(m)
	if err != nil {
		return err
	}

	fmt.Println(">> Verifying reward history <<")
	bar := pb.New(len(nodes)).
		SetMaxWidth(90).
		Start()
	defer func() { bar.NotPrint = true }()

	if err := verifyHistory(handleExitSignal(), m, history, nodes, func() { bar.Increment() }); err != nil {
		return err
	}
	bar.Finish()
	logger.Info("reward history matches the ledger", "mixnodes", len(nodes))
	return nil
}

func allMixnodes(m *mixnet.Mixnet) ([]*mixnet.MixnodeDetails, error) {
	var (
		all   []*mixnet.MixnodeDetails
		after mix.NodeID
	)
	for {
		page, err := m.Mixnodes(after, verifyPageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < verifyPageSize {
			return all, nil
		}
		after = page[len(page)-1].Bond.ID
	}
}

// verifyHistory checks the recorded advances are contiguous and reach the
// current epoch, and that every bonded node with recorded rewards was last
// rewarded at the epoch its ledger says. Nodes without records are skipped,
// the history may have been started after them.
func verifyHistory(ctx context.Context, m *mixnet.Mixnet, db *rewarddb.RewardDB, nodes []*mixnet.MixnodeDetails, step func()) error {
	var expected, actual historySummary

	advances, err := db.FilterAdvances(ctx, &rewarddb.AdvanceFilter{Order: rewarddb.ASC})
	if err != nil {
		return err
	}
	if len(advances) > 0 {
		clock, err := m.CurrentInterval()
		if err != nil {
			return err
		}
		if current := clock.CurrentFullEpochID(); current > 0 {
			last := current - 1
			expected.LastAdvancedEpoch = &last
		}
		actual.LastAdvancedEpoch = &advances[len(advances)-1].Epoch
		for i := 1; i < len(advances); i++ {
			if advances[i].Epoch != advances[i-1].Epoch+1 {
				actual.AdvanceGaps = append(actual.AdvanceGaps, advances[i-1].Epoch)
			}
		}
	}

	for _, node := range nodes {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		id := node.Bond.ID
		totals, err := db.NodeTotals(ctx, id)
		if err != nil {
			return err
		}
		if totals.LastRewardedEpoch != nil && node.Rewarding != nil {
			expected.Nodes = append(expected.Nodes, nodeHistory{id, node.Rewarding.LastRewardedEpoch})
			actual.Nodes = append(actual.Nodes, nodeHistory{id, *totals.LastRewardedEpoch})
		}
		step()
	}

	if !reflect.DeepEqual(expected, actual) {
		return errors.Errorf("reward history does not match the ledger:\n%s", jsonDiff(expected, actual))
	}
	return nil
}

func jsonDiff(expected, actual any) string {
	e, _ := json.MarshalIndent(expected, "", "  ")
	a, _ := json.MarshalIndent(actual, "", "  ")
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(e)),
		B:        difflib.SplitLines(string(a)),
		FromFile: "Ledger",
		ToFile:   "History",
		Context:  1,
	})
	return diff
}
