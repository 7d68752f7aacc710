// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package interval

import (
	"github.com/pkg/errors"

	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet/reverts"
)

type NodeStatus uint8

const (
	Active NodeStatus = iota + 1
	Standby
)

func (s NodeStatus) String() string {
	switch s {
	case Active:
		return "active"
	case Standby:
		return "standby"
	}
	return "unknown"
}

func (s NodeStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *NodeStatus) UnmarshalText(text []byte) error {
	switch string(text) {
	case "active":
		*s = Active
	case "standby":
		*s = Standby
	default:
		return errors.Errorf("invalid node status %q", text)
	}
	return nil
}

type RewardedSetNode struct {
	ID     mix.NodeID `json:"mix_id"`
	Status NodeStatus `json:"status"`
}

// RewardedSet lists the nodes eligible for rewards in the current epoch.
type RewardedSet []RewardedSetNode

// NewRewardedSet marks the first activeSetSize ids active and the rest standby.
func NewRewardedSet(ids []mix.NodeID, activeSetSize uint32) RewardedSet {
	set := make(RewardedSet, 0, len(ids))
	for i, id := range ids {
		status := Standby
		if uint32(i) < activeSetSize {
			status = Active
		}
		set = append(set, RewardedSetNode{ID: id, Status: status})
	}
	return set
}

// Validate checks the set against the configured sizes. Fewer nodes than the
// rewarded set size are accepted, but the active set must then be filled first.
func (s RewardedSet) Validate(rewardedSetSize, activeSetSize uint32) error {
	if uint32(len(s)) > rewardedSetSize {
		return reverts.UnexpectedRewardedSetSize(uint32(len(s)), rewardedSetSize)
	}
	var (
		active uint32
		seen   = make(map[mix.NodeID]struct{}, len(s))
	)
	for _, n := range s {
		if _, ok := seen[n.ID]; ok {
			return reverts.DuplicateRewardedSetNode(n.ID)
		}
		seen[n.ID] = struct{}{}
		if n.Status == Active {
			active++
		}
	}
	expected := min(activeSetSize, uint32(len(s)))
	if active != expected {
		return reverts.UnexpectedActiveSetSize(active, expected)
	}
	return nil
}

// Status returns the status of id, ok is false if it is not in the set.
func (s RewardedSet) Status(id mix.NodeID) (status NodeStatus, ok bool) {
	for _, n := range s {
		if n.ID == id {
			return n.Status, true
		}
	}
	return 0, false
}
