// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package rewards

import (
	"math"
	"math/big"

	"github.com/pkg/errors"

	"github.com/mixledger/mixledger/decimal"
	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet"
	"github.com/mixledger/mixledger/rewarddb"
)

// Range of epochs, both ends inclusive and optional.
type Range struct {
	From *uint32 `json:"from"`
	To   *uint32 `json:"to"`
}

type Options struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

type RewardFilter struct {
	MixID   *mix.NodeID    `json:"mix_id"`
	Range   *Range         `json:"range"`
	Options *Options       `json:"options"`
	Order   rewarddb.Order `json:"order"`
}

type AdvanceFilter struct {
	Range   *Range         `json:"range"`
	Options *Options       `json:"options"`
	Order   rewarddb.Order `json:"order"`
}

// EstimateParams overrides what the estimate assumes about a node. Unset
// fields take the node's current values, performance defaults to 1.
type EstimateParams struct {
	Performance         *decimal.Percent `json:"performance"`
	ActiveInRewardedSet *bool            `json:"active_in_rewarded_set"`
	PledgeAmount        *uint64          `json:"pledge_amount"`
	TotalDelegation     *uint64          `json:"total_delegation"`
}

func (p *EstimateParams) request() mixnet.EstimateRequest {
	req := mixnet.EstimateRequest{Performance: decimal.MustPercent("1"), Active: p.ActiveInRewardedSet}
	if p.Performance != nil {
		req.Performance = *p.Performance
	}
	if p.PledgeAmount != nil {
		req.Pledge = new(big.Int).SetUint64(*p.PledgeAmount)
	}
	if p.TotalDelegation != nil {
		req.TotalDelegation = new(big.Int).SetUint64(*p.TotalDelegation)
	}
	return req
}

func convertRange(r *Range) (*rewarddb.Range, error) {
	if r == nil {
		return nil, nil
	}
	rng := &rewarddb.Range{From: 0, To: math.MaxUint32}
	if r.From != nil {
		rng.From = mix.FullEpochID(*r.From)
	}
	if r.To != nil {
		rng.To = mix.FullEpochID(*r.To)
	}
	if rng.From > rng.To {
		return nil, errors.New("range.to must be greater than or equal to range.from")
	}
	return rng, nil
}

func convertOrder(o rewarddb.Order) (rewarddb.Order, error) {
	switch o {
	case "":
		return rewarddb.ASC, nil
	case rewarddb.ASC, rewarddb.DESC:
		return o, nil
	default:
		return "", errors.Errorf("order: must be %s or %s", rewarddb.ASC, rewarddb.DESC)
	}
}
