// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package events holds requests deferred to the end of the current epoch or
// interval and executes them there, in arrival order.
package events

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet/rewarding"
)

type Kind uint8

const (
	KindDelegate Kind = iota + 1
	KindUndelegate
	KindUnbondMixnode
	KindChangeCostParams
	KindUpdateRewardingParams
)

func (k Kind) String() string {
	switch k {
	case KindDelegate:
		return "delegate"
	case KindUndelegate:
		return "undelegate"
	case KindUnbondMixnode:
		return "unbond_mixnode"
	case KindChangeCostParams:
		return "change_cost_params"
	case KindUpdateRewardingParams:
		return "update_rewarding_params"
	}
	return "unknown"
}

// PendingEpochEvent is executed when the current epoch ends.
type PendingEpochEvent interface {
	Kind() Kind
	epochEvent()
}

// PendingIntervalEvent is executed when the current interval ends.
type PendingIntervalEvent interface {
	Kind() Kind
	intervalEvent()
}

type Delegate struct {
	Owner  mix.Addr   `json:"owner"`
	NodeID mix.NodeID `json:"mix_id"`
	Amount mix.Coin   `json:"amount"`
	Proxy  *mix.Addr  `json:"proxy,omitempty" rlp:"nil"`
}

type Undelegate struct {
	Owner  mix.Addr   `json:"owner"`
	NodeID mix.NodeID `json:"mix_id"`
	Proxy  *mix.Addr  `json:"proxy,omitempty" rlp:"nil"`
}

type UnbondMixnode struct {
	NodeID mix.NodeID `json:"mix_id"`
}

type ChangeCostParams struct {
	NodeID   mix.NodeID                  `json:"mix_id"`
	NewCosts rewarding.MixNodeCostParams `json:"new_costs"`
}

type UpdateRewardingParams struct {
	Update rewarding.RewardingParamsUpdate `json:"update"`
}

func (*Delegate) Kind() Kind              { return KindDelegate }
func (*Undelegate) Kind() Kind            { return KindUndelegate }
func (*UnbondMixnode) Kind() Kind         { return KindUnbondMixnode }
func (*ChangeCostParams) Kind() Kind      { return KindChangeCostParams }
func (*UpdateRewardingParams) Kind() Kind { return KindUpdateRewardingParams }

func (*Delegate) epochEvent()                 {}
func (*Undelegate) epochEvent()               {}
func (*UnbondMixnode) epochEvent()            {}
func (*ChangeCostParams) intervalEvent()      {}
func (*UpdateRewardingParams) intervalEvent() {}

// envelope is the stored form of an event.
type envelope struct {
	Kind    Kind
	Payload []byte
}

func wrap(ev interface{ Kind() Kind }) (envelope, error) {
	payload, err := rlp.EncodeToBytes(ev)
	if err != nil {
		return envelope{}, errors.Wrapf(err, "encode %s event", ev.Kind())
	}
	return envelope{Kind: ev.Kind(), Payload: payload}, nil
}

func unwrapEpochEvent(e envelope) (PendingEpochEvent, error) {
	var ev PendingEpochEvent
	switch e.Kind {
	case KindDelegate:
		ev = &Delegate{}
	case KindUndelegate:
		ev = &Undelegate{}
	case KindUnbondMixnode:
		ev = &UnbondMixnode{}
	default:
		return nil, errors.Errorf("unexpected epoch event kind %d", e.Kind)
	}
	if err := rlp.DecodeBytes(e.Payload, ev); err != nil {
		return nil, errors.Wrapf(err, "decode %s event", e.Kind)
	}
	return ev, nil
}

func unwrapIntervalEvent(e envelope) (PendingIntervalEvent, error) {
	var ev PendingIntervalEvent
	switch e.Kind {
	case KindChangeCostParams:
		ev = &ChangeCostParams{}
	case KindUpdateRewardingParams:
		ev = &UpdateRewardingParams{}
	default:
		return nil, errors.Errorf("unexpected interval event kind %d", e.Kind)
	}
	if err := rlp.DecodeBytes(e.Payload, ev); err != nil {
		return nil, errors.Wrapf(err, "decode %s event", e.Kind)
	}
	return ev, nil
}
