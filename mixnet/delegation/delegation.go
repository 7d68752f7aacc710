// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package delegation

import (
	"encoding/binary"

	"github.com/mixledger/mixledger/decimal"
	"github.com/mixledger/mixledger/mix"
)

type Delegation struct {
	Owner  mix.Addr   `json:"owner"`
	NodeID mix.NodeID `json:"mix_id"`
	// CumulativeRewardRatio is the node's reward index when this delegation
	// last had its reward realised.
	CumulativeRewardRatio decimal.Decimal `json:"cumulative_reward_ratio"`
	Amount                mix.Coin        `json:"amount"`
	Height                uint64          `json:"height"`
	Proxy                 *mix.Addr       `json:"proxy,omitempty" rlp:"nil"`
}

func New(owner mix.Addr, id mix.NodeID, ratio decimal.Decimal, amount mix.Coin, height uint64, proxy *mix.Addr) *Delegation {
	return &Delegation{
		Owner:                 owner,
		NodeID:                id,
		CumulativeRewardRatio: ratio,
		Amount:                amount,
		Height:                height,
		Proxy:                 proxy,
	}
}

// DecAmount returns the principal as a decimal.
func (d *Delegation) DecAmount() (decimal.Decimal, error) {
	return d.Amount.Dec()
}

func (d *Delegation) Key() Key {
	return NewKey(d.NodeID, d.Owner, d.Proxy)
}

// Key identifies a delegation by (node, owner, proxy). Its byte form starts
// with the node id so all delegations of a node are stored together.
type Key struct {
	NodeID mix.NodeID
	owner  [32]byte
}

// NewKey derives the storage key. The owner and proxy are length prefixed
// before hashing so that no two (owner, proxy) pairs collide.
func NewKey(id mix.NodeID, owner mix.Addr, proxy *mix.Addr) Key {
	var p []byte
	if proxy != nil {
		p = proxy.Bytes()
	}
	var lens [8]byte
	binary.BigEndian.PutUint32(lens[:4], uint32(len(owner)))
	binary.BigEndian.PutUint32(lens[4:], uint32(len(p)))
	return Key{
		NodeID: id,
		owner:  mix.Blake2b(lens[:], owner.Bytes(), p),
	}
}

func (k Key) Bytes() []byte {
	return append(k.NodeID.Bytes(), k.owner[:]...)
}
