// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bonds

import (
	"github.com/pkg/errors"

	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet/reverts"
)

// Layer is the position of a mixnode in the routing topology.
type Layer uint8

const (
	LayerOne Layer = iota + 1
	LayerTwo
	LayerThree
)

func (l Layer) Valid() bool {
	return l >= LayerOne && l <= LayerThree
}

// MixNode is the information an operator provides when bonding.
type MixNode struct {
	// Host is the network address, for example 1.1.1.1 or foo.mixnode.com.
	Host        string `json:"host" yaml:"host"`
	MixPort     uint16 `json:"mix_port" yaml:"mix_port"`
	VerlocPort  uint16 `json:"verloc_port" yaml:"verloc_port"`
	HTTPAPIPort uint16 `json:"http_api_port" yaml:"http_api_port"`
	// SphinxKey is the base58 x25519 key used for sphinx key derivation.
	SphinxKey string `json:"sphinx_key" yaml:"sphinx_key"`
	// IdentityKey is the base58 ed25519 identity of the node.
	IdentityKey string `json:"identity_key" yaml:"identity_key"`
	Version     string `json:"version" yaml:"version"`
}

// MixNodeBond is the bond of a mixnode, its rewarding state lives separately.
type MixNodeBond struct {
	ID             mix.NodeID `json:"mix_id"`
	Owner          mix.Addr   `json:"owner"`
	OriginalPledge mix.Coin   `json:"original_pledge"`
	Layer          Layer      `json:"layer"`
	MixNode        MixNode    `json:"mix_node"`
	BondingHeight  uint64     `json:"bonding_height"`
	// IsUnbonding is set when the owner asked to unbond. The bond goes away
	// at the end of the epoch.
	IsUnbonding bool      `json:"is_unbonding"`
	Proxy       *mix.Addr `json:"proxy,omitempty" rlp:"nil"`
}

func (b *MixNodeBond) Identity() string {
	return b.MixNode.IdentityKey
}

// CheckProxy returns an error if proxy is not the one that created the bond.
func (b *MixNodeBond) CheckProxy(proxy *mix.Addr) error {
	if proxyString(b.Proxy) != proxyString(proxy) {
		return reverts.ProxyMismatch(proxyString(b.Proxy), proxyString(proxy))
	}
	return nil
}

func proxyString(p *mix.Addr) string {
	if p == nil {
		return ""
	}
	return p.String()
}

// UnbondedMixnode is what is kept of a bond after it is gone.
type UnbondedMixnode struct {
	Identity        string    `json:"identity"`
	Owner           mix.Addr  `json:"owner"`
	UnbondingHeight uint64    `json:"unbonding_height"`
	Proxy           *mix.Addr `json:"proxy,omitempty" rlp:"nil"`
}

// LayerDistribution counts bonded nodes per layer.
type LayerDistribution struct {
	Layer1 uint64 `json:"layer1"`
	Layer2 uint64 `json:"layer2"`
	Layer3 uint64 `json:"layer3"`
}

// Choose returns the least populated layer, the lowest one on a tie.
func (d *LayerDistribution) Choose() Layer {
	switch {
	case d.Layer1 <= d.Layer2 && d.Layer1 <= d.Layer3:
		return LayerOne
	case d.Layer2 <= d.Layer3:
		return LayerTwo
	default:
		return LayerThree
	}
}

func (d *LayerDistribution) counter(l Layer) *uint64 {
	switch l {
	case LayerOne:
		return &d.Layer1
	case LayerTwo:
		return &d.Layer2
	case LayerThree:
		return &d.Layer3
	}
	return nil
}

func (d *LayerDistribution) Increment(l Layer) error {
	c := d.counter(l)
	if c == nil {
		return errors.Errorf("invalid layer %d", l)
	}
	*c++
	return nil
}

func (d *LayerDistribution) Decrement(l Layer) error {
	c := d.counter(l)
	if c == nil {
		return errors.Errorf("invalid layer %d", l)
	}
	if *c == 0 {
		return reverts.OverflowSubtraction(*c, 1)
	}
	*c--
	return nil
}
