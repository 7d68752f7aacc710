// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package mixnet

import (
	"github.com/mixledger/mixledger/decimal"
	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet/bonds"
	"github.com/mixledger/mixledger/mixnet/delegation"
	"github.com/mixledger/mixledger/mixnet/events"
	"github.com/mixledger/mixledger/mixnet/interval"
	"github.com/mixledger/mixledger/mixnet/reverts"
	"github.com/mixledger/mixledger/mixnet/rewarding"
)

//
// Getters - no state change
//

// MixnodeDetails is a bond together with its rewarding ledger.
type MixnodeDetails struct {
	Bond      *bonds.MixNodeBond          `json:"bond_information"`
	Rewarding *rewarding.MixNodeRewarding `json:"rewarding_details"`
}

// StakeSaturation of a node. Both values are nil when the node has no ledger.
type StakeSaturation struct {
	NodeID             mix.NodeID       `json:"mix_id"`
	CurrentSaturation  *decimal.Decimal `json:"current_saturation"`
	UncappedSaturation *decimal.Decimal `json:"uncapped_saturation"`
}

func (m *Mixnet) Params() (params *rewarding.RewardingParams, err error) {
	err = m.view(func() error {
		params, err = m.rewarding.Params()
		return err
	})
	return
}

func (m *Mixnet) CurrentInterval() (clock *interval.Interval, err error) {
	err = m.view(func() error {
		clock, err = m.interval.Current()
		return err
	})
	return
}

func (m *Mixnet) RewardedSet() (set interval.RewardedSet, err error) {
	err = m.view(func() error {
		set, err = m.interval.RewardedSet()
		return err
	})
	return
}

// Mixnode returns nil if the node is not bonded.
func (m *Mixnet) Mixnode(id mix.NodeID) (details *MixnodeDetails, err error) {
	err = m.view(func() error {
		bond, err := m.bonds.Get(id)
		if err != nil || bond == nil {
			return err
		}
		details, err = m.details(bond)
		return err
	})
	return
}

// MixnodeByOwner returns nil if owner has no bonded node.
func (m *Mixnet) MixnodeByOwner(owner mix.Addr) (details *MixnodeDetails, err error) {
	err = m.view(func() error {
		bond, err := m.bonds.ByOwner(owner)
		if err != nil || bond == nil {
			return err
		}
		details, err = m.details(bond)
		return err
	})
	return
}

// Mixnodes pages through the bonds in id order.
func (m *Mixnet) Mixnodes(startAfter mix.NodeID, limit int) (list []*MixnodeDetails, err error) {
	err = m.view(func() error {
		all, err := m.bonds.List(startAfter, limit)
		if err != nil {
			return err
		}
		list = make([]*MixnodeDetails, 0, len(all))
		for _, bond := range all {
			d, err := m.details(bond)
			if err != nil {
				return err
			}
			list = append(list, d)
		}
		return nil
	})
	return
}

func (m *Mixnet) details(bond *bonds.MixNodeBond) (*MixnodeDetails, error) {
	ledger, err := m.rewarding.GetLedger(bond.ID)
	if err != nil {
		return nil, err
	}
	if ledger == nil {
		return nil, reverts.InconsistentState("bonded mixnode %d has no rewarding ledger", bond.ID)
	}
	return &MixnodeDetails{Bond: bond, Rewarding: ledger}, nil
}

// RewardingDetails returns the ledger of a node, nil if it has none. The
// ledger outlives the bond while delegations remain.
func (m *Mixnet) RewardingDetails(id mix.NodeID) (ledger *rewarding.MixNodeRewarding, err error) {
	err = m.view(func() error {
		ledger, err = m.rewarding.GetLedger(id)
		return err
	})
	return
}

// UnbondedMixnode returns nil unless the node has unbonded.
func (m *Mixnet) UnbondedMixnode(id mix.NodeID) (u *bonds.UnbondedMixnode, err error) {
	err = m.view(func() error {
		u, err = m.bonds.Unbonded(id)
		return err
	})
	return
}

func (m *Mixnet) LayerDistribution() (layers bonds.LayerDistribution, err error) {
	err = m.view(func() error {
		layers, err = m.bonds.Layers()
		return err
	})
	return
}

func (m *Mixnet) StakeSaturation(id mix.NodeID) (sat StakeSaturation, err error) {
	sat.NodeID = id
	err = m.view(func() error {
		ledger, err := m.rewarding.GetLedger(id)
		if err != nil || ledger == nil {
			return err
		}
		params, err := m.rewarding.Params()
		if err != nil {
			return err
		}
		current, err := ledger.BondSaturation(params)
		if err != nil {
			return err
		}
		uncapped, err := ledger.UncappedBondSaturation(params)
		if err != nil {
			return err
		}
		sat.CurrentSaturation, sat.UncappedSaturation = &current, &uncapped
		return nil
	})
	return
}

// Delegation returns nil if there is no such delegation.
func (m *Mixnet) Delegation(owner mix.Addr, id mix.NodeID, proxy *mix.Addr) (d *delegation.Delegation, err error) {
	proxy = normaliseProxy(proxy)
	err = m.view(func() error {
		d, err = m.delegations.MayLoad(delegation.NewKey(id, owner, proxy))
		return err
	})
	return
}

// NodeDelegations pages through the delegations of a node.
func (m *Mixnet) NodeDelegations(id mix.NodeID, startAfter *delegation.Key, limit int) (list []*delegation.Delegation, err error) {
	err = m.view(func() error {
		list, err = m.delegations.NodeDelegations(id, startAfter, limit)
		return err
	})
	return
}

func (m *Mixnet) PendingOperatorReward(owner mix.Addr) (reward mix.Coin, err error) {
	err = m.view(func() error {
		bond, err := m.bonds.ByOwner(owner)
		if err != nil {
			return err
		}
		if bond == nil {
			return reverts.NoAssociatedMixNodeBond(owner)
		}
		ledger, err := m.existingLedger(bond.ID)
		if err != nil {
			return err
		}
		reward, err = ledger.PendingOperatorReward(bond.OriginalPledge)
		return err
	})
	return
}

func (m *Mixnet) PendingDelegatorReward(owner mix.Addr, id mix.NodeID, proxy *mix.Addr) (reward mix.Coin, err error) {
	proxy = normaliseProxy(proxy)
	err = m.view(func() error {
		d, err := m.existingDelegation(owner, id, proxy)
		if err != nil {
			return err
		}
		ledger, err := m.existingLedger(id)
		if err != nil {
			return err
		}
		reward, err = ledger.PendingDelegatorReward(d)
		return err
	})
	return
}

func (m *Mixnet) PendingEpochEvents(limit uint64) (list []events.Entry[events.PendingEpochEvent], err error) {
	err = m.view(func() error {
		list, err = m.queues.EpochEvents(limit)
		return err
	})
	return
}

func (m *Mixnet) PendingIntervalEvents(limit uint64) (list []events.Entry[events.PendingIntervalEvent], err error) {
	err = m.view(func() error {
		list, err = m.queues.IntervalEvents(limit)
		return err
	})
	return
}

// Balance returns what the ledger paid out to addr so far.
func (m *Mixnet) Balance(addr mix.Addr) (balance mix.Coin, err error) {
	err = m.view(func() error {
		denom, err := m.rewardingDenom()
		if err != nil {
			return err
		}
		balance, err = m.bank.Balance(addr, denom)
		return err
	})
	return
}
