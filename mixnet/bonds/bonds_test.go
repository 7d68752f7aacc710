// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bonds

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mixledger/mixledger/lvldb"
	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/mixnet/reverts"
	"github.com/mixledger/mixledger/state"
)

func newTestService(t *testing.T) (*Service, *state.State) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := state.New(db, nil)
	return New(st), st
}

func newBond(t *testing.T, svc *Service, owner mix.Addr) *MixNodeBond {
	id, err := svc.NextID()
	require.NoError(t, err)
	b := &MixNodeBond{
		ID:             id,
		Owner:          owner,
		OriginalPledge: mix.NewCoin(mix.MinimumPledge, mix.DefaultDenom),
		MixNode: MixNode{
			Host:        "1.1.1.1",
			MixPort:     1789,
			IdentityKey: fmt.Sprintf("identity-%s", owner),
		},
		BondingHeight: 5,
	}
	require.NoError(t, svc.Add(b))
	return b
}

func TestLayerDistribution(t *testing.T) {
	var d LayerDistribution
	assert.Equal(t, LayerOne, d.Choose())

	require.NoError(t, d.Increment(LayerOne))
	assert.Equal(t, LayerTwo, d.Choose())
	require.NoError(t, d.Increment(LayerTwo))
	assert.Equal(t, LayerThree, d.Choose())
	require.NoError(t, d.Increment(LayerThree))
	assert.Equal(t, LayerOne, d.Choose())

	require.NoError(t, d.Decrement(LayerTwo))
	assert.Equal(t, LayerTwo, d.Choose())
	assert.ErrorIs(t, d.Decrement(LayerTwo), reverts.ErrOverflowSubtraction)
	assert.Error(t, d.Increment(Layer(0)))
	assert.False(t, Layer(4).Valid())
}

func TestCheckProxy(t *testing.T) {
	vesting := mix.Addr("vesting")
	b := &MixNodeBond{Proxy: &vesting}
	assert.NoError(t, b.CheckProxy(&vesting))
	assert.ErrorIs(t, b.CheckProxy(nil), reverts.ErrProxyMismatch)

	b.Proxy = nil
	assert.NoError(t, b.CheckProxy(nil))
	assert.ErrorIs(t, b.CheckProxy(&vesting), reverts.ErrProxyMismatch)
}

func TestBondLifecycle(t *testing.T) {
	svc, st := newTestService(t)

	alice := newBond(t, svc, "alice")
	bob := newBond(t, svc, "bob")
	assert.Equal(t, mix.NodeID(1), alice.ID)
	assert.Equal(t, mix.NodeID(2), bob.ID)
	assert.Equal(t, LayerOne, alice.Layer)
	assert.Equal(t, LayerTwo, bob.Layer)

	got, err := svc.ByOwner("alice")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, "identity-alice", got.Identity())

	none, err := svc.ByOwner("carol")
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, svc.Remove(alice, 42))
	got, err = svc.Get(alice.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	got, err = svc.ByOwner("alice")
	require.NoError(t, err)
	assert.Nil(t, got)

	unbonded, err := svc.Unbonded(alice.ID)
	require.NoError(t, err)
	require.NotNil(t, unbonded)
	assert.Equal(t, uint64(42), unbonded.UnbondingHeight)
	assert.Equal(t, "identity-alice", unbonded.Identity)

	layers, err := svc.Layers()
	require.NoError(t, err)
	assert.Equal(t, LayerDistribution{Layer2: 1}, layers)

	// ids are never reused
	carol := newBond(t, svc, "carol")
	assert.Equal(t, mix.NodeID(3), carol.ID)
	assert.Equal(t, LayerOne, carol.Layer)

	_, err = st.Commit()
	require.NoError(t, err)

	list, err := svc.List(0, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, bob.ID, list[0].ID)
	assert.Equal(t, carol.ID, list[1].ID)

	list, err = svc.List(bob.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, carol.ID, list[0].ID)
}
