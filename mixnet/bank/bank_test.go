// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package bank

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mixledger/mixledger/lvldb"
	"github.com/mixledger/mixledger/mix"
	"github.com/mixledger/mixledger/state"
)

func TestSend(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	st := state.New(db, nil)
	bank := New(st)

	balance, err := bank.Balance("alice", mix.DefaultDenom)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	require.NoError(t, bank.Send("alice", mix.NewCoin(10, mix.DefaultDenom)))
	require.NoError(t, bank.Send("alice", mix.NewCoin(5, mix.DefaultDenom)))
	require.NoError(t, bank.Send("alice", mix.NewCoin(0, mix.DefaultDenom)))
	require.NoError(t, bank.Send("alice", mix.NewCoin(3, "other")))
	assert.Error(t, bank.Send("alice", mix.Coin{Amount: big.NewInt(-1), Denom: mix.DefaultDenom}))

	balance, err = bank.Balance("alice", mix.DefaultDenom)
	require.NoError(t, err)
	assert.Equal(t, "15unym", balance.String())
	balance, err = bank.Balance("alice", "other")
	require.NoError(t, err)
	assert.Equal(t, "3other", balance.String())

	_, err = st.Commit()
	require.NoError(t, err)
	balance, err = bank.Balance("alice", mix.DefaultDenom)
	require.NoError(t, err)
	assert.Equal(t, "15unym", balance.String())
}

func TestSendToProxyOrOwner(t *testing.T) {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	defer db.Close()
	bank := New(state.New(db, nil))

	to, err := bank.SendToProxyOrOwner(nil, "alice", mix.NewCoin(1, mix.DefaultDenom))
	require.NoError(t, err)
	assert.Equal(t, mix.Addr("alice"), to)

	vesting := mix.Addr("vesting")
	to, err = bank.SendToProxyOrOwner(&vesting, "alice", mix.NewCoin(2, mix.DefaultDenom))
	require.NoError(t, err)
	assert.Equal(t, vesting, to)

	balance, err := bank.Balance(vesting, mix.DefaultDenom)
	require.NoError(t, err)
	assert.Equal(t, "2unym", balance.String())
}
