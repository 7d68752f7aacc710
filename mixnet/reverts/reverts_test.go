// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/mixledger/mixledger/decimal"
	"github.com/mixledger/mixledger/mix"
)

func Test_Reverts(t *testing.T) {
	revert := MixnodeAlreadyRewarded(7, 3)
	assert.Equal(t, "mixnode 7 has already been rewarded in epoch 3", revert.Error())
	assert.Equal(t, CodeMixnodeAlreadyRewarded, revert.Code)

	assert.True(t, IsRevertErr(revert))
	assert.True(t, IsRevertErr(errors.Wrap(revert, "reward")))
	assert.False(t, IsRevertErr(nil))
	assert.False(t, IsRevertErr(fmt.Errorf("test")))
	assert.False(t, IsRevertErr(InconsistentState("x")))

	assert.ErrorIs(t, errors.Wrap(revert, "reward"), ErrMixnodeAlreadyRewarded)
	assert.NotErrorIs(t, revert, ErrMixnodeNotInRewardedSet)
	assert.Equal(t, CodeMixnodeAlreadyRewarded, CodeOf(errors.Wrap(revert, "wrapped")))
	assert.Equal(t, CodeUnknown, CodeOf(fmt.Errorf("plain")))
}

func TestInconsistentState(t *testing.T) {
	err := InconsistentState("ledger for mixnode %d is missing", 5)
	assert.Equal(t, "inconsistent state: ledger for mixnode 5 is missing", err.Error())
	assert.True(t, IsFatal(err))
	assert.True(t, IsFatal(errors.Wrap(err, "execute")))
	assert.False(t, IsFatal(Unauthorized()))
	assert.False(t, IsFatal(nil))
}

func TestMessages(t *testing.T) {
	proxy := mix.Addr("vesting")
	tests := []struct {
		err  *ErrRevert
		code Code
		msg  string
	}{
		{OverflowDecimalSubtraction(decimal.NewFromUint64(1), decimal.MustFromString("1.5")), CodeOverflowDecimalSubtraction, "overflow in decimal subtraction: 1 - 1.5"},
		{InsufficientPledge(mix.NewCoin(5, "unym"), mix.NewCoin(10, "unym")), CodeInsufficientPledge, "not enough funds sent for node pledge: received 5unym, minimum 10unym"},
		{NoMixnodeDelegationFound(1, "alice", &proxy), CodeNoMixnodeDelegationFound, "could not find any delegation of alice (proxy vesting) on mixnode 1"},
		{NoMixnodeDelegationFound(1, "alice", nil), CodeNoMixnodeDelegationFound, "could not find any delegation of alice (proxy none) on mixnode 1"},
		{InvalidPercent(), CodeInvalidPercent, "provided percent value is greater than 100%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, tt.err.Code)
		assert.Equal(t, tt.msg, tt.err.Error())
		assert.Equal(t, tt.code.String(), CodeOf(tt.err).String())
	}
	assert.Equal(t, "Code(200)", Code(200).String())
}
