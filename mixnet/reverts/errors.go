// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"github.com/mixledger/mixledger/decimal"
	"github.com/mixledger/mixledger/mix"
)

// Sentinels for errors.Is.
var (
	ErrInvalidPercent             = &ErrRevert{Code: CodeInvalidPercent}
	ErrOverflowDecimalSubtraction = &ErrRevert{Code: CodeOverflowDecimalSubtraction}
	ErrOverflowSubtraction        = &ErrRevert{Code: CodeOverflowSubtraction}
	ErrInsufficientPledge         = &ErrRevert{Code: CodeInsufficientPledge}
	ErrInsufficientDelegation     = &ErrRevert{Code: CodeInsufficientDelegation}
	ErrMixNodeBondNotFound        = &ErrRevert{Code: CodeMixNodeBondNotFound}
	ErrNoAssociatedMixNodeBond    = &ErrRevert{Code: CodeNoAssociatedMixNodeBond}
	ErrAlreadyOwnsMixnode         = &ErrRevert{Code: CodeAlreadyOwnsMixnode}
	ErrUnauthorized               = &ErrRevert{Code: CodeUnauthorized}
	ErrEmptyDelegation            = &ErrRevert{Code: CodeEmptyDelegation}
	ErrWrongDenom                 = &ErrRevert{Code: CodeWrongDenom}
	ErrProxyMismatch              = &ErrRevert{Code: CodeProxyMismatch}
	ErrEpochInProgress            = &ErrRevert{Code: CodeEpochInProgress}
	ErrMixnodeAlreadyRewarded     = &ErrRevert{Code: CodeMixnodeAlreadyRewarded}
	ErrMixnodeNotInRewardedSet    = &ErrRevert{Code: CodeMixnodeNotInRewardedSet}
	ErrMixnodeIsUnbonding         = &ErrRevert{Code: CodeMixnodeIsUnbonding}
	ErrMixnodeHasUnbonded         = &ErrRevert{Code: CodeMixnodeHasUnbonded}
	ErrNoMixnodeDelegationFound   = &ErrRevert{Code: CodeNoMixnodeDelegationFound}
	ErrNoRewardsToClaim           = &ErrRevert{Code: CodeNoRewardsToClaim}
	ErrEmptyParamsChangeMsg       = &ErrRevert{Code: CodeEmptyParamsChangeMsg}
	ErrInvalidActiveSetSize       = &ErrRevert{Code: CodeInvalidActiveSetSize}
	ErrInvalidRewardedSetSize     = &ErrRevert{Code: CodeInvalidRewardedSetSize}
	ErrZeroActiveSet              = &ErrRevert{Code: CodeZeroActiveSet}
	ErrZeroRewardedSet            = &ErrRevert{Code: CodeZeroRewardedSet}
	ErrUnexpectedActiveSetSize    = &ErrRevert{Code: CodeUnexpectedActiveSetSize}
	ErrUnexpectedRewardedSetSize  = &ErrRevert{Code: CodeUnexpectedRewardedSetSize}
	ErrDuplicateRewardedSetNode   = &ErrRevert{Code: CodeDuplicateRewardedSetNode}
)

func InvalidPercent() *ErrRevert {
	return New(CodeInvalidPercent, "provided percent value is greater than 100%%")
}

func OverflowDecimalSubtraction(minuend, subtrahend decimal.Decimal) *ErrRevert {
	return New(CodeOverflowDecimalSubtraction,
		"overflow in decimal subtraction: %s - %s", minuend, subtrahend)
}

func OverflowSubtraction(minuend, subtrahend uint64) *ErrRevert {
	return New(CodeOverflowSubtraction, "overflow in subtraction: %d - %d", minuend, subtrahend)
}

func InsufficientPledge(received, minimum mix.Coin) *ErrRevert {
	return New(CodeInsufficientPledge,
		"not enough funds sent for node pledge: received %s, minimum %s", received, minimum)
}

func InsufficientDelegation(received, minimum mix.Coin) *ErrRevert {
	return New(CodeInsufficientDelegation,
		"not enough funds sent for delegation: received %s, minimum %s", received, minimum)
}

func MixNodeBondNotFound(id mix.NodeID) *ErrRevert {
	return New(CodeMixNodeBondNotFound, "mixnode with id %d does not exist", id)
}

func NoAssociatedMixNodeBond(owner mix.Addr) *ErrRevert {
	return New(CodeNoAssociatedMixNodeBond, "%s does not seem to own any mixnodes", owner)
}

func AlreadyOwnsMixnode(owner mix.Addr, id mix.NodeID) *ErrRevert {
	return New(CodeAlreadyOwnsMixnode, "%s already owns mixnode %d", owner, id)
}

func Unauthorized() *ErrRevert {
	return New(CodeUnauthorized, "unauthorized")
}

func EmptyDelegation() *ErrRevert {
	return New(CodeEmptyDelegation, "no coin was sent for the delegation")
}

func WrongDenom(received, expected string) *ErrRevert {
	return New(CodeWrongDenom, "wrong coin denomination: received %q, expected %q", received, expected)
}

func ProxyMismatch(existing, incoming string) *ErrRevert {
	return New(CodeProxyMismatch,
		"proxy address mismatch: expected %q, got %q", existing, incoming)
}

func EpochInProgress(now, epochStart, epochEnd uint64) *ErrRevert {
	return New(CodeEpochInProgress,
		"epoch is still in progress: block time %d, epoch started at %d and ends at %d", now, epochStart, epochEnd)
}

func MixnodeAlreadyRewarded(id mix.NodeID, epoch mix.FullEpochID) *ErrRevert {
	return New(CodeMixnodeAlreadyRewarded, "mixnode %d has already been rewarded in epoch %d", id, epoch)
}

func MixnodeNotInRewardedSet(id mix.NodeID, epoch mix.FullEpochID) *ErrRevert {
	return New(CodeMixnodeNotInRewardedSet, "mixnode %d is not part of the rewarded set in epoch %d", id, epoch)
}

func MixnodeIsUnbonding(id mix.NodeID) *ErrRevert {
	return New(CodeMixnodeIsUnbonding, "mixnode %d is already in the process of unbonding", id)
}

func MixnodeHasUnbonded(id mix.NodeID) *ErrRevert {
	return New(CodeMixnodeHasUnbonded, "mixnode %d has already unbonded", id)
}

func NoMixnodeDelegationFound(id mix.NodeID, owner mix.Addr, proxy *mix.Addr) *ErrRevert {
	p := "none"
	if proxy != nil {
		p = proxy.String()
	}
	return New(CodeNoMixnodeDelegationFound,
		"could not find any delegation of %s (proxy %s) on mixnode %d", owner, p, id)
}

func NoRewardsToClaim(id mix.NodeID, address mix.Addr) *ErrRevert {
	return New(CodeNoRewardsToClaim, "%s has no rewards to claim on mixnode %d", address, id)
}

func EmptyParamsChangeMsg() *ErrRevert {
	return New(CodeEmptyParamsChangeMsg, "received empty rewarding parameters change message")
}

func InvalidActiveSetSize() *ErrRevert {
	return New(CodeInvalidActiveSetSize, "active set size would exceed the rewarded set size")
}

func InvalidRewardedSetSize() *ErrRevert {
	return New(CodeInvalidRewardedSetSize, "rewarded set size would be smaller than the active set size")
}

func ZeroActiveSet() *ErrRevert {
	return New(CodeZeroActiveSet, "active set size can't be zero")
}

func ZeroRewardedSet() *ErrRevert {
	return New(CodeZeroRewardedSet, "rewarded set size can't be zero")
}

func UnexpectedActiveSetSize(received, expected uint32) *ErrRevert {
	return New(CodeUnexpectedActiveSetSize,
		"received unexpected number of active nodes: %d, expected %d", received, expected)
}

func UnexpectedRewardedSetSize(received, expected uint32) *ErrRevert {
	return New(CodeUnexpectedRewardedSetSize,
		"received more rewarded nodes than allowed: %d, expected at most %d", received, expected)
}

func DuplicateRewardedSetNode(id mix.NodeID) *ErrRevert {
	return New(CodeDuplicateRewardedSetNode, "mixnode %d appears more than once in the rewarded set", id)
}
