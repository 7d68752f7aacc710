// Copyright (c) 2025 The mixledger developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package reverts defines the errors a mixnet operation can fail with.
//
// An *ErrRevert aborts only the request that caused it and is reported to the
// caller verbatim. An *ErrInconsistentState means the ledger broke one of its
// own invariants; it aborts the whole state transition it occurred in.
package reverts

import (
	"errors"
	"fmt"
)

type Code uint8

const (
	CodeUnknown Code = iota
	CodeInvalidPercent
	CodeOverflowDecimalSubtraction
	CodeOverflowSubtraction
	CodeInsufficientPledge
	CodeInsufficientDelegation
	CodeMixNodeBondNotFound
	CodeNoAssociatedMixNodeBond
	CodeAlreadyOwnsMixnode
	CodeUnauthorized
	CodeEmptyDelegation
	CodeWrongDenom
	CodeProxyMismatch
	CodeEpochInProgress
	CodeMixnodeAlreadyRewarded
	CodeMixnodeNotInRewardedSet
	CodeMixnodeIsUnbonding
	CodeMixnodeHasUnbonded
	CodeNoMixnodeDelegationFound
	CodeNoRewardsToClaim
	CodeEmptyParamsChangeMsg
	CodeInvalidActiveSetSize
	CodeInvalidRewardedSetSize
	CodeZeroActiveSet
	CodeZeroRewardedSet
	CodeUnexpectedActiveSetSize
	CodeUnexpectedRewardedSetSize
	CodeDuplicateRewardedSetNode
)

var codeNames = [...]string{
	CodeUnknown:                    "Unknown",
	CodeInvalidPercent:             "InvalidPercent",
	CodeOverflowDecimalSubtraction: "OverflowDecimalSubtraction",
	CodeOverflowSubtraction:        "OverflowSubtraction",
	CodeInsufficientPledge:         "InsufficientPledge",
	CodeInsufficientDelegation:     "InsufficientDelegation",
	CodeMixNodeBondNotFound:        "MixNodeBondNotFound",
	CodeNoAssociatedMixNodeBond:    "NoAssociatedMixNodeBond",
	CodeAlreadyOwnsMixnode:         "AlreadyOwnsMixnode",
	CodeUnauthorized:               "Unauthorized",
	CodeEmptyDelegation:            "EmptyDelegation",
	CodeWrongDenom:                 "WrongDenom",
	CodeProxyMismatch:              "ProxyMismatch",
	CodeEpochInProgress:            "EpochInProgress",
	CodeMixnodeAlreadyRewarded:     "MixnodeAlreadyRewarded",
	CodeMixnodeNotInRewardedSet:    "MixnodeNotInRewardedSet",
	CodeMixnodeIsUnbonding:         "MixnodeIsUnbonding",
	CodeMixnodeHasUnbonded:         "MixnodeHasUnbonded",
	CodeNoMixnodeDelegationFound:   "NoMixnodeDelegationFound",
	CodeNoRewardsToClaim:           "NoRewardsToClaim",
	CodeEmptyParamsChangeMsg:       "EmptyParamsChangeMsg",
	CodeInvalidActiveSetSize:       "InvalidActiveSetSize",
	CodeInvalidRewardedSetSize:     "InvalidRewardedSetSize",
	CodeZeroActiveSet:              "ZeroActiveSet",
	CodeZeroRewardedSet:            "ZeroRewardedSet",
	CodeUnexpectedActiveSetSize:    "UnexpectedActiveSetSize",
	CodeUnexpectedRewardedSetSize:  "UnexpectedRewardedSetSize",
	CodeDuplicateRewardedSetNode:   "DuplicateRewardedSetNode",
}

func (c Code) String() string {
	if int(c) < len(codeNames) {
		return codeNames[c]
	}
	return fmt.Sprintf("Code(%d)", uint8(c))
}

type ErrRevert struct {
	Code    Code
	message string
}

func New(code Code, format string, args ...any) *ErrRevert {
	return &ErrRevert{
		Code:    code,
		message: fmt.Sprintf(format, args...),
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

// Is matches any *ErrRevert with the same code, so that
// errors.Is(err, reverts.ErrMixnodeAlreadyRewarded) works for every instance.
func (e *ErrRevert) Is(target error) bool {
	t, ok := target.(*ErrRevert)
	return ok && t.Code == e.Code
}

func IsRevertErr(err error) bool {
	if err == nil {
		return false
	}
	var ve *ErrRevert
	return errors.As(err, &ve)
}

// CodeOf returns the code of the revert in err's chain, or CodeUnknown.
func CodeOf(err error) Code {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.Code
	}
	return CodeUnknown
}

// ErrInconsistentState reports a broken ledger invariant.
type ErrInconsistentState struct {
	Comment string
}

func InconsistentState(format string, args ...any) *ErrInconsistentState {
	return &ErrInconsistentState{Comment: fmt.Sprintf(format, args...)}
}

func (e *ErrInconsistentState) Error() string {
	return "inconsistent state: " + e.Comment
}

func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var ie *ErrInconsistentState
	return errors.As(err, &ie)
}
