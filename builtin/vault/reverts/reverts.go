// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package reverts

import (
	"errors"
)

// Kind classifies a revert.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindValidation
	KindState
	KindCapacity
	KindArithmetic
	KindGuard
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindCapacity:
		return "capacity"
	case KindArithmetic:
		return "arithmetic"
	case KindGuard:
		return "guard"
	default:
		return "unknown"
	}
}

// ErrRevert aborts a vault operation. All state written by the operation is discarded.
type ErrRevert struct {
	message   string
	kind      Kind
	retryable bool
}

func New(kind Kind, message string) *ErrRevert {
	return &ErrRevert{
		message: message,
		kind:    kind,
	}
}

// NewRetryable creates a revert for a condition that may clear up later.
func NewRetryable(kind Kind, message string) *ErrRevert {
	return &ErrRevert{
		message:   message,
		kind:      kind,
		retryable: true,
	}
}

func (e *ErrRevert) Error() string {
	return e.message
}

func (e *ErrRevert) Kind() Kind {
	return e.kind
}

func (e *ErrRevert) Retryable() bool {
	return e.retryable
}

var (
	ErrZeroAmount         = New(KindValidation, "amount must be greater than zero")
	ErrZeroAddress        = New(KindValidation, "address must not be zero")
	ErrDurationNotSet     = New(KindValidation, "rewards duration not set")
	ErrZeroDuration       = New(KindValidation, "rewards duration must be greater than zero")
	ErrAssetNotRegistered = New(KindValidation, "reward asset not registered")
	ErrAlreadyFlagged     = New(KindValidation, "holder kind unchanged")

	ErrZeroShares         = NewRetryable(KindState, "no shares outstanding")
	ErrPeriodActive       = NewRetryable(KindState, "reward period still active")
	ErrBatchEmpty         = NewRetryable(KindState, "batch is empty")
	ErrBatchNotFrozen     = NewRetryable(KindState, "batch not frozen")
	ErrBatchFrozen        = New(KindState, "batch already frozen")
	ErrBatchFulfilled     = New(KindState, "batch already fulfilled")
	ErrNothingToClaim     = NewRetryable(KindState, "nothing to claim")
	ErrInsufficientAssets = NewRetryable(KindState, "insufficient asset balance")
	ErrRoutedOutstanding  = NewRetryable(KindState, "routed shares outstanding")

	ErrTooManyRewardAssets = New(KindCapacity, "too many reward assets")
	ErrExceedsMaxDeposits  = New(KindCapacity, "deposit exceeds max deposits")

	ErrFeeExceedsTotal          = New(KindArithmetic, "fee exceeds batch total")
	ErrInsufficientRoutedShares = New(KindArithmetic, "insufficient routed shares")
	ErrInsufficientBalance      = New(KindArithmetic, "insufficient share balance")
	ErrOverflow                 = New(KindArithmetic, "arithmetic overflow")

	ErrReentrant = NewRetryable(KindGuard, "reentrant call")
)

func IsRevertErr(err any) bool {
	if err == nil {
		return false
	}
	e, ok := err.(error)
	if !ok {
		return false
	}
	var ve *ErrRevert
	return errors.As(e, &ve)
}

// KindOf returns the kind of the revert wrapped in err, or KindUnknown.
func KindOf(err error) Kind {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.kind
	}
	return KindUnknown
}

// IsRetryable reports whether err is a revert that may succeed when retried later.
func IsRetryable(err error) bool {
	var ve *ErrRevert
	if errors.As(err, &ve) {
		return ve.retryable
	}
	return false
}
