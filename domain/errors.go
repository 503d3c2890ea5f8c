package domain

import (
	"errors"
)

// ErrorKind classifies failures for callers that only care about the family
type ErrorKind string

const (
	KindUnknown       ErrorKind = ""
	KindValidation    ErrorKind = "validation"
	KindAuthorization ErrorKind = "authorization"
	KindEconomic      ErrorKind = "economic"
	KindExternal      ErrorKind = "external"
	KindInvariant     ErrorKind = "invariant"
)

// Error is a sentinel carrying its taxonomy kind and a stable reason code
type Error struct {
	Kind   ErrorKind
	Reason string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Reason
}

func newError(kind ErrorKind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// KindOf returns the kind of the first domain Error in err's chain
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}

// ReasonOf returns the reason code of the first domain Error in err's chain, or "unknown"
func ReasonOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Reason
	}
	return "unknown"
}

var (
	// ErrNotFound will throw if the requested item is not exists
	ErrNotFound            = errors.New("Your requested Item is not found")
	ErrInvalidNumberFormat = errors.New("invalid number format")
	ErrInvalidAddress      = errors.New("Invalid address")
)

// validation
var (
	// ErrBadParamInput will throw if the given params is not valid
	ErrBadParamInput       = newError(KindValidation, "bad_param_input")
	ErrInvalidTimeRange    = newError(KindValidation, "invalid_time_range")
	ErrZeroAmount          = newError(KindValidation, "zero_amount")
	ErrInvalidFeeSchedule  = newError(KindValidation, "invalid_fee_schedule")
	ErrInvalidFeeRate      = newError(KindValidation, "invalid_fee_rate")
	ErrAuctionNotFound     = newError(KindValidation, "auction_not_found")
	ErrAuctionNotStarted   = newError(KindValidation, "auction_not_started")
	ErrAuctionExpired      = newError(KindValidation, "auction_expired")
	ErrAuctionNotYetEnded  = newError(KindValidation, "auction_not_yet_ended")
	ErrAuctionAlreadyEnded = newError(KindValidation, "auction_already_ended")
	ErrSellerCannotBid     = newError(KindValidation, "seller_cannot_bid")
	ErrUnsupportedAsset    = newError(KindValidation, "unsupported_asset")
	ErrUnsupportedVersion  = newError(KindValidation, "unsupported_version")
	ErrPaused              = newError(KindValidation, "paused")
	ErrAlreadyPaused       = newError(KindValidation, "already_paused")
	ErrNotPaused           = newError(KindValidation, "not_paused")
)

// authorization
var (
	ErrNotOwner      = newError(KindAuthorization, "not_owner")
	ErrNotApproved   = newError(KindAuthorization, "not_approved")
	ErrNotAssetOwner = newError(KindAuthorization, "not_asset_owner")
)

// economic
var (
	ErrBidTooLow             = newError(KindEconomic, "bid_too_low")
	ErrAllowanceInsufficient = newError(KindEconomic, "allowance_insufficient")
	ErrInsufficientBalance   = newError(KindEconomic, "insufficient_balance")
)

// external
var (
	ErrPriceUnavailable = newError(KindExternal, "price_unavailable")
	ErrTransferFailed   = newError(KindExternal, "transfer_failed")
)

// invariant
var (
	ErrInvariantViolation = newError(KindInvariant, "invariant_violation")
	ErrAuctionHalted      = newError(KindInvariant, "auction_halted")
	ErrReentrantCall      = newError(KindInvariant, "reentrant_call")
)
