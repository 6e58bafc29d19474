package types

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidParty signals an order submitted with an empty party.
	ErrInvalidParty = errors.New("invalid party id")
	// ErrInvalidAsset signals an order submitted with an empty asset id.
	ErrInvalidAsset = errors.New("invalid asset id")
	// ErrInvalidSide signals an order submitted with no buy/sell side.
	ErrInvalidSide = errors.New("invalid order side")
	// ErrInvalidPrice signals an order submitted with a zero or missing price.
	ErrInvalidPrice = errors.New("invalid order price (price <= 0)")
	// ErrInvalidRemainingSize signals remaining out of the (0, size] range.
	ErrInvalidRemainingSize = errors.New("invalid remaining size")
	// ErrInvalidExpiry signals an expiry set in the past at submission.
	ErrInvalidExpiry = errors.New("invalid order expiry")

	// ErrOrderNotFound is returned for a cancel on an unknown or already
	// terminal order.
	ErrOrderNotFound = errors.New("order not found")
	// ErrAssetNotFound signals an operation on an unknown market.
	ErrAssetNotFound = errors.New("asset not found")
	// ErrAssetAlreadyExists signals a market created twice.
	ErrAssetAlreadyExists = errors.New("asset already exists")

	// ErrAccountNotFound signals a ledger operation on an unknown account.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInsufficientFunds signals a debit larger than the current balance.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientPosition signals a position decrement below zero.
	ErrInsufficientPosition = errors.New("insufficient position")
)

// SettlementError reports a settlement that would have violated a ledger
// invariant. Funds are reserved upfront at intake, so hitting this means
// the reservation path upstream is broken: the match is aborted, the asset
// is skipped for the rest of the cycle and nothing is retried.
type SettlementError struct {
	Asset string
	Trade string
	Err   error
}

func (e *SettlementError) Error() string {
	return fmt.Sprintf("settlement invariant violation on %s (trade %s): %v", e.Asset, e.Trade, e.Err)
}

func (e *SettlementError) Unwrap() error {
	return e.Err
}
