package types

import (
	"fmt"

	"code.cobaltmarkets.io/exchange/num"
)

// Side of the book an order lives on.
type Side int

const (
	SideUnspecified Side = iota
	SideBuy
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unspecified"
	}
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderStatus transitions only forward:
// active -> partially filled -> filled, or -> cancelled / expired while
// still resting.
type OrderStatus int

const (
	OrderStatusActive OrderStatus = iota
	OrderStatusPartiallyFilled
	OrderStatusFilled
	OrderStatusCancelled
	OrderStatusExpired
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusActive:
		return "active"
	case OrderStatusPartiallyFilled:
		return "partially_filled"
	case OrderStatusFilled:
		return "filled"
	case OrderStatusCancelled:
		return "cancelled"
	case OrderStatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// IsTerminal returns true once an order can never trade again.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusFilled || s == OrderStatusCancelled || s == OrderStatusExpired
}

// Order is a limit order resting on, or about to enter, a book.
// Sequence is the intake-assigned strictly increasing number used for
// time priority, two orders never share one.
type Order struct {
	ID        string
	Party     string
	Asset     string
	Side      Side
	Price     *num.Uint
	Size      uint64
	Remaining uint64
	Sequence  uint64
	Status    OrderStatus
	CreatedAt int64
	// ExpiresAt is optional, zero means good till cancelled.
	ExpiresAt int64
}

func (o *Order) String() string {
	return fmt.Sprintf("%s %s %d@%s (remaining %d, seq %d)",
		o.Party, o.Side, o.Size, o.Price, o.Remaining, o.Sequence)
}

// Validate applies the intake-time checks. Anything failing here is
// rejected synchronously and never enters a book.
func (o *Order) Validate() error {
	if o.Party == "" {
		return ErrInvalidParty
	}
	if o.Asset == "" {
		return ErrInvalidAsset
	}
	if o.Side != SideBuy && o.Side != SideSell {
		return ErrInvalidSide
	}
	if o.Price == nil || o.Price.IsZero() {
		return ErrInvalidPrice
	}
	if o.Size == 0 || o.Remaining == 0 || o.Remaining > o.Size {
		return ErrInvalidRemainingSize
	}
	return nil
}

// IsExpired returns true if the order carries an expiry in the past.
func (o *Order) IsExpired(now int64) bool {
	return o.ExpiresAt != 0 && o.ExpiresAt <= now
}

// Clone returns a deep copy, books hand these out so callers can not
// mutate resting state.
func (o *Order) Clone() *Order {
	cpy := *o
	cpy.Price = o.Price.Clone()
	return &cpy
}
