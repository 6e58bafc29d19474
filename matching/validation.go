package matching

import (
	"code.cobaltmarkets.io/exchange/types"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidMarket signals an order routed to the wrong book.
	ErrInvalidMarket = errors.New("order asset does not match book")
	// ErrOrderOutOfSequence signals a sequence number not strictly greater
	// than the latest one seen, which would break time priority.
	ErrOrderOutOfSequence = errors.New("order out of sequence")
	// ErrOrderAlreadyExists signals a duplicate order id.
	ErrOrderAlreadyExists = errors.New("order already exists on book")
)

func (b *OrderBook) validateOrder(o *types.Order) error {
	if o.Asset != b.asset {
		return ErrInvalidMarket
	}
	if err := o.Validate(); err != nil {
		return err
	}
	if o.Sequence <= b.latestSequence {
		return ErrOrderOutOfSequence
	}
	if _, ok := b.ordersByID[o.ID]; ok {
		return ErrOrderAlreadyExists
	}
	return nil
}
