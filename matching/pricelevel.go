package matching

import (
	"code.cobaltmarkets.io/exchange/num"
	"code.cobaltmarkets.io/exchange/types"
)

// PriceLevel holds all resting orders at one price, in strict arrival
// (sequence) order. The queue is append-only at the back and consumed
// from the front, which is what keeps time priority a structural
// property of the book rather than a sort step.
type PriceLevel struct {
	price  *num.Uint
	orders []*types.Order
	volume uint64
}

// NewPriceLevel instantiates a new, empty price level for the given price.
func NewPriceLevel(price *num.Uint) *PriceLevel {
	return &PriceLevel{
		price:  price.Clone(),
		orders: make([]*types.Order, 0, 4),
	}
}

func (l *PriceLevel) addOrder(o *types.Order) {
	// strictly increasing sequence numbers are enforced at the book
	// boundary, so appending preserves FIFO here
	l.orders = append(l.orders, o)
	l.volume += o.Remaining
}

// first returns the earliest-arrived live order at this level.
func (l *PriceLevel) first() *types.Order {
	if len(l.orders) == 0 {
		return nil
	}
	return l.orders[0]
}

// reduce takes filled size out of an order at this level, unlinking it
// once nothing remains. Returns false if the order is not here.
func (l *PriceLevel) reduce(o *types.Order, size uint64) bool {
	for i, ord := range l.orders {
		if ord.ID != o.ID {
			continue
		}
		if size > ord.Remaining {
			size = ord.Remaining
		}
		ord.Remaining -= size
		l.volume -= size
		if ord.Remaining == 0 {
			l.removeAt(i)
		}
		return true
	}
	return false
}

// removeOrder unlinks an order from the level entirely (cancel/expiry).
func (l *PriceLevel) removeOrder(id string) *types.Order {
	for i, ord := range l.orders {
		if ord.ID == id {
			l.volume -= ord.Remaining
			l.removeAt(i)
			return ord
		}
	}
	return nil
}

func (l *PriceLevel) removeAt(i int) {
	copy(l.orders[i:], l.orders[i+1:])
	l.orders[len(l.orders)-1] = nil
	l.orders = l.orders[:len(l.orders)-1]
}

func (l *PriceLevel) empty() bool {
	return len(l.orders) == 0
}
