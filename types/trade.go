package types

import (
	"fmt"

	"code.cobaltmarkets.io/exchange/num"
)

// Trade is the immutable record of one fill. Price is always the maker's
// resting price. MakerFee and TakerFee are the cash amounts charged to
// each side, both >= 0.
type Trade struct {
	ID        string
	Asset     string
	MakerID   string
	TakerID   string
	Buyer     string
	Seller    string
	Price     *num.Uint
	Size      uint64
	MakerFee  *num.Uint
	TakerFee  *num.Uint
	Sequence  uint64
	Timestamp int64
	// Aggressor is the taker's side of the trade.
	Aggressor Side
}

func (t *Trade) String() string {
	return fmt.Sprintf("[trade/%s] %s buys %d from %s at %s",
		shortID(t.ID), t.Buyer, t.Size, t.Seller, t.Price)
}

// Notional is price * size, the base for fee computation.
func (t *Trade) Notional() *num.Uint {
	return num.UintZero().Mul(t.Price, num.NewUint(t.Size))
}

// Clone returns a deep copy so journal consumers can not touch the
// canonical record.
func (t *Trade) Clone() *Trade {
	cpy := *t
	cpy.Price = t.Price.Clone()
	cpy.MakerFee = t.MakerFee.Clone()
	cpy.TakerFee = t.TakerFee.Clone()
	return &cpy
}

func shortID(id string) string {
	if len(id) > 5 {
		return id[:5]
	}
	return id
}
