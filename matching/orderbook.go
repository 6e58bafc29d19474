package matching

import (
	"code.cobaltmarkets.io/exchange/logging"
	"code.cobaltmarkets.io/exchange/num"
	"code.cobaltmarkets.io/exchange/types"
)

// OrderBook is the resting-order state for one asset: a buy side and a
// sell side, each holding price levels in price-time priority, plus an
// id lookup for cancels. The book never matches by itself, the
// execution engine drives fills through Fill during a cycle.
type OrderBook struct {
	log *logging.Logger
	cfg Config

	asset string
	buy   *OrderBookSide
	sell  *OrderBookSide

	// live resting orders only, terminal orders are unlinked
	ordersByID map[string]*types.Order

	latestSequence  uint64
	lastTradedPrice *num.Uint
}

// NewOrderBook instantiates an empty book for one asset.
func NewOrderBook(log *logging.Logger, config Config, asset string) *OrderBook {
	log = log.Named(namedLogger)
	log.SetLevel(config.Level.Get())

	return &OrderBook{
		log:        log,
		cfg:        config,
		asset:      asset,
		buy:        newSide(log, types.SideBuy),
		sell:       newSide(log, types.SideSell),
		ordersByID: map[string]*types.Order{},
	}
}

// Asset returns the asset this book trades.
func (b *OrderBook) Asset() string {
	return b.asset
}

// SubmitOrder rests a validated order on the book. The order must carry
// a sequence number strictly greater than anything seen before, that is
// what time priority hangs off.
func (b *OrderBook) SubmitOrder(o *types.Order) error {
	if err := b.validateOrder(o); err != nil {
		return err
	}

	o.Status = types.OrderStatusActive
	if o.Remaining < o.Size {
		o.Status = types.OrderStatusPartiallyFilled
	}
	b.latestSequence = o.Sequence
	b.ordersByID[o.ID] = o
	b.sideFor(o.Side).addOrder(o)

	if b.cfg.LogPriceLevelsDebug {
		b.log.Debug("order resting on book",
			logging.String("asset", b.asset),
			logging.String("order", o.String()),
		)
	}
	return nil
}

// CancelOrder removes a live order from the book. Unknown or already
// terminal orders are reported as not found, with no state change.
func (b *OrderBook) CancelOrder(id string) (*types.Order, error) {
	o, ok := b.ordersByID[id]
	if !ok {
		return nil, types.ErrOrderNotFound
	}
	if _, err := b.sideFor(o.Side).removeOrder(o); err != nil {
		return nil, err
	}
	delete(b.ordersByID, id)
	o.Status = types.OrderStatusCancelled

	if b.cfg.LogRemovedOrdersDebug {
		b.log.Debug("order cancelled",
			logging.String("asset", b.asset),
			logging.String("order-id", id),
		)
	}
	return o, nil
}

// RemoveOrder unlinks a live order without cancelling it, the expiry
// path uses this and stamps the status itself.
func (b *OrderBook) RemoveOrder(id string) (*types.Order, error) {
	o, ok := b.ordersByID[id]
	if !ok {
		return nil, types.ErrOrderNotFound
	}
	if _, err := b.sideFor(o.Side).removeOrder(o); err != nil {
		return nil, err
	}
	delete(b.ordersByID, id)
	return o, nil
}

// GetOrderByID returns a copy of a live resting order.
func (b *OrderBook) GetOrderByID(id string) (*types.Order, error) {
	o, ok := b.ordersByID[id]
	if !ok {
		return nil, types.ErrOrderNotFound
	}
	return o.Clone(), nil
}

// BestBid returns the top buy price and the volume resting at it.
func (b *OrderBook) BestBid() (*num.Uint, uint64, error) {
	return b.buy.BestPriceAndVolume()
}

// BestAsk returns the top sell price and the volume resting at it.
func (b *OrderBook) BestAsk() (*num.Uint, uint64, error) {
	return b.sell.BestPriceAndVolume()
}

// Crossed reports whether the book can trade: best bid >= best ask.
func (b *OrderBook) Crossed() bool {
	bid, _, err := b.BestBid()
	if err != nil {
		return false
	}
	ask, _, err := b.BestAsk()
	if err != nil {
		return false
	}
	return bid.GTE(ask)
}

// BestBidOrder returns the live top-of-book buy order. The caller must
// not mutate it, fills go through Fill.
func (b *OrderBook) BestBidOrder() (*types.Order, error) {
	return b.buy.bestOrder()
}

// BestAskOrder returns the live top-of-book sell order.
func (b *OrderBook) BestAskOrder() (*types.Order, error) {
	return b.sell.bestOrder()
}

// Fill applies one settled fill to both top orders: remaining drops by
// size on each, exhausted orders leave the book as filled, partially
// filled orders keep their price and sequence.
func (b *OrderBook) Fill(bid, ask *types.Order, price *num.Uint, size uint64) error {
	if size == 0 || size > bid.Remaining || size > ask.Remaining {
		return types.ErrInvalidRemainingSize
	}
	if err := b.buy.reduce(bid, size); err != nil {
		return err
	}
	if err := b.sell.reduce(ask, size); err != nil {
		return err
	}
	for _, o := range []*types.Order{bid, ask} {
		if o.Remaining == 0 {
			o.Status = types.OrderStatusFilled
			delete(b.ordersByID, o.ID)
		} else {
			o.Status = types.OrderStatusPartiallyFilled
		}
	}
	b.lastTradedPrice = price.Clone()

	if b.cfg.LogPriceLevelsDebug {
		b.log.Debug("fill applied",
			logging.String("asset", b.asset),
			logging.String("price", price.String()),
			logging.Uint64("size", size),
		)
	}
	return nil
}

// LastTradedPrice returns the price of the most recent fill on this
// book, nil before the first trade.
func (b *OrderBook) LastTradedPrice() *num.Uint {
	if b.lastTradedPrice == nil {
		return nil
	}
	return b.lastTradedPrice.Clone()
}

// Depth returns the aggregated top n levels of both sides.
func (b *OrderBook) Depth(n int) *types.BookDepth {
	return &types.BookDepth{
		Asset: b.asset,
		Buy:   b.buy.depth(n),
		Sell:  b.sell.depth(n),
	}
}

func (b *OrderBook) sideFor(side types.Side) *OrderBookSide {
	if side == types.SideBuy {
		return b.buy
	}
	return b.sell
}
