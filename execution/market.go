package execution

import (
	"sync"

	"code.cobaltmarkets.io/exchange/fee"
	"code.cobaltmarkets.io/exchange/logging"
	"code.cobaltmarkets.io/exchange/matching"
	"code.cobaltmarkets.io/exchange/metrics"
	"code.cobaltmarkets.io/exchange/num"
	"code.cobaltmarkets.io/exchange/types"
)

// Market is one tradable asset: its book, its fee engine and its expiry
// index, behind one mutex. The mutex is held for the whole of that
// asset's matching pass, so intake for the same asset blocks briefly
// during a cycle and intake for other assets does not block at all.
type Market struct {
	log   *logging.Logger
	asset string

	mu       sync.Mutex
	book     *matching.OrderBook
	fees     *fee.Engine
	expiring *ExpiringOrders
}

type matchResult struct {
	trades []*types.Trade
	volume uint64
	// orders that went terminal during the pass
	closed []string
}

// NewMarket wires the per-asset engines.
func NewMarket(log *logging.Logger, cfg Config, asset string, schedule fee.Schedule) (*Market, error) {
	feeEngine, err := fee.New(log, cfg.Fee, schedule, asset)
	if err != nil {
		return nil, err
	}
	return &Market{
		log:      log,
		asset:    asset,
		book:     matching.NewOrderBook(log, cfg.Matching, asset),
		fees:     feeEngine,
		expiring: NewExpiringOrders(),
	}, nil
}

// SubmitOrder rests the order on this market's book.
func (m *Market) SubmitOrder(o *types.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if o.ExpiresAt != 0 && o.ExpiresAt <= o.CreatedAt {
		return types.ErrInvalidExpiry
	}
	if err := m.book.SubmitOrder(o); err != nil {
		return err
	}
	if o.ExpiresAt != 0 {
		m.expiring.Insert(o.ID, o.ExpiresAt)
	}
	metrics.OrderGaugeAdd(m.asset, 1)
	return nil
}

// CancelOrder removes a live order, not-found for anything unknown or
// already terminal.
func (m *Market) CancelOrder(id string) (*types.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, err := m.book.CancelOrder(id)
	if err != nil {
		return nil, err
	}
	if o.ExpiresAt != 0 {
		m.expiring.RemoveOrder(o.ExpiresAt, o.ID)
	}
	metrics.OrderGaugeAdd(m.asset, -1)
	return o, nil
}

// removeExpired purges every order whose expiry is at or before now.
func (m *Market) removeExpired(now int64) []*types.Order {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := m.expiring.Expire(now)
	out := make([]*types.Order, 0, len(ids))
	for _, id := range ids {
		o, err := m.book.RemoveOrder(id)
		if err != nil {
			// already gone, filled in an earlier cycle
			continue
		}
		o.Status = types.OrderStatusExpired
		out = append(out, o)
	}
	metrics.OrderGaugeAdd(m.asset, -len(out))
	return out
}

// match runs the uncrossing loop for this asset: while the book is
// crossed, fill the top bid against the top ask. The maker is whichever
// of the two tops arrived first and the trade executes at the maker's
// resting price, so the taker never trades worse than its own limit.
// Settlement is all-or-nothing per trade, and on a settlement invariant
// violation the pass stops dead with the books untouched for that fill.
func (m *Market) match(now int64, nextSeq func() uint64, settler Settler, journal TradeJournal, idgen IDgenerator) (matchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	res := matchResult{}
	for m.book.Crossed() {
		bid, err := m.book.BestBidOrder()
		if err != nil {
			break
		}
		ask, err := m.book.BestAskOrder()
		if err != nil {
			break
		}

		size := bid.Remaining
		if ask.Remaining < size {
			size = ask.Remaining
		}
		maker, taker := bid, ask
		if ask.Sequence < bid.Sequence {
			maker, taker = ask, bid
		}
		price := maker.Price.Clone()
		notional := num.UintZero().Mul(price, num.NewUint(size))

		trade := &types.Trade{
			Asset:     m.asset,
			MakerID:   maker.ID,
			TakerID:   taker.ID,
			Buyer:     bid.Party,
			Seller:    ask.Party,
			Price:     price,
			Size:      size,
			MakerFee:  m.fees.Calculate(fee.RoleMaker, notional),
			TakerFee:  m.fees.Calculate(fee.RoleTaker, notional),
			Sequence:  nextSeq(),
			Timestamp: now,
			Aggressor: taker.Side,
		}
		trade.ID = idgen.NewTradeID(trade)

		if err := settler.SettleTrade(trade); err != nil {
			return res, &types.SettlementError{Asset: m.asset, Trade: trade.ID, Err: err}
		}
		if err := m.book.Fill(bid, ask, price, size); err != nil {
			// sizes were validated off the live tops, failing here means
			// book state diverged mid-pass
			m.log.Error("book fill failed after settlement",
				logging.String("asset", m.asset),
				logging.String("trade-id", trade.ID),
				logging.Error(err),
			)
			return res, err
		}

		for _, o := range []*types.Order{bid, ask} {
			if o.Remaining == 0 {
				if o.ExpiresAt != 0 {
					m.expiring.RemoveOrder(o.ExpiresAt, o.ID)
				}
				res.closed = append(res.closed, o.ID)
				metrics.OrderGaugeAdd(m.asset, -1)
			}
		}

		journal.Append(trade)
		res.trades = append(res.trades, trade)
		res.volume += size
	}
	return res, nil
}

// BestBid returns the top buy price and volume.
func (m *Market) BestBid() (*num.Uint, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.book.BestBid()
}

// BestAsk returns the top sell price and volume.
func (m *Market) BestAsk() (*num.Uint, uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.book.BestAsk()
}

// Depth returns the aggregated top levels of the book.
func (m *Market) Depth(levels int) *types.BookDepth {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.book.Depth(levels)
}

// LastTradedPrice returns the most recent execution price, nil before
// the first trade.
func (m *Market) LastTradedPrice() *num.Uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.book.LastTradedPrice()
}

// GetOrder returns a copy of a live resting order.
func (m *Market) GetOrder(id string) (*types.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.book.GetOrderByID(id)
}
