package execution

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"code.cobaltmarkets.io/exchange/fee"
	"code.cobaltmarkets.io/exchange/logging"
	"code.cobaltmarkets.io/exchange/metrics"
	"code.cobaltmarkets.io/exchange/num"
	"code.cobaltmarkets.io/exchange/types"

	"github.com/pkg/errors"
)

var (
	// ErrNoAssetID is returned when an empty asset id is supplied at
	// market creation.
	ErrNoAssetID = errors.New("no valid asset id was supplied")
)

// Settler applies one trade to the ledger atomically.
type Settler interface {
	SettleTrade(*types.Trade) error
}

// TradeJournal records executed trades, append-only.
type TradeJournal interface {
	Append(*types.Trade)
}

// Engine orchestrates matching across all markets. It owns intake
// (submit/cancel), the periodic matching cycle, and the read-only
// queries used by presentation layers. It never schedules anything
// itself: an external trigger calls RunCycle on whatever cadence it
// wants, and a cycle over non-crossed books is a no-op.
type Engine struct {
	log *logging.Logger
	cfg Config

	mu      sync.RWMutex
	markets map[string]*Market
	// orderToAsset routes cancels, entries are dropped when an order
	// goes terminal
	orderToAsset map[string]string

	sequence atomic.Uint64
	settler  Settler
	journal  TradeJournal
	idgen    IDgenerator
	now      func() int64
}

// CycleSummary is what one RunCycle did, consumed by the external
// notification layer.
type CycleSummary struct {
	Timestamp int64
	Trades    int
	Volume    uint64
	Expired   int
	// SkippedAssets had a settlement invariant violation and were
	// abandoned for the rest of this cycle.
	SkippedAssets []string
}

// NewEngine instantiates the execution engine. The clock is injected so
// tests can drive cycles deterministically.
func NewEngine(log *logging.Logger, cfg Config, settler Settler, journal TradeJournal, now func() int64) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	return &Engine{
		log:          log,
		cfg:          cfg,
		markets:      map[string]*Market{},
		orderToAsset: map[string]string{},
		settler:      settler,
		journal:      journal,
		now:          now,
	}
}

// CreateMarket opens a new asset for trading with its fee schedule.
func (e *Engine) CreateMarket(asset string, schedule fee.Schedule) error {
	if asset == "" {
		return ErrNoAssetID
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.markets[asset]; ok {
		return types.ErrAssetAlreadyExists
	}
	mkt, err := NewMarket(e.log, e.cfg, asset, schedule)
	if err != nil {
		return err
	}
	e.markets[asset] = mkt
	e.log.Info("market created", logging.String("asset", asset))
	return nil
}

// SubmitOrder takes a validated, funds-reserved order from the intake
// path and rests it on the book. Validation failures are returned
// synchronously and nothing enters the book.
func (e *Engine) SubmitOrder(party, asset string, side types.Side, price *num.Uint, size uint64, expiresAt int64) (*types.Order, error) {
	mkt, err := e.market(asset)
	if err != nil {
		metrics.OrderCounterInc(asset, false)
		return nil, err
	}

	o := &types.Order{
		ID:        e.idgen.NewOrderID(),
		Party:     party,
		Asset:     asset,
		Side:      side,
		Price:     price,
		Size:      size,
		Remaining: size,
		Sequence:  e.sequence.Add(1),
		Status:    types.OrderStatusActive,
		CreatedAt: e.now(),
		ExpiresAt: expiresAt,
	}
	// route before resting: once the order is on the book a concurrent
	// cycle may fill and drop it, so the entry has to exist by then
	e.mu.Lock()
	e.orderToAsset[o.ID] = asset
	e.mu.Unlock()

	if err := mkt.SubmitOrder(o); err != nil {
		e.dropOrders([]string{o.ID})
		metrics.OrderCounterInc(asset, false)
		return nil, err
	}

	metrics.OrderCounterInc(asset, true)
	return o.Clone(), nil
}

// CancelOrder removes a live order. Unknown and already terminal orders
// both come back as not found, with no state change.
func (e *Engine) CancelOrder(orderID string) (*types.Order, error) {
	e.mu.RLock()
	asset, ok := e.orderToAsset[orderID]
	e.mu.RUnlock()
	if !ok {
		return nil, types.ErrOrderNotFound
	}

	mkt, err := e.market(asset)
	if err != nil {
		return nil, err
	}
	o, err := mkt.CancelOrder(orderID)
	if err != nil {
		return nil, err
	}
	e.dropOrders([]string{orderID})
	return o.Clone(), nil
}

// RunCycle performs one matching cycle over every market: purge expired
// orders, then uncross each book until its top no longer crosses. A
// settlement invariant violation abandons that asset for the rest of
// the cycle (it signals a reservation bug upstream, retrying would just
// fail again) while every other asset still runs.
func (e *Engine) RunCycle(ctx context.Context) *CycleSummary {
	timer := metrics.NewTimeCounter("all", "execution", "RunCycle")
	defer timer.EngineTimeCounterAdd()

	now := e.now()
	summary := &CycleSummary{Timestamp: now}

	for _, asset := range e.assets() {
		if ctx.Err() != nil {
			break
		}
		mkt, err := e.market(asset)
		if err != nil {
			continue
		}

		expired := mkt.removeExpired(now)
		if len(expired) > 0 {
			summary.Expired += len(expired)
			ids := make([]string, 0, len(expired))
			for _, o := range expired {
				ids = append(ids, o.ID)
			}
			e.dropOrders(ids)
		}

		res, err := mkt.match(now, e.nextSequence, e.settler, e.journal, e.idgen)
		summary.Trades += len(res.trades)
		summary.Volume += res.volume
		e.dropOrders(res.closed)
		metrics.TradeCounterAdd(asset, len(res.trades))

		if err != nil {
			summary.SkippedAssets = append(summary.SkippedAssets, asset)
			e.log.Error("asset skipped for this cycle",
				logging.String("asset", asset),
				logging.Error(err),
			)
		}
	}

	metrics.CycleCounterInc()
	if e.log.GetLevel() <= logging.DebugLevel {
		e.log.Debug("cycle complete",
			logging.Int64("now", now),
			logging.Int("trades", summary.Trades),
			logging.Uint64("volume", summary.Volume),
		)
	}
	return summary
}

// BestBid exposes the top buy price and volume for an asset.
func (e *Engine) BestBid(asset string) (*num.Uint, uint64, error) {
	mkt, err := e.market(asset)
	if err != nil {
		return nil, 0, err
	}
	return mkt.BestBid()
}

// BestAsk exposes the top sell price and volume for an asset.
func (e *Engine) BestAsk(asset string) (*num.Uint, uint64, error) {
	mkt, err := e.market(asset)
	if err != nil {
		return nil, 0, err
	}
	return mkt.BestAsk()
}

// Depth exposes the aggregated top price levels for an asset.
func (e *Engine) Depth(asset string) (*types.BookDepth, error) {
	mkt, err := e.market(asset)
	if err != nil {
		return nil, err
	}
	return mkt.Depth(e.cfg.BookDepthLevels), nil
}

// LastTradedPrice exposes the latest execution price for an asset, nil
// before the first trade.
func (e *Engine) LastTradedPrice(asset string) (*num.Uint, error) {
	mkt, err := e.market(asset)
	if err != nil {
		return nil, err
	}
	return mkt.LastTradedPrice(), nil
}

// GetOrder returns a copy of a live resting order.
func (e *Engine) GetOrder(orderID string) (*types.Order, error) {
	e.mu.RLock()
	asset, ok := e.orderToAsset[orderID]
	e.mu.RUnlock()
	if !ok {
		return nil, types.ErrOrderNotFound
	}
	mkt, err := e.market(asset)
	if err != nil {
		return nil, err
	}
	return mkt.GetOrder(orderID)
}

func (e *Engine) market(asset string) (*Market, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	mkt, ok := e.markets[asset]
	if !ok {
		return nil, types.ErrAssetNotFound
	}
	return mkt, nil
}

// assets returns the asset ids in a stable order so cycles are
// deterministic.
func (e *Engine) assets() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.markets))
	for asset := range e.markets {
		out = append(out, asset)
	}
	sort.Strings(out)
	return out
}

func (e *Engine) nextSequence() uint64 {
	return e.sequence.Add(1)
}

func (e *Engine) dropOrders(ids []string) {
	if len(ids) == 0 {
		return
	}
	e.mu.Lock()
	for _, id := range ids {
		delete(e.orderToAsset, id)
	}
	e.mu.Unlock()
}
