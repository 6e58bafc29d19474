package execution

import (
	"context"
	"testing"

	"code.cobaltmarkets.io/exchange/collateral"
	"code.cobaltmarkets.io/exchange/fee"
	"code.cobaltmarkets.io/exchange/logging"
	"code.cobaltmarkets.io/exchange/num"
	"code.cobaltmarkets.io/exchange/trades"
	"code.cobaltmarkets.io/exchange/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAsset = "COBALT"

type testExchange struct {
	engine  *Engine
	ledger  *collateral.Engine
	journal *trades.Journal
	now     int64
}

func getTestExchange(t *testing.T) *testExchange {
	t.Helper()
	log := logging.NewTestLogger()

	ex := &testExchange{now: 1}
	nowFn := func() int64 { return ex.now }

	ex.ledger = collateral.New(log, collateral.NewDefaultConfig(), nowFn)
	ex.journal = trades.NewJournal()
	ex.engine = NewEngine(log, NewDefaultConfig(), ex.ledger, ex.journal, nowFn)

	require.NoError(t, ex.engine.CreateMarket(testAsset, fee.Schedule{
		MakerFee: "0.001",
		TakerFee: "0.002",
	}))
	return ex
}

// fundBuyer/fundSeller stand in for the external intake path that
// reserves funds and shares before orders are accepted.
func (ex *testExchange) fundBuyer(t *testing.T, party string, cash uint64) {
	t.Helper()
	ex.ledger.CreateAccount(party)
	require.NoError(t, ex.ledger.Deposit(party, num.NewUint(cash), "test-deposit"))
}

func (ex *testExchange) fundSeller(t *testing.T, party, asset string, qty, price uint64) {
	t.Helper()
	ex.ledger.CreateAccount(party)
	require.NoError(t, ex.ledger.AdjustPosition(party, asset, int64(qty), num.NewUint(price)))
}

func (ex *testExchange) balance(t *testing.T, party string) *num.Uint {
	t.Helper()
	bal, err := ex.ledger.Balance(party)
	require.NoError(t, err)
	return bal
}

func TestEngine_CreateMarket(t *testing.T) {
	ex := getTestExchange(t)
	assert.ErrorIs(t, ex.engine.CreateMarket(testAsset, fee.Schedule{MakerFee: "0", TakerFee: "0"}), types.ErrAssetAlreadyExists)
	assert.ErrorIs(t, ex.engine.CreateMarket("", fee.Schedule{MakerFee: "0", TakerFee: "0"}), ErrNoAssetID)
	assert.Error(t, ex.engine.CreateMarket("IRON", fee.Schedule{MakerFee: "x", TakerFee: "0"}))
}

func TestEngine_SubmitValidation(t *testing.T) {
	ex := getTestExchange(t)

	_, err := ex.engine.SubmitOrder("alice", "UNKNOWN", types.SideBuy, num.NewUint(1000), 10, 0)
	assert.ErrorIs(t, err, types.ErrAssetNotFound)

	_, err = ex.engine.SubmitOrder("alice", testAsset, types.SideBuy, num.UintZero(), 10, 0)
	assert.ErrorIs(t, err, types.ErrInvalidPrice)

	_, err = ex.engine.SubmitOrder("alice", testAsset, types.SideBuy, num.NewUint(1000), 0, 0)
	assert.ErrorIs(t, err, types.ErrInvalidRemainingSize)

	_, err = ex.engine.SubmitOrder("", testAsset, types.SideBuy, num.NewUint(1000), 10, 0)
	assert.ErrorIs(t, err, types.ErrInvalidParty)

	// expiry in the past
	ex.now = 100
	_, err = ex.engine.SubmitOrder("alice", testAsset, types.SideSell, num.NewUint(1000), 10, 99)
	assert.ErrorIs(t, err, types.ErrInvalidExpiry)
}

// bid 100@1000 arrives first, ask 50@950 second: one trade for 50 at
// the maker's (bid) price, the bid keeps resting with 50 remaining and
// the ask leaves the book filled.
func TestEngine_MatchAtMakerPrice(t *testing.T) {
	ex := getTestExchange(t)
	ex.fundBuyer(t, "alice", 200000)
	ex.fundSeller(t, "bob", testAsset, 100, 900)

	bid, err := ex.engine.SubmitOrder("alice", testAsset, types.SideBuy, num.NewUint(1000), 100, 0)
	require.NoError(t, err)
	ask, err := ex.engine.SubmitOrder("bob", testAsset, types.SideSell, num.NewUint(950), 50, 0)
	require.NoError(t, err)

	summary := ex.engine.RunCycle(context.Background())
	assert.Equal(t, 1, summary.Trades)
	assert.Equal(t, uint64(50), summary.Volume)
	assert.Empty(t, summary.SkippedAssets)

	recorded := ex.journal.Since(0)
	require.Len(t, recorded, 1)
	trade := recorded[0]
	assert.True(t, trade.Price.EQ(num.NewUint(1000)))
	assert.Equal(t, uint64(50), trade.Size)
	assert.Equal(t, bid.ID, trade.MakerID)
	assert.Equal(t, ask.ID, trade.TakerID)
	assert.Equal(t, types.SideSell, trade.Aggressor)

	// the bid still rests with 50 remaining at its original price
	rest, err := ex.engine.GetOrder(bid.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), rest.Remaining)
	assert.Equal(t, types.OrderStatusPartiallyFilled, rest.Status)

	// the ask is gone
	_, err = ex.engine.GetOrder(ask.ID)
	assert.ErrorIs(t, err, types.ErrOrderNotFound)

	// maker fee (0.001) on 50000 charged to alice, taker fee (0.002) to bob
	assert.True(t, ex.balance(t, "alice").EQ(num.NewUint(200000-50000-50)))
	assert.True(t, ex.balance(t, "bob").EQ(num.NewUint(50000-100)))
	assert.Equal(t, uint64(50), ex.ledger.GetPosition("alice", testAsset).Quantity)
	assert.Equal(t, uint64(50), ex.ledger.GetPosition("bob", testAsset).Quantity)
}

// two asks at the same price: the earlier one fills, the later one is
// untouched.
func TestEngine_TimePriorityAtEqualPrice(t *testing.T) {
	ex := getTestExchange(t)
	ex.fundBuyer(t, "carol", 20000)
	ex.fundSeller(t, "early", testAsset, 10, 1000)
	ex.fundSeller(t, "late", testAsset, 10, 1000)

	first, err := ex.engine.SubmitOrder("early", testAsset, types.SideSell, num.NewUint(1000), 10, 0)
	require.NoError(t, err)
	second, err := ex.engine.SubmitOrder("late", testAsset, types.SideSell, num.NewUint(1000), 10, 0)
	require.NoError(t, err)
	_, err = ex.engine.SubmitOrder("carol", testAsset, types.SideBuy, num.NewUint(1000), 10, 0)
	require.NoError(t, err)

	summary := ex.engine.RunCycle(context.Background())
	require.Equal(t, 1, summary.Trades)

	recorded := ex.journal.Since(0)
	require.Len(t, recorded, 1)
	assert.Equal(t, first.ID, recorded[0].MakerID)
	assert.Equal(t, "early", recorded[0].Seller)

	// the later ask never traded
	untouched, err := ex.engine.GetOrder(second.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), untouched.Remaining)
	assert.Equal(t, types.OrderStatusActive, untouched.Status)
}

// a taker bigger than the whole far side walks the book and the cycle
// terminates with the remainder resting.
func TestEngine_SweepsMultipleLevels(t *testing.T) {
	ex := getTestExchange(t)
	ex.fundBuyer(t, "carol", 1000000)
	ex.fundSeller(t, "s1", testAsset, 10, 900)
	ex.fundSeller(t, "s2", testAsset, 10, 900)

	_, err := ex.engine.SubmitOrder("s1", testAsset, types.SideSell, num.NewUint(980), 10, 0)
	require.NoError(t, err)
	_, err = ex.engine.SubmitOrder("s2", testAsset, types.SideSell, num.NewUint(990), 10, 0)
	require.NoError(t, err)
	bid, err := ex.engine.SubmitOrder("carol", testAsset, types.SideBuy, num.NewUint(1000), 30, 0)
	require.NoError(t, err)

	summary := ex.engine.RunCycle(context.Background())
	assert.Equal(t, 2, summary.Trades)
	assert.Equal(t, uint64(20), summary.Volume)

	// both asks executed at their own (maker) prices
	recorded := ex.journal.Since(0)
	require.Len(t, recorded, 2)
	assert.True(t, recorded[0].Price.EQ(num.NewUint(980)))
	assert.True(t, recorded[1].Price.EQ(num.NewUint(990)))

	rest, err := ex.engine.GetOrder(bid.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), rest.Remaining)

	bestBid, _, err := ex.engine.BestBid(testAsset)
	require.NoError(t, err)
	assert.True(t, bestBid.EQ(num.NewUint(1000)))
	_, _, err = ex.engine.BestAsk(testAsset)
	assert.Error(t, err)
}

// cancel on an order that already filled is a not-found, no state moves.
func TestEngine_CancelFilledOrder(t *testing.T) {
	ex := getTestExchange(t)
	ex.fundBuyer(t, "alice", 200000)
	ex.fundSeller(t, "bob", testAsset, 50, 900)

	_, err := ex.engine.SubmitOrder("alice", testAsset, types.SideBuy, num.NewUint(1000), 50, 0)
	require.NoError(t, err)
	ask, err := ex.engine.SubmitOrder("bob", testAsset, types.SideSell, num.NewUint(1000), 50, 0)
	require.NoError(t, err)

	ex.engine.RunCycle(context.Background())

	_, err = ex.engine.CancelOrder(ask.ID)
	assert.ErrorIs(t, err, types.ErrOrderNotFound)
	_, err = ex.engine.CancelOrder("never-existed")
	assert.ErrorIs(t, err, types.ErrOrderNotFound)
}

func TestEngine_CancelRestingOrder(t *testing.T) {
	ex := getTestExchange(t)
	ex.fundBuyer(t, "alice", 200000)

	bid, err := ex.engine.SubmitOrder("alice", testAsset, types.SideBuy, num.NewUint(1000), 50, 0)
	require.NoError(t, err)

	cancelled, err := ex.engine.CancelOrder(bid.ID)
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusCancelled, cancelled.Status)

	_, _, err = ex.engine.BestBid(testAsset)
	assert.Error(t, err)
}

// a second cycle with no new orders is a no-op: no duplicate trades,
// no ledger drift.
// the cancel-routing index tracks exactly the live resting orders: a
// rejected submit leaves nothing behind, and orders filled during a
// cycle drop their entries with the order.
func TestEngine_RoutingIndexLifecycle(t *testing.T) {
	ex := getTestExchange(t)
	ex.fundBuyer(t, "alice", 200000)
	ex.fundSeller(t, "bob", testAsset, 100, 900)

	_, err := ex.engine.SubmitOrder("alice", testAsset, types.SideBuy, num.UintZero(), 10, 0)
	require.Error(t, err)
	ex.engine.mu.RLock()
	assert.Empty(t, ex.engine.orderToAsset)
	ex.engine.mu.RUnlock()

	bid, err := ex.engine.SubmitOrder("alice", testAsset, types.SideBuy, num.NewUint(1000), 50, 0)
	require.NoError(t, err)
	ask, err := ex.engine.SubmitOrder("bob", testAsset, types.SideSell, num.NewUint(1000), 50, 0)
	require.NoError(t, err)
	ex.engine.mu.RLock()
	assert.Len(t, ex.engine.orderToAsset, 2)
	ex.engine.mu.RUnlock()

	ex.engine.RunCycle(context.Background())

	ex.engine.mu.RLock()
	assert.Empty(t, ex.engine.orderToAsset)
	ex.engine.mu.RUnlock()

	_, err = ex.engine.CancelOrder(bid.ID)
	assert.ErrorIs(t, err, types.ErrOrderNotFound)
	_, err = ex.engine.CancelOrder(ask.ID)
	assert.ErrorIs(t, err, types.ErrOrderNotFound)
}

func TestEngine_CycleIdempotent(t *testing.T) {
	ex := getTestExchange(t)
	ex.fundBuyer(t, "alice", 200000)
	ex.fundSeller(t, "bob", testAsset, 100, 900)

	_, err := ex.engine.SubmitOrder("alice", testAsset, types.SideBuy, num.NewUint(1000), 100, 0)
	require.NoError(t, err)
	_, err = ex.engine.SubmitOrder("bob", testAsset, types.SideSell, num.NewUint(950), 50, 0)
	require.NoError(t, err)

	first := ex.engine.RunCycle(context.Background())
	require.Equal(t, 1, first.Trades)
	aliceAfter := ex.balance(t, "alice")
	bobAfter := ex.balance(t, "bob")

	second := ex.engine.RunCycle(context.Background())
	assert.Equal(t, 0, second.Trades)
	assert.Equal(t, uint64(0), second.Volume)
	assert.Equal(t, 1, ex.journal.Len())
	assert.True(t, ex.balance(t, "alice").EQ(aliceAfter))
	assert.True(t, ex.balance(t, "bob").EQ(bobAfter))
}

// an empty exchange cycles cleanly forever.
func TestEngine_NoOpCycle(t *testing.T) {
	ex := getTestExchange(t)
	for i := 0; i < 3; i++ {
		summary := ex.engine.RunCycle(context.Background())
		assert.Equal(t, 0, summary.Trades)
		assert.Empty(t, summary.SkippedAssets)
	}
}

// settlement hitting an invariant violation abandons the asset for the
// cycle, leaves both orders unchanged and keeps other assets trading.
func TestEngine_SettlementViolationSkipsAsset(t *testing.T) {
	ex := getTestExchange(t)
	require.NoError(t, ex.engine.CreateMarket("AAA", fee.Schedule{MakerFee: "0.001", TakerFee: "0.002"}))

	// the broken asset: seller has no shares, so the upstream
	// reservation was wrong by construction
	ex.fundBuyer(t, "alice", 200000)
	ex.ledger.CreateAccount("cheater")
	bid, err := ex.engine.SubmitOrder("alice", testAsset, types.SideBuy, num.NewUint(1000), 10, 0)
	require.NoError(t, err)
	ask, err := ex.engine.SubmitOrder("cheater", testAsset, types.SideSell, num.NewUint(1000), 10, 0)
	require.NoError(t, err)

	// the healthy asset
	ex.fundBuyer(t, "carol", 200000)
	ex.fundSeller(t, "dave", "AAA", 10, 900)
	_, err = ex.engine.SubmitOrder("carol", "AAA", types.SideBuy, num.NewUint(1000), 10, 0)
	require.NoError(t, err)
	_, err = ex.engine.SubmitOrder("dave", "AAA", types.SideSell, num.NewUint(1000), 10, 0)
	require.NoError(t, err)

	summary := ex.engine.RunCycle(context.Background())
	assert.Equal(t, []string{testAsset}, summary.SkippedAssets)
	assert.Equal(t, 1, summary.Trades) // AAA still traded

	// both orders on the broken asset are exactly as submitted
	for _, id := range []string{bid.ID, ask.ID} {
		o, err := ex.engine.GetOrder(id)
		require.NoError(t, err)
		assert.Equal(t, uint64(10), o.Remaining)
	}
	assert.True(t, ex.balance(t, "alice").EQ(num.NewUint(200000)))

	// not retried within the same books until upstream fixes it, but the
	// next cycle skips again rather than deadlocking
	again := ex.engine.RunCycle(context.Background())
	assert.Equal(t, []string{testAsset}, again.SkippedAssets)
	assert.Equal(t, 1, ex.journal.Len())
}

func TestEngine_ExpiredOrdersPurged(t *testing.T) {
	ex := getTestExchange(t)
	ex.fundBuyer(t, "alice", 200000)
	ex.fundSeller(t, "bob", testAsset, 100, 900)

	ex.now = 10
	bid, err := ex.engine.SubmitOrder("alice", testAsset, types.SideBuy, num.NewUint(1000), 10, 20)
	require.NoError(t, err)

	// not expired yet
	ex.now = 15
	summary := ex.engine.RunCycle(context.Background())
	assert.Equal(t, 0, summary.Expired)

	// expired now, and it must be gone before matching happens
	ex.now = 20
	ask, err := ex.engine.SubmitOrder("bob", testAsset, types.SideSell, num.NewUint(950), 10, 0)
	require.NoError(t, err)
	summary = ex.engine.RunCycle(context.Background())
	assert.Equal(t, 1, summary.Expired)
	assert.Equal(t, 0, summary.Trades)

	_, err = ex.engine.GetOrder(bid.ID)
	assert.ErrorIs(t, err, types.ErrOrderNotFound)
	rest, err := ex.engine.GetOrder(ask.ID)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), rest.Remaining)
}

// total open quantity across both orders drops by exactly the fill
// quantity on every match.
func TestEngine_QuantityConservation(t *testing.T) {
	ex := getTestExchange(t)
	ex.fundBuyer(t, "alice", 10000000)
	ex.fundSeller(t, "bob", testAsset, 1000, 900)

	bid, err := ex.engine.SubmitOrder("alice", testAsset, types.SideBuy, num.NewUint(1000), 70, 0)
	require.NoError(t, err)
	ask, err := ex.engine.SubmitOrder("bob", testAsset, types.SideSell, num.NewUint(1000), 30, 0)
	require.NoError(t, err)

	before := bid.Remaining + ask.Remaining
	summary := ex.engine.RunCycle(context.Background())
	require.Equal(t, 1, summary.Trades)

	rest, err := ex.engine.GetOrder(bid.ID)
	require.NoError(t, err)
	// the ask left the book, so everything still open sits on the bid
	assert.Equal(t, before-2*summary.Volume, rest.Remaining)
}

func TestEngine_Depth(t *testing.T) {
	ex := getTestExchange(t)
	ex.fundBuyer(t, "alice", 10000000)

	for i := uint64(0); i < 8; i++ {
		_, err := ex.engine.SubmitOrder("alice", testAsset, types.SideBuy, num.NewUint(900+i), 10, 0)
		require.NoError(t, err)
	}

	depth, err := ex.engine.Depth(testAsset)
	require.NoError(t, err)
	// capped at the configured number of levels, best first
	require.Len(t, depth.Buy, 5)
	assert.True(t, depth.Buy[0].Price.EQ(num.NewUint(907)))

	_, err = ex.engine.Depth("UNKNOWN")
	assert.ErrorIs(t, err, types.ErrAssetNotFound)
}
