package collateral

import (
	"sync"

	"code.cobaltmarkets.io/exchange/logging"
	"code.cobaltmarkets.io/exchange/num"
	"code.cobaltmarkets.io/exchange/types"
)

// Engine is the authoritative cash and position ledger. One lock covers
// every mutation, so a trade settlement (four legs plus fees) is atomic
// to any concurrent reader, and external deposit/withdrawal flows
// interleave with matching cycles under the same discipline.
type Engine struct {
	log *logging.Logger
	cfg Config

	mu        sync.RWMutex
	balances  map[string]*num.Uint
	positions map[string]map[string]*Position
	entries   []*LedgerEntry

	now func() int64
}

// New instantiates a new collateral engine. The fee account is created
// eagerly so fee routing can never hit a missing account.
func New(log *logging.Logger, cfg Config, now func() int64) *Engine {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	e := &Engine{
		log:       log,
		cfg:       cfg,
		balances:  map[string]*num.Uint{},
		positions: map[string]map[string]*Position{},
		now:       now,
	}
	e.balances[cfg.FeeAccount] = num.UintZero()
	return e
}

// ReloadConf updates the internal configuration of the collateral engine.
func (e *Engine) ReloadConf(cfg Config) {
	e.log.Info("reloading configuration")
	if e.log.GetLevel() != cfg.Level.Get() {
		e.log.SetLevel(cfg.Level.Get())
	}
	e.mu.Lock()
	e.cfg.Level = cfg.Level
	e.mu.Unlock()
}

// CreateAccount registers a party with a zero balance, a no-op if the
// account already exists.
func (e *Engine) CreateAccount(party string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.balances[party]; !ok {
		e.balances[party] = num.UintZero()
	}
}

// Balance returns the party's current cash balance.
func (e *Engine) Balance(party string) (*num.Uint, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	bal, ok := e.balances[party]
	if !ok {
		return nil, types.ErrAccountNotFound
	}
	return bal.Clone(), nil
}

// GetPosition returns a copy of the party's position in the given
// asset, a zero position if they never held it.
func (e *Engine) GetPosition(party, asset string) Position {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if p, ok := e.positions[party][asset]; ok {
		return *p
	}
	return Position{Party: party, Asset: asset, AvgPrice: num.DecimalZero()}
}

// Deposit credits a party from outside the matching path (approved
// deposits land here).
func (e *Engine) Deposit(party string, amount *num.Uint, ref string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.creditLocked(party, amount)
	e.appendEntryLocked(party, EntryTypeDeposit, amount, false, ref)
	return nil
}

// Withdraw debits a party from outside the matching path, failing with
// InsufficientFunds rather than going negative.
func (e *Engine) Withdraw(party string, amount *num.Uint, ref string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.debitLocked(party, amount); err != nil {
		return err
	}
	e.appendEntryLocked(party, EntryTypeWithdraw, amount, true, ref)
	return nil
}

// Credit adds to a party's balance, it always succeeds for a known
// account.
func (e *Engine) Credit(party string, amount *num.Uint) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.creditLocked(party, amount)
	return nil
}

// Debit removes from a party's balance, failing with InsufficientFunds
// if the balance would go negative.
func (e *Engine) Debit(party string, amount *num.Uint) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.debitLocked(party, amount)
}

// AdjustPosition applies a quantity delta at the given price. Increases
// recompute the average cost basis as a quantity-weighted mean,
// decreases leave the basis untouched and fail with
// InsufficientPosition rather than going negative.
func (e *Engine) AdjustPosition(party, asset string, deltaQty int64, price *num.Uint) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.adjustPositionLocked(party, asset, deltaQty, price)
}

// SettleTrade applies one trade to the ledger as a unit: buyer pays
// notional plus their fee, seller receives notional minus their fee,
// both fees route to the fee account, and both positions move. Every
// invariant is checked before anything is applied, so a failure leaves
// the ledger exactly as it was.
func (e *Engine) SettleTrade(t *types.Trade) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	buyerFee, sellerFee := t.TakerFee, t.MakerFee
	if t.Aggressor == types.SideSell {
		buyerFee, sellerFee = t.MakerFee, t.TakerFee
	}
	notional := t.Notional()
	buyerOwes := num.Sum(notional, buyerFee)

	// checks first, the ledger does not move until all of them pass
	buyerBal, ok := e.balances[t.Buyer]
	if !ok {
		return types.ErrAccountNotFound
	}
	if _, ok := e.balances[t.Seller]; !ok {
		return types.ErrAccountNotFound
	}
	if buyerBal.LT(buyerOwes) {
		return types.ErrInsufficientFunds
	}
	sellerPos := e.positions[t.Seller][t.Asset]
	if sellerPos == nil || sellerPos.Quantity < t.Size {
		return types.ErrInsufficientPosition
	}
	if sellerFee.GT(notional) {
		// a seller can never owe more in fees than the trade pays out
		return types.ErrInsufficientFunds
	}

	// cash legs
	e.balances[t.Buyer] = num.UintZero().Sub(buyerBal, buyerOwes)
	e.creditLocked(t.Seller, num.UintZero().Sub(notional, sellerFee))
	e.creditLocked(e.cfg.FeeAccount, num.Sum(buyerFee, sellerFee))

	// position legs
	e.increasePositionLocked(t.Buyer, t.Asset, t.Size, t.Price)
	sellerPos.Quantity -= t.Size

	e.appendEntryLocked(t.Buyer, EntryTypeBuy, notional, true, t.ID)
	e.appendEntryLocked(t.Seller, EntryTypeSell, num.UintZero().Sub(notional, sellerFee), false, t.ID)
	if !buyerFee.IsZero() {
		e.appendEntryLocked(t.Buyer, EntryTypeFee, buyerFee, true, t.ID)
	}
	if !sellerFee.IsZero() {
		e.appendEntryLocked(t.Seller, EntryTypeFee, sellerFee, true, t.ID)
	}
	return nil
}

// Entries returns a copy of the ledger entries appended at or after the
// given index, for external statement/reporting consumers.
func (e *Engine) Entries(from int) []*LedgerEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if from < 0 {
		from = 0
	}
	if from >= len(e.entries) {
		return nil
	}
	out := make([]*LedgerEntry, len(e.entries)-from)
	copy(out, e.entries[from:])
	return out
}

func (e *Engine) creditLocked(party string, amount *num.Uint) {
	bal, ok := e.balances[party]
	if !ok {
		bal = num.UintZero()
	}
	e.balances[party] = num.Sum(bal, amount)
}

func (e *Engine) debitLocked(party string, amount *num.Uint) error {
	bal, ok := e.balances[party]
	if !ok {
		return types.ErrAccountNotFound
	}
	if bal.LT(amount) {
		return types.ErrInsufficientFunds
	}
	e.balances[party] = num.UintZero().Sub(bal, amount)
	return nil
}

func (e *Engine) adjustPositionLocked(party, asset string, deltaQty int64, price *num.Uint) error {
	if deltaQty >= 0 {
		e.increasePositionLocked(party, asset, uint64(deltaQty), price)
		return nil
	}
	dec := uint64(-deltaQty)
	pos := e.positions[party][asset]
	if pos == nil || pos.Quantity < dec {
		return types.ErrInsufficientPosition
	}
	pos.Quantity -= dec
	return nil
}

func (e *Engine) increasePositionLocked(party, asset string, qty uint64, price *num.Uint) {
	// a zero delta moves nothing, and would divide by zero on an empty
	// position below
	if qty == 0 {
		return
	}
	if _, ok := e.positions[party]; !ok {
		e.positions[party] = map[string]*Position{}
	}
	pos, ok := e.positions[party][asset]
	if !ok {
		pos = &Position{Party: party, Asset: asset, AvgPrice: num.DecimalZero()}
		e.positions[party][asset] = pos
	}

	// weighted mean: (oldQty*oldAvg + qty*price) / (oldQty + qty)
	oldQty := num.DecimalFromInt64(int64(pos.Quantity))
	addQty := num.DecimalFromInt64(int64(qty))
	total := oldQty.Add(addQty)
	cost := oldQty.Mul(pos.AvgPrice).Add(addQty.Mul(num.DecimalFromUint(price)))
	pos.AvgPrice = cost.Div(total)
	pos.Quantity += qty
}

func (e *Engine) appendEntryLocked(party string, typ EntryType, amount *num.Uint, debit bool, ref string) {
	e.entries = append(e.entries, &LedgerEntry{
		Party:     party,
		Type:      typ,
		Amount:    amount.Clone(),
		Debit:     debit,
		Ref:       ref,
		Timestamp: e.now(),
	})
}
