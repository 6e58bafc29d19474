package collateral

import "code.cobaltmarkets.io/exchange/num"

// EntryType is the reason recorded against a ledger entry.
type EntryType int

const (
	EntryTypeDeposit EntryType = iota
	EntryTypeWithdraw
	EntryTypeBuy
	EntryTypeSell
	EntryTypeFee
)

func (t EntryType) String() string {
	switch t {
	case EntryTypeDeposit:
		return "deposit"
	case EntryTypeWithdraw:
		return "withdraw"
	case EntryTypeBuy:
		return "buy"
	case EntryTypeSell:
		return "sell"
	case EntryTypeFee:
		return "fee"
	default:
		return "unknown"
	}
}

// LedgerEntry is the append-only record of one cash mutation. External
// reporting derives statements and realised P/L from these, the engine
// itself only ever appends.
type LedgerEntry struct {
	Party  string
	Type   EntryType
	Amount *num.Uint
	// Debit is true when the amount left the party's balance.
	Debit bool
	// Ref links the entry to the trade or external operation behind it.
	Ref       string
	Timestamp int64
}

// Position is a party's holding in one asset. Quantity never goes
// negative in this no-margin model. AvgPrice is the quantity-weighted
// average cost basis, recomputed on increases and left untouched on
// decreases so realised P/L stays reproducible externally.
type Position struct {
	Party    string
	Asset    string
	Quantity uint64
	AvgPrice num.Decimal
}
