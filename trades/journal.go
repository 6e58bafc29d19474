package trades

import (
	"sort"
	"sync"

	"code.cobaltmarkets.io/exchange/types"
)

// Journal is the append-only record of executed trades. Entries are
// never mutated or removed, and appends arrive in timestamp order (the
// engine produces them inside a cycle), so range queries are a binary
// search plus a copy.
type Journal struct {
	mu     sync.RWMutex
	trades []*types.Trade
}

// NewJournal returns an empty journal.
func NewJournal() *Journal {
	return &Journal{
		trades: make([]*types.Trade, 0, 256),
	}
}

// Append records one trade. O(1) amortised.
func (j *Journal) Append(t *types.Trade) {
	j.mu.Lock()
	j.trades = append(j.trades, t.Clone())
	j.mu.Unlock()
}

// Len returns the number of trades recorded so far.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.trades)
}

// Since returns copies of all trades with a timestamp at or after the
// given one, oldest first. The result is a snapshot: callers can
// restart or re-consume it freely without holding the journal.
func (j *Journal) Since(timestamp int64) []*types.Trade {
	j.mu.RLock()
	defer j.mu.RUnlock()

	i := sort.Search(len(j.trades), func(i int) bool {
		return j.trades[i].Timestamp >= timestamp
	})
	if i == len(j.trades) {
		return nil
	}
	out := make([]*types.Trade, 0, len(j.trades)-i)
	for _, t := range j.trades[i:] {
		out = append(out, t.Clone())
	}
	return out
}
