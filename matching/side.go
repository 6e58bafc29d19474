package matching

import (
	"sort"

	"code.cobaltmarkets.io/exchange/logging"
	"code.cobaltmarkets.io/exchange/num"
	"code.cobaltmarkets.io/exchange/types"

	"github.com/pkg/errors"
)

var (
	// ErrNoOrdersOnSide signals a top-of-book query against an empty side.
	ErrNoOrdersOnSide = errors.New("no orders on the book side")
	// ErrPriceNotFound signals that a price level was not found on the side.
	ErrPriceNotFound = errors.New("price level not found")
)

// OrderBookSide represents one side of the book, either buy or sell.
// Levels are kept sorted with the best price at the end of the slice,
// so top-of-book access and removal of exhausted levels are both cheap.
type OrderBookSide struct {
	side   types.Side
	log    *logging.Logger
	levels []*PriceLevel
}

func newSide(log *logging.Logger, side types.Side) *OrderBookSide {
	return &OrderBookSide{
		side:   side,
		log:    log,
		levels: []*PriceLevel{},
	}
}

// addOrder places the order on its price level, creating the level if
// this is the first order at that price.
func (s *OrderBookSide) addOrder(o *types.Order) {
	s.getPriceLevel(o.Price).addOrder(o)
}

// getPriceLevel returns the level for the given price, inserting a new
// one at its sorted position when missing. Buy levels are stored price
// ascending and sell levels price descending, in both cases the best
// price sits at the end.
func (s *OrderBookSide) getPriceLevel(price *num.Uint) *PriceLevel {
	var i int
	if s.side == types.SideBuy {
		i = sort.Search(len(s.levels), func(i int) bool {
			return s.levels[i].price.GTE(price)
		})
	} else {
		i = sort.Search(len(s.levels), func(i int) bool {
			return s.levels[i].price.LTE(price)
		})
	}
	if i < len(s.levels) && s.levels[i].price.EQ(price) {
		return s.levels[i]
	}

	level := NewPriceLevel(price)
	s.levels = append(s.levels, nil)
	copy(s.levels[i+1:], s.levels[i:])
	s.levels[i] = level
	return level
}

// findPriceLevel is the read-only lookup counterpart of getPriceLevel.
func (s *OrderBookSide) findPriceLevel(price *num.Uint) (*PriceLevel, bool) {
	var i int
	if s.side == types.SideBuy {
		i = sort.Search(len(s.levels), func(i int) bool {
			return s.levels[i].price.GTE(price)
		})
	} else {
		i = sort.Search(len(s.levels), func(i int) bool {
			return s.levels[i].price.LTE(price)
		})
	}
	if i < len(s.levels) && s.levels[i].price.EQ(price) {
		return s.levels[i], true
	}
	return nil, false
}

// bestOrder returns the live top-of-book order, best price first, then
// earliest sequence within the level.
func (s *OrderBookSide) bestOrder() (*types.Order, error) {
	for i := len(s.levels) - 1; i >= 0; i-- {
		if o := s.levels[i].first(); o != nil {
			return o, nil
		}
		// exhausted level, trim it
		s.levels = s.levels[:i]
	}
	return nil, ErrNoOrdersOnSide
}

// BestPriceAndVolume returns the top of book price and resting volume.
func (s *OrderBookSide) BestPriceAndVolume() (*num.Uint, uint64, error) {
	if len(s.levels) == 0 {
		return nil, 0, ErrNoOrdersOnSide
	}
	last := len(s.levels) - 1
	return s.levels[last].price.Clone(), s.levels[last].volume, nil
}

// reduce takes filled size out of a resting order, dropping its level
// when exhausted.
func (s *OrderBookSide) reduce(o *types.Order, size uint64) error {
	level, ok := s.findPriceLevel(o.Price)
	if !ok {
		return ErrPriceNotFound
	}
	if !level.reduce(o, size) {
		return types.ErrOrderNotFound
	}
	if level.empty() {
		s.removeLevel(o.Price)
	}
	return nil
}

// removeOrder unlinks a resting order (cancel or expiry path).
func (s *OrderBookSide) removeOrder(o *types.Order) (*types.Order, error) {
	level, ok := s.findPriceLevel(o.Price)
	if !ok {
		return nil, types.ErrOrderNotFound
	}
	removed := level.removeOrder(o.ID)
	if removed == nil {
		return nil, types.ErrOrderNotFound
	}
	if level.empty() {
		s.removeLevel(o.Price)
	}
	return removed, nil
}

func (s *OrderBookSide) removeLevel(price *num.Uint) {
	for i := len(s.levels) - 1; i >= 0; i-- {
		if s.levels[i].price.EQ(price) {
			copy(s.levels[i:], s.levels[i+1:])
			s.levels[len(s.levels)-1] = nil
			s.levels = s.levels[:len(s.levels)-1]
			return
		}
	}
}

// depth returns up to n levels from the top as (price, volume) pairs.
func (s *OrderBookSide) depth(n int) []types.PriceVolume {
	out := make([]types.PriceVolume, 0, n)
	for i := len(s.levels) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, types.PriceVolume{
			Price:  s.levels[i].price.Clone(),
			Volume: s.levels[i].volume,
		})
	}
	return out
}

// totalVolume is used by invariant checks in tests.
func (s *OrderBookSide) totalVolume() uint64 {
	var vol uint64
	for _, l := range s.levels {
		vol += l.volume
	}
	return vol
}
