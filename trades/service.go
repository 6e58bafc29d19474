package trades

import (
	"code.cobaltmarkets.io/exchange/logging"
	"code.cobaltmarkets.io/exchange/types"

	lru "github.com/hashicorp/golang-lru"
)

// Service is the read layer over the journal used by external
// presentation and notification consumers. It keeps a small per-asset
// LRU of the latest trades, chart refreshes hit the same assets over
// and over.
type Service struct {
	log     *logging.Logger
	cfg     Config
	journal *Journal
	recent  *lru.Cache
}

// NewService wraps a journal. All writes must go through Append here so
// the per-asset cache stays coherent.
func NewService(log *logging.Logger, cfg Config, journal *Journal) (*Service, error) {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	cache, err := lru.New(cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Service{
		log:     log,
		cfg:     cfg,
		journal: journal,
		recent:  cache,
	}, nil
}

// Append records a trade and refreshes the hot cache for its asset.
func (s *Service) Append(t *types.Trade) {
	s.journal.Append(t)

	cpy := t.Clone()
	if v, ok := s.recent.Get(t.Asset); ok {
		buf := append(v.([]*types.Trade), cpy)
		if max := int(s.cfg.PageSizeMaximum); len(buf) > max {
			buf = buf[len(buf)-max:]
		}
		s.recent.Add(t.Asset, buf)
		return
	}
	s.recent.Add(t.Asset, []*types.Trade{cpy})
}

// Recent returns up to the configured page size of trades for one asset
// with a timestamp at or after the given one, oldest first.
func (s *Service) Recent(asset string, sinceTimestamp int64) []*types.Trade {
	limit := int(s.cfg.PageSizeDefault)

	// serve from the hot cache when it reaches back far enough
	if v, ok := s.recent.Get(asset); ok {
		buf := v.([]*types.Trade)
		// strictly older head guarantees anything evicted is older still
		if len(buf) > 0 && buf[0].Timestamp < sinceTimestamp {
			out := make([]*types.Trade, 0, len(buf))
			for _, t := range buf {
				if t.Timestamp >= sinceTimestamp {
					out = append(out, t.Clone())
				}
				if len(out) == limit {
					break
				}
			}
			return out
		}
	}

	out := make([]*types.Trade, 0, limit)
	for _, t := range s.journal.Since(sinceTimestamp) {
		if t.Asset != asset {
			continue
		}
		out = append(out, t)
		if len(out) == limit {
			break
		}
	}
	return out
}
