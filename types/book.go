package types

import "code.cobaltmarkets.io/exchange/num"

// PriceVolume is one aggregated price level as exposed by the book
// depth read interface.
type PriceVolume struct {
	Price  *num.Uint
	Volume uint64
}

// BookDepth is a point-in-time aggregated view of one book, best
// levels first on both sides.
type BookDepth struct {
	Asset string
	Buy   []PriceVolume
	Sell  []PriceVolume
}
