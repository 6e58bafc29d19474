package execution

import (
	"fmt"

	"code.cobaltmarkets.io/exchange/types"

	uuid "github.com/satori/go.uuid"
	"golang.org/x/crypto/sha3"
)

// IDgenerator hands out order and trade ids. Order ids are random,
// trade ids are a digest of the trade details so the same fill always
// produces the same id.
type IDgenerator struct{}

// NewOrderID returns a fresh unique order id.
func (g IDgenerator) NewOrderID() string {
	return uuid.NewV4().String()
}

// NewTradeID derives the trade id from the immutable trade details.
func (g IDgenerator) NewTradeID(t *types.Trade) string {
	payload := fmt.Sprintf("%s|%s|%s|%s|%d|%d",
		t.Asset, t.MakerID, t.TakerID, t.Price, t.Size, t.Sequence)
	hash := make([]byte, 32)
	sha3.ShakeSum256(hash, []byte(payload))
	return fmt.Sprintf("%x", hash)
}
