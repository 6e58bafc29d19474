package collateral

import (
	"code.cobaltmarkets.io/exchange/config/encoding"
	"code.cobaltmarkets.io/exchange/logging"
)

const namedLogger = "collateral"

// Config represents the configuration of the collateral package.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	// FeeAccount is the party credited with all trading fees.
	FeeAccount string `long:"fee-account"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:      encoding.LogLevel{Level: logging.InfoLevel},
		FeeAccount: "exchange-fees",
	}
}
