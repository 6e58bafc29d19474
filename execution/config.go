package execution

import (
	"code.cobaltmarkets.io/exchange/config/encoding"
	"code.cobaltmarkets.io/exchange/fee"
	"code.cobaltmarkets.io/exchange/logging"
	"code.cobaltmarkets.io/exchange/matching"
)

const namedLogger = "execution"

// Config is the configuration of the execution package and the engines
// it owns per market.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	// BookDepthLevels is how many aggregated price levels the depth
	// read interface returns per side.
	BookDepthLevels int `long:"book-depth-levels"`

	Matching matching.Config
	Fee      fee.Config
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:           encoding.LogLevel{Level: logging.InfoLevel},
		BookDepthLevels: 5,
		Matching:        matching.NewDefaultConfig(),
		Fee:             fee.NewDefaultConfig(),
	}
}
