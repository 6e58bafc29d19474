package fee

import (
	"code.cobaltmarkets.io/exchange/config/encoding"
	"code.cobaltmarkets.io/exchange/logging"
)

const namedLogger = "fee"

// Config represents the configuration of the fee package.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level: encoding.LogLevel{Level: logging.InfoLevel},
	}
}
