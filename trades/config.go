package trades

import (
	"code.cobaltmarkets.io/exchange/config/encoding"
	"code.cobaltmarkets.io/exchange/logging"
)

// namedLogger is the identifier for package and should ideally match the package name
// this is simply emitted as a hierarchical label e.g. 'api.grpc'.
const namedLogger = "trades"

// Config represent the configuration of the trades service.
type Config struct {
	Level encoding.LogLevel `long:"log-level"`

	// PageSizeDefault sets the default page size
	PageSizeDefault uint64

	// PageSizeMaximum sets the maximum page size
	PageSizeMaximum uint64

	// CacheSize is the number of assets with a hot recent-trades cache
	CacheSize int
}

// NewDefaultConfig creates an instance of the package specific configuration.
func NewDefaultConfig() Config {
	return Config{
		Level:           encoding.LogLevel{Level: logging.InfoLevel},
		PageSizeDefault: 200,
		PageSizeMaximum: 200,
		CacheSize:       128,
	}
}
