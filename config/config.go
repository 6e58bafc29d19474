package config

import (
	"os"

	"code.cobaltmarkets.io/exchange/collateral"
	"code.cobaltmarkets.io/exchange/execution"
	"code.cobaltmarkets.io/exchange/fee"
	"code.cobaltmarkets.io/exchange/scheduler"
	"code.cobaltmarkets.io/exchange/trades"

	"github.com/BurntSushi/toml"
)

// MarketConfig declares one tradable asset and its fee schedule.
type MarketConfig struct {
	Asset    string
	Schedule fee.Schedule
}

// Config is the root configuration of the exchange, one section per
// package, serialisable to/from TOML.
type Config struct {
	Environment string

	Execution  execution.Config
	Collateral collateral.Config
	Trades     trades.Config
	Scheduler  scheduler.Config

	Markets []MarketConfig

	// MetricsAddr is where the prometheus scrape endpoint listens,
	// empty disables it.
	MetricsAddr string
}

// NewDefaultConfig returns the whole tree of package defaults.
func NewDefaultConfig() Config {
	return Config{
		Environment: "dev",
		Execution:   execution.NewDefaultConfig(),
		Collateral:  collateral.NewDefaultConfig(),
		Trades:      trades.NewDefaultConfig(),
		Scheduler:   scheduler.NewDefaultConfig(),
		MetricsAddr: "",
	}
}

// Read loads a config file over the defaults, so a partial file only
// overrides what it names.
func Read(path string) (Config, error) {
	cfg := NewDefaultConfig()
	buf, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(buf, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Write saves the configuration as TOML, used by init to produce a
// starting point.
func Write(path string, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
