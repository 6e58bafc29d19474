package main

import (
	"fmt"

	"code.cobaltmarkets.io/exchange/config"
	"code.cobaltmarkets.io/exchange/fee"
)

type InitCmd struct {
	Config string `short:"c" long:"config" default:"exchange.toml" description:"Where to write the configuration file"`
}

var initCmd InitCmd

func (c *InitCmd) Execute(_ []string) error {
	cfg := config.NewDefaultConfig()
	// one example market so a fresh config runs out of the box
	cfg.Markets = []config.MarketConfig{
		{
			Asset: "COBALT",
			Schedule: fee.Schedule{
				MakerFee: "0.001",
				TakerFee: "0.002",
			},
		},
	}
	if err := config.Write(c.Config, cfg); err != nil {
		return err
	}
	fmt.Printf("configuration written to %s\n", c.Config)
	return nil
}
