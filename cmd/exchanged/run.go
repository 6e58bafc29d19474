package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"code.cobaltmarkets.io/exchange/collateral"
	"code.cobaltmarkets.io/exchange/config"
	"code.cobaltmarkets.io/exchange/execution"
	"code.cobaltmarkets.io/exchange/logging"
	"code.cobaltmarkets.io/exchange/metrics"
	"code.cobaltmarkets.io/exchange/scheduler"
	"code.cobaltmarkets.io/exchange/trades"
)

type RunCmd struct {
	Config string `short:"c" long:"config" default:"exchange.toml" description:"Path to the configuration file"`
}

var runCmd RunCmd

func (c *RunCmd) Execute(_ []string) error {
	cfg, err := config.Read(c.Config)
	if err != nil {
		return err
	}

	log := logging.NewLoggerFromEnv(cfg.Environment)
	defer log.AtExit()

	now := func() int64 { return time.Now().UnixNano() }

	ledger := collateral.New(log, cfg.Collateral, now)
	journal := trades.NewJournal()
	tradeSvc, err := trades.NewService(log, cfg.Trades, journal)
	if err != nil {
		return err
	}

	engine := execution.NewEngine(log, cfg.Execution, ledger, tradeSvc, now)
	for _, m := range cfg.Markets {
		if err := engine.CreateMarket(m.Asset, m.Schedule); err != nil {
			return err
		}
	}

	if cfg.MetricsAddr != "" {
		metrics.Start(cfg.MetricsAddr)
		log.Info("metrics listening", logging.String("addr", cfg.MetricsAddr))
	}

	sched := scheduler.New(log, cfg.Scheduler)
	sched.NotifyOnTick(func(ctx context.Context, _ time.Time) {
		summary := engine.RunCycle(ctx)
		if summary.Trades > 0 || len(summary.SkippedAssets) > 0 {
			log.Info("matching cycle",
				logging.Int("trades", summary.Trades),
				logging.Uint64("volume", summary.Volume),
				logging.Int("expired", summary.Expired),
				logging.Int("skipped", len(summary.SkippedAssets)),
			)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	sched.Start(ctx)
	return nil
}
