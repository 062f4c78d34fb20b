// Command demacross downloads the trailing daily history for one symbol,
// replays it through the DEMA crossover strategy against a simulated account,
// prints the run summary, and serves the signal chart and trade export over
// HTTP until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"demacross/internal/config"
	"demacross/internal/marketdata"
	"demacross/internal/report"
	"demacross/internal/store"
	"demacross/internal/strategy"
	"demacross/internal/strategy/builtins"
	"demacross/internal/util"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file (default: built-in config, DEMACROSS_CONFIG honored)")
	symbol := flag.String("symbol", "", "ticker symbol to backtest (overrides config)")
	source := flag.String("source", "", "data source: alpaca or stooq (overrides config)")
	listStrategies := flag.Bool("list", false, "list registered strategies and exit")
	noChart := flag.Bool("no-chart", false, "skip the report server and exit after the summary")
	flag.Parse()

	_ = godotenv.Load() // best-effort

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = os.Getenv("DEMACROSS_CONFIG")
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *symbol != "" {
		cfg.Symbol = *symbol
	}
	if *source != "" {
		cfg.Data.Source = *source
	}

	logger := util.NewLogger(cfg.Logging.Level)
	util.SetDefault(logger)

	registry := strategy.NewRegistry()
	registry.Register(builtins.NewDemaCross(builtins.DemaCrossParams{
		FastPeriod:   cfg.Strategy.FastPeriod,
		SlowPeriod:   cfg.Strategy.SlowPeriod,
		ATRPeriod:    cfg.Strategy.ATRPeriod,
		ATRSMAPeriod: cfg.Strategy.ATRSMAPeriod,
		TrendPeriod:  cfg.Strategy.TrendPeriod,
		OrderPct:     cfg.Strategy.OrderPct,
	}, os.Stdout))

	if *listStrategies {
		for _, name := range registry.List() {
			fmt.Println(name)
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("fetching history", "symbol", cfg.Symbol, "source", cfg.Data.Source, "years", cfg.Data.Years)
	bars, err := marketdata.Fetch(ctx, cfg)
	if err != nil {
		log.Fatalf("fetching history: %v", err)
	}

	st, err := store.NewSQLiteStore(cfg.Store.DSN)
	if err != nil {
		log.Fatalf("opening run store: %v", err)
	}
	defer st.Close()

	bt := strategy.NewBacktester(st, registry)
	result, err := bt.Run(ctx, cfg.Strategy.Name, bars, cfg.Backtest.InitialCash, cfg.Backtest.CommissionRate)
	if err != nil {
		log.Fatalf("running backtest: %v", err)
	}

	fmt.Println(result.Summary())

	if *noChart || !cfg.Chart.Enabled {
		return
	}

	httpServer := &http.Server{
		Addr:    cfg.Chart.Addr,
		Handler: report.NewServer(result).Handler(),
	}

	go func() {
		logger.Info("report server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("report server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down report server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}
