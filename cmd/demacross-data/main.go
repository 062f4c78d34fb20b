// One-shot tool: fetch the configured bar history and print its shape, so a
// symbol and source can be sanity-checked before a backtest run.
//
// Usage:
//
//	go run cmd/demacross-data/main.go -symbol AAPL -source stooq
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"demacross/internal/config"
	"demacross/internal/marketdata"
	"demacross/internal/util"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	symbol := flag.String("symbol", "", "ticker symbol (overrides config)")
	source := flag.String("source", "", "data source: alpaca or stooq (overrides config)")
	tail := flag.Int("tail", 5, "number of trailing bars to print")
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

	util.SetDefault(util.NewLogger(cfg.Logging.Level))

	bars, err := marketdata.Fetch(context.Background(), cfg)
	if err != nil {
		log.Fatalf("fetching history: %v", err)
	}

	first, last := bars[0], bars[len(bars)-1]
	fmt.Printf("%s: %d daily bars  [%s .. %s]\n", first.Symbol, len(bars),
		first.Timestamp.Format("2006-01-02"), last.Timestamp.Format("2006-01-02"))

	n := *tail
	if n > len(bars) {
		n = len(bars)
	}
	if n > 0 {
		fmt.Printf("\n%-12s %10s %10s %10s %10s %12s\n", "Date", "Open", "High", "Low", "Close", "Volume")
		for _, b := range bars[len(bars)-n:] {
			fmt.Printf("%-12s %10.2f %10.2f %10.2f %10.2f %12d\n",
				b.Timestamp.Format("2006-01-02"), b.Open, b.High, b.Low, b.Close, b.Volume)
		}
	}
}
