package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"hedge-signals-binance/internal/api"
	"hedge-signals-binance/internal/cache"
	"hedge-signals-binance/internal/config"
	"hedge-signals-binance/internal/logger"
	"hedge-signals-binance/internal/repository"
)

// symbolinfo inspects the on-disk symbol cache: freshness, one symbol's
// filters and leverage brackets, and sample roundings against them.
func main() {
	symbol := flag.String("symbol", "BTCUSDT", "futures symbol to inspect")
	refresh := flag.Bool("refresh", false, "force a refresh from Binance before inspecting")
	price := flag.Float64("price", 0, "sample price to round (0 to skip)")
	qty := flag.Float64("qty", 0, "sample quantity to round (0 to skip)")
	flag.Parse()

	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	storage := repository.NewStorage()
	binanceClient := api.NewBinanceClient(cfg.BinanceApiKey, cfg.BinanceSecretKey, cfg.BinanceTestnet)
	symbolCache := cache.New(storage, binanceClient, cfg.CacheFile, cfg.TickersFile, cfg.CacheTTLHours)

	if err := symbolCache.Refresh(*refresh); err != nil {
		fmt.Fprintf(os.Stderr, "refresh failed: %v\n", err)
		os.Exit(1)
	}

	stats := symbolCache.Stats()
	fmt.Printf("Cache file:   %s\n", stats.File)
	fmt.Printf("Symbols:      %d\n", stats.SymbolCount)
	fmt.Printf("Last update:  %s\n", stats.LastUpdate.Format("02/01/2006, 15:04:05"))
	fmt.Printf("Age:          %s (valid: %v)\n", stats.Age.Round(time.Second), stats.Valid)
	fmt.Println()

	name := strings.ToUpper(*symbol)
	filters, ok := symbolCache.Get(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "symbol %s not in cache\n", name)
		os.Exit(1)
	}

	fmt.Printf("%s (%s)\n", name, filters.Status)
	fmt.Printf("  tick size:  %s (precision %d)\n", filters.TickSize, filters.PricePrecision)
	fmt.Printf("  price:      %s .. %s\n", filters.MinPrice, filters.MaxPrice)
	fmt.Printf("  step size:  %s (precision %d)\n", filters.StepSize, filters.QtyPrecision)
	fmt.Printf("  quantity:   %s .. %s\n", filters.MinQty, filters.MaxQty)

	info := symbolCache.LeverageInfo(name)
	fmt.Printf("  leverage:   %dx .. %dx (%d brackets)\n", info.MinLeverage, info.MaxLeverage, len(filters.LeverageBrackets))
	for _, b := range filters.LeverageBrackets {
		fmt.Printf("    cap %-14s lev %3dx  maint %s\n", b.NotionalCap, b.InitialLeverage, b.MaintMarginRatio)
	}

	if *price > 0 {
		rounded := symbolCache.RoundPrice(name, *price)
		fmt.Printf("\nrounded price %v -> %v\n", *price, rounded)
	}
	if *qty > 0 {
		rounded := symbolCache.RoundQuantity(name, *qty)
		fmt.Printf("rounded qty   %v -> %v\n", *qty, rounded)
	}
	if *price > 0 && *qty > 0 {
		rp, rq, valid := symbolCache.ValidateOrderParams(name, *price, *qty)
		notional := rp * rq
		fmt.Printf("order params  price=%v qty=%v valid=%v notional=%.2f leverage=%dx\n",
			rp, rq, valid, notional, symbolCache.OptimalLeverage(name, notional, cfg.DefaultLeverage))
	}
}
