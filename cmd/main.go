package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"hedge-signals-binance/internal/api"
	"hedge-signals-binance/internal/cache"
	"hedge-signals-binance/internal/config"
	"hedge-signals-binance/internal/core"
	"hedge-signals-binance/internal/logger"
	"hedge-signals-binance/internal/repository"
	"hedge-signals-binance/internal/service"
)

func main() {
	logger.Init()
	logger.Info("Starting Hedge Signals Daemon (Production Mode)...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.Info("Configuration loaded successfully",
		"cache_file", cfg.CacheFile,
		"cache_ttl_hours", cfg.CacheTTLHours,
		"tickers_file", cfg.TickersFile,
		"interval_minutes", cfg.IntervalMinutes,
		"timezone", cfg.Timezone,
		"testnet", cfg.BinanceTestnet,
	)

	// Repositories & Binance client
	storage := repository.NewStorage()
	binanceClient := api.NewBinanceClient(cfg.BinanceApiKey, cfg.BinanceSecretKey, cfg.BinanceTestnet)

	// Symbol metadata cache
	symbolCache := cache.New(storage, binanceClient, cfg.CacheFile, cfg.TickersFile, cfg.CacheTTLHours)
	if err := symbolCache.Refresh(false); err != nil {
		logger.Warn("⚠️ Initial symbol cache refresh failed, continuing without filters", "error", err)
	}
	stats := symbolCache.Stats()
	logger.Info("📦 Symbol cache ready", "symbols", stats.SymbolCount, "age", stats.Age, "valid", stats.Valid)

	// Services
	signalClient := service.NewSignalClient(cfg)
	telegramService := service.NewTelegramService(cfg)
	markPriceService := service.NewMarkPriceService()
	markPriceService.Start(symbolCache.Tickers())

	// Analyzer & Scheduler
	analyzer := core.NewAnalyzer(cfg, symbolCache, signalClient, markPriceService, telegramService)
	scheduler := core.NewScheduler(cfg, analyzer)

	// Graceful shutdown on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("🛑 Shutdown signal received", "signal", sig.String())
		markPriceService.Stop()
		scheduler.Stop()
	}()

	scheduler.Run()
	logger.Info("👋 Hedge Signals Daemon stopped")
}
