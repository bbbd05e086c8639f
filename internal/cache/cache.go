package cache

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"hedge-signals-binance/internal/logger"
	"hedge-signals-binance/internal/model"
	"hedge-signals-binance/internal/repository"
)

// Symbols used when the tickers file is missing or yields nothing.
var fallbackTickers = []string{"BTCUSDT", "ETHUSDT", "NKNUSDT"}

// Fetcher is the exchange boundary the cache refreshes through.
type Fetcher interface {
	FetchSymbolFilters(symbols []string) (*model.Snapshot, error)
}

// SymbolCache keeps per-symbol trading filters in memory, backed by a
// single JSON snapshot on disk. Staleness is advisory: reads never refresh
// just because the TTL elapsed, callers force a refresh when they care.
type SymbolCache struct {
	mu          sync.RWMutex
	storage     *repository.Storage
	fetcher     Fetcher
	cacheFile   string
	tickersFile string
	ttl         time.Duration
	snapshot    *model.Snapshot
}

func New(storage *repository.Storage, fetcher Fetcher, cacheFile, tickersFile string, ttlHours int) *SymbolCache {
	logger.Info("📊 Symbol cache initialized", "file", cacheFile, "ttl_hours", ttlHours)
	return &SymbolCache{
		storage:     storage,
		fetcher:     fetcher,
		cacheFile:   cacheFile,
		tickersFile: tickersFile,
		ttl:         time.Duration(ttlHours) * time.Hour,
	}
}

// Refresh brings the in-memory snapshot up to date. With force false, a
// fresh on-disk snapshot is loaded without any network call; otherwise the
// fetcher runs and the result replaces the snapshot on disk and in memory.
// On fetch failure the previous snapshot is left untouched.
func (c *SymbolCache) Refresh(force bool) error {
	if !force {
		if snap := c.loadSnapshot(); snap != nil && c.isValid(snap) {
			logger.Info("✅ Cache is fresh, no refresh needed", "symbols", len(snap.Symbols))
			c.mu.Lock()
			c.snapshot = snap
			c.mu.Unlock()
			return nil
		}
	}

	logger.Info("🔄 Refreshing symbol cache...", "force", force)

	symbols := c.loadTickers()
	snap, err := c.fetcher.FetchSymbolFilters(symbols)
	if err != nil {
		logger.Error("❌ Cache refresh failed, keeping previous snapshot", "error", err)
		return fmt.Errorf("cache refresh: %w", err)
	}

	if err := c.storage.Write(c.cacheFile, snap); err != nil {
		logger.Error("❌ Failed to persist cache snapshot", "error", err)
		return fmt.Errorf("cache persist: %w", err)
	}

	c.mu.Lock()
	c.snapshot = snap
	c.mu.Unlock()

	logger.Info("✅ Cache refreshed", "symbols", len(snap.Symbols))
	return nil
}

// Get returns the cached filters for symbol. When no snapshot has been
// loaded yet it refreshes synchronously first; an elapsed TTL alone does
// not trigger a fetch.
func (c *SymbolCache) Get(symbol string) (model.SymbolFilters, bool) {
	c.mu.RLock()
	snap := c.snapshot
	c.mu.RUnlock()

	if snap == nil {
		if err := c.Refresh(false); err != nil {
			return model.SymbolFilters{}, false
		}
		c.mu.RLock()
		snap = c.snapshot
		c.mu.RUnlock()
		if snap == nil {
			return model.SymbolFilters{}, false
		}
	}

	filters, ok := snap.Symbols[strings.ToUpper(symbol)]
	return filters, ok
}

// Stats reports snapshot freshness without touching the network.
func (c *SymbolCache) Stats() model.CacheStats {
	c.mu.RLock()
	snap := c.snapshot
	c.mu.RUnlock()

	stats := model.CacheStats{File: c.cacheFile}
	if snap == nil || snap.Timestamp.IsZero() {
		return stats
	}

	stats.SymbolCount = len(snap.Symbols)
	stats.Age = time.Since(snap.Timestamp)
	stats.Valid = stats.Age < c.ttl
	stats.LastUpdate = snap.Timestamp
	return stats
}

// loadSnapshot reads the on-disk snapshot. Any failure (missing file,
// corrupt JSON, missing timestamp) degrades to "no cache".
func (c *SymbolCache) loadSnapshot() *model.Snapshot {
	if !c.storage.Exists(c.cacheFile) {
		return nil
	}

	var snap model.Snapshot
	if err := c.storage.Read(c.cacheFile, &snap); err != nil {
		logger.Warn("⚠️ Cache file unreadable, treating as no cache", "file", c.cacheFile, "error", err)
		return nil
	}
	if snap.Timestamp.IsZero() || snap.Symbols == nil {
		logger.Warn("⚠️ Cache file missing timestamp or symbols, treating as no cache", "file", c.cacheFile)
		return nil
	}
	return &snap
}

func (c *SymbolCache) isValid(snap *model.Snapshot) bool {
	return time.Since(snap.Timestamp) < c.ttl
}

// Tickers returns the configured symbol list, re-read on every call so
// edits to the file take effect without a restart.
func (c *SymbolCache) Tickers() []string {
	return c.loadTickers()
}

// loadTickers reads the symbol list file: one quoted or bare symbol per
// line, lines starting with # ignored. Falls back to a fixed list when the
// file is missing or empty.
func (c *SymbolCache) loadTickers() []string {
	file, err := os.Open(c.tickersFile)
	if err != nil {
		logger.Warn("⚠️ Tickers file not found, using fallback list", "file", c.tickersFile)
		return fallbackTickers
	}
	defer file.Close()

	seen := make(map[string]bool)
	var symbols []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		symbol := strings.ToUpper(strings.Trim(line, `'",`))
		if symbol == "" || seen[symbol] {
			continue
		}
		seen[symbol] = true
		symbols = append(symbols, symbol)
	}

	if err := scanner.Err(); err != nil {
		logger.Error("❌ Failed to read tickers file", "file", c.tickersFile, "error", err)
		return fallbackTickers
	}
	if len(symbols) == 0 {
		logger.Warn("⚠️ Tickers file empty, using fallback list", "file", c.tickersFile)
		return fallbackTickers
	}

	logger.Info("📋 Tickers loaded", "count", len(symbols), "file", c.tickersFile)
	return symbols
}
