package cache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"hedge-signals-binance/internal/model"
	"hedge-signals-binance/internal/repository"
)

type stubFetcher struct {
	snapshot *model.Snapshot
	err      error
	calls    int
}

func (f *stubFetcher) FetchSymbolFilters(symbols []string) (*model.Snapshot, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	// Re-stamp so every successful fetch looks fresh.
	f.snapshot.Timestamp = time.Now()
	return f.snapshot, nil
}

func mustFilters(t *testing.T, tick, step, minPrice, maxPrice, minQty, maxQty string) model.SymbolFilters {
	t.Helper()
	d := func(s string) decimal.Decimal {
		v, err := decimal.NewFromString(s)
		if err != nil {
			t.Fatalf("bad decimal %q: %v", s, err)
		}
		return v
	}
	return model.SymbolFilters{
		Status:         "TRADING",
		TickSize:       d(tick),
		MinPrice:       d(minPrice),
		MaxPrice:       d(maxPrice),
		StepSize:       d(step),
		MinQty:         d(minQty),
		MaxQty:         d(maxQty),
		PricePrecision: model.DecimalPlaces(d(tick)),
		QtyPrecision:   model.DecimalPlaces(d(step)),
	}
}

func testSnapshot(t *testing.T) *model.Snapshot {
	t.Helper()
	return &model.Snapshot{
		Timestamp: time.Now(),
		Symbols: map[string]model.SymbolFilters{
			"BTCUSDT": mustFilters(t, "0.01", "0.001", "556.80", "4529764", "0.001", "1000"),
			"ETHUSDT": mustFilters(t, "0.01", "0.001", "39.86", "306177", "0.001", "10000"),
		},
	}
}

func newTestCache(t *testing.T, fetcher Fetcher) *SymbolCache {
	t.Helper()
	dir := t.TempDir()
	return New(repository.NewStorage(), fetcher,
		filepath.Join(dir, "symbol_filters.json"),
		filepath.Join(dir, "tickers.txt"), 24)
}

func TestRefreshPersistsAndServes(t *testing.T) {
	fetcher := &stubFetcher{snapshot: testSnapshot(t)}
	c := newTestCache(t, fetcher)

	if err := c.Refresh(true); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected 1 fetch, got %d", fetcher.calls)
	}

	info, ok := c.Get("btcusdt")
	if !ok {
		t.Fatal("expected BTCUSDT in cache (case-insensitive lookup)")
	}
	if info.TickSize.String() != "0.01" {
		t.Errorf("unexpected tick size %s", info.TickSize)
	}

	stats := c.Stats()
	if stats.SymbolCount != 2 || !stats.Valid {
		t.Errorf("unexpected stats: count=%d valid=%v", stats.SymbolCount, stats.Valid)
	}
}

func TestRefreshReusesFreshSnapshotFromDisk(t *testing.T) {
	fetcher := &stubFetcher{snapshot: testSnapshot(t)}
	c := newTestCache(t, fetcher)

	if err := c.Refresh(true); err != nil {
		t.Fatalf("initial refresh failed: %v", err)
	}

	// A second cache over the same file must load from disk, not fetch.
	c2 := New(repository.NewStorage(), fetcher, c.cacheFile, c.tickersFile, 24)
	if err := c2.Refresh(false); err != nil {
		t.Fatalf("refresh from disk failed: %v", err)
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected no network call for a fresh on-disk snapshot, got %d fetches", fetcher.calls)
	}
	if _, ok := c2.Get("ETHUSDT"); !ok {
		t.Fatal("expected ETHUSDT after disk load")
	}
}

func TestStaleSnapshotTriggersFetch(t *testing.T) {
	stale := testSnapshot(t)
	stale.Timestamp = time.Now().Add(-25 * time.Hour)

	storage := repository.NewStorage()
	dir := t.TempDir()
	cacheFile := filepath.Join(dir, "symbol_filters.json")
	if err := storage.Write(cacheFile, stale); err != nil {
		t.Fatalf("seed write failed: %v", err)
	}

	fetcher := &stubFetcher{snapshot: testSnapshot(t)}
	c := New(storage, fetcher, cacheFile, filepath.Join(dir, "tickers.txt"), 24)

	if err := c.Refresh(false); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected stale snapshot to trigger a fetch, got %d fetches", fetcher.calls)
	}
	if stats := c.Stats(); !stats.Valid {
		t.Errorf("expected valid stats after refetch, got age %s", stats.Age)
	}
}

func TestStatsReportsStaleSnapshot(t *testing.T) {
	fetcher := &stubFetcher{snapshot: testSnapshot(t)}
	c := newTestCache(t, fetcher)

	if err := c.Refresh(true); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	c.mu.Lock()
	c.snapshot.Timestamp = time.Now().Add(-25 * time.Hour)
	c.mu.Unlock()

	stats := c.Stats()
	if stats.Valid {
		t.Error("expected 25h-old snapshot with 24h ttl to be invalid")
	}
	if stats.Age < 24*time.Hour {
		t.Errorf("unexpected age %s", stats.Age)
	}
}

func TestFailedRefreshKeepsPreviousSnapshot(t *testing.T) {
	fetcher := &stubFetcher{snapshot: testSnapshot(t)}
	c := newTestCache(t, fetcher)

	if err := c.Refresh(true); err != nil {
		t.Fatalf("initial refresh failed: %v", err)
	}

	fetcher.err = errors.New("binance down")
	if err := c.Refresh(true); err == nil {
		t.Fatal("expected forced refresh to fail")
	}

	if _, ok := c.Get("BTCUSDT"); !ok {
		t.Fatal("previous snapshot must survive a failed refresh")
	}
}

func TestGetLazyRefreshOnEmptyCache(t *testing.T) {
	fetcher := &stubFetcher{snapshot: testSnapshot(t)}
	c := newTestCache(t, fetcher)

	if _, ok := c.Get("BTCUSDT"); !ok {
		t.Fatal("expected lazy refresh to populate the cache")
	}
	if fetcher.calls != 1 {
		t.Fatalf("expected exactly 1 fetch, got %d", fetcher.calls)
	}

	// Unknown symbols return not-found without another fetch.
	if _, ok := c.Get("FAKEUSDT"); ok {
		t.Fatal("unexpected hit for unknown symbol")
	}
	if fetcher.calls != 1 {
		t.Fatalf("unknown symbol must not refetch, got %d fetches", fetcher.calls)
	}
}

func TestCorruptCacheFileDegradesToNoCache(t *testing.T) {
	dir := t.TempDir()
	cacheFile := filepath.Join(dir, "symbol_filters.json")
	if err := writeFile(cacheFile, "{not json"); err != nil {
		t.Fatalf("seed write failed: %v", err)
	}

	fetcher := &stubFetcher{snapshot: testSnapshot(t)}
	c := New(repository.NewStorage(), fetcher, cacheFile, filepath.Join(dir, "tickers.txt"), 24)

	if err := c.Refresh(false); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if fetcher.calls != 1 {
		t.Fatalf("corrupt file must trigger a fetch, got %d", fetcher.calls)
	}
}

func TestLoadTickersFile(t *testing.T) {
	dir := t.TempDir()
	tickersFile := filepath.Join(dir, "tickers.txt")
	content := "# test universe\n'BTCUSDT'\n\"ETHUSDT\"\nnknusdt\nBTCUSDT\n\n"
	if err := writeFile(tickersFile, content); err != nil {
		t.Fatalf("seed write failed: %v", err)
	}

	c := New(repository.NewStorage(), &stubFetcher{}, filepath.Join(dir, "cache.json"), tickersFile, 24)

	symbols := c.loadTickers()
	want := []string{"BTCUSDT", "ETHUSDT", "NKNUSDT"}
	if len(symbols) != len(want) {
		t.Fatalf("expected %v, got %v", want, symbols)
	}
	for i := range want {
		if symbols[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, symbols)
		}
	}
}

func TestLoadTickersFallback(t *testing.T) {
	c := newTestCache(t, &stubFetcher{})

	symbols := c.loadTickers()
	if len(symbols) != 3 || symbols[0] != "BTCUSDT" {
		t.Fatalf("expected fallback list, got %v", symbols)
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}
