package api

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"

	"hedge-signals-binance/internal/logger"
	"hedge-signals-binance/internal/model"
)

// FetchError marks a failed bulk exchange-info call. It aborts the current
// refresh attempt but is never fatal for the process: callers keep serving
// the previous snapshot and may retry later.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("exchange info fetch failed: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Defaults substituted when the exchange omits a filter or a per-symbol
// leverage call fails.
var (
	defaultTickSize = decimal.RequireFromString("0.01")
	defaultStepSize = decimal.RequireFromString("0.001")

	defaultBracket = model.LeverageBracket{
		NotionalCap:      decimal.NewFromInt(50000),
		InitialLeverage:  20,
		MaintMarginRatio: decimal.RequireFromString("0.05"),
	}
)

// futuresAPI is the slice of the SDK surface the fetcher actually uses.
type futuresAPI interface {
	ExchangeInfo() (*futures.ExchangeInfo, error)
	LeverageBrackets(symbol string) ([]*futures.LeverageBracket, error)
}

type sdkClient struct {
	client *futures.Client
}

func (s *sdkClient) ExchangeInfo() (*futures.ExchangeInfo, error) {
	return s.client.NewExchangeInfoService().Do(context.Background())
}

func (s *sdkClient) LeverageBrackets(symbol string) ([]*futures.LeverageBracket, error) {
	return s.client.NewGetLeverageBracketService().Symbol(symbol).Do(context.Background())
}

// BinanceClient adapts the futures SDK to the two call shapes the symbol
// cache depends on: bulk exchange info and per-symbol leverage brackets.
type BinanceClient struct {
	api futuresAPI
}

func NewBinanceClient(apiKey, secretKey string, testnet bool) *BinanceClient {
	if testnet {
		futures.UseTestnet = true
	}
	logger.Info("Binance futures client initialized", "testnet", testnet)
	return &BinanceClient{
		api: &sdkClient{client: futures.NewClient(apiKey, secretKey)},
	}
}

// FetchSymbolFilters pulls exchange-wide instrument metadata once, filters
// it to the requested set, and attaches each matched symbol's leverage
// bracket schedule. A per-symbol bracket failure substitutes the default
// bracket and continues; only the bulk call itself can fail the batch.
func (c *BinanceClient) FetchSymbolFilters(symbols []string) (*model.Snapshot, error) {
	logger.Info("🔄 Fetching symbol filters from Binance...", "requested", len(symbols))

	info, err := c.api.ExchangeInfo()
	if err != nil {
		return nil, &FetchError{Err: err}
	}

	requested := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		requested[s] = true
	}

	snapshot := &model.Snapshot{
		Timestamp: time.Now(),
		Symbols:   make(map[string]model.SymbolFilters, len(symbols)),
	}

	for i := range info.Symbols {
		si := &info.Symbols[i]
		if !requested[si.Symbol] {
			continue
		}

		filters, err := buildFilters(si)
		if err != nil {
			return nil, &FetchError{Err: fmt.Errorf("symbol %s: %w", si.Symbol, err)}
		}
		snapshot.Symbols[si.Symbol] = filters
	}

	logger.Info("✅ Symbol filters loaded", "found", len(snapshot.Symbols), "requested", len(symbols))

	loaded := 0
	for symbol := range snapshot.Symbols {
		filters := snapshot.Symbols[symbol]
		brackets, err := c.fetchLeverageBrackets(symbol)
		if err != nil {
			logger.Debug("⚠️ Leverage brackets unavailable, using default", "symbol", symbol, "error", err)
			filters.LeverageBrackets = []model.LeverageBracket{defaultBracket}
		} else {
			filters.LeverageBrackets = brackets
			loaded++
		}
		snapshot.Symbols[symbol] = filters
	}

	logger.Info("✅ Leverage brackets loaded", "loaded", loaded, "symbols", len(snapshot.Symbols))
	return snapshot, nil
}

func (c *BinanceClient) fetchLeverageBrackets(symbol string) ([]model.LeverageBracket, error) {
	res, err := c.api.LeverageBrackets(symbol)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 || len(res[0].Brackets) == 0 {
		return nil, fmt.Errorf("empty bracket schedule for %s", symbol)
	}

	brackets := make([]model.LeverageBracket, 0, len(res[0].Brackets))
	for _, b := range res[0].Brackets {
		brackets = append(brackets, model.LeverageBracket{
			NotionalCap:      decimal.NewFromFloat(b.NotionalCap),
			InitialLeverage:  b.InitialLeverage,
			MaintMarginRatio: decimal.NewFromFloat(b.MaintMarginRatio),
		})
	}

	// The exchange reports tiers in ascending notional order, but the
	// selector depends on it, so enforce rather than trust.
	sort.Slice(brackets, func(i, j int) bool {
		return brackets[i].NotionalCap.LessThan(brackets[j].NotionalCap)
	})
	return brackets, nil
}

// buildFilters converts one SDK symbol record into the cached shape,
// parsing every decimal string at this boundary so malformed responses
// fail the refresh instead of propagating downstream.
func buildFilters(si *futures.Symbol) (model.SymbolFilters, error) {
	filters := model.SymbolFilters{
		Status:         si.Status,
		TickSize:       defaultTickSize,
		StepSize:       defaultStepSize,
		PricePrecision: 2,
		QtyPrecision:   3,
	}

	if pf := si.PriceFilter(); pf != nil {
		var err error
		if filters.TickSize, err = decimal.NewFromString(pf.TickSize); err != nil {
			return filters, fmt.Errorf("invalid tickSize %q: %w", pf.TickSize, err)
		}
		if filters.MinPrice, err = decimal.NewFromString(pf.MinPrice); err != nil {
			return filters, fmt.Errorf("invalid minPrice %q: %w", pf.MinPrice, err)
		}
		if filters.MaxPrice, err = decimal.NewFromString(pf.MaxPrice); err != nil {
			return filters, fmt.Errorf("invalid maxPrice %q: %w", pf.MaxPrice, err)
		}
		filters.PricePrecision = model.DecimalPlaces(filters.TickSize)
	}

	if lf := si.LotSizeFilter(); lf != nil {
		var err error
		if filters.StepSize, err = decimal.NewFromString(lf.StepSize); err != nil {
			return filters, fmt.Errorf("invalid stepSize %q: %w", lf.StepSize, err)
		}
		if filters.MinQty, err = decimal.NewFromString(lf.MinQuantity); err != nil {
			return filters, fmt.Errorf("invalid minQty %q: %w", lf.MinQuantity, err)
		}
		if filters.MaxQty, err = decimal.NewFromString(lf.MaxQuantity); err != nil {
			return filters, fmt.Errorf("invalid maxQty %q: %w", lf.MaxQuantity, err)
		}
		filters.QtyPrecision = model.DecimalPlaces(filters.StepSize)
	}

	if err := filters.Validate(); err != nil {
		return filters, err
	}
	return filters, nil
}
