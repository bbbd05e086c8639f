package api

import (
	"errors"
	"testing"

	"github.com/adshao/go-binance/v2/futures"
)

type fakeFuturesAPI struct {
	info        *futures.ExchangeInfo
	infoErr     error
	brackets    map[string][]*futures.LeverageBracket
	bracketErrs map[string]error
}

func (f *fakeFuturesAPI) ExchangeInfo() (*futures.ExchangeInfo, error) {
	return f.info, f.infoErr
}

func (f *fakeFuturesAPI) LeverageBrackets(symbol string) ([]*futures.LeverageBracket, error) {
	if err := f.bracketErrs[symbol]; err != nil {
		return nil, err
	}
	return f.brackets[symbol], nil
}

func testSymbol(name, tick, step string) futures.Symbol {
	return futures.Symbol{
		Symbol: name,
		Status: "TRADING",
		Filters: []map[string]interface{}{
			{"filterType": "PRICE_FILTER", "tickSize": tick, "minPrice": "0.01", "maxPrice": "1000000"},
			{"filterType": "LOT_SIZE", "stepSize": step, "minQty": "0.001", "maxQty": "10000"},
		},
	}
}

func testBrackets(symbol string, caps []float64, levs []int) []*futures.LeverageBracket {
	lb := &futures.LeverageBracket{Symbol: symbol}
	for i := range caps {
		lb.Brackets = append(lb.Brackets, futures.Bracket{
			Bracket:          i + 1,
			InitialLeverage:  levs[i],
			NotionalCap:      caps[i],
			MaintMarginRatio: 0.01,
		})
	}
	return []*futures.LeverageBracket{lb}
}

func TestFetchSymbolFiltersPartialBracketFailure(t *testing.T) {
	fake := &fakeFuturesAPI{
		info: &futures.ExchangeInfo{Symbols: []futures.Symbol{
			testSymbol("BTCUSDT", "0.10", "0.001"),
			testSymbol("ETHUSDT", "0.01", "0.001"),
			testSymbol("NKNUSDT", "0.0001", "1"),
		}},
		brackets: map[string][]*futures.LeverageBracket{
			"BTCUSDT": testBrackets("BTCUSDT", []float64{50000, 250000}, []int{125, 100}),
			"ETHUSDT": testBrackets("ETHUSDT", []float64{10000}, []int{75}),
		},
		bracketErrs: map[string]error{
			"NKNUSDT": errors.New("rate limited"),
		},
	}
	client := &BinanceClient{api: fake}

	snap, err := client.FetchSymbolFilters([]string{"BTCUSDT", "ETHUSDT", "NKNUSDT"})
	if err != nil {
		t.Fatalf("expected partial bracket failure to be recovered, got %v", err)
	}
	if len(snap.Symbols) != 3 {
		t.Fatalf("expected all 3 symbols in snapshot, got %d", len(snap.Symbols))
	}

	nkn := snap.Symbols["NKNUSDT"]
	if len(nkn.LeverageBrackets) != 1 {
		t.Fatalf("expected synthetic default bracket, got %d brackets", len(nkn.LeverageBrackets))
	}
	b := nkn.LeverageBrackets[0]
	if b.InitialLeverage != 20 || !b.NotionalCap.Equal(defaultBracket.NotionalCap) {
		t.Errorf("unexpected synthetic bracket: leverage=%d cap=%s", b.InitialLeverage, b.NotionalCap)
	}

	if got := len(snap.Symbols["BTCUSDT"].LeverageBrackets); got != 2 {
		t.Errorf("expected 2 real brackets for BTCUSDT, got %d", got)
	}
}

func TestFetchSymbolFiltersBulkFailure(t *testing.T) {
	client := &BinanceClient{api: &fakeFuturesAPI{infoErr: errors.New("connection refused")}}

	_, err := client.FetchSymbolFilters([]string{"BTCUSDT"})
	if err == nil {
		t.Fatal("expected error when bulk exchange-info call fails")
	}
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %T: %v", err, err)
	}
}

func TestFetchSymbolFiltersIgnoresUnrequestedSymbols(t *testing.T) {
	fake := &fakeFuturesAPI{
		info: &futures.ExchangeInfo{Symbols: []futures.Symbol{
			testSymbol("BTCUSDT", "0.10", "0.001"),
			testSymbol("DOGEUSDT", "0.00001", "1"),
		}},
		brackets: map[string][]*futures.LeverageBracket{
			"BTCUSDT": testBrackets("BTCUSDT", []float64{50000}, []int{125}),
		},
	}
	client := &BinanceClient{api: fake}

	snap, err := client.FetchSymbolFilters([]string{"BTCUSDT"})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(snap.Symbols) != 1 {
		t.Fatalf("expected 1 symbol, got %d", len(snap.Symbols))
	}
	if _, ok := snap.Symbols["DOGEUSDT"]; ok {
		t.Error("unrequested symbol leaked into snapshot")
	}
}

func TestFetchSymbolFiltersSortsBrackets(t *testing.T) {
	fake := &fakeFuturesAPI{
		info: &futures.ExchangeInfo{Symbols: []futures.Symbol{
			testSymbol("BTCUSDT", "0.10", "0.001"),
		}},
		brackets: map[string][]*futures.LeverageBracket{
			"BTCUSDT": testBrackets("BTCUSDT", []float64{250000, 50000, 1000000}, []int{100, 125, 50}),
		},
	}
	client := &BinanceClient{api: fake}

	snap, err := client.FetchSymbolFilters([]string{"BTCUSDT"})
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}

	brackets := snap.Symbols["BTCUSDT"].LeverageBrackets
	for i := 1; i < len(brackets); i++ {
		if brackets[i].NotionalCap.LessThan(brackets[i-1].NotionalCap) {
			t.Fatalf("brackets not sorted ascending by notional cap: %s before %s",
				brackets[i-1].NotionalCap, brackets[i].NotionalCap)
		}
	}
	if brackets[0].InitialLeverage != 125 {
		t.Errorf("expected smallest cap first (125x), got %dx", brackets[0].InitialLeverage)
	}
}

func TestBuildFiltersDefaultsWhenFiltersMissing(t *testing.T) {
	si := futures.Symbol{Symbol: "AAAUSDT", Status: "TRADING"}

	filters, err := buildFilters(&si)
	if err != nil {
		t.Fatalf("buildFilters failed: %v", err)
	}
	if filters.TickSize.String() != "0.01" {
		t.Errorf("expected default tick 0.01, got %s", filters.TickSize)
	}
	if filters.StepSize.String() != "0.001" {
		t.Errorf("expected default step 0.001, got %s", filters.StepSize)
	}
	if filters.PricePrecision != 2 || filters.QtyPrecision != 3 {
		t.Errorf("expected default precisions 2/3, got %d/%d", filters.PricePrecision, filters.QtyPrecision)
	}
}

func TestBuildFiltersRejectsMalformedTick(t *testing.T) {
	si := futures.Symbol{
		Symbol: "BADUSDT",
		Status: "TRADING",
		Filters: []map[string]interface{}{
			{"filterType": "PRICE_FILTER", "tickSize": "not-a-number", "minPrice": "0", "maxPrice": "0"},
		},
	}
	if _, err := buildFilters(&si); err == nil {
		t.Fatal("expected malformed tickSize to fail at the boundary")
	}
}
