package cache

import (
	"github.com/shopspring/decimal"

	"hedge-signals-binance/internal/logger"
	"hedge-signals-binance/internal/model"
)

// LeverageBrackets returns the cached bracket schedule for symbol, nil when
// the symbol is unknown.
func (c *SymbolCache) LeverageBrackets(symbol string) []model.LeverageBracket {
	info, ok := c.Get(symbol)
	if !ok {
		return nil
	}
	return info.LeverageBrackets
}

// OptimalLeverage picks the highest leverage the exchange permits for a
// position of the given notional value: the first bracket in ascending
// notional order whose cap covers the position wins, capped by the
// configured default. Without bracket data the default passes through
// unchanged.
func (c *SymbolCache) OptimalLeverage(symbol string, notionalValue float64, defaultLeverage int) int {
	brackets := c.LeverageBrackets(symbol)
	if len(brackets) == 0 {
		logger.Warn("⚠️ No leverage brackets cached, using default leverage",
			"symbol", symbol, "default", defaultLeverage)
		return defaultLeverage
	}

	selected := defaultLeverage
	notional := decimal.NewFromFloat(notionalValue)
	for _, bracket := range brackets {
		if notional.LessThanOrEqual(bracket.NotionalCap) {
			selected = bracket.InitialLeverage
			break
		}
	}

	optimal := min(defaultLeverage, selected)
	if optimal != defaultLeverage {
		logger.Info("📊 Leverage adjusted for position size",
			"symbol", symbol, "default", defaultLeverage, "optimal", optimal, "notional", notionalValue)
	}
	return optimal
}

// LeverageInfo summarizes the min/max leverage across all cached brackets.
// Unknown symbols get the 1x/20x sentinel with Available false.
func (c *SymbolCache) LeverageInfo(symbol string) model.LeverageInfo {
	brackets := c.LeverageBrackets(symbol)
	if len(brackets) == 0 {
		return model.LeverageInfo{MinLeverage: 1, MaxLeverage: 20, Available: false}
	}

	minLev := brackets[0].InitialLeverage
	maxLev := brackets[0].InitialLeverage
	for _, bracket := range brackets[1:] {
		if bracket.InitialLeverage < minLev {
			minLev = bracket.InitialLeverage
		}
		if bracket.InitialLeverage > maxLev {
			maxLev = bracket.InitialLeverage
		}
	}

	return model.LeverageInfo{
		MinLeverage: minLev,
		MaxLeverage: maxLev,
		Brackets:    brackets,
		Available:   true,
	}
}
