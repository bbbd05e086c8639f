package cache

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RoundPrice quantizes price to the nearest multiple of the symbol's tick
// size, rounding half up at the boundary. Unknown symbols fall back to a
// coarse digit count: 1 decimal for BTC pairs, 2 otherwise. The fallback
// is best effort, not a precision guarantee.
func (c *SymbolCache) RoundPrice(symbol string, price float64) float64 {
	info, ok := c.Get(symbol)
	if !ok {
		if strings.Contains(strings.ToUpper(symbol), "BTC") {
			return roundDigits(price, 1)
		}
		return roundDigits(price, 2)
	}
	return roundToIncrement(price, info.TickSize)
}

// RoundQuantity quantizes qty to the symbol's step size the same way.
// Fallback digits: 3 for BTC pairs, 6 otherwise.
func (c *SymbolCache) RoundQuantity(symbol string, qty float64) float64 {
	info, ok := c.Get(symbol)
	if !ok {
		if strings.Contains(strings.ToUpper(symbol), "BTC") {
			return roundDigits(qty, 3)
		}
		return roundDigits(qty, 6)
	}
	return roundToIncrement(qty, info.StepSize)
}

// ValidateOrderParams rounds both values and checks them against the
// symbol's min/max bounds. The rounded values are returned as-is (never
// clamped) even when invalid. Without metadata, validity degrades to a
// plain positivity check so a cache miss never blocks the caller.
func (c *SymbolCache) ValidateOrderParams(symbol string, price, qty float64) (float64, float64, bool) {
	roundedPrice := c.RoundPrice(symbol, price)
	roundedQty := c.RoundQuantity(symbol, qty)

	info, ok := c.Get(symbol)
	if !ok {
		return roundedPrice, roundedQty, roundedPrice > 0 && roundedQty > 0
	}

	p := decimal.NewFromFloat(roundedPrice)
	q := decimal.NewFromFloat(roundedQty)

	valid := p.GreaterThanOrEqual(info.MinPrice) && p.LessThanOrEqual(info.MaxPrice) &&
		q.GreaterThanOrEqual(info.MinQty) && q.LessThanOrEqual(info.MaxQty)

	return roundedPrice, roundedQty, valid
}

// roundToIncrement snaps v to the nearest multiple of inc using exact
// decimal arithmetic. DivRound rounds half away from zero, which for the
// positive prices and quantities handled here is round-half-up.
func roundToIncrement(v float64, inc decimal.Decimal) float64 {
	rounded, _ := decimal.NewFromFloat(v).DivRound(inc, 0).Mul(inc).Float64()
	return rounded
}

func roundDigits(v float64, places int32) float64 {
	rounded, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return rounded
}
