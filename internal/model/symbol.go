package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LeverageBracket is one exchange-defined tier mapping a notional range to
// the maximum leverage permitted inside it.
type LeverageBracket struct {
	NotionalCap      decimal.Decimal `json:"notional_cap"`
	InitialLeverage  int             `json:"initial_leverage"`
	MaintMarginRatio decimal.Decimal `json:"maint_margin_ratio"`
}

// SymbolFilters holds the trading rules cached for a single symbol.
// Tick/step sizes and bounds are kept as exact decimals; the derived
// precision fields are an informational fallback only.
type SymbolFilters struct {
	Status           string            `json:"status"`
	TickSize         decimal.Decimal   `json:"tick_size"`
	MinPrice         decimal.Decimal   `json:"min_price"`
	MaxPrice         decimal.Decimal   `json:"max_price"`
	StepSize         decimal.Decimal   `json:"step_size"`
	MinQty           decimal.Decimal   `json:"min_qty"`
	MaxQty           decimal.Decimal   `json:"max_qty"`
	PricePrecision   int               `json:"precision_price"`
	QtyPrecision     int               `json:"precision_qty"`
	LeverageBrackets []LeverageBracket `json:"leverage_brackets"`
}

// Validate rejects filter sets that would break rounding downstream.
// Called once at the fetch boundary so malformed exchange responses fail
// there instead of surfacing as zero divisions later.
func (f *SymbolFilters) Validate() error {
	if !f.TickSize.IsPositive() {
		return fmt.Errorf("tick_size must be positive, got %s", f.TickSize)
	}
	if !f.StepSize.IsPositive() {
		return fmt.Errorf("step_size must be positive, got %s", f.StepSize)
	}
	return nil
}

// Snapshot is the on-disk cache document: one fetch timestamp plus the
// filters for every symbol captured by that fetch. A new fetch replaces
// the whole snapshot, there is no incremental merge.
type Snapshot struct {
	Timestamp time.Time                `json:"timestamp"`
	Symbols   map[string]SymbolFilters `json:"symbols"`
}

// CacheStats reports snapshot freshness for callers that decide when to
// force a refresh.
type CacheStats struct {
	SymbolCount int
	Age         time.Duration
	Valid       bool
	File        string
	LastUpdate  time.Time
}

// LeverageInfo summarizes the bracket schedule for one symbol.
// Available is false when no brackets are cached; Min/Max then carry the
// 1x/20x sentinel values.
type LeverageInfo struct {
	MinLeverage int
	MaxLeverage int
	Brackets    []LeverageBracket
	Available   bool
}

// DecimalPlaces counts the significant fractional digits of d, e.g.
// "0.010" -> 2. Used to derive the informational precision fields from
// tick and step sizes.
func DecimalPlaces(d decimal.Decimal) int {
	s := d.String()
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return 0
	}
	return len(strings.TrimRight(s[i+1:], "0"))
}
