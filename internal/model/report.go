package model

import "time"

// OppositeMain is a main signal pointing against the dominant direction,
// read as a strong level rather than a trade.
type OppositeMain struct {
	Timeframe  string
	Direction  string
	EntryPrice float64
	TakeProfit float64
	StopLoss   float64
	Confidence float64
	RiskReward float64
}

// PotentialLevel is a nearby level on a larger timeframe a correction
// trade could run into.
type PotentialLevel struct {
	Timeframe        string
	LevelType        string // "entry" or "sl"
	LevelValue       float64
	Distance         float64
	PotentialPercent float64
	Direction        string // "UP" or "DOWN"
}

// CorrectionTrade is a counter-trend entry candidate enriched with
// exchange-normalized order parameters.
type CorrectionTrade struct {
	Timeframe    string
	Direction    string
	EntryPrice   float64
	TakeProfit   float64
	StopLoss     float64
	Confidence   float64
	RiskReward   float64
	CurrentPrice float64

	// Filled by the order-parameter pass against the symbol cache.
	RoundedEntry float64
	RoundedQty   float64
	OrderValid   bool
	Notional     float64
	Leverage     int

	Potentials []PotentialLevel
}

// TickerReport is one analysis cycle's outcome for a single ticker.
type TickerReport struct {
	RunID             string
	Ticker            string
	DominantDirection string
	SimpleCount       int
	ComplexCount      int
	Corrections       []CorrectionTrade
	OppositeMains     []OppositeMain
	ResponseTime      time.Duration
	GeneratedAt       time.Time
}
