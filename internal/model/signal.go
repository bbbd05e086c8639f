package model

// SignalLeg is the main or correction part of a complex signal.
type SignalLeg struct {
	Type       string  `json:"type"`
	Entry      float64 `json:"entry"`
	TakeProfit float64 `json:"tp"`
	StopLoss   float64 `json:"sl"`
	Confidence float64 `json:"confidence"`
	RiskReward float64 `json:"risk_reward"`
}

// MultiSignal is one per-timeframe record from the multi-signal endpoint.
// Simple records carry the flat fields; complex records carry Main and
// Correction legs instead.
type MultiSignal struct {
	Timeframe    string     `json:"timeframe"`
	Pair         string     `json:"pair"`
	CurrentPrice float64    `json:"current_price"`
	Signal       string     `json:"signal,omitempty"`
	EntryPrice   float64    `json:"entry_price,omitempty"`
	TakeProfit   float64    `json:"take_profit,omitempty"`
	StopLoss     float64    `json:"stop_loss,omitempty"`
	Confidence   float64    `json:"confidence,omitempty"`
	RiskReward   float64    `json:"risk_reward,omitempty"`
	Main         *SignalLeg `json:"main_signal,omitempty"`
	Correction   *SignalLeg `json:"correction_signal,omitempty"`
}

// IsComplex reports whether the record carries main/correction legs.
func (s *MultiSignal) IsComplex() bool {
	return s.Main != nil && s.Correction != nil
}
