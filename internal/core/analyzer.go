package core

import (
	"math"
	"sort"
	"time"

	"hedge-signals-binance/internal/cache"
	"hedge-signals-binance/internal/config"
	"hedge-signals-binance/internal/logger"
	"hedge-signals-binance/internal/model"
)

// DirectionUndetermined is reported when a cycle yields no directional
// signals at all.
const DirectionUndetermined = "UNDETERMINED"

// Smaller to larger; potentials are only searched upward.
var timeframeHierarchy = []string{"1h", "4h", "1d"}

// SignalSource supplies the per-ticker multi-timeframe signals.
type SignalSource interface {
	FetchMultiSignals(ticker string) ([]model.MultiSignal, time.Duration, error)
}

// PriceSource supplies a current price when a signal carries none.
type PriceSource interface {
	GetPrice(symbol string) (float64, bool)
}

// Notifier receives finished reports and cycle errors.
type Notifier interface {
	SendTickerReport(report model.TickerReport)
	SendErrorAlert(ticker, stage string, err error)
}

// Analyzer turns raw multi-timeframe signals into per-ticker reports:
// dominant direction, counter-trend levels, correction entries with
// exchange-normalized order parameters and leverage.
type Analyzer struct {
	cfg      *config.Config
	cache    *cache.SymbolCache
	signals  SignalSource
	prices   PriceSource
	notifier Notifier
}

func NewAnalyzer(cfg *config.Config, symbolCache *cache.SymbolCache, signals SignalSource, prices PriceSource, notifier Notifier) *Analyzer {
	return &Analyzer{
		cfg:      cfg,
		cache:    symbolCache,
		signals:  signals,
		prices:   prices,
		notifier: notifier,
	}
}

// ProcessAll runs one full cycle: refresh the symbol cache if its TTL
// elapsed, then analyze and report every configured ticker. Failures are
// per-ticker; the cycle always completes.
func (a *Analyzer) ProcessAll(runID string) {
	if stats := a.cache.Stats(); !stats.Valid {
		logger.Info("🔄 Symbol cache stale, forcing refresh", "run_id", runID, "age", stats.Age)
		if err := a.cache.Refresh(true); err != nil {
			// Stale filters still beat no filters; keep going.
			logger.Warn("⚠️ Cache refresh failed, continuing with previous data", "run_id", runID, "error", err)
		}
	}

	for _, ticker := range a.cache.Tickers() {
		report, err := a.AnalyzeTicker(runID, ticker)
		if err != nil {
			logger.Error("❌ Ticker analysis failed", "run_id", runID, "ticker", ticker, "error", err)
			a.notifier.SendErrorAlert(ticker, "analysis", err)
			continue
		}
		a.notifier.SendTickerReport(*report)
	}
}

// AnalyzeTicker fetches and aggregates one ticker's signals.
func (a *Analyzer) AnalyzeTicker(runID, ticker string) (*model.TickerReport, error) {
	signals, responseTime, err := a.signals.FetchMultiSignals(ticker)
	if err != nil {
		return nil, err
	}

	simple, complexSignals := splitSignals(signals)
	dominant := dominantDirection(simple, complexSignals)

	report := &model.TickerReport{
		RunID:             runID,
		Ticker:            ticker,
		DominantDirection: dominant,
		SimpleCount:       len(simple),
		ComplexCount:      len(complexSignals),
		OppositeMains:     oppositeMains(complexSignals, dominant),
		ResponseTime:      responseTime,
		GeneratedAt:       time.Now(),
	}

	for _, correction := range correctionTrades(complexSignals) {
		correction.Potentials = potentialsToLevels(correction, simple, complexSignals, dominant)
		a.fillOrderParams(ticker, &correction)
		report.Corrections = append(report.Corrections, correction)
	}

	logger.Info("📊 Ticker analyzed",
		"run_id", runID, "ticker", ticker, "dominant", dominant,
		"corrections", len(report.Corrections), "opposite_mains", len(report.OppositeMains))
	return report, nil
}

// fillOrderParams runs the correction entry through the symbol cache:
// round price and quantity, validate bounds, and pick the leverage the
// exchange permits for the resulting notional.
func (a *Analyzer) fillOrderParams(ticker string, correction *model.CorrectionTrade) {
	entry := correction.EntryPrice
	if entry == 0 {
		entry = correction.CurrentPrice
	}
	if entry == 0 {
		if price, ok := a.prices.GetPrice(ticker); ok {
			entry = price
		}
	}

	price, qty, valid := a.cache.ValidateOrderParams(ticker, entry, a.cfg.PositionQty)
	correction.RoundedEntry = price
	correction.RoundedQty = qty
	correction.OrderValid = valid
	correction.Notional = price * qty
	correction.Leverage = a.cache.OptimalLeverage(ticker, correction.Notional, a.cfg.DefaultLeverage)
}

func splitSignals(signals []model.MultiSignal) (simple, complexSignals []model.MultiSignal) {
	for _, s := range signals {
		if s.IsComplex() {
			complexSignals = append(complexSignals, s)
		} else {
			simple = append(simple, s)
		}
	}
	return simple, complexSignals
}

// dominantDirection is a majority vote across simple directions and the
// main legs of complex signals. Ties resolve to the direction seen first.
func dominantDirection(simple, complexSignals []model.MultiSignal) string {
	var directions []string
	for _, s := range simple {
		if s.Signal != "" {
			directions = append(directions, s.Signal)
		}
	}
	for _, s := range complexSignals {
		if s.Main.Type != "" {
			directions = append(directions, s.Main.Type)
		}
	}
	if len(directions) == 0 {
		return DirectionUndetermined
	}

	counts := make(map[string]int)
	dominant := directions[0]
	for _, d := range directions {
		counts[d]++
		if counts[d] > counts[dominant] {
			dominant = d
		}
	}
	return dominant
}

// oppositeMains collects main legs pointing against the dominant
// direction; those mark strong levels rather than entries.
func oppositeMains(complexSignals []model.MultiSignal, dominant string) []model.OppositeMain {
	var mains []model.OppositeMain
	for _, s := range complexSignals {
		if s.Main.Type == "" || s.Main.Type == dominant {
			continue
		}
		mains = append(mains, model.OppositeMain{
			Timeframe:  s.Timeframe,
			Direction:  s.Main.Type,
			EntryPrice: s.Main.Entry,
			TakeProfit: s.Main.TakeProfit,
			StopLoss:   s.Main.StopLoss,
			Confidence: s.Main.Confidence,
			RiskReward: s.Main.RiskReward,
		})
	}
	return mains
}

func correctionTrades(complexSignals []model.MultiSignal) []model.CorrectionTrade {
	var corrections []model.CorrectionTrade
	for _, s := range complexSignals {
		if s.Correction.Type == "" {
			continue
		}
		corrections = append(corrections, model.CorrectionTrade{
			Timeframe:    s.Timeframe,
			Direction:    s.Correction.Type,
			EntryPrice:   s.Correction.Entry,
			TakeProfit:   s.Correction.TakeProfit,
			StopLoss:     s.Correction.StopLoss,
			Confidence:   s.Correction.Confidence,
			RiskReward:   s.Correction.RiskReward,
			CurrentPrice: s.CurrentPrice,
		})
	}
	return corrections
}

// potentialsToLevels finds entry/stop levels on strictly larger timeframes
// lying on the side opposite the dominant direction, and keeps the closest
// three ordered by timeframe then distance.
func potentialsToLevels(correction model.CorrectionTrade, simple, complexSignals []model.MultiSignal, dominant string) []model.PotentialLevel {
	correctionPrice := correction.EntryPrice
	if correctionPrice == 0 {
		return nil
	}

	currentIdx := timeframeRank(correction.Timeframe)
	if currentIdx < 0 {
		return nil
	}

	targetDirection := "DOWN"
	if dominant == "SHORT" {
		targetDirection = "UP"
	}

	var levels []model.PotentialLevel
	appendLevel := func(timeframe, levelType string, value float64) {
		if value == 0 || value == correctionPrice {
			return
		}
		direction := "DOWN"
		if value > correctionPrice {
			direction = "UP"
		}
		if direction != targetDirection {
			return
		}
		distance := math.Abs(value - correctionPrice)
		levels = append(levels, model.PotentialLevel{
			Timeframe:        timeframe,
			LevelType:        levelType,
			LevelValue:       value,
			Distance:         distance,
			PotentialPercent: round2(distance / correctionPrice * 100),
			Direction:        direction,
		})
	}

	for i := currentIdx + 1; i < len(timeframeHierarchy); i++ {
		targetTf := timeframeHierarchy[i]
		for _, s := range simple {
			if s.Timeframe != targetTf {
				continue
			}
			appendLevel(targetTf, "entry", s.EntryPrice)
			appendLevel(targetTf, "sl", s.StopLoss)
		}
		for _, s := range complexSignals {
			if s.Timeframe != targetTf {
				continue
			}
			appendLevel(targetTf, "entry", s.Main.Entry)
			appendLevel(targetTf, "sl", s.Main.StopLoss)
		}
	}

	sort.SliceStable(levels, func(i, j int) bool {
		ri, rj := timeframeRank(levels[i].Timeframe), timeframeRank(levels[j].Timeframe)
		if ri != rj {
			return ri < rj
		}
		return levels[i].Distance < levels[j].Distance
	})

	if len(levels) > 3 {
		levels = levels[:3]
	}
	return levels
}

func timeframeRank(tf string) int {
	for i, t := range timeframeHierarchy {
		if t == tf {
			return i
		}
	}
	return -1
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
