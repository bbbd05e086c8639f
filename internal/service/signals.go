package service

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"hedge-signals-binance/internal/config"
	"hedge-signals-binance/internal/logger"
	"hedge-signals-binance/internal/model"
)

// Timeframes requested from the signal API in one call.
var signalTimeframes = []string{"1h", "4h", "1d"}

type SignalClient struct {
	cfg    *config.Config
	client *http.Client
}

func NewSignalClient(cfg *config.Config) *SignalClient {
	return &SignalClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.SignalApiTimeout) * time.Second,
		},
	}
}

// FetchMultiSignals requests all timeframes for one ticker in a single
// call and reports how long the upstream took to answer. The XGBoost
// backend routinely needs several seconds.
func (s *SignalClient) FetchMultiSignals(ticker string) ([]model.MultiSignal, time.Duration, error) {
	params := url.Values{}
	params.Set("pair", ticker)
	for _, tf := range signalTimeframes {
		params.Add("timeframes", tf)
	}
	params.Set("lang", s.cfg.SignalLang)
	params.Set("model_type", s.cfg.SignalModelType)

	reqURL := fmt.Sprintf("%s?%s", s.cfg.SignalApiURL, params.Encode())

	start := time.Now()
	resp, err := s.client.Get(reqURL)
	elapsed := time.Since(start)
	if err != nil {
		return nil, elapsed, fmt.Errorf("signal api request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, elapsed, fmt.Errorf("failed to read signal response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		logger.Error("Signal API error", "ticker", ticker, "status", resp.Status, "body", string(body))
		return nil, elapsed, fmt.Errorf("signal api returned status %d", resp.StatusCode)
	}

	var signals []model.MultiSignal
	if err := json.Unmarshal(body, &signals); err != nil {
		return nil, elapsed, fmt.Errorf("failed to parse signal response: %w", err)
	}

	logger.Info("📡 Signals received", "ticker", ticker, "count", len(signals), "response_time", elapsed)
	return signals, elapsed, nil
}
