package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"hedge-signals-binance/internal/logger"
)

const (
	MarkPriceStreamBaseURL = "wss://fstream.binance.com/ws"
)

// markPriceEvent is the payload of the futures markPrice stream.
type markPriceEvent struct {
	Event     string `json:"e"`
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	MarkPrice string `json:"p"`
}

// MarkPriceService keeps a live mark price per symbol, used to size
// notionals when a signal carries no current price. Prices are best
// effort: callers must handle the not-yet-streamed case.
type MarkPriceService struct {
	mu     sync.RWMutex
	prices map[string]float64
	stopCh chan struct{}
}

func NewMarkPriceService() *MarkPriceService {
	return &MarkPriceService{
		prices: make(map[string]float64),
		stopCh: make(chan struct{}),
	}
}

func (s *MarkPriceService) Start(symbols []string) {
	for _, symbol := range symbols {
		go s.monitorSymbol(symbol)
	}
}

func (s *MarkPriceService) monitorSymbol(symbol string) {
	url := fmt.Sprintf("%s/%s@markPrice", MarkPriceStreamBaseURL, strings.ToLower(symbol))

	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		logger.Info("Connecting to Binance futures WS (markPrice)", "symbol", symbol)
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			logger.Error("Failed to connect to mark price stream, retrying in 5s...", "symbol", symbol, "error", err)
			time.Sleep(5 * time.Second)
			continue
		}

		s.readLoop(symbol, conn)

		select {
		case <-s.stopCh:
			return
		default:
			logger.Warn("Mark price stream closed, reconnecting in 5s...", "symbol", symbol)
			time.Sleep(5 * time.Second)
		}
	}
}

func (s *MarkPriceService) readLoop(symbol string, conn *websocket.Conn) {
	defer conn.Close()

	for {
		select {
		case <-s.stopCh:
			return
		default:
			_, message, err := conn.ReadMessage()
			if err != nil {
				logger.Error("❌ Mark price WS read error", "symbol", symbol, "error", err)
				return
			}

			var event markPriceEvent
			if err := json.Unmarshal(message, &event); err != nil {
				logger.Error("❌ Failed to parse mark price event", "symbol", symbol, "error", err)
				continue
			}
			if event.Event != "markPriceUpdate" {
				continue
			}

			price, err := strconv.ParseFloat(event.MarkPrice, 64)
			if err != nil {
				logger.Error("❌ Invalid mark price payload", "symbol", symbol, "price", event.MarkPrice)
				continue
			}

			s.mu.Lock()
			s.prices[event.Symbol] = price
			s.mu.Unlock()
		}
	}
}

func (s *MarkPriceService) GetPrice(symbol string) (float64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	price, ok := s.prices[strings.ToUpper(symbol)]
	return price, ok
}

func (s *MarkPriceService) Stop() {
	close(s.stopCh)
}
