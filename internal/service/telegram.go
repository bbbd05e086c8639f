package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"hedge-signals-binance/internal/config"
	"hedge-signals-binance/internal/logger"
	"hedge-signals-binance/internal/model"
)

type TelegramService struct {
	Cfg *config.Config
}

func NewTelegramService(cfg *config.Config) *TelegramService {
	return &TelegramService{
		Cfg: cfg,
	}
}

func (s *TelegramService) SendMessage(text string) {
	if s.Cfg.TelegramToken == "" || s.Cfg.TelegramChatID == "" {
		logger.Warn("Telegram credentials not set, skipping message")
		return
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.Cfg.TelegramToken)
	payload := map[string]string{
		"chat_id":    s.Cfg.TelegramChatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal Telegram payload", "error", err)
		return
	}

	// Send async
	go func() {
		resp, err := http.Post(url, "application/json", bytes.NewBuffer(jsonPayload))
		if err != nil {
			logger.Error("Failed to send Telegram message", "error", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			logger.Error("Telegram API error", "status", resp.Status)
		}
	}()
}

// SendTickerReport formats one analysis cycle for a ticker and pushes it
// to the configured chat.
func (s *TelegramService) SendTickerReport(report model.TickerReport) {
	s.SendMessage(s.FormatTickerReport(report))
}

func (s *TelegramService) FormatTickerReport(report model.TickerReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🚀 *%s* — Hedge Signals\n", s.escapeMarkdown(report.Ticker))
	fmt.Fprintf(&b, "📍 Dominant: %s (simple: %d, complex: %d)\n",
		report.DominantDirection, report.SimpleCount, report.ComplexCount)

	if len(report.OppositeMains) > 0 {
		b.WriteString("\n🧱 Counter-trend levels:\n")
		for _, m := range report.OppositeMains {
			fmt.Fprintf(&b, "- %s %s entry `%.4f` sl `%.4f` conf %.0f%%\n",
				m.Timeframe, m.Direction, m.EntryPrice, m.StopLoss, m.Confidence*100)
		}
	}

	if len(report.Corrections) == 0 {
		b.WriteString("\n💤 No correction entries this cycle\n")
	}
	for _, c := range report.Corrections {
		fmt.Fprintf(&b, "\n🔄 Correction %s %s\n", c.Timeframe, c.Direction)
		fmt.Fprintf(&b, "💲 Entry: `%.8g` → `%.8g`\n", c.EntryPrice, c.RoundedEntry)
		fmt.Fprintf(&b, "📦 Qty: `%.8g`\n", c.RoundedQty)
		fmt.Fprintf(&b, "📊 Notional: `%.2f USDT`\n", c.Notional)
		fmt.Fprintf(&b, "⚡ Leverage: `%dx`\n", c.Leverage)
		if !c.OrderValid {
			b.WriteString("⚠️ Order params outside exchange limits\n")
		}
		for _, p := range c.Potentials {
			fmt.Fprintf(&b, "🎯 %s %s `%.8g` (%.2f%%)\n",
				p.Timeframe, p.LevelType, p.LevelValue, p.PotentialPercent)
		}
	}

	fmt.Fprintf(&b, "\n🆔 %s\n⏱️ api %.2fs | %s",
		s.escapeMarkdown(report.RunID),
		report.ResponseTime.Seconds(),
		report.GeneratedAt.Format("02/01/2006, 15:04:05"))

	return b.String()
}

// SendErrorAlert notifies the chat that a cycle step failed; the daemon
// itself keeps running.
func (s *TelegramService) SendErrorAlert(ticker, stage string, err error) {
	now := time.Now().Format("02/01/2006, 15:04:05")
	msg := fmt.Sprintf(
		"🚨 *Hedge Signals Error*\n\n"+
			"📊 Ticker: %s\n"+
			"🔧 Stage: %s\n"+
			"❌ Error: %s\n\n"+
			"📅 %s",
		s.escapeMarkdown(ticker),
		s.escapeMarkdown(stage),
		s.escapeMarkdown(err.Error()),
		now,
	)
	s.SendMessage(msg)
}

func (s *TelegramService) escapeMarkdown(text string) string {
	// Replace _ with \_ to prevent Markdown parsing errors
	return strings.ReplaceAll(text, "_", "\\_")
}
