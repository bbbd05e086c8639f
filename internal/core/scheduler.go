package core

import (
	"time"

	"github.com/google/uuid"

	"hedge-signals-binance/internal/config"
	"hedge-signals-binance/internal/logger"
)

// pollInterval is how often the loop checks whether the next slot arrived.
const pollInterval = 10 * time.Second

// Scheduler fires analysis cycles on a fixed grid anchored to local
// midnight, so a 15 minute interval runs at :00, :15, :30, :45 regardless
// of when the process started.
type Scheduler struct {
	analyzer *Analyzer
	interval time.Duration
	loc      *time.Location
	stopCh   chan struct{}
}

func NewScheduler(cfg *config.Config, analyzer *Analyzer) *Scheduler {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("⚠️ Unknown timezone, falling back to local", "timezone", cfg.Timezone, "error", err)
		loc = time.Local
	}

	return &Scheduler{
		analyzer: analyzer,
		interval: time.Duration(cfg.IntervalMinutes) * time.Minute,
		loc:      loc,
		stopCh:   make(chan struct{}),
	}
}

// nextTick returns the first grid slot at or after now. A now exactly on
// a slot is returned unchanged, so startup on a boundary runs immediately.
func (s *Scheduler) nextTick(now time.Time) time.Time {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	elapsed := now.Sub(midnight)
	if elapsed%s.interval == 0 {
		return now
	}
	slots := elapsed/s.interval + 1
	return midnight.Add(slots * s.interval)
}

// Run blocks until Stop is called.
func (s *Scheduler) Run() {
	next := s.nextTick(time.Now().In(s.loc))
	logger.Info("🎯 Scheduler started",
		"interval", s.interval, "timezone", s.loc.String(),
		"first_run", next.Format("02/01/2006, 15:04:05"))

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			logger.Info("🏁 Scheduler stopped")
			return
		case <-ticker.C:
			now := time.Now().In(s.loc)
			if now.Before(next) {
				continue
			}

			runID := uuid.NewString()[:8]
			logger.Info("⏰ Cycle started", "run_id", runID, "slot", next.Format("15:04:05"))
			s.analyzer.ProcessAll(runID)

			next = next.Add(s.interval)
			if now = time.Now().In(s.loc); now.After(next) {
				// Cycle overran its slot; skip to the next aligned one.
				next = s.nextTick(now)
				logger.Warn("⚠️ Cycle overran the interval", "run_id", runID, "next_run", next.Format("15:04:05"))
			}
			logger.Info("⏭️ Next cycle scheduled", "run_id", runID, "next_run", next.Format("02/01/2006, 15:04:05"))
		}
	}
}

func (s *Scheduler) Stop() {
	close(s.stopCh)
}
