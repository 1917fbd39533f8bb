package reminder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mirilee/daybook/internal/model"
	"github.com/mirilee/daybook/internal/sse"
	"github.com/mirilee/daybook/internal/store"
)

const (
	defaultScanInterval = 30 * time.Second

	// DefaultReminderMinutes is the lead time used when a schedule does
	// not carry an explicit reminder_minutes value. A reminder fires at
	// startTime minus this lead, not at the start instant itself.
	DefaultReminderMinutes = 5

	// tickBudget is advisory: a slower tick is logged, never aborted.
	tickBudget = 5 * time.Second
)

// Scanner periodically finds schedules whose reminder instant has arrived
// and pushes them through the dispatcher. The reminded flag flips only after
// the dispatcher confirms at least one channel took the frame; with no
// subscriber online the schedule stays eligible and the next tick retries.
type Scanner struct {
	mu         sync.RWMutex
	schedules  *store.ScheduleStore
	dispatcher *sse.Dispatcher
	interval   time.Duration
	logger     *slog.Logger
	cancel     context.CancelFunc
	done       chan struct{}
}

func NewScanner(schedules *store.ScheduleStore, dispatcher *sse.Dispatcher, logger *slog.Logger) *Scanner {
	return &Scanner{
		schedules:  schedules,
		dispatcher: dispatcher,
		interval:   defaultScanInterval,
		logger:     logger,
	}
}

// Start begins the scan loop.
func (s *Scanner) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.tick()
			}
		}
	}()
}

// Stop gracefully stops the scan loop.
func (s *Scanner) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scanner) tick() {
	start := time.Now()

	// Minute resolution keeps repeated ticks within the same minute
	// idempotent against the same candidate set.
	sent := s.scan(start.Truncate(time.Minute))

	if sent > 0 {
		s.logger.Info("reminders delivered", "count", sent)
	}
	if elapsed := time.Since(start); elapsed > tickBudget {
		s.logger.Warn("slow reminder scan", "elapsed", elapsed)
	}
}

// scan processes one pass at the given instant and returns how many
// reminders were confirmed delivered. One bad candidate never aborts the
// rest of the pass.
func (s *Scanner) scan(now time.Time) int {
	today := now.Format(model.DateFormat)

	candidates, err := s.schedules.ListPendingReminderCandidates(today)
	if err != nil {
		s.logger.Error("list reminder candidates", "error", err)
		return 0
	}

	sent := 0
	for i := range candidates {
		if s.process(&candidates[i], now) {
			sent++
		}
	}
	return sent
}

// process handles a single candidate. Flags are re-checked on the fetched
// row before acting, guarding against rows that changed between query and
// processing.
func (s *Scanner) process(sc *model.Schedule, now time.Time) bool {
	if !sc.ReminderEnabled || sc.Reminded {
		return false
	}

	startClock, ok := sc.StartClock()
	if !ok {
		s.logger.Debug("candidate without usable start time", "schedule_id", sc.ID)
		return false
	}

	if now.Before(triggerInstant(sc, startClock, now)) {
		return false // not yet due
	}

	if !s.dispatcher.DeliverReminder(sc) {
		// No subscriber took the frame. Leave reminded unset so the
		// next tick retries instead of dropping the reminder.
		return false
	}

	if err := s.schedules.MarkReminded(sc.ID); err != nil {
		s.logger.Error("mark reminded", "schedule_id", sc.ID, "error", err)
	}
	return true
}

// triggerInstant places the reminder at startTime minus the schedule's lead
// time, on the day of the scan.
func triggerInstant(sc *model.Schedule, startClock, now time.Time) time.Time {
	lead := DefaultReminderMinutes
	if sc.ReminderMinutes != nil {
		lead = *sc.ReminderMinutes
	}

	start := time.Date(now.Year(), now.Month(), now.Day(),
		startClock.Hour(), startClock.Minute(), 0, 0, now.Location())
	return start.Add(-time.Duration(lead) * time.Minute)
}
