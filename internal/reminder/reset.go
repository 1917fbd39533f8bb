package reminder

import (
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mirilee/daybook/internal/model"
	"github.com/mirilee/daybook/internal/store"
)

// DailyReset clears the reminded flag on past-dated schedules once a day at
// midnight, so an entry moved forward to a new date starts a fresh reminder
// cycle without waiting for an explicit edit.
type DailyReset struct {
	schedules *store.ScheduleStore
	cron      *cron.Cron
	logger    *slog.Logger
}

func NewDailyReset(schedules *store.ScheduleStore, logger *slog.Logger) *DailyReset {
	d := &DailyReset{
		schedules: schedules,
		cron:      cron.New(),
		logger:    logger,
	}
	if _, err := d.cron.AddFunc("0 0 * * *", d.run); err != nil {
		// The expression is constant, so this only fires on a bad edit.
		logger.Error("register daily reset job", "error", err)
	}
	return d
}

// Start schedules the midnight job.
func (d *DailyReset) Start() {
	d.cron.Start()
}

// Stop halts the cron scheduler and waits for a running job to finish.
func (d *DailyReset) Stop() {
	ctx := d.cron.Stop()
	<-ctx.Done()
}

func (d *DailyReset) run() {
	today := time.Now().Format(model.DateFormat)
	n, err := d.schedules.ResetRemindedBefore(today)
	if err != nil {
		d.logger.Error("daily reminder reset", "error", err)
		return
	}
	if n > 0 {
		d.logger.Info("daily reminder reset", "count", n)
	}
}
