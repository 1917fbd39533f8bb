package sse

import (
	"log/slog"

	"github.com/mirilee/daybook/internal/model"
)

// Dispatcher fans events out to all of a user's open channels.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, logger: logger}
}

// DeliverReminder pushes the schedule-reminder frame to every open channel
// of the schedule's owner. It returns true if at least one channel received
// the frame: a reminder counts as delivered when any of the user's tabs or
// devices got it. Channels that fail mid-send are closed and pruned without
// blocking delivery to the rest. No open channels is a normal condition, not
// an error; the caller leaves the schedule eligible for retry.
func (d *Dispatcher) DeliverReminder(s *model.Schedule) bool {
	chans := d.registry.ChannelsFor(s.UserID)
	if len(chans) == 0 {
		d.logger.Debug("no active subscriber", "user_id", s.UserID, "schedule_id", s.ID)
		return false
	}

	ev := ReminderEvent(s)
	delivered := false
	for _, ch := range chans {
		if err := ch.Send(ev); err != nil {
			d.logger.Warn("reminder send failed, channel pruned",
				"user_id", s.UserID, "schedule_id", s.ID, "error", err)
			continue
		}
		delivered = true
	}
	return delivered
}

// DeliverTest pushes an ad-hoc test frame to the user's channels.
// Best-effort: failed channels are pruned, nothing is reported back.
func (d *Dispatcher) DeliverTest(userID int64, message string) {
	ev := TestEvent(message)
	for _, ch := range d.registry.ChannelsFor(userID) {
		if err := ch.Send(ev); err != nil {
			d.logger.Debug("test send failed, channel pruned", "user_id", userID, "error", err)
		}
	}
}
