package sse

import (
	"strings"
	"testing"

	"github.com/mirilee/daybook/internal/model"
)

func reminderSchedule(userID int64) *model.Schedule {
	start := "09:00"
	return &model.Schedule{
		ID:        42,
		UserID:    userID,
		Title:     "Standup",
		Date:      "2026-09-02",
		StartTime: &start,
	}
}

func TestDeliverReminderFansOut(t *testing.T) {
	r := NewRegistry(testLogger())
	d := NewDispatcher(r, testLogger())

	a := &stubTransport{}
	b := &stubTransport{}
	r.Open(1, a.send)
	r.Open(1, b.send)
	other := &stubTransport{}
	r.Open(2, other.send)

	if !d.DeliverReminder(reminderSchedule(1)) {
		t.Fatal("expected delivery to succeed")
	}

	for name, tr := range map[string]*stubTransport{"a": a, "b": b} {
		frame := tr.lastFrame()
		if !strings.Contains(frame, "event: schedule-reminder") {
			t.Errorf("channel %s frame = %q, want reminder event", name, frame)
		}
		if !strings.Contains(frame, "id: 42") {
			t.Errorf("channel %s frame = %q, want schedule id", name, frame)
		}
	}

	// Connected ack only; the reminder belongs to user 1.
	if other.frameCount() != 1 {
		t.Errorf("user 2 received %d frames, want 1", other.frameCount())
	}
}

func TestDeliverReminderNoSubscriber(t *testing.T) {
	r := NewRegistry(testLogger())
	d := NewDispatcher(r, testLogger())

	if d.DeliverReminder(reminderSchedule(1)) {
		t.Error("delivery with no open channels should report false")
	}
}

func TestDeliverReminderPartialFailure(t *testing.T) {
	r := NewRegistry(testLogger())
	d := NewDispatcher(r, testLogger())

	healthy := &stubTransport{}
	alsoHealthy := &stubTransport{}
	dying := &stubTransport{}
	r.Open(1, healthy.send)
	r.Open(1, dying.send)
	r.Open(1, alsoHealthy.send)
	dying.setFail(true)

	if !d.DeliverReminder(reminderSchedule(1)) {
		t.Fatal("healthy channels should be enough")
	}
	if got := r.CountFor(1); got != 2 {
		t.Errorf("CountFor(1) = %d, want the failed channel pruned", got)
	}
	for name, tr := range map[string]*stubTransport{"healthy": healthy, "alsoHealthy": alsoHealthy} {
		if !strings.Contains(tr.lastFrame(), "event: schedule-reminder") {
			t.Errorf("channel %s missed the reminder", name)
		}
	}
}

func TestDeliverReminderAllChannelsFail(t *testing.T) {
	r := NewRegistry(testLogger())
	d := NewDispatcher(r, testLogger())

	dead := &stubTransport{}
	r.Open(1, dead.send)
	dead.setFail(true)

	if d.DeliverReminder(reminderSchedule(1)) {
		t.Error("delivery should fail when every channel errors")
	}
	if got := r.CountFor(1); got != 0 {
		t.Errorf("CountFor(1) = %d, want 0", got)
	}
}

func TestDeliverTest(t *testing.T) {
	r := NewRegistry(testLogger())
	d := NewDispatcher(r, testLogger())

	tr := &stubTransport{}
	r.Open(1, tr.send)

	d.DeliverTest(1, "ping check")
	frame := tr.lastFrame()
	if !strings.Contains(frame, "event: test") {
		t.Errorf("frame = %q, want test event", frame)
	}
	if !strings.Contains(frame, "ping check") {
		t.Errorf("frame = %q, want message", frame)
	}
}
