package store

import (
	"testing"

	"github.com/mirilee/daybook/internal/database"
	"github.com/mirilee/daybook/internal/model"
)

func setupScheduleStore(t *testing.T) (*ScheduleStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	user, err := NewUserStore(db).Create("mina@example.com", "Mina")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return NewScheduleStore(db), user.ID
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func timedParams(date, start string) ScheduleParams {
	return ScheduleParams{
		Title:           "Standup",
		Date:            date,
		StartTime:       strPtr(start),
		ReminderEnabled: true,
	}
}

func TestCreateAndGetByID(t *testing.T) {
	s, userID := setupScheduleStore(t)

	sc, err := s.Create(userID, ScheduleParams{
		Title:           "Dentist",
		Description:     "Annual checkup",
		Color:           "#FF5733",
		Date:            "2026-09-02",
		StartTime:       strPtr("09:00"),
		EndTime:         strPtr("09:30"),
		ReminderMinutes: intPtr(10),
		ReminderEnabled: true,
	})
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	if sc.Title != "Dentist" {
		t.Errorf("title = %q, want %q", sc.Title, "Dentist")
	}
	if sc.Status != model.StatusPlanned {
		t.Errorf("status = %q, want planned", sc.Status)
	}
	if sc.Reminded {
		t.Error("new schedule should not be reminded")
	}
	if sc.ReminderMinutes == nil || *sc.ReminderMinutes != 10 {
		t.Errorf("reminder_minutes = %v, want 10", sc.ReminderMinutes)
	}

	got, err := s.GetByID(sc.ID)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got.StartTime == nil || *got.StartTime != "09:00" {
		t.Errorf("start_time = %v, want 09:00", got.StartTime)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	s, _ := setupScheduleStore(t)

	got, err := s.GetByID(999)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if got != nil {
		t.Error("expected nil for nonexistent schedule")
	}
}

func TestUpdateResetsRemindedOnStartTimeChange(t *testing.T) {
	s, userID := setupScheduleStore(t)

	sc, err := s.Create(userID, timedParams("2026-09-02", "09:00"))
	if err != nil {
		t.Fatalf("create schedule: %v", err)
	}
	if err := s.MarkReminded(sc.ID); err != nil {
		t.Fatalf("mark reminded: %v", err)
	}

	p := timedParams("2026-09-02", "10:00")
	updated, err := s.Update(sc.ID, p)
	if err != nil {
		t.Fatalf("update schedule: %v", err)
	}
	if updated.Reminded {
		t.Error("changing start_time should reset reminded")
	}
}

func TestUpdateResetsRemindedOnDateChange(t *testing.T) {
	s, userID := setupScheduleStore(t)

	sc, _ := s.Create(userID, timedParams("2026-09-02", "09:00"))
	s.MarkReminded(sc.ID)

	updated, err := s.Update(sc.ID, timedParams("2026-09-03", "09:00"))
	if err != nil {
		t.Fatalf("update schedule: %v", err)
	}
	if updated.Reminded {
		t.Error("changing date should reset reminded")
	}
}

func TestUpdateKeepsRemindedWhenTimingUnchanged(t *testing.T) {
	s, userID := setupScheduleStore(t)

	sc, _ := s.Create(userID, timedParams("2026-09-02", "09:00"))
	s.MarkReminded(sc.ID)

	p := timedParams("2026-09-02", "09:00")
	p.Title = "Renamed"
	updated, err := s.Update(sc.ID, p)
	if err != nil {
		t.Fatalf("update schedule: %v", err)
	}
	if !updated.Reminded {
		t.Error("title-only edits must not reset reminded")
	}
	if updated.Title != "Renamed" {
		t.Errorf("title = %q, want Renamed", updated.Title)
	}
}

func TestUpdateMissingSchedule(t *testing.T) {
	s, _ := setupScheduleStore(t)

	updated, err := s.Update(12345, timedParams("2026-09-02", "09:00"))
	if err != nil {
		t.Fatalf("update schedule: %v", err)
	}
	if updated != nil {
		t.Error("expected nil for nonexistent schedule")
	}
}

func TestSetReminderEnabledResetsRemindedOnTransition(t *testing.T) {
	s, userID := setupScheduleStore(t)

	sc, _ := s.Create(userID, timedParams("2026-09-02", "09:00"))
	s.MarkReminded(sc.ID)

	updated, err := s.SetReminderEnabled(sc.ID, false)
	if err != nil {
		t.Fatalf("set reminder enabled: %v", err)
	}
	if updated.ReminderEnabled {
		t.Error("reminder_enabled should be false")
	}
	if updated.Reminded {
		t.Error("enabled transition should reset reminded")
	}

	// Same value again: no transition, reminded untouched.
	s.MarkReminded(sc.ID)
	updated, err = s.SetReminderEnabled(sc.ID, false)
	if err != nil {
		t.Fatalf("set reminder enabled: %v", err)
	}
	if !updated.Reminded {
		t.Error("setting the same value must not reset reminded")
	}
}

func TestUpdateStatusCompletedForcesFullRate(t *testing.T) {
	s, userID := setupScheduleStore(t)

	sc, _ := s.Create(userID, timedParams("2026-09-02", "09:00"))

	updated, err := s.UpdateStatus(sc.ID, model.StatusCompleted)
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	if updated.Status != model.StatusCompleted {
		t.Errorf("status = %q, want completed", updated.Status)
	}
	if updated.CompletionRate != 100 {
		t.Errorf("completion_rate = %d, want 100", updated.CompletionRate)
	}
}

func TestUpdateCompletionRateFullMarksCompleted(t *testing.T) {
	s, userID := setupScheduleStore(t)

	sc, _ := s.Create(userID, timedParams("2026-09-02", "09:00"))

	updated, err := s.UpdateCompletionRate(sc.ID, 60)
	if err != nil {
		t.Fatalf("update completion rate: %v", err)
	}
	if updated.CompletionRate != 60 {
		t.Errorf("completion_rate = %d, want 60", updated.CompletionRate)
	}
	if updated.Status == model.StatusCompleted {
		t.Error("60% should not mark completed")
	}

	updated, err = s.UpdateCompletionRate(sc.ID, 100)
	if err != nil {
		t.Fatalf("update completion rate: %v", err)
	}
	if updated.Status != model.StatusCompleted {
		t.Errorf("status = %q, want completed at 100%%", updated.Status)
	}
}

func TestListPendingReminderCandidates(t *testing.T) {
	s, userID := setupScheduleStore(t)

	due, _ := s.Create(userID, timedParams("2026-09-02", "09:00"))

	// Disabled: never a candidate.
	disabled := timedParams("2026-09-02", "10:00")
	disabled.ReminderEnabled = false
	s.Create(userID, disabled)

	// Untimed: never a candidate.
	allDay := ScheduleParams{Title: "Holiday", Date: "2026-09-02", AllDay: true, ReminderEnabled: true}
	s.Create(userID, allDay)

	// Wrong day.
	s.Create(userID, timedParams("2026-09-03", "09:00"))

	candidates, err := s.ListPendingReminderCandidates("2026-09-02")
	if err != nil {
		t.Fatalf("list candidates: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(candidates))
	}
	if candidates[0].ID != due.ID {
		t.Errorf("candidate id = %d, want %d", candidates[0].ID, due.ID)
	}

	// Once reminded, it drops out of the query.
	if err := s.MarkReminded(due.ID); err != nil {
		t.Fatalf("mark reminded: %v", err)
	}
	candidates, err = s.ListPendingReminderCandidates("2026-09-02")
	if err != nil {
		t.Fatalf("list candidates: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("got %d candidates after mark, want 0", len(candidates))
	}
}

func TestMarkRemindedIdempotentAndMissingNoop(t *testing.T) {
	s, userID := setupScheduleStore(t)

	sc, _ := s.Create(userID, timedParams("2026-09-02", "09:00"))

	if err := s.MarkReminded(sc.ID); err != nil {
		t.Fatalf("mark reminded: %v", err)
	}
	if err := s.MarkReminded(sc.ID); err != nil {
		t.Fatalf("second mark reminded: %v", err)
	}
	if err := s.MarkReminded(424242); err != nil {
		t.Fatalf("mark reminded on missing schedule: %v", err)
	}

	got, _ := s.GetByID(sc.ID)
	if !got.Reminded {
		t.Error("schedule should be reminded")
	}
}

func TestResetRemindedBefore(t *testing.T) {
	s, userID := setupScheduleStore(t)

	old, _ := s.Create(userID, timedParams("2026-08-31", "09:00"))
	today, _ := s.Create(userID, timedParams("2026-09-01", "09:00"))
	s.MarkReminded(old.ID)
	s.MarkReminded(today.ID)

	n, err := s.ResetRemindedBefore("2026-09-01")
	if err != nil {
		t.Fatalf("reset reminded before: %v", err)
	}
	if n != 1 {
		t.Errorf("reset count = %d, want 1", n)
	}

	gotOld, _ := s.GetByID(old.ID)
	if gotOld.Reminded {
		t.Error("past schedule should have been reset")
	}
	gotToday, _ := s.GetByID(today.ID)
	if !gotToday.Reminded {
		t.Error("today's schedule must not be reset")
	}
}

func TestListByUserAndDateRange(t *testing.T) {
	s, userID := setupScheduleStore(t)

	s.Create(userID, timedParams("2026-09-01", "09:00"))
	s.Create(userID, timedParams("2026-09-03", "09:00"))
	s.Create(userID, timedParams("2026-09-10", "09:00"))

	got, err := s.ListByUserAndDateRange(userID, "2026-09-01", "2026-09-05")
	if err != nil {
		t.Fatalf("list by range: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d schedules, want 2", len(got))
	}
}

func TestDelete(t *testing.T) {
	s, userID := setupScheduleStore(t)

	sc, _ := s.Create(userID, timedParams("2026-09-02", "09:00"))
	if err := s.Delete(sc.ID); err != nil {
		t.Fatalf("delete schedule: %v", err)
	}

	got, _ := s.GetByID(sc.ID)
	if got != nil {
		t.Error("expected nil after delete")
	}
}
