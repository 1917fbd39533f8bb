package model

import "time"

// ScheduleStatus tracks a schedule entry through its lifecycle.
type ScheduleStatus string

const (
	StatusPlanned    ScheduleStatus = "planned"
	StatusInProgress ScheduleStatus = "in_progress"
	StatusCompleted  ScheduleStatus = "completed"
	StatusCancelled  ScheduleStatus = "cancelled"
)

// ValidStatus reports whether s is one of the known schedule statuses.
func ValidStatus(s ScheduleStatus) bool {
	switch s {
	case StatusPlanned, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// DateFormat and ClockFormat are the storage formats for schedule dates and
// clock times. A nil StartTime means an all-day/untimed entry.
const (
	DateFormat  = "2006-01-02"
	ClockFormat = "15:04"
)

type Schedule struct {
	ID              int64          `json:"id"`
	UserID          int64          `json:"user_id"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Color           string         `json:"color"`
	Date            string         `json:"date"`
	StartTime       *string        `json:"start_time"`
	EndTime         *string        `json:"end_time"`
	AllDay          bool           `json:"all_day"`
	Status          ScheduleStatus `json:"status"`
	CompletionRate  int            `json:"completion_rate"`
	ReminderMinutes *int           `json:"reminder_minutes"`
	ReminderEnabled bool           `json:"reminder_enabled"`
	Reminded        bool           `json:"reminded"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// StartClock parses the schedule's start time. ok is false for untimed
// entries or malformed values.
func (s *Schedule) StartClock() (t time.Time, ok bool) {
	if s.StartTime == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(ClockFormat, *s.StartTime)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
