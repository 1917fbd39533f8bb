package store

import (
	"database/sql"
	"fmt"

	"github.com/mirilee/daybook/internal/model"
)

type ScheduleStore struct {
	db *sql.DB
}

func NewScheduleStore(db *sql.DB) *ScheduleStore {
	return &ScheduleStore{db: db}
}

// ScheduleParams carries the caller-editable fields of a schedule.
type ScheduleParams struct {
	Title           string
	Description     string
	Color           string
	Date            string
	StartTime       *string
	EndTime         *string
	AllDay          bool
	ReminderMinutes *int
	ReminderEnabled bool
}

const scheduleCols = `id, user_id, title, description, color, schedule_date, start_time, end_time,
	all_day, status, completion_rate, reminder_minutes, reminder_enabled, reminded, created_at, updated_at`

func scanSchedule(scanner interface{ Scan(...any) error }) (*model.Schedule, error) {
	var (
		s            model.Schedule
		startTime    sql.NullString
		endTime      sql.NullString
		reminderMins sql.NullInt64
		allDayInt    int
		enabledInt   int
		remindedInt  int
	)
	err := scanner.Scan(
		&s.ID, &s.UserID, &s.Title, &s.Description, &s.Color, &s.Date, &startTime, &endTime,
		&allDayInt, &s.Status, &s.CompletionRate, &reminderMins, &enabledInt, &remindedInt,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if startTime.Valid {
		s.StartTime = &startTime.String
	}
	if endTime.Valid {
		s.EndTime = &endTime.String
	}
	if reminderMins.Valid {
		m := int(reminderMins.Int64)
		s.ReminderMinutes = &m
	}
	s.AllDay = allDayInt != 0
	s.ReminderEnabled = enabledInt != 0
	s.Reminded = remindedInt != 0
	return &s, nil
}

func nullStr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *ScheduleStore) Create(userID int64, p ScheduleParams) (*model.Schedule, error) {
	result, err := s.db.Exec(
		`INSERT INTO schedules (user_id, title, description, color, schedule_date, start_time, end_time,
		 all_day, reminder_minutes, reminder_enabled)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, p.Title, p.Description, p.Color, p.Date, nullStr(p.StartTime), nullStr(p.EndTime),
		boolInt(p.AllDay), nullInt(p.ReminderMinutes), boolInt(p.ReminderEnabled),
	)
	if err != nil {
		return nil, fmt.Errorf("insert schedule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ScheduleStore) GetByID(id int64) (*model.Schedule, error) {
	row := s.db.QueryRow(`SELECT `+scheduleCols+` FROM schedules WHERE id = ?`, id)
	sc, err := scanSchedule(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query schedule: %w", err)
	}
	return sc, nil
}

func (s *ScheduleStore) queryList(query string, args ...any) ([]model.Schedule, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query schedules: %w", err)
	}
	defer rows.Close()

	var schedules []model.Schedule
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, *sc)
	}
	return schedules, rows.Err()
}

func (s *ScheduleStore) ListByUser(userID int64) ([]model.Schedule, error) {
	return s.queryList(
		`SELECT `+scheduleCols+` FROM schedules WHERE user_id = ?
		 ORDER BY schedule_date DESC, start_time ASC`,
		userID,
	)
}

func (s *ScheduleStore) ListByUserAndDate(userID int64, date string) ([]model.Schedule, error) {
	return s.queryList(
		`SELECT `+scheduleCols+` FROM schedules WHERE user_id = ? AND schedule_date = ?
		 ORDER BY start_time ASC`,
		userID, date,
	)
}

func (s *ScheduleStore) ListByUserAndDateRange(userID int64, start, end string) ([]model.Schedule, error) {
	return s.queryList(
		`SELECT `+scheduleCols+` FROM schedules WHERE user_id = ? AND schedule_date BETWEEN ? AND ?
		 ORDER BY schedule_date ASC, start_time ASC`,
		userID, start, end,
	)
}

func (s *ScheduleStore) ListByUserAndStatus(userID int64, status model.ScheduleStatus) ([]model.Schedule, error) {
	return s.queryList(
		`SELECT `+scheduleCols+` FROM schedules WHERE user_id = ? AND status = ?
		 ORDER BY schedule_date DESC, start_time ASC`,
		userID, status,
	)
}

// Update rewrites the editable fields of a schedule. Reminder settings are
// not touched here except that a date or start-time change clears the
// reminded flag so the entry becomes eligible for a fresh reminder cycle.
func (s *ScheduleStore) Update(id int64, p ScheduleParams) (*model.Schedule, error) {
	old, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if old == nil {
		return nil, nil
	}

	resetReminded := old.Date != p.Date || !strPtrEq(old.StartTime, p.StartTime)

	_, err = s.db.Exec(
		`UPDATE schedules
		 SET title = ?, description = ?, color = ?, schedule_date = ?, start_time = ?, end_time = ?,
		     all_day = ?, reminded = CASE WHEN ? THEN 0 ELSE reminded END, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		p.Title, p.Description, p.Color, p.Date, nullStr(p.StartTime), nullStr(p.EndTime),
		boolInt(p.AllDay), boolInt(resetReminded), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update schedule: %w", err)
	}
	return s.GetByID(id)
}

// UpdateStatus changes the lifecycle status. Completing a schedule also
// forces the completion rate to 100.
func (s *ScheduleStore) UpdateStatus(id int64, status model.ScheduleStatus) (*model.Schedule, error) {
	_, err := s.db.Exec(
		`UPDATE schedules
		 SET status = ?,
		     completion_rate = CASE WHEN ? = 'completed' THEN 100 ELSE completion_rate END,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		status, status, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update schedule status: %w", err)
	}
	return s.GetByID(id)
}

// UpdateCompletionRate sets the completion rate; reaching 100 marks the
// schedule completed. Range validation is the caller's job.
func (s *ScheduleStore) UpdateCompletionRate(id int64, rate int) (*model.Schedule, error) {
	_, err := s.db.Exec(
		`UPDATE schedules
		 SET completion_rate = ?,
		     status = CASE WHEN ? = 100 THEN 'completed' ELSE status END,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		rate, rate, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update completion rate: %w", err)
	}
	return s.GetByID(id)
}

// SetReminderEnabled toggles reminder delivery. A transition in either
// direction clears the reminded flag so the next enable starts a fresh cycle.
func (s *ScheduleStore) SetReminderEnabled(id int64, enabled bool) (*model.Schedule, error) {
	_, err := s.db.Exec(
		`UPDATE schedules
		 SET reminder_enabled = ?,
		     reminded = CASE WHEN reminder_enabled != ? THEN 0 ELSE reminded END,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		boolInt(enabled), boolInt(enabled), id,
	)
	if err != nil {
		return nil, fmt.Errorf("set reminder enabled: %w", err)
	}
	return s.GetByID(id)
}

func (s *ScheduleStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	return nil
}

// ListPendingReminderCandidates returns the schedules on the given date that
// are reminder-enabled, not yet reminded, and carry a start time. Untimed
// entries are never reminder candidates.
func (s *ScheduleStore) ListPendingReminderCandidates(date string) ([]model.Schedule, error) {
	return s.queryList(
		`SELECT `+scheduleCols+` FROM schedules
		 WHERE reminder_enabled = 1 AND reminded = 0 AND schedule_date = ? AND start_time IS NOT NULL
		 ORDER BY start_time ASC`,
		date,
	)
}

// MarkReminded records confirmed delivery. Idempotent; a missing schedule is
// a no-op.
func (s *ScheduleStore) MarkReminded(id int64) error {
	_, err := s.db.Exec(
		`UPDATE schedules SET reminded = 1, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("mark reminded: %w", err)
	}
	return nil
}

// ResetRemindedBefore clears the reminded flag on every schedule dated before
// the given date and returns the number of rows touched.
func (s *ScheduleStore) ResetRemindedBefore(date string) (int64, error) {
	result, err := s.db.Exec(
		`UPDATE schedules SET reminded = 0, updated_at = CURRENT_TIMESTAMP
		 WHERE reminded = 1 AND schedule_date < ?`,
		date,
	)
	if err != nil {
		return 0, fmt.Errorf("reset reminded before %s: %w", date, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}

func strPtrEq(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
