package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mirilee/daybook/internal/auth"
	"github.com/mirilee/daybook/internal/model"
	"github.com/mirilee/daybook/internal/store"
)

type ScheduleHandler struct {
	schedules *store.ScheduleStore
	logger    *slog.Logger
}

func NewScheduleHandler(schedules *store.ScheduleStore, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules, logger: logger}
}

type scheduleRequest struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	Color           string  `json:"color"`
	Date            string  `json:"date"`
	StartTime       *string `json:"start_time"`
	EndTime         *string `json:"end_time"`
	AllDay          bool    `json:"all_day"`
	ReminderMinutes *int    `json:"reminder_minutes"`
	ReminderEnabled *bool   `json:"reminder_enabled"`
}

func (h *ScheduleHandler) parseAndValidate(r *http.Request, w http.ResponseWriter) (*store.ScheduleParams, bool) {
	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return nil, false
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return nil, false
	}
	if !validDate(req.Date) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD format"})
		return nil, false
	}
	if !validClock(req.StartTime) || !validClock(req.EndTime) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "times must be HH:MM format"})
		return nil, false
	}
	if req.ReminderMinutes != nil && *req.ReminderMinutes < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reminder_minutes must not be negative"})
		return nil, false
	}

	enabled := true
	if req.ReminderEnabled != nil {
		enabled = *req.ReminderEnabled
	}

	return &store.ScheduleParams{
		Title:           req.Title,
		Description:     req.Description,
		Color:           req.Color,
		Date:            req.Date,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		AllDay:          req.AllDay,
		ReminderMinutes: req.ReminderMinutes,
		ReminderEnabled: enabled,
	}, true
}

// getOwned loads a schedule and verifies the requester owns it. Foreign
// schedules are reported as not found rather than forbidden, so ids cannot
// be probed.
func (h *ScheduleHandler) getOwned(w http.ResponseWriter, r *http.Request) *model.Schedule {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return nil
	}

	sc, err := h.schedules.GetByID(id)
	if err != nil {
		h.logger.Error("get schedule", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get schedule"})
		return nil
	}
	if sc == nil || sc.UserID != auth.UserID(r.Context()) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "schedule not found"})
		return nil
	}
	return sc
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	params, ok := h.parseAndValidate(r, w)
	if !ok {
		return
	}

	sc, err := h.schedules.Create(auth.UserID(r.Context()), *params)
	if err != nil {
		h.logger.Error("create schedule", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create schedule"})
		return
	}

	writeJSON(w, http.StatusCreated, sc)
}

// List returns the requester's schedules. Optional query parameters narrow
// the result: date=YYYY-MM-DD, from/to=YYYY-MM-DD, status=<status>.
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	q := r.URL.Query()

	var (
		schedules []model.Schedule
		err       error
	)
	switch {
	case q.Get("date") != "":
		date := q.Get("date")
		if !validDate(date) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD format"})
			return
		}
		schedules, err = h.schedules.ListByUserAndDate(userID, date)
	case q.Get("from") != "" || q.Get("to") != "":
		from, to := q.Get("from"), q.Get("to")
		if !validDate(from) || !validDate(to) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "from and to must be YYYY-MM-DD format"})
			return
		}
		schedules, err = h.schedules.ListByUserAndDateRange(userID, from, to)
	case q.Get("status") != "":
		status := model.ScheduleStatus(q.Get("status"))
		if !model.ValidStatus(status) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown status"})
			return
		}
		schedules, err = h.schedules.ListByUserAndStatus(userID, status)
	default:
		schedules, err = h.schedules.ListByUser(userID)
	}

	if err != nil {
		h.logger.Error("list schedules", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list schedules"})
		return
	}
	if schedules == nil {
		schedules = []model.Schedule{}
	}
	writeJSON(w, http.StatusOK, schedules)
}

// Today returns the requester's schedules for the current date.
func (h *ScheduleHandler) Today(w http.ResponseWriter, r *http.Request) {
	today := time.Now().Format(model.DateFormat)
	schedules, err := h.schedules.ListByUserAndDate(auth.UserID(r.Context()), today)
	if err != nil {
		h.logger.Error("list today schedules", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list schedules"})
		return
	}
	if schedules == nil {
		schedules = []model.Schedule{}
	}
	writeJSON(w, http.StatusOK, schedules)
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	sc := h.getOwned(w, r)
	if sc == nil {
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	sc := h.getOwned(w, r)
	if sc == nil {
		return
	}

	params, ok := h.parseAndValidate(r, w)
	if !ok {
		return
	}

	updated, err := h.schedules.Update(sc.ID, *params)
	if err != nil {
		h.logger.Error("update schedule", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update schedule"})
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sc := h.getOwned(w, r)
	if sc == nil {
		return
	}

	if err := h.schedules.Delete(sc.ID); err != nil {
		h.logger.Error("delete schedule", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete schedule"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ScheduleHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	sc := h.getOwned(w, r)
	if sc == nil {
		return
	}

	var req struct {
		Status model.ScheduleStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if !model.ValidStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown status"})
		return
	}

	updated, err := h.schedules.UpdateStatus(sc.ID, req.Status)
	if err != nil {
		h.logger.Error("update schedule status", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update status"})
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *ScheduleHandler) UpdateCompletionRate(w http.ResponseWriter, r *http.Request) {
	sc := h.getOwned(w, r)
	if sc == nil {
		return
	}

	var req struct {
		CompletionRate int `json:"completion_rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}
	if req.CompletionRate < 0 || req.CompletionRate > 100 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "completion_rate must be between 0 and 100"})
		return
	}

	updated, err := h.schedules.UpdateCompletionRate(sc.ID, req.CompletionRate)
	if err != nil {
		h.logger.Error("update completion rate", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update completion rate"})
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// UpdateReminderEnabled toggles reminder delivery for one schedule.
func (h *ScheduleHandler) UpdateReminderEnabled(w http.ResponseWriter, r *http.Request) {
	sc := h.getOwned(w, r)
	if sc == nil {
		return
	}

	var req struct {
		ReminderEnabled bool `json:"reminder_enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	updated, err := h.schedules.SetReminderEnabled(sc.ID, req.ReminderEnabled)
	if err != nil {
		h.logger.Error("update reminder enabled", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update reminder setting"})
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
