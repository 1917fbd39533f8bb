package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/mirilee/daybook/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

// validDate reports whether s is a YYYY-MM-DD calendar date.
func validDate(s string) bool {
	_, err := time.Parse(model.DateFormat, s)
	return err == nil
}

// validClock reports whether s is an HH:MM clock time.
func validClock(s *string) bool {
	if s == nil {
		return true
	}
	_, err := time.Parse(model.ClockFormat, *s)
	return err == nil
}
