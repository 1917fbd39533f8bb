package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mirilee/daybook/internal/auth"
	"github.com/mirilee/daybook/internal/sse"
	"github.com/mirilee/daybook/internal/store"
)

// channelIdleTimeout bounds how long a subscribe stream may live. The
// heartbeat prober keeps the connection active well inside this window; the
// timeout only catches clients that vanished without closing.
const channelIdleTimeout = 6 * time.Hour

type NotificationHandler struct {
	registry   *sse.Registry
	dispatcher *sse.Dispatcher
	schedules  *store.ScheduleStore
	logger     *slog.Logger
}

func NewNotificationHandler(registry *sse.Registry, dispatcher *sse.Dispatcher, schedules *store.ScheduleStore, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		registry:   registry,
		dispatcher: dispatcher,
		schedules:  schedules,
		logger:     logger,
	}
}

// Subscribe upgrades the request to a long-lived SSE stream and registers it
// as a push channel for the authenticated user. The handler blocks until the
// channel closes: client disconnect, idle timeout, or a pruning failed send.
func (h *NotificationHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := h.registry.Open(userID, func(frame []byte) error {
		if _, err := w.Write(frame); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})

	h.logger.Info("subscribe", "user_id", userID)

	idle := time.NewTimer(channelIdleTimeout)
	defer idle.Stop()

	select {
	case <-ch.Closed():
	case <-r.Context().Done():
		ch.Close("client disconnected")
	case <-idle.C:
		ch.Close("idle timeout")
	}
}

// Test pushes an ad-hoc test event so a client can verify its stream.
func (h *NotificationHandler) Test(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	// Body is optional for this endpoint.
	json.NewDecoder(r.Body).Decode(&req)
	if req.Message == "" {
		req.Message = "test message"
	}

	userID := auth.UserID(r.Context())
	h.dispatcher.DeliverTest(userID, req.Message)

	h.logger.Info("test event sent", "user_id", userID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "test event sent"})
}

// Trigger pushes a schedule's reminder immediately, bypassing the due-time
// check. Delivery confirmation still drives the reminded flag: with no
// subscriber online nothing is marked.
func (h *NotificationHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	userID := auth.UserID(r.Context())
	sc, err := h.schedules.GetByID(id)
	if err != nil {
		h.logger.Error("get schedule for trigger", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get schedule"})
		return
	}
	if sc == nil || sc.UserID != userID {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "schedule not found"})
		return
	}

	delivered := h.dispatcher.DeliverReminder(sc)
	if delivered && !sc.Reminded {
		if err := h.schedules.MarkReminded(sc.ID); err != nil {
			h.logger.Error("mark reminded after trigger", "schedule_id", sc.ID, "error", err)
		}
	}

	if !delivered {
		h.logger.Info("manual trigger with no subscriber", "user_id", userID, "schedule_id", sc.ID)
	}
	writeJSON(w, http.StatusOK, map[string]any{"delivered": delivered})
}
