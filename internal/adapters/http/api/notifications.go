package api

import (
	"encoding/json"
	"net/http"
)

// NotificationsHandler ingests round-change notifications from the
// scoring feed.
type NotificationsHandler struct {
	deps Dependencies
}

// NewNotificationsHandler creates a new notifications handler.
func NewNotificationsHandler(deps Dependencies) *NotificationsHandler {
	return &NotificationsHandler{deps: deps}
}

type notificationRequest struct {
	EventID string `json:"event_id"`
}

// HandlePostNotification handles POST /notifications.
func (h *NotificationsHandler) HandlePostNotification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}

	var req notificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", WrapKind("decode notification", ErrBadRequest, err))
		return
	}
	if req.EventID == "" {
		writeError(w, http.StatusBadRequest, "invalid_notification", NewKind("event_id is required", ErrBadRequest))
		return
	}

	if !h.deps.NotifyRoundChanged(r.Context(), req.EventID) {
		writeError(w, http.StatusServiceUnavailable, "backpressure", NewKind("notification queue full", ErrBackpressure))
		return
	}

	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", ID: req.EventID})
}
