package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/templui/goalkeeper/internal/service"
)

const heartbeatInterval = 25 * time.Second

type EventsHandler struct {
	hub *service.Hub
}

func NewEventsHandler(hub *service.Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

// Stream sends the rendered goal list as a "goals" event now and after
// every change to the session. Bursts of changes collapse into one event.
// A "closed" event ends the stream when the session is torn down.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	tracker, ok := sessionTracker(h.hub, w, r)
	if !ok {
		return
	}

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	wake := make(chan struct{}, 1)
	remove := tracker.OnChange(func() {
		select {
		case wake <- struct{}{}:
		default:
		}
	})
	defer remove()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	send := func(event string, v any) bool {
		if err := writeEvent(w, event, v); err != nil {
			slog.Debug("event stream closed", "error", err, "user_id", userID(r))
			return false
		}
		return rc.Flush() == nil
	}

	if !send("goals", renderGoals(h.hub, tracker)) {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-tracker.Done():
			send("closed", struct{}{})
			return
		case <-wake:
			if !send("goals", renderGoals(h.hub, tracker)) {
				return
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil || rc.Flush() != nil {
				return
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
