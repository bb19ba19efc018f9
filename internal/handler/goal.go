package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/templui/goalkeeper/internal/ctxkeys"
	"github.com/templui/goalkeeper/internal/model"
	"github.com/templui/goalkeeper/internal/service"
	"github.com/templui/goalkeeper/internal/view"
)

type GoalHandler struct {
	hub *service.Hub
}

func NewGoalHandler(hub *service.Hub) *GoalHandler {
	return &GoalHandler{
		hub: hub,
	}
}

type goalRequest struct {
	Name    string      `json:"name"`
	Amount  amountInput `json:"amount"`
	EndDate string      `json:"endDate"`
}

type entryRequest struct {
	Type   string      `json:"type"`
	Amount amountInput `json:"amount"`
	Note   string      `json:"note"`
}

type sortRequest struct {
	Sort string `json:"sort"`
}

func (a amountInput) float() float64 {
	if !a.Valid {
		return math.NaN()
	}
	return a.Value
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	tracker, ok := h.tracker(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.render(tracker))
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.mutate(w, r, func(t *service.Tracker) bool {
		return t.AddGoal(req.Name, req.Amount.float(), req.EndDate)
	})
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if !h.decode(w, r, &req) {
		return
	}
	goalID := r.PathValue("id")
	h.mutate(w, r, func(t *service.Tracker) bool {
		return t.EditGoal(goalID, req.Name, req.Amount.float(), req.EndDate)
	})
}

// Delete removes a goal. The client confirms with ?confirm=true; without
// it the prompt is returned for the client to show.
func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	confirmed := queryConfirmer(r)
	if !confirmed.check(w, service.DeleteGoalPrompt) {
		return
	}
	goalID := r.PathValue("id")
	h.mutate(w, r, func(t *service.Tracker) bool {
		return t.DeleteGoal(goalID, confirmed)
	})
}

func (h *GoalHandler) SetSort(w http.ResponseWriter, r *http.Request) {
	var req sortRequest
	if !h.decode(w, r, &req) {
		return
	}
	goalID := r.PathValue("id")
	h.mutate(w, r, func(t *service.Tracker) bool {
		return t.SetEntrySort(goalID, req.Sort)
	})
}

func (h *GoalHandler) AddEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if !h.decode(w, r, &req) {
		return
	}
	goalID := r.PathValue("id")
	h.mutate(w, r, func(t *service.Tracker) bool {
		return t.AddEntry(goalID, req.Type, req.Amount.float(), req.Note)
	})
}

func (h *GoalHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if !h.decode(w, r, &req) {
		return
	}
	goalID, entryID := r.PathValue("id"), r.PathValue("entryID")
	h.mutate(w, r, func(t *service.Tracker) bool {
		return t.EditEntry(goalID, entryID, req.Amount.float(), req.Type, req.Note)
	})
}

func (h *GoalHandler) ToggleEntry(w http.ResponseWriter, r *http.Request) {
	goalID, entryID := r.PathValue("id"), r.PathValue("entryID")
	h.mutate(w, r, func(t *service.Tracker) bool {
		return t.ToggleEntryActive(goalID, entryID)
	})
}

func (h *GoalHandler) RemoveEntry(w http.ResponseWriter, r *http.Request) {
	goalID, entryID := r.PathValue("id"), r.PathValue("entryID")
	h.mutate(w, r, func(t *service.Tracker) bool {
		return t.RemoveEntry(goalID, entryID)
	})
}

// Export downloads the session's goals in the stored document format.
func (h *GoalHandler) Export(w http.ResponseWriter, r *http.Request) {
	tracker, ok := h.tracker(w, r)
	if !ok {
		return
	}

	data, err := json.MarshalIndent(model.Document{Goals: tracker.Goals()}, "", "  ")
	if err != nil {
		slog.Error("failed to encode goals", "error", err, "user_id", userID(r))
		writeError(w, http.StatusInternalServerError, "Failed to export goals")
		return
	}

	filename := "saving-goals-" + time.Now().UTC().Format(time.DateOnly) + ".json"
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.Write(data)
}

func (h *GoalHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := decodeJSON(w, r, v); err != nil {
		slog.Warn("invalid request body", "error", err, "path", r.URL.Path)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// mutate runs fn against the caller's session and responds with the
// re-rendered list. It does not wait for cloud writes.
func (h *GoalHandler) mutate(w http.ResponseWriter, r *http.Request, fn func(*service.Tracker) bool) {
	tracker, ok := h.tracker(w, r)
	if !ok {
		return
	}

	changed := fn(tracker)
	writeJSON(w, http.StatusOK, MutationResponse{Changed: changed, GoalListResponse: h.render(tracker)})
}

func (h *GoalHandler) tracker(w http.ResponseWriter, r *http.Request) (*service.Tracker, bool) {
	return sessionTracker(h.hub, w, r)
}

func (h *GoalHandler) render(tracker *service.Tracker) GoalListResponse {
	return renderGoals(h.hub, tracker)
}

func sessionTracker(hub *service.Hub, w http.ResponseWriter, r *http.Request) (*service.Tracker, bool) {
	tracker, err := hub.Tracker(r.Context(), userID(r))
	if err != nil {
		if errors.Is(err, service.ErrSignedOut) {
			writeError(w, http.StatusUnauthorized, "Sign in to continue.")
			return nil, false
		}
		slog.Error("failed to open session", "error", err, "user_id", userID(r))
		writeError(w, http.StatusServiceUnavailable, "Session unavailable")
		return nil, false
	}
	return tracker, true
}

func renderGoals(hub *service.Hub, tracker *service.Tracker) GoalListResponse {
	money := hub.Money()
	goals := view.ProjectAll(tracker.Goals(), money)
	return GoalListResponse{
		Goals:    goals,
		Total:    len(goals),
		Status:   tracker.Status(),
		Currency: money.Code(),
		Mode:     hub.Mode(),
	}
}

func userID(r *http.Request) string {
	if user := ctxkeys.User(r.Context()); user != nil {
		return user.ID
	}
	return ""
}

// confirmation is the ?confirm=true answer to a destructive action.
type confirmation bool

func queryConfirmer(r *http.Request) confirmation {
	return confirmation(r.URL.Query().Get("confirm") == "true")
}

func (c confirmation) Confirm(string) bool {
	return bool(c)
}

// check writes a 428 carrying the prompt when unconfirmed.
func (c confirmation) check(w http.ResponseWriter, prompt string) bool {
	if !c {
		writeJSON(w, http.StatusPreconditionRequired, ErrorResponse{
			Error:  "Confirmation required",
			Prompt: prompt,
		})
	}
	return bool(c)
}
