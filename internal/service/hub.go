package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/templui/goalkeeper/internal/config"
	"github.com/templui/goalkeeper/internal/model"
	"github.com/templui/goalkeeper/internal/persistence"
	"github.com/templui/goalkeeper/internal/view"
)

const DeleteAccountPrompt = "Permanently delete your account and all your goals? This cannot be undone."

var (
	ErrSignedOut    = errors.New("not signed in")
	ErrNotConfirmed = errors.New("not confirmed")
	ErrLocalMode    = errors.New("not available in local mode")
	ErrHubClosed    = errors.New("hub closed")
)

// Hub owns the process-wide settings and one Tracker per signed-in user.
// In local mode it holds a single Tracker for everyone.
type Hub struct {
	mode   string
	locale string
	docs   persistence.DocumentStore
	local  *persistence.LocalBackend
	auth   *AuthService

	removeAuthListener func()

	mu       sync.Mutex
	currency string
	trackers map[string]*Tracker
	closed   bool
}

// NewCloudHub creates a hub whose sessions follow the auth service's
// sign-in and sign-out events.
func NewCloudHub(docs persistence.DocumentStore, auth *AuthService, currency, locale string) *Hub {
	h := &Hub{
		mode:     config.ModeCloud,
		locale:   locale,
		docs:     docs,
		auth:     auth,
		currency: defaultCurrency(currency),
		trackers: make(map[string]*Tracker),
	}
	h.removeAuthListener = auth.OnAuthStateChanged(h.authStateChanged)
	return h
}

// NewLocalHub opens the single local session and restores the saved
// currency.
func NewLocalHub(ctx context.Context, local *persistence.LocalBackend, currency, locale string) *Hub {
	h := &Hub{
		mode:     config.ModeLocal,
		locale:   locale,
		local:    local,
		currency: defaultCurrency(currency),
		trackers: make(map[string]*Tracker),
	}

	saved, err := local.LoadCurrency(ctx)
	if err != nil {
		slog.Warn("failed to load currency", "error", err)
	} else if code, err := view.ParseCurrency(saved); err == nil {
		h.currency = code
	}

	t := NewTracker(local)
	t.Open(ctx)
	h.trackers[""] = t
	return h
}

func (h *Hub) Mode() string {
	return h.mode
}

// Tracker returns the session for userID, opening it if this process has
// not seen the user since it started. userID is ignored in local mode.
func (h *Hub) Tracker(ctx context.Context, userID string) (*Tracker, error) {
	if h.mode == config.ModeLocal {
		userID = ""
	} else if userID == "" {
		return nil, ErrSignedOut
	}

	h.mu.Lock()
	t, ok := h.trackers[userID]
	closed := h.closed
	h.mu.Unlock()

	if closed {
		return nil, ErrHubClosed
	}
	if ok {
		return t, nil
	}

	// open outside the lock; a concurrent open of the same user wins
	opened := h.openCloud(ctx, userID)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		closeTracker(userID, opened)
		return nil, ErrHubClosed
	}
	if t, ok := h.trackers[userID]; ok {
		h.mu.Unlock()
		closeTracker(userID, opened)
		return t, nil
	}
	h.trackers[userID] = opened
	h.mu.Unlock()
	return opened, nil
}

// authStateChanged starts a fresh session on sign-in and tears the session
// down on sign-out. The old session is flushed before the new one loads.
func (h *Hub) authStateChanged(userID string, user *model.User) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	old := h.trackers[userID]
	delete(h.trackers, userID)
	h.mu.Unlock()

	if old != nil {
		closeTracker(userID, old)
	}
	if user == nil {
		return
	}

	opened := h.openCloud(context.Background(), userID)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		closeTracker(userID, opened)
		return
	}
	// a request may have opened the session lazily in the meantime
	stale := h.trackers[userID]
	h.trackers[userID] = opened
	h.mu.Unlock()

	if stale != nil {
		closeTracker(userID, stale)
	}
}

func (h *Hub) openCloud(ctx context.Context, userID string) *Tracker {
	t := NewTracker(persistence.NewCloudBackend(h.docs, userID))
	t.Open(ctx)
	slog.Info("session opened", "user_id", userID)
	return t
}

func (h *Hub) Currency() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.currency
}

// Money formats amounts in the current currency.
func (h *Hub) Money() view.Money {
	return view.NewMoney(h.Currency(), h.locale)
}

// SetCurrency switches the display currency for every session and, in
// local mode, saves it.
func (h *Hub) SetCurrency(ctx context.Context, code string) error {
	code, err := view.ParseCurrency(code)
	if err != nil {
		return err
	}

	h.mu.Lock()
	changed := h.currency != code
	h.currency = code
	trackers := make([]*Tracker, 0, len(h.trackers))
	for _, t := range h.trackers {
		trackers = append(trackers, t)
	}
	h.mu.Unlock()

	if h.local != nil {
		if err := h.local.SaveCurrency(ctx, code); err != nil {
			return fmt.Errorf("failed to save currency: %w", err)
		}
	}

	if changed {
		for _, t := range trackers {
			t.notify()
		}
	}
	return nil
}

// DeleteAccount removes the user's goal document and account, then signs
// the user out. A failure to delete the document does not stop the rest.
func (h *Hub) DeleteAccount(ctx context.Context, userID string, signedInAt time.Time, c Confirmer) error {
	if h.mode != config.ModeCloud {
		return ErrLocalMode
	}
	if userID == "" {
		return ErrSignedOut
	}
	if c == nil || !c.Confirm(DeleteAccountPrompt) {
		return ErrNotConfirmed
	}
	if !h.auth.RecentLogin(signedInAt) {
		return &AuthError{Code: CodeRequiresRecentLogin}
	}

	h.mu.Lock()
	t := h.trackers[userID]
	h.mu.Unlock()
	if t != nil {
		t.Flush()
	}

	err := persistence.NewCloudBackend(h.docs, userID).DeleteDocument(ctx)
	if err != nil {
		slog.Warn("failed to delete goal document", "error", err, "user_id", userID)
	}

	return h.auth.DeleteUser(userID, signedInAt)
}

// Close tears down every session.
func (h *Hub) Close() {
	if h.removeAuthListener != nil {
		h.removeAuthListener()
	}

	h.mu.Lock()
	h.closed = true
	trackers := h.trackers
	h.trackers = make(map[string]*Tracker)
	h.mu.Unlock()

	for userID, t := range trackers {
		closeTracker(userID, t)
	}
}

func closeTracker(userID string, t *Tracker) {
	t.Flush()
	if err := t.Close(); err != nil {
		slog.Error("failed to close session", "error", err, "user_id", userID)
	}
}

func defaultCurrency(code string) string {
	parsed, err := view.ParseCurrency(code)
	if err != nil {
		return "USD"
	}
	return parsed
}
