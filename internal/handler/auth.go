package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/templui/goalkeeper/internal/ctxkeys"
	"github.com/templui/goalkeeper/internal/model"
	"github.com/templui/goalkeeper/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
	hub         *service.Hub
}

func NewAuthHandler(authService *service.AuthService, hub *service.Hub) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		hub:         hub,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Continue signs in, or signs up when the email has no account yet, and
// sets the session cookie.
func (h *AuthHandler) Continue(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.authService.Continue(req.Email, req.Password)
	if err != nil {
		slog.Warn("sign in failed", "error", err, "code", service.AuthCode(err))
		writeAuthError(w, err)
		return
	}

	jwtToken, expiry, err := h.authService.GenerateJWT(user)
	if err != nil {
		slog.Error("failed to generate JWT", "error", err, "user_id", user.ID)
		writeError(w, http.StatusInternalServerError, "An error occurred. Please try again.")
		return
	}

	h.authService.SetJWTCookie(w, jwtToken, expiry)

	slog.Info("user signed in", "user_id", user.ID)
	writeJSON(w, http.StatusOK, authResponse(user))
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Sign in to continue.")
		return
	}
	writeJSON(w, http.StatusOK, authResponse(user))
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if user := ctxkeys.User(r.Context()); user != nil {
		h.authService.SignOut(user.ID)
	}
	h.authService.ClearJWTCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAccount removes the account and every goal after ?confirm=true.
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	confirmed := queryConfirmer(r)
	if !confirmed.check(w, service.DeleteAccountPrompt) {
		return
	}

	user := ctxkeys.User(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Sign in to continue.")
		return
	}

	err := h.hub.DeleteAccount(r.Context(), user.ID, ctxkeys.SignedInAt(r.Context()), confirmed)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrLocalMode):
			writeError(w, http.StatusNotFound, "Accounts are not used in local mode.")
		case service.AuthCode(err) != "":
			slog.Warn("account deletion refused", "error", err, "user_id", user.ID)
			writeAuthError(w, err)
		default:
			slog.Error("failed to delete account", "error", err, "user_id", user.ID)
			writeError(w, http.StatusInternalServerError, "Could not delete account.")
		}
		return
	}

	h.authService.ClearJWTCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func authResponse(user *model.User) AuthResponse {
	return AuthResponse{User: UserResponse{ID: user.ID, Email: user.Email}}
}

func writeAuthError(w http.ResponseWriter, err error) {
	var authErr *service.AuthError
	if !errors.As(err, &authErr) {
		writeError(w, http.StatusInternalServerError, service.AuthErrorMessage("", ""))
		return
	}

	status := http.StatusInternalServerError
	switch authErr.Code {
	case service.CodeInvalidEmail, service.CodeWeakPassword:
		status = http.StatusBadRequest
	case service.CodeInvalidCredential, service.CodeUserNotFound, service.CodeWrongPassword:
		status = http.StatusUnauthorized
	case service.CodeEmailAlreadyInUse:
		status = http.StatusConflict
	case service.CodeRequiresRecentLogin:
		status = http.StatusForbidden
	case service.CodeTooManyRequests:
		status = http.StatusTooManyRequests
	}

	writeJSON(w, status, ErrorResponse{Error: authErr.Message(), Code: authErr.Code})
}
