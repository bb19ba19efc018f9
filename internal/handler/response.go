package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/templui/goalkeeper/internal/validation"
	"github.com/templui/goalkeeper/internal/view"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request body")

// GoalListResponse is the rendered state of a session.
type GoalListResponse struct {
	Goals    []view.GoalView `json:"goals"`
	Total    int             `json:"total"`
	Status   string          `json:"status,omitempty"`
	Currency string          `json:"currency"`
	Mode     string          `json:"mode"`
}

// MutationResponse reports whether a mutation changed anything along with
// the re-rendered list.
type MutationResponse struct {
	Changed bool `json:"changed"`
	GoalListResponse
}

type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type AuthResponse struct {
	User UserResponse `json:"user"`
}

type CurrencyResponse struct {
	Currency string `json:"currency"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Prompt string `json:"prompt,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// amountInput accepts an amount as a JSON number or as text such as
// "1,250.50". Anything unparsable is kept as invalid rather than rejected
// so the mutation turns into a no-op.
type amountInput struct {
	Value float64
	Valid bool
}

func (a *amountInput) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*a = amountInput{}
		return nil
	}

	var text string
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
	} else {
		text = raw
	}

	value, err := validation.ParseAmount(text)
	*a = amountInput{Value: value, Valid: err == nil}
	return nil
}
