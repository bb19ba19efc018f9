package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/templui/goalkeeper/internal/model"
	"github.com/templui/goalkeeper/internal/storage"
)

const (
	GoalsKey    = "saving-goals-data"
	CurrencyKey = "saving-goals-currency"
)

// LocalBackend keeps the goal document under GoalsKey.
type LocalBackend struct {
	kv storage.KV
}

func NewLocalBackend(kv storage.KV) *LocalBackend {
	return &LocalBackend{kv: kv}
}

// Load never fails on bad data: a missing or unreadable slot is an empty
// goal list.
func (b *LocalBackend) Load(ctx context.Context) ([]model.Goal, error) {
	raw, err := b.kv.Get(ctx, GoalsKey)
	if errors.Is(err, storage.ErrNotFound) {
		return []model.Goal{}, nil
	}
	if err != nil {
		return nil, err
	}

	goals, err := DecodeGoals(raw)
	if err != nil {
		slog.Warn("stored goals are corrupt, starting empty", "error", err, "key", GoalsKey)
		return []model.Goal{}, nil
	}
	return goals, nil
}

func (b *LocalBackend) SaveAll(ctx context.Context, goals []model.Goal) error {
	raw, err := EncodeGoals(goals)
	if err != nil {
		return err
	}
	return b.kv.Set(ctx, GoalsKey, raw)
}

func (b *LocalBackend) Subscribe(func([]model.Goal), func(error)) func() {
	return func() {}
}

func (b *LocalBackend) Async() bool {
	return false
}

func (b *LocalBackend) Close() error {
	return nil
}

// LoadCurrency returns the stored preferred currency code, or "" when none
// is stored.
func (b *LocalBackend) LoadCurrency(ctx context.Context) (string, error) {
	raw, err := b.kv.Get(ctx, CurrencyKey)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (b *LocalBackend) SaveCurrency(ctx context.Context, code string) error {
	return b.kv.Set(ctx, CurrencyKey, []byte(code))
}

// EncodeGoals serialises a goal list as a {"goals": [...]} document.
func EncodeGoals(goals []model.Goal) ([]byte, error) {
	if goals == nil {
		goals = []model.Goal{}
	}
	raw, err := json.Marshal(model.Document{Goals: goals})
	if err != nil {
		return nil, fmt.Errorf("failed to encode goals: %w", err)
	}
	return raw, nil
}

// DecodeGoals accepts a {"goals": [...]} document or, as older versions
// wrote it, a bare goal array.
func DecodeGoals(raw []byte) ([]model.Goal, error) {
	var doc model.Document
	if err := json.Unmarshal(raw, &doc); err == nil {
		return goalsOf(&doc), nil
	}

	var goals []model.Goal
	if err := json.Unmarshal(raw, &goals); err != nil {
		return nil, fmt.Errorf("failed to decode goals: %w", err)
	}
	if goals == nil {
		goals = []model.Goal{}
	}
	return goals, nil
}
