// Package persistence moves the whole goal list between a session and its
// storage backend: a per-user cloud document or a local key-value slot.
package persistence

import (
	"context"

	"github.com/templui/goalkeeper/internal/model"
)

// Backend stores a goal list. Implementations are selected once at
// startup and never switched at runtime.
type Backend interface {
	// Load returns the persisted goals, or an empty list when nothing
	// usable is stored.
	Load(ctx context.Context) ([]model.Goal, error)
	// SaveAll overwrites the stored goal list.
	SaveAll(ctx context.Context, goals []model.Goal) error
	// Subscribe starts the standing snapshot subscription. Backends without
	// change notifications return a no-op cancel.
	Subscribe(onChange func([]model.Goal), onError func(error)) (cancel func())
	// Async reports whether SaveAll goes over the network and should not
	// block the caller.
	Async() bool
	// Close tears the subscription down. It is safe to call more than once.
	Close() error
}
