package persistence

import (
	"context"
	"errors"
	"sync"

	"github.com/templui/goalkeeper/internal/model"
	"github.com/templui/goalkeeper/internal/repository"
)

// DocumentStore is the part of the cloud document store a session needs.
type DocumentStore interface {
	Get(ctx context.Context, userID string) (*model.Document, error)
	Set(ctx context.Context, userID string, doc *model.Document) error
	Delete(ctx context.Context, userID string) error
	Subscribe(userID string, onChange func(*model.Document), onError func(error)) (unsubscribe func())
}

// CloudBackend persists one user's goals as a single document.
type CloudBackend struct {
	store  DocumentStore
	userID string

	mu     sync.Mutex
	cancel func()
}

func NewCloudBackend(store DocumentStore, userID string) *CloudBackend {
	return &CloudBackend{store: store, userID: userID}
}

func (b *CloudBackend) UserID() string {
	return b.userID
}

func (b *CloudBackend) Load(ctx context.Context) ([]model.Goal, error) {
	doc, err := b.store.Get(ctx, b.userID)
	if errors.Is(err, repository.ErrDocumentNotFound) {
		return []model.Goal{}, nil
	}
	if err != nil {
		return nil, err
	}
	return goalsOf(doc), nil
}

func (b *CloudBackend) SaveAll(ctx context.Context, goals []model.Goal) error {
	return b.store.Set(ctx, b.userID, &model.Document{Goals: goals})
}

// Subscribe replaces any earlier subscription of this backend.
func (b *CloudBackend) Subscribe(onChange func([]model.Goal), onError func(error)) func() {
	unsubscribe := b.store.Subscribe(b.userID, func(doc *model.Document) {
		onChange(goalsOf(doc))
	}, onError)

	var once sync.Once
	cancel := func() { once.Do(unsubscribe) }

	b.mu.Lock()
	prev := b.cancel
	b.cancel = cancel
	b.mu.Unlock()

	if prev != nil {
		prev()
	}
	return cancel
}

func (b *CloudBackend) Async() bool {
	return true
}

func (b *CloudBackend) Close() error {
	b.mu.Lock()
	cancel := b.cancel
	b.cancel = nil
	b.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}

// DeleteDocument removes the user's document entirely.
func (b *CloudBackend) DeleteDocument(ctx context.Context) error {
	err := b.store.Delete(ctx, b.userID)
	if errors.Is(err, repository.ErrDocumentNotFound) {
		return nil
	}
	return err
}

func goalsOf(doc *model.Document) []model.Goal {
	if doc == nil || doc.Goals == nil {
		return []model.Goal{}
	}
	return doc.Goals
}
