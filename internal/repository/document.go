package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/goalkeeper/internal/model"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrCorruptDocument  = errors.New("corrupt document")
)

// DocumentRepository is the per-user cloud document store. Every user has
// at most one document, always read and written whole.
type DocumentRepository interface {
	Get(ctx context.Context, userID string) (*model.Document, error)
	Set(ctx context.Context, userID string, doc *model.Document) error
	Delete(ctx context.Context, userID string) error
	// Subscribe delivers the current document right away and again after
	// every Set or Delete for the user, on a separate goroutine. A missing
	// document is delivered as nil. The returned func stops delivery; once
	// it returns no further callbacks run.
	Subscribe(userID string, onChange func(*model.Document), onError func(error)) (unsubscribe func())
}

type documentRepository struct {
	db *sqlx.DB

	mu   sync.Mutex
	subs map[string]map[*subscription]struct{}
}

func NewDocumentRepository(db *sqlx.DB) DocumentRepository {
	return &documentRepository{
		db:   db,
		subs: make(map[string]map[*subscription]struct{}),
	}
}

func (r *documentRepository) Get(ctx context.Context, userID string) (*model.Document, error) {
	row := model.StoredDocument{}
	query := `SELECT * FROM documents WHERE user_id = $1`

	err := r.db.GetContext(ctx, &row, query, userID)
	if err == sql.ErrNoRows {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}

	doc := &model.Document{}
	if err := json.Unmarshal([]byte(row.Data), doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}
	if doc.Goals == nil {
		doc.Goals = []model.Goal{}
	}
	return doc, nil
}

func (r *documentRepository) Set(ctx context.Context, userID string, doc *model.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	query := `INSERT INTO documents (user_id, data, updated_at) VALUES ($1, $2, $3)
	          ON CONFLICT (user_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`

	_, err = r.db.ExecContext(ctx, query, userID, string(data), time.Now())
	if err != nil {
		return err
	}

	r.notify(userID)
	return nil
}

func (r *documentRepository) Delete(ctx context.Context, userID string) error {
	query := `DELETE FROM documents WHERE user_id = $1`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrDocumentNotFound
	}

	r.notify(userID)
	return nil
}

func (r *documentRepository) Subscribe(userID string, onChange func(*model.Document), onError func(error)) func() {
	s := &subscription{
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		onChange: onChange,
		onError:  onError,
	}

	r.mu.Lock()
	if r.subs[userID] == nil {
		r.subs[userID] = make(map[*subscription]struct{})
	}
	r.subs[userID][s] = struct{}{}
	r.mu.Unlock()

	go s.run(func() (*model.Document, error) {
		doc, err := r.Get(context.Background(), userID)
		if errors.Is(err, ErrDocumentNotFound) {
			return nil, nil
		}
		return doc, err
	})
	s.signal()

	return func() {
		s.once.Do(func() {
			r.mu.Lock()
			delete(r.subs[userID], s)
			if len(r.subs[userID]) == 0 {
				delete(r.subs, userID)
			}
			r.mu.Unlock()
			s.stop()
		})
	}
}

func (r *documentRepository) notify(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for s := range r.subs[userID] {
		s.signal()
	}
}

// subscription coalesces wake-ups: several writes in quick succession may
// be delivered as one snapshot of the latest state.
type subscription struct {
	wake chan struct{}
	done chan struct{}
	once sync.Once

	mu      sync.Mutex
	stopped bool

	onChange func(*model.Document)
	onError  func(error)
}

func (s *subscription) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscription) run(read func() (*model.Document, error)) {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		doc, err := read()

		s.mu.Lock()
		if !s.stopped {
			if err != nil {
				if s.onError != nil {
					s.onError(err)
				}
			} else if s.onChange != nil {
				s.onChange(doc)
			}
		}
		s.mu.Unlock()
	}
}

// stop waits for an in-flight callback to finish.
func (s *subscription) stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()
	close(s.done)
}
