package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/goalkeeper/internal/model"
	"github.com/templui/goalkeeper/internal/repository"
	"github.com/templui/goalkeeper/internal/storage"
)

func sampleGoals() []model.Goal {
	return []model.Goal{
		{
			ID:        "g1",
			Name:      "Emergency fund",
			Amount:    1000,
			EndDate:   "2027-01-31",
			EntrySort: "date_desc",
			Entries: []model.Entry{
				{ID: "e2", Type: model.EntryTypeDebit, Amount: 100, Date: "2026-10-02", CreatedAt: 1760000001000, IsActive: true, Note: "repair"},
				{ID: "e1", Type: model.EntryTypeCredit, Amount: 400, Date: "2026-10-01", CreatedAt: 1760000000000, IsActive: false},
			},
		},
		{ID: "g2", Name: "Laptop", Amount: 0, EndDate: "2026-11-01", Entries: []model.Entry{}},
	}
}

func newKV(t *testing.T) storage.KV {
	t.Helper()
	kv, err := storage.NewFileKV(t.TempDir())
	require.NoError(t, err)
	return kv
}

func TestLocalBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	b := NewLocalBackend(newKV(t))

	require.NoError(t, b.SaveAll(ctx, sampleGoals()))
	got, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleGoals(), got)
}

func TestLocalBackend_EmptyAndCorrupt(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)
	b := NewLocalBackend(kv)

	got, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Goal{}, got)

	require.NoError(t, kv.Set(ctx, GoalsKey, []byte("{not json")))
	got, err = b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Goal{}, got)
}

func TestDecodeGoals_LegacyArrayAndLenientAmounts(t *testing.T) {
	goals, err := DecodeGoals([]byte(`[{"id":"g","name":"Old","amount":"1,500","endDate":"2026-01-01",
		"entries":[{"id":"e","type":"credit","amount":"abc","date":"2025-12-01","is_active":true}]}]`))
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.InDelta(t, 1500, goals[0].Amount.Float(), 1e-9)
	assert.Zero(t, goals[0].Entries[0].Amount.Float())
	assert.Zero(t, goals[0].Entries[0].CreatedAt)

	goals, err = DecodeGoals([]byte(`null`))
	require.NoError(t, err)
	assert.Empty(t, goals)
}

func TestLocalBackend_Currency(t *testing.T) {
	ctx := context.Background()
	b := NewLocalBackend(newKV(t))

	code, err := b.LoadCurrency(ctx)
	require.NoError(t, err)
	assert.Empty(t, code)

	require.NoError(t, b.SaveCurrency(ctx, "EUR"))
	code, err = b.LoadCurrency(ctx)
	require.NoError(t, err)
	assert.Equal(t, "EUR", code)

	// the goal slot is untouched by the currency key
	goals, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, goals)
}

// fakeStore is an in-memory DocumentStore that echoes synchronously.
type fakeStore struct {
	mu       sync.Mutex
	docs     map[string]*model.Document
	subs     map[int]func(*model.Document)
	next     int
	setErr   error
	canceled int

	// slowFirst delays the first Set.
	slowFirst time.Duration
	sets      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: map[string]*model.Document{}, subs: map[int]func(*model.Document){}}
}

func (f *fakeStore) Get(_ context.Context, userID string) (*model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[userID]
	if !ok {
		return nil, repository.ErrDocumentNotFound
	}
	return doc, nil
}

func (f *fakeStore) Set(_ context.Context, userID string, doc *model.Document) error {
	f.mu.Lock()
	f.sets++
	if f.sets == 1 && f.slowFirst > 0 {
		f.mu.Unlock()
		time.Sleep(f.slowFirst)
		f.mu.Lock()
	}
	if f.setErr != nil {
		f.mu.Unlock()
		return f.setErr
	}
	f.docs[userID] = doc
	subs := make([]func(*model.Document), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.mu.Unlock()
	for _, fn := range subs {
		fn(doc)
	}
	return nil
}

func (f *fakeStore) Delete(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[userID]; !ok {
		return repository.ErrDocumentNotFound
	}
	delete(f.docs, userID)
	return nil
}

func (f *fakeStore) Subscribe(_ string, onChange func(*model.Document), _ func(error)) func() {
	f.mu.Lock()
	id := f.next
	f.next++
	f.subs[id] = onChange
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
		f.canceled++
	}
}

func TestCloudBackend_LoadSaveDelete(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	b := NewCloudBackend(store, "u1")

	goals, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.Goal{}, goals)

	require.NoError(t, b.SaveAll(ctx, sampleGoals()))
	goals, err = b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleGoals(), goals)

	require.NoError(t, b.DeleteDocument(ctx))
	require.NoError(t, b.DeleteDocument(ctx))
	assert.True(t, b.Async())
	assert.Equal(t, "u1", b.UserID())
}

func TestCloudBackend_CloseTearsDownOnce(t *testing.T) {
	store := newFakeStore()
	b := NewCloudBackend(store, "u1")

	b.Subscribe(func([]model.Goal) {}, func(error) {})
	b.Subscribe(func([]model.Goal) {}, func(error) {})
	assert.Equal(t, 1, store.canceled, "second subscribe replaces the first")

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())
	assert.Equal(t, 2, store.canceled)
}

func TestSynchronizer_LocalPushIsSynchronous(t *testing.T) {
	ctx := context.Background()
	b := NewLocalBackend(newKV(t))
	s := NewSynchronizer(b, nil)

	goals := sampleGoals()
	s.Push(goals)
	goals[0].Name = "mutated after push"

	got, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleGoals(), got)
	assert.Equal(t, sampleGoals(), s.Load(ctx))
}

func TestSynchronizer_CloudPushEchoes(t *testing.T) {
	store := newFakeStore()
	s := NewSynchronizer(NewCloudBackend(store, "u1"), nil)

	echoes := make(chan []model.Goal, 1)
	s.Watch(func(goals []model.Goal) { echoes <- goals })

	s.Push(sampleGoals())
	select {
	case got := <-echoes:
		assert.Equal(t, sampleGoals(), got)
	case <-time.After(2 * time.Second):
		t.Fatal("no echo")
	}
	s.Wait()
}

func TestSynchronizer_CloudPushesLandInOrder(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.slowFirst = 100 * time.Millisecond
	s := NewSynchronizer(NewCloudBackend(store, "u1"), nil)

	all := sampleGoals()
	s.Push(all[:1])
	s.Push(all)
	s.Wait()

	got, err := NewCloudBackend(store, "u1").Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, all, got)
	require.NoError(t, s.Close())
}

func TestSynchronizer_CloseWritesPendingAndDropsLater(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.slowFirst = 50 * time.Millisecond
	s := NewSynchronizer(NewCloudBackend(store, "u1"), nil)

	s.Push(sampleGoals())
	require.NoError(t, s.Close())

	got, err := NewCloudBackend(store, "u1").Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleGoals(), got)

	s.Push([]model.Goal{})
	s.Wait()
	got, err = NewCloudBackend(store, "u1").Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleGoals(), got)
}

func TestSynchronizer_CloudPushFailureReported(t *testing.T) {
	store := newFakeStore()
	store.setErr = errors.New("permission denied")

	var mu sync.Mutex
	var messages []string
	s := NewSynchronizer(NewCloudBackend(store, "u1"), func(msg string) {
		mu.Lock()
		defer mu.Unlock()
		messages = append(messages, msg)
	})

	s.Push(sampleGoals())
	s.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{MsgSaveFailed}, messages)
}

// erroringBackend lets a test fire subscription errors by hand.
type erroringBackend struct {
	LocalBackend
	onError func(error)
	closes  int
}

func (b *erroringBackend) Subscribe(_ func([]model.Goal), onError func(error)) func() {
	b.onError = onError
	return func() {}
}

func (b *erroringBackend) Close() error {
	b.closes++
	return nil
}

func TestSynchronizer_SubscriptionErrorsAfterCloseAreSuppressed(t *testing.T) {
	b := &erroringBackend{}
	var messages []string
	s := NewSynchronizer(b, func(msg string) { messages = append(messages, msg) })

	s.Watch(func([]model.Goal) {})
	b.onError(errors.New("missing permissions"))
	assert.Equal(t, []string{MsgLoadFailed}, messages)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.Equal(t, 1, b.closes)
	assert.False(t, s.Active())

	b.onError(errors.New("missing permissions"))
	assert.Len(t, messages, 1)
}
