package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/goalkeeper/internal/db"
	"github.com/templui/goalkeeper/internal/model"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	database, err := db.Init("sqlite", ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))
	t.Cleanup(func() { database.Close() })
	return database
}

func sampleDoc() *model.Document {
	return &model.Document{Goals: []model.Goal{{
		ID:        "g1",
		Name:      "Bike",
		Amount:    800,
		EndDate:   "2026-12-01",
		EntrySort: "amount_desc",
		Entries: []model.Entry{
			{ID: "e1", Type: model.EntryTypeCredit, Amount: 120, Date: "2026-10-01", CreatedAt: 1, IsActive: true, Note: "bonus"},
		},
	}}}
}

func TestUserRepository(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	user := &model.User{ID: "u1", Email: "a@example.com", PasswordHash: "hash", CreatedAt: time.Now()}

	require.NoError(t, repo.Create(user))
	assert.ErrorIs(t, repo.Create(&model.User{ID: "u2", Email: "a@example.com", PasswordHash: "h", CreatedAt: time.Now()}), ErrDuplicateEmail)

	got, err := repo.ByEmail("a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	got, err = repo.ByID("u1")
	require.NoError(t, err)
	assert.Equal(t, "hash", got.PasswordHash)

	_, err = repo.ByEmail("missing@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, repo.Delete("u1"))
	assert.ErrorIs(t, repo.Delete("u1"), ErrUserNotFound)
}

func TestDocumentRepository_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository(newTestDB(t))

	_, err := repo.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	require.NoError(t, repo.Set(ctx, "u1", sampleDoc()))
	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, sampleDoc(), got)

	// whole-document overwrite
	require.NoError(t, repo.Set(ctx, "u1", &model.Document{}))
	got, err = repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, got.Goals)

	require.NoError(t, repo.Delete(ctx, "u1"))
	assert.ErrorIs(t, repo.Delete(ctx, "u1"), ErrDocumentNotFound)
}

func TestDocumentRepository_Corrupt(t *testing.T) {
	database := newTestDB(t)
	repo := NewDocumentRepository(database)

	_, err := database.Exec(`INSERT INTO documents (user_id, data, updated_at) VALUES ($1, $2, $3)`, "u1", "{nope", time.Now())
	require.NoError(t, err)

	_, err = repo.Get(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrCorruptDocument)
}

func waitDoc(t *testing.T, ch <-chan *model.Document) *model.Document {
	t.Helper()
	select {
	case doc := <-ch:
		return doc
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestDocumentRepository_Subscribe(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepository(newTestDB(t))

	snapshots := make(chan *model.Document, 10)
	unsubscribe := repo.Subscribe("u1", func(doc *model.Document) { snapshots <- doc }, func(err error) {
		t.Errorf("unexpected subscription error: %v", err)
	})

	assert.Nil(t, waitDoc(t, snapshots), "initial snapshot of a missing document is nil")

	require.NoError(t, repo.Set(ctx, "u1", sampleDoc()))
	assert.Equal(t, sampleDoc(), waitDoc(t, snapshots))

	// writes for other users are not delivered
	require.NoError(t, repo.Set(ctx, "u2", sampleDoc()))

	require.NoError(t, repo.Delete(ctx, "u1"))
	assert.Nil(t, waitDoc(t, snapshots))

	unsubscribe()
	unsubscribe()

	require.NoError(t, repo.Set(ctx, "u1", sampleDoc()))
	select {
	case doc := <-snapshots:
		t.Fatalf("snapshot after unsubscribe: %+v", doc)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDocumentRepository_SubscribeError(t *testing.T) {
	database := newTestDB(t)
	repo := NewDocumentRepository(database)

	_, err := database.Exec(`INSERT INTO documents (user_id, data, updated_at) VALUES ($1, $2, $3)`, "u1", "[]x", time.Now())
	require.NoError(t, err)

	errs := make(chan error, 1)
	unsubscribe := repo.Subscribe("u1", func(*model.Document) {}, func(err error) { errs <- err })
	defer unsubscribe()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrCorruptDocument)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error")
	}
}
