package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/goalkeeper/internal/config"
	"github.com/templui/goalkeeper/internal/model"
	"github.com/templui/goalkeeper/internal/repository"
	"github.com/templui/goalkeeper/internal/view"
)

func newCloudHub(t *testing.T) (*Hub, *AuthService, repository.DocumentRepository) {
	t.Helper()
	database := newTestDB(t)
	docs := repository.NewDocumentRepository(database)
	auth := newTestAuth(t, database)
	hub := NewCloudHub(docs, auth, "eur", "en-US")
	t.Cleanup(hub.Close)
	return hub, auth, docs
}

func TestLocalHub_SingleTrackerAndCurrency(t *testing.T) {
	ctx := context.Background()
	backend := newLocalBackend(t)

	hub := NewLocalHub(ctx, backend, "", "en-US")
	assert.Equal(t, config.ModeLocal, hub.Mode())
	assert.Equal(t, "USD", hub.Currency())

	a, err := hub.Tracker(ctx, "")
	require.NoError(t, err)
	b, err := hub.Tracker(ctx, "anyone")
	require.NoError(t, err)
	assert.Same(t, a, b)

	notified := 0
	a.OnChange(func() { notified++ })

	assert.ErrorIs(t, hub.SetCurrency(ctx, "XXQ"), view.ErrUnknownCurrency)
	require.NoError(t, hub.SetCurrency(ctx, "jpy"))
	assert.Equal(t, "JPY", hub.Currency())
	assert.Equal(t, "¥500", hub.Money().Format(500))
	assert.Equal(t, 1, notified)

	err = hub.DeleteAccount(ctx, "u1", time.Now(), Confirmed(true))
	assert.ErrorIs(t, err, ErrLocalMode)
	hub.Close()

	restarted := NewLocalHub(ctx, backend, "USD", "en-US")
	defer restarted.Close()
	assert.Equal(t, "JPY", restarted.Currency())
}

func TestCloudHub_SignedOut(t *testing.T) {
	hub, _, _ := newCloudHub(t)

	assert.Equal(t, "EUR", hub.Currency())
	_, err := hub.Tracker(context.Background(), "")
	assert.ErrorIs(t, err, ErrSignedOut)
}

func TestCloudHub_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	hub, auth, docs := newCloudHub(t)

	user, err := auth.Continue("saver@example.com", "secret1")
	require.NoError(t, err)

	tr, err := hub.Tracker(ctx, user.ID)
	require.NoError(t, err)

	require.True(t, tr.AddGoal("House", 5000, "2030-01-01"))
	tr.Flush()

	require.Eventually(t, func() bool {
		doc, err := docs.Get(ctx, user.ID)
		return err == nil && len(doc.Goals) == 1
	}, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return len(tr.Goals()) == 1 }, 2*time.Second, 10*time.Millisecond)

	// signing in again starts a fresh session over the same document
	_, err = auth.SignIn("saver@example.com", "secret1")
	require.NoError(t, err)
	<-tr.Done()

	fresh, err := hub.Tracker(ctx, user.ID)
	require.NoError(t, err)
	assert.NotSame(t, tr, fresh)
	assert.Len(t, fresh.Goals(), 1)

	auth.SignOut(user.ID)
	<-fresh.Done()
	auth.SignOut(user.ID)

	// a later request reopens the session lazily
	reopened, err := hub.Tracker(ctx, user.ID)
	require.NoError(t, err)
	assert.NotSame(t, fresh, reopened)
}

func TestCloudHub_DeleteAccount(t *testing.T) {
	ctx := context.Background()
	hub, auth, docs := newCloudHub(t)

	user, err := auth.Continue("saver@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, docs.Set(ctx, user.ID, &model.Document{Goals: []model.Goal{{ID: "g1", Name: "Car", Amount: 1, EndDate: "2027-01-01"}}}))

	tr, err := hub.Tracker(ctx, user.ID)
	require.NoError(t, err)

	var prompt string
	err = hub.DeleteAccount(ctx, user.ID, time.Now(), ConfirmFunc(func(p string) bool {
		prompt = p
		return false
	}))
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Equal(t, DeleteAccountPrompt, prompt)

	err = hub.DeleteAccount(ctx, user.ID, time.Now().Add(-time.Hour), Confirmed(true))
	assert.Equal(t, CodeRequiresRecentLogin, AuthCode(err))

	require.NoError(t, hub.DeleteAccount(ctx, user.ID, time.Now(), Confirmed(true)))
	<-tr.Done()

	_, err = docs.Get(ctx, user.ID)
	assert.ErrorIs(t, err, repository.ErrDocumentNotFound)
	_, err = auth.SignIn("saver@example.com", "secret1")
	assert.Equal(t, CodeUserNotFound, AuthCode(err))
}

func TestCloudHub_DeleteAccountWithoutDocument(t *testing.T) {
	hub, auth, _ := newCloudHub(t)

	user, err := auth.Continue("saver@example.com", "secret1")
	require.NoError(t, err)

	require.NoError(t, hub.DeleteAccount(context.Background(), user.ID, time.Now(), Confirmed(true)))
}

// slowLoad delays document reads so session opens overlap.
type slowLoad struct {
	repository.DocumentRepository
	delay time.Duration
}

func (s slowLoad) Get(ctx context.Context, userID string) (*model.Document, error) {
	time.Sleep(s.delay)
	return s.DocumentRepository.Get(ctx, userID)
}

func TestCloudHub_ConcurrentOpensShareOneSession(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	auth := newTestAuth(t, database)
	docs := slowLoad{DocumentRepository: repository.NewDocumentRepository(database), delay: 200 * time.Millisecond}
	hub := NewCloudHub(docs, auth, "eur", "en-US")
	t.Cleanup(hub.Close)

	user, err := auth.Continue("saver@example.com", "secret1")
	require.NoError(t, err)
	auth.SignOut(user.ID)

	got := make([]*Tracker, 4)
	var wg sync.WaitGroup
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr, err := hub.Tracker(ctx, user.ID)
			assert.NoError(t, err)
			got[i] = tr
		}()
	}

	// opens in progress do not hold up other hub calls
	time.Sleep(20 * time.Millisecond)
	start := time.Now()
	assert.Equal(t, "EUR", hub.Currency())
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	wg.Wait()
	require.NotNil(t, got[0])
	for _, tr := range got[1:] {
		assert.Same(t, got[0], tr)
	}
	select {
	case <-got[0].Done():
		t.Fatal("shared session was closed")
	default:
	}
}
