package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/templui/goalkeeper/internal/model"
	"github.com/templui/goalkeeper/internal/persistence"
	"github.com/templui/goalkeeper/internal/sorting"
	"github.com/templui/goalkeeper/internal/validation"
)

const DeleteGoalPrompt = "Delete this goal and all its entries?"

// Confirmer gates destructive actions.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool {
	return f(prompt)
}

// Confirmed is a Confirmer that answers with a fixed value.
type Confirmed bool

func (c Confirmed) Confirm(string) bool {
	return bool(c)
}

// Tracker owns the goal list of one session. Mutations run one at a time;
// each successful mutation is pushed to the backend and then announced to
// change listeners. Invalid input and unknown ids are silent no-ops: the
// mutation methods report whether anything changed.
type Tracker struct {
	// opMu serialises mutations including their push; mu guards the data.
	opMu        sync.Mutex
	mu          sync.Mutex
	goals       []model.Goal
	version     uint64
	lastCreated int64
	now         func() time.Time

	sync *persistence.Synchronizer

	listenersMu  sync.Mutex
	listeners    map[int]func()
	nextListener int

	statusMu sync.Mutex
	status   string

	closeOnce sync.Once
	done      chan struct{}
}

func NewTracker(backend persistence.Backend) *Tracker {
	t := &Tracker{
		goals:     []model.Goal{},
		now:       time.Now,
		listeners: make(map[int]func()),
		done:      make(chan struct{}),
	}
	t.sync = persistence.NewSynchronizer(backend, t.SetStatus)
	return t
}

// Open loads the persisted goals and starts the backend subscription.
// Snapshots from the subscription replace the goal list wholesale.
func (t *Tracker) Open(ctx context.Context) {
	goals := t.sync.Load(ctx)

	t.mu.Lock()
	t.goals = model.CloneGoals(goals)
	t.version++
	t.mu.Unlock()
	t.notify()

	t.sync.Watch(t.Replace)
}

// Close tears down the backend subscription. Safe to call more than once.
func (t *Tracker) Close() error {
	t.closeOnce.Do(func() { close(t.done) })
	return t.sync.Close()
}

// Done is closed once the tracker has been closed.
func (t *Tracker) Done() <-chan struct{} {
	return t.done
}

// Flush waits for in-flight cloud writes.
func (t *Tracker) Flush() {
	t.sync.Wait()
}

func (t *Tracker) Backend() persistence.Backend {
	return t.sync.Backend()
}

// Replace swaps in an authoritative goal list, e.g. a snapshot echo. Local
// changes made since the echoed write are lost.
func (t *Tracker) Replace(goals []model.Goal) {
	t.mu.Lock()
	t.goals = model.CloneGoals(goals)
	t.version++
	t.mu.Unlock()

	t.SetStatus("")
	t.notify()
}

// Goals returns a copy of the goal list in storage order.
func (t *Tracker) Goals() []model.Goal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return model.CloneGoals(t.goals)
}

func (t *Tracker) Goal(goalID string) (model.Goal, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i := t.indexOf(goalID)
	if i < 0 {
		return model.Goal{}, false
	}
	return t.goals[i].Clone(), true
}

// Version increases on every change to the goal list.
func (t *Tracker) Version() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.version
}

func (t *Tracker) AddGoal(name string, amount float64, endDate string) bool {
	if !validGoal(name, amount, endDate) {
		return false
	}
	return t.mutate(func() bool {
		t.goals = append(t.goals, model.Goal{
			ID:        uuid.New().String(),
			Name:      strings.TrimSpace(name),
			Amount:    model.Amount(amount),
			EndDate:   strings.TrimSpace(endDate),
			EntrySort: string(sorting.Default),
			Entries:   []model.Entry{},
		})
		return true
	})
}

func (t *Tracker) EditGoal(goalID, name string, amount float64, endDate string) bool {
	if !validGoal(name, amount, endDate) {
		return false
	}
	return t.mutate(func() bool {
		g := t.goal(goalID)
		if g == nil {
			return false
		}
		g.Name = strings.TrimSpace(name)
		g.Amount = model.Amount(amount)
		g.EndDate = strings.TrimSpace(endDate)
		return true
	})
}

// DeleteGoal removes a goal and all of its entries once c confirms. There
// is no undo.
func (t *Tracker) DeleteGoal(goalID string, c Confirmer) bool {
	if c == nil || !c.Confirm(DeleteGoalPrompt) {
		return false
	}
	return t.mutate(func() bool {
		i := t.indexOf(goalID)
		if i < 0 {
			return false
		}
		t.goals = append(t.goals[:i], t.goals[i+1:]...)
		return true
	})
}

// AddEntry prepends a new active entry dated today.
func (t *Tracker) AddEntry(goalID, entryType string, amount float64, note string) bool {
	if !model.ValidEntryType(entryType) || validation.ValidateEntryAmount(amount) != nil {
		return false
	}
	return t.mutate(func() bool {
		g := t.goal(goalID)
		if g == nil {
			return false
		}
		now := t.now()
		entry := model.Entry{
			ID:        uuid.New().String(),
			Type:      entryType,
			Amount:    model.Amount(amount),
			Date:      now.UTC().Format(time.DateOnly),
			CreatedAt: t.nextCreatedAt(now),
			IsActive:  true,
			Note:      validation.NormalizeNote(note),
		}
		g.Entries = append([]model.Entry{entry}, g.Entries...)
		return true
	})
}

// EditEntry overwrites amount, type and note. Zero is allowed here, unlike
// AddEntry.
func (t *Tracker) EditEntry(goalID, entryID string, amount float64, entryType, note string) bool {
	if !model.ValidEntryType(entryType) || validation.ValidateGoalAmount(amount) != nil {
		return false
	}
	return t.mutate(func() bool {
		e := t.entry(goalID, entryID)
		if e == nil {
			return false
		}
		e.Amount = model.Amount(amount)
		e.Type = entryType
		e.Note = validation.NormalizeNote(note)
		return true
	})
}

func (t *Tracker) ToggleEntryActive(goalID, entryID string) bool {
	return t.mutate(func() bool {
		e := t.entry(goalID, entryID)
		if e == nil {
			return false
		}
		e.IsActive = !e.IsActive
		return true
	})
}

func (t *Tracker) RemoveEntry(goalID, entryID string) bool {
	return t.mutate(func() bool {
		g := t.goal(goalID)
		if g == nil {
			return false
		}
		i := g.Entry(entryID)
		if i < 0 {
			return false
		}
		g.Entries = append(g.Entries[:i], g.Entries[i+1:]...)
		return true
	})
}

// SetEntrySort remembers the display order of a goal's entries.
func (t *Tracker) SetEntrySort(goalID, key string) bool {
	k := sorting.ParseKey(key)
	return t.mutate(func() bool {
		g := t.goal(goalID)
		if g == nil || g.EntrySort == string(k) {
			return false
		}
		g.EntrySort = string(k)
		return true
	})
}

// OnChange registers fn to run after every change to the goal list. The
// returned func removes it.
func (t *Tracker) OnChange(fn func()) (remove func()) {
	t.listenersMu.Lock()
	id := t.nextListener
	t.nextListener++
	t.listeners[id] = fn
	t.listenersMu.Unlock()

	return func() {
		t.listenersMu.Lock()
		delete(t.listeners, id)
		t.listenersMu.Unlock()
	}
}

// Status is the current one-line message for the user, or "".
func (t *Tracker) Status() string {
	t.statusMu.Lock()
	defer t.statusMu.Unlock()
	return t.status
}

// SetStatus replaces the status message.
func (t *Tracker) SetStatus(msg string) {
	t.statusMu.Lock()
	changed := t.status != msg
	t.status = msg
	t.statusMu.Unlock()

	if changed && msg != "" {
		t.notify()
	}
}

// mutate applies fn and, if it changed something, pushes the new list.
// Pushes happen in mutation order.
func (t *Tracker) mutate(fn func() bool) bool {
	t.opMu.Lock()
	defer t.opMu.Unlock()

	t.mu.Lock()
	if !fn() {
		t.mu.Unlock()
		return false
	}
	t.version++
	snapshot := model.CloneGoals(t.goals)
	t.mu.Unlock()

	t.sync.Push(snapshot)
	t.notify()
	return true
}

func (t *Tracker) notify() {
	t.listenersMu.Lock()
	fns := make([]func(), 0, len(t.listeners))
	for _, fn := range t.listeners {
		fns = append(fns, fn)
	}
	t.listenersMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (t *Tracker) indexOf(goalID string) int {
	for i := range t.goals {
		if t.goals[i].ID == goalID {
			return i
		}
	}
	return -1
}

func (t *Tracker) goal(goalID string) *model.Goal {
	i := t.indexOf(goalID)
	if i < 0 {
		return nil
	}
	return &t.goals[i]
}

func (t *Tracker) entry(goalID, entryID string) *model.Entry {
	g := t.goal(goalID)
	if g == nil {
		return nil
	}
	i := g.Entry(entryID)
	if i < 0 {
		return nil
	}
	return &g.Entries[i]
}

// nextCreatedAt returns now in unix ms, bumped so it is strictly greater
// than any value handed out before.
func (t *Tracker) nextCreatedAt(now time.Time) int64 {
	ms := now.UnixMilli()
	if ms <= t.lastCreated {
		ms = t.lastCreated + 1
	}
	t.lastCreated = ms
	return ms
}

func validGoal(name string, amount float64, endDate string) bool {
	return validation.ValidateGoalName(name) == nil &&
		validation.ValidateGoalAmount(amount) == nil &&
		validation.ValidateDate(endDate) == nil
}
