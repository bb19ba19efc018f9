package persistence

import (
	"context"
	"log/slog"
	"sync"

	"github.com/templui/goalkeeper/internal/model"
)

const (
	MsgSaveFailed = "Could not save. Check the server logs."
	MsgLoadFailed = "Could not load goals. Check the document store configuration and access rules."
)

// Synchronizer pushes the full goal list to a backend after every mutation
// and relays the backend's snapshots back to the session.
//
// Cloud writes are fire-and-forget: Push returns before the write lands,
// there is no timeout and no retry, and a failure is reported once through
// the status func. A single writer goroutine stores snapshots in push
// order; when writes back up, only the newest pending snapshot is written.
// A snapshot that arrives later overwrites the session's state
// unconditionally, even if local mutations happened in between.
type Synchronizer struct {
	backend Backend
	status  func(string)

	mu      sync.Mutex
	active  bool
	closed  bool
	pending []model.Goal
	queued  int

	// unwritten counts pushes whose snapshot has not been stored yet.
	unwritten int
	idle      *sync.Cond

	wake       chan struct{}
	stop       chan struct{}
	writerDone chan struct{}
}

// NewSynchronizer wires a backend to a status sink. The sink receives one
// line per failure; each message replaces the previous one.
func NewSynchronizer(backend Backend, status func(string)) *Synchronizer {
	if status == nil {
		status = func(string) {}
	}
	s := &Synchronizer{backend: backend, status: status, active: true}
	s.idle = sync.NewCond(&s.mu)
	if backend.Async() {
		s.wake = make(chan struct{}, 1)
		s.stop = make(chan struct{})
		s.writerDone = make(chan struct{})
		go s.run()
	}
	return s
}

func (s *Synchronizer) Backend() Backend {
	return s.backend
}

// Load reads the initial goal list. Failures degrade to an empty list.
func (s *Synchronizer) Load(ctx context.Context) []model.Goal {
	goals, err := s.backend.Load(ctx)
	if err != nil {
		slog.Error("failed to load goals", "error", err)
		s.status(MsgLoadFailed)
		return []model.Goal{}
	}
	return goals
}

// Push persists a snapshot of goals. Pushes after Close are dropped.
func (s *Synchronizer) Push(goals []model.Goal) {
	snapshot := model.CloneGoals(goals)

	if !s.backend.Async() {
		s.save(snapshot)
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		slog.Debug("dropping goal write after teardown")
		return
	}
	s.pending = snapshot
	s.queued++
	s.unwritten++
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Synchronizer) run() {
	defer close(s.writerDone)
	for {
		select {
		case <-s.wake:
			s.writePending()
		case <-s.stop:
			s.writePending()
			return
		}
	}
}

func (s *Synchronizer) writePending() {
	s.mu.Lock()
	goals, n := s.pending, s.queued
	s.pending, s.queued = nil, 0
	s.mu.Unlock()

	if n == 0 {
		return
	}
	s.save(goals)

	s.mu.Lock()
	s.unwritten -= n
	if s.unwritten == 0 {
		s.idle.Broadcast()
	}
	s.mu.Unlock()
}

func (s *Synchronizer) save(goals []model.Goal) {
	if err := s.backend.SaveAll(context.Background(), goals); err != nil {
		slog.Error("failed to save goals", "error", err)
		s.status(MsgSaveFailed)
	}
}

// Watch opens the standing subscription. Snapshots and errors are only
// relayed while the session is active; after Close they are expected
// teardown noise.
func (s *Synchronizer) Watch(onSnapshot func([]model.Goal)) {
	s.backend.Subscribe(func(goals []model.Goal) {
		if !s.Active() {
			return
		}
		onSnapshot(goals)
	}, func(err error) {
		if !s.Active() {
			slog.Debug("ignoring subscription error after teardown", "error", err)
			return
		}
		slog.Error("goal subscription failed", "error", err)
		s.status(MsgLoadFailed)
	})
}

func (s *Synchronizer) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Close writes any pending snapshot and tears the subscription down. Only
// the first call has an effect.
func (s *Synchronizer) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.active = false
	s.mu.Unlock()

	if s.stop != nil {
		close(s.stop)
		<-s.writerDone
	}
	return s.backend.Close()
}

// Wait blocks until pushed snapshots have been written.
func (s *Synchronizer) Wait() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.unwritten > 0 {
		s.idle.Wait()
	}
}
