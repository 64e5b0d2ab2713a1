package engine

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/webtor-io/whattowatch/models"
)

type subscriber struct {
	ch chan models.AppState
}

// offer hands over s dropping any snapshot the receiver has not taken yet.
// Called only with publisher lock held, so snapshots stay ordered.
func (s *subscriber) offer(st models.AppState) {
	select {
	case s.ch <- st:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- st
}

// publisher owns the current snapshot. All changes go through update,
// which makes them atomic and totally ordered.
type publisher struct {
	mux    sync.Mutex
	cur    atomic.Pointer[models.AppState]
	subs   map[uuid.UUID]*subscriber
	closed bool
}

func newPublisher(initial models.AppState) *publisher {
	p := &publisher{
		subs: map[uuid.UUID]*subscriber{},
	}
	p.cur.Store(&initial)
	return p
}

func (s *publisher) current() models.AppState {
	return *s.cur.Load()
}

func (s *publisher) update(f func(st *models.AppState)) models.AppState {
	s.mux.Lock()
	defer s.mux.Unlock()
	next := *s.cur.Load()
	f(&next)
	next.Version++
	s.cur.Store(&next)
	for _, sub := range s.subs {
		sub.offer(next)
	}
	return next
}

func (s *publisher) subscribe() (<-chan models.AppState, func()) {
	s.mux.Lock()
	defer s.mux.Unlock()
	sub := &subscriber{ch: make(chan models.AppState, 1)}
	if s.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}
	id := uuid.New()
	s.subs[id] = sub
	sub.ch <- *s.cur.Load()
	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			s.mux.Lock()
			defer s.mux.Unlock()
			if _, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(sub.ch)
			}
		})
	}
}

func (s *publisher) subscribers() int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return len(s.subs)
}

func (s *publisher) close() {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.closed = true
	for id, sub := range s.subs {
		delete(s.subs, id)
		close(sub.ch)
	}
}
