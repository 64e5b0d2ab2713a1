package engine

import "sync"

// movieQueue runs work for a movie id one item at a time, in push order.
// Ids with nothing queued are dropped.
type movieQueue struct {
	mux     sync.Mutex
	pending map[int][]func()
}

func newMovieQueue() *movieQueue {
	return &movieQueue{
		pending: map[int][]func(){},
	}
}

// push queues f for id. It returns true when nobody drains id yet and
// the caller has to start drain.
func (s *movieQueue) push(id int, f func()) bool {
	s.mux.Lock()
	defer s.mux.Unlock()
	q, running := s.pending[id]
	s.pending[id] = append(q, f)
	return !running
}

// drain runs queued work for id until there is none left.
func (s *movieQueue) drain(id int) {
	for {
		s.mux.Lock()
		q := s.pending[id]
		if len(q) == 0 {
			delete(s.pending, id)
			s.mux.Unlock()
			return
		}
		f := q[0]
		q[0] = nil
		s.pending[id] = q[1:]
		s.mux.Unlock()
		f()
	}
}

func (s *movieQueue) size() int {
	s.mux.Lock()
	defer s.mux.Unlock()
	return len(s.pending)
}
