package chatcore

import (
	"sync"
	"time"

	"workforce-service/internal/clock"
	"workforce-service/internal/models"
)

const SearchDebounce = 300 * time.Millisecond

// Search recomputes the chat list once input has been quiet for
// SearchDebounce.
type Search struct {
	core      *Core
	clock     clock.Clock
	onResults func([]models.Chat)

	mu     sync.Mutex
	filter Filter
	timer  *clock.Timer
	gen    uint64
}

func (c *Core) NewSearch(onResults func([]models.Chat)) *Search {
	return &Search{core: c, clock: c.clock, onResults: onResults, filter: Filter{Type: TypeAll}}
}

func (s *Search) SetQuery(q string) {
	s.update(func(f *Filter) { f.Query = q })
}

func (s *Search) SetType(t TypeFilter) {
	s.update(func(f *Filter) { f.Type = t })
}

func (s *Search) update(fn func(*Filter)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.filter)
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = s.clock.AfterFunc(SearchDebounce, func() { s.fire(gen) })
}

// fire recomputes only for the most recently armed timer. A timer that fired
// just as update replaced it must not clear or duplicate its successor.
func (s *Search) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	f := s.filter
	s.timer = nil
	s.mu.Unlock()
	s.onResults(s.core.ListChats(f))
}

func (s *Search) Filter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Stop cancels a pending recompute.
func (s *Search) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
