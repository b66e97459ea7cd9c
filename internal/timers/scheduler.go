package timers

import (
	"slices"
	"sync"
	"time"
)

type entry struct {
	id   uint64
	stop func()
}

// Scheduler owns every timer of every room, keyed by room ID and timer name.
// Arming a key replaces the timer already under it.
type Scheduler struct {
	mu    sync.Mutex
	rooms map[string]map[string]*entry
	seq   uint64
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		rooms: make(map[string]map[string]*entry),
	}
}

// After runs fn once after d unless the key is cancelled or re-armed first.
func (s *Scheduler) After(room, key string, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextLocked(room, key)
	t := time.AfterFunc(d, func() {
		if s.release(room, key, id) {
			fn()
		}
	})
	s.setLocked(room, key, &entry{id: id, stop: func() { t.Stop() }})
}

// Every runs fn each interval until the key is cancelled or re-armed.
func (s *Scheduler) Every(room, key string, interval time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextLocked(room, key)
	done := make(chan struct{})
	var once sync.Once

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if !s.current(room, key, id) {
					return
				}
				fn()
			}
		}
	}()
	s.setLocked(room, key, &entry{id: id, stop: func() { once.Do(func() { close(done) }) }})
}

func (s *Scheduler) Cancel(room, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	timers := s.rooms[room]
	e, ok := timers[key]
	if !ok {
		return false
	}
	e.stop()
	delete(timers, key)
	if len(timers) == 0 {
		delete(s.rooms, room)
	}
	return true
}

// CancelRoom stops every timer of the room and returns how many there were.
func (s *Scheduler) CancelRoom(room string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	timers := s.rooms[room]
	for _, e := range timers {
		e.stop()
	}
	delete(s.rooms, room)
	return len(timers)
}

// Keys lists the armed timer names of a room, sorted.
func (s *Scheduler) Keys(room string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.rooms[room]))
	for k := range s.rooms[room] {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (s *Scheduler) nextLocked(room, key string) uint64 {
	if e, ok := s.rooms[room][key]; ok {
		e.stop()
	}
	s.seq++
	return s.seq
}

func (s *Scheduler) setLocked(room, key string, e *entry) {
	timers, ok := s.rooms[room]
	if !ok {
		timers = make(map[string]*entry)
		s.rooms[room] = timers
	}
	timers[key] = e
}

func (s *Scheduler) current(room, key string, id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.rooms[room][key]
	return ok && e.id == id
}

// release drops a fired one-shot entry. It reports false when the entry was superseded.
func (s *Scheduler) release(room, key string, id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	timers := s.rooms[room]
	e, ok := timers[key]
	if !ok || e.id != id {
		return false
	}
	delete(timers, key)
	if len(timers) == 0 {
		delete(s.rooms, room)
	}
	return true
}
