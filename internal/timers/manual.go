package timers

import (
	"slices"
	"sync"
	"time"
)

// Manual is a Scheduler stand-in whose timers only fire when told to.
type Manual struct {
	mu     sync.Mutex
	timers map[string]map[string]*ManualTimer
}

type ManualTimer struct {
	Delay     time.Duration
	Repeating bool
	fn        func()
}

func NewManual() *Manual {
	return &Manual{timers: make(map[string]map[string]*ManualTimer)}
}

func (m *Manual) After(room, key string, d time.Duration, fn func()) {
	m.set(room, key, &ManualTimer{Delay: d, fn: fn})
}

func (m *Manual) Every(room, key string, d time.Duration, fn func()) {
	m.set(room, key, &ManualTimer{Delay: d, Repeating: true, fn: fn})
}

func (m *Manual) set(room, key string, t *ManualTimer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timers[room] == nil {
		m.timers[room] = make(map[string]*ManualTimer)
	}
	m.timers[room][key] = t
}

func (m *Manual) Cancel(room, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.timers[room][key]; !ok {
		return false
	}
	delete(m.timers[room], key)
	return true
}

func (m *Manual) CancelRoom(room string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.timers[room])
	delete(m.timers, room)
	return n
}

func (m *Manual) Keys(room string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.timers[room]))
	for k := range m.timers[room] {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (m *Manual) Get(room, key string) (*ManualTimer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.timers[room][key]
	return t, ok
}

// Fire runs the timer under key. One-shot timers are removed before running.
// It reports false when nothing is armed under the key.
func (m *Manual) Fire(room, key string) bool {
	m.mu.Lock()
	t, ok := m.timers[room][key]
	if ok && !t.Repeating {
		delete(m.timers[room], key)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	t.fn()
	return true
}
