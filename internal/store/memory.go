package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"offgrid-planner/internal/optimize"
)

type entry struct {
	result    *optimize.Result
	expiresAt time.Time
}

// Memory is an in-process store with a TTL. Expired entries are invisible to
// Get and removed by a periodic sweep.
type Memory struct {
	mu    sync.RWMutex
	items map[string]*entry
	ttl   time.Duration
	now   func() time.Time

	stop chan struct{}
	once sync.Once
}

// NewMemory starts a store sweeping every interval. A zero ttl keeps results
// for an hour.
func NewMemory(ttl, interval time.Duration) *Memory {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	m := &Memory{
		items: make(map[string]*entry),
		ttl:   ttl,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	go m.cleanup(interval)
	return m
}

func (m *Memory) Put(_ context.Context, r *optimize.Result) error {
	if r == nil || r.ID == "" {
		return errors.New("result has no id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[r.ID] = &entry{result: r, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*optimize.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.items[id]
	if !ok || m.now().After(e.expiresAt) {
		return nil, ErrNotFound
	}
	return e.result, nil
}

// Len counts stored entries, expired ones included until the next sweep.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *Memory) Close() error {
	m.once.Do(func() { close(m.stop) })
	return nil
}

func (m *Memory) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Memory) sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, e := range m.items {
		if now.After(e.expiresAt) {
			delete(m.items, id)
		}
	}
}
