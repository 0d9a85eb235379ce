// Package lock serializes work on a single key, such as one employee's
// payroll for one month.
package lock

import (
	"context"
	"sync"
)

// Memory is an in-process keyed mutex. Entries are dropped once no caller
// holds or waits for them.
type Memory struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch      chan struct{}
	waiters int
}

func NewMemory() *Memory {
	return &Memory{locks: map[string]*entry{}}
}

// Lock blocks until key is free or ctx is done.
func (m *Memory) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	e, ok := m.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		m.locks[key] = e
	}
	e.waiters++
	m.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		m.release(key, e, false)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { m.release(key, e, true) })
	}, nil
}

func (m *Memory) release(key string, e *entry, held bool) {
	if held {
		<-e.ch
	}
	m.mu.Lock()
	e.waiters--
	if e.waiters == 0 {
		delete(m.locks, key)
	}
	m.mu.Unlock()
}
