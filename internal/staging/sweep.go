package staging

import (
	"fmt"
	"log"
	"time"

	"github.com/hal9000y/gmail-reply-mcp/internal/observability"
)

// Sweep removes every expired entry and returns how many were removed.
func (m *Memory[V]) Sweep() int {
	m.mu.Lock()
	now := m.now()
	evicted := 0
	for token, e := range m.entries {
		if !now.Before(e.ExpiresAt) {
			delete(m.entries, token)
			evicted++
		}
	}
	m.mu.Unlock()

	observability.RecordSweep(m.name, evicted)
	return evicted
}

// StartSweep runs Sweep every interval in a background goroutine.
// The returned function stops the loop and waits for it to exit.
func (m *Memory[V]) StartSweep(interval time.Duration) (func(), error) {
	if interval <= 0 {
		return nil, fmt.Errorf("sweep interval must be positive, got %s", interval)
	}
	if interval >= m.ttl {
		return nil, fmt.Errorf("sweep interval %s must be shorter than ttl %s", interval, m.ttl)
	}

	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.sweepCycle()
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		<-exited
	}, nil
}

func (m *Memory[V]) sweepCycle() {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("staging %s: sweep panic recovered: %v", m.name, r)
		}
	}()

	if n := m.Sweep(); n > 0 {
		log.Printf("staging %s: swept %d expired entries", m.name, n)
	}
}
