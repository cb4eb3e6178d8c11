package bus

import (
	"context"
	"sync"
)

// MemoryBus is an in-process Bus for single-instance deployments and tests.
// Handlers are invoked synchronously in publish order. Registering more
// than one handler models several processes sharing one broadcast medium.
type MemoryBus struct {
	mu       sync.RWMutex
	handlers []Handler
	status   map[string]string
}

// NewMemoryBus initializes an empty in-memory bus
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{status: make(map[string]string)}
}

// Publish delivers the event to every registered handler, including the
// publisher's own
func (b *MemoryBus) Publish(roomID, event string, payload []byte) error {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		buf := make([]byte, len(payload))
		copy(buf, payload)
		h(roomID, event, buf)
	}
	return nil
}

// Subscribe registers a handler
func (b *MemoryBus) Subscribe(h Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
	return nil
}

// SetStatus records the advisory presence status
func (b *MemoryBus) SetStatus(_ context.Context, userID, status string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.status[userID] = status
	return nil
}

// Status reports the last recorded presence status for userID
func (b *MemoryBus) Status(userID string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status[userID]
}

// Close is a no-op for the in-memory bus
func (b *MemoryBus) Close() error { return nil }
