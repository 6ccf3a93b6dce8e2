package sinks

import (
	"sync"
	"time"
)

// Health status values.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// Health is the delivery state of one sink.
type Health struct {
	LastCheck time.Time `json:"last_check"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	Delivered uint64    `json:"delivered"`
	Failed    uint64    `json:"failed"`
}

// HealthTracker keeps per-sink delivery status in memory.
type HealthTracker struct {
	mu     sync.RWMutex
	health map[string]*Health
	now    func() time.Time
}

func NewHealthTracker() *HealthTracker {
	return &HealthTracker{
		health: make(map[string]*Health),
		now:    time.Now,
	}
}

// Record notes the outcome of one delivery to the named sink.
func (h *HealthTracker) Record(name string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entry, ok := h.health[name]
	if !ok {
		entry = &Health{}
		h.health[name] = entry
	}

	entry.LastCheck = h.now()
	if err != nil {
		entry.Status = StatusUnhealthy
		entry.Error = err.Error()
		entry.Failed++
		return
	}
	entry.Status = StatusHealthy
	entry.Error = ""
	entry.Delivered++
}

// Get returns a copy of the named sink's health.
func (h *HealthTracker) Get(name string) (Health, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	entry, ok := h.health[name]
	if !ok {
		return Health{}, false
	}
	return *entry, true
}

// All returns a copy of every sink's health.
func (h *HealthTracker) All() map[string]Health {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make(map[string]Health, len(h.health))
	for k, v := range h.health {
		result[k] = *v
	}
	return result
}

// IsHealthy reports whether the last delivery succeeded within maxAge.
func (h *HealthTracker) IsHealthy(name string, maxAge time.Duration) bool {
	health, ok := h.Get(name)
	if !ok {
		return false
	}
	if h.now().Sub(health.LastCheck) > maxAge {
		return false
	}
	return health.Status == StatusHealthy
}
