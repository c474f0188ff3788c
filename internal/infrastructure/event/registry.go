package event

import (
	"slices"
	"sync"

	"github.com/erp/smarterp/internal/domain/shared"
)

// HandlerRegistry maps event types to their handlers
type HandlerRegistry struct {
	mu       sync.RWMutex
	byType   map[string][]shared.EventHandler
	catchAll []shared.EventHandler
}

// NewHandlerRegistry creates an empty registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{byType: make(map[string][]shared.EventHandler)}
}

// Register adds handler for eventTypes, or for every event when none are given
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(eventTypes) == 0 {
		r.catchAll = append(r.catchAll, handler)
		return
	}
	for _, t := range eventTypes {
		r.byType[t] = append(r.byType[t], handler)
	}
}

// Unregister removes handler everywhere
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	drop := func(h shared.EventHandler) bool { return h == handler }
	r.catchAll = slices.DeleteFunc(r.catchAll, drop)
	for t, hs := range r.byType {
		if hs = slices.DeleteFunc(hs, drop); len(hs) == 0 {
			delete(r.byType, t)
		} else {
			r.byType[t] = hs
		}
	}
}

// Handlers returns the handlers for eventType followed by catch-all handlers
func (r *HandlerRegistry) Handlers(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]shared.EventHandler, 0, len(r.byType[eventType])+len(r.catchAll))
	out = append(out, r.byType[eventType]...)
	return append(out, r.catchAll...)
}
