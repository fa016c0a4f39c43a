// Package receiver implements the value-log ingestion pipeline: it owns the
// broker subscription topics, parses every inbound message into exactly one
// value log, optionally anonymizes it, and fans it out to the registered
// observers.
package receiver

import (
	"fmt"
	"sync"
	"time"

	"github.com/marvin21/MBP/internal/domain"
	"github.com/marvin21/MBP/internal/noise"
	"github.com/marvin21/MBP/internal/ports"
)

// SubscribeTopics are the broker topic filters that carry value logs. The
// trailing wildcard covers the prefix and everything nested beneath it.
var SubscribeTopics = []string{"device/#", "sensor/#", "actuator/#", "monitoring/#"}

// Receiver maintains the observer set and converts broker deliveries into
// value logs. Message handling runs on the transport's single dispatch
// goroutine; observer registration may happen from any goroutine.
type Receiver struct {
	mu        sync.RWMutex
	observers map[ports.ValueObserver]struct{}

	noise noise.Policy
	obs   ports.Observability
	now   func() time.Time
}

// NewReceiver creates a pipeline with the given anonymization policy.
func NewReceiver(noisePolicy noise.Policy, obs ports.Observability) *Receiver {
	return &Receiver{
		observers: make(map[ports.ValueObserver]struct{}),
		noise:     noisePolicy,
		obs:       obs,
		now:       time.Now,
	}
}

// RegisterObserver adds an observer with set semantics: re-adding a resident
// observer is a no-op and yields exactly one notification per message.
func (r *Receiver) RegisterObserver(o ports.ValueObserver) error {
	if o == nil {
		return fmt.Errorf("register observer: %w", domain.ErrInvalidArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers[o] = struct{}{}
	return nil
}

// UnregisterObserver removes an observer; removing an absent observer is a
// no-op.
func (r *Receiver) UnregisterObserver(o ports.ValueObserver) error {
	if o == nil {
		return fmt.Errorf("unregister observer: %w", domain.ErrInvalidArgument)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.observers, o)
	return nil
}

// ClearObservers unregisters every observer.
func (r *Receiver) ClearObservers() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = make(map[ports.ValueObserver]struct{})
}

// Dispatch hands a completed value log to every registered observer. Fan-out
// iterates a snapshot so observers may register or unregister from within
// their callback, and a panicking observer never prevents the others from
// being notified.
func (r *Receiver) Dispatch(v *domain.ValueLog) {
	r.mu.RLock()
	snapshot := make([]ports.ValueObserver, 0, len(r.observers))
	for o := range r.observers {
		snapshot = append(snapshot, o)
	}
	r.mu.RUnlock()

	for _, o := range snapshot {
		r.notify(o, v)
	}
}

func (r *Receiver) notify(o ports.ValueObserver, v *domain.ValueLog) {
	defer func() {
		if rec := recover(); rec != nil {
			r.obs.IncCounter("mbp_observer_panics_total", 1)
			r.obs.LogError("observer_panic", fmt.Errorf("observer panic: %v", rec),
				ports.Field{Key: "component_id", Value: v.ComponentID})
		}
	}()
	o.OnValueReceived(v)
}
