package notify

import (
	"context"
	"fmt"
	"sync"
)

// Deliverer hands an intent to the external messaging provider for one channel.
type Deliverer interface {
	Deliver(ctx context.Context, intent Intent) error
	Channel() Channel
}

// UnknownChannelError is returned when no deliverer is registered for a channel.
type UnknownChannelError struct {
	Channel Channel
}

func (e *UnknownChannelError) Error() string {
	return fmt.Sprintf("no deliverer registered for channel %q", e.Channel)
}

// Registry maps channels to their deliverers.
type Registry struct {
	mu         sync.RWMutex
	deliverers map[Channel]Deliverer
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{deliverers: make(map[Channel]Deliverer)}
}

// Register adds a deliverer. Safe to call concurrently.
func (r *Registry) Register(d Deliverer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliverers[d.Channel()] = d
}

// Get returns the deliverer for the given channel.
func (r *Registry) Get(channel Channel) (Deliverer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.deliverers[channel]
	if !ok {
		return nil, &UnknownChannelError{Channel: channel}
	}
	return d, nil
}
