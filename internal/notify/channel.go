// Package notify delivers triggered alerts to configured notification
// channels. Delivery is fire-and-continue: a failing channel is logged
// and counted, never propagated to the alert path.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vigilops/vigil/pkg/models"
)

var ErrChannelNotFound = errors.New("notification channel not found")

// Channel delivers one alert to an external destination.
type Channel interface {
	Name() string
	Send(ctx context.Context, alert *models.Alert) error
}

// Registry holds the configured channels by name.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]Channel
}

func NewRegistry() *Registry {
	return &Registry{channels: make(map[string]Channel)}
}

func (r *Registry) Register(ch Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[ch.Name()] = ch
}

func (r *Registry) Get(name string) (Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrChannelNotFound, name)
	}
	return ch, nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.channels))
	for name := range r.channels {
		names = append(names, name)
	}
	return names
}
