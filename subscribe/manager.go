package subscribe

import (
	"sync"

	"github.com/chirpmesh/chirp-go/types"
)

// Manager tracks the subscribe engine handle and the registered listener
// subscriptions, routing received updates and status changes to them.
//
// The listener list is read-mostly: notifications take a read lock and
// use non-blocking sends only, so they never stall the engine; listener
// registration takes the write lock.
type Manager struct {
	engine *Engine

	mu        sync.RWMutex
	listeners []*Subscription

	// ListenerBuffer sizes the channels of newly created subscriptions.
	// Zero selects the default.
	ListenerBuffer int
}

// NewManager creates a manager for the given engine handle. The engine
// may be attached later with SetEngine when construction order requires
// it.
func NewManager(engine *Engine) *Manager {
	return &Manager{engine: engine}
}

// SetEngine attaches the engine handle.
func (m *Manager) SetEngine(engine *Engine) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.engine = engine
}

// Engine returns the subscribe engine handle.
func (m *Manager) Engine() *Engine {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.engine
}

// NewSubscription creates and registers a listener for the given
// channels and groups.
func (m *Manager) NewSubscription(channels, channelGroups []string) *Subscription {
	sub := newSubscription(channels, channelGroups, m.ListenerBuffer)
	sub.onClose = m.unregister
	m.Register(sub)
	return sub
}

// Register appends a listener.
func (m *Manager) Register(sub *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, sub)
}

// Unregister removes a listener by id.
func (m *Manager) Unregister(sub *Subscription) {
	m.unregister(sub)
}

func (m *Manager) unregister(sub *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, registered := range m.listeners {
		if registered.id == sub.id {
			last := len(m.listeners) - 1
			m.listeners[i] = m.listeners[last]
			m.listeners[last] = nil
			m.listeners = m.listeners[:last]
			return
		}
	}
}

// NotifyStatus fans a status change out to every listener.
func (m *Manager) NotifyStatus(status Status) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, listener := range m.listeners {
		listener.notifyStatus(status)
	}
}

// NotifyMessages routes each update to the listeners whose channel set
// contains the update's channel.
func (m *Manager) NotifyMessages(updates []types.Update) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, update := range updates {
		channel := update.UpdateChannel()
		for _, listener := range m.listeners {
			if listener.wantsChannel(channel) {
				listener.notifyUpdate(update)
			}
		}
	}
}

// Listeners returns the number of registered listeners.
func (m *Manager) Listeners() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.listeners)
}
