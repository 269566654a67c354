package extension

import (
	"sync"

	"promptpilot.app/cloud/internal/logger"
)

// Notifier fans entitlement changes out from the background service to every
// active UI context. Delivery is best-effort: a context that is gone or not
// draining its channel just misses the message and re-syncs from the cache
// the next time it asks.
type Notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Message
}

func NewNotifier() *Notifier {
	return &Notifier{
		subs: make(map[int]chan Message),
	}
}

// Subscribe registers a context. The returned cancel func must be called
// when the context goes away.
func (n *Notifier) Subscribe(buffer int) (<-chan Message, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++

	ch := make(chan Message, buffer)
	n.subs[id] = ch

	cancel := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if _, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(ch)
		}
	}

	return ch, cancel
}

// Broadcast sends msg to all subscribers without blocking. Failures are
// swallowed, never retried.
func (n *Notifier) Broadcast(msg Message) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for id, ch := range n.subs {
		select {
		case ch <- msg:
		default:
			logger.Debug("Dropped broadcast to slow context", map[string]interface{}{
				"subscriber": id,
				"type":       string(msg.Type),
			})
		}
	}
}

func (n *Notifier) SubscriberCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}
