// Package notifier fans out update pings to SSE listeners. A ping
// carries no payload; listeners re-read the store or the pipeline
// cache when one arrives.
package notifier

import "sync"

// Notifier broadcasts update signals to all subscribed listeners.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan struct{}]struct{}
}

// New creates an empty Notifier.
func New() *Notifier {
	return &Notifier{listeners: make(map[chan struct{}]struct{})}
}

// Subscribe returns a channel that receives a ping per broadcast. The
// caller must Unsubscribe when done.
func (n *Notifier) Subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(ch chan struct{}) {
	n.mu.Lock()
	delete(n.listeners, ch)
	n.mu.Unlock()
	close(ch)
}

// Broadcast pings every listener. Listeners with a pending ping are
// skipped; they will re-read current state anyway.
func (n *Notifier) Broadcast() {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
