// Package notification holds the single result message shown after an action.
package notification

import "sync"

// Notifier is a single-slot message holder. A new message replaces the
// current one; there is no queue.
type Notifier struct {
	mu      sync.RWMutex
	message string
	visible bool
	shown   uint64
}

// New creates an empty notifier.
func New() *Notifier {
	return &Notifier{}
}

// Show displays msg, replacing anything currently shown.
func (n *Notifier) Show(msg string) {
	n.mu.Lock()
	n.message = msg
	n.visible = true
	n.shown++
	n.mu.Unlock()
}

// Dismiss hides the current message. Safe to call at any time.
func (n *Notifier) Dismiss() {
	n.mu.Lock()
	n.message = ""
	n.visible = false
	n.mu.Unlock()
}

// Current returns the visible message, if any.
func (n *Notifier) Current() (string, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.message, n.visible
}

// Count is the number of messages shown so far. The front end uses it to
// detect a new message without diffing text.
func (n *Notifier) Count() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.shown
}
