// Package notification delivers watchlist lifecycle events to external
// channels (webhooks, logs). Delivery is fire-and-forget from the session
// coordinator's point of view: a failed send never blocks or fails the
// watchlist mutation that triggered it.
package notification

import (
	"context"
	"log"
)

// Event is a watchlist lifecycle notification.
type Event struct {
	Type     string `json:"type"` // "watchlist_add", "watchlist_remove", "account_deleted"
	Identity string `json:"identity"`
	Symbol   string `json:"symbol,omitempty"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an event. Returns error if delivery fails.
	Send(ctx context.Context, ev Event) error
}

// LogNotifier logs events instead of delivering them (useful for
// development and as the default backend).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(_ context.Context, ev Event) error {
	log.Printf("[notify] %s identity=%s symbol=%s", ev.Type, ev.Identity, ev.Symbol)
	return nil
}
