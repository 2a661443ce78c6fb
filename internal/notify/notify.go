// Package notify delivers the outcome of a run to the user.
package notify

import (
	"context"
)

// Notifier delivers a message, it reports whether the message was delivered.
// Delivery failures are reported by the notifier itself and never returned.
type Notifier interface {
	Send(ctx context.Context, title, body string) bool
}

// Multi sends every message to all of its notifiers.
type Multi []Notifier

// Send returns true if at least one notifier delivered the message.
func (m Multi) Send(ctx context.Context, title, body string) bool {
	delivered := false
	for _, n := range m {
		if n.Send(ctx, title, body) {
			delivered = true
		}
	}
	return delivered
}

// Recorder is a Notifier that keeps every message, Delivered decides the
// return value of Send.
type Recorder struct {
	Delivered bool
	Messages  []Message
}

func (r *Recorder) Send(ctx context.Context, title, body string) bool {
	r.Messages = append(r.Messages, Message{Title: title, Body: body})
	return r.Delivered
}
