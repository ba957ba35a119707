// Package notify holds the fire-and-forget notification sinks. A sink
// failure is logged and dropped; nothing in the registration path ever
// blocks on or fails because of a notification.
package notify

import (
	"context"
	"log"
	"time"
)

type Sink interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Async fires a send in the background with its own deadline. Safe on a
// nil sink.
func Async(sink Sink, to, subject, body string) {
	if sink == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		if err := sink.Send(ctx, to, subject, body); err != nil {
			log.Printf("notify: %v", err)
		}
	}()
}
