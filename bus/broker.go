// Package bus binds the streaming engine to a message-bus transport. The
// transport's own pub/sub and request/reply primitives live outside this
// process; this package ships Embedded, an in-process implementation so
// Agent is runnable and testable standalone. Embedded keeps subscribers and
// handlers in mutex-guarded maps keyed by subject and calls them
// synchronously.
package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"
)

// Broker is the transport surface the Agent consumes: fire-and-forget
// publish/subscribe for events, and request/reply for commands.
type Broker interface {
	Publish(subject string, payload []byte) error
	Subscribe(subject string, handler func(subject string, payload []byte)) (unsubscribe func())
	RegisterHandler(subject string, handler CommandHandler) (unregister func())
	Request(ctx context.Context, subject string, payload []byte) ([]byte, error)
}

// CommandHandler answers a request/reply call. Embedded.Request returns a
// handler's reply and error to the requester unchanged; it does not recover
// from a handler panic.
type CommandHandler func(ctx context.Context, payload []byte) ([]byte, error)

type subscription struct {
	id      string
	handler func(subject string, payload []byte)
}

// Embedded is a single-process Broker: publishes fan out synchronously to
// subscribers of the same subject, and requests invoke the one registered
// handler for that subject directly. It exists to run the Agent without a
// real bus connection.
type Embedded struct {
	mu       sync.RWMutex
	subs     map[string][]subscription
	handlers map[string]CommandHandler
}

func NewEmbedded() *Embedded {
	return &Embedded{
		subs:     make(map[string][]subscription),
		handlers: make(map[string]CommandHandler),
	}
}

func (e *Embedded) Publish(subject string, payload []byte) error {
	e.mu.RLock()
	subs := append([]subscription(nil), e.subs[subject]...)
	e.mu.RUnlock()

	for _, s := range subs {
		s.handler(subject, payload)
	}
	return nil
}

func (e *Embedded) Subscribe(subject string, handler func(subject string, payload []byte)) (unsubscribe func()) {
	id, err := uuid.NewV4()
	sid := id.String()
	if err != nil {
		sid = subject // degrade gracefully rather than fail a subscribe call
	}

	e.mu.Lock()
	e.subs[subject] = append(e.subs[subject], subscription{id: sid, handler: handler})
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		list := e.subs[subject]
		for i, s := range list {
			if s.id == sid {
				e.subs[subject] = append(list[:i], list[i+1:]...)
				break
			}
		}
	}
}

func (e *Embedded) RegisterHandler(subject string, handler CommandHandler) (unregister func()) {
	e.mu.Lock()
	e.handlers[subject] = handler
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.handlers, subject)
	}
}

func (e *Embedded) Request(ctx context.Context, subject string, payload []byte) ([]byte, error) {
	e.mu.RLock()
	handler, ok := e.handlers[subject]
	e.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("bus: no handler registered for %s", subject)
	}
	return handler(ctx, payload)
}
