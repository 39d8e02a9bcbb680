package portal

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"
)

// ErrClosed is returned by Monitor when the mux has been closed.
var ErrClosed = errors.New("portal mux closed")

// Mux fans notifications from a single Source out to multiple subscribers.
// Slow subscribers are skipped rather than blocking delivery to the rest, so
// every subscriber channel should be drained promptly.
type Mux struct {
	source Source

	subscribers  map[string]chan Notification
	subscriberMu sync.Mutex

	closing   bool
	closingMu sync.Mutex
}

// NewMux creates a Mux backed by the given source.
func NewMux(source Source) *Mux {
	return &Mux{
		source:      source,
		subscribers: make(map[string]chan Notification),
	}
}

// Subscribe creates a new channel for receiving notifications. The returned
// ID identifies the subscription when unsubscribing.
func (m *Mux) Subscribe() (string, chan Notification) {
	id := uuid.NewString()
	ch := make(chan Notification, 16)
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	m.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (m *Mux) Unsubscribe(id string) {
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	if ch, ok := m.subscribers[id]; ok {
		close(ch)
		delete(m.subscribers, id)
	}
}

// Monitor reads notifications from the source and delivers them to
// subscribers until the source is exhausted or the context is cancelled.
// In-flight notifications are discarded once shutdown begins.
func (m *Mux) Monitor(ctx context.Context) error {
	notifChan := make(chan Notification)
	errChan := make(chan error, 1)

	// read from the source in a goroutine so a blocking Next cannot
	// interfere with the outer loop awaiting context cancellation.
	go func() {
		defer close(notifChan)
		for {
			n, err := m.source.Next(ctx)
			if err != nil {
				if !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
					select {
					case errChan <- err:
					case <-ctx.Done():
					}
				}
				return
			}
			select {
			case notifChan <- n:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-errChan:
			return err

		case n, ok := <-notifChan:
			if !ok {
				return nil
			}

			m.closingMu.Lock()
			if m.closing {
				m.closingMu.Unlock()
				return ErrClosed
			}
			m.closingMu.Unlock()

			m.subscriberMu.Lock()
			for _, ch := range m.subscribers {
				select {
				case ch <- n:
				default:
					// subscriber is full; skip so the loop never blocks
				}
			}
			m.subscriberMu.Unlock()
		}
	}
}

// Close closes all subscriber channels and the underlying source.
func (m *Mux) Close() error {
	m.closingMu.Lock()
	m.closing = true
	m.closingMu.Unlock()

	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	for id, ch := range m.subscribers {
		close(ch)
		delete(m.subscribers, id)
	}
	return m.source.Close()
}
