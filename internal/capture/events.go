package capture

import (
	"net/url"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/loopback/internal/shared"
)

// defaultSubscriberBuffer is the queue depth for subscribers that don't ask for one.
const defaultSubscriberBuffer = 16

// EventKind classifies capture events.
type EventKind int

const (
	// EventCaptured carries a redirect that passed validation.
	EventCaptured EventKind = iota
	// EventInvalid carries a connection that failed validation.
	EventInvalid
	// EventListenerLost reports a session whose listening socket failed
	// outside the normal accept/close flow. Emitted once per session.
	EventListenerLost
)

func (k EventKind) String() string {
	switch k {
	case EventCaptured:
		return "redirect-captured"
	case EventInvalid:
		return "redirect-invalid"
	case EventListenerLost:
		return "listener-lost"
	default:
		return "unknown"
	}
}

// Redirect is a validated OAuth redirect captured from one browser connection.
type Redirect struct {
	// RawURL is the original path plus query string, e.g. "/?code=abc&state=xyz".
	RawURL string
	// Query holds the decoded query parameters.
	Query url.Values
}

// Invalid describes a connection that did not parse as a well-formed redirect.
type Invalid struct {
	Reason  string
	Snippet string
}

// Event is delivered to subscribers once per parsed connection, plus once per
// lost listener. Exactly one of Redirect, Invalid, or Err is set, matching Kind.
type Event struct {
	Kind     EventKind
	Port     int
	Redirect *Redirect
	Invalid  *Invalid
	Err      error
}

// Subscription is a registered observer of capture events. Cancel deregisters
// it and closes the event channel; other subscribers are unaffected.
type Subscription struct {
	id     string
	ch     chan Event
	broker *broker
}

// ID returns the subscription's registration handle.
func (s *Subscription) ID() string { return s.id }

// Events returns the channel events are delivered on. The channel is closed by Cancel.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Cancel deregisters the subscription. Safe to call more than once.
func (s *Subscription) Cancel() { s.broker.unsubscribe(s.id) }

// broker fans events out to all current subscribers without ever blocking the
// publishing side.
type broker struct {
	mu     sync.Mutex
	subs   map[string]*Subscription
	logger *log.Logger
}

func newBroker(logger *log.Logger) *broker {
	return &broker{subs: make(map[string]*Subscription), logger: logger}
}

func (b *broker) subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}

	sub := &Subscription{id: shared.GenerateID(), ch: make(chan Event, buffer), broker: b}

	b.mu.Lock()
	b.subs[sub.id] = sub
	b.mu.Unlock()

	return sub
}

func (b *broker) unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(sub.ch)
	}
}

// publish delivers an event to every subscriber whose queue has room. A full
// queue drops the event for that subscriber rather than stalling delivery.
func (b *broker) publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, sub := range b.subs {
		select {
		case sub.ch <- ev:
		default:
			b.logger.Warn("subscriber backlog full, dropping event", "subscriber", sub.id, "kind", ev.Kind.String())
		}
	}
}
