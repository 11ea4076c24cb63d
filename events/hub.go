// Package events provides the in-process broadcast hub that decouples the
// domain services from their delivery transport. Services emit named events;
// the SSE controller subscribes and streams them to connected clients.
package events

import "sync"

// Topics emitted by the domain services.
const (
	TopicProgressUpdate = "progress:update"
	TopicWinNew         = "win:new"
	TopicWinLike        = "win:like"
)

// Event is a single published message. UserID is empty for public fan-out
// events and set for events addressed to one user's subscribers.
type Event struct {
	Topic   string `json:"topic"`
	UserID  string `json:"-"`
	Payload any    `json:"payload"`
}

// Emitter is the narrow interface the services depend on.
type Emitter interface {
	Emit(topic, userID string, payload any)
}

// Subscriber receives events for one connected client. Events arrive on C;
// slow consumers are dropped rather than blocking publishers.
type Subscriber struct {
	userID string
	C      chan Event
}

// Hub fans events out to subscribers. Safe for concurrent use.
type Hub struct {
	mu   sync.RWMutex
	subs map[*Subscriber]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscriber]struct{})}
}

// Subscribe registers a client. userID scopes delivery of addressed events;
// public events reach every subscriber regardless.
func (h *Hub) Subscribe(userID string) *Subscriber {
	sub := &Subscriber{userID: userID, C: make(chan Event, 16)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Unsubscribe removes a client. The subscriber's channel is not closed so a
// concurrent Emit can never send on a closed channel; the reader just stops
// draining it.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
}

// Emit publishes an event. Addressed events (userID != "") go only to that
// user's subscribers; broadcast events go to everyone. Sends never block: a
// subscriber with a full buffer misses the event.
func (h *Hub) Emit(topic, userID string, payload any) {
	ev := Event{Topic: topic, UserID: userID, Payload: payload}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs {
		if userID != "" && sub.userID != userID {
			continue
		}
		select {
		case sub.C <- ev:
		default:
		}
	}
}

// NopEmitter discards all events. Handy for batch jobs and tests that do not
// care about delivery.
type NopEmitter struct{}

func (NopEmitter) Emit(string, string, any) {}
