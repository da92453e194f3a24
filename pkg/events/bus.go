// Package events is the pub/sub bus that carries OLC notices to editing
// sessions and commit/delete notifications to interested subsystems.
package events

import (
	"sync"

	"github.com/google/uuid"
)

// Subscriber receives events from the bus.
type Subscriber interface {
	Receive(ev Event)
	Closed() bool
}

// Bus routes events to editing sessions, one subscriber each, and to
// watchers that see every event.
type Bus struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]Subscriber
	watchers []Subscriber
}

func NewBus() *Bus {
	return &Bus{sessions: make(map[uuid.UUID]Subscriber)}
}

// Subscribe attaches sub as the receiver for session, replacing any
// earlier one.
func (b *Bus) Subscribe(session uuid.UUID, sub Subscriber) {
	b.mu.Lock()
	b.sessions[session] = sub
	b.mu.Unlock()
}

// Unsubscribe drops session's receiver if it is still sub.
func (b *Bus) Unsubscribe(session uuid.UUID, sub Subscriber) {
	b.mu.Lock()
	if b.sessions[session] == sub {
		delete(b.sessions, session)
	}
	b.mu.Unlock()
}

// SubscribeGlobal registers a subscriber that receives all events.
func (b *Bus) SubscribeGlobal(sub Subscriber) {
	b.mu.Lock()
	b.watchers = append(b.watchers, sub)
	b.mu.Unlock()
}

// Sessions reports how many sessions are subscribed.
func (b *Bus) Sessions() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sessions)
}

// Emit delivers ev to the session named in ev.Session, if any, then to
// every watcher. Delivery is synchronous and happens without the lock.
func (b *Bus) Emit(ev Event) {
	b.mu.RLock()
	target := b.sessions[ev.Session]
	watchers := b.watchers
	b.mu.RUnlock()

	if target != nil {
		deliver(target, ev)
	}
	for _, s := range watchers {
		deliver(s, ev)
	}
}

// Notify sends a text notice to one session.
func (b *Bus) Notify(session uuid.UUID, text string) {
	b.Emit(Event{Type: EvNotice, Session: session, Text: text})
}

// Broadcast delivers a copy of ev to every session, stamped with that
// session's id, and the unstamped event to every watcher.
func (b *Bus) Broadcast(ev Event) {
	b.mu.RLock()
	ids := make([]uuid.UUID, 0, len(b.sessions))
	subs := make([]Subscriber, 0, len(b.sessions))
	for id, s := range b.sessions {
		ids = append(ids, id)
		subs = append(subs, s)
	}
	watchers := b.watchers
	b.mu.RUnlock()

	for i, s := range subs {
		stamped := ev
		stamped.Session = ids[i]
		deliver(s, stamped)
	}
	for _, s := range watchers {
		deliver(s, ev)
	}
}

func deliver(s Subscriber, ev Event) {
	if !s.Closed() {
		s.Receive(ev)
	}
}

// Func adapts a function to Subscriber. It never closes.
type Func func(ev Event)

func (f Func) Receive(ev Event) { f(ev) }
func (f Func) Closed() bool     { return false }
