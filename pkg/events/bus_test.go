package events

import (
	"sync"
	"testing"

	"github.com/crystal-mush/empireolc/pkg/proto"
	"github.com/google/uuid"
)

// mockSubscriber implements Subscriber for testing.
type mockSubscriber struct {
	mu       sync.Mutex
	events   []Event
	isClosed bool
}

func (m *mockSubscriber) Receive(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

func (m *mockSubscriber) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isClosed
}

func (m *mockSubscriber) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]Event, len(m.events))
	copy(cp, m.events)
	return cp
}

func TestBusNotifySession(t *testing.T) {
	bus := NewBus()
	mine, other := &mockSubscriber{}, &mockSubscriber{}
	me, them := uuid.New(), uuid.New()
	bus.Subscribe(me, mine)
	bus.Subscribe(them, other)

	bus.Notify(me, "An attack type used by the ability you're editing was deleted.")

	events := mine.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Type != EvNotice {
		t.Errorf("expected EvNotice, got %v", events[0].Type)
	}
	if len(other.Events()) != 0 {
		t.Error("notice leaked to another session")
	}
}

func TestBusGlobalSubscriber(t *testing.T) {
	bus := NewBus()
	global := &mockSubscriber{}
	bus.SubscribeGlobal(global)

	bus.Emit(Event{Type: EvDeleted, Kind: proto.KindAttack, Vnum: 100})

	events := global.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 global event, got %d", len(events))
	}
	if events[0].Kind != proto.KindAttack || events[0].Vnum != 100 {
		t.Errorf("unexpected event %+v", events[0])
	}
}

func TestBusBroadcast(t *testing.T) {
	bus := NewBus()
	a, b := &mockSubscriber{}, &mockSubscriber{}
	ida, idb := uuid.New(), uuid.New()
	bus.Subscribe(ida, a)
	bus.Subscribe(idb, b)

	bus.Broadcast(Event{Type: EvFileChanged, Path: "lib/socials/1.soc"})

	if len(a.Events()) != 1 || a.Events()[0].Session != ida {
		t.Errorf("session a: %+v", a.Events())
	}
	if len(b.Events()) != 1 || b.Events()[0].Session != idb {
		t.Errorf("session b: %+v", b.Events())
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus()
	sub := &mockSubscriber{}
	id := uuid.New()

	bus.Subscribe(id, sub)
	bus.Unsubscribe(id, sub)

	bus.Notify(id, "should not arrive")

	if len(sub.Events()) != 0 {
		t.Error("expected no events after unsubscribe")
	}
}

func TestBusClosedSubscriberSkipped(t *testing.T) {
	bus := NewBus()
	sub := &mockSubscriber{isClosed: true}
	id := uuid.New()

	bus.Subscribe(id, sub)
	bus.Notify(id, "no delivery")

	if len(sub.Events()) != 0 {
		t.Error("closed subscriber should not receive events")
	}
}

func TestBusResubscribeReplaces(t *testing.T) {
	bus := NewBus()
	old, cur := &mockSubscriber{}, &mockSubscriber{}
	id := uuid.New()

	bus.Subscribe(id, old)
	bus.Subscribe(id, cur)
	bus.Unsubscribe(id, old)
	if bus.Sessions() != 1 {
		t.Fatalf("stale unsubscribe removed the live receiver")
	}

	bus.Notify(id, "The class you are editing was deleted.")
	if len(old.Events()) != 0 || len(cur.Events()) != 1 {
		t.Errorf("old=%d cur=%d", len(old.Events()), len(cur.Events()))
	}
}

func TestEmitWithoutSessionReachesOnlyWatchers(t *testing.T) {
	bus := NewBus()
	sess, watcher := &mockSubscriber{}, &mockSubscriber{}
	bus.Subscribe(uuid.New(), sess)
	bus.SubscribeGlobal(watcher)

	bus.Emit(Event{Type: EvCommitted, Kind: proto.KindSocial, Vnum: 7})

	if len(sess.Events()) != 0 {
		t.Error("unaddressed event reached a session")
	}
	if len(watcher.Events()) != 1 {
		t.Errorf("watcher got %d events", len(watcher.Events()))
	}
}

func TestEventTypeString(t *testing.T) {
	tests := []struct {
		t    EventType
		want string
	}{
		{EvNotice, "notice"},
		{EvCommitted, "committed"},
		{EvDeleted, "deleted"},
		{EvFileChanged, "file_changed"},
		{EventType(999), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.t.String(); got != tt.want {
			t.Errorf("EventType(%d).String() = %q, want %q", tt.t, got, tt.want)
		}
	}
}
