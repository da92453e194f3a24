package events

import (
	"github.com/crystal-mush/empireolc/pkg/proto"
	"github.com/google/uuid"
)

// EventType classifies OLC events.
type EventType int

const (
	EvNotice      EventType = iota // Text for one editing session
	EvCommitted                    // A prototype was saved
	EvDeleted                      // A prototype was deleted
	EvFileChanged                  // A library file changed on disk
	EvAudit                        // An audit finding
)

// String returns a human-readable name for the event type.
func (t EventType) String() string {
	switch t {
	case EvNotice:
		return "notice"
	case EvCommitted:
		return "committed"
	case EvDeleted:
		return "deleted"
	case EvFileChanged:
		return "file_changed"
	case EvAudit:
		return "audit"
	default:
		return "unknown"
	}
}

// Event flows through the bus. Session is the recipient; uuid.Nil means
// broadcast to global subscribers only.
type Event struct {
	Type    EventType
	Session uuid.UUID
	Kind    proto.Kind
	Vnum    proto.Vnum
	Actor   string // Player who caused the event
	Text    string
	Path    string // EvFileChanged
}
