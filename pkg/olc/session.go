package olc

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/crystal-mush/empireolc/pkg/events"
	"github.com/crystal-mush/empireolc/pkg/proto"
	"github.com/google/uuid"
)

// Access levels that matter to OLC.
const (
	LevelBuilder             = 3
	LevelUnrestrictedBuilder = 5
	LevelImplementor         = 7
)

// Pager delivers a block of text to a user, paginating as needed.
type Pager interface {
	Page(text string)
}

// WriterPager pages straight to an io.Writer with no length cap.
type WriterPager struct {
	W io.Writer
}

func (p WriterPager) Page(text string) {
	io.WriteString(p.W, text)
}

// editState is the scratch copy held while a session edits a record.
type editState struct {
	kind     proto.Kind
	vnum     proto.Vnum
	scratch  any
	revision uint64
	isNew    bool
}

// Session is one user's OLC state: who they are, what they may do, and
// the scratch record they are editing, if any.
type Session struct {
	ID     uuid.UUID
	Player string
	Level  int
	// ClearInDev lets a restricted builder remove IN-DEVELOPMENT.
	ClearInDev bool
	// Cursor selects a sub-record inside the scratch (e.g. an attack
	// message set); 0 means none.
	Cursor int

	mu      sync.Mutex
	edit    *editState
	pager   Pager
	notices []string
	text    *textCapture
	closed  bool
}

// NewSession creates a session for player at the given access level.
func NewSession(player string, level int, pager Pager) *Session {
	return &Session{
		ID:     uuid.New(),
		Player: player,
		Level:  level,
		pager:  pager,
	}
}

// Editing reports what the session is editing.
func (s *Session) Editing() (proto.Kind, proto.Vnum, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.edit == nil {
		return 0, proto.Nothing, false
	}
	return s.edit.kind, s.edit.vnum, true
}

// Scratch returns the record being edited, or nil.
func (s *Session) Scratch() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.edit == nil {
		return nil
	}
	return s.edit.scratch
}

func (s *Session) state() *editState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edit
}

func (s *Session) begin(st *editState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edit = st
	s.Cursor = 0
	s.text = nil
}

func (s *Session) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.edit = nil
	s.Cursor = 0
	s.text = nil
}

// CanClearInDev reports whether the session may remove IN-DEVELOPMENT.
func (s *Session) CanClearInDev() bool {
	return s.Level >= LevelUnrestrictedBuilder || s.ClearInDev
}

// Printf sends formatted text to the user.
func (s *Session) Printf(format string, args ...interface{}) {
	s.Page(fmt.Sprintf(format, args...))
}

// Page sends text to the user through the session's pager.
func (s *Session) Page(text string) {
	if s.pager == nil {
		return
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	s.pager.Page(text)
}

// Receive queues bus notices; it makes Session an events.Subscriber.
func (s *Session) Receive(ev events.Event) {
	if ev.Text == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, ev.Text)
}

// Closed reports whether the session has been closed.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close marks the session closed so the bus stops delivering to it.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Notices returns and clears queued notices.
func (s *Session) Notices() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.notices
	s.notices = nil
	return out
}
