package olc

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/crystal-mush/empireolc/pkg/audit"
	"github.com/crystal-mush/empireolc/pkg/events"
	"github.com/crystal-mush/empireolc/pkg/proto"
	"github.com/google/uuid"
)

// Observer is told about every commit and delete, after the files are
// written. sess is nil for deletes made outside OLC.
type Observer interface {
	Committed(sess *Session, kind proto.Kind, rec proto.Record)
	Deleted(sess *Session, kind proto.Kind, v proto.Vnum)
}

// Registry owns every table, the back-reference relations and the active
// sessions. All OLC commands go through it and run one at a time.
type Registry struct {
	mu        sync.Mutex
	tables    map[proto.Kind]AnyTable
	order     []proto.Kind
	relations []Relation
	sessions  map[uuid.UUID]*Session
	observers []Observer
	bus       *events.Bus
	lookup    audit.Context
}

// NewRegistry creates an empty registry publishing on bus.
func NewRegistry(bus *events.Bus) *Registry {
	if bus == nil {
		bus = events.NewBus()
	}
	return &Registry{
		tables:   make(map[proto.Kind]AnyTable),
		sessions: make(map[uuid.UUID]*Session),
		bus:      bus,
	}
}

// Bus returns the registry's event bus.
func (r *Registry) Bus() *events.Bus { return r.bus }

// SetLookup sets the world view used by field commands.
func (r *Registry) SetLookup(ctx audit.Context) { r.lookup = ctx }

// AddTable registers a table under its kind.
func (r *Registry) AddTable(t AnyTable) {
	if _, ok := r.tables[t.Kind()]; !ok {
		r.order = append(r.order, t.Kind())
	}
	r.tables[t.Kind()] = t
}

// Table returns the table for kind.
func (r *Registry) Table(kind proto.Kind) (AnyTable, bool) {
	t, ok := r.tables[kind]
	return t, ok
}

// Kinds lists registered kinds in registration order.
func (r *Registry) Kinds() []proto.Kind {
	return append([]proto.Kind(nil), r.order...)
}

// Register adds a back-reference relation.
func (r *Registry) Register(rel Relation) {
	r.relations = append(r.relations, rel)
}

// Relations returns every registered relation.
func (r *Registry) Relations() []Relation {
	return append([]Relation(nil), r.relations...)
}

// Observe adds an observer for commits and deletes.
func (r *Registry) Observe(o Observer) {
	r.observers = append(r.observers, o)
}

// Attach makes sess known for delete fix-ups and subscribes it to the bus.
func (r *Registry) Attach(sess *Session) {
	r.mu.Lock()
	r.sessions[sess.ID] = sess
	r.mu.Unlock()
	r.bus.Subscribe(sess.ID, sess)
}

// Detach forgets sess, dropping any edit in progress.
func (r *Registry) Detach(sess *Session) {
	r.mu.Lock()
	delete(r.sessions, sess.ID)
	r.mu.Unlock()
	sess.end()
	r.bus.Unsubscribe(sess.ID, sess)
}

// Do runs fn while holding the writer lock.
func (r *Registry) Do(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
}

func (r *Registry) table(kind proto.Kind) (AnyTable, error) {
	t, ok := r.tables[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return t, nil
}

// Edit starts editing kind v; v = proto.Nothing picks the next free vnum.
// A vnum with no record starts a new one from defaults.
func (r *Registry) Edit(sess *Session, kind proto.Kind, v proto.Vnum) error {
	return r.begin(sess, kind, v, proto.Nothing)
}

// Copy starts editing a new record at to, copied from from.
func (r *Registry) Copy(sess *Session, kind proto.Kind, from, to proto.Vnum) error {
	if from < 0 {
		return Inputf("Copy which %s?", kind)
	}
	return r.begin(sess, kind, to, from)
}

func (r *Registry) begin(sess *Session, kind proto.Kind, v, from proto.Vnum) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sess.Level < LevelBuilder {
		return ErrPermission
	}
	if _, _, editing := sess.Editing(); editing {
		return ErrAlreadyEditing
	}
	t, err := r.table(kind)
	if err != nil {
		return err
	}
	if v < 0 {
		v = t.NextVnum()
	}
	st, err := t.start(v, from)
	if err != nil {
		return err
	}
	sess.begin(st)
	return nil
}

// Abort drops the scratch record.
func (r *Registry) Abort(sess *Session) error {
	if _, _, editing := sess.Editing(); !editing {
		return ErrNotEditing
	}
	sess.end()
	return nil
}

// Commit saves the session's scratch record and ends the edit. Events
// and observers run after the writer lock is released.
func (r *Registry) Commit(sess *Session) (proto.Record, error) {
	r.mu.Lock()
	st := sess.state()
	if st == nil {
		r.mu.Unlock()
		return nil, ErrNotEditing
	}
	t, err := r.table(st.kind)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	rec, stale, err := t.commitAny(st)
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	sess.end()
	if stale {
		sess.Printf("Warning: %s %d was changed by someone else while you edited it; your version was saved over theirs.", st.kind, st.vnum)
	}
	log.Printf("olc: %s saved %s %d", sess.Player, st.kind, st.vnum)
	r.bus.Emit(events.Event{Type: events.EvCommitted, Session: sess.ID, Kind: st.kind, Vnum: st.vnum, Actor: sess.Player})
	for _, o := range r.observers {
		o.Committed(sess, st.kind, rec)
	}
	return rec, nil
}

// Field runs a field command against the scratch record.
func (r *Registry) Field(sess *Session, name, arg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := sess.state()
	if st == nil {
		return ErrNotEditing
	}
	t, err := r.table(st.kind)
	if err != nil {
		return err
	}
	return t.runField(&Ctx{Session: sess, Vnum: st.vnum, lookup: r.lookup}, st, name, arg)
}

// FieldNames lists the field commands available to sess right now.
func (r *Registry) FieldNames(sess *Session) []string {
	st := sess.state()
	if st == nil {
		return nil
	}
	t, ok := r.tables[st.kind]
	if !ok {
		return nil
	}
	return t.fieldNames(sess.Cursor > 0)
}

// Display renders the scratch record.
func (r *Registry) Display(sess *Session) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := sess.state()
	if st == nil {
		return "", ErrNotEditing
	}
	t, err := r.table(st.kind)
	if err != nil {
		return "", err
	}
	return t.display(sess, st), nil
}

// Delete removes kind v, persists it, and clears every back-reference to
// it in stored records and in other sessions' scratch records.
func (r *Registry) Delete(sess *Session, kind proto.Kind, v proto.Vnum) error {
	if sess != nil && sess.Level < LevelBuilder {
		return ErrPermission
	}
	actor := ""
	if sess != nil {
		actor = sess.Player
	}

	r.mu.Lock()
	err := r.deleteLocked(kind, v, sess)
	r.mu.Unlock()
	if err != nil {
		return err
	}

	log.Printf("olc: %s deleted %s %d", actor, kind, v)
	r.bus.Emit(events.Event{Type: events.EvDeleted, Kind: kind, Vnum: v, Actor: actor})
	for _, o := range r.observers {
		o.Deleted(sess, kind, v)
	}
	return nil
}

func (r *Registry) deleteLocked(kind proto.Kind, v proto.Vnum, sess *Session) error {
	t, err := r.table(kind)
	if err != nil {
		return err
	}
	if _, err := t.remove(v); err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrLastRecord) {
			return err
		}
		return fmt.Errorf("delete %s %d: %w", kind, v, err)
	}
	for _, other := range r.sessions {
		if k, ev, ok := other.Editing(); ok && k == kind && ev == v && other != sess {
			r.bus.Notify(other.ID, fmt.Sprintf("The %s you are editing was deleted.", kind))
		}
	}
	return r.fanOut(kind, v)
}

// Deleted runs the back-reference fix-ups for a record deleted outside
// OLC, such as a skill or an object.
func (r *Registry) Deleted(kind proto.Kind, v proto.Vnum) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fanOut(kind, v)
}

// fanOut clears references to kind v from every holder table and every
// session scratch. It runs with r.mu held.
func (r *Registry) fanOut(kind proto.Kind, v proto.Vnum) error {
	var errs []error
	for _, rel := range r.relations {
		if rel.Target() != kind {
			continue
		}
		holder, ok := r.tables[rel.Holder()]
		if !ok {
			continue
		}
		for _, hv := range holder.Vnums() {
			rec, ok := holder.Get(hv)
			if !ok || !rel.Clear(rec, v) {
				continue
			}
			if rel.FlagInDev() {
				holder.SetInDevelopment(hv)
			}
			if err := holder.Save(hv); err != nil {
				errs = append(errs, err)
			}
			log.Printf("olc: removed %s %d from %s of %s %d", kind, v, rel.Label(), rel.Holder(), hv)
		}
		for _, sess := range r.sessions {
			st := sess.state()
			if st == nil || st.kind != rel.Holder() {
				continue
			}
			if !rel.Clear(st.scratch, v) {
				continue
			}
			if rel.FlagInDev() {
				holder.flagScratch(st.scratch)
			}
			r.bus.Notify(sess.ID, rel.Notice())
		}
	}
	return errors.Join(errs...)
}

// Referrers lists every stored record that refers to kind v.
func (r *Registry) Referrers(kind proto.Kind, v proto.Vnum) []Hit {
	r.mu.Lock()
	defer r.mu.Unlock()
	var hits []Hit
	for _, rel := range r.relations {
		if rel.Target() != kind {
			continue
		}
		holder, ok := r.tables[rel.Holder()]
		if !ok {
			continue
		}
		for _, hv := range holder.Vnums() {
			rec, ok := holder.Get(hv)
			if !ok || !rel.Uses(rec, v) {
				continue
			}
			line, _ := holder.ListLine(hv, false)
			hits = append(hits, Hit{Kind: rel.Holder(), Vnum: hv, Label: rel.Label(), Line: line})
		}
	}
	return hits
}
