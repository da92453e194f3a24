package boltstore

import (
	"log"
	"time"

	"github.com/crystal-mush/empireolc/pkg/olc"
	"github.com/crystal-mush/empireolc/pkg/proto"
)

// Mirror keeps a Store in step with a Registry. Attach it with
// Registry.Observe. Failures are logged; the library files stay the
// source of truth.
type Mirror struct {
	store *Store
	reg   *olc.Registry
}

// NewMirror returns an observer writing reg's commits and deletes to s.
func NewMirror(s *Store, reg *olc.Registry) *Mirror {
	return &Mirror{store: s, reg: reg}
}

// SyncAll mirrors every table in the registry.
func (m *Mirror) SyncAll() error {
	var err error
	m.reg.Do(func() {
		for _, k := range m.reg.Kinds() {
			t, _ := m.reg.Table(k)
			if _, err = m.store.Sync(t); err != nil {
				return
			}
		}
	})
	return err
}

func (m *Mirror) Committed(sess *olc.Session, kind proto.Kind, rec proto.Record) {
	t, ok := m.reg.Table(kind)
	if !ok {
		return
	}
	var text, line string
	m.reg.Do(func() {
		text, ok = t.RecordText(rec.Vnum())
		line, _ = t.ListLine(rec.Vnum(), false)
	})
	if !ok {
		return
	}
	e := Entry{Vnum: int(rec.Vnum()), Summary: line, Text: text, Saved: time.Now().UTC()}
	if sess != nil {
		e.Actor = sess.Player
	}
	if err := m.store.Put(kind, e); err != nil {
		log.Printf("boltstore: mirror %s %d: %v", kind, rec.Vnum(), err)
	}
}

func (m *Mirror) Deleted(sess *olc.Session, kind proto.Kind, v proto.Vnum) {
	if err := m.store.Delete(kind, v); err != nil {
		log.Printf("boltstore: mirror delete %s %d: %v", kind, v, err)
	}
}
