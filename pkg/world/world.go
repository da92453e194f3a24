// Package world wires the OLC tables, their back-references and the game
// config into one explicitly constructed value.
package world

import (
	"path/filepath"

	"github.com/crystal-mush/empireolc/pkg/archetype"
	"github.com/crystal-mush/empireolc/pkg/attack"
	"github.com/crystal-mush/empireolc/pkg/audit"
	"github.com/crystal-mush/empireolc/pkg/class"
	"github.com/crystal-mush/empireolc/pkg/events"
	"github.com/crystal-mush/empireolc/pkg/gameconfig"
	"github.com/crystal-mush/empireolc/pkg/libfile"
	"github.com/crystal-mush/empireolc/pkg/olc"
	"github.com/crystal-mush/empireolc/pkg/proto"
	"github.com/crystal-mush/empireolc/pkg/roomtmpl"
	"github.com/crystal-mush/empireolc/pkg/social"
)

// External resolves kinds owned by other subsystems: objects, mobs,
// skills and so on, plus adventure zone ranges.
type External interface {
	Exists(kind proto.Kind, v proto.Vnum) bool
	AdventureFor(v proto.Vnum) (audit.Range, bool)
}

// LiveHooks refresh live game state that caches data from prototypes.
type LiveHooks interface {
	// ClassChanged is called after a class is saved so players of that
	// class can recompute their abilities.
	ClassChanged(v proto.Vnum)
}

// Options configure a World.
type Options struct {
	// LibDir is the library root; each kind lives in a subdirectory
	// named for it. Empty keeps everything in memory.
	LibDir   string
	Config   *gameconfig.Config
	External External
	Hooks    LiveHooks
	Bus      *events.Bus
}

// World owns every prototype table and the registry that edits them.
type World struct {
	Registry      *olc.Registry
	Config        *gameconfig.Config
	Archetypes    *olc.Table[*archetype.Archetype]
	Classes       *olc.Table[*class.Class]
	Attacks       *olc.Table[*attack.Attack]
	RoomTemplates *olc.Table[*roomtmpl.RoomTemplate]
	Socials       *olc.Table[*social.Social]

	external     External
	hooks        LiveHooks
	tables       []olc.AnyTable
	bootFindings []audit.Finding
}

// New builds the tables and registers every relation. Nothing is read
// from disk until Boot.
func New(opts Options) *World {
	lib := func(kind proto.Kind, suffix string, allowEmpty bool) *libfile.Library {
		if opts.LibDir == "" {
			return nil
		}
		return libfile.New(filepath.Join(opts.LibDir, kind.String()), suffix, allowEmpty)
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = gameconfig.Standard()
	}

	w := &World{
		Registry:      olc.NewRegistry(opts.Bus),
		Config:        cfg,
		Archetypes:    archetype.NewTable(lib(proto.KindArchetype, archetype.Suffix, true)),
		Classes:       class.NewTable(lib(proto.KindClass, class.Suffix, true)),
		Attacks:       attack.NewTable(lib(proto.KindAttack, attack.Suffix, true)),
		RoomTemplates: roomtmpl.NewTable(lib(proto.KindRoomTemplate, roomtmpl.Suffix, false)),
		Socials:       social.NewTable(lib(proto.KindSocial, social.Suffix, true)),
		external:      opts.External,
		hooks:         opts.Hooks,
	}
	w.tables = []olc.AnyTable{w.Archetypes, w.Classes, w.Attacks, w.RoomTemplates, w.Socials}
	for _, t := range w.tables {
		w.Registry.AddTable(t)
	}

	var rels []olc.Relation
	rels = append(rels, archetype.Relations()...)
	rels = append(rels, class.Relations()...)
	rels = append(rels, attack.Relations()...)
	rels = append(rels, roomtmpl.Relations()...)
	rels = append(rels, social.Relations()...)
	for _, rel := range rels {
		w.Registry.Register(rel)
	}
	w.Registry.SetLookup(w)

	w.Classes.OnCommit(func(c *class.Class) {
		if w.hooks != nil {
			w.hooks.ClassChanged(c.Vnum())
		}
	})
	return w
}

// Tables returns every table in registration order.
func (w *World) Tables() []olc.AnyTable {
	return append([]olc.AnyTable(nil), w.tables...)
}

// Bus is the event bus shared by the registry and its sessions.
func (w *World) Bus() *events.Bus { return w.Registry.Bus() }

// Observe attaches a commit/delete observer such as a mirror or log.
func (w *World) Observe(o olc.Observer) { w.Registry.Observe(o) }

// Do runs fn under the registry's writer lock. Readers outside the
// command loop use it to see prototypes between commits.
func (w *World) Do(fn func()) { w.Registry.Do(fn) }

// GetByVnum resolves a prototype for the live game.
func (w *World) GetByVnum(kind proto.Kind, v proto.Vnum) (proto.Record, bool) {
	t, ok := w.Registry.Table(kind)
	if !ok {
		return nil, false
	}
	return t.Get(v)
}

// Exists resolves in-scope kinds from the tables and the rest through
// External. Without an External, other subsystems' kinds are unchecked
// and count as existing.
func (w *World) Exists(kind proto.Kind, v proto.Vnum) bool {
	if t, ok := w.Registry.Table(kind); ok {
		return t.Exists(v)
	}
	if w.external == nil {
		return true
	}
	return w.external.Exists(kind, v)
}

func (w *World) AdventureFor(v proto.Vnum) (audit.Range, bool) {
	if w.external == nil {
		return audit.Range{}, false
	}
	return w.external.AdventureFor(v)
}

// Int reads an integer game setting for the auditor.
func (w *World) Int(key string, fallback int) int {
	return w.Config.IntOr(key, fallback)
}

// OnDelete calls fn after every prototype delete, once the files and
// back-references are updated.
func (w *World) OnDelete(fn func(kind proto.Kind, v proto.Vnum)) {
	w.Bus().SubscribeGlobal(deleteHook(fn))
}

type deleteHook func(kind proto.Kind, v proto.Vnum)

func (h deleteHook) Receive(ev events.Event) {
	if ev.Type == events.EvDeleted {
		h(ev.Kind, ev.Vnum)
	}
}

func (deleteHook) Closed() bool { return false }
