package olc

import (
	"github.com/crystal-mush/empireolc/pkg/proto"
)

// Relation is one registered back-reference: records of kind Holder that
// point at records of kind Target.
type Relation interface {
	Holder() proto.Kind
	Target() proto.Kind
	Label() string
	// Notice is sent to a session whose scratch record was fixed up.
	Notice() string
	// FlagInDev marks holders IN-DEVELOPMENT when a reference is cleared.
	FlagInDev() bool
	Uses(rec any, v proto.Vnum) bool
	// Clear drops every reference to v from rec, reporting whether any
	// were found.
	Clear(rec any, v proto.Vnum) bool
}

// Ref builds a Relation from typed functions.
type Ref[T proto.Record] struct {
	From, To proto.Kind
	Field    string
	Message  string
	InDev    bool
	Has      func(rec T, v proto.Vnum) bool
	Drop     func(rec T, v proto.Vnum) bool
}

func (r Ref[T]) Holder() proto.Kind { return r.From }
func (r Ref[T]) Target() proto.Kind { return r.To }
func (r Ref[T]) Label() string      { return r.Field }
func (r Ref[T]) Notice() string     { return r.Message }
func (r Ref[T]) FlagInDev() bool    { return r.InDev }

func (r Ref[T]) Uses(rec any, v proto.Vnum) bool {
	t, ok := rec.(T)
	return ok && r.Has(t, v)
}

func (r Ref[T]) Clear(rec any, v proto.Vnum) bool {
	t, ok := rec.(T)
	if !ok || r.Drop == nil {
		return false
	}
	return r.Drop(t, v)
}

// Hit is one live record that refers to a target.
type Hit struct {
	Kind  proto.Kind
	Vnum  proto.Vnum
	Label string
	Line  string
}
