// Package attack holds attack message types: the flavor text shown when
// an attack of that type kills, misses, hits, or meets an immortal.
package attack

import (
	"slices"

	"github.com/crystal-mush/empireolc/pkg/proto"
)

const DefaultName = "Unnamed Attack"

// None is the counts-as value meaning "no other attack type".
const None proto.Vnum = 0

const (
	FlagInDevelopment proto.Bitvector = 1 << iota
)

var FlagNames = []string{"IN-DEVELOPMENT"}

// Message outcomes, in file order.
const (
	MsgDie = iota
	MsgMiss
	MsgHit
	MsgGod
	NumOutcomes
)

// Message audiences.
const (
	ToChar = iota
	ToVict
	ToRoom
	NumAudiences
)

// NumLines is the number of lines in one message set.
const NumLines = NumOutcomes * NumAudiences

// LineNames are the editor names of each line, by index.
var LineNames = [NumLines]string{
	"die2char", "die2vict", "die2room",
	"miss2char", "miss2vict", "miss2room",
	"hit2char", "hit2vict", "hit2room",
	"god2char", "god2vict", "god2room",
}

// Line returns the index of an outcome/audience pair.
func Line(outcome, audience int) int {
	return outcome*NumAudiences + audience
}

// MessageSet is one full set of lines; "" means no message.
type MessageSet [NumLines]string

// Preview is the line shown in list views: the first attacker line,
// falling back to the first room line.
func (m MessageSet) Preview() string {
	order := []int{MsgHit, MsgDie, MsgMiss, MsgGod}
	for _, aud := range []int{ToChar, ToRoom} {
		for _, out := range order {
			if s := m[Line(out, aud)]; s != "" {
				return s
			}
		}
	}
	return ""
}

// Attack is an attack message type.
type Attack struct {
	vnum     proto.Vnum
	Name     string
	Flags    proto.Bitvector
	CountsAs proto.Vnum
	Messages []MessageSet
}

func New(v proto.Vnum) *Attack {
	return &Attack{vnum: v, Name: DefaultName, Flags: FlagInDevelopment, CountsAs: None}
}

func (a *Attack) Vnum() proto.Vnum     { return a.vnum }
func (a *Attack) SetVnum(v proto.Vnum) { a.vnum = v }
func (a *Attack) InDevelopment() bool  { return a.Flags.Has(FlagInDevelopment) }

func (a *Attack) assign(src *Attack) {
	a.vnum = src.vnum
	a.Name = src.Name
	a.Flags = src.Flags
	a.CountsAs = src.CountsAs
	// MessageSet is an array, so cloning the slice copies every line.
	a.Messages = slices.Clone(src.Messages)
}
