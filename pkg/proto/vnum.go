// Package proto holds the vnum-indexed prototype store shared by every
// OLC record type, plus the small name-matching and flag helpers that the
// editors and search commands build on.
package proto

import "strconv"

// Vnum is the stable numeric identifier of a prototype within its kind.
type Vnum int

// Nothing is the "unset" vnum. Negative vnums are never stored.
const Nothing Vnum = -1

// String returns the vnum in decimal, or "none" for Nothing.
func (v Vnum) String() string {
	if v < 0 {
		return "none"
	}
	return strconv.Itoa(int(v))
}

// Zone returns the 100-vnum block this vnum belongs to.
func (v Vnum) Zone() int {
	return int(v) / 100
}

// Kind identifies a record type. The same vnum may exist independently
// under several kinds.
type Kind int

const (
	KindArchetype Kind = iota
	KindClass
	KindAttack
	KindRoomTemplate
	KindSocial

	// External kinds are owned by other subsystems and only consulted
	// through lookups.
	KindObject
	KindMobile
	KindVehicle
	KindAbility
	KindSkill
	KindSector
	KindBuilding
	KindTrigger
	KindQuest
	KindAdventure
	KindGeneric
)

var kindNames = map[Kind]string{
	KindArchetype:    "archetype",
	KindClass:        "class",
	KindAttack:       "attack",
	KindRoomTemplate: "roomtemplate",
	KindSocial:       "social",
	KindObject:       "object",
	KindMobile:       "mobile",
	KindVehicle:      "vehicle",
	KindAbility:      "ability",
	KindSkill:        "skill",
	KindSector:       "sector",
	KindBuilding:     "building",
	KindTrigger:      "trigger",
	KindQuest:        "quest",
	KindAdventure:    "adventure",
	KindGeneric:      "generic",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseKind resolves a kind by name or unambiguous abbreviation. An
// abbreviation shared by two kinds, like "a", resolves to nothing.
func ParseKind(s string) (Kind, bool) {
	var found []Kind
	for _, k := range AllKinds() {
		if FoldEqual(s, k.String()) {
			return k, true
		}
		if IsAbbrev(s, k.String()) {
			found = append(found, k)
		}
	}
	if len(found) != 1 {
		return 0, false
	}
	return found[0], true
}

// AllKinds lists kinds in declaration order.
func AllKinds() []Kind {
	out := make([]Kind, 0, len(kindNames))
	for k := KindArchetype; k <= KindGeneric; k++ {
		out = append(out, k)
	}
	return out
}

// Record is implemented by every prototype type.
type Record interface {
	Vnum() Vnum
	SetVnum(v Vnum)
	InDevelopment() bool
}
