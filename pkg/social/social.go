// Package social holds emote commands like "smile" and "wave", with the
// messages shown for each way they can be used.
package social

import (
	"slices"

	"github.com/crystal-mush/empireolc/pkg/proto"
)

// Placeholders for fields a builder has not filled in.
const (
	DefaultCommand = "social"
	DefaultName    = "Unnamed Social"
)

// Social flags.
const (
	FlagInDevelopment proto.Bitvector = 1 << iota
	FlagHideIfInvis
)

var FlagNames = []string{"IN-DEVELOPMENT", "HIDE-IF-INVIS"}

// Positions, lowest first.
const (
	PosDead = iota
	PosMortallyWounded
	PosIncapacitated
	PosStunned
	PosSleeping
	PosResting
	PosSitting
	PosFighting
	PosStanding
)

var PositionNames = []string{
	"Dead", "Mortally wounded", "Incapacitated", "Stunned", "Sleeping",
	"Resting", "Sitting", "Fighting", "Standing",
}

// DefaultPosition is the minimum position of a new social.
const DefaultPosition = PosResting

// Message slots.
const (
	MsgNoArgToChar = iota
	MsgNoArgToOthers
	MsgTargetToChar
	MsgTargetToOthers
	MsgTargetToVict
	MsgTargetNotFound
	MsgSelfToChar
	MsgSelfToOthers
	NumMessages
)

// MessageFields are the editor names of each message slot.
var MessageFields = [NumMessages]string{
	"n2char", "n2other", "t2char", "t2other", "t2vict", "tnotfound", "s2char", "s2other",
}

// MessageLabels describe each message slot in the editor display.
var MessageLabels = [NumMessages]string{
	"No-arg to character", "No-arg to others", "Targeted to character",
	"Targeted to others", "Targeted to victim", "Target not found",
	"Self-targeted to character", "Self-targeted to others",
}

// Requirement types.
const (
	ReqCompletedQuest = iota
	ReqGetComponent
	ReqGetObject
	ReqKillMob
	ReqKillMobFlagged
	ReqNotCompletedQuest
	ReqNotOnQuest
	ReqOwnBuilding
	ReqOwnVehicle
	ReqSkillLevelOver
	ReqSkillLevelUnder
	ReqTrigger
	ReqVisitBuilding
	ReqVisitRoomTemplate
	ReqVisitSector
	ReqHaveAbility
	ReqWearing
)

var RequirementNames = []string{
	"COMPLETED-QUEST", "GET-COMPONENT", "GET-OBJECT", "KILL-MOB",
	"KILL-MOB-FLAGGED", "NOT-COMPLETED-QUEST", "NOT-ON-QUEST", "OWN-BUILDING",
	"OWN-VEHICLE", "SKILL-LEVEL-OVER", "SKILL-LEVEL-UNDER", "TRIGGER",
	"VISIT-BUILDING", "VISIT-ROOM-TEMPLATE", "VISIT-SECTOR", "HAVE-ABILITY",
	"WEARING",
}

// noKind marks requirement types that carry no vnum.
const noKind proto.Kind = -1

var requirementKinds = []proto.Kind{
	ReqCompletedQuest:    proto.KindQuest,
	ReqGetComponent:      noKind,
	ReqGetObject:         proto.KindObject,
	ReqKillMob:           proto.KindMobile,
	ReqKillMobFlagged:    noKind,
	ReqNotCompletedQuest: proto.KindQuest,
	ReqNotOnQuest:        proto.KindQuest,
	ReqOwnBuilding:       proto.KindBuilding,
	ReqOwnVehicle:        proto.KindVehicle,
	ReqSkillLevelOver:    proto.KindSkill,
	ReqSkillLevelUnder:   proto.KindSkill,
	ReqTrigger:           noKind,
	ReqVisitBuilding:     proto.KindBuilding,
	ReqVisitRoomTemplate: proto.KindRoomTemplate,
	ReqVisitSector:       proto.KindSector,
	ReqHaveAbility:       proto.KindAbility,
	ReqWearing:           proto.KindObject,
}

// RequirementKind returns the kind of vnum a requirement type points at.
func RequirementKind(t int) (proto.Kind, bool) {
	if t < 0 || t >= len(requirementKinds) || requirementKinds[t] == noKind {
		return 0, false
	}
	return requirementKinds[t], true
}

// requirementUsesMisc is true for types whose argument is a misc value
// (component type or mob flags) rather than a vnum.
func requirementUsesMisc(t int) bool {
	return t == ReqGetComponent || t == ReqKillMobFlagged
}

// Requirement is one condition a player must meet to use the social.
// Requirements sharing a Group letter are alternatives.
type Requirement struct {
	Type   int
	Vnum   proto.Vnum
	Misc   uint64
	Needed int
	Group  byte
}

// Social is one emote command.
type Social struct {
	vnum         proto.Vnum
	Name         string
	Command      string
	Flags        proto.Bitvector
	CharPosition int
	VictPosition int
	Requirements []Requirement
	Messages     [NumMessages]string
}

func New(v proto.Vnum) *Social {
	return &Social{
		vnum:         v,
		Name:         DefaultName,
		Command:      DefaultCommand,
		Flags:        FlagInDevelopment,
		CharPosition: DefaultPosition,
		VictPosition: DefaultPosition,
	}
}

func (s *Social) Vnum() proto.Vnum     { return s.vnum }
func (s *Social) SetVnum(v proto.Vnum) { s.vnum = v }
func (s *Social) InDevelopment() bool  { return s.Flags.Has(FlagInDevelopment) }

// Requires reports whether a requirement points at kind v.
func (s *Social) Requires(kind proto.Kind, v proto.Vnum) bool {
	return slices.ContainsFunc(s.Requirements, func(r Requirement) bool {
		k, ok := RequirementKind(r.Type)
		return ok && k == kind && r.Vnum == v
	})
}

// RemoveRequirements drops every requirement pointing at kind v.
func (s *Social) RemoveRequirements(kind proto.Kind, v proto.Vnum) bool {
	n := len(s.Requirements)
	s.Requirements = slices.DeleteFunc(slices.Clone(s.Requirements), func(r Requirement) bool {
		k, ok := RequirementKind(r.Type)
		return ok && k == kind && r.Vnum == v
	})
	return len(s.Requirements) != n
}

// sortRequirements keeps grouped requirements together, ungrouped first.
func (s *Social) sortRequirements() {
	slices.SortStableFunc(s.Requirements, func(a, b Requirement) int {
		return int(a.Group) - int(b.Group)
	})
}

func (s *Social) assign(src *Social) {
	*s = *src
	s.Requirements = slices.Clone(src.Requirements)
}
