// Package roomtmpl holds the room templates that adventure zones are
// instantiated from.
package roomtmpl

import (
	"slices"

	"github.com/crystal-mush/empireolc/pkg/proto"
)

const DefaultTitle = "An Unnamed Room"

// MaxDescription bounds the description text field.
const MaxDescription = 4000

// Room template flags. IN-DEVELOPMENT keeps the template out of new
// adventure instances.
const (
	FlagOutdoor proto.Bitvector = 1 << iota
	FlagDark
	FlagLight
	FlagNoMob
	FlagPeaceful
	FlagNeedBoat
	FlagNoTeleport
	FlagLookOut
	FlagNoLocation
	FlagInDevelopment
)

var FlagNames = []string{
	"OUTDOOR", "DARK", "LIGHT", "!MOB", "PEACEFUL", "NEED-BOAT",
	"!TELEPORT", "LOOK-OUT", "!LOCATION", "IN-DEVELOPMENT",
}

// listFlags are shown on detailed list lines.
const listFlags = FlagOutdoor | FlagDark | FlagLight | FlagNoMob | FlagNoTeleport | FlagLookOut | FlagNoLocation

// AffectNames are the base room affects a template applies.
var AffectNames = []string{
	"DARK", "SILENT", "*HAS-INSTANCE", "CHAMELEON", "*TEMPORARY", "!EVOLVE",
	"*UNCLAIMABLE", "*PUBLIC", "*DISMANTLING", "!FLY", "*SHIP-PRESENT",
	"*PLAYER-MADE", "*!WORK", "!DISREPAIR", "*!DISMANTLE",
}

// Directions, in file order.
const (
	North = iota
	East
	South
	West
	Northwest
	Northeast
	Southwest
	Southeast
	Up
	Down
	Fore
	Starboard
	Port
	Aft
	Random
	NumDirs
)

var DirNames = []string{
	"north", "east", "south", "west", "northwest", "northeast", "southwest",
	"southeast", "up", "down", "fore", "starboard", "port", "aft", "random",
}

var revDir = [NumDirs]int{
	South, West, North, East, Southeast, Southwest, Northeast, Northwest,
	Down, Up, Aft, Port, Starboard, Fore, Random,
}

// Reverse returns the opposite direction. Random stays random.
func Reverse(dir int) int {
	if dir < 0 || dir >= NumDirs {
		return Random
	}
	return revDir[dir]
}

// ParseDir resolves a direction name or abbreviation. Exact names win
// over abbreviations, so "n" is north and "northw" is northwest.
func ParseDir(arg string) int {
	for i, name := range DirNames {
		if proto.FoldEqual(arg, name) {
			return i
		}
	}
	for i, name := range DirNames {
		if proto.IsAbbrev(arg, name) {
			return i
		}
	}
	return -1
}

// Exit flags.
const (
	ExitDoor proto.Bitvector = 1 << iota
	ExitClosed
)

var ExitNames = []string{"DOOR", "CLOSED"}

// Exit links a template to another template in the same adventure.
type Exit struct {
	Dir     int
	Keyword string
	Info    proto.Bitvector
	Target  proto.Vnum
}

// ExtraDesc is a look-able keyword with its own text.
type ExtraDesc struct {
	Keyword     string
	Description string
}

// Interaction types.
const (
	InteractButcher = iota
	InteractSkin
	InteractShear
	InteractBarde
	InteractLoot
	InteractDig
	InteractForage
	InteractFindHerb
	InteractHarvest
	InteractGather
	InteractEncounter
	InteractLight
	InteractPickpocket
)

var InteractNames = []string{
	"BUTCHER", "SKIN", "SHEAR", "BARDE", "LOOT", "DIG", "FORAGE",
	"FIND-HERB", "HARVEST", "GATHER", "ENCOUNTER", "LIGHT", "PICKPOCKET",
}

// RoomInteraction reports whether an interaction type may be used on a
// room.
func RoomInteraction(t int) bool {
	return t >= InteractDig && t <= InteractEncounter
}

// InteractionKind is the kind of vnum an interaction produces.
func InteractionKind(t int) proto.Kind {
	if t == InteractBarde || t == InteractEncounter {
		return proto.KindMobile
	}
	return proto.KindObject
}

// Interaction is something a player can get from the room.
type Interaction struct {
	Type      int
	Vnum      proto.Vnum
	Percent   float64
	Quantity  int
	Exclusion byte
}

// Spawn types.
const (
	SpawnMob = iota
	SpawnObj
	SpawnVeh
)

var SpawnNames = []string{"MOB", "OBJ", "VEH"}

var spawnKinds = []proto.Kind{proto.KindMobile, proto.KindObject, proto.KindVehicle}

// SpawnKind is the kind of prototype a spawn type loads.
func SpawnKind(t int) proto.Kind {
	if t < 0 || t >= len(spawnKinds) {
		return proto.KindGeneric
	}
	return spawnKinds[t]
}

// Spawn loads a mob, object or vehicle when the room is instantiated.
type Spawn struct {
	Type    int
	Vnum    proto.Vnum
	Percent float64
	Limit   int
}

// RoomTemplate is one room prototype.
type RoomTemplate struct {
	vnum         proto.Vnum
	Title        string
	Description  string
	Flags        proto.Bitvector
	Affects      proto.Bitvector
	Functions    proto.Bitvector
	Exits        []Exit
	Extras       []ExtraDesc
	Interactions []Interaction
	Spawns       []Spawn
	Scripts      []proto.Vnum
}

func New(v proto.Vnum) *RoomTemplate {
	return &RoomTemplate{vnum: v, Title: DefaultTitle, Flags: FlagInDevelopment}
}

func (r *RoomTemplate) Vnum() proto.Vnum     { return r.vnum }
func (r *RoomTemplate) SetVnum(v proto.Vnum) { r.vnum = v }
func (r *RoomTemplate) InDevelopment() bool  { return r.Flags.Has(FlagInDevelopment) }

// HasExitTo reports whether any exit leads to v.
func (r *RoomTemplate) HasExitTo(v proto.Vnum) bool {
	return slices.ContainsFunc(r.Exits, func(ex Exit) bool { return ex.Target == v })
}

// RemoveExitsTo drops every exit leading to v.
func (r *RoomTemplate) RemoveExitsTo(v proto.Vnum) bool {
	n := len(r.Exits)
	r.Exits = slices.DeleteFunc(slices.Clone(r.Exits), func(ex Exit) bool { return ex.Target == v })
	return len(r.Exits) != n
}

// HasExit reports whether the template already has an exit in dir.
func (r *RoomTemplate) HasExit(dir int) bool {
	return slices.ContainsFunc(r.Exits, func(ex Exit) bool { return ex.Dir == dir })
}

// MatchExit adds the reverse of ex, which leads here from origin. It
// does nothing if an exit back already exists or the direction is taken.
func (r *RoomTemplate) MatchExit(origin proto.Vnum, ex Exit) (Exit, bool) {
	back := Exit{Dir: Reverse(ex.Dir), Keyword: ex.Keyword, Info: ex.Info, Target: origin}
	for _, have := range r.Exits {
		if have.Dir == back.Dir && (have.Target == origin || back.Dir != Random) {
			return Exit{}, false
		}
	}
	r.Exits = append(r.Exits, back)
	return back, true
}

func (r *RoomTemplate) usesSpawn(kind proto.Kind, v proto.Vnum) bool {
	return slices.ContainsFunc(r.Spawns, func(s Spawn) bool { return SpawnKind(s.Type) == kind && s.Vnum == v })
}

func (r *RoomTemplate) removeSpawns(kind proto.Kind, v proto.Vnum) bool {
	n := len(r.Spawns)
	r.Spawns = slices.DeleteFunc(slices.Clone(r.Spawns), func(s Spawn) bool { return SpawnKind(s.Type) == kind && s.Vnum == v })
	return len(r.Spawns) != n
}

func (r *RoomTemplate) removeScript(v proto.Vnum) bool {
	n := len(r.Scripts)
	r.Scripts = slices.DeleteFunc(slices.Clone(r.Scripts), func(s proto.Vnum) bool { return s == v })
	return len(r.Scripts) != n
}

func (r *RoomTemplate) assign(src *RoomTemplate) {
	*r = *src
	r.Exits = slices.Clone(src.Exits)
	r.Extras = slices.Clone(src.Extras)
	r.Interactions = slices.Clone(src.Interactions)
	r.Spawns = slices.Clone(src.Spawns)
	r.Scripts = slices.Clone(src.Scripts)
}
