// Package archetype holds the character-creation templates: starting
// attributes, skills, ranks and gear.
package archetype

import (
	"slices"

	"github.com/crystal-mush/empireolc/pkg/proto"
)

// Placeholders for fields a builder has not filled in.
const (
	DefaultName = "unnamed archetype"
	DefaultDesc = "no description"
	DefaultRank = "Adventurer"
)

// Archetype flags.
const (
	FlagInDevelopment proto.Bitvector = 1 << iota
	FlagBasic
)

// FlagNames are the display names of the archetype flags, by bit.
var FlagNames = []string{"IN-DEVELOPMENT", "BASIC"}

// Attributes, in file order.
const (
	Strength = iota
	Dexterity
	Charisma
	Greatness
	Intelligence
	Wits
	NumAttributes
)

// AttributeNames are indexed by attribute.
var AttributeNames = []string{"Strength", "Dexterity", "Charisma", "Greatness", "Intelligence", "Wits"}

// attributeDisplay is the order attributes appear in the editor.
var attributeDisplay = []int{Strength, Dexterity, Charisma, Greatness, Intelligence, Wits}

// MinAttribute and MaxAttribute bound a starting attribute.
const (
	MinAttribute = 1
	MaxAttribute = 3
	MaxSkill     = 100
)

// Inventory is the gear slot for items carried rather than worn.
const Inventory = -1

// WearNames are the equipment slots, indexed by wear position.
var WearNames = []string{
	"head", "ears", "neck1", "neck2", "clothes", "armor", "about", "arms",
	"wrists", "hands", "rfinger", "lfinger", "waist", "legs", "feet", "pack",
	"saddle", "sheath1", "sheath2", "wield", "ranged", "hold",
}

// SlotName renders a gear slot.
func SlotName(slot int) string {
	if slot == Inventory {
		return "inventory"
	}
	if slot >= 0 && slot < len(WearNames) {
		return WearNames[slot]
	}
	return "unknown"
}

// Gear is one starting item.
type Gear struct {
	Slot int
	Obj  proto.Vnum
}

// Skill is one starting skill level.
type Skill struct {
	Skill proto.Vnum
	Level int
}

// Archetype is a character-creation template.
type Archetype struct {
	vnum        proto.Vnum
	Name        string
	Description string
	MaleRank    string
	FemaleRank  string
	Flags       proto.Bitvector
	Attributes  [NumAttributes]int
	Gear        []Gear
	Skills      []Skill
}

// New returns an archetype with placeholder text, every attribute at 1,
// and IN-DEVELOPMENT set.
func New(v proto.Vnum) *Archetype {
	a := &Archetype{
		vnum:        v,
		Name:        DefaultName,
		Description: DefaultDesc,
		MaleRank:    DefaultRank,
		FemaleRank:  DefaultRank,
		Flags:       FlagInDevelopment,
	}
	for i := range a.Attributes {
		a.Attributes[i] = 1
	}
	return a
}

func (a *Archetype) Vnum() proto.Vnum     { return a.vnum }
func (a *Archetype) SetVnum(v proto.Vnum) { a.vnum = v }
func (a *Archetype) InDevelopment() bool  { return a.Flags.Has(FlagInDevelopment) }

// AttributeTotal sums the starting attributes.
func (a *Archetype) AttributeTotal() int {
	total := 0
	for _, v := range a.Attributes {
		total += v
	}
	return total
}

// SkillTotal sums the starting skill levels.
func (a *Archetype) SkillTotal() int {
	total := 0
	for _, sk := range a.Skills {
		total += sk.Level
	}
	return total
}

// SkillIndex returns the position of skill in a.Skills, or -1.
func (a *Archetype) SkillIndex(skill proto.Vnum) int {
	return slices.IndexFunc(a.Skills, func(sk Skill) bool { return sk.Skill == skill })
}

// RemoveSkill drops every entry for skill.
func (a *Archetype) RemoveSkill(skill proto.Vnum) bool {
	n := len(a.Skills)
	a.Skills = slices.DeleteFunc(a.Skills, func(sk Skill) bool { return sk.Skill == skill })
	return len(a.Skills) != n
}

// RemoveGear drops every gear entry for obj.
func (a *Archetype) RemoveGear(obj proto.Vnum) bool {
	n := len(a.Gear)
	a.Gear = slices.DeleteFunc(a.Gear, func(g Gear) bool { return g.Obj == obj })
	return len(a.Gear) != n
}

// assign overwrites a with a deep copy of src.
func (a *Archetype) assign(src *Archetype) {
	a.vnum = src.vnum
	a.Name = src.Name
	a.Description = src.Description
	a.MaleRank = src.MaleRank
	a.FemaleRank = src.FemaleRank
	a.Flags = src.Flags
	a.Attributes = src.Attributes
	a.Gear = slices.Clone(src.Gear)
	a.Skills = slices.Clone(src.Skills)
}
