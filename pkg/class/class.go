// Package class defines player classes: the skill pair that unlocks a
// class, the abilities each role grants, and base pools.
package class

import (
	"slices"

	"github.com/crystal-mush/empireolc/pkg/proto"
)

const (
	DefaultName   = "Unnamed Class"
	DefaultAbbrev = "???"
	// MaxAbbrev is the longest abbreviation that fits the who list.
	MaxAbbrev = 4
	MaxSkill  = 100
)

const (
	FlagInDevelopment proto.Bitvector = 1 << iota
)

var FlagNames = []string{"IN-DEVELOPMENT"}

// Roles a player may choose within a class.
const (
	RoleNone = iota
	RoleTank
	RoleMelee
	RoleCaster
	RoleHealer
)

var RoleNames = []string{"none", "Tank", "Melee", "Caster", "Healer"}

// Pools.
const (
	PoolHealth = iota
	PoolMoves
	PoolMana
	PoolBlood
	NumPools
)

var PoolNames = []string{"health", "moves", "mana", "blood"}

// defaultPools match the unclassed character.
var defaultPools = [NumPools]int{50, 100, 50, 0}

// SkillReq is a skill level needed to enter the class.
type SkillReq struct {
	Skill proto.Vnum
	Level int
}

// RoleAbility grants an ability to players of a role.
type RoleAbility struct {
	Role    int
	Ability proto.Vnum
}

// Class is one player class prototype.
type Class struct {
	vnum         proto.Vnum
	Name         string
	Abbrev       string
	Flags        proto.Bitvector
	Requirements []SkillReq
	Abilities    []RoleAbility
	Pools        [NumPools]int
}

// New returns a class with placeholder names and IN-DEVELOPMENT set.
func New(v proto.Vnum) *Class {
	return &Class{
		vnum:   v,
		Name:   DefaultName,
		Abbrev: DefaultAbbrev,
		Flags:  FlagInDevelopment,
		Pools:  defaultPools,
	}
}

func (c *Class) Vnum() proto.Vnum     { return c.vnum }
func (c *Class) SetVnum(v proto.Vnum) { c.vnum = v }
func (c *Class) InDevelopment() bool  { return c.Flags.Has(FlagInDevelopment) }

// RequirementIndex returns the position of skill in Requirements, or -1.
func (c *Class) RequirementIndex(skill proto.Vnum) int {
	return slices.IndexFunc(c.Requirements, func(r SkillReq) bool { return r.Skill == skill })
}

// RemoveRequirement drops skill from the requirements.
func (c *Class) RemoveRequirement(skill proto.Vnum) bool {
	n := len(c.Requirements)
	c.Requirements = slices.DeleteFunc(c.Requirements, func(r SkillReq) bool { return r.Skill == skill })
	return len(c.Requirements) != n
}

// RoleAbilities lists the abilities granted to role, in order.
func (c *Class) RoleAbilities(role int) []proto.Vnum {
	var out []proto.Vnum
	for _, ra := range c.Abilities {
		if ra.Role == role {
			out = append(out, ra.Ability)
		}
	}
	return out
}

// HasAbility reports whether any role grants ability.
func (c *Class) HasAbility(ability proto.Vnum) bool {
	return slices.ContainsFunc(c.Abilities, func(ra RoleAbility) bool { return ra.Ability == ability })
}

// RemoveAbility drops ability from every role.
func (c *Class) RemoveAbility(ability proto.Vnum) bool {
	n := len(c.Abilities)
	c.Abilities = slices.DeleteFunc(c.Abilities, func(ra RoleAbility) bool { return ra.Ability == ability })
	return len(c.Abilities) != n
}

func (c *Class) assign(src *Class) {
	c.vnum = src.vnum
	c.Name = src.Name
	c.Abbrev = src.Abbrev
	c.Flags = src.Flags
	c.Requirements = slices.Clone(src.Requirements)
	c.Abilities = slices.Clone(src.Abilities)
	c.Pools = src.Pools
}
