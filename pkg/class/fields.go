package class

import (
	"slices"
	"strconv"

	"github.com/crystal-mush/empireolc/pkg/olc"
	"github.com/crystal-mush/empireolc/pkg/proto"
)

type field = olc.Field[*Class]

func fields() []field {
	return []field{
		{Name: "name", Usage: "<name>", Run: func(c *olc.Ctx, cl *Class, arg string) error {
			return olc.SetString(c, arg, "name", &cl.Name)
		}},
		{Name: "abbrev", Usage: "<abbreviation>", Run: func(c *olc.Ctx, cl *Class, arg string) error {
			if len(arg) > MaxAbbrev {
				return olc.Inputf("Abbreviations may be at most %d characters.", MaxAbbrev)
			}
			return olc.SetShortString(c, arg, "abbreviation", true, &cl.Abbrev)
		}},
		{Name: "flags", Usage: "[+|-]<flag> ...", Run: func(c *olc.Ctx, cl *Class, arg string) error {
			return olc.SetFlags(c, arg, "flags", FlagNames, FlagInDevelopment, &cl.Flags)
		}},
		{Name: "requiresskill", Usage: "add|change|remove <skill vnum> [level]", Run: editRequirement},
		{Name: "role", Usage: "<role> add|remove <ability vnum>", Run: editRole},
		{Name: "pool", Usage: "<health|moves|mana|blood> <amount>", Run: func(c *olc.Ctx, cl *Class, arg string) error {
			name, amount := olc.SplitArg(arg)
			i := proto.FlagIndex(PoolNames, name)
			if name == "" || i < 0 {
				return olc.Inputf("Usage: pool <health|moves|mana|blood> <amount>")
			}
			return olc.SetNumber(c, amount, PoolNames[i]+" pool", 0, 10000, &cl.Pools[i])
		}},
	}
}

func editRequirement(c *olc.Ctx, cl *Class, arg string) error {
	cmd, rest := olc.SplitArg(arg)
	skillArg, levelArg := olc.SplitArg(rest)
	if cmd == "" || skillArg == "" {
		return olc.Inputf("Usage: requiresskill add|change|remove <skill vnum> [level]")
	}
	skill, err := olc.ParseVnum(skillArg, false)
	if err != nil {
		return err
	}
	idx := cl.RequirementIndex(skill)

	if proto.IsAbbrev(cmd, "remove") {
		if idx < 0 {
			return olc.Inputf("The class doesn't require skill %d.", skill)
		}
		cl.RemoveRequirement(skill)
		c.Printf("The class no longer requires skill %d.", skill)
		return nil
	}
	if !proto.IsAbbrev(cmd, "add") && !proto.IsAbbrev(cmd, "change") {
		return olc.Inputf("Usage: requiresskill add|change|remove <skill vnum> [level]")
	}
	level, err := strconv.Atoi(levelArg)
	if err != nil || level < 0 || level > MaxSkill {
		return olc.Inputf("Skill level must be 0-%d.", MaxSkill)
	}
	if proto.IsAbbrev(cmd, "change") {
		if idx < 0 {
			return olc.Inputf("The class doesn't require skill %d.", skill)
		}
		cl.Requirements[idx].Level = level
	} else {
		if idx >= 0 {
			return olc.Inputf("The class already requires skill %d; use change.", skill)
		}
		if !c.Exists(proto.KindSkill, skill) {
			return olc.Inputf("There is no skill %d.", skill)
		}
		cl.Requirements = append(cl.Requirements, SkillReq{Skill: skill, Level: level})
	}
	c.Printf("The class now requires skill %d at %d.", skill, level)
	return nil
}

func editRole(c *olc.Ctx, cl *Class, arg string) error {
	roleArg, rest := olc.SplitArg(arg)
	cmd, abilArg := olc.SplitArg(rest)
	const usage = "Usage: role <tank|melee|caster|healer> add|remove <ability vnum>"
	if roleArg == "" || cmd == "" || abilArg == "" {
		return olc.Inputf(usage)
	}
	role := proto.FlagIndex(RoleNames, roleArg)
	if role <= RoleNone {
		return olc.Inputf("Unknown role '%s'.", roleArg)
	}
	abil, err := olc.ParseVnum(abilArg, false)
	if err != nil {
		return err
	}
	ra := RoleAbility{Role: role, Ability: abil}
	switch {
	case proto.IsAbbrev(cmd, "add"):
		if !c.Exists(proto.KindAbility, abil) {
			return olc.Inputf("There is no ability %d.", abil)
		}
		if slices.Contains(cl.Abilities, ra) {
			return olc.Inputf("The %s role already has ability %d.", RoleNames[role], abil)
		}
		cl.Abilities = append(cl.Abilities, ra)
		c.Printf("You add ability %d to the %s role.", abil, RoleNames[role])
	case proto.IsAbbrev(cmd, "remove"):
		i := slices.Index(cl.Abilities, ra)
		if i < 0 {
			return olc.Inputf("The %s role doesn't have ability %d.", RoleNames[role], abil)
		}
		cl.Abilities = olc.RemoveAt(cl.Abilities, i)
		c.Printf("You remove ability %d from the %s role.", abil, RoleNames[role])
	default:
		return olc.Inputf(usage)
	}
	return nil
}
