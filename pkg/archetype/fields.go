package archetype

import (
	"strconv"
	"strings"

	"github.com/crystal-mush/empireolc/pkg/olc"
	"github.com/crystal-mush/empireolc/pkg/proto"
)

type field = olc.Field[*Archetype]

func fields() []field {
	return []field{
		{Name: "name", Usage: "<name>", Run: func(c *olc.Ctx, a *Archetype, arg string) error {
			return olc.SetString(c, arg, "name", &a.Name)
		}},
		{Name: "description", Usage: "<text>", Run: func(c *olc.Ctx, a *Archetype, arg string) error {
			return olc.SetString(c, arg, "description", &a.Description)
		}},
		{Name: "malerank", Usage: "<rank>", Run: func(c *olc.Ctx, a *Archetype, arg string) error {
			return olc.SetString(c, arg, "male rank", &a.MaleRank)
		}},
		{Name: "femalerank", Usage: "<rank>", Run: func(c *olc.Ctx, a *Archetype, arg string) error {
			return olc.SetString(c, arg, "female rank", &a.FemaleRank)
		}},
		{Name: "flags", Usage: "[+|-]<flag> ...", Run: func(c *olc.Ctx, a *Archetype, arg string) error {
			return olc.SetFlags(c, arg, "flags", FlagNames, FlagInDevelopment, &a.Flags)
		}},
		{Name: "attribute", Usage: "<attribute> <value>", Run: editAttribute},
		{Name: "gear", Usage: "add <slot|inventory> <obj vnum> | remove <number|all>", Run: editGear},
		{Name: "skill", Usage: "add <skill vnum> <level> | change <skill vnum> <level> | remove <skill vnum>", Run: editSkill},
	}
}

func editAttribute(c *olc.Ctx, a *Archetype, arg string) error {
	name, val := olc.SplitArg(arg)
	if name == "" || val == "" {
		return olc.Inputf("Usage: attribute <%s> <value>", strings.Join(AttributeNames, " | "))
	}
	i := proto.FlagIndex(AttributeNames, name)
	if i < 0 {
		return olc.Inputf("Unknown attribute '%s'.", name)
	}
	return olc.SetNumber(c, val, AttributeNames[i], MinAttribute, MaxAttribute, &a.Attributes[i])
}

func editGear(c *olc.Ctx, a *Archetype, arg string) error {
	cmd, rest := olc.SplitArg(arg)
	switch {
	case cmd != "" && proto.IsAbbrev(cmd, "add"):
		slotArg, vnumArg := olc.SplitArg(rest)
		if slotArg == "" || vnumArg == "" {
			return olc.Inputf("Usage: gear add <slot|inventory> <obj vnum>")
		}
		slot := Inventory
		if !proto.IsAbbrev(slotArg, "inventory") {
			if slot = proto.FlagIndex(WearNames, slotArg); slot < 0 {
				return olc.Inputf("Unknown gear slot '%s'.", slotArg)
			}
		}
		obj, err := olc.ParseVnum(vnumArg, false)
		if err != nil {
			return err
		}
		if !c.Exists(proto.KindObject, obj) {
			return olc.Inputf("There is no object %d.", obj)
		}
		a.Gear = append(a.Gear, Gear{Slot: slot, Obj: obj})
		c.Printf("You add object %d (%s) to the gear.", obj, SlotName(slot))
		return nil

	case cmd != "" && proto.IsAbbrev(cmd, "remove"):
		if strings.EqualFold(rest, "all") {
			a.Gear = nil
			c.Printf("You remove all the gear.")
			return nil
		}
		i, err := olc.ListIndex(rest, len(a.Gear))
		if err != nil {
			return err
		}
		c.Printf("You remove object %d from the gear.", a.Gear[i].Obj)
		a.Gear = olc.RemoveAt(a.Gear, i)
		return nil
	}
	return olc.Inputf("Usage: gear add <slot|inventory> <obj vnum> | remove <number|all>")
}

func editSkill(c *olc.Ctx, a *Archetype, arg string) error {
	cmd, rest := olc.SplitArg(arg)
	skillArg, levelArg := olc.SplitArg(rest)
	if cmd == "" || skillArg == "" {
		return olc.Inputf("Usage: skill add <skill vnum> <level> | change <skill vnum> <level> | remove <skill vnum>")
	}
	skill, err := olc.ParseVnum(skillArg, false)
	if err != nil {
		return err
	}
	idx := a.SkillIndex(skill)

	switch {
	case proto.IsAbbrev(cmd, "remove"):
		if idx < 0 {
			return olc.Inputf("The archetype doesn't have skill %d.", skill)
		}
		a.RemoveSkill(skill)
		c.Printf("You remove skill %d.", skill)
		return nil
	case proto.IsAbbrev(cmd, "add"), proto.IsAbbrev(cmd, "change"):
	default:
		return olc.Inputf("Usage: skill add <skill vnum> <level> | change <skill vnum> <level> | remove <skill vnum>")
	}

	level, err := strconv.Atoi(levelArg)
	if err != nil || level < 0 || level > MaxSkill {
		return olc.Inputf("Skill level must be 0-%d.", MaxSkill)
	}
	if proto.IsAbbrev(cmd, "change") {
		if idx < 0 {
			return olc.Inputf("The archetype doesn't have skill %d.", skill)
		}
		a.Skills[idx].Level = level
		c.Printf("Skill %d is now level %d.", skill, level)
		return nil
	}
	if !c.Exists(proto.KindSkill, skill) {
		return olc.Inputf("There is no skill %d.", skill)
	}
	if idx >= 0 {
		return olc.Inputf("The archetype already has skill %d; use change.", skill)
	}
	a.Skills = append(a.Skills, Skill{Skill: skill, Level: level})
	c.Printf("You add skill %d at level %d.", skill, level)
	return nil
}
