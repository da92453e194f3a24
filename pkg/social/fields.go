package social

import (
	"strconv"
	"strings"

	"github.com/crystal-mush/empireolc/pkg/olc"
	"github.com/crystal-mush/empireolc/pkg/proto"
)

type field = olc.Field[*Social]

func fields() []field {
	fs := []field{
		{Name: "name", Usage: "<name>", Run: func(c *olc.Ctx, s *Social, arg string) error {
			return olc.SetString(c, arg, "name", &s.Name)
		}},
		{Name: "command", Usage: "<word>", Run: func(c *olc.Ctx, s *Social, arg string) error {
			if strings.ContainsAny(arg, " \t") {
				return olc.Inputf("Social commands must be all one word.")
			}
			return olc.SetString(c, arg, "command", &s.Command)
		}},
		{Name: "flags", Usage: "[+|-]<flag> ...", Run: func(c *olc.Ctx, s *Social, arg string) error {
			return olc.SetFlags(c, arg, "flags", FlagNames, FlagInDevelopment, &s.Flags)
		}},
		{Name: "charposition", Usage: "<position>", Run: func(c *olc.Ctx, s *Social, arg string) error {
			return olc.SetType(c, arg, "minimum character position", PositionNames, &s.CharPosition)
		}},
		{Name: "targetposition", Usage: "<position>", Run: func(c *olc.Ctx, s *Social, arg string) error {
			return olc.SetType(c, arg, "minimum target position", PositionNames, &s.VictPosition)
		}},
		{Name: "requirements", Usage: "add <type> [vnum|misc] [needed] | remove <n|all>", Run: editRequirements},
	}
	for i, name := range MessageFields {
		fs = append(fs, field{Name: name, Usage: "<message|none>", Run: func(c *olc.Ctx, s *Social, arg string) error {
			if strings.EqualFold(arg, "none") {
				s.Messages[i] = ""
				c.Printf("%s message removed.", MessageLabels[i])
				return nil
			}
			return olc.SetString(c, arg, MessageLabels[i]+" message", &s.Messages[i])
		}})
	}
	return fs
}

func editRequirements(c *olc.Ctx, s *Social, arg string) error {
	cmd, rest := olc.SplitArg(arg)
	const usage = "Usage: requirements add <type> [vnum | misc] [needed] | remove <number | all>"
	switch {
	case cmd != "" && proto.IsAbbrev(cmd, "remove"):
		if strings.EqualFold(rest, "all") {
			s.Requirements = nil
			c.Printf("You remove all the requirements.")
			return nil
		}
		i, err := olc.ListIndex(rest, len(s.Requirements))
		if err != nil {
			return err
		}
		c.Printf("You remove the %s requirement.", RequirementNames[s.Requirements[i].Type])
		s.Requirements = olc.RemoveAt(s.Requirements, i)
	case cmd != "" && proto.IsAbbrev(cmd, "add"):
		req, err := parseRequirement(c, rest)
		if err != nil {
			return err
		}
		s.Requirements = append(s.Requirements, req)
		c.Printf("You add a requirement: %s", RequirementString(req))
	default:
		return olc.Inputf(usage)
	}
	return nil
}

func parseRequirement(c *olc.Ctx, arg string) (Requirement, error) {
	f := strings.Fields(arg)
	if len(f) == 0 {
		return Requirement{}, olc.Inputf("Add which type of requirement?")
	}
	typ := proto.FlagIndex(RequirementNames, f[0])
	if typ < 0 {
		return Requirement{}, olc.Inputf("Invalid requirement type '%s'.", f[0])
	}
	req := Requirement{Type: typ, Needed: 1}
	args := f[1:]

	if kind, ok := RequirementKind(typ); ok {
		if len(args) == 0 {
			return req, olc.Inputf("A %s requirement needs a %s vnum.", RequirementNames[typ], kind)
		}
		v, err := olc.ParseVnum(args[0], false)
		if err != nil {
			return req, err
		}
		if !c.Exists(kind, v) {
			return req, olc.Inputf("There is no %s %d.", kind, v)
		}
		req.Vnum = v
		args = args[1:]
	} else if requirementUsesMisc(typ) {
		if len(args) == 0 {
			return req, olc.Inputf("A %s requirement needs a value.", RequirementNames[typ])
		}
		misc, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return req, olc.Inputf("Invalid value '%s'.", args[0])
		}
		req.Misc = misc
		args = args[1:]
	}

	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return req, olc.Inputf("Invalid amount needed '%s'.", args[0])
		}
		req.Needed = n
		args = args[1:]
	}
	if len(args) > 0 {
		return req, olc.Inputf("Too many arguments.")
	}
	return req, nil
}
