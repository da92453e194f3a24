package attack

import (
	"strings"

	"github.com/crystal-mush/empireolc/pkg/olc"
	"github.com/crystal-mush/empireolc/pkg/proto"
)

type field = olc.Field[*Attack]

func fields() []field {
	fs := []field{
		{Name: "name", Usage: "<name>", Run: func(c *olc.Ctx, a *Attack, arg string) error {
			return olc.SetString(c, arg, "name", &a.Name)
		}},
		{Name: "flags", Usage: "[+|-]<flag> ...", Run: func(c *olc.Ctx, a *Attack, arg string) error {
			return olc.SetFlags(c, arg, "flags", FlagNames, FlagInDevelopment, &a.Flags)
		}},
		{Name: "countsas", Usage: "<attack vnum|none>", Run: func(c *olc.Ctx, a *Attack, arg string) error {
			if v, err := olc.ParseVnum(arg, true); err == nil && v == c.Vnum {
				return olc.Inputf("An attack can't count as itself.")
			}
			return olc.SetVnumRef(c, arg, "counts-as attack", proto.KindAttack, None, &a.CountsAs)
		}},
		{Name: "message", Usage: "<number> | add | copy <number> | remove <number|all>", Mode: olc.FieldBoth, Run: editMessage},
		{Name: "back", Mode: olc.FieldSub, Run: func(c *olc.Ctx, _ *Attack, _ string) error {
			c.Cursor = 0
			c.Printf("You return to the main menu.")
			return nil
		}},
	}
	for i, name := range LineNames {
		fs = append(fs, field{Name: name, Usage: "<message|none>", Mode: olc.FieldSub, Run: lineSetter(i)})
	}
	return fs
}

func lineSetter(line int) func(*olc.Ctx, *Attack, string) error {
	return func(c *olc.Ctx, a *Attack, arg string) error {
		if c.Cursor < 1 || c.Cursor > len(a.Messages) {
			c.Cursor = 0
			return olc.Inputf("You aren't editing a message set.")
		}
		if strings.HasPrefix(arg, noMessage) {
			return olc.Inputf("Messages may not start with %s.", noMessage)
		}
		return olc.SetOptionalString(c, arg, LineNames[line]+" message", &a.Messages[c.Cursor-1][line])
	}
}

func editMessage(c *olc.Ctx, a *Attack, arg string) error {
	cmd, rest := olc.SplitArg(arg)
	const usage = "Usage: message <number> | add | copy <number> | remove <number|all>"
	switch {
	case cmd == "":
		return olc.Inputf(usage)
	case proto.IsAbbrev(cmd, "add"):
		a.Messages = append(a.Messages, MessageSet{})
		c.Cursor = len(a.Messages)
		c.Printf("You add message set #%d.", c.Cursor)
	case proto.IsAbbrev(cmd, "copy"):
		i, err := olc.ListIndex(rest, len(a.Messages))
		if err != nil {
			return err
		}
		a.Messages = append(a.Messages, a.Messages[i])
		c.Cursor = len(a.Messages)
		c.Printf("You copy message set #%d to #%d.", i+1, c.Cursor)
	case proto.IsAbbrev(cmd, "remove"):
		if strings.EqualFold(rest, "all") {
			a.Messages = nil
			c.Cursor = 0
			c.Printf("You remove all message sets.")
			return nil
		}
		i, err := olc.ListIndex(rest, len(a.Messages))
		if err != nil {
			return err
		}
		a.Messages = olc.RemoveAt(a.Messages, i)
		c.Cursor = 0
		c.Printf("You remove message set #%d.", i+1)
	default:
		i, err := olc.ListIndex(cmd, len(a.Messages))
		if err != nil {
			return err
		}
		c.Cursor = i + 1
		c.Printf("You are now editing message set #%d.", c.Cursor)
	}
	return nil
}
