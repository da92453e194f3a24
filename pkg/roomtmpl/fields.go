package roomtmpl

import (
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/crystal-mush/empireolc/pkg/olc"
	"github.com/crystal-mush/empireolc/pkg/proto"
)

type field = olc.Field[*RoomTemplate]

func fields(t *olc.Table[*RoomTemplate]) []field {
	return []field{
		{Name: "title", Usage: "<title>", Run: func(c *olc.Ctx, r *RoomTemplate, arg string) error {
			return olc.SetString(c, arg, "title", &r.Title)
		}},
		{Name: "description", Usage: "[text]", Run: func(c *olc.Ctx, r *RoomTemplate, arg string) error {
			if arg == "" {
				c.BeginText("description for "+r.Title, MaxDescription, func(text string) { r.Description = text })
				return nil
			}
			return olc.SetString(c, arg, "description", &r.Description)
		}},
		{Name: "flags", Usage: "[+|-]<flag> ...", Run: func(c *olc.Ctx, r *RoomTemplate, arg string) error {
			return olc.SetFlags(c, arg, "flags", FlagNames, FlagInDevelopment, &r.Flags)
		}},
		{Name: "affects", Usage: "[+|-]<affect> ...", Run: func(c *olc.Ctx, r *RoomTemplate, arg string) error {
			return olc.SetFlags(c, arg, "affects", AffectNames, 0, &r.Affects)
		}},
		{Name: "exit", Usage: "add <dir> <room vnum> [keywords] | change <n> <field> <value> | remove <n|all>", Run: editExit},
		{Name: "extra", Usage: "add <keyword> | remove <n|all>", Run: editExtra},
		{Name: "interaction", Usage: "add <type> <vnum> <percent> <quantity> [exclusion] | remove <n|all>", Run: editInteraction},
		{Name: "matchexits", Run: func(c *olc.Ctx, r *RoomTemplate, _ string) error {
			return matchExits(c, t, r)
		}},
		{Name: "script", Usage: "add|remove <trigger vnum>", Run: editScript},
		{Name: "spawns", Usage: "add <mob|obj|veh> <vnum> <percent> <limit> | remove <n|all>", Run: editSpawns},
	}
}

// sameAdventure reports whether a and b fall in the same adventure zone,
// or are both outside any.
func sameAdventure(c *olc.Ctx, a, b proto.Vnum) bool {
	ra, oka := c.AdventureFor(a)
	rb, okb := c.AdventureFor(b)
	return oka == okb && ra == rb
}

func exitTarget(c *olc.Ctx, arg string) (proto.Vnum, error) {
	v, err := olc.ParseVnum(arg, false)
	if err != nil || !sameAdventure(c, c.Vnum, v) {
		return 0, olc.Inputf("Invalid room template vnum '%s'; target room must be part of the same adventure zone.", arg)
	}
	return v, nil
}

func editExit(c *olc.Ctx, r *RoomTemplate, arg string) error {
	cmd, rest := olc.SplitArg(arg)
	switch {
	case cmd != "" && proto.IsAbbrev(cmd, "remove"):
		if strings.EqualFold(rest, "all") {
			r.Exits = nil
			c.Printf("You remove all the exits.")
			return nil
		}
		i, err := olc.ListIndex(rest, len(r.Exits))
		if err != nil {
			return olc.Inputf("Invalid exit number.")
		}
		c.Printf("You remove the %s exit.", DirNames[r.Exits[i].Dir])
		r.Exits = olc.RemoveAt(r.Exits, i)
	case cmd != "" && proto.IsAbbrev(cmd, "add"):
		dirArg, rest := olc.SplitArg(rest)
		roomArg, keywords := olc.SplitArg(rest)
		if dirArg == "" || roomArg == "" {
			return olc.Inputf("Usage: exit add <dir> <room template vnum> [keywords if door]")
		}
		dir := ParseDir(dirArg)
		if dir < 0 {
			return olc.Inputf("Invalid direction '%s'.", dirArg)
		}
		target, err := exitTarget(c, roomArg)
		if err != nil {
			return err
		}
		ex := Exit{Dir: dir, Target: target, Keyword: keywords}
		if keywords != "" {
			ex.Info = ExitDoor | ExitClosed
		}
		r.Exits = append(r.Exits, ex)
		if keywords != "" {
			c.Printf("You add an exit %s to %d, with door keywords: %s.", DirNames[dir], target, keywords)
		} else {
			c.Printf("You add an exit %s to %d.", DirNames[dir], target)
		}
	case cmd != "" && proto.IsAbbrev(cmd, "change"):
		numArg, rest := olc.SplitArg(rest)
		fieldArg, value := olc.SplitArg(rest)
		if numArg == "" || fieldArg == "" || value == "" {
			return olc.Inputf("Usage: exit change <number> <field> <value>")
		}
		i, err := olc.ListIndex(numArg, len(r.Exits))
		if err != nil {
			return olc.Inputf("Invalid exit number.")
		}
		r.Exits = slices.Clone(r.Exits)
		ex := &r.Exits[i]
		switch {
		case proto.IsAbbrev(fieldArg, "direction"):
			dir := ParseDir(value)
			if dir < 0 {
				return olc.Inputf("Invalid direction '%s'.", value)
			}
			ex.Dir = dir
			c.Printf("Exit %d direction changed to %s.", i+1, DirNames[dir])
		case proto.IsAbbrev(fieldArg, "room"), proto.IsAbbrev(fieldArg, "target"), proto.IsAbbrev(fieldArg, "vnum"):
			target, err := exitTarget(c, value)
			if err != nil {
				return err
			}
			ex.Target = target
			c.Printf("Exit %d (%s) target changed to [%d].", i+1, DirNames[ex.Dir], target)
		case proto.IsAbbrev(fieldArg, "keywords"):
			if strings.EqualFold(value, "none") {
				ex.Keyword, ex.Info = "", 0
				c.Printf("Exit %d (%s) keywords and door removed.", i+1, DirNames[ex.Dir])
			} else {
				ex.Keyword, ex.Info = value, ExitDoor|ExitClosed
				c.Printf("Exit %d (%s) door keywords set to: %s", i+1, DirNames[ex.Dir], value)
			}
		default:
			return olc.Inputf("You can change: direction, room, keywords")
		}
	default:
		return olc.Inputf("Usage: exit add <dir> <room template vnum> [keywords if door]\r\n" +
			"Usage: exit change <number> <field> <value>\r\n" +
			"Usage: exit remove <number | all>")
	}
	return nil
}

func editExtra(c *olc.Ctx, r *RoomTemplate, arg string) error {
	cmd, rest := olc.SplitArg(arg)
	switch {
	case cmd != "" && proto.IsAbbrev(cmd, "add"):
		if rest == "" || strings.Contains(rest, "~") {
			return olc.Inputf("Usage: extra add <keywords>")
		}
		r.Extras = append(r.Extras, ExtraDesc{Keyword: rest})
		n := len(r.Extras)
		c.BeginText("extra description for "+rest, MaxDescription, func(text string) {
			if n <= len(r.Extras) && r.Extras[n-1].Keyword == rest {
				r.Extras[n-1].Description = text
			}
		})
	case cmd != "" && proto.IsAbbrev(cmd, "remove"):
		if strings.EqualFold(rest, "all") {
			r.Extras = nil
			c.Printf("You remove all the extra descriptions.")
			return nil
		}
		i, err := olc.ListIndex(rest, len(r.Extras))
		if err != nil {
			return err
		}
		c.Printf("You remove the extra description for '%s'.", r.Extras[i].Keyword)
		r.Extras = olc.RemoveAt(r.Extras, i)
	default:
		return olc.Inputf("Usage: extra add <keywords> | remove <number | all>")
	}
	return nil
}

func editInteraction(c *olc.Ctx, r *RoomTemplate, arg string) error {
	cmd, rest := olc.SplitArg(arg)
	const usage = "Usage: interaction add <type> <vnum> <percent> <quantity> [exclusion code] | remove <number | all>"
	switch {
	case cmd != "" && proto.IsAbbrev(cmd, "add"):
		f := strings.Fields(rest)
		if len(f) != 4 && len(f) != 5 {
			return olc.Inputf(usage)
		}
		typ := proto.FlagIndex(InteractNames, f[0])
		if typ < 0 || !RoomInteraction(typ) {
			return olc.Inputf("Invalid room interaction type '%s'.", f[0])
		}
		v, err := olc.ParseVnum(f[1], false)
		if err != nil {
			return err
		}
		if kind := InteractionKind(typ); !c.Exists(kind, v) {
			return olc.Inputf("There is no %s %d.", kind, v)
		}
		pct, ok := parsePercent(f[2])
		if !ok {
			return olc.Inputf("Percent must be 0.01-100.")
		}
		qty, err := strconv.Atoi(f[3])
		if err != nil || qty < 1 {
			return olc.Inputf("Quantity must be at least 1.")
		}
		in := Interaction{Type: typ, Vnum: v, Percent: pct, Quantity: qty}
		if len(f) == 5 {
			if len(f[4]) != 1 || !isAlpha(f[4][0]) {
				return olc.Inputf("Exclusion codes are a single letter.")
			}
			in.Exclusion = f[4][0]
		}
		r.Interactions = append(r.Interactions, in)
		c.Printf("You add %s: %dx %d %.2f%%.", InteractNames[typ], qty, v, pct)
	case cmd != "" && proto.IsAbbrev(cmd, "remove"):
		if strings.EqualFold(rest, "all") {
			r.Interactions = nil
			c.Printf("You remove all the interactions.")
			return nil
		}
		i, err := olc.ListIndex(rest, len(r.Interactions))
		if err != nil {
			return err
		}
		c.Printf("You remove the %s interaction.", InteractNames[r.Interactions[i].Type])
		r.Interactions = olc.RemoveAt(r.Interactions, i)
	default:
		return olc.Inputf(usage)
	}
	return nil
}

func editSpawns(c *olc.Ctx, r *RoomTemplate, arg string) error {
	cmd, rest := olc.SplitArg(arg)
	const usage = "Usage: spawns add <mob|obj|veh> <vnum> <percent> <limit> | remove <number | all>"
	switch {
	case cmd != "" && proto.IsAbbrev(cmd, "add"):
		f := strings.Fields(rest)
		if len(f) != 4 {
			return olc.Inputf(usage)
		}
		typ := proto.FlagIndex(SpawnNames, f[0])
		if typ < 0 {
			return olc.Inputf("Invalid spawn type '%s'.", f[0])
		}
		v, err := olc.ParseVnum(f[1], false)
		if err != nil {
			return err
		}
		if kind := SpawnKind(typ); !c.Exists(kind, v) {
			return olc.Inputf("There is no %s %d.", kind, v)
		}
		pct, ok := parsePercent(f[2])
		if !ok {
			return olc.Inputf("Percent must be 0.01-100.")
		}
		limit, err := strconv.Atoi(f[3])
		if err != nil || limit < -1 {
			return olc.Inputf("Limit must be -1 (none) or more.")
		}
		r.Spawns = append(r.Spawns, Spawn{Type: typ, Vnum: v, Percent: pct, Limit: limit})
		c.Printf("You add spawn for %s %d (%.2f%%, limit %d).", SpawnNames[typ], v, pct, limit)
	case cmd != "" && proto.IsAbbrev(cmd, "remove"):
		if strings.EqualFold(rest, "all") {
			r.Spawns = nil
			c.Printf("You remove all the spawns.")
			return nil
		}
		i, err := olc.ListIndex(rest, len(r.Spawns))
		if err != nil {
			return err
		}
		c.Printf("You remove the spawn for %s %d.", SpawnNames[r.Spawns[i].Type], r.Spawns[i].Vnum)
		r.Spawns = olc.RemoveAt(r.Spawns, i)
	default:
		return olc.Inputf(usage)
	}
	return nil
}

func editScript(c *olc.Ctx, r *RoomTemplate, arg string) error {
	cmd, rest := olc.SplitArg(arg)
	if cmd == "" || rest == "" {
		return olc.Inputf("Usage: script add|remove <trigger vnum>")
	}
	v, err := olc.ParseVnum(rest, false)
	if err != nil {
		return err
	}
	switch {
	case proto.IsAbbrev(cmd, "add"):
		if !c.Exists(proto.KindTrigger, v) {
			return olc.Inputf("There is no trigger %d.", v)
		}
		r.Scripts = append(slices.Clone(r.Scripts), v)
		c.Printf("You attach trigger %d.", v)
	case proto.IsAbbrev(cmd, "remove"):
		if !r.removeScript(v) {
			return olc.Inputf("Trigger %d isn't attached.", v)
		}
		c.Printf("You remove trigger %d.", v)
	default:
		return olc.Inputf("Usage: script add|remove <trigger vnum>")
	}
	return nil
}

// matchExits adds a reverse exit for every exit in the same adventure
// that leads to the template being edited.
func matchExits(c *olc.Ctx, t *olc.Table[*RoomTemplate], r *RoomTemplate) error {
	zone, ok := c.AdventureFor(c.Vnum)
	if !ok {
		return olc.Inputf("You cannot match exits on a room template that is outside any adventure zone.")
	}
	r.Exits = slices.Clone(r.Exits)
	found := false
	for other := range t.Records() {
		if other.Vnum() == c.Vnum || !zone.Contains(other.Vnum()) {
			continue
		}
		for _, ex := range other.Exits {
			if ex.Target != c.Vnum {
				continue
			}
			if back, added := r.MatchExit(other.Vnum(), ex); added {
				c.Printf("Matched exit %s to %d %s.", DirNames[back.Dir], other.Vnum(), other.Title)
				found = true
			}
		}
	}
	if !found {
		c.Printf("No exits to match.")
	}
	return nil
}

// parsePercent reads a chance in 0.01-100, rounded to the two places the
// library file keeps.
func parsePercent(arg string) (float64, bool) {
	pct, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, false
	}
	pct = math.Round(pct*100) / 100
	return pct, pct >= 0.01 && pct <= 100
}
