package console

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/crystal-mush/empireolc/pkg/audit"
	"github.com/crystal-mush/empireolc/pkg/gameconfig"
	"github.com/crystal-mush/empireolc/pkg/history"
	"github.com/crystal-mush/empireolc/pkg/olc"
	"github.com/crystal-mush/empireolc/pkg/proto"
)

func initCommands() map[string]*Command {
	cmds := make(map[string]*Command)
	register := func(name, help string, h Handler) {
		cmds[name] = &Command{Name: name, Handler: h, Help: help}
	}
	register("olc", "olc <type> <command> [args]", cmdOLC)
	register("config", "config [group|key] [value]", cmdConfig)
	register("history", "history [type [vnum]]", cmdHistory)
	register("help", "help", cmdHelp)
	register("quit", "quit", cmdQuit)
	return cmds
}

// olcHandler receives the table the command names.
type olcHandler func(c *Console, t olc.AnyTable, args string)

func initOLCCommands() map[string]*Command {
	cmds := make(map[string]*Command)
	register := func(name, help string, h olcHandler) {
		cmds[name] = &Command{Name: name, Help: help, Handler: func(c *Console, args string) {
			// The kind is resolved by cmdOLC and carried in args.
			kw, rest := olc.SplitArg(args)
			kind, _ := proto.ParseKind(kw)
			t, _ := c.World.Registry.Table(kind)
			h(c, t, rest)
		}}
	}
	register("edit", "edit <vnum|new>", olcEdit)
	register("copy", "copy <from> <to>", olcCopy)
	register("save", "save", olcSave)
	register("abort", "abort", olcAbort)
	register("display", "display", olcDisplay)
	register("list", "list [detail]", olcList)
	register("search", "search <words>", olcSearch)
	register("fullsearch", "fullsearch [vmin n] [vmax n] [flagged f] [unflagged f] [words]", olcFullSearch)
	register("audit", "audit [vmin vmax]", olcAudit)
	register("delete", "delete <vnum>", olcDelete)
	register("occurrences", "occurrences <vnum>", olcOccurrences)
	register("free", "free", olcFree)
	return cmds
}

func cmdHelp(c *Console, _ string) {
	var lines []string
	for _, cmd := range c.commands {
		lines = append(lines, "  "+cmd.Help)
	}
	for _, cmd := range c.olcCmds {
		lines = append(lines, "  olc <type> "+cmd.Help)
	}
	sort.Strings(lines)
	var kinds []string
	for _, k := range c.World.Registry.Kinds() {
		kinds = append(kinds, k.String())
	}
	c.Session.Page(fmt.Sprintf("Commands:\n%s\n  .<field> <value>  (while editing)\nTypes: %s\n",
		strings.Join(lines, "\n"), strings.Join(kinds, ", ")))
}

func cmdQuit(c *Console, _ string) {
	if _, _, editing := c.Session.Editing(); editing {
		c.send("You are still editing; save or abort first.")
		return
	}
	c.quit = true
	c.send("Goodbye.")
}

// cmdOLC parses "<type> <command> args" and dispatches the subcommand.
func cmdOLC(c *Console, args string) {
	typ, rest := olc.SplitArg(args)
	sub, subArgs := olc.SplitArg(rest)
	if typ == "" {
		if kind, v, ok := c.Session.Editing(); ok {
			c.send("You are editing %s %d.", kind, v)
		} else {
			c.send("Usage: olc <type> <command> [args]")
		}
		return
	}
	// "olc save" and friends act on the record being edited.
	switch sub := strings.ToLower(typ); sub {
	case "save", "abort", "display":
		kind, _, editing := c.Session.Editing()
		if !editing {
			c.report(olc.ErrNotEditing)
			return
		}
		c.olcCmds[sub].Handler(c, kind.String())
		return
	}
	kind, ok := proto.ParseKind(typ)
	if !ok {
		c.send("Unknown OLC type '%s'.", typ)
		return
	}
	if _, ok := c.World.Registry.Table(kind); !ok {
		c.send("%s is not editable here.", kind)
		return
	}
	cmd, ok := c.olcCmds[strings.ToLower(sub)]
	if !ok {
		c.send("Unknown OLC command '%s'. Try 'help'.", sub)
		return
	}
	cmd.Handler(c, kind.String()+" "+subArgs)
}

func olcEdit(c *Console, t olc.AnyTable, args string) {
	v := proto.Nothing
	if !strings.EqualFold(strings.TrimSpace(args), "new") {
		var ok bool
		if v, ok = parseVnum(args); !ok {
			c.send("Edit which %s? Give a vnum or 'new'.", t.Kind())
			return
		}
	}
	if err := c.World.Registry.Edit(c.Session, t.Kind(), v); err != nil {
		c.report(err)
		return
	}
	_, v, _ = c.Session.Editing()
	if t.Exists(v) {
		c.send("You are now editing %s %d.", t.Kind(), v)
	} else {
		c.send("You are now creating %s %d.", t.Kind(), v)
	}
	olcDisplay(c, t, "")
}

func olcCopy(c *Console, t olc.AnyTable, args string) {
	fa, ta := olc.SplitArg(args)
	from, ok1 := parseVnum(fa)
	to, ok2 := parseVnum(ta)
	if !ok1 || !ok2 {
		c.send("Usage: olc %s copy <from vnum> <to vnum>", t.Kind())
		return
	}
	if err := c.World.Registry.Copy(c.Session, t.Kind(), from, to); err != nil {
		c.report(err)
		return
	}
	c.send("You are now editing a copy of %s %d as %d.", t.Kind(), from, to)
}

func olcSave(c *Console, _ olc.AnyTable, _ string) {
	kind, v, _ := c.Session.Editing()
	if _, err := c.World.Registry.Commit(c.Session); err != nil {
		c.report(err)
		return
	}
	c.send("Your changes to %s %d have been saved.", kind, v)
}

func olcAbort(c *Console, _ olc.AnyTable, _ string) {
	if err := c.World.Registry.Abort(c.Session); err != nil {
		c.report(err)
		return
	}
	c.send("You abort your changes.")
}

func olcDisplay(c *Console, _ olc.AnyTable, _ string) {
	text, err := c.World.Registry.Display(c.Session)
	if err != nil {
		c.report(err)
		return
	}
	c.Session.Page(text)
}

func olcList(c *Console, t olc.AnyTable, args string) {
	detail := strings.HasPrefix(strings.ToLower(strings.TrimSpace(args)), "d")
	var lines []string
	c.World.Registry.Do(func() { lines = t.List(detail) })
	c.page(fmt.Sprintf("%s records", t.Kind()), lines)
}

func olcSearch(c *Console, t olc.AnyTable, args string) {
	if strings.TrimSpace(args) == "" {
		c.send("Search %ss for what?", t.Kind())
		return
	}
	var lines []string
	c.World.Registry.Do(func() { lines = t.SearchLines(args) })
	c.page(fmt.Sprintf("%s search for '%s'", t.Kind(), strings.TrimSpace(args)), lines)
}

func olcFullSearch(c *Console, t olc.AnyTable, args string) {
	opts, err := olc.ParseFullSearch(args)
	if err != nil {
		c.report(err)
		return
	}
	var lines []string
	c.World.Registry.Do(func() { lines, err = t.FullSearchLines(opts) })
	if err != nil {
		c.report(err)
		return
	}
	c.page(fmt.Sprintf("%s fullsearch", t.Kind()), lines)
}

func olcAudit(c *Console, t olc.AnyTable, args string) {
	vmin, vmax := proto.Vnum(0), proto.Vnum(1<<31-1)
	if strings.TrimSpace(args) != "" {
		a, b := olc.SplitArg(args)
		lo, ok1 := parseVnum(a)
		hi, ok2 := parseVnum(b)
		if !ok1 || !ok2 || lo > hi {
			c.send("Usage: olc %s audit [vmin vmax]", t.Kind())
			return
		}
		vmin, vmax = lo, hi
	}
	var found []audit.Finding
	c.World.Registry.Do(func() { found = t.CheckRange(c.World, vmin, vmax) })
	if len(found) == 0 {
		c.send("No problems found.")
		return
	}
	lines := make([]string, len(found))
	for i, f := range found {
		lines[i] = f.String()
	}
	c.page(fmt.Sprintf("%s audit", t.Kind()), lines)
}

func olcDelete(c *Console, t olc.AnyTable, args string) {
	v, ok := parseVnum(args)
	if !ok {
		c.send("Delete which %s?", t.Kind())
		return
	}
	err := c.World.Registry.Delete(c.Session, t.Kind(), v)
	switch {
	case errors.Is(err, olc.ErrNotFound):
		c.send("There is no %s %d.", t.Kind(), v)
	case err != nil:
		c.report(err)
	default:
		c.send("%s %d deleted.", strings.ToUpper(t.Kind().String()[:1])+t.Kind().String()[1:], v)
	}
}

func olcOccurrences(c *Console, t olc.AnyTable, args string) {
	v, ok := parseVnum(args)
	if !ok {
		c.send("Find occurrences of which %s?", t.Kind())
		return
	}
	hits := c.World.Registry.Referrers(t.Kind(), v)
	lines := make([]string, len(hits))
	for i, h := range hits {
		lines[i] = fmt.Sprintf("%s %s (%s)", strings.ToUpper(h.Kind.String()[:3]), h.Line, h.Label)
	}
	c.page(fmt.Sprintf("Occurrences of %s %d", t.Kind(), v), lines)
}

func olcFree(c *Console, t olc.AnyTable, _ string) {
	var v proto.Vnum
	c.World.Registry.Do(func() { v = t.NextVnum() })
	c.send("The next free %s vnum is %d.", t.Kind(), v)
}

// page sends a titled list, or a "none" line when lines is empty.
func (c *Console) page(title string, lines []string) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s:\n", title)
	if len(lines) == 0 {
		sb.WriteString(" none\n")
	}
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	c.Session.Page(sb.String())
}

func cmdConfig(c *Console, args string) {
	cfg := c.World.Config
	key, value := olc.SplitArg(args)
	if key == "" {
		c.send("Usage: config <group|key> [value]. Groups: %s", strings.Join(gameconfig.GroupNames, ", "))
		return
	}
	if value == "" {
		text, err := cfg.Show(key)
		if err != nil {
			c.report(err)
			return
		}
		c.Session.Page(text)
		return
	}
	if c.Session.Level < olc.LevelImplementor {
		c.report(olc.ErrPermission)
		return
	}
	msg, err := cfg.Set(key, value)
	if errors.Is(err, gameconfig.ErrUnknownKey) {
		c.send("Unknown config key '%s'.", key)
		return
	}
	if msg != "" {
		c.send("%s", msg)
	}
	if err != nil {
		c.report(err)
	}
}

func cmdHistory(c *Console, args string) {
	if c.History == nil {
		c.send("The edit history is not enabled.")
		return
	}
	var f history.Filter
	typ, rest := olc.SplitArg(args)
	if typ != "" {
		kind, ok := proto.ParseKind(typ)
		if !ok {
			c.send("Unknown OLC type '%s'.", typ)
			return
		}
		f.Kind, f.ByKind = kind, true
		if rest != "" {
			v, ok := parseVnum(rest)
			if !ok {
				c.send("Invalid vnum '%s'.", rest)
				return
			}
			f.Vnum, f.ByVnum = v, true
		}
	}
	rows, err := c.History.Recent(20, f)
	if err != nil {
		c.report(err)
		return
	}
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = r.String()
	}
	c.page("Recent edits", lines)
}
