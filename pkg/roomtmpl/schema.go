package roomtmpl

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/crystal-mush/empireolc/pkg/audit"
	"github.com/crystal-mush/empireolc/pkg/libfile"
	"github.com/crystal-mush/empireolc/pkg/olc"
	"github.com/crystal-mush/empireolc/pkg/proto"
)

const Suffix = ".rmt"

type schema struct{}

func (schema) Kind() proto.Kind                      { return proto.KindRoomTemplate }
func (schema) New(v proto.Vnum) *RoomTemplate        { return New(v) }
func (schema) Name(r *RoomTemplate) string           { return r.Title }
func (schema) FlagNames() []string                   { return FlagNames }
func (schema) Flags(r *RoomTemplate) proto.Bitvector { return r.Flags }
func (schema) Assign(dst, src *RoomTemplate)         { dst.assign(src) }
func (schema) SetInDevelopment(r *RoomTemplate)      { r.Flags = r.Flags.Set(FlagInDevelopment) }
func (schema) Less(a, b *RoomTemplate) bool          { return a.vnum < b.vnum }

// MinRecords keeps at least one template loaded.
func (schema) MinRecords() int { return 1 }

func (schema) Copy(r *RoomTemplate) *RoomTemplate {
	n := &RoomTemplate{}
	n.assign(r)
	return n
}

func (schema) Keywords(r *RoomTemplate) []string {
	kw := []string{r.Title, r.Description}
	for _, ex := range r.Extras {
		kw = append(kw, ex.Keyword)
	}
	return kw
}

func (schema) Sanitize(r *RoomTemplate) {
	if strings.TrimSpace(r.Title) == "" {
		r.Title = DefaultTitle
	}
}

// Read parses title~, description~, the "flags affects [functions]" line,
// then the tagged sections: D<dir> exits, E extra descriptions, and the
// one-line I (interaction), M (spawn) and T (script) entries.
func (schema) Read(rd *libfile.Reader, v proto.Vnum) (*RoomTemplate, error) {
	r := New(v)
	var err error
	if r.Title, err = rd.ReadString(); err != nil {
		return nil, fmt.Errorf("rmt #%d title: %w", v, err)
	}
	if r.Description, err = rd.ReadString(); err != nil {
		return nil, fmt.Errorf("rmt #%d description: %w", v, err)
	}
	f, err := rd.Fields(2, 3)
	if err != nil {
		return nil, fmt.Errorf("rmt #%d flags: %w", v, err)
	}
	r.Flags = libfile.AlphaToFlags(f[0])
	r.Affects = libfile.AlphaToFlags(f[1])
	if len(f) == 3 {
		r.Functions = libfile.AlphaToFlags(f[2])
	}

	err = rd.Tags(func(tag byte, arg string) error {
		switch tag {
		case 'D':
			return readExit(rd, r, arg)
		case 'E':
			kw, err := rd.ReadString()
			if err != nil {
				return err
			}
			desc, err := rd.ReadString()
			if err != nil {
				return err
			}
			r.Extras = append(r.Extras, ExtraDesc{Keyword: kw, Description: desc})
		case 'I':
			in, err := parseInteraction(rd, arg)
			if err != nil {
				return err
			}
			r.Interactions = append(r.Interactions, in)
		case 'M':
			sp, err := parseSpawn(rd, arg)
			if err != nil {
				return err
			}
			r.Spawns = append(r.Spawns, sp)
		case 'T':
			n, err := rd.Atoi(strings.TrimSpace(dropComment(arg)))
			if err != nil {
				return err
			}
			r.Scripts = append(r.Scripts, proto.Vnum(n))
		default:
			return rd.UnknownTag(tag)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rmt #%d tags: %w", v, err)
	}
	return r, nil
}

// dropComment strips a trailing "# note" from a one-line tag.
func dropComment(s string) string {
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}
	return s
}

func readExit(rd *libfile.Reader, r *RoomTemplate, arg string) error {
	dir, err := rd.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return err
	}
	if dir < 0 || dir >= NumDirs {
		return rd.Errorf("bad exit direction %d", dir)
	}
	kw, err := rd.ReadString()
	if err != nil {
		return err
	}
	f, err := rd.Fields(2, 2)
	if err != nil {
		return err
	}
	target, err := rd.Atoi(f[1])
	if err != nil {
		return err
	}
	r.Exits = append(r.Exits, Exit{Dir: dir, Keyword: kw, Info: libfile.AlphaToFlags(f[0]), Target: proto.Vnum(target)})
	return nil
}

// parseInteraction reads "type vnum percent quantity [exclusion]".
func parseInteraction(rd *libfile.Reader, arg string) (Interaction, error) {
	f := strings.Fields(dropComment(arg))
	if len(f) != 4 && len(f) != 5 {
		return Interaction{}, rd.Errorf("bad interaction %q", strings.TrimSpace(arg))
	}
	var in Interaction
	var err error
	if in.Type, err = rd.Atoi(f[0]); err != nil {
		return in, err
	}
	if in.Type < 0 || in.Type >= len(InteractNames) {
		return in, rd.Errorf("bad interaction type %d", in.Type)
	}
	v, err := rd.Atoi(f[1])
	if err != nil {
		return in, err
	}
	in.Vnum = proto.Vnum(v)
	if in.Percent, err = rd.Float(f[2]); err != nil {
		return in, err
	}
	if in.Quantity, err = rd.Atoi(f[3]); err != nil {
		return in, err
	}
	if len(f) == 5 && len(f[4]) == 1 && isAlpha(f[4][0]) {
		in.Exclusion = f[4][0]
	}
	return in, nil
}

// parseSpawn reads "type vnum percent limit".
func parseSpawn(rd *libfile.Reader, arg string) (Spawn, error) {
	f := strings.Fields(dropComment(arg))
	if len(f) != 4 {
		return Spawn{}, rd.Errorf("bad spawn %q", strings.TrimSpace(arg))
	}
	var sp Spawn
	var err error
	if sp.Type, err = rd.Atoi(f[0]); err != nil {
		return sp, err
	}
	if sp.Type < 0 || sp.Type >= len(SpawnNames) {
		return sp, rd.Errorf("bad spawn type %d", sp.Type)
	}
	v, err := rd.Atoi(f[1])
	if err != nil {
		return sp, err
	}
	sp.Vnum = proto.Vnum(v)
	if sp.Percent, err = rd.Float(f[2]); err != nil {
		return sp, err
	}
	if sp.Limit, err = rd.Atoi(f[3]); err != nil {
		return sp, err
	}
	return sp, nil
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func (schema) Write(w *libfile.Writer, r *RoomTemplate) {
	w.String(r.Title)
	w.String(r.Description)
	w.Printf("%s %s %s\n", libfile.FlagsToAlpha(r.Flags), libfile.FlagsToAlpha(r.Affects), libfile.FlagsToAlpha(r.Functions))
	for _, ex := range r.Exits {
		w.Tag('D', strconv.Itoa(ex.Dir))
		w.String(ex.Keyword)
		w.Printf("%s %d\n", libfile.FlagsToAlpha(ex.Info), ex.Target)
	}
	for _, ex := range r.Extras {
		w.Tag('E', "")
		w.String(ex.Keyword)
		w.String(ex.Description)
	}
	// Percents are stored to two places; the editor rounds input to match.
	for _, in := range r.Interactions {
		w.Printf("I %d %d %.2f %d", in.Type, in.Vnum, in.Percent, in.Quantity)
		if in.Exclusion != 0 {
			w.Printf(" %c", in.Exclusion)
		}
		w.Printf("  # %s\n", InteractNames[in.Type])
	}
	for _, sp := range r.Spawns {
		w.Printf("M %d %d %.2f %d\n", sp.Type, sp.Vnum, sp.Percent, sp.Limit)
	}
	for _, t := range r.Scripts {
		w.Printf("T %d\n", t)
	}
	w.End()
}

func (schema) ListLine(r *RoomTemplate, detail bool) string {
	if detail && r.Flags.Has(listFlags) {
		return fmt.Sprintf("[%5d] %s - %s", r.vnum, r.Title, (r.Flags & listFlags).Names(FlagNames))
	}
	return fmt.Sprintf("[%5d] %s", r.vnum, r.Title)
}

func (schema) Show(r *RoomTemplate, _ *olc.Session) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<title> %s\n", r.Title)
	fmt.Fprintf(&sb, "<description>\n%s\n", strings.ReplaceAll(r.Description, "\r\n", "\n"))
	fmt.Fprintf(&sb, "<flags> %s\n", r.Flags.Names(FlagNames))
	fmt.Fprintf(&sb, "<affects> %s\n", r.Affects.Names(AffectNames))

	sb.WriteString("Exits: <exit>, <matchexits>\n")
	for i, ex := range r.Exits {
		fmt.Fprintf(&sb, "%2d. %s: [%d]", i+1, DirNames[ex.Dir], ex.Target)
		if ex.Info != 0 {
			fmt.Fprintf(&sb, " ( %s)", ex.Info.Names(ExitNames))
		}
		if ex.Keyword != "" {
			fmt.Fprintf(&sb, " keyword: \"%s\"", ex.Keyword)
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("Extra descriptions: <extra>\n")
	for i, ex := range r.Extras {
		fmt.Fprintf(&sb, "%2d. %s\n", i+1, ex.Keyword)
	}
	sb.WriteString("Interactions: <interaction>\n")
	for i, in := range r.Interactions {
		fmt.Fprintf(&sb, "%2d. %s: %dx [%d] %.2f%%", i+1, InteractNames[in.Type], in.Quantity, in.Vnum, in.Percent)
		if in.Exclusion != 0 {
			fmt.Fprintf(&sb, " (%c)", in.Exclusion)
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("Spawns: <spawns>\n")
	for i, sp := range r.Spawns {
		fmt.Fprintf(&sb, "%2d. [%s] %d (%.2f%%, limit %d)\n", i+1, SpawnNames[sp.Type], sp.Vnum, sp.Percent, sp.Limit)
	}
	sb.WriteString("Scripts: <script>\n")
	for i, t := range r.Scripts {
		fmt.Fprintf(&sb, "%2d. [%d]\n", i+1, t)
	}
	return sb.String()
}

func (schema) Audit(r *RoomTemplate, ctx audit.Context) []audit.Finding {
	const k = proto.KindRoomTemplate
	v := r.vnum
	var out []audit.Finding

	if r.InDevelopment() {
		out = append(out, audit.Warning(k, v, audit.CatDevelopment, "IN-DEVELOPMENT"))
	}
	adv, inAdv := ctx.AdventureFor(v)
	if !inAdv {
		out = append(out, audit.Problem(k, v, audit.CatInvariant, "Not part of any adventure"))
	}
	if strings.TrimSpace(r.Title) == "" || r.Title == DefaultTitle {
		out = append(out, audit.Problem(k, v, audit.CatPlaceholder, "Title not set"))
	}
	if !audit.Capitalized(r.Title) {
		out = append(out, audit.Warning(k, v, audit.CatFormat, "Title not capitalized"))
	}
	if audit.EndsWithPunct(r.Title) {
		out = append(out, audit.Warning(k, v, audit.CatFormat, "Title is punctuated"))
	}
	desc := strings.TrimSpace(r.Description)
	switch {
	case desc == "" || strings.EqualFold(desc, "Nothing."):
		out = append(out, audit.Problem(k, v, audit.CatPlaceholder, "Desc not set"))
	case strings.HasPrefix(desc, "Nothing."):
		out = append(out, audit.Warning(k, v, audit.CatPlaceholder, "Desc starts with 'Nothing.'"))
	}
	if r.Flags.Has(FlagDark) && r.Flags.Has(FlagLight) {
		out = append(out, audit.Problem(k, v, audit.CatInvariant, "Both DARK and LIGHT"))
	}

	for _, ex := range r.Exits {
		if !ctx.Exists(k, ex.Target) {
			out = append(out, audit.Problem(k, v, audit.CatReference, "Exit %s: invalid target room %d", DirNames[ex.Dir], ex.Target))
		} else if other, ok := ctx.AdventureFor(ex.Target); ok != inAdv || other != adv {
			out = append(out, audit.Problem(k, v, audit.CatReference, "Exit %s: links outside the adventure", DirNames[ex.Dir]))
		}
	}
	for _, sp := range r.Spawns {
		if !ctx.Exists(SpawnKind(sp.Type), sp.Vnum) {
			out = append(out, audit.Problem(k, v, audit.CatReference, "Spawn %s %d: No such %s", strings.ToLower(SpawnNames[sp.Type]), sp.Vnum, SpawnKind(sp.Type)))
		}
	}
	for _, in := range r.Interactions {
		if !RoomInteraction(in.Type) {
			out = append(out, audit.Problem(k, v, audit.CatInvariant, "Interaction %s is not allowed on rooms", InteractNames[in.Type]))
		}
		if !ctx.Exists(InteractionKind(in.Type), in.Vnum) {
			out = append(out, audit.Problem(k, v, audit.CatReference, "Interaction %s: invalid vnum %d", InteractNames[in.Type], in.Vnum))
		}
	}
	for _, t := range r.Scripts {
		if !ctx.Exists(proto.KindTrigger, t) {
			out = append(out, audit.Problem(k, v, audit.CatReference, "Script %d: no such trigger", t))
		}
	}
	for _, ex := range r.Extras {
		if strings.TrimSpace(ex.Keyword) == "" {
			out = append(out, audit.Problem(k, v, audit.CatMissing, "Extra description with no keyword"))
		} else if strings.TrimSpace(ex.Description) == "" {
			out = append(out, audit.Problem(k, v, audit.CatMissing, "Extra description '%s' has no text", ex.Keyword))
		}
	}
	return out
}

// NewTable creates the room template table with its editor fields.
func NewTable(lib *libfile.Library) *olc.Table[*RoomTemplate] {
	t := olc.NewTable[*RoomTemplate](schema{}, lib)
	t.Fields(fields(t)...)
	return t
}

// Relations are the room template back-references. Losing an exit or a
// spawn changes how the adventure plays, so the holder goes back into
// development.
func Relations() []olc.Relation {
	rels := []olc.Relation{
		olc.Ref[*RoomTemplate]{
			From: proto.KindRoomTemplate, To: proto.KindRoomTemplate,
			Field:   "exits",
			Message: "A room template that the room template you're editing links to was deleted.",
			InDev:   true,
			Has:     func(r *RoomTemplate, v proto.Vnum) bool { return r.HasExitTo(v) },
			Drop:    func(r *RoomTemplate, v proto.Vnum) bool { return r.RemoveExitsTo(v) },
		},
		olc.Ref[*RoomTemplate]{
			From: proto.KindRoomTemplate, To: proto.KindTrigger,
			Field:   "scripts",
			Message: "A trigger attached to the room template you're editing was deleted.",
			Has:     func(r *RoomTemplate, v proto.Vnum) bool { return slices.Contains(r.Scripts, v) },
			Drop:    func(r *RoomTemplate, v proto.Vnum) bool { return r.removeScript(v) },
		},
	}
	for _, kind := range spawnKinds {
		rels = append(rels, olc.Ref[*RoomTemplate]{
			From: proto.KindRoomTemplate, To: kind,
			Field:   "spawns",
			Message: fmt.Sprintf("A %s spawned by the room template you're editing was deleted.", kind),
			InDev:   true,
			Has:     func(r *RoomTemplate, v proto.Vnum) bool { return r.usesSpawn(kind, v) },
			Drop:    func(r *RoomTemplate, v proto.Vnum) bool { return r.removeSpawns(kind, v) },
		})
	}
	return rels
}
