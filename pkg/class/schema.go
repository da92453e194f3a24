package class

import (
	"fmt"
	"strings"

	"github.com/crystal-mush/empireolc/pkg/audit"
	"github.com/crystal-mush/empireolc/pkg/libfile"
	"github.com/crystal-mush/empireolc/pkg/olc"
	"github.com/crystal-mush/empireolc/pkg/proto"
)

const Suffix = ".class"

type schema struct{}

func (schema) Kind() proto.Kind               { return proto.KindClass }
func (schema) New(v proto.Vnum) *Class        { return New(v) }
func (schema) Name(c *Class) string           { return c.Name }
func (schema) FlagNames() []string            { return FlagNames }
func (schema) Flags(c *Class) proto.Bitvector { return c.Flags }
func (schema) Assign(dst, src *Class)         { dst.assign(src) }
func (schema) SetInDevelopment(c *Class)      { c.Flags = c.Flags.Set(FlagInDevelopment) }
func (schema) Keywords(c *Class) []string     { return []string{c.Name, c.Abbrev} }
func (schema) Less(a, b *Class) bool          { return proto.FoldCompare(a.Name, b.Name) < 0 }

func (schema) Copy(c *Class) *Class {
	n := &Class{}
	n.assign(c)
	return n
}

func (schema) Sanitize(c *Class) {
	if strings.TrimSpace(c.Name) == "" {
		c.Name = DefaultName
	}
	if strings.TrimSpace(c.Abbrev) == "" {
		c.Abbrev = DefaultAbbrev
	}
}

// Read parses name~, abbrev~, the flags line, then tags: K (skill level),
// A (role ability) and P (four pool sizes), each with its data on the
// following line.
func (schema) Read(r *libfile.Reader, v proto.Vnum) (*Class, error) {
	c := New(v)
	var err error
	if c.Name, err = r.ReadString(); err != nil {
		return nil, fmt.Errorf("class #%d name: %w", v, err)
	}
	if c.Abbrev, err = r.ReadString(); err != nil {
		return nil, fmt.Errorf("class #%d abbrev: %w", v, err)
	}
	f, err := r.Fields(1, 1)
	if err != nil {
		return nil, fmt.Errorf("class #%d flags: %w", v, err)
	}
	c.Flags = libfile.AlphaToFlags(f[0])

	err = r.Tags(func(tag byte, _ string) error {
		switch tag {
		case 'K':
			n, err := r.ReadInts(2)
			if err != nil {
				return err
			}
			c.Requirements = append(c.Requirements, SkillReq{Skill: proto.Vnum(n[0]), Level: n[1]})
		case 'A':
			n, err := r.ReadInts(2)
			if err != nil {
				return err
			}
			if n[0] < 0 || n[0] >= len(RoleNames) {
				return r.Errorf("bad role %d", n[0])
			}
			c.Abilities = append(c.Abilities, RoleAbility{Role: n[0], Ability: proto.Vnum(n[1])})
		case 'P':
			n, err := r.ReadInts(NumPools)
			if err != nil {
				return err
			}
			copy(c.Pools[:], n)
		default:
			return r.UnknownTag(tag)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("class #%d tags: %w", v, err)
	}
	return c, nil
}

func (schema) Write(w *libfile.Writer, c *Class) {
	w.String(c.Name)
	w.String(c.Abbrev)
	w.Printf("%s\n", libfile.FlagsToAlpha(c.Flags))
	for _, req := range c.Requirements {
		w.Printf("K\n%d %d\n", req.Skill, req.Level)
	}
	for _, ra := range c.Abilities {
		w.Printf("A\n%d %d\n", ra.Role, ra.Ability)
	}
	w.Printf("P\n%d %d %d %d\n", c.Pools[PoolHealth], c.Pools[PoolMoves], c.Pools[PoolMana], c.Pools[PoolBlood])
	w.End()
}

func (schema) ListLine(c *Class, detail bool) string {
	if !detail {
		return fmt.Sprintf("[%5d] %s (%s)", c.vnum, c.Name, c.Abbrev)
	}
	skills := make([]string, len(c.Requirements))
	for i, req := range c.Requirements {
		skills[i] = fmt.Sprintf("%d:%d", req.Skill, req.Level)
	}
	return fmt.Sprintf("[%5d] %s (%s) requires %s", c.vnum, c.Name, c.Abbrev, strings.Join(skills, ", "))
}

func (schema) Show(c *Class, _ *olc.Session) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<name> %s\n", c.Name)
	fmt.Fprintf(&sb, "<abbrev> %s\n", c.Abbrev)
	fmt.Fprintf(&sb, "<flags> %s\n", c.Flags.Names(FlagNames))
	sb.WriteString("Required skills: <requiresskill>\n")
	for _, req := range c.Requirements {
		fmt.Fprintf(&sb, "  [%d] at %d\n", req.Skill, req.Level)
	}
	sb.WriteString("Roles: <role>\n")
	for role := RoleTank; role < len(RoleNames); role++ {
		abils := c.RoleAbilities(role)
		if len(abils) == 0 {
			continue
		}
		parts := make([]string, len(abils))
		for i, a := range abils {
			parts[i] = fmt.Sprintf("[%d]", a)
		}
		fmt.Fprintf(&sb, "  %s: %s\n", RoleNames[role], strings.Join(parts, ", "))
	}
	sb.WriteString("Pools: <pool>\n")
	for i, name := range PoolNames {
		fmt.Fprintf(&sb, "  %s: %d\n", name, c.Pools[i])
	}
	return sb.String()
}

func (schema) Audit(c *Class, ctx audit.Context) []audit.Finding {
	const k = proto.KindClass
	v := c.vnum
	var out []audit.Finding

	if c.InDevelopment() {
		out = append(out, audit.Warning(k, v, audit.CatDevelopment, "IN-DEVELOPMENT"))
	}
	if strings.TrimSpace(c.Name) == "" || proto.FoldEqual(c.Name, DefaultName) {
		out = append(out, audit.Problem(k, v, audit.CatPlaceholder, "No name set"))
	}
	if strings.TrimSpace(c.Abbrev) == "" || c.Abbrev == DefaultAbbrev {
		out = append(out, audit.Problem(k, v, audit.CatPlaceholder, "No abbreviation set"))
	} else if len(c.Abbrev) > MaxAbbrev {
		out = append(out, audit.Warning(k, v, audit.CatFormat, "Abbreviation '%s' is longer than %d", c.Abbrev, MaxAbbrev))
	}
	if len(c.Requirements) == 0 {
		out = append(out, audit.Problem(k, v, audit.CatMissing, "No skill requirements"))
	}
	for _, req := range c.Requirements {
		if !ctx.Exists(proto.KindSkill, req.Skill) {
			skill := req.Skill
			out = append(out, audit.Problem(k, v, audit.CatReference, "Invalid required skill %d", skill).
				WithFix(func() { c.RemoveRequirement(skill) }))
		}
		if req.Level < 0 || req.Level > MaxSkill {
			out = append(out, audit.Problem(k, v, audit.CatInvariant, "Required skill %d level %d is outside 0-%d", req.Skill, req.Level, MaxSkill))
		}
	}

	seen := make(map[RoleAbility]bool)
	for _, ra := range c.Abilities {
		if !ctx.Exists(proto.KindAbility, ra.Ability) {
			out = append(out, audit.Problem(k, v, audit.CatReference, "Invalid ability %d in role %s", ra.Ability, RoleNames[ra.Role]))
		}
		if seen[ra] {
			out = append(out, audit.Warning(k, v, audit.CatDuplicate, "Ability %d listed twice for role %s", ra.Ability, RoleNames[ra.Role]))
		}
		seen[ra] = true
	}
	return out
}

// NewTable creates the class table with its editor fields.
func NewTable(lib *libfile.Library) *olc.Table[*Class] {
	t := olc.NewTable[*Class](schema{}, lib)
	t.Fields(fields()...)
	return t
}

// Relations are the class back-references to other kinds.
func Relations() []olc.Relation {
	return []olc.Relation{
		olc.Ref[*Class]{
			From: proto.KindClass, To: proto.KindSkill,
			Field:   "required skills",
			Message: "A skill required by the class you are editing was deleted.",
			InDev:   true,
			Has:     func(c *Class, v proto.Vnum) bool { return c.RequirementIndex(v) >= 0 },
			Drop:    func(c *Class, v proto.Vnum) bool { return c.RemoveRequirement(v) },
		},
		olc.Ref[*Class]{
			From: proto.KindClass, To: proto.KindAbility,
			Field:   "role abilities",
			Message: "An ability granted by the class you are editing was deleted.",
			InDev:   true,
			Has:     func(c *Class, v proto.Vnum) bool { return c.HasAbility(v) },
			Drop:    func(c *Class, v proto.Vnum) bool { return c.RemoveAbility(v) },
		},
	}
}
