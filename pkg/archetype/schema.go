package archetype

import (
	"fmt"
	"strings"

	"github.com/crystal-mush/empireolc/pkg/audit"
	"github.com/crystal-mush/empireolc/pkg/libfile"
	"github.com/crystal-mush/empireolc/pkg/olc"
	"github.com/crystal-mush/empireolc/pkg/proto"
)

// Suffix is the library file suffix for archetype blocks.
const Suffix = ".arch"

// AttributeTotalKey is the game config key for the expected attribute sum.
const AttributeTotalKey = "archetype_attribute_total"

type schema struct{}

func (schema) Kind() proto.Kind                   { return proto.KindArchetype }
func (schema) New(v proto.Vnum) *Archetype        { return New(v) }
func (schema) Name(a *Archetype) string           { return a.Name }
func (schema) FlagNames() []string                { return FlagNames }
func (schema) Flags(a *Archetype) proto.Bitvector { return a.Flags }

func (schema) Copy(a *Archetype) *Archetype {
	c := &Archetype{}
	c.assign(a)
	return c
}

func (schema) Assign(dst, src *Archetype) { dst.assign(src) }

func (schema) Less(a, b *Archetype) bool {
	return proto.FoldCompare(a.Name, b.Name) < 0
}

func (schema) SetInDevelopment(a *Archetype) {
	a.Flags = a.Flags.Set(FlagInDevelopment)
}

func (schema) Sanitize(a *Archetype) {
	if strings.TrimSpace(a.Name) == "" {
		a.Name = DefaultName
	}
	if strings.TrimSpace(a.Description) == "" {
		a.Description = DefaultDesc
	}
	if strings.TrimSpace(a.MaleRank) == "" {
		a.MaleRank = DefaultRank
	}
	if strings.TrimSpace(a.FemaleRank) == "" {
		a.FemaleRank = DefaultRank
	}
}

// Read parses one archetype body: four strings, the flags line, then
// A/G/K tags each followed by a line of two numbers.
func (schema) Read(r *libfile.Reader, v proto.Vnum) (*Archetype, error) {
	a := New(v)
	a.Flags = 0
	for _, dst := range []*string{&a.Name, &a.Description, &a.MaleRank, &a.FemaleRank} {
		s, err := r.ReadString()
		if err != nil {
			return nil, fmt.Errorf("archetype #%d strings: %w", v, err)
		}
		*dst = s
	}
	f, err := r.Fields(1, 1)
	if err != nil {
		return nil, fmt.Errorf("archetype #%d flags: %w", v, err)
	}
	a.Flags = libfile.AlphaToFlags(f[0])

	err = r.Tags(func(tag byte, _ string) error {
		switch tag {
		case 'A', 'G', 'K':
		default:
			return r.UnknownTag(tag)
		}
		n, err := r.ReadInts(2)
		if err != nil {
			return err
		}
		switch tag {
		case 'A':
			if n[0] >= 0 && n[0] < NumAttributes {
				a.Attributes[n[0]] = n[1]
			}
		case 'G':
			if n[0] >= Inventory && n[0] < len(WearNames) {
				a.Gear = append(a.Gear, Gear{Slot: n[0], Obj: proto.Vnum(n[1])})
			}
		case 'K':
			if n[0] >= 0 {
				a.Skills = append(a.Skills, Skill{Skill: proto.Vnum(n[0]), Level: n[1]})
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("archetype #%d tags: %w", v, err)
	}
	return a, nil
}

func (schema) Write(w *libfile.Writer, a *Archetype) {
	w.String(a.Name)
	w.String(a.Description)
	w.String(a.MaleRank)
	w.String(a.FemaleRank)
	w.Printf("%s\n", libfile.FlagsToAlpha(a.Flags))
	for i, val := range a.Attributes {
		if val != 1 {
			w.Printf("A\n%d %d\n", i, val)
		}
	}
	for _, g := range a.Gear {
		w.Printf("G\n%d %d\n", g.Slot, g.Obj)
	}
	for _, sk := range a.Skills {
		w.Printf("K\n%d %d\n", sk.Skill, sk.Level)
	}
	w.End()
}

func (schema) Keywords(a *Archetype) []string {
	return []string{a.Name, a.MaleRank, a.FemaleRank, a.Description}
}

func (schema) ListLine(a *Archetype, detail bool) string {
	if detail {
		return fmt.Sprintf("[%5d] %s (%s/%s) %d attributes, %d skill points", a.vnum, a.Name, a.MaleRank, a.FemaleRank, a.AttributeTotal(), a.SkillTotal())
	}
	return fmt.Sprintf("[%5d] %s (%s/%s)", a.vnum, a.Name, a.MaleRank, a.FemaleRank)
}

func (schema) Show(a *Archetype, _ *olc.Session) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<name> %s\n", a.Name)
	fmt.Fprintf(&sb, "<description> %s\n", a.Description)
	fmt.Fprintf(&sb, "<flags> %s\n", a.Flags.Names(FlagNames))
	fmt.Fprintf(&sb, "<malerank> %s\n", a.MaleRank)
	fmt.Fprintf(&sb, "<femalerank> %s\n", a.FemaleRank)

	fmt.Fprintf(&sb, "Attributes: <attribute> (%d total attributes)\n", a.AttributeTotal())
	for i, pos := range attributeDisplay {
		cell := fmt.Sprintf("%s  [%2d]", AttributeNames[pos], a.Attributes[pos])
		fmt.Fprintf(&sb, "  %-23.23s", cell)
		if (i+1)%3 == 0 {
			sb.WriteString("\n")
		}
	}
	if len(attributeDisplay)%3 != 0 {
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Skills: <skill> (%d total skill points)\n", a.SkillTotal())
	for _, sk := range a.Skills {
		fmt.Fprintf(&sb, "  [%d]: %d\n", sk.Skill, sk.Level)
	}
	sb.WriteString("Gear: <gear>\n")
	for i, g := range a.Gear {
		fmt.Fprintf(&sb, " %2d. %s: [%d]\n", i+1, SlotName(g.Slot), g.Obj)
	}
	return sb.String()
}

func (schema) Audit(a *Archetype, ctx audit.Context) []audit.Finding {
	const k = proto.KindArchetype
	v := a.vnum
	var out []audit.Finding

	if a.InDevelopment() {
		out = append(out, audit.Warning(k, v, audit.CatDevelopment, "IN-DEVELOPMENT"))
	}
	if strings.TrimSpace(a.Name) == "" || proto.FoldEqual(a.Name, DefaultName) {
		out = append(out, audit.Problem(k, v, audit.CatPlaceholder, "No name set"))
	}
	if strings.TrimSpace(a.Description) == "" || proto.FoldEqual(a.Description, DefaultDesc) {
		out = append(out, audit.Problem(k, v, audit.CatPlaceholder, "No description set"))
	}
	if strings.TrimSpace(a.MaleRank) == "" {
		out = append(out, audit.Problem(k, v, audit.CatMissing, "No male rank set"))
	}
	if strings.TrimSpace(a.FemaleRank) == "" {
		out = append(out, audit.Problem(k, v, audit.CatMissing, "No female rank set"))
	}

	if want := ctx.Int(AttributeTotalKey, 11); a.AttributeTotal() != want {
		out = append(out, audit.Warning(k, v, audit.CatInvariant, "Attributes total %d, expected %d", a.AttributeTotal(), want))
	}
	for i, val := range a.Attributes {
		if val < MinAttribute || val > MaxAttribute {
			out = append(out, audit.Problem(k, v, audit.CatInvariant, "%s is %d, outside %d-%d", AttributeNames[i], val, MinAttribute, MaxAttribute))
		}
	}

	for _, sk := range a.Skills {
		if !ctx.Exists(proto.KindSkill, sk.Skill) {
			skill := sk.Skill
			out = append(out, audit.Problem(k, v, audit.CatReference, "Invalid skill %d", skill).
				WithFix(func() { a.RemoveSkill(skill) }))
		}
		if sk.Level < 0 || sk.Level > MaxSkill {
			out = append(out, audit.Problem(k, v, audit.CatInvariant, "Skill %d level %d is outside 0-%d", sk.Skill, sk.Level, MaxSkill))
		}
	}
	for _, g := range a.Gear {
		if !ctx.Exists(proto.KindObject, g.Obj) {
			out = append(out, audit.Problem(k, v, audit.CatReference, "Gear object %d does not exist", g.Obj))
		}
	}
	return out
}

// NewTable creates the archetype table with its editor fields.
func NewTable(lib *libfile.Library) *olc.Table[*Archetype] {
	t := olc.NewTable[*Archetype](schema{}, lib)
	t.Fields(fields()...)
	return t
}

// Relations are the archetype back-references to other kinds.
func Relations() []olc.Relation {
	return []olc.Relation{
		olc.Ref[*Archetype]{
			From: proto.KindArchetype, To: proto.KindSkill,
			Field:   "skills",
			Message: "A skill used by the archetype you are editing was deleted.",
			InDev:   true,
			Has:     func(a *Archetype, v proto.Vnum) bool { return a.SkillIndex(v) >= 0 },
			Drop:    func(a *Archetype, v proto.Vnum) bool { return a.RemoveSkill(v) },
		},
		olc.Ref[*Archetype]{
			From: proto.KindArchetype, To: proto.KindObject,
			Field:   "gear",
			Message: "An item in the gear of the archetype you are editing was deleted.",
			InDev:   true,
			Has: func(a *Archetype, v proto.Vnum) bool {
				for _, g := range a.Gear {
					if g.Obj == v {
						return true
					}
				}
				return false
			},
			Drop: func(a *Archetype, v proto.Vnum) bool { return a.RemoveGear(v) },
		},
	}
}
