package attack

import (
	"fmt"
	"strings"

	"github.com/crystal-mush/empireolc/pkg/audit"
	"github.com/crystal-mush/empireolc/pkg/libfile"
	"github.com/crystal-mush/empireolc/pkg/olc"
	"github.com/crystal-mush/empireolc/pkg/proto"
)

const Suffix = ".amd"

// noMessage marks an empty line in a message set.
const noMessage = "#"

type schema struct{}

func (schema) Kind() proto.Kind                { return proto.KindAttack }
func (schema) New(v proto.Vnum) *Attack        { return New(v) }
func (schema) Name(a *Attack) string           { return a.Name }
func (schema) FlagNames() []string             { return FlagNames }
func (schema) Flags(a *Attack) proto.Bitvector { return a.Flags }
func (schema) Assign(dst, src *Attack)         { dst.assign(src) }
func (schema) SetInDevelopment(a *Attack)      { a.Flags = a.Flags.Set(FlagInDevelopment) }

func (schema) Copy(a *Attack) *Attack {
	n := &Attack{}
	n.assign(a)
	return n
}

// Less orders attacks by name, then vnum.
func (schema) Less(a, b *Attack) bool {
	if c := proto.FoldCompare(a.Name, b.Name); c != 0 {
		return c < 0
	}
	return a.vnum < b.vnum
}

func (schema) Keywords(a *Attack) []string {
	kw := []string{a.Name}
	for _, m := range a.Messages {
		for _, s := range m {
			if s != "" {
				kw = append(kw, s)
			}
		}
	}
	return kw
}

func (schema) Sanitize(a *Attack) {
	if strings.TrimSpace(a.Name) == "" {
		a.Name = DefaultName
	}
	if a.CountsAs == a.vnum {
		a.CountsAs = None
	}
}

// Read parses name~, a "flags counts_as" line, then one M tag per message
// set followed by its twelve lines; # stands for no message.
func (schema) Read(r *libfile.Reader, v proto.Vnum) (*Attack, error) {
	a := New(v)
	var err error
	if a.Name, err = r.ReadString(); err != nil {
		return nil, fmt.Errorf("attack #%d name: %w", v, err)
	}
	f, err := r.Fields(2, 2)
	if err != nil {
		return nil, fmt.Errorf("attack #%d flags: %w", v, err)
	}
	a.Flags = libfile.AlphaToFlags(f[0])
	n, err := r.Atoi(f[1])
	if err != nil {
		return nil, fmt.Errorf("attack #%d counts-as: %w", v, err)
	}
	a.CountsAs = proto.Vnum(n)

	err = r.Tags(func(tag byte, _ string) error {
		if tag != 'M' {
			return r.UnknownTag(tag)
		}
		var m MessageSet
		for i := range m {
			s, err := r.NextLine()
			if err != nil {
				return err
			}
			if !strings.HasPrefix(s, noMessage) {
				m[i] = strings.TrimRight(s, " \t")
			}
		}
		a.Messages = append(a.Messages, m)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("attack #%d tags: %w", v, err)
	}
	return a, nil
}

func (schema) Write(w *libfile.Writer, a *Attack) {
	w.String(a.Name)
	w.Printf("%s %d\n", libfile.FlagsToAlpha(a.Flags), a.CountsAs)
	for _, m := range a.Messages {
		w.Printf("M\n")
		for _, s := range m {
			if s == "" {
				s = noMessage
			}
			w.Printf("%s\n", s)
		}
	}
	w.End()
}

func (schema) ListLine(a *Attack, detail bool) string {
	if detail {
		return fmt.Sprintf("[%5d] %s (%d)", a.vnum, a.Name, len(a.Messages))
	}
	return fmt.Sprintf("[%5d] %s", a.vnum, a.Name)
}

func (s schema) Show(a *Attack, sess *olc.Session) string {
	if sess != nil && sess.Cursor > len(a.Messages) {
		sess.Cursor = 0
	}
	if sess != nil && sess.Cursor > 0 {
		return showMessage(a, sess.Cursor)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "<name> %s\n", a.Name)
	fmt.Fprintf(&sb, "<flags> %s\n", a.Flags.Names(FlagNames))
	if a.CountsAs == None {
		sb.WriteString("<countsas> none\n")
	} else {
		fmt.Fprintf(&sb, "<countsas> [%d]\n", a.CountsAs)
	}
	sb.WriteString("Messages: <message #>\n")
	for i, m := range a.Messages {
		p := m.Preview()
		if p == "" {
			p = "(blank)"
		}
		fmt.Fprintf(&sb, " %2d. %s\n", i+1, p)
	}
	return sb.String()
}

func showMessage(a *Attack, n int) string {
	m := a.Messages[n-1]
	var sb strings.Builder
	fmt.Fprintf(&sb, "Message set #%d\n", n)
	for i, name := range LineNames {
		s := m[i]
		if s == "" {
			s = "(none)"
		}
		fmt.Fprintf(&sb, "<%s> %s\n", name, s)
	}
	sb.WriteString("Return to main menu: <back>\n")
	return sb.String()
}

var emptyNotes = [NumOutcomes]string{
	MsgDie:  "die",
	MsgMiss: "miss",
	MsgGod:  "god",
}

var audienceNotes = [NumAudiences]string{"attacker", "victim", "room"}

func (schema) Audit(a *Attack, ctx audit.Context) []audit.Finding {
	const k = proto.KindAttack
	v := a.vnum
	var out []audit.Finding

	if a.InDevelopment() {
		out = append(out, audit.Warning(k, v, audit.CatDevelopment, "IN-DEVELOPMENT"))
	}
	if strings.TrimSpace(a.Name) == "" || proto.FoldEqual(a.Name, DefaultName) {
		out = append(out, audit.Problem(k, v, audit.CatPlaceholder, "No name set"))
	}
	if len(a.Messages) == 0 {
		out = append(out, audit.Problem(k, v, audit.CatMissing, "No messages set"))
	}
	if a.CountsAs != None && (a.CountsAs == v || !ctx.Exists(k, a.CountsAs)) {
		out = append(out, audit.Problem(k, v, audit.CatReference, "Invalid counts-as attack %d", a.CountsAs).
			WithFix(func() { a.CountsAs = None }))
	}

	// Hit lines may be left blank; the others are reported once each.
	var reported [NumLines]bool
	for _, m := range a.Messages {
		for out2, note := range emptyNotes {
			if note == "" {
				continue
			}
			for aud := range NumAudiences {
				i := Line(out2, aud)
				if m[i] == "" && !reported[i] {
					reported[i] = true
					out = append(out, audit.Problem(k, v, audit.CatMissing, "Empty %s-to-%s message.", note, audienceNotes[aud]))
				}
			}
		}
	}
	return out
}

// AuditSet reports attacks that share a name with an earlier one.
func (schema) AuditSet(recs []*Attack, _ audit.Context) []audit.Finding {
	var out []audit.Finding
	seen := make(map[string]*Attack)
	for _, a := range recs {
		key := proto.Fold(a.Name)
		if prev, ok := seen[key]; ok {
			out = append(out, audit.Problem(proto.KindAttack, a.vnum, audit.CatDuplicate, "Same name as [%d] %s", prev.vnum, prev.Name))
			continue
		}
		seen[key] = a
	}
	return out
}

// NewTable creates the attack table with its editor fields.
func NewTable(lib *libfile.Library) *olc.Table[*Attack] {
	t := olc.NewTable[*Attack](schema{}, lib)
	t.Fields(fields()...)
	return t
}

// Relations are the attack back-references. A deleted attack only clears
// the counts-as pointer; the holder stays live.
func Relations() []olc.Relation {
	return []olc.Relation{
		olc.Ref[*Attack]{
			From: proto.KindAttack, To: proto.KindAttack,
			Field:   "counts-as",
			Message: "The attack type that the attack you're editing counts as was deleted.",
			Has:     func(a *Attack, v proto.Vnum) bool { return v != None && a.CountsAs == v },
			Drop: func(a *Attack, v proto.Vnum) bool {
				if v == None || a.CountsAs != v {
					return false
				}
				a.CountsAs = None
				return true
			},
		},
	}
}
