package social

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/crystal-mush/empireolc/pkg/audit"
	"github.com/crystal-mush/empireolc/pkg/libfile"
	"github.com/crystal-mush/empireolc/pkg/olc"
	"github.com/crystal-mush/empireolc/pkg/proto"
)

const Suffix = ".soc"

type schema struct{}

func (schema) Kind() proto.Kind                { return proto.KindSocial }
func (schema) New(v proto.Vnum) *Social        { return New(v) }
func (schema) Name(s *Social) string           { return s.Name }
func (schema) FlagNames() []string             { return FlagNames }
func (schema) Flags(s *Social) proto.Bitvector { return s.Flags }
func (schema) Assign(dst, src *Social)         { dst.assign(src) }
func (schema) SetInDevelopment(s *Social)      { s.Flags = s.Flags.Set(FlagInDevelopment) }
func (schema) Keywords(s *Social) []string     { return []string{s.Name, s.Command} }

func (schema) Copy(s *Social) *Social {
	n := &Social{}
	n.assign(s)
	return n
}

// Less orders socials by command; among socials sharing a command, the
// ones with more requirements come first so they are tried first.
func (schema) Less(a, b *Social) bool {
	if c := proto.FoldCompare(a.Command, b.Command); c != 0 {
		return c < 0
	}
	return len(a.Requirements) > len(b.Requirements)
}

func (schema) Sanitize(s *Social) {
	if strings.TrimSpace(s.Command) == "" {
		s.Command = DefaultCommand
	}
	if strings.TrimSpace(s.Name) == "" {
		s.Name = DefaultName
	}
}

// Read parses name~, command~, the "flags charpos victpos" line, then L
// (requirement, data on the next line) and M<n> (message string) tags.
func (schema) Read(r *libfile.Reader, v proto.Vnum) (*Social, error) {
	s := New(v)
	var err error
	if s.Name, err = r.ReadString(); err != nil {
		return nil, fmt.Errorf("social #%d name: %w", v, err)
	}
	if s.Command, err = r.ReadString(); err != nil {
		return nil, fmt.Errorf("social #%d command: %w", v, err)
	}
	f, err := r.Fields(3, 3)
	if err != nil {
		return nil, fmt.Errorf("social #%d flags: %w", v, err)
	}
	s.Flags = libfile.AlphaToFlags(f[0])
	if s.CharPosition, err = readPosition(r, f[1]); err != nil {
		return nil, fmt.Errorf("social #%d: %w", v, err)
	}
	if s.VictPosition, err = readPosition(r, f[2]); err != nil {
		return nil, fmt.Errorf("social #%d: %w", v, err)
	}

	err = r.Tags(func(tag byte, arg string) error {
		switch tag {
		case 'L':
			req, err := readRequirement(r)
			if err != nil {
				return err
			}
			s.Requirements = append(s.Requirements, req)
		case 'M':
			n, err := r.Atoi(arg)
			if err != nil {
				return err
			}
			msg, err := r.ReadString()
			if err != nil {
				return err
			}
			// Unknown message slots are read past and dropped.
			if n >= 0 && n < NumMessages {
				s.Messages[n] = msg
			}
		default:
			return r.UnknownTag(tag)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("social #%d tags: %w", v, err)
	}
	s.sortRequirements()
	return s, nil
}

func readPosition(r *libfile.Reader, s string) (int, error) {
	n, err := r.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 || n >= len(PositionNames) {
		return 0, r.Errorf("bad position %d", n)
	}
	return n, nil
}

// readRequirement reads "type vnum misc needed [group]".
func readRequirement(r *libfile.Reader) (Requirement, error) {
	f, err := r.Fields(4, 5)
	if err != nil {
		return Requirement{}, err
	}
	var req Requirement
	if req.Type, err = r.Atoi(f[0]); err != nil {
		return req, err
	}
	if req.Type < 0 || req.Type >= len(RequirementNames) {
		return req, r.Errorf("bad requirement type %d", req.Type)
	}
	v, err := r.Atoi(f[1])
	if err != nil {
		return req, err
	}
	req.Vnum = proto.Vnum(v)
	if req.Misc, err = strconv.ParseUint(f[2], 10, 64); err != nil {
		return req, r.Errorf("bad requirement misc %q", f[2])
	}
	if req.Needed, err = r.Atoi(f[3]); err != nil {
		return req, err
	}
	if len(f) == 5 && len(f[4]) == 1 && isAlpha(f[4][0]) {
		req.Group = f[4][0]
	}
	return req, nil
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func (schema) Write(w *libfile.Writer, s *Social) {
	w.String(s.Name)
	w.String(s.Command)
	w.Printf("%s %d %d\n", libfile.FlagsToAlpha(s.Flags), s.CharPosition, s.VictPosition)
	for _, req := range s.Requirements {
		w.Printf("L\n%d %d %d %d", req.Type, req.Vnum, req.Misc, req.Needed)
		if req.Group != 0 {
			w.Printf(" %c", req.Group)
		}
		w.Printf("\n")
	}
	for i, msg := range s.Messages {
		if msg != "" {
			w.Tag('M', strconv.Itoa(i))
			w.String(msg)
		}
	}
	w.End()
}

func (schema) ListLine(s *Social, detail bool) string {
	line := fmt.Sprintf("[%5d] %s (%s)", s.vnum, s.Name, s.Command)
	if !detail {
		return line
	}
	if n := len(s.Requirements); n > 0 {
		line += fmt.Sprintf(" [%d requirements]", n)
	}
	if s.InDevelopment() {
		line += " IN-DEV"
	}
	return line
}

// RequirementString renders one requirement for display.
func RequirementString(req Requirement) string {
	var sb strings.Builder
	sb.WriteString(RequirementNames[req.Type])
	switch {
	case requirementUsesMisc(req.Type):
		fmt.Fprintf(&sb, " %d", req.Misc)
	default:
		if _, ok := RequirementKind(req.Type); ok {
			fmt.Fprintf(&sb, " [%d]", req.Vnum)
		}
	}
	if req.Needed > 1 {
		fmt.Fprintf(&sb, " x%d", req.Needed)
	}
	if req.Group != 0 {
		fmt.Fprintf(&sb, " (group %c)", req.Group)
	}
	return sb.String()
}

func (schema) Show(s *Social, _ *olc.Session) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<name> %s\n", s.Name)
	fmt.Fprintf(&sb, "<command> %s\n", s.Command)
	fmt.Fprintf(&sb, "<flags> %s\n", s.Flags.Names(FlagNames))
	fmt.Fprintf(&sb, "<charposition> %s (minimum)\n", PositionNames[s.CharPosition])
	fmt.Fprintf(&sb, "<targetposition> %s (minimum)\n", PositionNames[s.VictPosition])
	sb.WriteString("Requirements: <requirements>\n")
	if len(s.Requirements) == 0 {
		sb.WriteString(" none\n")
	}
	for i, req := range s.Requirements {
		fmt.Fprintf(&sb, "%2d. %s\n", i+1, RequirementString(req))
	}
	sb.WriteString("Messages:\n")
	for i, msg := range s.Messages {
		if msg == "" {
			msg = "(none)"
		}
		fmt.Fprintf(&sb, "%s <%s>: %s\n", MessageLabels[i], MessageFields[i], msg)
	}
	return sb.String()
}

func (schema) Audit(s *Social, ctx audit.Context) []audit.Finding {
	const k = proto.KindSocial
	v := s.vnum
	m := s.Messages
	var out []audit.Finding

	if s.InDevelopment() {
		out = append(out, audit.Warning(k, v, audit.CatDevelopment, "IN-DEVELOPMENT"))
	}
	if strings.TrimSpace(s.Name) == "" || proto.FoldEqual(s.Name, DefaultName) {
		out = append(out, audit.Problem(k, v, audit.CatPlaceholder, "No name set"))
	}
	if strings.TrimSpace(s.Command) == "" || proto.FoldEqual(s.Command, DefaultCommand) {
		out = append(out, audit.Problem(k, v, audit.CatPlaceholder, "No command set"))
	}
	if strings.ContainsAny(s.Command, " \t") {
		out = append(out, audit.Problem(k, v, audit.CatFormat, "Command contains a space"))
	}
	if !audit.Lowercase(s.Command) {
		out = append(out, audit.Problem(k, v, audit.CatFormat, "Non-lowercase social command"))
	}

	if m[MsgNoArgToChar] == "" {
		out = append(out, audit.Problem(k, v, audit.CatMissing, "Social needs n2char"))
	}
	if m[MsgTargetToChar] == "" && (m[MsgTargetToOthers] != "" || m[MsgTargetToVict] != "") {
		out = append(out, audit.Problem(k, v, audit.CatMissing, "Social has t2other/t2vict but not t2char"))
	}
	if m[MsgTargetNotFound] == "" && (m[MsgTargetToChar] != "" || m[MsgTargetToOthers] != "" || m[MsgTargetToVict] != "") {
		out = append(out, audit.Problem(k, v, audit.CatMissing, "Social has t2char/t2other/t2vict but not tnotfound"))
	}
	if m[MsgSelfToOthers] != "" && m[MsgSelfToChar] == "" {
		out = append(out, audit.Problem(k, v, audit.CatMissing, "Social has s2other but not s2char"))
	}
	if m[MsgTargetToChar] == "" && (m[MsgSelfToChar] != "" || m[MsgSelfToOthers] != "") {
		out = append(out, audit.Problem(k, v, audit.CatMissing, "Social has s2char/s2other but not t2char (required)"))
	}

	for _, req := range s.Requirements {
		kind, ok := RequirementKind(req.Type)
		if ok && !ctx.Exists(kind, req.Vnum) {
			out = append(out, audit.Problem(k, v, audit.CatReference, "Requirement %s: invalid %s %d", RequirementNames[req.Type], kind, req.Vnum))
		}
	}
	return out
}

// AuditSet reports commands that more than one social answers to with
// no requirements to tell them apart.
func (schema) AuditSet(recs []*Social, _ audit.Context) []audit.Finding {
	var out []audit.Finding
	first := make(map[string]*Social)
	for _, s := range recs {
		if len(s.Requirements) > 0 || s.InDevelopment() {
			continue
		}
		key := proto.Fold(s.Command)
		if prev, ok := first[key]; ok {
			out = append(out, audit.Problem(proto.KindSocial, s.vnum, audit.CatDuplicate, "Same command as [%d] %s with no requirements", prev.vnum, prev.Name))
			continue
		}
		first[key] = s
	}
	return out
}

// NewTable creates the social table with its editor fields.
func NewTable(lib *libfile.Library) *olc.Table[*Social] {
	t := olc.NewTable[*Social](schema{}, lib)
	t.Fields(fields()...)
	return t
}

// Relations are the social back-references, one per kind a requirement
// can point at.
func Relations() []olc.Relation {
	var rels []olc.Relation
	seen := make(map[proto.Kind]bool)
	for _, kind := range requirementKinds {
		if kind == noKind || seen[kind] {
			continue
		}
		seen[kind] = true
		rels = append(rels, olc.Ref[*Social]{
			From: proto.KindSocial, To: kind,
			Field:   "requirements",
			Message: requirementNotice(kind),
			InDev:   true,
			Has:     func(s *Social, v proto.Vnum) bool { return s.Requires(kind, v) },
			Drop:    func(s *Social, v proto.Vnum) bool { return s.RemoveRequirements(kind, v) },
		})
	}
	return rels
}

func requirementNotice(kind proto.Kind) string {
	name := kind.String()
	if kind == proto.KindRoomTemplate {
		name = "room template"
	}
	article := "A"
	if strings.ContainsRune("aeiou", rune(name[0])) {
		article = "An"
	}
	return fmt.Sprintf("%s %s required by the social you are editing was deleted.", article, name)
}
