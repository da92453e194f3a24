package social

import (
	"bytes"
	"strings"
	"testing"

	"github.com/crystal-mush/empireolc/pkg/audit"
	"github.com/crystal-mush/empireolc/pkg/libfile"
	"github.com/crystal-mush/empireolc/pkg/olc"
	"github.com/crystal-mush/empireolc/pkg/proto"
)

type testWorld struct{}

func (testWorld) Exists(kind proto.Kind, v proto.Vnum) bool {
	switch kind {
	case proto.KindRoomTemplate:
		return v == 100 || v == 101
	case proto.KindQuest:
		return v == 5
	}
	return false
}
func (testWorld) AdventureFor(proto.Vnum) (audit.Range, bool) { return audit.Range{}, false }
func (testWorld) Int(_ string, fallback int) int              { return fallback }

const smileBlock = `#1
smile~
smile~
0 5 5
M0
You smile happily.~
M1
$n smiles happily.~
S
#2
smile at the shrine~
smile~
0 8 5
L
13 100 0 1
M0
You smile at the shrine.~
M1
$n smiles at the shrine.~
S
$
`

func parseBlock(t *testing.T, text string) *olc.Table[*Social] {
	t.Helper()
	tbl := NewTable(nil)
	if err := tbl.Parse(libfile.NewReader(strings.NewReader(text), "0.soc")); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return tbl
}

func TestSocialRoundTrip(t *testing.T) {
	tbl := parseBlock(t, smileBlock)
	shrine, ok := tbl.Lookup(2)
	if !ok {
		t.Fatal("social 2 missing")
	}
	if shrine.CharPosition != PosStanding || len(shrine.Requirements) != 1 {
		t.Errorf("shrine = %+v", shrine)
	}
	if !shrine.Requires(proto.KindRoomTemplate, 100) {
		t.Error("shrine should require room template 100")
	}

	var buf bytes.Buffer
	w := libfile.NewWriter(&buf)
	tbl.WriteBlock(w, 0)
	w.EndFile()
	if buf.String() != smileBlock {
		t.Errorf("write mismatch:\n%s", buf.String())
	}

	// Same command: the one with requirements sorts first.
	list := tbl.List(true)
	want := []string{
		"[    2] smile at the shrine (smile) [1 requirements]",
		"[    1] smile (smile)",
	}
	if strings.Join(list, "\n") != strings.Join(want, "\n") {
		t.Errorf("list = %q", list)
	}
}

func TestUnknownMessageSlotDropped(t *testing.T) {
	tbl := parseBlock(t, "#3\nwave~\nwave~\n0 5 5\nM42\nignored~\nM0\nYou wave.~\nS\n$\n")
	wave, _ := tbl.Lookup(3)
	if wave.Messages[MsgNoArgToChar] != "You wave." {
		t.Errorf("messages = %q", wave.Messages)
	}
}

func TestSocialAudit(t *testing.T) {
	s := New(4)
	s.Command = "Big Grin"
	s.Messages[MsgTargetToVict] = "$n grins at you."
	s.Messages[MsgSelfToOthers] = "$n grins at $mself."
	s.Requirements = []Requirement{{Type: ReqCompletedQuest, Vnum: 6, Needed: 1}}

	var descs []string
	for _, f := range (schema{}).Audit(s, testWorld{}) {
		descs = append(descs, f.Description)
	}
	joined := strings.Join(descs, "\n")
	for _, want := range []string{
		"IN-DEVELOPMENT",
		"No name set",
		"Command contains a space",
		"Non-lowercase social command",
		"Social needs n2char",
		"Social has t2other/t2vict but not t2char",
		"Social has t2char/t2other/t2vict but not tnotfound",
		"Social has s2other but not s2char",
		"Social has s2char/s2other but not t2char (required)",
		"Requirement COMPLETED-QUEST: invalid quest 6",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in:\n%s", want, joined)
		}
	}

	tbl := parseBlock(t, smileBlock)
	grin := New(5)
	grin.Name, grin.Command, grin.Flags = "grin", "smile", 0
	tbl.Add(grin)
	found := false
	for _, f := range tbl.Check(testWorld{}) {
		if f.Vnum == 5 && f.Category == audit.CatDuplicate {
			found = true
		}
	}
	if !found {
		t.Error("expected duplicate command finding")
	}
}

func TestSocialEditor(t *testing.T) {
	tbl := parseBlock(t, smileBlock)
	reg := olc.NewRegistry(nil)
	reg.AddTable(tbl)
	reg.SetLookup(testWorld{})
	for _, rel := range Relations() {
		reg.Register(rel)
	}
	sess := olc.NewSession("Builder", olc.LevelBuilder, nil)
	reg.Attach(sess)

	if err := reg.Edit(sess, proto.KindSocial, 10); err != nil {
		t.Fatal(err)
	}
	for _, step := range [][2]string{
		{"name", "bow"},
		{"command", "bow"},
		{"charposition", "standing"},
		{"requirements", "add visit-room-template 101"},
		{"requirements", "add completed-quest 5 2"},
		{"n2char", "You bow."},
		{"n2other", "$n bows."},
		{"n2other", "none"},
	} {
		if err := reg.Field(sess, step[0], step[1]); err != nil {
			t.Fatalf(".%s %s: %v", step[0], step[1], err)
		}
	}
	for _, step := range [][2]string{
		{"command", "bow down"},
		{"requirements", "add visit-room-template 999"},
		{"requirements", "add flying"},
		{"charposition", "hovering"},
		{"flags", "-in-development"},
	} {
		if err := reg.Field(sess, step[0], step[1]); err == nil {
			t.Errorf(".%s %s: expected an error", step[0], step[1])
		}
	}
	if _, err := reg.Commit(sess); err != nil {
		t.Fatal(err)
	}
	bow, _ := tbl.Lookup(10)
	if bow.CharPosition != PosStanding || len(bow.Requirements) != 2 || bow.Requirements[1].Needed != 2 {
		t.Errorf("bow = %+v", bow)
	}
	if bow.Messages[MsgNoArgToOthers] != "" || !bow.InDevelopment() {
		t.Errorf("bow = %+v", bow)
	}

	// Someone else edits the bow while room template 101 is deleted.
	other := olc.NewSession("Other", olc.LevelBuilder, nil)
	reg.Attach(other)
	if err := reg.Edit(other, proto.KindSocial, 10); err != nil {
		t.Fatal(err)
	}
	if err := reg.Deleted(proto.KindRoomTemplate, 101); err != nil {
		t.Fatal(err)
	}
	if bow.Requires(proto.KindRoomTemplate, 101) || len(bow.Requirements) != 1 {
		t.Errorf("requirements after delete = %+v", bow.Requirements)
	}
	scratch := other.Scratch().(*Social)
	if scratch.Requires(proto.KindRoomTemplate, 101) {
		t.Error("scratch still requires room template 101")
	}
	notices := other.Notices()
	if len(notices) != 1 || notices[0] != "A room template required by the social you are editing was deleted." {
		t.Errorf("notices = %q", notices)
	}
}
