package roomtmpl

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/crystal-mush/empireolc/pkg/audit"
	"github.com/crystal-mush/empireolc/pkg/libfile"
	"github.com/crystal-mush/empireolc/pkg/olc"
	"github.com/crystal-mush/empireolc/pkg/proto"
)

// testWorld has one adventure at 100-199; templates resolve through tbl.
type testWorld struct{ tbl *olc.Table[*RoomTemplate] }

func (w testWorld) Exists(kind proto.Kind, v proto.Vnum) bool {
	switch kind {
	case proto.KindRoomTemplate:
		return w.tbl.Exists(v)
	case proto.KindMobile:
		return v == 500
	case proto.KindObject:
		return v == 600
	case proto.KindTrigger:
		return v == 700
	}
	return false
}

func (testWorld) AdventureFor(v proto.Vnum) (audit.Range, bool) {
	r := audit.Range{Start: 100, End: 199}
	return r, r.Contains(v)
}

func (testWorld) Int(_ string, fallback int) int { return fallback }

const caveBlock = `#100
Cave Entrance~
A dark cave mouth yawns here.
Water drips.~
a 0 0
D0
~
0 101
D2
gate~
ab 102
E
drips~
Tiny drops of water.~
I 5 600 10.00 1  # DIG
I 10 500 2.50 1 a  # ENCOUNTER
M 0 500 50.00 2
T 700
S
#101
Tunnel~
A narrow tunnel.~
0 0 0
S
$
`

func makeTestTable(t *testing.T) (*olc.Table[*RoomTemplate], testWorld) {
	t.Helper()
	tbl := NewTable(nil)
	if err := tbl.Parse(libfile.NewReader(strings.NewReader(caveBlock), "1.rmt")); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return tbl, testWorld{tbl}
}

func TestRoomTemplateRoundTrip(t *testing.T) {
	tbl, _ := makeTestTable(t)
	cave, ok := tbl.Lookup(100)
	if !ok {
		t.Fatal("template 100 missing")
	}
	if cave.Description != "A dark cave mouth yawns here.\r\nWater drips." {
		t.Errorf("description = %q", cave.Description)
	}
	if len(cave.Exits) != 2 || cave.Exits[1].Keyword != "gate" || cave.Exits[1].Info != ExitDoor|ExitClosed {
		t.Errorf("exits = %+v", cave.Exits)
	}
	if len(cave.Interactions) != 2 || cave.Interactions[1].Exclusion != 'a' || cave.Interactions[1].Percent != 2.5 {
		t.Errorf("interactions = %+v", cave.Interactions)
	}
	if cave.InDevelopment() || !cave.Flags.Has(FlagOutdoor) {
		t.Errorf("flags = %v", cave.Flags)
	}

	var buf bytes.Buffer
	w := libfile.NewWriter(&buf)
	tbl.WriteBlock(w, 1)
	w.EndFile()
	if buf.String() != caveBlock {
		t.Errorf("write mismatch:\n%s", buf.String())
	}

	if line, _ := tbl.ListLine(100, true); line != "[  100] Cave Entrance - OUTDOOR" {
		t.Errorf("detail line = %q", line)
	}
}

func TestBadExitDirection(t *testing.T) {
	tbl := NewTable(nil)
	err := tbl.Parse(libfile.NewReader(strings.NewReader("#1\nX~\nY~\n0 0\nD42\n~\n0 2\nS\n$\n"), "0.rmt"))
	if !errors.Is(err, libfile.ErrFormat) || !strings.Contains(err.Error(), "bad exit direction 42") {
		t.Fatalf("err = %v", err)
	}
}

func TestRoomTemplateAudit(t *testing.T) {
	tbl, world := makeTestTable(t)
	cave, _ := tbl.Lookup(100)

	var descs []string
	for _, f := range (schema{}).Audit(cave, world) {
		descs = append(descs, f.Description)
	}
	if len(descs) != 1 || descs[0] != "Exit south: invalid target room 102" {
		t.Errorf("cave findings = %q", descs)
	}

	pit := New(300)
	pit.Title = "the pit."
	pit.Flags = pit.Flags.Set(FlagDark | FlagLight)
	pit.Spawns = []Spawn{{Type: SpawnVeh, Vnum: 9, Percent: 1, Limit: 1}}
	pit.Interactions = []Interaction{{Type: InteractButcher, Vnum: 600, Percent: 1, Quantity: 1}}
	descs = nil
	for _, f := range (schema{}).Audit(pit, world) {
		descs = append(descs, f.Description)
	}
	joined := strings.Join(descs, "\n")
	for _, want := range []string{
		"IN-DEVELOPMENT",
		"Not part of any adventure",
		"Title not capitalized",
		"Title is punctuated",
		"Desc not set",
		"Both DARK and LIGHT",
		"Spawn veh 9: No such vehicle",
		"Interaction BUTCHER is not allowed on rooms",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in:\n%s", want, joined)
		}
	}
}

func newTestRegistry(t *testing.T) (*olc.Registry, *olc.Table[*RoomTemplate]) {
	t.Helper()
	tbl, world := makeTestTable(t)
	reg := olc.NewRegistry(nil)
	reg.AddTable(tbl)
	reg.SetLookup(world)
	for _, rel := range Relations() {
		reg.Register(rel)
	}
	return reg, tbl
}

func TestExitEditingAndMatch(t *testing.T) {
	reg, tbl := newTestRegistry(t)
	var out bytes.Buffer
	sess := olc.NewSession("Builder", olc.LevelBuilder, olc.WriterPager{W: &out})
	reg.Attach(sess)

	if err := reg.Edit(sess, proto.KindRoomTemplate, 101); err != nil {
		t.Fatal(err)
	}
	if err := reg.Field(sess, "matchexits", ""); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Matched exit south to 100 Cave Entrance.") {
		t.Errorf("output = %q", out.String())
	}
	out.Reset()
	if err := reg.Field(sess, "matchexits", ""); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No exits to match.") {
		t.Errorf("second match output = %q", out.String())
	}

	for _, step := range [][2]string{
		{"exit", "add east 102 iron gate"},
		{"exit", "change 2 direction w"},
		{"interaction", "add dig 600 5 1"},
		{"spawns", "add mob 500 25 1"},
		{"script", "add 700"},
	} {
		if err := reg.Field(sess, step[0], step[1]); err != nil {
			t.Fatalf(".%s %s: %v", step[0], step[1], err)
		}
	}
	for _, step := range [][2]string{
		{"exit", "add east 250"},
		{"exit", "add sideways 102"},
		{"interaction", "add butcher 600 5 1"},
		{"spawns", "add veh 9 1 1"},
		{"script", "add 701"},
	} {
		if err := reg.Field(sess, step[0], step[1]); !olc.IsInput(err) {
			t.Errorf(".%s %s: expected input error, got %v", step[0], step[1], err)
		}
	}
	if _, err := reg.Commit(sess); err != nil {
		t.Fatal(err)
	}

	tunnel, _ := tbl.Lookup(101)
	if len(tunnel.Exits) != 2 || tunnel.Exits[0].Dir != South || tunnel.Exits[1].Dir != West {
		t.Fatalf("exits = %+v", tunnel.Exits)
	}
	if tunnel.Exits[1].Info != ExitDoor|ExitClosed || tunnel.Exits[1].Keyword != "iron gate" {
		t.Errorf("door = %+v", tunnel.Exits[1])
	}
}

func TestDeleteRemovesExits(t *testing.T) {
	reg, tbl := newTestRegistry(t)
	if err := reg.Delete(nil, proto.KindRoomTemplate, 101); err != nil {
		t.Fatal(err)
	}
	cave, _ := tbl.Lookup(100)
	if cave.HasExitTo(101) || len(cave.Exits) != 1 {
		t.Errorf("exits after delete = %+v", cave.Exits)
	}
	if !cave.InDevelopment() {
		t.Error("holder should be IN-DEVELOPMENT")
	}
	if err := reg.Delete(nil, proto.KindRoomTemplate, 100); !errors.Is(err, olc.ErrLastRecord) {
		t.Errorf("deleting the last template: %v", err)
	}
}

func TestDescriptionCapture(t *testing.T) {
	reg, tbl := newTestRegistry(t)
	sess := olc.NewSession("Builder", olc.LevelBuilder, nil)
	reg.Attach(sess)
	if err := reg.Edit(sess, proto.KindRoomTemplate, 101); err != nil {
		t.Fatal(err)
	}
	if err := reg.Field(sess, "description", ""); err != nil {
		t.Fatal(err)
	}
	for _, line := range []string{"Roots hang from the ceiling.", "It smells of earth.", "@"} {
		reg.Do(func() { sess.TextLine(line) })
	}
	if _, err := reg.Commit(sess); err != nil {
		t.Fatal(err)
	}
	tunnel, _ := tbl.Lookup(101)
	if tunnel.Description != "Roots hang from the ceiling.\r\nIt smells of earth." {
		t.Errorf("description = %q", tunnel.Description)
	}
}

func TestPercentRoundedToStoredPrecision(t *testing.T) {
	reg, tbl := newTestRegistry(t)
	sess := olc.NewSession("Builder", olc.LevelBuilder, nil)
	if err := reg.Edit(sess, proto.KindRoomTemplate, 101); err != nil {
		t.Fatal(err)
	}
	if err := reg.Field(sess, "spawns", "add mob 500 12.3456 1"); err != nil {
		t.Fatal(err)
	}
	if err := reg.Field(sess, "spawns", "add mob 500 0.004 1"); !olc.IsInput(err) {
		t.Errorf("0.004%% rounds to zero and should be refused, got %v", err)
	}
	if _, err := reg.Commit(sess); err != nil {
		t.Fatal(err)
	}

	tunnel, _ := tbl.Lookup(101)
	last := tunnel.Spawns[len(tunnel.Spawns)-1]
	if last.Percent != 12.35 {
		t.Errorf("percent in memory = %v, want 12.35", last.Percent)
	}
	text, _ := tbl.RecordText(101)
	if !strings.Contains(text, " 500 12.35 1\n") {
		t.Errorf("stored text:\n%s", text)
	}
}
