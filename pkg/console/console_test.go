package console

import (
	"context"
	"strings"
	"testing"

	"github.com/crystal-mush/empireolc/pkg/olc"
	"github.com/crystal-mush/empireolc/pkg/world"
)

func newTestConsole(t *testing.T, w *world.World, name string, level int) (*Console, *strings.Builder) {
	t.Helper()
	out := &strings.Builder{}
	sess := olc.NewSession(name, level, olc.WriterPager{W: out})
	return New(w, sess, out), out
}

func expectLines(t *testing.T, out string, want ...string) {
	t.Helper()
	rest := out
	for _, w := range want {
		i := strings.Index(rest, w)
		if i < 0 {
			t.Fatalf("output missing %q (in order)\n--- output ---\n%s", w, out)
		}
		rest = rest[i+len(w):]
	}
}

func TestScriptedSession(t *testing.T) {
	w := world.New(world.Options{})
	con, out := newTestConsole(t, w, "Ann", olc.LevelImplementor)

	script := strings.Join([]string{
		"olc roomtemplate edit new",
		".title Dark Tunnel",
		".description",
		"A long tunnel.",
		"It smells.",
		"@",
		"olc save",
		"olc roomtemplate list",
		"olc roomtemplate free",
		"config war",
		"config pvp_timer 9",
		"quit",
		"olc roomtemplate list",
	}, "\n")
	if err := con.Run(context.Background(), strings.NewReader(script)); err != nil {
		t.Fatalf("Run: %v", err)
	}

	expectLines(t, out.String(),
		"You are now creating roomtemplate 0.",
		"The title is now: Dark Tunnel",
		"Enter the description for Dark Tunnel.",
		"The description for Dark Tunnel is set.",
		"Your changes to roomtemplate 0 have been saved.",
		"roomtemplate records:\n[    0] Dark Tunnel\n",
		"The next free roomtemplate vnum is 1.",
		"War configs:",
		"pvp_timer: set to 9, from 5.",
		"Goodbye.",
	)
	if strings.Count(out.String(), "roomtemplate records:") != 1 {
		t.Error("commands after quit were run")
	}

	rt, ok := w.RoomTemplates.Lookup(0)
	if !ok || rt.Description != "A long tunnel.\r\nIt smells." {
		t.Errorf("stored template = %+v", rt)
	}
	if w.Config.Int("pvp_timer") != 9 {
		t.Error("config not changed")
	}
}

func TestUserErrors(t *testing.T) {
	w := world.New(world.Options{})
	con, out := newTestConsole(t, w, "Bob", olc.LevelBuilder)

	for _, line := range []string{
		".title Nope",
		"olc save",
		"olc bogus list",
		"olc class edit",
		"olc class frobnicate",
		"config pvp_timer 3",
		"config nosuchkey",
		"history",
		"dance",
	} {
		con.Exec(line)
	}
	expectLines(t, out.String(),
		"You aren't editing anything.",
		"You aren't editing anything.",
		"Unknown OLC type 'bogus'.",
		"Edit which class? Give a vnum or 'new'.",
		"Unknown OLC command 'frobnicate'.",
		"You don't have permission to do that.",
		"Unknown config group or key 'nosuchkey'.",
		"The edit history is not enabled.",
		"Huh?",
	)
	if w.Config.Int("pvp_timer") != 5 {
		t.Error("builder changed config")
	}
}

func TestDeleteNoticeReachesOtherConsole(t *testing.T) {
	w := world.New(world.Options{})
	ann, annOut := newTestConsole(t, w, "Ann", olc.LevelImplementor)
	bob, bobOut := newTestConsole(t, w, "Bob", olc.LevelBuilder)

	ann.Exec("olc class edit 5")
	ann.Exec(".name Ranger")
	ann.Exec("olc save")
	bob.Exec("olc class edit 5")
	ann.Exec("olc class occurrences 5")
	ann.Exec("olc class delete 5")
	bob.Exec("olc display")

	expectLines(t, annOut.String(),
		"Your changes to class 5 have been saved.",
		"Occurrences of class 5:\n none",
		"Class 5 deleted.",
	)
	expectLines(t, bobOut.String(),
		"You are now editing class 5.",
		"The class you are editing was deleted.",
	)
}
