package olc

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/crystal-mush/empireolc/pkg/audit"
	"github.com/crystal-mush/empireolc/pkg/events"
	"github.com/crystal-mush/empireolc/pkg/libfile"
	"github.com/crystal-mush/empireolc/pkg/proto"
	"github.com/stretchr/testify/require"
)

const (
	widgetInDev proto.Bitvector = 1 << iota
	widgetShiny
)

var widgetFlagNames = []string{"IN-DEVELOPMENT", "SHINY"}

type widget struct {
	vnum  proto.Vnum
	name  string
	desc  string
	flags proto.Bitvector
	link  proto.Vnum
	parts []proto.Vnum
}

func (w *widget) Vnum() proto.Vnum       { return w.vnum }
func (w *widget) SetVnum(v proto.Vnum)   { w.vnum = v }
func (w *widget) InDevelopment() bool    { return w.flags.Has(widgetInDev) }
func (w *widget) String() string         { return w.name }
func (widgetSchema) Kind() proto.Kind    { return proto.KindGeneric }
func (widgetSchema) FlagNames() []string { return widgetFlagNames }

type widgetSchema struct{ min int }

func (widgetSchema) New(v proto.Vnum) *widget {
	return &widget{vnum: v, name: "new widget", flags: widgetInDev, link: proto.Nothing}
}

func (s widgetSchema) Copy(w *widget) *widget {
	c := &widget{}
	s.Assign(c, w)
	return c
}

func (widgetSchema) Assign(dst, src *widget) {
	dst.vnum = src.vnum
	dst.name = src.name
	dst.desc = src.desc
	dst.flags = src.flags
	dst.link = src.link
	dst.parts = slices.Clone(src.parts)
}

func (widgetSchema) Less(a, b *widget) bool { return proto.FoldCompare(a.name, b.name) < 0 }
func (widgetSchema) Name(w *widget) string  { return w.name }

func (widgetSchema) Read(r *libfile.Reader, v proto.Vnum) (*widget, error) {
	w := &widget{vnum: v}
	var err error
	if w.name, err = r.ReadString(); err != nil {
		return nil, err
	}
	f, err := r.Fields(2, 2)
	if err != nil {
		return nil, err
	}
	w.flags = libfile.AlphaToFlags(f[0])
	link, err := r.Atoi(f[1])
	if err != nil {
		return nil, err
	}
	w.link = proto.Vnum(link)
	err = r.Tags(func(tag byte, arg string) error {
		switch tag {
		case 'P':
			n, err := r.Atoi(arg)
			if err != nil {
				return err
			}
			w.parts = append(w.parts, proto.Vnum(n))
			return nil
		default:
			return r.UnknownTag(tag)
		}
	})
	return w, err
}

func (widgetSchema) Write(w *libfile.Writer, rec *widget) {
	w.String(rec.name)
	w.Printf("%s %d\n", libfile.FlagsToAlpha(rec.flags), rec.link)
	for _, p := range rec.parts {
		w.Tag('P', strconv.Itoa(int(p)))
	}
	w.End()
}

func (widgetSchema) Sanitize(w *widget) {
	if w.name == "" {
		w.name = "new widget"
	}
}

func (widgetSchema) SetInDevelopment(w *widget)      { w.flags = w.flags.Set(widgetInDev) }
func (widgetSchema) Flags(w *widget) proto.Bitvector { return w.flags }
func (widgetSchema) Keywords(w *widget) []string     { return []string{w.name} }
func (s widgetSchema) MinRecords() int               { return s.min }
func (widgetSchema) ListLine(w *widget, _ bool) string {
	return fmt.Sprintf("[%5d] %s", w.vnum, w.name)
}
func (widgetSchema) Show(w *widget, _ *Session) string {
	return fmt.Sprintf("<name> %s\n<flags> %s\n<link> %s\n", w.name, w.flags.Names(widgetFlagNames), w.link)
}

func (widgetSchema) Audit(w *widget, _ audit.Context) []audit.Finding {
	if w.name == "new widget" {
		return []audit.Finding{audit.Problem(proto.KindGeneric, w.vnum, audit.CatPlaceholder, "name not set")}
	}
	return nil
}

type widgetWorld struct{ t *Table[*widget] }

func (w widgetWorld) Exists(kind proto.Kind, v proto.Vnum) bool {
	return kind == proto.KindGeneric && w.t.Exists(v)
}
func (widgetWorld) AdventureFor(proto.Vnum) (audit.Range, bool) { return audit.Range{}, false }
func (widgetWorld) Int(_ string, fallback int) int              { return fallback }

func widgetFields(t *Table[*widget]) {
	t.Fields(
		Field[*widget]{Name: "name", Run: func(c *Ctx, w *widget, arg string) error {
			return SetString(c, arg, "name", &w.name)
		}},
		Field[*widget]{Name: "description", Run: func(c *Ctx, w *widget, arg string) error {
			if arg == "" {
				c.BeginText("description", MaxText, func(text string) { w.desc = text })
				return nil
			}
			return SetString(c, arg, "description", &w.desc)
		}},
		Field[*widget]{Name: "flags", Run: func(c *Ctx, w *widget, arg string) error {
			return SetFlags(c, arg, "flags", widgetFlagNames, widgetInDev, &w.flags)
		}},
		Field[*widget]{Name: "link", Run: func(c *Ctx, w *widget, arg string) error {
			return SetVnumRef(c, arg, "link", proto.KindGeneric, proto.Nothing, &w.link)
		}},
		Field[*widget]{Name: "part", Run: func(c *Ctx, w *widget, arg string) error {
			cmd, rest := SplitArg(arg)
			switch cmd {
			case "add":
				v, err := ParseVnum(rest, false)
				if err != nil {
					return err
				}
				w.parts = append(w.parts, v)
			case "remove":
				i, err := ListIndex(rest, len(w.parts))
				if err != nil {
					return err
				}
				w.parts = RemoveAt(w.parts, i)
			default:
				return Inputf("Usage: .part add|remove")
			}
			return nil
		}},
	)
}

type testEnv struct {
	reg *Registry
	tbl *Table[*widget]
	dir string
}

func newTestEnv(t *testing.T, min int) *testEnv {
	t.Helper()
	dir := t.TempDir()
	tbl := NewTable[*widget](widgetSchema{min: min}, libfile.New(dir, ".wid", true))
	widgetFields(tbl)
	reg := NewRegistry(nil)
	reg.AddTable(tbl)
	reg.SetLookup(widgetWorld{tbl})
	reg.Register(Ref[*widget]{
		From: proto.KindGeneric, To: proto.KindGeneric,
		Field:   "link",
		Message: "A widget linked from the widget you are editing was deleted.",
		InDev:   true,
		Has:     func(w *widget, v proto.Vnum) bool { return w.link == v },
		Drop: func(w *widget, v proto.Vnum) bool {
			if w.link != v {
				return false
			}
			w.link = proto.Nothing
			return true
		},
	})
	return &testEnv{reg: reg, tbl: tbl, dir: dir}
}

func (e *testEnv) session(t *testing.T, name string, level int) (*Session, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	sess := NewSession(name, level, WriterPager{W: &out})
	e.reg.Attach(sess)
	return sess, &out
}

func (e *testEnv) put(t *testing.T, v proto.Vnum, name string, link proto.Vnum) {
	t.Helper()
	require.True(t, e.tbl.Add(&widget{vnum: v, name: name, link: link}))
	require.NoError(t, e.tbl.Save(v))
}

func TestEditNewAndCommit(t *testing.T) {
	e := newTestEnv(t, 0)
	sess, _ := e.session(t, "Builder", LevelBuilder)

	require.NoError(t, e.reg.Edit(sess, proto.KindGeneric, proto.Nothing))
	kind, v, ok := sess.Editing()
	require.True(t, ok)
	require.Equal(t, proto.KindGeneric, kind)
	require.Equal(t, proto.Vnum(0), v)
	require.False(t, e.tbl.Exists(0), "nothing stored before commit")

	rec, err := e.reg.Commit(sess)
	require.NoError(t, err)
	require.True(t, rec.InDevelopment())

	w, ok := e.tbl.Lookup(0)
	require.True(t, ok)
	require.Equal(t, "new widget", w.name)
	_, _, editing := sess.Editing()
	require.False(t, editing)

	idx, err := os.ReadFile(filepath.Join(e.dir, libfile.IndexFile))
	require.NoError(t, err)
	require.Equal(t, "0.wid\n$\n", string(idx))
}

func TestScratchIsolation(t *testing.T) {
	e := newTestEnv(t, 0)
	e.put(t, 5, "Gear", proto.Nothing)
	sess, _ := e.session(t, "Builder", LevelBuilder)

	require.NoError(t, e.reg.Edit(sess, proto.KindGeneric, 5))
	require.NoError(t, e.reg.Field(sess, "part", "add 7"))
	require.NoError(t, e.reg.Field(sess, "name", "Cog"))

	stored, _ := e.tbl.Lookup(5)
	require.Equal(t, "Gear", stored.name)
	require.Empty(t, stored.parts)

	require.NoError(t, e.reg.Abort(sess))
	require.Equal(t, "Gear", stored.name)

	require.NoError(t, e.reg.Edit(sess, proto.KindGeneric, 5))
	require.NoError(t, e.reg.Field(sess, "part", "add 7"))
	_, err := e.reg.Commit(sess)
	require.NoError(t, err)
	require.Equal(t, []proto.Vnum{7}, stored.parts)

	require.NoError(t, e.reg.Edit(sess, proto.KindGeneric, 5))
	require.NoError(t, e.reg.Field(sess, "part", "add 8"))
	require.Equal(t, []proto.Vnum{7}, stored.parts, "scratch must not alias the stored slice")
}

func TestSessionStates(t *testing.T) {
	e := newTestEnv(t, 0)
	sess, _ := e.session(t, "Builder", LevelBuilder)

	_, err := e.reg.Commit(sess)
	require.ErrorIs(t, err, ErrNotEditing)
	require.ErrorIs(t, e.reg.Abort(sess), ErrNotEditing)
	require.ErrorIs(t, e.reg.Field(sess, "name", "x"), ErrNotEditing)

	require.NoError(t, e.reg.Edit(sess, proto.KindGeneric, 1))
	require.ErrorIs(t, e.reg.Edit(sess, proto.KindGeneric, 2), ErrAlreadyEditing)
	require.ErrorIs(t, e.reg.Field(sess, "bogus", "x"), ErrUnknownField)

	mortal, _ := e.session(t, "Mortal", 1)
	require.ErrorIs(t, e.reg.Edit(mortal, proto.KindGeneric, 3), ErrPermission)
	require.ErrorIs(t, e.reg.Edit(sess, proto.KindMobile, 3), ErrAlreadyEditing)
	require.NoError(t, e.reg.Abort(sess))
	require.ErrorIs(t, e.reg.Edit(sess, proto.KindMobile, 3), ErrUnknownKind)
}

func TestInputErrorLeavesScratch(t *testing.T) {
	e := newTestEnv(t, 0)
	sess, _ := e.session(t, "Builder", LevelBuilder)
	require.NoError(t, e.reg.Edit(sess, proto.KindGeneric, 1))

	err := e.reg.Field(sess, "link", "42")
	require.True(t, IsInput(err))
	err = e.reg.Field(sess, "flags", "+BOGUS")
	require.True(t, IsInput(err))
	err = e.reg.Field(sess, "name", "")
	require.True(t, IsInput(err))

	w := sess.Scratch().(*widget)
	require.Equal(t, proto.Nothing, w.link)
	require.Equal(t, "new widget", w.name)
}

func TestFieldAbbreviation(t *testing.T) {
	e := newTestEnv(t, 0)
	sess, out := e.session(t, "Builder", LevelBuilder)
	require.NoError(t, e.reg.Edit(sess, proto.KindGeneric, 1))
	require.NoError(t, e.reg.Field(sess, "fl", "+SHINY"))
	require.True(t, sess.Scratch().(*widget).flags.Has(widgetShiny))
	require.Contains(t, out.String(), "SHINY")
	require.Equal(t, []string{"name", "description", "flags", "link", "part"}, e.reg.FieldNames(sess))
}

func TestInDevelopmentGate(t *testing.T) {
	e := newTestEnv(t, 0)
	sess, _ := e.session(t, "Builder", LevelBuilder)
	require.NoError(t, e.reg.Edit(sess, proto.KindGeneric, 1))

	require.ErrorIs(t, e.reg.Field(sess, "flags", "-IN-DEVELOPMENT"), ErrPermission)
	require.True(t, sess.Scratch().(*widget).InDevelopment())

	sess.ClearInDev = true
	require.NoError(t, e.reg.Field(sess, "flags", "-IN-DEVELOPMENT"))
	require.False(t, sess.Scratch().(*widget).InDevelopment())
	require.NoError(t, e.reg.Field(sess, "flags", "+IN-DEVELOPMENT"))

	boss, _ := e.session(t, "Boss", LevelUnrestrictedBuilder)
	require.NoError(t, e.reg.Edit(boss, proto.KindGeneric, 2))
	require.NoError(t, e.reg.Field(boss, "flags", "IN-DEV"))
	require.False(t, boss.Scratch().(*widget).InDevelopment())
}

func TestDeleteFansOut(t *testing.T) {
	e := newTestEnv(t, 0)
	e.put(t, 1, "Target", proto.Nothing)
	e.put(t, 2, "Holder", 1)
	e.put(t, 150, "Bystander", proto.Nothing)

	actor, _ := e.session(t, "Actor", LevelBuilder)
	other, _ := e.session(t, "Other", LevelBuilder)
	watcher, _ := e.session(t, "Watcher", LevelBuilder)

	require.NoError(t, e.reg.Edit(other, proto.KindGeneric, 3))
	require.NoError(t, e.reg.Field(other, "link", "1"))
	require.NoError(t, e.reg.Edit(watcher, proto.KindGeneric, 1))

	var deleted []proto.Vnum
	e.reg.Bus().SubscribeGlobal(deleteRecorder(func(v proto.Vnum) { deleted = append(deleted, v) }))

	require.NoError(t, e.reg.Delete(actor, proto.KindGeneric, 1))
	require.False(t, e.tbl.Exists(1))
	require.Equal(t, []proto.Vnum{1}, deleted)

	holder, _ := e.tbl.Lookup(2)
	require.Equal(t, proto.Nothing, holder.link)
	require.True(t, holder.InDevelopment())

	scratch := other.Scratch().(*widget)
	require.Equal(t, proto.Nothing, scratch.link)
	require.True(t, scratch.InDevelopment())
	require.Equal(t, []string{"A widget linked from the widget you are editing was deleted."}, other.Notices())
	require.Equal(t, []string{"The generic you are editing was deleted."}, watcher.Notices())

	reloaded := NewTable[*widget](widgetSchema{}, libfile.New(e.dir, ".wid", true))
	_, err := reloaded.Load()
	require.NoError(t, err)
	require.False(t, reloaded.Exists(1))
	h, ok := reloaded.Lookup(2)
	require.True(t, ok)
	require.Equal(t, proto.Nothing, h.link)
	require.True(t, h.InDevelopment())

	require.ErrorIs(t, e.reg.Delete(actor, proto.KindGeneric, 1), ErrNotFound)
}

type deleteRecorder func(v proto.Vnum)

func (d deleteRecorder) Receive(ev events.Event) {
	if ev.Type == events.EvDeleted {
		d(ev.Vnum)
	}
}
func (deleteRecorder) Closed() bool { return false }

func TestDeleteLastRecord(t *testing.T) {
	e := newTestEnv(t, 1)
	e.put(t, 1, "Only", proto.Nothing)
	sess, _ := e.session(t, "Builder", LevelBuilder)
	require.ErrorIs(t, e.reg.Delete(sess, proto.KindGeneric, 1), ErrLastRecord)
	require.True(t, e.tbl.Exists(1))

	e.put(t, 2, "Second", proto.Nothing)
	require.NoError(t, e.reg.Delete(sess, proto.KindGeneric, 1))
}

func TestStaleCommitWarns(t *testing.T) {
	e := newTestEnv(t, 0)
	e.put(t, 1, "Original", proto.Nothing)
	a, aOut := e.session(t, "Alice", LevelBuilder)
	b, bOut := e.session(t, "Bob", LevelBuilder)

	require.NoError(t, e.reg.Edit(a, proto.KindGeneric, 1))
	require.NoError(t, e.reg.Edit(b, proto.KindGeneric, 1))
	require.NoError(t, e.reg.Field(a, "name", "Alpha"))
	require.NoError(t, e.reg.Field(b, "name", "Beta"))

	_, err := e.reg.Commit(a)
	require.NoError(t, err)
	require.NotContains(t, aOut.String(), "changed by someone else")

	_, err = e.reg.Commit(b)
	require.NoError(t, err)
	require.Contains(t, bOut.String(), "changed by someone else")

	w, _ := e.tbl.Lookup(1)
	require.Equal(t, "Beta", w.name)
}

func TestCopy(t *testing.T) {
	e := newTestEnv(t, 0)
	e.put(t, 1, "Source", proto.Nothing)
	src, _ := e.tbl.Lookup(1)
	src.parts = []proto.Vnum{4}
	sess, _ := e.session(t, "Builder", LevelBuilder)

	require.ErrorIs(t, e.reg.Copy(sess, proto.KindGeneric, 1, 1), ErrExists)
	require.NoError(t, e.reg.Copy(sess, proto.KindGeneric, 1, 9))
	scratch := sess.Scratch().(*widget)
	require.Equal(t, proto.Vnum(9), scratch.vnum)
	require.Equal(t, "Source", scratch.name)
	require.True(t, scratch.InDevelopment())
	scratch.parts[0] = 5
	require.Equal(t, proto.Vnum(4), src.parts[0])
}

func TestReferrersAndSearch(t *testing.T) {
	e := newTestEnv(t, 0)
	e.put(t, 1, "Iron Gear", proto.Nothing)
	e.put(t, 2, "Brass Gear", 1)
	e.put(t, 3, "Iron Rod", 1)

	hits := e.reg.Referrers(proto.KindGeneric, 1)
	require.Len(t, hits, 2)
	require.Equal(t, proto.Vnum(2), hits[0].Vnum)
	require.Equal(t, "link", hits[0].Label)
	require.Equal(t, "[    3] Iron Rod", hits[1].Line)

	var names []string
	for w := range e.tbl.Search("iron") {
		names = append(names, w.name)
	}
	require.Equal(t, []string{"Iron Gear", "Iron Rod"}, names)
	require.Equal(t, []string{"[    1] Iron Gear"}, e.tbl.SearchLines("ir ge"))

	w3, _ := e.tbl.Lookup(3)
	w3.flags = widgetShiny
	opts, err := ParseFullSearch("vmin 2 flagged shiny rod")
	require.NoError(t, err)
	lines, err := e.tbl.FullSearchLines(opts)
	require.NoError(t, err)
	require.Equal(t, []string{"[    3] Iron Rod"}, lines)

	opts, err = ParseFullSearch("unflagged shiny")
	require.NoError(t, err)
	lines, err = e.tbl.FullSearchLines(opts)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	_, err = e.tbl.FullSearchLines(FullSearchOpts{Flagged: []string{"nope"}, VMax: proto.Nothing})
	require.True(t, IsInput(err))
	_, err = ParseFullSearch("vmin")
	require.True(t, IsInput(err))
}

func TestTextCapture(t *testing.T) {
	e := newTestEnv(t, 0)
	sess, _ := e.session(t, "Builder", LevelBuilder)
	require.NoError(t, e.reg.Edit(sess, proto.KindGeneric, 1))
	require.NoError(t, e.reg.Field(sess, "description", ""))
	require.True(t, sess.Capturing())
	sess.TextLine("A shiny widget.")
	sess.TextLine("It hums~.")
	sess.TextLine("@")
	require.False(t, sess.Capturing())
	require.Equal(t, "A shiny widget.\r\nIt hums-.", sess.Scratch().(*widget).desc)

	require.NoError(t, e.reg.Field(sess, "description", ""))
	sess.TextLine("discard me")
	sess.TextLine("/abort")
	require.Equal(t, "A shiny widget.\r\nIt hums-.", sess.Scratch().(*widget).desc)
}

func TestDisplayAndCheck(t *testing.T) {
	e := newTestEnv(t, 0)
	e.put(t, 4, "Lamp", proto.Nothing)
	sess, _ := e.session(t, "Builder", LevelBuilder)
	require.NoError(t, e.reg.Edit(sess, proto.KindGeneric, 4))
	text, err := e.reg.Display(sess)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(text, "[4] Lamp\n<name> Lamp\n"), text)

	require.NoError(t, e.reg.Abort(sess))
	require.NoError(t, e.reg.Edit(sess, proto.KindGeneric, 77))
	text, _ = e.reg.Display(sess)
	require.True(t, strings.HasPrefix(text, "[77] new generic\n"), text)

	e.put(t, 5, "new widget", proto.Nothing)
	findings := e.tbl.Check(widgetWorld{e.tbl})
	require.Len(t, findings, 1)
	require.Equal(t, proto.Vnum(5), findings[0].Vnum)
	require.Empty(t, e.tbl.CheckRange(widgetWorld{e.tbl}, 0, 4))
}

func TestExternalDeleteFansOut(t *testing.T) {
	e := newTestEnv(t, 0)
	e.put(t, 1, "Anchor", proto.Nothing)
	e.put(t, 2, "Holder", 1)
	e.tbl.Store().Delete(1)
	require.NoError(t, e.reg.Deleted(proto.KindGeneric, 1))
	h, _ := e.tbl.Lookup(2)
	require.Equal(t, proto.Nothing, h.link)
	require.True(t, errors.Is(e.reg.Delete(nil, proto.KindGeneric, 1), ErrNotFound))
}
