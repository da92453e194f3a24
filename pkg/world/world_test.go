package world

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crystal-mush/empireolc/pkg/archetype"
	"github.com/crystal-mush/empireolc/pkg/attack"
	"github.com/crystal-mush/empireolc/pkg/audit"
	"github.com/crystal-mush/empireolc/pkg/class"
	"github.com/crystal-mush/empireolc/pkg/olc"
	"github.com/crystal-mush/empireolc/pkg/proto"
	"github.com/stretchr/testify/require"
)

// fakeExternal knows skill 1 and object 1000, and one adventure.
type fakeExternal struct{}

func (fakeExternal) Exists(kind proto.Kind, v proto.Vnum) bool {
	switch kind {
	case proto.KindSkill:
		return v == 1
	case proto.KindObject:
		return v == 1000
	}
	return false
}

func (fakeExternal) AdventureFor(v proto.Vnum) (audit.Range, bool) {
	r := audit.Range{Start: 100, End: 199}
	return r, r.Contains(v)
}

type classHooks struct{ changed []proto.Vnum }

func (h *classHooks) ClassChanged(v proto.Vnum) { h.changed = append(h.changed, v) }

const farmerBlock = `#5
Farmer~
You grow things.~
Farmhand~
Milkmaid~
b
A
0 2
A
1 2
A
2 2
A
3 2
A
4 2
A
5 1
K
1 20
K
9999 5
S
$
`

const tunnelBlock = `#100
Tunnel~
A narrow tunnel.~
0 0 0
S
$
`

func writeLib(t *testing.T, root string, kind proto.Kind, file, block string) {
	t.Helper()
	dir := filepath.Join(root, kind.String())
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(block), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index"), []byte(file+"\n$\n"), 0644))
}

func makeTestLibrary(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeLib(t, root, proto.KindArchetype, "0"+archetype.Suffix, farmerBlock)
	writeLib(t, root, proto.KindRoomTemplate, "1.rmt", tunnelBlock)
	return root
}

func TestBootAuditFlagsAndFixes(t *testing.T) {
	root := makeTestLibrary(t)
	w := New(Options{LibDir: root, External: fakeExternal{}})
	require.NoError(t, w.Boot(context.Background()))

	farmer, ok := w.Archetypes.Lookup(5)
	require.True(t, ok)
	require.True(t, farmer.InDevelopment(), "invalid skill should force IN-DEVELOPMENT")
	require.Len(t, farmer.Skills, 1)
	require.Equal(t, proto.Vnum(1), farmer.Skills[0].Skill)

	var fixed bool
	for _, f := range w.BootFindings() {
		if f.Kind == proto.KindArchetype && f.Fixed && f.Description == "Invalid skill 9999" {
			fixed = true
		}
	}
	require.True(t, fixed, "findings: %v", w.BootFindings())

	// The fix and the flag were saved.
	again := New(Options{LibDir: root, External: fakeExternal{}})
	require.NoError(t, again.Load(context.Background()))
	farmer, ok = again.Archetypes.Lookup(5)
	require.True(t, ok)
	require.True(t, farmer.InDevelopment())
	require.Len(t, farmer.Skills, 1)
}

func TestBootFailsOnBadFile(t *testing.T) {
	root := makeTestLibrary(t)
	writeLib(t, root, proto.KindSocial, "0.soc", "#1\nunterminated\n")
	w := New(Options{LibDir: root})
	require.Error(t, w.Boot(context.Background()))
}

func TestBootNeedsARoomTemplate(t *testing.T) {
	root := t.TempDir()
	w := New(Options{LibDir: root})
	require.Error(t, w.Boot(context.Background()))
}

func TestNewClassCommittedUnchanged(t *testing.T) {
	hooks := &classHooks{}
	w := New(Options{External: fakeExternal{}, Hooks: hooks})
	require.NoError(t, w.Boot(context.Background()))

	sess := olc.NewSession("Builder", olc.LevelBuilder, nil)
	w.Registry.Attach(sess)
	require.NoError(t, w.Registry.Edit(sess, proto.KindClass, proto.Nothing))
	_, v, ok := sess.Editing()
	require.True(t, ok)
	rec, err := w.Registry.Commit(sess)
	require.NoError(t, err)

	got, ok := w.GetByVnum(proto.KindClass, v)
	require.True(t, ok)
	require.Same(t, rec, got)
	cls := got.(*class.Class)
	require.Equal(t, class.DefaultName, cls.Name)
	require.Equal(t, class.DefaultAbbrev, cls.Abbrev)
	require.True(t, cls.InDevelopment())
	require.Equal(t, []proto.Vnum{v}, hooks.changed)
}

func TestDeleteAttackClearsCountsAs(t *testing.T) {
	root := t.TempDir()
	w := New(Options{LibDir: root, External: fakeExternal{}})

	var deleted []string
	w.OnDelete(func(kind proto.Kind, v proto.Vnum) {
		deleted = append(deleted, kind.String()+" "+v.String())
	})

	sess := olc.NewSession("Builder", olc.LevelBuilder, nil)
	w.Registry.Attach(sess)
	for _, step := range []struct {
		vnum   proto.Vnum
		fields [][2]string
	}{
		{100, [][2]string{{"name", "slash"}}},
		{101, [][2]string{{"name", "cut"}, {"countsas", "100"}}},
	} {
		require.NoError(t, w.Registry.Edit(sess, proto.KindAttack, step.vnum))
		for _, f := range step.fields {
			require.NoError(t, w.Registry.Field(sess, f[0], f[1]))
		}
		_, err := w.Registry.Commit(sess)
		require.NoError(t, err)
	}
	cut, ok := w.Attacks.Lookup(101)
	require.True(t, ok)
	require.Equal(t, proto.Vnum(100), cut.CountsAs)

	other := olc.NewSession("Other", olc.LevelBuilder, nil)
	w.Registry.Attach(other)
	require.NoError(t, w.Registry.Edit(other, proto.KindAttack, 101))

	require.NoError(t, w.Registry.Delete(sess, proto.KindAttack, 100))

	require.Equal(t, attack.None, cut.CountsAs)
	_, ok = w.GetByVnum(proto.KindAttack, 100)
	require.False(t, ok)
	require.Equal(t, []string{"attack 100"}, deleted)

	scratch := other.Scratch().(*attack.Attack)
	require.Equal(t, attack.None, scratch.CountsAs)
	require.Equal(t, []string{"The attack type that the attack you're editing counts as was deleted."}, other.Notices())

	data, err := os.ReadFile(filepath.Join(root, "attack", "1"+attack.Suffix))
	require.NoError(t, err)
	require.NotContains(t, string(data), "#100\n")
	require.True(t, strings.Contains(string(data), "#101\ncut~\na 0\n"), "block file:\n%s", data)
}

func TestConfigFeedsAudit(t *testing.T) {
	w := New(Options{External: fakeExternal{}})
	require.Equal(t, 11, w.Int(archetype.AttributeTotalKey, 0))
	_, err := w.Config.Set(archetype.AttributeTotalKey, "12")
	require.NoError(t, err)
	require.Equal(t, 12, w.Int(archetype.AttributeTotalKey, 0))
	require.Equal(t, 3, w.Int("no_such_key", 3))
}

func TestInMemoryWorldTrustsOtherKinds(t *testing.T) {
	w := New(Options{})
	require.True(t, w.Exists(proto.KindMobile, 1234))
	require.True(t, w.Exists(proto.KindObject, 5000))
	require.False(t, w.Exists(proto.KindRoomTemplate, 9), "own tables are still checked")

	a := archetype.New(1)
	a.Gear = append(a.Gear, archetype.Gear{Slot: 0, Obj: 5000})
	w.Archetypes.Add(a)
	findings, err := w.Check(proto.KindArchetype.String())
	require.NoError(t, err)
	for _, f := range findings {
		require.NotContains(t, f.Description, "Gear object", "unexpected finding %s", f)
	}
}
