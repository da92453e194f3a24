package boltstore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crystal-mush/empireolc/pkg/olc"
	"github.com/crystal-mush/empireolc/pkg/proto"
	"github.com/crystal-mush/empireolc/pkg/roomtmpl"
	"github.com/crystal-mush/empireolc/pkg/world"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "mirror.db"), proto.KindRoomTemplate, proto.KindClass)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newRoom(v proto.Vnum, title string) *roomtmpl.RoomTemplate {
	rt := roomtmpl.New(v)
	rt.Title = title
	rt.Description = "Dark.\r\n"
	return rt
}

func TestPutGetDelete(t *testing.T) {
	s := openTestStore(t)
	if s.Version() != formatVersion {
		t.Fatalf("version = %d", s.Version())
	}
	if s.HasData() {
		t.Fatal("new store should be empty")
	}

	if err := s.Put(proto.KindClass, Entry{Vnum: 7, Summary: "[    7] Ranger", Text: "#7\n"}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	e, err := s.Get(proto.KindClass, 7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if e.Kind != "class" || e.Summary != "[    7] Ranger" {
		t.Errorf("got %+v", e)
	}
	if !s.HasData() {
		t.Error("HasData should be true after Put")
	}

	if err := s.Delete(proto.KindClass, 7); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(proto.KindClass, 7); !errors.Is(err, ErrMissing) {
		t.Errorf("Get after delete: %v", err)
	}
	if err := s.Delete(proto.KindClass, 7); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestEntriesInVnumOrder(t *testing.T) {
	s := openTestStore(t)
	for _, v := range []int{300, 2, 45} {
		if err := s.Put(proto.KindRoomTemplate, Entry{Vnum: v}); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := s.Entries(proto.KindRoomTemplate)
	if err != nil {
		t.Fatal(err)
	}
	var got []int
	for _, e := range entries {
		got = append(got, e.Vnum)
	}
	if len(got) != 3 || got[0] != 2 || got[1] != 45 || got[2] != 300 {
		t.Errorf("order = %v", got)
	}
	if n := s.Count(proto.KindRoomTemplate); n != 3 {
		t.Errorf("Count = %d", n)
	}
}

func TestSyncAndRestore(t *testing.T) {
	s := openTestStore(t)
	w := world.New(world.Options{})
	w.RoomTemplates.Add(newRoom(100, "Tunnel"))
	w.RoomTemplates.Add(newRoom(101, "Cavern"))

	// A stale entry is dropped by Sync.
	s.Put(proto.KindRoomTemplate, Entry{Vnum: 5})

	m := NewMirror(s, w.Registry)
	if err := m.SyncAll(); err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if n := s.Count(proto.KindRoomTemplate); n != 2 {
		t.Fatalf("Count = %d, want 2", n)
	}
	if s.Synced().IsZero() {
		t.Error("Synced not stamped")
	}
	e, err := s.Get(proto.KindRoomTemplate, 100)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(e.Text, "#100\nTunnel~\n") {
		t.Errorf("text = %q", e.Text)
	}

	fresh := world.New(world.Options{})
	n, err := s.Restore(fresh.RoomTemplates)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if n != 2 {
		t.Fatalf("restored %d, want 2", n)
	}
	rt, ok := fresh.RoomTemplates.Lookup(101)
	if !ok || rt.Title != "Cavern" {
		t.Errorf("restored 101 = %+v", rt)
	}
}

func TestMirrorFollowsCommitsAndDeletes(t *testing.T) {
	s := openTestStore(t)
	w := world.New(world.Options{})
	w.RoomTemplates.Add(newRoom(100, "Tunnel"))
	w.Observe(NewMirror(s, w.Registry))

	sess := olc.NewSession("Builder", olc.LevelBuilder, nil)
	w.Registry.Attach(sess)
	if err := w.Registry.Edit(sess, proto.KindClass, 3); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Registry.Commit(sess); err != nil {
		t.Fatal(err)
	}
	e, err := s.Get(proto.KindClass, 3)
	if err != nil {
		t.Fatalf("class 3 not mirrored: %v", err)
	}
	if e.Actor != "Builder" || !strings.HasPrefix(e.Text, "#3\n") {
		t.Errorf("entry = %+v", e)
	}

	if err := w.Registry.Delete(sess, proto.KindClass, 3); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(proto.KindClass, 3); !errors.Is(err, ErrMissing) {
		t.Errorf("class 3 still mirrored: %v", err)
	}
}

func TestBackup(t *testing.T) {
	s := openTestStore(t)
	s.Put(proto.KindClass, Entry{Vnum: 1, Summary: "one"})
	path := filepath.Join(t.TempDir(), "backup.db")
	if err := s.Backup(path); err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
	b, err := Open(path)
	if err != nil {
		t.Fatalf("open backup: %v", err)
	}
	defer b.Close()
	e, err := b.Get(proto.KindClass, 1)
	if err != nil || e.Summary != "one" {
		t.Errorf("backup entry = %+v, %v", e, err)
	}
}

func TestExport(t *testing.T) {
	s := openTestStore(t)
	s.Put(proto.KindClass, Entry{Vnum: 2, Text: "#2\nb\n"})
	s.Put(proto.KindClass, Entry{Vnum: 1, Text: "#1\na\n"})
	var sb strings.Builder
	n, err := s.Export(proto.KindClass, &sb)
	if err != nil || n != 2 {
		t.Fatalf("Export = %d, %v", n, err)
	}
	if got := sb.String(); got != "#1\na\n#2\nb\n$\n" {
		t.Errorf("export = %q", got)
	}
}
