package proto

import (
	"strings"
	"testing"
)

type testRec struct {
	vnum  Vnum
	name  string
	indev bool
}

func (r *testRec) Vnum() Vnum          { return r.vnum }
func (r *testRec) SetVnum(v Vnum)      { r.vnum = v }
func (r *testRec) InDevelopment() bool { return r.indev }

func makeTestStore(recs ...*testRec) *Store[*testRec] {
	s := NewStore(Options[*testRec]{
		Kind: KindArchetype,
		Less: func(a, b *testRec) bool { return FoldCompare(a.name, b.name) < 0 },
		Name: func(r *testRec) string { return r.name },
	})
	for _, r := range recs {
		s.Insert(r)
	}
	return s
}

func TestInsertDuplicateKeepsOriginal(t *testing.T) {
	orig := &testRec{vnum: 5, name: "Original"}
	s := makeTestStore(orig)

	if s.Insert(&testRec{vnum: 5, name: "Impostor"}) {
		t.Fatal("duplicate insert reported success")
	}
	got, ok := s.Lookup(5)
	if !ok || got != orig {
		t.Fatalf("expected original record at 5, got %+v", got)
	}
	if s.Len() != 1 || len(s.Sorted()) != 1 {
		t.Errorf("tables out of step: len=%d sorted=%d", s.Len(), len(s.Sorted()))
	}
}

func TestLookupSentinel(t *testing.T) {
	s := makeTestStore(&testRec{vnum: 0, name: "Zero"})
	if _, ok := s.Lookup(Nothing); ok {
		t.Error("Lookup(Nothing) returned a record")
	}
	if _, ok := s.Lookup(-7); ok {
		t.Error("Lookup(-7) returned a record")
	}
	if s.Insert(&testRec{vnum: -1, name: "Bad"}) {
		t.Error("negative vnum inserted")
	}
	if _, ok := s.Lookup(0); !ok {
		t.Error("vnum 0 should be valid")
	}
}

func TestSortedOrderAndResort(t *testing.T) {
	a := &testRec{vnum: 1, name: "charlie"}
	b := &testRec{vnum: 2, name: "Alpha"}
	c := &testRec{vnum: 3, name: "bravo"}
	s := makeTestStore(a, b, c)

	names := func() string {
		var out []string
		for _, r := range s.Sorted() {
			out = append(out, r.name)
		}
		return strings.Join(out, ",")
	}
	if got := names(); got != "Alpha,bravo,charlie" {
		t.Fatalf("sorted = %s", got)
	}

	a.name = "aardvark"
	s.Resort()
	if got := names(); got != "aardvark,Alpha,bravo" {
		t.Errorf("after resort = %s", got)
	}
}

func TestDeleteUnlinksBoth(t *testing.T) {
	s := makeTestStore(&testRec{vnum: 1, name: "one"}, &testRec{vnum: 2, name: "two"})
	if _, ok := s.Delete(1); !ok {
		t.Fatal("delete failed")
	}
	if _, ok := s.Lookup(1); ok {
		t.Error("still in primary table")
	}
	for _, r := range s.Sorted() {
		if r.vnum == 1 {
			t.Error("still in sorted table")
		}
	}
	if _, ok := s.Delete(1); ok {
		t.Error("second delete should fail")
	}
}

func TestFindByNamePrecedence(t *testing.T) {
	s := makeTestStore(
		&testRec{vnum: 1, name: "Warrior of Lightning"},
		&testRec{vnum: 2, name: "Warrior of Light"},
		&testRec{vnum: 3, name: "Hidden", indev: true},
	)

	got, ok := s.FindByName("warrior of light", nil)
	if !ok || got.vnum != 2 {
		t.Fatalf("exact match: got %+v", got)
	}

	got, ok = s.FindByName("war of lightn", nil)
	if !ok || got.vnum != 1 {
		t.Errorf("abbrev match: got %+v", got)
	}

	if _, ok := s.FindByName("Hidden", nil); ok {
		t.Error("in-development record matched")
	}
}

func TestAllIsVnumOrderedAndRestartable(t *testing.T) {
	s := makeTestStore(&testRec{vnum: 30, name: "a"}, &testRec{vnum: 10, name: "b"}, &testRec{vnum: 20, name: "c"})
	seq := s.All()
	for pass := 0; pass < 2; pass++ {
		var got []Vnum
		for r := range seq {
			got = append(got, r.vnum)
		}
		if len(got) != 3 || got[0] != 10 || got[1] != 20 || got[2] != 30 {
			t.Errorf("pass %d: %v", pass, got)
		}
	}
}

func TestParseFlagNames(t *testing.T) {
	names := []string{"IN-DEVELOPMENT", "DARK", "LIGHT"}
	b, err := ParseFlagNames(0, names, "dark +light")
	if err != nil {
		t.Fatal(err)
	}
	if b != Bit(1)|Bit(2) {
		t.Errorf("got %b", b)
	}
	b, err = ParseFlagNames(b, names, "-dark")
	if err != nil || b != Bit(2) {
		t.Errorf("remove: %b %v", b, err)
	}
	if _, err := ParseFlagNames(b, names, "bogus"); err == nil {
		t.Error("expected error for unknown flag")
	}
	if got := (Bit(0) | Bit(2)).Names(names); got != "IN-DEVELOPMENT LIGHT" {
		t.Errorf("Names = %q", got)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"class", KindClass, true},
		{"CLASS", KindClass, true},
		{"arch", KindArchetype, true},
		{"att", KindAttack, true},
		{"room", KindRoomTemplate, true},
		{"soc", KindSocial, true},
		{"a", 0, false},
		{"s", 0, false},
		{"", 0, false},
		{"bogus", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseKind(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseKind(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
