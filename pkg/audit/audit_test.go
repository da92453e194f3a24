package audit

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/crystal-mush/empireolc/pkg/proto"
)

type stubContext struct {
	known map[proto.Vnum]bool
}

func (c stubContext) Exists(kind proto.Kind, v proto.Vnum) bool { return c.known[v] }
func (c stubContext) AdventureFor(v proto.Vnum) (Range, bool) {
	return Range{Start: 0, End: 99}, v < 100
}
func (c stubContext) Int(key string, fallback int) int { return fallback }

type stubChecker struct {
	skills []proto.Vnum
}

func (s *stubChecker) Name() string { return "stub" }

func (s *stubChecker) Check(ctx Context) []Finding {
	var out []Finding
	out = append(out, Warning(proto.KindArchetype, 7, CatDevelopment, "IN-DEVELOPMENT"))
	for _, sk := range s.skills {
		if !ctx.Exists(proto.KindSkill, sk) {
			out = append(out, Problem(proto.KindArchetype, 7, CatReference, "invalid skill %d", sk).WithFix(func() {
				for i, v := range s.skills {
					if v == sk {
						s.skills = append(s.skills[:i], s.skills[i+1:]...)
						return
					}
				}
			}))
		}
	}
	out = append(out, Problem(proto.KindArchetype, 3, CatPlaceholder, "archetype name not set"))
	return out
}

func TestRunReportsEverything(t *testing.T) {
	chk := &stubChecker{skills: []proto.Vnum{1, 9999, 8888}}
	a := New(stubContext{known: map[proto.Vnum]bool{1: true}}, chk)
	findings := a.Run()

	if len(findings) != 4 {
		t.Fatalf("expected 4 findings, got %d", len(findings))
	}
	if findings[0].Vnum != 3 {
		t.Errorf("findings not sorted by vnum: first is %d", findings[0].Vnum)
	}
	for _, f := range findings {
		if f.ID == "" {
			t.Errorf("finding without ID: %v", f)
		}
	}
}

func TestApplyAllAndFailing(t *testing.T) {
	chk := &stubChecker{skills: []proto.Vnum{1, 9999}}
	a := New(stubContext{known: map[proto.Vnum]bool{1: true}}, chk)
	a.Run()

	fixed := a.ApplyAll()
	if len(fixed) != 1 {
		t.Fatalf("expected 1 fix, got %d", len(fixed))
	}
	if len(chk.skills) != 1 || chk.skills[0] != 1 {
		t.Errorf("invalid skill not removed: %v", chk.skills)
	}

	// Only vnum 3 still has an unfixed error.
	failing := a.Failing()
	if len(failing) != 1 || failing[0].Vnum != 3 {
		t.Errorf("failing = %v", failing)
	}

	if err := a.ApplyFix(fixed[0].ID); err == nil {
		t.Error("expected error re-applying fix")
	}
	if err := a.ApplyFix("nope"); err == nil {
		t.Error("expected error for unknown finding")
	}
}

func TestReportJSON(t *testing.T) {
	a := New(stubContext{}, &stubChecker{skills: []proto.Vnum{5}})
	a.Run()

	var buf bytes.Buffer
	if err := GenerateReport(a).WriteJSON(&buf); err != nil {
		t.Fatal(err)
	}
	var r Report
	if err := json.Unmarshal(buf.Bytes(), &r); err != nil {
		t.Fatal(err)
	}
	if r.TotalFindings != 3 {
		t.Errorf("total = %d", r.TotalFindings)
	}
	if r.Categories["reference"].Fixable != 1 {
		t.Errorf("reference summary = %+v", r.Categories["reference"])
	}
}

func TestTextHelpers(t *testing.T) {
	if Capitalized("the hall") || !Capitalized("The Hall") || !Capitalized("") {
		t.Error("Capitalized")
	}
	if !EndsWithPunct("A hall.") || EndsWithPunct("A hall") {
		t.Error("EndsWithPunct")
	}
	if !Lowercase("hug") || Lowercase("Hug") {
		t.Error("Lowercase")
	}
}
