// Package audit checks OLC prototypes for content problems: placeholders
// left in place, dangling vnum references, broken invariants. Every check
// runs; nothing stops at the first problem. Findings may carry a fix.
package audit

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/crystal-mush/empireolc/pkg/proto"
)

// Category classifies the type of finding.
type Category int

const (
	CatPlaceholder Category = iota // Default text never replaced
	CatReference                   // Vnum that does not resolve
	CatInvariant                   // Rule about values or combinations
	CatFormat                      // Capitalization, punctuation, spacing
	CatDuplicate                   // Clashes with another record
	CatMissing                     // Required content absent
	CatDevelopment                 // Still flagged IN-DEVELOPMENT
)

func (c Category) String() string {
	switch c {
	case CatPlaceholder:
		return "placeholder"
	case CatReference:
		return "reference"
	case CatInvariant:
		return "invariant"
	case CatFormat:
		return "format"
	case CatDuplicate:
		return "duplicate"
	case CatMissing:
		return "missing"
	case CatDevelopment:
		return "in-development"
	default:
		return "unknown"
	}
}

// Severity indicates how serious a finding is.
type Severity int

const (
	SevError   Severity = iota // Keeps the record out of play
	SevWarning                 // Should be reviewed
)

func (s Severity) String() string {
	switch s {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Finding is a single problem with one prototype.
type Finding struct {
	ID          string     `json:"id"`
	Kind        proto.Kind `json:"-"`
	KindName    string     `json:"kind"`
	Vnum        proto.Vnum `json:"vnum"`
	Category    Category   `json:"-"`
	CatName     string     `json:"category"`
	Severity    Severity   `json:"-"`
	SevName     string     `json:"severity"`
	Description string     `json:"description"`
	Fixable     bool       `json:"fixable"`
	Fixed       bool       `json:"fixed"`
	fixFunc     func()
}

// Problem builds an error-severity finding.
func Problem(kind proto.Kind, v proto.Vnum, cat Category, format string, args ...interface{}) Finding {
	return newFinding(kind, v, cat, SevError, fmt.Sprintf(format, args...))
}

// Warning builds a warning-severity finding.
func Warning(kind proto.Kind, v proto.Vnum, cat Category, format string, args ...interface{}) Finding {
	return newFinding(kind, v, cat, SevWarning, fmt.Sprintf(format, args...))
}

func newFinding(kind proto.Kind, v proto.Vnum, cat Category, sev Severity, desc string) Finding {
	return Finding{
		Kind:        kind,
		KindName:    kind.String(),
		Vnum:        v,
		Category:    cat,
		CatName:     cat.String(),
		Severity:    sev,
		SevName:     sev.String(),
		Description: desc,
	}
}

// WithFix attaches a repair to the finding.
func (f Finding) WithFix(fn func()) Finding {
	f.Fixable = fn != nil
	f.fixFunc = fn
	return f
}

func (f Finding) String() string {
	return fmt.Sprintf("[%s %d] %s", f.KindName, f.Vnum, f.Description)
}

// Range is an inclusive vnum span, such as an adventure zone.
type Range struct {
	Start, End proto.Vnum
}

// Contains reports whether v lies inside r.
func (r Range) Contains(v proto.Vnum) bool {
	return v >= r.Start && v <= r.End
}

// Context gives checks read access to everything they validate against.
type Context interface {
	// Exists reports whether vnum v resolves for kind.
	Exists(kind proto.Kind, v proto.Vnum) bool
	// AdventureFor returns the adventure zone containing v, if any.
	AdventureFor(v proto.Vnum) (Range, bool)
	// Int reads an integer game setting.
	Int(key string, fallback int) int
}

// Checker is implemented by each record table.
type Checker interface {
	Name() string
	Check(ctx Context) []Finding
}

// Auditor runs all registered checkers against one Context.
type Auditor struct {
	ctx      Context
	checkers []Checker
	findings []Finding
	idSeq    atomic.Int64
}

// New creates an Auditor.
func New(ctx Context, checkers ...Checker) *Auditor {
	return &Auditor{ctx: ctx, checkers: checkers}
}

// Register adds a checker.
func (a *Auditor) Register(c Checker) {
	a.checkers = append(a.checkers, c)
}

// Run executes every checker and returns findings sorted by kind, vnum,
// then discovery order.
func (a *Auditor) Run() []Finding {
	a.findings = nil
	for _, c := range a.checkers {
		for _, f := range c.Check(a.ctx) {
			f.ID = fmt.Sprintf("A%d", a.idSeq.Add(1))
			a.findings = append(a.findings, f)
		}
	}
	sort.SliceStable(a.findings, func(i, j int) bool {
		fi, fj := a.findings[i], a.findings[j]
		if fi.Kind != fj.Kind {
			return fi.Kind < fj.Kind
		}
		return fi.Vnum < fj.Vnum
	})
	return a.findings
}

// Findings returns the results of the last Run.
func (a *Auditor) Findings() []Finding {
	return a.findings
}

// ApplyFix applies a single fix by finding ID.
func (a *Auditor) ApplyFix(id string) error {
	for i := range a.findings {
		if a.findings[i].ID != id {
			continue
		}
		f := &a.findings[i]
		if !f.Fixable {
			return fmt.Errorf("finding %s is not fixable", id)
		}
		if f.Fixed {
			return fmt.Errorf("finding %s is already fixed", id)
		}
		f.fixFunc()
		f.Fixed = true
		return nil
	}
	return fmt.Errorf("finding %s not found", id)
}

// ApplyAll applies every unfixed fix, returning the findings that changed
// a record.
func (a *Auditor) ApplyAll() []Finding {
	var fixed []Finding
	for i := range a.findings {
		f := &a.findings[i]
		if f.Fixable && !f.Fixed && f.fixFunc != nil {
			f.fixFunc()
			f.Fixed = true
			fixed = append(fixed, *f)
		}
	}
	return fixed
}

// Key identifies one record across kinds.
type Key struct {
	Kind proto.Kind
	Vnum proto.Vnum
}

// Failing returns every record with at least one unfixed error finding.
func (a *Auditor) Failing() []Key {
	seen := make(map[Key]bool)
	var out []Key
	for _, f := range a.findings {
		if f.Severity != SevError || f.Fixed {
			continue
		}
		k := Key{f.Kind, f.Vnum}
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// Summary returns counts of findings per category.
func (a *Auditor) Summary() map[Category]int {
	m := make(map[Category]int)
	for _, f := range a.findings {
		m[f.Category]++
	}
	return m
}
