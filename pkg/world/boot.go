package world

import (
	"context"
	"fmt"
	"log"

	"github.com/crystal-mush/empireolc/pkg/audit"
	"golang.org/x/sync/errgroup"
)

// Boot loads every table and runs the boot-time audit. A parse error is
// returned as is; the caller decides whether it is fatal.
func (w *World) Boot(ctx context.Context) error {
	if err := w.Load(ctx); err != nil {
		return err
	}
	w.bootFindings = w.BootAudit()
	return nil
}

// Load parses every table's library. Tables are independent, so they
// load in parallel.
func (w *World) Load(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, t := range w.tables {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			_, err := t.Load()
			return err
		})
	}
	return g.Wait()
}

// BootAudit runs every check once all tables are populated. It applies
// every available fix, forces IN-DEVELOPMENT on each record with an
// error finding, fixed or not, and saves what it changed.
func (w *World) BootAudit() []audit.Finding {
	a := audit.New(w)
	for _, t := range w.tables {
		a.Register(t)
	}
	findings := a.Run()
	a.ApplyAll()
	findings = a.Findings()

	touched := make(map[audit.Key]bool)
	for _, f := range findings {
		log.Printf("audit: %s", f)
		key := audit.Key{Kind: f.Kind, Vnum: f.Vnum}
		if f.Fixed {
			touched[key] = true
		}
		if f.Severity == audit.SevError {
			if t, ok := w.Registry.Table(f.Kind); ok && t.SetInDevelopment(f.Vnum) {
				touched[key] = true
			}
		}
	}
	for key := range touched {
		t, _ := w.Registry.Table(key.Kind)
		if err := t.Save(key.Vnum); err != nil {
			log.Printf("audit: saving %s %d: %v", key.Kind, key.Vnum, err)
		}
	}
	if len(touched) > 0 {
		log.Printf("audit: %d findings, %d records changed", len(findings), len(touched))
	}
	return findings
}

// BootFindings returns what the boot audit found.
func (w *World) BootFindings() []audit.Finding {
	return w.bootFindings
}

// Check runs an on-demand audit of one table without changing anything.
func (w *World) Check(name string) ([]audit.Finding, error) {
	for _, t := range w.tables {
		if t.Name() == name {
			return t.Check(w), nil
		}
	}
	return nil, fmt.Errorf("no table %q", name)
}
