package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/crystal-mush/empireolc/pkg/audit"
	"github.com/crystal-mush/empireolc/pkg/gameconfig"
	"github.com/crystal-mush/empireolc/pkg/olc"
	"github.com/crystal-mush/empireolc/pkg/proto"
	"github.com/crystal-mush/empireolc/pkg/world"
	"github.com/fatih/color"
)

func main() {
	libDir := flag.String("lib", "", "Path to the library root (e.g., lib)")
	kindName := flag.String("kind", "", "Limit output to one kind (archetype, class, attack, roomtemplate, social)")
	vnum := flag.Int("vnum", -1, "Print the stored text of one record (needs -kind)")
	search := flag.String("search", "", "List records of -kind whose name matches these words")
	runAudit := flag.Bool("audit", false, "Run every check without fixing anything")
	asJSON := flag.Bool("json", false, "With -audit, print the report as JSON")
	occurrences := flag.Int("occurrences", -1, "List records that refer to this vnum of -kind")
	confPath := flag.String("gameconfig", "", "Game config file to check against (default <lib>/misc/game_configs)")
	noColor := flag.Bool("nocolor", false, "Disable colored output")
	flag.Parse()

	if *libDir == "" {
		fmt.Fprintln(os.Stderr, "Usage: liblint -lib <library-root> [options]")
		fmt.Fprintln(os.Stderr, "  -kind <name>        Limit to one kind")
		fmt.Fprintln(os.Stderr, "  -vnum <n>           Show a record's library text")
		fmt.Fprintln(os.Stderr, "  -search <words>     Search names in -kind")
		fmt.Fprintln(os.Stderr, "  -audit              Run integrity checks")
		fmt.Fprintln(os.Stderr, "  -json               Audit report as JSON")
		fmt.Fprintln(os.Stderr, "  -occurrences <n>    Find references to a record")
		os.Exit(1)
	}
	if *noColor {
		color.NoColor = true
	}

	var kind proto.Kind
	if *kindName != "" {
		k, ok := proto.ParseKind(*kindName)
		if !ok {
			color.Red("liblint: unknown kind %q", *kindName)
			os.Exit(1)
		}
		kind = k
	}
	if (*vnum >= 0 || *search != "" || *occurrences >= 0) && *kindName == "" {
		color.Red("liblint: -vnum, -search and -occurrences need -kind")
		os.Exit(1)
	}

	ext, err := world.ScanExternal(*libDir)
	if err != nil {
		color.Red("liblint: scanning %s: %v", *libDir, err)
		os.Exit(1)
	}
	cfg := gameconfig.Standard()
	if *confPath == "" {
		*confPath = filepath.Join(*libDir, "misc", "game_configs")
	}
	if err := cfg.LoadFile(*confPath); err != nil {
		color.Red("ERROR: %v", err)
		os.Exit(1)
	}
	w := world.New(world.Options{LibDir: *libDir, Config: cfg, External: ext})

	if !*asJSON {
		fmt.Printf("Loading library: %s\n", *libDir)
	}
	start := time.Now()
	if err := w.Load(context.Background()); err != nil {
		color.Red("ERROR: %v", err)
		os.Exit(1)
	}
	if !*asJSON {
		fmt.Printf("Loaded in %v\n\n", time.Since(start))
		printSummary(w)
	}

	if *vnum >= 0 {
		fmt.Println()
		printRecord(w, kind, proto.Vnum(*vnum))
	}
	if *search != "" {
		fmt.Println()
		printSearch(w, kind, *search)
	}
	if *occurrences >= 0 {
		fmt.Println()
		printOccurrences(w, kind, proto.Vnum(*occurrences))
	}
	if *runAudit {
		if !*asJSON {
			fmt.Println()
		}
		if n := runChecks(w, kind, *kindName != "", *asJSON); n > 0 {
			os.Exit(2)
		}
	}
}

func printSummary(w *world.World) {
	fmt.Println("=== LIBRARY SUMMARY ===")
	for _, t := range w.Tables() {
		dev := 0
		for _, v := range t.Vnums() {
			if rec, ok := t.Get(v); ok && rec.InDevelopment() {
				dev++
			}
		}
		fmt.Printf("  %-10s %5d records  %4d in development\n", t.Kind(), t.Len(), dev)
	}
	fmt.Println("\n--- Game Config ---")
	for i, name := range gameconfig.GroupNames {
		if n := len(w.Config.InGroup(gameconfig.Group(i))); n > 0 {
			fmt.Printf("  %-10s %d keys\n", name, n)
		}
	}
}

func table(w *world.World, kind proto.Kind) olc.AnyTable {
	t, ok := w.Registry.Table(kind)
	if !ok {
		color.Red("liblint: no table for %s", kind)
		os.Exit(1)
	}
	return t
}

func printRecord(w *world.World, kind proto.Kind, v proto.Vnum) {
	t := table(w, kind)
	text, ok := t.RecordText(v)
	if !ok {
		color.Yellow("There is no %s %d.", kind, v)
		return
	}
	fmt.Printf("=== %s %d ===\n", kind, v)
	if line, ok := t.ListLine(v, true); ok {
		color.Cyan("%s", line)
	}
	fmt.Print(text)
}

func printSearch(w *world.World, kind proto.Kind, query string) {
	lines := table(w, kind).SearchLines(query)
	fmt.Printf("=== %s SEARCH: %s ===\n", kind, query)
	if len(lines) == 0 {
		fmt.Println("  none")
		return
	}
	for _, l := range lines {
		fmt.Println(l)
	}
	fmt.Printf("%d matches\n", len(lines))
}

func printOccurrences(w *world.World, kind proto.Kind, v proto.Vnum) {
	hits := w.Registry.Referrers(kind, v)
	fmt.Printf("=== OCCURRENCES OF %s %d ===\n", kind, v)
	if len(hits) == 0 {
		fmt.Println("  none")
		return
	}
	for _, h := range hits {
		fmt.Printf("%-10s %s\n", h.Label, h.Line)
	}
	fmt.Printf("%d occurrences\n", len(hits))
}

// runChecks audits the library without applying fixes and returns the
// number of error findings.
func runChecks(w *world.World, only proto.Kind, filtered, asJSON bool) int {
	a := audit.New(w)
	for _, t := range w.Tables() {
		if !filtered || t.Kind() == only {
			a.Register(t)
		}
	}
	findings := a.Run()

	if asJSON {
		if err := audit.GenerateReport(a).WriteJSON(os.Stdout); err != nil {
			color.Red("liblint: %v", err)
			os.Exit(1)
		}
	} else {
		fmt.Println("=== AUDIT ===")
		warn := color.New(color.FgYellow)
		bad := color.New(color.FgRed, color.Bold)
		for _, f := range findings {
			if f.Severity == audit.SevError {
				bad.Println(f.String())
			} else {
				warn.Println(f.String())
			}
		}
		summary := a.Summary()
		cats := make([]audit.Category, 0, len(summary))
		for c := range summary {
			cats = append(cats, c)
		}
		sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
		if len(cats) > 0 {
			fmt.Println("\n--- By Category ---")
		}
		for _, c := range cats {
			fmt.Printf("  %-14s %d\n", c, summary[c])
		}
	}

	errs := 0
	for _, f := range findings {
		if f.Severity == audit.SevError {
			errs++
		}
	}
	if !asJSON {
		if errs == 0 {
			color.Green("\nNo errors found (%d findings).", len(findings))
		} else {
			color.Red("\n%d errors in %d findings.", errs, len(findings))
		}
	}
	return errs
}
