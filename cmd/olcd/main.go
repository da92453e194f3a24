package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/crystal-mush/empireolc/pkg/archive"
	"github.com/crystal-mush/empireolc/pkg/boltstore"
	"github.com/crystal-mush/empireolc/pkg/console"
	"github.com/crystal-mush/empireolc/pkg/gameconfig"
	"github.com/crystal-mush/empireolc/pkg/history"
	"github.com/crystal-mush/empireolc/pkg/metrics"
	"github.com/crystal-mush/empireolc/pkg/olc"
	"github.com/crystal-mush/empireolc/pkg/olcconf"
	"github.com/crystal-mush/empireolc/pkg/proto"
	"github.com/crystal-mush/empireolc/pkg/watch"
	"github.com/crystal-mush/empireolc/pkg/world"
	"github.com/prometheus/client_golang/prometheus"
)

// envDefault returns the environment variable value if set, otherwise the fallback.
func envDefault(envVar, fallback string) string {
	if v := os.Getenv(envVar); v != "" {
		return v
	}
	return fallback
}

func main() {
	libDir := flag.String("lib", envDefault("OLC_LIB", ""), "Library root directory (env: OLC_LIB)")
	confFile := flag.String("conf", envDefault("OLC_CONF", ""), "Daemon YAML config (env: OLC_CONF)")
	gameConf := flag.String("gameconfig", envDefault("OLC_GAMECONFIG", ""), "Global game config file (env: OLC_GAMECONFIG)")
	boltPath := flag.String("bolt", envDefault("OLC_BOLT", ""), "bbolt prototype mirror (env: OLC_BOLT)")
	historyPath := flag.String("history", envDefault("OLC_HISTORY", ""), "SQLite edit log (env: OLC_HISTORY)")
	metricsAddr := flag.String("metrics", envDefault("OLC_METRICS", ""), "Listen address for /metrics (env: OLC_METRICS)")
	watchLib := flag.Bool("watch", os.Getenv("OLC_WATCH") == "true", "Notify sessions when library files change on disk (env: OLC_WATCH)")
	archiveDir := flag.String("archive", envDefault("OLC_ARCHIVE_DIR", ""), "Snapshot the library here before boot fixups (env: OLC_ARCHIVE_DIR)")
	restorePath := flag.String("restore", envDefault("OLC_RESTORE", ""), "Restore from archive before boot (env: OLC_RESTORE)")
	level := flag.Int("level", 0, "Console session access level")
	name := flag.String("name", "", "Console player name")
	flag.Parse()

	dc := olcconf.DefaultDaemonConf()
	if *confFile != "" {
		var err error
		dc, err = olcconf.LoadDaemonConf(*confFile)
		if err != nil {
			log.Fatalf("Error loading daemon config: %v", err)
		}
		log.Printf("Loaded daemon config from %s", *confFile)
	}

	// Command-line flags override config file values
	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&dc.LibDir, *libDir)
	override(&dc.GameConfig, *gameConf)
	override(&dc.BoltPath, *boltPath)
	override(&dc.HistoryPath, *historyPath)
	override(&dc.MetricsAddr, *metricsAddr)
	override(&dc.ArchiveDir, *archiveDir)
	override(&dc.Console.Player, *name)
	if *watchLib {
		dc.Watch = true
	}
	if *level > 0 {
		dc.Console.Level = *level
	}
	if v := os.Getenv("OLC_ARCHIVE_KEEP"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			dc.ArchiveKeep = n
		}
	}
	if err := dc.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "olcd: %v\n", err)
		fmt.Fprintln(os.Stderr, "Usage: olcd -lib <library root> [-conf olcd.yaml] [-bolt mirror.db] [-history history.db] [-metrics :9150] [-watch]")
		os.Exit(1)
	}

	if *restorePath != "" {
		log.Printf("Restoring from archive: %s", *restorePath)
		result, err := archive.Restore(archive.RestoreParams{
			ArchivePath: *restorePath,
			LibDest:     dc.LibDir,
			ConfDest:    dc.GameConfig,
			BoltDest:    dc.BoltPath,
			HistoryDest: dc.HistoryPath,
			Stdin:       os.Stdin,
			Stdout:      os.Stdout,
		})
		if err != nil {
			log.Fatalf("Restore failed: %v", err)
		}
		log.Printf("Restore complete: %d files restored", result.FilesRestored)
		for _, w := range result.Warnings {
			log.Printf("Restore warning: %s", w)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	start := time.Now()

	cfg := gameconfig.Standard()
	if err := cfg.LoadFile(dc.GameConfig); err != nil {
		log.Fatalf("Error loading game config: %v", err)
	}

	ext, err := world.ScanExternal(dc.LibDir)
	if err != nil {
		log.Fatalf("Error indexing library: %v", err)
	}
	w := world.New(world.Options{LibDir: dc.LibDir, Config: cfg, External: ext})
	if err := w.Load(ctx); err != nil {
		log.Fatalf("Error loading library: %v", err)
	}

	var hist *history.Store
	if dc.HistoryPath != "" {
		hist, err = history.Open(dc.HistoryPath, dc.HistoryTimeout)
		if err != nil {
			log.Fatalf("Error opening edit history: %v", err)
		}
		defer hist.Close()
		w.Observe(hist.Observer())
		log.Printf("Edit history: %s", dc.HistoryPath)
	}

	var mirror *boltstore.Store
	if dc.BoltPath != "" {
		mirror, err = boltstore.Open(dc.BoltPath, w.Registry.Kinds()...)
		if err != nil {
			log.Fatalf("Error opening mirror: %v", err)
		}
		defer mirror.Close()
	}

	// Snapshot before the boot audit rewrites anything.
	if dc.ArchiveDir != "" {
		counts := make(map[string]int)
		for _, t := range w.Tables() {
			counts[t.Kind().String()] = t.Len()
		}
		params := archive.Params{
			LibDir:     dc.LibDir,
			ConfigPath: dc.GameConfig,
			ArchiveDir: dc.ArchiveDir,
			MudName:    cfg.String("mud_name"),
			Reason:     "boot",
			Records:    counts,
		}
		if mirror != nil {
			params.MirrorSnapshot = mirror.Backup
		}
		if hist != nil {
			params.HistoryPath = hist.Path()
			params.HistoryCheckpoint = hist.Checkpoint
		}
		path, err := archive.Create(params)
		if err != nil {
			log.Fatalf("Error archiving library: %v", err)
		}
		log.Printf("Library archived to %s", path)
		if n, err := archive.Prune(dc.ArchiveDir, dc.ArchiveKeep); err != nil {
			log.Printf("WARNING: %v", err)
		} else if n > 0 {
			log.Printf("Pruned %d old archives", n)
		}
	}

	findings := w.BootAudit()
	log.Printf("Boot audit: %d findings", len(findings))

	if mirror != nil {
		m := boltstore.NewMirror(mirror, w.Registry)
		if err := m.SyncAll(); err != nil {
			log.Fatalf("Error syncing mirror: %v", err)
		}
		w.Observe(m)
		log.Printf("Prototype mirror: %s", dc.BoltPath)
	}

	if dc.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		met := metrics.New(w, start, reg)
		met.Audited(findings)
		w.Observe(met)
		mux := http.NewServeMux()
		mux.Handle("/metrics", met.Handler())
		srv := &http.Server{Addr: dc.MetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("WARNING: metrics server: %v", err)
			}
		}()
		defer srv.Close()
		log.Printf("Serving metrics on %s", dc.MetricsAddr)
	}

	if dc.Watch {
		if err := watch.New(w.Bus(), w.Tables()...).Run(ctx); err != nil {
			log.Printf("WARNING: Could not start library watcher: %v", err)
		}
	}

	w.OnDelete(func(kind proto.Kind, v proto.Vnum) {
		log.Printf("Deleted %s %d", kind, v)
	})

	sess := olc.NewSession(dc.Console.Player, dc.Console.Level, olc.WriterPager{W: os.Stdout})
	con := console.New(w, sess, os.Stdout)
	con.History = hist
	con.SetPrompt(dc.Console.Prompt)
	log.Printf("%s ready; %s has level %d", cfg.String("mud_name"), dc.Console.Player, dc.Console.Level)
	if err := con.Run(ctx, os.Stdin); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Console: %v", err)
	}
	log.Printf("Shutting down")
}
