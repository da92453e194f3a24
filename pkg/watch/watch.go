// Package watch tells editing sessions when a library block file is
// changed on disk by something other than OLC.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/crystal-mush/empireolc/pkg/events"
	"github.com/crystal-mush/empireolc/pkg/libfile"
	"github.com/crystal-mush/empireolc/pkg/olc"
	"github.com/crystal-mush/empireolc/pkg/proto"
	"github.com/fsnotify/fsnotify"
)

type target struct {
	kind proto.Kind
	lib  *libfile.Library
}

// Watcher maps library directories to their kinds.
type Watcher struct {
	bus     *events.Bus
	targets map[string]target
}

// New watches the library of every table that has one.
func New(bus *events.Bus, tables ...olc.AnyTable) *Watcher {
	w := &Watcher{bus: bus, targets: make(map[string]target)}
	for _, t := range tables {
		if lib := t.Library(); lib != nil {
			w.targets[filepath.Clean(lib.Dir)] = target{kind: t.Kind(), lib: lib}
		}
	}
	return w
}

// Run watches until ctx is done. It returns once the directories are
// registered; events are handled on a background goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	for dir := range w.targets {
		if err := os.MkdirAll(dir, 0755); err != nil {
			watcher.Close()
			return fmt.Errorf("watch: %w", err)
		}
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		log.Printf("watch: watching %s", dir)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				w.handle(event.Name)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("watch: %v", err)
			}
		}
	}()
	return nil
}

// handle broadcasts a notice when path is a block file whose content
// differs from the last load or save.
func (w *Watcher) handle(path string) {
	t, ok := w.targets[filepath.Dir(filepath.Clean(path))]
	if !ok {
		return
	}
	name := filepath.Base(path)
	zone, ok := t.lib.ZoneOf(name)
	if !ok {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if !t.lib.Changed(zone, data) {
		return
	}
	t.lib.Forget(zone)
	log.Printf("watch: %s library file %s changed on disk", t.kind, name)
	w.bus.Broadcast(events.Event{
		Type: events.EvFileChanged,
		Kind: t.kind,
		Vnum: proto.Vnum(zone * 100),
		Path: path,
		Text: fmt.Sprintf("The %s file %s was changed on disk. Saving any %s in %d-%d will overwrite it.",
			t.kind, name, t.kind, zone*100, zone*100+99),
	})
}
