package world

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/crystal-mush/empireolc/pkg/audit"
	"github.com/crystal-mush/empireolc/pkg/libfile"
	"github.com/crystal-mush/empireolc/pkg/proto"
)

// ExternalKinds are the kinds owned by other subsystems.
var ExternalKinds = []proto.Kind{
	proto.KindObject, proto.KindMobile, proto.KindVehicle, proto.KindAbility,
	proto.KindSkill, proto.KindSector, proto.KindBuilding, proto.KindTrigger,
	proto.KindQuest, proto.KindAdventure, proto.KindGeneric,
}

// LibraryIndex is an External built by scanning the other kinds' library
// directories for vnums. A kind with no directory is not checked: every
// vnum of it is taken to exist.
type LibraryIndex struct {
	vnums      map[proto.Kind]map[proto.Vnum]bool
	adventures []audit.Range
}

// ScanExternal reads root/<kind>/index for every external kind.
func ScanExternal(root string) (*LibraryIndex, error) {
	idx := &LibraryIndex{vnums: make(map[proto.Kind]map[proto.Vnum]bool)}
	for _, kind := range ExternalKinds {
		lib := libfile.New(filepath.Join(root, kind.String()), "", true)
		names, err := lib.ReadIndex()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		seen := make(map[proto.Vnum]bool)
		for _, name := range names {
			if err := idx.scanFile(kind, filepath.Join(lib.Dir, name), seen); err != nil {
				return nil, err
			}
		}
		idx.vnums[kind] = seen
		log.Printf("world: indexed %d %s vnums", len(seen), kind)
	}
	sort.Slice(idx.adventures, func(i, j int) bool {
		return idx.adventures[i].Start < idx.adventures[j].Start
	})
	return idx, nil
}

// scanFile collects "#vnum" lines. Adventures also yield their zone
// range from the line after their three strings.
func (idx *LibraryIndex) scanFile(kind proto.Kind, path string, seen map[proto.Vnum]bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("scan %s: %w", kind, err)
	}
	defer f.Close()

	strs := -1 // strings left before an adventure's range line
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r \t")
		switch {
		case strs > 0:
			if strings.HasSuffix(line, "~") {
				strs--
			}
			continue
		case strs == 0:
			strs = -1
			var start, end int
			if _, err := fmt.Sscanf(line, "%d %d", &start, &end); err == nil {
				idx.adventures = append(idx.adventures, audit.Range{Start: proto.Vnum(start), End: proto.Vnum(end)})
			}
			continue
		}
		if len(line) < 2 || line[0] != '#' {
			continue
		}
		v, err := strconv.Atoi(line[1:])
		if err != nil || v < 0 {
			continue
		}
		seen[proto.Vnum(v)] = true
		if kind == proto.KindAdventure {
			strs = 3
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", path, err)
	}
	return nil
}

func (idx *LibraryIndex) Exists(kind proto.Kind, v proto.Vnum) bool {
	seen, ok := idx.vnums[kind]
	if !ok {
		return true
	}
	return seen[v]
}

func (idx *LibraryIndex) AdventureFor(v proto.Vnum) (audit.Range, bool) {
	for _, r := range idx.adventures {
		if r.Contains(v) {
			return r, true
		}
	}
	return audit.Range{}, false
}
