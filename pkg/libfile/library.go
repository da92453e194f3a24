package libfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// IndexFile is the name of the per-directory block index.
const IndexFile = "index"

// Library is one record kind's directory of block files.
type Library struct {
	Dir    string
	Suffix string
	// AllowEmpty permits booting with no index and no records.
	AllowEmpty bool

	mu      sync.Mutex
	zones   map[int]bool
	digests map[int]uint64
}

// New creates a Library rooted at dir whose block files end in suffix.
func New(dir, suffix string, allowEmpty bool) *Library {
	return &Library{
		Dir:        dir,
		Suffix:     suffix,
		AllowEmpty: allowEmpty,
		zones:      make(map[int]bool),
		digests:    make(map[int]uint64),
	}
}

// BlockName returns the file name for a 100-vnum block.
func (l *Library) BlockName(zone int) string {
	return strconv.Itoa(zone) + l.Suffix
}

// BlockPath returns the full path for a 100-vnum block.
func (l *Library) BlockPath(zone int) string {
	return filepath.Join(l.Dir, l.BlockName(zone))
}

// IndexPath returns the full path of the index file.
func (l *Library) IndexPath() string {
	return filepath.Join(l.Dir, IndexFile)
}

// ReadIndex lists the block files named by the index.
func (l *Library) ReadIndex() ([]string, error) {
	f, err := os.Open(l.IndexPath())
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var names []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line[0] == '$' {
			return names, nil
		}
		names = append(names, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return nil, &ParseError{File: l.IndexPath(), Line: len(names) + 1, Vnum: -1, Msg: "index not terminated with $"}
}

// Load parses every block file listed in the index, handing each to fn.
// It returns the number of files read.
func (l *Library) Load(fn func(r *Reader) error) (int, error) {
	names, err := l.ReadIndex()
	if errors.Is(err, fs.ErrNotExist) {
		if l.AllowEmpty {
			return 0, nil
		}
		return 0, fmt.Errorf("%s: no index and this kind may not be empty: %w", l.Dir, ErrFormat)
	}
	if err != nil {
		return 0, fmt.Errorf("read index %s: %w", l.IndexPath(), err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for _, name := range names {
		path := filepath.Join(l.Dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, fmt.Errorf("open %s: %w", path, err)
		}
		if err := fn(NewReader(bytes.NewReader(data), path)); err != nil {
			return 0, err
		}
		if zone, ok := l.zoneOf(name); ok {
			l.zones[zone] = true
			l.digests[zone] = xxhash.Sum64(data)
		}
	}
	return len(names), nil
}

// ZoneOf returns the block number of a block file name.
func (l *Library) ZoneOf(name string) (int, bool) {
	return l.zoneOf(name)
}

// Changed reports whether data differs from what was last loaded or
// saved for zone.
func (l *Library) Changed(zone int, data []byte) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	d, ok := l.digests[zone]
	return !ok || d != xxhash.Sum64(data)
}

func (l *Library) zoneOf(name string) (int, bool) {
	if !strings.HasSuffix(name, l.Suffix) {
		return 0, false
	}
	zone, err := strconv.Atoi(strings.TrimSuffix(name, l.Suffix))
	return zone, err == nil
}

// SaveBlock rewrites one block file. When empty is true the block has no
// records left and its file is removed. The index is rewritten whenever
// the set of populated blocks changes. Unchanged content is not rewritten.
func (l *Library) SaveBlock(zone int, empty bool, write func(w *Writer)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(l.Dir, 0755); err != nil {
		return fmt.Errorf("create %s: %w", l.Dir, err)
	}

	if empty {
		delete(l.digests, zone)
		if err := os.Remove(l.BlockPath(zone)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", l.BlockPath(zone), err)
		}
		if l.zones[zone] {
			delete(l.zones, zone)
			return l.writeIndexLocked()
		}
		return nil
	}

	var buf bytes.Buffer
	wr := NewWriter(&buf)
	write(wr)
	wr.EndFile()
	if err := wr.Err(); err != nil {
		return fmt.Errorf("render %s: %w", l.BlockName(zone), err)
	}

	sum := xxhash.Sum64(buf.Bytes())
	if d, ok := l.digests[zone]; !ok || d != sum {
		if err := WriteFileAtomic(l.BlockPath(zone), buf.Bytes()); err != nil {
			return err
		}
		l.digests[zone] = sum
	}

	if !l.zones[zone] {
		l.zones[zone] = true
		return l.writeIndexLocked()
	}
	return nil
}

// WriteIndex rewrites the index from the currently known blocks.
func (l *Library) WriteIndex() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writeIndexLocked()
}

func (l *Library) writeIndexLocked() error {
	zones := make([]int, 0, len(l.zones))
	for z := range l.zones {
		zones = append(zones, z)
	}
	slices.Sort(zones)

	var buf bytes.Buffer
	for _, z := range zones {
		fmt.Fprintf(&buf, "%s\n", l.BlockName(z))
	}
	buf.WriteString("$\n")
	if err := WriteFileAtomic(l.IndexPath(), buf.Bytes()); err != nil {
		return err
	}
	log.Printf("libfile: wrote index %s (%d blocks)", l.IndexPath(), len(zones))
	return nil
}

// Zones returns the populated block numbers in ascending order.
func (l *Library) Zones() []int {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]int, 0, len(l.zones))
	for z := range l.zones {
		out = append(out, z)
	}
	slices.Sort(out)
	return out
}

// Forget drops the cached digest for a block so the next save rewrites it,
// e.g. after the file was edited by hand.
func (l *Library) Forget(zone int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.digests, zone)
}

// WriteFileAtomic writes data to path+".tmp" and renames it over path, so
// a failed write never leaves a truncated file behind.
func WriteFileAtomic(path string, data []byte) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", tmpPath, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		// On Windows, may need to remove target first
		os.Remove(path)
		if err := os.Rename(tmpPath, path); err != nil {
			return fmt.Errorf("rename temp to final: %w", err)
		}
	}
	return nil
}
