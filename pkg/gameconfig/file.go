package gameconfig

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/crystal-mush/empireolc/pkg/libfile"
)

// LoadFile reads a config file and remembers it as the save target.
// The format follows the extension:
//   - .yaml / .yml  -> YAML, grouped by config group
//   - anything else -> the legacy "key value" text format
//
// A missing file is not an error; the game boots with defaults.
func (c *Config) LoadFile(path string) error {
	c.mu.Lock()
	c.path = path
	c.mu.Unlock()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("gameconfig: unable to read %s, booting with defaults", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if isYAML(path) {
		return c.ImportYAML(bytes.NewReader(data))
	}
	return c.Read(bytes.NewReader(data))
}

// Save writes the config back to the file it was loaded from.
func (c *Config) Save() error {
	path := c.Path()
	if path == "" {
		return nil
	}
	return c.SaveFile(path)
}

// SaveFile writes the config to path through a temp file and rename.
func (c *Config) SaveFile(path string) error {
	var buf bytes.Buffer
	var err error
	if isYAML(path) {
		err = c.ExportYAML(&buf)
	} else {
		err = c.Write(&buf)
	}
	if err != nil {
		return err
	}
	return libfile.WriteFileAtomic(path, buf.Bytes())
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Read parses the legacy text format: "*" comment lines, "key value"
// data lines, and "$~" at the end. Unknown keys are logged and skipped.
func (c *Config) Read(r io.Reader) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	scanner := bufio.NewScanner(r)
	ended := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '*' {
			continue
		}
		if line[0] == '$' {
			ended = true
			break
		}
		key, arg := splitKeyVal(line)
		e, ok := c.entries[key]
		if !ok {
			log.Printf("gameconfig: unknown config key: %s", key)
			continue
		}
		if err := e.parse(arg); err != nil {
			log.Printf("gameconfig: %s: %v", key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	if !ended {
		log.Printf("gameconfig: format error: config file has no $~ terminator")
	}
	return nil
}

// parse stores a value as written in the text file.
func (e *Entry) parse(arg string) error {
	switch e.Type {
	case TypeBitvector:
		e.Value.Bitvector = libfile.AlphaToFlags(arg)
	case TypeBool:
		n, _ := strconv.Atoi(arg)
		e.Value.Bool = n > 0 || strings.EqualFold(arg, "yes") || strings.EqualFold(arg, "true") || strings.EqualFold(arg, "on")
	case TypeDouble:
		f, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("bad double %q", arg)
		}
		e.Value.Double = f
	case TypeInt:
		n, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("bad int %q", arg)
		}
		e.Value.Int = n
	case TypeIntArray:
		return e.parseIntArray(arg)
	case TypeString:
		e.Value.String = arg
	default:
		return fmt.Errorf("unloadable config type %d", e.Type)
	}
	return nil
}

// parseIntArray reads "size v v v". Missing trailing values are zero.
func (e *Entry) parseIntArray(arg string) error {
	f := strings.Fields(arg)
	if len(f) == 0 {
		e.Value.IntArray = nil
		return fmt.Errorf("missing size")
	}
	size, err := strconv.Atoi(f[0])
	if err != nil {
		return fmt.Errorf("bad array size %q", f[0])
	}
	if size <= 0 {
		e.Value.IntArray = nil
		return nil
	}
	arr := make([]int, size)
	for i := 0; i < size && i+1 < len(f); i++ {
		arr[i], _ = strconv.Atoi(f[i+1])
	}
	e.Value.IntArray = arr
	return nil
}

// Write renders the legacy text format with a header per group.
func (c *Config) Write(w io.Writer) error {
	c.mu.RLock()
	entries := c.sortedLocked()
	c.mu.RUnlock()

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "* EmpireMUD Game Configs\n")
	fmt.Fprintf(bw, "* Keys are defined in code; unknown keys are skipped on load\n")
	last := Group(-1)
	for _, e := range entries {
		if e.Group != last {
			fmt.Fprintf(bw, "*\n* %s configs\n", e.Group)
			last = e.Group
		}
		fmt.Fprintf(bw, "%s %s\n", e.Key, e.format())
	}
	fmt.Fprintf(bw, "$~\n")
	return bw.Flush()
}

// format renders a value as written in the text file.
func (e Entry) format() string {
	switch e.Type {
	case TypeBitvector:
		return libfile.FlagsToAlpha(e.Value.Bitvector)
	case TypeBool:
		if e.Value.Bool {
			return "1"
		}
		return "0"
	case TypeDouble:
		return strconv.FormatFloat(e.Value.Double, 'f', 6, 64)
	case TypeInt:
		return strconv.Itoa(e.Value.Int)
	case TypeIntArray:
		var sb strings.Builder
		sb.WriteString(strconv.Itoa(len(e.Value.IntArray)))
		for _, n := range e.Value.IntArray {
			sb.WriteByte(' ')
			sb.WriteString(strconv.Itoa(n))
		}
		return sb.String()
	default:
		return e.Value.String
	}
}

// splitKeyVal splits a line on its first run of whitespace.
func splitKeyVal(line string) (string, string) {
	idx := strings.IndexAny(line, " \t")
	if idx < 0 {
		return line, ""
	}
	return line[:idx], strings.TrimSpace(line[idx+1:])
}
