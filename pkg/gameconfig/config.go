// Package gameconfig holds the game's global settings: typed entries
// keyed by a one-word name and sorted into groups for display.
package gameconfig

import (
	"errors"
	"log"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/crystal-mush/empireolc/pkg/proto"
)

// Type is the data type of an entry.
type Type int

const (
	TypeBitvector Type = iota + 1
	TypeBool
	TypeDouble
	TypeInt
	TypeIntArray
	TypeString
)

var typeNames = map[Type]string{
	TypeBitvector: "bitvector",
	TypeBool:      "bool",
	TypeDouble:    "double",
	TypeInt:       "int",
	TypeIntArray:  "int array",
	TypeString:    "string",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "unknown"
}

// Group is a display grouping for the config command.
type Group int

const (
	GroupGame Group = iota
	GroupActions
	GroupCity
	GroupEmpire
	GroupItems
	GroupMobs
	GroupOther
	GroupPlayers
	GroupSkills
	GroupSystem
	GroupTrade
	GroupWar
	GroupWorld
	GroupApproval
)

var GroupNames = []string{
	"Game", "Actions", "City", "Empire", "Items", "Mobs", "Other",
	"Players", "Skills", "System", "Trade", "War", "World", "Approval",
}

func (g Group) String() string {
	if g >= 0 && int(g) < len(GroupNames) {
		return GroupNames[g]
	}
	return "Unknown"
}

// FindGroup looks a group up by name or abbreviation.
func FindGroup(name string) (Group, bool) {
	i := proto.FlagIndex(GroupNames, name)
	return Group(i), i >= 0
}

// MaxString is the longest string value an entry may hold.
const MaxString = 128

var ErrUnknownKey = errors.New("unknown config key")

// Value holds an entry's data; only the field matching the entry's Type
// is meaningful.
type Value struct {
	Bitvector proto.Bitvector
	Bool      bool
	Double    float64
	Int       int
	IntArray  []int
	String    string
}

// Entry is one config setting.
type Entry struct {
	Group       Group
	Key         string
	Type        Type
	Description string
	// Names labels bitvector bits or int array members, when set.
	Names []string
	Value Value
}

func (e Entry) clone() Entry {
	e.Value.IntArray = slices.Clone(e.Value.IntArray)
	return e
}

// Config is the set of defined entries. It is safe for concurrent use.
type Config struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	path    string
}

// New returns an empty config with no backing file.
func New() *Config {
	return &Config{entries: make(map[string]*Entry)}
}

// Define registers key. Defining a key again replaces its group, type
// and description and clears its value.
func (c *Config) Define(g Group, key string, t Type, desc string) {
	if key == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &Entry{Group: g, Key: key, Type: t, Description: desc}
}

// SetNames attaches display names to a bitvector or int array entry.
func (c *Config) SetNames(key string, names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.Names = names
	} else {
		log.Printf("gameconfig: SetNames: no key %s", key)
	}
}

// Path is the file Set saves to; empty when nothing is saved.
func (c *Config) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.path
}

// Lookup returns a copy of the entry for key.
func (c *Config) Lookup(key string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

// Entries returns every entry sorted by group, then key.
func (c *Config) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sortedLocked()
}

func (c *Config) sortedLocked() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		return strings.ToLower(out[i].Key) < strings.ToLower(out[j].Key)
	})
	return out
}

// InGroup returns the entries of one group, sorted by key.
func (c *Config) InGroup(g Group) []Entry {
	var out []Entry
	for _, e := range c.Entries() {
		if e.Group == g {
			out = append(out, e)
		}
	}
	return out
}

// get finds key and checks its type, logging misuse the way a caller
// would want to see it in the syslog.
func (c *Config) get(key string, t Type) (*Entry, bool) {
	e, ok := c.entries[key]
	if !ok {
		log.Printf("gameconfig: %s lookup with invalid key '%s'", t, key)
		return nil, false
	}
	if e.Type != t {
		log.Printf("gameconfig: %s lookup with %s key '%s'", t, e.Type, key)
		return nil, false
	}
	return e, true
}

func (c *Config) Int(key string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.get(key, TypeInt); ok {
		return e.Value.Int
	}
	return 0
}

func (c *Config) Bool(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.get(key, TypeBool); ok {
		return e.Value.Bool
	}
	return false
}

func (c *Config) Double(key string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.get(key, TypeDouble); ok {
		return e.Value.Double
	}
	return 0
}

func (c *Config) String(key string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.get(key, TypeString); ok {
		return e.Value.String
	}
	return ""
}

// IntArray returns a copy of the array stored at key.
func (c *Config) IntArray(key string) []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.get(key, TypeIntArray); ok {
		return slices.Clone(e.Value.IntArray)
	}
	return nil
}

func (c *Config) Bitvector(key string) proto.Bitvector {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.get(key, TypeBitvector); ok {
		return e.Value.Bitvector
	}
	return 0
}

// IntOr returns the int at key, or fallback when key is not a defined
// int. Nothing is logged.
func (c *Config) IntOr(key string, fallback int) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.entries[key]; ok && e.Type == TypeInt {
		return e.Value.Int
	}
	return fallback
}
