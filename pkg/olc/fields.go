package olc

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/crystal-mush/empireolc/pkg/audit"
	"github.com/crystal-mush/empireolc/pkg/proto"
)

// FieldMode says where a field command is available.
type FieldMode int

const (
	FieldTop  FieldMode = iota // only at the top level
	FieldSub                   // only inside a sub-record (Cursor > 0)
	FieldBoth                  // everywhere
)

// Field is one editor command, like ".name" or ".flags".
type Field[T proto.Record] struct {
	Name  string
	Usage string
	Mode  FieldMode
	Run   func(c *Ctx, rec T, arg string) error
}

// Ctx is handed to a field command.
type Ctx struct {
	*Session
	Vnum   proto.Vnum
	lookup audit.Context
}

// Exists resolves a vnum of any kind through the world.
func (c *Ctx) Exists(kind proto.Kind, v proto.Vnum) bool {
	if c.lookup == nil {
		return false
	}
	return c.lookup.Exists(kind, v)
}

// AdventureFor returns the adventure zone containing v.
func (c *Ctx) AdventureFor(v proto.Vnum) (audit.Range, bool) {
	if c.lookup == nil {
		return audit.Range{}, false
	}
	return c.lookup.AdventureFor(v)
}

// Fields registers editor commands. Registration order is the
// tie-break for abbreviations.
func (t *Table[T]) Fields(fields ...Field[T]) {
	t.fields = append(t.fields, fields...)
}

func (f Field[T]) visible(sub bool) bool {
	switch f.Mode {
	case FieldBoth:
		return true
	case FieldSub:
		return sub
	default:
		return !sub
	}
}

func (t *Table[T]) findField(name string, sub bool) (Field[T], bool) {
	name = strings.ToLower(name)
	for _, f := range t.fields {
		if f.visible(sub) && f.Name == name {
			return f, true
		}
	}
	for _, f := range t.fields {
		if f.visible(sub) && proto.IsAbbrev(name, f.Name) {
			return f, true
		}
	}
	return Field[T]{}, false
}

func (t *Table[T]) runField(c *Ctx, st *editState, name, arg string) error {
	rec, ok := st.scratch.(T)
	if !ok {
		return fmt.Errorf("olc: scratch is %T, not a %s", st.scratch, t.Name())
	}
	f, ok := t.findField(name, c.Cursor > 0)
	if !ok {
		return ErrUnknownField
	}
	return f.Run(c, rec, strings.TrimSpace(arg))
}

func (t *Table[T]) fieldNames(sub bool) []string {
	var out []string
	for _, f := range t.fields {
		if f.visible(sub) {
			out = append(out, f.Name)
		}
	}
	return out
}

// SetString sets a required string field. A "~" would end the string
// early in the library file, so it is refused.
func SetString(c *Ctx, arg, label string, dst *string) error {
	if arg == "" {
		return Inputf("Set the %s to what?", label)
	}
	if strings.Contains(arg, "~") {
		return Inputf("The %s may not contain a tilde.", label)
	}
	*dst = arg
	c.Printf("The %s is now: %s", label, arg)
	return nil
}

// SetShortString sets a one-line string, optionally refusing spaces.
func SetShortString(c *Ctx, arg, label string, noSpaces bool, dst *string) error {
	if noSpaces && strings.ContainsAny(arg, " \t") {
		return Inputf("The %s may not contain spaces.", label)
	}
	return SetString(c, arg, label, dst)
}

// SetOptionalString sets a string that "none" clears.
func SetOptionalString(c *Ctx, arg, label string, dst *string) error {
	if strings.EqualFold(arg, "none") {
		*dst = ""
		c.Printf("The %s is removed.", label)
		return nil
	}
	return SetString(c, arg, label, dst)
}

// SetNumber sets an integer field within min..max.
func SetNumber(c *Ctx, arg, label string, min, max int, dst *int) error {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil {
		return Inputf("Set the %s to what number?", label)
	}
	if n < min || n > max {
		return Inputf("The %s must be between %d and %d.", label, min, max)
	}
	*dst = n
	c.Printf("The %s is now %d.", label, n)
	return nil
}

// SetType sets an enumerated field from a list of names.
func SetType(c *Ctx, arg, label string, names []string, dst *int) error {
	if arg == "" {
		return Inputf("Set the %s to what? Valid types: %s", label, strings.Join(names, ", "))
	}
	i := proto.FlagIndex(names, arg)
	if i < 0 {
		return Inputf("Unknown %s '%s'. Valid types: %s", label, arg, strings.Join(names, ", "))
	}
	*dst = i
	c.Printf("The %s is now %s.", label, names[i])
	return nil
}

// SetFlags applies a flag list. Removing indev requires CanClearInDev;
// a zero indev means the field has no such bit.
func SetFlags(c *Ctx, arg, label string, names []string, indev proto.Bitvector, dst *proto.Bitvector) error {
	next, err := proto.ParseFlagNames(*dst, names, arg)
	if err != nil {
		return Inputf("%s", err.Error())
	}
	if indev != 0 && dst.Has(indev) && !next.Has(indev) && !c.CanClearInDev() {
		return ErrPermission
	}
	*dst = next
	c.Printf("The %s are now: %s", label, next.Names(names))
	return nil
}

// ParseVnum reads a vnum argument. "none" gives proto.Nothing when
// allowNone is set.
func ParseVnum(arg string, allowNone bool) (proto.Vnum, error) {
	arg = strings.TrimSpace(arg)
	if allowNone && strings.EqualFold(arg, "none") {
		return proto.Nothing, nil
	}
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		return proto.Nothing, Inputf("Invalid vnum '%s'.", arg)
	}
	return proto.Vnum(n), nil
}

// SetVnumRef sets a reference to another record, which must exist.
// "none" stores none.
func SetVnumRef(c *Ctx, arg, label string, kind proto.Kind, none proto.Vnum, dst *proto.Vnum) error {
	v, err := ParseVnum(arg, true)
	if err != nil {
		return err
	}
	if v == proto.Nothing {
		*dst = none
		c.Printf("The %s is now none.", label)
		return nil
	}
	if !c.Exists(kind, v) {
		return Inputf("There is no %s %d.", kind, v)
	}
	*dst = v
	c.Printf("The %s is now %d.", label, v)
	return nil
}

// ListIndex parses a 1-based position into a list of length n.
func ListIndex(arg string, n int) (int, error) {
	i, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || i < 1 || i > n {
		return 0, Inputf("Invalid entry number '%s'.", arg)
	}
	return i - 1, nil
}

// RemoveAt returns list without its i'th element, in a new slice.
func RemoveAt[E any](list []E, i int) []E {
	return slices.Delete(slices.Clone(list), i, i+1)
}

// SplitArg splits off the first word of arg.
func SplitArg(arg string) (string, string) {
	arg = strings.TrimSpace(arg)
	if i := strings.IndexAny(arg, " \t"); i >= 0 {
		return arg[:i], strings.TrimSpace(arg[i+1:])
	}
	return arg, ""
}
