package gameconfig

import (
	"fmt"
	"log"
	"slices"
	"strconv"
	"strings"

	"github.com/crystal-mush/empireolc/pkg/libfile"
	"github.com/crystal-mush/empireolc/pkg/proto"
)

// InputError is a problem with what the user typed.
type InputError struct{ Msg string }

func (e *InputError) Error() string { return e.Msg }

func inputf(format string, args ...interface{}) error {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// Set edits key from a command argument and saves the file when the
// value changed. It returns the message to show the user.
func (c *Config) Set(key, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		c.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	old := e.clone()
	msg, err := e.edit(arg)
	changed := err == nil && old.format() != e.format()
	c.mu.Unlock()
	if err != nil {
		return "", err
	}
	if !changed {
		return msg, nil
	}
	log.Printf("gameconfig: %s changed from %s to %s", key, old.format(), e.format())
	if err := c.Save(); err != nil {
		return msg, err
	}
	return msg, nil
}

func (e *Entry) edit(arg string) (string, error) {
	switch e.Type {
	case TypeBool:
		var v bool
		switch strings.ToLower(arg) {
		case "yes", "true", "on":
			v = true
		case "no", "false", "off":
		default:
			return "", inputf("Invalid argument '%s', expecting true/false.", arg)
		}
		old := e.Value.Bool
		e.Value.Bool = v
		return fmt.Sprintf("%s: set to %t, from %t.", e.Key, v, old), nil
	case TypeInt:
		n, err := strconv.Atoi(arg)
		if err != nil {
			return "", inputf("Invalid argument '%s', expecting a number.", arg)
		}
		old := e.Value.Int
		e.Value.Int = n
		return fmt.Sprintf("%s: set to %d, from %d.", e.Key, n, old), nil
	case TypeDouble:
		f, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return "", inputf("Invalid argument '%s', expecting a number.", arg)
		}
		old := e.Value.Double
		e.Value.Double = f
		return fmt.Sprintf("%s: set to %.2f, from %.2f.", e.Key, f, old), nil
	case TypeString:
		if arg == "" {
			return "", inputf("Set %s to what?", e.Key)
		}
		if len(arg) > MaxString {
			return "", inputf("%s may not be longer than %d characters.", e.Key, MaxString)
		}
		old := e.Value.String
		e.Value.String = arg
		return fmt.Sprintf("%s: set to '%s', from '%s'.", e.Key, arg, old), nil
	case TypeBitvector:
		if len(e.Names) == 0 {
			return "", inputf("%s cannot be edited here.", e.Key)
		}
		next, err := proto.ParseFlagNames(e.Value.Bitvector, e.Names, arg)
		if err != nil {
			return "", inputf("%s: %v", e.Key, err)
		}
		e.Value.Bitvector = next
		return fmt.Sprintf("%s: now %s.", e.Key, next.Names(e.Names)), nil
	case TypeIntArray:
		return e.editArray(arg)
	}
	return "", inputf("%s cannot be edited.", e.Key)
}

// editArray handles "add <value>" and "remove <value>". With Names, a
// value is a name or its 1-based number, and a bare value toggles.
func (e *Entry) editArray(arg string) (string, error) {
	cmd, rest := splitKeyVal(arg)
	op := ""
	switch {
	case cmd != "" && proto.IsAbbrev(cmd, "add"):
		op = "add"
	case cmd != "" && proto.IsAbbrev(cmd, "remove"):
		op = "remove"
	default:
		rest = arg
	}
	if op == "" && len(e.Names) == 0 {
		return "", inputf("Usage: config %s <add | remove> <number>", e.Key)
	}
	n, label, err := e.arrayValue(rest)
	if err != nil {
		return "", err
	}
	has := slices.Contains(e.Value.IntArray, n)
	if op == "" {
		op = "add"
		if has {
			op = "remove"
		}
	}
	switch op {
	case "add":
		if !has {
			e.Value.IntArray = append(slices.Clone(e.Value.IntArray), n)
			slices.Sort(e.Value.IntArray)
		}
		return fmt.Sprintf("%s: added %s.", e.Key, label), nil
	default:
		if !has {
			return "", inputf("%s does not contain %s.", e.Key, label)
		}
		e.Value.IntArray = slices.DeleteFunc(slices.Clone(e.Value.IntArray), func(v int) bool { return v == n })
		return fmt.Sprintf("%s: removed %s.", e.Key, label), nil
	}
}

func (e *Entry) arrayValue(arg string) (int, string, error) {
	if arg == "" {
		return 0, "", inputf("Which value?")
	}
	if len(e.Names) == 0 {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return 0, "", inputf("Invalid number '%s'.", arg)
		}
		return n, arg, nil
	}
	i := -1
	if n, err := strconv.Atoi(arg); err == nil {
		if n >= 1 && n <= len(e.Names) {
			i = n - 1
		}
	} else {
		i = proto.FlagIndex(e.Names, arg)
	}
	if i < 0 {
		return 0, "", inputf("Unknown option '%s'.", arg)
	}
	return i, e.Names[i], nil
}

// Display renders an entry's value for the config command.
func (e Entry) Display() string {
	switch e.Type {
	case TypeBool:
		if e.Value.Bool {
			return "true"
		}
		return "false"
	case TypeDouble:
		return strconv.FormatFloat(e.Value.Double, 'f', 2, 64)
	case TypeBitvector:
		if len(e.Names) > 0 {
			return e.Value.Bitvector.Names(e.Names)
		}
		return libfile.FlagsToAlpha(e.Value.Bitvector)
	case TypeIntArray:
		if len(e.Value.IntArray) == 0 {
			return "none"
		}
		parts := make([]string, len(e.Value.IntArray))
		for i, n := range e.Value.IntArray {
			if len(e.Names) > 0 && n >= 0 && n < len(e.Names) {
				parts[i] = e.Names[n]
			} else {
				parts[i] = strconv.Itoa(n)
			}
		}
		return strings.Join(parts, ", ")
	case TypeString:
		return e.Value.String
	}
	return e.format()
}

// Show renders a group listing or one entry in detail, for the config
// command with no value.
func (c *Config) Show(arg string) (string, error) {
	if e, ok := c.Lookup(arg); ok {
		return fmt.Sprintf("%s (%s, %s group): %s\n  %s\n", e.Key, e.Type, e.Group, e.Display(), e.Description), nil
	}
	g, ok := FindGroup(arg)
	if !ok {
		return "", inputf("Unknown config group or key '%s'. Groups: %s", arg, strings.Join(GroupNames, ", "))
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s configs:\n", g)
	entries := c.InGroup(g)
	if len(entries) == 0 {
		sb.WriteString(" none\n")
	}
	for _, e := range entries {
		fmt.Fprintf(&sb, " %-32s %s\n", e.Key, e.Display())
	}
	return sb.String(), nil
}
