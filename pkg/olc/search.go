package olc

import (
	"iter"
	"strconv"
	"strings"

	"github.com/crystal-mush/empireolc/pkg/proto"
)

// Search yields records whose keywords match every word of query, in
// vnum order. It is lazy and may be ranged over again.
func (t *Table[T]) Search(query string) iter.Seq[T] {
	return func(yield func(T) bool) {
		for rec := range t.store.All() {
			if !proto.MultiIsName(query, t.schema.Keywords(rec)...) {
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
}

// SearchLines renders Search results.
func (t *Table[T]) SearchLines(query string) []string {
	var out []string
	for rec := range t.Search(query) {
		out = append(out, t.schema.ListLine(rec, false))
	}
	return out
}

// FullSearchOpts are the filters of "olc <kind> fullsearch". Zero values
// do not filter; VMax < 0 means no upper bound.
type FullSearchOpts struct {
	VMin, VMax proto.Vnum
	Flagged    []string
	NotFlagged []string
	Keywords   string
}

// ParseFullSearch reads "vmin <n> vmax <n> flagged <f> unflagged <f>
// keywords...". Anything not a known option is taken as keywords.
func ParseFullSearch(arg string) (FullSearchOpts, error) {
	opts := FullSearchOpts{VMax: proto.Nothing}
	words := strings.Fields(arg)
	var kw []string
	for i := 0; i < len(words); i++ {
		w := strings.ToLower(words[i])
		needsArg := w == "vmin" || w == "vmax" || w == "flagged" || w == "unflagged"
		if !needsArg {
			kw = append(kw, words[i])
			continue
		}
		if i+1 >= len(words) {
			return opts, Inputf("Option '%s' needs a value.", w)
		}
		i++
		val := words[i]
		switch w {
		case "vmin", "vmax":
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 {
				return opts, Inputf("Invalid %s '%s'.", w, val)
			}
			if w == "vmin" {
				opts.VMin = proto.Vnum(n)
			} else {
				opts.VMax = proto.Vnum(n)
			}
		case "flagged":
			opts.Flagged = append(opts.Flagged, val)
		case "unflagged":
			opts.NotFlagged = append(opts.NotFlagged, val)
		}
	}
	opts.Keywords = strings.Join(kw, " ")
	return opts, nil
}

func (t *Table[T]) flagMask(names []string) (proto.Bitvector, error) {
	var mask proto.Bitvector
	for _, n := range names {
		i := proto.FlagIndex(t.schema.FlagNames(), n)
		if i < 0 {
			return 0, Inputf("Unknown %s flag '%s'.", t.Name(), n)
		}
		mask = mask.Set(proto.Bit(i))
	}
	return mask, nil
}

// FullSearch yields records matching every filter in opts.
func (t *Table[T]) FullSearch(opts FullSearchOpts) (iter.Seq[T], error) {
	with, err := t.flagMask(opts.Flagged)
	if err != nil {
		return nil, err
	}
	without, err := t.flagMask(opts.NotFlagged)
	if err != nil {
		return nil, err
	}
	return func(yield func(T) bool) {
		for rec := range t.store.All() {
			v := rec.Vnum()
			if v < opts.VMin || (opts.VMax >= 0 && v > opts.VMax) {
				continue
			}
			flags := t.schema.Flags(rec)
			if with != 0 && flags&with != with {
				continue
			}
			if flags&without != 0 {
				continue
			}
			if opts.Keywords != "" && !proto.MultiIsName(opts.Keywords, t.schema.Keywords(rec)...) {
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}, nil
}

// FullSearchLines renders FullSearch results.
func (t *Table[T]) FullSearchLines(opts FullSearchOpts) ([]string, error) {
	seq, err := t.FullSearch(opts)
	if err != nil {
		return nil, err
	}
	var out []string
	for rec := range seq {
		out = append(out, t.schema.ListLine(rec, false))
	}
	return out, nil
}
