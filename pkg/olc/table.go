package olc

import (
	"fmt"
	"iter"
	"log"
	"strings"
	"sync"

	"github.com/crystal-mush/empireolc/pkg/audit"
	"github.com/crystal-mush/empireolc/pkg/libfile"
	"github.com/crystal-mush/empireolc/pkg/proto"
)

// Table ties one kind's store, schema, library and editor fields together.
type Table[T proto.Record] struct {
	schema Schema[T]
	store  *proto.Store[T]
	lib    *libfile.Library

	mu       sync.Mutex
	revs     map[proto.Vnum]uint64
	fields   []Field[T]
	onCommit []func(rec T)
}

// NewTable creates an empty table. lib may be nil for in-memory tables.
func NewTable[T proto.Record](schema Schema[T], lib *libfile.Library) *Table[T] {
	return &Table[T]{
		schema: schema,
		lib:    lib,
		store: proto.NewStore(proto.Options[T]{
			Kind: schema.Kind(),
			Less: schema.Less,
			Name: schema.Name,
		}),
		revs: make(map[proto.Vnum]uint64),
	}
}

func (t *Table[T]) Kind() proto.Kind          { return t.schema.Kind() }
func (t *Table[T]) Name() string              { return t.schema.Kind().String() }
func (t *Table[T]) Schema() Schema[T]         { return t.schema }
func (t *Table[T]) Store() *proto.Store[T]    { return t.store }
func (t *Table[T]) Library() *libfile.Library { return t.lib }
func (t *Table[T]) Len() int                  { return t.store.Len() }
func (t *Table[T]) Vnums() []proto.Vnum       { return t.store.Vnums() }
func (t *Table[T]) Exists(v proto.Vnum) bool  { return t.store.Exists(v) }

// Lookup returns the stored prototype at v.
func (t *Table[T]) Lookup(v proto.Vnum) (T, bool) {
	return t.store.Lookup(v)
}

// Get is Lookup for callers that do not know T.
func (t *Table[T]) Get(v proto.Vnum) (proto.Record, bool) {
	rec, ok := t.store.Lookup(v)
	if !ok {
		return nil, false
	}
	return rec, true
}

// OnCommit registers a hook run after a record is committed and saved.
func (t *Table[T]) OnCommit(fn func(rec T)) {
	t.onCommit = append(t.onCommit, fn)
}

// Load parses every block file in the library into the store.
func (t *Table[T]) Load() (int, error) {
	if t.lib == nil {
		return 0, nil
	}
	files, err := t.lib.Load(t.Parse)
	if err != nil {
		return 0, fmt.Errorf("load %s: %w", t.Name(), err)
	}
	if p, ok := any(t.schema).(Protected); ok && t.store.Len() < p.MinRecords() {
		return files, fmt.Errorf("load %s: need at least %d records, have %d: %w",
			t.Name(), p.MinRecords(), t.store.Len(), libfile.ErrFormat)
	}
	log.Printf("olc: loaded %d %s records from %d files", t.store.Len(), t.Name(), files)
	return files, nil
}

// Parse reads every record in one file. A duplicate vnum keeps the first.
func (t *Table[T]) Parse(r *libfile.Reader) error {
	return r.Records(func(v proto.Vnum) error {
		rec, err := t.schema.Read(r, v)
		if err != nil {
			return err
		}
		rec.SetVnum(v)
		t.store.Insert(rec)
		return nil
	})
}

// Add inserts rec without saving; used when building tables in memory.
func (t *Table[T]) Add(rec T) bool {
	return t.store.Insert(rec)
}

// WriteBlock writes every record in zone, in vnum order.
func (t *Table[T]) WriteBlock(w *libfile.Writer, zone int) int {
	n := 0
	for rec := range t.store.All() {
		if rec.Vnum().Zone() != zone {
			continue
		}
		w.Vnum(rec.Vnum())
		t.schema.Write(w, rec)
		n++
	}
	return n
}

// RecordText renders v exactly as it appears in its block file.
func (t *Table[T]) RecordText(v proto.Vnum) (string, bool) {
	rec, ok := t.store.Lookup(v)
	if !ok {
		return "", false
	}
	var sb strings.Builder
	w := libfile.NewWriter(&sb)
	w.Vnum(v)
	t.schema.Write(w, rec)
	return sb.String(), true
}

// Save rewrites the block file holding v, and the index if needed.
func (t *Table[T]) Save(v proto.Vnum) error {
	if t.lib == nil {
		return nil
	}
	zone := v.Zone()
	empty := true
	for _, vn := range t.store.Vnums() {
		if vn.Zone() == zone {
			empty = false
			break
		}
	}
	err := t.lib.SaveBlock(zone, empty, func(w *libfile.Writer) {
		t.WriteBlock(w, zone)
	})
	if err != nil {
		return fmt.Errorf("save %s %d: %w", t.Name(), v, err)
	}
	return nil
}

// SaveAll rewrites every populated block and the index.
func (t *Table[T]) SaveAll() error {
	if t.lib == nil {
		return nil
	}
	zones := make(map[int]bool)
	for _, v := range t.store.Vnums() {
		zones[v.Zone()] = true
	}
	for _, z := range t.lib.Zones() {
		zones[z] = true
	}
	for z := range zones {
		if err := t.Save(proto.Vnum(z * 100)); err != nil {
			return err
		}
	}
	return t.lib.WriteIndex()
}

// Revision is the number of commits and deletes seen at v.
func (t *Table[T]) Revision(v proto.Vnum) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.revs[v]
}

func (t *Table[T]) bump(v proto.Vnum) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.revs[v]++
}

// NextVnum returns the first free vnum after the highest in use.
func (t *Table[T]) NextVnum() proto.Vnum {
	vnums := t.store.Vnums()
	if len(vnums) == 0 {
		return 0
	}
	return vnums[len(vnums)-1] + 1
}

// SetInDevelopment flags the stored record at v; it does not save.
func (t *Table[T]) SetInDevelopment(v proto.Vnum) bool {
	rec, ok := t.store.Lookup(v)
	if !ok {
		return false
	}
	t.schema.SetInDevelopment(rec)
	return true
}

// ListLine renders the one-line listing for v.
func (t *Table[T]) ListLine(v proto.Vnum, detail bool) (string, bool) {
	rec, ok := t.store.Lookup(v)
	if !ok {
		return "", false
	}
	return t.schema.ListLine(rec, detail), true
}

// List renders every record in display order.
func (t *Table[T]) List(detail bool) []string {
	var out []string
	for _, rec := range t.store.Sorted() {
		out = append(out, t.schema.ListLine(rec, detail))
	}
	return out
}

// Check runs the schema's audit over every stored record.
func (t *Table[T]) Check(ctx audit.Context) []audit.Finding {
	var out []audit.Finding
	var all []T
	for rec := range t.store.All() {
		out = append(out, t.schema.Audit(rec, ctx)...)
		all = append(all, rec)
	}
	if sa, ok := any(t.schema).(SetAuditor[T]); ok {
		out = append(out, sa.AuditSet(all, ctx)...)
	}
	return out
}

// CheckRange is Check limited to vmin..vmax.
func (t *Table[T]) CheckRange(ctx audit.Context, vmin, vmax proto.Vnum) []audit.Finding {
	var out []audit.Finding
	for _, f := range t.Check(ctx) {
		if f.Vnum >= vmin && f.Vnum <= vmax {
			out = append(out, f)
		}
	}
	return out
}

// start builds the scratch record for an edit session.
func (t *Table[T]) start(v, from proto.Vnum) (*editState, error) {
	st := &editState{kind: t.Kind(), vnum: v, revision: t.Revision(v)}
	if from >= 0 {
		src, ok := t.store.Lookup(from)
		if !ok {
			return nil, Inputf("There is no %s %d to copy.", t.Name(), from)
		}
		if t.store.Exists(v) {
			return nil, ErrExists
		}
		rec := t.schema.Copy(src)
		rec.SetVnum(v)
		t.schema.SetInDevelopment(rec)
		st.scratch, st.isNew = rec, true
		return st, nil
	}
	if rec, ok := t.store.Lookup(v); ok {
		st.scratch = t.schema.Copy(rec)
		return st, nil
	}
	st.scratch, st.isNew = t.schema.New(v), true
	return st, nil
}

// commit copies the scratch into the store and saves it. stale reports
// that the record changed after the session started editing.
func (t *Table[T]) commit(st *editState) (rec T, stale bool, err error) {
	scratch, ok := st.scratch.(T)
	if !ok {
		return rec, false, fmt.Errorf("olc: scratch is %T, not a %s", st.scratch, t.Name())
	}
	stale = t.Revision(st.vnum) != st.revision

	t.schema.Sanitize(scratch)
	rec, ok = t.store.Lookup(st.vnum)
	if !ok {
		rec = t.schema.New(st.vnum)
		t.store.Insert(rec)
	}
	t.schema.Assign(rec, scratch)
	rec.SetVnum(st.vnum)
	t.store.Resort()

	if err := t.Save(st.vnum); err != nil {
		return rec, stale, err
	}
	t.bump(st.vnum)
	for _, fn := range t.onCommit {
		fn(rec)
	}
	return rec, stale, nil
}

// remove unlinks v and saves its block.
func (t *Table[T]) remove(v proto.Vnum) (proto.Record, error) {
	if !t.store.Exists(v) {
		return nil, ErrNotFound
	}
	if p, ok := any(t.schema).(Protected); ok && t.store.Len() <= p.MinRecords() {
		return nil, ErrLastRecord
	}
	rec, _ := t.store.Delete(v)
	t.bump(v)
	if err := t.Save(v); err != nil {
		return rec, err
	}
	return rec, nil
}

func (t *Table[T]) flagScratch(scratch any) {
	if rec, ok := scratch.(T); ok {
		t.schema.SetInDevelopment(rec)
	}
}

func (t *Table[T]) display(sess *Session, st *editState) string {
	rec, ok := st.scratch.(T)
	if !ok {
		return ""
	}
	var sb strings.Builder
	name := "new " + t.Name()
	if cur, ok := t.store.Lookup(st.vnum); ok {
		name = t.schema.Name(cur)
	}
	fmt.Fprintf(&sb, "[%d] %s\n", st.vnum, name)
	sb.WriteString(t.schema.Show(rec, sess))
	return sb.String()
}

// Records yields every stored record in vnum order.
func (t *Table[T]) Records() iter.Seq[T] {
	return t.store.All()
}

// AnyTable is the kind-erased view of a Table used by the Registry.
type AnyTable interface {
	audit.Checker
	Kind() proto.Kind
	Library() *libfile.Library
	Load() (int, error)
	Parse(r *libfile.Reader) error
	RecordText(v proto.Vnum) (string, bool)
	Len() int
	Exists(v proto.Vnum) bool
	Get(v proto.Vnum) (proto.Record, bool)
	Vnums() []proto.Vnum
	Save(v proto.Vnum) error
	SaveAll() error
	Revision(v proto.Vnum) uint64
	NextVnum() proto.Vnum
	SetInDevelopment(v proto.Vnum) bool
	ListLine(v proto.Vnum, detail bool) (string, bool)
	List(detail bool) []string
	CheckRange(ctx audit.Context, vmin, vmax proto.Vnum) []audit.Finding
	SearchLines(query string) []string
	FullSearchLines(opts FullSearchOpts) ([]string, error)

	start(v, from proto.Vnum) (*editState, error)
	commitAny(st *editState) (proto.Record, bool, error)
	remove(v proto.Vnum) (proto.Record, error)
	flagScratch(scratch any)
	display(sess *Session, st *editState) string
	runField(c *Ctx, st *editState, name, arg string) error
	fieldNames(sub bool) []string
}

func (t *Table[T]) commitAny(st *editState) (proto.Record, bool, error) {
	return t.commit(st)
}
