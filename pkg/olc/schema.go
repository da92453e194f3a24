// Package olc is the staged editor shared by every prototype kind: a
// session copies a record into a scratch, field commands change only the
// scratch, and a commit copies it back, resorts, and saves the block.
package olc

import (
	"github.com/crystal-mush/empireolc/pkg/audit"
	"github.com/crystal-mush/empireolc/pkg/libfile"
	"github.com/crystal-mush/empireolc/pkg/proto"
)

// Schema is everything the generic machinery needs to know about one
// prototype type.
type Schema[T proto.Record] interface {
	Kind() proto.Kind
	// New returns a record with placeholder text and IN-DEVELOPMENT set.
	New(v proto.Vnum) T
	// Copy returns a deep copy sharing no slices, maps or pointers with rec.
	Copy(rec T) T
	// Assign overwrites every field of dst with a deep copy of src.
	Assign(dst, src T)
	Less(a, b T) bool
	Name(rec T) string

	Read(r *libfile.Reader, v proto.Vnum) (T, error)
	Write(w *libfile.Writer, rec T)

	// Sanitize restores placeholders for required fields left empty.
	Sanitize(rec T)
	SetInDevelopment(rec T)
	Flags(rec T) proto.Bitvector
	FlagNames() []string

	Keywords(rec T) []string
	ListLine(rec T, detail bool) string
	Show(rec T, sess *Session) string

	Audit(rec T, ctx audit.Context) []audit.Finding
}

// SetAuditor is implemented by schemas with checks across the whole
// table, like duplicate names.
type SetAuditor[T proto.Record] interface {
	AuditSet(recs []T, ctx audit.Context) []audit.Finding
}

// Protected is implemented by schemas that must keep a minimum number of
// records.
type Protected interface {
	MinRecords() int
}
