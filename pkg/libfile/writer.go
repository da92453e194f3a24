package libfile

import (
	"fmt"
	"io"
	"strings"

	"github.com/crystal-mush/empireolc/pkg/proto"
)

// Writer emits library records. The first write error sticks and later
// writes become no-ops; check Err once at the end.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Printf writes formatted text.
func (wr *Writer) Printf(format string, args ...interface{}) {
	if wr.err != nil {
		return
	}
	_, wr.err = fmt.Fprintf(wr.w, format, args...)
}

// Vnum opens a record.
func (wr *Writer) Vnum(v proto.Vnum) {
	wr.Printf("#%d\n", v)
}

// String writes s followed by the ~ terminator. CRLFs are stored as bare
// newlines and come back as CRLF on read.
func (wr *Writer) String(s string) {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "")
	wr.Printf("%s~\n", s)
}

// Tag writes a tag line: the letter plus an optional argument.
func (wr *Writer) Tag(tag byte, arg string) {
	wr.Printf("%c%s\n", tag, arg)
}

// End closes a record's tagged section.
func (wr *Writer) End() {
	wr.Printf("S\n")
}

// EndFile writes the end-of-file marker.
func (wr *Writer) EndFile() {
	wr.Printf("$\n")
}

// Err returns the first write error.
func (wr *Writer) Err() error {
	return wr.err
}
