// Package libfile reads and writes the tilde-string, tagged-block library
// files that hold OLC prototypes, one file per 100-vnum block plus an
// index listing which blocks exist.
package libfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/crystal-mush/empireolc/pkg/proto"
)

// ErrFormat is wrapped by every parse error.
var ErrFormat = errors.New("library format error")

// ParseError locates a malformed line.
type ParseError struct {
	File string
	Line int
	Vnum proto.Vnum
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Vnum >= 0 {
		return fmt.Sprintf("%s:%d: #%d: %s", e.File, e.Line, e.Vnum, e.Msg)
	}
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

func (e *ParseError) Unwrap() error { return ErrFormat }

// Reader parses one library file.
type Reader struct {
	reader *bufio.Reader
	name   string
	line   int
	vnum   proto.Vnum
}

// NewReader wraps r. name is used in error messages.
func NewReader(r io.Reader, name string) *Reader {
	return &Reader{
		reader: bufio.NewReaderSize(r, 64*1024),
		name:   name,
		vnum:   proto.Nothing,
	}
}

// Line returns the number of the last line read.
func (r *Reader) Line() int { return r.line }

// Errorf builds a ParseError at the current position.
func (r *Reader) Errorf(format string, args ...interface{}) error {
	return &ParseError{File: r.name, Line: r.line, Vnum: r.vnum, Msg: fmt.Sprintf(format, args...)}
}

// readLine returns the next raw line without its line ending.
func (r *Reader) readLine() (string, error) {
	s, err := r.reader.ReadString('\n')
	if err == io.EOF && s != "" {
		err = nil
	}
	if err != nil {
		return "", err
	}
	r.line++
	return strings.TrimRight(s, "\r\n"), nil
}

// NextLine returns the next non-blank line. EOF is a format error.
func (r *Reader) NextLine() (string, error) {
	for {
		s, err := r.readLine()
		if err == io.EOF {
			return "", r.Errorf("unexpected end of file")
		}
		if err != nil {
			return "", fmt.Errorf("%s: %w", r.name, err)
		}
		if strings.TrimSpace(s) != "" {
			return s, nil
		}
	}
}

// ReadString reads a ~-terminated string. Lines before the terminator are
// joined with CRLF; trailing blanks on each line are dropped.
func (r *Reader) ReadString() (string, error) {
	var sb strings.Builder
	for {
		s, err := r.readLine()
		if err == io.EOF {
			return "", r.Errorf("string not terminated with ~ before end of file")
		}
		if err != nil {
			return "", fmt.Errorf("%s: %w", r.name, err)
		}
		s = strings.TrimRight(s, " \t")
		if strings.HasSuffix(s, "~") {
			sb.WriteString(s[:len(s)-1])
			return sb.String(), nil
		}
		sb.WriteString(s)
		sb.WriteString("\r\n")
	}
}

// ReadInts reads a line holding exactly n integers.
func (r *Reader) ReadInts(n int) ([]int, error) {
	line, err := r.NextLine()
	if err != nil {
		return nil, err
	}
	return r.ParseInts(line, n)
}

// ParseInts splits line into exactly n integers.
func (r *Reader) ParseInts(line string, n int) ([]int, error) {
	fields := strings.Fields(line)
	if len(fields) != n {
		return nil, r.Errorf("expected %d numbers, got %d in %q", n, len(fields), line)
	}
	out := make([]int, n)
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, r.Errorf("bad number %q", f)
		}
		out[i] = v
	}
	return out, nil
}

// Fields reads a line and splits it, requiring between min and max fields.
func (r *Reader) Fields(min, max int) ([]string, error) {
	line, err := r.NextLine()
	if err != nil {
		return nil, err
	}
	f := strings.Fields(line)
	if len(f) < min || len(f) > max {
		return nil, r.Errorf("expected %d-%d fields, got %d in %q", min, max, len(f), line)
	}
	return f, nil
}

// Atoi parses a field at the current position.
func (r *Reader) Atoi(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, r.Errorf("bad number %q", s)
	}
	return v, nil
}

// Float parses a floating point field at the current position.
func (r *Reader) Float(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, r.Errorf("bad decimal %q", s)
	}
	return v, nil
}

// Records walks a library file, calling fn at each "#vnum" line with the
// reader positioned on the record body. A "$" line ends the file.
func (r *Reader) Records(fn func(v proto.Vnum) error) error {
	for {
		line, err := r.NextLine()
		if err != nil {
			return err
		}
		switch line[0] {
		case '$':
			return nil
		case '#':
			v, err := strconv.Atoi(strings.TrimSpace(line[1:]))
			if err != nil || v < 0 {
				return r.Errorf("bad vnum line %q", line)
			}
			r.vnum = proto.Vnum(v)
			if err := fn(r.vnum); err != nil {
				return err
			}
			r.vnum = proto.Nothing
		default:
			return r.Errorf("expected #vnum or $, got %q", line)
		}
	}
}

// Tags reads tagged blocks until the S sentinel. fn receives the tag
// letter and anything after it on the tag line, and must return
// UnknownTag for letters it does not handle.
func (r *Reader) Tags(fn func(tag byte, arg string) error) error {
	for {
		line, err := r.NextLine()
		if err != nil {
			return err
		}
		tag := line[0]
		if tag == 'S' && strings.TrimSpace(line) == "S" {
			return nil
		}
		if !unicode.IsUpper(rune(tag)) {
			return r.Errorf("expected tag letter, got %q", line)
		}
		if err := fn(tag, strings.TrimSpace(line[1:])); err != nil {
			return err
		}
	}
}

// UnknownTag is the error for an unrecognized tag letter.
func (r *Reader) UnknownTag(tag byte) error {
	return r.Errorf("unknown tag %c", tag)
}
