// Package history keeps a SQLite log of OLC commits and deletes.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/crystal-mush/empireolc/pkg/olc"
	"github.com/crystal-mush/empireolc/pkg/proto"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Actions recorded in the log.
const (
	ActionSave   = "save"
	ActionDelete = "delete"
)

const schema = `CREATE TABLE IF NOT EXISTS edits (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	at      INTEGER NOT NULL,
	session TEXT NOT NULL,
	player  TEXT NOT NULL,
	action  TEXT NOT NULL,
	kind    TEXT NOT NULL,
	vnum    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS edits_kind_vnum ON edits(kind, vnum);`

// Row is one logged action.
type Row struct {
	ID      int64
	At      time.Time
	Session uuid.UUID
	Player  string
	Action  string
	Kind    proto.Kind
	Vnum    proto.Vnum
}

func (r Row) String() string {
	who := r.Player
	if who == "" {
		who = "(system)"
	}
	return fmt.Sprintf("%s %-12s %-6s %s %d", r.At.Local().Format("2006-01-02 15:04:05"), who, r.Action, r.Kind, r.Vnum)
}

// Filter narrows Recent. Zero fields match everything.
type Filter struct {
	Kind   proto.Kind
	ByKind bool
	Vnum   proto.Vnum
	ByVnum bool
	Player string
}

// Store is a SQLite edit log.
type Store struct {
	db      *sql.DB
	mu      sync.Mutex
	path    string
	timeout time.Duration
}

// Open opens or creates the log at path in WAL mode.
func Open(path string, timeoutSec int) (*Store, error) {
	if timeoutSec <= 0 {
		timeoutSec = 5
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d", timeoutSec*1000)); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating edits table: %w", err)
	}
	return &Store{db: db, path: path, timeout: time.Duration(timeoutSec) * time.Second}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// Path returns the filesystem path of the database.
func (s *Store) Path() string { return s.path }

// Checkpoint flushes the WAL into the main database file.
func (s *Store) Checkpoint() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return sql.ErrConnDone
	}
	_, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return err
}

// Record appends r. A zero At is stamped with the current time.
func (s *Store) Record(r Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return sql.ErrConnDone
	}
	if r.At.IsZero() {
		r.At = time.Now()
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO edits (at, session, player, action, kind, vnum) VALUES (?, ?, ?, ?, ?, ?)",
		r.At.UnixNano(), r.Session.String(), r.Player, r.Action, r.Kind.String(), int(r.Vnum))
	if err != nil {
		return fmt.Errorf("history: insert: %w", err)
	}
	return nil
}

// Recent returns up to limit rows matching f, newest first.
func (s *Store) Recent(limit int, f Filter) ([]Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, sql.ErrConnDone
	}
	if limit <= 0 {
		limit = 20
	}

	var where []string
	var args []interface{}
	if f.ByKind {
		where = append(where, "kind = ?")
		args = append(args, f.Kind.String())
	}
	if f.ByVnum {
		where = append(where, "vnum = ?")
		args = append(args, int(f.Vnum))
	}
	if f.Player != "" {
		where = append(where, "player = ? COLLATE NOCASE")
		args = append(args, f.Player)
	}
	q := "SELECT id, at, session, player, action, kind, vnum FROM edits"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("history: query: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			r      Row
			at     int64
			sessID string
			kind   string
			vnum   int
		)
		if err := rows.Scan(&r.ID, &at, &sessID, &r.Player, &r.Action, &kind, &vnum); err != nil {
			return nil, err
		}
		r.At = time.Unix(0, at)
		r.Session, _ = uuid.Parse(sessID)
		r.Kind, _ = proto.ParseKind(kind)
		r.Vnum = proto.Vnum(vnum)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Observer returns an olc.Observer that logs into s.
func (s *Store) Observer() olc.Observer { return observer{s} }

type observer struct{ s *Store }

func (o observer) Committed(sess *olc.Session, kind proto.Kind, rec proto.Record) {
	o.log(sess, ActionSave, kind, rec.Vnum())
}

func (o observer) Deleted(sess *olc.Session, kind proto.Kind, v proto.Vnum) {
	o.log(sess, ActionDelete, kind, v)
}

func (o observer) log(sess *olc.Session, action string, kind proto.Kind, v proto.Vnum) {
	r := Row{Action: action, Kind: kind, Vnum: v}
	if sess != nil {
		r.Session, r.Player = sess.ID, sess.Player
	}
	if err := o.s.Record(r); err != nil {
		log.Printf("history: %v", err)
	}
}
