package boltstore

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/crystal-mush/empireolc/pkg/libfile"
	"github.com/crystal-mush/empireolc/pkg/olc"
	"github.com/crystal-mush/empireolc/pkg/proto"
	"github.com/vmihailenco/msgpack/v5"
	bbolt "go.etcd.io/bbolt"
)

// ErrMissing is returned when a record is not in the mirror.
var ErrMissing = errors.New("boltstore: no such record")

// Entry is one mirrored prototype. Text is the record exactly as written
// to its library block, so a library can be rebuilt from the mirror.
type Entry struct {
	Kind    string    `msgpack:"k"`
	Vnum    int       `msgpack:"v"`
	Summary string    `msgpack:"s"`
	Text    string    `msgpack:"t"`
	Actor   string    `msgpack:"a,omitempty"`
	Saved   time.Time `msgpack:"at"`
}

// Store is a bbolt copy of every prototype table, a bucket per kind.
type Store struct {
	bolt *bbolt.DB
}

// Open opens or creates a mirror database and ensures a bucket exists for
// each of kinds.
func Open(path string, kinds ...proto.Kind) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("boltstore: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		if meta.Get(keyVersion) == nil {
			if err := meta.Put(keyVersion, vnumToKey(formatVersion)); err != nil {
				return err
			}
		}
		for _, k := range kinds {
			if _, err := tx.CreateBucketIfNotExists(kindBucket(k)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("boltstore: create buckets: %w", err)
	}
	return &Store{bolt: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	if s.bolt != nil {
		return s.bolt.Close()
	}
	return nil
}

// Path returns the filesystem path of the underlying bbolt database.
func (s *Store) Path() string {
	if s.bolt != nil {
		return s.bolt.Path()
	}
	return ""
}

// Version returns the entry format stored in the meta bucket.
func (s *Store) Version() int {
	n := 0
	s.bolt.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketMeta).Get(keyVersion); len(b) == 4 {
			n = int(keyToVnum(b))
		}
		return nil
	})
	return n
}

func bucketFor(tx *bbolt.Tx, k proto.Kind) (*bbolt.Bucket, error) {
	if tx.Writable() {
		return tx.CreateBucketIfNotExists(kindBucket(k))
	}
	b := tx.Bucket(kindBucket(k))
	if b == nil {
		return nil, fmt.Errorf("boltstore: no bucket for %s", k)
	}
	return b, nil
}

// Put stores e under its kind and vnum.
func (s *Store) Put(k proto.Kind, e Entry) error {
	e.Kind = k.String()
	data, err := msgpack.Marshal(&e)
	if err != nil {
		return fmt.Errorf("boltstore: encode %s %d: %w", k, e.Vnum, err)
	}
	return s.bolt.Update(func(tx *bbolt.Tx) error {
		b, err := bucketFor(tx, k)
		if err != nil {
			return err
		}
		return b.Put(vnumToKey(proto.Vnum(e.Vnum)), data)
	})
}

// Delete removes kind v. Deleting a missing record is not an error.
func (s *Store) Delete(k proto.Kind, v proto.Vnum) error {
	return s.bolt.Update(func(tx *bbolt.Tx) error {
		b, err := bucketFor(tx, k)
		if err != nil {
			return err
		}
		return b.Delete(vnumToKey(v))
	})
}

// Get returns the mirrored entry for kind v.
func (s *Store) Get(k proto.Kind, v proto.Vnum) (Entry, error) {
	var e Entry
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		b, err := bucketFor(tx, k)
		if err != nil {
			return err
		}
		data := b.Get(vnumToKey(v))
		if data == nil {
			return ErrMissing
		}
		return msgpack.Unmarshal(data, &e)
	})
	return e, err
}

// Entries returns every mirrored record of kind k in vnum order.
func (s *Store) Entries(k proto.Kind) ([]Entry, error) {
	var out []Entry
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		b, err := bucketFor(tx, k)
		if err != nil {
			return err
		}
		return b.ForEach(func(key, data []byte) error {
			var e Entry
			if err := msgpack.Unmarshal(data, &e); err != nil {
				return fmt.Errorf("boltstore: decode %s %d: %w", k, keyToVnum(key), err)
			}
			out = append(out, e)
			return nil
		})
	})
	return out, err
}

// Count returns the number of mirrored records of kind k.
func (s *Store) Count(k proto.Kind) int {
	n := 0
	s.bolt.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(kindBucket(k)); b != nil {
			n = b.Stats().KeyN
		}
		return nil
	})
	return n
}

// HasData returns true if any kind bucket holds a record.
func (s *Store) HasData() bool {
	has := false
	s.bolt.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, b *bbolt.Bucket) error {
			if strings.HasPrefix(string(name), "proto.") && b.Stats().KeyN > 0 {
				has = true
			}
			return nil
		})
	})
	return has
}

// Sync replaces kind t's bucket with the table's current contents in a
// single transaction.
func (s *Store) Sync(t olc.AnyTable) (int, error) {
	now := time.Now().UTC()
	var entries [][2][]byte
	for _, v := range t.Vnums() {
		text, ok := t.RecordText(v)
		if !ok {
			continue
		}
		line, _ := t.ListLine(v, false)
		e := Entry{Kind: t.Kind().String(), Vnum: int(v), Summary: line, Text: text, Saved: now}
		data, err := msgpack.Marshal(&e)
		if err != nil {
			return 0, fmt.Errorf("boltstore: encode %s %d: %w", t.Kind(), v, err)
		}
		entries = append(entries, [2][]byte{vnumToKey(v), data})
	}

	err := s.bolt.Update(func(tx *bbolt.Tx) error {
		name := kindBucket(t.Kind())
		if tx.Bucket(name) != nil {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
		}
		b, err := tx.CreateBucket(name)
		if err != nil {
			return err
		}
		for _, kv := range entries {
			if err := b.Put(kv[0], kv[1]); err != nil {
				return err
			}
		}
		stamp, _ := now.MarshalBinary()
		return tx.Bucket(bucketMeta).Put(keySynced, stamp)
	})
	if err != nil {
		return 0, fmt.Errorf("boltstore: sync %s: %w", t.Kind(), err)
	}
	log.Printf("boltstore: mirrored %d %s records", len(entries), t.Kind())
	return len(entries), nil
}

// Synced returns when Sync last ran, or the zero time.
func (s *Store) Synced() time.Time {
	var at time.Time
	s.bolt.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(bucketMeta).Get(keySynced); b != nil {
			at.UnmarshalBinary(b)
		}
		return nil
	})
	return at
}

// Restore parses every mirrored record of t's kind back into t. Records
// already in t keep their current values. It does not save.
func (s *Store) Restore(t olc.AnyTable) (int, error) {
	entries, err := s.Entries(t.Kind())
	if err != nil {
		return 0, err
	}
	var sb strings.Builder
	for _, e := range entries {
		sb.WriteString(e.Text)
	}
	sb.WriteString("$\n")
	before := t.Len()
	r := libfile.NewReader(strings.NewReader(sb.String()), "mirror:"+t.Kind().String())
	if err := t.Parse(r); err != nil {
		return 0, fmt.Errorf("boltstore: restore %s: %w", t.Kind(), err)
	}
	return t.Len() - before, nil
}

// Export writes every mirrored record of kind k to w as one library
// block file, terminated by "$".
func (s *Store) Export(k proto.Kind, w io.Writer) (int, error) {
	entries, err := s.Entries(k)
	if err != nil {
		return 0, err
	}
	lw := libfile.NewWriter(w)
	for _, e := range entries {
		lw.Printf("%s", e.Text)
	}
	lw.EndFile()
	return len(entries), lw.Err()
}

// Backup writes a consistent copy of the database to path.
func (s *Store) Backup(path string) error {
	return s.bolt.View(func(tx *bbolt.Tx) error {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("boltstore: create backup %s: %w", path, err)
		}
		defer f.Close()
		if _, err := tx.WriteTo(f); err != nil {
			return fmt.Errorf("boltstore: write backup: %w", err)
		}
		log.Printf("boltstore: backup written to %s", path)
		return nil
	})
}
