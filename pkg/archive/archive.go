// Package archive snapshots a library directory, with the global config
// and optional mirror and history databases, into a checksummed tar.gz.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Manifest describes the contents of an archive.
type Manifest struct {
	Version   int                  `json:"version"`
	Server    string               `json:"server"`
	Timestamp string               `json:"timestamp"`
	MudName   string               `json:"mud_name"`
	Reason    string               `json:"reason,omitempty"`
	Records   map[string]int       `json:"records"`
	Files     map[string]FileEntry `json:"files"`
}

// Total returns the number of records across every kind.
func (m *Manifest) Total() int {
	n := 0
	for _, c := range m.Records {
		n += c
	}
	return n
}

// FileEntry describes a single file within the archive.
type FileEntry struct {
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
	Type   string `json:"type"` // "lib", "config", "bolt", "sql"
}

// Archive layout.
const (
	libPrefix    = "lib"
	confPrefix   = "conf"
	boltName     = "data/mirror.bolt"
	historyName  = "data/history.sqldb"
	manifestName = "manifest.json"
)

// Params holds the inputs for one archive.
type Params struct {
	LibDir            string                      // Library root; every kind directory beneath it is archived
	ConfigPath        string                      // Global config file (empty = skip)
	MirrorSnapshot    func(destPath string) error // Writes a bolt mirror snapshot (nil = skip)
	HistoryPath       string                      // SQLite edit log (empty = skip)
	HistoryCheckpoint func() error                // Flushes the WAL before copying (nil = skip)
	ArchiveDir        string                      // Output directory
	MudName           string
	Reason            string         // Why the snapshot was taken, e.g. "boot"
	Records           map[string]int // Record counts by kind for the manifest
}

// Create writes a .tar.gz archive and returns its path.
func Create(p Params) (string, error) {
	if err := os.MkdirAll(p.ArchiveDir, 0755); err != nil {
		return "", fmt.Errorf("archive: create dir %s: %w", p.ArchiveDir, err)
	}
	now := time.Now()
	archivePath := filepath.Join(p.ArchiveDir, fmt.Sprintf("lib-%s.tar.gz", now.Format("20060102-150405.000")))

	tmpDir, err := os.MkdirTemp("", "empireolc-archive-*")
	if err != nil {
		return "", fmt.Errorf("archive: create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	manifest := Manifest{
		Version:   1,
		Server:    "empireolc",
		Timestamp: now.UTC().Format(time.RFC3339Nano),
		MudName:   p.MudName,
		Reason:    p.Reason,
		Records:   p.Records,
		Files:     make(map[string]FileEntry),
	}
	if manifest.Records == nil {
		manifest.Records = make(map[string]int)
	}

	var boltStaged string
	if p.MirrorSnapshot != nil {
		boltStaged = filepath.Join(tmpDir, "mirror.bolt")
		if err := p.MirrorSnapshot(boltStaged); err != nil {
			return "", fmt.Errorf("archive: mirror snapshot: %w", err)
		}
	}
	var sqlStaged string
	if p.HistoryPath != "" {
		if p.HistoryCheckpoint != nil {
			if err := p.HistoryCheckpoint(); err != nil {
				return "", fmt.Errorf("archive: history checkpoint: %w", err)
			}
		}
		sqlStaged = filepath.Join(tmpDir, "history.sqldb")
		if err := copyFile(p.HistoryPath, sqlStaged); err != nil {
			return "", fmt.Errorf("archive: copy history: %w", err)
		}
	}

	out, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("archive: create %s: %w", archivePath, err)
	}
	pk := newPacker(out, manifest.Files)
	err = pk.fill(p, boltStaged, sqlStaged)
	if err == nil {
		// Last, so its checksums cover everything above.
		err = pk.manifest(manifest, now)
	}
	if cerr := pk.close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(archivePath)
		return "", err
	}
	return archivePath, nil
}

// packer streams files into a gzipped tar, recording a checksum entry
// for each one.
type packer struct {
	f     *os.File
	gz    *gzip.Writer
	tw    *tar.Writer
	files map[string]FileEntry
}

func newPacker(f *os.File, files map[string]FileEntry) *packer {
	gz := gzip.NewWriter(f)
	return &packer{f: f, gz: gz, tw: tar.NewWriter(gz), files: files}
}

func (pk *packer) fill(p Params, boltStaged, sqlStaged string) error {
	if p.LibDir != "" {
		if info, err := os.Stat(p.LibDir); err == nil && info.IsDir() {
			if err := pk.dir(p.LibDir, libPrefix, "lib"); err != nil {
				return err
			}
		}
	}
	if p.ConfigPath != "" {
		if _, err := os.Stat(p.ConfigPath); err == nil {
			if err := pk.file(p.ConfigPath, confPrefix+"/"+filepath.Base(p.ConfigPath), "config"); err != nil {
				return err
			}
		}
	}
	if boltStaged != "" {
		if err := pk.file(boltStaged, boltName, "bolt"); err != nil {
			return err
		}
	}
	if sqlStaged != "" {
		if err := pk.file(sqlStaged, historyName, "sql"); err != nil {
			return err
		}
	}
	return nil
}

// file adds src under name, hashing it on the way through.
func (pk *packer) file(src, name, typ string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	hdr := &tar.Header{Name: name, Size: info.Size(), Mode: 0644, ModTime: info.ModTime()}
	if err := pk.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("archive: header %s: %w", name, err)
	}
	sum := sha256.New()
	n, err := io.Copy(io.MultiWriter(pk.tw, sum), f)
	if err != nil {
		return fmt.Errorf("archive: add %s: %w", name, err)
	}
	pk.files[name] = FileEntry{SHA256: hex.EncodeToString(sum.Sum(nil)), Size: n, Type: typ}
	return nil
}

// dir adds every regular file under root. Temp files left by an
// interrupted atomic write are skipped.
func (pk *packer) dir(root, prefix, typ string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || strings.HasSuffix(path, ".tmp") {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		return pk.file(path, prefix+"/"+filepath.ToSlash(rel), typ)
	})
}

func (pk *packer) manifest(m Manifest, at time.Time) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("archive: manifest: %w", err)
	}
	hdr := &tar.Header{Name: manifestName, Size: int64(len(data)), Mode: 0644, ModTime: at}
	if err := pk.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("archive: manifest: %w", err)
	}
	_, err = pk.tw.Write(data)
	return err
}

func (pk *packer) close() error {
	return errors.Join(pk.tw.Close(), pk.gz.Close(), pk.f.Close())
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
