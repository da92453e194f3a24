package archive

import (
	"archive/tar"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Info holds metadata about an existing archive file.
type Info struct {
	Path      string
	Filename  string
	Size      int64
	Timestamp string // From the manifest, or the file's mod time
	MudName   string
	Reason    string
	Records   int
}

// List scans archiveDir for .tar.gz files, newest first.
func List(archiveDir string) ([]Info, error) {
	pattern := filepath.Join(archiveDir, "*.tar.gz")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("archive: glob %s: %w", pattern, err)
	}

	var out []Info
	for _, path := range matches {
		st, err := os.Stat(path)
		if err != nil {
			continue
		}
		ai := Info{
			Path:      path,
			Filename:  filepath.Base(path),
			Size:      st.Size(),
			Timestamp: st.ModTime().UTC().Format("2006-01-02T15:04:05Z"),
		}
		if m, err := ReadManifest(path); err == nil {
			ai.Timestamp = m.Timestamp
			ai.MudName = m.MudName
			ai.Reason = m.Reason
			ai.Records = m.Total()
		}
		out = append(out, ai)
	}

	// RFC3339 sorts lexically.
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out, nil
}

// ReadManifest returns the manifest of the archive at archivePath.
func ReadManifest(archivePath string) (*Manifest, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer gr.Close()

	tr := tar.NewReader(gr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if hdr.Name != manifestName {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, err
		}
		var m Manifest
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return &m, nil
	}
	return nil, fmt.Errorf("archive: %s has no %s", archivePath, manifestName)
}

// Prune removes all but the newest keep archives in archiveDir and
// returns how many were removed. keep <= 0 removes nothing.
func Prune(archiveDir string, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	list, err := List(archiveDir)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, ai := range list[min(keep, len(list)):] {
		if err := os.Remove(ai.Path); err != nil {
			return n, fmt.Errorf("archive: prune %s: %w", ai.Filename, err)
		}
		n++
	}
	return n, nil
}
