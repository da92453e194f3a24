package archive

import (
	"archive/tar"
	"bufio"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// RestoreParams says where each part of an archive goes.
type RestoreParams struct {
	ArchivePath string
	LibDest     string    // Library root; kind directories are replaced (empty = skip)
	ConfDest    string    // Global config file (empty = skip)
	BoltDest    string    // Mirror database (empty = skip)
	HistoryDest string    // Edit log database (empty = skip)
	Stdin       io.Reader // Answers the config prompt; nil keeps the current file
	Stdout      io.Writer
}

// RestoreResult summarizes a completed restore.
type RestoreResult struct {
	Manifest      Manifest
	FilesRestored int
	Warnings      []string
}

// Restore validates every checksum in an archive and only then copies
// its files into place.
func Restore(p RestoreParams) (*RestoreResult, error) {
	tmpDir, err := os.MkdirTemp("", "empireolc-restore-*")
	if err != nil {
		return nil, fmt.Errorf("restore: create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := extract(p.ArchivePath, tmpDir); err != nil {
		return nil, fmt.Errorf("restore: extract: %w", err)
	}
	data, err := os.ReadFile(filepath.Join(tmpDir, manifestName))
	if err != nil {
		return nil, fmt.Errorf("restore: %s not found in archive", manifestName)
	}
	result := &RestoreResult{}
	if err := json.Unmarshal(data, &result.Manifest); err != nil {
		return nil, fmt.Errorf("restore: parse manifest: %w", err)
	}

	for name, entry := range result.Manifest.Files {
		ok, err := validateChecksum(filepath.Join(tmpDir, filepath.FromSlash(name)), entry.SHA256)
		if err != nil {
			return nil, fmt.Errorf("restore: checksum %s: %w", name, err)
		}
		if !ok {
			return nil, fmt.Errorf("restore: checksum mismatch for %s; the archive may be corrupt", name)
		}
	}

	libSrc := filepath.Join(tmpDir, libPrefix)
	if info, err := os.Stat(libSrc); err == nil && info.IsDir() && p.LibDest != "" {
		kinds, err := os.ReadDir(libSrc)
		if err != nil {
			return nil, fmt.Errorf("restore: read lib: %w", err)
		}
		for _, k := range kinds {
			if !k.IsDir() {
				continue
			}
			// Block files absent from the archive must not survive.
			dest := filepath.Join(p.LibDest, k.Name())
			if err := os.RemoveAll(dest); err != nil {
				return nil, fmt.Errorf("restore: clear %s: %w", dest, err)
			}
			n, err := copyDir(filepath.Join(libSrc, k.Name()), dest)
			if err != nil {
				return nil, fmt.Errorf("restore: copy %s: %w", k.Name(), err)
			}
			result.FilesRestored += n
		}
	}

	for _, db := range []struct{ src, dest string }{
		{boltName, p.BoltDest},
		{historyName, p.HistoryDest},
	} {
		src := filepath.Join(tmpDir, filepath.FromSlash(db.src))
		if _, err := os.Stat(src); err != nil || db.dest == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(db.dest), 0755); err != nil {
			return nil, fmt.Errorf("restore: create %s: %w", filepath.Dir(db.dest), err)
		}
		if err := copyFile(src, db.dest); err != nil {
			return nil, fmt.Errorf("restore: copy %s: %w", db.src, err)
		}
		result.FilesRestored++
	}

	if p.ConfDest != "" {
		src := filepath.Join(tmpDir, confPrefix, filepath.Base(p.ConfDest))
		if _, err := os.Stat(src); err == nil {
			action, err := promptConfigDiff(src, p.ConfDest, filepath.Base(p.ConfDest), p.Stdin, p.Stdout)
			if err != nil {
				result.Warnings = append(result.Warnings, fmt.Sprintf("config prompt error: %v", err))
			}
			switch action {
			case 'U':
				if err := os.MkdirAll(filepath.Dir(p.ConfDest), 0755); err != nil {
					return nil, fmt.Errorf("restore: create conf dir: %w", err)
				}
				if err := copyFile(src, p.ConfDest); err != nil {
					return nil, fmt.Errorf("restore: copy config: %w", err)
				}
				result.FilesRestored++
			case 'K':
				result.Warnings = append(result.Warnings, "kept current config: "+filepath.Base(p.ConfDest))
			}
		}
	}
	return result, nil
}

func extract(archivePath, destDir string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gr.Close()

	root := filepath.Clean(destDir) + string(os.PathSeparator)
	tr := tar.NewReader(gr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		target := filepath.Join(destDir, filepath.FromSlash(hdr.Name))
		if !strings.HasPrefix(target, root) {
			return fmt.Errorf("invalid archive entry: %s", hdr.Name)
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			out, err := os.Create(target)
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
		}
	}
}

func validateChecksum(path, expected string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return false, err
	}
	return hex.EncodeToString(h.Sum(nil)) == expected, nil
}

// promptConfigDiff asks whether to replace a differing config file.
// It returns 'U' (use archived), 'K' (keep current) or 'S' (identical).
func promptConfigDiff(srcFile, destFile, name string, stdin io.Reader, stdout io.Writer) (byte, error) {
	if _, err := os.Stat(destFile); os.IsNotExist(err) {
		return 'U', nil
	}
	srcData, err := os.ReadFile(srcFile)
	if err != nil {
		return 'K', err
	}
	destData, err := os.ReadFile(destFile)
	if err != nil {
		return 'K', err
	}
	if string(srcData) == string(destData) {
		return 'S', nil
	}
	if stdin == nil || stdout == nil {
		return 'K', nil
	}

	scanner := bufio.NewScanner(stdin)
	for {
		fmt.Fprintf(stdout, "\nConfig file %q differs from the archive.\n", name)
		fmt.Fprintf(stdout, "[K]eep current  [U]se archived  [D]iff: ")
		if !scanner.Scan() {
			return 'K', nil
		}
		input := strings.ToUpper(strings.TrimSpace(scanner.Text()))
		if input == "" {
			continue
		}
		switch input[0] {
		case 'K', 'U':
			return input[0], nil
		case 'D':
			simpleDiff(string(destData), string(srcData), stdout)
		default:
			fmt.Fprintf(stdout, "Please enter K, U or D.\n")
		}
	}
}

// simpleDiff prints differing lines, position by position.
func simpleDiff(current, archived string, w io.Writer) {
	cur := strings.Split(current, "\n")
	arc := strings.Split(archived, "\n")
	fmt.Fprintf(w, "\n--- current\n+++ archived\n")
	for i := 0; i < max(len(cur), len(arc)); i++ {
		var c, a string
		if i < len(cur) {
			c = cur[i]
		}
		if i < len(arc) {
			a = arc[i]
		}
		if c == a {
			continue
		}
		if i < len(cur) {
			fmt.Fprintf(w, "- %s\n", c)
		}
		if i < len(arc) {
			fmt.Fprintf(w, "+ %s\n", a)
		}
	}
	fmt.Fprintln(w)
}

// copyDir copies every file from src into dst and returns the count.
func copyDir(src, dst string) (int, error) {
	count := 0
	err := filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		dest := filepath.Join(dst, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return err
		}
		if err := copyFile(path, dest); err != nil {
			return err
		}
		count++
		return nil
	})
	return count, err
}
