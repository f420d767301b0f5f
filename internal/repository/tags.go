package repository

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spkenv/spfs/internal/digest"
)

// tagPath returns the append-only history file for one (namespace,
// name) tag.
func (r *Repository) tagPath(ns, name string) string {
	return filepath.Join(r.root, "tags", ns, name)
}

// SetTag appends one "<unix-ts> <hex-digest>\n" line to the tag's
// history file. The format is fixed by this package (see DESIGN.md):
// a monotonically growing, append-only log of what a tag pointed to
// and when, with the last line being current.
func (r *Repository) SetTag(ns, name string, d digest.Digest) error {
	path := r.tagPath(ns, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return digest.WrapIOError("mkdir "+filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return digest.WrapIOError("open "+path, err)
	}
	defer f.Close()

	line := fmt.Sprintf("%d %s\n", time.Now().Unix(), d.String())
	if _, err := f.WriteString(line); err != nil {
		return digest.WrapIOError("append "+path, err)
	}
	return nil
}

// ReadTag returns the most recently appended digest for a tag.
func (r *Repository) ReadTag(ns, name string) (digest.Digest, error) {
	path := r.tagPath(ns, name)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return digest.Digest{}, digest.NewUnknownObject("tag", ns+"/"+name)
		}
		return digest.Digest{}, digest.WrapIOError("open "+path, err)
	}
	defer f.Close()

	var last string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			last = line
		}
	}
	if err := scanner.Err(); err != nil {
		return digest.Digest{}, digest.WrapIOError("read "+path, err)
	}
	if last == "" {
		return digest.Digest{}, digest.NewCorruption("tag", ns+"/"+name, "history file has no entries")
	}

	fields := strings.Fields(last)
	if len(fields) != 2 {
		return digest.Digest{}, digest.NewCorruption("tag", ns+"/"+name, "malformed history line "+last)
	}
	return digest.ParseHex(fields[1])
}

// ListTagNames enumerates every name recorded under a tag namespace.
func (r *Repository) ListTagNames(ns string) ([]string, error) {
	dir := filepath.Join(r.root, "tags", ns)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, digest.WrapIOError("readdir "+dir, err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() {
			out = append(out, e.Name())
		}
	}
	return out, nil
}
