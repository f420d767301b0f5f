package manifest

import (
	"strings"

	"github.com/spkenv/spfs/internal/digest"
)

// GetPath looks up the entry at rel, a POSIX-style path relative to the
// manifest root. A leading "/" is optional; "." and empty components
// collapse; ".." is rejected. Looking up through a BLOB fails (there is
// nothing beneath a file).
func (m *Manifest) GetPath(rel string) (*Entry, error) {
	parts, err := splitClean(rel)
	if err != nil {
		return nil, err
	}
	cur := m.root
	for _, part := range parts {
		if cur.Kind != TREE {
			return nil, digest.NewInvalidInput("path traverses a non-directory entry")
		}
		found := false
		for _, c := range m.children(cur.Digest) {
			if c.Name == part {
				cur = c
				found = true
				break
			}
		}
		if !found {
			return nil, nil
		}
	}
	result := cur
	return &result, nil
}

// splitClean normalizes a POSIX-style relative path: strips a leading
// "/", drops "." and empty components, and rejects ".." outright.
func splitClean(rel string) ([]string, error) {
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		return nil, nil
	}
	raw := strings.Split(rel, "/")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		switch p {
		case "", ".":
			continue
		case "..":
			return nil, digest.NewInvalidInput("path must not contain \"..\"")
		default:
			parts = append(parts, p)
		}
	}
	return parts, nil
}

// WalkFunc is called once per (path, entry) pair in canonical order.
// Returning false stops the walk early.
type WalkFunc func(path string, e Entry) bool

// Walk visits every entry in the manifest in canonical order (root
// first, then BLOBs and MASKs before TREEs, lexicographic by name
// within each directory), recursing lazily. It never buffers more
// than the current path's ancestor stack.
func (m *Manifest) Walk(fn WalkFunc) {
	if !fn("", m.root) {
		return
	}
	m.walkChildren("", m.root, fn)
}

func (m *Manifest) walkChildren(prefix string, dir Entry, fn WalkFunc) bool {
	for _, e := range m.children(dir.Digest) {
		p := e.Name
		if prefix != "" {
			p = prefix + "/" + e.Name
		}
		if !fn(p, e) {
			return false
		}
		if e.Kind == TREE {
			if !m.walkChildren(p, e, fn) {
				return false
			}
		}
	}
	return true
}
