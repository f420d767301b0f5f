package repository

import (
	"sort"
	"strings"

	"github.com/spkenv/spfs/internal/manifest"
)

// Overlay merges overlay on top of base, path by path: any path
// present in overlay replaces the same path in base, and a MASK entry
// in overlay removes that path (and everything beneath it) from base
// entirely. MASK entries from overlay are applied, not copied into the
// result; MASK entries already present in base are kept. The runtime
// overlay-mount step that would consume this result at process launch
// is out of scope; this only computes the merged manifest.
func Overlay(base, overlay *manifest.Manifest) (*manifest.Manifest, error) {
	merged := map[string]manifest.Entry{}

	base.Walk(func(path string, e manifest.Entry) bool {
		if path != "" {
			merged[path] = e
		}
		return true
	})

	// Paths whose base subtree must disappear: masked paths, and paths
	// where the overlay put a non-directory on top of a base directory.
	var shadowed []string
	overlay.Walk(func(path string, e manifest.Entry) bool {
		if path == "" {
			return true
		}
		if e.Kind == manifest.MASK {
			shadowed = append(shadowed, path)
			delete(merged, path)
			return true
		}
		if e.Kind == manifest.BLOB {
			if prev, ok := merged[path]; ok && prev.Kind == manifest.TREE {
				shadowed = append(shadowed, path)
			}
		}
		merged[path] = e
		return true
	})

	for _, path := range shadowed {
		prefix := path + "/"
		for p := range merged {
			if strings.HasPrefix(p, prefix) {
				delete(merged, p)
			}
		}
	}

	return rebuildFromEntries(merged)
}

// rebuildFromEntries reconstructs a Manifest from a flat path->Entry
// map by replaying entries into nested Builders, deepest directories
// first, mirroring manifeststore.rebuild's depth-ordered reconstruction
// of a serialized manifest.
func rebuildFromEntries(flat map[string]manifest.Entry) (*manifest.Manifest, error) {
	builders := map[string]*manifest.Builder{"": manifest.NewBuilder()}
	get := func(path string) *manifest.Builder {
		if b, ok := builders[path]; ok {
			return b
		}
		b := manifest.NewBuilder()
		builders[path] = b
		return b
	}

	type row struct {
		path string
		e    manifest.Entry
	}
	var trees []row
	for path, e := range flat {
		if e.Kind != manifest.TREE {
			continue
		}
		get(path)
		trees = append(trees, row{path, e})
	}
	sort.Slice(trees, func(i, j int) bool {
		return strings.Count(trees[i].path, "/") > strings.Count(trees[j].path, "/")
	})

	for path, e := range flat {
		if e.Kind == manifest.TREE {
			continue
		}
		parent, leaf := splitParentPath(path)
		if e.Kind == manifest.MASK {
			if err := get(parent).Mask(leaf, e.Mode); err != nil {
				return nil, err
			}
		} else {
			if err := get(parent).Add(leaf, e.Mode, e.Digest, e.Size); err != nil {
				return nil, err
			}
		}
	}

	for _, t := range trees {
		child, err := get(t.path).Finalize()
		if err != nil {
			return nil, err
		}
		parent, leaf := splitParentPath(t.path)
		if err := get(parent).AddTree(leaf, t.e.Mode, child); err != nil {
			return nil, err
		}
	}

	return get("").Finalize()
}

func splitParentPath(path string) (parent, leaf string) {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}
