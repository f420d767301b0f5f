package manifest

import "sort"

// DiffKind categorizes how a path differs between two manifests.
type DiffKind int

const (
	Unchanged DiffKind = iota
	Added
	Removed
	Changed
)

func (k DiffKind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Changed:
		return "changed"
	default:
		return "?"
	}
}

// Diff records how two manifests differ at one path. A Diff is derived
// on demand; it is never stored.
type Diff struct {
	Path string
	Kind DiffKind
	Old  *Entry // nil for Added
	New  *Entry // nil for Removed
}

// DiffManifests computes the structural difference between a and b by
// path, short-circuiting whenever two subtrees share a digest.
// Only non-Unchanged results are returned, in depth-first order with
// each directory's children visited by name in lexicographic order
// (not the BLOB-before-TREE canonical order).
func DiffManifests(a, b *Manifest) []Diff {
	var out []Diff
	diffEntry("", a.root, b.root, a, b, &out)
	return out
}

func diffEntry(path string, ae, be Entry, a, b *Manifest, out *[]Diff) {
	if ae.Digest == be.Digest && ae.Kind == be.Kind && ae.Mode == be.Mode {
		return
	}
	if ae.Kind == TREE && be.Kind == TREE {
		diffTreeChildren(path, ae, be, a, b, out)
		return
	}
	old, neu := ae, be
	*out = append(*out, Diff{Path: path, Kind: Changed, Old: &old, New: &neu})
}

func diffTreeChildren(prefix string, aDir, bDir Entry, a, b *Manifest, out *[]Diff) {
	aChildren := indexByName(a.children(aDir.Digest))
	bChildren := indexByName(b.children(bDir.Digest))

	names := make(map[string]bool, len(aChildren)+len(bChildren))
	for n := range aChildren {
		names[n] = true
	}
	for n := range bChildren {
		names[n] = true
	}

	ordered := sortedNames(names)
	for _, name := range ordered {
		p := name
		if prefix != "" {
			p = prefix + "/" + name
		}
		ae, aok := aChildren[name]
		be, bok := bChildren[name]
		switch {
		case aok && !bok:
			old := ae
			*out = append(*out, Diff{Path: p, Kind: Removed, Old: &old})
		case !aok && bok:
			neu := be
			*out = append(*out, Diff{Path: p, Kind: Added, New: &neu})
		default:
			diffEntry(p, ae, be, a, b, out)
		}
	}
}

func indexByName(entries []Entry) map[string]Entry {
	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[e.Name] = e
	}
	return m
}

func sortedNames(names map[string]bool) []string {
	out := make([]string, 0, len(names))
	for n := range names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
