// Package manifest implements the in-memory tree of Entries that
// records a directory snapshot, and the deterministic tree hash that
// identifies it. A Manifest is immutable once its digest is computed;
// Builder is the mutable construction form.
package manifest

import (
	"fmt"
	"sort"

	"github.com/spkenv/spfs/internal/digest"
)

// EntryKind is the closed set of node kinds a Manifest entry can have.
type EntryKind uint8

const (
	// BLOB covers regular files and symbolic links, distinguished by
	// the mode bits.
	BLOB EntryKind = 1
	// TREE denotes a directory.
	TREE EntryKind = 2
	// MASK represents an explicit deletion when one layer overlays
	// another. MASK entries carry no digest content but still
	// participate in the canonical hash.
	MASK EntryKind = 3
)

func (k EntryKind) String() string {
	switch k {
	case BLOB:
		return "blob"
	case TREE:
		return "tree"
	case MASK:
		return "mask"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ModeSymlink marks an Entry's mode as a symlink BLOB rather than a
// regular file. Chosen to match io/fs.ModeSymlink's high bit so mode
// values round-trip through os.FileMode directly.
const ModeSymlink uint32 = 1 << 27

// Entry is one node in a Manifest: (name, kind, mode, digest, size).
type Entry struct {
	// Name is the path component within its parent tree; it contains
	// no "/".
	Name string
	Kind EntryKind
	// Mode is a POSIX-style permission/type word. Only permission bits
	// and file-type bits (the symlink bit on a BLOB, 0o040000 on a TREE
	// recorded by a filesystem walk) are canonical; timestamps,
	// ownership, and extended attributes are deliberately excluded from
	// hashing.
	Mode uint32
	// Digest is the hash of the file bytes for a BLOB (or of the UTF-8
	// symlink target), the hash of the canonical child list for a
	// TREE, and the zero digest for a MASK.
	Digest digest.Digest
	// Size is the byte length of file content; zero for TREE and MASK.
	Size int64
}

// IsSymlink reports whether e is a BLOB entry whose mode carries the
// symlink bit.
func (e Entry) IsSymlink() bool {
	return e.Kind == BLOB && e.Mode&ModeSymlink != 0
}

// Manifest is a rooted, immutable tree of Entries. Its identifier is
// the digest of its root TREE entry.
type Manifest struct {
	root  Entry
	trees map[digest.Digest][]Entry // every TREE's sorted children, including root
	blobs map[digest.Digest]struct{}
}

// Digest returns the manifest's identifier: the root TREE entry's
// digest.
func (m *Manifest) Digest() digest.Digest {
	return m.root.Digest
}

// Root returns the root entry, always named "" with Kind TREE.
func (m *Manifest) Root() Entry {
	return m.root
}

// children returns the sorted entries of the TREE at d, or nil if d is
// not a tree known to this manifest.
func (m *Manifest) children(d digest.Digest) []Entry {
	return m.trees[d]
}

// Blobs returns the set of blob digests this manifest references, in
// unspecified order. Masks and trees are excluded.
func (m *Manifest) Blobs() []digest.Digest {
	out := make([]digest.Digest, 0, len(m.blobs))
	for d := range m.blobs {
		out = append(out, d)
	}
	return out
}

// entriesEqual compares two entries for content equality: kind, mode,
// digest and size. Name is not compared.
func entriesEqual(a, b Entry) bool {
	return a.Kind == b.Kind && a.Mode == b.Mode && a.Digest == b.Digest && a.Size == b.Size
}

// sortEntries enforces the canonical child order: BLOBs (and MASKs)
// before TREEs, lexicographic by name within each kind bucket. MASK is
// grouped with BLOB since neither carries substructure to order
// children relative to, and a MASK is never a TREE.
func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		iTree := entries[i].Kind == TREE
		jTree := entries[j].Kind == TREE
		if iTree != jTree {
			return !iTree // non-trees first
		}
		return entries[i].Name < entries[j].Name
	})
}
