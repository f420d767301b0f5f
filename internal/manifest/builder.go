package manifest

import (
	"fmt"
	"strings"

	"github.com/spkenv/spfs/internal/digest"
)

// Builder accumulates entries for one directory level before they are
// finalized into an immutable Manifest. Builders nest: a subdirectory
// is built with its own Builder and folded into the parent via AddTree
// once finalized.
//
// Mutation is never exposed on a finalized Manifest; Builder is the
// only way to construct one, keeping a tree under construction
// distinct from the sealed, hash-stable form callers walk and diff.
type Builder struct {
	entries      []Entry
	names        map[string]bool
	adopted      map[digest.Digest][]Entry
	adoptedBlobs map[digest.Digest]struct{}
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{names: make(map[string]bool)}
}

func validateName(name string) error {
	if name == "" {
		return digest.NewInvalidInput("empty entry name")
	}
	if name == "." || name == ".." {
		return digest.NewInvalidInput(fmt.Sprintf("invalid entry name %q", name))
	}
	if strings.ContainsRune(name, '/') {
		return digest.NewInvalidInput(fmt.Sprintf("entry name %q contains a path separator", name))
	}
	if strings.IndexByte(name, sep) >= 0 {
		return digest.NewInvalidInput(fmt.Sprintf("entry name %q contains a NUL byte", name))
	}
	return nil
}

// Add appends a BLOB entry. dgst is the hash of the file bytes (or, for
// a symlink, of the UTF-8 target path); mode carries the symlink bit
// when appropriate.
func (b *Builder) Add(name string, mode uint32, dgst digest.Digest, size int64) error {
	if err := validateName(name); err != nil {
		return err
	}
	if b.names[name] {
		return digest.NewInvalidInput(fmt.Sprintf("duplicate entry name %q", name))
	}
	b.names[name] = true
	b.entries = append(b.entries, Entry{Name: name, Kind: BLOB, Mode: mode, Digest: dgst, Size: size})
	return nil
}

// AddTree appends a TREE entry for an already-finalized child manifest.
func (b *Builder) AddTree(name string, mode uint32, child *Manifest) error {
	if err := validateName(name); err != nil {
		return err
	}
	if b.names[name] {
		return digest.NewInvalidInput(fmt.Sprintf("duplicate entry name %q", name))
	}
	b.names[name] = true
	b.entries = append(b.entries, Entry{Name: name, Kind: TREE, Mode: mode, Digest: child.Digest()})
	b.adopt(child)
	return nil
}

// Mask appends a MASK entry: an explicit deletion marker used when one
// layer overlays another. MASK entries carry no digest but still take
// part in the canonical hash.
func (b *Builder) Mask(name string, mode uint32) error {
	if err := validateName(name); err != nil {
		return err
	}
	if b.names[name] {
		return digest.NewInvalidInput(fmt.Sprintf("duplicate entry name %q", name))
	}
	b.names[name] = true
	b.entries = append(b.entries, Entry{Name: name, Kind: MASK, Mode: mode})
	return nil
}

// adopt merges a child manifest's known subtrees and blob set into the
// manifest this builder will eventually produce, so lookups/walks over
// the parent can descend into children without re-resolving them from
// a store.
func (b *Builder) adopt(child *Manifest) {
	if b.adopted == nil {
		b.adopted = make(map[digest.Digest][]Entry)
	}
	for d, entries := range child.trees {
		b.adopted[d] = entries
	}
	if b.adoptedBlobs == nil {
		b.adoptedBlobs = make(map[digest.Digest]struct{})
	}
	for d := range child.blobs {
		b.adoptedBlobs[d] = struct{}{}
	}
}

// Finalize sorts entries into canonical order, computes this tree's
// digest, and returns an immutable Manifest rooted here. The Builder
// must not be reused afterward.
func (b *Builder) Finalize() (*Manifest, error) {
	entries := make([]Entry, len(b.entries))
	copy(entries, b.entries)
	sortEntries(entries)

	rootDigest := hashTree(entries)
	trees := map[digest.Digest][]Entry{rootDigest: entries}
	blobs := make(map[digest.Digest]struct{})
	for d, e := range b.adopted {
		trees[d] = e
	}
	for d := range b.adoptedBlobs {
		blobs[d] = struct{}{}
	}
	for _, e := range entries {
		if e.Kind == BLOB {
			blobs[e.Digest] = struct{}{}
		}
	}

	return &Manifest{
		root:  Entry{Name: "", Kind: TREE, Mode: dirMode, Digest: rootDigest},
		trees: trees,
		blobs: blobs,
	}, nil
}

// dirMode is the mode recorded on the root TREE entry of every
// finalized Manifest. Non-root TREE entries carry the mode passed to
// AddTree; a filesystem walk passes the directory's permission bits
// plus 0o040000.
const dirMode uint32 = 0755
