package manifest

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/spkenv/spfs/internal/digest"
)

// BlobSink is the narrow interface ComputeManifest needs from the blob
// store: stream a file's content in, get its digest back. Decoupling
// the walk from blobstore.BlobStore keeps this package free of a
// storage dependency.
type BlobSink interface {
	WriteBlob(r io.Reader) (digest.Digest, error)
}

// ComputeManifest recursively walks root, producing a fully-hashed
// Manifest. Every regular file and symlink encountered is streamed
// through sink so its bytes land in the blob store as a side effect of
// computing the manifest, matching the commit data flow in the
// component overview: walk produces entries; each leaf's content
// stream is written through the blob store, which returns its digest.
func ComputeManifest(root string, sink BlobSink) (*Manifest, error) {
	b := NewBuilder()
	if err := computeInto(root, b, sink); err != nil {
		return nil, err
	}
	return b.Finalize()
}

// ComputeEntry walks one sub-path into an existing builder under name,
// used to merge subtrees (e.g. layer stacking) without re-finalizing
// the parent.
func ComputeEntry(path string, name string, mode uint32, into *Builder, sink BlobSink) error {
	info, err := os.Lstat(path)
	if err != nil {
		return digest.WrapIOError("lstat "+path, err)
	}
	if info.IsDir() {
		sub := NewBuilder()
		if err := computeInto(path, sub, sink); err != nil {
			return err
		}
		child, err := sub.Finalize()
		if err != nil {
			return err
		}
		return into.AddTree(name, mode, child)
	}
	d, size, leafMode, err := hashLeaf(path, info, sink)
	if err != nil {
		return err
	}
	return into.Add(name, leafMode|mode&0o777, d, size)
}

// computeInto walks the immediate contents of dir into b, recursing
// into subdirectories with fresh sub-builders.
func computeInto(dir string, b *Builder, sink BlobSink) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return digest.WrapIOError("readdir "+dir, err)
	}
	names := make([]string, len(entries))
	byName := make(map[string]fs.DirEntry, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
		byName[e.Name()] = e
	}
	sort.Strings(names)

	for _, name := range names {
		entry := byName[name]
		childPath := filepath.Join(dir, name)
		if !utf8.ValidString(name) {
			return digest.NewInvalidInput("path is not valid UTF-8: " + childPath)
		}
		info, err := entry.Info()
		if err != nil {
			return digest.WrapIOError("stat "+childPath, err)
		}

		switch {
		case info.IsDir():
			sub := NewBuilder()
			if err := computeInto(childPath, sub, sink); err != nil {
				return err
			}
			child, err := sub.Finalize()
			if err != nil {
				return err
			}
			if err := b.AddTree(name, uint32(info.Mode().Perm())|0o040000, child); err != nil {
				return err
			}
		default:
			d, size, mode, err := hashLeaf(childPath, info, sink)
			if err != nil {
				return err
			}
			if err := b.Add(name, mode, d, size); err != nil {
				return err
			}
		}
	}
	return nil
}

// hashLeaf streams a regular file's bytes, or a symlink's UTF-8 target,
// through sink and returns the resulting digest, size, and mode. A
// symlink's digest is identical to a regular file's digest over the
// same bytes; renderers distinguish by mode, never by digest.
func hashLeaf(path string, info fs.FileInfo, sink BlobSink) (d digest.Digest, size int64, mode uint32, err error) {
	if info.Mode()&fs.ModeSymlink != 0 {
		target, lerr := os.Readlink(path)
		if lerr != nil {
			return d, 0, 0, digest.WrapIOError("readlink "+path, lerr)
		}
		if !utf8.ValidString(target) {
			return d, 0, 0, digest.NewInvalidInput("symlink target is not valid UTF-8: " + path)
		}
		d, err = sink.WriteBlob(strings.NewReader(target))
		if err != nil {
			return d, 0, 0, err
		}
		return d, int64(len(target)), ModeSymlink | 0o644, nil
	}

	f, oerr := os.Open(path)
	if oerr != nil {
		return d, 0, 0, digest.WrapIOError("open "+path, oerr)
	}
	defer f.Close()

	d, err = sink.WriteBlob(f)
	if err != nil {
		return d, 0, 0, err
	}
	return d, info.Size(), uint32(info.Mode().Perm()), nil
}
