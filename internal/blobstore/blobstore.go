// Package blobstore implements content-addressed storage of opaque
// byte streams backed by a flat directory, one file per digest.
// Writes stream-hash into a UUID-named work file and rename it into
// place, so concurrent writers never collide and a crash mid-write
// never leaves a partial file at its final name.
package blobstore

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/spkenv/spfs/internal/digest"
)

// BlobStore is a flat, content-addressed directory of read-only files.
type BlobStore struct {
	root string
}

// Open returns a BlobStore rooted at root, creating it if absent.
func Open(root string) (*BlobStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, digest.WrapIOError("mkdir "+root, err)
	}
	return &BlobStore{root: root}, nil
}

// Root returns the store's backing directory.
func (s *BlobStore) Root() string { return s.root }

func (s *BlobStore) path(d digest.Digest) string {
	return filepath.Join(s.root, d.String())
}

func (s *BlobStore) workPath() string {
	return filepath.Join(s.root, "work-"+uuid.NewString())
}

// Has reports whether a blob with digest d is present.
func (s *BlobStore) Has(d digest.Digest) bool {
	_, err := os.Stat(s.path(d))
	return err == nil
}

// OpenBlob returns a reader over the blob named d. A reader that
// observes the file at all observes a complete, immutable blob;
// partial writes are never visible under their final name.
func (s *BlobStore) OpenBlob(d digest.Digest) (io.ReadCloser, error) {
	f, err := os.Open(s.path(d))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, digest.NewUnknownObject("blob", d.String())
		}
		return nil, digest.WrapIOError("open blob "+d.String(), err)
	}
	return f, nil
}

// WriteBlob streams r into a randomly-named work file, hashing
// concurrently with the copy, then renames it atomically into place
// and marks it read-only. If a blob with the resulting digest already
// exists, the work file is discarded and the existing digest is
// returned unchanged. The operation is idempotent and safe under
// concurrent writers of identical content.
func (s *BlobStore) WriteBlob(r io.Reader) (digest.Digest, error) {
	work := s.workPath()
	f, err := os.OpenFile(work, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return digest.Digest{}, digest.WrapIOError("create "+work, err)
	}

	hw := digest.NewHashingWriter(f)
	_, copyErr := io.Copy(hw, r)
	closeErr := f.Close()
	if copyErr != nil {
		os.Remove(work)
		return digest.Digest{}, digest.WrapIOError("write "+work, copyErr)
	}
	if closeErr != nil {
		os.Remove(work)
		return digest.Digest{}, digest.WrapIOError("close "+work, closeErr)
	}

	d := hw.Digest()
	final := s.path(d)

	// rename(2) would silently replace an existing blob; keep the
	// existing file untouched instead.
	if s.Has(d) {
		os.Remove(work)
		return d, nil
	}

	if err := os.Rename(work, final); err != nil {
		// Another writer won the race for this digest: discard ours.
		if _, statErr := os.Stat(final); statErr == nil {
			os.Remove(work)
			return d, nil
		}
		os.Remove(work)
		return digest.Digest{}, digest.WrapIOError("rename "+work+" -> "+final, err)
	}

	if err := os.Chmod(final, 0o444); err != nil {
		return digest.Digest{}, digest.WrapIOError("chmod "+final, err)
	}

	return d, nil
}

// Verify recomputes the digest of the blob named d and reports
// Corruption if it disagrees with the name under which it is stored.
// Other blobs are unaffected by one blob's corruption.
func (s *BlobStore) Verify(d digest.Digest) error {
	r, err := s.OpenBlob(d)
	if err != nil {
		return err
	}
	defer r.Close()

	got, err := digest.HashBytes(r)
	if err != nil {
		return err
	}
	if got != d {
		return digest.NewCorruption("blob", d.String(), "recomputed digest "+got.String()+" disagrees with stored name")
	}
	return nil
}

// List enumerates every blob digest currently stored. Work-in-progress
// temp files (named work-<uuid>) are skipped.
func (s *BlobStore) List() ([]digest.Digest, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, digest.WrapIOError("readdir "+s.root, err)
	}
	var out []digest.Digest
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(e.Name(), "work-") {
			continue
		}
		d, err := digest.ParseHex(e.Name())
		if err != nil {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}
