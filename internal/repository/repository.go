// Package repository composes the blob store and manifest store into
// the package/tag namespace a caller actually operates on: commit a
// directory, read it back, render it onto disk, and name digests with
// tags.
package repository

import (
	"context"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/spkenv/spfs/internal/blobstore"
	"github.com/spkenv/spfs/internal/digest"
	"github.com/spkenv/spfs/internal/manifest"
	"github.com/spkenv/spfs/internal/manifeststore"
	"github.com/spkenv/spfs/internal/spfslog"
)

// Package is an immutable artifact: one manifest and the blobs it
// references, identified by the manifest's root digest.
type Package struct {
	Ref      digest.Digest
	Manifest *manifest.Manifest
}

// Repository owns one storage root laid out as:
//
//	<root>/objects/blobs/<hex-digest>
//	<root>/objects/packages/<hex-digest>/diff/
//	<root>/objects/packages/<hex-digest>/meta/manifest
//	<root>/tags/<namespace>/<name>
//	<root>/work-<uuid>
type Repository struct {
	root   string
	blobs  *blobstore.BlobStore
	logger *spfslog.Logger
}

// Open opens (creating if absent) a Repository rooted at root.
func Open(root string) (*Repository, error) {
	blobs, err := blobstore.Open(filepath.Join(root, "objects", "blobs"))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(root, "objects", "packages"), 0o755); err != nil {
		return nil, digest.WrapIOError("mkdir objects/packages", err)
	}
	if err := os.MkdirAll(filepath.Join(root, "tags"), 0o755); err != nil {
		return nil, digest.WrapIOError("mkdir tags", err)
	}
	return &Repository{root: root, blobs: blobs, logger: spfslog.Default()}, nil
}

// SetLogger overrides the repository's logger (spfslog.Default by
// default).
func (r *Repository) SetLogger(lg *spfslog.Logger) { r.logger = lg }

// Root returns the repository's storage root.
func (r *Repository) Root() string { return r.root }

// Blobs returns the underlying blob store, for callers that need direct
// blob access (e.g. the render path, or a verify pass).
func (r *Repository) Blobs() *blobstore.BlobStore { return r.blobs }

func (r *Repository) packagesRoot() string {
	return filepath.Join(r.root, "objects", "packages")
}

func (r *Repository) packageDir(ref digest.Digest) string {
	return filepath.Join(r.packagesRoot(), ref.String())
}

func (r *Repository) workPath() string {
	return filepath.Join(r.root, "work-"+uuid.NewString())
}

// CommitDir computes path's manifest (writing every blob along the
// way), renders that manifest into a work-<uuid> staging directory,
// persists the manifest there, then renames the whole staging
// directory into place under the manifest's own digest. If a concurrent committer already finished first, the
// staging tree is discarded and the existing package is returned; the
// winner is never touched or overwritten.
func (r *Repository) CommitDir(ctx context.Context, path string) (*Package, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := manifest.ComputeManifest(path, r.blobs)
	if err != nil {
		return nil, err
	}

	final := r.packageDir(m.Digest())
	if _, err := os.Stat(final); err == nil {
		r.logger.Debugf("commit_dir %s: package already exists, returning existing", m.Digest())
		return r.ReadPackage(m.Digest())
	}

	staging := r.workPath()
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, digest.WrapIOError("mkdir "+staging, err)
	}

	if _, err := r.renderInto(m, filepath.Join(staging, "diff")); err != nil {
		os.RemoveAll(staging)
		return nil, err
	}
	if err := manifeststore.Write(staging, m); err != nil {
		os.RemoveAll(staging)
		return nil, err
	}

	if err := os.Rename(staging, final); err != nil {
		if _, statErr := os.Stat(final); statErr == nil {
			r.logger.Debugf("commit_dir %s: lost race to a concurrent committer, discarding staging tree", m.Digest())
			os.RemoveAll(staging)
			return r.ReadPackage(m.Digest())
		}
		os.RemoveAll(staging)
		return nil, digest.WrapIOError("rename "+staging+" -> "+final, err)
	}

	return &Package{Ref: m.Digest(), Manifest: m}, nil
}

// ReadPackage loads a committed package by its manifest digest.
func (r *Repository) ReadPackage(ref digest.Digest) (*Package, error) {
	dir := r.packageDir(ref)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, digest.NewUnknownObject("package", ref.String())
		}
		return nil, digest.WrapIOError("stat "+dir, err)
	}
	m, err := manifeststore.Read(dir)
	if err != nil {
		return nil, err
	}
	return &Package{Ref: ref, Manifest: m}, nil
}

// RemovePackage best-effort removes a committed package.
func (r *Repository) RemovePackage(ref digest.Digest) error {
	dir := r.packageDir(ref)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return digest.NewUnknownObject("package", ref.String())
		}
		return digest.WrapIOError("stat "+dir, err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return digest.WrapIOError("remove "+dir, err)
	}
	return nil
}

// ListPackages enumerates every committed package. A missing package
// root is treated as empty, never an error.
func (r *Repository) ListPackages() ([]Package, error) {
	entries, err := os.ReadDir(r.packagesRoot())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, digest.WrapIOError("readdir "+r.packagesRoot(), err)
	}
	var out []Package
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		d, err := digest.ParseHex(e.Name())
		if err != nil {
			continue
		}
		pkg, err := r.ReadPackage(d)
		if err != nil {
			return nil, err
		}
		out = append(out, *pkg)
	}
	return out, nil
}

// RenderManifest materializes m as hardlinks and symlinks under dest,
// returning dest on success.
func (r *Repository) RenderManifest(m *manifest.Manifest, dest string) (string, error) {
	return r.renderInto(m, dest)
}

// VerifyPackage recomputes the digest of every blob a committed
// package references, returning the first Corruption found. One corrupt
// blob does not affect operations on other blobs or packages.
func (r *Repository) VerifyPackage(ref digest.Digest) error {
	pkg, err := r.ReadPackage(ref)
	if err != nil {
		return err
	}
	for _, d := range pkg.Manifest.Blobs() {
		if err := r.blobs.Verify(d); err != nil {
			return err
		}
	}
	return nil
}
