package repository

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spkenv/spfs/internal/digest"
	"github.com/spkenv/spfs/internal/manifest"
)

// renderInto walks m in canonical order creating directories and
// linking/symlinking leaves, then walks the recorded entries in
// reverse order applying directory modes, so a parent's write bits
// are restored only after its children have already been
// populated. Path collisions (already rendered) are tolerated.
func (r *Repository) renderInto(m *manifest.Manifest, dest string) (string, error) {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return "", digest.WrapIOError("mkdir "+dest, err)
	}

	var entries []manifest.Entry
	var paths []string
	m.Walk(func(path string, e manifest.Entry) bool {
		entries = append(entries, e)
		paths = append(paths, path)
		return true
	})

	for i, e := range entries {
		path := paths[i]
		full := filepath.Join(dest, path)
		switch e.Kind {
		case manifest.TREE:
			if err := os.MkdirAll(full, 0o755); err != nil {
				return "", digest.WrapIOError("mkdir "+full, err)
			}
		case manifest.BLOB:
			if err := r.renderBlob(e, full); err != nil {
				return "", err
			}
		case manifest.MASK:
			// A MASK entry records an intentional absence; nothing to
			// materialize.
		}
	}

	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.Kind != manifest.TREE {
			continue
		}
		full := filepath.Join(dest, paths[i])
		if err := os.Chmod(full, os.FileMode(e.Mode)); err != nil {
			return "", digest.WrapIOError("chmod "+full, err)
		}
	}

	return dest, nil
}

func (r *Repository) renderBlob(e manifest.Entry, full string) error {
	if _, err := os.Lstat(full); err == nil {
		return nil // collision: already rendered, tolerated
	}

	if e.IsSymlink() {
		target, err := r.readBlobString(e.Digest)
		if err != nil {
			return err
		}
		if err := os.Symlink(target, full); err != nil {
			if os.IsExist(err) {
				return nil
			}
			return digest.WrapIOError("symlink "+full, err)
		}
		return nil
	}

	src := filepath.Join(r.blobs.Root(), e.Digest.String())
	if err := os.Link(src, full); err != nil {
		if os.IsExist(err) {
			return nil
		}
		return digest.WrapIOError("link "+src+" -> "+full, err)
	}
	if err := os.Chmod(full, os.FileMode(e.Mode)); err != nil {
		return digest.WrapIOError("chmod "+full, err)
	}
	return nil
}

func (r *Repository) readBlobString(d digest.Digest) (string, error) {
	rc, err := r.blobs.OpenBlob(d)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return "", digest.WrapIOError("read blob "+d.String(), err)
	}
	return string(data), nil
}
