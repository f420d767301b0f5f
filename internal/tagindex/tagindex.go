// Package tagindex is an optional bbolt-backed read cache over the
// tag namespace (<root>/tags/<ns>/<name>), rebuilt from the append-only
// text files on open and never treated as the system of record.
// Losing it loses nothing, and the canonical layout underneath it
// needs no locking for correctness.
package tagindex

import (
	"path/filepath"
	"sync"

	"go.etcd.io/bbolt"

	"github.com/spkenv/spfs/internal/digest"
	"github.com/spkenv/spfs/internal/repository"
)

var tagsBucket = []byte("tags")

// Index is a read-through cache mapping "ns/name" to the tag's most
// recently read digest.
type Index struct {
	mu sync.Mutex
	db *bbolt.DB
}

// Open opens (creating if absent) the index database at
// <root>/tagindex.db and rebuilds every entry from repo's tag files.
func Open(root string, repo *repository.Repository) (*Index, error) {
	db, err := bbolt.Open(filepath.Join(root, "tagindex.db"), 0o644, nil)
	if err != nil {
		return nil, digest.WrapIOError("open tagindex.db", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists(tagsBucket)
		return e
	}); err != nil {
		db.Close()
		return nil, digest.WrapIOError("init tagindex buckets", err)
	}

	idx := &Index{db: db}
	if err := idx.rebuild(root, repo); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

// Close releases the underlying database handle.
func (idx *Index) Close() error {
	return idx.db.Close()
}

func key(ns, name string) []byte {
	return []byte(ns + "/" + name)
}

// rebuild re-reads every tag the repository's on-disk namespace knows
// about. This is the only place the index talks to the filesystem
// directly; afterward Lookup/Put serve purely from bbolt.
func (idx *Index) rebuild(root string, repo *repository.Repository) error {
	namespaces, err := listNamespaces(root)
	if err != nil {
		return err
	}
	for _, ns := range namespaces {
		names, err := repo.ListTagNames(ns)
		if err != nil {
			return err
		}
		for _, name := range names {
			d, err := repo.ReadTag(ns, name)
			if err != nil {
				continue // a corrupt single tag does not block the rest of the index
			}
			if err := idx.Put(ns, name, d); err != nil {
				return err
			}
		}
	}
	return nil
}

// Lookup returns the cached digest for (ns, name), and whether it was
// found. A miss does not imply the tag doesn't exist; callers fall
// back to repository.ReadTag, the system of record.
func (idx *Index) Lookup(ns, name string) (digest.Digest, bool) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var hex string
	idx.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(tagsBucket).Get(key(ns, name))
		if v != nil {
			hex = string(v)
		}
		return nil
	})
	if hex == "" {
		return digest.Digest{}, false
	}
	d, err := digest.ParseHex(hex)
	if err != nil {
		return digest.Digest{}, false
	}
	return d, true
}

// Put records the current digest for (ns, name), e.g. right after a
// successful SetTag.
func (idx *Index) Put(ns, name string, d digest.Digest) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	return idx.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(tagsBucket).Put(key(ns, name), []byte(d.String()))
	})
}

func listNamespaces(root string) ([]string, error) {
	entries, err := filepath.Glob(filepath.Join(root, "tags", "*"))
	if err != nil {
		return nil, digest.WrapIOError("glob tags namespaces", err)
	}
	var out []string
	for _, e := range entries {
		out = append(out, filepath.Base(e))
	}
	return out, nil
}
