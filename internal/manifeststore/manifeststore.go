// Package manifeststore serializes a manifest as committed package
// metadata under <pkg-root>/meta/manifest, and re-verifies the
// declared root digest against the reconstructed tree on every read.
package manifeststore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spkenv/spfs/internal/digest"
	"github.com/spkenv/spfs/internal/manifest"
)

// metaRelPath is the path, relative to a package root, of its
// serialized manifest.
const metaRelPath = "meta/manifest"

// Write rewrites the entire manifest from the in-memory representation
// into <pkgRoot>/meta/manifest. There is no incremental patching: every
// write is a full rewrite.
func Write(pkgRoot string, m *manifest.Manifest) error {
	path := filepath.Join(pkgRoot, metaRelPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return digest.WrapIOError("mkdir "+filepath.Dir(path), err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return digest.WrapIOError("create "+tmp, err)
	}

	w := bufio.NewWriter(f)
	var writeErr error
	m.Walk(func(p string, e manifest.Entry) bool {
		writeErr = writeLine(w, p, e)
		return writeErr == nil
	})
	if writeErr == nil {
		writeErr = w.Flush()
	}
	closeErr := f.Close()
	if writeErr != nil {
		os.Remove(tmp)
		return digest.WrapIOError("write "+tmp, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmp)
		return digest.WrapIOError("close "+tmp, closeErr)
	}

	if err := os.Rename(tmp, path); err != nil {
		return digest.WrapIOError("rename "+tmp+" -> "+path, err)
	}
	return nil
}

// writeLine encodes one entry as "kind\tmode\tdigest\tsize\tpath\n",
// where path is the entry's full "/"-joined position in the tree. The
// root entry (path "") is encoded as a bare "." so a reader can
// recognize it without a sentinel column.
func writeLine(w *bufio.Writer, path string, e manifest.Entry) error {
	if path == "" {
		path = "."
	}
	_, err := fmt.Fprintf(w, "%s\t%o\t%s\t%d\t%s\n", e.Kind, e.Mode, e.Digest, e.Size, path)
	return err
}

// Read parses <pkgRoot>/meta/manifest back into a Manifest and
// recomputes its digest, returning digest.ErrCorruption (via
// digest.NewCorruption) if the recomputed root digest disagrees with
// the manifest's own declared structure. Callers elsewhere in the
// system may skip re-verifying on load; this store never does.
func Read(pkgRoot string) (*manifest.Manifest, error) {
	path := filepath.Join(pkgRoot, metaRelPath)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, digest.NewUnknownObject("package", pkgRoot)
		}
		return nil, digest.WrapIOError("open "+path, err)
	}
	defer f.Close()

	var rows []parsedRow

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		row, err := parseLine(line)
		if err != nil {
			return nil, digest.NewCorruption("manifest", path, err.Error())
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, digest.WrapIOError("read "+path, err)
	}

	declaredRoot, ok := findRoot(rows)
	if !ok {
		return nil, digest.NewCorruption("manifest", path, "no root entry recorded")
	}

	rebuilt, err := rebuild(rows)
	if err != nil {
		return nil, digest.NewCorruption("manifest", path, err.Error())
	}
	if rebuilt.Digest() != declaredRoot.Digest {
		return nil, digest.NewCorruption("manifest", path,
			fmt.Sprintf("recomputed root digest %s disagrees with stored %s", rebuilt.Digest(), declaredRoot.Digest))
	}
	return rebuilt, nil
}

type parsedRow struct {
	name string
	e    manifest.Entry
}

func parseLine(line string) (parsedRow, error) {
	fields := strings.SplitN(line, "\t", 5)
	if len(fields) != 5 {
		return parsedRow{}, fmt.Errorf("malformed manifest line %q", line)
	}
	var kind manifest.EntryKind
	switch fields[0] {
	case "blob":
		kind = manifest.BLOB
	case "tree":
		kind = manifest.TREE
	case "mask":
		kind = manifest.MASK
	default:
		return parsedRow{}, fmt.Errorf("unknown entry kind %q", fields[0])
	}

	mode, err := strconv.ParseUint(fields[1], 8, 32)
	if err != nil {
		return parsedRow{}, fmt.Errorf("bad mode %q: %w", fields[1], err)
	}

	var d digest.Digest
	if fields[2] != "" {
		d, err = digest.ParseHex(fields[2])
		if err != nil {
			return parsedRow{}, fmt.Errorf("bad digest %q: %w", fields[2], err)
		}
	}

	size, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return parsedRow{}, fmt.Errorf("bad size %q: %w", fields[3], err)
	}

	name := fields[4]
	if name == "." {
		name = ""
	}

	return parsedRow{name: name, e: manifest.Entry{Kind: kind, Mode: uint32(mode), Digest: d, Size: size}}, nil
}

func findRoot(rows []parsedRow) (manifest.Entry, bool) {
	for _, r := range rows {
		if r.name == "" {
			return r.e, true
		}
	}
	return manifest.Entry{}, false
}

// splitParent divides a "/"-joined path into its parent directory path
// and its leaf name. splitParent("a/b/c") is ("a/b", "c");
// splitParent("a") is ("", "a").
func splitParent(path string) (parent, leaf string) {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

// rebuild reconstructs a Manifest from flattened (path, entry) rows.
// Leaf entries (BLOB, MASK) are added to their parent's Builder
// directly; TREE entries are finalized depth-first, deepest first, so
// that every subtree is a sealed Manifest by the time AddTree folds it
// into its parent.
func rebuild(rows []parsedRow) (*manifest.Manifest, error) {
	builders := map[string]*manifest.Builder{"": manifest.NewBuilder()}
	get := func(path string) *manifest.Builder {
		if b, ok := builders[path]; ok {
			return b
		}
		b := manifest.NewBuilder()
		builders[path] = b
		return b
	}

	var treeRows []parsedRow
	for _, r := range rows {
		if r.name == "" {
			continue // the declared root digest, checked by the caller
		}
		switch r.e.Kind {
		case manifest.BLOB:
			parent, leaf := splitParent(r.name)
			if err := get(parent).Add(leaf, r.e.Mode, r.e.Digest, r.e.Size); err != nil {
				return nil, err
			}
		case manifest.MASK:
			parent, leaf := splitParent(r.name)
			if err := get(parent).Mask(leaf, r.e.Mode); err != nil {
				return nil, err
			}
		case manifest.TREE:
			get(r.name) // ensure this subtree has a builder to finalize
			treeRows = append(treeRows, r)
		}
	}

	sort.SliceStable(treeRows, func(i, j int) bool {
		return strings.Count(treeRows[i].name, "/") > strings.Count(treeRows[j].name, "/")
	})

	for _, r := range treeRows {
		child, err := get(r.name).Finalize()
		if err != nil {
			return nil, err
		}
		parent, leaf := splitParent(r.name)
		if err := get(parent).AddTree(leaf, r.e.Mode, child); err != nil {
			return nil, err
		}
	}

	return get("").Finalize()
}
