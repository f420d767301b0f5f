package blobstore

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/spkenv/spfs/internal/digest"
)

func TestWriteBlobDedup(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	d1, err := store.WriteBlob(strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	d2, err := store.WriteBlob(strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	if d1 != d2 {
		t.Fatalf("expected identical digests for identical content: %s != %s", d1, d2)
	}

	digests, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(digests) != 1 {
		t.Fatalf("expected exactly one stored blob, got %d", len(digests))
	}
}

func TestOpenBlobRoundTrip(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	d, err := store.WriteBlob(strings.NewReader("round trip"))
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	r, err := store.OpenBlob(d)
	if err != nil {
		t.Fatalf("OpenBlob: %v", err)
	}
	defer r.Close()
	buf := make([]byte, 64)
	n, _ := r.Read(buf)
	if string(buf[:n]) != "round trip" {
		t.Fatalf("got %q, want %q", buf[:n], "round trip")
	}
}

func TestOpenBlobUnknown(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_, err = store.OpenBlob(digest.Sum([]byte("never written")))
	if err == nil {
		t.Fatalf("expected an error for an unknown blob")
	}
	var de *digest.Error
	if !errors.As(err, &de) || de.Kind != digest.UnknownObject {
		t.Fatalf("expected UnknownObject, got %v", err)
	}

	root := store.Root()
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no file to be created by a failed OpenBlob, found %d", len(entries))
	}
}

func TestBlobIsReadOnly(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	d, err := store.WriteBlob(strings.NewReader("immutable"))
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	info, err := os.Stat(store.path(d))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm()&0o222 != 0 {
		t.Fatalf("expected the blob file to be read-only, got mode %o", info.Mode().Perm())
	}
}

func TestVerifyDetectsCorruption(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	d, err := store.WriteBlob(strings.NewReader("trust me"))
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	if err := store.Verify(d); err != nil {
		t.Fatalf("Verify on an intact blob: %v", err)
	}

	path := store.path(d)
	if err := os.Chmod(path, 0o644); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	if err := os.WriteFile(path, []byte("tampered!"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	err = store.Verify(d)
	if err == nil {
		t.Fatalf("expected Verify to detect corruption")
	}
	var de *digest.Error
	if !errors.As(err, &de) || de.Kind != digest.Corruption {
		t.Fatalf("expected Corruption, got %v", err)
	}
}
