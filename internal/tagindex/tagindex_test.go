package tagindex

import (
	"testing"

	"github.com/spkenv/spfs/internal/digest"
	"github.com/spkenv/spfs/internal/repository"
)

func TestOpenRebuildsFromTagFiles(t *testing.T) {
	root := t.TempDir()
	repo, err := repository.Open(root)
	if err != nil {
		t.Fatalf("repository.Open: %v", err)
	}

	d1 := digest.Sum([]byte("v1"))
	d2 := digest.Sum([]byte("v2"))
	if err := repo.SetTag("releases", "stable", d1); err != nil {
		t.Fatalf("SetTag: %v", err)
	}
	if err := repo.SetTag("releases", "stable", d2); err != nil {
		t.Fatalf("SetTag: %v", err)
	}
	if err := repo.SetTag("builds", "nightly", d1); err != nil {
		t.Fatalf("SetTag: %v", err)
	}

	idx, err := Open(root, repo)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	got, ok := idx.Lookup("releases", "stable")
	if !ok {
		t.Fatalf("expected a cache hit for releases/stable")
	}
	if got != d2 {
		t.Fatalf("expected the most recent digest: got %s want %s", got, d2)
	}
	if got, ok := idx.Lookup("builds", "nightly"); !ok || got != d1 {
		t.Fatalf("expected builds/nightly to resolve to %s, got %s (hit=%v)", d1, got, ok)
	}
}

func TestLookupMissIsNotAnError(t *testing.T) {
	root := t.TempDir()
	repo, err := repository.Open(root)
	if err != nil {
		t.Fatalf("repository.Open: %v", err)
	}
	idx, err := Open(root, repo)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	if _, ok := idx.Lookup("releases", "missing"); ok {
		t.Fatalf("did not expect a hit for a tag that was never set")
	}
}

func TestPutThenLookup(t *testing.T) {
	root := t.TempDir()
	repo, err := repository.Open(root)
	if err != nil {
		t.Fatalf("repository.Open: %v", err)
	}
	idx, err := Open(root, repo)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	d := digest.Sum([]byte("fresh"))
	if err := idx.Put("releases", "edge", d); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if got, ok := idx.Lookup("releases", "edge"); !ok || got != d {
		t.Fatalf("expected Put to be visible to Lookup, got %s (hit=%v)", got, ok)
	}
}
