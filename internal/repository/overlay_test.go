package repository

import (
	"testing"

	"github.com/spkenv/spfs/internal/digest"
	"github.com/spkenv/spfs/internal/manifest"
)

func mustFinalize(t *testing.T, b *manifest.Builder) *manifest.Manifest {
	t.Helper()
	m, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return m
}

func TestOverlayAddsAndReplaces(t *testing.T) {
	baseB := manifest.NewBuilder()
	if err := baseB.Add("keep.txt", 0o644, digest.Sum([]byte("keep")), 4); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := baseB.Add("replace.txt", 0o644, digest.Sum([]byte("old")), 3); err != nil {
		t.Fatalf("Add: %v", err)
	}
	base := mustFinalize(t, baseB)

	overlayB := manifest.NewBuilder()
	if err := overlayB.Add("replace.txt", 0o644, digest.Sum([]byte("new")), 3); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := overlayB.Add("added.txt", 0o644, digest.Sum([]byte("added")), 5); err != nil {
		t.Fatalf("Add: %v", err)
	}
	overlay := mustFinalize(t, overlayB)

	merged, err := Overlay(base, overlay)
	if err != nil {
		t.Fatalf("Overlay: %v", err)
	}

	keep, err := merged.GetPath("keep.txt")
	if err != nil || keep == nil {
		t.Fatalf("GetPath(keep.txt): %v, %v", keep, err)
	}
	replaced, err := merged.GetPath("replace.txt")
	if err != nil || replaced == nil {
		t.Fatalf("GetPath(replace.txt): %v, %v", replaced, err)
	}
	if replaced.Digest != digest.Sum([]byte("new")) {
		t.Fatalf("expected overlay's content to win for replace.txt")
	}
	added, err := merged.GetPath("added.txt")
	if err != nil || added == nil {
		t.Fatalf("GetPath(added.txt): %v, %v", added, err)
	}
}

func TestOverlayBlobShadowsBaseDirectory(t *testing.T) {
	baseB := manifest.NewBuilder()
	dirB := manifest.NewBuilder()
	if err := dirB.Add("child.txt", 0o644, digest.Sum([]byte("child")), 5); err != nil {
		t.Fatalf("Add: %v", err)
	}
	dir := mustFinalize(t, dirB)
	if err := baseB.AddTree("conflicted", 0o755, dir); err != nil {
		t.Fatalf("AddTree: %v", err)
	}
	base := mustFinalize(t, baseB)

	overlayB := manifest.NewBuilder()
	if err := overlayB.Add("conflicted", 0o644, digest.Sum([]byte("now a file")), 10); err != nil {
		t.Fatalf("Add: %v", err)
	}
	overlay := mustFinalize(t, overlayB)

	merged, err := Overlay(base, overlay)
	if err != nil {
		t.Fatalf("Overlay: %v", err)
	}

	e, err := merged.GetPath("conflicted")
	if err != nil || e == nil {
		t.Fatalf("GetPath(conflicted): %v, %v", e, err)
	}
	if e.Kind != manifest.BLOB {
		t.Fatalf("expected the overlay's file to replace the base directory, got kind %s", e.Kind)
	}
	child, err := merged.GetPath("conflicted/child.txt")
	if err == nil && child != nil {
		t.Fatalf("expected the base directory's children to disappear, found %+v", child)
	}
}

func TestOverlayMaskRemovesSubtree(t *testing.T) {
	baseB := manifest.NewBuilder()
	dirB := manifest.NewBuilder()
	if err := dirB.Add("c.txt", 0o644, digest.Sum([]byte("c")), 1); err != nil {
		t.Fatalf("Add: %v", err)
	}
	dir := mustFinalize(t, dirB)
	if err := baseB.AddTree("dir", 0o755, dir); err != nil {
		t.Fatalf("AddTree: %v", err)
	}
	base := mustFinalize(t, baseB)

	overlayB := manifest.NewBuilder()
	if err := overlayB.Mask("dir", 0); err != nil {
		t.Fatalf("Mask: %v", err)
	}
	overlay := mustFinalize(t, overlayB)

	merged, err := Overlay(base, overlay)
	if err != nil {
		t.Fatalf("Overlay: %v", err)
	}

	gone, err := merged.GetPath("dir")
	if err != nil {
		t.Fatalf("GetPath(dir): %v", err)
	}
	if gone != nil {
		t.Fatalf("expected dir to be removed by the mask, found %+v", gone)
	}
	goneChild, err := merged.GetPath("dir/c.txt")
	if err != nil {
		t.Fatalf("GetPath(dir/c.txt): %v", err)
	}
	if goneChild != nil {
		t.Fatalf("expected dir/c.txt to be removed along with its masked parent")
	}
}
