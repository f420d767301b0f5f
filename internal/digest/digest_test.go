package digest

import (
	"errors"
	"strings"
	"testing"
)

func TestHashBytesDeterministic(t *testing.T) {
	a, err := HashBytes(strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("HashBytes: %v", err)
	}
	b, err := HashBytes(strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("HashBytes: %v", err)
	}
	if a != b {
		t.Fatalf("HashBytes not deterministic: %s != %s", a, b)
	}
	const wantHex = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if a.String() != wantHex {
		t.Fatalf("HashBytes(\"hello\") = %s, want %s", a, wantHex)
	}
}

func TestHashConcatNotConfusable(t *testing.T) {
	ab := HashConcat([]byte("a"), []byte("b"))
	abEmpty := HashConcat([]byte("ab"), []byte(""))
	if ab == abEmpty {
		t.Fatalf("HashConcat(a,b) must differ from HashConcat(ab,\"\")")
	}
}

func TestParseHexRoundTrip(t *testing.T) {
	d := Sum([]byte("round trip me"))
	parsed, err := ParseHex(d.String())
	if err != nil {
		t.Fatalf("ParseHex: %v", err)
	}
	if parsed != d {
		t.Fatalf("round trip mismatch: %s != %s", parsed, d)
	}
}

func TestParseBase32RoundTrip(t *testing.T) {
	d := Sum([]byte("build id"))
	parsed, isSrc, err := ParseBase32(d.Base32())
	if err != nil {
		t.Fatalf("ParseBase32: %v", err)
	}
	if isSrc {
		t.Fatalf("did not expect the src sentinel")
	}
	if parsed != d {
		t.Fatalf("round trip mismatch: %s != %s", parsed, d)
	}
}

func TestParseBase32SrcSentinel(t *testing.T) {
	_, isSrc, err := ParseBase32("src")
	if err != nil {
		t.Fatalf("ParseBase32(src): %v", err)
	}
	if !isSrc {
		t.Fatalf("expected src to parse as the source-build sentinel")
	}
}

func TestParseHexInvalid(t *testing.T) {
	_, err := ParseHex("not-hex")
	if err == nil {
		t.Fatalf("expected an error for invalid hex")
	}
	var de *Error
	if !errors.As(err, &de) || de.Kind != InvalidInput {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}

func TestHashingWriter(t *testing.T) {
	var buf strings.Builder
	hw := NewHashingWriter(&buf)
	if _, err := hw.Write([]byte("hello")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.String() != "hello" {
		t.Fatalf("HashingWriter did not tee to dst: got %q", buf.String())
	}
	want := Sum([]byte("hello"))
	if hw.Digest() != want {
		t.Fatalf("HashingWriter digest mismatch: got %s want %s", hw.Digest(), want)
	}
}

func TestErrorIsByKind(t *testing.T) {
	err := NewUnknownObject("blob", "abc")
	if !errors.Is(err, ErrUnknownObject) {
		t.Fatalf("expected errors.Is to match ErrUnknownObject")
	}
	if errors.Is(err, ErrCorruption) {
		t.Fatalf("did not expect errors.Is to match a different kind")
	}
}
