// Package digest implements the canonical content hash used across spfs:
// a fixed-width SHA-256 value with a lowercase-hex form for blobs and
// manifests and an unpadded base32 form for user-visible build ids.
package digest

import (
	"crypto/sha256"
	"encoding/base32"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
)

// Size is the width of a Digest in bytes (SHA-256).
const Size = sha256.Size

// Digest is a fixed-width content hash. Two digests compare equal iff
// their raw bytes are equal.
type Digest [Size]byte

// Zero is the all-zero digest, used as a sentinel for "no content"
// (e.g. a MASK entry).
var Zero Digest

// String returns the lowercase hex encoding of d.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Base32 returns the unpadded base32 encoding of d, the form used for
// user-visible build identifiers.
func (d Digest) Base32() string {
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(d[:])
}

// IsZero reports whether d is the zero digest.
func (d Digest) IsZero() bool {
	return d == Zero
}

var base32Enc = base32.StdEncoding.WithPadding(base32.NoPadding)

// srcBuildID is the reserved literal meaning "source build" rather than
// a hash. It never round-trips through ParseHex/ParseBase32.
const srcBuildID = "src"

// ParseHex parses the lowercase-hex form written by String.
func ParseHex(s string) (Digest, error) {
	var d Digest
	raw, err := hex.DecodeString(s)
	if err != nil {
		return d, &Error{Kind: InvalidInput, Detail: fmt.Sprintf("malformed hex digest %q: %v", s, err)}
	}
	if len(raw) != Size {
		return d, &Error{Kind: InvalidInput, Detail: fmt.Sprintf("hex digest %q has %d bytes, want %d", s, len(raw), Size)}
	}
	copy(d[:], raw)
	return d, nil
}

// ParseBase32 parses the unpadded base32 form written by Base32. The
// literal "src" is accepted and reported via isSrc rather than decoded.
func ParseBase32(s string) (d Digest, isSrc bool, err error) {
	if s == srcBuildID {
		return Digest{}, true, nil
	}
	raw, decErr := base32Enc.DecodeString(s)
	if decErr != nil {
		return d, false, &Error{Kind: InvalidInput, Detail: fmt.Sprintf("malformed base32 digest %q: %v", s, decErr)}
	}
	if len(raw) != Size {
		return d, false, &Error{Kind: InvalidInput, Detail: fmt.Sprintf("base32 digest %q has %d bytes, want %d", s, len(raw), Size)}
	}
	copy(d[:], raw)
	return d, false, nil
}

// HashBytes hashes r to completion and returns its digest. It always
// reads the stream to EOF; partial reads never produce a digest.
func HashBytes(r io.Reader) (Digest, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return Digest{}, &Error{Kind: IOError, Detail: err.Error(), cause: err}
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}

// Sum is a convenience wrapper over HashBytes for in-memory content.
func Sum(data []byte) Digest {
	var d Digest
	h := sha256.Sum256(data)
	copy(d[:], h[:])
	return d
}

// HashConcat hashes the length-prefixed concatenation of parts, so that
// HashConcat(a, b) != HashConcat(ab, "") even though the raw
// concatenations of the two part-lists are equal. Every other digest in
// the system reduces to HashBytes; this is the only framing rule.
func HashConcat(parts ...[]byte) Digest {
	h := sha256.New()
	var lenBuf [8]byte
	for _, p := range parts {
		binary.BigEndian.PutUint64(lenBuf[:], uint64(len(p)))
		h.Write(lenBuf[:])
		h.Write(p)
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// NewHashingWriter returns a writer that hashes everything written to it
// while also copying it to dst, so a blob's digest can be computed in a
// single streaming pass instead of a read-then-hash double pass.
func NewHashingWriter(dst io.Writer) *HashingWriter {
	return &HashingWriter{dst: dst, h: sha256.New()}
}

// HashingWriter streams writes through to dst while accumulating a
// running SHA-256 digest.
type HashingWriter struct {
	dst io.Writer
	h   hash.Hash
}

func (w *HashingWriter) Write(p []byte) (int, error) {
	n, err := w.dst.Write(p)
	if n > 0 {
		w.h.Write(p[:n])
	}
	return n, err
}

// Digest returns the running digest of everything written so far.
func (w *HashingWriter) Digest() Digest {
	var d Digest
	copy(d[:], w.h.Sum(nil))
	return d
}
