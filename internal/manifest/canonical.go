package manifest

import (
	"bytes"
	"fmt"

	"github.com/spkenv/spfs/internal/digest"
)

// sep is the field separator used inside the canonical tree encoding.
// Entry names are validated to exclude NUL, so this is unambiguous.
const sep = 0x00

// canonicalTreeBytes serializes entries (already sorted per
// sortEntries) as the concatenation, for each child, of: name bytes,
// sep, the mode as fixed-width octal text, sep, the kind tag byte, sep,
// and then the child's hex digest for BLOB, the child's raw digest
// bytes for TREE, or nothing for MASK. This is the single source
// of truth for tree hashing.
func canonicalTreeBytes(entries []Entry) []byte {
	var buf bytes.Buffer
	for _, e := range entries {
		buf.WriteString(e.Name)
		buf.WriteByte(sep)
		fmt.Fprintf(&buf, "%012o", e.Mode)
		buf.WriteByte(sep)
		buf.WriteByte(byte(e.Kind))
		buf.WriteByte(sep)
		switch e.Kind {
		case BLOB:
			buf.WriteString(e.Digest.String())
		case TREE:
			buf.Write(e.Digest[:])
		case MASK:
			// no digest content
		}
	}
	return buf.Bytes()
}

// hashTree computes the digest of a sorted entry list's canonical
// serialization.
func hashTree(entries []Entry) digest.Digest {
	return digest.Sum(canonicalTreeBytes(entries))
}
