// Package remote resolves a remote.<name>.address configuration value
// into a second Repository. A remote is just another store accessed by
// address; this package only resolves file:// addresses. No network
// code, no new wire protocol.
package remote

import (
	"fmt"
	"net/url"

	"github.com/spkenv/spfs/internal/digest"
	"github.com/spkenv/spfs/internal/repository"
)

// Open resolves address (a file:// URI) and opens the Repository
// rooted there.
func Open(address string) (*repository.Repository, error) {
	u, err := url.Parse(address)
	if err != nil {
		return nil, digest.NewInvalidInput(fmt.Sprintf("parse remote address %q: %v", address, err))
	}
	if u.Scheme != "file" {
		return nil, digest.NewInvalidInput(fmt.Sprintf("unsupported remote scheme %q (only file:// is supported)", u.Scheme))
	}
	path := u.Path
	if path == "" {
		return nil, digest.NewInvalidInput("remote address has no path: " + address)
	}
	return repository.Open(path)
}
