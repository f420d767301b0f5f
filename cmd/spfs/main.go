// Command spfs is a thin cobra-based inspection CLI over the spfs
// library: commit a directory, render a package back out, and read
// or set tags. It is not a build-script runner or dependency solver.
package main

import (
	"github.com/spkenv/spfs/cmd/spfs/internal/cli"
)

func main() {
	cli.Execute()
}
