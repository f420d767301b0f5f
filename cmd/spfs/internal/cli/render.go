package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spkenv/spfs/internal/digest"
)

var renderCmd = &cobra.Command{
	Use:   "render <ref> <dest>",
	Short: "Render a committed package's manifest onto the filesystem",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}
		ref, err := digest.ParseHex(args[0])
		if err != nil {
			return err
		}
		pkg, err := repo.ReadPackage(ref)
		if err != nil {
			return err
		}
		dest, err := repo.RenderManifest(pkg.Manifest, args[1])
		if err != nil {
			return err
		}
		fmt.Println(dest)
		return nil
	},
}
