package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spkenv/spfs/internal/digest"
	"github.com/spkenv/spfs/internal/manifest"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every committed package",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}
		pkgs, err := repo.ListPackages()
		if err != nil {
			return err
		}
		for _, pkg := range pkgs {
			fmt.Println(pkg.Ref.String())
		}
		return nil
	},
}

var catCmd = &cobra.Command{
	Use:   "cat <ref>",
	Short: "Print a package's manifest in canonical walk order",
	Args:  cobra.ExactArgs(1),
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
		pkg.Manifest.Walk(func(path string, e manifest.Entry) bool {
			name := path
			if name == "" {
				name = "."
			}
			fmt.Printf("%s\t%04o\t%s\t%s\n", e.Kind, e.Mode, e.Digest, name)
			return true
		})
		return nil
	},
}
