package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spkenv/spfs/internal/digest"
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Manage tags (mutable, append-only aliases for a digest)",
}

var tagSetCmd = &cobra.Command{
	Use:   "set <namespace> <name> <digest>",
	Short: "Append a new digest to a tag's history",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}
		d, err := digest.ParseHex(args[2])
		if err != nil {
			return err
		}
		return repo.SetTag(args[0], args[1], d)
	},
}

var tagGetCmd = &cobra.Command{
	Use:   "get <namespace> <name>",
	Short: "Print a tag's most recently set digest",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}
		d, err := repo.ReadTag(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Println(d.String())
		return nil
	},
}
