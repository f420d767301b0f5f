package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var commitCmd = &cobra.Command{
	Use:   "commit <path>",
	Short: "Commit a directory tree into the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}
		pkg, err := repo.CommitDir(context.Background(), args[0])
		if err != nil {
			return err
		}
		fmt.Println(pkg.Ref.String())
		return nil
	},
}
