package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spkenv/spfs/internal/digest"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [ref]",
	Short: "Recompute blob digests and report corruption",
	Long:  "With no argument, checks every stored blob against its digest; one corrupt blob does not stop the rest from being checked. With a package ref, checks only the blobs that package references and stops at the first corrupt one.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository()
		if err != nil {
			return err
		}
		if len(args) == 1 {
			ref, err := digest.ParseHex(args[0])
			if err != nil {
				return err
			}
			if err := repo.VerifyPackage(ref); err != nil {
				return err
			}
			fmt.Printf("package %s verified\n", ref)
			return nil
		}
		digests, err := repo.Blobs().List()
		if err != nil {
			return err
		}
		var bad int
		for _, d := range digests {
			if err := repo.Blobs().Verify(d); err != nil {
				fmt.Printf("corrupt: %s: %v\n", d, err)
				bad++
			}
		}
		if bad > 0 {
			return fmt.Errorf("%d corrupt blob(s)", bad)
		}
		fmt.Printf("%d blob(s) verified\n", len(digests))
		return nil
	},
}
