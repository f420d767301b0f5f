// Package cli wires the spfs inspection commands onto a cobra root
// command.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spkenv/spfs/internal/colors"
	"github.com/spkenv/spfs/internal/config"
	"github.com/spkenv/spfs/internal/repository"
)

const spfsVersion = "0.1.0"

var (
	version    bool
	storageDir string
	remoteName string
)

var rootCmd = &cobra.Command{
	Use:   "spfs",
	Short: "spfs is a content-addressed object store",
	Long:  "spfs inspects a content-addressed object store: commit directories, render packages, and manage tags.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfg, err := config.Load("."); err == nil {
			colors.SetColorEnabled(cfg.ColorEnabled())
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		if version {
			fmt.Printf("spfs version %s\n", spfsVersion)
			os.Exit(0)
		}
		cmd.Help()
	},
}

// Execute runs the root command, exiting non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&version, "version", false, "print the spfs version")
	rootCmd.PersistentFlags().StringVar(&storageDir, "storage", "", "storage root (overrides storage.root from config)")
	rootCmd.PersistentFlags().StringVar(&remoteName, "remote", "", "operate on the named remote repository instead of the local one")

	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(catCmd)
	rootCmd.AddCommand(verifyCmd)

	tagCmd.AddCommand(tagSetCmd, tagGetCmd)
	rootCmd.AddCommand(tagCmd)
}

// openRepository resolves the repository to operate on: the remote
// named by --remote (via remote.<name>.address from config), or the
// local root from --storage or storage.root.
func openRepository() (*repository.Repository, error) {
	if remoteName != "" {
		cfg, err := config.Load(".")
		if err != nil {
			return nil, err
		}
		return cfg.ResolveRemote(remoteName)
	}
	root := storageDir
	if root == "" {
		cfg, err := config.Load(".")
		if err != nil {
			return nil, err
		}
		root = cfg.Storage.Root
	}
	if root == "" {
		return nil, fmt.Errorf("no storage root configured: pass --storage or set storage.root")
	}
	return repository.Open(root)
}
