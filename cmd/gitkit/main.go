package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	billyfs "github.com/input-output-hk/catalyst-forge-libs/fs/billy"
	"github.com/input-output-hk/catalyst-forge-libs/gitkit"
	"github.com/input-output-hk/catalyst-forge-libs/gitkit/credstore"
)

func main() {
	root := &cobra.Command{
		Use:   "gitkit",
		Short: "Typed Git operations from the command line",
	}

	root.AddCommand(newVersionCmd())
	root.AddCommand(newLogCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newBranchCmd())
	root.AddCommand(newDiffCmd())
	root.AddCommand(newRemoteCmd())
	root.AddCommand(newStashCmd())
	root.AddCommand(newFetchCmd())
	root.AddCommand(newPushCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "gitkit 0.1.0-dev")
		},
	}
}

// openRepo opens the repository rooted at the current working directory.
func openRepo(ctx context.Context) (*gitkit.Repo, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("cannot determine working directory: %w", err)
	}
	return openRepoAt(ctx, wd)
}

func openRepoAt(ctx context.Context, dir string) (*gitkit.Repo, error) {
	repo, err := gitkit.Open(ctx, &gitkit.Options{
		FS:      billyfs.NewOSFS(dir),
		Workdir: ".",
	})
	if err != nil {
		return nil, fmt.Errorf("cannot open repository at %s: %w", dir, err)
	}
	return repo, nil
}

// openRepoWithAuth opens the repository with credential resolution wired
// in for network operations, using the configured secret store.
func openRepoWithAuth(ctx context.Context, cfg hostConfig) (*gitkit.Repo, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("cannot determine working directory: %w", err)
	}

	resolver := &gitkit.CredentialResolver{
		Store:    credstore.NewFile(cfg.Store),
		UseAgent: true,
	}

	repo, err := gitkit.Open(ctx, &gitkit.Options{
		FS:      billyfs.NewOSFS(wd),
		Workdir: ".",
		Auth:    resolver,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot open repository at %s: %w", wd, err)
	}
	return repo, nil
}
