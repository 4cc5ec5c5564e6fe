package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/gitkit"
)

func newFetchCmd() *cobra.Command {
	var prune bool
	var depth int

	cmd := &cobra.Command{
		Use:   "fetch [remote]",
		Short: "Download objects and refs from a remote",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadHostConfig()
			if err != nil {
				return err
			}
			remote := cfg.Remote
			if len(args) == 1 {
				remote = args[0]
			}

			repo, err := openRepoWithAuth(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			err = repo.Fetch(cmd.Context(), remote, prune, depth)
			if errors.Is(err, gitkit.ErrAlreadyUpToDate) {
				fmt.Fprintln(cmd.OutOrStdout(), "already up to date")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fetched %s\n", remote)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&prune, "prune", "p", false, "remove remote-tracking refs that no longer exist")
	cmd.Flags().IntVar(&depth, "depth", 0, "limit fetching to the given number of commits")

	return cmd
}
