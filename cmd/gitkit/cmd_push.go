package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/gitkit"
)

func newPushCmd() *cobra.Command {
	var force bool
	var tags bool

	cmd := &cobra.Command{
		Use:   "push [remote]",
		Short: "Upload the current branch to a remote",
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

			if tags {
				err = repo.PushTags(cmd.Context(), remote)
			} else {
				err = repo.Push(cmd.Context(), remote, force)
			}
			if errors.Is(err, gitkit.ErrAlreadyUpToDate) {
				fmt.Fprintln(cmd.OutOrStdout(), "everything up to date")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pushed to %s\n", remote)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "force push, overwriting remote history")
	cmd.Flags().BoolVar(&tags, "tags", false, "push all local tags instead of the current branch")

	return cmd
}
