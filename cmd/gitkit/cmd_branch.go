package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBranchCmd() *cobra.Command {
	var deleteBranch string
	var listRemotes bool

	cmd := &cobra.Command{
		Use:   "branch [name]",
		Short: "List, create, or delete branches",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo(cmd.Context())
			if err != nil {
				return err
			}

			// Delete mode.
			if deleteBranch != "" {
				if err := repo.DeleteBranch(cmd.Context(), deleteBranch); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted branch '%s'\n", deleteBranch)
				return nil
			}

			// Create mode.
			if len(args) == 1 {
				return repo.CreateBranch(cmd.Context(), args[0], "", false, false)
			}

			// List mode.
			branches, err := repo.Branches(cmd.Context())
			if err != nil {
				return err
			}
			if listRemotes {
				remoteBranches, remoteErr := repo.RemoteBranches(cmd.Context())
				if remoteErr != nil {
					return remoteErr
				}
				branches = append(branches, remoteBranches...)
			}

			out := cmd.OutOrStdout()
			for _, b := range branches {
				marker := " "
				if b.IsCurrent {
					marker = "*"
				}
				if b.Upstream != "" {
					fmt.Fprintf(out, "%s %s [%s] %s\n", marker, b.Name, b.Upstream, b.Subject)
				} else {
					fmt.Fprintf(out, "%s %s %s\n", marker, b.Name, b.Subject)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&deleteBranch, "delete", "d", "", "delete the named branch")
	cmd.Flags().BoolVarP(&listRemotes, "all", "a", false, "include remote-tracking branches")

	return cmd
}
