package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show staged and unstaged changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if branch, branchErr := repo.CurrentBranch(cmd.Context()); branchErr == nil {
				fmt.Fprintf(out, "On branch %s\n", branch)
			} else {
				fmt.Fprintln(out, "HEAD detached")
			}

			status, err := repo.Status(cmd.Context())
			if err != nil {
				return err
			}

			if status.Clean() {
				fmt.Fprintln(out, "nothing to commit, working tree clean")
				return nil
			}

			if len(status.Staged) > 0 {
				fmt.Fprintln(out, "\nChanges to be committed:")
				for _, f := range status.Staged {
					fmt.Fprintf(out, "  %s  %s\n", f.Code, f.Path)
				}
			}
			if len(status.Unstaged) > 0 {
				fmt.Fprintln(out, "\nChanges not staged for commit:")
				for _, f := range status.Unstaged {
					fmt.Fprintf(out, "  %s  %s\n", f.Code, f.Path)
				}
			}
			return nil
		},
	}
}
