package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/gitkit"
)

func newDiffCmd() *cobra.Command {
	var staged bool
	var nameStatus bool

	cmd := &cobra.Command{
		Use:   "diff [rev] [rev]",
		Short: "Show changes between the worktree, index, or revisions",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo(cmd.Context())
			if err != nil {
				return err
			}

			records, err := diffRecords(cmd, repo, args, staged)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, rec := range records {
				if nameStatus {
					fmt.Fprintf(out, "%s\t%s\n", rec.Code, rec.Path)
					continue
				}
				if rec.Binary {
					fmt.Fprintf(out, "Binary file %s differs\n", rec.Path)
					continue
				}
				fmt.Fprint(out, rec.Patch)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&staged, "staged", false, "compare the index against HEAD")
	cmd.Flags().BoolVar(&nameStatus, "name-status", false, "show only change codes and paths")

	return cmd
}

// diffRecords picks the comparison the arguments describe: two revisions,
// the index against HEAD, or the worktree against the index.
func diffRecords(cmd *cobra.Command, repo *gitkit.Repo, args []string, staged bool) ([]gitkit.DiffFileRecord, error) {
	switch {
	case len(args) == 2:
		return repo.DiffFiles(cmd.Context(), args[0], args[1])
	case len(args) == 1:
		return repo.CommitDiffFiles(cmd.Context(), args[0])
	case staged:
		return repo.StagedDiffFiles(cmd.Context())
	default:
		return repo.WorktreeDiffFiles(cmd.Context())
	}
}
