package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newStashCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stash",
		Short: "Stash and restore working tree changes",
	}

	var message string
	var includeUntracked bool
	save := &cobra.Command{
		Use:   "save",
		Short: "Stash the current working tree changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadHostConfig()
			if err != nil {
				return err
			}
			repo, err := openRepo(cmd.Context())
			if err != nil {
				return err
			}
			who, err := cfg.signature(cmd.Context(), repo)
			if err != nil {
				return err
			}

			id, err := repo.StashSave(cmd.Context(), message, who, includeUntracked)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved working tree state as %s\n", id.Short())
			return nil
		},
	}
	save.Flags().StringVarP(&message, "message", "m", "", "stash description")
	save.Flags().BoolVarP(&includeUntracked, "include-untracked", "u", false, "stash untracked files too")
	cmd.AddCommand(save)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stash entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo(cmd.Context())
			if err != nil {
				return err
			}
			stashes, err := repo.Stashes(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, s := range stashes {
				fmt.Fprintf(out, "stash@{%d}: %s\n", s.Index, s.Message)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "apply [index]",
		Short: "Reapply a stash entry, keeping it in the list",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := stashIndexArg(args)
			if err != nil {
				return err
			}
			repo, err := openRepo(cmd.Context())
			if err != nil {
				return err
			}
			return repo.StashApply(cmd.Context(), index)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "pop [index]",
		Short: "Reapply a stash entry and drop it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := stashIndexArg(args)
			if err != nil {
				return err
			}
			repo, err := openRepo(cmd.Context())
			if err != nil {
				return err
			}
			return repo.StashPop(cmd.Context(), index)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "drop [index]",
		Short: "Discard a stash entry",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := stashIndexArg(args)
			if err != nil {
				return err
			}
			repo, err := openRepo(cmd.Context())
			if err != nil {
				return err
			}
			if err := repo.StashDrop(cmd.Context(), index); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dropped stash@{%d}\n", index)
			return nil
		},
	})

	return cmd
}

// stashIndexArg parses the optional stash index argument, defaulting to
// the most recent entry.
func stashIndexArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, nil
	}
	index, err := strconv.Atoi(args[0])
	if err != nil || index < 0 {
		return 0, fmt.Errorf("invalid stash index %q", args[0])
	}
	return index, nil
}
