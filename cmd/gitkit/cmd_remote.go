package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRemoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Manage repository remotes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo(cmd.Context())
			if err != nil {
				return err
			}

			remotes, err := repo.Remotes(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, remote := range remotes {
				fmt.Fprintf(out, "%s\t%s (fetch)\n", remote.Name, remote.FetchURL)
				fmt.Fprintf(out, "%s\t%s (push)\n", remote.Name, remote.PushURL)
			}
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <name> <url>",
		Short: "Add a named remote",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo(cmd.Context())
			if err != nil {
				return err
			}
			if err := repo.CreateRemote(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added remote %q -> %s\n", args[0], args[1])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a named remote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo(cmd.Context())
			if err != nil {
				return err
			}
			if err := repo.DeleteRemote(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed remote %q\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a remote and its tracking refs",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo(cmd.Context())
			if err != nil {
				return err
			}
			if err := repo.RenameRemote(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "renamed remote %q -> %q\n", args[0], args[1])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-url <name> <url>",
		Short: "Update a named remote URL",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo(cmd.Context())
			if err != nil {
				return err
			}
			if err := repo.SetRemoteURL(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated remote %q -> %s\n", args[0], args[1])
			return nil
		},
	})

	return cmd
}
