package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/gitkit"
)

func newLogCmd() *cobra.Command {
	var oneline bool
	var limit int
	var author string
	var since string

	cmd := &cobra.Command{
		Use:   "log [path...]",
		Short: "Show commit history",
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := openRepo(cmd.Context())
			if err != nil {
				return err
			}

			filter := gitkit.LogFilter{
				MaxCount: limit,
				Author:   author,
				Path:     args,
			}
			if since != "" {
				t, parseErr := time.Parse("2006-01-02", since)
				if parseErr != nil {
					return fmt.Errorf("invalid --since date %q; expected YYYY-MM-DD", since)
				}
				filter.Since = &t
			}

			commits, err := repo.Commits(cmd.Context(), filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(commits) == 0 {
				fmt.Fprintln(out, "no commits yet")
				return nil
			}

			for _, c := range commits {
				decoration := formatDecoration(c)
				if oneline {
					if decoration != "" {
						fmt.Fprintf(out, "%s %s %s\n", c.ID.Short(), decoration, c.Subject)
					} else {
						fmt.Fprintf(out, "%s %s\n", c.ID.Short(), c.Subject)
					}
					continue
				}

				if decoration != "" {
					fmt.Fprintf(out, "commit %s %s\n", c.ID, decoration)
				} else {
					fmt.Fprintf(out, "commit %s\n", c.ID)
				}
				fmt.Fprintf(out, "Author: %s <%s>\n", c.Author, c.Email)
				fmt.Fprintf(out, "Date:   %s\n", c.AuthoredAt.Format("2006-01-02 15:04:05"))
				fmt.Fprintln(out)
				fmt.Fprintf(out, "    %s\n", c.Subject)
				if c.Body != "" {
					fmt.Fprintln(out)
					for _, line := range strings.Split(c.Body, "\n") {
						fmt.Fprintf(out, "    %s\n", line)
					}
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&oneline, "oneline", false, "compact one-line format")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of commits to show")
	cmd.Flags().StringVar(&author, "author", "", "filter commits by author name or email substring")
	cmd.Flags().StringVar(&since, "since", "", "only commits after this date (YYYY-MM-DD)")

	return cmd
}

// formatDecoration renders the ref names pointing at a commit, like
// "(HEAD -> main, tag: v1.0.0)".
func formatDecoration(c gitkit.CommitRecord) string {
	var parts []string
	parts = append(parts, c.Branches...)
	for _, tag := range c.Tags {
		parts = append(parts, "tag: "+tag)
	}
	if len(parts) == 0 {
		return ""
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
