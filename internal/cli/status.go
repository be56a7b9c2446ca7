package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/interpretive-systems/gitscope/internal/gitx"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print a one-shot colored status summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			repoPath := mustGetStringFlag(cmd.Root(), "repo")
			repo, err := gitx.Open(repoPath)
			if err != nil {
				return fmt.Errorf("not a git repo: %w", err)
			}
			ctx := context.Background()

			head, err := repo.Head()
			if err != nil {
				return err
			}
			files, err := repo.Status(ctx)
			if err != nil {
				return err
			}
			stashes, err := repo.Stashes(ctx)
			if err != nil {
				return err
			}

			bold := color.New(color.Bold)
			green := color.New(color.FgGreen)
			red := color.New(color.FgRed)
			yellow := color.New(color.FgYellow)

			bold.Printf("on %s", head)
			if len(stashes) > 0 {
				fmt.Printf("  (%d stashed)", len(stashes))
			}
			fmt.Println()

			if len(files) == 0 {
				green.Println("working tree clean")
				return nil
			}
			for _, f := range files {
				switch {
				case f.Untracked:
					yellow.Printf("?? %s\n", f.Path)
				case f.Deleted:
					red.Printf(" D %s\n", f.Path)
				case f.Staged && !f.Unstaged:
					green.Printf("S  %s\n", f.Path)
				case f.Staged && f.Unstaged:
					yellow.Printf("SM %s\n", f.Path)
				default:
					red.Printf(" M %s\n", f.Path)
				}
			}
			return nil
		},
	}
	return cmd
}
