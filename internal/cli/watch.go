package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/interpretive-systems/gitscope/internal/config"
	"github.com/interpretive-systems/gitscope/internal/engine"
	"github.com/interpretive-systems/gitscope/internal/gitx"
	"github.com/interpretive-systems/gitscope/internal/tui"
	"github.com/interpretive-systems/gitscope/internal/watch"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Open the TUI and watch for changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			repoPath := mustGetStringFlag(cmd.Root(), "repo")
			repo, err := gitx.Open(repoPath)
			if err != nil {
				return fmt.Errorf("not a git repo: %w", err)
			}

			cfg, err := config.Load(repo.Root())
			if err != nil {
				return err
			}
			logger, closeLog, err := newLogger(cmd)
			if err != nil {
				return err
			}
			defer closeLog()

			eng := engine.New(repo, cfg.Engine(), logger)
			defer eng.Close()
			eng.SetCredentials(envCredentials)

			deb := engine.NewDebouncer(cfg.DebounceWindow, eng.Invalidate)
			defer deb.Stop()

			w := watch.New(repo.Root(), repo.GitDir(), deb.Signal,
				watch.WithPollInterval(cfg.PollInterval),
				watch.WithForcePoll(cfg.ForcePoll),
				watch.WithIgnores(cfg.WatchIgnores...),
				watch.WithLogger(logger),
			)
			if err := w.Start(); err != nil {
				return fmt.Errorf("start watcher: %w", err)
			}
			defer w.Stop()

			return tui.Run(eng, repo)
		},
	}
	return cmd
}

// envCredentials answers network authentication from the environment.
// An interactive credential prompt is deliberately out of scope here.
func envCredentials(remote string) (string, string, error) {
	return os.Getenv("GITSCOPE_USERNAME"), os.Getenv("GITSCOPE_PASSWORD"), nil
}
