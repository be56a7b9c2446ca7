package gitx

import (
	"context"
	"fmt"
	"sort"
)

// Submodules lists the submodules registered in .gitmodules together
// with the commit each one has checked out and whether that matches
// the superproject index.
func (r *Repo) Submodules(ctx context.Context) ([]Submodule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("worktree: %w", err)
	}
	subs, err := wt.Submodules()
	if err != nil {
		return nil, fmt.Errorf("submodules: %w", err)
	}
	out := make([]Submodule, 0, len(subs))
	for _, s := range subs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cfg := s.Config()
		st, err := s.Status()
		if err != nil {
			return nil, fmt.Errorf("submodule %s: %w", cfg.Path, err)
		}
		out = append(out, Submodule{
			Path:  cfg.Path,
			URL:   cfg.URL,
			Hash:  st.Current.String(),
			Clean: st.IsClean(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
