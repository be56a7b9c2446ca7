package tui

import "github.com/interpretive-systems/gitscope/internal/engine"

// engineEventMsg wraps one engine notification for the Update loop.
type engineEventMsg engine.Event

// engineClosedMsg signals that the notification channel is gone and
// the program should stop listening.
type engineClosedMsg struct{}

// mutationMsg reports the outcome of a consumer-issued write
// operation (stage, unstage, commit, checkout).
type mutationMsg struct {
	op  string
	err error
}
