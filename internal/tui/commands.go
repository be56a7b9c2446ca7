package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/interpretive-systems/gitscope/internal/engine"
)

// listenEvents blocks on the engine's notification channel and turns
// the next event into a message. Re-armed after every delivery; the
// blocking wait lives on a bubbletea goroutine, never the render loop.
func listenEvents(eng *engine.Engine) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-eng.Notifications()
		if !ok {
			return engineClosedMsg{}
		}
		return engineEventMsg(ev)
	}
}

// mutate runs a write operation through the engine's exclusive scope
// off the render loop. On success the engine has already bumped the
// generation and refreshed.
func mutate(eng *engine.Engine, op string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return mutationMsg{op: op, err: eng.Mutate(fn)}
	}
}
