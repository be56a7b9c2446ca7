// Package tui is the interactive consumer of the query engine. The
// render loop never talks to the repository directly: it submits
// requests, waits for notifications, and redraws from the result
// cache.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/interpretive-systems/gitscope/internal/diffview"
	"github.com/interpretive-systems/gitscope/internal/engine"
	"github.com/interpretive-systems/gitscope/internal/gitx"
	"github.com/interpretive-systems/gitscope/internal/prefs"
	"github.com/interpretive-systems/gitscope/internal/tui/components"
)

type pane int

const (
	paneDiff pane = iota
	paneLog
	paneBlame
)

type model struct {
	eng  *engine.Engine
	repo *gitx.Repo

	theme     Theme
	width     int
	height    int
	leftWidth int

	pane       pane
	stagedMode bool
	sideBySide bool
	wrap       bool

	fileList  *components.FileList
	statusBar *components.StatusBar
	rightVP   viewport.Model

	rows    []diffview.Row
	commits []gitx.Commit
	blame   []gitx.BlameLine

	showHelp    bool
	showCommit  bool
	commitInput textinput.Model

	quitting bool
}

// Run starts the Bubble Tea program over an engine and repository
// handle whose lifecycle the caller owns.
func Run(eng *engine.Engine, repo *gitx.Repo) error {
	p := prefs.Load(repo)
	m := newModel(eng, repo, p)
	prog := tea.NewProgram(m, tea.WithAltScreen())
	_, err := prog.Run()
	return err
}

func newModel(eng *engine.Engine, repo *gitx.Repo, p prefs.Prefs) model {
	ti := textinput.New()
	ti.Placeholder = "commit message"
	ti.CharLimit = 200

	m := model{
		eng:         eng,
		repo:        repo,
		theme:       defaultTheme(),
		sideBySide:  true,
		fileList:    components.NewFileList(),
		statusBar:   components.NewStatusBar(),
		commitInput: ti,
	}
	if p.SideSet {
		m.sideBySide = p.SideBySide
	}
	if p.WrapSet {
		m.wrap = p.Wrap
	}
	if p.LeftSet {
		m.leftWidth = p.LeftWidth
	}
	return m
}

func (m model) Init() tea.Cmd {
	// Prime every view the UI can show; results arrive as
	// notifications and land in the cache.
	for _, k := range []engine.Kind{
		engine.KindStatus,
		engine.KindBranches,
		engine.KindTags,
		engine.KindRemotes,
		engine.KindStashes,
		engine.KindSubmodules,
	} {
		m.eng.Submit(m.eng.NewRequest(k, engine.Params{}))
	}
	m.eng.Submit(m.eng.NewRequest(engine.KindLog, engine.Params{}))
	return listenEvents(m.eng)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.leftWidth == 0 {
			m.leftWidth = m.width / 3
			if m.leftWidth < 24 {
				m.leftWidth = 24
			}
		}
		m.recalcViewport()
		return m, nil
	case engineEventMsg:
		return m.handleEvent(engine.Event(msg))
	case engineClosedMsg:
		return m, nil
	case mutationMsg:
		if msg.err != nil {
			m.statusBar.SetError(fmt.Sprintf("%s failed: %v", msg.op, msg.err))
		} else {
			m.statusBar.SetMessage(msg.op + " done")
		}
		return m, nil
	}
	return m, nil
}

func (m model) handleEvent(ev engine.Event) (tea.Model, tea.Cmd) {
	switch ev.Type {
	case engine.EventDataReady:
		m.absorb(ev.Kind)
	case engine.EventProgress:
		if ev.Fraction >= 0 {
			m.statusBar.SetProgress(fmt.Sprintf("%s… %d%%", ev.Kind, int(ev.Fraction*100)))
		} else {
			m.statusBar.SetProgress(fmt.Sprintf("%s…", ev.Kind))
		}
	case engine.EventFailed:
		m.statusBar.SetProgress("")
		m.statusBar.SetError(fmt.Sprintf("%s: %s", ev.Kind, ev.Err))
	}
	m.recalcViewport()
	return m, listenEvents(m.eng)
}

// absorb re-reads the cache for one kind and folds the committed
// entry into view state. Notifications carry no payload on purpose.
func (m *model) absorb(kind engine.Kind) {
	switch kind {
	case engine.KindStatus:
		entry, ok := m.eng.Latest(engine.KindStatus)
		if !ok {
			return
		}
		files, _ := entry.Payload.([]gitx.FileChange)
		before := m.selectedPath()
		m.fileList.SetFiles(m.visibleFiles(files))
		m.statusBar.SetLastRefresh(time.Now())
		if m.selectedPath() != before {
			m.rows = nil
			m.submitDiff()
		}
	case engine.KindDiff:
		if entry, ok := m.eng.Lookup(engine.KindDiff, m.diffParams()); ok {
			text, _ := entry.Payload.(string)
			m.rows = diffview.BuildRowsFromUnified(text)
		}
	case engine.KindLog:
		if entry, ok := m.eng.Latest(engine.KindLog); ok {
			m.commits, _ = entry.Payload.([]gitx.Commit)
		}
	case engine.KindBlame:
		if entry, ok := m.eng.Lookup(engine.KindBlame, m.blameParams()); ok {
			m.blame, _ = entry.Payload.([]gitx.BlameLine)
		}
	case engine.KindBranches:
		if entry, ok := m.eng.Latest(engine.KindBranches); ok {
			refs, _ := entry.Payload.([]gitx.Ref)
			for _, r := range refs {
				if r.Head {
					m.statusBar.SetBranch(r.Name)
					break
				}
			}
		}
	case engine.KindStashes:
		if entry, ok := m.eng.Latest(engine.KindStashes); ok {
			stashes, _ := entry.Payload.([]gitx.Stash)
			m.statusBar.SetStashCount(len(stashes))
		}
	case engine.KindSubmodules:
		if entry, ok := m.eng.Latest(engine.KindSubmodules); ok {
			subs, _ := entry.Payload.([]gitx.Submodule)
			dirty := 0
			for _, s := range subs {
				if !s.Clean {
					dirty++
				}
			}
			m.statusBar.SetSubmoduleCounts(len(subs), dirty)
		}
	case engine.KindFetch, engine.KindPush:
		m.statusBar.SetProgress("")
		if entry, ok := m.eng.Latest(kind); ok {
			if res, ok := entry.Payload.(gitx.SyncResult); ok {
				m.statusBar.SetMessage(res.Detail)
			}
		}
	}
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		switch msg.String() {
		case "q", "h", "esc":
			m.showHelp = false
		}
		return m, nil
	}
	if m.showCommit {
		return m.handleCommitKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit
	case "h":
		m.showHelp = true
		return m, nil
	case "j", "down":
		if m.fileList.MoveSelection(1) {
			return m.onSelectionChange()
		}
	case "k", "up":
		if m.fileList.MoveSelection(-1) {
			return m.onSelectionChange()
		}
	case "g":
		if m.fileList.GoToTop() {
			return m.onSelectionChange()
		}
	case "G":
		if m.fileList.GoToBottom() {
			return m.onSelectionChange()
		}
	case "tab":
		m.stagedMode = !m.stagedMode
		m.rows = nil
		m.absorb(engine.KindStatus)
		m.submitDiff()
		m.recalcViewport()
	case "s":
		if sel := m.fileList.SelectedFile(); sel != nil {
			path := sel.Path
			return m, mutate(m.eng, "stage", func() error {
				return m.repo.Stage([]string{path})
			})
		}
	case "u":
		if sel := m.fileList.SelectedFile(); sel != nil {
			path := sel.Path
			return m, mutate(m.eng, "unstage", func() error {
				return m.repo.Unstage([]string{path})
			})
		}
	case "c":
		m.showCommit = true
		m.commitInput.SetValue("")
		m.commitInput.Focus()
		return m, textinput.Blink
	case "f":
		m.statusBar.SetProgress("fetch…")
		m.eng.Submit(m.eng.NewRequest(engine.KindFetch, engine.Params{Remote: "origin"}))
	case "p":
		m.statusBar.SetProgress("push…")
		m.eng.Submit(m.eng.NewRequest(engine.KindPush, engine.Params{Remote: "origin"}))
	case "b":
		if m.pane != paneBlame {
			m.pane = paneBlame
			m.blame = nil
			if sel := m.fileList.SelectedFile(); sel != nil {
				m.eng.Submit(m.eng.NewRequest(engine.KindBlame, m.blameParams()))
			}
		} else {
			m.pane = paneDiff
		}
		m.recalcViewport()
	case "l":
		if m.pane != paneLog {
			m.pane = paneLog
			m.eng.Submit(m.eng.NewRequest(engine.KindLog, engine.Params{}))
		} else {
			m.pane = paneDiff
		}
		m.recalcViewport()
	case "esc":
		m.pane = paneDiff
		m.recalcViewport()
	case "r":
		// Manual refresh: same path as an external change.
		m.eng.Invalidate()
	case "v":
		m.sideBySide = !m.sideBySide
		_ = prefs.SaveSideBySide(m.repo, m.sideBySide)
		m.recalcViewport()
	case "w":
		m.wrap = !m.wrap
		_ = prefs.SaveWrap(m.repo, m.wrap)
		m.recalcViewport()
	case "<", "H":
		m.leftWidth = clamp(m.leftWidth-2, 20, max(20, m.width-20))
		_ = prefs.SaveLeftWidth(m.repo, m.leftWidth)
		m.recalcViewport()
	case ">", "L":
		m.leftWidth = clamp(m.leftWidth+2, 20, max(20, m.width-20))
		_ = prefs.SaveLeftWidth(m.repo, m.leftWidth)
		m.recalcViewport()
	case "pgdown":
		m.rightVP.PageDown()
	case "pgup":
		m.rightVP.PageUp()
	case "J", "ctrl+d":
		m.rightVP.HalfPageDown()
	case "K", "ctrl+u":
		m.rightVP.HalfPageUp()
	}
	return m, nil
}

func (m model) handleCommitKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.showCommit = false
		return m, nil
	case "enter":
		message := strings.TrimSpace(m.commitInput.Value())
		m.showCommit = false
		if message == "" {
			m.statusBar.SetError("empty commit message")
			return m, nil
		}
		return m, mutate(m.eng, "commit", func() error {
			_, err := m.repo.Commit(message)
			return err
		})
	}
	var cmd tea.Cmd
	m.commitInput, cmd = m.commitInput.Update(msg)
	return m, cmd
}

func (m model) onSelectionChange() (tea.Model, tea.Cmd) {
	m.rows = nil
	m.rightVP.GotoTop()
	m.submitDiff()
	if m.pane == paneBlame {
		m.blame = nil
		m.eng.Submit(m.eng.NewRequest(engine.KindBlame, m.blameParams()))
	}
	m.recalcViewport()
	return m, nil
}

func (m *model) submitDiff() {
	if sel := m.fileList.SelectedFile(); sel != nil {
		m.eng.Submit(m.eng.NewRequest(engine.KindDiff, m.diffParams()))
	}
}

func (m *model) diffParams() engine.Params {
	p := engine.Params{Staged: m.stagedMode}
	if sel := m.fileList.SelectedFile(); sel != nil {
		p.Path = sel.Path
	}
	return p
}

func (m *model) blameParams() engine.Params {
	p := engine.Params{}
	if sel := m.fileList.SelectedFile(); sel != nil {
		p.Path = sel.Path
	}
	return p
}

func (m *model) selectedPath() string {
	if sel := m.fileList.SelectedFile(); sel != nil {
		return sel.Path
	}
	return ""
}

// visibleFiles filters the status payload by the staged/unstaged
// toggle, mirroring what the diff pane shows.
func (m *model) visibleFiles(files []gitx.FileChange) []gitx.FileChange {
	out := make([]gitx.FileChange, 0, len(files))
	for _, f := range files {
		if m.stagedMode {
			if f.Staged {
				out = append(out, f)
			}
		} else if f.Unstaged || f.Untracked {
			out = append(out, f)
		}
	}
	return out
}

func (m *model) recalcViewport() {
	rightW := m.rightWidth()
	m.rightVP.Width = rightW
	m.rightVP.Height = max(0, m.height-2)
	m.rightVP.SetContent(strings.Join(m.rightContent(rightW), "\n"))
}

func (m *model) rightWidth() int {
	return max(0, m.width-m.leftWidth-3)
}

func (m *model) rightContent(width int) []string {
	switch m.pane {
	case paneLog:
		return m.renderLog(width)
	case paneBlame:
		return m.renderBlame(width)
	default:
		return m.renderDiff(width)
	}
}

func (m *model) renderDiff(width int) []string {
	if m.rows == nil {
		return []string{m.theme.Faint.Render("Loading diff…")}
	}
	t := m.theme
	lines := make([]string, 0, len(m.rows))
	for _, r := range m.rows {
		switch r.Kind {
		case diffview.RowHunk:
			lines = append(lines, t.Hunk.Render(ansi.Truncate(r.Meta, width, "…")))
		case diffview.RowMeta, diffview.RowBinary:
			lines = append(lines, t.Meta.Render(ansi.Truncate(r.Meta, width, "…")))
		default:
			if m.sideBySide {
				lines = append(lines, m.renderSideBySideRow(r, width))
			} else {
				lines = append(lines, m.renderInlineRows(r, width)...)
			}
		}
	}
	if len(lines) == 0 {
		lines = []string{m.theme.Faint.Render("(no diff)")}
	}
	return lines
}

func (m *model) renderSideBySideRow(r diffview.Row, width int) string {
	half := (width - 3) / 2
	if half < 1 {
		half = 1
	}
	left, right := r.Left, r.Right
	t := m.theme
	var ls, rs lipgloss.Style
	switch r.Kind {
	case diffview.RowAdd:
		rs = t.Add
	case diffview.RowDel:
		ls = t.Del
	case diffview.RowReplace:
		ls, rs = t.Del, t.Add
	}
	l := ls.Render(ansi.Truncate(left, half, "…"))
	rcol := rs.Render(ansi.Truncate(right, half, "…"))
	pad := strings.Repeat(" ", max(0, half-ansi.StringWidth(l)))
	return l + pad + " " + t.Divider.Render("│") + " " + rcol
}

func (m *model) renderInlineRows(r diffview.Row, width int) []string {
	t := m.theme
	wrapOrCut := func(s string) []string {
		if m.wrap {
			return strings.Split(ansi.Hardwrap(s, width, true), "\n")
		}
		return []string{ansi.Truncate(s, width, "…")}
	}
	switch r.Kind {
	case diffview.RowAdd:
		return mapStyle(wrapOrCut("+ "+r.Right), t.Add)
	case diffview.RowDel:
		return mapStyle(wrapOrCut("- "+r.Left), t.Del)
	case diffview.RowReplace:
		out := mapStyle(wrapOrCut("- "+r.Left), t.Del)
		return append(out, mapStyle(wrapOrCut("+ "+r.Right), t.Add)...)
	default:
		return wrapOrCut("  " + r.Left)
	}
}

func (m *model) renderLog(width int) []string {
	if m.commits == nil {
		return []string{m.theme.Faint.Render("Loading log…")}
	}
	lines := make([]string, 0, len(m.commits))
	for _, c := range m.commits {
		h := c.Hash
		if len(h) > 7 {
			h = h[:7]
		}
		line := fmt.Sprintf("%s %s %s %s",
			m.theme.Meta.Render(h),
			c.When.Format("2006-01-02"),
			m.theme.Faint.Render(c.Author),
			c.Summary)
		lines = append(lines, ansi.Truncate(line, width, "…"))
	}
	if len(lines) == 0 {
		lines = []string{m.theme.Faint.Render("(no commits)")}
	}
	return lines
}

func (m *model) renderBlame(width int) []string {
	if m.blame == nil {
		return []string{m.theme.Faint.Render("Loading blame…")}
	}
	lines := make([]string, 0, len(m.blame))
	for _, b := range m.blame {
		h := b.Hash
		if len(h) > 7 {
			h = h[:7]
		}
		line := fmt.Sprintf("%s %-15s %4d %s",
			m.theme.Meta.Render(h),
			ansi.Truncate(b.Author, 15, "…"),
			b.Number,
			b.Text)
		lines = append(lines, ansi.Truncate(line, width, "…"))
	}
	if len(lines) == 0 {
		lines = []string{m.theme.Faint.Render("(no blame)")}
	}
	return lines
}

func (m model) View() string {
	if m.quitting || m.width == 0 || m.height == 0 {
		return ""
	}
	if m.showHelp {
		return m.helpView()
	}

	header := m.headerView()
	body := m.bodyView()
	bar := m.statusBar.Render(m.width, m.theme.Faint, m.theme.Error)

	var out strings.Builder
	out.WriteString(header)
	out.WriteString("\n")
	out.WriteString(body)
	out.WriteString("\n")
	out.WriteString(bar)
	return out.String()
}

func (m model) headerView() string {
	title := "Changes"
	if m.stagedMode {
		title = "Staged"
	}
	right := ""
	if sel := m.fileList.SelectedFile(); sel != nil {
		right = sel.Path
	}
	switch m.pane {
	case paneLog:
		right = "log"
	case paneBlame:
		right += " (blame)"
	}
	h := m.theme.Title.Render(title)
	if right != "" {
		h += " | " + right
	}
	return ansi.Truncate(h, m.width, "…")
}

func (m model) bodyView() string {
	bodyH := max(0, m.height-2)
	left := m.fileList.Render(m.leftWidth, bodyH, m.theme.Selected, m.theme.Faint)
	right := strings.Split(m.rightVP.View(), "\n")

	div := m.theme.Divider.Render("│")
	lines := make([]string, 0, bodyH)
	for i := 0; i < bodyH; i++ {
		var l, r string
		if i < len(left) {
			l = left[i]
		}
		if i < len(right) {
			r = right[i]
		}
		pad := strings.Repeat(" ", max(0, m.leftWidth-ansi.StringWidth(l)))
		lines = append(lines, l+pad+" "+div+" "+r)
	}
	if m.showCommit {
		prompt := "Commit: " + m.commitInput.View()
		if len(lines) > 0 {
			lines[len(lines)-1] = ansi.Truncate(prompt, m.width, "…")
		}
	}
	return strings.Join(lines, "\n")
}

func (m model) helpView() string {
	rows := []string{
		m.theme.Title.Render("gitscope keys"),
		"",
		"  j/k, g/G      select file",
		"  tab           staged/unstaged view",
		"  s / u         stage / unstage file",
		"  c             commit staged changes",
		"  f / p         fetch / push origin",
		"  l / b         log / blame pane",
		"  r             refresh now",
		"  v / w         side-by-side / wrap",
		"  < / >         resize panes",
		"  h             close help",
		"  q             quit",
	}
	return strings.Join(rows, "\n")
}

func mapStyle(in []string, st lipgloss.Style) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = st.Render(s)
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
