// Package tui renders the chapter list and download queue screens. It is
// thin glue: every state transition delegates to the selection, list,
// queue, and feed packages, and every remote call runs as a command whose
// result comes back as a message.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/mangadeck/internal/api"
	"github.com/csheth/mangadeck/internal/config"
	"github.com/csheth/mangadeck/internal/feed"
	"github.com/csheth/mangadeck/internal/list"
	"github.com/csheth/mangadeck/internal/model"
	"github.com/csheth/mangadeck/internal/queue"
	"github.com/csheth/mangadeck/internal/selection"
)

// Config wires runtime options into the TUI program.
type Config struct {
	Client  *api.Client
	MangaID int64
	Prefs   config.ChapterPrefs

	// ConfigPath is where the save-preferences action persists the
	// current filter and sort settings.
	ConfigPath string
}

// New returns a tea.Model ready to be mounted into a Program.
func New(cfg Config) tea.Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 24

	return &appModel{
		config:    cfg,
		prefs:     cfg.Prefs,
		keys:      newKeyMap(),
		spinner:   spin,
		bar:       bar,
		selection: selection.NewStore(),
		tracker:   feed.NewTracker(),
		queue:     queue.New(nil),
		width:     minListWidth,
		loading:   true,
	}
}

type appModel struct {
	config Config
	screen screen
	keys   keyMap

	spinner spinner.Model
	bar     progress.Model

	// Chapter list screen state.
	manga     model.Manga
	catalog   []model.Chapter
	loaded    bool
	loadErr   string
	prefs     config.ChapterPrefs
	selection *selection.Store
	cursor    int

	// Download queue screen state.
	queue       *queue.Controller
	downloader  model.DownloaderState
	queueCursor int

	tracker *feed.Tracker
	sub     *feed.Subscription

	toast   string
	loading bool
	width   int
	height  int
}

func (m *appModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		loadMangaCmd(m.config.Client, m.config.MangaID),
		loadChaptersCmd(m.config.Client, m.config.MangaID),
		loadQueueCmd(m.config.Client),
		connectFeedCmd(m.config.Client),
	)
}

func (m *appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.width < minListWidth {
			m.width = minListWidth
		}
		m.bar.Width = m.width / 4
		return m, nil

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case mangaLoadedMsg:
		if msg.err == nil {
			m.manga = msg.manga
		}
		return m, nil

	case chaptersLoadedMsg:
		return m, m.handleChaptersLoaded(msg)

	case queueLoadedMsg:
		return m, m.handleQueueLoaded(msg)

	case feedConnectedMsg:
		return m, m.handleFeedConnected(msg)

	case feedRetryMsg:
		return m, connectFeedCmd(m.config.Client)

	case feedEventMsg:
		return m, m.handleFeedEvent(msg)

	case reorderDoneMsg:
		return m, m.handleReorderDone(msg)

	case actionDoneMsg:
		return m, m.handleActionDone(msg)

	case toastClearMsg:
		m.toast = ""
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *appModel) handleChaptersLoaded(msg chaptersLoadedMsg) tea.Cmd {
	m.loading = false
	if msg.err != nil {
		// Selection and filter state stay untouched so a retry does not
		// lose the user's choices.
		m.loadErr = msg.err.Error()
		return nil
	}
	m.loadErr = ""
	m.loaded = true
	m.catalog = msg.chapters
	m.clampChapterCursor()
	return nil
}

func (m *appModel) handleQueueLoaded(msg queueLoadedMsg) tea.Cmd {
	if msg.err != nil {
		return m.showToast(fmt.Sprintf("Failed to load download queue: %v", msg.err))
	}
	m.downloader = msg.state
	m.queue.ApplySnapshot(msg.queue)
	// The snapshot is authoritative: re-seeding drops records for chapters
	// the server no longer queues, such as after a remove or clear, which
	// emit no feed event.
	m.tracker.Replace(msg.queue)
	m.clampQueueCursor()
	return nil
}

func (m *appModel) handleFeedConnected(msg feedConnectedMsg) tea.Cmd {
	if msg.err != nil {
		// Feed gaps are transient: keep rendering from the tracker and
		// retry in the background.
		return retryFeedCmd()
	}
	m.sub = msg.sub
	return waitFeedCmd(m.sub)
}

func (m *appModel) handleFeedEvent(msg feedEventMsg) tea.Cmd {
	if !msg.open {
		m.sub = nil
		return retryFeedCmd()
	}
	m.tracker.Apply(msg.event.Record)
	m.downloader = msg.event.Downloader
	// A terminal state means queue membership changed server-side; refresh
	// the snapshot so the controller re-seeds (or stages, if pending).
	if msg.event.Record.State.Terminal() {
		return tea.Batch(waitFeedCmd(m.sub), loadQueueCmd(m.config.Client))
	}
	return waitFeedCmd(m.sub)
}

func (m *appModel) handleReorderDone(msg reorderDoneMsg) tea.Cmd {
	res := m.queue.Resolve(msg.move, msg.err)
	m.clampQueueCursor()

	var cmds []tea.Cmd
	if res.RolledBack {
		cmds = append(cmds, m.showToast(fmt.Sprintf("Failed to reorder download: %v", res.Err)))
	}
	if res.Next != nil {
		cmds = append(cmds, submitMoveCmd(m.config.Client, res.Next))
	}
	return tea.Batch(cmds...)
}

func (m *appModel) handleActionDone(msg actionDoneMsg) tea.Cmd {
	var cmds []tea.Cmd
	if msg.err != nil {
		cmds = append(cmds, m.showToast(msg.failure+": "+msg.err.Error()))
	} else if msg.success != "" {
		cmds = append(cmds, m.showToast(msg.success))
	}
	if msg.err == nil && msg.forget != 0 {
		// Drop the removed chapter's badge right away instead of waiting
		// for the queue refresh round-trip.
		m.tracker.Forget(msg.forget)
	}
	if msg.refreshQueue {
		cmds = append(cmds, loadQueueCmd(m.config.Client))
	}
	if msg.refreshCatalog {
		cmds = append(cmds, loadChaptersCmd(m.config.Client, m.config.MangaID))
	}
	return tea.Batch(cmds...)
}

func (m *appModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) {
		if m.sub != nil {
			// Screen teardown closes the subscription; an in-flight
			// reorder keeps running server-side and reconciles against
			// the next snapshot whoever observes it.
			m.sub.Close()
		}
		return tea.Quit
	}
	if key.Matches(msg, m.keys.SwitchView) {
		if m.screen == screenChapters {
			m.screen = screenQueue
		} else {
			m.screen = screenChapters
		}
		return nil
	}
	if m.screen == screenQueue {
		return m.handleQueueKey(msg)
	}
	return m.handleChapterKey(msg)
}

func (m *appModel) handleChapterKey(msg tea.KeyMsg) tea.Cmd {
	rendered := m.renderChapters()
	rows := rendered.Rows

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Toggle):
		if row, ok := rowAt(rows, m.cursor); ok {
			m.selection.Toggle(scopeChapters, row.Chapter.ID)
		}
	case key.Matches(msg, m.keys.Range):
		if row, ok := rowAt(rows, m.cursor); ok {
			m.selection.SelectRange(scopeChapters, row.Chapter.ID, rendered.VisibleIDs())
		}
	case key.Matches(msg, m.keys.SelectAll):
		m.selection.SelectAll(scopeChapters, catalogIDs(m.catalog))
	case key.Matches(msg, m.keys.SelectNone):
		m.selection.SelectNone(scopeChapters)
	case key.Matches(msg, m.keys.MarkRead):
		if ids := m.actionTargets(rows); len(ids) > 0 {
			return markReadCmd(m.config.Client, m.config.MangaID, ids)
		}
	case key.Matches(msg, m.keys.Enqueue):
		if ids := m.actionTargets(rows); len(ids) > 0 {
			return enqueueCmd(m.config.Client, ids)
		}
	case key.Matches(msg, m.keys.FilterRead):
		m.prefs.UnreadOnly = !m.prefs.UnreadOnly
		m.clampChapterCursor()
	case key.Matches(msg, m.keys.FilterDown):
		m.prefs.DownloadedOnly = !m.prefs.DownloadedOnly
		m.clampChapterCursor()
	case key.Matches(msg, m.keys.FilterMark):
		m.prefs.BookmarkedOnly = !m.prefs.BookmarkedOnly
		m.clampChapterCursor()
	case key.Matches(msg, m.keys.CycleSort):
		m.prefs.SortBy = nextSortMode(m.prefs.SortBy)
	case key.Matches(msg, m.keys.Reverse):
		m.prefs.Descending = !m.prefs.Descending
	case key.Matches(msg, m.keys.SavePrefs):
		return savePrefsCmd(m.config.ConfigPath, m.prefs)
	case key.Matches(msg, m.keys.Reload):
		m.loading = true
		return tea.Batch(m.spinner.Tick, loadChaptersCmd(m.config.Client, m.config.MangaID))
	}
	return nil
}

func (m *appModel) handleQueueKey(msg tea.KeyMsg) tea.Cmd {
	items := m.queue.Items()

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.queueCursor > 0 {
			m.queueCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.queueCursor < len(items)-1 {
			m.queueCursor++
		}
	case key.Matches(msg, m.keys.MoveUp):
		return m.requestMove(items, m.queueCursor, m.queueCursor-1)
	case key.Matches(msg, m.keys.MoveDown):
		return m.requestMove(items, m.queueCursor, m.queueCursor+1)
	case key.Matches(msg, m.keys.Delete):
		if m.queueCursor < len(items) {
			running := m.downloader == model.DownloaderStarted
			return removeDownloadCmd(m.config.Client, items[m.queueCursor].ChapterID, running)
		}
	case key.Matches(msg, m.keys.StartStop):
		return toggleDownloaderCmd(m.config.Client, m.downloader)
	case key.Matches(msg, m.keys.Clear):
		return clearQueueCmd(m.config.Client)
	case key.Matches(msg, m.keys.Reload):
		return loadQueueCmd(m.config.Client)
	}
	return nil
}

// requestMove runs the optimistic reorder: splice locally, submit the
// mutation, and let handleReorderDone confirm or roll back. A deferred
// move (second request while one is pending) returns no command; it is
// submitted when the pending one resolves.
func (m *appModel) requestMove(items []model.StatusRecord, from, to int) tea.Cmd {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return nil
	}
	move, err := m.queue.RequestMove(items[from].ChapterID, from, to)
	if err != nil {
		return m.showToast(fmt.Sprintf("Cannot move download: %v", err))
	}
	if move == nil {
		// Deferred behind the pending move; the row has not moved yet, so
		// the cursor stays put.
		return nil
	}
	m.queueCursor = to
	return submitMoveCmd(m.config.Client, move)
}

// actionTargets resolves what a bulk action applies to: the selection when
// one is active, otherwise the cursor row.
func (m *appModel) actionTargets(rows []list.Row) []int64 {
	if m.selection.Count(scopeChapters) > 0 {
		return m.selection.SelectedIDs(scopeChapters)
	}
	if row, ok := rowAt(rows, m.cursor); ok {
		return []int64{row.Chapter.ID}
	}
	return nil
}

// renderChapters runs the merge → filter/sort → selection pipeline. It is
// recomputed from its inputs on every use; purity of the list package makes
// that correct, caching would only ever be a performance tweak.
func (m *appModel) renderChapters() list.RenderModel {
	return list.Render(m.catalog, m.tracker.Snapshot(), m.options(), m.selection, scopeChapters)
}

func (m *appModel) options() list.Options {
	var predicates []list.Predicate
	if m.prefs.UnreadOnly {
		predicates = append(predicates, list.Unread())
	}
	if m.prefs.DownloadedOnly {
		predicates = append(predicates, list.Downloaded())
	}
	if m.prefs.BookmarkedOnly {
		predicates = append(predicates, list.Bookmarked())
	}

	var compare list.Comparator
	switch m.prefs.SortBy {
	case config.SortByNumber:
		compare = list.ByChapterNumber(m.prefs.Descending)
	case config.SortByFetched:
		compare = list.ByFetchedAt(m.prefs.Descending)
	default:
		compare = list.BySourceOrder(m.prefs.Descending)
	}
	return list.Options{Predicates: predicates, Compare: compare}
}

func (m *appModel) showToast(text string) tea.Cmd {
	m.toast = text
	return clearToastCmd()
}

func (m *appModel) clampChapterCursor() {
	visible := m.renderChapters().Counts.Visible
	if m.cursor >= visible {
		m.cursor = visible - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *appModel) clampQueueCursor() {
	if n := m.queue.Len(); m.queueCursor >= n {
		m.queueCursor = n - 1
	}
	if m.queueCursor < 0 {
		m.queueCursor = 0
	}
}

func nextSortMode(current string) string {
	switch current {
	case config.SortBySource:
		return config.SortByNumber
	case config.SortByNumber:
		return config.SortByFetched
	default:
		return config.SortBySource
	}
}

func rowAt(rows []list.Row, index int) (list.Row, bool) {
	if index < 0 || index >= len(rows) {
		return list.Row{}, false
	}
	return rows[index], true
}

func catalogIDs(catalog []model.Chapter) []int64 {
	ids := make([]int64, len(catalog))
	for i, chapter := range catalog {
		ids[i] = chapter.ID
	}
	return ids
}
