package tui

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/mangadeck/internal/api"
	"github.com/csheth/mangadeck/internal/config"
	"github.com/csheth/mangadeck/internal/feed"
	"github.com/csheth/mangadeck/internal/model"
)

func newTestModel(t *testing.T) *appModel {
	t.Helper()
	client, err := api.New("http://127.0.0.1:4567", time.Second)
	if err != nil {
		t.Fatalf("api.New: %v", err)
	}
	teaModel, ok := New(Config{Client: client, MangaID: 7, Prefs: config.ChapterPrefs{SortBy: config.SortBySource}}).(*appModel)
	if !ok {
		t.Fatalf("expected *appModel, got %T", teaModel)
	}
	teaModel.loading = false
	teaModel.loaded = true
	return teaModel
}

func testCatalog() []model.Chapter {
	return []model.Chapter{
		{ID: 1, MangaID: 7, Name: "Ch. 1", SourceOrder: 0, Read: true},
		{ID: 2, MangaID: 7, Name: "Ch. 2", SourceOrder: 1},
		{ID: 3, MangaID: 7, Name: "Ch. 3", SourceOrder: 2, Downloaded: true},
		{ID: 4, MangaID: 7, Name: "Ch. 4", SourceOrder: 3, Bookmarked: true},
	}
}

func testQueue() []model.StatusRecord {
	return []model.StatusRecord{
		{ChapterID: 10, MangaID: 7, ChapterName: "Ch. 10", State: model.StateDownloading, Progress: 0.4},
		{ChapterID: 11, MangaID: 7, ChapterName: "Ch. 11", State: model.StateQueued},
		{ChapterID: 12, MangaID: 7, ChapterName: "Ch. 12", State: model.StateQueued},
	}
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func queueIDs(m *appModel) []int64 {
	items := m.queue.Items()
	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ChapterID
	}
	return ids
}

func TestToggleAndRangeSelection(t *testing.T) {
	m := newTestModel(t)
	m.catalog = testCatalog()

	if cmd := m.handleChapterKey(tea.KeyMsg{Type: tea.KeySpace}); cmd != nil {
		t.Fatalf("toggle should not return a command, got %v", cmd)
	}
	if selected, _ := m.selection.IsSelected(scopeChapters, 1); !selected {
		t.Fatal("chapter under cursor should be selected after toggle")
	}

	m.cursor = 2
	if cmd := m.handleChapterKey(keyRune('v')); cmd != nil {
		t.Fatalf("range select should not return a command, got %v", cmd)
	}
	for _, id := range []int64{1, 2, 3} {
		if selected, _ := m.selection.IsSelected(scopeChapters, id); !selected {
			t.Fatalf("chapter %d should be inside the range", id)
		}
	}
	if selected, _ := m.selection.IsSelected(scopeChapters, 4); selected {
		t.Fatal("chapter 4 is outside the range")
	}

	// Shrinking the range from the same anchor drops the tail.
	m.cursor = 1
	if cmd := m.handleChapterKey(keyRune('v')); cmd != nil {
		t.Fatalf("range select should not return a command, got %v", cmd)
	}
	if selected, _ := m.selection.IsSelected(scopeChapters, 3); selected {
		t.Fatal("chapter 3 should leave the selection when the range shrinks")
	}
}

func TestFilterToggleRecomputesCounts(t *testing.T) {
	m := newTestModel(t)
	m.catalog = testCatalog()

	if got := m.renderChapters().Counts.Visible; got != 4 {
		t.Fatalf("expected 4 visible chapters, got %d", got)
	}

	if cmd := m.handleChapterKey(keyRune('u')); cmd != nil {
		t.Fatalf("filter toggle should not return a command, got %v", cmd)
	}
	counts := m.renderChapters().Counts
	if counts.Visible != 3 {
		t.Fatalf("unread filter should hide the read chapter, got %d visible", counts.Visible)
	}
	if counts.Total != 4 {
		t.Fatalf("total must count the full catalog, got %d", counts.Total)
	}
}

func TestFilterClampsChapterCursor(t *testing.T) {
	m := newTestModel(t)
	m.catalog = testCatalog()
	m.cursor = 3

	m.handleChapterKey(keyRune('u'))
	if m.cursor != 2 {
		t.Fatalf("cursor should clamp to last visible row, got %d", m.cursor)
	}
}

func TestActionTargetsFallBackToCursor(t *testing.T) {
	m := newTestModel(t)
	m.catalog = testCatalog()
	m.cursor = 1

	rows := m.renderChapters().Rows
	if got := m.actionTargets(rows); len(got) != 1 || got[0] != 2 {
		t.Fatalf("expected cursor row target [2], got %v", got)
	}

	m.selection.Toggle(scopeChapters, 3)
	m.selection.Toggle(scopeChapters, 4)
	if got := m.actionTargets(rows); len(got) != 2 {
		t.Fatalf("expected selection targets, got %v", got)
	}
}

func TestMoveKeyAppliesOptimistically(t *testing.T) {
	m := newTestModel(t)
	if cmd := m.handleQueueLoaded(queueLoadedMsg{state: model.DownloaderStarted, queue: testQueue()}); cmd != nil {
		t.Fatalf("queue load should not return a command, got %v", cmd)
	}
	m.screen = screenQueue
	m.queueCursor = 1

	cmd := m.handleQueueKey(keyRune('J'))
	if cmd == nil {
		t.Fatal("move down should submit a reorder command")
	}
	if ids := queueIDs(m); ids[1] != 12 || ids[2] != 11 {
		t.Fatalf("move not applied optimistically: %v", ids)
	}
	if m.queueCursor != 2 {
		t.Fatalf("cursor should follow the moved row, got %d", m.queueCursor)
	}
}

func TestReorderFailureRollsBack(t *testing.T) {
	m := newTestModel(t)
	m.handleQueueLoaded(queueLoadedMsg{state: model.DownloaderStarted, queue: testQueue()})
	m.screen = screenQueue

	move, err := m.queue.RequestMove(11, 1, 2)
	if err != nil || move == nil {
		t.Fatalf("move should submit, got move=%v err=%v", move, err)
	}

	m.handleReorderDone(reorderDoneMsg{move: move, err: errors.New("conflict")})
	if ids := queueIDs(m); ids[1] != 11 || ids[2] != 12 {
		t.Fatalf("rollback should restore confirmed order, got %v", ids)
	}
	if m.toast == "" {
		t.Fatal("rollback should surface a toast")
	}
}

func TestReorderSuccessSubmitsDeferredMove(t *testing.T) {
	m := newTestModel(t)
	m.handleQueueLoaded(queueLoadedMsg{state: model.DownloaderStopped, queue: testQueue()})
	m.screen = screenQueue

	m.queueCursor = 0
	first, err := m.queue.RequestMove(10, 0, 1)
	if err != nil || first == nil {
		t.Fatalf("first move should submit, got move=%v err=%v", first, err)
	}
	if second, err := m.queue.RequestMove(12, 2, 0); err != nil || second != nil {
		t.Fatalf("second move should defer, got move=%v err=%v", second, err)
	}

	cmd := m.handleReorderDone(reorderDoneMsg{move: first})
	if cmd == nil {
		t.Fatal("resolving with a deferred move should submit the next one")
	}
	ids := queueIDs(m)
	if ids[0] != 12 {
		t.Fatalf("deferred move should apply after resolution, got %v", ids)
	}
}

func TestQueueReloadDropsStaleStatuses(t *testing.T) {
	m := newTestModel(t)
	m.handleQueueLoaded(queueLoadedMsg{state: model.DownloaderStarted, queue: testQueue()})
	if _, ok := m.tracker.Get(10); !ok {
		t.Fatal("snapshot records should seed the tracker")
	}

	// A cleared queue emits no per-chapter feed events; the fresh
	// snapshot alone must retire every old badge.
	m.handleQueueLoaded(queueLoadedMsg{state: model.DownloaderStopped, queue: nil})
	if rec, ok := m.tracker.Get(10); ok {
		t.Fatalf("stale record survived the reload: %+v", rec)
	}
	if m.queue.Len() != 0 {
		t.Fatalf("queue should be empty, got %d items", m.queue.Len())
	}
}

func TestRemoveSuccessDropsStatusImmediately(t *testing.T) {
	m := newTestModel(t)
	m.handleQueueLoaded(queueLoadedMsg{state: model.DownloaderStarted, queue: testQueue()})

	cmd := m.handleActionDone(actionDoneMsg{refreshQueue: true, forget: 11})
	if cmd == nil {
		t.Fatal("remove completion should schedule a queue refresh")
	}
	if _, ok := m.tracker.Get(11); ok {
		t.Fatal("removed chapter's status should be forgotten without waiting for the refresh")
	}
	if _, ok := m.tracker.Get(10); !ok {
		t.Fatal("other chapters' statuses must survive")
	}
}

func TestDeferredMoveKeepsCursor(t *testing.T) {
	m := newTestModel(t)
	m.handleQueueLoaded(queueLoadedMsg{state: model.DownloaderStopped, queue: testQueue()})
	m.screen = screenQueue
	m.queueCursor = 1

	if cmd := m.handleQueueKey(keyRune('J')); cmd == nil {
		t.Fatal("first move should submit")
	}
	if m.queueCursor != 2 {
		t.Fatalf("cursor should follow the applied move, got %d", m.queueCursor)
	}

	// The second move only defers; its row has not moved, so neither
	// should the cursor.
	if cmd := m.handleQueueKey(keyRune('K')); cmd != nil {
		t.Fatalf("deferred move must not submit, got %v", cmd)
	}
	if m.queueCursor != 2 {
		t.Fatalf("cursor must stay on the unmoved row, got %d", m.queueCursor)
	}
}

func TestSavePreferencesWritesConfig(t *testing.T) {
	m := newTestModel(t)
	m.catalog = testCatalog()
	m.config.ConfigPath = filepath.Join(t.TempDir(), "config.yml")

	m.handleChapterKey(keyRune('u'))
	m.handleChapterKey(keyRune('O'))
	cmd := m.handleChapterKey(keyRune('s'))
	if cmd == nil {
		t.Fatal("save prefs should return a command")
	}
	result := cmd()
	done, ok := result.(actionDoneMsg)
	if !ok {
		t.Fatalf("expected actionDoneMsg, got %T", result)
	}
	if done.err != nil {
		t.Fatalf("saving preferences failed: %v", done.err)
	}

	saved, err := config.Load(m.config.ConfigPath)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	if !saved.Chapters.UnreadOnly {
		t.Fatal("unread filter should persist")
	}
	if !saved.Chapters.Descending {
		t.Fatal("sort direction should persist")
	}
}

func TestFeedEventUpdatesTrackerAndDownloader(t *testing.T) {
	m := newTestModel(t)
	m.handleQueueLoaded(queueLoadedMsg{state: model.DownloaderStopped, queue: testQueue()})

	rec := model.StatusRecord{ChapterID: 10, State: model.StateDownloading, Progress: 0.8}
	event := feed.Event{Record: rec, Downloader: model.DownloaderStarted}
	m.handleFeedEvent(feedEventMsg{event: event, open: true})

	got, ok := m.tracker.Get(10)
	if !ok || got.Progress != 0.8 {
		t.Fatalf("tracker should hold the feed record, got %+v ok=%v", got, ok)
	}
	if m.downloader != model.DownloaderStarted {
		t.Fatalf("downloader state should follow the feed, got %v", m.downloader)
	}
}

func TestFeedDisconnectSchedulesRetry(t *testing.T) {
	m := newTestModel(t)
	cmd := m.handleFeedEvent(feedEventMsg{open: false})
	if cmd == nil {
		t.Fatal("disconnect should schedule a reconnect")
	}
	if m.sub != nil {
		t.Fatal("disconnect should drop the dead subscription")
	}
}

func TestChapterLoadErrorPreservesSelection(t *testing.T) {
	m := newTestModel(t)
	m.catalog = testCatalog()
	m.selection.Toggle(scopeChapters, 2)

	m.handleChaptersLoaded(chaptersLoadedMsg{err: errors.New("connection refused")})
	if m.loadErr == "" {
		t.Fatal("load error should be recorded")
	}
	if selected, _ := m.selection.IsSelected(scopeChapters, 2); !selected {
		t.Fatal("a failed reload must not drop the selection")
	}
	if len(m.catalog) != 4 {
		t.Fatal("a failed reload must keep the last good catalog")
	}
}

func TestSwitchViewTogglesScreens(t *testing.T) {
	m := newTestModel(t)
	m.handleKey(tea.KeyMsg{Type: tea.KeyTab})
	if m.screen != screenQueue {
		t.Fatalf("tab should switch to the queue screen, got %v", m.screen)
	}
	m.handleKey(tea.KeyMsg{Type: tea.KeyTab})
	if m.screen != screenChapters {
		t.Fatalf("tab should switch back to chapters, got %v", m.screen)
	}
}
