package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/mangadeck/internal/api"
	"github.com/csheth/mangadeck/internal/config"
	"github.com/csheth/mangadeck/internal/feed"
	"github.com/csheth/mangadeck/internal/model"
	"github.com/csheth/mangadeck/internal/queue"
)

const requestTimeout = 30 * time.Second

type mangaLoadedMsg struct {
	manga model.Manga
	err   error
}

type chaptersLoadedMsg struct {
	chapters []model.Chapter
	err      error
}

type queueLoadedMsg struct {
	state model.DownloaderState
	queue []model.StatusRecord
	err   error
}

type feedConnectedMsg struct {
	sub *feed.Subscription
	err error
}

// feedRetryMsg fires after a backoff once the feed drops or fails to dial.
type feedRetryMsg struct{}

// feedEventMsg carries one feed event. open is false when the subscription
// channel closed, which signals a disconnect rather than an event.
type feedEventMsg struct {
	event feed.Event
	open  bool
}

type reorderDoneMsg struct {
	move *queue.Move
	err  error
}

// actionDoneMsg reports a fire-and-forget mutation (mark read, enqueue,
// delete, downloader toggle, clear). The flags say which snapshots the
// mutation invalidated.
type actionDoneMsg struct {
	success        string
	failure        string
	err            error
	refreshQueue   bool
	refreshCatalog bool

	// forget names a chapter whose status record is obsolete on success,
	// set by the remove flow.
	forget int64
}

type toastClearMsg struct{}

func loadMangaCmd(client *api.Client, mangaID int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		manga, err := client.Manga(ctx, mangaID)
		return mangaLoadedMsg{manga: manga, err: err}
	}
}

func loadChaptersCmd(client *api.Client, mangaID int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		chapters, err := client.Chapters(ctx, mangaID)
		return chaptersLoadedMsg{chapters: chapters, err: err}
	}
}

func loadQueueCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		state, records, err := client.DownloadStatus(ctx)
		return queueLoadedMsg{state: state, queue: records, err: err}
	}
}

func connectFeedCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		sub, err := feed.Dial(ctx, client.FeedURL(), client.ClientID())
		return feedConnectedMsg{sub: sub, err: err}
	}
}

func retryFeedCmd() tea.Cmd {
	return tea.Tick(feedRetryDelay, func(time.Time) tea.Msg {
		return feedRetryMsg{}
	})
}

// waitFeedCmd blocks on the subscription channel for the next event. The
// update loop re-issues it after consuming each message, so exactly one
// reader is outstanding at a time.
func waitFeedCmd(sub *feed.Subscription) tea.Cmd {
	return func() tea.Msg {
		event, open := <-sub.Events()
		return feedEventMsg{event: event, open: open}
	}
}

func submitMoveCmd(client *api.Client, move *queue.Move) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := client.Reorder(ctx, move.ChapterID, move.To)
		return reorderDoneMsg{move: move, err: err}
	}
}

// removeDownloadCmd deletes one queued download. When the downloader is
// running it is stopped first and restarted after, since removing an entry
// mid-download corrupts the partial archive on some servers.
func removeDownloadCmd(client *api.Client, chapterID int64, running bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		if running {
			if err := client.Stop(ctx); err != nil {
				return actionDoneMsg{failure: "Failed to remove download", err: err}
			}
		}
		err := client.Remove(ctx, chapterID)
		if running {
			if startErr := client.Start(ctx); err == nil {
				err = startErr
			}
		}
		return actionDoneMsg{
			failure:      "Failed to remove download",
			err:          err,
			refreshQueue: true,
			forget:       chapterID,
		}
	}
}

func toggleDownloaderCmd(client *api.Client, current model.DownloaderState) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var err error
		success := "Downloader started"
		if current == model.DownloaderStarted {
			success = "Downloader stopped"
			err = client.Stop(ctx)
		} else {
			err = client.Start(ctx)
		}
		return actionDoneMsg{
			success:      success,
			failure:      "Failed to toggle downloader",
			err:          err,
			refreshQueue: true,
		}
	}
}

func clearQueueCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := client.Clear(ctx)
		return actionDoneMsg{
			success:      "Download queue cleared",
			failure:      "Failed to clear download queue",
			err:          err,
			refreshQueue: true,
		}
	}
}

func enqueueCmd(client *api.Client, chapterIDs []int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := client.Enqueue(ctx, chapterIDs)
		return actionDoneMsg{
			success:      "Downloads enqueued",
			failure:      "Failed to enqueue downloads",
			err:          err,
			refreshQueue: true,
		}
	}
}

func markReadCmd(client *api.Client, mangaID int64, chapterIDs []int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := client.MarkRead(ctx, mangaID, chapterIDs, true)
		return actionDoneMsg{
			success:        "Chapters marked read",
			failure:        "Failed to mark chapters read",
			err:            err,
			refreshCatalog: true,
		}
	}
}

// savePrefsCmd persists the current filter and sort settings as the new
// defaults, leaving the rest of the config file untouched.
func savePrefsCmd(path string, prefs config.ChapterPrefs) tea.Cmd {
	return func() tea.Msg {
		cfg, err := config.Load(path)
		if err == nil {
			cfg.Chapters = prefs
			err = config.Save(cfg, path)
		}
		return actionDoneMsg{
			success: "Preferences saved",
			failure: "Failed to save preferences",
			err:     err,
		}
	}
}

func clearToastCmd() tea.Cmd {
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastClearMsg{}
	})
}
