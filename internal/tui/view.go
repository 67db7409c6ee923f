package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/mangadeck/internal/list"
	"github.com/csheth/mangadeck/internal/model"
	"github.com/csheth/mangadeck/internal/queue"
)

func (m *appModel) View() string {
	var b strings.Builder

	b.WriteString(m.viewHeader())
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(fmt.Sprintf("  %s Loading chapters...\n", m.spinner.View()))
	case m.screen == screenQueue:
		b.WriteString(m.viewQueue())
	case m.loadErr != "":
		b.WriteString(errorStyle.Render(wordwrap.String("Failed to load chapters: "+m.loadErr, m.width)))
		b.WriteString("\n")
		b.WriteString(helperStyle.Render("Press r to retry."))
		b.WriteString("\n")
	default:
		b.WriteString(m.viewChapters())
	}

	b.WriteString("\n")
	b.WriteString(m.viewStatusBar())
	b.WriteString("\n")
	b.WriteString(helperStyle.Render(m.helpLine()))
	b.WriteString("\n")
	return b.String()
}

func (m *appModel) viewHeader() string {
	title := m.manga.Title
	if title == "" {
		title = fmt.Sprintf("Manga #%d", m.config.MangaID)
	}
	if m.screen == screenQueue {
		return titleStyle.Render(fmt.Sprintf("Downloads (%d)", m.queue.Len()))
	}
	rendered := m.renderChapters()
	counts := fmt.Sprintf("%d/%d chapters", rendered.Counts.Visible, rendered.Counts.Total)
	if rendered.Counts.Selected > 0 {
		counts += fmt.Sprintf(", %d selected", rendered.Counts.Selected)
	}
	return titleStyle.Render(title) + "  " + helperStyle.Render(counts)
}

func (m *appModel) viewChapters() string {
	rendered := m.renderChapters()
	if len(rendered.Rows) == 0 {
		if rendered.Counts.Total == 0 {
			return helperStyle.Render("No chapters.") + "\n"
		}
		return helperStyle.Render("No chapters match the active filters.") + "\n"
	}

	var b strings.Builder
	for i, row := range rendered.Rows {
		b.WriteString(m.renderChapterRow(row, i == m.cursor))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *appModel) renderChapterRow(row list.Row, atCursor bool) string {
	marker := "[ ]"
	if row.Selected {
		marker = "[x]"
	}

	var badges []string
	if row.Chapter.Bookmarked {
		badges = append(badges, "bookmark")
	}
	if row.Chapter.Downloaded {
		if row.Chapter.PageCount > 0 {
			badges = append(badges, fmt.Sprintf("%dp", row.Chapter.PageCount))
		} else {
			badges = append(badges, "downloaded")
		}
	}
	if row.Status != nil {
		badges = append(badges, m.statusBadge(*row.Status))
	}

	line := fmt.Sprintf("%s %s", marker, row.Chapter.Name)
	if row.Chapter.Scanlator != "" {
		line += helperStyle.Render(" · " + row.Chapter.Scanlator)
	}
	if len(badges) > 0 {
		line += "  " + strings.Join(badges, " ")
	}
	line = truncate.StringWithTail(line, uint(m.width-2), "…")

	switch {
	case atCursor:
		return cursorLineStyle.Render("> " + line)
	case row.Selected:
		return selectedStyle.Render("  " + line)
	case row.Chapter.Read:
		return readStyle.Render("  " + line)
	default:
		return "  " + line
	}
}

func (m *appModel) statusBadge(rec model.StatusRecord) string {
	switch rec.State {
	case model.StateDownloading:
		return badgeActiveStyle.Render(fmt.Sprintf("%s %.0f%%", rec.State, rec.Progress*100))
	case model.StateError:
		return badgeErrorStyle.Render(fmt.Sprintf("%s (try %d)", rec.State, rec.Tries))
	default:
		return badgeQueuedStyle.Render(rec.State.String())
	}
}

func (m *appModel) viewQueue() string {
	items := m.queue.Items()
	if len(items) == 0 {
		return helperStyle.Render("Download queue is empty.") + "\n"
	}

	var b strings.Builder
	for i, item := range items {
		// Live progress comes from the tracker; the controller only owns
		// ordering, so a record refreshed by the feed wins here.
		if rec, ok := m.tracker.Get(item.ChapterID); ok {
			rec.Seq = item.Seq
			item = rec
		}

		name := item.ChapterName
		if item.MangaTitle != "" {
			name = item.MangaTitle + " · " + name
		}
		name = truncate.StringWithTail(name, uint(m.width/2), "…")

		line := fmt.Sprintf("%-*s %s %s", m.width/2, name, m.bar.ViewAs(item.Progress), m.statusBadge(item))
		if i == m.queueCursor {
			b.WriteString(cursorLineStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	if m.queue.Phase() == queue.PhasePending {
		b.WriteString(helperStyle.Render("  reordering...") + "\n")
	}
	return b.String()
}

func (m *appModel) viewStatusBar() string {
	var parts []string
	if m.downloader == model.DownloaderStarted {
		parts = append(parts, "downloader: running")
	} else {
		parts = append(parts, "downloader: stopped")
	}
	if m.screen == screenChapters {
		if f := m.filterSummary(); f != "" {
			parts = append(parts, "filter: "+f)
		}
		parts = append(parts, "sort: "+m.sortSummary())
	}
	bar := statusBarStyle.Render(strings.Join(parts, "  |  "))
	if m.toast != "" {
		bar += "  " + toastStyle.Render(truncate.StringWithTail(m.toast, uint(m.width/2), "…"))
	}
	return bar
}

func (m *appModel) filterSummary() string {
	var active []string
	if m.prefs.UnreadOnly {
		active = append(active, "unread")
	}
	if m.prefs.DownloadedOnly {
		active = append(active, "downloaded")
	}
	if m.prefs.BookmarkedOnly {
		active = append(active, "bookmarked")
	}
	return strings.Join(active, "+")
}

func (m *appModel) sortSummary() string {
	dir := "asc"
	if m.prefs.Descending {
		dir = "desc"
	}
	return m.prefs.SortBy + " " + dir
}

func (m *appModel) helpLine() string {
	if m.screen == screenQueue {
		return "J/K move · x remove · p start/stop · C clear · r reload · tab chapters · q quit"
	}
	return "space select · v range · a/A all/none · m mark read · d download · u/D/b filter · o/O sort · s save prefs · tab queue · q quit"
}
