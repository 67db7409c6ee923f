package api

import (
	"time"

	"github.com/csheth/mangadeck/internal/model"
)

// Wire shapes for the server's JSON payloads. Timestamps are unix
// milliseconds, matching the server.

type mangaPayload struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	UnreadCount   int    `json:"unreadCount"`
	DownloadCount int    `json:"downloadCount"`
	ChapterCount  int    `json:"chapterCount"`
}

func (p mangaPayload) toModel() model.Manga {
	return model.Manga{
		ID:            p.ID,
		Title:         p.Title,
		UnreadCount:   p.UnreadCount,
		DownloadCount: p.DownloadCount,
		ChapterCount:  p.ChapterCount,
	}
}

type chapterPayload struct {
	ID            int64   `json:"id"`
	MangaID       int64   `json:"mangaId"`
	Name          string  `json:"name"`
	Scanlator     string  `json:"scanlator"`
	ChapterNumber float64 `json:"chapterNumber"`
	SourceOrder   int     `json:"sourceOrder"`
	UploadDate    int64   `json:"uploadDate"`
	FetchedAt     int64   `json:"fetchedAt"`
	Read          bool    `json:"read"`
	Bookmarked    bool    `json:"bookmarked"`
	Downloaded    bool    `json:"downloaded"`
	PageCount     int     `json:"pageCount"`
}

func (p chapterPayload) toModel() model.Chapter {
	return model.Chapter{
		ID:            p.ID,
		MangaID:       p.MangaID,
		Name:          p.Name,
		Scanlator:     p.Scanlator,
		ChapterNumber: p.ChapterNumber,
		SourceOrder:   p.SourceOrder,
		UploadedAt:    millis(p.UploadDate),
		FetchedAt:     millis(p.FetchedAt),
		Read:          p.Read,
		Bookmarked:    p.Bookmarked,
		Downloaded:    p.Downloaded,
		PageCount:     p.PageCount,
	}
}

type queueEntryPayload struct {
	ChapterID   int64   `json:"chapterId"`
	MangaID     int64   `json:"mangaId"`
	MangaTitle  string  `json:"mangaTitle"`
	ChapterName string  `json:"chapterName"`
	State       string  `json:"state"`
	Progress    float64 `json:"progress"`
	Tries       int     `json:"tries"`
}

func (p queueEntryPayload) toStatus() model.StatusRecord {
	return model.StatusRecord{
		ChapterID:   p.ChapterID,
		MangaID:     p.MangaID,
		MangaTitle:  p.MangaTitle,
		ChapterName: p.ChapterName,
		State:       model.ParseDownloadState(p.State),
		Progress:    p.Progress,
		Tries:       p.Tries,
	}
}

func millis(value int64) time.Time {
	if value == 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}
