package model

import "time"

// Chapter is one entry of a manga's catalog as reported by the server.
// The ID is stable; SourceOrder is the server-assigned canonical position
// and may change when the source republishes chapters.
type Chapter struct {
	ID            int64
	MangaID       int64
	Name          string
	Scanlator     string
	ChapterNumber float64
	SourceOrder   int
	UploadedAt    time.Time
	FetchedAt     time.Time
	Read          bool
	Bookmarked    bool
	Downloaded    bool
	PageCount     int
}

// Manga carries the catalog-level fields the screens need.
type Manga struct {
	ID            int64
	Title         string
	UnreadCount   int
	DownloadCount int
	ChapterCount  int
}

// AnnotatedChapter pairs a catalog chapter with its current transient
// download status, if the downloader has reported one. A nil Status is the
// normal not-yet-queued state.
type AnnotatedChapter struct {
	Chapter Chapter
	Status  *StatusRecord
}
