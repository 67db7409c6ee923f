package model

import "strings"

// DownloadState enumerates the lifecycle of one queued chapter download.
type DownloadState int

const (
	StateQueued DownloadState = iota
	StateDownloading
	StateDownloaded
	StateError
	StatePaused
)

var stateNames = map[DownloadState]string{
	StateQueued:      "QUEUED",
	StateDownloading: "DOWNLOADING",
	StateDownloaded:  "DOWNLOADED",
	StateError:       "ERROR",
	StatePaused:      "PAUSED",
}

func (s DownloadState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "QUEUED"
}

// ParseDownloadState maps a server state string to a DownloadState.
// Unknown values degrade to StateQueued rather than failing; the feed is
// allowed to grow new states before the client learns about them.
func ParseDownloadState(value string) DownloadState {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "DOWNLOADING":
		return StateDownloading
	case "DOWNLOADED", "FINISHED":
		return StateDownloaded
	case "ERROR":
		return StateError
	case "PAUSED", "STOPPED":
		return StatePaused
	default:
		return StateQueued
	}
}

// Terminal reports whether the state will receive no further progress.
func (s DownloadState) Terminal() bool {
	return s == StateDownloaded || s == StateError
}

// StatusRecord is one transient download status event, keyed by chapter id.
// Each record supersedes the previous one for the same chapter entirely;
// partial fields from older records are never merged in.
type StatusRecord struct {
	ChapterID   int64
	MangaID     int64
	MangaTitle  string
	ChapterName string
	State       DownloadState
	Progress    float64
	Tries       int

	// Seq is the arrival sequence stamped by the feed tracker. It orders
	// records for the same chapter by arrival, not by content.
	Seq uint64
}

// DownloaderState is the server-side downloader toggle.
type DownloaderState int

const (
	DownloaderStarted DownloaderState = iota
	DownloaderStopped
)

func (s DownloaderState) String() string {
	if s == DownloaderStopped {
		return "STOPPED"
	}
	return "STARTED"
}

// ParseDownloaderState treats anything but an explicit stop as started,
// matching the server's default.
func ParseDownloaderState(value string) DownloaderState {
	if strings.EqualFold(strings.TrimSpace(value), "STOPPED") {
		return DownloaderStopped
	}
	return DownloaderStarted
}
