package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/csheth/mangadeck/internal/model"
)

const dialTimeout = 10 * time.Second

// Event is one message from the status feed: a per-chapter status update
// and the downloader's running state at that moment.
type Event struct {
	Record     model.StatusRecord
	Downloader model.DownloaderState
}

// wire mirrors the JSON the server pushes per event.
type wire struct {
	ChapterID   int64   `json:"chapterId"`
	MangaID     int64   `json:"mangaId"`
	MangaTitle  string  `json:"mangaTitle"`
	ChapterName string  `json:"chapterName"`
	State       string  `json:"state"`
	Progress    float64 `json:"progress"`
	Tries       int     `json:"tries"`
	Downloader  string  `json:"downloaderState"`
}

// Subscription is a live websocket feed of status events. Events arrive on
// Events in server order until the connection drops or Close is called;
// the channel is then closed. A closed feed is a transient gap, not an
// error: the consumer redials and the tracker self-heals from new records.
type Subscription struct {
	conn   *websocket.Conn
	events chan Event
	done   chan struct{}
}

// Dial opens the status feed. clientID identifies this UI session to the
// server so reconnects resume cleanly.
func Dial(ctx context.Context, feedURL, clientID string) (*Subscription, error) {
	dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
	header := http.Header{"X-Client-Id": []string{clientID}}
	conn, resp, err := dialer.DialContext(ctx, feedURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("status feed handshake failed: %s: %w", resp.Status, err)
		}
		return nil, fmt.Errorf("status feed unreachable: %w", err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	s := &Subscription{
		conn:   conn,
		events: make(chan Event, 16),
		done:   make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// Events yields feed events until the subscription ends.
func (s *Subscription) Events() <-chan Event { return s.events }

// Close tears the subscription down. Safe to call more than once.
func (s *Subscription) Close() error {
	select {
	case <-s.done:
		return nil
	default:
		close(s.done)
	}
	return s.conn.Close()
}

func (s *Subscription) readLoop() {
	defer close(s.events)
	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			// Disconnects are expected; the consumer treats the closed
			// channel as a feed gap and may redial.
			return
		}
		var msg wire
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}
		event := Event{
			Record: model.StatusRecord{
				ChapterID:   msg.ChapterID,
				MangaID:     msg.MangaID,
				MangaTitle:  msg.MangaTitle,
				ChapterName: msg.ChapterName,
				State:       model.ParseDownloadState(msg.State),
				Progress:    msg.Progress,
				Tries:       msg.Tries,
			},
			Downloader: model.ParseDownloaderState(msg.Downloader),
		}
		select {
		case s.events <- event:
		case <-s.done:
			return
		}
	}
}
