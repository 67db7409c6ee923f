// Package api talks to the manga server's HTTP API: catalog queries and
// download queue mutations. The push feed rides on the same host over a
// websocket; see the feed package.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/csheth/mangadeck/internal/model"
)

const defaultTimeout = 15 * time.Second

// Client is a thin JSON client for one server. Every request carries a
// per-session client id so the server can correlate feed subscriptions
// with mutations.
type Client struct {
	baseURL  *url.URL
	http     *http.Client
	clientID string
}

// New builds a client for the given base URL, e.g. http://127.0.0.1:4567.
func New(baseURL string, timeout time.Duration) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", baseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("server url %q must be http or https", baseURL)
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:  parsed,
		http:     &http.Client{Timeout: timeout},
		clientID: uuid.NewString(),
	}, nil
}

// ClientID returns the per-session id sent with every request.
func (c *Client) ClientID() string { return c.clientID }

// FeedURL returns the websocket endpoint of the download status feed.
func (c *Client) FeedURL() string {
	feed := *c.baseURL
	switch feed.Scheme {
	case "https":
		feed.Scheme = "wss"
	default:
		feed.Scheme = "ws"
	}
	feed.Path = "/api/v1/downloads/feed"
	return feed.String()
}

// Error is a failed server call, carrying a human-readable message for the
// retry view.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("server error: %d %s", e.Status, e.Message)
}

// Manga fetches the catalog-level record.
func (c *Client) Manga(ctx context.Context, mangaID int64) (model.Manga, error) {
	var payload mangaPayload
	if err := c.get(ctx, fmt.Sprintf("/api/v1/manga/%d", mangaID), &payload); err != nil {
		return model.Manga{}, fmt.Errorf("loading manga %d: %w", mangaID, err)
	}
	return payload.toModel(), nil
}

// Chapters fetches the full chapter catalog for a manga, in the server's
// canonical source order.
func (c *Client) Chapters(ctx context.Context, mangaID int64) ([]model.Chapter, error) {
	var payload struct {
		Chapters []chapterPayload `json:"chapters"`
	}
	if err := c.get(ctx, fmt.Sprintf("/api/v1/manga/%d/chapters", mangaID), &payload); err != nil {
		return nil, fmt.Errorf("loading chapters for manga %d: %w", mangaID, err)
	}
	chapters := make([]model.Chapter, 0, len(payload.Chapters))
	for _, ch := range payload.Chapters {
		chapters = append(chapters, ch.toModel())
	}
	return chapters, nil
}

// DownloadStatus fetches the downloader state and the current queue
// snapshot in server order.
func (c *Client) DownloadStatus(ctx context.Context) (model.DownloaderState, []model.StatusRecord, error) {
	var payload struct {
		State string              `json:"state"`
		Queue []queueEntryPayload `json:"queue"`
	}
	if err := c.get(ctx, "/api/v1/downloads", &payload); err != nil {
		return model.DownloaderStopped, nil, fmt.Errorf("loading download queue: %w", err)
	}
	queue := make([]model.StatusRecord, 0, len(payload.Queue))
	for _, entry := range payload.Queue {
		queue = append(queue, entry.toStatus())
	}
	return model.ParseDownloaderState(payload.State), queue, nil
}

// Reorder moves a queued chapter to the given destination index.
func (c *Client) Reorder(ctx context.Context, chapterID int64, to int) error {
	return c.send(ctx, http.MethodPatch, fmt.Sprintf("/api/v1/downloads/%d/reorder/%d", chapterID, to), nil)
}

// Remove takes a chapter out of the download queue and deletes its partial
// download.
func (c *Client) Remove(ctx context.Context, chapterID int64) error {
	return c.send(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/downloads/%d", chapterID), nil)
}

// Enqueue adds the given chapters to the download queue.
func (c *Client) Enqueue(ctx context.Context, chapterIDs []int64) error {
	return c.send(ctx, http.MethodPost, "/api/v1/downloads/batch", map[string]any{"chapterIds": chapterIDs})
}

// Start resumes the downloader. Idempotent: starting a running downloader
// is a no-op server-side.
func (c *Client) Start(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "/api/v1/downloads/start", nil)
}

// Stop pauses the downloader. Idempotent like Start.
func (c *Client) Stop(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "/api/v1/downloads/stop", nil)
}

// Clear empties the download queue.
func (c *Client) Clear(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, "/api/v1/downloads/clear", nil)
}

// MarkRead flips the read flag on a batch of chapters.
func (c *Client) MarkRead(ctx context.Context, mangaID int64, chapterIDs []int64, read bool) error {
	body := map[string]any{"chapterIds": chapterIDs, "read": read}
	return c.send(ctx, http.MethodPatch, fmt.Sprintf("/api/v1/manga/%d/chapters", mangaID), body)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) send(ctx context.Context, method, path string, body any) error {
	return c.do(ctx, method, path, body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Client-Id", c.clientID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &Error{Status: resp.StatusCode, Message: errorMessage(resp)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// errorMessage extracts the server's message field when present, falling
// back to the raw body.
func errorMessage(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	if message := strings.TrimSpace(string(raw)); message != "" {
		return message
	}
	return resp.Status
}
