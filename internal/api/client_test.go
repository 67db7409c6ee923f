package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/csheth/mangadeck/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := New(server.URL, time.Second)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client, server
}

func TestNewRejectsBadURL(t *testing.T) {
	t.Parallel()

	if _, err := New("ftp://example.com", 0); err == nil {
		t.Fatal("expected error for non-http scheme")
	}
}

func TestChaptersDecodesCatalog(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/manga/42/chapters" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("X-Client-Id") == "" {
			t.Error("missing client id header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"chapters": [
			{"id": 1, "mangaId": 42, "name": "Ch. 1", "chapterNumber": 1, "sourceOrder": 1,
			 "uploadDate": 1709251200000, "read": true},
			{"id": 2, "mangaId": 42, "name": "Ch. 2", "chapterNumber": 2, "sourceOrder": 2}
		]}`))
	}))

	chapters, err := client.Chapters(context.Background(), 42)
	if err != nil {
		t.Fatalf("Chapters: %v", err)
	}
	if len(chapters) != 2 {
		t.Fatalf("got %d chapters, want 2", len(chapters))
	}
	if chapters[0].Name != "Ch. 1" || !chapters[0].Read {
		t.Fatalf("chapter 1 = %+v", chapters[0])
	}
	if got := chapters[0].UploadedAt.Year(); got != 2024 {
		t.Fatalf("upload year = %d, want 2024", got)
	}
}

func TestDownloadStatusDecodesQueue(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"state": "STOPPED", "queue": [
			{"chapterId": 5, "mangaId": 42, "mangaTitle": "Fixture", "chapterName": "Ch. 5",
			 "state": "DOWNLOADING", "progress": 0.75, "tries": 1}
		]}`))
	}))

	state, queue, err := client.DownloadStatus(context.Background())
	if err != nil {
		t.Fatalf("DownloadStatus: %v", err)
	}
	if state != model.DownloaderStopped {
		t.Fatalf("state = %v, want STOPPED", state)
	}
	if len(queue) != 1 || queue[0].State != model.StateDownloading || queue[0].Progress != 0.75 {
		t.Fatalf("queue = %+v", queue)
	}
}

func TestReorderHitsExpectedEndpoint(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
	}))

	if err := client.Reorder(context.Background(), 9, 0); err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if gotMethod != http.MethodPatch || gotPath != "/api/v1/downloads/9/reorder/0" {
		t.Fatalf("request = %s %s", gotMethod, gotPath)
	}
}

func TestServerErrorSurfacesMessage(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message": "chapter no longer queued"}`))
	}))

	err := client.Reorder(context.Background(), 9, 0)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *api.Error", err)
	}
	if apiErr.Status != http.StatusConflict || apiErr.Message != "chapter no longer queued" {
		t.Fatalf("api error = %+v", apiErr)
	}
}

func TestServerErrorFallsBackToRawBody(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream source unreachable"))
	}))

	_, err := client.Chapters(context.Background(), 1)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *api.Error", err)
	}
	if apiErr.Message != "upstream source unreachable" {
		t.Fatalf("message = %q", apiErr.Message)
	}
}

func TestFeedURLSwitchesScheme(t *testing.T) {
	t.Parallel()

	client, err := New("http://localhost:4567", 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := client.FeedURL(); got != "ws://localhost:4567/api/v1/downloads/feed" {
		t.Fatalf("feed url = %q", got)
	}

	secure, err := New("https://manga.example.com", 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := secure.FeedURL(); got != "wss://manga.example.com/api/v1/downloads/feed" {
		t.Fatalf("feed url = %q", got)
	}
}

func TestMarkReadSendsBatchBody(t *testing.T) {
	t.Parallel()

	var gotBody string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 256)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
	}))

	if err := client.MarkRead(context.Background(), 42, []int64{1, 2}, true); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if gotBody != `{"chapterIds":[1,2],"read":true}` {
		t.Fatalf("body = %s", gotBody)
	}
}
