package list

import (
	"reflect"
	"testing"
	"time"

	"github.com/csheth/mangadeck/internal/model"
	"github.com/csheth/mangadeck/internal/selection"
)

func catalogFixture() []model.Chapter {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return []model.Chapter{
		{ID: 1, Name: "Ch. 1", ChapterNumber: 1, SourceOrder: 1, Read: true, Downloaded: true, FetchedAt: base},
		{ID: 2, Name: "Ch. 2", ChapterNumber: 2, SourceOrder: 2, FetchedAt: base.Add(time.Hour)},
		{ID: 3, Name: "Ch. 3", ChapterNumber: 3, SourceOrder: 3, Bookmarked: true, FetchedAt: base.Add(2 * time.Hour)},
		{ID: 4, Name: "Ch. 4", ChapterNumber: 4, SourceOrder: 4, FetchedAt: base.Add(3 * time.Hour)},
	}
}

func TestMergePreservesCatalogLengthAndOrder(t *testing.T) {
	t.Parallel()

	catalog := catalogFixture()
	status := map[int64]model.StatusRecord{
		2: {ChapterID: 2, State: model.StateDownloading, Progress: 0.5},
		// Record for a chapter the catalog does not (yet) contain.
		99: {ChapterID: 99, State: model.StateQueued},
	}

	merged := Merge(catalog, status)
	if len(merged) != len(catalog) {
		t.Fatalf("merged length = %d, want %d", len(merged), len(catalog))
	}
	for i := range catalog {
		if merged[i].Chapter.ID != catalog[i].ID {
			t.Fatalf("merged[%d] = chapter %d, want %d", i, merged[i].Chapter.ID, catalog[i].ID)
		}
	}
	if merged[1].Status == nil || merged[1].Status.State != model.StateDownloading {
		t.Fatalf("chapter 2 should carry the downloading status, got %v", merged[1].Status)
	}
	if merged[0].Status != nil {
		t.Fatalf("chapter 1 has no status record, got %v", merged[0].Status)
	}
}

func TestMergeLastWriteWins(t *testing.T) {
	t.Parallel()

	catalog := catalogFixture()[:1]
	status := map[int64]model.StatusRecord{
		1: {ChapterID: 1, State: model.StateDownloading, Progress: 0.4, Seq: 7},
	}
	// A later record replaces the entry wholesale, no field merging.
	status[1] = model.StatusRecord{ChapterID: 1, State: model.StateDownloaded, Progress: 1, Seq: 8}

	merged := Merge(catalog, status)
	if merged[0].Status.State != model.StateDownloaded {
		t.Fatalf("state = %v, want DOWNLOADED", merged[0].Status.State)
	}
	if merged[0].Status.Progress != 1 {
		t.Fatalf("progress = %v, want 1 (no partial merge)", merged[0].Status.Progress)
	}
}

func TestVisibleEmptyOptionsIsIdentity(t *testing.T) {
	t.Parallel()

	merged := Merge(catalogFixture(), nil)
	got := Visible(merged, Options{})
	if !reflect.DeepEqual(got, merged) {
		t.Fatalf("identity filter changed the sequence: %v", got)
	}
}

func TestVisibleIsIdempotent(t *testing.T) {
	t.Parallel()

	opts := Options{
		Predicates: []Predicate{Unread()},
		Compare:    ByChapterNumber(true),
	}
	merged := Merge(catalogFixture(), nil)

	once := Visible(merged, opts)
	twice := Visible(once, opts)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("compute is not a fixed point:\nonce  %v\ntwice %v", once, twice)
	}
}

func TestVisiblePredicatesAreANDed(t *testing.T) {
	t.Parallel()

	merged := Merge(catalogFixture(), nil)
	got := Visible(merged, Options{Predicates: []Predicate{Unread(), Bookmarked()}})
	if len(got) != 1 || got[0].Chapter.ID != 3 {
		t.Fatalf("unread AND bookmarked should keep only chapter 3, got %v", got)
	}
}

func TestVisibleStableTieBreakOnCatalogOrder(t *testing.T) {
	t.Parallel()

	same := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	catalog := []model.Chapter{
		{ID: 1, SourceOrder: 1, FetchedAt: same},
		{ID: 2, SourceOrder: 2, FetchedAt: same},
		{ID: 3, SourceOrder: 3, FetchedAt: same},
	}
	got := Visible(Merge(catalog, nil), Options{Compare: ByFetchedAt(false)})
	for i, want := range []int64{1, 2, 3} {
		if got[i].Chapter.ID != want {
			t.Fatalf("equal-key sort reordered chapters: %v", got)
		}
	}
}

func TestRenderCountsDistinguishEmptyFromFiltered(t *testing.T) {
	t.Parallel()

	store := selection.NewStore()

	empty := Render(nil, nil, Options{}, store, "chapters")
	if empty.Counts.Total != 0 || empty.Counts.Visible != 0 {
		t.Fatalf("no-catalog counts = %+v", empty.Counts)
	}

	allRead := []model.Chapter{{ID: 1, Read: true}, {ID: 2, Read: true}}
	filtered := Render(allRead, nil, Options{Predicates: []Predicate{Unread()}}, store, "chapters")
	if filtered.Counts.Total != 2 || filtered.Counts.Visible != 0 {
		t.Fatalf("filtered-out counts = %+v", filtered.Counts)
	}
}

func TestRenderPrunesSelectionAgainstCatalog(t *testing.T) {
	t.Parallel()

	store := selection.NewStore()
	store.Toggle("chapters", 2)
	store.Toggle("chapters", 99) // deleted server-side

	m := Render(catalogFixture(), nil, Options{}, store, "chapters")
	if m.Counts.Selected != 1 {
		t.Fatalf("selected count = %d, want 1 after pruning id 99", m.Counts.Selected)
	}
	if got := store.SelectedIDs("chapters"); !reflect.DeepEqual(got, []int64{2}) {
		t.Fatalf("selection after render = %v, want [2]", got)
	}
}

func TestRenderSelectionOverlayFollowsVisibleOrder(t *testing.T) {
	t.Parallel()

	store := selection.NewStore()
	store.Toggle("chapters", 2)

	opts := Options{Compare: ByChapterNumber(true)}
	m := Render(catalogFixture(), nil, opts, store, "chapters")

	if got := m.VisibleIDs(); !reflect.DeepEqual(got, []int64{4, 3, 2, 1}) {
		t.Fatalf("visible order = %v, want [4 3 2 1]", got)
	}
	for _, row := range m.Rows {
		if !row.SelectionActive {
			t.Fatalf("rows should report an active selection: %+v", row)
		}
		if (row.Chapter.ID == 2) != row.Selected {
			t.Fatalf("row %d selected=%v", row.Chapter.ID, row.Selected)
		}
	}
}
