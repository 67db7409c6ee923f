package list

import (
	"github.com/csheth/mangadeck/internal/model"
	"github.com/csheth/mangadeck/internal/selection"
)

// Row is one render-ready line: the annotated chapter plus its selection
// overlay. Selected is meaningful only while SelectionActive is true; an
// inactive selection means the screen should not draw selection affordances
// at all.
type Row struct {
	model.AnnotatedChapter
	Selected        bool
	SelectionActive bool
}

// Counts lets the screen distinguish "no catalog data" (Total == 0) from
// "catalog present but nothing matches the filter" (Total > 0, Visible == 0).
type Counts struct {
	Total    int
	Visible  int
	Selected int
}

// RenderModel is the final product handed to the view layer.
type RenderModel struct {
	Rows   []Row
	Counts Counts
}

// Render runs the fixed pipeline: merge the catalog with the status feed,
// filter and sort, then overlay selection. Selection is pruned against the
// catalog first so ids deleted server-side never dangle, and the overlay
// resolves against the visible order because that is what range selection
// is defined over.
func Render(
	catalog []model.Chapter,
	statusByID map[int64]model.StatusRecord,
	opts Options,
	store *selection.Store,
	scope string,
) RenderModel {
	ids := make([]int64, len(catalog))
	for i, chapter := range catalog {
		ids[i] = chapter.ID
	}
	store.Prune(scope, ids)

	visible := Visible(Merge(catalog, statusByID), opts)

	rows := make([]Row, len(visible))
	for i, item := range visible {
		selected, active := store.IsSelected(scope, item.Chapter.ID)
		rows[i] = Row{AnnotatedChapter: item, Selected: selected, SelectionActive: active}
	}

	return RenderModel{
		Rows: rows,
		Counts: Counts{
			Total:    len(catalog),
			Visible:  len(visible),
			Selected: store.Count(scope),
		},
	}
}

// VisibleIDs extracts the ordered chapter ids of a render model, the form
// range selection expects.
func (m RenderModel) VisibleIDs() []int64 {
	ids := make([]int64, len(m.Rows))
	for i, row := range m.Rows {
		ids[i] = row.Chapter.ID
	}
	return ids
}
