package list

import "github.com/csheth/mangadeck/internal/model"

// Merge pairs every catalog chapter with its latest status record, if the
// feed has one. The output preserves catalog length and order exactly.
// Records for chapter ids absent from the catalog are simply not emitted;
// they stay in the feed tracker and surface once the catalog catches up.
func Merge(catalog []model.Chapter, statusByID map[int64]model.StatusRecord) []model.AnnotatedChapter {
	out := make([]model.AnnotatedChapter, len(catalog))
	for i, chapter := range catalog {
		annotated := model.AnnotatedChapter{Chapter: chapter}
		if rec, ok := statusByID[chapter.ID]; ok {
			status := rec
			annotated.Status = &status
		}
		out[i] = annotated
	}
	return out
}
