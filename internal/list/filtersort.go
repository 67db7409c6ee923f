// Package list derives the render-ready chapter sequence for a screen:
// it merges the catalog with the live download feed, applies the user's
// filter and sort options, and overlays selection flags.
package list

import (
	"sort"

	"github.com/csheth/mangadeck/internal/model"
)

// Predicate decides whether an annotated chapter stays visible. Predicates
// are combined with logical AND.
type Predicate func(model.AnnotatedChapter) bool

// Comparator orders two annotated chapters: negative when a sorts before b,
// zero when equal. Ties are broken by catalog position, so equal-key
// chapters never swap between recomputations.
type Comparator func(a, b model.AnnotatedChapter) int

// Options is the externally supplied filter/sort configuration. It holds no
// state of its own and may be replaced at any time; Visible recomputes from
// scratch.
type Options struct {
	Predicates []Predicate
	Compare    Comparator
}

// Visible returns the filtered, sorted sub-sequence of items. It is a pure
// function: it never mutates its input and the same inputs always produce
// the same output. An empty predicate list keeps every item; a nil
// comparator keeps catalog order.
func Visible(items []model.AnnotatedChapter, opts Options) []model.AnnotatedChapter {
	out := make([]model.AnnotatedChapter, 0, len(items))
outer:
	for _, item := range items {
		for _, keep := range opts.Predicates {
			if !keep(item) {
				continue outer
			}
		}
		out = append(out, item)
	}

	if opts.Compare != nil {
		// SliceStable preserves the incoming (catalog) order for equal
		// keys, which is exactly the tie-break the screens rely on.
		sort.SliceStable(out, func(i, j int) bool {
			return opts.Compare(out[i], out[j]) < 0
		})
	}
	return out
}

// Canned predicates mirroring the chapter toolbar filters.

func Unread() Predicate {
	return func(c model.AnnotatedChapter) bool { return !c.Chapter.Read }
}

func Downloaded() Predicate {
	return func(c model.AnnotatedChapter) bool { return c.Chapter.Downloaded }
}

func Bookmarked() Predicate {
	return func(c model.AnnotatedChapter) bool { return c.Chapter.Bookmarked }
}

// Canned comparators mirroring the chapter toolbar sort modes.

func BySourceOrder(descending bool) Comparator {
	return direction(descending, func(a, b model.AnnotatedChapter) int {
		return a.Chapter.SourceOrder - b.Chapter.SourceOrder
	})
}

func ByChapterNumber(descending bool) Comparator {
	return direction(descending, func(a, b model.AnnotatedChapter) int {
		switch {
		case a.Chapter.ChapterNumber < b.Chapter.ChapterNumber:
			return -1
		case a.Chapter.ChapterNumber > b.Chapter.ChapterNumber:
			return 1
		default:
			return 0
		}
	})
}

func ByFetchedAt(descending bool) Comparator {
	return direction(descending, func(a, b model.AnnotatedChapter) int {
		switch {
		case a.Chapter.FetchedAt.Before(b.Chapter.FetchedAt):
			return -1
		case a.Chapter.FetchedAt.After(b.Chapter.FetchedAt):
			return 1
		default:
			return 0
		}
	})
}

func direction(descending bool, cmp Comparator) Comparator {
	if !descending {
		return cmp
	}
	return func(a, b model.AnnotatedChapter) int { return cmp(b, a) }
}
