package feed

import (
	"sort"
	"strings"

	"github.com/khabardesk/khabar/internal/storage"
)

// Tab is one of the five top-level feed views.
type Tab string

const (
	TabHome       Tab = "home"
	TabCategories Tab = "categories"
	TabTrending   Tab = "trending"
	TabSaved      Tab = "saved"
	TabSearch     Tab = "search"
)

// Tabs lists the tabs in navigation order.
var Tabs = []Tab{TabHome, TabCategories, TabTrending, TabSaved, TabSearch}

// ValidTab reports whether t names a known tab.
func ValidTab(t Tab) bool {
	for _, known := range Tabs {
		if t == known {
			return true
		}
	}
	return false
}

// CategoryAll selects every category.
const CategoryAll storage.Category = "All"

// TrendingSize is how many articles the trending sidebar shows.
const TrendingSize = 5

// RelatedSize caps the related-articles strip under an open article.
const RelatedSize = 3

// Selection is the transient reader state that shapes the feed: the active
// tab, the category filter and the search query.
type Selection struct {
	Tab      Tab
	Category storage.Category
	Query    string
}

// DefaultSelection is the state at session start.
func DefaultSelection() Selection {
	return Selection{Tab: TabHome, Category: CategoryAll, Query: ""}
}

// heroPinned is the single guard shared by hero display and hero
// de-duplication. The raw query is checked, not the trimmed one: a
// whitespace-only query already unpins the hero even though it filters
// nothing.
func (s Selection) heroPinned() bool {
	return s.Tab == TabHome && s.Category == CategoryAll && s.Query == ""
}

// EmptyReason distinguishes the two empty-grid states.
type EmptyReason int

const (
	// EmptyNone means the grid has articles.
	EmptyNone EmptyReason = iota
	// EmptyNoSaved means the saved tab is active and nothing is bookmarked
	// (or no bookmark survived the filters).
	EmptyNoSaved
	// EmptyNoMatches means the filters matched nothing.
	EmptyNoMatches
)

// Feed is the derived render state for the listing view.
type Feed struct {
	// Hero is the promoted article, independent of tab/category/query.
	// Nil when no article is featured.
	Hero *storage.Article
	// ShowHero reports whether the hero block is displayed; the selection
	// suppresses it outside home/All/empty-query.
	ShowHero bool
	// Grid is the ordered article list below the hero.
	Grid []*storage.Article
	// Trending is the top-viewed sidebar, always computed from the full
	// collection.
	Trending []*storage.Article
	// Empty explains an empty grid.
	Empty EmptyReason
}

// Derive computes the exact set and order of articles to render from the
// published collection, the bookmark set and the current selection. It is
// pure: inputs are never mutated and identical arguments produce identical
// results.
func Derive(articles []*storage.Article, bookmarks map[string]bool, sel Selection) Feed {
	hero := Hero(articles)

	grid := articles
	if sel.Tab == TabSaved {
		grid = filter(grid, func(a *storage.Article) bool { return bookmarks[a.ID] })
	}
	if sel.Tab == TabTrending {
		grid = sortByViews(grid)
	}
	if sel.Category != CategoryAll {
		grid = filter(grid, func(a *storage.Article) bool { return a.Category == sel.Category })
	}
	if strings.TrimSpace(sel.Query) != "" {
		q := strings.ToLower(sel.Query)
		grid = filter(grid, func(a *storage.Article) bool {
			return strings.Contains(strings.ToLower(a.Title), q) ||
				strings.Contains(strings.ToLower(a.Excerpt), q) ||
				strings.Contains(strings.ToLower(a.Author), q)
		})
	}

	// The empty state is judged before hero de-duplication: a grid that
	// only lost the displayed hero is not an empty result.
	empty := EmptyNone
	if len(grid) == 0 {
		if sel.Tab == TabSaved {
			empty = EmptyNoSaved
		} else {
			empty = EmptyNoMatches
		}
	}

	pinned := sel.heroPinned()
	if hero != nil && pinned {
		grid = filter(grid, func(a *storage.Article) bool { return a.ID != hero.ID })
	}

	return Feed{
		Hero:     hero,
		ShowHero: hero != nil && pinned,
		Grid:     grid,
		Trending: TrendingTop(articles, TrendingSize),
		Empty:    empty,
	}
}

// Hero picks the promoted article: the first that is both featured and
// breaking, else the first featured, else nil. Collection order decides
// ties.
func Hero(articles []*storage.Article) *storage.Article {
	for _, a := range articles {
		if a.Featured && a.Breaking {
			return a
		}
	}
	for _, a := range articles {
		if a.Featured {
			return a
		}
	}
	return nil
}

// TrendingTop returns the n most-viewed articles, most views first. The
// sort is stable: equal view counts keep their collection order.
func TrendingTop(articles []*storage.Article, n int) []*storage.Article {
	top := sortByViews(articles)
	if len(top) > n {
		top = top[:n]
	}
	return top
}

// Related picks up to RelatedSize articles sharing the open article's
// category, excluding the article itself, in collection order. Purely
// positional: no recency weighting, no randomization.
func Related(open *storage.Article, articles []*storage.Article) []*storage.Article {
	if open == nil {
		return nil
	}
	related := make([]*storage.Article, 0, RelatedSize)
	for _, a := range articles {
		if a.Category == open.Category && a.ID != open.ID {
			related = append(related, a)
			if len(related) == RelatedSize {
				break
			}
		}
	}
	return related
}

func filter(articles []*storage.Article, keep func(*storage.Article) bool) []*storage.Article {
	kept := make([]*storage.Article, 0, len(articles))
	for _, a := range articles {
		if keep(a) {
			kept = append(kept, a)
		}
	}
	return kept
}

func sortByViews(articles []*storage.Article) []*storage.Article {
	sorted := make([]*storage.Article, len(articles))
	copy(sorted, articles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Views > sorted[j].Views
	})
	return sorted
}
