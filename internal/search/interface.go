package search

import "github.com/khabardesk/khabar/internal/storage"

// Result is a single search hit with its relevance score.
type Result struct {
	Article *storage.Article
	Score   float64
	Matches []Match
}

// Match records where a term was found.
type Match struct {
	Field  string // "title", "excerpt", "content", "author"
	Text   string // matched text snippet
	Weight float64
}

// Searcher defines the search API shared by the TUI and the HTTP server.
type Searcher interface {
	Search(query string, limit int) ([]*Result, error)
}

// UpdateListener can be implemented by engines that maintain an external
// index and want to be notified about data changes.
type UpdateListener interface {
	OnArticleSaved(article *storage.Article)
}

// DeleteListener can be implemented to get notified when an article is deleted.
type DeleteListener interface {
	OnArticleDeleted(articleID string)
}

// DebugStatser provides lightweight stats for visibility/debugging.
type DebugStatser interface {
	DocCount() (int, error)
}
