package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/khabardesk/khabar/internal/storage"
)

func (a *App) loadArticles() tea.Cmd {
	return func() tea.Msg {
		articles, err := a.store.ListPublished()
		if err != nil {
			return errorMsg{err: wrapErr("loading articles", err)}
		}
		return articlesLoadedMsg{articles: articles}
	}
}

// renderArticle produces the reader content: the article as markdown plus
// the related strip, rendered through glamour.
func (a *App) renderArticle(article *storage.Article, related []*storage.Article) tea.Cmd {
	return func() tea.Msg {
		var content strings.Builder
		content.WriteString(fmt.Sprintf("# %s\n\n", article.Title))
		content.WriteString(fmt.Sprintf("*%s*\n\n", articleMeta(article)))
		if !article.PublishedAt.IsZero() {
			content.WriteString(fmt.Sprintf("*%s*\n\n", article.PublishedAt.Format(time.RFC1123)))
		}

		if article.Excerpt != "" {
			content.WriteString(fmt.Sprintf("> %s\n\n", article.Excerpt))
		}

		if article.ImageURL != "" {
			content.WriteString(fmt.Sprintf("🖼 %s\n\n", truncateMiddle(article.ImageURL, 80)))
		}

		content.WriteString("---\n\n")
		content.WriteString(article.Content)
		content.WriteString("\n\n")

		if len(related) > 0 {
			content.WriteString("---\n\n**More from ")
			content.WriteString(string(article.Category))
			content.WriteString("**\n\n")
			for _, rel := range related {
				content.WriteString(fmt.Sprintf("- %s *(%d min)*\n", rel.Title, rel.ReadTime))
			}
		}

		r, err := a.getRenderer()
		if err != nil {
			return articleRenderedMsg{content: "Error initializing renderer: " + err.Error()}
		}

		rendered, err := r.Render(content.String())
		if err != nil {
			// Still an articleRenderedMsg so the loading flag clears.
			return articleRenderedMsg{content: fmt.Sprintf("# Error\n\nFailed to render article: %s\n\nPress Escape to go back.", err.Error())}
		}

		return articleRenderedMsg{content: rendered}
	}
}

func (a *App) toggleBookmark(id string) tea.Cmd {
	return func() tea.Msg {
		var saved bool
		err := retryOperation(func() error {
			var toggleErr error
			saved, toggleErr = a.controller.ToggleBookmark(id)
			return toggleErr
		})
		if err != nil {
			return bookmarkToggledMsg{id: id, err: wrapErr("toggling bookmark", err)}
		}
		return bookmarkToggledMsg{id: id, saved: saved}
	}
}

func (a *App) likeArticle(id string) tea.Cmd {
	return func() tea.Msg {
		err := retryOperation(func() error { return a.store.LikeArticle(id) })
		if err != nil {
			return likedMsg{id: id, err: wrapErr("recording like", err)}
		}
		return likedMsg{id: id}
	}
}

// retryOperation retries a database write up to 3 times with exponential
// backoff.
func retryOperation(operation func() error) error {
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if err := operation(); err != nil {
			lastErr = err
			if i < maxRetries-1 {
				time.Sleep(baseDelay * time.Duration(1<<i))
				continue
			}
		} else {
			return nil
		}
	}
	return lastErr
}
