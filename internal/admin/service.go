// Package admin implements the password-gated editorial operations:
// listing every article including drafts, editing, deleting, moderating
// and aggregating analytics.
package admin

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sort"

	"github.com/khabardesk/khabar/internal/ai"
	"github.com/khabardesk/khabar/internal/debuglog"
	"github.com/khabardesk/khabar/internal/storage"
	"github.com/khabardesk/khabar/internal/validation"
)

// ErrUnauthorized means the supplied password did not match.
var ErrUnauthorized = errors.New("invalid admin password")

// Moderator is satisfied by the AI gateway.
type Moderator interface {
	Moderate(ctx context.Context, article *storage.Article) (ai.Verdict, error)
}

type Service struct {
	store    *storage.Store
	password string
}

// NewService wires the editorial operations to the store. An empty
// password disables admin access entirely.
func NewService(store *storage.Store, password string) *Service {
	return &Service{store: store, password: password}
}

// VerifyPassword checks the password in constant time. Always fails when
// no password is configured.
func (s *Service) VerifyPassword(password string) bool {
	if s.password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.password), []byte(password)) == 1
}

func (s *Service) authorize(password string) error {
	if !s.VerifyPassword(password) {
		return ErrUnauthorized
	}
	return nil
}

// ListArticles returns every article, drafts included, newest first.
func (s *Service) ListArticles(password string) ([]*storage.Article, error) {
	if err := s.authorize(password); err != nil {
		return nil, err
	}
	return s.store.ListAll()
}

// Updates carries partial edits; nil fields stay untouched.
type Updates struct {
	Title     *string           `json:"title"`
	Excerpt   *string           `json:"excerpt"`
	Content   *string           `json:"content"`
	Category  *storage.Category `json:"category"`
	Language  *storage.Language `json:"language"`
	Author    *string           `json:"author"`
	ImageURL  *string           `json:"image_url"`
	ReadTime  *int              `json:"read_time"`
	Breaking  *bool             `json:"is_breaking"`
	Featured  *bool             `json:"is_featured"`
	Published *bool             `json:"is_published"`
	Approved  *bool             `json:"is_approved"`
}

// UpdateArticle applies the edits and validates the result before saving.
func (s *Service) UpdateArticle(password, id string, updates Updates) (*storage.Article, error) {
	if err := s.authorize(password); err != nil {
		return nil, err
	}

	article, err := s.store.GetArticle(id)
	if err != nil {
		return nil, err
	}

	applyUpdates(article, updates)

	if err := validation.ValidateArticle(article); err != nil {
		return nil, fmt.Errorf("invalid update: %w", err)
	}

	if err := s.store.SaveArticle(article); err != nil {
		return nil, err
	}
	return article, nil
}

func applyUpdates(a *storage.Article, u Updates) {
	if u.Title != nil {
		a.Title = *u.Title
	}
	if u.Excerpt != nil {
		a.Excerpt = *u.Excerpt
	}
	if u.Content != nil {
		a.Content = *u.Content
	}
	if u.Category != nil {
		a.Category = *u.Category
	}
	if u.Language != nil {
		a.Language = *u.Language
	}
	if u.Author != nil {
		a.Author = *u.Author
	}
	if u.ImageURL != nil {
		a.ImageURL = *u.ImageURL
	}
	if u.ReadTime != nil {
		a.ReadTime = *u.ReadTime
	}
	if u.Breaking != nil {
		a.Breaking = *u.Breaking
	}
	if u.Featured != nil {
		a.Featured = *u.Featured
	}
	if u.Published != nil {
		a.Published = *u.Published
	}
	if u.Approved != nil {
		a.Approved = *u.Approved
	}
}

// DeleteArticle removes the article and its bookmark entry.
func (s *Service) DeleteArticle(password, id string) error {
	if err := s.authorize(password); err != nil {
		return err
	}
	// Surface a not-found error instead of silently deleting nothing.
	if _, err := s.store.GetArticle(id); err != nil {
		return err
	}
	return s.store.DeleteArticle(id)
}

// Analytics aggregates the numbers the editorial dashboard shows.
type Analytics struct {
	TotalArticles   int                      `json:"total_articles"`
	PublishedCount  int                      `json:"published_count"`
	PendingCount    int                      `json:"pending_count"`
	BreakingCount   int                      `json:"breaking_count"`
	TotalViews      int64                    `json:"total_views"`
	TotalLikes      int64                    `json:"total_likes"`
	ByCategory      map[storage.Category]int `json:"by_category"`
	ByLanguage      map[storage.Language]int `json:"by_language"`
	TopArticles     []*storage.Article       `json:"top_articles"`
	TopArticleCount int                      `json:"-"`
}

const defaultTopArticles = 5

// GetAnalytics computes the dashboard aggregates over all articles.
func (s *Service) GetAnalytics(password string) (*Analytics, error) {
	if err := s.authorize(password); err != nil {
		return nil, err
	}

	articles, err := s.store.ListAll()
	if err != nil {
		return nil, err
	}

	stats := &Analytics{
		ByCategory: make(map[storage.Category]int),
		ByLanguage: make(map[storage.Language]int),
	}
	for _, a := range articles {
		stats.TotalArticles++
		if a.Published {
			stats.PublishedCount++
		} else {
			stats.PendingCount++
		}
		if a.Breaking {
			stats.BreakingCount++
		}
		stats.TotalViews += a.Views
		stats.TotalLikes += a.Likes
		stats.ByCategory[a.Category]++
		stats.ByLanguage[a.Language]++
	}

	top := make([]*storage.Article, len(articles))
	copy(top, articles)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Views > top[j].Views })
	if len(top) > defaultTopArticles {
		top = top[:defaultTopArticles]
	}
	stats.TopArticles = top

	return stats, nil
}

// ModerationOutcome records one article's verdict during a moderation run.
type ModerationOutcome struct {
	ArticleID string `json:"article_id"`
	Title     string `json:"title"`
	Approved  bool   `json:"approved"`
	Reason    string `json:"reason"`
}

// ModeratePending runs the moderator over every unapproved article and
// writes the verdicts back. A failed verdict skips the article and keeps
// going; the error from the last failure is returned alongside the
// outcomes that succeeded.
func (s *Service) ModeratePending(ctx context.Context, password string, moderator Moderator) ([]ModerationOutcome, error) {
	if err := s.authorize(password); err != nil {
		return nil, err
	}

	articles, err := s.store.ListAll()
	if err != nil {
		return nil, err
	}

	var outcomes []ModerationOutcome
	var lastErr error
	for _, article := range articles {
		if article.Approved {
			continue
		}

		verdict, err := moderator.Moderate(ctx, article)
		if err != nil {
			debuglog.Warnf("moderation failed for %s: %v", article.ID, err)
			lastErr = err
			continue
		}

		if err := s.store.SetModeration(article.ID, verdict.Approved); err != nil {
			lastErr = err
			continue
		}

		outcomes = append(outcomes, ModerationOutcome{
			ArticleID: article.ID,
			Title:     article.Title,
			Approved:  verdict.Approved,
			Reason:    verdict.Reason,
		})
	}

	return outcomes, lastErr
}
