package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/khabardesk/khabar/internal/admin"
	"github.com/khabardesk/khabar/internal/ai"
	"github.com/khabardesk/khabar/internal/debuglog"
	"github.com/khabardesk/khabar/internal/feed"
	"github.com/khabardesk/khabar/internal/storage"
	"github.com/khabardesk/khabar/internal/validation"
)

const defaultSearchLimit = 20

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleListArticles(c echo.Context) error {
	articles, err := s.store.ListPublished()
	if err != nil {
		return s.fail(c, err)
	}

	if category := c.QueryParam("category"); category != "" {
		articles = keepArticles(articles, func(a *storage.Article) bool {
			return a.Category == storage.Category(category)
		})
	}
	if language := c.QueryParam("language"); language != "" {
		articles = keepArticles(articles, func(a *storage.Article) bool {
			return a.Language == storage.Language(language)
		})
	}

	return c.JSON(http.StatusOK, map[string]any{"articles": articles})
}

func (s *Server) handleGetArticle(c echo.Context) error {
	article, err := s.store.GetArticle(c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	if !article.Published {
		return s.fail(c, storage.ErrArticleNotFound)
	}

	published, err := s.store.ListPublished()
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"article": article,
		"related": feed.Related(article, published),
	})
}

// handleRecordView counts the view and always reports success; a failed
// increment is logged but never surfaces to the reader.
func (s *Server) handleRecordView(c echo.Context) error {
	id := c.Param("id")
	if err := s.store.IncrementViews(id); err != nil {
		debuglog.Warnf("view increment failed for %s: %v", id, err)
	}
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) handleLikeArticle(c echo.Context) error {
	if err := s.store.LikeArticle(c.Param("id")); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleFeed(c echo.Context) error {
	sel := feed.DefaultSelection()
	if tab := feed.Tab(c.QueryParam("tab")); tab != "" {
		if !feed.ValidTab(tab) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown tab"})
		}
		sel.Tab = tab
	}
	if category := c.QueryParam("category"); category != "" {
		sel.Category = storage.Category(category)
		if sel.Category != feed.CategoryAll && !storage.ValidCategory(sel.Category) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown category"})
		}
	}
	sel.Query = c.QueryParam("q")

	// Bookmarks are device-local; API clients pass their saved ids along.
	bookmarks := make(map[string]bool)
	if saved := c.QueryParam("saved"); saved != "" {
		for _, id := range strings.Split(saved, ",") {
			if id = strings.TrimSpace(id); id != "" {
				bookmarks[id] = true
			}
		}
	}

	articles, err := s.store.ListPublished()
	if err != nil {
		return s.fail(c, err)
	}

	derived := feed.Derive(articles, bookmarks, sel)
	return c.JSON(http.StatusOK, map[string]any{
		"hero":      derived.Hero,
		"show_hero": derived.ShowHero,
		"grid":      derived.Grid,
		"trending":  derived.Trending,
		"empty":     emptyReasonLabel(derived.Empty),
	})
}

func emptyReasonLabel(reason feed.EmptyReason) string {
	switch reason {
	case feed.EmptyNoSaved:
		return "no_saved"
	case feed.EmptyNoMatches:
		return "no_matches"
	default:
		return "none"
	}
}

func (s *Server) handleSearchArticles(c echo.Context) error {
	query := c.QueryParam("q")
	if strings.TrimSpace(query) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "search query must not be empty"})
	}

	limit := defaultSearchLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid limit"})
		}
		limit = parsed
	}

	results, err := s.searcher.Search(query, limit)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"results": results})
}

type submitRequest struct {
	Title    string           `json:"title"`
	Excerpt  string           `json:"excerpt"`
	Content  string           `json:"content"`
	Category storage.Category `json:"category"`
	Language storage.Language `json:"language"`
	Author   string           `json:"author"`
	ImageURL string           `json:"image_url"`
}

// handleSubmit accepts a reader-submitted article. It lands unpublished
// and unapproved, waiting for moderation.
func (s *Server) handleSubmit(c echo.Context) error {
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request body"})
	}

	now := time.Now()
	article := &storage.Article{
		ID:          storage.NewArticleID(),
		Title:       strings.TrimSpace(req.Title),
		Excerpt:     strings.TrimSpace(req.Excerpt),
		Content:     strings.TrimSpace(req.Content),
		Category:    req.Category,
		Language:    req.Language,
		Author:      strings.TrimSpace(req.Author),
		PublishedAt: now,
		CreatedAt:   now,
		ReadTime:    estimateReadTime(req.Content),
		SubmittedBy: storage.SubmittedByPublic,
	}

	if err := validation.ValidateArticle(article); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if req.ImageURL != "" {
		normalized, err := validation.NewURLValidator().ValidateAndNormalize(req.ImageURL)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "image URL: " + err.Error()})
		}
		article.ImageURL = normalized
	}

	if err := s.store.SaveArticle(article); err != nil {
		return s.fail(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]any{"article": article})
}

func estimateReadTime(content string) int {
	minutes := (len(strings.Fields(content)) + 199) / 200
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

type adminVerifyRequest struct {
	Password string `json:"password"`
}

func (s *Server) handleAdminVerify(c echo.Context) error {
	var req adminVerifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request body"})
	}
	if s.admin == nil || !s.admin.VerifyPassword(req.Password) {
		return c.JSON(http.StatusUnauthorized, map[string]any{"valid": false})
	}
	return c.JSON(http.StatusOK, map[string]any{"valid": true})
}

type adminArticlesRequest struct {
	Password  string        `json:"password"`
	Action    string        `json:"action"`
	ArticleID string        `json:"article_id"`
	Updates   admin.Updates `json:"updates"`
}

// handleAdminArticles is the action-style editorial endpoint: one route,
// the action field selects list, update or delete.
func (s *Server) handleAdminArticles(c echo.Context) error {
	if s.admin == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "admin not configured"})
	}

	var req adminArticlesRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request body"})
	}

	switch req.Action {
	case "list":
		articles, err := s.admin.ListArticles(req.Password)
		if err != nil {
			return s.fail(c, err)
		}
		return c.JSON(http.StatusOK, map[string]any{"articles": articles})

	case "update":
		article, err := s.admin.UpdateArticle(req.Password, req.ArticleID, req.Updates)
		if err != nil {
			return s.fail(c, err)
		}
		s.notifySaved(article)
		return c.JSON(http.StatusOK, map[string]any{"article": article})

	case "delete":
		if err := s.admin.DeleteArticle(req.Password, req.ArticleID); err != nil {
			return s.fail(c, err)
		}
		s.notifyDeleted(req.ArticleID)
		return c.NoContent(http.StatusNoContent)

	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown action"})
	}
}

func (s *Server) handleAdminAnalytics(c echo.Context) error {
	if s.admin == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "admin not configured"})
	}

	var req adminVerifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request body"})
	}

	stats, err := s.admin.GetAnalytics(req.Password)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, stats)
}

type generateRequest struct {
	Password string           `json:"password"`
	Topic    string           `json:"topic"`
	Category storage.Category `json:"category"`
	Language storage.Language `json:"language"`
}

func (s *Server) handleGenerate(c echo.Context) error {
	if s.admin == nil || s.gateway == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "ai generation not configured"})
	}

	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request body"})
	}
	if !s.admin.VerifyPassword(req.Password) {
		return s.fail(c, admin.ErrUnauthorized)
	}

	article, err := s.gateway.GenerateArticle(c.Request().Context(), req.Topic, req.Category, req.Language)
	if err != nil {
		return s.fail(c, err)
	}

	if err := s.store.SaveArticle(article); err != nil {
		return s.fail(c, err)
	}
	s.notifySaved(article)

	return c.JSON(http.StatusCreated, map[string]any{"article": article})
}

func (s *Server) handleModerate(c echo.Context) error {
	if s.admin == nil || s.gateway == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "ai moderation not configured"})
	}

	var req adminVerifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "malformed request body"})
	}

	outcomes, err := s.admin.ModeratePending(c.Request().Context(), req.Password, s.gateway)
	if err != nil && len(outcomes) == 0 {
		return s.fail(c, err)
	}

	// Approved articles just became searchable.
	for _, outcome := range outcomes {
		if article, getErr := s.store.GetArticle(outcome.ArticleID); getErr == nil {
			s.notifySaved(article)
		}
	}

	return c.JSON(http.StatusOK, map[string]any{"outcomes": outcomes})
}

func (s *Server) handleUploadImage(c echo.Context) error {
	if s.admin == nil || !s.admin.VerifyPassword(c.FormValue("password")) {
		return s.fail(c, admin.ErrUnauthorized)
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing image file"})
	}

	f, err := fileHeader.Open()
	if err != nil {
		return s.fail(c, err)
	}
	defer f.Close()

	url, err := s.images.Save(fileHeader.Filename, f)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusCreated, map[string]string{"url": url})
}

// fail maps domain errors onto HTTP statuses.
func (s *Server) fail(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrArticleNotFound):
		status = http.StatusNotFound
	case errors.Is(err, admin.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, ai.ErrRateLimited):
		status = http.StatusTooManyRequests
	case errors.Is(err, ai.ErrQuotaExhausted):
		status = http.StatusPaymentRequired
	case errors.Is(err, ai.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	case errors.Is(err, ai.ErrMalformed):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		debuglog.Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	}
	return c.JSON(status, map[string]string{"error": err.Error()})
}

func keepArticles(articles []*storage.Article, keep func(*storage.Article) bool) []*storage.Article {
	out := make([]*storage.Article, 0, len(articles))
	for _, a := range articles {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}
