package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khabardesk/khabar/internal/admin"
	"github.com/khabardesk/khabar/internal/ai"
	"github.com/khabardesk/khabar/internal/images"
	"github.com/khabardesk/khabar/internal/search"
	"github.com/khabardesk/khabar/internal/storage"
)

const adminPassword = "newsroom"

func newTestServer(t *testing.T, gateway *ai.Gateway) (*Server, *storage.Store) {
	t.Helper()

	store, err := storage.NewStore(filepath.Join(t.TempDir(), "server-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	now := time.Now()
	require.NoError(t, store.SaveArticles([]*storage.Article{
		{
			ID: "hero", Title: "Summit reaches climate accord", Excerpt: "e", Content: "body text",
			Author: "Desk", Category: storage.CategoryInternational, Language: storage.LanguageEnglish,
			Featured: true, Breaking: true, Published: true, Approved: true, Views: 500,
			PublishedAt: now, CreatedAt: now,
		},
		{
			ID: "second", Title: "Rail upgrade announced", Excerpt: "e", Content: "body text",
			Author: "Desk", Category: storage.CategoryLocal, Language: storage.LanguageEnglish,
			Published: true, Approved: true, Views: 900,
			PublishedAt: now.Add(-time.Hour), CreatedAt: now,
		},
		{
			ID: "third", Title: "Another local story", Excerpt: "e", Content: "body text",
			Author: "Desk", Category: storage.CategoryLocal, Language: storage.LanguageHindi,
			Published: true, Approved: true, Views: 100,
			PublishedAt: now.Add(-2 * time.Hour), CreatedAt: now,
		},
		{
			ID: "draft", Title: "Pending reader tip", Excerpt: "e", Content: "draft body",
			Author: "Reader", Category: storage.CategoryLocal, Language: storage.LanguageEnglish,
			SubmittedBy: storage.SubmittedByPublic,
			PublishedAt: now, CreatedAt: now,
		},
	}))

	imgStore, err := images.NewStore(filepath.Join(t.TempDir(), "uploads"), "http://localhost")
	require.NoError(t, err)

	srv := New(Options{
		Store:    store,
		Searcher: search.NewEngine(store),
		Admin:    admin.NewService(store, adminPassword),
		Gateway:  gateway,
		Images:   imgStore,
		Listen:   ":0",
	})
	return srv, store
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echoContentType, "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

const echoContentType = "Content-Type"

func decode(t *testing.T, rec *httptest.ResponseRecorder, into any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), into))
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	rec := doJSON(t, srv, http.MethodGet, "/v1/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListArticles(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodGet, "/v1/articles", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Articles []*storage.Article `json:"articles"`
	}
	decode(t, rec, &resp)
	assert.Len(t, resp.Articles, 3, "drafts never appear in the public listing")
}

func TestListArticlesFiltered(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodGet, "/v1/articles?category=Local&language=hi", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Articles []*storage.Article `json:"articles"`
	}
	decode(t, rec, &resp)
	require.Len(t, resp.Articles, 1)
	assert.Equal(t, "third", resp.Articles[0].ID)
}

func TestGetArticle(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodGet, "/v1/articles/second", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Article *storage.Article   `json:"article"`
		Related []*storage.Article `json:"related"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, "second", resp.Article.ID)
	require.Len(t, resp.Related, 1, "same category, excluding self")
	assert.Equal(t, "third", resp.Related[0].ID)
}

func TestGetArticleHidesDrafts(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	assert.Equal(t, http.StatusNotFound, doJSON(t, srv, http.MethodGet, "/v1/articles/draft", nil).Code)
	assert.Equal(t, http.StatusNotFound, doJSON(t, srv, http.MethodGet, "/v1/articles/missing", nil).Code)
}

func TestRecordView(t *testing.T) {
	srv, store := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodPost, "/v1/articles/second/view", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	article, err := store.GetArticle("second")
	require.NoError(t, err)
	assert.Equal(t, int64(901), article.Views)

	// Unknown ids are swallowed; the reader experience never blocks on this.
	rec = doJSON(t, srv, http.MethodPost, "/v1/articles/missing/view", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestLikeArticle(t *testing.T) {
	srv, store := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodPost, "/v1/articles/second/like", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	article, err := store.GetArticle("second")
	require.NoError(t, err)
	assert.Equal(t, int64(1), article.Likes)

	assert.Equal(t, http.StatusNotFound, doJSON(t, srv, http.MethodPost, "/v1/articles/missing/like", nil).Code)
}

func TestFeedDefault(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodGet, "/v1/feed", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Hero     *storage.Article   `json:"hero"`
		ShowHero bool               `json:"show_hero"`
		Grid     []*storage.Article `json:"grid"`
		Trending []*storage.Article `json:"trending"`
		Empty    string             `json:"empty"`
	}
	decode(t, rec, &resp)

	require.NotNil(t, resp.Hero)
	assert.Equal(t, "hero", resp.Hero.ID)
	assert.True(t, resp.ShowHero)
	assert.Equal(t, "none", resp.Empty)

	// Hero is pulled out of the grid on the default view.
	for _, a := range resp.Grid {
		assert.NotEqual(t, "hero", a.ID)
	}
	require.NotEmpty(t, resp.Trending)
	assert.Equal(t, "second", resp.Trending[0].ID, "trending ranks by views")
}

func TestFeedTrendingTab(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodGet, "/v1/feed?tab=trending", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ShowHero bool               `json:"show_hero"`
		Grid     []*storage.Article `json:"grid"`
	}
	decode(t, rec, &resp)
	assert.False(t, resp.ShowHero, "hero banner only shows on the pinned home view")
	require.Len(t, resp.Grid, 3)
	assert.Equal(t, "second", resp.Grid[0].ID)
}

func TestFeedSavedTab(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodGet, "/v1/feed?tab=saved&saved=third", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Grid  []*storage.Article `json:"grid"`
		Empty string             `json:"empty"`
	}
	decode(t, rec, &resp)
	require.Len(t, resp.Grid, 1)
	assert.Equal(t, "third", resp.Grid[0].ID)

	rec = doJSON(t, srv, http.MethodGet, "/v1/feed?tab=saved", nil)
	decode(t, rec, &resp)
	assert.Empty(t, resp.Grid)
	assert.Equal(t, "no_saved", resp.Empty)
}

func TestFeedRejectsUnknownTab(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, srv, http.MethodGet, "/v1/feed?tab=bogus", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, srv, http.MethodGet, "/v1/feed?category=Bogus", nil).Code)
}

func TestSearchEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodGet, "/v1/articles/search?q=climate", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Results []*search.Result `json:"results"`
	}
	decode(t, rec, &resp)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "hero", resp.Results[0].Article.ID)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, srv, http.MethodGet, "/v1/articles/search?q=%20", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, srv, http.MethodGet, "/v1/articles/search?q=x&limit=0", nil).Code)
}

func TestSubmit(t *testing.T) {
	srv, store := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodPost, "/v1/submit", map[string]any{
		"title":    "Pothole repairs stall on main road",
		"excerpt":  "Residents complain of delays.",
		"content":  "The civic body blamed monsoon rains for the backlog of repairs.",
		"category": "Local",
		"language": "en",
		"author":   "Concerned Reader",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Article *storage.Article `json:"article"`
	}
	decode(t, rec, &resp)
	assert.False(t, resp.Article.Published)
	assert.False(t, resp.Article.Approved)
	assert.Equal(t, storage.SubmittedByPublic, resp.Article.SubmittedBy)
	assert.GreaterOrEqual(t, resp.Article.ReadTime, 1)

	stored, err := store.GetArticle(resp.Article.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.Article.Title, stored.Title)
}

func TestSubmitValidation(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodPost, "/v1/submit", map[string]any{
		"title": "", "excerpt": "e", "content": "c", "category": "Local", "language": "en", "author": "A",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/v1/submit", map[string]any{
		"title": "T", "excerpt": "e", "content": "c", "category": "Local", "language": "en", "author": "A",
		"image_url": "https://localhost/evil.png",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "local image URLs are rejected")
}

func TestAdminVerify(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodPost, "/v1/admin/verify", map[string]string{"password": adminPassword})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/v1/admin/verify", map[string]string{"password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminArticlesActions(t *testing.T) {
	srv, store := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodPost, "/v1/admin/articles", map[string]any{
		"password": adminPassword, "action": "list",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var listResp struct {
		Articles []*storage.Article `json:"articles"`
	}
	decode(t, rec, &listResp)
	assert.Len(t, listResp.Articles, 4, "admin listing includes the draft")

	rec = doJSON(t, srv, http.MethodPost, "/v1/admin/articles", map[string]any{
		"password": adminPassword, "action": "update", "article_id": "draft",
		"updates": map[string]any{"is_published": true, "is_approved": true},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated, err := store.GetArticle("draft")
	require.NoError(t, err)
	assert.True(t, updated.Published)

	rec = doJSON(t, srv, http.MethodPost, "/v1/admin/articles", map[string]any{
		"password": adminPassword, "action": "delete", "article_id": "third",
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, err = store.GetArticle("third")
	assert.ErrorIs(t, err, storage.ErrArticleNotFound)
}

func TestAdminArticlesAuth(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodPost, "/v1/admin/articles", map[string]any{
		"password": "wrong", "action": "list",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, srv, http.MethodPost, "/v1/admin/articles", map[string]any{
		"password": adminPassword, "action": "explode",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminAnalytics(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	rec := doJSON(t, srv, http.MethodPost, "/v1/admin/analytics", map[string]string{"password": adminPassword})
	require.Equal(t, http.StatusOK, rec.Code)

	var stats admin.Analytics
	decode(t, rec, &stats)
	assert.Equal(t, 4, stats.TotalArticles)
	assert.Equal(t, 3, stats.PublishedCount)
	assert.Equal(t, 1, stats.PendingCount)
}

func aiTestGateway(t *testing.T, reply string, status int) *ai.Gateway {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		resp := map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": reply}}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return ai.NewGateway(ai.Config{Endpoint: srv.URL, Model: "test", APIKey: "key"})
}

func TestGenerateEndpoint(t *testing.T) {
	gateway := aiTestGateway(t, `{"title":"Fresh wire story","excerpt":"e","content":"full body of the generated story","author":"Bot","read_time":2}`, http.StatusOK)
	srv, store := newTestServer(t, gateway)

	rec := doJSON(t, srv, http.MethodPost, "/v1/ai/generate", map[string]string{
		"password": adminPassword, "topic": "budget", "category": "Business", "language": "en",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Article *storage.Article `json:"article"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, storage.SubmittedByAI, resp.Article.SubmittedBy)
	assert.True(t, resp.Article.Published)

	_, err := store.GetArticle(resp.Article.ID)
	assert.NoError(t, err, "generated article is persisted")
}

func TestGenerateEndpointRateLimit(t *testing.T) {
	gateway := aiTestGateway(t, "", http.StatusTooManyRequests)
	srv, _ := newTestServer(t, gateway)

	rec := doJSON(t, srv, http.MethodPost, "/v1/ai/generate", map[string]string{
		"password": adminPassword, "topic": "x", "category": "Business", "language": "en",
	})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestGenerateEndpointAuth(t *testing.T) {
	gateway := aiTestGateway(t, "{}", http.StatusOK)
	srv, _ := newTestServer(t, gateway)

	rec := doJSON(t, srv, http.MethodPost, "/v1/ai/generate", map[string]string{
		"password": "wrong", "topic": "x",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestModerateEndpoint(t *testing.T) {
	gateway := aiTestGateway(t, `{"approved": true, "reason": "Legitimate local reporting"}`, http.StatusOK)
	srv, store := newTestServer(t, gateway)

	rec := doJSON(t, srv, http.MethodPost, "/v1/ai/moderate", map[string]string{"password": adminPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Outcomes []admin.ModerationOutcome `json:"outcomes"`
	}
	decode(t, rec, &resp)
	require.Len(t, resp.Outcomes, 1)
	assert.Equal(t, "draft", resp.Outcomes[0].ArticleID)
	assert.True(t, resp.Outcomes[0].Approved)

	stored, err := store.GetArticle("draft")
	require.NoError(t, err)
	assert.True(t, stored.Published)
}

func TestUploadImage(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("password", adminPassword))
	fw, err := mw.CreateFormFile("image", "front-page.jpg")
	require.NoError(t, err)
	fmt.Fprint(fw, "jpeg bytes")
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/images", body)
	req.Header.Set(echoContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp map[string]string
	decode(t, rec, &resp)
	assert.True(t, strings.HasPrefix(resp["url"], "http://localhost/images/"))
}

func TestUploadImageAuth(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	require.NoError(t, mw.WriteField("password", "wrong"))
	fw, _ := mw.CreateFormFile("image", "x.png")
	fmt.Fprint(fw, "data")
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/images", body)
	req.Header.Set(echoContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
