package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khabardesk/khabar/internal/admin"
	"github.com/khabardesk/khabar/internal/ai"
	"github.com/khabardesk/khabar/internal/feed"
	"github.com/khabardesk/khabar/internal/ingest"
	"github.com/khabardesk/khabar/internal/search"
	"github.com/khabardesk/khabar/internal/server"
	"github.com/khabardesk/khabar/internal/session"
	"github.com/khabardesk/khabar/internal/storage"
)

const adminPassword = "editor-on-duty"

const wireFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Wire Service</title>
    <item>
      <title>Port expansion approved</title>
      <guid>wire-1</guid>
      <description>The harbor board cleared the expansion plan after a decade of debate and two environmental reviews.</description>
    </item>
    <item>
      <title>Rail link opens early</title>
      <guid>wire-2</guid>
      <description>The cross-town rail link opened six months ahead of schedule, with free rides through the weekend.</description>
    </item>
  </channel>
</rss>`

// approveLong approves anything with enough body text, standing in for the
// AI moderator.
type approveLong struct{}

func (approveLong) Moderate(_ context.Context, article *storage.Article) (ai.Verdict, error) {
	if len(article.Content) > 20 {
		return ai.Verdict{Approved: true, Reason: "substantive draft"}, nil
	}
	return ai.Verdict{Approved: false, Reason: "too thin"}, nil
}

// TestImportModeratePublishRead walks an article through the whole
// pipeline: RSS import, moderation, feed derivation, a reader session and
// the HTTP API.
func TestImportModeratePublishRead(t *testing.T) {
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "flow.db"))
	require.NoError(t, err)
	defer store.Close()

	// Stage 1: import a wire feed; everything lands as unpublished drafts.
	rss := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(wireFeed))
	}))
	defer rss.Close()

	importer := ingest.NewImporter(ingest.Options{
		Timeout:        5 * time.Second,
		UserAgent:      "khabar-test/1.0",
		AllowLocalURLs: true,
	})
	drafts, err := importer.Import(context.Background(), rss.URL, storage.CategoryLocal, storage.LanguageEnglish)
	require.NoError(t, err)
	require.Len(t, drafts, 2)
	require.NoError(t, store.SaveArticles(drafts))

	published, err := store.ListPublished()
	require.NoError(t, err)
	assert.Empty(t, published, "drafts must not be readable before moderation")

	// Stage 2: moderation approves and publishes in one step.
	svc := admin.NewService(store, adminPassword)
	outcomes, err := svc.ModeratePending(context.Background(), adminPassword, approveLong{})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.True(t, o.Approved, "outcome for %s", o.ArticleID)
	}

	published, err = store.ListPublished()
	require.NoError(t, err)
	require.Len(t, published, 2)

	// Stage 3: add an editorial hero and derive the home feed.
	hero := &storage.Article{
		ID: "hero", Title: "Monsoon arrives early", Excerpt: "Rains sweep the coast",
		Content: "The monsoon made landfall three days ahead of forecast.",
		Category: storage.CategoryLocal, Language: storage.LanguageEnglish,
		Author: "Weather Desk", PublishedAt: time.Now(), ReadTime: 2,
		Breaking: true, Featured: true, Published: true, Approved: true,
		Views: 50, SubmittedBy: storage.SubmittedByAdmin,
	}
	require.NoError(t, store.SaveArticle(hero))

	published, err = store.ListPublished()
	require.NoError(t, err)

	controller := session.NewController(store, store)
	derived, err := controller.DeriveFeed(published)
	require.NoError(t, err)
	require.NotNil(t, derived.Hero)
	assert.Equal(t, "hero", derived.Hero.ID)
	assert.True(t, derived.ShowHero)
	assert.Len(t, derived.Grid, 2, "hero is not repeated in the grid")

	// Stage 4: a reader session. Opening counts a view; saving feeds the
	// saved tab.
	openID := derived.Grid[0].ID
	controller.OpenArticle(openID)
	assert.Equal(t, session.Viewing, controller.Phase())

	got, err := store.GetArticle(openID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Views)

	saved, err := controller.ToggleBookmark(openID)
	require.NoError(t, err)
	assert.True(t, saved)

	controller.Back()
	controller.SetTab(feed.TabSaved)
	published, err = store.ListPublished()
	require.NoError(t, err)
	derived, err = controller.DeriveFeed(published)
	require.NoError(t, err)
	require.Len(t, derived.Grid, 1)
	assert.Equal(t, openID, derived.Grid[0].ID)

	// Stage 5: the same state over HTTP.
	srv := server.New(server.Options{
		Store:    store,
		Searcher: search.NewEngine(store),
		Admin:    svc,
		Listen:   ":0",
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/feed?tab=home", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Hero     *storage.Article   `json:"hero"`
		ShowHero bool               `json:"show_hero"`
		Grid     []*storage.Article `json:"grid"`
		Trending []*storage.Article `json:"trending"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Hero)
	assert.Equal(t, "hero", body.Hero.ID)
	assert.True(t, body.ShowHero)
	assert.Len(t, body.Grid, 2)
	assert.NotEmpty(t, body.Trending)

	// The view recorded through the session shows up in the API payload.
	// The detail endpoint wraps the article with its related strip.
	req = httptest.NewRequest(http.MethodGet, "/v1/articles/"+openID, nil)
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var detail struct {
		Article storage.Article    `json:"article"`
		Related []*storage.Article `json:"related"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	assert.Equal(t, openID, detail.Article.ID)
	assert.Equal(t, int64(1), detail.Article.Views)
	assert.NotEmpty(t, detail.Related, "other Local articles share the category")
}

// TestReimportDoesNotDuplicate proves draft ids are stable across imports.
func TestReimportDoesNotDuplicate(t *testing.T) {
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "reimport.db"))
	require.NoError(t, err)
	defer store.Close()

	rss := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(wireFeed))
	}))
	defer rss.Close()

	importer := ingest.NewImporter(ingest.Options{
		Timeout:        5 * time.Second,
		UserAgent:      "khabar-test/1.0",
		AllowLocalURLs: true,
	})

	for i := 0; i < 2; i++ {
		drafts, err := importer.Import(context.Background(), rss.URL, storage.CategoryLocal, storage.LanguageEnglish)
		require.NoError(t, err)
		require.NoError(t, store.SaveArticles(drafts))
	}

	all, err := store.ListAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
