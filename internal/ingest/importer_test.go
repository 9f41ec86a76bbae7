package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/khabardesk/khabar/internal/storage"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Wire Service</title>
    <item>
      <guid>item-1</guid>
      <title>Parliament passes data bill</title>
      <description>&lt;p&gt;The bill cleared both houses on Thursday.&lt;/p&gt;</description>
      <link>https://wire.example/data-bill</link>
      <pubDate>Mon, 18 Aug 2025 10:00:00 GMT</pubDate>
    </item>
    <item>
      <guid>item-2</guid>
      <title>Markets close flat</title>
      <description>Benchmark indices ended the session unchanged after a volatile day of trading across sectors.</description>
      <link>https://wire.example/markets</link>
    </item>
    <item>
      <guid>item-3</guid>
      <title></title>
      <description>No headline, should be skipped.</description>
    </item>
  </channel>
</rss>`

func testImporter() *Importer {
	return NewImporter(Options{AllowLocalURLs: true})
}

func serveRSS(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("expected a User-Agent header")
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestImport(t *testing.T) {
	srv := serveRSS(t, sampleRSS)

	drafts, err := testImporter().Import(context.Background(), srv.URL, storage.CategoryPolitics, storage.LanguageEnglish)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	// The item without a title is dropped.
	if len(drafts) != 2 {
		t.Fatalf("expected 2 drafts, got %d", len(drafts))
	}

	first := drafts[0]
	if first.Title != "Parliament passes data bill" {
		t.Errorf("title = %q", first.Title)
	}
	if first.Published || first.Approved {
		t.Error("imported drafts must stay unpublished and unapproved")
	}
	if first.Category != storage.CategoryPolitics {
		t.Errorf("category = %s", first.Category)
	}
	if first.SubmittedBy != storage.SubmittedByAdmin {
		t.Errorf("submitted_by = %s", first.SubmittedBy)
	}
	if first.Content == "" || first.Excerpt == "" {
		t.Error("content and excerpt should be populated")
	}
	if first.ReadTime < 1 {
		t.Errorf("read time = %d, want at least 1", first.ReadTime)
	}
	if first.Author != "Wire Service" {
		t.Errorf("author should fall back to feed title, got %q", first.Author)
	}
	if first.PublishedAt.Year() != 2025 {
		t.Errorf("expected pubDate to be used, got %v", first.PublishedAt)
	}
}

func TestImportStableIDs(t *testing.T) {
	srv := serveRSS(t, sampleRSS)
	importer := testImporter()

	first, err := importer.Import(context.Background(), srv.URL, storage.CategoryPolitics, storage.LanguageEnglish)
	if err != nil {
		t.Fatal(err)
	}
	second, err := importer.Import(context.Background(), srv.URL, storage.CategoryPolitics, storage.LanguageEnglish)
	if err != nil {
		t.Fatal(err)
	}

	if first[0].ID != second[0].ID {
		t.Errorf("re-import produced different ids: %s vs %s", first[0].ID, second[0].ID)
	}
	if first[0].ID == first[1].ID {
		t.Error("distinct items must get distinct ids")
	}
}

func TestImportStripsHTML(t *testing.T) {
	srv := serveRSS(t, sampleRSS)

	drafts, err := testImporter().Import(context.Background(), srv.URL, storage.CategoryPolitics, storage.LanguageEnglish)
	if err != nil {
		t.Fatal(err)
	}

	if got := drafts[0].Content; got != "The bill cleared both houses on Thursday." {
		t.Errorf("content not stripped of markup: %q", got)
	}
}

func TestImportRejectsBadInput(t *testing.T) {
	srv := serveRSS(t, sampleRSS)
	importer := testImporter()
	ctx := context.Background()

	if _, err := importer.Import(ctx, "", storage.CategoryPolitics, storage.LanguageEnglish); err == nil {
		t.Error("empty URL should fail")
	}
	if _, err := importer.Import(ctx, srv.URL, "Gossip", storage.LanguageEnglish); err == nil {
		t.Error("unknown category should fail")
	}
	if _, err := importer.Import(ctx, srv.URL, storage.CategoryPolitics, "fr"); err == nil {
		t.Error("unknown language should fail")
	}
}

func TestImportHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	_, err := testImporter().Import(context.Background(), srv.URL, storage.CategoryPolitics, storage.LanguageEnglish)
	if err == nil {
		t.Fatal("expected error for HTTP 410")
	}
}

func TestImportMalformedFeed(t *testing.T) {
	srv := serveRSS(t, "this is not xml")

	_, err := testImporter().Import(context.Background(), srv.URL, storage.CategoryPolitics, storage.LanguageEnglish)
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestEstimateReadTime(t *testing.T) {
	if got := estimateReadTime("just a few words"); got != 1 {
		t.Errorf("short content read time = %d, want 1", got)
	}

	long := ""
	for i := 0; i < 450; i++ {
		long += "word "
	}
	if got := estimateReadTime(long); got != 3 {
		t.Errorf("450 words read time = %d, want 3", got)
	}
}
