package search

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	bleveQuery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/khabardesk/khabar/internal/storage"
)

type bleveEngine struct {
	store *storage.Store
	idx   bleve.Index
}

// NewBleveEngine creates or opens a Bleve index at indexPath and indexes
// the published articles.
func NewBleveEngine(store *storage.Store, indexPath string) (Searcher, error) {
	if mkErr := os.MkdirAll(filepath.Dir(indexPath), 0o755); mkErr != nil {
		// continue; Open/Create below will still error and be returned
		_ = mkErr
	}

	idx, err := bleve.Open(indexPath)
	if err != nil {
		idx, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, err
		}
	}

	be := &bleveEngine{store: store, idx: idx}
	if err := be.reindexAll(); err != nil {
		return nil, err
	}
	return be, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = standard.Name

	dm := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = standard.Name
	title.Store = true
	title.IncludeTermVectors = true
	title.DocValues = true

	excerpt := bleve.NewTextFieldMapping()
	excerpt.Analyzer = standard.Name
	excerpt.Store = true
	excerpt.IncludeTermVectors = false

	content := bleve.NewTextFieldMapping()
	content.Analyzer = standard.Name
	content.Store = false
	content.IncludeTermVectors = false

	author := bleve.NewTextFieldMapping()
	author.Analyzer = standard.Name
	author.Store = true

	category := bleve.NewTextFieldMapping()
	category.Analyzer = standard.Name
	category.Store = true

	dm.AddFieldMappingsAt("title", title)
	dm.AddFieldMappingsAt("excerpt", excerpt)
	dm.AddFieldMappingsAt("content", content)
	dm.AddFieldMappingsAt("author", author)
	dm.AddFieldMappingsAt("category", category)

	im.DefaultMapping = dm
	return im
}

func articleDoc(a *storage.Article) map[string]any {
	return map[string]any{
		"title":    a.Title,
		"excerpt":  a.Excerpt,
		"content":  a.Content,
		"author":   a.Author,
		"category": string(a.Category),
	}
}

func (b *bleveEngine) reindexAll() error {
	articles, err := b.store.ListPublished()
	if err != nil {
		return err
	}

	batch := b.idx.NewBatch()
	for _, a := range articles {
		_ = batch.Index(a.ID, articleDoc(a))
	}
	return b.idx.Batch(batch)
}

func (b *bleveEngine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}

	// OR of per-term matches across fields with boosts, plus prefix
	// queries so partial words still hit.
	tokens := tokenize(query)
	var qs []bleveQuery.Query
	for _, tok := range tokens {
		// title^4
		qt := bleve.NewMatchQuery(tok)
		qt.SetField("title")
		qt.SetBoost(4.0)
		qs = append(qs, qt)
		qtp := bleve.NewPrefixQuery(strings.ToLower(tok))
		qtp.SetField("title")
		qtp.SetBoost(3.5)
		qs = append(qs, qtp)
		// excerpt^2
		qe := bleve.NewMatchQuery(tok)
		qe.SetField("excerpt")
		qe.SetBoost(2.0)
		qs = append(qs, qe)
		qep := bleve.NewPrefixQuery(strings.ToLower(tok))
		qep.SetField("excerpt")
		qep.SetBoost(1.8)
		qs = append(qs, qep)
		// author^1.5
		qa := bleve.NewMatchQuery(tok)
		qa.SetField("author")
		qa.SetBoost(1.5)
		qs = append(qs, qa)
		// content^1
		qc := bleve.NewMatchQuery(tok)
		qc.SetField("content")
		qc.SetBoost(1.0)
		qs = append(qs, qc)
		qcp := bleve.NewPrefixQuery(strings.ToLower(tok))
		qcp.SetField("content")
		qcp.SetBoost(0.8)
		qs = append(qs, qcp)
	}
	if len(qs) == 0 {
		return []*Result{}, nil
	}

	q := bleve.NewDisjunctionQuery(qs...)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{"title", "excerpt", "author", "category"}
	res, err := b.idx.Search(req)
	if err != nil {
		return nil, err
	}

	out := make([]*Result, 0, len(res.Hits))
	for _, h := range res.Hits {
		// Prefer the full stored article; fall back to index fields when
		// the store entry disappeared between index and lookup.
		article, err := b.store.GetArticle(h.ID)
		if err != nil {
			article = &storage.Article{ID: h.ID}
			if t, ok := h.Fields["title"].(string); ok {
				article.Title = t
			}
			if ex, ok := h.Fields["excerpt"].(string); ok {
				article.Excerpt = ex
			}
			if au, ok := h.Fields["author"].(string); ok {
				article.Author = au
			}
			if c, ok := h.Fields["category"].(string); ok {
				article.Category = storage.Category(c)
			}
		}
		out = append(out, &Result{Article: article, Score: h.Score})
	}
	return out, nil
}

// OnArticleSaved indexes a single article, or removes it when unpublished.
func (b *bleveEngine) OnArticleSaved(article *storage.Article) {
	if article == nil {
		return
	}
	if !article.Published {
		_ = b.idx.Delete(article.ID)
		return
	}
	_ = b.idx.Index(article.ID, articleDoc(article))
}

// OnArticleDeleted removes the article from the index.
func (b *bleveEngine) OnArticleDeleted(articleID string) {
	_ = b.idx.Delete(articleID)
}

// DocCount reports total documents in the index.
func (b *bleveEngine) DocCount() (int, error) {
	q := bleve.NewMatchAllQuery()
	req := bleve.NewSearchRequestOptions(q, 0, 0, false)
	res, err := b.idx.Search(req)
	if err != nil {
		return 0, err
	}
	return int(res.Total), nil
}

// Close releases the underlying index.
func (b *bleveEngine) Close() error {
	return b.idx.Close()
}
