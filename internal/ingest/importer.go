// Package ingest turns external RSS and Atom feeds into unpublished draft
// articles awaiting moderation.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/khabardesk/khabar/internal/storage"
	"github.com/khabardesk/khabar/internal/validation"
)

const (
	defaultUserAgent = "khabar/1.0 (news reader; github.com/khabardesk/khabar)"
	defaultTimeout   = 30 * time.Second

	wordsPerMinute = 200
)

type Importer struct {
	client    *http.Client
	parser    *gofeed.Parser
	validator *validation.URLValidator
	userAgent string
}

// Options tunes the importer; zero values fall back to defaults.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	// AllowLocalURLs permits localhost feeds, for development and tests.
	AllowLocalURLs bool
}

func NewImporter(opts Options) *Importer {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	validator := validation.NewURLValidator()
	if opts.AllowLocalURLs {
		validator = validation.NewPermissiveURLValidator()
	}
	return &Importer{
		client:    &http.Client{Timeout: timeout},
		parser:    gofeed.NewParser(),
		validator: validator,
		userAgent: userAgent,
	}
}

// Import fetches the feed and converts its items into draft articles. The
// drafts carry the given category and language and stay unpublished until
// an admin approves them.
func (im *Importer) Import(ctx context.Context, feedURL string, category storage.Category, language storage.Language) ([]*storage.Article, error) {
	normalized, err := im.validator.ValidateAndNormalize(feedURL)
	if err != nil {
		return nil, fmt.Errorf("invalid feed URL: %w", err)
	}
	if !storage.ValidCategory(category) {
		return nil, fmt.Errorf("unknown category %q", category)
	}
	if !storage.ValidLanguage(language) {
		return nil, fmt.Errorf("unknown language %q", language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, normalized, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", im.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml")

	resp, err := im.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	feed, err := im.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	now := time.Now()
	articles := make([]*storage.Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		content := stripHTML(itemContent(item))
		if item.Title == "" || content == "" {
			continue
		}

		article := &storage.Article{
			ID:          draftID(normalized, item),
			Title:       item.Title,
			Excerpt:     excerptFrom(item, content),
			Content:     content,
			Category:    category,
			Language:    language,
			Author:      itemAuthor(item, feed),
			PublishedAt: now,
			CreatedAt:   now,
			ReadTime:    estimateReadTime(content),
			ImageURL:    itemImage(item),
			SubmittedBy: storage.SubmittedByAdmin,
		}
		if item.PublishedParsed != nil {
			article.PublishedAt = *item.PublishedParsed
		}

		articles = append(articles, article)
	}

	return articles, nil
}

// draftID is stable per feed item so re-importing a feed overwrites the
// same drafts instead of duplicating them.
func draftID(feedURL string, item *gofeed.Item) string {
	key := item.GUID
	if key == "" {
		key = item.Link
	}
	if key == "" {
		key = item.Title
	}
	sum := sha256.Sum256([]byte(feedURL + "\x00" + key))
	return "rss-" + hex.EncodeToString(sum[:8])
}

func itemContent(item *gofeed.Item) string {
	if item.Content != "" {
		return item.Content
	}
	return item.Description
}

func itemAuthor(item *gofeed.Item, feed *gofeed.Feed) string {
	if len(item.Authors) > 0 && item.Authors[0].Name != "" {
		return item.Authors[0].Name
	}
	if feed.Title != "" {
		return feed.Title
	}
	return "Wire Desk"
}

func itemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enclosure := range item.Enclosures {
		if strings.HasPrefix(enclosure.Type, "image/") && enclosure.URL != "" {
			return enclosure.URL
		}
	}
	if match := imgTagRegex.FindStringSubmatch(item.Content + " " + item.Description); len(match) > 1 {
		return match[1]
	}
	return ""
}

func excerptFrom(item *gofeed.Item, content string) string {
	excerpt := stripHTML(item.Description)
	if excerpt == "" {
		excerpt = content
	}
	return truncateWords(excerpt, 200)
}

func estimateReadTime(content string) int {
	words := len(strings.Fields(content))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

var (
	imgTagRegex  = regexp.MustCompile(`<img[^>]+src=["']([^"']+)["']`)
	htmlTagRegex = regexp.MustCompile(`<[^>]*>`)
)

func stripHTML(html string) string {
	text := htmlTagRegex.ReplaceAllString(html, " ")
	return strings.Join(strings.Fields(text), " ")
}

func truncateWords(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	truncated := text[:maxLen]
	if idx := strings.LastIndex(truncated, " "); idx > 0 {
		truncated = truncated[:idx]
	}
	return truncated + "…"
}
