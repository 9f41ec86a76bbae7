package validation

import (
	"fmt"
	"strings"

	"github.com/khabardesk/khabar/internal/storage"
)

const (
	maxTitleLength   = 200
	maxExcerptLength = 500
	maxContentLength = 50000
	maxAuthorLength  = 100
)

// ValidateArticle checks submitted article fields before they reach the
// store. Image URLs are checked separately by the caller because the rules
// differ for reader submissions and admin edits.
func ValidateArticle(a *storage.Article) error {
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if len(a.Title) > maxTitleLength {
		return fmt.Errorf("title too long (max %d characters)", maxTitleLength)
	}

	if strings.TrimSpace(a.Excerpt) == "" {
		return fmt.Errorf("excerpt is required")
	}
	if len(a.Excerpt) > maxExcerptLength {
		return fmt.Errorf("excerpt too long (max %d characters)", maxExcerptLength)
	}

	if strings.TrimSpace(a.Content) == "" {
		return fmt.Errorf("content is required")
	}
	if len(a.Content) > maxContentLength {
		return fmt.Errorf("content too long (max %d characters)", maxContentLength)
	}

	if strings.TrimSpace(a.Author) == "" {
		return fmt.Errorf("author is required")
	}
	if len(a.Author) > maxAuthorLength {
		return fmt.Errorf("author too long (max %d characters)", maxAuthorLength)
	}

	if !storage.ValidCategory(a.Category) {
		return fmt.Errorf("unknown category %q", a.Category)
	}
	if !storage.ValidLanguage(a.Language) {
		return fmt.Errorf("unknown language %q", a.Language)
	}

	if a.ReadTime < 0 {
		return fmt.Errorf("read time cannot be negative")
	}

	return nil
}
