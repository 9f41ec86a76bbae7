package storage

import (
	"time"
)

// Category is the closed set of news desks an article can belong to.
type Category string

const (
	CategoryPolitics      Category = "Politics"
	CategoryBusiness      Category = "Business"
	CategoryTechnology    Category = "Technology"
	CategorySports        Category = "Sports"
	CategoryEntertainment Category = "Entertainment"
	CategoryLocal         Category = "Local"
	CategoryInternational Category = "International"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryPolitics,
	CategoryBusiness,
	CategoryTechnology,
	CategorySports,
	CategoryEntertainment,
	CategoryLocal,
	CategoryInternational,
}

// Language is the publication language tag.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageHindi   Language = "hi"
)

// Provenance records how an article entered the system.
type Provenance string

const (
	SubmittedByPublic Provenance = "public"
	SubmittedByAdmin  Provenance = "admin"
	SubmittedByAI     Provenance = "ai"
)

type Article struct {
	ID          string     `json:"id" toml:"id"`
	Title       string     `json:"title" toml:"title"`
	Excerpt     string     `json:"excerpt" toml:"excerpt"`
	Content     string     `json:"content" toml:"content"`
	Category    Category   `json:"category" toml:"category"`
	Language    Language   `json:"language" toml:"language"`
	Author      string     `json:"author" toml:"author"`
	PublishedAt time.Time  `json:"published_at" toml:"published_at"`
	CreatedAt   time.Time  `json:"created_at" toml:"created_at"`
	ReadTime    int        `json:"read_time" toml:"read_time"`
	ImageURL    string     `json:"image_url" toml:"image_url"`
	Breaking    bool       `json:"is_breaking" toml:"is_breaking"`
	Featured    bool       `json:"is_featured" toml:"is_featured"`
	Published   bool       `json:"is_published" toml:"is_published"`
	Approved    bool       `json:"is_approved" toml:"is_approved"`
	Views       int64      `json:"views" toml:"views"`
	Likes       int64      `json:"likes" toml:"likes"`
	SubmittedBy Provenance `json:"submitted_by" toml:"submitted_by"`
}

// ValidCategory reports whether c is one of the known categories.
func ValidCategory(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ValidLanguage reports whether l is a supported language tag.
func ValidLanguage(l Language) bool {
	return l == LanguageEnglish || l == LanguageHindi
}

// DisplayName renders the language tag for readers.
func (l Language) DisplayName() string {
	if l == LanguageHindi {
		return "हिंदी"
	}
	return "English"
}
