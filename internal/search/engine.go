package search

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/khabardesk/khabar/internal/storage"
)

// Engine provides relevance-ranked search without heavy indexing. It scans
// the published articles directly and scores each field.
type Engine struct {
	store *storage.Store
}

// NewEngine creates a new search engine
func NewEngine(store *storage.Store) *Engine {
	return &Engine{store: store}
}

// Search ranks published articles against the query.
func (e *Engine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return []*Result{}, nil
	}

	articles, err := e.store.ListPublished()
	if err != nil {
		return nil, err
	}

	var results []*Result
	for _, article := range articles {
		if result := e.scoreArticle(article, terms); result != nil {
			results = append(results, result)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}

func (e *Engine) scoreArticle(article *storage.Article, terms []string) *Result {
	var matches []Match
	var totalScore float64

	if titleScore := scoreField(article.Title, terms, 4.0); titleScore > 0 {
		matches = append(matches, Match{
			Field:  "title",
			Text:   article.Title,
			Weight: titleScore,
		})
		totalScore += titleScore
	}

	if excerptScore := scoreField(article.Excerpt, terms, 2.0); excerptScore > 0 {
		matches = append(matches, Match{
			Field:  "excerpt",
			Text:   truncate(article.Excerpt, 150),
			Weight: excerptScore,
		})
		totalScore += excerptScore
	}

	if contentScore := scoreField(article.Content, terms, 1.0); contentScore > 0 {
		matches = append(matches, Match{
			Field:  "content",
			Text:   bestSnippet(article.Content, terms, 200),
			Weight: contentScore,
		})
		totalScore += contentScore
	}

	if authorScore := scoreField(article.Author, terms, 1.5); authorScore > 0 {
		matches = append(matches, Match{
			Field:  "author",
			Text:   article.Author,
			Weight: authorScore,
		})
		totalScore += authorScore
	}

	// Slight preference for recent articles so long archives do not dominate.
	if !article.PublishedAt.IsZero() {
		totalScore *= 1.0 + recencyBoost(article.PublishedAt)
	}

	if totalScore > 0 {
		return &Result{
			Article: article,
			Score:   totalScore,
			Matches: matches,
		}
	}

	return nil
}

// scoreField calculates relevance score for a field
func scoreField(text string, terms []string, weight float64) float64 {
	if text == "" {
		return 0
	}

	lower := strings.ToLower(text)
	words := tokenize(text)

	var score float64
	matchedTerms := 0

	for _, term := range terms {
		termLower := strings.ToLower(term)

		if strings.Contains(lower, termLower) {
			score += 2.0
			matchedTerms++
		}

		for _, word := range words {
			switch {
			case word == termLower:
				score += 1.5
				matchedTerms++
			case strings.HasPrefix(word, termLower) || strings.HasSuffix(word, termLower):
				score += 1.0
				matchedTerms++
			case strings.Contains(word, termLower):
				score += 0.5
				matchedTerms++
			}
		}
	}

	if len(terms) > 1 && matchedTerms > 1 {
		score *= 1.0 + float64(matchedTerms)/float64(len(terms))
	}

	if len(words) > 0 {
		tf := float64(matchedTerms) / float64(len(words))
		score *= 1.0 + math.Log(1.0+tf)
	}

	return score * weight
}

// bestSnippet finds the most relevant text window containing search terms
func bestSnippet(text string, terms []string, maxLength int) string {
	if text == "" {
		return ""
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	windowSize := maxLength / 8
	if windowSize > len(words) {
		return truncate(text, maxLength)
	}

	bestScore := 0.0
	bestStart := 0
	for i := 0; i <= len(words)-windowSize; i++ {
		window := strings.ToLower(strings.Join(words[i:i+windowSize], " "))
		score := 0.0
		for _, term := range terms {
			if strings.Contains(window, strings.ToLower(term)) {
				score += 1.0
			}
		}
		if score > bestScore {
			bestScore = score
			bestStart = i
		}
	}

	return truncate(strings.Join(words[bestStart:bestStart+windowSize], " "), maxLength)
}

// tokenize breaks text into searchable terms
func tokenize(text string) []string {
	var terms []string
	current := strings.Builder{}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else if current.Len() > 0 {
			if term := current.String(); len(term) > 1 { // Skip single chars
				terms = append(terms, term)
			}
			current.Reset()
		}
	}

	if current.Len() > 1 {
		terms = append(terms, current.String())
	}

	return terms
}

// truncate limits text length with ellipsis
func truncate(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	return text[:maxLen-1] + "…"
}

func recencyBoost(published time.Time) float64 {
	age := time.Since(published)
	if age < 0 {
		return 0.1
	}
	if age < 7*24*time.Hour {
		return 0.1
	}
	if age < 30*24*time.Hour {
		return 0.05
	}
	return 0
}
