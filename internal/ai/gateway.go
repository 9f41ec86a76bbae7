// Package ai talks to an OpenAI-compatible chat completions gateway for
// article generation and moderation.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/khabardesk/khabar/internal/storage"
)

var (
	// ErrNotConfigured means the gateway has no endpoint, model or key.
	ErrNotConfigured = errors.New("ai gateway not configured")
	// ErrRateLimited maps HTTP 429 from the gateway.
	ErrRateLimited = errors.New("ai gateway rate limit exceeded")
	// ErrQuotaExhausted maps HTTP 402 from the gateway.
	ErrQuotaExhausted = errors.New("ai credits exhausted")
	// ErrMalformed means the model reply could not be parsed.
	ErrMalformed = errors.New("malformed ai response")
)

const generateSystemPrompt = `You are a professional news journalist. Generate a realistic, well-written news article in %s.
Respond with ONLY a JSON object with these fields:
{
  "title": "headline",
  "excerpt": "2-3 line summary",
  "content": "full article (300-500 words)",
  "author": "journalist name",
  "read_time": estimated_minutes_number
}`

const moderateSystemPrompt = `You are a news content moderator. Analyze the article and decide if it should be approved for publication.
Approve if: it's a legitimate news article, well-written, not spam, not hateful/violent content.
Reject if: it's spam, gibberish, hate speech, explicit content, or not a real news article.
Respond with ONLY a JSON object: {"approved": true/false, "reason": "brief reason"}`

type Gateway struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
}

// Config carries the gateway connection settings.
type Config struct {
	Endpoint string
	Model    string
	APIKey   string
	Timeout  time.Duration
}

func NewGateway(cfg Config) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Gateway{
		endpoint:   cfg.Endpoint,
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GenerateArticle asks the model for a fully-formed article on topic. The
// returned article is pre-approved and published with "ai" provenance; the
// caller decides whether to persist it.
func (g *Gateway) GenerateArticle(ctx context.Context, topic string, category storage.Category, language storage.Language) (*storage.Article, error) {
	if !storage.ValidCategory(category) {
		category = storage.CategoryTechnology
	}
	if !storage.ValidLanguage(language) {
		language = storage.LanguageEnglish
	}
	if topic == "" {
		topic = "latest trending news in India"
	}

	langName := "English"
	if language == storage.LanguageHindi {
		langName = "Hindi"
	}

	system := fmt.Sprintf(generateSystemPrompt, langName)
	user := fmt.Sprintf("Write a %s news article about: %s", strings.ToLower(string(category)), topic)

	text, err := g.chat(ctx, system, user)
	if err != nil {
		return nil, err
	}

	var draft struct {
		Title    string `json:"title"`
		Excerpt  string `json:"excerpt"`
		Content  string `json:"content"`
		Author   string `json:"author"`
		ReadTime int    `json:"read_time"`
	}
	if err := json.Unmarshal([]byte(stripFences(text)), &draft); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if draft.Title == "" || draft.Content == "" {
		return nil, fmt.Errorf("%w: missing title or content", ErrMalformed)
	}

	if draft.Author == "" {
		draft.Author = "AI Reporter"
	}
	if draft.ReadTime <= 0 {
		draft.ReadTime = 3
	}

	now := time.Now()
	return &storage.Article{
		ID:          storage.NewArticleID(),
		Title:       draft.Title,
		Excerpt:     draft.Excerpt,
		Content:     draft.Content,
		Category:    category,
		Language:    language,
		Author:      draft.Author,
		PublishedAt: now,
		CreatedAt:   now,
		ReadTime:    draft.ReadTime,
		Published:   true,
		Approved:    true,
		SubmittedBy: storage.SubmittedByAI,
	}, nil
}

// Verdict is a moderation decision.
type Verdict struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason"`
	// Fallback marks a verdict produced by the length heuristic because the
	// model reply was unparseable.
	Fallback bool `json:"-"`
}

// Moderate classifies the article. An unparseable model reply does not fail
// the call: legitimate-looking content (title longer than 5 characters,
// content longer than 20) is auto-approved instead.
func (g *Gateway) Moderate(ctx context.Context, article *storage.Article) (Verdict, error) {
	user := fmt.Sprintf("Title: %s\nExcerpt: %s\nContent: %s", article.Title, article.Excerpt, article.Content)

	text, err := g.chat(ctx, moderateSystemPrompt, user)
	if err != nil {
		return Verdict{}, err
	}

	var verdict Verdict
	if err := json.Unmarshal([]byte(stripFences(text)), &verdict); err != nil {
		return Verdict{
			Approved: len(article.Title) > 5 && len(article.Content) > 20,
			Reason:   "Auto-approved based on content length",
			Fallback: true,
		}, nil
	}
	if verdict.Reason == "" {
		verdict.Reason = "Could not determine"
	}
	return verdict, nil
}

func (g *Gateway) chat(ctx context.Context, system, user string) (string, error) {
	if g.apiKey == "" || g.endpoint == "" || g.model == "" {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(map[string]any{
		"model": g.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling ai gateway: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", ErrRateLimited
	case resp.StatusCode == http.StatusPaymentRequired:
		return "", ErrQuotaExhausted
	case resp.StatusCode >= http.StatusBadRequest:
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("ai gateway error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var reply struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(reply.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in reply", ErrMalformed)
	}
	return reply.Choices[0].Message.Content, nil
}

// stripFences removes markdown code fences the model tends to wrap JSON in.
func stripFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}
