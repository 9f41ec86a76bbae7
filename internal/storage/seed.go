package storage

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type seedFile struct {
	Articles []*Article `toml:"articles"`
}

// LoadSeedFile reads articles from a TOML file with [[articles]] tables.
// Missing categories/languages fall back to defaults rather than erroring,
// so hand-written seed files stay forgiving.
func LoadSeedFile(path string) ([]*Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var sf seedFile
	if err := toml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}

	for i, a := range sf.Articles {
		if a.ID == "" {
			a.ID = fmt.Sprintf("seed-%d", i+1)
		}
		applySeedDefaults(a)
	}
	return sf.Articles, nil
}

func applySeedDefaults(a *Article) {
	if !ValidCategory(a.Category) {
		a.Category = CategoryTechnology
	}
	if !ValidLanguage(a.Language) {
		a.Language = LanguageEnglish
	}
	if a.ReadTime <= 0 {
		a.ReadTime = 3
	}
	if a.SubmittedBy == "" {
		a.SubmittedBy = SubmittedByAdmin
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	if a.PublishedAt.IsZero() {
		a.PublishedAt = a.CreatedAt
	}
}

// SampleArticles returns a small built-in data set so a fresh install has
// something on the front page before any import or generation runs.
func SampleArticles() []*Article {
	day := 24 * time.Hour
	now := time.Now()
	articles := []*Article{
		{
			ID:       "sample-1",
			Title:    "India Launches New Digital Infrastructure Initiative",
			Excerpt:  "The government announces a ₹50,000 crore plan to modernize digital infrastructure across rural India.",
			Content:  "The Indian government has unveiled a landmark ₹50,000 crore initiative aimed at revolutionizing digital infrastructure across the country's rural regions.\n\nThe initiative encompasses the deployment of high-speed fiber optic networks to over 250,000 villages, establishment of 100,000 digital literacy centers, and the creation of a robust cloud computing backbone to support e-governance services.\n\nIndustry experts have lauded the move, calling it a game-changer for India's digital transformation journey.",
			Category: CategoryTechnology,
			Language: LanguageEnglish,
			Author:   "Rajesh Kumar",
			ReadTime: 5,
			ImageURL: "https://images.unsplash.com/photo-1518770660439-4636190af475?w=800",
			Breaking: true,
			Featured: true,
			Views:    15420,
			Likes:    892,
		},
		{
			ID:       "sample-2",
			Title:    "भारत ने जीता एशिया कप",
			Excerpt:  "रोहित शर्मा की शानदार कप्तानी में भारत ने फाइनल जीतकर एशिया कप अपने नाम किया।",
			Content:  "भारतीय क्रिकेट टीम ने एशिया कप के फाइनल में 7 विकेट से जीत दर्ज कर खिताब अपने नाम किया। कप्तान ने 87 गेंदों में शानदार 112 रन बनाए।\n\nमैन ऑफ द मैच ने कहा, \"यह जीत पूरी टीम की मेहनत का नतीजा है।\"",
			Category: CategorySports,
			Language: LanguageHindi,
			Author:   "अमित शर्मा",
			ReadTime: 4,
			ImageURL: "https://images.unsplash.com/photo-1531415074968-036ba1b575da?w=800",
			Featured: true,
			Views:    23100,
			Likes:    1540,
		},
		{
			ID:       "sample-3",
			Title:    "Stock Market Hits All-Time High as Sensex Crosses 95,000",
			Excerpt:  "Indian markets rally on strong quarterly earnings and FII inflows, with Sensex breaching the historic 95,000 mark.",
			Content:  "The benchmark index crossed the 95,000 mark for the first time, driven by robust quarterly earnings and sustained foreign institutional investor inflows.\n\nThe rally was led by IT and banking stocks. Analysts attribute the surge to strong corporate earnings and stable macroeconomic indicators.",
			Category: CategoryBusiness,
			Language: LanguageEnglish,
			Author:   "Priya Mehta",
			ReadTime: 3,
			ImageURL: "https://images.unsplash.com/photo-1611974789855-9c2a0a7236a3?w=800",
			Breaking: true,
			Views:    18700,
			Likes:    672,
		},
	}

	for i, a := range articles {
		a.Published = true
		a.Approved = true
		a.SubmittedBy = SubmittedByAdmin
		a.CreatedAt = now.Add(-time.Duration(i) * day)
		a.PublishedAt = a.CreatedAt
	}
	return articles
}
