package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/khabardesk/khabar/internal/debuglog"
)

var (
	articlesBucket  = []byte("articles")
	bookmarksBucket = []byte("bookmarks")
	metaBucket      = []byte("metadata")
)

// ErrArticleNotFound is returned when an id has no stored article.
var ErrArticleNotFound = errors.New("article not found")

type Store struct {
	db *bolt.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{articlesBucket, bookmarksBucket, metaBucket} {
			if _, createErr := tx.CreateBucketIfNotExists(bucket); createErr != nil {
				return createErr
			}
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveArticle(article *Article) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(articlesBucket)
		data, err := json.Marshal(article)
		if err != nil {
			return err
		}
		return b.Put([]byte(article.ID), data)
	})
}

func (s *Store) SaveArticles(articles []*Article) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(articlesBucket)
		for _, article := range articles {
			data, err := json.Marshal(article)
			if err != nil {
				return err
			}
			if err := b.Put([]byte(article.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetArticle(id string) (*Article, error) {
	var article Article
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(articlesBucket)
		data := b.Get([]byte(id))
		if data == nil {
			return ErrArticleNotFound
		}
		return json.Unmarshal(data, &article)
	})
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// ListPublished returns publicly visible articles, newest publish date first.
// Unpublished drafts and rejected submissions never appear here.
func (s *Store) ListPublished() ([]*Article, error) {
	articles, err := s.scan(func(a *Article) bool { return a.Published })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
	return articles, nil
}

// ListAll returns every article including drafts, newest creation first.
// Intended for the admin surface only.
func (s *Store) ListAll() ([]*Article, error) {
	articles, err := s.scan(func(*Article) bool { return true })
	if err != nil {
		return nil, err
	}
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].CreatedAt.After(articles[j].CreatedAt)
	})
	return articles, nil
}

func (s *Store) scan(keep func(*Article) bool) ([]*Article, error) {
	var articles []*Article
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(articlesBucket)
		return b.ForEach(func(k []byte, v []byte) error {
			var article Article
			if err := json.Unmarshal(v, &article); err != nil {
				// A corrupt record should not take the whole listing down.
				debuglog.Warnf("skipping unreadable article record %q: %v", k, err)
				return nil
			}
			if keep(&article) {
				articles = append(articles, &article)
			}
			return nil
		})
	})
	return articles, err
}

func (s *Store) DeleteArticle(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(articlesBucket).Delete([]byte(id)); err != nil {
			return err
		}
		// A deleted article must not linger in anyone's saved list.
		return tx.Bucket(bookmarksBucket).Delete([]byte(id))
	})
}

// IncrementViews adds exactly one view to the article. There is no
// idempotency key; repeated opens count repeatedly.
func (s *Store) IncrementViews(id string) error {
	return s.updateArticle(id, func(a *Article) { a.Views++ })
}

// LikeArticle adds one like to the article.
func (s *Store) LikeArticle(id string) error {
	return s.updateArticle(id, func(a *Article) { a.Likes++ })
}

// SetModeration writes the approved and published flags together, so a
// moderation verdict can never leave them out of sync.
func (s *Store) SetModeration(id string, approved bool) error {
	return s.updateArticle(id, func(a *Article) {
		a.Approved = approved
		a.Published = approved
	})
}

func (s *Store) updateArticle(id string, mutate func(*Article)) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(articlesBucket)
		data := b.Get([]byte(id))
		if data == nil {
			return ErrArticleNotFound
		}

		var article Article
		if err := json.Unmarshal(data, &article); err != nil {
			return err
		}

		mutate(&article)

		data, err := json.Marshal(article)
		if err != nil {
			return err
		}

		return b.Put([]byte(id), data)
	})
}

// ToggleBookmark flips the saved state of id and reports the new state.
func (s *Store) ToggleBookmark(id string) (bool, error) {
	var saved bool
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bookmarksBucket)
		key := []byte(id)
		if b.Get(key) != nil {
			saved = false
			return b.Delete(key)
		}
		saved = true
		return b.Put(key, []byte("1"))
	})
	return saved, err
}

func (s *Store) IsBookmarked(id string) (bool, error) {
	var saved bool
	err := s.db.View(func(tx *bolt.Tx) error {
		saved = tx.Bucket(bookmarksBucket).Get([]byte(id)) != nil
		return nil
	})
	return saved, err
}

// Bookmarks returns the set of saved article ids.
func (s *Store) Bookmarks() (map[string]bool, error) {
	saved := make(map[string]bool)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bookmarksBucket).ForEach(func(k, _ []byte) error {
			saved[string(k)] = true
			return nil
		})
	})
	return saved, err
}
