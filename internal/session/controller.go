// Package session holds the transient reader state and routes user actions
// into feed derivations. Browsing is an explicit two-phase machine: Listing
// (feed on screen) or Viewing (a single article open).
package session

import (
	"github.com/khabardesk/khabar/internal/debuglog"
	"github.com/khabardesk/khabar/internal/feed"
	"github.com/khabardesk/khabar/internal/storage"
)

// Phase is the top-level view the reader is in.
type Phase int

const (
	Listing Phase = iota
	Viewing
)

// ViewCounter records that an article was opened. Failures are tolerated;
// opening an article never blocks on the counter.
type ViewCounter interface {
	IncrementViews(id string) error
}

// BookmarkStore is the saved-articles set. Membership and toggle are the
// only operations the controller needs.
type BookmarkStore interface {
	ToggleBookmark(id string) (bool, error)
	Bookmarks() (map[string]bool, error)
}

// Controller owns the selection state and the Listing/Viewing phase.
// Not safe for concurrent use; it is driven by a single event loop.
type Controller struct {
	sel       feed.Selection
	phase     Phase
	openID    string
	counter   ViewCounter
	bookmarks BookmarkStore
}

func NewController(counter ViewCounter, bookmarks BookmarkStore) *Controller {
	return &Controller{
		sel:       feed.DefaultSelection(),
		phase:     Listing,
		counter:   counter,
		bookmarks: bookmarks,
	}
}

func (c *Controller) Phase() Phase { return c.phase }

func (c *Controller) Selection() feed.Selection { return c.sel }

// OpenID returns the open article id while Viewing.
func (c *Controller) OpenID() (string, bool) {
	if c.phase != Viewing {
		return "", false
	}
	return c.openID, true
}

// OpenArticle enters Viewing and counts the view. Re-opening (including the
// same id from a related strip) counts again: there is no per-session
// dedupe, matching the recorded behavior. The increment is best-effort and
// never blocks navigation.
func (c *Controller) OpenArticle(id string) {
	c.phase = Viewing
	c.openID = id
	if c.counter != nil {
		if err := c.counter.IncrementViews(id); err != nil {
			debuglog.Warnf("view count increment failed for %s: %v", id, err)
		}
	}
}

// Back returns to the listing.
func (c *Controller) Back() {
	c.phase = Listing
	c.openID = ""
}

// SetTab switches the active tab. Moving to a different tab closes any open
// article; re-selecting the current tab leaves the phase alone.
func (c *Controller) SetTab(t feed.Tab) {
	if !feed.ValidTab(t) {
		return
	}
	if t != c.sel.Tab {
		c.Back()
	}
	c.sel.Tab = t
}

// SetCategory filters the feed without leaving the current phase.
func (c *Controller) SetCategory(cat storage.Category) {
	if cat != feed.CategoryAll && !storage.ValidCategory(cat) {
		return
	}
	c.sel.Category = cat
}

// SetQuery updates the search query without leaving the current phase.
func (c *Controller) SetQuery(q string) {
	c.sel.Query = q
}

// ToggleBookmark flips the saved state for id and reports the new state.
func (c *Controller) ToggleBookmark(id string) (bool, error) {
	return c.bookmarks.ToggleBookmark(id)
}

// DeriveFeed computes the current render state for the listing view from
// the published collection.
func (c *Controller) DeriveFeed(articles []*storage.Article) (feed.Feed, error) {
	saved, err := c.bookmarks.Bookmarks()
	if err != nil {
		return feed.Feed{}, err
	}
	return feed.Derive(articles, saved, c.sel), nil
}
