package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/khabardesk/khabar/internal/config"
	"github.com/khabardesk/khabar/internal/feed"
	"github.com/khabardesk/khabar/internal/search"
	"github.com/khabardesk/khabar/internal/session"
)

type KeyHandler struct {
	app      *App
	bindings config.KeyBindings
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	return &KeyHandler{app: app, bindings: cfg.Keys.Bindings}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if kh.app.typingInSearch() {
		return kh.handleSearchTyping(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(key); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

// handleSearchTyping routes keys while the search input has focus.
func (kh *KeyHandler) handleSearchTyping(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return kh.app, tea.Quit
	case "esc":
		kh.app.searchInput.Blur()
		kh.app.searchInput.Reset()
		kh.app.controller.SetQuery("")
		kh.app.rederive()
		return kh.app, nil
	case "enter", "tab", "down":
		// Hand focus to the result grid; the query stays applied.
		kh.app.searchInput.Blur()
		return kh.app, nil
	default:
		newInput, cmd := kh.app.searchInput.Update(msg)
		kh.app.searchInput = newInput
		query := sanitizeQuery(kh.app.searchInput.Value())
		if query != kh.app.controller.Selection().Query {
			kh.app.controller.SetQuery(query)
			kh.app.rederive()
			kh.app.setStatus(MsgResultsCount(len(kh.app.feed.Grid)), StatusInfo)
		}
		return kh.app, cmd
	}
}

func (kh *KeyHandler) handleCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "ctrl+c", kh.bindings.Quit:
		return kh.app, tea.Quit, true
	case kh.bindings.Back:
		model, cmd := kh.navigateBack()
		return model, cmd, true
	case kh.bindings.NextTab:
		kh.cycleTab(1)
		return kh.app, nil, true
	case kh.bindings.PrevTab:
		kh.cycleTab(-1)
		return kh.app, nil, true
	case kh.bindings.Search:
		model, cmd := kh.enterSearchMode()
		return model, cmd, true
	}

	switch kh.app.view {
	case ViewFeed:
		return kh.handleFeedCustomKeys(key)
	case ViewReader:
		return kh.handleReaderCustomKeys(key)
	default:
		return kh.app, nil, false
	}
}

func (kh *KeyHandler) handleFeedCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case kh.bindings.Category:
		kh.app.view = ViewCategory
		return kh.app, nil, true
	case kh.bindings.Bookmark:
		if item, ok := kh.app.grid.SelectedItem().(gridItem); ok {
			return kh.app, kh.app.toggleBookmark(item.article.ID), true
		}
		return kh.app, nil, true
	case kh.bindings.LikeClosed:
		if item, ok := kh.app.grid.SelectedItem().(gridItem); ok {
			return kh.app, kh.app.likeArticle(item.article.ID), true
		}
		return kh.app, nil, true
	}
	return kh.app, nil, false
}

func (kh *KeyHandler) handleReaderCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	art := kh.app.currentArticle
	if art == nil {
		return kh.app, nil, false
	}

	switch key {
	case kh.bindings.Bookmark:
		return kh.app, kh.app.toggleBookmark(art.ID), true
	case kh.bindings.LikeClosed:
		return kh.app, kh.app.likeArticle(art.ID), true
	case kh.bindings.OpenImage:
		if art.ImageURL != "" {
			return kh.app, kh.openURL(art.ImageURL), true
		}
		kh.app.setStatus("No image on this article", StatusWarn)
		return kh.app, nil, true
	case "+", "=":
		kh.app.adjustWrap(10)
		return kh.app, kh.app.renderArticle(art, kh.app.related), true
	case "-":
		kh.app.adjustWrap(-10)
		return kh.app, kh.app.renderArticle(art, kh.app.related), true
	}
	return kh.app, nil, false
}

func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch kh.app.view {
	case ViewFeed:
		kh.app.grid, cmd = kh.app.grid.Update(msg)
		if msg.String() == "enter" {
			if item, ok := kh.app.grid.SelectedItem().(gridItem); ok {
				return kh.openArticle(item)
			}
		}
		return kh.app, cmd

	case ViewReader:
		kh.app.viewport, cmd = kh.app.viewport.Update(msg)
		return kh.app, cmd

	case ViewCategory:
		kh.app.categoryList, cmd = kh.app.categoryList.Update(msg)
		if msg.String() == "enter" {
			if item, ok := kh.app.categoryList.SelectedItem().(categoryItem); ok {
				kh.app.controller.SetCategory(item.category)
				kh.app.view = ViewFeed
				kh.app.rederive()
			}
		}
		return kh.app, cmd

	default:
		return kh.app, nil
	}
}

// openArticle enters the reader. Opening counts a view.
func (kh *KeyHandler) openArticle(item gridItem) (tea.Model, tea.Cmd) {
	kh.app.controller.OpenArticle(item.article.ID)
	kh.app.currentArticle = item.article
	kh.app.related = feed.Related(item.article, kh.app.articles)
	kh.app.loadingArticle = true
	kh.app.view = ViewReader
	kh.app.setStatus(MsgLoadingArticle, StatusInfo)
	return kh.app, kh.app.renderArticle(item.article, kh.app.related)
}

// navigateBack unwinds one level; at the top it clears filters before
// quitting.
func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	switch kh.app.view {
	case ViewCategory:
		kh.app.view = ViewFeed
		return kh.app, nil

	case ViewReader:
		kh.app.controller.Back()
		kh.app.currentArticle = nil
		kh.app.related = nil
		kh.app.view = ViewFeed
		// Reload so the grid reflects the view count bump.
		return kh.app, kh.app.loadArticles()

	case ViewFeed:
		sel := kh.app.controller.Selection()
		if sel.Query != "" {
			kh.app.searchInput.Reset()
			kh.app.controller.SetQuery("")
			kh.app.rederive()
			return kh.app, nil
		}
		if sel.Category != feed.CategoryAll {
			kh.app.controller.SetCategory(feed.CategoryAll)
			kh.app.rederive()
			return kh.app, nil
		}
		return kh.app, tea.Quit

	default:
		return kh.app, tea.Quit
	}
}

func (kh *KeyHandler) cycleTab(delta int) {
	if kh.app.controller.Phase() == session.Viewing {
		kh.app.currentArticle = nil
		kh.app.related = nil
	}

	current := kh.app.controller.Selection().Tab
	idx := 0
	for i, t := range feed.Tabs {
		if t == current {
			idx = i
			break
		}
	}
	next := feed.Tabs[(idx+delta+len(feed.Tabs))%len(feed.Tabs)]

	kh.app.controller.SetTab(next)
	kh.app.view = ViewFeed
	kh.app.status = ""

	if next == feed.TabSearch {
		kh.app.searchInput.Focus()
	} else if current == feed.TabSearch {
		kh.app.searchInput.Blur()
		kh.app.searchInput.Reset()
		kh.app.controller.SetQuery("")
	}
	kh.app.rederive()
}

// enterSearchMode jumps straight to the search tab with the input focused.
func (kh *KeyHandler) enterSearchMode() (tea.Model, tea.Cmd) {
	if kh.app.controller.Phase() == session.Viewing {
		kh.app.currentArticle = nil
		kh.app.related = nil
	}
	kh.app.controller.SetTab(feed.TabSearch)
	kh.app.view = ViewFeed
	kh.app.searchInput.Reset()
	kh.app.searchInput.Focus()
	kh.app.controller.SetQuery("")
	kh.app.rederive()

	if ds, ok := kh.app.searcher.(search.DebugStatser); ok {
		if n, err := ds.DocCount(); err == nil {
			kh.app.setStatus(fmt.Sprintf("idx: %d docs", n), StatusInfo)
		}
	}
	return kh.app, nil
}

// sanitizeQuery limits and flattens search input.
func sanitizeQuery(input string) string {
	if len(input) > 256 {
		input = input[:256]
	}
	input = strings.ReplaceAll(input, "\n", " ")
	input = strings.ReplaceAll(input, "\r", " ")
	input = strings.ReplaceAll(input, "\t", " ")
	return input
}

func (kh *KeyHandler) openURL(url string) tea.Cmd {
	return func() tea.Msg {
		if err := kh.app.launcher.Open(url); err != nil {
			return errorMsg{err: fmt.Errorf("failed to open %s: %w", truncateMiddle(url, 40), err)}
		}
		return nil
	}
}

// GetHelpForCurrentView returns the custom help text for the status bar.
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	b := kh.bindings
	switch kh.app.view {
	case ViewFeed:
		help := []string{
			b.NextTab + ": tabs",
			b.Category + ": category",
			b.Search + ": search",
			b.Bookmark + ": save",
			b.LikeClosed + ": like",
		}
		if kh.app.typingInSearch() {
			help = []string{"enter: results", "esc: clear"}
		}
		return help

	case ViewReader:
		help := []string{b.Bookmark + ": save", b.LikeClosed + ": like", "+/-: width", b.Back + ": back"}
		if kh.app.currentArticle != nil && kh.app.currentArticle.ImageURL != "" {
			help = append(help, b.OpenImage+": image")
		}
		return help

	case ViewCategory:
		return []string{"enter: select", b.Back + ": back"}

	default:
		return []string{}
	}
}
