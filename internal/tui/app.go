package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/khabardesk/khabar/internal/config"
	"github.com/khabardesk/khabar/internal/feed"
	"github.com/khabardesk/khabar/internal/media"
	"github.com/khabardesk/khabar/internal/search"
	"github.com/khabardesk/khabar/internal/session"
	"github.com/khabardesk/khabar/internal/storage"
)

// trendingSidebarMinWidth is the terminal width below which the trending
// sidebar is dropped in favor of the grid.
const trendingSidebarMinWidth = 100

const trendingSidebarWidth = 34

type App struct {
	config     *config.Config
	store      *storage.Store
	controller *session.Controller
	searcher   search.Searcher
	launcher   *media.Launcher
	keyHandler *KeyHandler

	grid         list.Model
	categoryList list.Model
	searchInput  textinput.Model
	viewport     viewport.Model

	view           View
	articles       []*storage.Article
	feed           feed.Feed
	bookmarks      map[string]bool
	currentArticle *storage.Article
	related        []*storage.Article

	width  int
	height int

	err        error
	status     string
	statusKind StatusKind

	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
	wrapAdjust      int
	loadingArticle  bool
}

func NewApp(store *storage.Store, searcher search.Searcher, cfg *config.Config) *App {
	ApplyTheme(cfg)

	grid := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	grid.Title = "› " + AppName
	grid.SetShowStatusBar(false)
	grid.SetFilteringEnabled(false)
	grid.SetShowHelp(true)

	catItems := make([]list.Item, 0, len(storage.Categories)+1)
	catItems = append(catItems, categoryItem{category: feed.CategoryAll})
	for _, c := range storage.Categories {
		catItems = append(catItems, categoryItem{category: c})
	}
	categoryList := list.New(catItems, list.NewDefaultDelegate(), 0, 0)
	categoryList.Title = "› category"
	categoryList.SetShowStatusBar(false)
	categoryList.SetFilteringEnabled(false)
	categoryList.SetShowHelp(false)

	si := textinput.New()
	si.Placeholder = "Search title, excerpt, author…"

	app := &App{
		config:       cfg,
		store:        store,
		controller:   session.NewController(store, store),
		searcher:     searcher,
		launcher:     media.NewLauncher(""),
		grid:         grid,
		categoryList: categoryList,
		searchInput:  si,
		viewport:     viewport.New(0, 0),
		view:         ViewFeed,
		bookmarks:    map[string]bool{},
	}

	app.keyHandler = NewKeyHandler(app, cfg)

	return app
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	minW := a.config.UI.Article.WordWrapMinWidth
	maxW := a.config.UI.Article.WordWrapMaxWidth
	if minW <= 0 {
		minW = 40
	}
	if maxW <= 0 {
		maxW = 120
	}

	wordWrapWidth := clampWidth((a.width*9)/10, minW, maxW)
	if a.width > 0 && a.width < 50 {
		wordWrapWidth = clampWidth(a.width-4, 20, maxW)
	}
	if a.wrapAdjust != 0 {
		wordWrapWidth = clampWidth(wordWrapWidth+a.wrapAdjust, 20, maxW+40)
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}

	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.loadArticles(),
		tea.EnterAltScreen,
	)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resizeComponents()

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case articlesLoadedMsg:
		a.articles = msg.articles
		a.rederive()
		if a.view == ViewReader && a.currentArticle != nil {
			// Keep the open article's counters current after reloads.
			for _, art := range a.articles {
				if art.ID == a.currentArticle.ID {
					a.currentArticle = art
					break
				}
			}
		}

	case articleRenderedMsg:
		if a.view == ViewReader {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
			a.loadingArticle = false
		}

	case bookmarkToggledMsg:
		if msg.err != nil {
			a.err = msg.err
		} else {
			a.err = nil
			if msg.saved {
				a.setStatus(MsgSaved, StatusSuccess)
			} else {
				a.setStatus(MsgUnsaved, StatusInfo)
			}
			a.rederive()
		}

	case likedMsg:
		if msg.err != nil {
			a.err = msg.err
		} else {
			a.err = nil
			a.setStatus(MsgLiked, StatusSuccess)
			return a, a.loadArticles()
		}

	case errorMsg:
		a.err = msg.err
	}

	switch a.view {
	case ViewFeed:
		if a.typingInSearch() {
			var cmd tea.Cmd
			a.searchInput, cmd = a.searchInput.Update(msg)
			cmds = append(cmds, cmd)
		} else {
			newGrid, cmd := a.grid.Update(msg)
			a.grid = newGrid
			cmds = append(cmds, cmd)
		}
	case ViewReader:
		switch msg.(type) {
		case tea.KeyMsg, tea.WindowSizeMsg, tea.MouseMsg:
			newViewport, cmd := a.viewport.Update(msg)
			a.viewport = newViewport
			cmds = append(cmds, cmd)
		}
	case ViewCategory:
		newList, cmd := a.categoryList.Update(msg)
		a.categoryList = newList
		cmds = append(cmds, cmd)
	}

	return a, tea.Batch(cmds...)
}

func (a *App) resizeComponents() {
	gridWidth := a.width
	if a.showTrendingSidebar() {
		gridWidth = a.width - trendingSidebarWidth
	}
	gridHeight := a.height - a.chromeHeight()
	if gridHeight < 5 {
		gridHeight = 5
	}
	a.grid.SetSize(gridWidth, gridHeight)
	a.categoryList.SetSize(a.width, a.height-3)
	a.viewport.Width = a.width
	a.viewport.Height = a.height - 3

	inputWidth := a.width - 8
	if inputWidth < 20 {
		inputWidth = a.width
	}
	a.searchInput.Width = inputWidth
}

// chromeHeight is the number of rows above and below the grid: tab bar,
// optional ticker, optional hero box, optional search input, status bar.
func (a *App) chromeHeight() int {
	h := 4 // tab bar + blank + separator + status bar
	if a.tickerLine() != "" {
		h += 1
	}
	if a.feed.ShowHero {
		h += 5
	}
	if a.controller.Selection().Tab == feed.TabSearch {
		h += 3
	}
	return h
}

func (a *App) typingInSearch() bool {
	return a.view == ViewFeed &&
		a.controller.Selection().Tab == feed.TabSearch &&
		a.searchInput.Focused()
}

func (a *App) showTrendingSidebar() bool {
	sel := a.controller.Selection()
	return a.width >= trendingSidebarMinWidth &&
		sel.Tab != feed.TabTrending &&
		len(a.feed.Trending) > 0
}

// rederive recomputes the feed from the loaded collection and the current
// selection, and refreshes the grid items.
func (a *App) rederive() {
	f, err := a.controller.DeriveFeed(a.articles)
	if err != nil {
		a.err = wrapErr("deriving feed", err)
		return
	}
	a.feed = f

	if saved, err := a.store.Bookmarks(); err == nil {
		a.bookmarks = saved
	}

	items := make([]list.Item, len(f.Grid))
	for i, art := range f.Grid {
		items[i] = gridItem{
			article:    art,
			saved:      a.bookmarks[art.ID],
			maxExcerpt: a.config.UI.Article.MaxExcerptLength,
		}
	}
	a.grid.SetItems(items)
	a.grid.Title = "› " + string(a.controller.Selection().Tab)
	a.resizeComponents()
}

// adjustWrap widens or narrows the reader column and forces a renderer
// rebuild.
func (a *App) adjustWrap(delta int) {
	a.wrapAdjust += delta
	a.glamourRenderer = nil
}

func (a *App) setStatus(msg string, kind StatusKind) {
	a.status = msg
	a.statusKind = kind
}

func (a *App) View() string {
	var content string

	switch a.view {
	case ViewFeed:
		content = a.viewFeed()
	case ViewReader:
		if a.loadingArticle {
			content = lipgloss.NewStyle().
				Width(a.width).
				Height(a.height-3).
				Align(lipgloss.Center, lipgloss.Center).
				Render(renderMuted(MsgLoadingArticle))
		} else {
			content = a.viewport.View()
		}
	case ViewCategory:
		content = lipgloss.NewStyle().
			Width(a.width).
			Height(a.height - 3).
			Render(lipgloss.JoinVertical(
				lipgloss.Top,
				a.categoryList.View(),
				renderHelp("enter: select • esc: back"),
			))
	}

	statusBar := a.renderStatusBar()
	if statusBar == "" {
		return content
	}

	separatorWidth := a.width
	if separatorWidth < 1 {
		separatorWidth = 1
	}
	separator := renderMuted(strings.Repeat("─", separatorWidth))

	return lipgloss.JoinVertical(lipgloss.Top, content, separator, statusBar)
}

func (a *App) viewFeed() string {
	if len(a.articles) == 0 {
		return lipgloss.NewStyle().
			Width(a.width).
			Height(a.height-3).
			Align(lipgloss.Center, lipgloss.Center).
			Render(GetWelcomeMessage())
	}

	sections := []string{a.renderTabBar(), ""}

	if ticker := a.tickerLine(); ticker != "" {
		sections = append(sections, ticker)
	}

	if a.feed.ShowHero {
		sections = append(sections, a.renderHero())
	}

	sel := a.controller.Selection()
	if sel.Tab == feed.TabSearch {
		sections = append(sections, renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), a.searchInput.Width), "")
	}

	var body string
	if a.feed.Empty != feed.EmptyNone {
		body = a.renderEmptyState()
	} else {
		body = a.grid.View()
	}

	if a.showTrendingSidebar() {
		sidebar := renderTrending(a.feed.Trending, trendingSidebarWidth)
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, sidebar)
	}

	sections = append(sections, body)

	return lipgloss.JoinVertical(lipgloss.Top, sections...)
}

func (a *App) renderTabBar() string {
	sel := a.controller.Selection()

	parts := []string{LogoStyle.Render(CompactLogo), " "}
	for _, t := range feed.Tabs {
		label := string(t)
		if t == sel.Tab {
			parts = append(parts, ActiveTabStyle.Render(label))
		} else {
			parts = append(parts, InactiveTabStyle.Render(label))
		}
	}

	if sel.Category != feed.CategoryAll {
		parts = append(parts, "  ", HeaderStyle.Render("• "+string(sel.Category)))
	}

	return lipgloss.JoinHorizontal(lipgloss.Center, parts...)
}

// tickerLine builds the breaking news strip shown on the home tab.
func (a *App) tickerLine() string {
	if a.controller.Selection().Tab != feed.TabHome {
		return ""
	}
	var titles []string
	for _, art := range a.articles {
		if art.Breaking {
			titles = append(titles, art.Title)
		}
	}
	if len(titles) == 0 {
		return ""
	}
	line := "⚡ " + strings.Join(titles, "  ◆  ")
	return BreakingStyle.Render(truncateEnd(line, a.width-2))
}

func (a *App) renderHero() string {
	hero := a.feed.Hero
	if hero == nil {
		return ""
	}

	boxWidth := a.width - 4
	if a.showTrendingSidebar() {
		boxWidth = a.width - trendingSidebarWidth - 4
	}
	if boxWidth < 20 {
		boxWidth = a.width
	}

	title := truncateEnd(hero.Title, boxWidth-2)
	if hero.Breaking {
		title = BreakingStyle.Render("⚡ ") + lipgloss.NewStyle().Foreground(TextColor).Bold(true).Render(title)
	} else {
		title = lipgloss.NewStyle().Foreground(TextColor).Bold(true).Render(title)
	}

	excerpt := renderMuted(truncateEnd(hero.Excerpt, boxWidth-2))
	meta := TimeStyle.Render(articleMeta(hero))

	return HeroBoxStyle.Width(boxWidth).Render(
		lipgloss.JoinVertical(lipgloss.Top, title, excerpt, meta),
	)
}

func (a *App) renderEmptyState() string {
	var msg string
	switch a.feed.Empty {
	case feed.EmptyNoSaved:
		msg = MsgNoSaved + ". Press '" + a.keyHandler.bindings.Bookmark + "' on an article to save it."
	default:
		msg = MsgNoMatches + ". Try another category or query."
	}

	height := a.height - a.chromeHeight()
	if height < 3 {
		height = 3
	}
	return lipgloss.NewStyle().
		Width(a.grid.Width()).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(renderMuted(msg))
}

func (a *App) renderStatusBar() string {
	if a.err != nil {
		return lipgloss.NewStyle().
			Width(a.width).
			Padding(0, 1).
			Render(ErrorMessageStyle.Render(fmt.Sprintf("✗ %v", a.err)))
	}

	segments := []string{}
	if a.status != "" {
		segments = append(segments, statusStyleFor(a.statusKind).Render(a.status))
	}
	if commands := a.keyHandler.GetHelpForCurrentView(); len(commands) > 0 {
		segments = append(segments, renderMuted(strings.Join(commands, " • ")))
	}
	if len(segments) == 0 {
		return ""
	}

	return lipgloss.NewStyle().
		Width(a.width).
		Padding(0, 1).
		Render(strings.Join(segments, "  "))
}

func statusStyleFor(kind StatusKind) lipgloss.Style {
	switch kind {
	case StatusSuccess:
		return StatusSuccessStyle
	case StatusWarn:
		return StatusWarnStyle
	case StatusError:
		return StatusErrorStyle
	default:
		return StatusInfoStyle
	}
}

// articleMeta joins the byline facts shown under titles.
func articleMeta(art *storage.Article) string {
	parts := []string{string(art.Category), art.Author, art.Language.DisplayName()}
	if art.ReadTime > 0 {
		parts = append(parts, fmt.Sprintf("%d min", art.ReadTime))
	}
	parts = append(parts, fmt.Sprintf("%d views", art.Views))
	return strings.Join(parts, " • ")
}

type gridItem struct {
	article    *storage.Article
	saved      bool
	maxExcerpt int
}

func (i gridItem) Title() string {
	title := i.article.Title
	if i.article.Breaking {
		title = BreakingStyle.Render("⚡ ") + title
	}
	if i.saved {
		title = SavedItemStyle.Render("★ ") + title
	}
	return title
}

func (i gridItem) Description() string {
	limit := i.maxExcerpt
	if limit <= 0 {
		limit = 150
	}
	excerpt := truncateEnd(i.article.Excerpt, limit)

	timeStr := ""
	if !i.article.PublishedAt.IsZero() {
		timeStr = TimeStyle.Render(" • " + i.article.PublishedAt.Format("Jan 2, 15:04"))
	}

	return renderMuted(excerpt+" • "+articleMeta(i.article)) + timeStr
}

func (i gridItem) FilterValue() string { return i.article.Title }

type categoryItem struct {
	category storage.Category
}

func (i categoryItem) Title() string { return string(i.category) }

func (i categoryItem) Description() string {
	if i.category == feed.CategoryAll {
		return "every desk"
	}
	return "only " + string(i.category)
}

func (i categoryItem) FilterValue() string { return string(i.category) }

type articlesLoadedMsg struct {
	articles []*storage.Article
}

type articleRenderedMsg struct {
	content string
}

type bookmarkToggledMsg struct {
	id    string
	saved bool
	err   error
}

type likedMsg struct {
	id  string
	err error
}

type errorMsg struct {
	err error
}
