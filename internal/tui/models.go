package tui

type View int

const (
	// ViewFeed is the listing surface: tab bar, hero, grid, trending.
	ViewFeed View = iota
	// ViewReader shows a single open article.
	ViewReader
	// ViewCategory is the category picker overlay.
	ViewCategory
)
