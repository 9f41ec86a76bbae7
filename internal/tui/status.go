package tui

import "fmt"

// Canonical short status messages used across the app.
const (
	MsgLoadingArticles = "Loading articles…"
	MsgLoadingArticle  = "Loading article…"
	MsgSaved           = "Saved for later"
	MsgUnsaved         = "Removed from saved"
	MsgLiked           = "Liked"
	MsgNoSaved         = "Nothing saved yet"
	MsgNoMatches       = "No articles match"
)

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 article"
	}
	return fmt.Sprintf("%d articles", n)
}
