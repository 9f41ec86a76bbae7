package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/khabardesk/khabar/internal/storage"
)

// renderInputFrame draws a rounded bordered container around a rendered
// text input view.
func renderInputFrame(inputView string, focused bool, contentWidth int) string {
	borderColor := MutedColor
	if focused {
		borderColor = AccentColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(contentWidth + 4).
		Render(inputView)
}

// renderTrending builds the most-viewed sidebar.
func renderTrending(articles []*storage.Article, width int) string {
	rows := []string{TrendingHeaderStyle.Render("🔥 trending")}
	for i, art := range articles {
		line := fmt.Sprintf("%d. %s", i+1, truncateEnd(art.Title, width-10))
		views := TimeStyle.Render(fmt.Sprintf("   %d views", art.Views))
		rows = append(rows, line, views)
	}
	return lipgloss.NewStyle().
		Width(width).
		PaddingLeft(2).
		Render(lipgloss.JoinVertical(lipgloss.Top, rows...))
}

// renderMuted renders text in muted color.
func renderMuted(text string) string {
	return lipgloss.NewStyle().Foreground(MutedColor).Render(text)
}

// renderHelp renders instructional text consistently.
func renderHelp(text string) string {
	return HelpStyle.Render(text)
}
