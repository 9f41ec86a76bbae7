package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/khabardesk/khabar/internal/config"
)

const AppName = "khabar"

// ASCII art logo lines for khabar - canonical definition
var LogoLines = []string{
	"█ █ █ █ ▄▀█ █▀▄ ▄▀█ █▀█",
	"█▀▄ █▀█ █▀█ █▀▄ █▀█ █▀▄",
}

const CompactLogo = `khabar ›`

// Tagline shown under the logo in the terminal banner.
const Tagline = "ख़बर • bilingual news desk"

// Banner gradient colors
var BannerColors = []lipgloss.Color{
	lipgloss.Color("#FF6B6B"),
	lipgloss.Color("#FFA86B"),
	lipgloss.Color("#95E1D3"),
	lipgloss.Color("#4ECDC4"),
	lipgloss.Color("#FF6B6B"),
}

// Brand colors. Defaults match the shipped config; ApplyTheme overrides
// them from [ui.colors].
var (
	PrimaryColor   = lipgloss.Color("#FF6B6B")
	SecondaryColor = lipgloss.Color("#4ECDC4")
	AccentColor    = lipgloss.Color("#95E1D3")

	BackgroundColor = lipgloss.Color("#1A1A2E")
	SurfaceColor    = lipgloss.Color("#16213E")
	TextColor       = lipgloss.Color("#EAEAEA")
	MutedColor      = lipgloss.Color("#94A3B8")

	BreakingColor = lipgloss.Color("#EF4444")
	SavedColor    = lipgloss.Color("#FFE66D")
	ErrorColor    = lipgloss.Color("#F87171")
	SuccessColor  = lipgloss.Color("#4ADE80")
)

// Styled components
var (
	LogoStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	TitleStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(SurfaceColor).
			Bold(true).
			Padding(0, 2)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)

	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(BackgroundColor).
			Background(AccentColor).
			Bold(true).
			Padding(0, 1)

	InactiveTabStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				Padding(0, 1)

	BreakingStyle = lipgloss.NewStyle().
			Foreground(BreakingColor).
			Bold(true)

	SavedItemStyle = lipgloss.NewStyle().
			Foreground(SavedColor)

	HeroBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor).
			Padding(0, 1)

	TrendingHeaderStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	TimeStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Faint(true)

	ErrorMessageStyle = lipgloss.NewStyle().
				Foreground(ErrorColor).
				Bold(true)

	StatusInfoStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	StatusSuccessStyle = lipgloss.NewStyle().
				Foreground(SuccessColor)

	StatusWarnStyle = lipgloss.NewStyle().
			Foreground(SavedColor)

	StatusErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	EmptyStyle = lipgloss.NewStyle()
)

// ApplyTheme rebinds the package color variables from the configured
// palette. Empty entries keep their defaults.
func ApplyTheme(cfg *config.Config) {
	if cfg == nil {
		return
	}
	c := cfg.UI.Colors
	set := func(dst *lipgloss.Color, hex string) {
		if hex != "" {
			*dst = lipgloss.Color(hex)
		}
	}
	set(&PrimaryColor, c.Primary)
	set(&SecondaryColor, c.Secondary)
	set(&AccentColor, c.Accent)
	set(&TextColor, c.Text)
	set(&MutedColor, c.Muted)
	set(&ErrorColor, c.Error)
	set(&SuccessColor, c.Success)
	set(&BreakingColor, c.Breaking)

	LogoStyle = LogoStyle.Foreground(PrimaryColor)
	HeaderStyle = HeaderStyle.Foreground(SecondaryColor)
	ActiveTabStyle = ActiveTabStyle.Background(AccentColor)
	InactiveTabStyle = InactiveTabStyle.Foreground(MutedColor)
	BreakingStyle = BreakingStyle.Foreground(BreakingColor)
	HeroBoxStyle = HeroBoxStyle.BorderForeground(PrimaryColor)
	TrendingHeaderStyle = TrendingHeaderStyle.Foreground(PrimaryColor)
	HelpStyle = HelpStyle.Foreground(MutedColor)
	TimeStyle = TimeStyle.Foreground(MutedColor)
	ErrorMessageStyle = ErrorMessageStyle.Foreground(ErrorColor)
	StatusInfoStyle = StatusInfoStyle.Foreground(MutedColor)
	StatusSuccessStyle = StatusSuccessStyle.Foreground(SuccessColor)
	StatusErrorStyle = StatusErrorStyle.Foreground(ErrorColor)
}

func GetWelcomeMessage() string {
	return GetCompactBanner("No published articles yet. Run 'khabar seed' or 'khabar import <feed-url>'")
}

func GetCompactBanner(message string) string {
	var coloredLines []string
	for _, line := range LogoLines {
		coloredLines = append(coloredLines, LogoStyle.Render(line))
	}

	logo := lipgloss.JoinVertical(lipgloss.Center, coloredLines...)

	return lipgloss.JoinVertical(
		lipgloss.Center,
		logo,
		HelpStyle.Render(Tagline),
		"",
		HelpStyle.Render(message),
	)
}

// ShowBanner prints the bordered startup banner used by the version command.
func ShowBanner(version string) {
	lines := make([]string, len(LogoLines)+1)
	copy(lines, LogoLines)
	lines[len(LogoLines)] = ""

	versionTag := version
	if versionTag != "" && versionTag != "dev" {
		if versionTag[0] != 'v' && versionTag[0] != 'V' {
			versionTag = "v" + versionTag
		}
		lines = append(lines, fmt.Sprintf("  %s %s", Tagline, versionTag))
	} else {
		lines = append(lines, "  "+Tagline)
	}

	var coloredLines []string
	for i, line := range lines {
		if line == "" {
			coloredLines = append(coloredLines, line)
			continue
		}
		colorIdx := i % len(BannerColors)
		style := lipgloss.NewStyle().
			Foreground(BannerColors[colorIdx]).
			Bold(i < len(LogoLines))
		coloredLines = append(coloredLines, style.Render(line))
	}

	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(SecondaryColor).
		Padding(1, 3).
		MarginTop(1)

	banner := lipgloss.JoinVertical(lipgloss.Center, coloredLines...)
	fmt.Println(lipgloss.NewStyle().
		Width(70).
		Align(lipgloss.Center).
		MarginBottom(1).
		Render(borderStyle.Render(banner)))
}
