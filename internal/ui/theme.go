package ui

import (
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"
)

var StyleVariants = []string{"modern_arcade", "cozy_clean", "retro_terminal"}

type Theme struct {
	Header      lipgloss.Style
	Status      lipgloss.Style
	PanelTitle  lipgloss.Style
	PanelBorder lipgloss.Style
	PanelBody   lipgloss.Style
	Prompt      lipgloss.Style
	Command     lipgloss.Style
	Accent      lipgloss.Style
	Pass        lipgloss.Style
	Fail        lipgloss.Style
	Selected    lipgloss.Style
	Muted       lipgloss.Style
	Banner      lipgloss.Style

	Bar []color.Color
}

type palette struct {
	bg, bar, fg, title, border, pass, fail, warn, muted, prompt color.Color
}

func DefaultTheme() Theme {
	return ThemeForVariant("modern_arcade")
}

func NormalizeStyleVariant(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, known := range StyleVariants {
		if v == known {
			return v
		}
	}
	return "modern_arcade"
}

func ValidStyleVariant(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	for _, known := range StyleVariants {
		if v == known {
			return true
		}
	}
	return false
}

func ThemeForVariant(variant string) Theme {
	switch NormalizeStyleVariant(variant) {
	case "cozy_clean":
		return buildTheme(palette{
			bg:     lipgloss.Color("#1E2430"),
			bar:    lipgloss.Color("#30394A"),
			fg:     lipgloss.Color("#F4F6FA"),
			title:  lipgloss.Color("#86B6F6"),
			border: lipgloss.Color("#4A5972"),
			pass:   lipgloss.Color("#80C4A3"),
			fail:   lipgloss.Color("#D17A86"),
			warn:   lipgloss.Color("#F2B872"),
			muted:  lipgloss.Color("#A3ACC2"),
			prompt: lipgloss.Color("#80C4A3"),
		})
	case "retro_terminal":
		return buildTheme(palette{
			bg:     lipgloss.Color("#07150A"),
			bar:    lipgloss.Color("#12301A"),
			fg:     lipgloss.Color("#C5F7C4"),
			title:  lipgloss.Color("#9CF5A2"),
			border: lipgloss.Color("#1F5C2F"),
			pass:   lipgloss.Color("#9CF5A2"),
			fail:   lipgloss.Color("#FF6B6B"),
			warn:   lipgloss.Color("#E5D47A"),
			muted:  lipgloss.Color("#73A17A"),
			prompt: lipgloss.Color("#E5D47A"),
		})
	default:
		return buildTheme(palette{
			bg:     lipgloss.Color("#0E1420"),
			bar:    lipgloss.Color("#1B2740"),
			fg:     lipgloss.Color("#EAF2FF"),
			title:  lipgloss.Color("#5EEBFF"),
			border: lipgloss.Color("#4B5F8A"),
			pass:   lipgloss.Color("#67F0A8"),
			fail:   lipgloss.Color("#FF6F91"),
			warn:   lipgloss.Color("#FFC857"),
			muted:  lipgloss.Color("#9CAAC6"),
			prompt: lipgloss.Color("#67F0A8"),
		})
	}
}

func buildTheme(p palette) Theme {
	return Theme{
		Header:      lipgloss.NewStyle().Background(p.bg).Foreground(p.fg).Bold(true).Padding(0, 1),
		Status:      lipgloss.NewStyle().Background(p.bar).Foreground(p.fg).Padding(0, 1),
		PanelTitle:  lipgloss.NewStyle().Foreground(p.title).Bold(true),
		PanelBorder: lipgloss.NewStyle().Foreground(p.border),
		PanelBody:   lipgloss.NewStyle().Foreground(p.fg),
		Prompt:      lipgloss.NewStyle().Foreground(p.prompt).Bold(true),
		Command:     lipgloss.NewStyle().Foreground(p.fg).Bold(true),
		Accent:      lipgloss.NewStyle().Foreground(p.title).Bold(true),
		Pass:        lipgloss.NewStyle().Foreground(p.pass).Bold(true),
		Fail:        lipgloss.NewStyle().Foreground(p.fail).Bold(true),
		Selected:    lipgloss.NewStyle().Foreground(p.warn).Bold(true),
		Muted:       lipgloss.NewStyle().Foreground(p.muted),
		Banner:      lipgloss.NewStyle().Foreground(p.warn).Bold(true),
		Bar:         []color.Color{p.title, p.pass},
	}
}
