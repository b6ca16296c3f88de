package prompt

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha color palette
var (
	mauve    = lipgloss.Color("#CBA6F7")
	pink     = lipgloss.Color("#F5C2E7")
	red      = lipgloss.Color("#F38BA8")
	sapphire = lipgloss.Color("#74C7EC")
	text     = lipgloss.Color("#CDD6F4")
	subtext0 = lipgloss.Color("#A6ADC8")
	overlay0 = lipgloss.Color("#6C7086")
	surface0 = lipgloss.Color("#313244")
)

// Styles defines the visual appearance of prompts.
type Styles struct {
	Box          lipgloss.Style
	Title        lipgloss.Style
	Item         lipgloss.Style
	ItemSelected lipgloss.Style
	Description  lipgloss.Style
	Detail       lipgloss.Style
	Error        lipgloss.Style
	Suggestion   lipgloss.Style
	Selected     lipgloss.Style
	Help         lipgloss.Style
}

// DefaultStyles returns the prompt styles.
func DefaultStyles() Styles {
	return Styles{
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mauve).
			Padding(0, 1),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(sapphire).
			MarginBottom(1),

		Item: lipgloss.NewStyle().
			Foreground(text).
			Padding(0, 1),

		ItemSelected: lipgloss.NewStyle().
			Foreground(text).
			Background(surface0).
			Bold(true).
			Padding(0, 1),

		Description: lipgloss.NewStyle().
			Foreground(subtext0),

		Detail: lipgloss.NewStyle().
			Foreground(overlay0).
			PaddingLeft(3),

		Error: lipgloss.NewStyle().
			Foreground(red),

		Suggestion: lipgloss.NewStyle().
			Foreground(overlay0).
			PaddingLeft(2),

		Selected: lipgloss.NewStyle().
			Foreground(pink).
			Bold(true).
			PaddingLeft(2),

		Help: lipgloss.NewStyle().
			Foreground(overlay0).
			MarginTop(1),
	}
}
