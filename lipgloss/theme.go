// Package lipgloss renders grading summaries for the terminal using the
// Lipgloss styling library.
package lipgloss

import lg "github.com/charmbracelet/lipgloss"

// Theme holds the colors used by the summary table.
type Theme struct {
	Header lg.Color
	Border lg.Color
	Muted  lg.Color
	Pass   lg.Color // scores at or above the pass threshold
	Warn   lg.Color
	Fail   lg.Color // scores below half
}

// DefaultTheme returns the default theme (dark background optimized).
func DefaultTheme() *Theme {
	return DarkTheme()
}

// DarkTheme returns a theme optimized for dark terminal backgrounds (Catppuccin Mocha).
func DarkTheme() *Theme {
	return &Theme{
		Header: "#89b4fa",
		Border: "#45475a",
		Muted:  "#6c7086",
		Pass:   "#a6e3a1",
		Warn:   "#f9e2af",
		Fail:   "#f38ba8",
	}
}

// LightTheme returns a theme optimized for light terminal backgrounds (Catppuccin Latte).
func LightTheme() *Theme {
	return &Theme{
		Header: "#1e66f5",
		Border: "#bcc0cc",
		Muted:  "#9ca0b0",
		Pass:   "#40a02b",
		Warn:   "#df8e1d",
		Fail:   "#d20f39",
	}
}
