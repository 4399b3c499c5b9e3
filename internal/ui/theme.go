package ui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds all colours used by terminal output.
// Catppuccin Mocha, as in Zed's default dark palette.
type Theme struct {
	Text      lipgloss.Color
	TextMuted lipgloss.Color
	Primary   lipgloss.Color

	Added    lipgloss.Color
	Modified lipgloss.Color
	Deleted  lipgloss.Color
	Renamed  lipgloss.Color

	Warning lipgloss.Color
	Error   lipgloss.Color

	CommitHash lipgloss.Color
	Branch     lipgloss.Color
}

// DarkTheme returns the default dark theme.
func DarkTheme() Theme {
	return Theme{
		Text:      lipgloss.Color("#cdd6f4"),
		TextMuted: lipgloss.Color("#9399b2"),
		Primary:   lipgloss.Color("#89b4fa"),

		Added:    lipgloss.Color("#a6e3a1"),
		Modified: lipgloss.Color("#f9e2af"),
		Deleted:  lipgloss.Color("#f38ba8"),
		Renamed:  lipgloss.Color("#89dceb"),

		Warning: lipgloss.Color("#f9e2af"),
		Error:   lipgloss.Color("#f38ba8"),

		CommitHash: lipgloss.Color("#f9e2af"),
		Branch:     lipgloss.Color("#a6e3a1"),
	}
}

// Styles holds pre-computed lipgloss styles derived from a Theme.
type Styles struct {
	Theme Theme

	Title lipgloss.Style
	Muted lipgloss.Style
	Bold  lipgloss.Style

	// File change types
	FileAdded    lipgloss.Style
	FileModified lipgloss.Style
	FileDeleted  lipgloss.Style
	FileRenamed  lipgloss.Style

	// Line counts
	Insertions lipgloss.Style
	Deletions  lipgloss.Style

	// Commit / refs
	CommitHash lipgloss.Style
	Author     lipgloss.Style
	Date       lipgloss.Style
	BranchName lipgloss.Style
}

// NewStyles builds all styles from the given theme. Styles render through
// r, so colour is dropped when r's output is not a terminal.
func NewStyles(r *lipgloss.Renderer, t Theme) Styles {
	s := Styles{Theme: t}

	s.Title = r.NewStyle().Foreground(t.Text).Bold(true)
	s.Muted = r.NewStyle().Foreground(t.TextMuted)
	s.Bold = r.NewStyle().Foreground(t.Text).Bold(true)

	s.FileAdded = r.NewStyle().Foreground(t.Added)
	s.FileModified = r.NewStyle().Foreground(t.Modified)
	s.FileDeleted = r.NewStyle().Foreground(t.Deleted).Strikethrough(true)
	s.FileRenamed = r.NewStyle().Foreground(t.Renamed)

	s.Insertions = r.NewStyle().Foreground(t.Added)
	s.Deletions = r.NewStyle().Foreground(t.Deleted)

	s.CommitHash = r.NewStyle().Foreground(t.CommitHash)
	s.Author = r.NewStyle().Foreground(t.Primary)
	s.Date = r.NewStyle().Foreground(t.TextMuted)
	s.BranchName = r.NewStyle().Foreground(t.Branch).Bold(true)

	return s
}

// StylesFor returns dark-theme styles rendering to w.
func StylesFor(w io.Writer) Styles {
	return NewStyles(lipgloss.NewRenderer(w), DarkTheme())
}
