package ui

import "github.com/charmbracelet/lipgloss"

// Theme defines the palette for the dashboard.
type Theme struct {
	Name string

	Surface     string
	SelectionBg string
	Border      string

	Text    string
	Muted   string
	Accent  string
	Success string
	Warning string
	Danger  string
	Info    string
}

// Styles are the lipgloss styles derived from a Theme.
type Styles struct {
	Text      lipgloss.Style
	Muted     lipgloss.Style
	Accent    lipgloss.Style
	Title     lipgloss.Style
	Running   lipgloss.Style
	Idle      lipgloss.Style
	Disabled  lipgloss.Style
	Warning   lipgloss.Style
	Danger    lipgloss.Style
	Info      lipgloss.Style
	Selected  lipgloss.Style
	Panel     lipgloss.Style
	TabActive lipgloss.Style
	Tab       lipgloss.Style
}

// Styles returns lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	return Styles{
		Text:   lipgloss.NewStyle().Foreground(lipgloss.Color(t.Text)),
		Muted:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted)),
		Accent: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Accent)),
		Title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Accent)).
			Bold(true),
		Running: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Success)).
			Bold(true),
		Idle:     lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted)),
		Disabled: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Muted)).Faint(true),
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color(t.Warning)),
		Danger: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Danger)).
			Bold(true),
		Info: lipgloss.NewStyle().Foreground(lipgloss.Color(t.Info)),
		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SelectionBg)).
			Foreground(lipgloss.Color(t.Text)),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(t.Border)).
			Padding(0, 1),
		TabActive: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Surface)).
			Background(lipgloss.Color(t.Accent)).
			Bold(true).
			Padding(0, 1),
		Tab: lipgloss.NewStyle().
			Foreground(lipgloss.Color(t.Muted)).
			Padding(0, 1),
	}
}

var themes = map[string]Theme{
	"Meadow": meadowTheme(),
	"Dusk":   duskTheme(),
	"Slate":  slateTheme(),
}

var themeOrder = []string{"Meadow", "Dusk", "Slate"}

// GetTheme returns a theme by name, falling back to Meadow.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return meadowTheme()
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	return themeOrder
}

func meadowTheme() Theme {
	return Theme{
		Name:        "Meadow",
		Surface:     "#1b2419",
		SelectionBg: "#2f4a2b",
		Border:      "#3f5a3a",
		Text:        "#e4ecd9",
		Muted:       "#8a9a80",
		Accent:      "#9ccc65",
		Success:     "#66bb6a",
		Warning:     "#ffca28",
		Danger:      "#ef5350",
		Info:        "#4fc3f7",
	}
}

func duskTheme() Theme {
	return Theme{
		Name:        "Dusk",
		Surface:     "#1f1d2e",
		SelectionBg: "#403d52",
		Border:      "#524f67",
		Text:        "#e0def4",
		Muted:       "#908caa",
		Accent:      "#c4a7e7",
		Success:     "#9ccfd8",
		Warning:     "#f6c177",
		Danger:      "#eb6f92",
		Info:        "#31748f",
	}
}

func slateTheme() Theme {
	return Theme{
		Name:        "Slate",
		Surface:     "#1e293b",
		SelectionBg: "#334155",
		Border:      "#475569",
		Text:        "#e2e8f0",
		Muted:       "#94a3b8",
		Accent:      "#38bdf8",
		Success:     "#4ade80",
		Warning:     "#fbbf24",
		Danger:      "#f87171",
		Info:        "#818cf8",
	}
}
