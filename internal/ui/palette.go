package ui

import "github.com/charmbracelet/lipgloss"

// Palette maps the color names offered on the settings screen to terminal
// colors. Order is the order shown in pickers.
var Palette = []NamedColor{
	{"blue", lipgloss.Color("#0A84FF")},
	{"green", lipgloss.Color("#30D158")},
	{"red", lipgloss.Color("#FF453A")},
	{"orange", lipgloss.Color("#FF9F0A")},
	{"yellow", lipgloss.Color("#FFD60A")},
	{"purple", lipgloss.Color("#BF5AF2")},
	{"pink", lipgloss.Color("#FF375F")},
	{"teal", lipgloss.Color("#64D2FF")},
	{"indigo", lipgloss.Color("#5E5CE6")},
	{"gray", lipgloss.Color("#8E8E93")},
}

// NamedColor is one palette entry.
type NamedColor struct {
	Name  string
	Color lipgloss.Color
}

// PaletteNames returns the palette names in display order.
func PaletteNames() []string {
	names := make([]string, len(Palette))
	for i, c := range Palette {
		names[i] = c.Name
	}
	return names
}

// LookupColor returns the color for name.
func LookupColor(name string) (lipgloss.Color, bool) {
	for _, c := range Palette {
		if c.Name == name {
			return c.Color, true
		}
	}
	return "", false
}

// CardText is drawn on colored cards: black in dark mode, white in light.
var CardText = lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#000000"}

// Theme holds the three reader-chosen colors.
type Theme struct {
	Ring           lipgloss.Color
	RingCard       lipgloss.Color
	TranscriptCard lipgloss.Color
}

// NewTheme resolves palette names, falling back to blue/green/blue for
// names it does not know.
func NewTheme(ring, ringCard, transcriptCard string) Theme {
	pick := func(name, fallback string) lipgloss.Color {
		if c, ok := LookupColor(name); ok {
			return c
		}
		c, _ := LookupColor(fallback)
		return c
	}
	return Theme{
		Ring:           pick(ring, "blue"),
		RingCard:       pick(ringCard, "green"),
		TranscriptCard: pick(transcriptCard, "blue"),
	}
}
