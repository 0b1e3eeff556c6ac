// theme.go — Named colour themes applied atomically to a card.
package card

import "strings"

// Theme is a named colour tuple.
type Theme struct {
	Name       string `json:"name"`
	Background string `json:"bg"`
	Text       string `json:"text"`
	Overlay    string `json:"overlay"`
	Border     string `json:"border"`
}

// Themes is the built-in theme list in display order.
var Themes = []Theme{
	{Name: "Midnight", Background: "#0f172a", Text: "#f8fafc", Overlay: "#000000", Border: "#334155"},
	{Name: "Royal", Background: "#2e1065", Text: "#faf5ff", Overlay: "#000000", Border: "#fbbf24"},
	{Name: "Obsidian", Background: "#000000", Text: "#e2e8f0", Overlay: "#000000", Border: "#27272a"},
	{Name: "Sandstone", Background: "#78350f", Text: "#fef3c7", Overlay: "#000000", Border: "#b45309"},
	{Name: "Rose", Background: "#881337", Text: "#fff1f2", Overlay: "#000000", Border: "#f43f5e"},
	{Name: "Slate", Background: "#334155", Text: "#f1f5f9", Overlay: "#000000", Border: "#94a3b8"},
	{Name: "Violet", Background: "#4c1d95", Text: "#f3e8ff", Overlay: "#000000", Border: "#a78bfa"},
	{Name: "Ocean", Background: "#134e4a", Text: "#ccfbf1", Overlay: "#000000", Border: "#2dd4bf"},
	{Name: "Paper", Background: "#fefce8", Text: "#1c1917", Overlay: "#d97706", Border: "#1c1917"},
	{Name: "Luxury", Background: "#1c1917", Text: "#fde047", Overlay: "#000000", Border: "#fde047"},
}

// LookupTheme finds a built-in theme by case-insensitive name.
func LookupTheme(name string) (Theme, bool) {
	for _, t := range Themes {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return Theme{}, false
}

// ApplyTheme overwrites the background, overlay and border colours, and the
// colour of every text layer and the footer. No other field changes, so
// applying the same theme twice equals applying it once.
func ApplyTheme(c Card, t Theme) Card {
	c.Background.Color = t.Background
	c.Background.OverlayColor = t.Overlay
	c.Border.Color = t.Border
	for i := range c.Layers {
		c.Layers[i].Color = t.Text
	}
	c.Footer.Color = t.Text
	return c
}
