// validator.go — Soft checks on a card.
package card

import (
	"fmt"
	"slices"
)

// Validate reports values outside their suggested ranges.
// Returns warnings (never fatal errors): the compositor renders any card
// best-effort, so callers only log or display these.
func Validate(c Card) []string {
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	if c.Width <= 0 || c.Height <= 0 {
		warn("canvas size %dx%d is not positive", c.Width, c.Height)
	}

	checkColor := func(field, value string) {
		if _, err := ParseColor(value); err != nil {
			warn("%s: %v — rendering with fallback", field, err)
		}
	}
	checkUnit := func(field string, v float64) {
		if v < 0 || v > 1 {
			warn("%s %.2f outside 0–1 — clamped", field, v)
		}
	}

	checkColor("background.color", c.Background.Color)
	checkColor("background.overlayColor", c.Background.OverlayColor)
	checkUnit("background.overlayOpacity", c.Background.OverlayOpacity)

	p := c.Padding
	if p.Top < 0 || p.Right < 0 || p.Bottom < 0 || p.Left < 0 {
		warn("padding has negative insets %+v", p)
	}

	if c.Border.Enabled {
		checkColor("border.color", c.Border.Color)
		checkUnit("border.opacity", c.Border.Opacity)
		if c.Border.Width < 1 {
			warn("border.width %d is below 1", c.Border.Width)
		}
		if !slices.Contains(BorderStyles, c.Border.Style) {
			warn("border.style %q unknown — drawn solid", c.Border.Style)
		}
	}

	for i, l := range c.Layers {
		role := Role(i)
		if l.Content == "" {
			continue
		}
		if !IsKnownFont(l.FontFamily) {
			warn("%s: font %q not in the font list", role, l.FontFamily)
		}
		if l.FontSize < 10 || l.FontSize > 150 {
			warn("%s: font size %.0f outside 10–150", role, l.FontSize)
		}
		if l.WidthPct < 20 || l.WidthPct > 100 {
			warn("%s: width %.0f%% outside 20–100", role, l.WidthPct)
		}
		checkColor(role.String()+".color", l.Color)
		if l.Shadow {
			checkColor(role.String()+".shadowColor", l.ShadowColor)
		}
		if l.BgEnabled {
			checkColor(role.String()+".bgColor", l.BgColor)
			checkUnit(role.String()+".bgOpacity", l.BgOpacity)
		}
	}

	if c.Footer.Enabled {
		checkColor("footer.color", c.Footer.Color)
		if !IsKnownFont(c.Footer.FontFamily) {
			warn("footer: font %q not in the font list", c.Footer.FontFamily)
		}
	}

	return warnings
}
