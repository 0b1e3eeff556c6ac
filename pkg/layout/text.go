// text.go — Text layer resolution: wrapping, alignment, shadow and chip.
package layout

import (
	"strings"
	"unicode"

	"github.com/xob0t/ayatcard/pkg/card"
)

// Drop shadow geometry shared by every layer.
const (
	ShadowOffsetY = 2
	ShadowBlur    = 4
)

// Measurer reports the advance width of s in card pixels.
type Measurer interface {
	Measure(f FontSpec, s string) float64
}

// ApproxMeasurer estimates widths without font files: half an em per
// spacing rune, nothing for combining marks.
type ApproxMeasurer struct{}

// Measure implements Measurer.
func (ApproxMeasurer) Measure(f FontSpec, s string) float64 {
	if f.Size <= 0 {
		return 0
	}
	n := 0
	for _, r := range s {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		n++
	}
	return float64(n) * f.Size * 0.5
}

// ResolveTextBlock lays out one layer in a box of the given safe-area
// width. The result is positioned at the origin; Compose moves it into the
// stack. Text wraps inside widthPercent of safeWidth and is never shrunk to
// fit: overflowing words stay on their own line.
func ResolveTextBlock(l card.TextLayer, safeWidth float64, m Measurer) TextBlock {
	font := FontSpec{
		Family: l.FontFamily,
		Size:   max(l.FontSize, 0),
		Bold:   l.Bold,
		Italic: l.Italic,
	}
	lineH := max(font.Size*l.LineHeight, 0)
	innerW := max(safeWidth*l.WidthPct/100, 0)

	dir := card.DirRTL
	if !l.IsRTL() {
		dir = card.DirLTR
	}

	b := TextBlock{
		Direction:  dir,
		Align:      l.Align,
		Font:       font,
		Color:      card.ColorOr(l.Color, white),
		LineHeight: lineH,
	}

	var pad float64
	if l.BgEnabled {
		pad = max(l.BgPadding, 0)
		b.Chip = &Chip{
			Color:  card.WithOpacity(card.ColorOr(l.BgColor, black), l.BgOpacity),
			Radius: max(l.BgRadius, 0),
		}
	}
	if l.Shadow {
		b.Shadow = &Shadow{
			Color:   card.ColorOr(l.ShadowColor, defaultShadow),
			OffsetY: ShadowOffsetY,
			Blur:    ShadowBlur,
		}
	}

	var wrapped []wrappedLine
	if font.Size > 0 {
		wrapped = wrapText(l.Content, innerW, func(s string) float64 { return m.Measure(font, s) })
	}

	b.Content = Rect{X: pad, Y: pad, W: innerW, H: float64(len(wrapped)) * lineH}
	b.Box = Rect{W: innerW + 2*pad, H: b.Content.H + 2*pad}
	b.Natural = b.Box

	for i, wl := range wrapped {
		w := m.Measure(font, wl.text)
		line := Line{Text: wl.text, Y: b.Content.Y + float64(i)*lineH, Width: w}

		align := l.Align
		if align == card.AlignJustify {
			// The last line of each paragraph stays at the start edge.
			line.Justify = !wl.paragraphEnd
			align = startAlign(dir)
		}
		switch align {
		case card.AlignRight:
			line.X = b.Content.X + innerW - w
		case card.AlignCenter:
			line.X = b.Content.X + (innerW-w)/2
		case card.AlignLeft:
			line.X = b.Content.X
		default:
			line.X = b.Content.X
			if dir == card.DirRTL {
				line.X = b.Content.X + innerW - w
			}
		}
		b.Lines = append(b.Lines, line)
	}
	return b
}

// place moves a block resolved at the origin to its natural position and
// then applies its own vertical offset.
func (b TextBlock) place(natural Rect, offsetY float64) TextBlock {
	dx, dy := natural.X-b.Box.X, natural.Y-b.Box.Y
	b.Natural = b.Box.Translate(dx, dy)
	dy += offsetY
	b.Box = b.Box.Translate(dx, dy)
	b.Content = b.Content.Translate(dx, dy)
	lines := make([]Line, len(b.Lines))
	for i, ln := range b.Lines {
		ln.X += dx
		ln.Y += dy
		lines[i] = ln
	}
	b.Lines = lines
	return b
}

func startAlign(d card.Direction) card.Align {
	if d == card.DirLTR {
		return card.AlignLeft
	}
	return card.AlignRight
}

type wrappedLine struct {
	text         string
	paragraphEnd bool
}

// wrapText breaks text into lines that fit maxWidth. Explicit newlines
// start a new paragraph; blank paragraphs become empty lines.
func wrapText(text string, maxWidth float64, measure func(string) float64) []wrappedLine {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var lines []wrappedLine
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, wrappedLine{paragraphEnd: true})
			continue
		}

		current := words[0]
		for _, word := range words[1:] {
			candidate := current + " " + word
			if measure(candidate) > maxWidth {
				lines = append(lines, wrappedLine{text: current})
				current = word
			} else {
				current = candidate
			}
		}
		lines = append(lines, wrappedLine{text: current, paragraphEnd: true})
	}
	return lines
}
