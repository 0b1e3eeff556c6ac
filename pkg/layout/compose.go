// compose.go — Build the scene graph for a card.
package layout

import (
	"image/color"
	"time"

	"github.com/xob0t/ayatcard/pkg/calendar"
	"github.com/xob0t/ayatcard/pkg/card"
)

// BlockGap is the vertical space between consecutive stacked blocks.
const BlockGap = 16

var (
	white         = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	black         = color.NRGBA{A: 255}
	defaultShadow = color.NRGBA{A: 128}
	guideColor    = color.NRGBA{R: 0x3b, G: 0x82, B: 0xf6, A: 255}
)

// Options control one Compose call.
type Options struct {
	// HideText drops the four text layers. The footer stays.
	HideText bool
	// ShowGuides appends labelled outlines for editing previews.
	ShowGuides bool

	// Now is the instant shown in the footer dates. Zero means time.Now.
	Now time.Time
	// Measurer sizes text. Nil means ApproxMeasurer.
	Measurer Measurer
	// Calendar formats the footer dates. Nil means calendar.Arabic.
	Calendar calendar.Formatter
	// Labels names the guides. Zero means EnglishLabels.
	Labels GuideLabels
}

func (o Options) withDefaults() Options {
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	if o.Measurer == nil {
		o.Measurer = ApproxMeasurer{}
	}
	if o.Calendar == nil {
		o.Calendar = calendar.Arabic{}
	}
	if o.Labels == (GuideLabels{}) {
		o.Labels = EnglishLabels
	}
	return o
}

// Compose lays out c as a back-to-front scene:
//
//	background fill, image, overlay, frame, text stack, footer, guides.
//
// Geometry outside the canvas is kept as is; the rasterizer clips.
func Compose(c card.Card, opts Options) Scene {
	opts = opts.withDefaults()

	canvas := Rect{W: float64(max(c.Width, 0)), H: float64(max(c.Height, 0))}
	safe := SafeArea(c)

	s := Scene{Width: int(canvas.W), Height: int(canvas.H), SafeArea: safe}

	s.Nodes = append(s.Nodes, Node{
		Kind:   KindFill,
		Region: RegionBackground,
		Rect:   canvas,
		Fill:   &Fill{Color: card.ColorOr(c.Background.Color, black)},
	})
	if c.Background.Image != "" {
		s.Nodes = append(s.Nodes, Node{
			Kind:   KindImage,
			Region: RegionBackground,
			Rect:   canvas,
			Image:  &ImageFill{Ref: c.Background.Image},
		})
	}
	s.Nodes = append(s.Nodes, Node{
		Kind:   KindFill,
		Region: RegionOverlay,
		Rect:   canvas,
		Fill:   &Fill{Color: card.WithOpacity(card.ColorOr(c.Background.OverlayColor, black), c.Background.OverlayOpacity)},
	})

	if c.Border.Enabled && c.Border.Width > 0 {
		r := c.Border.Radius
		s.Nodes = append(s.Nodes, Node{
			Kind:   KindFrame,
			Region: RegionFrame,
			Rect:   safe,
			Frame: &Frame{
				Style:  c.Border.Style,
				Color:  card.WithOpacity(card.ColorOr(c.Border.Color, white), c.Border.Opacity),
				Width:  float64(c.Border.Width),
				Radius: Radii{TL: float64(max(r.TL, 0)), TR: float64(max(r.TR, 0)), BR: float64(max(r.BR, 0)), BL: float64(max(r.BL, 0))},
			},
		})
	}

	if !opts.HideText {
		for _, b := range stack(c, safe, opts.Measurer) {
			s.Nodes = append(s.Nodes, Node{Kind: KindText, Region: b.Role.String(), Rect: b.Box, Text: &b})
		}
	}

	var footer *Node
	if c.Footer.Enabled {
		fb, rect := composeFooter(c.Footer, canvas, opts)
		s.Nodes = append(s.Nodes, Node{Kind: KindFooter, Region: RegionFooter, Rect: rect, Footer: &fb})
		footer = &s.Nodes[len(s.Nodes)-1]
	}

	if opts.ShowGuides {
		s.Nodes = append(s.Nodes, guides(s, canvas, footer, opts.Labels)...)
	}
	return s
}

// SafeArea returns the canvas inset by the card's padding.
func SafeArea(c card.Card) Rect {
	canvas := Rect{W: float64(max(c.Width, 0)), H: float64(max(c.Height, 0))}
	p := c.Padding
	return canvas.Inset(float64(p.Top), float64(p.Right), float64(p.Bottom), float64(p.Left))
}

// stack resolves the non-empty layers in StackOrder and centres the group
// vertically in the safe area. Each block is centred horizontally and then
// moved by its own offset, which never affects its neighbours.
func stack(c card.Card, safe Rect, m Measurer) []TextBlock {
	var blocks []TextBlock
	var offsets []float64
	total := 0.0
	for _, role := range card.StackOrder {
		l := c.Layers[role]
		if l.Content == "" {
			continue
		}
		b := ResolveTextBlock(l, safe.W, m)
		b.Role = role
		if len(blocks) > 0 {
			total += BlockGap
		}
		total += b.Box.H
		blocks = append(blocks, b)
		offsets = append(offsets, l.OffsetY)
	}

	y := safe.Y + (safe.H-total)/2
	for i, b := range blocks {
		natural := Rect{
			X: safe.X + (safe.W-b.Box.W)/2,
			Y: y,
			W: b.Box.W,
			H: b.Box.H,
		}
		blocks[i] = b.place(natural, offsets[i])
		y += b.Box.H + BlockGap
	}
	return blocks
}
