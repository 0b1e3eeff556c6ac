// Package layout turns a card into a z-ordered scene graph.
//
// Compose is a pure function of the card and its Options: calling it twice
// with the same input (and the same Options.Now) yields deep-equal scenes.
// All coordinates are logical card pixels; rasterizers scale them.
package layout

import (
	"image/color"

	"github.com/xob0t/ayatcard/pkg/card"
)

// Rect is an axis-aligned rectangle in card pixels.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Inset shrinks r by the given amounts. Width and height never go negative.
func (r Rect) Inset(top, right, bottom, left float64) Rect {
	out := Rect{X: r.X + left, Y: r.Y + top, W: r.W - left - right, H: r.H - top - bottom}
	out.W = max(out.W, 0)
	out.H = max(out.H, 0)
	return out
}

// Translate moves r by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Bottom returns the y coordinate of the lower edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// NodeKind tags the primitive stored in a Node.
type NodeKind string

// Node kinds, listed in the order Compose emits them.
const (
	KindFill   NodeKind = "fill"
	KindImage  NodeKind = "image"
	KindFrame  NodeKind = "frame"
	KindText   NodeKind = "text"
	KindFooter NodeKind = "footer"
	KindGuide  NodeKind = "guide"
)

// Region names identify what a node belongs to.
const (
	RegionBackground = "background"
	RegionOverlay    = "overlay"
	RegionFrame      = "frame"
	RegionFooter     = "footer"
	RegionCanvas     = "canvas"
)

// Scene is the composited card, back to front.
type Scene struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	SafeArea Rect   `json:"safeArea"`
	Nodes    []Node `json:"nodes"`
}

// Node is one drawable primitive. Exactly one of the pointer fields,
// selected by Kind, is set.
type Node struct {
	Kind   NodeKind     `json:"kind"`
	Region string       `json:"region"`
	Rect   Rect         `json:"rect"`
	Fill   *Fill        `json:"fill,omitempty"`
	Image  *ImageFill   `json:"image,omitempty"`
	Frame  *Frame       `json:"frame,omitempty"`
	Text   *TextBlock   `json:"text,omitempty"`
	Footer *FooterBlock `json:"footer,omitempty"`
	Guide  *Guide       `json:"guide,omitempty"`
}

// Fill paints Rect with a uniform colour.
type Fill struct {
	Color color.NRGBA `json:"color"`
}

// ImageFill covers Rect with an image, cropped around its centre.
type ImageFill struct {
	Ref string `json:"ref"`
}

// Frame strokes the inside of Rect.
type Frame struct {
	Style  card.BorderStyle `json:"style"`
	Color  color.NRGBA      `json:"color"` // opacity already applied
	Width  float64          `json:"width"`
	Radius Radii            `json:"radius"`
}

// Radii are per-corner radii in card pixels.
type Radii struct {
	TL float64 `json:"tl"`
	TR float64 `json:"tr"`
	BR float64 `json:"br"`
	BL float64 `json:"bl"`
}

// TextBlock is one resolved text layer. Rect on the owning node equals Box.
type TextBlock struct {
	Role       card.Role      `json:"role"`
	Direction  card.Direction `json:"direction"`
	Align      card.Align     `json:"align"`
	Font       FontSpec       `json:"font"`
	Color      color.NRGBA    `json:"color"`
	LineHeight float64        `json:"lineHeight"` // px

	// Box is the outer box including chip padding, after the offset.
	Box Rect `json:"box"`
	// Natural is Box before the layer's own offset was applied.
	Natural Rect `json:"natural"`
	// Content is the inline text box inside the chip padding.
	Content Rect   `json:"content"`
	Lines   []Line `json:"lines"`

	Shadow *Shadow `json:"shadow,omitempty"`
	Chip   *Chip   `json:"chip,omitempty"`
}

// Line is one wrapped line. X and Y are the top-left of its line box.
type Line struct {
	Text    string  `json:"text"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Justify bool    `json:"justify,omitempty"` // stretch to the content width
}

// Shadow is a drop shadow behind a block's glyphs.
type Shadow struct {
	Color   color.NRGBA `json:"color"`
	OffsetX float64     `json:"offsetX"`
	OffsetY float64     `json:"offsetY"`
	Blur    float64     `json:"blur"`
}

// Chip is the rounded background drawn behind one block.
type Chip struct {
	Color  color.NRGBA `json:"color"` // opacity already applied
	Radius float64     `json:"radius"`
}

// FontSpec selects a face.
type FontSpec struct {
	Family string  `json:"family"`
	Size   float64 `json:"size"`
	Bold   bool    `json:"bold,omitempty"`
	Italic bool    `json:"italic,omitempty"`
}

// FooterBlock is the laid-out footer.
type FooterBlock struct {
	Font  FontSpec    `json:"font"`
	Color color.NRGBA `json:"color"`
	Rows  []FooterRow `json:"rows"`
}

// FooterRowKind tags a footer row.
type FooterRowKind string

// Footer row kinds, top to bottom.
const (
	RowDivider FooterRowKind = "divider"
	RowDates   FooterRowKind = "dates"
	RowSocials FooterRowKind = "socials"
)

// FooterRow is one horizontal band of the footer. A divider row has no
// items; its Rect is the line itself.
type FooterRow struct {
	Kind      FooterRowKind  `json:"kind"`
	Rect      Rect           `json:"rect"`
	Direction card.Direction `json:"direction"`
	Items     []FooterItem   `json:"items,omitempty"`
}

// FooterItem is an icon followed by a label.
type FooterItem struct {
	Icon     string `json:"icon"`
	Text     string `json:"text"`
	IconRect Rect   `json:"iconRect"`
	TextRect Rect   `json:"textRect"`
}

// Guide is an advisory outline with a label.
type Guide struct {
	Label string      `json:"label"`
	Color color.NRGBA `json:"color"`
}

// Find returns the nodes tagged with region, in z-order.
func (s Scene) Find(region string) []Node {
	var out []Node
	for _, n := range s.Nodes {
		if n.Region == region {
			out = append(out, n)
		}
	}
	return out
}

// TextBlocks returns the text blocks in stacking order.
func (s Scene) TextBlocks() []TextBlock {
	var out []TextBlock
	for _, n := range s.Nodes {
		if n.Kind == KindText && n.Text != nil {
			out = append(out, *n.Text)
		}
	}
	return out
}

// Block returns the text block for role, if it was rendered.
func (s Scene) Block(r card.Role) (TextBlock, bool) {
	for _, b := range s.TextBlocks() {
		if b.Role == r {
			return b, true
		}
	}
	return TextBlock{}, false
}

// WithoutGuides returns a copy of s with guide nodes removed.
func (s Scene) WithoutGuides() Scene {
	nodes := make([]Node, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		if n.Kind != KindGuide {
			nodes = append(nodes, n)
		}
	}
	s.Nodes = nodes
	return s
}
