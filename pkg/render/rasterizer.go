// rasterizer.go — Draw a composed scene to pixels with gg.
// Handles the layered scene in z-order: fills and background image, frame,
// text blocks with chips and shadows, footer rows and guides.
// Coordinates arrive in card pixels and are multiplied by the capture scale.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	gotext "github.com/go-text/typesetting/font"
	"golang.org/x/image/font"

	"github.com/xob0t/ayatcard/pkg/card"
	"github.com/xob0t/ayatcard/pkg/layout"
)

// ErrCapture is wrapped by every error Capture returns.
var ErrCapture = errors.New("capture failed")

// MaxPixels bounds the size of one capture.
const MaxPixels = 64 << 20

// Rasterizer draws scenes. It is safe for concurrent use.
type Rasterizer struct {
	fonts  *FontLibrary
	images ImageSource
	icons  *IconSet
	logger *slog.Logger
}

// NewRasterizer creates a rasterizer. A nil images source resolves files
// and data URLs only.
func NewRasterizer(fonts *FontLibrary, images ImageSource, logger *slog.Logger) *Rasterizer {
	if logger == nil {
		logger = slog.Default()
	}
	if fonts == nil {
		fonts = NewFontLibrary("", logger)
	}
	if images == nil {
		images = Files{}
	}
	return &Rasterizer{fonts: fonts, images: images, icons: NewIconSet(), logger: logger}
}

// Fonts returns the font library, which doubles as the layout measurer.
func (r *Rasterizer) Fonts() *FontLibrary { return r.fonts }

// Capture draws s at scale× its logical size. Guides in s are drawn; strip
// them with Scene.WithoutGuides before capturing an export.
func (r *Rasterizer) Capture(s layout.Scene, scale float64) (img image.Image, err error) {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return nil, fmt.Errorf("%w: invalid scale %v", ErrCapture, scale)
	}
	w := int(math.Round(float64(s.Width) * scale))
	h := int(math.Round(float64(s.Height) * scale))
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: empty canvas %dx%d", ErrCapture, s.Width, s.Height)
	}
	if w*h > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds the pixel limit", ErrCapture, w, h)
	}

	defer func() {
		if p := recover(); p != nil {
			img, err = nil, fmt.Errorf("%w: %v", ErrCapture, p)
		}
	}()

	c := &capture{
		Rasterizer: r,
		dc:         gg.NewContext(w, h),
		scale:      scale,
		faces:      make(map[faceKey]font.Face),
		glyphs:     make(map[styleKey]*gotext.Face),
	}
	defer c.close()

	for _, n := range s.Nodes {
		switch n.Kind {
		case layout.KindFill:
			c.fill(n.Rect, n.Fill.Color)
		case layout.KindImage:
			c.image(n.Rect, n.Image.Ref)
		case layout.KindFrame:
			drawFrame(c.dc, c.rect(n.Rect), c.frame(*n.Frame))
		case layout.KindText:
			c.text(*n.Text)
		case layout.KindFooter:
			c.footer(*n.Footer)
		case layout.KindGuide:
			c.guide(n.Rect, *n.Guide)
		}
	}
	return c.dc.Image(), nil
}

// capture is the per-call drawing state.
type capture struct {
	*Rasterizer
	dc     *gg.Context
	scale  float64
	faces  map[faceKey]font.Face
	glyphs map[styleKey]*gotext.Face
	shaper textShaper
}

func (c *capture) close() {
	for _, f := range c.faces {
		f.Close()
	}
}

func (c *capture) rect(r layout.Rect) layout.Rect {
	s := c.scale
	return layout.Rect{X: r.X * s, Y: r.Y * s, W: r.W * s, H: r.H * s}
}

func (c *capture) frame(f layout.Frame) layout.Frame {
	s := c.scale
	f.Width *= s
	f.Radius = layout.Radii{TL: f.Radius.TL * s, TR: f.Radius.TR * s, BR: f.Radius.BR * s, BL: f.Radius.BL * s}
	return f
}

// face returns the metrics face for spec at the capture scale.
func (c *capture) face(spec layout.FontSpec) font.Face {
	key := faceKey{styleKey{family: spec.Family, bold: spec.Bold, italic: spec.Italic}, spec.Size}
	if f, ok := c.faces[key]; ok {
		return f
	}
	f, err := c.fonts.NewFace(spec, c.scale)
	if err != nil {
		c.logger.Warn("font face unavailable, using fallback", "family", spec.Family, "err", err)
		f, err = c.fonts.NewFace(layout.FontSpec{Size: spec.Size}, c.scale)
		if err != nil {
			panic(err)
		}
	}
	c.faces[key] = f
	return f
}

// glyphFace returns the shaping face for spec.
func (c *capture) glyphFace(spec layout.FontSpec) *gotext.Face {
	key := styleKey{family: spec.Family, bold: spec.Bold, italic: spec.Italic}
	if f, ok := c.glyphs[key]; ok {
		return f
	}
	f := c.fonts.glyphFace(spec.Family, spec.Bold, spec.Italic)
	c.glyphs[key] = f
	return f
}

// shape shapes text at spec's size times the capture scale.
func (c *capture) shape(spec layout.FontSpec, text string, dir card.Direction) ([]glyphRun, float64) {
	return c.shaper.line(c.glyphFace(spec), spec.Size*c.scale, text, dir)
}

func (c *capture) fill(r layout.Rect, col color.NRGBA) {
	if col.A == 0 {
		return
	}
	d := c.rect(r)
	c.dc.SetColor(col)
	c.dc.DrawRectangle(d.X, d.Y, d.W, d.H)
	c.dc.Fill()
}

// image covers r with the referenced image, cropped around its centre.
// An unresolvable image leaves the background fill visible.
func (c *capture) image(r layout.Rect, ref string) {
	src, err := c.images.Image(ref)
	if err != nil {
		c.logger.Warn("background image unavailable", "ref", truncateRef(ref), "err", err)
		return
	}
	d := c.rect(r)
	w, h := int(math.Round(d.W)), int(math.Round(d.H))
	if w <= 0 || h <= 0 {
		return
	}
	cover := imaging.Fill(src, w, h, imaging.Center, imaging.Lanczos)
	c.dc.DrawImage(cover, int(math.Round(d.X)), int(math.Round(d.Y)))
}

func (c *capture) text(b layout.TextBlock) {
	if b.Chip != nil && b.Chip.Color.A > 0 {
		d := c.rect(b.Box)
		c.dc.SetColor(b.Chip.Color)
		c.dc.DrawRoundedRectangle(d.X, d.Y, d.W, d.H, math.Min(b.Chip.Radius*c.scale, math.Min(d.W, d.H)/2))
		c.dc.Fill()
	}
	if len(b.Lines) == 0 {
		return
	}
	face := c.face(b.Font)

	if b.Shadow != nil && b.Shadow.Color.A > 0 {
		c.shadow(b, face)
	}
	c.dc.SetColor(b.Color)
	c.lines(c.dc, b, face, 0, 0)
}

// lines draws every line of b onto dc, shifted by (dx, dy) device pixels.
// Justified lines are shaped word by word and spread across the content box.
func (c *capture) lines(dc *gg.Context, b layout.TextBlock, face font.Face, dx, dy float64) {
	s := c.scale
	for _, ln := range b.Lines {
		if ln.Text == "" {
			continue
		}
		baseline := baselineIn(face, ln.Y*s+dy, b.LineHeight*s)

		words := strings.Fields(ln.Text)
		if !ln.Justify || len(words) < 2 {
			runs, _ := c.shape(b.Font, ln.Text, b.Direction)
			drawRuns(dc, runs, ln.X*s+dx, baseline)
			continue
		}
		if b.Direction != card.DirLTR {
			slices.Reverse(words)
		}
		shaped := make([][]glyphRun, len(words))
		widths := make([]float64, len(words))
		total := 0.0
		for i, w := range words {
			shaped[i], widths[i] = c.shape(b.Font, w, b.Direction)
			total += widths[i]
		}
		gap := (b.Content.W*s - total) / float64(len(words)-1)
		x := b.Content.X*s + dx
		for i := range words {
			drawRuns(dc, shaped[i], x, baseline)
			x += widths[i] + gap
		}
	}
}

// shadow draws the block's glyphs on a scratch layer, blurs it and
// composites it under the text.
func (c *capture) shadow(b layout.TextBlock, face font.Face) {
	s := c.scale
	sh := b.Shadow
	margin := math.Ceil(sh.Blur*s*2) + 1
	box := c.rect(b.Box)
	w := int(math.Ceil(box.W + 2*margin))
	h := int(math.Ceil(box.H + 2*margin))
	if w <= 0 || h <= 0 {
		return
	}

	layer := gg.NewContext(w, h)
	layer.SetColor(sh.Color)
	c.lines(layer, b, face, margin-box.X, margin-box.Y)

	blurred := imaging.Blur(layer.Image(), sh.Blur*s/2)
	c.dc.DrawImage(blurred,
		int(math.Round(box.X-margin+sh.OffsetX*s)),
		int(math.Round(box.Y-margin+sh.OffsetY*s)))
}

func (c *capture) footer(fb layout.FooterBlock) {
	if fb.Font.Size <= 0 {
		return
	}
	face := c.face(fb.Font)

	for _, row := range fb.Rows {
		if row.Kind == layout.RowDivider {
			d := c.rect(row.Rect)
			c.dc.SetColor(card.WithOpacity(fb.Color, 0.5))
			c.dc.DrawRectangle(d.X, d.Y, d.W, math.Max(d.H, 1))
			c.dc.Fill()
			continue
		}
		for _, it := range row.Items {
			ir := c.rect(it.IconRect)
			if size := int(math.Round(ir.W)); size > 0 {
				icon, err := c.icons.Render(it.Icon, size, fb.Color)
				if err != nil {
					c.logger.Debug("footer icon skipped", "icon", it.Icon, "err", err)
				} else {
					c.dc.DrawImage(icon, int(math.Round(ir.X)), int(math.Round(ir.Y)))
				}
			}

			tr := c.rect(it.TextRect)
			runs, _ := c.shape(fb.Font, it.Text, BaseDirection(it.Text))
			c.dc.SetColor(fb.Color)
			drawRuns(c.dc, runs, tr.X, baselineIn(face, tr.Y, tr.H))
		}
	}
}

// guide outlines r with a dashed line and a small label in its corner.
func (c *capture) guide(r layout.Rect, g layout.Guide) {
	d := c.rect(r)
	s := c.scale
	dc := c.dc

	dc.Push()
	dc.SetColor(g.Color)
	dc.SetLineWidth(1 * s)
	dc.SetDash(4*s, 4*s)
	dc.DrawRectangle(d.X+0.5*s, d.Y+0.5*s, d.W-s, d.H-s)
	dc.Stroke()
	dc.Pop()

	if g.Label == "" {
		return
	}
	spec := layout.FontSpec{Size: 11}
	if IsArabic(g.Label) {
		spec.Family = card.FontTajawal
	}
	face := c.face(spec)
	runs, tw := c.shape(spec, g.Label, BaseDirection(g.Label))
	pad := 3 * s
	lh := 11 * s * 1.4
	dc.SetColor(g.Color)
	dc.DrawRectangle(d.X, d.Y, tw+2*pad, lh+2*pad)
	dc.Fill()
	dc.SetColor(color.White)
	drawRuns(dc, runs, d.X+pad, baselineIn(face, d.Y+pad, lh))
}

// baselineIn centres face's ascent+descent in a line box and returns the
// baseline y.
func baselineIn(face font.Face, top, height float64) float64 {
	m := face.Metrics()
	asc := float64(m.Ascent) / 64
	desc := float64(m.Descent) / 64
	return top + (height-asc-desc)/2 + asc
}

func truncateRef(ref string) string {
	if len(ref) > 64 {
		return ref[:64] + "…"
	}
	return ref
}
