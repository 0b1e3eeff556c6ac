// frame.go — Frame strokes: per-corner rounded paths and the eight styles.
package render

import (
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/xob0t/ayatcard/pkg/card"
	"github.com/xob0t/ayatcard/pkg/layout"
)

// roundedRect adds a closed path with an independent radius per corner.
func roundedRect(dc *gg.Context, x, y, w, h float64, r layout.Radii) {
	limit := math.Min(w, h) / 2
	tl, tr := clampRadius(r.TL, limit), clampRadius(r.TR, limit)
	br, bl := clampRadius(r.BR, limit), clampRadius(r.BL, limit)

	dc.NewSubPath()
	dc.MoveTo(x+tl, y)
	dc.LineTo(x+w-tr, y)
	if tr > 0 {
		dc.DrawArc(x+w-tr, y+tr, tr, -math.Pi/2, 0)
	}
	dc.LineTo(x+w, y+h-br)
	if br > 0 {
		dc.DrawArc(x+w-br, y+h-br, br, 0, math.Pi/2)
	}
	dc.LineTo(x+bl, y+h)
	if bl > 0 {
		dc.DrawArc(x+bl, y+h-bl, bl, math.Pi/2, math.Pi)
	}
	dc.LineTo(x, y+tl)
	if tl > 0 {
		dc.DrawArc(x+tl, y+tl, tl, math.Pi, 3*math.Pi/2)
	}
	dc.ClosePath()
}

func clampRadius(r, limit float64) float64 {
	return math.Max(0, math.Min(r, limit))
}

// strokeBand strokes a band of width bw whose outer edge is inset by in
// from rect.
func strokeBand(dc *gg.Context, rect layout.Rect, radii layout.Radii, in, bw float64, c color.Color) {
	mid := in + bw/2
	r := layout.Radii{TL: radii.TL - mid, TR: radii.TR - mid, BR: radii.BR - mid, BL: radii.BL - mid}
	roundedRect(dc, rect.X+mid, rect.Y+mid, rect.W-2*mid, rect.H-2*mid, r)
	dc.SetColor(c)
	dc.SetLineWidth(bw)
	dc.Stroke()
}

// drawFrame strokes f inside rect. rect and f are already in device pixels.
func drawFrame(dc *gg.Context, rect layout.Rect, f layout.Frame) {
	w := f.Width
	if w <= 0 || rect.W <= 0 || rect.H <= 0 {
		return
	}
	dc.Push()
	defer dc.Pop()

	dark := shade(f.Color, colorful.Color{}, 0.4)
	light := shade(f.Color, colorful.Color{R: 1, G: 1, B: 1}, 0.4)

	switch f.Style {
	case card.BorderDashed:
		dc.SetDash(3*w, 3*w)
		strokeBand(dc, rect, f.Radius, 0, w, f.Color)
	case card.BorderDotted:
		dc.SetLineCapRound()
		dc.SetDash(0.001, 2*w)
		strokeBand(dc, rect, f.Radius, 0, w, f.Color)
	case card.BorderDouble:
		if w < 3 {
			strokeBand(dc, rect, f.Radius, 0, w, f.Color)
			return
		}
		strokeBand(dc, rect, f.Radius, 0, w/3, f.Color)
		strokeBand(dc, rect, f.Radius, 2*w/3, w/3, f.Color)
	case card.BorderGroove, card.BorderRidge:
		outer, inner := dark, light
		if f.Style == card.BorderRidge {
			outer, inner = light, dark
		}
		strokeBand(dc, rect, f.Radius, 0, w/2, outer)
		strokeBand(dc, rect, f.Radius, w/2, w/2, inner)
	case card.BorderInset, card.BorderOutset:
		topLeft, bottomRight := dark, light
		if f.Style == card.BorderOutset {
			topLeft, bottomRight = light, dark
		}
		strokeBand(dc, rect, f.Radius, 0, w, bottomRight)
		// Repaint the half above the top-right to bottom-left diagonal.
		dc.MoveTo(rect.X, rect.Y)
		dc.LineTo(rect.X+rect.W, rect.Y)
		dc.LineTo(rect.X, rect.Y+rect.H)
		dc.ClosePath()
		dc.Clip()
		strokeBand(dc, rect, f.Radius, 0, w, topLeft)
		dc.ResetClip()
	default:
		strokeBand(dc, rect, f.Radius, 0, w, f.Color)
	}
}

// shade blends c toward target in Lab space and keeps c's alpha.
func shade(c color.NRGBA, target colorful.Color, t float64) color.NRGBA {
	base := colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
	r, g, b := base.BlendLab(target, t).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: c.A}
}
