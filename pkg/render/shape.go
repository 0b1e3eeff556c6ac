// shape.go — OpenType text shaping with go-text/typesetting.
// Lines are split into bidi/script runs, shaped with the HarfBuzz port
// (contextual forms, ligatures, GPOS mark placement) and laid out in visual
// order. Glyph outlines are then filled on a gg context.
package render

import (
	"math"
	"slices"
	"unicode"

	"github.com/fogleman/gg"
	"github.com/go-text/typesetting/di"
	gotext "github.com/go-text/typesetting/font"
	ot "github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/bidi"

	"github.com/xob0t/ayatcard/pkg/card"
)

// IsArabic reports whether s contains any Arabic script.
func IsArabic(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Arabic, r) {
			return true
		}
	}
	return false
}

// BaseDirection returns the direction of the first strong character of s,
// LTR when there is none.
func BaseDirection(s string) card.Direction {
	for _, r := range s {
		props, _ := bidi.LookupRune(r)
		switch props.Class() {
		case bidi.L:
			return card.DirLTR
		case bidi.R, bidi.AL:
			return card.DirRTL
		}
	}
	return card.DirLTR
}

// glyphRun is one shaped run placed at X px from the start of its line.
type glyphRun struct {
	Start, End int // rune range in the line
	X          float64
	Size       float64
	Output     shaping.Output
	face       *gotext.Face
}

// singleFace resolves every rune to one face; missing glyphs draw as .notdef.
type singleFace struct{ face *gotext.Face }

func (f singleFace) ResolveFace(rune) *gotext.Face { return f.face }

// textShaper shapes lines. It is not safe for concurrent use.
type textShaper struct {
	hb  shaping.HarfbuzzShaper
	seg shaping.Segmenter
}

var (
	langArabic  = language.NewLanguage("ar")
	langDefault = language.NewLanguage("en")
)

// line shapes text in paragraph direction dir at size px and returns its
// runs in visual order with the total advance.
func (sh *textShaper) line(face *gotext.Face, size float64, text string, dir card.Direction) ([]glyphRun, float64) {
	rs := []rune(text)
	if len(rs) == 0 || face == nil || size <= 0 {
		return nil, 0
	}
	base := di.DirectionLTR
	if dir != card.DirLTR {
		base = di.DirectionRTL
	}
	inputs := sh.seg.Split(shaping.Input{
		Text:      rs,
		RunStart:  0,
		RunEnd:    len(rs),
		Direction: base,
		Face:      face,
		Size:      fixed.Int26_6(math.Round(size * 64)),
		Language:  langDefault,
	}, singleFace{face})

	outs := make([]shaping.Output, len(inputs))
	for i, in := range inputs {
		if in.Script == language.Arabic {
			in.Language = langArabic
		}
		outs[i] = sh.hb.Shape(in)
	}

	runs := make([]glyphRun, 0, len(inputs))
	x := 0.0
	for _, i := range visualOrder(inputs, base) {
		runs = append(runs, glyphRun{
			Start:  inputs[i].RunStart,
			End:    inputs[i].RunEnd,
			X:      x,
			Size:   size,
			Output: outs[i],
			face:   inputs[i].Face,
		})
		x += math.Abs(fromFixed(outs[i].Advance))
	}
	return runs, x
}

// visualOrder reorders logical runs for display. Runs against the
// paragraph direction sit one embedding level deeper, so reversing the
// whole line for RTL and then every maximal span at the deeper level
// yields the visual order.
func visualOrder(runs []shaping.Input, base di.Direction) []int {
	order := make([]int, len(runs))
	for i := range order {
		order[i] = i
	}
	rtl := func(i int) bool { return runs[i].Direction == di.DirectionRTL }
	if base == di.DirectionRTL {
		slices.Reverse(order)
		reverseSpans(order, func(i int) bool { return !rtl(i) })
	} else {
		reverseSpans(order, rtl)
	}
	return order
}

func reverseSpans(order []int, in func(int) bool) {
	for i := 0; i < len(order); {
		if !in(order[i]) {
			i++
			continue
		}
		j := i
		for j < len(order) && in(order[j]) {
			j++
		}
		slices.Reverse(order[i:j])
		i = j
	}
}

// drawRuns fills the glyph outlines of runs with the current colour of dc,
// starting the pen at (x, baseline).
func drawRuns(dc *gg.Context, runs []glyphRun, x, baseline float64) {
	for _, r := range runs {
		upem := float64(r.face.Upem())
		if upem == 0 {
			continue
		}
		scale := r.Size / upem
		pen := x + r.X
		for _, g := range r.Output.Glyphs {
			if outline, ok := r.face.GlyphData(g.GlyphID).(gotext.GlyphOutline); ok {
				tracePath(dc, outline, pen+fromFixed(g.XOffset), baseline-fromFixed(g.YOffset), scale)
			}
			pen += fromFixed(g.XAdvance)
		}
	}
	dc.Fill()
}

// tracePath appends a glyph outline in font units (y up) to the current path.
func tracePath(dc *gg.Context, o gotext.GlyphOutline, x, y, scale float64) {
	pt := func(p ot.SegmentPoint) (float64, float64) {
		return x + float64(p.X)*scale, y - float64(p.Y)*scale
	}
	for _, seg := range o.Segments {
		switch seg.Op {
		case ot.SegmentOpMoveTo:
			dc.ClosePath()
			dc.MoveTo(pt(seg.Args[0]))
		case ot.SegmentOpLineTo:
			dc.LineTo(pt(seg.Args[0]))
		case ot.SegmentOpQuadTo:
			x1, y1 := pt(seg.Args[0])
			x2, y2 := pt(seg.Args[1])
			dc.QuadraticTo(x1, y1, x2, y2)
		case ot.SegmentOpCubeTo:
			x1, y1 := pt(seg.Args[0])
			x2, y2 := pt(seg.Args[1])
			x3, y3 := pt(seg.Args[2])
			dc.CubicTo(x1, y1, x2, y2, x3, y3)
		}
	}
	dc.ClosePath()
}

func fromFixed(v fixed.Int26_6) float64 { return float64(v) / 64 }
