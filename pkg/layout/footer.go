// footer.go — Footer rows: divider, dates and social entries.
package layout

import (
	"github.com/xob0t/ayatcard/pkg/card"
)

// Footer spacing in card pixels.
const (
	footerRowGap    = 6
	footerItemGap   = 16
	footerIconGap   = 6
	dividerMargin   = 8
	dividerFraction = 1.0 / 3
	footerLineMult  = 1.5
)

// IconCalendar is the icon name of the dates row.
const IconCalendar = "calendar"

// composeFooter lays the footer out bottom-anchored at canvas bottom minus
// its offset, across the full canvas width. It returns the block and its
// bounding rectangle.
func composeFooter(f card.Footer, canvas Rect, opts Options) (FooterBlock, Rect) {
	font := FontSpec{Family: f.FontFamily, Size: max(f.FontSize, 0)}
	fb := FooterBlock{Font: font, Color: card.ColorOr(f.Color, white)}
	lineH := font.Size * footerLineMult
	m := opts.Measurer

	type pending struct {
		kind  FooterRowKind
		dir   card.Direction
		items []FooterItem
		lines [][]FooterItem
	}
	var rows []pending

	if f.Divider {
		rows = append(rows, pending{kind: RowDivider})
	}

	if f.ShowHijri || f.ShowGregorian {
		var text string
		switch {
		case f.ShowHijri && f.ShowGregorian:
			text = opts.Calendar.Hijri(opts.Now) + " | " + opts.Calendar.Gregorian(opts.Now)
		case f.ShowHijri:
			text = opts.Calendar.Hijri(opts.Now)
		default:
			text = opts.Calendar.Gregorian(opts.Now)
		}
		rows = append(rows, pending{
			kind:  RowDates,
			dir:   card.DirRTL,
			items: []FooterItem{{Icon: IconCalendar, Text: text}},
		})
	}

	if entries := f.Socials.Entries(); len(entries) > 0 {
		items := make([]FooterItem, len(entries))
		for i, e := range entries {
			items[i] = FooterItem{Icon: string(e.Key), Text: e.Text}
		}
		rows = append(rows, pending{kind: RowSocials, dir: card.DirLTR, items: items})
	}

	// Measure and break each item row into lines that fit the canvas.
	itemWidth := func(it FooterItem) float64 {
		return font.Size + footerIconGap + m.Measure(font, it.Text)
	}
	height := 0.0
	for i := range rows {
		r := &rows[i]
		if i > 0 {
			height += footerRowGap
		}
		if r.kind == RowDivider {
			height += 1 + 2*dividerMargin
			continue
		}
		var line []FooterItem
		lineW := 0.0
		for _, it := range r.items {
			w := itemWidth(it)
			if len(line) > 0 && lineW+footerItemGap+w > canvas.W {
				r.lines = append(r.lines, line)
				line, lineW = nil, 0
			}
			if len(line) > 0 {
				lineW += footerItemGap
			}
			lineW += w
			line = append(line, it)
		}
		r.lines = append(r.lines, line)
		height += float64(len(r.lines)) * lineH
	}

	bottom := canvas.H - f.OffsetY
	top := bottom - height
	bounds := Rect{X: canvas.X, Y: top, W: canvas.W, H: height}

	y := top
	for i, r := range rows {
		if i > 0 {
			y += footerRowGap
		}
		if r.kind == RowDivider {
			w := canvas.W * dividerFraction
			fb.Rows = append(fb.Rows, FooterRow{
				Kind: RowDivider,
				Rect: Rect{X: canvas.X + (canvas.W-w)/2, Y: y + dividerMargin, W: w, H: 1},
			})
			y += 1 + 2*dividerMargin
			continue
		}
		for _, line := range r.lines {
			total := 0.0
			for j, it := range line {
				if j > 0 {
					total += footerItemGap
				}
				total += itemWidth(it)
			}
			row := FooterRow{
				Kind:      r.kind,
				Rect:      Rect{X: canvas.X, Y: y, W: canvas.W, H: lineH},
				Direction: r.dir,
			}
			x := canvas.X + (canvas.W-total)/2
			if r.dir == card.DirRTL {
				// Right to left: the icon sits at the right edge of each item.
				x = canvas.X + (canvas.W+total)/2
				for _, it := range line {
					tw := m.Measure(font, it.Text)
					it.IconRect = Rect{X: x - font.Size, Y: y + (lineH-font.Size)/2, W: font.Size, H: font.Size}
					it.TextRect = Rect{X: x - font.Size - footerIconGap - tw, Y: y, W: tw, H: lineH}
					row.Items = append(row.Items, it)
					x -= itemWidth(it) + footerItemGap
				}
			} else {
				for _, it := range line {
					tw := m.Measure(font, it.Text)
					it.IconRect = Rect{X: x, Y: y + (lineH-font.Size)/2, W: font.Size, H: font.Size}
					it.TextRect = Rect{X: x + font.Size + footerIconGap, Y: y, W: tw, H: lineH}
					row.Items = append(row.Items, it)
					x += itemWidth(it) + footerItemGap
				}
			}
			fb.Rows = append(fb.Rows, row)
			y += lineH
		}
	}
	return fb, bounds
}

// Socials returns the social items of a footer block in render order.
func (fb FooterBlock) Socials() []FooterItem {
	var out []FooterItem
	for _, r := range fb.Rows {
		if r.Kind == RowSocials {
			out = append(out, r.Items...)
		}
	}
	return out
}
