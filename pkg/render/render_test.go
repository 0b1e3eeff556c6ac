package render_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/xob0t/ayatcard/pkg/calendar"
	"github.com/xob0t/ayatcard/pkg/card"
	"github.com/xob0t/ayatcard/pkg/layout"
	"github.com/xob0t/ayatcard/pkg/render"
)

func TestBaseDirection(t *testing.T) {
	assert.Equal(t, card.DirRTL, render.BaseDirection("١٢ آية"))
	assert.Equal(t, card.DirLTR, render.BaseDirection("12 AyatCard آية"))
	assert.Equal(t, card.DirLTR, render.BaseDirection("@ 12"))
}

func TestIsArabic(t *testing.T) {
	assert.True(t, render.IsArabic("@آية"))
	assert.False(t, render.IsArabic("@AyatCard"))
}

func TestFontLibrary_Fallback(t *testing.T) {
	fl := render.NewFontLibrary("", nil)
	require.NotNil(t, fl.Font(card.FontAmiri, false, false))
	require.NotNil(t, fl.Font("", true, true))

	spec := layout.FontSpec{Family: card.FontAmiri, Size: 20}
	assert.Greater(t, fl.Measure(spec, "AyatCard"), 0.0)
	assert.Zero(t, fl.Measure(layout.FontSpec{Size: 0}, "AyatCard"))
}

func TestFontLibrary_Families(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Amiri-Regular.ttf"), goregular.TTF, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("x"), 0o644))

	fl := render.NewFontLibrary(dir, nil)
	got := fl.Families([]string{card.FontAmiri, card.FontCairo})
	assert.Equal(t, map[string]bool{card.FontAmiri: true, card.FontCairo: false}, got)
}

func TestIcons(t *testing.T) {
	icons := render.NewIconSet()
	names := []string{layout.IconCalendar}
	for _, k := range card.SocialOrder {
		names = append(names, string(k))
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			require.True(t, render.HasIcon(name))
			img, err := icons.Render(name, 24, color.NRGBA{R: 255, A: 255})
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 24, 24), img.Bounds())
			assert.True(t, hasInk(img), "icon %s drew nothing", name)
		})
	}

	_, err := icons.Render("nope", 24, color.NRGBA{A: 255})
	assert.Error(t, err)
}

func hasInk(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a > 0 {
				return true
			}
		}
	}
	return false
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFiles_DataURL(t *testing.T) {
	ref := render.DataURL("image/png", pngBytes(t, 4, 2, color.White))
	img, err := render.Files{}.Image(ref)
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())

	_, err = render.Files{}.Image("data:image/png;base64,!!!")
	assert.Error(t, err)
	_, err = render.Files{}.Image("https://example.com/bg.png")
	assert.ErrorIs(t, err, render.ErrUnknownImage)
}

func TestDataURLs_RejectsPaths(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.png")
	require.NoError(t, os.WriteFile(path, pngBytes(t, 2, 2, color.NRGBA{A: 255}), 0o644))

	_, err := render.DataURLs{}.Image(path)
	assert.ErrorIs(t, err, render.ErrUnknownImage)

	img, err := render.DataURLs{}.Image(render.DataURL("image/png", pngBytes(t, 2, 2, color.NRGBA{A: 255})))
	require.NoError(t, err)
	assert.Equal(t, 2, img.Bounds().Dx())
}

func TestChain(t *testing.T) {
	want := image.NewRGBA(image.Rect(0, 0, 1, 1))
	chain := render.Chain{
		render.ImageSourceFunc(func(string) (image.Image, error) { return nil, render.ErrUnknownImage }),
		render.ImageSourceFunc(func(string) (image.Image, error) { return want, nil }),
	}
	got, err := chain.Image("x")
	require.NoError(t, err)
	assert.Same(t, want, got)
}

func composeDefault(c card.Card) layout.Scene {
	return layout.Compose(c, layout.Options{
		Now:      time.Date(2026, time.October, 17, 0, 0, 0, 0, time.UTC),
		Calendar: calendar.Static{HijriText: "١٤٤٨ هـ", GregorianText: "٢٠٢٦"},
	})
}

func TestFontLibrary_MeasureShapedAdvance(t *testing.T) {
	fl := render.NewFontLibrary("", nil)
	spec := layout.FontSpec{Size: 20}

	one := fl.Measure(spec, "Ayat")
	two := fl.Measure(spec, "AyatAyat")
	assert.Greater(t, one, 0.0)
	assert.InDelta(t, 2*one, two, 1)
	assert.Greater(t, fl.Measure(layout.FontSpec{Size: 40}, "Ayat"), one)
	assert.Zero(t, fl.Measure(spec, ""))
}

func TestCapture_DrawsGlyphs(t *testing.T) {
	c := card.Default()
	c.Background.Color = "#000000"
	c.Background.OverlayOpacity = 0
	c.Border.Enabled = false
	c.Footer.Enabled = false
	c = c.WithContent(card.RoleAyah, "AyatCard AyatCard")
	c = c.UpdateLayer(card.RoleAyah, func(l card.TextLayer) card.TextLayer {
		l.Color = "#ffffff"
		l.Direction = card.DirLTR
		l.Shadow = false
		l.BgEnabled = false
		return l
	})
	for _, r := range []card.Role{card.RoleTafseer, card.RolePrimarySubtitle, card.RoleSecondarySubtitle} {
		c = c.WithContent(r, "")
	}

	scene := composeDefault(c)
	block, ok := scene.Block(card.RoleAyah)
	require.True(t, ok)

	r := render.NewRasterizer(nil, nil, nil)
	img, err := r.Capture(scene, 1)
	require.NoError(t, err)

	lit := 0
	box := image.Rect(int(block.Box.X), int(block.Box.Y), int(block.Box.X+block.Box.W), int(block.Box.Y+block.Box.H))
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			if red, _, _, _ := img.At(x, y).RGBA(); red>>8 > 128 {
				lit++
			}
		}
	}
	assert.Greater(t, lit, 50, "glyph outlines should be filled inside the ayah box")
}

func TestCapture_Size(t *testing.T) {
	r := render.NewRasterizer(nil, nil, nil)
	img, err := r.Capture(composeDefault(card.Default()), 2)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1440, 1640), img.Bounds())
}

func TestCapture_BackgroundAndOverlay(t *testing.T) {
	c := card.Default()
	c.Background.Color = "#ffffff"
	c.Background.OverlayColor = "#000000"
	c.Background.OverlayOpacity = 0.5

	r := render.NewRasterizer(nil, nil, nil)
	img, err := r.Capture(composeDefault(c), 1)
	require.NoError(t, err)

	cr, cg, cb, _ := img.At(2, 2).RGBA()
	assert.InDelta(t, 127, cr>>8, 2)
	assert.InDelta(t, 127, cg>>8, 2)
	assert.InDelta(t, 127, cb>>8, 2)
}

func TestCapture_BackgroundImageCovers(t *testing.T) {
	c := card.Default().WithBackgroundImage(render.DataURL("image/png", pngBytes(t, 10, 40, color.NRGBA{R: 255, A: 255})))
	c.Background.OverlayOpacity = 0

	r := render.NewRasterizer(nil, nil, nil)
	img, err := r.Capture(composeDefault(c), 1)
	require.NoError(t, err)

	cr, cg, _, _ := img.At(2, 2).RGBA()
	assert.InDelta(t, 255, cr>>8, 2)
	assert.InDelta(t, 0, cg>>8, 2)
}

func TestCapture_MissingImageFallsBackToFill(t *testing.T) {
	c := card.Default().WithBackgroundImage(filepath.Join(t.TempDir(), "gone.png"))
	r := render.NewRasterizer(nil, nil, nil)
	_, err := r.Capture(composeDefault(c), 1)
	assert.NoError(t, err)
}

func TestCapture_AllFrameStyles(t *testing.T) {
	r := render.NewRasterizer(nil, nil, nil)
	for _, style := range card.BorderStyles {
		t.Run(string(style), func(t *testing.T) {
			c := card.Default()
			c.Border.Style = style
			c.Border.Width = 6
			c.Border.Radius = card.Corners{TL: 0, TR: 12, BR: 400, BL: 3}
			_, err := r.Capture(composeDefault(c), 1)
			assert.NoError(t, err)
		})
	}
}

func TestCapture_Errors(t *testing.T) {
	r := render.NewRasterizer(nil, nil, nil)

	_, err := r.Capture(composeDefault(card.Default()), 0)
	assert.ErrorIs(t, err, render.ErrCapture)

	_, err = r.Capture(composeDefault(card.Default().WithSize(0, 100)), 1)
	assert.ErrorIs(t, err, render.ErrCapture)

	_, err = r.Capture(composeDefault(card.Default().WithSize(100000, 100000)), 1)
	assert.ErrorIs(t, err, render.ErrCapture)
}

func TestCapture_Guides(t *testing.T) {
	opts := layout.Options{ShowGuides: true, Labels: layout.ArabicLabels, Calendar: calendar.Static{}}
	s := layout.Compose(card.Default(), opts)

	r := render.NewRasterizer(nil, nil, nil)
	_, err := r.Capture(s, 1)
	assert.NoError(t, err)
}
