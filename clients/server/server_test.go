package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xob0t/ayatcard/pkg/card"
	"github.com/xob0t/ayatcard/pkg/config"
	"github.com/xob0t/ayatcard/pkg/content"
	"github.com/xob0t/ayatcard/pkg/genai"
	"github.com/xob0t/ayatcard/pkg/layout"
	"github.com/xob0t/ayatcard/pkg/render"
)

// ── Fakes ──

type library struct{}

func (library) Chapters(context.Context) ([]content.Chapter, error) {
	return []content.Chapter{{ID: 1, NameSimple: "Al-Fatihah", NameArabic: "الفاتحة", VersesCount: 7}}, nil
}

func (library) Verses(_ context.Context, chapter int) ([]content.Verse, error) {
	if chapter != 1 {
		return nil, errors.New("no such chapter")
	}
	return []content.Verse{{ID: 2, VerseKey: "1:2", TextUthmani: "ٱلْحَمْدُ لِلَّهِ رَبِّ ٱلْعَٰلَمِينَ"}}, nil
}

func (library) Editions(context.Context) ([]content.Edition, error) { return content.Editions, nil }

func (library) Commentary(context.Context, string, string) (string, error) {
	return "الثناء على الله", nil
}

type generator struct {
	started chan struct{}
	release chan struct{}
	err     error
}

func (g *generator) EditImage(_ context.Context, _ []byte, _ string, w, h int) (genai.Image, error) {
	if g.started != nil {
		close(g.started)
		<-g.release
	}
	if g.err != nil {
		return genai.Image{}, g.err
	}
	return genai.Image{MIME: "image/png", Data: pngBytes(w/10, h/10, color.NRGBA{R: 200, A: 255})}, nil
}

func pngBytes(w, h int, c color.NRGBA) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}

func newTestServer(t *testing.T, gen genai.Editor) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	cfg.FontDir = ""
	cfg.Debug = true
	return New(Options{Config: cfg, Content: library{}, Generator: gen})
}

func do(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	switch b := body.(type) {
	case nil:
		r = httptest.NewRequest(method, target, nil)
	case string:
		r = httptest.NewRequest(method, target, strings.NewReader(b))
		r.Header.Set("Content-Type", "application/json")
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = httptest.NewRequest(method, target, bytes.NewReader(raw))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, r)
	return w
}

func upload(t *testing.T, s *Server, target, filename string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, _ = fw.Write(data)
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, target, &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	return decode[apiError](t, w).Code
}

// ── Card ──

func TestCardEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodGet, "/api/card", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, card.Default(), decode[card.Card](t, w))

	w = do(t, s, http.MethodPatch, "/api/card", `{"layers":{"ayah":{"fontSize":-5}}}`)
	require.Equal(t, http.StatusOK, w.Code)
	patched := decode[struct {
		Card     card.Card `json:"card"`
		Warnings []string  `json:"warnings"`
	}](t, w)
	assert.Equal(t, -5.0, patched.Card.Layer(card.RoleAyah).FontSize)
	assert.NotEmpty(t, patched.Warnings)

	w = do(t, s, http.MethodPatch, "/api/card", `{"width":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "bad_request", errorCode(t, w))

	w = do(t, s, http.MethodPut, "/api/card", `{"width": 500}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 500, s.Session().Card().Width)
	assert.Equal(t, card.Default().Layer(card.RoleAyah), s.Session().Card().Layer(card.RoleAyah), "PUT starts from the default card")

	w = do(t, s, http.MethodPost, "/api/card/reset", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, card.Default(), s.Session().Card())
}

func TestThemeAndSize(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodPost, "/api/card/theme", map[string]string{"name": "Royal"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "#2e1065", decode[card.Card](t, w).Background.Color)

	w = do(t, s, http.MethodPost, "/api/card/theme", map[string]string{"name": "Neon"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "unknown_theme", errorCode(t, w))

	tests := []struct {
		name   string
		body   any
		status int
		w, h   int
	}{
		{"preset", map[string]any{"preset": "web"}, http.StatusOK, 1200, 675},
		{"custom", map[string]any{"width": 640, "height": 480}, http.StatusOK, 640, 480},
		{"unknown", map[string]any{"preset": "poster"}, http.StatusNotFound, 0, 0},
		{"empty", map[string]any{}, http.StatusBadRequest, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/api/card/size", tt.body)
			require.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				c := decode[card.Card](t, w)
				assert.Equal(t, [2]int{tt.w, tt.h}, [2]int{c.Width, c.Height})
			}
		})
	}

	w = do(t, s, http.MethodGet, "/api/themes", nil)
	assert.Len(t, decode[[]card.Theme](t, w), len(card.Themes))
}

func TestFonts(t *testing.T) {
	s := newTestServer(t, nil)
	w := do(t, s, http.MethodGet, "/api/fonts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	fonts := decode[[]struct {
		Value     string `json:"value"`
		Installed bool   `json:"installed"`
	}](t, w)
	require.Len(t, fonts, len(card.Fonts))
	assert.False(t, fonts[0].Installed)
}

// ── Scene and images ──

func TestScene(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodGet, "/api/scene?guides=true&lang=ar", nil)
	require.Equal(t, http.StatusOK, w.Code)
	scene := decode[layout.Scene](t, w)
	guides := scene.Find(layout.RegionCanvas)
	require.Len(t, guides, 1)
	assert.Equal(t, layout.ArabicLabels.Canvas, guides[0].Guide.Label)

	w = do(t, s, http.MethodGet, "/api/scene?hideText=1", nil)
	assert.Empty(t, decode[layout.Scene](t, w).TextBlocks())
}

func TestPreview(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodGet, "/api/preview?scale=0.5&guides=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	cfg, err := png.DecodeConfig(w.Body)
	require.NoError(t, err)
	assert.Equal(t, [2]int{360, 410}, [2]int{cfg.Width, cfg.Height})

	for _, q := range []string{"0", "-1", "9", "big"} {
		w = do(t, s, http.MethodGet, "/api/preview?scale="+q, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestPreview_BackgroundSources(t *testing.T) {
	s := newTestServer(t, nil)
	red := color.NRGBA{R: 255, A: 255}
	path := filepath.Join(t.TempDir(), "secret.png")
	require.NoError(t, os.WriteFile(path, pngBytes(8, 8, red), 0o644))

	corner := func(bg string) color.Color {
		t.Helper()
		body := map[string]any{"background": map[string]any{"color": "#000000", "image": bg, "overlayOpacity": 0}}
		require.Equal(t, http.StatusOK, do(t, s, http.MethodPut, "/api/card", body).Code)
		w := do(t, s, http.MethodGet, "/api/preview?scale=1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		img, err := png.Decode(w.Body)
		require.NoError(t, err)
		return img.At(2, 2)
	}

	r, _, _, _ := corner(path).RGBA()
	assert.InDelta(t, 0, r>>8, 2, "host file paths are not resolved")

	r, _, _, _ = corner(render.DataURL("image/png", pngBytes(8, 8, red))).RGBA()
	assert.InDelta(t, 255, r>>8, 2, "data URLs are")
}

func TestExport(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodGet, "/api/export/png", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Regexp(t, `attachment; filename="ayat-card-\d+\.png"`, w.Header().Get("Content-Disposition"))
	cfg, err := png.DecodeConfig(w.Body)
	require.NoError(t, err)
	assert.Equal(t, [2]int{1440, 1640}, [2]int{cfg.Width, cfg.Height})

	w = do(t, s, http.MethodGet, "/api/export/png?format=jpg", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".jpg")

	do(t, s, http.MethodPatch, "/api/card", `{"width": 0}`)
	w = do(t, s, http.MethodGet, "/api/export/png", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "capture_failed", errorCode(t, w))
}

// ── Assets ──

func TestUploadAndAssets(t *testing.T) {
	s := newTestServer(t, nil)

	w := upload(t, s, "/api/upload/image", "not-an-image.png", []byte("hello"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = upload(t, s, "/api/upload/image?background=true", "my photo.png", pngBytes(4, 4, color.NRGBA{G: 255, A: 255}))
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		ID   string    `json:"id"`
		Name string    `json:"name"`
		URL  string    `json:"url"`
		Card card.Card `json:"card"`
	}](t, w)
	assert.Equal(t, "my_photo.png", resp.Name)
	assert.Equal(t, resp.ID, resp.Card.Background.Image)
	assert.Equal(t, assetPrefix+resp.ID, resp.URL)

	img, err := s.assets.Image(resp.URL)
	require.NoError(t, err, "asset URLs resolve as image references")
	assert.Equal(t, 4, img.Bounds().Dx())

	w = do(t, s, http.MethodGet, resp.URL, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	w = do(t, s, http.MethodGet, "/api/assets", nil)
	assert.Len(t, decode[[]asset](t, w), 1)

	w = do(t, s, http.MethodDelete, resp.URL, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, s, http.MethodGet, resp.URL, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "unknown_asset", errorCode(t, w))

	// The card keeps the dangling reference; export still succeeds.
	w = do(t, s, http.MethodGet, "/api/export/png", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBundleRoundTrip(t *testing.T) {
	s := newTestServer(t, nil)
	w := upload(t, s, "/api/upload/image?background=1", "bg.png", pngBytes(2, 2, color.NRGBA{B: 255, A: 255}))
	require.Equal(t, http.StatusOK, w.Code)
	do(t, s, http.MethodPost, "/api/card/theme", map[string]string{"name": "Ocean"})
	want := s.Session().Card()

	w = do(t, s, http.MethodGet, "/api/export/bundle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), card.BundleExt)
	bundle := w.Body.Bytes()

	do(t, s, http.MethodPost, "/api/card/reset", nil)
	w = upload(t, s, "/api/import/bundle", "card"+card.BundleExt, bundle)
	require.Equal(t, http.StatusOK, w.Code)

	got := s.Session().Card()
	assert.NotEqual(t, want.Background.Image, got.Background.Image, "imported as a new asset")
	_, err := s.assets.Image(got.Background.Image)
	require.NoError(t, err)

	got.Background.Image = want.Background.Image
	assert.Equal(t, want, got)

	w = upload(t, s, "/api/import/bundle", "x.ayatcard", []byte("not a zip"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ── Content ──

func TestContent(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodGet, "/api/content/chapters", nil)
	assert.Len(t, decode[[]content.Chapter](t, w), 1)

	w = do(t, s, http.MethodGet, "/api/content/chapters/9/verses", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]content.Verse](t, w), "fetch failures become empty lists")

	w = do(t, s, http.MethodGet, "/api/content/chapters/abc/verses", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/api/content/select", map[string]any{"chapter": 1, "verseKey": "1:2"})
	require.Equal(t, http.StatusOK, w.Code)
	c := decode[card.Card](t, w)
	assert.Equal(t, "﴿ ٱلْحَمْدُ لِلَّهِ رَبِّ ٱلْعَٰلَمِينَ ﴾", c.Layer(card.RoleAyah).Content)
	assert.Equal(t, "الثناء على الله", c.Layer(card.RoleTafseer).Content)

	w = do(t, s, http.MethodPost, "/api/content/select", map[string]any{"chapter": 1, "verseKey": "1:99"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodPost, "/api/content/lang", map[string]string{"lang": "fr"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, s, http.MethodPost, "/api/content/lang", map[string]string{"lang": "en"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodPost, "/api/content/edition", map[string]string{"edition": "en.sahih"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Saheeh International", decode[card.Card](t, w).Layer(card.RoleSecondarySubtitle).Content)

	w = do(t, s, http.MethodGet, "/api/content/selection", nil)
	assert.Contains(t, w.Body.String(), `"verseKey":"1:2"`)
}

// ── Generation ──

func TestGenerate(t *testing.T) {
	s := newTestServer(t, &generator{})

	w := do(t, s, http.MethodPost, "/api/generate", map[string]string{"prompt": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "empty_prompt", errorCode(t, w))

	w = do(t, s, http.MethodPost, "/api/generate", map[string]string{"prompt": "starry night"})
	require.Equal(t, http.StatusOK, w.Code)
	c := decode[card.Card](t, w)
	_, err := s.assets.Image(c.Background.Image)
	require.NoError(t, err, "generated image is stored as an asset")

	w = do(t, s, http.MethodGet, "/api/generate/history", nil)
	assert.Len(t, decode[[]map[string]any](t, w), 1)
}

func TestGenerate_Failures(t *testing.T) {
	s := newTestServer(t, nil)
	w := do(t, s, http.MethodPost, "/api/generate", map[string]string{"prompt": "x"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	msg := "AI returned no results. This might be due to safety filters or service load."
	s = newTestServer(t, &generator{err: &genai.GenerationError{Message: msg}})
	before := s.Session().Card()
	w = do(t, s, http.MethodPost, "/api/generate", map[string]string{"prompt": "x"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, msg, decode[apiError](t, w).Error)
	assert.Equal(t, before, s.Session().Card())
}

func TestGenerate_InFlight(t *testing.T) {
	gen := &generator{started: make(chan struct{}), release: make(chan struct{})}
	s := newTestServer(t, gen)

	done := make(chan int, 1)
	go func() {
		done <- do(t, s, http.MethodPost, "/api/generate", map[string]string{"prompt": "first"}).Code
	}()
	<-gen.started

	w := do(t, s, http.MethodGet, "/api/generate/status", nil)
	assert.JSONEq(t, `{"generating":true}`, w.Body.String())

	w = do(t, s, http.MethodPost, "/api/generate", map[string]string{"prompt": "second"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "generation_in_flight", errorCode(t, w))

	close(gen.release)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestInterop(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodGet, "/api/interop?prompt=gold+leaf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "YOUR_API_KEY")
	assert.Contains(t, body, genai.ImagePlaceholder)
	assert.Contains(t, body, "gold leaf")

	w = do(t, s, http.MethodGet, "/api/interop", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
