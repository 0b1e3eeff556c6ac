package editor_test

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xob0t/ayatcard/pkg/calendar"
	"github.com/xob0t/ayatcard/pkg/card"
	"github.com/xob0t/ayatcard/pkg/content"
	"github.com/xob0t/ayatcard/pkg/editor"
	"github.com/xob0t/ayatcard/pkg/export"
	"github.com/xob0t/ayatcard/pkg/genai"
	"github.com/xob0t/ayatcard/pkg/layout"
)

// ── Fakes ──

type recorder struct {
	mu     sync.Mutex
	scenes []layout.Scene
	scales []float64
	err    error
}

func (r *recorder) Capture(s layout.Scene, scale float64) (image.Image, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scenes = append(r.scenes, s)
	r.scales = append(r.scales, scale)
	if r.err != nil {
		return nil, r.err
	}
	return image.NewNRGBA(image.Rect(0, 0, int(float64(s.Width)*scale), int(float64(s.Height)*scale))), nil
}

type library struct {
	commentary map[string]string
	down       bool
}

var errDown = errors.New("down")

func (l library) Chapters(context.Context) ([]content.Chapter, error) {
	if l.down {
		return nil, errDown
	}
	return []content.Chapter{{ID: 112, NameSimple: "Al-Ikhlas", NameArabic: "الإخلاص", VersesCount: 4}}, nil
}

func (l library) Verses(_ context.Context, chapter int) ([]content.Verse, error) {
	if l.down || chapter != 112 {
		return nil, errDown
	}
	return []content.Verse{
		{ID: 6222, VerseKey: "112:1", TextUthmani: "قُلْ هُوَ ٱللَّهُ أَحَدٌ"},
		{ID: 6223, VerseKey: "112:2", TextUthmani: "ٱللَّهُ ٱلصَّمَدُ"},
	}, nil
}

func (l library) Editions(context.Context) ([]content.Edition, error) { return content.Editions, nil }

func (l library) Commentary(_ context.Context, key, edition string) (string, error) {
	if l.down {
		return "", errDown
	}
	text, ok := l.commentary[key+"/"+edition]
	if !ok {
		return "", errDown
	}
	return text, nil
}

type generator struct {
	release chan struct{}
	started chan struct{}
	err     error
	calls   []string
}

func (g *generator) EditImage(ctx context.Context, png []byte, prompt string, w, h int) (genai.Image, error) {
	g.calls = append(g.calls, prompt)
	if g.started != nil {
		close(g.started)
	}
	if g.release != nil {
		<-g.release
	}
	if g.err != nil {
		return genai.Image{}, g.err
	}
	return genai.Image{MIME: "image/png", Data: png}, nil
}

func newSession(opts editor.Options) *editor.Session {
	if opts.Content == nil {
		opts.Content = library{commentary: map[string]string{
			"112:1/ar.muyassar": "قل أيها الرسول",
			"112:1/en.sahih":    "Say, He is Allah, [who is] One",
		}}
	}
	if opts.Capturer == nil {
		opts.Capturer = &recorder{}
	}
	opts.Calendar = calendar.Static{HijriText: "h", GregorianText: "g"}
	opts.Now = func() time.Time { return time.UnixMilli(1700000000000) }
	return editor.New(opts)
}

// ── State ──

func TestSession_DefaultsAndReset(t *testing.T) {
	s := newSession(editor.Options{})
	assert.Equal(t, card.Default(), s.Card())
	assert.Equal(t, editor.DefaultSelection(), s.Selection())

	_, err := s.SelectVerse(context.Background(), 112, "112:1")
	require.NoError(t, err)
	_, err = s.ApplyTheme("Ocean")
	require.NoError(t, err)
	require.NotEqual(t, card.Default(), s.Card())

	s.Reset()
	assert.Equal(t, card.Default(), s.Card())
	assert.Equal(t, editor.DefaultSelection(), s.Selection())
}

func TestSession_CardIsACopy(t *testing.T) {
	s := newSession(editor.Options{})
	c := s.Card()
	c.Layers[card.RoleAyah].Content = "changed"
	assert.NotEqual(t, "changed", s.Card().Layer(card.RoleAyah).Content)
}

func TestSession_Patch(t *testing.T) {
	s := newSession(editor.Options{})
	c, err := s.Patch([]byte(`{"width": 1000, "layers": {"tafseer": {"content": "x"}}}`))
	require.NoError(t, err)
	assert.Equal(t, 1000, c.Width)
	assert.Equal(t, "x", s.Card().Layer(card.RoleTafseer).Content)

	_, err = s.Patch([]byte(`{`))
	assert.Error(t, err)
	assert.Equal(t, 1000, s.Card().Width)
}

func TestSession_ThemeAndSize(t *testing.T) {
	s := newSession(editor.Options{})

	c, err := s.ApplyTheme("paper")
	require.NoError(t, err)
	assert.Equal(t, "#fefce8", c.Background.Color)

	_, err = s.ApplyTheme("neon")
	assert.ErrorIs(t, err, editor.ErrUnknownTheme)

	c, err = s.ApplySize("story")
	require.NoError(t, err)
	assert.Equal(t, [2]int{1080, 1920}, [2]int{c.Width, c.Height})

	_, err = s.ApplySize("poster")
	assert.ErrorIs(t, err, editor.ErrUnknownSize)
}

// ── Content ──

func TestSession_SelectVerse(t *testing.T) {
	s := newSession(editor.Options{})
	c, err := s.SelectVerse(context.Background(), 112, "112:1")
	require.NoError(t, err)

	assert.Equal(t, "﴿ قُلْ هُوَ ٱللَّهُ أَحَدٌ ﴾", c.Layer(card.RoleAyah).Content)
	assert.Equal(t, "الإخلاص | آية ١", c.Layer(card.RolePrimarySubtitle).Content)
	assert.Equal(t, "قل أيها الرسول", c.Layer(card.RoleTafseer).Content)
	assert.Equal(t, "تفسير الميسر", c.Layer(card.RoleSecondarySubtitle).Content)
	assert.Equal(t, editor.Selection{Edition: content.DefaultEdition, Chapter: 112, VerseKey: "112:1", Lang: content.Arabic}, s.Selection())

	_, err = s.SelectVerse(context.Background(), 112, "112:9")
	assert.ErrorIs(t, err, editor.ErrUnknownVerse)
}

func TestSession_SelectEdition(t *testing.T) {
	s := newSession(editor.Options{})
	s.SetLang(content.English)

	c := s.SelectEdition(context.Background(), "en.sahih")
	assert.Equal(t, card.Default().Layer(card.RoleTafseer), c.Layer(card.RoleTafseer), "no verse selected yet")

	_, err := s.SelectVerse(context.Background(), 112, "112:1")
	require.NoError(t, err)
	c = s.Card()
	assert.Equal(t, "Say, He is Allah, [who is] One", c.Layer(card.RoleTafseer).Content)
	assert.Equal(t, card.DirLTR, c.Layer(card.RoleTafseer).Direction)
	assert.Equal(t, "Al-Ikhlas | Verse 1", c.Layer(card.RolePrimarySubtitle).Content)

	c = s.SelectEdition(context.Background(), "ar.muyassar")
	assert.Equal(t, "قل أيها الرسول", c.Layer(card.RoleTafseer).Content)
	assert.Equal(t, card.DirRTL, c.Layer(card.RoleTafseer).Direction)
}

func TestSession_ContentDown(t *testing.T) {
	s := newSession(editor.Options{Content: library{down: true}})
	ctx := context.Background()

	assert.Empty(t, s.Chapters(ctx))
	assert.Empty(t, s.Verses(ctx, 1))
	assert.Equal(t, content.Editions, s.Editions(ctx))

	_, err := s.SelectVerse(ctx, 112, "112:1")
	assert.ErrorIs(t, err, editor.ErrUnknownVerse)
	assert.Equal(t, card.Default(), s.Card())
}

// ── Capture ──

func TestSession_Export(t *testing.T) {
	rec := &recorder{}
	s := newSession(editor.Options{Capturer: rec})

	img, name, err := s.Export()
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 1440, 1640), img.Bounds())
	assert.Equal(t, "ayat-card-1700000000000.png", name)
	require.Len(t, rec.scenes, 1)
	assert.Empty(t, rec.scenes[0].Find(layout.RegionCanvas), "guides are never exported")
}

func TestSession_PreviewScale(t *testing.T) {
	rec := &recorder{}
	s := newSession(editor.Options{Capturer: rec})

	img, err := s.Preview(editor.View{ShowGuides: true}, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 360, img.Bounds().Dx())
	assert.NotEmpty(t, rec.scenes[0].Find(layout.RegionCanvas))

	_, _, err = s.Export()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, export.Scale}, rec.scales)
}

func TestSession_CaptureFailure(t *testing.T) {
	s := newSession(editor.Options{Capturer: &recorder{err: errors.New("tainted")}})
	_, _, err := s.Export()
	assert.True(t, export.IsCaptureError(err))
}

// ── Generation ──

func TestGenerate_ReplacesBackground(t *testing.T) {
	rec := &recorder{}
	gen := &generator{}
	s := newSession(editor.Options{Capturer: rec, Generator: gen})

	c, err := s.Generate(context.Background(), "  desert dusk  ")
	require.NoError(t, err)
	assert.Contains(t, c.Background.Image, "data:image/png;base64,")
	assert.Equal(t, []string{"desert dusk"}, gen.calls)

	require.Len(t, rec.scenes, 1)
	assert.Empty(t, rec.scenes[0].TextBlocks(), "capture hides text")
	assert.NotEmpty(t, rec.scenes[0].Find(layout.RegionFooter), "footer stays")
	assert.Equal(t, []float64{1}, rec.scales)

	h := s.History()
	require.Len(t, h, 1)
	assert.Equal(t, "desert dusk", h[0].Prompt)
	assert.Equal(t, c.Background.Image, h[0].Generated)
	assert.Empty(t, h[0].Previous)
	assert.NotEmpty(t, h[0].ID)
	assert.False(t, s.Generating())
}

func TestGenerate_CustomStore(t *testing.T) {
	s := newSession(editor.Options{
		Generator: &generator{},
		Store:     func(genai.Image) (string, error) { return "asset-1", nil },
	})
	c, err := s.Generate(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "asset-1", c.Background.Image)
}

func TestGenerate_FailureKeepsCard(t *testing.T) {
	genErr := &genai.GenerationError{Message: "AI Request blocked: SAFETY"}
	s := newSession(editor.Options{Generator: &generator{err: genErr}})
	before := s.Card()

	_, err := s.Generate(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, "AI Request blocked: SAFETY", err.Error())
	assert.Equal(t, before, s.Card())
	assert.Empty(t, s.History())
	assert.False(t, s.Generating())
}

func TestGenerate_Guards(t *testing.T) {
	s := newSession(editor.Options{Generator: &generator{}})
	_, err := s.Generate(context.Background(), "   ")
	assert.ErrorIs(t, err, editor.ErrEmptyPrompt)

	s = newSession(editor.Options{})
	_, err = s.Generate(context.Background(), "x")
	assert.ErrorIs(t, err, editor.ErrNoGenerator)

	s = newSession(editor.Options{Generator: &generator{}, Capturer: &recorder{err: errors.New("boom")}})
	_, err = s.Generate(context.Background(), "x")
	assert.True(t, export.IsCaptureError(err))
}

func TestGenerate_SingleInFlight(t *testing.T) {
	gen := &generator{release: make(chan struct{}), started: make(chan struct{})}
	s := newSession(editor.Options{Generator: gen})

	done := make(chan error, 1)
	go func() {
		_, err := s.Generate(context.Background(), "first")
		done <- err
	}()
	<-gen.started
	assert.True(t, s.Generating())

	_, err := s.Generate(context.Background(), "second")
	assert.ErrorIs(t, err, editor.ErrGenerationInFlight)

	close(gen.release)
	require.NoError(t, <-done)
	assert.Equal(t, []string{"first"}, gen.calls)
	assert.False(t, s.Generating())
}

func TestGenerate_PreviewHidesTextWhileInFlight(t *testing.T) {
	gen := &generator{release: make(chan struct{}), started: make(chan struct{})}
	s := newSession(editor.Options{Generator: gen})
	require.NotEmpty(t, s.Scene(editor.View{}).TextBlocks())

	done := make(chan error, 1)
	go func() {
		_, err := s.Generate(context.Background(), "sunset over dunes")
		done <- err
	}()
	<-gen.started

	during := s.Scene(editor.View{})
	assert.Empty(t, during.TextBlocks())
	assert.NotEmpty(t, during.Find(layout.RegionFooter))

	close(gen.release)
	require.NoError(t, <-done)
	assert.NotEmpty(t, s.Scene(editor.View{}).TextBlocks())
}
