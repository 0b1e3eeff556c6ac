// Package editor holds one editing session: the current card, the content
// selection that produced it, and the background-generation history.
//
// Every read returns a copy and every write replaces the card as a whole,
// so callers never share state with the session.
package editor

import (
	"errors"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xob0t/ayatcard/pkg/calendar"
	"github.com/xob0t/ayatcard/pkg/card"
	"github.com/xob0t/ayatcard/pkg/content"
	"github.com/xob0t/ayatcard/pkg/export"
	"github.com/xob0t/ayatcard/pkg/genai"
	"github.com/xob0t/ayatcard/pkg/layout"
)

// Session errors.
var (
	ErrUnknownTheme       = errors.New("unknown theme")
	ErrUnknownSize        = errors.New("unknown size preset")
	ErrUnknownVerse       = errors.New("unknown verse")
	ErrEmptyPrompt        = errors.New("prompt is empty")
	ErrGenerationInFlight = errors.New("a background generation is already running")
	ErrNoGenerator        = errors.New("background generation is not configured")
)

// Selection is the content choice the card was populated from.
type Selection struct {
	Edition  string       `json:"edition"`
	Chapter  int          `json:"chapter,omitempty"`
	VerseKey string       `json:"verseKey,omitempty"`
	Lang     content.Lang `json:"lang"`
}

// DefaultSelection is the selection of a fresh session.
func DefaultSelection() Selection {
	return Selection{Edition: content.DefaultEdition, Lang: content.Arabic}
}

// Options wire a Session to its collaborators. Only Capturer is required
// for previews and exports; the rest fall back to offline defaults.
type Options struct {
	Content   content.Source
	Capturer  export.Capturer
	Measurer  layout.Measurer
	Calendar  calendar.Formatter
	Generator genai.Editor
	// Store keeps a generated image and returns the reference written to the
	// card. Nil stores the image inline as a data URL.
	Store  func(genai.Image) (string, error)
	Logger *slog.Logger
	Now    func() time.Time
}

// Session is the single in-memory editor state.
type Session struct {
	mu      sync.Mutex
	card    card.Card
	sel     Selection
	history []HistoryEntry

	generating atomic.Bool
	captureMu  sync.Mutex

	content  *content.Fallback
	capturer export.Capturer
	measurer layout.Measurer
	calendar calendar.Formatter
	gen      genai.Editor
	store    func(genai.Image) (string, error)
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a session holding the default card.
func New(opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Content == nil {
		opts.Content = content.NewClient("", "", 0)
	}
	if opts.Measurer == nil {
		opts.Measurer = layout.ApproxMeasurer{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Store == nil {
		opts.Store = func(img genai.Image) (string, error) { return img.DataURL(), nil }
	}
	return &Session{
		card:     card.Default(),
		sel:      DefaultSelection(),
		content:  content.NewFallback(opts.Content, opts.Logger),
		capturer: opts.Capturer,
		measurer: opts.Measurer,
		calendar: opts.Calendar,
		gen:      opts.Generator,
		store:    opts.Store,
		logger:   opts.Logger,
		now:      opts.Now,
	}
}

// ── State ──

// Card returns the current card.
func (s *Session) Card() card.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.card
}

// Selection returns the current content selection.
func (s *Session) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

// SetCard replaces the card. The selection is kept.
func (s *Session) SetCard(c card.Card) {
	s.mu.Lock()
	s.card = c
	s.mu.Unlock()
}

// Update applies fn to the current card and stores the result.
func (s *Session) Update(fn func(card.Card) card.Card) card.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.card = fn(s.card)
	return s.card
}

// Patch merges a partial card document into the current card.
func (s *Session) Patch(patch []byte) (card.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := card.Merge(s.card, patch)
	if err != nil {
		return s.card, err
	}
	s.card = c
	return c, nil
}

// Reset restores the default card and selection together.
func (s *Session) Reset() card.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.card = card.Default()
	s.sel = DefaultSelection()
	return s.card
}

// ApplyTheme applies the built-in theme called name.
func (s *Session) ApplyTheme(name string) (card.Card, error) {
	t, ok := card.LookupTheme(name)
	if !ok {
		return s.Card(), ErrUnknownTheme
	}
	return s.Update(func(c card.Card) card.Card { return card.ApplyTheme(c, t) }), nil
}

// ApplySize resizes the canvas to a named size preset.
func (s *Session) ApplySize(preset string) (card.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.card.WithSizePreset(preset)
	if !ok {
		return s.card, ErrUnknownSize
	}
	s.card = c
	return c, nil
}

// SetLang switches the label language used by later content selections.
func (s *Session) SetLang(lang content.Lang) {
	s.mu.Lock()
	s.sel.Lang = lang
	s.mu.Unlock()
}

// ── Scene and capture ──

// View selects what a scene includes.
type View struct {
	HideText   bool
	ShowGuides bool
	Labels     layout.GuideLabels
}

// Scene composes the current card. Text is hidden while a generation is
// in flight.
func (s *Session) Scene(v View) layout.Scene {
	return s.compose(s.Card(), v)
}

func (s *Session) compose(c card.Card, v View) layout.Scene {
	return layout.Compose(c, layout.Options{
		HideText:   v.HideText || s.generating.Load(),
		ShowGuides: v.ShowGuides,
		Now:        s.now(),
		Measurer:   s.measurer,
		Calendar:   s.calendar,
		Labels:     v.Labels,
	})
}

// Preview rasterizes the current scene at an arbitrary scale.
func (s *Session) Preview(v View, scale float64) (image.Image, error) {
	return s.capture(s.Scene(v), scale)
}

// Export captures the current card at export.Scale without guides and
// returns the image with its download name.
func (s *Session) Export() (image.Image, string, error) {
	if s.capturer == nil {
		return nil, "", &export.CaptureError{Err: errors.New("no rasterizer configured")}
	}
	scene := s.Scene(View{})

	s.captureMu.Lock()
	defer s.captureMu.Unlock()
	img, err := export.Export(scene, s.capturer)
	if err != nil {
		s.logger.Error("export failed", "err", err)
		return nil, "", err
	}
	return img, export.Filename(s.now()), nil
}

func (s *Session) capture(scene layout.Scene, scale float64) (image.Image, error) {
	if s.capturer == nil {
		return nil, &export.CaptureError{Err: errors.New("no rasterizer configured")}
	}
	s.captureMu.Lock()
	defer s.captureMu.Unlock()
	img, err := s.capturer.Capture(scene, scale)
	if err != nil {
		return nil, &export.CaptureError{Err: err}
	}
	return img, nil
}
