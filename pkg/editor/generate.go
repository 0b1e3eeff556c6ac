// generate.go — Replace the background with a generated image.
package editor

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/xob0t/ayatcard/pkg/card"
	"github.com/xob0t/ayatcard/pkg/export"
)

// HistoryEntry records one successful generation.
type HistoryEntry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Prompt    string    `json:"prompt"`
	// Previous is the background reference that was replaced.
	Previous  string `json:"previous,omitempty"`
	Generated string `json:"generated"`
}

// Generating reports whether a generation is in flight.
func (s *Session) Generating() bool { return s.generating.Load() }

// History returns the successful generations, oldest first.
func (s *Session) History() []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]HistoryEntry(nil), s.history...)
}

// Generate captures the card with its text hidden, asks the generator for
// a new background and, on success, sets it on the card. Only one
// generation runs at a time; a second call fails with
// ErrGenerationInFlight. On any failure the card is left as it was.
func (s *Session) Generate(ctx context.Context, prompt string) (card.Card, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return s.Card(), ErrEmptyPrompt
	}
	if s.gen == nil {
		return s.Card(), ErrNoGenerator
	}
	if !s.generating.CompareAndSwap(false, true) {
		return s.Card(), ErrGenerationInFlight
	}
	defer s.generating.Store(false)

	base := s.Card()
	img, err := s.capture(s.compose(base, View{HideText: true}), 1)
	if err != nil {
		s.logger.Error("generation capture failed", "err", err)
		return base, err
	}
	var buf bytes.Buffer
	if err := export.Encode(&buf, ".png", img); err != nil {
		return base, &export.CaptureError{Err: err}
	}

	start := time.Now()
	out, err := s.gen.EditImage(ctx, buf.Bytes(), prompt, base.Width, base.Height)
	if err != nil {
		s.logger.Warn("generation failed", "err", err)
		return s.Card(), err
	}
	ref, err := s.store(out)
	if err != nil {
		return s.Card(), fmt.Errorf("store generated image: %w", err)
	}
	s.logger.Info("background generated", "bytes", len(out.Data), "elapsed", time.Since(start))

	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.card.Background.Image
	s.card = s.card.WithBackgroundImage(ref)
	s.history = append(s.history, HistoryEntry{
		ID:        uuid.NewString(),
		Timestamp: s.now(),
		Prompt:    prompt,
		Previous:  prev,
		Generated: ref,
	})
	return s.card, nil
}
