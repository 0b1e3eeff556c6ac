// content.go — Populate the card from the content API.
package editor

import (
	"context"
	"fmt"

	"github.com/xob0t/ayatcard/pkg/card"
	"github.com/xob0t/ayatcard/pkg/content"
)

// Chapters lists the chapters, or nothing when the API is unreachable.
func (s *Session) Chapters(ctx context.Context) []content.Chapter {
	return s.content.Chapters(ctx)
}

// Verses lists a chapter's verses, or nothing when the API is unreachable.
func (s *Session) Verses(ctx context.Context, chapter int) []content.Verse {
	return s.content.Verses(ctx, chapter)
}

// Editions lists the commentary and translation editions.
func (s *Session) Editions(ctx context.Context) []content.Edition {
	return s.content.Editions(ctx)
}

// SelectVerse fills the ayah and info layers from the verse, then the
// commentary layers from the selected edition.
func (s *Session) SelectVerse(ctx context.Context, chapter int, verseKey string) (card.Card, error) {
	verses := s.content.Verses(ctx, chapter)
	var verse *content.Verse
	for i := range verses {
		if verses[i].VerseKey == verseKey {
			verse = &verses[i]
			break
		}
	}
	if verse == nil {
		return s.Card(), fmt.Errorf("%w: %s", ErrUnknownVerse, verseKey)
	}

	var ch *content.Chapter
	for _, c := range s.content.Chapters(ctx) {
		if c.ID == chapter {
			ch = &c
			break
		}
	}

	sel := s.Selection()
	text := s.content.Commentary(ctx, verseKey, sel.Edition)

	s.mu.Lock()
	defer s.mu.Unlock()
	c := content.ApplyVerse(s.card, ch, *verse, s.sel.Lang)
	c = content.ApplyCommentary(c, text, sel.Edition, s.sel.Lang)
	s.card = c
	s.sel.Chapter = chapter
	s.sel.VerseKey = verseKey
	return c, nil
}

// SelectEdition switches the commentary edition. When a verse is selected
// its commentary is fetched again.
func (s *Session) SelectEdition(ctx context.Context, edition string) card.Card {
	s.mu.Lock()
	s.sel.Edition = edition
	key := s.sel.VerseKey
	s.mu.Unlock()

	if key == "" {
		return s.Card()
	}
	text := s.content.Commentary(ctx, key, edition)

	s.mu.Lock()
	defer s.mu.Unlock()
	// A reset or another selection may have landed while fetching.
	if s.sel.VerseKey != key || s.sel.Edition != edition {
		return s.card
	}
	s.card = content.ApplyCommentary(s.card, text, edition, s.sel.Lang)
	return s.card
}
