// fallback.go — Recover from fetch failures with empty lists and placeholders.
package content

import (
	"context"
	"log/slog"
)

// Fallback wraps a Source so that no fetch failure reaches the caller.
type Fallback struct {
	src    Source
	logger *slog.Logger
}

// NewFallback wraps src.
func NewFallback(src Source, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{src: src, logger: logger}
}

// Chapters returns the chapter list, or nil on failure.
func (f *Fallback) Chapters(ctx context.Context) []Chapter {
	ch, err := f.src.Chapters(ctx)
	if err != nil {
		f.logger.Warn("failed to fetch chapters", "err", err)
		return nil
	}
	return ch
}

// Verses returns a chapter's verses, or nil on failure.
func (f *Fallback) Verses(ctx context.Context, chapter int) []Verse {
	vs, err := f.src.Verses(ctx, chapter)
	if err != nil {
		f.logger.Warn("failed to fetch verses", "chapter", chapter, "err", err)
		return nil
	}
	return vs
}

// Editions returns the edition list, or the curated list on failure.
func (f *Fallback) Editions(ctx context.Context) []Edition {
	es, err := f.src.Editions(ctx)
	if err != nil || len(es) == 0 {
		if err != nil {
			f.logger.Warn("failed to fetch editions", "err", err)
		}
		return Editions
	}
	return es
}

// Commentary returns the verse's commentary, or Placeholder on failure.
func (f *Fallback) Commentary(ctx context.Context, verseKey, edition string) string {
	text, err := f.src.Commentary(ctx, verseKey, edition)
	if err != nil {
		f.logger.Warn("failed to fetch commentary", "verse", verseKey, "edition", edition, "err", err)
		return Placeholder
	}
	return text
}
