// Package content fetches Quran text and commentary and fills card layers
// with it.
//
// Fetch failures are never fatal: Fallback turns them into an empty list
// or the Placeholder string after logging them.
package content

import (
	"context"
	"errors"
	"fmt"
)

// DefaultEdition is the commentary selected on start and after a reset.
const DefaultEdition = "ar.muyassar"

// Placeholder replaces commentary that could not be fetched.
const Placeholder = "Could not load content for this edition. Please check internet connection or select a different source."

// Chapter is one surah.
type Chapter struct {
	ID          int    `json:"id"`
	NameSimple  string `json:"name_simple"`
	NameArabic  string `json:"name_arabic"`
	VersesCount int    `json:"verses_count"`
}

// Verse is one ayah in Uthmani script.
type Verse struct {
	ID          int    `json:"id"`
	VerseKey    string `json:"verse_key"` // "chapter:verse"
	TextUthmani string `json:"text_uthmani"`
}

// EditionType separates commentaries from translations.
type EditionType string

// Edition types.
const (
	Tafsir      EditionType = "tafsir"
	Translation EditionType = "translation"
)

// Edition is a commentary or translation source.
type Edition struct {
	Identifier  string      `json:"identifier"`
	Name        string      `json:"name"` // Arabic display name
	EnglishName string      `json:"englishName"`
	Language    string      `json:"language"`
	Type        EditionType `json:"type"`
}

// Editions is the curated edition list. Every identifier is served by the
// commentary endpoint.
var Editions = []Edition{
	{"ar.muyassar", "تفسير الميسر", "Al-Muyassar", "ar", Tafsir},
	{"ar.jalalayn", "تفسير الجلالين", "Tafsir Al-Jalalayn", "ar", Tafsir},
	{"ar.ibnkathir", "تفسير ابن كثير", "Tafsir Ibn Kathir", "ar", Tafsir},
	{"ar.qurtubi", "تفسير القرطبي", "Tafsir Al-Qurtubi", "ar", Tafsir},
	{"ar.al-tabari", "تفسير الطبري", "Tafsir Al-Tabari", "ar", Tafsir},
	{"ar.baghawi", "تفسير البغوي", "Tafsir Al-Baghawi", "ar", Tafsir},
	{"ar.waseet", "التفسير الوسيط", "Al-Waseet", "ar", Tafsir},

	{"en.sahih", "صحيح انترناشونال", "Saheeh International", "en", Translation},
	{"en.yusufali", "يوسف علي", "Yusuf Ali", "en", Translation},
	{"en.pickthall", "بيكتال", "Pickthall", "en", Translation},
	{"en.asad", "محمد أسد", "Muhammad Asad", "en", Translation},

	{"fr.hamidullah", "حميد الله (فرنسي)", "French (Hamidullah)", "fr", Translation},
	{"ur.jalandhry", "جالندري (أردو)", "Urdu (Jalandhry)", "ur", Translation},
	{"id.indonesian", "الإندونيسية", "Indonesian", "id", Translation},
	{"tr.diyanet", "التركية", "Turkish", "tr", Translation},
}

// LookupEdition finds an edition by identifier.
func LookupEdition(id string) (Edition, bool) {
	for _, e := range Editions {
		if e.Identifier == id {
			return e, true
		}
	}
	return Edition{}, false
}

// Source lists chapters and verses and fetches commentary.
type Source interface {
	Chapters(ctx context.Context) ([]Chapter, error)
	Verses(ctx context.Context, chapter int) ([]Verse, error)
	Editions(ctx context.Context) ([]Edition, error)
	Commentary(ctx context.Context, verseKey, edition string) (string, error)
}

// FetchError is a network or API failure while fetching content.
type FetchError struct {
	Op  string // "chapters", "verses", "commentary"
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s from %s: %v", e.Op, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsFetchError reports whether err is a FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
