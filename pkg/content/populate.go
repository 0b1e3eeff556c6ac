// populate.go — Fill card layers from fetched content.
package content

import (
	"strconv"
	"strings"

	"github.com/xob0t/ayatcard/pkg/calendar"
	"github.com/xob0t/ayatcard/pkg/card"
)

// Lang is the interface language used for labels.
type Lang string

// Interface languages.
const (
	Arabic  Lang = "ar"
	English Lang = "en"
)

const sajdaMark = "۞"

// NormalizeVerse moves a leading section mark to the end and wraps the
// verse in ornate parentheses.
func NormalizeVerse(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, sajdaMark) {
		text = strings.TrimSpace(strings.Replace(text, sajdaMark, "", 1)) + " " + sajdaMark
	}
	return "﴿ " + text + " ﴾"
}

// VerseNumber returns the verse part of a "chapter:verse" key.
func VerseNumber(verseKey string) (int, bool) {
	_, v, ok := strings.Cut(verseKey, ":")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// VerseLabel formats "<surah> | <verse label> <n>" in lang.
func VerseLabel(ch Chapter, verse int, lang Lang) string {
	if lang == English {
		return ch.NameSimple + " | Verse " + strconv.Itoa(verse)
	}
	return ch.NameArabic + " | آية " + calendar.ArabicDigits(strconv.Itoa(verse))
}

// ApplyVerse sets the ayah layer to v and the info layer to its label.
// A nil chapter clears the info layer.
func ApplyVerse(c card.Card, ch *Chapter, v Verse, lang Lang) card.Card {
	c = c.UpdateLayer(card.RoleAyah, func(l card.TextLayer) card.TextLayer {
		l.Content = NormalizeVerse(v.TextUthmani)
		l.FontFamily = card.FontAmiriQuran
		return l
	})

	info := ""
	if ch != nil {
		n, ok := VerseNumber(v.VerseKey)
		if !ok {
			n = v.ID
		}
		info = VerseLabel(*ch, n, lang)
	}
	return c.WithContent(card.RolePrimarySubtitle, info)
}

// EditionName is the display name of an edition in lang, or "Tafseer"
// for an unknown identifier.
func EditionName(id string, lang Lang) string {
	e, ok := LookupEdition(id)
	if !ok {
		return "Tafseer"
	}
	if lang == English {
		return e.EnglishName
	}
	return e.Name
}

// ApplyCommentary sets the commentary layer to text and the source layer to
// the edition name. Direction follows the edition language.
func ApplyCommentary(c card.Card, text, edition string, lang Lang) card.Card {
	dir := card.DirLTR
	if e, ok := LookupEdition(edition); ok && e.Language == "ar" {
		dir = card.DirRTL
	}
	c = c.UpdateLayer(card.RoleTafseer, func(l card.TextLayer) card.TextLayer {
		l.Content = text
		l.Direction = dir
		l.Align = card.AlignCenter
		return l
	})
	return c.WithContent(card.RoleSecondarySubtitle, EditionName(edition, lang))
}
