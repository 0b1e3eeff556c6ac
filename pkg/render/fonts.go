// fonts.go — Font lookup by family name with an embedded Go font fallback.
// Families are matched against TTF/OTF files in a font directory by
// normalised file name, e.g. "Amiri Quran" bold → AmiriQuran-Bold.ttf.
// Each file is parsed twice: by x/image for line metrics and by go-text for
// shaping and glyph outlines.
// The Go fonts carry no Arabic glyphs; install the card fonts for real output.
package render

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gotext "github.com/go-text/typesetting/font"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/xob0t/ayatcard/pkg/layout"
)

// FontLibrary resolves font families to parsed fonts. It is safe for
// concurrent use. Faces are not: each capture builds its own face cache.
type FontLibrary struct {
	dir    string
	logger *slog.Logger

	mu      sync.Mutex
	files   map[string]string // normalised file stem → path
	raw     map[string][]byte
	parsed  map[string]*opentype.Font
	shaped  map[string]*gotext.Font
	measure map[styleKey]*gotext.Face
	shaper  textShaper
	missing map[string]bool
}

type styleKey struct {
	family       string
	bold, italic bool
}

type faceKey struct {
	styleKey
	size float64
}

// NewFontLibrary indexes the font files in dir. An empty or unreadable dir
// leaves only the embedded fallback available.
func NewFontLibrary(dir string, logger *slog.Logger) *FontLibrary {
	if logger == nil {
		logger = slog.Default()
	}
	fl := &FontLibrary{
		dir:     dir,
		logger:  logger,
		files:   make(map[string]string),
		raw:     make(map[string][]byte),
		parsed:  make(map[string]*opentype.Font),
		shaped:  make(map[string]*gotext.Font),
		measure: make(map[styleKey]*gotext.Face),
		missing: make(map[string]bool),
	}
	if dir == "" {
		return fl
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("font directory unreadable, using fallback font", "dir", dir, "err", err)
		return fl
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".ttf" && ext != ".otf" {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		fl.files[normalizeFontName(stem)] = filepath.Join(dir, e.Name())
	}
	logger.Debug("fonts indexed", "dir", dir, "count", len(fl.files))
	return fl
}

// Families reports which families have at least a regular file installed.
func (fl *FontLibrary) Families(names []string) map[string]bool {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	out := make(map[string]bool, len(names))
	for _, n := range names {
		_, ok := fl.lookup(n, false, false)
		out[n] = ok
	}
	return out
}

// Font returns the parsed font for a family and style, falling back first
// to the family's regular file and then to the Go fonts.
func (fl *FontLibrary) Font(family string, bold, italic bool) *opentype.Font {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	return fl.font(family, bold, italic)
}

func (fl *FontLibrary) font(family string, bold, italic bool) *opentype.Font {
	key := fl.key(family, bold, italic)
	if f, ok := fl.parsed[key]; ok {
		return f
	}
	f, err := opentype.Parse(fl.data(key))
	if err != nil {
		if _, ok := embedded[key]; ok {
			// The embedded fonts are known good.
			panic(fmt.Sprintf("parse embedded font: %v", err))
		}
		fl.warnOnce(key, "could not parse font, using fallback", "path", key, "err", err)
		return fl.font("", bold, italic)
	}
	fl.parsed[key] = f
	return f
}

// shapingFont is font for the shaper.
func (fl *FontLibrary) shapingFont(family string, bold, italic bool) *gotext.Font {
	key := fl.key(family, bold, italic)
	if f, ok := fl.shaped[key]; ok {
		return f
	}
	face, err := gotext.ParseTTF(bytes.NewReader(fl.data(key)))
	if err != nil {
		if _, ok := embedded[key]; ok {
			panic(fmt.Sprintf("parse embedded font: %v", err))
		}
		fl.warnOnce(key, "could not parse font, using fallback", "path", key, "err", err)
		return fl.shapingFont("", bold, italic)
	}
	fl.shaped[key] = face.Font
	return face.Font
}

// glyphFace returns a new shaping face. Faces are not safe for concurrent
// use; the parsed font behind them is.
func (fl *FontLibrary) glyphFace(family string, bold, italic bool) *gotext.Face {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	return gotext.NewFace(fl.shapingFont(family, bold, italic))
}

// key resolves a family and style to an installed font file, or to the
// embedded Go font of the same style.
func (fl *FontLibrary) key(family string, bold, italic bool) string {
	path, ok := fl.lookup(family, bold, italic)
	if !ok {
		if family != "" {
			fl.warnOnce(family, "font family not installed, using fallback", "family", family, "dir", fl.dir)
		}
		return fallbackKey(bold, italic)
	}
	if _, ok := fl.raw[path]; ok {
		return path
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fl.warnOnce(path, "could not read font, using fallback", "path", path, "err", err)
		return fallbackKey(bold, italic)
	}
	fl.raw[path] = data
	return path
}

func (fl *FontLibrary) lookup(family string, bold, italic bool) (string, bool) {
	if family == "" {
		return "", false
	}
	base := normalizeFontName(family)
	var candidates []string
	switch {
	case bold && italic:
		candidates = append(candidates, base+"bolditalic", base+"boldit")
	case bold:
		candidates = append(candidates, base+"bold")
	case italic:
		candidates = append(candidates, base+"italic", base+"it")
	}
	candidates = append(candidates, base+"regular", base)
	for _, c := range candidates {
		if p, ok := fl.files[c]; ok {
			return p, true
		}
	}
	return "", false
}

func (fl *FontLibrary) data(key string) []byte {
	if b, ok := embedded[key]; ok {
		return b
	}
	return fl.raw[key]
}

func (fl *FontLibrary) warnOnce(key, msg string, args ...any) {
	if fl.missing[key] {
		return
	}
	fl.missing[key] = true
	fl.logger.Warn(msg, args...)
}

var embedded = map[string][]byte{
	"go:regular":    goregular.TTF,
	"go:bold":       gobold.TTF,
	"go:italic":     goitalic.TTF,
	"go:bolditalic": gobolditalic.TTF,
}

func fallbackKey(bold, italic bool) string {
	switch {
	case bold && italic:
		return "go:bolditalic"
	case bold:
		return "go:bold"
	case italic:
		return "go:italic"
	}
	return "go:regular"
}

// NewFace returns a new metrics face for spec at the given pixel scale.
func (fl *FontLibrary) NewFace(spec layout.FontSpec, scale float64) (font.Face, error) {
	f := fl.Font(spec.Family, spec.Bold, spec.Italic)
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    max(spec.Size*scale, 1),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	return face, nil
}

// Measure implements layout.Measurer with the advance of the shaped text,
// so wrapping matches what the rasterizer draws.
func (fl *FontLibrary) Measure(spec layout.FontSpec, s string) float64 {
	if spec.Size <= 0 || s == "" {
		return 0
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()

	key := styleKey{family: spec.Family, bold: spec.Bold, italic: spec.Italic}
	face, ok := fl.measure[key]
	if !ok {
		face = gotext.NewFace(fl.shapingFont(spec.Family, spec.Bold, spec.Italic))
		fl.measure[key] = face
	}
	_, w := fl.shaper.line(face, spec.Size, s, BaseDirection(s))
	return w
}

func normalizeFontName(s string) string {
	s = strings.ToLower(s)
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, s)
}
