// icons.go — Embedded footer icons rasterized from SVG.
package render

import (
	"embed"
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/xob0t/ayatcard/pkg/card"
)

//go:embed icons/*.svg
var iconFiles embed.FS

// IconSet rasterizes the embedded icons and caches each tinted size.
type IconSet struct {
	mu    sync.Mutex
	cache map[iconKey]*image.RGBA
}

type iconKey struct {
	name  string
	size  int
	color color.NRGBA
}

// NewIconSet returns an empty icon cache.
func NewIconSet() *IconSet {
	return &IconSet{cache: make(map[iconKey]*image.RGBA)}
}

// HasIcon reports whether an icon named name is embedded.
func HasIcon(name string) bool {
	_, err := iconFiles.ReadFile("icons/" + name + ".svg")
	return err == nil
}

// Render returns icon name as a size×size image drawn in c.
func (s *IconSet) Render(name string, size int, c color.NRGBA) (image.Image, error) {
	if size <= 0 {
		return nil, fmt.Errorf("icon %s: invalid size %d", name, size)
	}
	key := iconKey{name: name, size: size, color: c}

	s.mu.Lock()
	defer s.mu.Unlock()
	if img, ok := s.cache[key]; ok {
		return img, nil
	}

	data, err := iconFiles.ReadFile("icons/" + name + ".svg")
	if err != nil {
		return nil, fmt.Errorf("icon %s: %w", name, err)
	}
	svg := strings.ReplaceAll(string(data), "currentColor", card.Hex(c))

	icon, err := oksvg.ReadIconStream(strings.NewReader(svg))
	if err != nil {
		return nil, fmt.Errorf("failed to parse icon %s: %w", name, err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, float64(c.A)/255)

	s.cache[key] = img
	return img, nil
}
